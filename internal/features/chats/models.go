// Package chats отслеживает групповые чаты, в которых бот видел активность,
// и отбирает из них общие для пользователя — кандидаты для объявления сбора.
package chats

import "time"

// GroupChat — групповой чат, известный боту.
type GroupChat struct {
	ChatID   int64     `db:"chat_id"`
	Title    string    `db:"title"`
	LastSeen time.Time `db:"last_seen"`
}

// ChatOption — чат, который можно предложить пользователю в мини-аппе.
// Идентификатор отдается строкой: JS теряет точность на больших int64.
type ChatOption struct {
	ChatID int64  `json:"chat_id,string"`
	Title  string `json:"title"`
}
