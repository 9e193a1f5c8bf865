// Package collections управляет коллективными сборами на подарки.
// models.go описывает структуры сбора и его проекции для мини-аппа.
package collections

import "time"

// Статусы сбора. Переход active → finished происходит ровно один раз,
// и делает его только платежный модуль.
const (
	StatusActive   = "active"
	StatusFinished = "finished"
)

// DefaultImageURL — картинка-заглушка для нового сбора.
const DefaultImageURL = "https://cdn-icons-png.flaticon.com/512/9466/9466245.png"

// defaultDescription подставляется при создании, пока создатель не заполнил свою.
const defaultDescription = "Описание отсутствует"

// Collection представляет один сбор.
// current_amount всегда равен сумме вкладов и растет только через платежный модуль.
type Collection struct {
	ID            int64     `db:"id"`
	CreatorID     int64     `db:"creator_id"`     // Telegram user ID создателя
	TargetChatID  int64     `db:"target_chat_id"` // Групповой чат, для которого собираем
	Goal          string    `db:"goal"`           // Цель сбора (текст)
	Description   string    `db:"description"`
	ImageURL      string    `db:"image_url"`
	Amount        int64     `db:"amount"`         // Сколько нужно собрать (в старах)
	CurrentAmount int64     `db:"current_amount"` // Сколько уже собрано
	Status        string    `db:"status"`
	CreatedAt     time.Time `db:"created_at"`
}

// Info — полная проекция сбора для мини-аппа.
// Идентификаторы отдаются строками: JS теряет точность на больших int64.
type Info struct {
	ID          int64  `json:"id,string"`
	CreatorID   int64  `json:"creator_id,string"`
	Goal        string `json:"goal"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	Amount      int64  `json:"amount"`
	Current     int64  `json:"current"`
	Status      string `json:"status"`
	Percent     int    `json:"percent"`
}

// Summary — краткая строка для списков «мои сборы».
type Summary struct {
	ID      int64  `json:"id,string"`
	Goal    string `json:"goal"`
	Amount  int64  `json:"amount"`
	Current int64  `json:"current"`
	Status  string `json:"status"`
	Percent int    `json:"percent"`
}

// UserCollections — два непересекающихся списка: созданные пользователем
// и те, куда он вкладывался (исключая собственные).
type UserCollections struct {
	Created      []Summary `json:"created"`
	Participated []Summary `json:"participated"`
}

// percent считает процент заполнения сбора с защитой от деления на ноль.
func percent(current, amount int64) int {
	if amount <= 0 {
		return 0
	}
	return int(current * 100 / amount)
}
