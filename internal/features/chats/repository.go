// Package chats — repository.go работает с таблицей known_group_chats.
package chats

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository предоставляет методы для работы с известными групповыми чатами.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий чатов.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Upsert запоминает чат или обновляет его название и время активности.
func (r *Repository) Upsert(ctx context.Context, chatID int64, title string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO known_group_chats (chat_id, title, last_seen)
		VALUES ($1, $2, NOW())
		ON CONFLICT (chat_id) DO UPDATE SET title = EXCLUDED.title, last_seen = NOW()
	`, chatID, title)
	if err != nil {
		return fmt.Errorf("ошибка записи чата (chat_id=%d): %w", chatID, err)
	}
	return nil
}

// List возвращает все известные чаты, свежие — первыми.
func (r *Repository) List(ctx context.Context) ([]GroupChat, error) {
	rows, err := r.db.Query(ctx, `
		SELECT chat_id, COALESCE(title, ''), last_seen
		FROM known_group_chats
		ORDER BY last_seen DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса чатов: %w", err)
	}
	defer rows.Close()

	var out []GroupChat
	for rows.Next() {
		var c GroupChat
		if err := rows.Scan(&c.ChatID, &c.Title, &c.LastSeen); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
