// Package collections — repository.go выполняет все операции с таблицей collections.
// Удаление выполняется в транзакции с блокировкой строки, чтобы параллельный
// платеж не успел пополнить сбор между проверкой и удалением.
package collections

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"giftflow.ru/giftflow-bot/internal/common"
)

// Repository предоставляет методы для работы с таблицей collections.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий сборов.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create вставляет новый сбор и возвращает его ID.
func (r *Repository) Create(ctx context.Context, c *Collection) (int64, error) {
	query := `
		INSERT INTO collections (creator_id, target_chat_id, goal, amount, image_url, description, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	var id int64
	err := r.db.QueryRow(ctx, query,
		c.CreatorID, c.TargetChatID, c.Goal, c.Amount, c.ImageURL, c.Description, c.Status,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания сбора: %w", err)
	}
	return id, nil
}

// UpdateDetails обновляет описание и картинку сбора.
// WHERE включает creator_id: чужой запрос просто не затронет ни одной строки.
// Возвращает, была ли затронута строка — вызывающий обязан проверить.
func (r *Repository) UpdateDetails(ctx context.Context, id, creatorID int64, description, imageURL string) (bool, error) {
	query := `
		UPDATE collections
		SET description = $1, image_url = $2
		WHERE id = $3 AND creator_id = $4
	`
	tag, err := r.db.Exec(ctx, query, description, imageURL, id, creatorID)
	if err != nil {
		return false, fmt.Errorf("ошибка обновления сбора: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// GetByID возвращает сбор по ID.
// Отсутствующий сбор — штатная ситуация: возвращается (nil, nil).
func (r *Repository) GetByID(ctx context.Context, id int64) (*Collection, error) {
	query := `
		SELECT id, creator_id, target_chat_id, goal, description, image_url,
		       amount, current_amount, status, created_at
		FROM collections
		WHERE id = $1
	`
	var c Collection
	err := r.db.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.CreatorID, &c.TargetChatID, &c.Goal, &c.Description, &c.ImageURL,
		&c.Amount, &c.CurrentAmount, &c.Status, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка чтения сбора (id=%d): %w", id, err)
	}
	return &c, nil
}

// ListCreated возвращает сборы, созданные пользователем, от новых к старым.
func (r *Repository) ListCreated(ctx context.Context, userID int64) ([]*Collection, error) {
	query := `
		SELECT id, creator_id, target_chat_id, goal, description, image_url,
		       amount, current_amount, status, created_at
		FROM collections
		WHERE creator_id = $1
		ORDER BY created_at DESC
	`
	return r.queryCollections(ctx, query, userID)
}

// ListContributed возвращает сборы, в которые пользователь вкладывался,
// исключая его собственные (иначе сбор попал бы в оба списка).
func (r *Repository) ListContributed(ctx context.Context, userID int64) ([]*Collection, error) {
	query := `
		SELECT DISTINCT c.id, c.creator_id, c.target_chat_id, c.goal, c.description, c.image_url,
		       c.amount, c.current_amount, c.status, c.created_at
		FROM collections c
		JOIN contributions cb ON c.id = cb.collection_id
		WHERE cb.user_id = $1 AND c.creator_id != $1
		ORDER BY c.created_at DESC
	`
	return r.queryCollections(ctx, query, userID)
}

// DeleteSafely удаляет сбор с проверками владения и нулевого баланса.
// Вся проверка и удаление — одна транзакция с FOR UPDATE: параллельный платеж
// либо попадет до блокировки (и удаление откажет), либо упрется в отсутствие строки.
func (r *Repository) DeleteSafely(ctx context.Context, id, requesterID int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var creatorID, currentAmount int64
	err = tx.QueryRow(ctx,
		`SELECT creator_id, current_amount FROM collections WHERE id = $1 FOR UPDATE`, id,
	).Scan(&creatorID, &currentAmount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.ErrCollectionNotFound
		}
		return fmt.Errorf("ошибка чтения сбора (id=%d): %w", id, err)
	}

	if creatorID != requesterID {
		return common.ErrNotCreator
	}
	if currentAmount > 0 {
		return common.ErrMoneyCollected
	}

	// Вкладов по инварианту нет (current_amount == 0), но чистим на всякий случай
	if _, err := tx.Exec(ctx, `DELETE FROM contributions WHERE collection_id = $1`, id); err != nil {
		return fmt.Errorf("ошибка удаления вкладов: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM collections WHERE id = $1`, id); err != nil {
		return fmt.Errorf("ошибка удаления сбора: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *Repository) queryCollections(ctx context.Context, query string, args ...any) ([]*Collection, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса сборов: %w", err)
	}
	defer rows.Close()

	var out []*Collection
	for rows.Next() {
		var c Collection
		if err := rows.Scan(
			&c.ID, &c.CreatorID, &c.TargetChatID, &c.Goal, &c.Description, &c.ImageURL,
			&c.Amount, &c.CurrentAmount, &c.Status, &c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки: %w", err)
		}
		out = append(out, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return out, nil
}
