// Package payments — repository.go проводит вклад по сбору.
// Вставка вклада, инкремент current_amount и переход в finished —
// одна транзакция: либо применяется всё, либо ничего.
package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"giftflow.ru/giftflow-bot/internal/common"
	"giftflow.ru/giftflow-bot/internal/features/collections"
)

// Код PostgreSQL «нарушение внешнего ключа» — вклад в несуществующий сбор.
const pgForeignKeyViolation = "23503"

// Repository проводит вклады по таблицам contributions и collections.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий платежей.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// RecordPayment записывает вклад и атомарно увеличивает прогресс сбора.
//
// Инкремент делается одним UPDATE (current_amount = current_amount + N),
// поэтому два параллельных платежа не теряют друг друга: второй UPDATE
// ждет блокировку строки и прибавляет к уже обновленному значению.
// Статус в RETURNING — до-инкрементный (UPDATE его не трогал), так что
// переход в finished срабатывает ровно один раз.
func (r *Repository) RecordPayment(ctx context.Context, c *Contribution) (*Result, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO contributions (collection_id, user_id, amount, currency, telegram_payment_charge_id)
		VALUES ($1, $2, $3, $4, $5)
	`, c.CollectionID, c.UserID, c.Amount, c.Currency, c.ChargeID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return nil, common.ErrCollectionNotFound
		}
		return nil, fmt.Errorf("ошибка записи вклада: %w", err)
	}

	res := &Result{CollectionID: c.CollectionID}
	var status string
	err = tx.QueryRow(ctx, `
		UPDATE collections
		SET current_amount = current_amount + $1
		WHERE id = $2
		RETURNING current_amount, amount, goal, target_chat_id, status
	`, c.Amount, c.CollectionID).Scan(
		&res.CurrentAmount, &res.Amount, &res.Goal, &res.TargetChatID, &status,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrCollectionNotFound
		}
		return nil, fmt.Errorf("ошибка обновления прогресса сбора: %w", err)
	}

	if res.CurrentAmount >= res.Amount && status == collections.StatusActive {
		if _, err := tx.Exec(ctx,
			`UPDATE collections SET status = $1 WHERE id = $2`,
			collections.StatusFinished, c.CollectionID,
		); err != nil {
			return nil, fmt.Errorf("ошибка завершения сбора: %w", err)
		}
		res.GoalReached = true
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return res, nil
}
