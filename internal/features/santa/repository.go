// Package santa — repository.go выполняет все операции с таблицами
// santa_games и santa_participants. Жеребьевка — одна транзакция
// с блокировкой строки игры: из двух конкурентных запусков выигрывает
// первый, второй видит статус active и отказывает без записей.
package santa

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"giftflow.ru/giftflow-bot/internal/common"
)

// Repository предоставляет методы для работы с играми и участниками.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий Тайного Санты.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateGame создаёт игру в статусе recruiting и сразу записывает создателя
// первым участником. Обе вставки — одна транзакция.
func (r *Repository) CreateGame(ctx context.Context, creatorID int64, title string) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var gameID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO santa_games (creator_id, title, status)
		VALUES ($1, $2, $3)
		RETURNING id
	`, creatorID, title, StatusRecruiting).Scan(&gameID)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания игры: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO santa_participants (game_id, user_id, wishlist)
		VALUES ($1, $2, '')
	`, gameID, creatorID)
	if err != nil {
		return 0, fmt.Errorf("ошибка записи создателя в участники: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return gameID, nil
}

// GameStatus возвращает статус игры или пустую строку, если игры нет.
func (r *Repository) GameStatus(ctx context.Context, gameID int64) (string, error) {
	var status string
	err := r.db.QueryRow(ctx,
		`SELECT status FROM santa_games WHERE id = $1`, gameID,
	).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("ошибка чтения статуса игры (id=%d): %w", gameID, err)
	}
	return status, nil
}

// UpsertParticipant записывает участника или обновляет его вишлист.
// Повторный вход меняет только вишлист — target_user_id не трогается.
func (r *Repository) UpsertParticipant(ctx context.Context, gameID, userID int64, wishlist string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO santa_participants (game_id, user_id, wishlist)
		VALUES ($1, $2, $3)
		ON CONFLICT (game_id, user_id) DO UPDATE SET wishlist = EXCLUDED.wishlist
	`, gameID, userID, wishlist)
	if err != nil {
		return fmt.Errorf("ошибка записи участника: %w", err)
	}
	return nil
}

// LatestParticipation возвращает участие пользователя в его самой свежей
// игре со статусом recruiting или active, или nil, если таких нет.
func (r *Repository) LatestParticipation(ctx context.Context, userID int64) (*Participation, error) {
	query := `
		SELECT p.game_id, COALESCE(p.wishlist, ''), p.target_user_id,
		       COALESCE(g.title, ''), g.status, g.creator_id
		FROM santa_participants p
		JOIN santa_games g ON p.game_id = g.id
		WHERE p.user_id = $1 AND g.status IN ($2, $3)
		ORDER BY g.created_at DESC
		LIMIT 1
	`
	var p Participation
	err := r.db.QueryRow(ctx, query, userID, StatusRecruiting, StatusActive).Scan(
		&p.GameID, &p.Wishlist, &p.TargetUserID, &p.Title, &p.Status, &p.CreatorID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка чтения участия (user_id=%d): %w", userID, err)
	}
	return &p, nil
}

// CountParticipants возвращает число участников игры.
func (r *Repository) CountParticipants(ctx context.Context, gameID int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM santa_participants WHERE game_id = $1`, gameID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчета участников: %w", err)
	}
	return count, nil
}

// ParticipantWishlist возвращает вишлист участника игры.
// Второй результат — нашлась ли вообще строка участника.
func (r *Repository) ParticipantWishlist(ctx context.Context, gameID, userID int64) (string, bool, error) {
	var wishlist string
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(wishlist, '') FROM santa_participants
		WHERE game_id = $1 AND user_id = $2
	`, gameID, userID).Scan(&wishlist)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("ошибка чтения вишлиста: %w", err)
	}
	return wishlist, true, nil
}

// TargetOf возвращает, кому дарит участник (после жеребьевки).
func (r *Repository) TargetOf(ctx context.Context, gameID, userID int64) (int64, bool, error) {
	var target *int64
	err := r.db.QueryRow(ctx, `
		SELECT target_user_id FROM santa_participants
		WHERE game_id = $1 AND user_id = $2
	`, gameID, userID).Scan(&target)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("ошибка чтения подопечного: %w", err)
	}
	if target == nil {
		return 0, false, nil
	}
	return *target, true, nil
}

// SantaOf возвращает, кто дарит этому участнику (его «тайного санту»).
func (r *Repository) SantaOf(ctx context.Context, gameID, userID int64) (int64, bool, error) {
	var santaID int64
	err := r.db.QueryRow(ctx, `
		SELECT user_id FROM santa_participants
		WHERE game_id = $1 AND target_user_id = $2
	`, gameID, userID).Scan(&santaID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("ошибка поиска санты: %w", err)
	}
	return santaID, true, nil
}

// StartShuffle проводит жеребьевку игры в одной транзакции:
// проверки (игра в наборе, запускает создатель, участников >= 2),
// подбор расстановки через draw, запись target_user_id каждому
// и перевод игры в active. Любая ошибка откатывает всё целиком.
//
// SELECT ... FOR UPDATE на строке игры сериализует конкурентные запуски:
// второй дождется первого, увидит статус active и получит отказ.
func (r *Repository) StartShuffle(
	ctx context.Context,
	gameID, requesterID int64,
	draw func(givers []int64) ([]int64, error),
) ([]Pair, string, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var creatorID int64
	var status, title string
	err = tx.QueryRow(ctx, `
		SELECT creator_id, status, COALESCE(title, '')
		FROM santa_games
		WHERE id = $1
		FOR UPDATE
	`, gameID).Scan(&creatorID, &status, &title)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", common.ErrGameNotRecruiting
		}
		return nil, "", fmt.Errorf("ошибка чтения игры (id=%d): %w", gameID, err)
	}

	if status != StatusRecruiting {
		return nil, "", common.ErrGameNotRecruiting
	}
	if creatorID != requesterID {
		return nil, "", common.ErrNotGameCreator
	}

	rows, err := tx.Query(ctx,
		`SELECT user_id FROM santa_participants WHERE game_id = $1 ORDER BY id`, gameID,
	)
	if err != nil {
		return nil, "", fmt.Errorf("ошибка чтения участников: %w", err)
	}
	var givers []int64
	for rows.Next() {
		var userID int64
		if err := rows.Scan(&userID); err != nil {
			rows.Close()
			return nil, "", fmt.Errorf("ошибка сканирования участника: %w", err)
		}
		givers = append(givers, userID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("ошибка чтения строк: %w", err)
	}

	if len(givers) < 2 {
		return nil, "", common.ErrTooFewParticipants
	}

	receivers, err := draw(givers)
	if err != nil {
		// Расстановка не нашлась — игра остается в наборе, записей нет
		return nil, "", err
	}

	pairs := make([]Pair, 0, len(givers))
	for i := range givers {
		if _, err := tx.Exec(ctx, `
			UPDATE santa_participants SET target_user_id = $1
			WHERE game_id = $2 AND user_id = $3
		`, receivers[i], gameID, givers[i]); err != nil {
			return nil, "", fmt.Errorf("ошибка записи пары: %w", err)
		}
		pairs = append(pairs, Pair{GiverID: givers[i], ReceiverID: receivers[i]})
	}

	if _, err := tx.Exec(ctx,
		`UPDATE santa_games SET status = $1 WHERE id = $2`, StatusActive, gameID,
	); err != nil {
		return nil, "", fmt.Errorf("ошибка перевода игры в active: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, "", fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return pairs, title, nil
}

// ListStaleRecruiting возвращает игры, зависшие в наборе дольше порога.
func (r *Repository) ListStaleRecruiting(ctx context.Context, olderThan time.Time) ([]StaleGame, error) {
	query := `
		SELECT g.id, g.creator_id, COALESCE(g.title, ''), COUNT(p.id)
		FROM santa_games g
		LEFT JOIN santa_participants p ON p.game_id = g.id
		WHERE g.status = $1 AND g.created_at < $2
		GROUP BY g.id, g.creator_id, g.title
		ORDER BY g.created_at
	`
	rows, err := r.db.Query(ctx, query, StatusRecruiting, olderThan)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса зависших игр: %w", err)
	}
	defer rows.Close()

	var out []StaleGame
	for rows.Next() {
		var g StaleGame
		if err := rows.Scan(&g.ID, &g.CreatorID, &g.Title, &g.Participants); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
