// Package collections — service.go содержит бизнес-логику сборов:
// валидация при создании, проекции для мини-аппа, безопасное удаление.
package collections

import (
	"context"

	log "github.com/sirupsen/logrus"

	"giftflow.ru/giftflow-bot/internal/common"
)

// Store — операции хранилища, которые нужны сервису сборов.
// Реализуется *Repository; в тестах подменяется фейком.
type Store interface {
	Create(ctx context.Context, c *Collection) (int64, error)
	UpdateDetails(ctx context.Context, id, creatorID int64, description, imageURL string) (bool, error)
	GetByID(ctx context.Context, id int64) (*Collection, error)
	ListCreated(ctx context.Context, userID int64) ([]*Collection, error)
	ListContributed(ctx context.Context, userID int64) ([]*Collection, error)
	DeleteSafely(ctx context.Context, id, requesterID int64) error
}

// Service управляет сборами.
type Service struct {
	store Store
}

// NewService создаёт новый сервис сборов.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Create создаёт новый сбор со статусом active и нулевым прогрессом.
// Сумма цели обязана быть положительной.
func (s *Service) Create(ctx context.Context, creatorID, targetChatID int64, goal string, amount int64) (*Collection, error) {
	if amount <= 0 {
		return nil, common.ErrInvalidAmount
	}

	c := &Collection{
		CreatorID:    creatorID,
		TargetChatID: targetChatID,
		Goal:         goal,
		Description:  defaultDescription,
		ImageURL:     DefaultImageURL,
		Amount:       amount,
		Status:       StatusActive,
	}

	id, err := s.store.Create(ctx, c)
	if err != nil {
		return nil, err
	}
	c.ID = id

	log.WithFields(log.Fields{
		"collection_id": id,
		"creator_id":    creatorID,
		"amount":        amount,
	}).Info("Сбор создан")

	return c, nil
}

// UpdateDetails обновляет описание и картинку. Применяется только если
// requester — создатель; иначе возвращает false без ошибки.
func (s *Service) UpdateDetails(ctx context.Context, id, requesterID int64, description, imageURL string) (bool, error) {
	return s.store.UpdateDetails(ctx, id, requesterID, description, imageURL)
}

// GetByID возвращает проекцию сбора для мини-аппа
// или nil, если сбор не найден (это не ошибка).
func (s *Service) GetByID(ctx context.Context, id int64) (*Info, error) {
	c, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, nil
	}

	return &Info{
		ID:          c.ID,
		CreatorID:   c.CreatorID,
		Goal:        c.Goal,
		Description: c.Description,
		ImageURL:    c.ImageURL,
		Amount:      c.Amount,
		Current:     c.CurrentAmount,
		Status:      c.Status,
		Percent:     percent(c.CurrentAmount, c.Amount),
	}, nil
}

// ListForUser возвращает сборы пользователя двумя списками:
// созданные им и те, куда он вкладывался.
func (s *Service) ListForUser(ctx context.Context, userID int64) (*UserCollections, error) {
	created, err := s.store.ListCreated(ctx, userID)
	if err != nil {
		return nil, err
	}
	participated, err := s.store.ListContributed(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &UserCollections{
		Created:      toSummaries(created),
		Participated: toSummaries(participated),
	}, nil
}

// Delete удаляет сбор. Отказывает с конкретной причиной:
// не найден / не создатель / деньги уже собраны.
func (s *Service) Delete(ctx context.Context, id, requesterID int64) error {
	if err := s.store.DeleteSafely(ctx, id, requesterID); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"collection_id": id,
		"requester_id":  requesterID,
	}).Info("Сбор удален")
	return nil
}

func toSummaries(list []*Collection) []Summary {
	out := make([]Summary, 0, len(list))
	for _, c := range list {
		out = append(out, Summary{
			ID:      c.ID,
			Goal:    c.Goal,
			Amount:  c.Amount,
			Current: c.CurrentAmount,
			Status:  c.Status,
			Percent: percent(c.CurrentAmount, c.Amount),
		})
	}
	return out
}
