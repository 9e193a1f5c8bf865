// Package chats — service.go: учет активности и выбор общих чатов.
package chats

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// Store — операции хранилища, которые нужны сервису чатов.
type Store interface {
	Upsert(ctx context.Context, chatID int64, title string) error
	List(ctx context.Context) ([]GroupChat, error)
}

// Membership проверяет, состоит ли пользователь в чате.
// Реализуется клиентом Telegram; ошибка запроса трактуется как «не состоит».
type Membership interface {
	IsChatMember(ctx context.Context, chatID, userID int64) bool
}

// Service ведет список групповых чатов, известных боту.
type Service struct {
	store      Store
	membership Membership
}

// NewService создаёт новый сервис чатов.
func NewService(store Store, membership Membership) *Service {
	return &Service{store: store, membership: membership}
}

// TrackActivity запоминает чат по любому сообщению в группе.
// Ошибка не роняет обработку апдейта — только логируется.
func (s *Service) TrackActivity(ctx context.Context, chatID int64, title string) {
	if err := s.store.Upsert(ctx, chatID, title); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Warn("Не удалось запомнить чат")
	}
}

// CommonChats возвращает известные чаты, в которых состоит пользователь.
// Каждый чат проверяется через Telegram: бот мог быть удален из чата,
// а пользователь — никогда в нем не состоять.
func (s *Service) CommonChats(ctx context.Context, userID int64) ([]ChatOption, error) {
	known, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]ChatOption, 0, len(known))
	for _, c := range known {
		if !s.membership.IsChatMember(ctx, c.ChatID, userID) {
			continue
		}
		out = append(out, ChatOption{ChatID: c.ChatID, Title: c.Title})
	}
	return out, nil
}
