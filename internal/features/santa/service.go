// Package santa — service.go содержит бизнес-логику игры:
// создание, вход с вишлистом, состояние для мини-аппа, запуск жеребьевки
// и best-effort уведомления участникам.
package santa

import (
	"context"
	"fmt"
	"html"
	"math/rand"
	"time"

	log "github.com/sirupsen/logrus"

	"giftflow.ru/giftflow-bot/internal/common"
)

// Store — операции хранилища, которые нужны сервису игры.
// Реализуется *Repository; в тестах подменяется фейком.
type Store interface {
	CreateGame(ctx context.Context, creatorID int64, title string) (int64, error)
	GameStatus(ctx context.Context, gameID int64) (string, error)
	UpsertParticipant(ctx context.Context, gameID, userID int64, wishlist string) error
	LatestParticipation(ctx context.Context, userID int64) (*Participation, error)
	CountParticipants(ctx context.Context, gameID int64) (int, error)
	ParticipantWishlist(ctx context.Context, gameID, userID int64) (string, bool, error)
	TargetOf(ctx context.Context, gameID, userID int64) (int64, bool, error)
	SantaOf(ctx context.Context, gameID, userID int64) (int64, bool, error)
	StartShuffle(ctx context.Context, gameID, requesterID int64, draw func(givers []int64) ([]int64, error)) ([]Pair, string, error)
	ListStaleRecruiting(ctx context.Context, olderThan time.Time) ([]StaleGame, error)
}

// Notifier — личные сообщения участникам и имена для отображения.
// Ошибки отправки best-effort: вызывающий их явно отбрасывает.
type Notifier interface {
	Notify(ctx context.Context, userID int64, text string) error
	DisplayName(ctx context.Context, userID int64) string
}

// Service управляет играми Тайного Санты.
type Service struct {
	store    Store
	notifier Notifier

	botUsername     string
	shuffleAttempts int
	notifyDelay     time.Duration
}

// NewService создаёт новый сервис игры.
// botUsername нужен для сборки инвайт-ссылок t.me/<bot>/app.
func NewService(store Store, notifier Notifier, botUsername string, shuffleAttempts int, notifyDelay time.Duration) *Service {
	if shuffleAttempts <= 0 {
		shuffleAttempts = DefaultShuffleAttempts
	}
	return &Service{
		store:           store,
		notifier:        notifier,
		botUsername:     botUsername,
		shuffleAttempts: shuffleAttempts,
		notifyDelay:     notifyDelay,
	}
}

// CreateGame создаёт игру и записывает создателя первым участником.
func (s *Service) CreateGame(ctx context.Context, creatorID int64, title string) (int64, error) {
	if title == "" {
		title = DefaultTitle
	}

	gameID, err := s.store.CreateGame(ctx, creatorID, title)
	if err != nil {
		return 0, err
	}

	log.WithFields(log.Fields{
		"game_id":    gameID,
		"creator_id": creatorID,
	}).Info("Игра Тайного Санты создана")

	return gameID, nil
}

// Join записывает пользователя в игру или обновляет его вишлист.
// Вишлист прогоняется через оборачивание ссылок. Вход возможен только
// пока игра в наборе; повторный вход не трогает результат жеребьевки.
func (s *Service) Join(ctx context.Context, gameID, userID int64, wishlist string) error {
	status, err := s.store.GameStatus(ctx, gameID)
	if err != nil {
		return err
	}
	if status != StatusRecruiting {
		return common.ErrGameNotRecruiting
	}

	return s.store.UpsertParticipant(ctx, gameID, userID, WrapWishlistLinks(wishlist))
}

// StateForUser возвращает состояние пользователя в его самой свежей игре
// или nil, если он нигде не участвует.
func (s *Service) StateForUser(ctx context.Context, userID int64) (*UserState, error) {
	p, err := s.store.LatestParticipation(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, nil
	}

	title := p.Title
	if title == "" {
		title = DefaultTitle
	}

	state := &UserState{
		GameID:     p.GameID,
		GameTitle:  title,
		GameStatus: p.Status,
		IsCreator:  p.CreatorID == userID,
		MyWishlist: p.Wishlist,
	}

	if p.Status == StatusRecruiting {
		count, err := s.store.CountParticipants(ctx, p.GameID)
		if err != nil {
			return nil, err
		}
		state.ParticipantsCount = count
		if state.IsCreator {
			state.InviteLink = fmt.Sprintf("https://t.me/%s/app?startapp=santa_%d", s.botUsername, p.GameID)
		}
	}

	if p.Status == StatusActive && p.TargetUserID != nil {
		targetID := *p.TargetUserID
		// Имя подопечного — best effort: при ошибке Telegram вернется заглушка
		state.TargetUserName = s.notifier.DisplayName(ctx, targetID)

		wishlist, found, err := s.store.ParticipantWishlist(ctx, p.GameID, targetID)
		if err != nil {
			return nil, err
		}
		if !found || wishlist == "" {
			wishlist = emptyWishlistPlaceholder
		}
		state.TargetWishlist = wishlist
	}

	return state, nil
}

// StartShuffle запускает жеребьевку игры. Все проверки и записи — одна
// транзакция хранилища; уведомления рассылаются уже после фиксации.
func (s *Service) StartShuffle(ctx context.Context, gameID, requesterID int64) error {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	draw := func(givers []int64) ([]int64, error) {
		return DrawReceivers(givers, rng, s.shuffleAttempts)
	}

	pairs, title, err := s.store.StartShuffle(ctx, gameID, requesterID, draw)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"game_id":      gameID,
		"participants": len(pairs),
	}).Info("Жеребьевка завершена")

	if title == "" {
		title = DefaultTitle
	}
	// Пары уже зафиксированы в базе — уведомления идут отдельно и не могут
	// откатить жеребьевку. Контекст свой: запрос к этому моменту завершен.
	go s.notifyPairs(context.Background(), title, pairs)

	return nil
}

// notifyPairs сообщает каждому дарителю его подопечного.
// Ошибка по одному участнику не мешает остальным; между сообщениями
// небольшая пауза, чтобы не упереться в лимиты Telegram.
func (s *Service) notifyPairs(ctx context.Context, title string, pairs []Pair) {
	for _, pair := range pairs {
		receiverName := s.notifier.DisplayName(ctx, pair.ReceiverID)
		text := fmt.Sprintf(
			"🎅 <b>Жеребьевка в игре «%s» завершена!</b>\n\nТвой подопечный: <b>%s</b> 🎁\n\nЗайди в приложение, чтобы увидеть его вишлист!",
			html.EscapeString(title), receiverName,
		)
		// Best effort: неудача одного уведомления не трогает остальных
		if err := s.notifier.Notify(ctx, pair.GiverID, text); err != nil {
			log.WithError(err).WithField("user_id", pair.GiverID).Debug("Не удалось уведомить дарителя")
		}
		time.Sleep(s.notifyDelay)
	}
}

// MarkSent — даритель отметил, что отправил подарок: уведомляем подопечного.
func (s *Service) MarkSent(ctx context.Context, gameID, userID int64) error {
	targetID, ok, err := s.store.TargetOf(ctx, gameID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	// Best effort: подтверждение чисто информационное
	_ = s.notifier.Notify(ctx, targetID, "🎁 Санта отправил подарок!")
	return nil
}

// MarkReceived — участник отметил получение: уведомляем его санту.
func (s *Service) MarkReceived(ctx context.Context, gameID, userID int64) error {
	santaID, ok, err := s.store.SantaOf(ctx, gameID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	// Best effort
	_ = s.notifier.Notify(ctx, santaID, "🎉 Подарок получен!")
	return nil
}

// RemindStaleRecruiting напоминает создателям об играх, зависших в наборе.
// Вызывается планировщиком.
func (s *Service) RemindStaleRecruiting(ctx context.Context, staleAfter time.Duration) error {
	games, err := s.store.ListStaleRecruiting(ctx, time.Now().Add(-staleAfter))
	if err != nil {
		return err
	}

	for _, g := range games {
		title := g.Title
		if title == "" {
			title = DefaultTitle
		}
		text := fmt.Sprintf(
			"⏳ Игра «%s» все еще в наборе: %d %s.\nЗапусти жеребьевку в приложении, когда все соберутся!",
			html.EscapeString(title), g.Participants, common.PluralizeParticipants(g.Participants),
		)
		// Best effort: пропущенное напоминание не ошибка
		if err := s.notifier.Notify(ctx, g.CreatorID, text); err != nil {
			log.WithError(err).WithField("game_id", g.ID).Debug("Не удалось отправить напоминание")
		}
		time.Sleep(s.notifyDelay)
	}

	return nil
}
