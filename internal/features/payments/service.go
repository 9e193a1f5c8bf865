// Package payments — service.go содержит бизнес-логику проводки платежей:
// разбор payload инвойса, запись вклада, объявление о достижении цели.
package payments

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"giftflow.ru/giftflow-bot/internal/common"
)

// payloadPrefix — формат payload инвойса: "collection_<id>".
const payloadPrefix = "collection_"

// Store — операции хранилища, которые нужны платежному сервису.
type Store interface {
	RecordPayment(ctx context.Context, c *Contribution) (*Result, error)
}

// Notifier отправляет сообщение в чат. Ошибка отправки не влияет
// на судьбу уже проведенного платежа — вызывающий её явно отбрасывает.
type Notifier interface {
	Notify(ctx context.Context, chatID int64, text string) error
}

// Service проводит подтвержденные платежи.
type Service struct {
	store    Store
	notifier Notifier
}

// NewService создаёт новый платежный сервис.
func NewService(store Store, notifier Notifier) *Service {
	return &Service{store: store, notifier: notifier}
}

// HandleConfirmedPayment проводит одно подтверждение платежа от Telegram.
//
// Кривой payload (не наш формат, не-числовой id) отбрасывается с логом:
// подтверждение платежа нельзя «вернуть» Telegram, повторять его бессмысленно.
// Ошибка базы возвращается наверх — транзакция при этом полностью откатилась.
func (s *Service) HandleConfirmedPayment(ctx context.Context, payerID int64, payload string, amount int64, currency, chargeID string) error {
	collectionID, err := parsePayload(payload)
	if err != nil {
		log.WithFields(log.Fields{
			"payload":  payload,
			"payer_id": payerID,
		}).Warn("Платеж с кривым payload, отбрасываем")
		return nil
	}

	res, err := s.store.RecordPayment(ctx, &Contribution{
		CollectionID: collectionID,
		UserID:       payerID,
		Amount:       amount,
		Currency:     currency,
		ChargeID:     chargeID,
	})
	if err != nil {
		return fmt.Errorf("проводка платежа (collection_id=%d): %w", collectionID, err)
	}

	log.WithFields(log.Fields{
		"collection_id": res.CollectionID,
		"payer_id":      payerID,
		"amount":        amount,
		"current":       res.CurrentAmount,
		"goal_reached":  res.GoalReached,
	}).Info("Вклад проведен")

	if res.GoalReached {
		text := fmt.Sprintf(
			"🎉 <b>СБОР ЗАВЕРШЕН!</b>\nЦель «%s» достигнута! Собрано %s",
			html.EscapeString(res.Goal), common.FormatStars(res.CurrentAmount),
		)
		// Объявление — best effort: деньги уже проведены и зафиксированы
		_ = s.notifier.Notify(ctx, res.TargetChatID, text)
	}

	return nil
}

// parsePayload извлекает ID сбора из payload инвойса ("collection_<id>").
func parsePayload(payload string) (int64, error) {
	raw, ok := strings.CutPrefix(payload, payloadPrefix)
	if !ok {
		return 0, common.ErrBadIdentifier
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, common.ErrBadIdentifier
	}
	return id, nil
}

// InvoicePayload собирает payload инвойса для сбора.
// Обратная операция к parsePayload, используется при выставлении инвойса.
func InvoicePayload(collectionID int64) string {
	return payloadPrefix + strconv.FormatInt(collectionID, 10)
}
