// Package bot содержит главный модуль бота — запуск polling и маршрутизацию
// обновлений: pre-checkout подтверждения, успешные платежи в старах
// и учет групповых чатов, где бот видит активность.
package bot

import (
	"context"
	"fmt"

	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"

	"giftflow.ru/giftflow-bot/internal/bot/middleware"
	"giftflow.ru/giftflow-bot/internal/config"
	"giftflow.ru/giftflow-bot/internal/features/chats"
	"giftflow.ru/giftflow-bot/internal/features/payments"
)

// Bot — главная структура бота, объединяющая все компоненты.
type Bot struct {
	api *telego.Bot
	cfg *config.Config

	paymentService *payments.Service
	chatService    *chats.Service

	botUsername string

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
}

// New создаёт новый экземпляр бота со всеми зависимостями.
func New(
	api *telego.Bot,
	cfg *config.Config,
	paymentService *payments.Service,
	chatService *chats.Service,
	botUsername string,
) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		api:            api,
		cfg:            cfg,
		paymentService: paymentService,
		chatService:    chatService,
		botUsername:    botUsername,
		inflight:       make(chan struct{}, maxInFlight),
	}
}

// Start запускает polling обновлений от Telegram.
func (b *Bot) Start(ctx context.Context) error {
	updates, err := b.api.UpdatesViaLongPolling(ctx, nil)
	if err != nil {
		return fmt.Errorf("ошибка запуска long polling: %w", err)
	}

	log.WithField("max_inflight", cap(b.inflight)).Info("Бот запущен и ожидает сообщения...")

	for {
		select {
		case <-ctx.Done():
			log.Info("Бот останавливается (ctx done)...")
			return nil

		case update, ok := <-updates:
			if !ok {
				log.Info("Канал updates закрыт, бот остановлен")
				return nil
			}

			// лимит параллелизма
			b.inflight <- struct{}{}
			go func(upd telego.Update) {
				defer func() { <-b.inflight }()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// handleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update telego.Update) {
	defer middleware.RecoverFromPanic()

	// Pre-checkout: Telegram ждет ответ до списания звезд
	if update.PreCheckoutQuery != nil {
		b.handlePreCheckout(ctx, update.PreCheckoutQuery)
		return
	}

	if update.Message == nil {
		return
	}
	message := update.Message

	// Успешный платеж — единственный момент, когда деньги попадают в сбор
	if message.SuccessfulPayment != nil {
		b.handleSuccessfulPayment(ctx, message)
		return
	}

	middleware.LogMessage(message)

	switch message.Chat.Type {
	case telego.ChatTypeGroup, telego.ChatTypeSupergroup:
		// Любая активность в группе делает чат кандидатом для объявлений
		b.chatService.TrackActivity(ctx, message.Chat.ID, message.Chat.Title)

	case telego.ChatTypePrivate:
		if message.Text == "/start" {
			b.sendWelcome(ctx, message.Chat.ID)
		}
	}
}

// handlePreCheckout подтверждает pre-checkout запрос.
// Отказывать нет причин: сумма и валюта зашиты в ссылке-инвойсе.
func (b *Bot) handlePreCheckout(ctx context.Context, query *telego.PreCheckoutQuery) {
	err := b.api.AnswerPreCheckoutQuery(ctx, &telego.AnswerPreCheckoutQueryParams{
		PreCheckoutQueryID: query.ID,
		Ok:                 true,
	})
	if err != nil {
		log.WithError(err).WithField("user_id", query.From.ID).Error("Ошибка ответа на pre-checkout")
	}
}

// handleSuccessfulPayment проводит подтвержденный платеж через сервис.
func (b *Bot) handleSuccessfulPayment(ctx context.Context, message *telego.Message) {
	if message.From == nil {
		return
	}
	payment := message.SuccessfulPayment

	err := b.paymentService.HandleConfirmedPayment(
		ctx,
		message.From.ID,
		payment.InvoicePayload,
		int64(payment.TotalAmount),
		payment.Currency,
		payment.TelegramPaymentChargeID,
	)
	if err != nil {
		// Деньги уже списаны Telegram — потерять такой платеж нельзя молча
		log.WithError(err).WithFields(log.Fields{
			"user_id":   message.From.ID,
			"payload":   payment.InvoicePayload,
			"charge_id": payment.TelegramPaymentChargeID,
		}).Error("Ошибка проведения платежа")
	}
}

// sendWelcome отвечает на /start кнопкой в мини-апп.
func (b *Bot) sendWelcome(ctx context.Context, chatID int64) {
	_, err := b.api.SendMessage(ctx, &telego.SendMessageParams{
		ChatID: telego.ChatID{ID: chatID},
		Text:   "Привет! Здесь можно собирать деньги с друзей и играть в Тайного Санту 🎅",
		ReplyMarkup: &telego.InlineKeyboardMarkup{
			InlineKeyboard: [][]telego.InlineKeyboardButton{{
				{Text: "Открыть приложение", URL: fmt.Sprintf("https://t.me/%s/app", b.botUsername)},
			}},
		},
	})
	if err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки приветствия")
	}
}
