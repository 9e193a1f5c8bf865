// Package telegram оборачивает клиент Bot API в узкие методы,
// которые нужны сервисам: личные сообщения, имена пользователей,
// проверка членства в чате и ссылки на оплату в старах.
package telegram

import (
	"context"
	"fmt"

	"github.com/mymmrac/telego"
)

// Client — тонкая обертка над telego.Bot.
type Client struct {
	bot      *telego.Bot
	username string
}

// NewClient создаёт обертку. username — имя бота из GetMe, без @.
func NewClient(bot *telego.Bot, username string) *Client {
	return &Client{bot: bot, username: username}
}

// Username возвращает имя бота для сборки ссылок t.me/<bot>/app.
func (c *Client) Username() string {
	return c.username
}

// Notify отправляет пользователю личное HTML-сообщение.
func (c *Client) Notify(ctx context.Context, userID int64, text string) error {
	_, err := c.bot.SendMessage(ctx, &telego.SendMessageParams{
		ChatID:    telego.ChatID{ID: userID},
		Text:      text,
		ParseMode: telego.ModeHTML,
	})
	if err != nil {
		return fmt.Errorf("ошибка отправки сообщения (user_id=%d): %w", userID, err)
	}
	return nil
}

// NotifyWithButton отправляет сообщение с одной кнопкой-ссылкой.
// Используется для объявления сбора в группе с кнопкой в мини-апп.
func (c *Client) NotifyWithButton(ctx context.Context, chatID int64, text, buttonText, buttonURL string) error {
	_, err := c.bot.SendMessage(ctx, &telego.SendMessageParams{
		ChatID:    telego.ChatID{ID: chatID},
		Text:      text,
		ParseMode: telego.ModeHTML,
		ReplyMarkup: &telego.InlineKeyboardMarkup{
			InlineKeyboard: [][]telego.InlineKeyboardButton{{
				{Text: buttonText, URL: buttonURL},
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("ошибка отправки сообщения с кнопкой (chat_id=%d): %w", chatID, err)
	}
	return nil
}

// DisplayName возвращает имя пользователя для показа другим участникам.
// При ошибке Telegram возвращается заглушка — имя не критично.
func (c *Client) DisplayName(ctx context.Context, userID int64) string {
	chat, err := c.bot.GetChat(ctx, &telego.GetChatParams{
		ChatID: telego.ChatID{ID: userID},
	})
	if err != nil || chat == nil {
		return fmt.Sprintf("Участник (ID: %d)", userID)
	}

	name := chat.FirstName
	if chat.LastName != "" {
		name += " " + chat.LastName
	}
	if name == "" && chat.Username != "" {
		name = "@" + chat.Username
	}
	if name == "" {
		return fmt.Sprintf("Участник (ID: %d)", userID)
	}
	return name
}

// IsChatMember проверяет, состоит ли пользователь в чате.
// Ошибка запроса (бот удален из чата, чат недоступен) — «не состоит».
func (c *Client) IsChatMember(ctx context.Context, chatID, userID int64) bool {
	member, err := c.bot.GetChatMember(ctx, &telego.GetChatMemberParams{
		ChatID: telego.ChatID{ID: chatID},
		UserID: userID,
	})
	if err != nil || member == nil {
		return false
	}

	switch member.MemberStatus() {
	case telego.MemberStatusLeft, telego.MemberStatusBanned:
		return false
	}
	return true
}

// InvoiceLink создаёт ссылку на оплату в Telegram Stars.
// Для XTR provider_token не нужен, цена — одна позиция.
func (c *Client) InvoiceLink(ctx context.Context, title, description, payload string, amount int64) (string, error) {
	link, err := c.bot.CreateInvoiceLink(ctx, &telego.CreateInvoiceLinkParams{
		Title:       title,
		Description: description,
		Payload:     payload,
		Currency:    "XTR",
		Prices: []telego.LabeledPrice{
			{Label: title, Amount: int(amount)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("ошибка создания ссылки на оплату: %w", err)
	}
	return *link, nil
}
