// Package web — handlers.go: обработчики API мини-аппа.
// Все ответы в конверте {"status":"ok"|"error"}; идентификаторы принимаются
// и строкой, и числом — JS присылает большие int64 строками.
package web

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"giftflow.ru/giftflow-bot/internal/common"
	"giftflow.ru/giftflow-bot/internal/features/chats"
	"giftflow.ru/giftflow-bot/internal/features/collections"
	"giftflow.ru/giftflow-bot/internal/features/payments"
	"giftflow.ru/giftflow-bot/internal/features/santa"
)

// CollectionService — операции сборов, которые нужны API.
type CollectionService interface {
	Create(ctx context.Context, creatorID, targetChatID int64, goal string, amount int64) (*collections.Collection, error)
	UpdateDetails(ctx context.Context, id, requesterID int64, description, imageURL string) (bool, error)
	GetByID(ctx context.Context, id int64) (*collections.Info, error)
	ListForUser(ctx context.Context, userID int64) (*collections.UserCollections, error)
	Delete(ctx context.Context, id, requesterID int64) error
}

// SantaService — операции игры, которые нужны API.
type SantaService interface {
	CreateGame(ctx context.Context, creatorID int64, title string) (int64, error)
	Join(ctx context.Context, gameID, userID int64, wishlist string) error
	StateForUser(ctx context.Context, userID int64) (*santa.UserState, error)
	StartShuffle(ctx context.Context, gameID, requesterID int64) error
	MarkSent(ctx context.Context, gameID, userID int64) error
	MarkReceived(ctx context.Context, gameID, userID int64) error
}

// ChatService — выбор общих чатов для объявления сбора.
type ChatService interface {
	CommonChats(ctx context.Context, userID int64) ([]chats.ChatOption, error)
}

// Messenger — то, что API нужно от Telegram: объявления в группу
// и ссылки на оплату.
type Messenger interface {
	NotifyWithButton(ctx context.Context, chatID int64, text, buttonText, buttonURL string) error
	InvoiceLink(ctx context.Context, title, description, payload string, amount int64) (string, error)
	Username() string
}

// Uploader — загрузка картинок сборов.
type Uploader interface {
	Enabled() bool
	Upload(ctx context.Context, filename string, image io.Reader) (string, error)
}

// flexInt64 принимает int64 и как JSON-число, и как строку.
// Единственное место, где идентификаторы из мини-аппа превращаются в числа.
type flexInt64 int64

func (f *flexInt64) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return common.ErrBadIdentifier
	}
	*f = flexInt64(v)
	return nil
}

// ok отвечает конвертом успеха, примешивая данные к {"status":"ok"}.
func ok(c *fiber.Ctx, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	data["status"] = "ok"
	return c.JSON(data)
}

// fail отвечает конвертом ошибки.
func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"status": "error", "error": message})
}

// failErr мапит доменные ошибки на HTTP-статусы.
func failErr(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, common.ErrBadIdentifier), errors.Is(err, common.ErrInvalidAmount):
		return fail(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrNotCreator), errors.Is(err, common.ErrNotGameCreator):
		return fail(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, common.ErrCollectionNotFound):
		return fail(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, common.ErrMoneyCollected),
		errors.Is(err, common.ErrGameNotRecruiting),
		errors.Is(err, common.ErrTooFewParticipants),
		errors.Is(err, common.ErrShuffleFailed):
		return fail(c, fiber.StatusConflict, err.Error())
	default:
		log.WithError(err).Error("Внутренняя ошибка API")
		return fail(c, fiber.StatusInternalServerError, "внутренняя ошибка")
	}
}

// parseBody разбирает JSON-тело; ошибка сразу уходит клиенту.
func parseBody[T any](c *fiber.Ctx) (*T, bool) {
	var req T
	if err := c.BodyParser(&req); err != nil {
		_ = fail(c, fiber.StatusBadRequest, "некорректное тело запроса")
		return nil, false
	}
	return &req, true
}

type userRequest struct {
	UserID flexInt64 `json:"user_id"`
}

// handleChats возвращает чаты, общие для пользователя и бота.
func (s *Server) handleChats(c *fiber.Ctx) error {
	req, parsed := parseBody[userRequest](c)
	if !parsed {
		return nil
	}

	list, err := s.chats.CommonChats(c.Context(), int64(req.UserID))
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, fiber.Map{"chats": list})
}

type createCollectionRequest struct {
	UserID flexInt64 `json:"user_id"`
	ChatID flexInt64 `json:"chat_id"`
	Goal   string    `json:"goal"`
	Amount flexInt64 `json:"amount"`
}

// handleCreateCollection создаёт сбор и объявляет о нем в выбранном чате.
func (s *Server) handleCreateCollection(c *fiber.Ctx) error {
	req, parsed := parseBody[createCollectionRequest](c)
	if !parsed {
		return nil
	}

	coll, err := s.collections.Create(c.Context(), int64(req.UserID), int64(req.ChatID), req.Goal, int64(req.Amount))
	if err != nil {
		return failErr(c, err)
	}

	// Объявление в группу — best effort: сбор уже создан
	s.announceCollection(c.Context(), coll)

	return ok(c, fiber.Map{"collection_id": strconv.FormatInt(coll.ID, 10)})
}

// announceCollection отправляет в целевой чат объявление с кнопкой вклада.
func (s *Server) announceCollection(ctx context.Context, coll *collections.Collection) {
	if coll.TargetChatID == 0 {
		return
	}
	text := "💰 <b>Новый сбор:</b> " + coll.Goal + "\nЦель: " + common.FormatStars(coll.Amount)
	link := "https://t.me/" + s.messenger.Username() + "/app?startapp=donate_" + strconv.FormatInt(coll.ID, 10)
	if err := s.messenger.NotifyWithButton(ctx, coll.TargetChatID, text, "Внести вклад", link); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"collection_id": coll.ID,
			"chat_id":       coll.TargetChatID,
		}).Warn("Не удалось объявить сбор в чате")
	}
}

// handleMyCollections возвращает созданные пользователем сборы и те, куда он вкладывался.
func (s *Server) handleMyCollections(c *fiber.Ctx) error {
	req, parsed := parseBody[userRequest](c)
	if !parsed {
		return nil
	}

	list, err := s.collections.ListForUser(c.Context(), int64(req.UserID))
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, fiber.Map{"created": list.Created, "participated": list.Participated})
}

type collectionRequest struct {
	UserID       flexInt64 `json:"user_id"`
	CollectionID flexInt64 `json:"collection_id"`
}

// handleCollectionInfo возвращает полную карточку сбора.
func (s *Server) handleCollectionInfo(c *fiber.Ctx) error {
	req, parsed := parseBody[collectionRequest](c)
	if !parsed {
		return nil
	}

	info, err := s.collections.GetByID(c.Context(), int64(req.CollectionID))
	if err != nil {
		return failErr(c, err)
	}
	if info == nil {
		return fail(c, fiber.StatusNotFound, common.ErrCollectionNotFound.Error())
	}
	return ok(c, fiber.Map{"collection": info})
}

type updateCollectionRequest struct {
	UserID       flexInt64 `json:"user_id"`
	CollectionID flexInt64 `json:"collection_id"`
	Description  string    `json:"description"`
	ImageURL     string    `json:"image_url"`
}

// handleUpdateCollection меняет описание и картинку сбора (только создатель).
func (s *Server) handleUpdateCollection(c *fiber.Ctx) error {
	req, parsed := parseBody[updateCollectionRequest](c)
	if !parsed {
		return nil
	}

	updated, err := s.collections.UpdateDetails(
		c.Context(), int64(req.CollectionID), int64(req.UserID), req.Description, req.ImageURL,
	)
	if err != nil {
		return failErr(c, err)
	}
	if !updated {
		return fail(c, fiber.StatusForbidden, common.ErrNotCreator.Error())
	}
	return ok(c, nil)
}

// handleDeleteCollection удаляет сбор, пока в него не внесли деньги.
func (s *Server) handleDeleteCollection(c *fiber.Ctx) error {
	req, parsed := parseBody[collectionRequest](c)
	if !parsed {
		return nil
	}

	if err := s.collections.Delete(c.Context(), int64(req.CollectionID), int64(req.UserID)); err != nil {
		return failErr(c, err)
	}
	return ok(c, nil)
}

type invoiceRequest struct {
	CollectionID flexInt64 `json:"collection_id"`
	Amount       flexInt64 `json:"amount"`
}

// handleInvoice создаёт ссылку на оплату вклада в старах.
func (s *Server) handleInvoice(c *fiber.Ctx) error {
	req, parsed := parseBody[invoiceRequest](c)
	if !parsed {
		return nil
	}
	if req.Amount <= 0 {
		return failErr(c, common.ErrInvalidAmount)
	}

	info, err := s.collections.GetByID(c.Context(), int64(req.CollectionID))
	if err != nil {
		return failErr(c, err)
	}
	if info == nil {
		return fail(c, fiber.StatusNotFound, common.ErrCollectionNotFound.Error())
	}

	link, err := s.messenger.InvoiceLink(
		c.Context(),
		"Вклад в сбор: "+info.Goal,
		"Вклад "+common.FormatStars(int64(req.Amount)),
		payments.InvoicePayload(info.ID),
		int64(req.Amount),
	)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, fiber.Map{"invoice_link": link})
}

// handleSantaState возвращает состояние пользователя в его последней игре.
func (s *Server) handleSantaState(c *fiber.Ctx) error {
	req, parsed := parseBody[userRequest](c)
	if !parsed {
		return nil
	}

	state, err := s.santa.StateForUser(c.Context(), int64(req.UserID))
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, fiber.Map{"game": state})
}

type createGameRequest struct {
	UserID flexInt64 `json:"user_id"`
	Title  string    `json:"title"`
}

// handleSantaCreate создаёт новую игру.
func (s *Server) handleSantaCreate(c *fiber.Ctx) error {
	req, parsed := parseBody[createGameRequest](c)
	if !parsed {
		return nil
	}

	gameID, err := s.santa.CreateGame(c.Context(), int64(req.UserID), req.Title)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, fiber.Map{"game_id": strconv.FormatInt(gameID, 10)})
}

type joinGameRequest struct {
	UserID   flexInt64 `json:"user_id"`
	GameID   flexInt64 `json:"game_id"`
	Wishlist string    `json:"wishlist"`
}

// handleSantaJoin записывает пользователя в игру или обновляет вишлист.
func (s *Server) handleSantaJoin(c *fiber.Ctx) error {
	req, parsed := parseBody[joinGameRequest](c)
	if !parsed {
		return nil
	}

	if err := s.santa.Join(c.Context(), int64(req.GameID), int64(req.UserID), req.Wishlist); err != nil {
		return failErr(c, err)
	}
	return ok(c, nil)
}

type gameRequest struct {
	UserID flexInt64 `json:"user_id"`
	GameID flexInt64 `json:"game_id"`
}

// handleSantaStart запускает жеребьевку.
func (s *Server) handleSantaStart(c *fiber.Ctx) error {
	req, parsed := parseBody[gameRequest](c)
	if !parsed {
		return nil
	}

	if err := s.santa.StartShuffle(c.Context(), int64(req.GameID), int64(req.UserID)); err != nil {
		return failErr(c, err)
	}
	return ok(c, nil)
}

// handleSantaSent — даритель отметил отправку подарка.
func (s *Server) handleSantaSent(c *fiber.Ctx) error {
	req, parsed := parseBody[gameRequest](c)
	if !parsed {
		return nil
	}

	if err := s.santa.MarkSent(c.Context(), int64(req.GameID), int64(req.UserID)); err != nil {
		return failErr(c, err)
	}
	return ok(c, nil)
}

// handleSantaReceived — участник отметил получение подарка.
func (s *Server) handleSantaReceived(c *fiber.Ctx) error {
	req, parsed := parseBody[gameRequest](c)
	if !parsed {
		return nil
	}

	if err := s.santa.MarkReceived(c.Context(), int64(req.GameID), int64(req.UserID)); err != nil {
		return failErr(c, err)
	}
	return ok(c, nil)
}

// handleUpload пересылает картинку на imgbb и возвращает публичный URL.
func (s *Server) handleUpload(c *fiber.Ctx) error {
	if !s.uploader.Enabled() {
		return fail(c, fiber.StatusServiceUnavailable, "загрузка картинок не настроена")
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "нет файла image")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "не удалось прочитать файл")
	}
	defer file.Close()

	url, err := s.uploader.Upload(c.Context(), fileHeader.Filename, file)
	if err != nil {
		log.WithError(err).Warn("Ошибка загрузки картинки")
		return fail(c, fiber.StatusBadGateway, "не удалось загрузить картинку")
	}
	return ok(c, fiber.Map{"url": url})
}
