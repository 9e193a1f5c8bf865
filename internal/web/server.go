// Package web поднимает HTTP API для мини-аппа на Fiber:
// маршруты, CORS, лимит запросов и логирование.
package web

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	log "github.com/sirupsen/logrus"

	"giftflow.ru/giftflow-bot/internal/config"
)

// Server — HTTP API мини-аппа.
type Server struct {
	app *fiber.App
	cfg *config.Config

	collections CollectionService
	santa       SantaService
	chats       ChatService
	messenger   Messenger
	uploader    Uploader
}

// NewServer собирает приложение Fiber со всеми маршрутами и middleware.
func NewServer(
	cfg *config.Config,
	collections CollectionService,
	santa SantaService,
	chats ChatService,
	messenger Messenger,
	uploader Uploader,
) *Server {
	app := fiber.New(fiber.Config{
		AppName: "giftflow-bot",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			status := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				status = e.Code
			}
			return fail(c, status, err.Error())
		},
	})

	s := &Server{
		app:         app,
		cfg:         cfg,
		collections: collections,
		santa:       santa,
		chats:       chats,
		messenger:   messenger,
		uploader:    uploader,
	}

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.WebAllowedOrigins,
		AllowMethods: "GET,POST,OPTIONS",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.WebRateLimit,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return fail(c, fiber.StatusTooManyRequests, "слишком много запросов")
		},
	}))
	app.Use(s.logRequest)

	app.Get("/", func(c *fiber.Ctx) error {
		return ok(c, nil)
	})

	api := app.Group("/api")
	api.Post("/chats", s.handleChats)

	coll := api.Group("/collections")
	coll.Post("/my", s.handleMyCollections)
	coll.Post("/info", s.handleCollectionInfo)
	coll.Post("/create", s.handleCreateCollection)
	coll.Post("/update", s.handleUpdateCollection)
	coll.Post("/delete", s.handleDeleteCollection)
	coll.Post("/invoice", s.handleInvoice)

	game := api.Group("/santa")
	game.Post("/state", s.handleSantaState)
	game.Post("/create", s.handleSantaCreate)
	game.Post("/join", s.handleSantaJoin)
	game.Post("/start", s.handleSantaStart)
	game.Post("/sent", s.handleSantaSent)
	game.Post("/received", s.handleSantaReceived)

	api.Post("/upload", s.handleUpload)

	return s
}

// logRequest логирует каждый запрос к API.
func (s *Server) logRequest(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	log.WithFields(log.Fields{
		"method":   c.Method(),
		"path":     c.Path(),
		"status":   c.Response().StatusCode(),
		"duration": time.Since(start).String(),
		"ip":       c.IP(),
	}).Debug("HTTP запрос")
	return err
}

// Listen запускает сервер; блокируется до остановки.
func (s *Server) Listen() error {
	addr := fmt.Sprintf(":%d", s.cfg.WebPort)
	log.WithField("addr", addr).Info("Веб-API мини-аппа запущен")
	return s.app.Listen(addr)
}

// Shutdown останавливает сервер, дождавшись активных запросов.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
