// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: создаёт БД-пул, клиент Telegram, репозитории,
// сервисы и собирает бота, веб-API и планировщик в один объект.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"

	"giftflow.ru/giftflow-bot/internal/bot"
	"giftflow.ru/giftflow-bot/internal/config"
	"giftflow.ru/giftflow-bot/internal/db/postgres"
	"giftflow.ru/giftflow-bot/internal/features/chats"
	"giftflow.ru/giftflow-bot/internal/features/collections"
	"giftflow.ru/giftflow-bot/internal/features/payments"
	"giftflow.ru/giftflow-bot/internal/features/santa"
	"giftflow.ru/giftflow-bot/internal/imgbb"
	"giftflow.ru/giftflow-bot/internal/jobs"
	"giftflow.ru/giftflow-bot/internal/telegram"
	"giftflow.ru/giftflow-bot/internal/web"
)

// App содержит все компоненты приложения.
type App struct {
	Bot       *bot.Bot
	Web       *web.Server
	Scheduler *jobs.Scheduler
	DB        *pgxpool.Pool
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. База данных ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	// Запускаем миграции
	if err := runMigrations(ctx, pool); err != nil {
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	// === 2. Telegram Bot API ===
	botAPI, err := telego.NewBot(cfg.TelegramBotToken, telego.WithDefaultLogger(false, true))
	if err != nil {
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	me, err := botAPI.GetMe(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса GetMe: %w", err)
	}
	log.Infof("Авторизован как @%s", me.Username)

	tgClient := telegram.NewClient(botAPI, me.Username)

	// === 3. Репозитории ===
	collectionRepo := collections.NewRepository(pool)
	paymentRepo := payments.NewRepository(pool)
	santaRepo := santa.NewRepository(pool)
	chatRepo := chats.NewRepository(pool)

	// === 4. Сервисы ===
	collectionService := collections.NewService(collectionRepo)
	paymentService := payments.NewService(paymentRepo, tgClient)
	santaService := santa.NewService(santaRepo, tgClient, me.Username, cfg.SantaShuffleAttempts, cfg.SantaNotifyDelay)
	chatService := chats.NewService(chatRepo, tgClient)

	// === 5. Вспомогательные клиенты ===
	uploader := imgbb.NewClient(cfg.ImgbbKey)

	// === 6. Бот, веб-API и планировщик ===
	b := bot.New(botAPI, cfg, paymentService, chatService, me.Username)
	server := web.NewServer(cfg, collectionService, santaService, chatService, tgClient, uploader)
	scheduler := jobs.NewScheduler(santaService, cfg.SantaStaleAfter)

	return &App{
		Bot:       b,
		Web:       server,
		Scheduler: scheduler,
		DB:        pool,
	}, nil
}

// runMigrations выполняет все SQL-миграции.
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	if err := postgres.InitMigrations(ctx, pool); err != nil {
		return err
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migration001Chats},
		{2, migration002Collections},
		{3, migration003Contributions},
		{4, migration004Santa},
	}

	for _, m := range migrations {
		if err := postgres.ExecMigrationSQL(ctx, pool, m.version, m.sql); err != nil {
			return fmt.Errorf("миграция %d: %w", m.version, err)
		}
		log.Infof("Миграция %d применена", m.version)
	}

	return nil
}

// SQL-миграции встроены в код для упрощения деплоя.

var migration001Chats = `
CREATE TABLE IF NOT EXISTS known_group_chats (
    chat_id BIGINT PRIMARY KEY,
    title VARCHAR(255),
    last_seen TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_known_group_chats_last_seen ON known_group_chats(last_seen DESC);
`

var migration002Collections = `
CREATE TABLE IF NOT EXISTS collections (
    id BIGSERIAL PRIMARY KEY,
    creator_id BIGINT NOT NULL,
    target_chat_id BIGINT DEFAULT 0,
    goal TEXT NOT NULL,
    description TEXT,
    image_url TEXT,
    amount BIGINT NOT NULL CHECK (amount > 0),
    current_amount BIGINT NOT NULL DEFAULT 0,
    status VARCHAR(32) NOT NULL DEFAULT 'active',
    created_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_collections_creator ON collections(creator_id);
CREATE INDEX IF NOT EXISTS idx_collections_status ON collections(status);
`

var migration003Contributions = `
CREATE TABLE IF NOT EXISTS contributions (
    id BIGSERIAL PRIMARY KEY,
    collection_id BIGINT NOT NULL REFERENCES collections(id),
    user_id BIGINT NOT NULL,
    amount BIGINT NOT NULL CHECK (amount > 0),
    currency VARCHAR(8) NOT NULL DEFAULT 'XTR',
    telegram_payment_charge_id VARCHAR(255),
    created_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_contributions_collection ON contributions(collection_id);
CREATE INDEX IF NOT EXISTS idx_contributions_user ON contributions(user_id);
`

var migration004Santa = `
CREATE TABLE IF NOT EXISTS santa_games (
    id BIGSERIAL PRIMARY KEY,
    creator_id BIGINT NOT NULL,
    title VARCHAR(255),
    status VARCHAR(32) NOT NULL DEFAULT 'recruiting',
    created_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_santa_games_creator ON santa_games(creator_id);
CREATE INDEX IF NOT EXISTS idx_santa_games_status ON santa_games(status);
CREATE TABLE IF NOT EXISTS santa_participants (
    id BIGSERIAL PRIMARY KEY,
    game_id BIGINT NOT NULL REFERENCES santa_games(id),
    user_id BIGINT NOT NULL,
    wishlist TEXT DEFAULT '',
    target_user_id BIGINT,
    UNIQUE (game_id, user_id)
);
CREATE INDEX IF NOT EXISTS idx_santa_participants_game ON santa_participants(game_id);
CREATE INDEX IF NOT EXISTS idx_santa_participants_user ON santa_participants(user_id);
`
