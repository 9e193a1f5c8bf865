// Package config загружает конфигурацию бота из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Telegram ---
	TelegramBotToken string `envconfig:"BOT_TOKEN" required:"true"`

	// --- Database ---
	// DATABASE_URL (как на Render/Heroku) имеет приоритет над отдельными DB_*.
	DatabaseURL string `envconfig:"DATABASE_URL"`
	// В Docker внутри контейнера "localhost" почти всегда неправильно.
	// Дефолт ставим "postgres" (имя сервиса в docker-compose), а для локалки переопределяй DB_HOST=localhost.
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"botuser"`
	DBPassword string `envconfig:"DB_PASSWORD" default:""`
	DBName     string `envconfig:"DB_NAME" default:"giftflow"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"4"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"1"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`

	// --- Web API (мини-апп) ---
	// Порт берется из системы (Render подставляет свой PORT)
	WebPort           int    `envconfig:"PORT" default:"8080"`
	WebAllowedOrigins string `envconfig:"WEB_ALLOWED_ORIGINS" default:"*"`
	// Лимит запросов к API на один IP в минуту
	WebRateLimit int `envconfig:"WEB_RATE_LIMIT" default:"60"`

	// --- Image host (imgbb) ---
	// Пустой ключ отключает загрузку картинок, остальное работает.
	ImgbbKey string `envconfig:"IMGBB_KEY" default:""`

	// --- Bot runtime ---
	// Сколько апдейтов обрабатываем параллельно. Иначе "go на каждый апдейт" = утечка памяти при флуде.
	BotMaxInflight int `envconfig:"BOT_MAX_INFLIGHT" default:"64"`

	// --- Santa ---
	// Потолок попыток жеребьевки (подбор расстановки без самодарения)
	SantaShuffleAttempts int `envconfig:"SANTA_SHUFFLE_ATTEMPTS" default:"20"`
	// Пауза между личными уведомлениями после жеребьевки (щадим лимиты Telegram)
	SantaNotifyDelay time.Duration `envconfig:"SANTA_NOTIFY_DELAY" default:"50ms"`
	// Игра считается «зависшей» в наборе после этого срока (для напоминаний)
	SantaStaleAfter time.Duration `envconfig:"SANTA_STALE_AFTER" default:"48h"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

func (c *Config) Validate() error {
	if c.WebPort <= 0 {
		return fmt.Errorf("PORT должен быть > 0")
	}
	if c.BotMaxInflight <= 0 {
		return fmt.Errorf("BOT_MAX_INFLIGHT должен быть > 0")
	}
	if c.SantaShuffleAttempts <= 0 {
		return fmt.Errorf("SANTA_SHUFFLE_ATTEMPTS должен быть > 0")
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
	}
	return nil
}

// Load читает переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
