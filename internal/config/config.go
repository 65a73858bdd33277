// Package config loads application settings from environment variables and
// holds the moderation/monetization tunables.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config is the process-wide configuration, populated from the environment
// (a .env file is loaded by the entry points via godotenv).
type Config struct {
	// Telegram
	BotToken    string
	BotUsername string
	AdminChatID int64

	// PostgreSQL
	DatabaseDSN string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// HTTP admin API
	HTTPAddr    string
	JWTSecret   string
	AdminAPIKey string

	// Monetization defaults (seed values for the settings row)
	MonetizeEnabled      bool
	MonetizeIntervalHrs  int
	MonetizeTokenTTLMins int
	MonetizeMinWaitSecs  int
	SponsorURL           string

	// Application
	Env           string
	LogLevel      string
	WarnThreshold int
}

// Load reads the configuration from the environment and validates the
// settings the bot cannot run without.
func Load() (*Config, error) {
	cfg := &Config{
		BotToken:             os.Getenv("BOT_TOKEN"),
		BotUsername:          os.Getenv("BOT_USERNAME"),
		AdminChatID:          envInt64("ADMIN_CHAT_ID", 0),
		DatabaseDSN:          envOr("DATABASE_DSN", "host=localhost user=user password=password dbname=randomchat port=5432 sslmode=disable"),
		RedisAddr:            envOr("REDIS_ADDR", "localhost:6379"),
		RedisPassword:        os.Getenv("REDIS_PASSWORD"),
		RedisDB:              envInt("REDIS_DB", 0),
		HTTPAddr:             envOr("HTTP_ADDR", ":8080"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		AdminAPIKey:          os.Getenv("ADMIN_API_KEY"),
		MonetizeEnabled:      envOr("MONETIZE_ENABLED", "true") == "true",
		MonetizeIntervalHrs:  envInt("MONETIZE_INTERVAL_HOURS", 12),
		MonetizeTokenTTLMins: envInt("MONETIZE_TOKEN_TTL_MINUTES", 30),
		MonetizeMinWaitSecs:  envInt("MONETIZE_MIN_WAIT_SECONDS", 10),
		SponsorURL:           envOr("SPONSOR_URL", "https://example.com"),
		Env:                  envOr("APP_ENV", "development"),
		LogLevel:             envOr("LOG_LEVEL", "info"),
		WarnThreshold:        envInt("WARN_THRESHOLD", 3),
	}

	if cfg.BotToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN is required")
	}
	if cfg.BotUsername == "" {
		return nil, fmt.Errorf("BOT_USERNAME is required")
	}
	if cfg.AdminChatID == 0 {
		return nil, fmt.Errorf("ADMIN_CHAT_ID is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	return cfg, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envInt64(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}
