package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"randomchat/backend/internal/api/handler"
	"randomchat/backend/internal/chat"
	"randomchat/backend/internal/config"
	"randomchat/backend/internal/localization"
	"randomchat/backend/internal/matching"
	"randomchat/backend/internal/models"
	"randomchat/backend/internal/moderation"
	"randomchat/backend/internal/monetize"
	"randomchat/backend/internal/session"
	"randomchat/backend/internal/storage"
	"randomchat/backend/internal/telegram"
	"randomchat/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupStorage(ctx context.Context, cfg *config.Config) *storage.Service {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		logger.Fatal("postgres connection failed", "error", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		logger.Fatal("redis connection failed", "error", err)
	}

	s := storage.NewStorageService(db, rdb)
	if err := s.Migrate(ctx); err != nil {
		logger.Fatal("migrations failed", "error", err)
	}
	if err := s.EnsureSettings(ctx, models.AppSettings{
		MonetizeEnabled:      cfg.MonetizeEnabled,
		MonetizeIntervalHrs:  cfg.MonetizeIntervalHrs,
		MonetizeTokenTTLMins: cfg.MonetizeTokenTTLMins,
		MonetizeMinWaitSecs:  cfg.MonetizeMinWaitSecs,
		SponsorURL:           cfg.SponsorURL,
		WarnThreshold:        cfg.WarnThreshold,
		AdminChatID:          cfg.AdminChatID,
	}); err != nil {
		logger.Fatal("settings seed failed", "error", err)
	}

	logger.Info("storage ready", "redis", cfg.RedisAddr)
	return s
}

func main() {
	if err := godotenv.Load(); err != nil {
		// Not fatal: in containers the environment comes pre-set.
		logger.Warn("no .env file loaded", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("configuration invalid", "error", err)
	}
	logger.Init(cfg.Env, cfg.LogLevel)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := setupStorage(ctx, cfg)

	localizer, err := localization.NewLocalizer()
	if err != nil {
		logger.Fatal("localization load failed", "error", err)
	}

	registry := session.NewRegistry(store)
	matcher := matching.NewMatcherService(store, store)
	moderationSvc := moderation.NewService(store, store, store, store, store, cfg.WarnThreshold)
	monetizeSvc := monetize.NewService(store, store, store, cfg.BotUsername)

	// The bot owns the bot API client; the chat service gets its notifier.
	chatSvc := chat.NewService(store, registry, matcher, store, nil)
	bot, err := telegram.NewBotService(cfg, store, chatSvc, monetizeSvc, moderationSvc, localizer)
	if err != nil {
		logger.Fatal("telegram startup failed", "error", err)
	}
	chatSvc.Notifier = telegram.NewNotifier(bot.BotAPI, store, localizer)

	go bot.Run(ctx)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	h := handler.NewHandler(store, moderationSvc, cfg)
	h.Register(r)

	server := &http.Server{
		Addr:           cfg.HTTPAddr,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("http server listening", "addr", cfg.HTTPAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("http server failed", "error", err)
	}
}
