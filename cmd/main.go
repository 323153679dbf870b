package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"tawk/backend/internal/api/handler"
	"tawk/backend/internal/auth"
	"tawk/backend/internal/chathub"
	"tawk/backend/internal/config"
	"tawk/backend/internal/localization"
	"tawk/backend/internal/logging"
	"tawk/backend/internal/storage"
	"tawk/backend/internal/telegram"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func setupDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*storage.Service, error) {
	// 1. PostgreSQL
	db, err := storage.OpenPostgres(cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	if err := storage.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	// 2. Redis, optional for a single node
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis ping: %w", err)
		}
	} else {
		logger.Warn("REDIS_ADDR not set, running as a single node")
	}

	logger.Info("database and redis connections established, migrations complete")
	return storage.NewStorageService(db, rdb), nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := setupDependencies(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("dependencies", zap.Error(err))
	}

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL)
	hub := chathub.NewManagerService(s, logger)
	hub.SetNodeID(cfg.NodeID)

	var workers sync.WaitGroup
	var notifier *telegram.Notifier
	if cfg.TelegramBotToken != "" {
		bot, err := telegram.NewBotAPI(cfg.TelegramBotToken)
		if err != nil {
			logger.Fatal("telegram", zap.Error(err))
		}
		localizer, err := localization.Default()
		if err != nil {
			logger.Fatal("localization", zap.Error(err))
		}
		notifier = telegram.NewNotifier(bot, localizer, logger)
		hub.SetNotifier(notifier)

		botService := telegram.NewBotService(bot, s, tokens, localizer, logger)
		workers.Add(1)
		go func() {
			defer workers.Done()
			botService.Run(ctx)
		}()
	} else {
		logger.Info("TELEGRAM_BOT_TOKEN not set, offline notifications disabled")
	}

	workers.Add(2)
	go func() {
		defer workers.Done()
		hub.Run(ctx)
	}()
	go func() {
		defer workers.Done()
		hub.RunRingSweeper(ctx, cfg.RingTimeout, cfg.RingSweepInterval)
	}()

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	handler.NewHandler(hub, s, tokens, logger).Register(r)

	server := &http.Server{
		Addr:           cfg.HTTPAddr,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	workers.Wait()
	if notifier != nil {
		notifier.Wait()
	}
}
