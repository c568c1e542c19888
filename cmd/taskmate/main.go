package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"taskmate/internal/ai"
	"taskmate/internal/bot"
	"taskmate/internal/config"
	"taskmate/internal/repository"
	"taskmate/internal/service"
)

const (
	dbConnectAttempts = 5
	dbConnectDelay    = 3 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting",
		zap.Bool("postgres", cfg.DatabaseURL != ""),
		zap.String("ai_base_url", cfg.AIBaseURL),
		zap.String("ai_model", cfg.AIModel),
	)

	db, err := connectWithRetry(cfg, logger)
	if err != nil {
		logger.Fatal("connect database", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	aiClient := ai.NewClient(cfg.AIAPIKey, cfg.AIBaseURL, cfg.AIModel, cfg.WhisperModel, logger)
	convSvc := service.NewConversationService(userRepo, taskRepo, messageRepo, aiClient, logger)

	telegramBot, err := bot.New(cfg.TelegramToken, userRepo, taskRepo, categoryRepo, convSvc, aiClient, logger)
	if err != nil {
		logger.Fatal("create bot", zap.Error(err))
	}

	if cfg.Port != "" {
		go serveKeepAlive(cfg.Port, logger)
	}

	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("bot stopped", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

// connectWithRetry opens the database with a bounded number of attempts.
// Connectivity beyond startup is the driver pool's business; here a flaky
// network backend just delays boot instead of killing it.
func connectWithRetry(cfg config.Config, logger *zap.Logger) (*gorm.DB, error) {
	var lastErr error
	for attempt := 1; attempt <= dbConnectAttempts; attempt++ {
		db, err := repository.NewDB(cfg.DatabaseURL, cfg.SQLitePath, logger)
		if err == nil {
			return db, nil
		}
		lastErr = err
		logger.Warn("database connect failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", dbConnectAttempts),
			zap.Error(err),
		)
		if attempt < dbConnectAttempts {
			time.Sleep(dbConnectDelay)
		}
	}
	return nil, lastErr
}

// serveKeepAlive answers platform health checks so PaaS hosts see the
// process as alive. No coupling to the bot itself.
func serveKeepAlive(port string, logger *zap.Logger) {
	router := mux.NewRouter()
	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods(http.MethodGet)

	logger.Info("keep-alive server listening", zap.String("port", port))
	if err := http.ListenAndServe(":"+port, router); err != nil {
		logger.Warn("keep-alive server stopped", zap.Error(err))
	}
}
