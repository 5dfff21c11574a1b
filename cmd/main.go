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

	"go.uber.org/zap"

	"solar-drone-bot/config"
	telegram "solar-drone-bot/internal/api"
	app "solar-drone-bot/internal/application"
	"solar-drone-bot/internal/container"
	"solar-drone-bot/internal/infrastructure/logging"
	"solar-drone-bot/internal/infrastructure/metrics"
	"solar-drone-bot/internal/infrastructure/roboflow"
	"solar-drone-bot/internal/infrastructure/storage"
	"solar-drone-bot/internal/infrastructure/vision"
)

// eventQueueSize сколько событий может ждать отправки в Telegram
const eventQueueSize = 256

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Dev)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.TelegramToken == "" {
		logger.Fatal("TELEGRAM_TOKEN is required")
	}
	if cfg.Roboflow.APIKey == "" {
		logger.Warn("ROBOFLOW_API_KEY is not set, every detection request will fail")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	if cfg.MetricsAddr != "" {
		srv := serveMetrics(cfg.MetricsAddr, m, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	// Создаём хранилище сессий
	sessions := storage.NewMemorySessionRepository()

	detector := roboflow.NewClient(roboflow.Config{
		APIKey:            cfg.Roboflow.APIKey,
		Endpoint:          cfg.Roboflow.Endpoint,
		Timeout:           cfg.Roboflow.Timeout,
		RequestsPerSecond: cfg.Roboflow.RPS,
	}, m, logger)

	queue := telegram.NewEventQueue(eventQueueSize, logger)

	// Собираем сервисы приложения
	appContainer := container.New(sessions, detector, vision.NewRenderer(), queue, m, logger, container.Options{
		MaxUploadBytes: cfg.MaxUploadBytes,
		Timings: app.Timings{
			Tick:          cfg.Clean.Tick,
			CompleteAfter: cfg.Clean.CompleteAfter,
			ResetAfter:    cfg.Clean.ResetAfter,
		},
	})
	defer appContainer.Controller.Shutdown()

	// Создаём бота
	bot, err := telegram.NewBot(cfg.TelegramToken, appContainer.Controller, queue, logger)
	if err != nil {
		logger.Fatal("failed to create bot", zap.Error(err))
	}

	logger.Info("bot is running")
	if err := bot.Run(ctx); err != nil {
		logger.Error("bot stopped", zap.Error(err))
		return
	}
	logger.Info("shutting down")
}

func serveMetrics(addr string, m *metrics.Metrics, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("metrics server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", zap.Error(err))
		}
	}()
	return srv
}
