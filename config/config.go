package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	TelegramToken  string `envconfig:"TELEGRAM_TOKEN"`
	MaxUploadBytes int64  `envconfig:"MAX_UPLOAD_BYTES" default:"5242880"` // 0: без ограничения
	MetricsAddr    string `envconfig:"METRICS_ADDR"`                       // пусто: /metrics не поднимается

	Roboflow RoboflowConfig
	Clean    CleanConfig
	Log      LogConfig
}

// RoboflowConfig переменные ROBOFLOW_*
type RoboflowConfig struct {
	APIKey   string        `envconfig:"API_KEY"`
	Endpoint string        `envconfig:"ENDPOINT" default:"https://serverless.roboflow.com/dust-detection-x0svo/1"`
	Timeout  time.Duration `envconfig:"TIMEOUT" default:"30s"`
	RPS      float64       `envconfig:"RPS" default:"0"`
}

// CleanConfig переменные CLEAN_*
type CleanConfig struct {
	Tick          time.Duration `envconfig:"TICK" default:"1s"`
	CompleteAfter time.Duration `envconfig:"COMPLETE_AFTER" default:"3s"`
	ResetAfter    time.Duration `envconfig:"RESET_AFTER" default:"2s"`
}

// LogConfig переменные LOG_*
type LogConfig struct {
	Level string `envconfig:"LEVEL" default:"info"`
	Dev   bool   `envconfig:"DEV" default:"false"`
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}

	if cfg.Clean.Tick <= 0 {
		return nil, fmt.Errorf("CLEAN_TICK must be positive, got %s", cfg.Clean.Tick)
	}
	if cfg.MaxUploadBytes < 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_BYTES must not be negative, got %d", cfg.MaxUploadBytes)
	}

	return &cfg, nil
}
