// Package roboflow реализует port.DustDetector поверх hosted-модели Roboflow.
package roboflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"solar-drone-bot/internal/domain/entity"
	"solar-drone-bot/internal/domain/port"
	"solar-drone-bot/internal/infrastructure/metrics"
)

// DefaultEndpoint модель поиска пыли на солнечных панелях
const DefaultEndpoint = "https://serverless.roboflow.com/dust-detection-x0svo/1"

// ErrMissingAPIKey ключ API не задан: любой запрос завершается ошибкой
var ErrMissingAPIKey = errors.New("roboflow api key is not configured")

// Config параметры клиента
type Config struct {
	APIKey            string
	Endpoint          string
	Timeout           time.Duration // 0: без таймаута
	RequestsPerSecond float64       // 0: без ограничения
}

// APIError ответ сервиса с кодом вне 2xx
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
}

type inferenceResponse struct {
	Predictions []entity.Detection `json:"predictions"`
	Time        float64            `json:"time"`
	Image       *struct {
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	} `json:"image"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Client клиент модели. Повторы запросов отключены.
type Client struct {
	cfg     Config
	http    *resty.Client
	limiter *rate.Limiter
	metrics *metrics.Metrics
	log     *zap.Logger
}

// NewClient создаёт клиента; m и log могут быть nil
func NewClient(cfg Config, m *metrics.Metrics, log *zap.Logger) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if log == nil {
		log = zap.NewNop()
	}

	httpClient := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetHeader("User-Agent", "solar-drone-bot/1.0")

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Client{
		cfg:     cfg,
		http:    httpClient,
		limiter: limiter,
		metrics: m,
		log:     log.Named("roboflow"),
	}
}

// Detect отправляет изображение в модель и возвращает найденные пятна
func (c *Client) Detect(ctx context.Context, img *entity.Image) ([]entity.Detection, error) {
	if c.cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if img == nil {
		return nil, errors.New("image is nil")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	start := time.Now()
	detections, err := c.detect(ctx, img)
	elapsed := time.Since(start)

	if err != nil {
		c.metrics.ObserveInference(metrics.OutcomeError, elapsed)
		c.log.Warn("detection request failed", zap.Error(err), zap.Duration("elapsed", elapsed))
		return nil, err
	}

	c.metrics.ObserveInference(metrics.OutcomeSuccess, elapsed)
	c.log.Debug("detection request finished",
		zap.Int("predictions", len(detections)),
		zap.Duration("elapsed", elapsed),
	)
	return detections, nil
}

func (c *Client) detect(ctx context.Context, img *entity.Image) ([]entity.Detection, error) {
	// Сервис ждёт base64 в теле с типом form-urlencoded, хотя это не форма
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("api_key", c.cfg.APIKey).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetBody(img.Payload()).
		Post(c.cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	if !resp.IsSuccess() {
		return nil, newAPIError(resp.StatusCode(), resp.Body())
	}

	var out inferenceResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if out.Predictions == nil {
		return []entity.Detection{}, nil
	}
	return out.Predictions, nil
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Message: http.StatusText(status)}

	var payload errorResponse
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case payload.Error != "":
			apiErr.Message = payload.Error
		case payload.Message != "":
			apiErr.Message = payload.Message
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = "unexpected status"
	}
	return apiErr
}

// Проверка реализации интерфейса
var _ port.DustDetector = (*Client)(nil)
