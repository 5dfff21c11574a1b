package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Исходы запроса к модели
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Metrics набор счётчиков бота. Все методы допускают nil-получатель.
type Metrics struct {
	registry *prometheus.Registry

	InferenceRequests   *prometheus.CounterVec
	InferenceDuration   prometheus.Histogram
	UploadsRejected     *prometheus.CounterVec
	CleaningTransitions *prometheus.CounterVec
	Sessions            prometheus.Gauge
}

// New создаёт метрики в собственном реестре
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		InferenceRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dronebot_inference_requests_total",
				Help: "Total number of dust detection requests by outcome",
			},
			[]string{"outcome"},
		),
		InferenceDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "dronebot_inference_duration_seconds",
				Help:    "Dust detection request duration in seconds",
				Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
			},
		),
		UploadsRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dronebot_uploads_rejected_total",
				Help: "Uploads rejected before inference by reason",
			},
			[]string{"reason"},
		),
		CleaningTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dronebot_cleaning_transitions_total",
				Help: "Cleaning simulation transitions by target status",
			},
			[]string{"status"},
		),
		Sessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "dronebot_sessions",
				Help: "Number of chats with an active session",
			},
		),
	}
}

// ObserveInference записывает исход и длительность запроса к модели
func (m *Metrics) ObserveInference(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.InferenceRequests.WithLabelValues(outcome).Inc()
	m.InferenceDuration.Observe(d.Seconds())
}

// UploadRejected считает отклонённую загрузку
func (m *Metrics) UploadRejected(reason string) {
	if m == nil {
		return
	}
	m.UploadsRejected.WithLabelValues(reason).Inc()
}

// CleaningTransition считает переход имитации очистки
func (m *Metrics) CleaningTransition(status string) {
	if m == nil {
		return
	}
	m.CleaningTransitions.WithLabelValues(status).Inc()
}

// SetSessions обновляет число сессий
func (m *Metrics) SetSessions(n int) {
	if m == nil {
		return
	}
	m.Sessions.Set(float64(n))
}

// Handler отдаёт метрики в формате Prometheus
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
