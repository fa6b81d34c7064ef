package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics содержит все метрики приложения.
// Каждый экземпляр держит свой реестр, поэтому в тестах их можно создавать сколько угодно.
type Metrics struct {
	logger   *zap.Logger
	registry *prometheus.Registry

	// Счетчики
	httpRequests  *prometheus.CounterVec
	relayMessages *prometheus.CounterVec
	scratchSwept  prometheus.Counter

	// Гистограммы
	stageDuration   *prometheus.HistogramVec
	backendDuration *prometheus.HistogramVec
}

// New создает новый экземпляр метрик
func New(logger *zap.Logger) *Metrics {
	m := &Metrics{
		logger:   logger,
		registry: prometheus.NewRegistry(),

		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Количество запросов к сервису обработки",
			},
			[]string{"endpoint", "status"},
		),

		relayMessages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_messages_total",
				Help: "Количество сообщений, обработанных ботом",
			},
			[]string{"kind", "outcome"}, // kind: text, voice, command; outcome: ok, rejected, failed
		),

		scratchSwept: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "scratch_swept_total",
				Help: "Количество удаленных забытых временных каталогов",
			},
		),

		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stage_duration_seconds",
				Help:    "Длительность этапов обработки в секундах",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage", "status"}, // stage: detect, synthesize, transcode, transcribe
		),

		backendDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "backend_request_duration_seconds",
				Help:    "Время ответа сервиса обработки для бота в секундах",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"endpoint", "status"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.relayMessages,
		m.scratchSwept,
		m.stageDuration,
		m.backendDuration,
	)

	return m
}

// Registry возвращает реестр с метриками экземпляра
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest учитывает ответ эндпоинта сервиса
func (m *Metrics) RecordHTTPRequest(endpoint string, status int) {
	m.httpRequests.WithLabelValues(endpoint, http.StatusText(status)).Inc()
}

// RecordRelayMessage учитывает сообщение, обработанное ботом
func (m *Metrics) RecordRelayMessage(kind, outcome string) {
	m.relayMessages.WithLabelValues(kind, outcome).Inc()
}

// RecordSwept учитывает удаленные временные каталоги
func (m *Metrics) RecordSwept(n int) {
	if n <= 0 {
		return
	}
	m.scratchSwept.Add(float64(n))
	m.logger.Debug("учтены удаленные каталоги", zap.Int("count", n))
}

// ObserveStage записывает длительность этапа обработки
func (m *Metrics) ObserveStage(stage string, started time.Time, err error) {
	m.stageDuration.WithLabelValues(stage, statusLabel(err)).Observe(time.Since(started).Seconds())
}

// ObserveBackend записывает время запроса бота к сервису обработки
func (m *Metrics) ObserveBackend(endpoint string, started time.Time, err error) {
	m.backendDuration.WithLabelValues(endpoint, statusLabel(err)).Observe(time.Since(started).Seconds())
}

// Handler возвращает HTTP handler для метрик
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func statusLabel(err error) string {
	if err != nil {
		return "failed"
	}
	return "success"
}
