package metrics

import (
	"encoding/json"
	"net/http"

	"github.com/shirou/gopsutil/v3/disk"
	"go.uber.org/zap"
)

// Handler обрабатывает служебные HTTP запросы: метрики и здоровье
type Handler struct {
	metrics    *Metrics
	service    string
	scratchDir string
	logger     *zap.Logger
}

// NewHandler создает новый обработчик метрик
func NewHandler(metrics *Metrics, service, scratchDir string, logger *zap.Logger) *Handler {
	return &Handler{
		metrics:    metrics,
		service:    service,
		scratchDir: scratchDir,
		logger:     logger,
	}
}

type healthResponse struct {
	Status           string `json:"status"`
	Service          string `json:"service"`
	ScratchFreeBytes uint64 `json:"scratch_free_bytes"`
}

// MetricsHandler возвращает HTTP handler для Prometheus метрик
func (h *Handler) MetricsHandler() http.Handler {
	return h.metrics.Handler()
}

// HealthHandler возвращает статус здоровья сервиса и свободное место под временные файлы.
// Если статистику диска получить не удалось, сервис все равно считается живым.
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Service: h.service}

	if h.scratchDir != "" {
		usage, err := disk.UsageWithContext(r.Context(), h.scratchDir)
		if err != nil {
			h.logger.Warn("не удалось получить статистику диска", zap.String("dir", h.scratchDir), zap.Error(err))
		} else {
			resp.ScratchFreeBytes = usage.Free
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

// Mux собирает служебный сервер бота: /metrics и /health
func (h *Handler) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", h.MetricsHandler())
	mux.HandleFunc("/health", h.HealthHandler)
	return mux
}
