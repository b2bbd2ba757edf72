// health.go — обработчики health endpoints Identity Gateway.
// /health — проверка доступности Okta минимальным запросом (200 OK / 503 DEGRADED)
// /health/live — liveness probe (процесс жив)
// /metrics — Prometheus метрики
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bigkaa/identity-gateway/internal/config"
	"github.com/bigkaa/identity-gateway/internal/service"
)

// RemoteChecker — проверка доступности удалённого каталога.
type RemoteChecker interface {
	CheckRemote(ctx context.Context) *service.RemoteHealth
}

// HealthHandler — обработчик health endpoints.
type HealthHandler struct {
	checker      RemoteChecker
	probeTimeout time.Duration
	promHandler  http.Handler
}

// NewHealthHandler создаёт обработчик health endpoints.
// probeTimeout ограничивает пробный запрос к Okta сверх таймаута HTTP-клиента.
func NewHealthHandler(checker RemoteChecker, probeTimeout time.Duration) *HealthHandler {
	return &HealthHandler{
		checker:      checker,
		probeTimeout: probeTimeout,
		promHandler:  promhttp.Handler(),
	}
}

// healthChecks — состояние компонентов.
type healthChecks struct {
	Server string `json:"server"`
	Okta   string `json:"okta"`
}

// healthError — классификация сбоя Okta.
type healthError struct {
	Type    string `json:"type"`
	Details string `json:"details"`
}

// HealthResponse — ответ GET /health.
type HealthResponse struct {
	Status    string       `json:"status"`
	Timestamp string       `json:"timestamp"`
	Service   string       `json:"service"`
	Version   string       `json:"version"`
	Checks    healthChecks `json:"checks"`
	Message   string       `json:"message"`
	Error     *healthError `json:"error,omitempty"`
}

// healthLiveResponse — ответ liveness probe.
type healthLiveResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Service   string `json:"service"`
}

// BuildHealthResponse собирает тело ответа /health из результата проверки.
// Используется также командой check.
func BuildHealthResponse(h *service.RemoteHealth, now time.Time) HealthResponse {
	resp := HealthResponse{
		Status:    h.Status,
		Timestamp: now.UTC().Format(time.RFC3339Nano),
		Service:   config.ServiceName,
		Version:   config.Version,
		Checks: healthChecks{
			Server: service.HealthOK,
			Okta:   h.Okta,
		},
		Message: h.Message,
	}
	if !h.Healthy() {
		resp.Error = &healthError{Type: h.ErrorType, Details: h.ErrorDetails}
	}
	return resp
}

// Health — проверка доступности Okta.
// Возвращает 200 (OK) или 503 (DEGRADED).
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.probeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.probeTimeout)
		defer cancel()
	}

	result := h.checker.CheckRemote(ctx)
	resp := BuildHealthResponse(result, time.Now())

	status := http.StatusOK
	if !result.Healthy() {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// HealthLive — liveness probe. Возвращает 200 если процесс жив.
func (h *HealthHandler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	resp := healthLiveResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   config.Version,
		Service:   "identity-gateway",
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

// GetMetrics — Prometheus метрики.
func (h *HealthHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.promHandler.ServeHTTP(w, r)
}
