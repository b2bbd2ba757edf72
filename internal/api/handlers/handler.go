// handler.go — основной обработчик API Identity Gateway.
// Объединяет health, документацию и обработчики пользователей.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apierrors "github.com/bigkaa/identity-gateway/internal/api/errors"
	"github.com/bigkaa/identity-gateway/internal/service"
)

// APIHandler — основной обработчик API Identity Gateway.
type APIHandler struct {
	identity *service.IdentityService
	health   *HealthHandler
	docs     *DocsHandler
	logger   *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(
	identity *service.IdentityService,
	health *HealthHandler,
	docs *DocsHandler,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		identity: identity,
		health:   health,
		docs:     docs,
		logger:   logger.With(slog.String("component", "api_handler")),
	}
}

// --- Health endpoints (делегируются в HealthHandler) ---

// Health — проверка доступности Okta.
func (h *APIHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.health.Health(w, r)
}

// HealthLive — liveness probe.
func (h *APIHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.health.HealthLive(w, r)
}

// GetMetrics — Prometheus метрики.
func (h *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.health.GetMetrics(w, r)
}

// --- Документация (делегируется в DocsHandler) ---

// GetOpenAPI — OpenAPI-документ.
func (h *APIHandler) GetOpenAPI(w http.ResponseWriter, r *http.Request) {
	h.docs.GetOpenAPI(w, r)
}

// GetDocs — страница Swagger UI.
func (h *APIHandler) GetDocs(w http.ResponseWriter, r *http.Request) {
	h.docs.GetDocs(w, r)
}

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeServiceError переводит ошибку сервисного слоя в HTTP-ответ.
// NotFound → 404, InvalidInput → 400, остальное → 500.
// Сообщение ошибки уходит клиенту без изменений.
func (h *APIHandler) writeServiceError(w http.ResponseWriter, r *http.Request, logMsg string, err error) {
	switch service.KindOf(err) {
	case service.KindNotFound:
		apierrors.NotFound(w, err.Error())
	case service.KindInvalidInput:
		apierrors.ValidationError(w, err.Error())
	default:
		attrs := []any{
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		}
		var svcErr *service.Error
		if errors.As(err, &svcErr) && svcErr.Err != nil {
			attrs = append(attrs, slog.String("cause", svcErr.Err.Error()))
		}
		h.logger.Error(logMsg, attrs...)
		apierrors.InternalError(w, err.Error())
	}
}
