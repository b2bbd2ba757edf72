// metrics.go — Prometheus HTTP метрики Identity Gateway.
// Регистрирует метрики: ig_http_requests_total, ig_http_request_duration_seconds.
// Нормализация путей предотвращает взрывной рост кардинальности.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP метрики Identity Gateway
var (
	// httpRequestsTotal — общее количество HTTP-запросов.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ig_http_requests_total",
			Help: "Общее количество HTTP-запросов к Identity Gateway",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration — гистограмма длительности HTTP-запросов.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ig_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к Identity Gateway в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
// Записывает количество запросов и длительность для каждого endpoint.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Нормализуем путь для лейблов метрик
			// (заменяем userId на {id} для предотвращения кардинальности)
			normalizedPath := normalizePath(r.URL.Path)

			wrapped := newMetricsResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(wrapped.statusCode)

			httpRequestsTotal.WithLabelValues(r.Method, normalizedPath, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, normalizedPath).Observe(duration)
		})
	}
}

// metricsResponseWriter — обёртка для перехвата статус-кода.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newMetricsResponseWriter(w http.ResponseWriter) *metricsResponseWriter {
	return &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap позволяет http.ResponseController получить доступ к оригинальному ResponseWriter.
func (rw *metricsResponseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// normalizePath заменяет идентификатор пользователя в пути на {id}.
// /api/users/00u1abc → /api/users/{id}
// /api/users/00u1abc/devices → /api/users/{id}/devices
// Неизвестные пути сворачиваются в "other".
func normalizePath(path string) string {
	// Статические пути возвращаем как есть
	switch path {
	case "/", "/health", "/health/live", "/metrics", "/openapi.json", "/api/users":
		return path
	}

	const usersPrefix = "/api/users/"
	if rest, ok := strings.CutPrefix(path, usersPrefix); ok && rest != "" {
		id, suffix, hasSuffix := strings.Cut(rest, "/")
		switch {
		case id == "":
			return "other"
		case !hasSuffix:
			return "/api/users/{id}"
		case suffix == "devices":
			return "/api/users/{id}/devices"
		}
	}

	return "other"
}
