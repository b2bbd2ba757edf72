// metrics.go — Prometheus метрики исходящих запросов к Okta.
// Регистрирует: ig_okta_requests_total, ig_okta_request_duration_seconds.
package okta

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// oktaRequestsTotal — количество запросов к Okta по операции и статусу
	// (HTTP-код или "error" при ошибке транспорта).
	oktaRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ig_okta_requests_total",
			Help: "Общее количество запросов к Okta Management API",
		},
		[]string{"operation", "status"},
	)

	// oktaRequestDuration — длительность запросов к Okta.
	oktaRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ig_okta_request_duration_seconds",
			Help:    "Длительность запросов к Okta Management API в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)
