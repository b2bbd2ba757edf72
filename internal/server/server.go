// Пакет server — HTTP-сервер Identity Gateway с graceful shutdown.
// Без TLS: TLS termination на ingress/API Gateway.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	apierrors "github.com/bigkaa/identity-gateway/internal/api/errors"
	"github.com/bigkaa/identity-gateway/internal/api/handlers"
	"github.com/bigkaa/identity-gateway/internal/config"
)

// Server — HTTP-сервер Identity Gateway.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// Routes — middleware, из которых собирается роутер.
type Routes struct {
	// Global — middleware для всех запросов, в порядке применения
	Global []func(http.Handler) http.Handler
	// API — middleware только для /api/* (JWT)
	API []func(http.Handler) http.Handler
}

// New создаёт HTTP-сервер с настроенными routes и middleware.
func New(cfg *config.Config, logger *slog.Logger, handler *handlers.APIHandler, routes Routes) *Server {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      NewRouter(handler, routes),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// NewRouter регистрирует маршруты Identity Gateway.
// Неизвестный маршрут и неподдерживаемый метод дают 404
// с телом {"success": false, "error": "Route not found"}.
// Завершающий слэш игнорируется: /api/users/ обслуживается как /api/users.
func NewRouter(handler *handlers.APIHandler, routes Routes) http.Handler {
	router := chi.NewRouter()

	for _, mw := range routes.Global {
		router.Use(mw)
	}
	router.Use(chimiddleware.StripSlashes)

	// NotFound/MethodNotAllowed задаются до Route, чтобы chi передал их в sub-router /api
	routeNotFound := func(w http.ResponseWriter, _ *http.Request) {
		apierrors.RouteNotFound(w)
	}
	router.NotFound(routeNotFound)
	router.MethodNotAllowed(routeNotFound)

	// Документация
	router.Get("/", handler.GetDocs)
	router.Get("/openapi.json", handler.GetOpenAPI)

	// Health и метрики
	router.Get("/health", handler.Health)
	router.Get("/health/live", handler.HealthLive)
	router.Get("/metrics", handler.GetMetrics)

	// API пользователей
	router.Route("/api", func(r chi.Router) {
		for _, mw := range routes.API {
			r.Use(mw)
		}
		r.Get("/users", handler.ListUsers)
		r.Get("/users/{userId}/devices", handler.GetUserDevices)
		r.Get("/users/{userId}", handler.GetUserWithDevices)
	})

	return router
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
