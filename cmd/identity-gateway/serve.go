package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bigkaa/identity-gateway/internal/api/handlers"
	"github.com/bigkaa/identity-gateway/internal/api/middleware"
	"github.com/bigkaa/identity-gateway/internal/config"
	"github.com/bigkaa/identity-gateway/internal/okta"
	"github.com/bigkaa/identity-gateway/internal/server"
	"github.com/bigkaa/identity-gateway/internal/service"
)

// serviceID — имя вершины графа зависимостей в topologymetrics.
const serviceID = "identity-gateway"

const (
	jwksClientTimeout   = 10 * time.Second
	jwksRefreshInterval = 5 * time.Minute
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server (default)",
	RunE:  runServe,
}

func runServe(_ *cobra.Command, _ []string) error {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("Identity Gateway запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("okta_domain", cfg.OktaDomain),
	)

	if os.Getenv("IG_DEPHEALTH_GROUP") == "" {
		logger.Warn("IG_DEPHEALTH_GROUP не задана, используется значение по умолчанию",
			slog.String("default", cfg.DephealthGroup),
		)
	}

	// 3. Клиент Okta (SSWS-токен, опциональный CA)
	oktaClient, err := okta.New(cfg.OktaBaseURL(), cfg.OktaAPIToken, cfg.OktaTimeout, cfg.OktaCACertPath, logger)
	if err != nil {
		return &service.Error{
			Kind:    service.KindConfiguration,
			Message: fmt.Sprintf("Invalid Okta client configuration: %v", err),
			Err:     err,
		}
	}

	// 4. Сервисный слой
	identity := service.NewIdentityService(oktaClient, logger)

	// 5. topologymetrics — фоновая проверка Okta.
	// Ошибка запуска не блокирует сервис.
	ctx := context.Background()
	dephealthSvc, dephealthErr := service.NewDephealthService(
		serviceID,
		cfg.DephealthGroup,
		cfg.OktaDomain,
		cfg.DephealthCheckInterval,
		logger,
	)
	if dephealthErr != nil {
		logger.Warn("Ошибка создания topologymetrics сервиса",
			slog.String("error", dephealthErr.Error()),
		)
		dephealthSvc = nil
	} else if startErr := dephealthSvc.Start(ctx); startErr != nil {
		logger.Warn("Ошибка запуска topologymetrics",
			slog.String("error", startErr.Error()),
		)
		dephealthSvc = nil
	} else {
		logger.Info("topologymetrics запущен",
			slog.String("group", cfg.DephealthGroup),
			slog.String("check_interval", cfg.DephealthCheckInterval.String()),
		)
	}

	// 6. API handlers
	docs, err := handlers.NewDocsHandler(ctx)
	if err != nil {
		return fmt.Errorf("сборка OpenAPI документа: %w", err)
	}
	health := handlers.NewHealthHandler(identity, cfg.OktaTimeout)
	apiHandler := handlers.NewAPIHandler(identity, health, docs, logger)

	// 7. Middleware
	routes := server.Routes{
		Global: []func(http.Handler) http.Handler{
			middleware.RequestID(),
			middleware.RequestLogger(logger),
			middleware.MetricsMiddleware(),
			middleware.Recovery(logger),
			middleware.CORS(cfg.CORSAllowedOrigins),
		},
	}

	if cfg.JWTEnabled() {
		jwtAuth, err := middleware.NewJWTAuth(
			cfg.JWTJWKSURL,
			cfg.JWTIssuer,
			cfg.JWTRequiredScope,
			jwksClientTimeout,
			jwksRefreshInterval,
			cfg.JWTLeeway,
			logger,
		)
		if err != nil {
			return fmt.Errorf("создание JWT middleware: %w", err)
		}
		routes.API = append(routes.API, jwtAuth.Middleware())
		logger.Info("JWT middleware инициализирован",
			slog.String("jwks_url", cfg.JWTJWKSURL),
			slog.String("issuer", cfg.JWTIssuer),
			slog.String("required_scope", cfg.JWTRequiredScope),
		)
	} else {
		logger.Warn("IG_JWT_JWKS_URL не задан, /api/* доступен без аутентификации")
	}

	// 8. Запуск HTTP-сервера
	srv := server.New(cfg, logger, apiHandler, routes)
	runErr := srv.Run()

	// 9. Остановка фоновых задач
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}

	if runErr != nil {
		return runErr
	}
	logger.Info("Identity Gateway остановлен")
	return nil
}
