// Пакет config — загрузка и валидация конфигурации Identity Gateway
// из переменных окружения (и опционального .env файла).
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// ServiceName — имя сервиса в health-ответах и метриках.
const ServiceName = "Okta Users & Devices Service"

// ErrMissingRequired — не задана обязательная переменная окружения.
// Сервис с такой конфигурацией не запускается.
var ErrMissingRequired = errors.New("обязательная переменная окружения не задана")

// Config содержит все параметры конфигурации Identity Gateway.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- Okta ---

	// Домен организации Okta (например, https://acme.okta.com), без trailing slash
	OktaDomain string
	// Статический API-токен (SSWS)
	OktaAPIToken string
	// Таймаут одного запроса к Okta (по умолчанию 10s)
	OktaTimeout time.Duration
	// Путь к CA-сертификату для TLS-соединений с Okta (опционально)
	OktaCACertPath string

	// --- HTTP Server Timeouts ---

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration

	// --- CORS ---

	// Разрешённые origin; "*" — любой
	CORSAllowedOrigins []string

	// --- topologymetrics ---

	DephealthGroup         string
	DephealthCheckInterval time.Duration

	// --- JWT (опционально; при пустом JWKS URL аутентификация входящих запросов выключена) ---

	JWTJWKSURL       string
	JWTIssuer        string
	JWTRequiredScope string
	JWTLeeway        time.Duration

	// --- Graceful shutdown ---

	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения.
// Перед чтением окружения подмешивается .env из рабочей директории, если он есть;
// уже заданные переменные окружения не перезаписываются.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	var err error

	// --- Сервер ---

	// IG_PORT — порт HTTP-сервера (по умолчанию PORT или 3000)
	cfg.Port, err = getEnvInt("IG_PORT", 0)
	if err != nil {
		return nil, fmt.Errorf("IG_PORT: %w", err)
	}
	if cfg.Port == 0 {
		cfg.Port, err = getEnvInt("PORT", 3000)
		if err != nil {
			return nil, fmt.Errorf("PORT: %w", err)
		}
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("IG_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	// IG_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("IG_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("IG_LOG_LEVEL: %w", err)
	}

	// IG_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("IG_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("IG_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- Okta ---

	// OKTA_DOMAIN — обязательный
	cfg.OktaDomain, err = getEnvRequired("OKTA_DOMAIN")
	if err != nil {
		return nil, err
	}
	cfg.OktaDomain = strings.TrimRight(cfg.OktaDomain, "/")
	if err := validateBaseURL(cfg.OktaDomain); err != nil {
		return nil, fmt.Errorf("OKTA_DOMAIN: %w", err)
	}

	// OKTA_API_TOKEN — обязательный
	cfg.OktaAPIToken, err = getEnvRequired("OKTA_API_TOKEN")
	if err != nil {
		return nil, err
	}

	// IG_OKTA_TIMEOUT — таймаут запроса к Okta (по умолчанию 10s)
	cfg.OktaTimeout, err = getEnvPositiveDuration("IG_OKTA_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("IG_OKTA_TIMEOUT: %w", err)
	}

	cfg.OktaCACertPath = getEnvDefault("IG_OKTA_CA_CERT_PATH", "")

	// --- HTTP Server Timeouts ---

	cfg.HTTPReadTimeout, err = getEnvDuration("IG_HTTP_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("IG_HTTP_READ_TIMEOUT: %w", err)
	}
	cfg.HTTPWriteTimeout, err = getEnvDuration("IG_HTTP_WRITE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("IG_HTTP_WRITE_TIMEOUT: %w", err)
	}
	cfg.HTTPIdleTimeout, err = getEnvDuration("IG_HTTP_IDLE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("IG_HTTP_IDLE_TIMEOUT: %w", err)
	}

	// --- CORS ---

	cfg.CORSAllowedOrigins = parseCSV(getEnvDefault("IG_CORS_ALLOWED_ORIGINS", "*"))

	// --- topologymetrics ---

	cfg.DephealthGroup = getEnvDefault("IG_DEPHEALTH_GROUP", "identity-gateway")
	cfg.DephealthCheckInterval, err = getEnvPositiveDuration("IG_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("IG_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// --- JWT ---

	cfg.JWTJWKSURL = getEnvDefault("IG_JWT_JWKS_URL", "")
	if cfg.JWTJWKSURL != "" {
		if err := validateBaseURL(cfg.JWTJWKSURL); err != nil {
			return nil, fmt.Errorf("IG_JWT_JWKS_URL: %w", err)
		}
	}
	cfg.JWTIssuer = getEnvDefault("IG_JWT_ISSUER", "")
	cfg.JWTRequiredScope = getEnvDefault("IG_JWT_REQUIRED_SCOPE", "")
	cfg.JWTLeeway, err = getEnvDuration("IG_JWT_LEEWAY", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("IG_JWT_LEEWAY: %w", err)
	}

	// --- Graceful shutdown ---

	cfg.ShutdownTimeout, err = getEnvDuration("IG_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("IG_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// OktaBaseURL возвращает базовый URL версионированного Management API.
func (c *Config) OktaBaseURL() string {
	return c.OktaDomain + "/api/v1"
}

// JWTEnabled сообщает, включена ли аутентификация входящих запросов.
func (c *Config) JWTEnabled() bool {
	return c.JWTJWKSURL != ""
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: %w", key, ErrMissingRequired)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// getEnvPositiveDuration — как getEnvDuration, но значение должно быть > 0.
func getEnvPositiveDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	d, err := getEnvDuration(key, defaultVal)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("значение должно быть > 0")
	}
	return d, nil
}

// validateBaseURL проверяет, что строка — абсолютный http(s) URL с хостом.
func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("некорректный URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("ожидается схема http или https, получено %q", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("в URL %q отсутствует хост", raw)
	}
	return nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}

// parseCSV разбирает строку, разделённую запятыми, на срез строк.
// Пробелы вокруг элементов убираются, пустые элементы игнорируются.
func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
