// client.go — HTTP-клиент к Okta Management API (/api/v1).
// Авторизация статическим API-токеном (Authorization: SSWS <token>) через oauth2.Transport.
// Операции: ListUsers, GetUser, ListFactors, Ping.
package okta

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// maxErrorBody — сколько байт тела ошибки читается для разбора errorSummary.
const maxErrorBody = 64 << 10

// Client — HTTP-клиент к Okta Management API.
type Client struct {
	baseURL    string // Базовый URL API (https://<org>.okta.com/api/v1), без trailing slash
	httpClient *http.Client
	logger     *slog.Logger
}

// New создаёт клиент к Okta Management API.
// baseURL — базовый URL версионированного API (например, https://acme.okta.com/api/v1).
// apiToken — статический SSWS-токен.
// timeout — таймаут одного запроса.
// caCertPath — путь к CA-сертификату для TLS (пустая строка — стандартный пул).
func New(baseURL, apiToken string, timeout time.Duration, caCertPath string, logger *slog.Logger) (*Client, error) {
	if apiToken == "" {
		return nil, errors.New("пустой API-токен Okta")
	}

	base := http.DefaultTransport.(*http.Transport).Clone()
	if caCertPath != "" {
		tlsConfig, err := buildTLSConfig(caCertPath)
		if err != nil {
			return nil, fmt.Errorf("загрузка CA-сертификата Okta: %w", err)
		}
		base.TLSClientConfig = tlsConfig
		logger.Info("CA-сертификат Okta добавлен в пул доверия",
			slog.String("ca_cert", caCertPath),
		)
	}

	// oauth2.Token.Type() возвращает непустой TokenType как есть,
	// поэтому заголовок получается "Authorization: SSWS <token>".
	transport := &oauth2.Transport{
		Source: oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: apiToken,
			TokenType:   "SSWS",
		}),
		Base: base,
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		logger: logger.With(slog.String("component", "okta_client")),
	}, nil
}

// --- HTTP helpers ---

// doGet выполняет GET-запрос к API и декодирует JSON-ответ в target.
// Возвращает заголовки успешного ответа. Не-2xx статус превращается в *APIError.
func (c *Client) doGet(ctx context.Context, operation, path string, query url.Values, target any) (http.Header, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("создание запроса %s: %w", operation, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req) //nolint:gosec // G704: URL из конфигурации
	duration := time.Since(start)
	if err != nil {
		oktaRequestsTotal.WithLabelValues(operation, "error").Inc()
		oktaRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
		c.logger.Debug("Ошибка транспорта при запросе к Okta",
			slog.String("operation", operation),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	defer resp.Body.Close()

	oktaRequestsTotal.WithLabelValues(operation, strconv.Itoa(resp.StatusCode)).Inc()
	oktaRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := decodeAPIError(resp)
		c.logger.Debug("Okta вернул ошибку",
			slog.String("operation", operation),
			slog.Int("status", apiErr.StatusCode),
			slog.String("error_code", apiErr.ErrorCode),
			slog.String("error_id", apiErr.ErrorID),
		)
		return nil, apiErr
	}

	if target != nil {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return nil, fmt.Errorf("%s: %w", operation, &DecodeError{Err: err})
		}
	}

	return resp.Header, nil
}

// decodeAPIError разбирает тело не-2xx ответа.
// Нечитаемое или не-JSON тело даёт APIError только со статус-кодом.
func decodeAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	_ = json.Unmarshal(body, apiErr)
	apiErr.StatusCode = resp.StatusCode
	return apiErr
}

// --- Users API ---

// ListUsers возвращает одну страницу пользователей.
// GET /users?limit=&after=&filter=
func (c *Client) ListUsers(ctx context.Context, params ListUsersParams) (*UsersPage, error) {
	query := url.Values{}
	if params.Limit > 0 {
		query.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.After != "" {
		query.Set("after", params.After)
	}
	if params.Filter != "" {
		query.Set("filter", params.Filter)
	}

	var users []User
	header, err := c.doGet(ctx, "ListUsers", "/users", query, &users)
	if err != nil {
		return nil, err
	}

	// Okta отдаёт self и next отдельными заголовками Link
	return &UsersPage{
		Users: users,
		Link:  strings.Join(header.Values("Link"), ", "),
	}, nil
}

// GetUser возвращает пользователя по ID.
// GET /users/{id}
func (c *Client) GetUser(ctx context.Context, id string) (*User, error) {
	var user User
	if _, err := c.doGet(ctx, "GetUser", "/users/"+url.PathEscape(id), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListFactors возвращает зарегистрированные факторы пользователя.
// GET /users/{id}/factors
func (c *Client) ListFactors(ctx context.Context, userID string) ([]Factor, error) {
	var factors []Factor
	if _, err := c.doGet(ctx, "ListFactors", "/users/"+url.PathEscape(userID)+"/factors", nil, &factors); err != nil {
		return nil, err
	}
	return factors, nil
}

// Ping выполняет минимальный авторизованный запрос (GET /users?limit=1),
// проверяя одновременно доступность Okta и валидность токена.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.doGet(ctx, "Ping", "/users", url.Values{"limit": {"1"}}, nil)
	return err
}

// --- Ошибки ---

// DecodeError — тело успешного ответа Okta не удалось разобрать.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "malformed response body: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Detail возвращает описание ошибки, пригодное для ответа клиенту:
// errorSummary из тела ответа Okta, если он есть, иначе текст исходной ошибки.
// Префиксы операций и URL запроса отбрасываются.
func Detail(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Summary()
	}

	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		return decodeErr.Error()
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err.Error()
	}

	return err.Error()
}

// StatusCode возвращает HTTP-статус ответа Okta или 0, если ответа не было.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// buildTLSConfig создаёт TLS-конфигурацию с кастомным CA-сертификатом.
func buildTLSConfig(caCertPath string) (*tls.Config, error) {
	caCert, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, fmt.Errorf("чтение CA-сертификата: %w", err)
	}

	caCertPool, err := x509.SystemCertPool()
	if err != nil {
		caCertPool = x509.NewCertPool()
	}
	if !caCertPool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("в файле %s нет PEM-сертификатов", caCertPath)
	}

	return &tls.Config{
		RootCAs:    caCertPool,
		MinVersion: tls.VersionTLS12,
	}, nil
}
