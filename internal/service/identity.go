// identity.go — бизнес-логика чтения пользователей и их факторов из Okta.
// Перекладывает ответы Okta в доменные модели, классифицирует ошибки
// и собирает агрегированное представление пользователя.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/bigkaa/identity-gateway/internal/domain/model"
	"github.com/bigkaa/identity-gateway/internal/okta"
)

const (
	// DefaultLimit — размер страницы, если limit не передан или не число.
	DefaultLimit = 20
	// MaxLimit — максимальный размер страницы GET /users в Okta.
	// Больший limit передаётся как есть, Okta сама урезает страницу.
	MaxLimit = 200
)

// RemoteDirectory — операции каталога Okta, которые использует сервис.
// Реализуется *okta.Client; в тестах подменяется моком.
type RemoteDirectory interface {
	ListUsers(ctx context.Context, params okta.ListUsersParams) (*okta.UsersPage, error)
	GetUser(ctx context.Context, id string) (*okta.User, error)
	ListFactors(ctx context.Context, userID string) ([]okta.Factor, error)
	Ping(ctx context.Context) error
}

// ListUsersInput — параметры получения страницы пользователей.
type ListUsersInput struct {
	// Limit — размер страницы; 0 заменяется на DefaultLimit
	Limit int `validate:"min=1"`
	// After — курсор следующей страницы (опционально)
	After string
	// Filter — выражение фильтра Okta, передаётся без проверки (опционально)
	Filter string
}

// IdentityService — шлюз к каталогу пользователей Okta.
type IdentityService struct {
	remote   RemoteDirectory
	validate *validator.Validate
	logger   *slog.Logger
}

// NewIdentityService создаёт IdentityService.
func NewIdentityService(remote RemoteDirectory, logger *slog.Logger) *IdentityService {
	return &IdentityService{
		remote:   remote,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger.With(slog.String("component", "identity_service")),
	}
}

// NormalizeLimit разбирает limit из query string.
// Пустое, нечисловое или неположительное значение даёт DefaultLimit.
func NormalizeLimit(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return DefaultLimit
	}
	return n
}

// ListUsers возвращает одну страницу пользователей и курсор следующей.
func (s *IdentityService) ListUsers(ctx context.Context, in ListUsersInput) (*model.UsersPage, error) {
	if in.Limit == 0 {
		in.Limit = DefaultLimit
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, newError(KindInvalidInput, "Invalid list parameters: "+err.Error(), err)
	}

	page, err := s.remote.ListUsers(ctx, okta.ListUsersParams{
		Limit:  in.Limit,
		After:  in.After,
		Filter: in.Filter,
	})
	if err != nil {
		return nil, newError(KindRemoteFailure, "Failed to fetch users: "+okta.Detail(err), err)
	}

	users := make([]*model.UserRecord, 0, len(page.Users))
	for i := range page.Users {
		users = append(users, mapUser(&page.Users[i]))
	}

	pagination := model.Pagination{
		HasNext:    okta.HasNextLink(page.Link),
		TotalCount: len(users),
	}
	if cursor, ok := okta.NextCursor(page.Link); ok {
		pagination.NextCursor = &cursor
	}

	s.logger.Debug("Страница пользователей получена",
		slog.Int("count", len(users)),
		slog.Bool("has_next", pagination.HasNext),
	)

	return &model.UsersPage{Users: users, Pagination: pagination}, nil
}

// GetUserByID возвращает пользователя по ID.
// 404 от Okta → KindNotFound с сообщением "User not found".
func (s *IdentityService) GetUserByID(ctx context.Context, userID string) (*model.UserRecord, error) {
	if err := s.validateUserID(userID); err != nil {
		return nil, err
	}

	user, err := s.remote.GetUser(ctx, userID)
	if err != nil {
		return nil, classifyLookupError("Failed to fetch user: ", err)
	}
	return mapUser(user), nil
}

// GetUserDevices возвращает зарегистрированные факторы пользователя.
// Count всегда равен количеству факторов, включая 0.
func (s *IdentityService) GetUserDevices(ctx context.Context, userID string) (*model.DeviceList, error) {
	if err := s.validateUserID(userID); err != nil {
		return nil, err
	}

	factors, err := s.remote.ListFactors(ctx, userID)
	if err != nil {
		return nil, classifyLookupError("Failed to fetch user devices: ", err)
	}

	devices := make([]*model.DeviceRecord, 0, len(factors))
	for i := range factors {
		devices = append(devices, mapFactor(&factors[i]))
	}
	return model.NewDeviceList(devices), nil
}

// GetUserWithDevices параллельно запрашивает пользователя и его факторы.
// Первая ошибка отменяет второй запрос и возвращается без изменений;
// частичный результат не возвращается.
func (s *IdentityService) GetUserWithDevices(ctx context.Context, userID string) (*model.AggregatedUserView, error) {
	if err := s.validateUserID(userID); err != nil {
		return nil, err
	}

	var (
		user    *model.UserRecord
		devices *model.DeviceList
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		user, err = s.GetUserByID(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		devices, err = s.GetUserDevices(gctx, userID)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return model.NewAggregatedUserView(user, devices.Devices), nil
}

// --- Health ---

// Статусы health-проверки Okta.
const (
	HealthOK       = "OK"
	HealthDegraded = "DEGRADED"
	HealthFailed   = "FAILED"

	ErrorTypeAuthentication = "AUTHENTICATION_ERROR"
	ErrorTypeConnection     = "CONNECTION_ERROR"
)

// RemoteHealth — результат проверки доступности Okta.
type RemoteHealth struct {
	// Status — OK или DEGRADED
	Status string
	// Okta — OK или FAILED
	Okta string
	// Message — человекочитаемое описание
	Message string
	// Kind — KindAuthentication (401 от Okta) или KindRemoteFailure; не задан при успехе
	Kind Kind
	// ErrorType — AUTHENTICATION_ERROR или CONNECTION_ERROR по Kind; пусто при успехе
	ErrorType string
	// ErrorDetails — описание ошибки; пусто при успехе
	ErrorDetails string
	// Latency — длительность пробного запроса
	Latency time.Duration
}

// Healthy сообщает, прошла ли проверка.
func (h *RemoteHealth) Healthy() bool {
	return h.Status == HealthOK
}

// CheckRemote выполняет минимальный запрос к Okta (GET /users?limit=1).
func (s *IdentityService) CheckRemote(ctx context.Context) *RemoteHealth {
	start := time.Now()
	err := s.remote.Ping(ctx)
	latency := time.Since(start)

	if err == nil {
		return &RemoteHealth{
			Status:  HealthOK,
			Okta:    HealthOK,
			Message: "All systems operational",
			Latency: latency,
		}
	}

	probeErr := classifyProbeError(err)
	health := &RemoteHealth{
		Status:       HealthDegraded,
		Okta:         HealthFailed,
		Message:      "Okta API connection failed",
		Kind:         probeErr.Kind,
		ErrorType:    ErrorTypeConnection,
		ErrorDetails: probeErr.Message,
		Latency:      latency,
	}
	if probeErr.Kind == KindAuthentication {
		health.ErrorType = ErrorTypeAuthentication
	}

	s.logger.Warn("Okta недоступен",
		slog.String("error_type", health.ErrorType),
		slog.String("error", err.Error()),
		slog.Duration("latency", latency),
	)

	return health
}

// --- Вспомогательные функции ---

// validateUserID проверяет идентификатор пользователя.
// Длина не ограничивается: неизвестный id разрешает Okta ответом 404.
func (s *IdentityService) validateUserID(userID string) error {
	if err := s.validate.Var(userID, "required"); err != nil {
		return newError(KindInvalidInput, "Invalid user id", fmt.Errorf("userId %q: %w", userID, err))
	}
	return nil
}

// classifyLookupError классифицирует ошибку запроса одного ресурса:
// 404 → KindNotFound, остальное → KindRemoteFailure с префиксом операции.
func classifyLookupError(prefix string, err error) *Error {
	if okta.StatusCode(err) == http.StatusNotFound {
		return newError(KindNotFound, MsgUserNotFound, err)
	}
	return newError(KindRemoteFailure, prefix+okta.Detail(err), err)
}

// classifyProbeError классифицирует ошибку пробного запроса:
// 401 → KindAuthentication, остальное → KindRemoteFailure.
func classifyProbeError(err error) *Error {
	if okta.StatusCode(err) == http.StatusUnauthorized {
		return newError(KindAuthentication, okta.Detail(err), err)
	}
	return newError(KindRemoteFailure, okta.Detail(err), err)
}

// mapUser переводит пользователя Okta в доменную модель.
func mapUser(u *okta.User) *model.UserRecord {
	rec := &model.UserRecord{
		ID:        u.ID,
		Status:    u.Status,
		Activated: u.Activated,
		LastLogin: u.LastLogin,
		Profile: model.UserProfile{
			FirstName: u.Profile.FirstName,
			LastName:  u.Profile.LastName,
			Email:     u.Profile.Email,
			Login:     u.Profile.Login,
		},
	}
	if u.Created != nil {
		rec.Created = *u.Created
	}
	return rec
}

// mapFactor переводит фактор Okta в доменную модель.
func mapFactor(f *okta.Factor) *model.DeviceRecord {
	rec := &model.DeviceRecord{
		ID:         f.ID,
		FactorType: f.FactorType,
		Provider:   f.Provider,
		Status:     f.Status,
		Profile:    f.Profile,
	}
	if rec.Profile == nil {
		rec.Profile = map[string]any{}
	}
	if f.Created != nil {
		rec.Created = *f.Created
	}
	if f.LastUpdated != nil {
		rec.LastUpdated = *f.LastUpdated
	}
	return rec
}
