package service

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bigkaa/identity-gateway/internal/okta"
)

// testLogger создаёт logger для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// --- Mock remote directory ---

// mockRemote — мок RemoteDirectory для unit-тестов.
type mockRemote struct {
	listUsersFn   func(ctx context.Context, params okta.ListUsersParams) (*okta.UsersPage, error)
	getUserFn     func(ctx context.Context, id string) (*okta.User, error)
	listFactorsFn func(ctx context.Context, userID string) ([]okta.Factor, error)
	pingFn        func(ctx context.Context) error
}

func (m *mockRemote) ListUsers(ctx context.Context, params okta.ListUsersParams) (*okta.UsersPage, error) {
	if m.listUsersFn != nil {
		return m.listUsersFn(ctx, params)
	}
	return &okta.UsersPage{}, nil
}

func (m *mockRemote) GetUser(ctx context.Context, id string) (*okta.User, error) {
	if m.getUserFn != nil {
		return m.getUserFn(ctx, id)
	}
	return &okta.User{ID: id, Status: "ACTIVE"}, nil
}

func (m *mockRemote) ListFactors(ctx context.Context, userID string) ([]okta.Factor, error) {
	if m.listFactorsFn != nil {
		return m.listFactorsFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockRemote) Ping(ctx context.Context) error {
	if m.pingFn != nil {
		return m.pingFn(ctx)
	}
	return nil
}

func ts(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

// --- NormalizeLimit ---

func TestNormalizeLimit(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{raw: "", want: 20},
		{raw: "abc", want: 20},
		{raw: "0", want: 20},
		{raw: "-5", want: 20},
		{raw: "1", want: 1},
		{raw: " 50 ", want: 50},
		{raw: "200", want: 200},
		{raw: "1000", want: 1000},
		{raw: "2.5", want: 20},
	}

	for _, tt := range tests {
		if got := NormalizeLimit(tt.raw); got != tt.want {
			t.Errorf("NormalizeLimit(%q) = %d, ожидается %d", tt.raw, got, tt.want)
		}
	}
}

// --- ListUsers ---

// TestIdentityService_ListUsers — две записи и ссылка next с курсором.
func TestIdentityService_ListUsers(t *testing.T) {
	remote := &mockRemote{
		listUsersFn: func(_ context.Context, params okta.ListUsersParams) (*okta.UsersPage, error) {
			if params.Limit != 2 {
				t.Errorf("Limit = %d, ожидается 2", params.Limit)
			}
			if params.After != "" || params.Filter != "" {
				t.Errorf("After/Filter должны быть пустыми: %+v", params)
			}
			return &okta.UsersPage{
				Users: []okta.User{
					{ID: "00u1", Status: "ACTIVE", Created: ts("2024-01-10T08:00:00Z"), Profile: okta.UserProfile{Email: "a@example.com"}},
					{ID: "00u2", Status: "STAGED", Created: ts("2024-02-10T08:00:00Z"), LastLogin: ts("2024-03-01T12:00:00Z")},
				},
				Link: `<https://x/api/v1/users?limit=2>; rel="self", <https://x/api/v1/users?after=ABC123&limit=2>; rel="next"`,
			}, nil
		},
	}
	svc := NewIdentityService(remote, testLogger())

	page, err := svc.ListUsers(context.Background(), ListUsersInput{Limit: 2})
	if err != nil {
		t.Fatalf("ListUsers() вернул ошибку: %v", err)
	}

	if len(page.Users) != 2 {
		t.Fatalf("ожидалось 2 пользователя, получено %d", len(page.Users))
	}
	if page.Users[0].Profile.Email != "a@example.com" {
		t.Errorf("email = %q", page.Users[0].Profile.Email)
	}
	if page.Users[0].Activated != nil || page.Users[0].LastLogin != nil {
		t.Error("отсутствующие timestamp должны быть nil")
	}
	if page.Users[1].LastLogin == nil {
		t.Error("lastLogin второго пользователя должен быть задан")
	}
	if !page.Pagination.HasNext {
		t.Error("HasNext = false, ожидается true")
	}
	if page.Pagination.NextCursor == nil || *page.Pagination.NextCursor != "ABC123" {
		t.Errorf("NextCursor = %v, ожидается ABC123", page.Pagination.NextCursor)
	}
	if page.Pagination.TotalCount != 2 {
		t.Errorf("TotalCount = %d, ожидается 2", page.Pagination.TotalCount)
	}
}

func TestIdentityService_ListUsers_LastPage(t *testing.T) {
	remote := &mockRemote{
		listUsersFn: func(_ context.Context, params okta.ListUsersParams) (*okta.UsersPage, error) {
			if params.Limit != DefaultLimit {
				t.Errorf("Limit = %d, ожидается %d", params.Limit, DefaultLimit)
			}
			if params.After != "cur" || params.Filter != `status eq "ACTIVE"` {
				t.Errorf("параметры не переданы: %+v", params)
			}
			return &okta.UsersPage{
				Users: []okta.User{{ID: "00u9"}},
				Link:  `<https://x/api/v1/users?after=cur>; rel="self"`,
			}, nil
		},
	}
	svc := NewIdentityService(remote, testLogger())

	page, err := svc.ListUsers(context.Background(), ListUsersInput{After: "cur", Filter: `status eq "ACTIVE"`})
	if err != nil {
		t.Fatalf("ListUsers() вернул ошибку: %v", err)
	}
	if page.Pagination.HasNext || page.Pagination.NextCursor != nil {
		t.Errorf("pagination = %+v, ожидается конец списка", page.Pagination)
	}
	if page.Pagination.TotalCount != 1 {
		t.Errorf("TotalCount = %d", page.Pagination.TotalCount)
	}
}

func TestIdentityService_ListUsers_Errors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{
			name:    "ошибка Okta с errorSummary",
			err:     &okta.APIError{StatusCode: 429, ErrorSummary: "API call exceeded rate limit due to too many requests."},
			wantMsg: "Failed to fetch users: API call exceeded rate limit due to too many requests.",
		},
		{
			name:    "ошибка Okta без тела",
			err:     &okta.APIError{StatusCode: 500},
			wantMsg: "Failed to fetch users: Request failed with status code 500",
		},
		{
			name:    "ошибка транспорта",
			err:     &url.Error{Op: "Get", URL: "https://x/api/v1/users", Err: errors.New("connection refused")},
			wantMsg: "Failed to fetch users: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := &mockRemote{
				listUsersFn: func(context.Context, okta.ListUsersParams) (*okta.UsersPage, error) {
					return nil, tt.err
				},
			}
			svc := NewIdentityService(remote, testLogger())

			_, err := svc.ListUsers(context.Background(), ListUsersInput{Limit: 5})
			if err == nil {
				t.Fatal("ожидалась ошибка")
			}
			if err.Error() != tt.wantMsg {
				t.Errorf("сообщение = %q, ожидается %q", err.Error(), tt.wantMsg)
			}
			if KindOf(err) != KindRemoteFailure {
				t.Errorf("Kind = %v, ожидается remote_failure", KindOf(err))
			}
			if !errors.Is(err, tt.err) {
				t.Error("исходная ошибка должна быть доступна через errors.Is")
			}
		})
	}
}

// TestIdentityService_ListUsers_LimitAboveMax — limit больше 200 уходит в Okta без изменений.
func TestIdentityService_ListUsers_LimitAboveMax(t *testing.T) {
	var gotLimit int
	remote := &mockRemote{
		listUsersFn: func(_ context.Context, params okta.ListUsersParams) (*okta.UsersPage, error) {
			gotLimit = params.Limit
			return &okta.UsersPage{}, nil
		},
	}
	svc := NewIdentityService(remote, testLogger())

	if _, err := svc.ListUsers(context.Background(), ListUsersInput{Limit: NormalizeLimit("500")}); err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if gotLimit != 500 {
		t.Errorf("Limit = %d, ожидается 500", gotLimit)
	}
}

func TestIdentityService_ListUsers_InvalidLimit(t *testing.T) {
	called := false
	remote := &mockRemote{
		listUsersFn: func(context.Context, okta.ListUsersParams) (*okta.UsersPage, error) {
			called = true
			return &okta.UsersPage{}, nil
		},
	}
	svc := NewIdentityService(remote, testLogger())

	for _, limit := range []int{-1, -200} {
		_, err := svc.ListUsers(context.Background(), ListUsersInput{Limit: limit})
		if KindOf(err) != KindInvalidInput {
			t.Errorf("limit=%d: Kind = %v, ожидается invalid_input", limit, KindOf(err))
		}
	}
	if called {
		t.Error("Okta не должен вызываться при невалидном limit")
	}
}

// --- GetUserByID ---

func TestIdentityService_GetUserByID_NotFound(t *testing.T) {
	remote := &mockRemote{
		getUserFn: func(context.Context, string) (*okta.User, error) {
			return nil, &okta.APIError{StatusCode: 404, ErrorCode: "E0000007", ErrorSummary: "Not found: Resource not found: u1 (User)"}
		},
	}
	svc := NewIdentityService(remote, testLogger())

	_, err := svc.GetUserByID(context.Background(), "u1")
	if err == nil {
		t.Fatal("ожидалась ошибка")
	}
	if KindOf(err) != KindNotFound {
		t.Errorf("Kind = %v, ожидается not_found", KindOf(err))
	}
	if err.Error() != "User not found" {
		t.Errorf("сообщение = %q, ожидается %q", err.Error(), "User not found")
	}
}

func TestIdentityService_GetUserByID_RemoteFailure(t *testing.T) {
	remote := &mockRemote{
		getUserFn: func(context.Context, string) (*okta.User, error) {
			return nil, &okta.APIError{StatusCode: 403, ErrorSummary: "You do not have permission to perform the requested action"}
		},
	}
	svc := NewIdentityService(remote, testLogger())

	_, err := svc.GetUserByID(context.Background(), "u1")
	if KindOf(err) != KindRemoteFailure {
		t.Errorf("Kind = %v, ожидается remote_failure", KindOf(err))
	}
	if err.Error() != "Failed to fetch user: You do not have permission to perform the requested action" {
		t.Errorf("сообщение = %q", err.Error())
	}
}

func TestIdentityService_GetUserByID_EmptyID(t *testing.T) {
	svc := NewIdentityService(&mockRemote{}, testLogger())

	_, err := svc.GetUserByID(context.Background(), "")
	if KindOf(err) != KindInvalidInput {
		t.Errorf("Kind = %v, ожидается invalid_input", KindOf(err))
	}
}

// TestIdentityService_GetUserByID_LongID — длинный id уходит в Okta, 404 даёт NotFound.
func TestIdentityService_GetUserByID_LongID(t *testing.T) {
	longID := strings.Repeat("u", 300)
	var gotID string
	remote := &mockRemote{
		getUserFn: func(_ context.Context, id string) (*okta.User, error) {
			gotID = id
			return nil, &okta.APIError{StatusCode: 404, ErrorSummary: "Not found: Resource not found: " + id + " (User)"}
		},
	}
	svc := NewIdentityService(remote, testLogger())

	_, err := svc.GetUserByID(context.Background(), longID)
	if gotID != longID {
		t.Fatalf("Okta получил id длиной %d, ожидается %d", len(gotID), len(longID))
	}
	if KindOf(err) != KindNotFound || err.Error() != MsgUserNotFound {
		t.Errorf("Kind = %v, сообщение = %q", KindOf(err), err)
	}
}

// --- GetUserDevices ---

func TestIdentityService_GetUserDevices(t *testing.T) {
	tests := []struct {
		name      string
		factors   []okta.Factor
		wantCount int
	}{
		{name: "нет факторов (nil)", factors: nil, wantCount: 0},
		{name: "нет факторов (пустой срез)", factors: []okta.Factor{}, wantCount: 0},
		{
			name: "два фактора",
			factors: []okta.Factor{
				{ID: "f1", FactorType: "push", Provider: "OKTA", Status: "ACTIVE", Profile: map[string]any{"name": "iPhone"}},
				{ID: "f2", FactorType: "sms", Provider: "OKTA", Status: "ACTIVE", Created: ts("2024-01-10T08:00:00Z")},
			},
			wantCount: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := &mockRemote{
				listFactorsFn: func(context.Context, string) ([]okta.Factor, error) {
					return tt.factors, nil
				},
			}
			svc := NewIdentityService(remote, testLogger())

			list, err := svc.GetUserDevices(context.Background(), "u1")
			if err != nil {
				t.Fatalf("GetUserDevices() вернул ошибку: %v", err)
			}
			if list.Count != tt.wantCount || len(list.Devices) != tt.wantCount {
				t.Errorf("Count = %d, len = %d, ожидается %d", list.Count, len(list.Devices), tt.wantCount)
			}
			if list.Devices == nil {
				t.Error("Devices не должен быть nil")
			}
			for _, d := range list.Devices {
				if d.Profile == nil {
					t.Errorf("Profile фактора %s = nil", d.ID)
				}
			}
		})
	}
}

func TestIdentityService_GetUserDevices_Errors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind Kind
		wantMsg  string
	}{
		{
			name:     "404",
			err:      &okta.APIError{StatusCode: 404},
			wantKind: KindNotFound,
			wantMsg:  "User not found",
		},
		{
			name:     "500",
			err:      &okta.APIError{StatusCode: 500, ErrorSummary: "Internal error"},
			wantKind: KindRemoteFailure,
			wantMsg:  "Failed to fetch user devices: Internal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := &mockRemote{
				listFactorsFn: func(context.Context, string) ([]okta.Factor, error) {
					return nil, tt.err
				},
			}
			svc := NewIdentityService(remote, testLogger())

			_, err := svc.GetUserDevices(context.Background(), "u1")
			if KindOf(err) != tt.wantKind {
				t.Errorf("Kind = %v, ожидается %v", KindOf(err), tt.wantKind)
			}
			if err.Error() != tt.wantMsg {
				t.Errorf("сообщение = %q, ожидается %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

// --- GetUserWithDevices ---

// TestIdentityService_GetUserWithDevices — пользователь и одно устройство.
func TestIdentityService_GetUserWithDevices(t *testing.T) {
	remote := &mockRemote{
		getUserFn: func(_ context.Context, id string) (*okta.User, error) {
			return &okta.User{ID: id, Status: "ACTIVE", Profile: okta.UserProfile{Login: "ada"}}, nil
		},
		listFactorsFn: func(context.Context, string) ([]okta.Factor, error) {
			return []okta.Factor{{ID: "f1", FactorType: "push"}}, nil
		},
	}
	svc := NewIdentityService(remote, testLogger())

	view, err := svc.GetUserWithDevices(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetUserWithDevices() вернул ошибку: %v", err)
	}
	if view.User.ID != "u1" || view.User.Profile.Login != "ada" {
		t.Errorf("user = %+v", view.User)
	}
	if view.DeviceCount != 1 || len(view.Devices) != 1 {
		t.Errorf("DeviceCount = %d, len = %d, ожидается 1", view.DeviceCount, len(view.Devices))
	}
}

// TestIdentityService_GetUserWithDevices_UserNotFound — 404 на пользователе
// даёт "User not found", даже если факторы получены успешно.
func TestIdentityService_GetUserWithDevices_UserNotFound(t *testing.T) {
	remote := &mockRemote{
		getUserFn: func(context.Context, string) (*okta.User, error) {
			return nil, &okta.APIError{StatusCode: 404}
		},
		listFactorsFn: func(context.Context, string) ([]okta.Factor, error) {
			return []okta.Factor{{ID: "f1"}}, nil
		},
	}
	svc := NewIdentityService(remote, testLogger())

	view, err := svc.GetUserWithDevices(context.Background(), "u1")
	if view != nil {
		t.Errorf("частичный результат не должен возвращаться: %+v", view)
	}
	if err == nil || err.Error() != "User not found" {
		t.Fatalf("ошибка = %v, ожидается User not found", err)
	}
	if KindOf(err) != KindNotFound {
		t.Errorf("Kind = %v, ожидается not_found", KindOf(err))
	}
}

// TestIdentityService_GetUserWithDevices_CancelsSibling — ошибка одного запроса
// отменяет контекст второго.
func TestIdentityService_GetUserWithDevices_CancelsSibling(t *testing.T) {
	var cancelled atomic.Bool

	remote := &mockRemote{
		getUserFn: func(ctx context.Context, _ string) (*okta.User, error) {
			select {
			case <-ctx.Done():
				cancelled.Store(true)
				return nil, ctx.Err()
			case <-time.After(5 * time.Second):
				return &okta.User{ID: "u1"}, nil
			}
		},
		listFactorsFn: func(context.Context, string) ([]okta.Factor, error) {
			return nil, &okta.APIError{StatusCode: 500, ErrorSummary: "boom"}
		},
	}
	svc := NewIdentityService(remote, testLogger())

	start := time.Now()
	view, err := svc.GetUserWithDevices(context.Background(), "u1")
	if view != nil {
		t.Error("частичный результат не должен возвращаться")
	}
	if err == nil || err.Error() != "Failed to fetch user devices: boom" {
		t.Fatalf("ошибка = %v, ожидается ошибка факторов", err)
	}
	if !cancelled.Load() {
		t.Error("запрос пользователя должен быть отменён")
	}
	if time.Since(start) > 2*time.Second {
		t.Error("агрегация должна завершиться сразу после первой ошибки")
	}
}

// --- CheckRemote ---

func TestIdentityService_CheckRemote(t *testing.T) {
	tests := []struct {
		name        string
		pingErr     error
		wantStatus  string
		wantOkta    string
		wantType    string
		wantKind    Kind
		wantDetails string
	}{
		{
			name:       "Okta доступен",
			wantStatus: HealthOK,
			wantOkta:   HealthOK,
		},
		{
			name:        "невалидный токен",
			pingErr:     &okta.APIError{StatusCode: 401, ErrorSummary: "Invalid token provided"},
			wantStatus:  HealthDegraded,
			wantOkta:    HealthFailed,
			wantType:    ErrorTypeAuthentication,
			wantKind:    KindAuthentication,
			wantDetails: "Invalid token provided",
		},
		{
			name:        "ошибка сети",
			pingErr:     &url.Error{Op: "Get", URL: "https://x", Err: errors.New("no such host")},
			wantStatus:  HealthDegraded,
			wantOkta:    HealthFailed,
			wantType:    ErrorTypeConnection,
			wantKind:    KindRemoteFailure,
			wantDetails: "no such host",
		},
		{
			name:        "5xx от Okta",
			pingErr:     &okta.APIError{StatusCode: 503},
			wantStatus:  HealthDegraded,
			wantOkta:    HealthFailed,
			wantType:    ErrorTypeConnection,
			wantKind:    KindRemoteFailure,
			wantDetails: "Request failed with status code 503",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := &mockRemote{
				pingFn: func(context.Context) error { return tt.pingErr },
			}
			svc := NewIdentityService(remote, testLogger())

			h := svc.CheckRemote(context.Background())
			if h.Status != tt.wantStatus || h.Okta != tt.wantOkta {
				t.Errorf("Status = %q, Okta = %q", h.Status, h.Okta)
			}
			if h.ErrorType != tt.wantType {
				t.Errorf("ErrorType = %q, ожидается %q", h.ErrorType, tt.wantType)
			}
			if h.Kind != tt.wantKind {
				t.Errorf("Kind = %v, ожидается %v", h.Kind, tt.wantKind)
			}
			if h.ErrorDetails != tt.wantDetails {
				t.Errorf("ErrorDetails = %q, ожидается %q", h.ErrorDetails, tt.wantDetails)
			}
			if h.Healthy() != (tt.pingErr == nil) {
				t.Errorf("Healthy() = %v", h.Healthy())
			}
		})
	}
}
