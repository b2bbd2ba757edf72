// Пакет okta — HTTP-клиент к Okta Management API.
// models.go — модели данных Okta (только поля, которые читает Identity Gateway).
package okta

import (
	"fmt"
	"time"
)

// User — пользователь Okta (GET /users, GET /users/{id}).
// Необязательные timestamp приходят как null и остаются nil.
type User struct {
	ID              string      `json:"id"`
	Status          string      `json:"status"`
	Created         *time.Time  `json:"created"`
	Activated       *time.Time  `json:"activated"`
	StatusChanged   *time.Time  `json:"statusChanged"`
	LastLogin       *time.Time  `json:"lastLogin"`
	LastUpdated     *time.Time  `json:"lastUpdated"`
	PasswordChanged *time.Time  `json:"passwordChanged"`
	Profile         UserProfile `json:"profile"`
}

// UserProfile — стандартные атрибуты профиля пользователя.
type UserProfile struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Login       string `json:"login"`
	MobilePhone string `json:"mobilePhone,omitempty"`
}

// Factor — зарегистрированный фактор аутентификации (GET /users/{id}/factors).
// Profile зависит от factorType, поэтому остаётся нетипизированным.
type Factor struct {
	ID          string         `json:"id"`
	FactorType  string         `json:"factorType"`
	Provider    string         `json:"provider"`
	VendorName  string         `json:"vendorName,omitempty"`
	Status      string         `json:"status"`
	Created     *time.Time     `json:"created"`
	LastUpdated *time.Time     `json:"lastUpdated"`
	Profile     map[string]any `json:"profile"`
}

// UsersPage — одна страница GET /users вместе с сырым значением Link.
type UsersPage struct {
	Users []User
	// Link — все заголовки Link ответа, склеенные через ", ".
	Link string
}

// ListUsersParams — параметры GET /users.
// After и Filter не отправляются, если пустые.
type ListUsersParams struct {
	Limit  int
	After  string
	Filter string
}

// ErrorCause — элемент errorCauses в теле ошибки Okta.
type ErrorCause struct {
	ErrorSummary string `json:"errorSummary"`
}

// APIError — ответ Okta с не-2xx статусом.
// Тело разбирается нестрого: если это не JSON ошибки Okta, поля остаются пустыми.
type APIError struct {
	StatusCode   int          `json:"-"`
	ErrorCode    string       `json:"errorCode"`
	ErrorSummary string       `json:"errorSummary"`
	ErrorLink    string       `json:"errorLink"`
	ErrorID      string       `json:"errorId"`
	ErrorCauses  []ErrorCause `json:"errorCauses"`
}

// Error реализует error.
func (e *APIError) Error() string {
	if e.ErrorCode != "" {
		return fmt.Sprintf("Okta API вернул статус %d (%s): %s", e.StatusCode, e.ErrorCode, e.Summary())
	}
	return fmt.Sprintf("Okta API вернул статус %d: %s", e.StatusCode, e.Summary())
}

// Summary возвращает errorSummary из тела ответа,
// при его отсутствии стандартное описание по статус-коду.
func (e *APIError) Summary() string {
	if e.ErrorSummary != "" {
		return e.ErrorSummary
	}
	return fmt.Sprintf("Request failed with status code %d", e.StatusCode)
}
