// types.go — JSON-представления ответов API и конвертация из доменных моделей.
package handlers

import (
	"time"

	"github.com/bigkaa/identity-gateway/internal/domain/model"
)

// User — пользователь в ответе API.
type User struct {
	ID        string      `json:"id"`
	Status    string      `json:"status"`
	Created   *time.Time  `json:"created"`
	Activated *time.Time  `json:"activated"`
	LastLogin *time.Time  `json:"lastLogin"`
	Profile   UserProfile `json:"profile"`
}

// UserProfile — профиль пользователя в ответе API.
type UserProfile struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Login     string `json:"login"`
}

// Device — фактор аутентификации в ответе API.
type Device struct {
	ID          string         `json:"id"`
	FactorType  string         `json:"factorType"`
	Provider    string         `json:"provider"`
	Status      string         `json:"status"`
	Created     *time.Time     `json:"created"`
	LastUpdated *time.Time     `json:"lastUpdated"`
	Profile     map[string]any `json:"profile"`
}

// Pagination — метаданные пагинации списка пользователей.
type Pagination struct {
	HasNext    bool    `json:"hasNext"`
	NextCursor *string `json:"nextCursor"`
	TotalCount int     `json:"totalCount"`
}

// UsersResponse — ответ GET /api/users.
type UsersResponse struct {
	Success    bool       `json:"success"`
	Data       []User     `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// DevicesResponse — ответ GET /api/users/{userId}/devices.
type DevicesResponse struct {
	Success bool     `json:"success"`
	Data    []Device `json:"data"`
	Count   int      `json:"count"`
}

// UserWithDevices — агрегированное представление пользователя.
type UserWithDevices struct {
	User        User     `json:"user"`
	Devices     []Device `json:"devices"`
	DeviceCount int      `json:"deviceCount"`
}

// UserWithDevicesResponse — ответ GET /api/users/{userId}.
type UserWithDevicesResponse struct {
	Success bool            `json:"success"`
	Data    UserWithDevices `json:"data"`
}

// --- Конвертация domain → API ---

func toUser(u *model.UserRecord) User {
	return User{
		ID:        u.ID,
		Status:    u.Status,
		Created:   timePtr(u.Created),
		Activated: u.Activated,
		LastLogin: u.LastLogin,
		Profile: UserProfile{
			FirstName: u.Profile.FirstName,
			LastName:  u.Profile.LastName,
			Email:     u.Profile.Email,
			Login:     u.Profile.Login,
		},
	}
}

func toUsers(users []*model.UserRecord) []User {
	result := make([]User, 0, len(users))
	for _, u := range users {
		result = append(result, toUser(u))
	}
	return result
}

func toDevices(devices []*model.DeviceRecord) []Device {
	result := make([]Device, 0, len(devices))
	for _, d := range devices {
		profile := d.Profile
		if profile == nil {
			profile = map[string]any{}
		}
		result = append(result, Device{
			ID:          d.ID,
			FactorType:  d.FactorType,
			Provider:    d.Provider,
			Status:      d.Status,
			Created:     timePtr(d.Created),
			LastUpdated: timePtr(d.LastUpdated),
			Profile:     profile,
		})
	}
	return result
}

// timePtr возвращает nil для нулевого времени (Okta не вернул поле).
func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
