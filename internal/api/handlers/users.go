// users.go — обработчики /api/users.
// GET /api/users — страница пользователей (limit, after, filter из query string)
// GET /api/users/{userId} — пользователь вместе с факторами
// GET /api/users/{userId}/devices — факторы пользователя
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/identity-gateway/internal/service"
)

// ListUsers — реализация GET /api/users.
func (h *APIHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, err := h.identity.ListUsers(r.Context(), service.ListUsersInput{
		Limit:  service.NormalizeLimit(q.Get("limit")),
		After:  q.Get("after"),
		Filter: q.Get("filter"),
	})
	if err != nil {
		h.writeServiceError(w, r, "Ошибка получения списка пользователей", err)
		return
	}

	writeJSON(w, http.StatusOK, UsersResponse{
		Success: true,
		Data:    toUsers(page.Users),
		Pagination: Pagination{
			HasNext:    page.Pagination.HasNext,
			NextCursor: page.Pagination.NextCursor,
			TotalCount: page.Pagination.TotalCount,
		},
	})
}

// GetUserDevices — реализация GET /api/users/{userId}/devices.
func (h *APIHandler) GetUserDevices(w http.ResponseWriter, r *http.Request) {
	list, err := h.identity.GetUserDevices(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		h.writeServiceError(w, r, "Ошибка получения факторов пользователя", err)
		return
	}

	writeJSON(w, http.StatusOK, DevicesResponse{
		Success: true,
		Data:    toDevices(list.Devices),
		Count:   list.Count,
	})
}

// GetUserWithDevices — реализация GET /api/users/{userId}.
func (h *APIHandler) GetUserWithDevices(w http.ResponseWriter, r *http.Request) {
	view, err := h.identity.GetUserWithDevices(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		h.writeServiceError(w, r, "Ошибка получения пользователя с факторами", err)
		return
	}

	writeJSON(w, http.StatusOK, UserWithDevicesResponse{
		Success: true,
		Data: UserWithDevices{
			User:        toUser(view.User),
			Devices:     toDevices(view.Devices),
			DeviceCount: view.DeviceCount,
		},
	})
}
