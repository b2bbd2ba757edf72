// Пакет model — доменные модели Identity Gateway.
// Записи строятся из ответов Okta явным маппингом в сервисном слое
// и не зависят от формата внешнего API.
package model

import "time"

// UserRecord — учётная запись пользователя в каталоге.
type UserRecord struct {
	// ID — идентификатор пользователя в Okta
	ID string
	// Status — статус учётной записи (ACTIVE, STAGED, SUSPENDED, ...)
	Status string
	// Created — время создания (нулевое значение, если Okta его не вернул)
	Created time.Time
	// Activated — время активации (nil, если учётная запись не активировалась)
	Activated *time.Time
	// LastLogin — время последнего входа (nil, если входов не было)
	LastLogin *time.Time
	// Profile — атрибуты профиля
	Profile UserProfile
}

// UserProfile — атрибуты профиля пользователя.
type UserProfile struct {
	FirstName string
	LastName  string
	Email     string
	Login     string
}

// Pagination — метаданные курсорной пагинации.
type Pagination struct {
	// HasNext — Okta вернул ссылку на следующую страницу
	HasNext bool
	// NextCursor — значение after для следующего запроса (nil, если курсора нет)
	NextCursor *string
	// TotalCount — количество записей на текущей странице (не общее количество)
	TotalCount int
}

// UsersPage — страница списка пользователей.
type UsersPage struct {
	Users      []*UserRecord
	Pagination Pagination
}
