// errors.go — классифицированные ошибки сервисного слоя.
// Вызывающий код выбирает поведение по Kind, а не по тексту сообщения.
package service

import "errors"

// Kind — категория ошибки.
type Kind int

const (
	// KindRemoteFailure — любой сбой вызова Okta: сеть, таймаут, не-2xx статус, битое тело.
	KindRemoteFailure Kind = iota
	// KindNotFound — Okta ответил 404 на запрос одного ресурса.
	KindNotFound
	// KindAuthentication — Okta ответил 401 на пробный запрос health-проверки.
	KindAuthentication
	// KindConfiguration — сервис не может работать с текущей конфигурацией.
	KindConfiguration
	// KindInvalidInput — входные параметры не прошли валидацию.
	KindInvalidInput
)

// String возвращает имя категории для логов.
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindAuthentication:
		return "authentication"
	case KindConfiguration:
		return "configuration"
	case KindInvalidInput:
		return "invalid_input"
	default:
		return "remote_failure"
	}
}

// MsgUserNotFound — сообщение NotFound, отдаётся клиенту дословно.
const MsgUserNotFound = "User not found"

// Error — ошибка сервисного слоя с категорией и сообщением для клиента.
type Error struct {
	Kind Kind
	// Message — текст, который уходит в ответ API
	Message string
	// Err — исходная ошибка (для логов и errors.Is/As)
	Err error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf возвращает категорию ошибки.
// Ошибки, не созданные сервисным слоем, считаются KindRemoteFailure.
func KindOf(err error) Kind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return KindRemoteFailure
}

func newError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}
