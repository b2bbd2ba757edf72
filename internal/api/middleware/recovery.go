// recovery.go — перехват паник в обработчиках.
package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	apierrors "github.com/bigkaa/identity-gateway/internal/api/errors"
)

// Recovery перехватывает панику, логирует stack trace и отвечает 500
// {"success": false, "error": "Internal server error"}.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				// http.ErrAbortHandler — штатное прерывание, net/http обрабатывает его сам
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Error("Паника при обработке запроса",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("request_id", RequestIDFromContext(r.Context())),
					slog.Any("panic", rec),
					slog.String("stack", string(debug.Stack())),
				)
				apierrors.InternalError(w, apierrors.MsgInternalError)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
