package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/teamtodo/teamtodo/internal/apperror"
)

// Recoverer recovers from panics, logs the stack and answers with a 500-1
// envelope.
func Recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}

				logger.Error("panic recovered",
					slog.String("request_id", GetRequestID(r.Context())),
					slog.Any("panic", rvr),
					slog.String("stack", string(debug.Stack())),
				)

				apperror.Write(w, apperror.Internal(nil).Envelope())
			}()

			next.ServeHTTP(w, r)
		})
	}
}
