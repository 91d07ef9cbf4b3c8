package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func wrapResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, status: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.status = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// logFields collects attributes discovered further down the chain, such as
// the resolved user, so the access log line can report them.
type logFields struct {
	userID    string
	authState string
}

func fieldsFromContext(ctx context.Context) *logFields {
	f, _ := ctx.Value(logFieldsKey).(*logFields)
	return f
}

// annotateIdentity records the identity outcome for the access log.
func annotateIdentity(ctx context.Context, state, userID string) {
	if f := fieldsFromContext(ctx); f != nil {
		f.authState = state
		f.userID = userID
	}
}

// Logger returns a middleware that writes one structured line per request.
// Credentials are never logged.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := wrapResponseWriter(w)
			fields := &logFields{}

			next.ServeHTTP(wrapped, r.WithContext(context.WithValue(r.Context(), logFieldsKey, fields)))

			attrs := []slog.Attr{
				slog.String("request_id", GetRequestID(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status_code", wrapped.status),
				slog.Float64("duration_ms", float64(time.Since(start).Microseconds())/1000),
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("user_agent", r.UserAgent()),
			}
			if fields.authState != "" {
				attrs = append(attrs, slog.String("auth_state", fields.authState))
			}
			if fields.userID != "" {
				attrs = append(attrs, slog.String("user_id", fields.userID))
			}

			level := slog.LevelInfo
			if wrapped.status >= 500 {
				level = slog.LevelError
			} else if wrapped.status >= 400 {
				level = slog.LevelWarn
			}

			logger.LogAttrs(r.Context(), level, "http request", attrs...)
		})
	}
}
