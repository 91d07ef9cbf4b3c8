package middleware

import (
	"net/http"

	"github.com/teamtodo/teamtodo/internal/apperror"
)

// SecurityConfig holds configuration for security headers.
type SecurityConfig struct {
	// IsDevelopment disables HSTS.
	IsDevelopment bool
}

// Security applies response headers suited to a JSON API.
func Security(cfg SecurityConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			if !cfg.IsDevelopment {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}
			// Responses carry per-user data and refreshed tokens.
			h.Set("Cache-Control", "no-store")

			next.ServeHTTP(w, r)
		})
	}
}

// MaxBodySize rejects declared oversize bodies with a 413-1 envelope and
// caps streamed bodies at maxBytes.
func MaxBodySize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if maxBytes <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				apperror.Write(w, apperror.New(apperror.CodePayloadTooLarge, "request body too large").Envelope())
				return
			}
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
