package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig holds CORS configuration options.
type CORSConfig struct {
	// AllowedOrigins lists exact origins or "*.example.com" subdomain
	// patterns. "*" is never honoured because credentials are allowed.
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int // seconds
}

// DefaultCORSConfig returns defaults for a browser client that
// authenticates with the apiKey/accessToken cookies.
func DefaultCORSConfig(origins []string) CORSConfig {
	return CORSConfig{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Content-Type",
			"Authorization",
			"X-Request-ID",
			"Accept",
		},
		// Refreshed tokens are returned in the Authorization header.
		ExposedHeaders: []string{
			"Authorization",
			"X-Request-ID",
			"Retry-After",
		},
		AllowCredentials: true,
		MaxAge:           86400,
	}
}

// CORS returns a middleware that handles Cross-Origin Resource Sharing,
// including preflight requests.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")
	exposed := strings.Join(cfg.ExposedHeaders, ", ")
	maxAge := ""
	if cfg.MaxAge > 0 {
		maxAge = strconv.Itoa(cfg.MaxAge)
	}

	exact := make(map[string]bool, len(cfg.AllowedOrigins))
	var suffixes []string
	for _, origin := range cfg.AllowedOrigins {
		origin = strings.ToLower(strings.TrimSpace(origin))
		switch {
		case origin == "" || origin == "*":
		case strings.HasPrefix(origin, "*."):
			suffixes = append(suffixes, strings.TrimPrefix(origin, "*"))
		default:
			exact[origin] = true
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Add("Vary", "Origin")

			if !originAllowed(strings.ToLower(origin), exact, suffixes) {
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusForbidden)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			if cfg.AllowCredentials {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			if exposed != "" {
				w.Header().Set("Access-Control-Expose-Headers", exposed)
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.Header().Set("Access-Control-Allow-Methods", methods)
				w.Header().Set("Access-Control-Allow-Headers", headers)
				if maxAge != "" {
					w.Header().Set("Access-Control-Max-Age", maxAge)
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// originAllowed matches origin against exact entries and subdomain
// suffixes. "*.example.com" matches "https://a.example.com" but not
// "https://example.com" or "https://notexample.com".
func originAllowed(origin string, exact map[string]bool, suffixes []string) bool {
	if exact[origin] {
		return true
	}
	for _, suffix := range suffixes {
		if !strings.HasSuffix(origin, suffix) {
			continue
		}
		host := strings.TrimSuffix(origin, suffix)
		if i := strings.Index(host, "://"); i >= 0 {
			host = host[i+3:]
		}
		if host != "" && !strings.Contains(host, "/") {
			return true
		}
	}
	return false
}
