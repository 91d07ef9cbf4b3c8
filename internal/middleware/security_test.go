package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSecurity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		isDev  bool
		header string
		want   string
	}{
		{"nosniff", false, "X-Content-Type-Options", "nosniff"},
		{"frame options", false, "X-Frame-Options", "DENY"},
		{"referrer policy", false, "Referrer-Policy", "strict-origin-when-cross-origin"},
		{"csp", false, "Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
		{"hsts in production", false, "Strict-Transport-Security", "max-age=31536000; includeSubDomains"},
		{"no hsts in development", true, "Strict-Transport-Security", ""},
		{"no-store", true, "Cache-Control", "no-store"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := Security(SecurityConfig{IsDevelopment: tt.isDev})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/user/me", nil))

			if got := rec.Header().Get(tt.header); got != tt.want {
				t.Errorf("%s = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}

func TestMaxBodySize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		maxBytes      int64
		contentLength int64
		body          string
		wantStatus    int
	}{
		{"small body allowed", 1024, 10, "small body", http.StatusOK},
		{"declared length over limit", 10, 100, strings.Repeat("x", 100), http.StatusRequestEntityTooLarge},
		{"undeclared length over limit", 10, -1, strings.Repeat("x", 100), http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := MaxBodySize(tt.maxBytes)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if _, err := io.Copy(io.Discard, r.Body); err != nil {
					w.WriteHeader(http.StatusRequestEntityTooLarge)
					return
				}
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodPost, "/api/v1/teams", strings.NewReader(tt.body))
			req.ContentLength = tt.contentLength
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestMaxBodySize_EnvelopeBody(t *testing.T) {
	t.Parallel()

	handler := MaxBodySize(4)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/teams", strings.NewReader("too long"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["resultCode"] != "413-1" {
		t.Errorf("resultCode = %v, want 413-1", body["resultCode"])
	}
}
