package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestCookieConfig_NewCookie(t *testing.T) {
	t.Parallel()

	cfg := CookieConfig{Domain: "example.com", Secure: true}
	c := cfg.NewCookie(CookieAccessToken, "tok", time.Hour)

	if c.Path != "/" || !c.HttpOnly || !c.Secure {
		t.Fatalf("unexpected cookie attributes: %+v", c)
	}
	if c.Domain != "example.com" {
		t.Errorf("Domain = %q", c.Domain)
	}
	if c.MaxAge != 3600 {
		t.Errorf("MaxAge = %d, want 3600", c.MaxAge)
	}
	if c.SameSite != http.SameSiteLaxMode {
		t.Errorf("SameSite = %v, want Lax", c.SameSite)
	}
}

func TestCookieConfig_ExpiredCookie(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	http.SetCookie(rec, CookieConfig{}.ExpiredCookie(CookieAPIKey))

	header := rec.Header().Get("Set-Cookie")
	if !strings.HasPrefix(header, "apiKey=;") {
		t.Errorf("Set-Cookie = %q, want empty apiKey", header)
	}
	if !strings.Contains(header, "Max-Age=0") {
		t.Errorf("Set-Cookie = %q, want Max-Age=0", header)
	}
}

func TestParseSameSite(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want http.SameSite
	}{
		{"strict", http.SameSiteStrictMode},
		{"None", http.SameSiteNoneMode},
		{"lax", http.SameSiteLaxMode},
		{"", http.SameSiteLaxMode},
		{"bogus", http.SameSiteLaxMode},
	}

	for _, tt := range tests {
		if got := ParseSameSite(tt.in); got != tt.want {
			t.Errorf("ParseSameSite(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
