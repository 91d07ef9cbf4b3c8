package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExtractCredentials(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		header  string
		cookies map[string]string
		want    Credentials
		wantErr error
	}{
		{
			name: "nothing presented",
			want: Credentials{},
		},
		{
			name:   "api key only in header",
			header: "Bearer abc123",
			want:   Credentials{APIKey: "abc123"},
		},
		{
			name:   "api key and token in header",
			header: "Bearer abc123 eyJ.tok.en",
			want:   Credentials{APIKey: "abc123", AccessToken: "eyJ.tok.en"},
		},
		{
			name:    "wrong scheme",
			header:  "Basic dXNlcjpwYXNz",
			wantErr: ErrMalformedAuthorization,
		},
		{
			name:    "lowercase bearer",
			header:  "bearer abc123",
			wantErr: ErrMalformedAuthorization,
		},
		{
			name:   "blank header falls back to cookies",
			header: "   ",
			cookies: map[string]string{
				CookieAPIKey:      "cookie-key",
				CookieAccessToken: "cookie-token",
			},
			want: Credentials{APIKey: "cookie-key", AccessToken: "cookie-token"},
		},
		{
			name:    "cookies only",
			cookies: map[string]string{CookieAccessToken: "cookie-token"},
			want:    Credentials{AccessToken: "cookie-token"},
		},
		{
			name:   "header wins over cookies as a whole",
			header: "Bearer header-key",
			cookies: map[string]string{
				CookieAPIKey:      "cookie-key",
				CookieAccessToken: "cookie-token",
			},
			want: Credentials{APIKey: "header-key"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/api/v1/teams", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			for name, value := range tt.cookies {
				req.AddCookie(&http.Cookie{Name: name, Value: value})
			}

			got, err := ExtractCredentials(req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ExtractCredentials() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCredentials_IsEmpty(t *testing.T) {
	t.Parallel()

	if !(Credentials{}).IsEmpty() {
		t.Error("zero credentials should be empty")
	}
	if (Credentials{AccessToken: "t"}).IsEmpty() {
		t.Error("token-only credentials should not be empty")
	}
}
