package auth

import (
	"errors"
	"net/http"
	"strings"
)

// Cookie names carrying credentials.
const (
	CookieAPIKey      = "apiKey"
	CookieAccessToken = "accessToken"
)

const bearerPrefix = "Bearer "

// ErrMalformedAuthorization indicates an Authorization header that does not
// use the Bearer scheme.
var ErrMalformedAuthorization = errors.New("authorization header must use the Bearer scheme")

// Credentials are the raw credentials presented with a request.
type Credentials struct {
	APIKey      string
	AccessToken string
}

// IsEmpty reports whether no credential was presented.
func (c Credentials) IsEmpty() bool {
	return c.APIKey == "" && c.AccessToken == ""
}

// ExtractCredentials reads credentials from the request.
//
// A non-blank Authorization header of the form "Bearer <apiKey> [<token>]"
// wins as a whole; cookies are consulted only when the header is absent.
func ExtractCredentials(r *http.Request) (Credentials, error) {
	header := r.Header.Get("Authorization")
	if strings.TrimSpace(header) != "" {
		if !strings.HasPrefix(header, bearerPrefix) {
			return Credentials{}, ErrMalformedAuthorization
		}

		parts := strings.SplitN(header, " ", 3)
		creds := Credentials{APIKey: strings.TrimSpace(parts[1])}
		if len(parts) == 3 {
			creds.AccessToken = strings.TrimSpace(parts[2])
		}
		return creds, nil
	}

	return Credentials{
		APIKey:      cookieValue(r, CookieAPIKey),
		AccessToken: cookieValue(r, CookieAccessToken),
	}, nil
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(c.Value)
}
