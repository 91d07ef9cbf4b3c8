package auth

import (
	"net/http"
	"time"
)

// CookieConfig controls the attributes of credential cookies.
type CookieConfig struct {
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

// NewCookie builds an httpOnly credential cookie scoped to "/".
// A zero maxAge yields a session cookie.
func (c CookieConfig) NewCookie(name, value string, maxAge time.Duration) *http.Cookie {
	sameSite := c.SameSite
	if sameSite == 0 {
		sameSite = http.SameSiteLaxMode
	}
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   c.Domain,
		MaxAge:   int(maxAge.Seconds()),
		Secure:   c.Secure,
		HttpOnly: true,
		SameSite: sameSite,
	}
}

// ExpiredCookie builds a cookie that deletes name on the client.
func (c CookieConfig) ExpiredCookie(name string) *http.Cookie {
	cookie := c.NewCookie(name, "", 0)
	cookie.MaxAge = -1
	return cookie
}

// ParseSameSite maps a config value to http.SameSite. Unknown values map
// to Lax.
func ParseSameSite(v string) http.SameSite {
	switch v {
	case "strict", "Strict":
		return http.SameSiteStrictMode
	case "none", "None":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
