package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/teamtodo/teamtodo/internal/model"
)

const tokenIssuer = "teamtodo"

// minSecretLen is the shortest HS256 secret accepted.
const minSecretLen = 32

var (
	// ErrInvalidToken indicates the token failed validation.
	ErrInvalidToken = errors.New("invalid token")
	// ErrWeakSecret indicates the signing secret is too short.
	ErrWeakSecret = errors.New("token secret must be at least 32 bytes")
)

// Claims are the access token claims. Subject carries the user ID.
type Claims struct {
	Email string `json:"email"`
	Admin bool   `json:"adm,omitempty"`
	jwt.RegisteredClaims
}

// TokenCodec mints and verifies HS256 access tokens.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenCodec creates a codec with a server-wide secret and default TTL.
func NewTokenCodec(secret string, ttl time.Duration) (*TokenCodec, error) {
	if len(secret) < minSecretLen {
		return nil, ErrWeakSecret
	}
	if ttl <= 0 {
		return nil, errors.New("token ttl must be greater than zero")
	}
	return &TokenCodec{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// TTL returns the default token lifetime.
func (c *TokenCodec) TTL() time.Duration {
	return c.ttl
}

// Issue mints a token with the default TTL.
func (c *TokenCodec) Issue(p model.Principal) (string, error) {
	return c.Mint(p, c.ttl)
}

// Mint signs a token for the principal that expires after ttl.
func (c *TokenCodec) Mint(p model.Principal, ttl time.Duration) (string, error) {
	if strings.TrimSpace(p.ID) == "" {
		return "", errors.New("principal id is required")
	}

	now := c.now().UTC()
	claims := Claims{
		Email: p.Email,
		Admin: p.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature, issuer and expiry of a token and returns the
// principal it carries. Every failure is reported as ErrInvalidToken.
func (c *TokenCodec) Verify(token string) (model.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return model.Principal{}, ErrInvalidToken
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return c.secret, nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return model.Principal{}, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || strings.TrimSpace(claims.Subject) == "" {
		return model.Principal{}, ErrInvalidToken
	}

	return model.Principal{
		ID:      claims.Subject,
		Email:   claims.Email,
		IsAdmin: claims.Admin,
	}, nil
}
