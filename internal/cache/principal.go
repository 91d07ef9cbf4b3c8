package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/teamtodo/teamtodo/internal/auth"
	"github.com/teamtodo/teamtodo/internal/model"
)

const (
	// principalCachePrefix is the Redis key prefix for apiKey lookups.
	principalCachePrefix = "auth:principal:"
	// DefaultPrincipalTTL bounds how long a deleted user keeps resolving.
	DefaultPrincipalTTL = 5 * time.Minute
)

// cachedPrincipal is the JSON stored under an apiKey hash.
type cachedPrincipal struct {
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin,omitempty"`
}

// principalKey never embeds the raw API key.
func principalKey(apiKey string) string {
	return principalCachePrefix + auth.QuickHash(apiKey)
}

func encodePrincipal(p model.Principal) ([]byte, error) {
	return json.Marshal(cachedPrincipal{UserID: p.ID, Email: p.Email, IsAdmin: p.IsAdmin})
}

func decodePrincipal(data []byte) (model.Principal, bool) {
	var cached cachedPrincipal
	if err := json.Unmarshal(data, &cached); err != nil || cached.UserID == "" {
		return model.Principal{}, false
	}
	return model.Principal{ID: cached.UserID, Email: cached.Email, IsAdmin: cached.IsAdmin}, true
}

// GetPrincipal returns the cached principal for an API key.
// A miss or a corrupted entry reports false.
func (c *Cache) GetPrincipal(ctx context.Context, apiKey string) (model.Principal, bool) {
	data, err := c.client.Get(ctx, principalKey(apiKey)).Bytes()
	if err != nil {
		return model.Principal{}, false
	}
	return decodePrincipal(data)
}

// SetPrincipal caches the principal behind an API key.
func (c *Cache) SetPrincipal(ctx context.Context, apiKey string, p model.Principal, ttl time.Duration) error {
	data, err := encodePrincipal(p)
	if err != nil {
		return fmt.Errorf("marshal principal: %w", err)
	}
	return c.client.Set(ctx, principalKey(apiKey), data, ttl).Err()
}

// CachedUsers puts the principal cache in front of an apiKey lookup.
// Redis failures fall through to the underlying finder.
type CachedUsers struct {
	cache *Cache
	next  auth.UserFinder
	ttl   time.Duration
}

var _ auth.UserFinder = (*CachedUsers)(nil)

// NewCachedUsers creates a caching UserFinder. A non-positive ttl uses
// DefaultPrincipalTTL.
func NewCachedUsers(c *Cache, next auth.UserFinder, ttl time.Duration) *CachedUsers {
	if ttl <= 0 {
		ttl = DefaultPrincipalTTL
	}
	return &CachedUsers{cache: c, next: next, ttl: ttl}
}

// GetUserByAPIKey serves from Redis when possible. Only the principal
// fields of the returned user are populated on a cache hit.
func (u *CachedUsers) GetUserByAPIKey(ctx context.Context, apiKey string) (*model.User, error) {
	if p, ok := u.cache.GetPrincipal(ctx, apiKey); ok {
		return &model.User{ID: p.ID, Email: p.Email, IsAdmin: p.IsAdmin, APIKey: apiKey}, nil
	}

	user, err := u.next.GetUserByAPIKey(ctx, apiKey)
	if err != nil {
		return nil, err
	}

	// Best effort; a failed write only costs the next lookup.
	_ = u.cache.SetPrincipal(ctx, apiKey, user.Principal(), u.ttl)
	return user, nil
}
