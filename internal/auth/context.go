package auth

import (
	"context"

	"github.com/teamtodo/teamtodo/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const principalContextKey contextKey = "principal"

// ContextWithPrincipal stores the resolved principal in the context.
func ContextWithPrincipal(ctx context.Context, p model.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

// PrincipalFromContext returns the principal for the request, if any.
func PrincipalFromContext(ctx context.Context) (model.Principal, bool) {
	p, ok := ctx.Value(principalContextKey).(model.Principal)
	if !ok || p.ID == "" {
		return model.Principal{}, false
	}
	return p, true
}

// UserIDFromContext returns the principal's user ID or an empty string.
func UserIDFromContext(ctx context.Context) string {
	p, _ := PrincipalFromContext(ctx)
	return p.ID
}
