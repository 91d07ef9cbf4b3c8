package middleware

import (
	"log/slog"
	"net/http"

	"github.com/teamtodo/teamtodo/internal/apperror"
	"github.com/teamtodo/teamtodo/internal/auth"
)

// IdentityConfig holds configuration for the identity middleware.
type IdentityConfig struct {
	Resolver *auth.Resolver
	Cookies  auth.CookieConfig
	Logger   *slog.Logger
}

// Identity resolves the caller of every request.
//
// Authenticated principals are stored in the request context. When the
// access token was re-minted from the API key, the new token is returned in
// both the accessToken cookie and the Authorization response header.
// Rejected requests get an envelope and never reach the handler.
func Identity(cfg IdentityConfig) func(http.Handler) http.Handler {
	logger := cfg.Logger.With("component", "identity")
	ttl := cfg.Resolver.TokenTTL()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := cfg.Resolver.ResolveRequest(r)
			annotateIdentity(r.Context(), res.State.String(), res.Principal.ID)

			if err != nil {
				appErr := apperror.From(err)
				level := slog.LevelWarn
				if appErr.Status() >= http.StatusInternalServerError {
					level = slog.LevelError
				}
				logger.Log(r.Context(), level, "identity resolution rejected",
					slog.String("result_code", appErr.Code),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
					slog.Any("error", err),
				)
				apperror.Write(w, appErr.Envelope())
				return
			}

			if res.State != auth.StateAuthenticated {
				next.ServeHTTP(w, r)
				return
			}

			if res.Refreshed() {
				http.SetCookie(w, cfg.Cookies.NewCookie(auth.CookieAccessToken, res.RefreshedToken, ttl))
				w.Header().Set("Authorization", "Bearer "+res.RefreshedToken)
				logger.Debug("access token refreshed",
					slog.String("user_id", res.Principal.ID),
					slog.String("request_id", GetRequestID(r.Context())),
				)
			}

			ctx := auth.ContextWithPrincipal(r.Context(), res.Principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePrincipal rejects requests without a resolved principal with 401-1.
// Anonymous passthrough ends here for protected routes.
func RequirePrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.PrincipalFromContext(r.Context()); !ok {
			apperror.Write(w, apperror.Unauthenticated().Envelope())
			return
		}
		next.ServeHTTP(w, r)
	})
}
