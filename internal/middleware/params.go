package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/teamtodo/teamtodo/internal/apperror"
)

// ValidIDParams rejects requests whose named chi URL parameters are not
// ULIDs with a 400-BAD_REQUEST envelope, before any store access.
func ValidIDParams(names ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, name := range names {
				value := chi.URLParam(r, name)
				if value == "" {
					continue
				}
				if _, err := ulid.ParseStrict(value); err != nil {
					apperror.Write(w, apperror.BadRequest("invalid "+name).Envelope())
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
