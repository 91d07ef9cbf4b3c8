// Package handler provides HTTP request handlers. Every response body is an
// apperror.Envelope whose result code prefix is the HTTP status.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/teamtodo/teamtodo/internal/apperror"
	"github.com/teamtodo/teamtodo/internal/auth"
	"github.com/teamtodo/teamtodo/internal/middleware"
)

// Handler serves the routes that have no domain dependencies.
type Handler struct {
	version string
}

// New creates a new Handler instance.
func New(version string) *Handler {
	return &Handler{version: version}
}

// Index handles GET /.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	writeEnvelope(w, apperror.Success(apperror.CodeOK, "teamtodo api", map[string]string{
		"version": h.version,
	}))
}

// NotFound handles unknown routes.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeEnvelope(w, apperror.New(apperror.CodeRouteNotFound, "resource not found").Envelope())
}

// MethodNotAllowed handles known routes called with the wrong method.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeEnvelope(w, apperror.New(apperror.CodeMethodNotAllowed, "method not allowed").Envelope())
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeEnvelope(w http.ResponseWriter, env apperror.Envelope) {
	apperror.Write(w, env)
}

// writeError renders err as an envelope. Unclassified errors become 500-1
// and their details only reach the log.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	appErr := apperror.From(err)
	if appErr.Status() >= http.StatusInternalServerError {
		logger.Error("internal_error",
			slog.String("endpoint", r.Method+" "+r.URL.Path),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
			slog.Any("error", err),
		)
	}
	writeEnvelope(w, appErr.Envelope())
}

// decodeJSON reads a JSON body into dst. Unknown fields are rejected.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperror.New(apperror.CodePayloadTooLarge, "request body too large")
		}
		if errors.Is(err, io.EOF) {
			return apperror.BadRequest("request body is required")
		}
		return apperror.BadRequest("invalid request body")
	}
	return nil
}

// principalID returns the caller's user ID. Routes using it sit behind
// middleware.RequirePrincipal.
func principalID(r *http.Request) (string, error) {
	id := auth.UserIDFromContext(r.Context())
	if id == "" {
		return "", apperror.Unauthenticated()
	}
	return id, nil
}
