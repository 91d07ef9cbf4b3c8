package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// HealthChecker defines an interface for checking service health.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Dependency is a named readiness check. A nil Checker reports
// "not configured" and does not fail readiness.
type Dependency struct {
	Name    string
	Checker HealthChecker
}

// HealthHandler manages health check endpoints.
type HealthHandler struct {
	deps    []Dependency
	timeout time.Duration
	logger  *slog.Logger
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(logger *slog.Logger, deps ...Dependency) *HealthHandler {
	return &HealthHandler{deps: deps, timeout: 5 * time.Second, logger: logger.With("component", "handler.health")}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Healthz is the liveness probe. GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Readyz pings every dependency concurrently and returns 503 when any of
// them fails. Error details are logged, not returned. GET /readyz
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	results := make([]string, len(h.deps))
	var g errgroup.Group
	for i, dep := range h.deps {
		if dep.Checker == nil {
			results[i] = "not configured"
			continue
		}
		g.Go(func() error {
			if err := dep.Checker.Ping(ctx); err != nil {
				h.logger.Warn("readiness check failed", "dependency", dep.Name, "error", err)
				results[i] = "error"
				return err
			}
			results[i] = "ok"
			return nil
		})
	}
	err := g.Wait()

	checks := make(map[string]string, len(h.deps))
	for i, dep := range h.deps {
		checks[dep.Name] = results[i]
	}

	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unhealthy", Checks: checks})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Checks: checks})
}
