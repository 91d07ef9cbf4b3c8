package handler

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/teamtodo/teamtodo/internal/metrics"
)

// MetricsHandler renders in-memory counters in the Prometheus text format.
// It serves /metrics when METRICS_BACKEND=memory.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics handles GET /metrics.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeLabelled(w, "teamtodo_auth_resolutions_total", "state", snap.AuthResolutions)
	writeMetric(w, "teamtodo_token_refreshes_total %d\n", snap.TokenRefreshes)
	writeLabelled(w, "teamtodo_team_mutations_total", "op", snap.TeamMutations)
	writeMetric(w, "teamtodo_reconcile_total %d\n", snap.ReconcileCalls)
	writeMetric(w, "teamtodo_assignment_changes_total{change=\"added\"} %d\n", snap.AssignmentsAdded)
	writeMetric(w, "teamtodo_assignment_changes_total{change=\"removed\"} %d\n", snap.AssignmentsRemoved)
	writeLabelled(w, "teamtodo_reminder_notifications_total", "status", snap.NotificationsByStatus)
	writeMetric(w, "teamtodo_reminder_queue_depth %d\n", snap.ReminderQueueDepth)
}

// writeLabelled writes one sample per label value in a stable order.
func writeLabelled(w http.ResponseWriter, name, label string, counts map[string]uint64) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		writeMetric(w, "%s{%s=%q} %d\n", name, label, k, counts[k])
	}
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
