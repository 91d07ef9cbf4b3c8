package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder exports metrics through a Prometheus registry.
type PrometheusRecorder struct {
	authResolutions    *prometheus.CounterVec
	tokenRefreshes     prometheus.Counter
	teamMutations      *prometheus.CounterVec
	assignmentChanges  *prometheus.CounterVec
	reconcileCalls     prometheus.Counter
	notifications      *prometheus.CounterVec
	reminderQueueDepth prometheus.Gauge
}

// NewPrometheus creates a recorder and registers its collectors on reg.
func NewPrometheus(reg prometheus.Registerer) *PrometheusRecorder {
	p := &PrometheusRecorder{
		authResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "teamtodo_auth_resolutions_total",
			Help: "Identity resolution outcomes by state.",
		}, []string{"state"}),
		tokenRefreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "teamtodo_token_refreshes_total",
			Help: "Access tokens minted from an API key during resolution.",
		}),
		teamMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "teamtodo_team_mutations_total",
			Help: "Team and membership changes by operation.",
		}, []string{"op"}),
		assignmentChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "teamtodo_assignment_changes_total",
			Help: "Assignment rows activated or deactivated by reconciliation.",
		}, []string{"change"}),
		reconcileCalls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "teamtodo_reconcile_total",
			Help: "Assignment reconciliations performed.",
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "teamtodo_reminder_notifications_total",
			Help: "Reminder events processed by status.",
		}, []string{"status"}),
		reminderQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "teamtodo_reminder_queue_depth",
			Help: "Pending plus unread reminder events.",
		}),
	}

	reg.MustRegister(
		p.authResolutions,
		p.tokenRefreshes,
		p.teamMutations,
		p.assignmentChanges,
		p.reconcileCalls,
		p.notifications,
		p.reminderQueueDepth,
	)

	return p
}

func (p *PrometheusRecorder) IncAuthResolution(state string) {
	p.authResolutions.WithLabelValues(state).Inc()
}

func (p *PrometheusRecorder) IncTokenRefresh() {
	p.tokenRefreshes.Inc()
}

func (p *PrometheusRecorder) IncTeamMutation(op string) {
	p.teamMutations.WithLabelValues(op).Inc()
}

func (p *PrometheusRecorder) ObserveReconcile(added, removed int) {
	p.reconcileCalls.Inc()
	p.assignmentChanges.WithLabelValues("added").Add(float64(added))
	p.assignmentChanges.WithLabelValues("removed").Add(float64(removed))
}

func (p *PrometheusRecorder) IncNotificationProcessed(status string) {
	p.notifications.WithLabelValues(status).Inc()
}

func (p *PrometheusRecorder) SetReminderQueueDepth(depth int64) {
	p.reminderQueueDepth.Set(float64(depth))
}

// Handler returns the scrape handler for the gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
