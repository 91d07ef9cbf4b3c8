package metrics

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) IncAuthResolution(state string)         {}
func (n *NoopRecorder) IncTokenRefresh()                       {}
func (n *NoopRecorder) IncTeamMutation(op string)              {}
func (n *NoopRecorder) ObserveReconcile(added, removed int)    {}
func (n *NoopRecorder) IncNotificationProcessed(status string) {}
func (n *NoopRecorder) SetReminderQueueDepth(depth int64)      {}
