// Package metrics provides lightweight hooks for instrumentation.
package metrics

// Recorder captures metric events for the application.
type Recorder interface {
	// Identity resolution
	IncAuthResolution(state string) // exempt, anonymous, authenticated, rejected
	IncTokenRefresh()

	// Team and assignment mutations
	IncTeamMutation(op string)
	ObserveReconcile(added, removed int)

	// Reminder notifications
	IncNotificationProcessed(status string) // success, failed, dead_lettered
	SetReminderQueueDepth(depth int64)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
