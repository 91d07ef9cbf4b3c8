package metrics

import (
	"sync"
	"sync/atomic"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	AuthResolutions       map[string]uint64
	TokenRefreshes        uint64
	TeamMutations         map[string]uint64
	ReconcileCalls        uint64
	AssignmentsAdded      uint64
	AssignmentsRemoved    uint64
	NotificationsByStatus map[string]uint64
	ReminderQueueDepth    int64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	tokenRefreshes     uint64
	reconcileCalls     uint64
	assignmentsAdded   uint64
	assignmentsRemoved uint64
	reminderQueueDepth int64

	mu            sync.Mutex
	authStates    map[string]uint64
	teamMutations map[string]uint64
	notifications map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		authStates:    make(map[string]uint64),
		teamMutations: make(map[string]uint64),
		notifications: make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		AuthResolutions:       copyCounts(m.authStates),
		TokenRefreshes:        atomic.LoadUint64(&m.tokenRefreshes),
		TeamMutations:         copyCounts(m.teamMutations),
		ReconcileCalls:        atomic.LoadUint64(&m.reconcileCalls),
		AssignmentsAdded:      atomic.LoadUint64(&m.assignmentsAdded),
		AssignmentsRemoved:    atomic.LoadUint64(&m.assignmentsRemoved),
		NotificationsByStatus: copyCounts(m.notifications),
		ReminderQueueDepth:    atomic.LoadInt64(&m.reminderQueueDepth),
	}
}

// IncAuthResolution counts a resolution outcome.
func (m *InMemoryRecorder) IncAuthResolution(state string) {
	m.mu.Lock()
	m.authStates[state]++
	m.mu.Unlock()
}

// IncTokenRefresh counts a token minted from an API key.
func (m *InMemoryRecorder) IncTokenRefresh() {
	atomic.AddUint64(&m.tokenRefreshes, 1)
}

// IncTeamMutation counts a team or membership change.
func (m *InMemoryRecorder) IncTeamMutation(op string) {
	m.mu.Lock()
	m.teamMutations[op]++
	m.mu.Unlock()
}

// ObserveReconcile records the size of an assignment reconciliation.
func (m *InMemoryRecorder) ObserveReconcile(added, removed int) {
	atomic.AddUint64(&m.reconcileCalls, 1)
	atomic.AddUint64(&m.assignmentsAdded, uint64(added))
	atomic.AddUint64(&m.assignmentsRemoved, uint64(removed))
}

// IncNotificationProcessed counts a processed reminder event.
func (m *InMemoryRecorder) IncNotificationProcessed(status string) {
	m.mu.Lock()
	m.notifications[status]++
	m.mu.Unlock()
}

// SetReminderQueueDepth records the pending reminder backlog.
func (m *InMemoryRecorder) SetReminderQueueDepth(depth int64) {
	atomic.StoreInt64(&m.reminderQueueDepth, depth)
}

func copyCounts(src map[string]uint64) map[string]uint64 {
	dst := make(map[string]uint64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
