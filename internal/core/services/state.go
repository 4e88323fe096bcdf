package services

import (
	"sync"
	"time"

	"github.com/manthysbr/openclaw/internal/core/domain"
)

// StateTracker owns the AgentState. The scheduler loop and the dispatcher it
// drives are the only writers; the HTTP server reads snapshots.
type StateTracker struct {
	mu    sync.RWMutex
	state domain.AgentState
}

// NewStateTracker starts the engagement clock at startedAt so a restart does not
// immediately post a promotional message.
func NewStateTracker(startedAt time.Time) *StateTracker {
	return &StateTracker{
		state: domain.AgentState{
			StartedAt:      startedAt,
			LastEngagement: startedAt,
		},
	}
}

// Snapshot returns a copy safe to hand to other goroutines.
func (t *StateTracker) Snapshot() domain.AgentState {
	t.mu.RLock()
	defer t.mu.RUnlock()

	cp := t.state
	cp.History = append([]domain.DeploymentRecord(nil), t.state.History...)
	return cp
}

// NextSequence is the number the next deployment record will carry.
func (t *StateTracker) NextSequence() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.DeploymentCount + 1
}

// RecordDeployment advances the counter and last-deployment time and appends
// rec to the in-memory history.
func (t *StateTracker) RecordDeployment(rec domain.DeploymentRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.DeploymentCount++
	t.state.LastDeployment = rec.Timestamp
	t.state.History = append(t.state.History, rec)
}

func (t *StateTracker) LastDeployment() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.LastDeployment
}

func (t *StateTracker) LastDefaultAttempt() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.LastDefaultAttempt
}

func (t *StateTracker) MarkDefaultAttempt(at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.LastDefaultAttempt = at
}

func (t *StateTracker) LastRemotePoll() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.LastRemotePoll
}

func (t *StateTracker) MarkRemotePoll(at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.LastRemotePoll = at
}

func (t *StateTracker) LastEngagement() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.LastEngagement
}

func (t *StateTracker) MarkEngagement(at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.LastEngagement = at
}

// Uptime formats the time since start the way the deployment log reports it.
func (t *StateTracker) Uptime(now time.Time) string {
	t.mu.RLock()
	started := t.state.StartedAt
	t.mu.RUnlock()
	return formatUptime(now.Sub(started))
}
