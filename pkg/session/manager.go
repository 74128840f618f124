package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/QuinntyneBrown/openmct/pkg/config"
	"github.com/QuinntyneBrown/openmct/pkg/stream"
)

// Manager tracks live sessions and enforces the liveness policy: a
// session that misses its keepalive window is drained, never left to run
// unbounded.
type Manager struct {
	registry       *stream.Registry
	livenessWindow time.Duration
	deliveryBuffer int

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewManager creates a session manager over the given registry.
func NewManager(registry *stream.Registry) *Manager {
	return &Manager{
		registry:       registry,
		livenessWindow: config.SessionLivenessWindow,
		deliveryBuffer: config.SessionDeliveryBuffer,
		sessions:       make(map[uuid.UUID]*Session),
	}
}

// Open creates and tracks a new session in the Connecting state.
func (m *Manager) Open() *Session {
	s := newSession(m.registry, m.deliveryBuffer)
	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()
	return s
}

// Get returns a tracked session, nil when unknown.
func (m *Manager) Get(id uuid.UUID) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id]
}

// Count returns how many sessions are tracked.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Remove drains a session (idempotent) and stops tracking it.
func (m *Manager) Remove(id uuid.UUID) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		s.Drain()
	}
}

// Sweep drains every Active session whose last keepalive is older than
// the liveness window and prunes sessions that reached Closed. Returns
// how many sessions were drained.
func (m *Manager) Sweep(now time.Time) int {
	m.mu.Lock()
	var idle []*Session
	for id, s := range m.sessions {
		switch s.State() {
		case StateClosed:
			delete(m.sessions, id)
		case StateActive:
			if now.Sub(s.IdleSince()) > m.livenessWindow {
				idle = append(idle, s)
				delete(m.sessions, id)
			}
		}
	}
	m.mu.Unlock()

	// Drain outside the manager lock; teardown touches the registry.
	for _, s := range idle {
		log.Printf("Session %s timed out (idle since %v), draining", s.ID(), s.IdleSince().Format(time.RFC3339))
		s.Drain()
	}
	return len(idle)
}

// Run sweeps periodically until the context is cancelled, then drains
// every remaining session.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(config.SessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.mu.Lock()
			remaining := make([]*Session, 0, len(m.sessions))
			for id, s := range m.sessions {
				remaining = append(remaining, s)
				delete(m.sessions, id)
			}
			m.mu.Unlock()
			for _, s := range remaining {
				s.Drain()
			}
			return
		case <-ticker.C:
			if drained := m.Sweep(time.Now()); drained > 0 {
				log.Printf("Liveness sweep drained %d session(s)", drained)
			}
		}
	}
}
