package session

import (
	"sync"
	"time"
)

// DefaultGrace is how long a session stays retrievable after its deadline so
// the user can still fetch the scorecard.
const DefaultGrace = time.Hour

// Registry holds live sessions by ID. It replaces ambient global state: every
// operation reaches its session through an explicit handle.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	grace    time.Duration
}

// NewRegistry returns an empty registry. grace <= 0 falls back to DefaultGrace.
func NewRegistry(grace time.Duration) *Registry {
	if grace <= 0 {
		grace = DefaultGrace
	}
	return &Registry{
		sessions: make(map[string]*Session),
		grace:    grace,
	}
}

// Put registers a session under its ID.
func (r *Registry) Put(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID()] = s
}

// Get returns the session for id, or nil if unknown or already swept.
func (r *Registry) Get(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[id]
}

// Delete discards a session, e.g. when the user starts a new quiz.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops sessions whose deadline passed more than the grace period ago
// and returns how many were removed. Abandoned sessions hold no external
// resources, so removal is the only cleanup.
func (r *Registry) Sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, s := range r.sessions {
		if now.After(s.Deadline().Add(r.grace)) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}
