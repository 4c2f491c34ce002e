package player

import "sync"

// Registry maps session ids (guild ids) to live sessions. Creation is
// idempotent: a second GetOrCreate with the same id returns the same
// instance. Remove invalidates the session for every handle still held;
// the next GetOrCreate builds a fresh one.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// GetOrCreate returns the session for id, creating it on first use.
func (r *Registry) GetOrCreate(id string) *Session {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		return s
	}
	s = newSession(id)
	r.sessions[id] = s
	return s
}

// Get returns the session for id if one exists.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Remove drops the session and marks it closed so stale handles fail
// with ErrSessionClosed instead of mutating orphaned state.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if ok {
		s.mu.Lock()
		s.closed = true
		s.epoch++
		s.mu.Unlock()
	}
}

// IDs lists the ids of all live sessions.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	return ids
}
