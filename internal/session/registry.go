package session

import (
	"sync"

	"github.com/jonboulle/clockwork"
)

// Registry maps room ids to their single live Session.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	clock    clockwork.Clock
}

// NewRegistry creates an empty registry. A nil clock means the real clock.
func NewRegistry(clock clockwork.Clock) *Registry {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Registry{
		sessions: make(map[string]*Session),
		clock:    clock,
	}
}

// GetOrCreate returns the live session for roomID, creating a WAITING one
// with the given time limit if none exists.
func (r *Registry) GetOrCreate(roomID string, defaultTimeLimitSeconds int) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[roomID]; ok {
		return s
	}
	s := newSession(roomID, defaultTimeLimitSeconds, r.clock.Now())
	r.sessions[roomID] = s
	return s
}

// Get returns the live session for roomID, if any.
func (r *Registry) Get(roomID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[roomID]
	return s, ok
}

// Remove deletes the session for roomID. Removing an absent key is a no-op.
func (r *Registry) Remove(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, roomID)
}

// removeSession deletes s only if it is still the registered instance, so a
// fresh session created under the same id is never dropped by a stale caller.
func (r *Registry) removeSession(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.sessions[s.roomID]; ok && cur == s {
		delete(r.sessions, s.roomID)
	}
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) all() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}
