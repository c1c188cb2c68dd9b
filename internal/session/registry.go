package session

import (
	"errors"
	"sync"
)

// ErrAlreadyExists is returned by Create when a session id is still registered.
// Callers must tear down the previous session before starting a new one.
var ErrAlreadyExists = errors.New("session already exists")

// Turn is one role-tagged message in an entity's conversation history.
type Turn struct {
	Role    string
	Content string
}

// Session holds the live state of one conversation: the stop flag and both
// entities' mirrored histories. Each entity sees the other's turns as "user"
// and its own as "assistant", so every generation call gets a coherent
// two-party transcript from its own point of view.
type Session struct {
	ID string

	mu            sync.Mutex
	stopRequested bool
	histories     [2][]Turn
}

// RequestStop marks the session as stopped. The orchestrator checks this flag
// before and after every blocking step.
func (s *Session) RequestStop() {
	s.mu.Lock()
	s.stopRequested = true
	s.mu.Unlock()
}

// Stopped reports whether a stop has been requested.
func (s *Session) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopRequested
}

// Record appends a turn generated by entity (1 or 2) to both histories:
// "assistant" in the speaker's own view, "user" in the other entity's.
func (s *Session) Record(entity int, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.histories[entity-1] = append(s.histories[entity-1], Turn{Role: "assistant", Content: text})
	s.histories[2-entity] = append(s.histories[2-entity], Turn{Role: "user", Content: text})
}

// HistoryFor returns a copy of the given entity's view of the conversation.
func (s *Session) HistoryFor(entity int) []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	src := s.histories[entity-1]
	out := make([]Turn, len(src))
	copy(out, src)
	return out
}

// Registry is the process-wide table of active sessions. It is the single
// source of truth for "is this session still live".
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Create registers a new session for id. Returns ErrAlreadyExists if an entry
// is present; callers must clean up first.
func (r *Registry) Create(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; ok {
		return nil, ErrAlreadyExists
	}
	s := &Session{ID: id}
	r.sessions[id] = s
	return s, nil
}

// Get returns the session for id, or nil if absent.
func (r *Registry) Get(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[id]
}

// MarkStopped sets the stop flag if the session is present. Absence is not an
// error; multiple teardown triggers may race.
func (r *Registry) MarkStopped(id string) {
	if s := r.Get(id); s != nil {
		s.RequestStop()
	}
}

// Remove deletes the session entry. Idempotent.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// IsStopped reports whether the session must not proceed: true when the entry
// is absent or its stop flag is set. An absent session is never "ok to continue".
func (r *Registry) IsStopped(id string) bool {
	s := r.Get(id)
	return s == nil || s.Stopped()
}
