// Package state tracks every live client connection. The registry is
// the single shared mutable structure of the realtime core; everything
// else reaches sessions through it.
package state

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/botorabi/Meet4Eat-sub002/internal/types"
)

// Session is one live transport connection. Send must be safe for
// concurrent use and must never block: it reports false when the
// session is closed or its buffer is full.
type Session interface {
	ID() string
	Send(b []byte) bool
}

type entry struct {
	user     types.User
	sessions map[string]Session
}

// Registry maps user IDs to their live sessions. A user can be
// connected from several devices at once, so one entry holds many
// sessions. An entry exists only while it has at least one session.
type Registry struct {
	mu        sync.RWMutex
	entries   map[string]*entry
	bySession map[string]string
	log       zerolog.Logger
}

func NewRegistry(log zerolog.Logger) *Registry {
	return &Registry{
		entries:   make(map[string]*entry),
		bySession: make(map[string]string),
		log:       log.With().Str("component", "registry").Logger(),
	}
}

// AddSession registers a session under the user's entry, creating the
// entry on the user's first connection. Re-adding a session that is
// already registered signals a lifecycle bug; it is logged and refused
// without touching the entry.
func (r *Registry) AddSession(user types.User, s Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[user.ID]
	if !ok {
		e = &entry{user: user, sessions: make(map[string]Session)}
		r.entries[user.ID] = e
	}
	if _, dup := e.sessions[s.ID()]; dup {
		r.log.Warn().Str("user", user.ID).Str("session", s.ID()).
			Msg("session already registered for user")
		return false
	}
	e.sessions[s.ID()] = s
	r.bySession[s.ID()] = user.ID
	return true
}

// RemoveSession drops a session from the user's entry. When the last
// session goes, the entry goes with it. It reports false when the user
// has no entry or the session was not registered.
func (r *Registry) RemoveSession(userID string, s Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[userID]
	if !ok {
		return false
	}
	if _, ok := e.sessions[s.ID()]; !ok {
		return false
	}
	delete(e.sessions, s.ID())
	delete(r.bySession, s.ID())
	if len(e.sessions) == 0 {
		delete(r.entries, userID)
	}
	return true
}

// Sessions returns a snapshot of the user's live sessions. The empty
// slice for an unknown user is not an error; the user is offline.
func (r *Registry) Sessions(userID string) []Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[userID]
	if !ok {
		return nil
	}
	out := make([]Session, 0, len(e.sessions))
	for _, s := range e.sessions {
		out = append(out, s)
	}
	return out
}

// User is the reverse lookup: the identity bound to a session ID. It is
// how an inbound packet gets attributed to its sender.
func (r *Registry) User(sessionID string) (types.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	userID, ok := r.bySession[sessionID]
	if !ok {
		return types.User{}, false
	}
	e, ok := r.entries[userID]
	if !ok {
		return types.User{}, false
	}
	return e.user, true
}

// ConnectedUser returns the identity of a currently connected user.
func (r *Registry) ConnectedUser(userID string) (types.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[userID]
	if !ok {
		return types.User{}, false
	}
	return e.user, true
}

// SessionCount returns the number of live sessions for a user.
func (r *Registry) SessionCount(userID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[userID]
	if !ok {
		return 0
	}
	return len(e.sessions)
}

func (r *Registry) Stats() types.Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := types.Stats{ConnectedUsers: len(r.entries)}
	for _, e := range r.entries {
		stats.LiveSessions += len(e.sessions)
	}
	return stats
}
