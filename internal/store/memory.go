// Package store provides the in-process implementation of the
// collaborator interfaces the realtime core consumes. The production
// application backs these with its persistence layer; this memory
// implementation serves the standalone server and the tests.
package store

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/botorabi/Meet4Eat-sub002/internal/types"
)

// Memory implements types.IdentityProvider, types.Membership and
// types.UserDirectory over in-process maps.
type Memory struct {
	mu        sync.RWMutex
	users     map[string]types.User
	events    map[string][]string
	relatives map[string][]string
	tokens    map[string]string
}

func NewMemory() *Memory {
	return &Memory{
		users:     make(map[string]types.User),
		events:    make(map[string][]string),
		relatives: make(map[string][]string),
		tokens:    make(map[string]string),
	}
}

// PutUser adds or replaces a user in the directory.
func (m *Memory) PutUser(u types.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
}

// PutEvent registers a meeting event with its member user IDs.
func (m *Memory) PutEvent(eventID string, memberIDs ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[eventID] = append([]string(nil), memberIDs...)
}

// SetRelatives records the users related to userID.
func (m *Memory) SetRelatives(userID string, relativeIDs ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.relatives[userID] = append([]string(nil), relativeIDs...)
}

// IssueToken mints a bearer token bound to userID.
func (m *Memory) IssueToken(userID string) string {
	token := uuid.New().String()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token] = userID
	return token
}

// FindUser implements types.UserDirectory.
func (m *Memory) FindUser(_ context.Context, userID string) (types.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[userID]
	if !ok {
		return types.User{}, ErrUserNotFound
	}
	return u, nil
}

// GetMembers implements types.Membership.
func (m *Memory) GetMembers(_ context.Context, eventID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	members, ok := m.events[eventID]
	if !ok {
		return nil, ErrEventNotFound
	}
	return append([]string(nil), members...), nil
}

// GetUserRelatives implements types.Membership.
func (m *Memory) GetUserRelatives(_ context.Context, userID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.relatives[userID]...), nil
}

// Authenticate implements types.IdentityProvider. The token is taken
// from the Authorization header ("Bearer <token>") or, for browser
// WebSocket clients that cannot set headers, the "token" query
// parameter.
func (m *Memory) Authenticate(_ context.Context, r *http.Request) (types.User, error) {
	token := bearerToken(r)
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		return types.User{}, ErrNotAuthenticated
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	userID, ok := m.tokens[token]
	if !ok {
		return types.User{}, ErrNotAuthenticated
	}
	u, ok := m.users[userID]
	if !ok {
		return types.User{}, ErrNotAuthenticated
	}
	return u, nil
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
