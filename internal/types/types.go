// Package types holds the identities and collaborator contracts shared
// across the realtime core. Authentication, membership resolution and
// the user directory live outside this core; the interfaces here are
// all it consumes.
package types

import (
	"context"
	"net/http"
)

// User is the identity bound to a live connection during the handshake.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// IdentityProvider resolves the authenticated identity behind a
// transport handshake. The core never authenticates by itself; a failed
// resolution closes the connection before it is registered.
type IdentityProvider interface {
	Authenticate(ctx context.Context, r *http.Request) (User, error)
}

// Membership resolves recipient sets for the chat and event channels.
type Membership interface {
	// GetMembers returns the user IDs belonging to a meeting event.
	GetMembers(ctx context.Context, eventID string) ([]string, error)
	// GetUserRelatives returns the users related to the given user.
	GetUserRelatives(ctx context.Context, userID string) ([]string, error)
}

// UserDirectory validates senders and supplies display names.
type UserDirectory interface {
	FindUser(ctx context.Context, userID string) (User, error)
}

// Stats is the snapshot reported by the status endpoint.
type Stats struct {
	ConnectedUsers int `json:"connected_users"`
	LiveSessions   int `json:"live_sessions"`
}
