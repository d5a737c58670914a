// Package domain contains the core presence entities.
// This package has no external dependencies (only stdlib).
package domain

import (
	"time"
)

// Session represents one live socket connection of a user.
// Sessions live in the remote session pool, keyed by session ID.
type Session struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`

	// Connection metadata
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`

	ConnectedAt time.Time `json:"connected_at"`
}

// NewSession creates a Session with the connection timestamp set.
func NewSession(id, userID string) Session {
	return Session{
		ID:          id,
		UserID:      userID,
		ConnectedAt: time.Now().UTC(),
	}
}

// Age returns how long the session has been connected.
func (s Session) Age() time.Duration {
	return time.Since(s.ConnectedAt)
}
