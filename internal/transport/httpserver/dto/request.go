// Package dto defines request and response shapes for the HTTP API.
package dto

import (
	"chat-coordination-service/internal/domain"
)

// RegisterSessionRequest is the body for POST /api/v1/presence/sessions.
type RegisterSessionRequest struct {
	SessionID string `json:"session_id" validate:"required,max=128"`
	UserID    string `json:"user_id" validate:"required,max=128"`
	IP        string `json:"ip,omitempty" validate:"omitempty,ip"`
	UserAgent string `json:"user_agent,omitempty" validate:"max=512"`
}

// ToSession converts the request to a domain Session.
func (r *RegisterSessionRequest) ToSession() domain.Session {
	sess := domain.NewSession(r.SessionID, r.UserID)
	sess.IP = r.IP
	sess.UserAgent = r.UserAgent

	return sess
}

// RecordUsageRequest is the body for POST /api/v1/presence/models/:id/usage.
type RecordUsageRequest struct {
	SessionID string `json:"session_id" validate:"required,max=128"`
}
