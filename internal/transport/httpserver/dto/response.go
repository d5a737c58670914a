package dto

import (
	"time"

	"chat-coordination-service/internal/domain"
)

// SessionResponse represents a single session in API responses.
type SessionResponse struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	IP          string `json:"ip,omitempty"`
	UserAgent   string `json:"user_agent,omitempty"`
	ConnectedAt string `json:"connected_at"`
}

// FromDomainSession converts domain.Session to SessionResponse.
func FromDomainSession(s domain.Session) SessionResponse {
	return SessionResponse{
		ID:          s.ID,
		UserID:      s.UserID,
		IP:          s.IP,
		UserAgent:   s.UserAgent,
		ConnectedAt: s.ConnectedAt.Format(time.RFC3339),
	}
}

// SessionsResponse lists all live sessions.
type SessionsResponse struct {
	Sessions []SessionResponse `json:"sessions"`
	Count    int               `json:"count"`
}

// FromDomainSessions converts a session pool snapshot to SessionsResponse.
func FromDomainSessions(sessions map[string]domain.Session) SessionsResponse {
	resp := SessionsResponse{
		Sessions: make([]SessionResponse, 0, len(sessions)),
	}
	for _, s := range sessions {
		resp.Sessions = append(resp.Sessions, FromDomainSession(s))
	}
	resp.Count = len(resp.Sessions)

	return resp
}

// ActiveUsersResponse lists users with at least one live session.
type ActiveUsersResponse struct {
	Users []string `json:"users"`
	Count int      `json:"count"`
}

// UserSessionsResponse lists one user's session IDs.
type UserSessionsResponse struct {
	UserID     string   `json:"user_id"`
	SessionIDs []string `json:"session_ids"`
}

// ModelUsageResponse represents usage of one model.
type ModelUsageResponse struct {
	ModelID        string `json:"model_id"`
	ActiveSessions int    `json:"active_sessions"`
}

// ModelsResponse lists usage across all active models.
type ModelsResponse struct {
	Models []ModelUsageResponse `json:"models"`
}

// FromDomainUsage converts a usage pool snapshot to ModelsResponse.
func FromDomainUsage(models map[string]domain.ModelUsage) ModelsResponse {
	resp := ModelsResponse{
		Models: make([]ModelUsageResponse, 0, len(models)),
	}
	for id, usage := range models {
		resp.Models = append(resp.Models, ModelUsageResponse{
			ModelID:        id,
			ActiveSessions: usage.Active(),
		})
	}

	return resp
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}
