package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-coordination-service/internal/validator"
)

func TestRegisterSessionRequest_ToSession(t *testing.T) {
	req := RegisterSessionRequest{
		SessionID: "sess-1",
		UserID:    "user-1",
		IP:        "10.0.0.1",
		UserAgent: "test-agent",
	}

	sess := req.ToSession()

	assert.Equal(t, "sess-1", sess.ID)
	assert.Equal(t, "user-1", sess.UserID)
	assert.Equal(t, "10.0.0.1", sess.IP)
	assert.Equal(t, "test-agent", sess.UserAgent)
	assert.False(t, sess.ConnectedAt.IsZero())
}

func TestRegisterSessionRequest_Validation(t *testing.T) {
	v := validator.New()

	tests := []struct {
		name    string
		req     RegisterSessionRequest
		wantErr bool
	}{
		{
			name: "valid",
			req:  RegisterSessionRequest{SessionID: "sess-1", UserID: "user-1"},
		},
		{
			name:    "missing session id",
			req:     RegisterSessionRequest{UserID: "user-1"},
			wantErr: true,
		},
		{
			name:    "missing user id",
			req:     RegisterSessionRequest{SessionID: "sess-1"},
			wantErr: true,
		},
		{
			name:    "bad ip",
			req:     RegisterSessionRequest{SessionID: "sess-1", UserID: "user-1", IP: "not-an-ip"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(&tt.req)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
