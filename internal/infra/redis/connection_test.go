package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSentinelURL(t *testing.T) {
	tests := []struct {
		name    string
		rawURL  string
		want    LocatorConfig
		wantErr bool
	}{
		{
			name:   "full locator",
			rawURL: "redis://user:pw@mynode:7000/2",
			want: LocatorConfig{
				Username: "user",
				Password: "pw",
				Service:  "mynode",
				Port:     7000,
				DB:       2,
			},
		},
		{
			name:   "defaults",
			rawURL: "redis://",
			want: LocatorConfig{
				Service: "mymaster",
				Port:    6379,
				DB:      0,
			},
		},
		{
			name:   "service only",
			rawURL: "redis://chat-master",
			want: LocatorConfig{
				Service: "chat-master",
				Port:    6379,
				DB:      0,
			},
		},
		{
			name:   "password without username",
			rawURL: "redis://:secret@chat-master",
			want: LocatorConfig{
				Password: "secret",
				Service:  "chat-master",
				Port:     6379,
			},
		},
		{
			name:    "wrong scheme",
			rawURL:  "http://chat-master:6379",
			wantErr: true,
		},
		{
			name:    "rediss scheme rejected",
			rawURL:  "rediss://chat-master",
			wantErr: true,
		},
		{
			name:    "bad db segment",
			rawURL:  "redis://chat-master/sessions",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSentinelURL(tt.rawURL)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestNewConnection_Direct(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewConnection(context.Background(), "redis://"+mr.Addr(), nil)
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
}

func TestNewConnection_MalformedURL(t *testing.T) {
	_, err := NewConnection(context.Background(), "not a url", nil)
	assert.Error(t, err)
}

func TestNewConnection_Unreachable(t *testing.T) {
	// Connection failures surface at resolve time via the ping, not on
	// the first operation.
	_, err := NewConnection(context.Background(), "redis://127.0.0.1:1", nil)
	assert.Error(t, err)
}

func TestNewConnection_SentinelBadLocator(t *testing.T) {
	_, err := NewConnection(context.Background(), "http://mynode", []string{"127.0.0.1:26379"})
	assert.Error(t, err)
}
