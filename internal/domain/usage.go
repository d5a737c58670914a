package domain

import (
	"time"
)

// ModelUsage tracks which sessions are actively using a model.
// It lives in the remote usage pool, keyed by model ID. Each entry maps a
// session ID to the Unix timestamp of its last activity.
type ModelUsage struct {
	Sessions map[string]int64 `json:"sessions"`
}

// NewModelUsage creates an empty ModelUsage.
func NewModelUsage() ModelUsage {
	return ModelUsage{Sessions: map[string]int64{}}
}

// Touch records activity for the given session at now.
func (u *ModelUsage) Touch(sessionID string, now time.Time) {
	if u.Sessions == nil {
		u.Sessions = map[string]int64{}
	}
	u.Sessions[sessionID] = now.Unix()
}

// Prune removes sessions whose last activity is older than maxAge relative
// to now. Returns the number of sessions removed.
func (u *ModelUsage) Prune(maxAge time.Duration, now time.Time) int {
	cutoff := now.Add(-maxAge).Unix()

	removed := 0
	for sid, last := range u.Sessions {
		if last < cutoff {
			delete(u.Sessions, sid)
			removed++
		}
	}

	return removed
}

// Active returns the number of sessions currently tracked.
func (u ModelUsage) Active() int {
	return len(u.Sessions)
}
