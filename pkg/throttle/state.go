// Package throttle implements server throttling detection and request gating
// for the Service Bus management endpoint. The namespace rejects request
// bursts with 429 and a Retry-After header; the suspension window is shared
// across all client instances via Redis so that one throttled client quiets
// the whole fleet.
package throttle

import (
	"time"
)

// Redis keys for throttle state storage.
const (
	RedisKeySuspendedUntil = "sbmgmt:throttle:suspended_until"
	RedisKeyLastStatus     = "sbmgmt:throttle:last_status"
	RedisKeyLastUpdate     = "sbmgmt:throttle:last_update"
)

// DefaultRetryAfter is applied when the server throttles without supplying
// a Retry-After header.
const DefaultRetryAfter = 10 * time.Second

// State represents the current management endpoint throttle state.
// This state is shared across all client instances via Redis.
type State struct {
	// SuspendedUntil is the timestamp until which requests are suspended.
	// Zero when the endpoint is not throttling.
	SuspendedUntil time.Time `json:"suspended_until"`

	// LastStatus is the HTTP status that last updated this state.
	LastStatus int `json:"last_status"`

	// LastUpdate is the timestamp when this state was last updated.
	LastUpdate time.Time `json:"last_update"`
}

// IsSuspended returns true while the throttle window is open.
func (s *State) IsSuspended() bool {
	return time.Now().Before(s.SuspendedUntil)
}

// TimeUntilResume returns the duration until requests may resume.
// Returns 0 if the suspension has already lapsed.
func (s *State) TimeUntilResume() time.Duration {
	d := time.Until(s.SuspendedUntil)
	if d < 0 {
		return 0
	}
	return d
}

// IsStale returns true if the state data is older than the given duration.
func (s *State) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}
