// Package session describes SSE protocol sessions tracked by the HTTP front door.
package session

import (
	"time"

	"github.com/google/uuid"
)

// Session is the bookkeeping kept for one open SSE connection.
type Session struct {
	// ID is the opaque identifier clients echo back in the sessionId query parameter.
	ID string
	// CallbackURL is where the client posts protocol messages, without the query string.
	CallbackURL string
	// CreatedAt is when the SSE connection was accepted (UTC).
	CreatedAt time.Time
	// LastActivity is the last time a message was routed to the session (UTC).
	LastActivity time.Time
}

// New creates a session with a fresh identifier.
func New(callbackURL string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:           GenerateSessionID(),
		CallbackURL:  callbackURL,
		CreatedAt:    now,
		LastActivity: now,
	}
}

// Endpoint returns the URL advertised to the client in the SSE endpoint event.
func (s *Session) Endpoint() string {
	return s.CallbackURL + "?sessionId=" + s.ID
}

// Touch records activity at the given instant.
func (s *Session) Touch(now time.Time) {
	s.LastActivity = now.UTC()
}

// IdleSince reports whether the session has seen no activity since cutoff.
func (s *Session) IdleSince(cutoff time.Time) bool {
	return s.LastActivity.Before(cutoff)
}

// GenerateSessionID returns a random UUIDv4 string.
func GenerateSessionID() string {
	return uuid.NewString()
}
