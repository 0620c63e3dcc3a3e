package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/SPODhub/mpc3000-snd-player/internal/sp12"
)

// Session owns one disk builder on behalf of a single client.
type Session struct {
	ID        string
	Builder   *sp12.Builder
	CreatedAt time.Time

	lastUsed time.Time
}

// newSession creates a session with a unique ID and an empty builder.
func newSession() *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.New().String(),
		Builder:   sp12.NewBuilder(),
		CreatedAt: now,
		lastUsed:  now,
	}
}

// idleSince returns how long the session has been untouched.
func (s *Session) idleSince(now time.Time) time.Duration {
	return now.Sub(s.lastUsed)
}
