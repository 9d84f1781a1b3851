// Package testutil holds helpers shared by package tests.
package testutil

import (
	"sync"
	"time"

	"github.com/onnwee/stream-avatars/backend/chat"
)

// Clock is a manually advanced time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock frozen at start.
func NewClock(start time.Time) *Clock { return &Clock{now: start} }

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Message builds a valid chat message from user stamped at.
func Message(user, text string, at time.Time) chat.Message {
	return chat.Message{
		ID:        user + "-" + at.Format(time.RFC3339Nano),
		Username:  user,
		Text:      text,
		Timestamp: at,
		Color:     chat.DefaultColor,
		Avatar:    chat.AvatarHint(user),
	}
}
