// Package avatar maintains the capped set of on-screen avatars bound to chat
// usernames: admission, refresh, inactivity eviction and position jitter.
//
// Manager is not safe for concurrent use. The overlay stage owns one Manager
// and calls it from a single goroutine.
package avatar

import "time"

const (
	// MaxAvatars caps the number of concurrently live avatars.
	MaxAvatars = 12
	// InactivityTimeout evicts avatars whose last activity is at least this old.
	InactivityTimeout = 30 * time.Second
	// SweepInterval is how often the owner should call Sweep.
	SweepInterval = 5 * time.Second
	// RepositionMin and RepositionMax bound the per-avatar jitter period.
	RepositionMin = 3 * time.Second
	RepositionMax = 5 * time.Second
)

// Viewport bounds in percent of the overlay. Positions always stay within the
// clamp rectangle; new avatars spawn within the smaller spawn rectangle.
const (
	ClampMinX, ClampMaxX = 5.0, 95.0
	ClampMinY, ClampMaxY = 10.0, 90.0

	spawnMinX, spawnSpanX = 10.0, 80.0
	spawnMinY, spawnSpanY = 15.0, 70.0

	jitterX, jitterY = 10.0, 8.0
)

// Position is a point in percent of the viewport.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Avatar is one on-screen persona bound to a username.
type Avatar struct {
	ID           string      `json:"id"`
	Glyph        string      `json:"emoji"`
	Name         string      `json:"name"`
	Personality  Personality `json:"personality"`
	Position     Position    `json:"position"`
	LastActivity time.Time   `json:"last_activity"`
}

// Emotion is the emoji for the avatar's personality.
func (a Avatar) Emotion() string { return a.Personality.Emotion() }

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
