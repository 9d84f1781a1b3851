package avatar

import (
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

// Result describes the outcome of a Reconcile call.
type Result struct {
	// Admitted lists usernames that received a new avatar, in admission order.
	Admitted []string
	// Refreshed lists usernames whose existing avatar had its activity renewed.
	Refreshed []string
}

// Changed reports whether membership changed.
func (r Result) Changed() bool { return len(r.Admitted) > 0 }

// Manager holds the live avatars keyed by username.
type Manager struct {
	rng   *rand.Rand
	newID func() string

	order  []string // usernames in admission order
	byName map[string]*Avatar
	byID   map[string]*Avatar
}

// Option configures a Manager.
type Option func(*Manager)

// WithRand sets the random source for personalities, spawn points and jitter.
func WithRand(r *rand.Rand) Option { return func(m *Manager) { m.rng = r } }

// WithIDFunc replaces the avatar id generator.
func WithIDFunc(fn func() string) Option { return func(m *Manager) { m.newID = fn } }

// NewManager returns an empty manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		byName: make(map[string]*Avatar),
		byID:   make(map[string]*Avatar),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.rng == nil {
		//nolint:gosec // G404: visual placement only
		m.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return m
}

// Reconcile admits or refreshes avatars for the active usernames. Only the
// first MaxAvatars entries are considered. Existing avatars get LastActivity
// set to now and keep everything else. Unknown usernames get a new avatar
// while the set has room; the glyph is picked by the username's index in
// active. Avatars not named in active are left alone; Sweep removes them.
func (m *Manager) Reconcile(active []string, now time.Time) Result {
	if len(active) > MaxAvatars {
		active = active[:MaxAvatars]
	}
	var res Result
	for i, name := range active {
		if name == "" {
			continue
		}
		if a, ok := m.byName[name]; ok {
			a.LastActivity = now
			res.Refreshed = append(res.Refreshed, name)
			continue
		}
		if len(m.order) >= MaxAvatars {
			continue
		}
		m.admit(name, i, now)
		res.Admitted = append(res.Admitted, name)
	}
	return res
}

func (m *Manager) admit(name string, index int, now time.Time) {
	tpl := Palette[index%len(Palette)]
	a := &Avatar{
		ID:          m.newID(),
		Glyph:       tpl.Glyph,
		Name:        name,
		Personality: tpl.Personalities[m.rng.IntN(len(tpl.Personalities))],
		Position: Position{
			X: spawnMinX + m.rng.Float64()*spawnSpanX,
			Y: spawnMinY + m.rng.Float64()*spawnSpanY,
		},
		LastActivity: now,
	}
	m.order = append(m.order, name)
	m.byName[name] = a
	m.byID[a.ID] = a
}

// Sweep removes every avatar idle for at least InactivityTimeout and returns
// the removed avatars.
func (m *Manager) Sweep(now time.Time) []Avatar {
	var removed []Avatar
	kept := m.order[:0]
	for _, name := range m.order {
		a := m.byName[name]
		if now.Sub(a.LastActivity) >= InactivityTimeout {
			removed = append(removed, *a)
			delete(m.byName, name)
			delete(m.byID, a.ID)
			continue
		}
		kept = append(kept, name)
	}
	m.order = kept
	return removed
}

// Reposition nudges the avatar by a bounded random delta, clamped to the
// viewport. ok is false when no avatar has that id.
func (m *Manager) Reposition(id string) (Position, bool) {
	a, ok := m.byID[id]
	if !ok {
		return Position{}, false
	}
	a.Position = Position{
		X: clamp(a.Position.X+(m.rng.Float64()-0.5)*jitterX, ClampMinX, ClampMaxX),
		Y: clamp(a.Position.Y+(m.rng.Float64()-0.5)*jitterY, ClampMinY, ClampMaxY),
	}
	return a.Position, true
}

// RepositionPeriod draws the jitter period for one avatar.
func (m *Manager) RepositionPeriod() time.Duration {
	return RepositionMin + time.Duration(m.rng.Int64N(int64(RepositionMax-RepositionMin)))
}

// Get returns the avatar bound to username.
func (m *Manager) Get(username string) (Avatar, bool) {
	a, ok := m.byName[username]
	if !ok {
		return Avatar{}, false
	}
	return *a, true
}

// ByID returns the avatar with the given id.
func (m *Manager) ByID(id string) (Avatar, bool) {
	a, ok := m.byID[id]
	if !ok {
		return Avatar{}, false
	}
	return *a, true
}

// Len returns the number of live avatars.
func (m *Manager) Len() int { return len(m.order) }

// Avatars returns copies of the live avatars in admission order.
func (m *Manager) Avatars() []Avatar {
	out := make([]Avatar, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, *m.byName[name])
	}
	return out
}

// Clear removes all avatars.
func (m *Manager) Clear() {
	m.order = m.order[:0]
	clear(m.byName)
	clear(m.byID)
}
