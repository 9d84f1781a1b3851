// Package settings holds the viewer-facing overlay settings (sound, particles,
// interactions, theme) and their stores.
package settings

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid settings")

// Themes accepted for BackgroundTheme.
var Themes = []string{"default", "dark", "neon", "pastel"}

// Settings toggles overlay effects. Particle and theme values are passed
// through to the browser untouched.
type Settings struct {
	SoundEnabled       bool   `json:"sound_enabled"`
	ParticleEffects    bool   `json:"particle_effects"`
	AvatarInteractions bool   `json:"avatar_interactions"`
	BackgroundTheme    string `json:"background_theme" validate:"required,oneof=default dark neon pastel"`
}

// Default returns the settings used before anything is saved.
func Default() Settings {
	return Settings{
		SoundEnabled:       true,
		ParticleEffects:    true,
		AvatarInteractions: true,
		BackgroundTheme:    "default",
	}
}

var validate = sync.OnceValue(func() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
})

// Validate checks field constraints; failures wrap ErrInvalid.
func (s Settings) Validate() error {
	if err := validate().Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s failed %q", ErrInvalid, verrs[0].Field(), verrs[0].Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Store loads and saves settings.
type Store interface {
	Load(ctx context.Context) (Settings, error)
	Save(ctx context.Context, s Settings) error
}

// MemoryStore keeps settings for the lifetime of the process.
type MemoryStore struct {
	mu  sync.RWMutex
	cur Settings
}

// NewMemoryStore returns a store seeded with Default().
func NewMemoryStore() *MemoryStore { return &MemoryStore{cur: Default()} }

func (m *MemoryStore) Load(ctx context.Context) (Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cur, nil
}

func (m *MemoryStore) Save(ctx context.Context, s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cur = s
	return nil
}
