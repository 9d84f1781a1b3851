package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PostgresStore persists settings in overlay_settings, one row per channel.
type PostgresStore struct {
	DB      *sql.DB
	Channel string
}

// Load returns the stored row or Default() when none exists yet.
func (p *PostgresStore) Load(ctx context.Context) (Settings, error) {
	var s Settings
	err := p.DB.QueryRowContext(ctx,
		`SELECT sound_enabled, particle_effects, avatar_interactions, background_theme FROM overlay_settings WHERE channel=$1`,
		p.Channel,
	).Scan(&s.SoundEnabled, &s.ParticleEffects, &s.AvatarInteractions, &s.BackgroundTheme)
	if errors.Is(err, sql.ErrNoRows) {
		return Default(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("load overlay settings: %w", err)
	}
	return s, nil
}

// Save validates and upserts s.
func (p *PostgresStore) Save(ctx context.Context, s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	_, err := p.DB.ExecContext(ctx,
		`INSERT INTO overlay_settings (channel, sound_enabled, particle_effects, avatar_interactions, background_theme, updated_at)
		 VALUES ($1,$2,$3,$4,$5,NOW())
		 ON CONFLICT (channel) DO UPDATE SET
		   sound_enabled=EXCLUDED.sound_enabled,
		   particle_effects=EXCLUDED.particle_effects,
		   avatar_interactions=EXCLUDED.avatar_interactions,
		   background_theme=EXCLUDED.background_theme,
		   updated_at=NOW()`,
		p.Channel, s.SoundEnabled, s.ParticleEffects, s.AvatarInteractions, s.BackgroundTheme)
	if err != nil {
		return fmt.Errorf("save overlay settings: %w", err)
	}
	return nil
}
