package settings

import (
	"context"
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr bool
	}{
		{"defaults", func(*Settings) {}, false},
		{"every theme", func(s *Settings) { s.BackgroundTheme = "neon" }, false},
		{"unknown theme", func(s *Settings) { s.BackgroundTheme = "vaporwave" }, true},
		{"empty theme", func(s *Settings) { s.BackgroundTheme = "" }, true},
		{"all toggles off", func(s *Settings) {
			s.SoundEnabled, s.ParticleEffects, s.AvatarInteractions = false, false, false
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			tt.mutate(&s)
			err := s.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalid) {
				t.Errorf("error %v does not wrap ErrInvalid", err)
			}
		})
	}
}

func TestThemesAllValid(t *testing.T) {
	for _, theme := range Themes {
		s := Default()
		s.BackgroundTheme = theme
		if err := s.Validate(); err != nil {
			t.Errorf("theme %q rejected: %v", theme, err)
		}
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	got, err := store.Load(ctx)
	if err != nil || got != Default() {
		t.Fatalf("Load() = %+v, %v", got, err)
	}
	next := Default()
	next.SoundEnabled = false
	next.BackgroundTheme = "dark"
	if err := store.Save(ctx, next); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, _ = store.Load(ctx)
	if got != next {
		t.Errorf("Load() after Save = %+v, want %+v", got, next)
	}
	bad := next
	bad.BackgroundTheme = "bogus"
	if err := store.Save(ctx, bad); !errors.Is(err, ErrInvalid) {
		t.Errorf("Save(bad) error = %v", err)
	}
	got, _ = store.Load(ctx)
	if got != next {
		t.Error("invalid save must not change stored settings")
	}
}
