package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/onnwee/stream-avatars/backend/settings"
	"github.com/onnwee/stream-avatars/backend/testutil"
)

func TestNormalizeChannel(t *testing.T) {
	for in, want := range map[string]string{"": "", " #Habbi3 ": "habbi3", "abc": "abc"} {
		if got := normalizeChannel(in); got != want {
			t.Errorf("normalizeChannel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatRow(t *testing.T) {
	r := settingsRow{
		Channel:   "habbi3",
		Settings:  settings.Settings{SoundEnabled: true, BackgroundTheme: "neon"},
		UpdatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	got := formatRow(r)
	for _, want := range []string{"habbi3", "sound=true", "particles=false", "theme=neon", "2024-01-02T03:04:05Z"} {
		if !strings.Contains(got, want) {
			t.Errorf("formatRow() = %q, missing %q", got, want)
		}
	}
}

func TestResetSettings(t *testing.T) {
	database := testutil.SetupTestDB(t)
	ctx := context.Background()
	channel := "test_settings_admin_reset"
	t.Cleanup(func() {
		_, _ = database.ExecContext(context.Background(), `DELETE FROM overlay_settings WHERE channel=$1`, channel)
	})

	store := &settings.PostgresStore{DB: database, Channel: channel}
	custom := settings.Settings{BackgroundTheme: "dark"}
	if err := store.Save(ctx, custom); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	rows, err := listSettings(ctx, database, channel)
	if err != nil || len(rows) != 1 {
		t.Fatalf("listSettings() = %v, %v", rows, err)
	}

	if err := resetSettings(ctx, database, rows, true); err != nil {
		t.Fatalf("dry-run reset error = %v", err)
	}
	if got, _ := store.Load(ctx); got != custom {
		t.Errorf("dry-run changed settings: %+v", got)
	}

	if err := resetSettings(ctx, database, rows, false); err != nil {
		t.Fatalf("reset error = %v", err)
	}
	if got, _ := store.Load(ctx); got != settings.Default() {
		t.Errorf("after reset = %+v, want defaults", got)
	}
}
