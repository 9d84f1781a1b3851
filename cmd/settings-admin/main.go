// Package main provides a CLI tool to inspect and reset stored overlay settings.
//
// Usage:
//
//	settings-admin [--dry-run] [--channel CHANNEL] [--reset]
//
// Flags:
//
//	--dry-run: Show what would be reset without making changes
//	--channel: Only touch settings for this channel (default: all channels)
//	--reset:   Rewrite matching rows to the default settings
//
// Environment Variables:
//
//	DB_DSN: Database connection string (required)
//
// Without --reset the tool lists the stored rows.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/onnwee/stream-avatars/backend/db"
	"github.com/onnwee/stream-avatars/backend/settings"
)

// settingsRow is one channel's stored overlay settings.
type settingsRow struct {
	Channel   string
	Settings  settings.Settings
	UpdatedAt time.Time
}

func main() {
	dryRun := flag.Bool("dry-run", false, "Show what would be reset without making changes")
	channel := flag.String("channel", "", "Only touch settings for this channel (default: all channels)")
	reset := flag.Bool("reset", false, "Rewrite matching rows to the default settings")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		slog.Error("DB_DSN environment variable is required")
		os.Exit(1)
	}

	ctx := context.Background()
	database, err := db.Connect(ctx, dsn)
	if err != nil {
		slog.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer database.Close()

	if version, dirty, err := db.GetMigrationVersion(database); err == nil {
		slog.Info("schema version", slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))
	}

	rows, err := listSettings(ctx, database, normalizeChannel(*channel))
	if err != nil {
		slog.Error("failed to list settings", slog.Any("error", err))
		os.Exit(1)
	}
	if !*reset {
		for _, r := range rows {
			fmt.Println(formatRow(r))
		}
		return
	}
	if err := resetSettings(ctx, database, rows, *dryRun); err != nil {
		slog.Error("reset failed", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("reset completed successfully")
}

func normalizeChannel(c string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(c)), "#")
}

// listSettings returns stored rows, optionally filtered to one channel.
func listSettings(ctx context.Context, database *sql.DB, channelFilter string) ([]settingsRow, error) {
	query := `SELECT channel, sound_enabled, particle_effects, avatar_interactions, background_theme, COALESCE(updated_at, NOW())
		FROM overlay_settings`
	args := []any{}
	if channelFilter != "" {
		query += " WHERE channel = $1"
		args = append(args, channelFilter)
	}
	query += " ORDER BY channel"

	rs, err := database.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rs.Close()

	var out []settingsRow
	for rs.Next() {
		var r settingsRow
		if err := rs.Scan(&r.Channel, &r.Settings.SoundEnabled, &r.Settings.ParticleEffects,
			&r.Settings.AvatarInteractions, &r.Settings.BackgroundTheme, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan settings row: %w", err)
		}
		out = append(out, r)
	}
	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("error iterating settings rows: %w", err)
	}
	return out, nil
}

// resetSettings rewrites every row in rows to the defaults.
func resetSettings(ctx context.Context, database *sql.DB, rows []settingsRow, dryRun bool) error {
	if len(rows) == 0 {
		slog.Info("no stored settings found")
		return nil
	}
	def := settings.Default()
	errorCount := 0
	for i, r := range rows {
		logger := slog.With(slog.String("channel", r.Channel), slog.Int("index", i+1), slog.Int("total", len(rows)))
		if r.Settings == def {
			logger.Info("already default")
			continue
		}
		if dryRun {
			logger.Info("would reset settings (dry-run)", slog.String("current", formatRow(r)))
			continue
		}
		store := &settings.PostgresStore{DB: database, Channel: r.Channel}
		if err := store.Save(ctx, def); err != nil {
			logger.Error("failed to reset settings", slog.Any("error", err))
			errorCount++
			continue
		}
		logger.Info("reset settings")
	}
	if errorCount > 0 {
		return fmt.Errorf("reset completed with %d errors", errorCount)
	}
	return nil
}

func formatRow(r settingsRow) string {
	return fmt.Sprintf("%s\tsound=%t particles=%t interactions=%t theme=%s updated=%s",
		r.Channel, r.Settings.SoundEnabled, r.Settings.ParticleEffects,
		r.Settings.AvatarInteractions, r.Settings.BackgroundTheme, r.UpdatedAt.UTC().Format(time.RFC3339))
}
