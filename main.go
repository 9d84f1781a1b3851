// Command backend is the main entrypoint for the stream-avatars overlay service.
// It:
//   - Loads configuration and initializes structured logging.
//   - Optionally connects to Postgres for overlay settings and runs idempotent migrations.
//   - Starts the overlay stage and the anonymous Twitch chat source feeding it.
//   - Exposes the overlay feed (JSON, SSE, WebSocket) plus /healthz, /readyz and /metrics.
//
// Shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // G108: pprof endpoints enabled only when ENABLE_PPROF=1
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/onnwee/stream-avatars/backend/chat"
	"github.com/onnwee/stream-avatars/backend/config"
	"github.com/onnwee/stream-avatars/backend/db"
	"github.com/onnwee/stream-avatars/backend/overlay"
	"github.com/onnwee/stream-avatars/backend/server"
	"github.com/onnwee/stream-avatars/backend/settings"
	"github.com/onnwee/stream-avatars/backend/telemetry"
)

func main() {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load("backend/.env", ".env")

	// Configure logging (level + format). Defaults: level=info, format=text.
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
	default:
		tmp := slog.New(slog.NewTextHandler(os.Stdout, nil))
		tmp.Warn("unknown LOG_LEVEL, using info", slog.String("value", os.Getenv("LOG_LEVEL")))
	}
	format := strings.ToLower(os.Getenv("LOG_FORMAT")) // text | json
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	default:
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))
	slog.Info("logger initialized", slog.String("level", lvl.String()), slog.String("format", map[bool]string{true: "json", false: "text"}[format == "json"]))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	telemetry.Init()

	// Initialize OpenTelemetry tracing (optional; requires OTEL_EXPORTER_OTLP_ENDPOINT)
	shutdown, err := telemetry.InitTracing("stream-avatars", "1.0.0")
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer shutdown()

	// Root context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, store := openSettingsStore(ctx, cfg)
	if database != nil {
		defer func() {
			if err := database.Close(); err != nil {
				slog.Error("failed to close database", slog.Any("err", err))
			}
		}()
	}

	initial, err := store.Load(ctx)
	if err != nil {
		slog.Warn("failed to load overlay settings, using defaults", slog.Any("err", err))
		initial = settings.Default()
	}

	stage := overlay.NewStage(overlay.WithDemo(cfg.DemoMode), overlay.WithSettings(initial))
	source := chat.NewTwitchSource(cfg.TwitchChannel, cfg.ReconnectDelay)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = stage.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		if err := source.Run(ctx, stage); err != nil {
			slog.Error("chat source exited with error", slog.Any("err", err))
		}
	}()
	slog.Info("overlay started",
		slog.String("channel", cfg.TwitchChannel),
		slog.Bool("demo", cfg.DemoMode),
		slog.Bool("persist_settings", cfg.PersistSettings()))

	// Enable pprof profiling endpoints in debug mode (ENABLE_PPROF=1)
	if os.Getenv("ENABLE_PPROF") == "1" {
		pprofAddr := os.Getenv("PPROF_ADDR")
		if pprofAddr == "" {
			pprofAddr = "localhost:6060"
		}
		go func() {
			slog.Info("pprof profiling enabled", slog.String("addr", pprofAddr))
			srv := &http.Server{
				Addr:              pprofAddr,
				Handler:           nil, // default mux exposes /debug/pprof
				ReadHeaderTimeout: 5 * time.Second,
				ReadTimeout:       10 * time.Second,
				WriteTimeout:      10 * time.Second,
				IdleTimeout:       60 * time.Second,
			}
			if err := srv.ListenAndServe(); err != nil {
				slog.Error("pprof server error", slog.Any("err", err))
			}
		}()
	}

	go func() {
		if err := server.Start(ctx, stage, store, database, cfg.HTTPAddr); err != nil {
			slog.Error("http server exited with error", slog.Any("err", err))
			stop()
		}
	}()

	// Block until shutdown signal
	<-ctx.Done()
	slog.Info("shutting down")
	wg.Wait()
}

// openSettingsStore returns the Postgres-backed store when DB_DSN is set and
// reachable, else the in-memory store. database is nil for the latter.
func openSettingsStore(ctx context.Context, cfg *config.Config) (*sql.DB, settings.Store) {
	if !cfg.PersistSettings() {
		slog.Info("DB_DSN not set, overlay settings kept in memory")
		return nil, settings.NewMemoryStore()
	}
	database, err := db.Connect(ctx, cfg.DBDsn)
	if err != nil {
		slog.Error("failed to open db, overlay settings kept in memory", slog.Any("err", err))
		return nil, settings.NewMemoryStore()
	}

	// Versioned migrations first; the embedded idempotent schema is the fallback.
	slog.Info("running database migrations", slog.String("component", "db_migrate"))
	if err := db.RunMigrations(database); err != nil {
		slog.Warn("versioned migrations failed, attempting fallback to embedded SQL",
			slog.Any("err", err),
			slog.String("component", "db_migrate"))
		if err := db.Migrate(ctx, database); err != nil {
			slog.Error("failed to migrate db, overlay settings kept in memory", slog.Any("err", err))
			_ = database.Close()
			return nil, settings.NewMemoryStore()
		}
	}
	return database, &settings.PostgresStore{DB: database, Channel: cfg.TwitchChannel}
}
