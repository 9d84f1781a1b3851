// Package server exposes the overlay over HTTP: health, metrics, the state
// snapshot, the SSE and WebSocket feeds, avatar clicks, demo toggling and
// overlay settings. It injects correlation IDs into request contexts for
// consistent logging.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/onnwee/stream-avatars/backend/overlay"
	"github.com/onnwee/stream-avatars/backend/settings"
	"github.com/onnwee/stream-avatars/backend/telemetry"
)

// NewMux returns the HTTP handler with all routes.
// ctx bounds the click limiter's background sweep.
// db may be nil when settings are kept in memory.
func NewMux(ctx context.Context, stage *overlay.Stage, store settings.Store, db *sql.DB) http.Handler {
	auth := loadOperatorAuth()
	origins := loadOriginPolicy()
	budget := loadClickBudget()
	clicks := newClickLimiter(ctx, budget)
	slog.Info("click limit configured",
		slog.Int("per_client", budget.perClient),
		slog.Duration("window", budget.window),
		slog.String("component", "http"))

	handlers := NewHandlers(ctx, stage, store, db)
	handlers.upgrader = newUpgrader(origins)

	mux := http.NewServeMux()

	// Metrics endpoint
	mux.Handle("/metrics", promhttp.Handler())

	// Health and readiness endpoints
	mux.HandleFunc("/healthz", handlers.HandleHealthz)
	mux.HandleFunc("/readyz", handlers.HandleReadyz)

	// Overlay feed
	mux.HandleFunc("/overlay/state", handlers.HandleOverlayState)
	mux.HandleFunc("/overlay/stream", handlers.HandleOverlayStream)
	mux.HandleFunc("/overlay/ws", handlers.HandleOverlayWS)
	// Clicks come straight from viewers' browser sources.
	mux.Handle("/overlay/avatars/", clicks.limit(http.HandlerFunc(handlers.HandleAvatarsDispatcher)))

	// Operator controls
	mux.Handle("/overlay/demo", auth.guard(http.HandlerFunc(handlers.HandleDemoToggle)))
	mux.HandleFunc("/settings", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			handlers.HandleSettings(w, r)
			return
		}
		auth.guard(http.HandlerFunc(handlers.HandleSettings)).ServeHTTP(w, r)
	})

	// Wrap with correlation ID injector and tracing middleware
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Reuse corr header if provided else generate
		corr := r.Header.Get("X-Correlation-ID")
		if corr == "" {
			corr = uuid.New().String()
		}
		ctx := telemetry.WithCorrelation(r.Context(), corr)
		w.Header().Set("X-Correlation-ID", corr)

		ctx, span := telemetry.StartSpan(ctx, "http-server", r.Method+" "+r.URL.Path,
			telemetry.HTTPMethodAttr(r.Method),
			telemetry.HTTPRouteAttr(r.URL.Path),
			telemetry.HTTPURLAttr(r.URL.String()),
		)
		defer span.End()

		telemetry.LoggerWithCorr(ctx).Debug("request start", slog.String("method", r.Method), slog.String("path", r.URL.Path), slog.String("component", "http"))

		wrappedWriter := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		mux.ServeHTTP(wrappedWriter, r.WithContext(ctx))

		telemetry.SetSpanHTTPStatus(span, wrappedWriter.statusCode)
		if wrappedWriter.statusCode >= 400 {
			code, msg := telemetry.ErrorStatus(fmt.Sprintf("HTTP %d", wrappedWriter.statusCode))
			span.SetStatus(code, msg)
		}
	})
	return origins.wrap(handler)
}

// Start runs the HTTP server and shuts down gracefully on context cancellation.
func Start(ctx context.Context, stage *overlay.Stage, store settings.Store, db *sql.DB, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      NewMux(ctx, stage, store, db),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		// Use WithoutCancel to inherit context values but allow shutdown to complete
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("http server shutdown error", slog.Any("err", err))
		}
	}()

	slog.Info("http server listening", slog.String("addr", addr), slog.String("component", "http"))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("http server error", slog.Any("err", err))
		return err
	}
	return nil
}
