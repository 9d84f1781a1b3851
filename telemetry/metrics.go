// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	MessagesReceived *prometheus.CounterVec // label: source (twitch|demo)
	MessagesDropped  prometheus.Counter
	AvatarsAdmitted  prometheus.Counter
	AvatarsEvicted   prometheus.Counter
	ReactionsFired   *prometheus.CounterVec // label: trigger (keyword|emote|click)
	CuesEmitted      *prometheus.CounterVec // label: cue
	EventsDropped    prometheus.Counter

	// Histograms (seconds)
	ReconcileDuration prometheus.Observer

	// Gauges
	AvatarsLive     prometheus.Gauge
	ActiveUsers     prometheus.Gauge
	Subscribers     prometheus.Gauge
	ChatConnected   prometheus.Gauge // 1=connected,0=disconnected
	DemoModeEnabled prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		MessagesReceived = promauto.NewCounterVec(prometheus.CounterOpts{Name: "overlay_chat_messages_received_total", Help: "Chat messages accepted by the overlay"}, []string{"source"})
		MessagesDropped = promauto.NewCounter(prometheus.CounterOpts{Name: "overlay_chat_messages_dropped_total", Help: "Malformed chat messages skipped"})
		AvatarsAdmitted = promauto.NewCounter(prometheus.CounterOpts{Name: "overlay_avatars_admitted_total", Help: "Avatars created"})
		AvatarsEvicted = promauto.NewCounter(prometheus.CounterOpts{Name: "overlay_avatars_evicted_total", Help: "Avatars removed for inactivity"})
		ReactionsFired = promauto.NewCounterVec(prometheus.CounterOpts{Name: "overlay_reactions_total", Help: "Avatar reactions triggered"}, []string{"trigger"})
		CuesEmitted = promauto.NewCounterVec(prometheus.CounterOpts{Name: "overlay_sound_cues_total", Help: "Sound cues sent to the overlay"}, []string{"cue"})
		EventsDropped = promauto.NewCounter(prometheus.CounterOpts{Name: "overlay_events_dropped_total", Help: "Events dropped for slow subscribers"})
		ReconcileDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "overlay_reconcile_duration_seconds", Help: "Time spent reconciling avatars per message", Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01}})
		AvatarsLive = promauto.NewGauge(prometheus.GaugeOpts{Name: "overlay_avatars_live", Help: "Avatars currently on screen"})
		ActiveUsers = promauto.NewGauge(prometheus.GaugeOpts{Name: "overlay_active_users", Help: "Distinct chatters within the active window"})
		Subscribers = promauto.NewGauge(prometheus.GaugeOpts{Name: "overlay_subscribers", Help: "Connected overlay clients (SSE + WebSocket)"})
		ChatConnected = promauto.NewGauge(prometheus.GaugeOpts{Name: "overlay_chat_connected", Help: "Chat source connected=1 disconnected=0"})
		DemoModeEnabled = promauto.NewGauge(prometheus.GaugeOpts{Name: "overlay_demo_mode", Help: "Demo playback enabled=1 disabled=0"})
	})
}

// SetBool sets g to 1 when v is true else 0. Nil gauges are ignored.
func SetBool(g prometheus.Gauge, v bool) {
	if g == nil {
		return
	}
	if v {
		g.Set(1)
	} else {
		g.Set(0)
	}
}

// SetCount records n on g if g is initialized.
func SetCount(g prometheus.Gauge, n int) {
	if g != nil {
		g.Set(float64(n))
	}
}

// TimeFunc measures the duration of fn and records in observer if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding the correlation id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	if s, ok := ctx.Value(corrKey).(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
