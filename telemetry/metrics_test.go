package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestInitIdempotent(t *testing.T) {
	Init()
	first := AvatarsLive
	Init()
	if AvatarsLive != first {
		t.Fatal("Init re-created collectors")
	}
	for name, c := range map[string]any{
		"MessagesReceived":  MessagesReceived,
		"MessagesDropped":   MessagesDropped,
		"AvatarsAdmitted":   AvatarsAdmitted,
		"AvatarsEvicted":    AvatarsEvicted,
		"ReactionsFired":    ReactionsFired,
		"CuesEmitted":       CuesEmitted,
		"ReconcileDuration": ReconcileDuration,
		"Subscribers":       Subscribers,
		"ChatConnected":     ChatConnected,
	} {
		if c == nil {
			t.Errorf("%s not initialized", name)
		}
	}
}

func TestSetBoolAndCount(t *testing.T) {
	Init()
	SetBool(ChatConnected, true)
	if got := testutil.ToFloat64(ChatConnected); got != 1 {
		t.Errorf("ChatConnected = %v, want 1", got)
	}
	SetBool(ChatConnected, false)
	if got := testutil.ToFloat64(ChatConnected); got != 0 {
		t.Errorf("ChatConnected = %v, want 0", got)
	}
	SetCount(AvatarsLive, 7)
	if got := testutil.ToFloat64(AvatarsLive); got != 7 {
		t.Errorf("AvatarsLive = %v, want 7", got)
	}
	// nil gauges are ignored
	SetBool(nil, true)
	SetCount(nil, 1)
}

func TestCounterVecLabels(t *testing.T) {
	Init()
	before := testutil.ToFloat64(ReactionsFired.WithLabelValues("emote"))
	ReactionsFired.WithLabelValues("emote").Inc()
	if got := testutil.ToFloat64(ReactionsFired.WithLabelValues("emote")); got != before+1 {
		t.Errorf("emote reactions = %v, want %v", got, before+1)
	}
}

func TestTimeFuncRecordsObservation(t *testing.T) {
	testHistogram := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "test_duration_seconds",
		Help:    "Test duration",
		Buckets: prometheus.DefBuckets,
	})

	executed := false
	duration := TimeFunc(testHistogram, func() {
		time.Sleep(10 * time.Millisecond)
		executed = true
	})
	if !executed {
		t.Error("TimeFunc did not execute provided function")
	}
	if duration < 10*time.Millisecond {
		t.Errorf("TimeFunc duration = %v, want >= 10ms", duration)
	}

	metric := &dto.Metric{}
	if err := testHistogram.Write(metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Histogram == nil || metric.Histogram.GetSampleCount() == 0 {
		t.Error("TimeFunc did not record observation in histogram")
	}
}

func TestCorrelation(t *testing.T) {
	ctx := context.Background()
	if GetCorrelation(ctx) != "" {
		t.Fatal("expected empty correlation")
	}
	ctx = WithCorrelation(ctx, "abc")
	if got := GetCorrelation(ctx); got != "abc" {
		t.Errorf("GetCorrelation() = %q", got)
	}
	if LoggerWithCorr(ctx) == nil {
		t.Error("nil logger")
	}
}

func TestInitTracingDisabledWithoutEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	shutdown, err := InitTracing("stream-avatars", "test")
	if err != nil {
		t.Fatalf("InitTracing() error = %v", err)
	}
	shutdown()
	if IsTracingEnabled() {
		t.Error("tracing should be disabled")
	}
}
