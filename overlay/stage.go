// Package overlay runs the stage: one goroutine that owns the chat logs, the
// avatar manager, bubbles, reactions and settings, and publishes the resulting
// overlay state to subscribers.
//
// Every mutation happens on the goroutine started by Run. Sources, HTTP
// handlers and timers talk to it through the exported methods, which hand work
// over on channels.
package overlay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/onnwee/stream-avatars/backend/avatar"
	"github.com/onnwee/stream-avatars/backend/chat"
	"github.com/onnwee/stream-avatars/backend/reaction"
	"github.com/onnwee/stream-avatars/backend/settings"
	"github.com/onnwee/stream-avatars/backend/sound"
	"github.com/onnwee/stream-avatars/backend/telemetry"
)

var (
	// ErrUnknownAvatar is returned by Click for an id that is not on stage.
	ErrUnknownAvatar = errors.New("unknown avatar")
	// ErrStopped is returned once the stage loop has exited.
	ErrStopped = errors.New("stage stopped")
)

const (
	sourceTwitch = "twitch"
	sourceDemo   = "demo"
)

// Option configures a Stage.
type Option func(*Stage)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(s *Stage) { s.now = now } }

// WithRand seeds avatar placement and click reactions.
func WithRand(r *rand.Rand) Option { return func(s *Stage) { s.rng = r } }

// WithDemo starts the stage with demo playback enabled.
func WithDemo(on bool) Option { return func(s *Stage) { s.demoOn = on } }

// WithSettings sets the initial overlay settings.
func WithSettings(st settings.Settings) Option { return func(s *Stage) { s.settings = st } }

// WithLogger sets the stage logger.
func WithLogger(l *slog.Logger) Option { return func(s *Stage) { s.log = l } }

// WithIntervals overrides the sweep and demo periods.
func WithIntervals(sweep, demo time.Duration) Option {
	return func(s *Stage) {
		if sweep > 0 {
			s.sweepEvery = sweep
		}
		if demo > 0 {
			s.demoEvery = demo
		}
	}
}

// input is one item from a chat source: a message, or a connectivity change
// when conn is set.
type input struct {
	msg  chat.Message
	conn *bool
}

// Stage is the overlay state owner.
type Stage struct {
	now        func() time.Time
	rng        *rand.Rand
	log        *slog.Logger
	sweepEvery time.Duration
	demoEvery  time.Duration

	// loop-owned state
	mgr         *avatar.Manager
	live        *chat.Log
	demoLog     *chat.Log
	demo        chat.Demo
	demoOn      bool
	connected   bool
	settings    settings.Settings
	activeUsers int
	bubbles     map[string]Bubble
	reactions   map[string][]ActiveReaction
	timers      map[string]*time.Timer
	ctx         context.Context

	// inputs carries messages and connectivity changes on one channel so
	// they are handled in the order the source produced them.
	inputs  chan input
	reqs    chan func()
	repos   chan string
	hub     *hub
	done    chan struct{}
	started atomic.Bool
	running atomic.Bool
}

// NewStage builds a stage. Call Run to start it.
func NewStage(opts ...Option) *Stage {
	telemetry.Init()
	s := &Stage{
		now:        time.Now,
		log:        slog.Default().With(slog.String("component", "overlay")),
		sweepEvery: avatar.SweepInterval,
		demoEvery:  chat.DemoInterval,
		live:       chat.NewLog(chat.DefaultLogSize),
		demoLog:    chat.NewLog(chat.DefaultLogSize),
		settings:   settings.Default(),
		bubbles:    make(map[string]Bubble),
		reactions:  make(map[string][]ActiveReaction),
		timers:     make(map[string]*time.Timer),
		ctx:        context.Background(),
		inputs:     make(chan input, 256),
		reqs:       make(chan func()),
		repos:      make(chan string, avatar.MaxAvatars),
		done:       make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	s.mgr = avatar.NewManager(avatar.WithRand(s.rng))
	s.hub = newHub(s.log)
	return s
}

// Run processes inputs until ctx is cancelled. It returns ctx.Err(), or an
// error if the stage was already started.
func (s *Stage) Run(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return fmt.Errorf("overlay stage already started")
	}
	s.ctx = ctx
	s.running.Store(true)
	defer func() {
		s.running.Store(false)
		close(s.done)
		s.teardown()
	}()

	sweep := time.NewTicker(s.sweepEvery)
	defer sweep.Stop()
	demo := time.NewTicker(s.demoEvery)
	defer demo.Stop()

	telemetry.SetBool(telemetry.DemoModeEnabled, s.demoOn)
	s.log.Info("overlay stage started", slog.Bool("demo", s.demoOn))
	for {
		select {
		case <-ctx.Done():
			s.log.Info("overlay stage stopping")
			return ctx.Err()
		case in := <-s.inputs:
			if in.conn != nil {
				s.handleConnected(*in.conn)
			} else {
				s.handleMessage(in.msg)
			}
		case fn := <-s.reqs:
			fn()
		case id := <-s.repos:
			s.handleReposition(id)
		case <-sweep.C:
			s.handleSweep()
		case <-demo.C:
			s.handleDemoTick()
		}
	}
}

// Running reports whether the loop is active.
func (s *Stage) Running() bool { return s.running.Load() }

// Deliver queues a chat message. It blocks while the queue is full and
// returns without effect once the stage has stopped.
func (s *Stage) Deliver(msg chat.Message) { s.send(input{msg: msg}) }

// SetConnected records the chat source's connectivity. It shares the message
// queue, so a message delivered after SetConnected is seen after it.
func (s *Stage) SetConnected(up bool) { s.send(input{conn: &up}) }

func (s *Stage) send(in input) {
	select {
	case s.inputs <- in:
	case <-s.done:
	}
}

// Subscribe registers a feed consumer. The channel is closed by Unsubscribe
// or when the stage stops.
func (s *Stage) Subscribe() *Subscription {
	sub := s.hub.subscribe()
	select {
	case <-s.done:
		s.hub.unsubscribe(sub)
	default:
	}
	return sub
}

// Unsubscribe removes sub from the feed.
func (s *Stage) Unsubscribe(sub *Subscription) { s.hub.unsubscribe(sub) }

// Snapshot returns the current overlay state.
func (s *Stage) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := s.do(ctx, func() { snap = s.snapshot() })
	return snap, err
}

// Click fires a click reaction and cue on the avatar with the given id.
func (s *Stage) Click(ctx context.Context, id string) error {
	var clickErr error
	if err := s.do(ctx, func() { clickErr = s.handleClick(id) }); err != nil {
		return err
	}
	return clickErr
}

// ToggleDemo flips demo playback and returns the new state.
func (s *Stage) ToggleDemo(ctx context.Context) (bool, error) {
	var on bool
	err := s.do(ctx, func() {
		s.setDemo(!s.demoOn)
		on = s.demoOn
	})
	return on, err
}

// ApplySettings validates and installs st.
func (s *Stage) ApplySettings(ctx context.Context, st settings.Settings) error {
	if err := st.Validate(); err != nil {
		return err
	}
	return s.do(ctx, func() { s.handleSettings(st) })
}

// do runs fn on the loop and waits for it to finish.
func (s *Stage) do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	select {
	case s.reqs <- func() { fn(); close(finished) }:
	case <-s.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-finished:
		return nil
	case <-s.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// loop handlers ---------------------------------------------------------------

func (s *Stage) handleMessage(msg chat.Message) {
	if !msg.Valid() {
		telemetry.MessagesDropped.Inc()
		s.log.Debug("dropping malformed chat message", slog.String("id", msg.ID))
		return
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = s.now()
	}
	telemetry.MessagesReceived.WithLabelValues(sourceTwitch).Inc()
	if s.demoOn {
		// live chat is still recorded but demo playback drives the stage
		s.live.Append(msg)
		return
	}
	s.ingest(s.live, msg, sourceTwitch)
}

func (s *Stage) handleDemoTick() {
	if !s.demoOn {
		return
	}
	msg, ok := s.demo.Next(s.now())
	if !ok {
		s.demoLog.Reset()
		s.activeUsers = 0
		telemetry.SetCount(telemetry.ActiveUsers, 0)
		s.publishSnapshot()
		return
	}
	telemetry.MessagesReceived.WithLabelValues(sourceDemo).Inc()
	s.ingest(s.demoLog, msg, sourceDemo)
}

// ingest appends msg to log and runs the extractor, the manager and the
// reaction matcher against the result.
func (s *Stage) ingest(log *chat.Log, msg chat.Message, source string) {
	_, span := telemetry.StartSpan(s.ctx, "overlay", "overlay.ingest",
		attribute.String("source", source), attribute.String("user", msg.Username))
	defer span.End()

	log.Append(msg)
	now := s.now()
	active := chat.ActiveUsers(log.Messages(), chat.ActiveWindow, now)

	var res avatar.Result
	telemetry.TimeFunc(telemetry.ReconcileDuration, func() {
		res = s.mgr.Reconcile(active, now)
	})
	s.activeUsers = len(active)
	telemetry.SetCount(telemetry.ActiveUsers, len(active))

	for _, name := range res.Admitted {
		if a, ok := s.mgr.Get(name); ok {
			s.schedule(a.ID)
			s.log.Debug("avatar admitted", slog.String("user", name), slog.String("avatar", a.ID))
		}
	}
	if res.Changed() {
		telemetry.AvatarsAdmitted.Add(float64(len(res.Admitted)))
		telemetry.SetCount(telemetry.AvatarsLive, s.mgr.Len())
		s.cue(sound.NewMessage)
	}
	span.SetAttributes(attribute.Int("admitted", len(res.Admitted)), attribute.Int("active", len(active)))

	if a, ok := s.mgr.Get(msg.Username); ok {
		s.bubbles[a.ID] = Bubble{
			Text:   msg.Text,
			Color:  msg.Color,
			Badges: bubbleBadges(msg.Badges),
			Until:  now.Add(BubbleDuration),
		}
		if s.settings.AvatarInteractions {
			for _, r := range reaction.MatchText(msg.Text).All() {
				s.react(a.ID, r, now)
			}
		}
	}
	s.publishSnapshot()
}

func (s *Stage) handleConnected(up bool) {
	if s.connected == up {
		return
	}
	s.connected = up
	telemetry.SetBool(telemetry.ChatConnected, up)
	s.log.Info("chat connectivity changed", slog.Bool("connected", up))
	s.publishSnapshot()
}

func (s *Stage) handleSweep() {
	now := s.now()
	changed := false

	removed := s.mgr.Sweep(now)
	for _, a := range removed {
		s.forget(a.ID)
		s.log.Debug("avatar evicted", slog.String("user", a.Name), slog.String("avatar", a.ID))
	}
	if len(removed) > 0 {
		telemetry.AvatarsEvicted.Add(float64(len(removed)))
		telemetry.SetCount(telemetry.AvatarsLive, s.mgr.Len())
		changed = true
	}
	if s.prune(now) {
		changed = true
	}
	if n := len(chat.ActiveUsers(s.currentLog().Messages(), chat.ActiveWindow, now)); n != s.activeUsers {
		s.activeUsers = n
		telemetry.SetCount(telemetry.ActiveUsers, n)
		changed = true
	}
	if changed {
		s.publishSnapshot()
	}
}

func (s *Stage) handleReposition(id string) {
	t, ok := s.timers[id]
	if !ok {
		return
	}
	if _, ok := s.mgr.Reposition(id); !ok {
		s.forget(id)
		return
	}
	t.Reset(s.mgr.RepositionPeriod())
	s.publishSnapshot()
}

func (s *Stage) handleClick(id string) error {
	a, ok := s.mgr.ByID(id)
	if !ok {
		return ErrUnknownAvatar
	}
	if !s.settings.AvatarInteractions {
		return nil
	}
	s.react(a.ID, reaction.Click(s.rng), s.now())
	s.cue(sound.Click)
	s.publishSnapshot()
	return nil
}

func (s *Stage) handleSettings(st settings.Settings) {
	s.settings = st
	if !st.AvatarInteractions {
		clear(s.reactions)
	}
	s.log.Info("overlay settings applied",
		slog.Bool("sound", st.SoundEnabled),
		slog.Bool("interactions", st.AvatarInteractions),
		slog.String("theme", st.BackgroundTheme))
	s.publishSnapshot()
}

func (s *Stage) setDemo(on bool) {
	if s.demoOn == on {
		return
	}
	s.demoOn = on
	if on {
		s.demoLog.Reset()
		s.demo.Reset()
	}
	s.activeUsers = len(chat.ActiveUsers(s.currentLog().Messages(), chat.ActiveWindow, s.now()))
	telemetry.SetBool(telemetry.DemoModeEnabled, on)
	telemetry.SetCount(telemetry.ActiveUsers, s.activeUsers)
	s.log.Info("demo mode changed", slog.Bool("demo", on))
	s.publishSnapshot()
}

// helpers ---------------------------------------------------------------------

func (s *Stage) currentLog() *chat.Log {
	if s.demoOn {
		return s.demoLog
	}
	return s.live
}

func (s *Stage) react(id string, r reaction.Reaction, now time.Time) {
	list := append(s.reactions[id], ActiveReaction{
		Reaction:   r,
		DurationMS: r.DurationMillis(),
		Until:      now.Add(r.Duration),
	})
	if len(list) > maxReactions {
		list = list[len(list)-maxReactions:]
	}
	s.reactions[id] = list
	telemetry.ReactionsFired.WithLabelValues(string(r.Trigger)).Inc()
}

func (s *Stage) cue(name string) {
	if !s.settings.SoundEnabled {
		return
	}
	c, ok := sound.Lookup(name)
	if !ok {
		return
	}
	telemetry.CuesEmitted.WithLabelValues(name).Inc()
	s.hub.publish(Event{Type: EventCue, Cue: &c})
}

// schedule arms the reposition timer for a new avatar.
func (s *Stage) schedule(id string) {
	if _, ok := s.timers[id]; ok {
		return
	}
	s.timers[id] = time.AfterFunc(s.mgr.RepositionPeriod(), func() {
		select {
		case s.repos <- id:
		case <-s.done:
		}
	})
}

// forget drops everything attached to an avatar that left the stage.
func (s *Stage) forget(id string) {
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
	delete(s.bubbles, id)
	delete(s.reactions, id)
}

// prune removes expired bubbles and reactions and reports whether any were.
func (s *Stage) prune(now time.Time) bool {
	changed := false
	for id, b := range s.bubbles {
		if !now.Before(b.Until) {
			delete(s.bubbles, id)
			changed = true
		}
	}
	for id, list := range s.reactions {
		kept := list[:0]
		for _, r := range list {
			if now.Before(r.Until) {
				kept = append(kept, r)
			}
		}
		if len(kept) != len(list) {
			changed = true
		}
		if len(kept) == 0 {
			delete(s.reactions, id)
		} else {
			s.reactions[id] = kept
		}
	}
	return changed
}

func (s *Stage) snapshot() Snapshot {
	now := s.now()
	avs := s.mgr.Avatars()
	views := make([]AvatarView, 0, len(avs))
	for _, a := range avs {
		v := AvatarView{Avatar: a, Emotion: a.Emotion(), Reactions: []ActiveReaction{}}
		if b, ok := s.bubbles[a.ID]; ok && now.Before(b.Until) {
			v.Bubble = &b
		}
		for _, r := range s.reactions[a.ID] {
			if now.Before(r.Until) {
				v.Reactions = append(v.Reactions, r)
			}
		}
		views = append(views, v)
	}
	return Snapshot{
		Avatars: views,
		Status: Status{
			Connected:    s.connected || s.demoOn,
			MessageCount: s.currentLog().Len(),
			ActiveUsers:  s.activeUsers,
			Demo:         s.demoOn,
		},
		Settings: s.settings,
		At:       now,
	}
}

func (s *Stage) publishSnapshot() {
	if s.hub.count() == 0 {
		return
	}
	snap := s.snapshot()
	s.hub.publish(Event{Type: EventSnapshot, Snapshot: &snap})
}

func (s *Stage) teardown() {
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	s.mgr.Clear()
	telemetry.SetCount(telemetry.AvatarsLive, 0)
	s.hub.closeAll()
}
