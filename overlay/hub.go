package overlay

import (
	"log/slog"
	"sync"

	"github.com/onnwee/stream-avatars/backend/telemetry"
)

// subscriberBuffer is the number of events queued per subscriber before
// further events are dropped for it.
const subscriberBuffer = 32

// Subscription receives overlay events until it is cancelled.
type Subscription struct {
	C <-chan Event

	ch   chan Event
	once sync.Once
}

type hub struct {
	mu   sync.Mutex
	subs map[*Subscription]struct{}
	log  *slog.Logger
}

func newHub(log *slog.Logger) *hub {
	return &hub{subs: make(map[*Subscription]struct{}), log: log}
}

func (h *hub) subscribe() *Subscription {
	ch := make(chan Event, subscriberBuffer)
	sub := &Subscription{C: ch, ch: ch}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	n := len(h.subs)
	h.mu.Unlock()
	telemetry.SetCount(telemetry.Subscribers, n)
	h.log.Debug("subscriber added", slog.Int("subscribers", n))
	return sub
}

// unsubscribe removes sub and closes its channel. Safe to call twice.
func (h *hub) unsubscribe(sub *Subscription) {
	h.mu.Lock()
	_, ok := h.subs[sub]
	delete(h.subs, sub)
	n := len(h.subs)
	h.mu.Unlock()
	if !ok {
		return
	}
	sub.once.Do(func() { close(sub.ch) })
	telemetry.SetCount(telemetry.Subscribers, n)
	h.log.Debug("subscriber removed", slog.Int("subscribers", n))
}

// publish never blocks: a subscriber with a full queue misses ev.
func (h *hub) publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		select {
		case sub.ch <- ev:
		default:
			if telemetry.EventsDropped != nil {
				telemetry.EventsDropped.Inc()
			}
			h.log.Debug("dropping overlay event for slow subscriber", slog.String("type", string(ev.Type)))
		}
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	subs := h.subs
	h.subs = make(map[*Subscription]struct{})
	h.mu.Unlock()
	for sub := range subs {
		sub.once.Do(func() { close(sub.ch) })
	}
	telemetry.SetCount(telemetry.Subscribers, 0)
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
