package chat

import (
	"context"
	"sync"
	"testing"
	"time"

	twitch "github.com/gempir/go-twitch-irc/v4"
)

type fakeIRC struct {
	mu        sync.Mutex
	onConnect func()
	onMessage func(twitch.PrivateMessage)
	joined    []string
	script    []twitch.PrivateMessage
	stop      chan struct{}
	once      sync.Once
}

func newFakeIRC(script ...twitch.PrivateMessage) *fakeIRC {
	return &fakeIRC{script: script, stop: make(chan struct{})}
}

func (f *fakeIRC) OnConnect(cb func())                            { f.onConnect = cb }
func (f *fakeIRC) OnPrivateMessage(cb func(twitch.PrivateMessage)) { f.onMessage = cb }
func (f *fakeIRC) Join(channels ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.joined = append(f.joined, channels...)
}

func (f *fakeIRC) Connect() error {
	f.onConnect()
	for _, m := range f.script {
		f.onMessage(m)
	}
	<-f.stop
	return twitch.ErrClientDisconnected
}

func (f *fakeIRC) Disconnect() error {
	f.once.Do(func() { close(f.stop) })
	return nil
}

type recordingSink struct {
	mu        sync.Mutex
	msgs      []Message
	states    []bool
	delivered chan struct{}
}

func (s *recordingSink) Deliver(m Message) {
	s.mu.Lock()
	s.msgs = append(s.msgs, m)
	s.mu.Unlock()
	s.delivered <- struct{}{}
}

func (s *recordingSink) SetConnected(c bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = append(s.states, c)
}

func TestTwitchSourceForwardsMessages(t *testing.T) {
	fixed := time.Date(2024, 10, 15, 14, 30, 0, 0, time.UTC)
	fake := newFakeIRC(twitch.PrivateMessage{
		ID:      "abc",
		Message: "this game is so amazing, Kappa!",
		User: twitch.User{
			Name:        "alice",
			DisplayName: "Alice",
			Color:       "#FF0000",
			Badges:      map[string]int{"subscriber": 12, "moderator": 1},
		},
	}, twitch.PrivateMessage{
		Message: "no metadata",
		User:    twitch.User{Name: "bob"},
	})
	src := &TwitchSource{
		Channel:   "#HabBi3",
		Now:       func() time.Time { return fixed },
		NewClient: func() ircClient { return fake },
	}
	sink := &recordingSink{delivered: make(chan struct{}, 4)}
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- src.Run(ctx, sink) }()

	for i := 0; i < 2; i++ {
		select {
		case <-sink.delivered:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for message")
		}
	}
	cancel()
	if err := <-errCh; err != nil {
		t.Fatalf("Run returned %v", err)
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(fake.joined) != 1 || fake.joined[0] != "habbi3" {
		t.Errorf("joined = %v, want [habbi3]", fake.joined)
	}
	first := sink.msgs[0]
	if first.ID != "abc" || first.Username != "Alice" || first.Color != "#FF0000" {
		t.Errorf("unexpected first message: %+v", first)
	}
	if !first.Timestamp.Equal(fixed) {
		t.Errorf("timestamp = %v, want receipt time", first.Timestamp)
	}
	if len(first.Badges) != 2 || first.Badges[0] != "moderator" || first.Badges[1] != "subscriber" {
		t.Errorf("badges = %v", first.Badges)
	}
	if first.Avatar != AvatarHint("alice") {
		t.Errorf("avatar = %s", first.Avatar)
	}
	second := sink.msgs[1]
	if second.ID == "" || second.Username != "bob" || second.Color != DefaultColor {
		t.Errorf("defaults not applied: %+v", second)
	}
	if len(sink.states) < 2 || !sink.states[0] || sink.states[len(sink.states)-1] {
		t.Errorf("connectivity transitions = %v, want true then false", sink.states)
	}
}

func TestTwitchSourceRequiresChannel(t *testing.T) {
	src := &TwitchSource{}
	if err := src.Run(context.Background(), &recordingSink{}); err == nil {
		t.Fatal("expected error for empty channel")
	}
}
