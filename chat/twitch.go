package chat

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	twitch "github.com/gempir/go-twitch-irc/v4"
	"github.com/google/uuid"
)

// DefaultReconnectDelay is the pause between IRC connection attempts.
const DefaultReconnectDelay = 5 * time.Second

// ircClient is the subset of *twitch.Client used by TwitchSource.
type ircClient interface {
	OnConnect(callback func())
	OnPrivateMessage(callback func(message twitch.PrivateMessage))
	Join(channels ...string)
	Connect() error
	Disconnect() error
}

// TwitchSource reads one channel's chat over anonymous IRC.
type TwitchSource struct {
	Channel        string
	ReconnectDelay time.Duration

	// Now and NewClient are overridable for tests.
	Now       func() time.Time
	NewClient func() ircClient
}

// NewTwitchSource returns a source for channel using the real IRC client.
func NewTwitchSource(channel string, reconnectDelay time.Duration) *TwitchSource {
	return &TwitchSource{Channel: channel, ReconnectDelay: reconnectDelay}
}

func (s *TwitchSource) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *TwitchSource) client() ircClient {
	if s.NewClient != nil {
		return s.NewClient()
	}
	return twitch.NewAnonymousClient()
}

// Run connects, joins the channel and forwards messages to sink. When the
// connection drops it reports disconnected and retries after ReconnectDelay.
// It returns nil once ctx is canceled.
func (s *TwitchSource) Run(ctx context.Context, sink Sink) error {
	channel := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s.Channel), "#"))
	if channel == "" {
		return errors.New("twitch channel empty")
	}
	delay := s.ReconnectDelay
	if delay <= 0 {
		delay = DefaultReconnectDelay
	}
	log := slog.Default().With(slog.String("component", "twitch_source"), slog.String("channel", channel))

	for {
		client := s.client()
		client.OnConnect(func() {
			log.Info("connected to twitch chat")
			sink.SetConnected(true)
		})
		client.OnPrivateMessage(func(pm twitch.PrivateMessage) {
			sink.Deliver(s.convert(pm))
		})
		client.Join(channel)

		done := make(chan struct{})
		go func() {
			select {
			case <-ctx.Done():
				_ = client.Disconnect()
			case <-done:
			}
		}()
		err := client.Connect()
		close(done)
		sink.SetConnected(false)

		if ctx.Err() != nil {
			log.Info("twitch chat source stopped")
			return nil
		}
		if err != nil && !errors.Is(err, twitch.ErrClientDisconnected) {
			log.Warn("twitch chat connection lost", slog.Any("err", err), slog.Duration("retry_in", delay))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
	}
}

// convert maps an IRC PRIVMSG onto a Message stamped with the receipt time.
func (s *TwitchSource) convert(pm twitch.PrivateMessage) Message {
	id := pm.ID
	if id == "" {
		id = uuid.NewString()
	}
	name := pm.User.DisplayName
	if name == "" {
		name = pm.User.Name
	}
	if name == "" {
		name = "Anonymous"
	}
	login := pm.User.Name
	if login == "" {
		login = "anonymous"
	}
	color := pm.User.Color
	if color == "" {
		color = DefaultColor
	}
	var badges []string
	if len(pm.User.Badges) > 0 {
		badges = make([]string, 0, len(pm.User.Badges))
		for k := range pm.User.Badges {
			badges = append(badges, k)
		}
		sort.Strings(badges)
	}
	return Message{
		ID:        id,
		Username:  name,
		Text:      pm.Message,
		Timestamp: s.now(),
		Color:     color,
		Avatar:    AvatarHint(login),
		Badges:    badges,
	}
}
