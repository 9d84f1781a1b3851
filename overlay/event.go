package overlay

import (
	"time"

	"github.com/onnwee/stream-avatars/backend/avatar"
	"github.com/onnwee/stream-avatars/backend/reaction"
	"github.com/onnwee/stream-avatars/backend/settings"
	"github.com/onnwee/stream-avatars/backend/sound"
)

// BubbleDuration is how long an avatar shows its latest chat line.
const BubbleDuration = 5 * time.Second

// maxReactions bounds the reactions kept per avatar.
const maxReactions = 4

// maxBubbleBadges is how many of the author's badges a bubble shows.
const maxBubbleBadges = 2

// Bubble is the speech bubble above an avatar.
type Bubble struct {
	Text   string    `json:"text"`
	Color  string    `json:"color"`
	Badges []string  `json:"badges,omitempty"`
	Until  time.Time `json:"until"`
}

func bubbleBadges(badges []string) []string {
	if len(badges) == 0 {
		return nil
	}
	n := min(len(badges), maxBubbleBadges)
	return append([]string(nil), badges[:n]...)
}

// ActiveReaction is a reaction currently playing on an avatar.
type ActiveReaction struct {
	reaction.Reaction
	DurationMS int64     `json:"duration_ms"`
	Until      time.Time `json:"until"`
}

// AvatarView is an avatar with everything the overlay draws around it.
type AvatarView struct {
	avatar.Avatar
	Emotion   string           `json:"emotion"`
	Bubble    *Bubble          `json:"bubble,omitempty"`
	Reactions []ActiveReaction `json:"reactions"`
}

// Status is the header line of the overlay.
type Status struct {
	Connected    bool `json:"connected"`
	MessageCount int  `json:"message_count"`
	ActiveUsers  int  `json:"active_users"`
	Demo         bool `json:"demo"`
}

// Snapshot is the complete overlay state at one instant.
type Snapshot struct {
	Avatars  []AvatarView      `json:"avatars"`
	Status   Status            `json:"status"`
	Settings settings.Settings `json:"settings"`
	At       time.Time         `json:"at"`
}

// EventType discriminates Event payloads.
type EventType string

const (
	EventSnapshot EventType = "snapshot"
	EventCue      EventType = "cue"
)

// Event is one message on the overlay feed.
type Event struct {
	Type     EventType  `json:"type"`
	Snapshot *Snapshot  `json:"snapshot,omitempty"`
	Cue      *sound.Cue `json:"cue,omitempty"`
}
