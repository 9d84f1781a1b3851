// Package reaction maps chat text onto cosmetic avatar reactions using static
// keyword and emote tables.
package reaction

import (
	"math/rand/v2"
	"strings"
	"time"
)

// Kind is the animation family of a reaction.
type Kind string

const (
	Bounce   Kind = "bounce"
	Dance    Kind = "dance"
	Wave     Kind = "wave"
	Heart    Kind = "heart"
	Confused Kind = "confused"
	Excited  Kind = "excited"
)

// Trigger names what fired a reaction.
type Trigger string

const (
	TriggerKeyword Trigger = "keyword"
	TriggerEmote   Trigger = "emote"
	TriggerClick   Trigger = "click"
)

// Reaction is an emoji shown over an avatar for Duration.
type Reaction struct {
	Kind     Kind          `json:"type"`
	Trigger  Trigger       `json:"trigger"`
	Emoji    string        `json:"emoji"`
	Duration time.Duration `json:"-"`
}

// DurationMillis is Duration in milliseconds, for the overlay.
func (r Reaction) DurationMillis() int64 { return r.Duration.Milliseconds() }

// EmoteDuration applies to every emote reaction.
const EmoteDuration = 3 * time.Second

// ClickDuration applies to reactions fired by clicking an avatar.
const ClickDuration = 2 * time.Second

type entry struct {
	match    string
	kind     Kind
	emoji    string
	duration time.Duration
}

// Table order decides ties: the first entry that matches wins.
var keywords = []entry{
	{"love", Heart, "💕", 3000 * time.Millisecond},
	{"awesome", Excited, "🎉", 2500 * time.Millisecond},
	{"great", Bounce, "⭐", 2000 * time.Millisecond},
	{"amazing", Dance, "✨", 3000 * time.Millisecond},

	{"hello", Wave, "👋", 2000 * time.Millisecond},
	{"hi", Wave, "👋", 2000 * time.Millisecond},
	{"hey", Wave, "👋", 2000 * time.Millisecond},

	{"confused", Confused, "❓", 2500 * time.Millisecond},
	{"what", Confused, "🤔", 2000 * time.Millisecond},
	{"how", Confused, "❓", 2000 * time.Millisecond},

	{"poggers", Excited, "🔥", 3000 * time.Millisecond},
	{"pog", Excited, "🔥", 3000 * time.Millisecond},
	{"hype", Dance, "🎊", 3500 * time.Millisecond},
}

var emotes = []entry{
	{"Kappa", Confused, "😏", EmoteDuration},
	{"PogChamp", Excited, "🤩", EmoteDuration},
	{"LUL", Bounce, "😂", EmoteDuration},
	{"MonkaS", Confused, "😰", EmoteDuration},
	{"OMEGALUL", Dance, "🤣", EmoteDuration},
	{"EZ", Excited, "😎", EmoteDuration},
	{"F", Confused, "😔", EmoteDuration},
	{"5Head", Confused, "🧠", EmoteDuration},
	{"HYPERS", Dance, "⚡", EmoteDuration},
}

var clickEmojis = []string{"🎉", "✨", "💫", "⭐", "🌟", "💖", "🔥"}

// Match holds at most one keyword and one emote reaction for a message.
type Match struct {
	Keyword *Reaction
	Emote   *Reaction
}

// Empty reports whether nothing matched.
func (m Match) Empty() bool { return m.Keyword == nil && m.Emote == nil }

// All returns the matched reactions, keyword first.
func (m Match) All() []Reaction {
	out := make([]Reaction, 0, 2)
	if m.Keyword != nil {
		out = append(out, *m.Keyword)
	}
	if m.Emote != nil {
		out = append(out, *m.Emote)
	}
	return out
}

// MatchText scans text for the first keyword (case-insensitive substring) and
// independently for the first emote (case-sensitive substring).
func MatchText(text string) Match {
	var m Match
	lower := strings.ToLower(text)
	if e, ok := first(keywords, lower); ok {
		r := e.reaction(TriggerKeyword)
		m.Keyword = &r
	}
	if e, ok := first(emotes, text); ok {
		r := e.reaction(TriggerEmote)
		m.Emote = &r
	}
	return m
}

func first(table []entry, s string) (entry, bool) {
	for _, e := range table {
		if strings.Contains(s, e.match) {
			return e, true
		}
	}
	return entry{}, false
}

func (e entry) reaction(t Trigger) Reaction {
	return Reaction{Kind: e.kind, Trigger: t, Emoji: e.emoji, Duration: e.duration}
}

// Click returns a random sparkle reaction for a clicked avatar.
func Click(rng *rand.Rand) Reaction {
	return Reaction{
		Kind:     Excited,
		Trigger:  TriggerClick,
		Emoji:    clickEmojis[rng.IntN(len(clickEmojis))],
		Duration: ClickDuration,
	}
}
