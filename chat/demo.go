package chat

import (
	"fmt"
	"time"
)

// DemoInterval is the pause between two demo messages.
const DemoInterval = 3 * time.Second

type demoLine struct {
	username, text, avatar, color string
}

var demoScript = []demoLine{
	{"CuteCoder", "Hey everyone! Love the stream! 💜", "🐱", "#FF69B4"},
	{"PixelPanda", "This game looks amazing! ✨", "🐼", "#8A2BE2"},
	{"FoxyGamer", "Nice moves! 🔥 Poggers!", "🦊", "#FF4500"},
	{"BunnyHop", "How did you do that?! 😲", "🐰", "#32CD32"},
	{"SleepyBear", "Just got here, what did I miss? 😴", "🐻", "#8B4513"},
	{"PenguinDance", "HYPERS! This is awesome! 🐧", "🐧", "#4169E1"},
	{"HedgehogSpikes", "First time here, hi chat! 👋 hello", "🦔", "#800080"},
	{"KoalaHugs", "Such a cozy stream 🥰 love this!", "🐨", "#20B2AA"},
	{"CuteCoder", "Kappa 123", "🐱", "#FF69B4"},
	{"FoxyGamer", "EZ Clap! Great job!", "🦊", "#FF4500"},
	{"PixelPanda", "PogChamp PogChamp PogChamp", "🐼", "#8A2BE2"},
	{"BunnyHop", "LUL that was hilarious", "🐰", "#32CD32"},
}

// DemoLength is the number of messages in one demo cycle.
var DemoLength = len(demoScript)

// Demo plays back the canned script one message per call. After the last
// message the next call reports a wrap, and playback starts over.
type Demo struct {
	next int
}

// Next returns the next scripted message stamped with now. ok is false on the
// call following the last message; the caller should clear its demo history.
func (d *Demo) Next(now time.Time) (msg Message, ok bool) {
	if d.next >= len(demoScript) {
		d.next = 0
		return Message{}, false
	}
	line := demoScript[d.next]
	msg = Message{
		ID:        fmt.Sprintf("demo-%d-%d", now.UnixMilli(), d.next),
		Username:  line.username,
		Text:      line.text,
		Timestamp: now,
		Color:     line.color,
		Avatar:    line.avatar,
	}
	d.next++
	return msg, true
}

// Reset restarts playback from the first message.
func (d *Demo) Reset() { d.next = 0 }
