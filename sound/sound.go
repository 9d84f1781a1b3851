// Package sound describes the overlay's sound effects as tone sequences. The
// browser synthesizes them; this package only owns the tables.
package sound

import "time"

// Wave is an oscillator shape.
type Wave string

const (
	Sine     Wave = "sine"
	Square   Wave = "square"
	Triangle Wave = "triangle"
)

// Tone is one oscillator note starting Offset after the cue begins.
type Tone struct {
	Frequency float64       `json:"frequency"`
	Duration  time.Duration `json:"-"`
	Wave      Wave          `json:"wave"`
	Offset    time.Duration `json:"-"`

	DurationMS int64 `json:"duration_ms"`
	OffsetMS   int64 `json:"offset_ms"`
}

// Cue is a named sequence of tones.
type Cue struct {
	Name  string `json:"name"`
	Tones []Tone `json:"tones"`
}

// Cue names emitted by the overlay.
const (
	NewMessage = "newMessage"
	Click      = "click"
)

func tone(freq float64, dur time.Duration, wave Wave, offset time.Duration) Tone {
	return Tone{
		Frequency:  freq,
		Duration:   dur,
		Wave:       wave,
		Offset:     offset,
		DurationMS: dur.Milliseconds(),
		OffsetMS:   offset.Milliseconds(),
	}
}

const ms = time.Millisecond

var cues = map[string][]Tone{
	"bounce": {tone(523.25, 200*ms, Sine, 0)},
	"excited": {
		tone(659.25, 100*ms, Sine, 0),
		tone(783.99, 100*ms, Sine, 100*ms),
		tone(1046.5, 200*ms, Sine, 200*ms),
	},
	"heart": {
		tone(523.25, 150*ms, Sine, 0),
		tone(659.25, 150*ms, Sine, 150*ms),
	},
	Click: {tone(1000, 100*ms, Square, 0)},
	"wave": {
		tone(440, 100*ms, Sine, 0),
		tone(523.25, 100*ms, Sine, 100*ms),
	},
	NewMessage: {tone(800, 150*ms, Triangle, 0)},
	"specialMessage": {
		tone(659.25, 100*ms, Sine, 0),
		tone(783.99, 100*ms, Sine, 80*ms),
		tone(987.77, 200*ms, Sine, 160*ms),
	},
	"follow": {
		tone(523.25, 100*ms, Sine, 0),
		tone(659.25, 100*ms, Sine, 100*ms),
		tone(783.99, 100*ms, Sine, 200*ms),
		tone(1046.5, 300*ms, Sine, 300*ms),
	},
	"sparkle": {tone(2000, 50*ms, Sine, 0)},
	"chime": {
		tone(1760, 200*ms, Sine, 0),
		tone(1976, 200*ms, Sine, 100*ms),
		tone(2217.46, 200*ms, Sine, 200*ms),
	},
}

// Lookup returns the cue registered under name.
func Lookup(name string) (Cue, bool) {
	tones, ok := cues[name]
	if !ok {
		return Cue{}, false
	}
	out := make([]Tone, len(tones))
	copy(out, tones)
	return Cue{Name: name, Tones: out}, true
}
