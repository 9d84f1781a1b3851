package avatar

// Personality is the mood tag shown next to an avatar.
type Personality string

const (
	Happy     Personality = "happy"
	Sleepy    Personality = "sleepy"
	Excited   Personality = "excited"
	Confused  Personality = "confused"
	Angry     Personality = "angry"
	Love      Personality = "love"
	Cool      Personality = "cool"
	Surprised Personality = "surprised"
)

var emotionEmojis = map[Personality]string{
	Happy:     "😊",
	Sleepy:    "😴",
	Excited:   "🤩",
	Confused:  "🤔",
	Angry:     "😤",
	Love:      "😍",
	Cool:      "😎",
	Surprised: "😲",
}

// Emotion returns the emoji displayed for p, or "" for an unknown personality.
func (p Personality) Emotion() string { return emotionEmojis[p] }

// Template is one entry of the glyph palette.
type Template struct {
	Glyph         string
	Name          string
	Personalities []Personality
}

// Palette is the fixed, ordered set of avatar glyphs. New avatars take
// Palette[i % len(Palette)].
var Palette = []Template{
	{"🐱", "Kitty", []Personality{Happy, Sleepy, Love}},
	{"🐶", "Puppy", []Personality{Excited, Happy, Love}},
	{"🐼", "Panda", []Personality{Sleepy, Happy, Confused}},
	{"🦊", "Foxy", []Personality{Cool, Excited, Surprised}},
	{"🐸", "Froggy", []Personality{Happy, Confused, Surprised}},
	{"🐰", "Bunny", []Personality{Excited, Happy, Love}},
	{"🐻", "Bear", []Personality{Sleepy, Happy, Confused}},
	{"🐧", "Penguin", []Personality{Cool, Happy, Confused}},
	{"🦔", "Hedgehog", []Personality{Sleepy, Happy, Surprised}},
	{"🐨", "Koala", []Personality{Sleepy, Happy, Love}},
}
