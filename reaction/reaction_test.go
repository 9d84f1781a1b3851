package reaction

import (
	"math/rand/v2"
	"testing"
)

func TestMatchText(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		wantKeyword string
		wantEmote   string
	}{
		{"keyword and emote", "this game is so amazing, Kappa!", "✨", "😏"},
		{"no match", "gg wp", "", ""},
		{"keyword case-insensitive", "LOVE it", "💕", ""},
		{"emote case-sensitive", "kappa lul", "", ""},
		{"table order breaks ties", "hello, what a great play", "⭐", ""},
		{"pog inside poggers picks poggers first", "POGGERS", "🔥", ""},
		{"emote order", "LUL Kappa", "", "😏"},
		{"substring keyword", "whatever", "🤔", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := MatchText(tt.text)
			gotKeyword, gotEmote := "", ""
			if m.Keyword != nil {
				gotKeyword = m.Keyword.Emoji
				if m.Keyword.Trigger != TriggerKeyword {
					t.Errorf("keyword trigger = %s", m.Keyword.Trigger)
				}
			}
			if m.Emote != nil {
				gotEmote = m.Emote.Emoji
				if m.Emote.Duration != EmoteDuration {
					t.Errorf("emote duration = %v", m.Emote.Duration)
				}
			}
			if gotKeyword != tt.wantKeyword || gotEmote != tt.wantEmote {
				t.Errorf("MatchText(%q) = (%q, %q), want (%q, %q)", tt.text, gotKeyword, gotEmote, tt.wantKeyword, tt.wantEmote)
			}
			if m.Empty() != (tt.wantKeyword == "" && tt.wantEmote == "") {
				t.Errorf("Empty() = %v", m.Empty())
			}
		})
	}
}

func TestMatchAmazingKappaScenario(t *testing.T) {
	m := MatchText("this game is so amazing, Kappa!")
	all := m.All()
	if len(all) != 2 {
		t.Fatalf("All() = %v", all)
	}
	if all[0].Kind != Dance || all[0].DurationMillis() != 3000 {
		t.Errorf("keyword reaction = %+v", all[0])
	}
	if all[1].Kind != Confused || all[1].Trigger != TriggerEmote {
		t.Errorf("emote reaction = %+v", all[1])
	}
}

func TestClick(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 50; i++ {
		r := Click(rng)
		if r.Trigger != TriggerClick || r.Duration != ClickDuration || r.Emoji == "" {
			t.Fatalf("unexpected click reaction %+v", r)
		}
	}
}
