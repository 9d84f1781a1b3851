package sound

import "testing"

func TestLookup(t *testing.T) {
	for _, name := range []string{"bounce", "excited", "heart", Click, "wave", NewMessage, "specialMessage", "follow", "sparkle", "chime"} {
		cue, ok := Lookup(name)
		if !ok {
			t.Errorf("cue %q missing", name)
			continue
		}
		if cue.Name != name || len(cue.Tones) == 0 {
			t.Errorf("cue %q malformed: %+v", name, cue)
		}
		for i, tn := range cue.Tones {
			if tn.Frequency <= 0 || tn.DurationMS <= 0 || tn.OffsetMS < 0 {
				t.Errorf("cue %q tone %d invalid: %+v", name, i, tn)
			}
		}
	}
	if _, ok := Lookup("nope"); ok {
		t.Error("unknown cue should not resolve")
	}
}

func TestLookupReturnsCopy(t *testing.T) {
	a, _ := Lookup(Click)
	a.Tones[0].Frequency = 1
	b, _ := Lookup(Click)
	if b.Tones[0].Frequency != 1000 {
		t.Error("Lookup leaked shared table")
	}
}
