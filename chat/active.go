package chat

import "time"

// ActiveWindow is how far back a message still makes its author active.
const ActiveWindow = 5 * time.Minute

// ActiveUsers returns the distinct usernames with at least one message newer
// than now-window, in order of first appearance. Malformed messages are ignored.
func ActiveUsers(msgs []Message, window time.Duration, now time.Time) []string {
	cutoff := now.Add(-window)
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, m := range msgs {
		if !m.Valid() || !m.Timestamp.After(cutoff) {
			continue
		}
		if _, ok := seen[m.Username]; ok {
			continue
		}
		seen[m.Username] = struct{}{}
		out = append(out, m.Username)
	}
	return out
}
