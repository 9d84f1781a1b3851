package chat

import (
	"strings"
	"time"
)

// DefaultColor is used when the author has no chat color set.
const DefaultColor = "#8A2BE2"

// Message is one chat line as received from a source. Values are never
// mutated after the source hands them over.
type Message struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Text      string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Color     string    `json:"color"`
	Avatar    string    `json:"avatar"`
	Badges    []string  `json:"badges,omitempty"`
}

// Valid reports whether the message carries an author and a body.
func (m Message) Valid() bool {
	return strings.TrimSpace(m.Username) != "" && m.Text != ""
}

var avatarHints = []string{"🐱", "🐶", "🐼", "🦊", "🐸", "🐰", "🐻", "🐧", "🦔", "🐨"}

// AvatarHint picks a stable glyph for a login name.
func AvatarHint(login string) string {
	sum := 0
	for _, r := range login {
		sum += int(r)
	}
	return avatarHints[sum%len(avatarHints)]
}
