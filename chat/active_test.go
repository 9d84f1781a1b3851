package chat

import (
	"reflect"
	"testing"
	"time"
)

func msgAt(user string, at time.Time) Message {
	return Message{ID: user + at.String(), Username: user, Text: "hi", Timestamp: at}
}

func TestActiveUsers(t *testing.T) {
	now := time.Date(2024, 10, 15, 14, 30, 0, 0, time.UTC)
	tests := []struct {
		name string
		msgs []Message
		want []string
	}{
		{
			name: "empty",
			want: []string{},
		},
		{
			name: "first appearance order with duplicates",
			msgs: []Message{
				msgAt("bob", now.Add(-10*time.Second)),
				msgAt("alice", now.Add(-9*time.Second)),
				msgAt("bob", now.Add(-8*time.Second)),
				msgAt("carol", now.Add(-1*time.Second)),
			},
			want: []string{"bob", "alice", "carol"},
		},
		{
			name: "older than window excluded",
			msgs: []Message{
				msgAt("old", now.Add(-6*time.Minute)),
				msgAt("edge", now.Add(-ActiveWindow)),
				msgAt("fresh", now.Add(-4*time.Minute)),
			},
			want: []string{"fresh"},
		},
		{
			name: "user ordered by first message inside window",
			msgs: []Message{
				msgAt("alice", now.Add(-10*time.Minute)),
				msgAt("bob", now.Add(-2*time.Minute)),
				msgAt("alice", now.Add(-1*time.Minute)),
			},
			want: []string{"bob", "alice"},
		},
		{
			name: "malformed skipped",
			msgs: []Message{
				{Username: "", Text: "no author", Timestamp: now},
				{Username: "quiet", Text: "", Timestamp: now},
				msgAt("ok", now),
			},
			want: []string{"ok"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ActiveUsers(tt.msgs, ActiveWindow, now)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ActiveUsers() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestActiveUsersNeverIncludesStaleAuthors(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var msgs []Message
	users := []string{"a", "b", "c", "d"}
	for i := 0; i < 200; i++ {
		at := start.Add(time.Duration(i*17) * time.Second)
		u := users[(i*7)%len(users)]
		if i%5 == 0 {
			u = users[0]
		}
		msgs = append(msgs, msgAt(u, at))
	}
	for step := 0; step < 60; step++ {
		now := start.Add(time.Duration(step) * time.Minute)
		var seen []Message
		for _, m := range msgs {
			if !m.Timestamp.After(now) {
				seen = append(seen, m)
			}
		}
		for _, u := range ActiveUsers(seen, ActiveWindow, now) {
			newest := time.Time{}
			for _, m := range seen {
				if m.Username == u && m.Timestamp.After(newest) {
					newest = m.Timestamp
				}
			}
			if now.Sub(newest) >= ActiveWindow {
				t.Fatalf("at %v user %s active but newest message %v is outside window", now, u, newest)
			}
		}
	}
}
