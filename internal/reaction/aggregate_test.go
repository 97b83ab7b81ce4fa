package reaction

import (
	"testing"

	"github.com/togisoft/t-force/internal/store"
)

func row(messageID, userID, name, emoji string) store.ReactionRecord {
	return store.ReactionRecord{MessageID: messageID, UserID: userID, UserName: name, Emoji: emoji}
}

func TestAggregateEmpty(t *testing.T) {
	got := Aggregate(nil)
	if len(got) != 0 {
		t.Fatalf("aggregate of no rows returned %d messages", len(got))
	}
}

func TestAggregateGroupsByEmoji(t *testing.T) {
	rows := []store.ReactionRecord{
		row("m1", "u1", "alice", "👍"),
		row("m1", "u2", "bob", "👍"),
		row("m1", "u1", "alice", "🔥"),
		row("m2", "u3", "carol", "👍"),
	}

	got := Aggregate(rows)
	if len(got) != 2 {
		t.Fatalf("aggregated %d messages, want 2", len(got))
	}

	m1 := got["m1"]
	if len(m1) != 2 {
		t.Fatalf("m1 has %d groups, want 2", len(m1))
	}
	if m1[0].Emoji != "👍" || m1[0].Count != 2 {
		t.Fatalf("m1 first group = %+v, want 👍 x2", m1[0])
	}
	if m1[1].Emoji != "🔥" || m1[1].Count != 1 {
		t.Fatalf("m1 second group = %+v, want 🔥 x1", m1[1])
	}
	if m1[0].Users[0].UserName != "alice" || m1[0].Users[1].UserName != "bob" {
		t.Fatalf("m1 👍 users = %+v", m1[0].Users)
	}

	m2 := got["m2"]
	if len(m2) != 1 || m2[0].Count != 1 || m2[0].Users[0].UserID != "u3" {
		t.Fatalf("m2 groups = %+v", m2)
	}
}

func TestAggregateKeepsFirstSeenOrder(t *testing.T) {
	rows := []store.ReactionRecord{
		row("m1", "u1", "alice", "🎉"),
		row("m1", "u2", "bob", "👍"),
		row("m1", "u3", "carol", "🎉"),
		row("m1", "u4", "dan", "😂"),
	}

	groups := Aggregate(rows)["m1"]
	want := []string{"🎉", "👍", "😂"}
	if len(groups) != len(want) {
		t.Fatalf("got %d groups, want %d", len(groups), len(want))
	}
	for i, emoji := range want {
		if groups[i].Emoji != emoji {
			t.Fatalf("group %d emoji = %s, want %s", i, groups[i].Emoji, emoji)
		}
	}
}
