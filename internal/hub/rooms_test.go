package hub

import (
	"testing"

	"github.com/togisoft/t-force/internal/config"
	"github.com/togisoft/t-force/internal/domain"
)

func newBareClient(userID string) *Client {
	return NewClient(userID, domain.Identity{UserID: userID}, nil, nil, config.WebSocketConfig{SendBufferSize: 8})
}

func TestRoomIndexJoinLeave(t *testing.T) {
	idx := newRoomIndex()
	a := newBareClient("a")
	b := newBareClient("b")

	if !idx.join("room-1", a) {
		t.Fatal("first join reported already-member")
	}
	if idx.join("room-1", a) {
		t.Fatal("repeat join reported new membership")
	}
	idx.join("room-1", b)
	idx.join("room-2", a)

	if got := len(idx.members("room-1")); got != 2 {
		t.Fatalf("room-1 has %d members, want 2", got)
	}
	if !idx.isMember("room-2", a) || idx.isMember("room-2", b) {
		t.Fatal("room-2 membership wrong")
	}

	if !idx.leave("room-1", a) {
		t.Fatal("leave of a member returned false")
	}
	if idx.leave("room-1", a) {
		t.Fatal("repeat leave returned true")
	}
	if idx.isMember("room-1", a) {
		t.Fatal("a still member of room-1 after leave")
	}
}

func TestRoomIndexCleanup(t *testing.T) {
	idx := newRoomIndex()
	a := newBareClient("a")
	b := newBareClient("b")

	idx.join("room-1", a)
	idx.join("room-2", a)
	idx.join("room-1", b)

	left := idx.cleanup(a)
	if len(left) != 2 {
		t.Fatalf("cleanup returned %d rooms, want 2", len(left))
	}
	if len(idx.roomsOf(a)) != 0 {
		t.Fatal("client still indexed after cleanup")
	}
	if !idx.isMember("room-1", b) {
		t.Fatal("cleanup of a removed b's membership")
	}

	// room-2 had only a; its member set must be gone entirely.
	if got := len(idx.members("room-2")); got != 0 {
		t.Fatalf("room-2 has %d members after cleanup, want 0", got)
	}

	if got := idx.cleanup(a); len(got) != 0 {
		t.Fatalf("second cleanup returned %d rooms, want 0", len(got))
	}
}

// Both directions of the index must describe the same membership set.
func TestRoomIndexSidesAgree(t *testing.T) {
	idx := newRoomIndex()
	clients := []*Client{newBareClient("a"), newBareClient("b"), newBareClient("c")}
	rooms := []string{"r1", "r2", "r3"}

	for i, c := range clients {
		for _, r := range rooms[:i+1] {
			idx.join(r, c)
		}
	}
	idx.leave("r1", clients[2])
	idx.cleanup(clients[1])

	for _, c := range clients {
		for _, r := range idx.roomsOf(c) {
			if !idx.isMember(r, c) {
				t.Fatalf("roomsOf lists %s for %s but isMember disagrees", r, c.ID)
			}
		}
	}
	for _, r := range rooms {
		for _, m := range idx.members(r) {
			found := false
			for _, rr := range idx.roomsOf(m) {
				if rr == r {
					found = true
				}
			}
			if !found {
				t.Fatalf("members(%s) lists %s but roomsOf disagrees", r, m.ID)
			}
		}
	}
}
