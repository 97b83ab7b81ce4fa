package hub

import "github.com/togisoft/t-force/internal/domain"

// History keeps a bounded per-room log of broadcast events so a newly
// joined connection can be backfilled. Oldest entries are evicted first once
// a room passes capacity. Purely in-memory; lost on restart.
type History struct {
	capacity int
	rooms    map[string][]domain.Event
}

func newHistory(capacity int) *History {
	return &History{
		capacity: capacity,
		rooms:    make(map[string][]domain.Event),
	}
}

func (h *History) append(roomID string, evt domain.Event) {
	buf := append(h.rooms[roomID], evt)
	if len(buf) > h.capacity {
		// Shift instead of re-slicing so the evicted head can be collected.
		copy(buf, buf[1:])
		buf = buf[:h.capacity]
	}
	h.rooms[roomID] = buf
}

// replay returns up to capacity events for the room in chronological order.
func (h *History) replay(roomID string) []domain.Event {
	buf := h.rooms[roomID]
	if len(buf) == 0 {
		return nil
	}
	out := make([]domain.Event, len(buf))
	copy(out, buf)
	return out
}
