package hub

// RoomIndex tracks which clients are subscribed to which rooms, with the
// reverse index kept as an exact mutual inverse: a client appears in a
// room's set if and only if the room appears in that client's set.
// Like the Registry, it is guarded by the Hub's mutex.
type RoomIndex struct {
	rooms    map[string]map[*Client]struct{}
	byClient map[*Client]map[string]struct{}
}

func newRoomIndex() *RoomIndex {
	return &RoomIndex{
		rooms:    make(map[string]map[*Client]struct{}),
		byClient: make(map[*Client]map[string]struct{}),
	}
}

// join adds the client to the room. Returns false if the client was already
// a member, in which case nothing changes.
func (idx *RoomIndex) join(roomID string, c *Client) bool {
	members, ok := idx.rooms[roomID]
	if !ok {
		members = make(map[*Client]struct{})
		idx.rooms[roomID] = members
	}
	if _, ok := members[c]; ok {
		return false
	}
	members[c] = struct{}{}

	roomSet, ok := idx.byClient[c]
	if !ok {
		roomSet = make(map[string]struct{})
		idx.byClient[c] = roomSet
	}
	roomSet[roomID] = struct{}{}
	return true
}

// leave removes the client from the room. Returns false if the client was
// not a member.
func (idx *RoomIndex) leave(roomID string, c *Client) bool {
	members, ok := idx.rooms[roomID]
	if !ok {
		return false
	}
	if _, ok := members[c]; !ok {
		return false
	}
	delete(members, c)
	if len(members) == 0 {
		delete(idx.rooms, roomID)
	}

	if roomSet, ok := idx.byClient[c]; ok {
		delete(roomSet, roomID)
		if len(roomSet) == 0 {
			delete(idx.byClient, c)
		}
	}
	return true
}

// cleanup removes the client from every room it belongs to and returns the
// rooms it left, so the Hub can broadcast user_left to each.
func (idx *RoomIndex) cleanup(c *Client) []string {
	roomSet, ok := idx.byClient[c]
	if !ok {
		return nil
	}
	left := make([]string, 0, len(roomSet))
	for roomID := range roomSet {
		left = append(left, roomID)
	}
	for _, roomID := range left {
		idx.leave(roomID, c)
	}
	return left
}

// members returns a snapshot of the room's subscribers.
func (idx *RoomIndex) members(roomID string) []*Client {
	set, ok := idx.rooms[roomID]
	if !ok {
		return nil
	}
	out := make([]*Client, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}

func (idx *RoomIndex) isMember(roomID string, c *Client) bool {
	set, ok := idx.rooms[roomID]
	if !ok {
		return false
	}
	_, ok = set[c]
	return ok
}

// roomsOf returns the rooms the client is currently subscribed to.
func (idx *RoomIndex) roomsOf(c *Client) []string {
	set, ok := idx.byClient[c]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(set))
	for roomID := range set {
		out = append(out, roomID)
	}
	return out
}
