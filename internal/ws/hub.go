package ws

import "sync"

// Member is one addressable room participant.
type Member interface {
	SID() string
	Send(event any)
}

// Hub maintains the room name to member-set mapping and fans events out to
// members. Membership is in-memory only and torn down with the process.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[string]Member
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[string]Member)}
}

// Join adds the member to a room, creating the room on first join. Joining a
// room twice is a no-op.
func (h *Hub) Join(room string, member Member) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[string]Member)
		h.rooms[room] = members
	}
	members[member.SID()] = member
}

// Leave removes the member from a room, dropping the room once empty.
func (h *Hub) Leave(room, sid string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[room]; ok {
		delete(members, sid)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// LeaveAll removes the member from every room. The transport layer calls this
// on disconnect.
func (h *Hub) LeaveAll(sid string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room, members := range h.rooms {
		delete(members, sid)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// Broadcast delivers the event to every current member of the room,
// including the sender. Delivery is best-effort; the membership set is
// snapshotted at call time.
func (h *Hub) Broadcast(room string, event any) {
	for _, member := range h.snapshot(room, "") {
		member.Send(event)
	}
}

// BroadcastExcept delivers the event to every member of the room except the
// named one. Used for member-joined announcements.
func (h *Hub) BroadcastExcept(room, exceptSID string, event any) {
	for _, member := range h.snapshot(room, exceptSID) {
		member.Send(event)
	}
}

// MemberCount reports the current size of a room.
func (h *Hub) MemberCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

func (h *Hub) snapshot(room, exceptSID string) []Member {
	h.mu.RLock()
	defer h.mu.RUnlock()
	members := make([]Member, 0, len(h.rooms[room]))
	for sid, member := range h.rooms[room] {
		if sid == exceptSID {
			continue
		}
		members = append(members, member)
	}
	return members
}
