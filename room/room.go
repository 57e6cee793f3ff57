// Package room keeps room membership and the sharing roster of each room.
package room

import (
	"slices"
	"sync"
)

// Member is a participant of a room.
type Member struct {
	ID       string
	Nickname string
}

// Snapshot is a consistent copy of a room's state.
type Snapshot struct {
	ID      string
	Members []Member
	Sharing []string
}

// MemberIDs returns the identifiers of the snapshot members in join order.
func (s Snapshot) MemberIDs() []string {
	ids := make([]string, 0, len(s.Members))
	for _, m := range s.Members {
		ids = append(ids, m.ID)
	}
	return ids
}

// Except returns the member identifiers without id.
func (s Snapshot) Except(id string) []string {
	ids := make([]string, 0, len(s.Members))
	for _, m := range s.Members {
		if m.ID != id {
			ids = append(ids, m.ID)
		}
	}
	return ids
}

// Room holds the members of a room and its sharing roster. All fields are
// guarded by mu.
type Room struct {
	mu      sync.Mutex
	id      string
	members map[string]Member
	order   []string
	sharing []string

	// deleted is set once the room was removed from the directory. A
	// goroutine that looked the room up before that must retry.
	deleted bool
}

func newRoom(id string) *Room {
	return &Room{
		id:      id,
		members: make(map[string]Member),
	}
}

func (r *Room) isMember(id string) bool {
	_, ok := r.members[id]
	return ok
}

func (r *Room) add(m Member) bool {
	_, exists := r.members[m.ID]
	r.members[m.ID] = m
	if !exists {
		r.order = append(r.order, m.ID)
	}
	return !exists
}

func (r *Room) remove(id string) (Member, bool) {
	m, ok := r.members[id]
	if !ok {
		return Member{}, false
	}
	delete(r.members, id)
	r.order = slices.DeleteFunc(r.order, func(s string) bool { return s == id })
	r.unshare(id)
	return m, true
}

func (r *Room) share(id string) {
	if !slices.Contains(r.sharing, id) {
		r.sharing = append(r.sharing, id)
	}
}

func (r *Room) unshare(id string) bool {
	idx := slices.Index(r.sharing, id)
	if idx < 0 {
		return false
	}
	r.sharing = slices.Delete(r.sharing, idx, idx+1)
	if len(r.sharing) == 0 {
		r.sharing = nil
	}
	return true
}

func (r *Room) empty() bool {
	return len(r.members) == 0
}

func (r *Room) snapshot() Snapshot {
	members := make([]Member, 0, len(r.order))
	for _, id := range r.order {
		members = append(members, r.members[id])
	}
	return Snapshot{
		ID:      r.id,
		Members: members,
		Sharing: r.sharingSet(),
	}
}

func (r *Room) sharingSet() []string {
	if len(r.sharing) == 0 {
		return []string{}
	}
	return slices.Clone(r.sharing)
}
