package room

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrInvalidRoomID is returned when a room identifier is empty.
	ErrInvalidRoomID = errors.New("invalid room id")

	// ErrNotMember is returned when a connection is not a member of the room.
	ErrNotMember = errors.New("not a member of the room")

	// ErrRoomFull is returned when a room reached its member limit.
	ErrRoomFull = errors.New("room is full")

	// ErrInvalidMaxMembers is returned for a negative member limit.
	ErrInvalidMaxMembers = errors.New("invalid max members")
)

// Config contains the configuration for the directory.
type Config struct {
	// MaxMembers limits the members of a single room. Zero means unlimited.
	MaxMembers int
}

// Validate validates the member limit.
func (c Config) Validate() error {
	if c.MaxMembers < 0 {
		return fmt.Errorf("must not be negative, given %d: %w", c.MaxMembers, ErrInvalidMaxMembers)
	}
	return nil
}

// Directory maps room identifiers to rooms. A room exists only while it has
// at least one member. Each room is locked independently; mu only guards the
// map itself. Lock order is room before directory.
type Directory struct {
	mu       sync.Mutex
	config   Config
	rooms    map[string]*Room
	observer Observer
}

// NewDirectory creates a new instance of Directory.
func NewDirectory(config Config, observer Observer) *Directory {
	if observer == nil {
		observer = NopObserver{}
	}
	return &Directory{
		config:   config,
		rooms:    make(map[string]*Room),
		observer: observer,
	}
}

// Join adds the member to the room, creating the room if needed. Joining a
// room the connection is already in refreshes its nickname. The returned
// snapshot lists the other members and the current sharing set.
func (d *Directory) Join(roomID string, member Member) (Snapshot, error) {
	if roomID == "" {
		return Snapshot{}, ErrInvalidRoomID
	}

	r := d.lockOrCreate(roomID)
	defer r.mu.Unlock()

	if d.config.MaxMembers > 0 && !r.isMember(member.ID) && len(r.members) >= d.config.MaxMembers {
		return Snapshot{}, fmt.Errorf("%s: %w", roomID, ErrRoomFull)
	}

	r.add(member)
	snap := r.snapshot()
	d.observer.Joined(snap, member)

	peers := make([]Member, 0, len(snap.Members))
	for _, m := range snap.Members {
		if m.ID != member.ID {
			peers = append(peers, m)
		}
	}
	return Snapshot{ID: roomID, Members: peers, Sharing: snap.Sharing}, nil
}

// Leave removes the connection from the room and from its sharing roster. The
// room is deleted when its last member leaves. The returned snapshot is the
// state after removal.
func (d *Directory) Leave(roomID, connID string) (Snapshot, error) {
	r := d.lock(roomID)
	if r == nil {
		return Snapshot{}, fmt.Errorf("%s in %s: %w", connID, roomID, ErrNotMember)
	}
	defer r.mu.Unlock()

	member, ok := r.remove(connID)
	if !ok {
		return Snapshot{}, fmt.Errorf("%s in %s: %w", connID, roomID, ErrNotMember)
	}
	if r.empty() {
		d.delete(r)
	}

	snap := r.snapshot()
	d.observer.Left(snap, member)
	return snap, nil
}

// Members returns the members of the room in join order.
func (d *Directory) Members(roomID string) []Member {
	r := d.lock(roomID)
	if r == nil {
		return []Member{}
	}
	defer r.mu.Unlock()
	return r.snapshot().Members
}

// Snapshot returns the state of the room and whether it exists.
func (d *Directory) Snapshot(roomID string) (Snapshot, bool) {
	r := d.lock(roomID)
	if r == nil {
		return Snapshot{ID: roomID, Members: []Member{}, Sharing: []string{}}, false
	}
	defer r.mu.Unlock()
	return r.snapshot(), true
}

// Exists reports whether the room currently has members.
func (d *Directory) Exists(roomID string) bool {
	_, ok := d.Snapshot(roomID)
	return ok
}

// Len returns the number of rooms.
func (d *Directory) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.rooms)
}

// lock returns the live room locked, or nil if it does not exist.
func (d *Directory) lock(roomID string) *Room {
	for {
		d.mu.Lock()
		r, ok := d.rooms[roomID]
		d.mu.Unlock()
		if !ok {
			return nil
		}

		r.mu.Lock()
		if !r.deleted {
			return r
		}
		r.mu.Unlock()
	}
}

// lockOrCreate returns the room locked, creating it if it does not exist.
func (d *Directory) lockOrCreate(roomID string) *Room {
	for {
		d.mu.Lock()
		r, ok := d.rooms[roomID]
		if !ok {
			// Nobody else can hold the lock of a room that is not published
			// yet, so taking it under d.mu cannot deadlock.
			r = newRoom(roomID)
			r.mu.Lock()
			d.rooms[roomID] = r
			d.mu.Unlock()
			return r
		}
		d.mu.Unlock()

		r.mu.Lock()
		if !r.deleted {
			return r
		}
		r.mu.Unlock()
	}
}

// delete removes r from the map. r must be locked.
func (d *Directory) delete(r *Room) {
	r.deleted = true

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.rooms[r.id] == r {
		delete(d.rooms, r.id)
	}
}
