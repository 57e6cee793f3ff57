package room

import "fmt"

// StartSharing marks the connection as sharing in the room. The connection
// must be a member. Starting again while already sharing re-announces it.
// It returns the updated sharing set.
func (d *Directory) StartSharing(roomID, connID string) ([]string, error) {
	r := d.lock(roomID)
	if r == nil {
		return []string{}, fmt.Errorf("%s in %s: %w", connID, roomID, ErrNotMember)
	}
	defer r.mu.Unlock()

	if !r.isMember(connID) {
		return r.sharingSet(), fmt.Errorf("%s in %s: %w", connID, roomID, ErrNotMember)
	}

	r.share(connID)
	snap := r.snapshot()
	d.observer.ShareStarted(snap, connID)
	return snap.Sharing, nil
}

// StopSharing removes the connection from the sharing set. It returns the
// updated sharing set and whether the connection was sharing; nothing is
// announced if it was not.
func (d *Directory) StopSharing(roomID, connID string) ([]string, bool, error) {
	r := d.lock(roomID)
	if r == nil {
		return []string{}, false, fmt.Errorf("%s in %s: %w", connID, roomID, ErrNotMember)
	}
	defer r.mu.Unlock()

	if !r.isMember(connID) {
		return r.sharingSet(), false, fmt.Errorf("%s in %s: %w", connID, roomID, ErrNotMember)
	}

	if !r.unshare(connID) {
		return r.sharingSet(), false, nil
	}
	snap := r.snapshot()
	d.observer.ShareStopped(snap, connID)
	return snap.Sharing, true, nil
}

// SharingSet returns the connections sharing in the room, empty if none.
func (d *Directory) SharingSet(roomID string) []string {
	r := d.lock(roomID)
	if r == nil {
		return []string{}
	}
	defer r.mu.Unlock()
	return r.sharingSet()
}

// Sharers returns the total number of sharing connections over all rooms.
func (d *Directory) Sharers() int {
	d.mu.Lock()
	rooms := make([]*Room, 0, len(d.rooms))
	for _, r := range d.rooms {
		rooms = append(rooms, r)
	}
	d.mu.Unlock()

	total := 0
	for _, r := range rooms {
		r.mu.Lock()
		if !r.deleted {
			total += len(r.sharing)
		}
		r.mu.Unlock()
	}
	return total
}
