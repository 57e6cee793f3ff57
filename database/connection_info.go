package database

import (
	"slices"
	"time"
)

// ConnectionInfo is a struct for a live signaling connection.
type ConnectionInfo struct {
	ID         string
	Nickname   string
	Rooms      []string
	RemoteAddr string
	CreatedAt  time.Time
}

// InRoom checks if the connection is a member of the given room.
func (c *ConnectionInfo) InRoom(roomID string) bool {
	return slices.Contains(c.Rooms, roomID)
}

// FirstRoom returns the room the connection joined first, or an empty string
// if it is not in any room.
func (c *ConnectionInfo) FirstRoom() string {
	if len(c.Rooms) == 0 {
		return ""
	}
	return c.Rooms[0]
}

// DeepCopy creates a deep copy of the given ConnectionInfo.
func (c *ConnectionInfo) DeepCopy() *ConnectionInfo {
	return &ConnectionInfo{
		ID:         c.ID,
		Nickname:   c.Nickname,
		Rooms:      slices.Clone(c.Rooms),
		RemoteAddr: c.RemoteAddr,
		CreatedAt:  c.CreatedAt,
	}
}
