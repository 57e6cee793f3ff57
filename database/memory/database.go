// Package memory provides an in-memory database implementation.
package memory

import (
	"fmt"
	"slices"
	"time"

	"github.com/hashicorp/go-memdb"

	"screenshare/database"
)

// DB is a memory-backed database.
type DB struct {
	db *memdb.MemDB
}

// New creates a new memory-backed database.
func New() *DB {
	db, err := memdb.NewMemDB(schema)
	if err != nil {
		panic(err)
	}
	return &DB{
		db: db,
	}
}

// CreateConnectionInfo registers a new connection with no nickname and no rooms.
func (d *DB) CreateConnectionInfo(id, remoteAddr string) (*database.ConnectionInfo, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	existing, err := txn.First(tblConnections, idxConnID, id)
	if err != nil {
		return nil, fmt.Errorf("find connection by id: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%s: %w", id, database.ErrConnectionAlreadyExists)
	}

	info := &database.ConnectionInfo{
		ID:         id,
		RemoteAddr: remoteAddr,
		CreatedAt:  time.Now(),
	}
	if err := txn.Insert(tblConnections, info); err != nil {
		return nil, fmt.Errorf("insert connection: %w", err)
	}
	txn.Commit()
	return info.DeepCopy(), nil
}

// FindConnectionInfoByID finds a connection by its ID.
func (d *DB) FindConnectionInfoByID(id string) (*database.ConnectionInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tblConnections, idxConnID, id)
	if err != nil {
		return nil, fmt.Errorf("find connection by id: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%s: %w", id, database.ErrConnectionNotFound)
	}
	return raw.(*database.ConnectionInfo).DeepCopy(), nil
}

// UpdateConnectionNickname sets the nickname of a connection.
func (d *DB) UpdateConnectionNickname(id, nickname string) (*database.ConnectionInfo, error) {
	return d.update(id, func(info *database.ConnectionInfo) {
		info.Nickname = nickname
	})
}

// UpdateConnectionRooms replaces the room list of a connection.
func (d *DB) UpdateConnectionRooms(id string, rooms []string) (*database.ConnectionInfo, error) {
	return d.update(id, func(info *database.ConnectionInfo) {
		info.Rooms = slices.Clone(rooms)
	})
}

// DeleteConnectionInfoByID deletes a connection and returns what was stored.
func (d *DB) DeleteConnectionInfoByID(id string) (*database.ConnectionInfo, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tblConnections, idxConnID, id)
	if err != nil {
		return nil, fmt.Errorf("find connection by id: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%s: %w", id, database.ErrConnectionNotFound)
	}
	if err := txn.Delete(tblConnections, raw); err != nil {
		return nil, fmt.Errorf("delete connection: %w", err)
	}
	txn.Commit()
	return raw.(*database.ConnectionInfo).DeepCopy(), nil
}

// CountConnectionInfos returns the number of registered connections.
func (d *DB) CountConnectionInfos() (int, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(tblConnections, idxConnID)
	if err != nil {
		return 0, fmt.Errorf("list connections: %w", err)
	}
	count := 0
	for obj := it.Next(); obj != nil; obj = it.Next() {
		count++
	}
	return count, nil
}

// update applies fn to a copy of the stored connection and writes it back.
// Stored objects are never mutated in place because readers may hold them.
func (d *DB) update(id string, fn func(*database.ConnectionInfo)) (*database.ConnectionInfo, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tblConnections, idxConnID, id)
	if err != nil {
		return nil, fmt.Errorf("find connection by id: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%s: %w", id, database.ErrConnectionNotFound)
	}

	info := raw.(*database.ConnectionInfo).DeepCopy()
	fn(info)
	if err := txn.Insert(tblConnections, info); err != nil {
		return nil, fmt.Errorf("insert connection: %w", err)
	}
	txn.Commit()
	return info.DeepCopy(), nil
}
