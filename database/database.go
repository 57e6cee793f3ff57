// Package database provides an interface for the connection registry.
package database

import (
	"errors"
)

var (
	// ErrConnectionAlreadyExists is returned when the connection already exists.
	ErrConnectionAlreadyExists = errors.New("connection already exists")

	// ErrConnectionNotFound is returned when the connection is not found.
	ErrConnectionNotFound = errors.New("connection not found")
)

// Database is an interface for connection registry operations.
type Database interface {
	CreateConnectionInfo(id, remoteAddr string) (*ConnectionInfo, error)
	FindConnectionInfoByID(id string) (*ConnectionInfo, error)
	UpdateConnectionNickname(id, nickname string) (*ConnectionInfo, error)
	UpdateConnectionRooms(id string, rooms []string) (*ConnectionInfo, error)
	DeleteConnectionInfoByID(id string) (*ConnectionInfo, error)
	CountConnectionInfos() (int, error)
}
