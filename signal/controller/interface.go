// Package controller handles the messages of a signaling connection.
package controller

import (
	"screenshare/broker/subscription"
	"screenshare/pkg/socket"
)

// Processor serves a single socket until it closes.
type Processor interface {
	Process(s socket.Socket) error
}

// Lifecycle is the connection lifecycle the controller drives.
type Lifecycle interface {
	Activate(remoteAddr string) (string, *subscription.Subscription, error)
	Join(id, roomID, nickname string) error
	Leave(id, roomID string) error
	StartSharing(id, roomID string) error
	StopSharing(id, roomID string) error
	Deactivate(id string, sub *subscription.Subscription)
}
