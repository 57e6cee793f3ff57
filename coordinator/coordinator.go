// Package coordinator manages the lifecycle of signaling connections: their
// registration, room membership, sharing state and cleanup on disconnect.
package coordinator

import (
	"errors"
	"fmt"
	"slices"

	"github.com/lithammer/shortuuid/v4"
	"github.com/sirupsen/logrus"

	"screenshare/broker"
	"screenshare/broker/subscription"
	"screenshare/database"
	"screenshare/metric"
	"screenshare/room"
	"screenshare/types/client/response"
)

var (
	// ErrNotInRoom is returned when the connection is not a member of the room
	// the request refers to, or of any room when none was given.
	ErrNotInRoom = errors.New("connection is not in the room")
)

// Coordinator orchestrates the connection registry, the outbound queues and
// the room directory.
type Coordinator struct {
	config    Config
	broker    *broker.Broker
	database  database.Database
	directory *room.Directory
	metrics   *metric.Metrics
	logger    *logrus.Entry
}

// New creates a new instance of Coordinator.
func New(c Config, b *broker.Broker, db database.Database, d *room.Directory, m *metric.Metrics, logger *logrus.Entry) *Coordinator {
	return &Coordinator{
		config:    c,
		broker:    b,
		database:  db,
		directory: d,
		metrics:   m,
		logger:    logger,
	}
}

// Activate registers a new connection, subscribes its outbound queue and
// enqueues the connected message carrying its identifier.
func (c *Coordinator) Activate(remoteAddr string) (string, *subscription.Subscription, error) {
	id := shortuuid.New()

	if _, err := c.database.CreateConnectionInfo(id, remoteAddr); err != nil {
		return "", nil, fmt.Errorf("registering %s: %w", id, err)
	}

	sub, err := c.broker.Subscribe(broker.Detail(id))
	if err != nil {
		if _, derr := c.database.DeleteConnectionInfoByID(id); derr != nil {
			c.logger.WithError(derr).WithField("socket_id", id).Error("Failed to roll back registration")
		}
		return "", nil, fmt.Errorf("subscribing %s: %w", id, err)
	}

	c.metrics.IncrementWebSocketConnections()
	sub.Send(&response.Connected{Type: response.CONNECTED, SocketID: id})
	c.logger.WithFields(logrus.Fields{"socket_id": id, "remote_addr": remoteAddr}).Info("Connection activated")
	return id, sub, nil
}

// Join adds the connection to the room under nickname. Unless MultiRoom is
// set, the rooms joined before are left once the join succeeded.
func (c *Coordinator) Join(id, roomID, nickname string) error {
	if roomID == "" {
		return room.ErrInvalidRoomID
	}

	info, err := c.database.UpdateConnectionNickname(id, nickname)
	if err != nil {
		return err
	}

	if _, err := c.directory.Join(roomID, room.Member{ID: id, Nickname: nickname}); err != nil {
		return err
	}

	rooms := []string{roomID}
	if c.config.MultiRoom {
		rooms = info.Rooms
		if !info.InRoom(roomID) {
			rooms = append(rooms, roomID)
		}
	} else {
		for _, previous := range info.Rooms {
			if previous == roomID {
				continue
			}
			if _, err := c.directory.Leave(previous, id); err != nil {
				c.logger.WithError(err).WithFields(logrus.Fields{"socket_id": id, "room_id": previous}).Warn("Failed to leave previous room")
			}
		}
	}

	if _, err := c.database.UpdateConnectionRooms(id, rooms); err != nil {
		return err
	}

	c.updateRoomMetrics()
	c.logger.WithFields(logrus.Fields{"socket_id": id, "room_id": roomID}).Debug("Joined room")
	return nil
}

// Leave removes the connection from the room, or from its first room when
// roomID is empty.
func (c *Coordinator) Leave(id, roomID string) error {
	info, roomID, err := c.resolve(id, roomID)
	if err != nil {
		return err
	}

	if _, err := c.directory.Leave(roomID, id); err != nil {
		if errors.Is(err, room.ErrNotMember) {
			return fmt.Errorf("%s: %w", roomID, ErrNotInRoom)
		}
		return err
	}

	rooms := slices.DeleteFunc(slices.Clone(info.Rooms), func(r string) bool { return r == roomID })
	if _, err := c.database.UpdateConnectionRooms(id, rooms); err != nil {
		return err
	}

	c.updateRoomMetrics()
	c.logger.WithFields(logrus.Fields{"socket_id": id, "room_id": roomID}).Debug("Left room")
	return nil
}

// StartSharing marks the connection as sharing in the room, or in its first
// room when roomID is empty.
func (c *Coordinator) StartSharing(id, roomID string) error {
	_, roomID, err := c.resolve(id, roomID)
	if err != nil {
		return err
	}

	if _, err := c.directory.StartSharing(roomID, id); err != nil {
		if errors.Is(err, room.ErrNotMember) {
			return fmt.Errorf("%s: %w", roomID, ErrNotInRoom)
		}
		return err
	}

	c.metrics.SetSharers(c.directory.Sharers())
	return nil
}

// StopSharing removes the connection from the sharing set of the room, or of
// its first room when roomID is empty. Stopping without sharing is a no-op.
func (c *Coordinator) StopSharing(id, roomID string) error {
	_, roomID, err := c.resolve(id, roomID)
	if err != nil {
		return err
	}

	if _, _, err := c.directory.StopSharing(roomID, id); err != nil {
		if errors.Is(err, room.ErrNotMember) {
			return fmt.Errorf("%s: %w", roomID, ErrNotInRoom)
		}
		return err
	}

	c.metrics.SetSharers(c.directory.Sharers())
	return nil
}

// Deactivate removes every trace of the connection: it is deregistered so it
// can no longer be addressed, leaves each of its rooms, and its outbound queue
// is closed. Remaining members receive user-left with the updated sharing set.
func (c *Coordinator) Deactivate(id string, sub *subscription.Subscription) {
	logger := c.logger.WithField("socket_id", id)

	var rooms []string
	info, err := c.database.DeleteConnectionInfoByID(id)
	if err != nil {
		logger.WithError(err).Warn("Failed to deregister connection")
	} else {
		rooms = info.Rooms
	}

	for _, roomID := range rooms {
		if _, err := c.directory.Leave(roomID, id); err != nil {
			logger.WithError(err).WithField("room_id", roomID).Warn("Failed to leave room")
		}
	}

	if sub != nil {
		if err := c.broker.Unsubscribe(broker.Detail(id), sub); err != nil {
			logger.WithError(err).Debug("Failed to unsubscribe")
		}
	}

	c.metrics.DecrementWebSocketConnections()
	c.updateRoomMetrics()
	logger.Info("Connection deactivated")
}

// resolve looks the connection up and picks its first room if roomID is
// empty. A room the connection never joined gives ErrNotInRoom without
// touching the directory.
func (c *Coordinator) resolve(id, roomID string) (*database.ConnectionInfo, string, error) {
	info, err := c.database.FindConnectionInfoByID(id)
	if err != nil {
		return nil, "", err
	}
	if roomID == "" {
		roomID = info.FirstRoom()
	}
	if roomID == "" {
		return nil, "", ErrNotInRoom
	}
	if !info.InRoom(roomID) {
		return nil, "", fmt.Errorf("%s: %w", roomID, ErrNotInRoom)
	}
	return info, roomID, nil
}

func (c *Coordinator) updateRoomMetrics() {
	c.metrics.SetRooms(c.directory.Len())
	c.metrics.SetSharers(c.directory.Sharers())
}
