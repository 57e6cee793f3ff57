// Package presence announces room membership and sharing changes to the
// members of the room.
package presence

import (
	"errors"

	"github.com/sirupsen/logrus"

	"screenshare/broker"
	"screenshare/metric"
	"screenshare/room"
	"screenshare/types/client/response"
)

// Notifier turns directory notifications into presence events and enqueues
// them on the outbound queue of every recipient.
type Notifier struct {
	publisher broker.Publisher
	metrics   *metric.Metrics
	logger    *logrus.Entry
}

var _ room.Observer = (*Notifier)(nil)

// New creates a Notifier publishing through publisher.
func New(publisher broker.Publisher, metrics *metric.Metrics, logger *logrus.Entry) *Notifier {
	return &Notifier{
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
}

// Joined acknowledges the join to the member with the other members and the
// sharing set, and sends user-joined to every other member.
func (n *Notifier) Joined(snap room.Snapshot, member room.Member) {
	peers := make([]response.Peer, 0, len(snap.Members))
	for _, m := range snap.Members {
		if m.ID != member.ID {
			peers = append(peers, response.Peer{SocketID: m.ID, Nickname: m.Nickname})
		}
	}
	n.send(response.ROOM_JOINED, []string{member.ID}, &response.RoomJoined{
		Type:         response.ROOM_JOINED,
		RoomID:       snap.ID,
		SocketID:     member.ID,
		Peers:        peers,
		SharingUsers: snap.Sharing,
	})

	n.send(response.USER_JOINED, snap.Except(member.ID), &response.UserJoined{
		Type:     response.USER_JOINED,
		RoomID:   snap.ID,
		SocketID: member.ID,
		Nickname: member.Nickname,
	})
}

// Left sends user-left with the updated sharing set to the remaining members.
func (n *Notifier) Left(snap room.Snapshot, member room.Member) {
	n.send(response.USER_LEFT, snap.Except(member.ID), &response.UserLeft{
		Type:         response.USER_LEFT,
		RoomID:       snap.ID,
		SocketID:     member.ID,
		SharingUsers: snap.Sharing,
	})
}

// ShareStarted sends share-started to the whole room, the sharer included.
func (n *Notifier) ShareStarted(snap room.Snapshot, from string) {
	n.send(response.SHARE_STARTED, snap.MemberIDs(), &response.ShareStarted{
		Type:         response.SHARE_STARTED,
		RoomID:       snap.ID,
		From:         from,
		SharingUsers: snap.Sharing,
	})
}

// ShareStopped sends share-stopped to the whole room, the sharer included.
func (n *Notifier) ShareStopped(snap room.Snapshot, from string) {
	n.send(response.SHARE_STOPPED, snap.MemberIDs(), &response.ShareStopped{
		Type:         response.SHARE_STOPPED,
		RoomID:       snap.ID,
		From:         from,
		SharingUsers: snap.Sharing,
	})
}

func (n *Notifier) send(eventType string, recipients []string, message any) {
	sent := 0
	for _, id := range recipients {
		err := n.publisher.Publish(broker.Detail(id), message)
		switch {
		case err == nil:
			sent++
		case errors.Is(err, broker.ErrDropped):
			n.metrics.IncrementDropped(metric.ReasonQueueFull)
			n.logger.WithField("socket_id", id).Warnf("Outbound queue full, %s dropped", eventType)
		default:
			// The recipient disconnected between the snapshot and the publish.
			n.metrics.IncrementDropped(metric.ReasonTargetGone)
			n.logger.WithField("socket_id", id).WithError(err).Debugf("Failed to send %s", eventType)
		}
	}
	n.metrics.AddPresenceEvents(eventType, sent)
}
