// Package signaling relays WebRTC negotiation messages from one connection
// to another, addressed by connection identifier.
package signaling

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"screenshare/broker"
	"screenshare/database"
	"screenshare/metric"
	"screenshare/types/client/response"
)

var (
	// ErrInvalidKind is returned when the message kind is not offer, answer or ice-candidate.
	ErrInvalidKind = errors.New("invalid negotiation message kind")

	// ErrTargetNotFound is returned when the target connection is not registered.
	ErrTargetNotFound = errors.New("target connection not found")
)

// Signaler delivers offers, answers and ICE candidates to their target.
type Signaler struct {
	db        database.Database
	publisher broker.Publisher
	metrics   *metric.Metrics
	logger    *logrus.Entry
}

var _ Relayer = (*Signaler)(nil)

// New creates a Signaler.
func New(db database.Database, publisher broker.Publisher, metrics *metric.Metrics, logger *logrus.Entry) *Signaler {
	return &Signaler{
		db:        db,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
}

// Relay enqueues the payload for to, unmodified, tagged with from. It never
// blocks; a full target queue drops the message.
func (s *Signaler) Relay(kind string, payload json.RawMessage, from, to string) error {
	message, err := build(kind, payload, from)
	if err != nil {
		return err
	}

	if _, err := s.db.FindConnectionInfoByID(to); err != nil {
		if errors.Is(err, database.ErrConnectionNotFound) {
			s.metrics.IncrementDropped(metric.ReasonTargetGone)
			return fmt.Errorf("%s to %s: %w", kind, to, ErrTargetNotFound)
		}
		return err
	}

	if err := s.publisher.Publish(broker.Detail(to), message); err != nil {
		switch {
		case errors.Is(err, broker.ErrNoSubscriber):
			// Registered but already unsubscribing.
			s.metrics.IncrementDropped(metric.ReasonTargetGone)
			return fmt.Errorf("%s to %s: %w", kind, to, ErrTargetNotFound)
		case errors.Is(err, broker.ErrDropped):
			s.metrics.IncrementDropped(metric.ReasonQueueFull)
			s.logger.WithFields(logrus.Fields{"kind": kind, "socket_id": to}).Warn("Outbound queue full, message dropped")
			return nil
		default:
			return err
		}
	}

	s.metrics.IncrementRelayed(kind)
	return nil
}

func build(kind string, payload json.RawMessage, from string) (any, error) {
	switch kind {
	case response.OFFER:
		return &response.Offer{Type: response.OFFER, Offer: payload, From: from}, nil
	case response.ANSWER:
		return &response.Answer{Type: response.ANSWER, Answer: payload, From: from}, nil
	case response.ICE_CANDIDATE:
		return &response.ICECandidate{Type: response.ICE_CANDIDATE, Candidate: payload, From: from}, nil
	default:
		return nil, fmt.Errorf("%q: %w", kind, ErrInvalidKind)
	}
}
