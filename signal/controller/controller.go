package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"screenshare/broker/subscription"
	"screenshare/coordinator"
	"screenshare/pkg/socket"
	"screenshare/room"
	"screenshare/signal/signaling"
	"screenshare/types/client/request"
	"screenshare/types/client/response"
)

var (
	// ErrBadRequest is returned when a request payload is malformed or incomplete.
	ErrBadRequest = errors.New("bad request")

	// ErrUnknownType is returned when the request type is not supported.
	ErrUnknownType = errors.New("unknown request type")
)

// Controller reads requests from a socket, dispatches them and writes the
// connection's outbound queue back to the socket.
type Controller struct {
	lifecycle  Lifecycle
	relay      signaling.Relayer
	logger     *logrus.Entry
	debug      bool
	pingPeriod time.Duration
}

var _ Processor = (*Controller)(nil)

// New creates a new instance of Controller.
func New(l Lifecycle, r signaling.Relayer, logger *logrus.Entry, debug bool) *Controller {
	return &Controller{
		lifecycle:  l,
		relay:      r,
		logger:     logger,
		debug:      debug,
		pingPeriod: socket.PingPeriod,
	}
}

// Process serves the socket until it is closed. The connection is cleaned up
// however the loop ends.
func (c *Controller) Process(s socket.Socket) error {
	// 01. Register the connection and its outbound queue
	id, sub, err := c.lifecycle.Activate(s.RemoteAddr())
	if err != nil {
		return fmt.Errorf("failed to activate: %w", err)
	}
	logger := c.logger.WithField("socket_id", id)

	// 02. Write the outbound queue until it is closed by Deactivate
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.sendResponse(s, sub, logger)
	}()

	defer func() {
		c.lifecycle.Deactivate(id, sub)
		<-done
	}()

	// 03. Read requests sequentially
	return c.receiveRequest(s, id, sub, logger)
}

// sendResponse writes queued messages to the socket and keeps it alive with
// pings. It returns once the queue is closed and drained.
func (c *Controller) sendResponse(s socket.Socket, sub *subscription.Subscription, logger *logrus.Entry) {
	ticker := time.NewTicker(c.pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-sub.Receive():
			if !ok {
				return
			}
			if err := s.WriteJSON(msg); err != nil {
				logger.WithError(err).Debug("Failed to send response")
				c.close(s, logger)
				return
			}
		case <-ticker.C:
			if err := s.Ping(); err != nil {
				logger.WithError(err).Debug("Failed to ping")
				c.close(s, logger)
				return
			}
		}
	}
}

// receiveRequest reads requests until the socket fails or closes. A frame
// that does not decode is answered with bad-request and the loop goes on.
func (c *Controller) receiveRequest(s socket.Socket, id string, sub *subscription.Subscription, logger *logrus.Entry) error {
	for {
		data, err := s.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				return fmt.Errorf("failed to read request: %w", err)
			}
			logger.WithError(err).Debug("Socket closed")
			return nil
		}

		var req request.Common
		if err := json.Unmarshal(data, &req); err != nil {
			logger.WithError(err).Debug("Malformed message")
			c.reply(sub, "", fmt.Errorf("malformed message: %v: %w", err, ErrBadRequest))
			continue
		}

		if err := c.handleRequest(req, id); err != nil {
			if errors.Is(err, signaling.ErrTargetNotFound) {
				logger.WithError(err).Debug("Relay target gone")
				continue
			}
			logger.WithError(err).WithField("type", req.Type).Info("Request rejected")
			c.reply(sub, req.Type, err)
		}
	}
}

// handleRequest parses the request type and calls the corresponding handler.
func (c *Controller) handleRequest(req request.Common, id string) error {
	switch req.Type {
	case request.JOIN_ROOM:
		return c.handleJoinRoom(req, id)
	case request.LEAVE_ROOM:
		return c.handleLeaveRoom(req, id)
	case request.OFFER:
		var payload request.Offer
		if err := decode(req, &payload); err != nil {
			return err
		}
		return c.relayTo(req.Type, payload.Offer, id, payload.To)
	case request.ANSWER:
		var payload request.Answer
		if err := decode(req, &payload); err != nil {
			return err
		}
		return c.relayTo(req.Type, payload.Answer, id, payload.To)
	case request.ICE_CANDIDATE:
		var payload request.ICECandidate
		if err := decode(req, &payload); err != nil {
			return err
		}
		return c.relayTo(req.Type, payload.Candidate, id, payload.To)
	case request.START_SHARING:
		var payload request.Sharing
		if err := decode(req, &payload); err != nil {
			return err
		}
		return c.lifecycle.StartSharing(id, payload.RoomID)
	case request.STOP_SHARING:
		var payload request.Sharing
		if err := decode(req, &payload); err != nil {
			return err
		}
		return c.lifecycle.StopSharing(id, payload.RoomID)
	default:
		return fmt.Errorf("%q: %w", req.Type, ErrUnknownType)
	}
}

func (c *Controller) handleJoinRoom(req request.Common, id string) error {
	var payload request.JoinRoom
	if err := decode(req, &payload); err != nil {
		return err
	}
	if payload.RoomID == "" {
		return fmt.Errorf("roomId is required: %w", ErrBadRequest)
	}
	return c.lifecycle.Join(id, payload.RoomID, payload.Nickname)
}

func (c *Controller) handleLeaveRoom(req request.Common, id string) error {
	var payload request.LeaveRoom
	if err := decode(req, &payload); err != nil {
		return err
	}
	return c.lifecycle.Leave(id, payload.RoomID)
}

func (c *Controller) relayTo(kind string, payload json.RawMessage, from, to string) error {
	if to == "" {
		return fmt.Errorf("to is required: %w", ErrBadRequest)
	}
	if len(payload) == 0 {
		return fmt.Errorf("%s is required: %w", kind, ErrBadRequest)
	}
	return c.relay.Relay(kind, payload, from, to)
}

// reply enqueues an error message for the requesting connection.
func (c *Controller) reply(sub *subscription.Subscription, reqType string, err error) {
	code := errorCode(err)
	message := code
	if c.debug || code != response.CodeInternal {
		message = err.Error()
	}
	sub.Send(&response.Error{
		Type:    response.ERROR,
		Code:    code,
		Message: message,
		Request: reqType,
	})
}

func (c *Controller) close(s socket.Socket, logger *logrus.Entry) {
	if err := s.Close(); err != nil {
		logger.WithError(err).Debug("Failed to close socket")
	}
}

// decode unmarshals the request payload. A missing payload leaves v zero.
func decode(req request.Common, v any) error {
	if len(req.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(req.Payload, v); err != nil {
		return fmt.Errorf("invalid %s payload: %v: %w", req.Type, err, ErrBadRequest)
	}
	return nil
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, ErrUnknownType):
		return response.CodeUnknownType
	case errors.Is(err, ErrBadRequest), errors.Is(err, room.ErrInvalidRoomID):
		return response.CodeBadRequest
	case errors.Is(err, coordinator.ErrNotInRoom), errors.Is(err, room.ErrNotMember):
		return response.CodeNotInRoom
	case errors.Is(err, room.ErrRoomFull):
		return response.CodeRoomFull
	default:
		return response.CodeInternal
	}
}
