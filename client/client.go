// Package client is a Go client of the screenshare signaling server. It is
// used by tests and by tools that take part in a room without a browser.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pion/interceptor"
	"github.com/pion/webrtc/v4"

	"screenshare/types/client/request"
	"screenshare/types/client/response"
)

const (
	eventBufferSize = 64
	writeWait       = time.Second
)

// ErrClosed is returned when the connection to the server is gone.
var ErrClosed = errors.New("client closed")

// Event is a message received from the server.
type Event struct {
	Type string
	Raw  json.RawMessage
}

// Decode unmarshals the event into one of the response types.
func (e Event) Decode(v any) error {
	return json.Unmarshal(e.Raw, v)
}

// Client is a signaling connection.
type Client struct {
	id     string
	socket *websocket.Conn
	events chan Event

	writeMu   sync.Mutex
	closeOnce sync.Once
	done      chan struct{}
}

// Dial connects to the websocket endpoint at rawURL, e.g.
// "ws://localhost:7070/ws", and waits for the connected message.
func Dial(ctx context.Context, rawURL string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial: %w", err)
	}

	var connected response.Connected
	if err := conn.ReadJSON(&connected); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to read connected message: %w", err)
	}
	if connected.Type != response.CONNECTED || connected.SocketID == "" {
		_ = conn.Close()
		return nil, fmt.Errorf("expected type '%s', got '%s'", response.CONNECTED, connected.Type)
	}

	c := &Client{
		id:     connected.SocketID,
		socket: conn,
		events: make(chan Event, eventBufferSize),
		done:   make(chan struct{}),
	}
	go c.receive()
	return c, nil
}

// ID returns the identifier the server assigned to the connection.
func (c *Client) ID() string {
	return c.id
}

// Events returns the messages received from the server. The channel is closed
// when the connection ends.
func (c *Client) Events() <-chan Event {
	return c.events
}

// Next returns the next event.
func (c *Client) Next(ctx context.Context) (Event, error) {
	select {
	case <-ctx.Done():
		return Event{}, ctx.Err()
	case e, ok := <-c.events:
		if !ok {
			return Event{}, ErrClosed
		}
		return e, nil
	}
}

// Expect returns the next event decoded into v. It fails if the event is not
// of type eventType.
func (c *Client) Expect(ctx context.Context, eventType string, v any) error {
	e, err := c.Next(ctx)
	if err != nil {
		return err
	}
	if e.Type != eventType {
		return fmt.Errorf("expected type '%s', got '%s': %s", eventType, e.Type, e.Raw)
	}
	if v == nil {
		return nil
	}
	return e.Decode(v)
}

// JoinRoom joins the room under nickname.
func (c *Client) JoinRoom(roomID, nickname string) error {
	return c.send(request.JOIN_ROOM, request.JoinRoom{RoomID: roomID, Nickname: nickname})
}

// LeaveRoom leaves the room, or the first joined room if roomID is empty.
func (c *Client) LeaveRoom(roomID string) error {
	return c.send(request.LEAVE_ROOM, request.LeaveRoom{RoomID: roomID})
}

// StartSharing announces that the connection shares its screen.
func (c *Client) StartSharing(roomID string) error {
	return c.send(request.START_SHARING, request.Sharing{RoomID: roomID})
}

// StopSharing announces that the connection stopped sharing.
func (c *Client) StopSharing(roomID string) error {
	return c.send(request.STOP_SHARING, request.Sharing{RoomID: roomID})
}

// Offer sends an SDP offer to the connection to.
func (c *Client) Offer(to string, offer webrtc.SessionDescription) error {
	raw, err := json.Marshal(offer)
	if err != nil {
		return err
	}
	return c.send(request.OFFER, request.Offer{Offer: raw, To: to})
}

// Answer sends an SDP answer to the connection to.
func (c *Client) Answer(to string, answer webrtc.SessionDescription) error {
	raw, err := json.Marshal(answer)
	if err != nil {
		return err
	}
	return c.send(request.ANSWER, request.Answer{Answer: raw, To: to})
}

// ICECandidate sends an ICE candidate to the connection to.
func (c *Client) ICECandidate(to string, candidate webrtc.ICECandidateInit) error {
	raw, err := json.Marshal(candidate)
	if err != nil {
		return err
	}
	return c.send(request.ICE_CANDIDATE, request.ICECandidate{Candidate: raw, To: to})
}

// Send writes a raw request. It is meant for requests the typed helpers do
// not cover.
func (c *Client) Send(reqType string, payload any) error {
	return c.send(reqType, payload)
}

// Close closes the connection.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.writeMu.Lock()
		_ = c.socket.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		c.writeMu.Unlock()
		err = c.socket.Close()
	})
	return err
}

func (c *Client) send(reqType string, payload any) error {
	req := request.Common{Type: reqType}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal %s payload: %w", reqType, err)
		}
		req.Payload = raw
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.socket.WriteJSON(req); err != nil {
		return fmt.Errorf("failed to send %s: %w", reqType, err)
	}
	return nil
}

// receive reads messages until the connection fails or the client is closed.
// Pings are answered by the default ping handler while reading.
func (c *Client) receive() {
	defer close(c.events)
	for {
		_, data, err := c.socket.ReadMessage()
		if err != nil {
			return
		}
		var head struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &head); err != nil {
			continue
		}
		select {
		case c.events <- Event{Type: head.Type, Raw: data}:
		case <-c.done:
			return
		}
	}
}

// NewPeerConnection creates a peer connection with the default codecs and
// interceptors. Loopback candidates are gathered so peers on the same host can
// connect.
func NewPeerConnection(config webrtc.Configuration) (*webrtc.PeerConnection, error) {
	m := &webrtc.MediaEngine{}
	if err := m.RegisterDefaultCodecs(); err != nil {
		return nil, err
	}

	registry := &interceptor.Registry{}
	if err := webrtc.RegisterDefaultInterceptors(m, registry); err != nil {
		return nil, err
	}

	s := webrtc.SettingEngine{}
	s.SetIncludeLoopbackCandidate(true)

	api := webrtc.NewAPI(
		webrtc.WithMediaEngine(m),
		webrtc.WithInterceptorRegistry(registry),
		webrtc.WithSettingEngine(s),
	)
	return api.NewPeerConnection(config)
}
