// Package socket provides an interface for managing socket.
package socket

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// WriteWait is the time allowed to write a message to the peer.
	WriteWait = 10 * time.Second

	// PongWait is the time allowed to read the next pong message from the peer.
	PongWait = 60 * time.Second

	// PingPeriod is the period of pings sent to the peer. Must be less than PongWait.
	PingPeriod = (PongWait * 9) / 10

	// MaxMessageSize is the maximum message size allowed from the peer.
	MaxMessageSize = 64 * 1024
)

// WebSocket wraps the gorilla/websocket connection.
type WebSocket struct {
	conn *websocket.Conn
}

// New creates a new WebSocket connection by upgrading the HTTP request.
// checkOrigin decides whether the request origin is accepted; nil accepts
// same-host origins only.
func New(w http.ResponseWriter, r *http.Request, checkOrigin func(*http.Request) bool) (*WebSocket, error) {
	ug := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     checkOrigin,
	}

	conn, err := ug.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}

	conn.SetReadLimit(MaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(PongWait))
	})

	return &WebSocket{
		conn: conn,
	}, nil
}

// Close closes the WebSocket connection.
func (s *WebSocket) Close() error {
	return s.conn.Close()
}

// WriteJSON sends a JSON text message to the WebSocket connection.
func (s *WebSocket) WriteJSON(data any) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(WriteWait)); err != nil {
		return err
	}
	return s.conn.WriteJSON(data)
}

// ReadMessage reads the next data message from the WebSocket connection.
// Errors come from the transport only; the payload is not decoded.
func (s *WebSocket) ReadMessage() ([]byte, error) {
	_, data, err := s.conn.ReadMessage()
	return data, err
}

// Ping sends a ping control message. The peer's pong extends the read deadline.
func (s *WebSocket) Ping() error {
	return s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(WriteWait))
}

// RemoteAddr returns the address of the peer.
func (s *WebSocket) RemoteAddr() string {
	return s.conn.RemoteAddr().String()
}
