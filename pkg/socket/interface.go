// Package socket provides an interface for managing socket.
package socket

// Socket is an interface for managing socket. ReadMessage is called from a single
// goroutine and WriteJSON and Ping from another; Close may be called from any.
//
//go:generate mockgen -destination=mock_socket.go -package=socket . Socket
type Socket interface {
	Close() error
	WriteJSON(data any) error
	ReadMessage() ([]byte, error)
	Ping() error
	RemoteAddr() string
}
