// Package request defines structures for client request messages.
package request

import "encoding/json"

// Constants for request types
const (
	JOIN_ROOM     = "join-room"
	LEAVE_ROOM    = "leave-room"
	OFFER         = "offer"
	ANSWER        = "answer"
	ICE_CANDIDATE = "ice-candidate"
	START_SHARING = "start-sharing"
	STOP_SHARING  = "stop-sharing"
)

// Common represents a generic request structure used in WebSocket communication.
type Common struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}
