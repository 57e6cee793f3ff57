package request

import "encoding/json"

// JoinRoom is data type for joining a room
type JoinRoom struct {
	RoomID   string `json:"roomId"`
	Nickname string `json:"nickname"`
}

// LeaveRoom is data type for leaving a room. An empty RoomID means the first
// joined room.
type LeaveRoom struct {
	RoomID string `json:"roomId,omitempty"`
}

// Offer is data type for relaying an SDP offer
type Offer struct {
	Offer json.RawMessage `json:"offer"`
	To    string          `json:"to"`
}

// Answer is data type for relaying an SDP answer
type Answer struct {
	Answer json.RawMessage `json:"answer"`
	To     string          `json:"to"`
}

// ICECandidate is data type for relaying an ICE candidate
type ICECandidate struct {
	Candidate json.RawMessage `json:"candidate"`
	To        string          `json:"to"`
}

// Sharing is data type for start-sharing and stop-sharing. An empty RoomID
// means the first joined room.
type Sharing struct {
	RoomID string `json:"roomId,omitempty"`
}
