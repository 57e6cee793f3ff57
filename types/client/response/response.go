// Package response provides data types for server response to client.
package response

import "encoding/json"

// Constants for response types
const (
	CONNECTED     = "connected"
	ROOM_JOINED   = "room-joined"
	USER_JOINED   = "user-joined"
	USER_LEFT     = "user-left"
	SHARE_STARTED = "share-started"
	SHARE_STOPPED = "share-stopped"
	OFFER         = "offer"
	ANSWER        = "answer"
	ICE_CANDIDATE = "ice-candidate"
	ERROR         = "error"
)

// Error codes
const (
	CodeBadRequest  = "bad-request"
	CodeUnknownType = "unknown-type"
	CodeNotInRoom   = "not-in-room"
	CodeRoomFull    = "room-full"
	CodeInternal    = "internal"
)

// Connected is sent first on every connection and carries its identifier
type Connected struct {
	Type     string `json:"type"`
	SocketID string `json:"socketId"`
}

// Peer is a member of a room as seen by other members
type Peer struct {
	SocketID string `json:"socketId"`
	Nickname string `json:"nickname"`
}

// RoomJoined acknowledges join-room to the joining connection
type RoomJoined struct {
	Type         string   `json:"type"`
	RoomID       string   `json:"roomId"`
	SocketID     string   `json:"socketId"`
	Peers        []Peer   `json:"peers"`
	SharingUsers []string `json:"sharingUsers"`
}

// UserJoined is data type for announcing a new member to existing members
type UserJoined struct {
	Type     string `json:"type"`
	RoomID   string `json:"roomId"`
	SocketID string `json:"socketId"`
	Nickname string `json:"nickname"`
}

// UserLeft is data type for announcing a departed member
type UserLeft struct {
	Type         string   `json:"type"`
	RoomID       string   `json:"roomId"`
	SocketID     string   `json:"socketId"`
	SharingUsers []string `json:"sharingUsers"`
}

// ShareStarted is data type for announcing that a member started sharing
type ShareStarted struct {
	Type         string   `json:"type"`
	RoomID       string   `json:"roomId"`
	From         string   `json:"from"`
	SharingUsers []string `json:"sharingUsers"`
}

// ShareStopped is data type for announcing that a member stopped sharing
type ShareStopped struct {
	Type         string   `json:"type"`
	RoomID       string   `json:"roomId"`
	From         string   `json:"from"`
	SharingUsers []string `json:"sharingUsers"`
}

// Offer is a relayed SDP offer
type Offer struct {
	Type  string          `json:"type"`
	Offer json.RawMessage `json:"offer"`
	From  string          `json:"from"`
}

// Answer is a relayed SDP answer
type Answer struct {
	Type   string          `json:"type"`
	Answer json.RawMessage `json:"answer"`
	From   string          `json:"from"`
}

// ICECandidate is a relayed ICE candidate
type ICECandidate struct {
	Type      string          `json:"type"`
	Candidate json.RawMessage `json:"candidate"`
	From      string          `json:"from"`
}

// Error reports a rejected request back to its sender
type Error struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Request string `json:"request,omitempty"`
}
