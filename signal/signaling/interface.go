package signaling

import "encoding/json"

// Relayer forwards negotiation messages between connections.
type Relayer interface {
	Relay(kind string, payload json.RawMessage, from, to string) error
}
