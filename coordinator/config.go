package coordinator

// Default values for the coordinator. If the values are not set, these values are used.
const (
	DefaultMultiRoom = false
)

// Config contains the configuration for the coordinator.
type Config struct {
	// MultiRoom lets a connection be a member of several rooms at once. When
	// false, joining a room leaves the rooms joined before.
	MultiRoom bool
}
