package room

// Observer is notified of every membership and sharing change. It is called
// while the room is locked, so calls for one room arrive in mutation order.
// Implementations must not block and must not call back into the Directory.
type Observer interface {
	Joined(room Snapshot, member Member)
	Left(room Snapshot, member Member)
	ShareStarted(room Snapshot, from string)
	ShareStopped(room Snapshot, from string)
}

// NopObserver ignores every notification.
type NopObserver struct{}

// Joined implements Observer.
func (NopObserver) Joined(Snapshot, Member) {}

// Left implements Observer.
func (NopObserver) Left(Snapshot, Member) {}

// ShareStarted implements Observer.
func (NopObserver) ShareStarted(Snapshot, string) {}

// ShareStopped implements Observer.
func (NopObserver) ShareStopped(Snapshot, string) {}
