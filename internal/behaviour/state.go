package behaviour

// State is a lifecycle state of a behaviour.
type State int

const (
	// Created is the initial state: constructed, no observers.
	Created State = iota
	// Connected means validated and wired; observers are live.
	Connected
	// Disconnected means unwired; may be connected again.
	Disconnected
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	}
	return "unknown"
}
