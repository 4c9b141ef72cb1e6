package core

// Status is the lifecycle state of a gateway connection. The states form a
// strict progression during a successful connect; any error or closure from a
// non-terminal state returns the connection to StatusDisconnected.
type Status int

const (
	// StatusDisconnected means no transport is open.
	StatusDisconnected Status = iota

	// StatusConnecting means a transport is being dialed.
	StatusConnecting

	// StatusAwaitingAuth means the transport is open and the Authenticate
	// frame has been sent; the server has not yet confirmed the session.
	StatusAwaitingAuth

	// StatusConnected means the server accepted the session. Initial state
	// has not been hydrated yet, so the cache may still be empty.
	StatusConnected

	// StatusReady means initial users and channels have been hydrated and the
	// client is safe to use.
	StatusReady
)

// Connected reports whether the session has been accepted by the server.
// A ready connection is always connected.
func (s Status) Connected() bool { return s >= StatusConnected }

// Ready reports whether the connection finished initial hydration.
func (s Status) Ready() bool { return s == StatusReady }

func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusAwaitingAuth:
		return "awaiting_auth"
	case StatusConnected:
		return "connected"
	case StatusReady:
		return "ready"
	default:
		return "unknown"
	}
}
