package stream

import "fmt"

// State is the lifecycle of one WebSocket connection.
type State int

const (
	StateConnecting State = iota
	StateOpen
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Peer is a polled WebSocket connection.
// Poll captures the connection state and the frames received since the previous Poll;
// State and Next then report that capture until the next Poll.
type Peer interface {
	Poll()
	State() State
	// Next pops the oldest captured frame.
	Next() ([]byte, bool)
	CloseCode() int
	CloseReason() string
	// Close releases the connection. Calling it more than once is a no-op.
	Close() error
}

// Dialer opens peers. An error means the open attempt failed synchronously;
// connection failures after that surface as StateClosed on the peer.
type Dialer interface {
	Dial(url string) (Peer, error)
}
