package runner

import "fmt"

// EventKind identifies a lifecycle event.
type EventKind int

// Lifecycle events, in the order a successful relayed session emits them
// (ServerStarted and ProcessSpawned may swap).
const (
	EventStateChanged EventKind = iota
	EventServerStarted
	EventProcessSpawned
	EventProcessExited
	EventServerStopSignalled
	EventServerStopped
)

func (k EventKind) String() string {
	switch k {
	case EventStateChanged:
		return "StateChanged"
	case EventServerStarted:
		return "ServerStarted"
	case EventProcessSpawned:
		return "ProcessSpawned"
	case EventProcessExited:
		return "ProcessExited"
	case EventServerStopSignalled:
		return "ServerStopSignalled"
	case EventServerStopped:
		return "ServerStopped"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is delivered to the observer registered with WithObserver.
type Event struct {
	Kind EventKind
	// State is set for EventStateChanged.
	State State
	// Addr is the callback server address for EventServerStarted.
	Addr string
	// PID is set for EventProcessSpawned.
	PID int
	// Err is the process result for EventProcessExited and the shutdown
	// error for EventServerStopped.
	Err error
}

func (e Event) String() string {
	if e.Kind == EventStateChanged {
		return e.Kind.String() + "(" + e.State.String() + ")"
	}
	return e.Kind.String()
}
