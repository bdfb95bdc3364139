package parakeet

import "fmt"

// State tracks the per-conversation completion lifecycle.
type State int32

const (
	StateIdle State = iota
	StateBuilding
	StateDispatched
	StateStreaming
	StateAwaitingFull
	StateApplying
	StateCancelled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBuilding:
		return "building"
	case StateDispatched:
		return "dispatched"
	case StateStreaming:
		return "streaming"
	case StateAwaitingFull:
		return "awaiting_full"
	case StateApplying:
		return "applying"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// InFlight reports whether a completion is currently running.
func (s State) InFlight() bool {
	switch s {
	case StateBuilding, StateDispatched, StateStreaming, StateAwaitingFull, StateApplying:
		return true
	default:
		return false
	}
}

// BusyError rejects a submission while a completion is already in flight
// on the same conversation. Submissions are rejected, not queued.
type BusyError struct {
	State State
}

func (e *BusyError) Error() string {
	return fmt.Sprintf("a completion is already running (state %s)", e.State)
}
