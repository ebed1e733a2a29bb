package callroster

import (
	"fmt"

	"github.com/google/uuid"
)

// CallState is the lifecycle state of a call as seen by the roster.
type CallState uint32

const (
	// CallStateDialing is an outgoing call that has not connected yet.
	CallStateDialing CallState = iota
	// CallStateActive is a connected call with live audio.
	CallStateActive
	// CallStateRinging is an incoming call that has not been answered.
	CallStateRinging
	// CallStateHolding is a connected call placed on hold.
	CallStateHolding
	// CallStateDisconnected is a call that has ended; it leaves the roster.
	CallStateDisconnected
)

func (s CallState) String() string {
	switch s {
	case CallStateDialing:
		return "DIALING"
	case CallStateActive:
		return "ACTIVE"
	case CallStateRinging:
		return "RINGING"
	case CallStateHolding:
		return "HOLDING"
	case CallStateDisconnected:
		return "DISCONNECTED"
	default:
		return fmt.Sprintf("Unknown CallState(%d)", uint32(s))
	}
}

// ParseCallState resolves a call state by name.
func ParseCallState(name string) (CallState, error) {
	for s := CallStateDialing; s <= CallStateDisconnected; s++ {
		if s.String() == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidCallState, name)
}

// activeOrDialing reports whether the call counts toward active calls.
func (s CallState) activeOrDialing() bool {
	return s == CallStateActive || s == CallStateDialing
}

// Call is one entry of the roster.
type Call struct {
	ID     uuid.UUID
	State  CallState
	IsVoip bool
}

// NewCall creates a call with a random ID.
func NewCall(state CallState, isVoip bool) Call {
	return Call{ID: uuid.New(), State: state, IsVoip: isVoip}
}
