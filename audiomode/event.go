package audiomode

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// EventKind identifies an input to the machine. The numeric codes are stable
// and grouped by family: lifecycle/testing commands below 1000, call-count
// decreases at 1000, increases at 2000, tones at 3000 and foreground changes at 4000.
type EventKind int

const (
	EventInitialize EventKind = 1

	// Forced transitions, used by tests and diagnostics only.
	EventForceSimFocus     EventKind = 2
	EventForceVoipFocus    EventKind = 3
	EventForceRingFocus    EventKind = 4
	EventForceAbandonFocus EventKind = 5

	EventNoMoreActiveOrDialingCalls EventKind = 1001
	EventNoMoreRingingCalls         EventKind = 1002
	EventNoMoreHoldingCalls         EventKind = 1003

	EventNewActiveOrDialingCall       EventKind = 2001
	EventNewRingingCall               EventKind = 2002
	EventNewHoldingCall               EventKind = 2003
	EventMtAudioSpeedupForRingingCall EventKind = 2004

	EventToneStartedPlaying EventKind = 3001
	EventToneStoppedPlaying EventKind = 3002

	EventForegroundVoipModeChange EventKind = 4001
)

type eventName struct {
	wire  string
	ident string
}

var eventNames = map[EventKind]eventName{
	EventInitialize:                   {"INITIALIZE", "Initialize"},
	EventForceSimFocus:                {"ENTER_CALL_FOCUS_FOR_TESTING", "ForceSimFocus"},
	EventForceVoipFocus:               {"ENTER_COMMS_FOCUS_FOR_TESTING", "ForceVoipFocus"},
	EventForceRingFocus:               {"ENTER_RING_FOCUS_FOR_TESTING", "ForceRingFocus"},
	EventForceAbandonFocus:            {"ABANDON_FOCUS_FOR_TESTING", "ForceAbandonFocus"},
	EventNoMoreActiveOrDialingCalls:   {"NO_MORE_ACTIVE_OR_DIALING_CALLS", "NoMoreActiveOrDialingCalls"},
	EventNoMoreRingingCalls:           {"NO_MORE_RINGING_CALLS", "NoMoreRingingCalls"},
	EventNoMoreHoldingCalls:           {"NO_MORE_HOLDING_CALLS", "NoMoreHoldingCalls"},
	EventNewActiveOrDialingCall:       {"NEW_ACTIVE_OR_DIALING_CALL", "NewActiveOrDialingCall"},
	EventNewRingingCall:               {"NEW_RINGING_CALL", "NewRingingCall"},
	EventNewHoldingCall:               {"NEW_HOLDING_CALL", "NewHoldingCall"},
	EventMtAudioSpeedupForRingingCall: {"MT_AUDIO_SPEEDUP_FOR_RINGING_CALL", "MtAudioSpeedupForRingingCall"},
	EventToneStartedPlaying:           {"TONE_STARTED_PLAYING", "ToneStartedPlaying"},
	EventToneStoppedPlaying:           {"TONE_STOPPED_PLAYING", "ToneStoppedPlaying"},
	EventForegroundVoipModeChange:     {"FOREGROUND_VOIP_MODE_CHANGE", "ForegroundVoipModeChange"},
}

// OperationalEvents lists the events that carry call-population snapshots.
var OperationalEvents = []EventKind{
	EventNoMoreActiveOrDialingCalls,
	EventNoMoreRingingCalls,
	EventNoMoreHoldingCalls,
	EventNewActiveOrDialingCall,
	EventNewRingingCall,
	EventNewHoldingCall,
	EventMtAudioSpeedupForRingingCall,
	EventToneStartedPlaying,
	EventToneStoppedPlaying,
	EventForegroundVoipModeChange,
}

// String returns the log name of the event.
func (k EventKind) String() string {
	if n, ok := eventNames[k]; ok {
		return n.wire
	}
	return fmt.Sprintf("Unknown EventKind(%d)", int(k))
}

// Valid reports whether k is one of the defined events.
func (k EventKind) Valid() bool {
	_, ok := eventNames[k]
	return ok
}

// IsOperational reports whether k is a call-population event that requires
// EventArgs. Initialize and the forced transitions do not.
func (k EventKind) IsOperational() bool {
	return k.Valid() && k > EventForceAbandonFocus
}

// ParseEventKind resolves an event by its log name (NEW_RINGING_CALL) or Go
// identifier (NewRingingCall), case-insensitively.
func ParseEventKind(name string) (EventKind, error) {
	for k, n := range eventNames {
		if strings.EqualFold(name, n.wire) || strings.EqualFold(name, n.ident) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownEvent, name)
}

// Session is an opaque tracing token carried through the machine untouched.
// It correlates a submitted event with the producer's logs and spans.
type Session struct {
	ID          uuid.UUID
	Name        string
	SpanContext trace.SpanContext
}

// NewSession creates a session with a random ID.
func NewSession(name string) Session {
	return Session{ID: uuid.New(), Name: name}
}

// EventArgs is the call-population snapshot taken by the producer when the
// event was sent. The machine trusts it for that one decision and never
// re-queries call state.
type EventArgs struct {
	HasActiveCalls       bool
	HasRingingCalls      bool
	HasHoldingCalls      bool
	IsTonePlaying        bool
	ForegroundCallIsVoip bool
	Session              Session
}

func (a EventArgs) String() string {
	return fmt.Sprintf("EventArgs{hasActiveCalls=%t, hasRingingCalls=%t, hasHoldingCalls=%t, isTonePlaying=%t, foregroundCallIsVoip=%t, session=%s}",
		a.HasActiveCalls, a.HasRingingCalls, a.HasHoldingCalls, a.IsTonePlaying, a.ForegroundCallIsVoip, a.Session.ID)
}
