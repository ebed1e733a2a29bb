package audiomode

import (
	"fmt"
	"strings"
)

// State is the coarse audio posture the machine is in.
// Exactly one State is current at any instant.
type State uint32

const (
	// StateUnfocused holds no audio focus; the device is in normal mode.
	StateUnfocused State = iota
	// StateRingingFocus holds ring-stream focus while an incoming call rings.
	StateRingingFocus
	// StateSimCallFocus holds voice-call focus in in-call mode.
	StateSimCallFocus
	// StateVoipCallFocus holds voice-call focus in in-communication mode.
	StateVoipCallFocus
	// StateOtherFocus holds voice-call focus for held calls and tones.
	StateOtherFocus
)

// AllStates lists every State in declaration order.
var AllStates = []State{
	StateUnfocused,
	StateRingingFocus,
	StateSimCallFocus,
	StateVoipCallFocus,
	StateOtherFocus,
}

// String returns the log name of the state.
func (s State) String() string {
	switch s {
	case StateUnfocused:
		return "UNFOCUSED"
	case StateRingingFocus:
		return "RINGING"
	case StateSimCallFocus:
		return "SIM_CALL"
	case StateVoipCallFocus:
		return "VOIP_CALL"
	case StateOtherFocus:
		return "OTHER"
	default:
		return fmt.Sprintf("Unknown State(%d)", uint32(s))
	}
}

// ParseState resolves a state by its log name.
func ParseState(name string) (State, error) {
	for _, s := range AllStates {
		if strings.EqualFold(s.String(), name) {
			return s, nil
		}
	}
	return StateUnfocused, fmt.Errorf("%w: %q", ErrUnknownState, name)
}

// AudioMode is the device-wide audio mode set through the focus port.
type AudioMode uint32

const (
	ModeNormal AudioMode = iota
	ModeRingtone
	ModeInCall
	ModeInCommunication
)

func (m AudioMode) String() string {
	switch m {
	case ModeNormal:
		return "NORMAL"
	case ModeRingtone:
		return "RINGTONE"
	case ModeInCall:
		return "IN_CALL"
	case ModeInCommunication:
		return "IN_COMMUNICATION"
	default:
		return fmt.Sprintf("Unknown AudioMode(%d)", uint32(m))
	}
}

// ParseAudioMode resolves a mode by its log name.
func ParseAudioMode(name string) (AudioMode, error) {
	for _, m := range []AudioMode{ModeNormal, ModeRingtone, ModeInCall, ModeInCommunication} {
		if strings.EqualFold(m.String(), name) {
			return m, nil
		}
	}
	return ModeNormal, fmt.Errorf("%w: %q", ErrUnknownMode, name)
}

// Stream is the audio stream focus is requested on.
type Stream uint32

const (
	StreamRing Stream = iota
	StreamVoiceCall
)

func (s Stream) String() string {
	switch s {
	case StreamRing:
		return "RING"
	case StreamVoiceCall:
		return "VOICE_CALL"
	default:
		return fmt.Sprintf("Unknown Stream(%d)", uint32(s))
	}
}

// FocusState is what the route coordinator is told about focus ownership.
type FocusState uint32

const (
	NoFocus FocusState = iota
	HasFocus
)

func (f FocusState) String() string {
	switch f {
	case NoFocus:
		return "NO_FOCUS"
	case HasFocus:
		return "HAS_FOCUS"
	default:
		return fmt.Sprintf("Unknown FocusState(%d)", uint32(f))
	}
}

// Snapshot is the state owned by the machine: the current state, the last
// in-call mode entered and whether Initialize has been processed.
type Snapshot struct {
	State          State
	MostRecentMode AudioMode
	Initialized    bool
}

// InitialSnapshot is the snapshot a freshly constructed machine starts from.
func InitialSnapshot() Snapshot {
	return Snapshot{
		State:          StateUnfocused,
		MostRecentMode: ModeNormal,
		Initialized:    false,
	}
}
