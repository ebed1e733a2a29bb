package scenario

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/opd-ai/callaudio/audiomode"
	"github.com/opd-ai/callaudio/callroster"
	"gopkg.in/yaml.v3"
)

// ErrInvalidScenario wraps every validation failure.
var ErrInvalidScenario = errors.New("invalid scenario")

// Roster operation names.
const (
	OpAdd        = "add"
	OpSet        = "set"
	OpRemove     = "remove"
	OpTone       = "tone"
	OpForeground = "foreground"
	OpAnswer     = "answer"
)

// Scenario is a scripted sequence of events replayed against a fresh machine.
// InitialState, when set, forces the machine into that state before the first
// step; OTHER cannot be forced.
type Scenario struct {
	Name         string `yaml:"name"`
	Description  string `yaml:"description,omitempty"`
	InitialState string `yaml:"initial_state,omitempty"`
	Steps        []Step `yaml:"steps"`
}

// Step is either a raw machine event or a roster operation, optionally
// followed by an expectation on the result.
type Step struct {
	Name   string       `yaml:"name,omitempty"`
	Event  string       `yaml:"event,omitempty"`
	Args   *Args        `yaml:"args,omitempty"`
	Roster *RosterOp    `yaml:"roster,omitempty"`
	Expect *Expectation `yaml:"expect,omitempty"`
}

// Args is the call snapshot sent with a raw event. Omitted args mean
// every flag is false.
type Args struct {
	Active  bool `yaml:"active,omitempty"`
	Ringing bool `yaml:"ringing,omitempty"`
	Holding bool `yaml:"holding,omitempty"`
	Tone    bool `yaml:"tone,omitempty"`
	Voip    bool `yaml:"voip,omitempty"`
}

// RosterOp drives the call roster instead of the machine directly. Calls are
// referred to by a label local to the scenario.
type RosterOp struct {
	Op    string `yaml:"op"`
	Call  string `yaml:"call,omitempty"`
	State string `yaml:"state,omitempty"`
	Voip  bool   `yaml:"voip,omitempty"`
	Tone  bool   `yaml:"tone,omitempty"`
}

// Expectation is checked after the step has been fully processed. Empty
// fields are not checked.
type Expectation struct {
	State       string `yaml:"state,omitempty"`
	Mode        string `yaml:"mode,omitempty"`
	Ringing     *bool  `yaml:"ringing,omitempty"`
	CallWaiting *bool  `yaml:"call_waiting,omitempty"`
	Focused     *bool  `yaml:"focused,omitempty"`
}

// Parse decodes and validates a YAML scenario.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadFile reads and parses a scenario file.
func LoadFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Validate checks that every name in the scenario resolves.
func (s *Scenario) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidScenario)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("%w: %s has no steps", ErrInvalidScenario, s.Name)
	}
	if s.InitialState != "" {
		if _, err := forceEventFor(s.InitialState); err != nil {
			return err
		}
	}
	for i := range s.Steps {
		if err := s.Steps[i].validate(); err != nil {
			return fmt.Errorf("%w: step %d: %v", ErrInvalidScenario, i+1, err)
		}
	}
	return nil
}

func (st *Step) validate() error {
	switch {
	case st.Event != "" && st.Roster != nil:
		return errors.New("a step has either an event or a roster operation, not both")
	case st.Event != "":
		if _, err := audiomode.ParseEventKind(st.Event); err != nil {
			return err
		}
	case st.Roster != nil:
		if err := st.Roster.validate(); err != nil {
			return err
		}
	default:
		return errors.New("a step needs an event or a roster operation")
	}
	if st.Args != nil && st.Event == "" {
		return errors.New("args only apply to event steps")
	}
	if st.Expect != nil {
		return st.Expect.validate()
	}
	return nil
}

func (op *RosterOp) validate() error {
	switch op.Op {
	case OpAdd, OpSet:
		if op.Call == "" {
			return fmt.Errorf("roster %s needs a call label", op.Op)
		}
		if _, err := callroster.ParseCallState(strings.ToUpper(op.State)); err != nil {
			return err
		}
	case OpRemove, OpAnswer:
		if op.Call == "" {
			return fmt.Errorf("roster %s needs a call label", op.Op)
		}
	case OpTone, OpForeground:
	default:
		return fmt.Errorf("unknown roster op %q", op.Op)
	}
	return nil
}

func (e *Expectation) validate() error {
	if e.State != "" {
		if _, err := audiomode.ParseState(e.State); err != nil {
			return err
		}
	}
	if e.Mode != "" {
		if _, err := audiomode.ParseAudioMode(e.Mode); err != nil {
			return err
		}
	}
	return nil
}

// eventArgs converts the YAML flags into machine arguments.
func (a *Args) eventArgs(session audiomode.Session) *audiomode.EventArgs {
	args := &audiomode.EventArgs{Session: session}
	if a != nil {
		args.HasActiveCalls = a.Active
		args.HasRingingCalls = a.Ringing
		args.HasHoldingCalls = a.Holding
		args.IsTonePlaying = a.Tone
		args.ForegroundCallIsVoip = a.Voip
	}
	return args
}

// describe renders the step for reports.
func (st *Step) describe() string {
	if st.Name != "" {
		return st.Name
	}
	if st.Roster != nil {
		parts := []string{"roster", st.Roster.Op}
		if st.Roster.Call != "" {
			parts = append(parts, st.Roster.Call)
		}
		switch st.Roster.Op {
		case OpAdd, OpSet:
			parts = append(parts, strings.ToUpper(st.Roster.State))
		case OpTone:
			parts = append(parts, fmt.Sprintf("%t", st.Roster.Tone))
		}
		return strings.Join(parts, " ")
	}
	if kind, err := audiomode.ParseEventKind(st.Event); err == nil {
		return kind.String()
	}
	return st.Event
}

// forceEventFor maps a state name to the forced command that enters it.
func forceEventFor(name string) (audiomode.EventKind, error) {
	state, err := audiomode.ParseState(name)
	if err != nil {
		return 0, fmt.Errorf("%w: initial_state: %v", ErrInvalidScenario, err)
	}
	switch state {
	case audiomode.StateUnfocused:
		return audiomode.EventForceAbandonFocus, nil
	case audiomode.StateRingingFocus:
		return audiomode.EventForceRingFocus, nil
	case audiomode.StateSimCallFocus:
		return audiomode.EventForceSimFocus, nil
	case audiomode.StateVoipCallFocus:
		return audiomode.EventForceVoipFocus, nil
	default:
		return 0, fmt.Errorf("%w: initial_state %s cannot be forced", ErrInvalidScenario, state)
	}
}
