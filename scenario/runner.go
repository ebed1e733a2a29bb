package scenario

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/opd-ai/callaudio/audiomode"
	"github.com/opd-ai/callaudio/callroster"
	porttest "github.com/opd-ai/callaudio/testing"
	"github.com/sirupsen/logrus"
)

// StepStatus is the outcome of one replayed step.
type StepStatus int

const (
	StepStatusPending StepStatus = iota
	StepStatusPassed
	StepStatusFailed
	StepStatusSkipped
)

func (s StepStatus) String() string {
	switch s {
	case StepStatusPending:
		return "PENDING"
	case StepStatusPassed:
		return "PASSED"
	case StepStatusFailed:
		return "FAILED"
	case StepStatusSkipped:
		return "SKIPPED"
	default:
		return "UNKNOWN"
	}
}

// StepResult records what the machine looked like after a step.
type StepResult struct {
	Index         int
	Description   string
	Status        StepStatus
	State         audiomode.State
	Mode          audiomode.AudioMode
	ExecutionTime time.Duration
	ErrorMessage  string
}

// Result is the outcome of a scenario run.
type Result struct {
	Name          string
	Status        StepStatus
	Steps         []StepResult
	Passed        int
	Failed        int
	Skipped       int
	ExecutionTime time.Duration
	Transitions   []audiomode.TransitionRecord
	Focus         []porttest.FocusCall
	Route         []porttest.RouteCall
}

// Runner replays scenarios against machines wired to recording ports.
type Runner struct {
	options []audiomode.Option
	log     *logrus.Entry
}

// NewRunner creates a runner. The options are applied to every machine it
// builds.
func NewRunner(opts ...audiomode.Option) *Runner {
	return &Runner{
		options: opts,
		log:     logrus.WithField("component", "scenario"),
	}
}

// run holds the per-scenario fixtures.
type run struct {
	machine *audiomode.Machine
	focus   *porttest.RecordingFocusPort
	route   *porttest.RecordingRouteCoordinator
	roster  *callroster.Roster
	session audiomode.Session
	calls   map[string]uuid.UUID
}

// Run replays s step by step. Expectation mismatches fail the step and the
// run continues; an operation the machine or roster rejects fails the step
// and skips the rest. The returned error is non-nil only when the scenario
// could not be run at all or ctx ended.
func (r *Runner) Run(ctx context.Context, s *Scenario) (*Result, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	result := &Result{Name: s.Name, Status: StepStatusPending}

	fx, err := r.setup(s)
	if err != nil {
		return nil, err
	}
	defer fx.machine.Stop()

	r.log.WithFields(logrus.Fields{
		"function":   "Run",
		"scenario":   s.Name,
		"steps":      len(s.Steps),
		"session_id": fx.session.ID.String(),
	}).Info("Replaying scenario")

	if s.InitialState != "" {
		kind, _ := forceEventFor(s.InitialState)
		if err := fx.machine.Submit(kind, nil); err != nil {
			return nil, fmt.Errorf("force initial state: %w", err)
		}
	}
	if err := fx.machine.Sync(ctx); err != nil {
		return nil, err
	}

	var runErr error
	abort := false
	for i := range s.Steps {
		step := &s.Steps[i]
		sr := StepResult{Index: i + 1, Description: step.describe(), Status: StepStatusPending}

		if abort {
			sr.Status = StepStatusSkipped
			result.Steps = append(result.Steps, sr)
			continue
		}

		stepStart := time.Now()
		err := fx.apply(step)
		if err == nil {
			err = fx.machine.Sync(ctx)
			if err != nil {
				runErr = err
			}
		}
		sr.ExecutionTime = time.Since(stepStart)
		sr.State = fx.machine.CurrentState()
		sr.Mode = fx.focus.CurrentMode()

		switch {
		case err != nil:
			sr.Status = StepStatusFailed
			sr.ErrorMessage = err.Error()
			abort = true
		default:
			if mismatch := fx.check(step.Expect); mismatch != "" {
				sr.Status = StepStatusFailed
				sr.ErrorMessage = mismatch
			} else {
				sr.Status = StepStatusPassed
			}
		}

		r.logStep(s.Name, sr)
		result.Steps = append(result.Steps, sr)
	}

	result.ExecutionTime = time.Since(start)
	if j := fx.machine.Journal(); j != nil {
		result.Transitions = j.Records()
	}
	result.Focus = fx.focus.Calls()
	result.Route = fx.route.Calls()
	result.tally()

	r.log.WithFields(logrus.Fields{
		"function": "Run",
		"scenario": s.Name,
		"status":   result.Status.String(),
		"passed":   result.Passed,
		"failed":   result.Failed,
		"skipped":  result.Skipped,
		"duration": result.ExecutionTime.String(),
	}).Info("Scenario finished")

	return result, runErr
}

func (r *Runner) setup(s *Scenario) (*run, error) {
	fx := &run{
		focus:   porttest.NewRecordingFocusPort(),
		route:   porttest.NewRecordingRouteCoordinator(),
		session: audiomode.NewSession(s.Name),
		calls:   make(map[string]uuid.UUID),
	}

	opts := append([]audiomode.Option{
		audiomode.WithLogger(r.log.WithField("scenario", s.Name)),
		audiomode.WithJournal(audiomode.NewJournal(audiomode.DefaultJournalSize)),
	}, r.options...)
	m, err := audiomode.NewMachine(fx.focus, fx.route, opts...)
	if err != nil {
		return nil, fmt.Errorf("create machine: %w", err)
	}
	if err := m.Start(); err != nil {
		return nil, fmt.Errorf("start machine: %w", err)
	}
	fx.machine = m

	roster, err := callroster.NewRoster(m, fx.session)
	if err != nil {
		_ = m.Stop()
		return nil, fmt.Errorf("create roster: %w", err)
	}
	fx.roster = roster
	return fx, nil
}

func (fx *run) apply(step *Step) error {
	if step.Roster == nil {
		kind, err := audiomode.ParseEventKind(step.Event)
		if err != nil {
			return err
		}
		return fx.machine.Submit(kind, step.Args.eventArgs(fx.session))
	}

	op := step.Roster
	switch op.Op {
	case OpAdd:
		if _, exists := fx.calls[op.Call]; exists {
			return fmt.Errorf("call label %q already used", op.Call)
		}
		state, err := callroster.ParseCallState(strings.ToUpper(op.State))
		if err != nil {
			return err
		}
		call := callroster.NewCall(state, op.Voip)
		fx.calls[op.Call] = call.ID
		return fx.roster.Add(call)
	case OpSet:
		id, err := fx.lookup(op.Call)
		if err != nil {
			return err
		}
		state, err := callroster.ParseCallState(strings.ToUpper(op.State))
		if err != nil {
			return err
		}
		return fx.roster.SetState(id, state)
	case OpRemove:
		id, err := fx.lookup(op.Call)
		if err != nil {
			return err
		}
		return fx.roster.Remove(id)
	case OpAnswer:
		id, err := fx.lookup(op.Call)
		if err != nil {
			return err
		}
		return fx.roster.AnswerRingingWithSpeedup(id)
	case OpTone:
		return fx.roster.SetTonePlaying(op.Tone)
	case OpForeground:
		if op.Call == "" {
			return fx.roster.SetForeground(uuid.Nil)
		}
		id, err := fx.lookup(op.Call)
		if err != nil {
			return err
		}
		return fx.roster.SetForeground(id)
	default:
		return fmt.Errorf("unknown roster op %q", op.Op)
	}
}

func (fx *run) lookup(label string) (uuid.UUID, error) {
	id, exists := fx.calls[label]
	if !exists {
		return uuid.Nil, fmt.Errorf("%w: label %q", callroster.ErrCallNotFound, label)
	}
	return id, nil
}

// check returns a description of every unmet expectation, or "".
func (fx *run) check(expect *Expectation) string {
	if expect == nil {
		return ""
	}

	var problems []string
	if expect.State != "" {
		want, _ := audiomode.ParseState(expect.State)
		if got := fx.machine.CurrentState(); got != want {
			problems = append(problems, fmt.Sprintf("state: want %s, got %s", want, got))
		}
	}
	if expect.Mode != "" {
		want, _ := audiomode.ParseAudioMode(expect.Mode)
		if got := fx.focus.CurrentMode(); got != want {
			problems = append(problems, fmt.Sprintf("mode: want %s, got %s", want, got))
		}
	}
	if expect.Ringing != nil && fx.route.IsRinging() != *expect.Ringing {
		problems = append(problems, fmt.Sprintf("ringing: want %t", *expect.Ringing))
	}
	if expect.CallWaiting != nil && fx.route.IsCallWaiting() != *expect.CallWaiting {
		problems = append(problems, fmt.Sprintf("call_waiting: want %t", *expect.CallWaiting))
	}
	if expect.Focused != nil {
		if focused, _ := fx.focus.Focused(); focused != *expect.Focused {
			problems = append(problems, fmt.Sprintf("focused: want %t", *expect.Focused))
		}
	}
	return strings.Join(problems, "; ")
}

func (r *Runner) logStep(name string, sr StepResult) {
	entry := r.log.WithFields(logrus.Fields{
		"function": "Run",
		"scenario": name,
		"step":     sr.Index,
		"action":   sr.Description,
		"status":   sr.Status.String(),
		"state":    sr.State.String(),
		"mode":     sr.Mode.String(),
	})
	if sr.Status == StepStatusFailed {
		entry.WithField("error", sr.ErrorMessage).Warn("Scenario step failed")
		return
	}
	entry.Debug("Scenario step passed")
}

func (res *Result) tally() {
	for _, sr := range res.Steps {
		switch sr.Status {
		case StepStatusPassed:
			res.Passed++
		case StepStatusFailed:
			res.Failed++
		case StepStatusSkipped:
			res.Skipped++
		}
	}
	if res.Failed > 0 {
		res.Status = StepStatusFailed
	} else {
		res.Status = StepStatusPassed
	}
}

// Failed reports whether any result failed.
func Failed(results []*Result) bool {
	for _, res := range results {
		if res == nil || res.Status == StepStatusFailed {
			return true
		}
	}
	return false
}

// RunFiles loads and replays each file in order. A file that cannot be
// loaded is reported as an error after the rest have run.
func (r *Runner) RunFiles(ctx context.Context, paths []string) ([]*Result, error) {
	var (
		results []*Result
		errs    []error
	)
	for _, path := range paths {
		s, err := LoadFile(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		res, err := r.Run(ctx, s)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
		}
		if res != nil {
			results = append(results, res)
		}
		if ctx.Err() != nil {
			break
		}
	}
	return results, errors.Join(errs...)
}
