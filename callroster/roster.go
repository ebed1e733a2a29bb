package callroster

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/opd-ai/callaudio/audiomode"
	"github.com/sirupsen/logrus"
)

// Submitter accepts audio mode events. *audiomode.Machine satisfies it.
type Submitter interface {
	Submit(kind audiomode.EventKind, args *audiomode.EventArgs) error
}

// Roster tracks the calls known to the telephony layer and translates
// every change into the audio mode events that describe it.
//
// All mutations are serialized, so events reach the submitter in the same
// order as the changes that produced them. When the submitter rejects the
// first event of a change, the change is undone. When it rejects a later one,
// the change stays and the roster is ahead of the machine until the next
// change re-derives the events.
type Roster struct {
	mu          sync.Mutex
	submitter   Submitter
	session     audiomode.Session
	calls       map[uuid.UUID]*Call
	order       []uuid.UUID
	foreground  uuid.UUID
	tonePlaying bool
}

// summary is the category view of the roster used to derive events.
type summary struct {
	active         int
	ringing        int
	holding        int
	tonePlaying    bool
	hasForeground  bool
	foregroundVoip bool
}

// NewRoster creates an empty roster that reports to submitter. Every event
// carries session so the machine can correlate its logs and spans.
func NewRoster(submitter Submitter, session audiomode.Session) (*Roster, error) {
	logrus.WithFields(logrus.Fields{
		"function":   "NewRoster",
		"session_id": session.ID.String(),
	}).Debug("Creating call roster")

	if submitter == nil {
		return nil, ErrNilSubmitter
	}

	return &Roster{
		submitter: submitter,
		session:   session,
		calls:     make(map[uuid.UUID]*Call),
	}, nil
}

// Add starts tracking a call. Disconnected calls cannot be added.
func (r *Roster) Add(call Call) error {
	return r.mutate("Add", func() error {
		if call.ID == uuid.Nil {
			return ErrNilCallID
		}
		if _, exists := r.calls[call.ID]; exists {
			return fmt.Errorf("%w: %s", ErrCallExists, call.ID)
		}
		if call.State >= CallStateDisconnected {
			return fmt.Errorf("%w: cannot add call in state %s", ErrInvalidCallState, call.State)
		}

		c := call
		r.calls[call.ID] = &c
		r.order = append(r.order, call.ID)
		return nil
	})
}

// SetState moves a call to a new state. Moving it to Disconnected removes it.
func (r *Roster) SetState(id uuid.UUID, state CallState) error {
	return r.mutate("SetState", func() error {
		c, exists := r.calls[id]
		if !exists {
			return fmt.Errorf("%w: %s", ErrCallNotFound, id)
		}
		if state > CallStateDisconnected {
			return fmt.Errorf("%w: %s", ErrInvalidCallState, state)
		}

		if state == CallStateDisconnected {
			r.removeLocked(id)
			return nil
		}
		c.State = state
		return nil
	})
}

// Remove stops tracking a call.
func (r *Roster) Remove(id uuid.UUID) error {
	return r.mutate("Remove", func() error {
		if _, exists := r.calls[id]; !exists {
			return fmt.Errorf("%w: %s", ErrCallNotFound, id)
		}
		r.removeLocked(id)
		return nil
	})
}

// SetTonePlaying records whether an in-call tone is playing.
func (r *Roster) SetTonePlaying(playing bool) error {
	return r.mutate("SetTonePlaying", func() error {
		r.tonePlaying = playing
		return nil
	})
}

// SetForeground pins the foreground call. Passing uuid.Nil clears the pin.
func (r *Roster) SetForeground(id uuid.UUID) error {
	return r.mutate("SetForeground", func() error {
		if id != uuid.Nil {
			if _, exists := r.calls[id]; !exists {
				return fmt.Errorf("%w: %s", ErrCallNotFound, id)
			}
		}
		r.foreground = id
		return nil
	})
}

// AnswerRingingWithSpeedup answers a ringing call on the network fast path:
// the machine is told to take in-call focus before the call turns active.
func (r *Roster) AnswerRingingWithSpeedup(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, exists := r.calls[id]
	if !exists {
		return fmt.Errorf("%w: %s", ErrCallNotFound, id)
	}
	if c.State != CallStateRinging {
		return fmt.Errorf("%w: call %s is %s, not RINGING", ErrInvalidCallState, id, c.State)
	}

	if err := r.submitLocked(audiomode.EventMtAudioSpeedupForRingingCall); err != nil {
		return err
	}

	// The speedup already reached the machine, so the answer is kept even
	// if the follow-up events are rejected.
	before := r.summarizeLocked()
	c.State = CallStateActive
	if _, err := r.emitLocked(before, r.summarizeLocked()); err != nil {
		r.logAhead("AnswerRingingWithSpeedup", err)
		return err
	}
	return nil
}

// Calls returns a copy of the tracked calls in insertion order.
func (r *Roster) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()

	calls := make([]Call, 0, len(r.order))
	for _, id := range r.order {
		calls = append(calls, *r.calls[id])
	}
	return calls
}

// Get returns a copy of one call.
func (r *Roster) Get(id uuid.UUID) (Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, exists := r.calls[id]
	if !exists {
		return Call{}, fmt.Errorf("%w: %s", ErrCallNotFound, id)
	}
	return *c, nil
}

// Foreground returns the current foreground call, if any.
func (r *Roster) Foreground() (Call, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := r.foregroundLocked()
	if c == nil {
		return Call{}, false
	}
	return *c, true
}

// Args returns the event context describing the roster right now.
func (r *Roster) Args() audiomode.EventArgs {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.argsLocked()
}

func (r *Roster) mutate(op string, fn func() error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	saved := r.saveLocked()
	before := r.summarizeLocked()
	if err := fn(); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": op,
			"error":    err.Error(),
		}).Debug("Roster mutation rejected")
		return err
	}

	delivered, err := r.emitLocked(before, r.summarizeLocked())
	switch {
	case err == nil:
		return nil
	case delivered == 0:
		r.restoreLocked(saved)
		logrus.WithFields(logrus.Fields{
			"function": op,
			"error":    err.Error(),
		}).Warn("Audio mode machine rejected the change, roster rolled back")
	default:
		r.logAhead(op, err)
	}
	return err
}

func (r *Roster) logAhead(op string, err error) {
	logrus.WithFields(logrus.Fields{
		"function": op,
		"error":    err.Error(),
	}).Warn("Audio mode machine missed part of the change, roster is ahead")
}

// rosterState is a deep copy of the mutable roster fields.
type rosterState struct {
	calls       map[uuid.UUID]Call
	order       []uuid.UUID
	foreground  uuid.UUID
	tonePlaying bool
}

func (r *Roster) saveLocked() rosterState {
	calls := make(map[uuid.UUID]Call, len(r.calls))
	for id, c := range r.calls {
		calls[id] = *c
	}
	return rosterState{
		calls:       calls,
		order:       append([]uuid.UUID(nil), r.order...),
		foreground:  r.foreground,
		tonePlaying: r.tonePlaying,
	}
}

func (r *Roster) restoreLocked(s rosterState) {
	r.calls = make(map[uuid.UUID]*Call, len(s.calls))
	for id, c := range s.calls {
		r.calls[id] = &c
	}
	r.order = s.order
	r.foreground = s.foreground
	r.tonePlaying = s.tonePlaying
}

func (r *Roster) removeLocked(id uuid.UUID) {
	delete(r.calls, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	if r.foreground == id {
		r.foreground = uuid.Nil
	}
}

func (r *Roster) foregroundLocked() *Call {
	if c, exists := r.calls[r.foreground]; exists {
		return c
	}
	for _, match := range []func(CallState) bool{
		CallState.activeOrDialing,
		func(s CallState) bool { return s == CallStateRinging },
		func(s CallState) bool { return s == CallStateHolding },
	} {
		for _, id := range r.order {
			if c := r.calls[id]; match(c.State) {
				return c
			}
		}
	}
	return nil
}

func (r *Roster) summarizeLocked() summary {
	s := summary{tonePlaying: r.tonePlaying}
	for _, c := range r.calls {
		switch {
		case c.State.activeOrDialing():
			s.active++
		case c.State == CallStateRinging:
			s.ringing++
		case c.State == CallStateHolding:
			s.holding++
		}
	}
	if fg := r.foregroundLocked(); fg != nil {
		s.hasForeground = true
		s.foregroundVoip = fg.IsVoip
	}
	return s
}

func (r *Roster) argsLocked() audiomode.EventArgs {
	s := r.summarizeLocked()
	return audiomode.EventArgs{
		HasActiveCalls:       s.active > 0,
		HasRingingCalls:      s.ringing > 0,
		HasHoldingCalls:      s.holding > 0,
		IsTonePlaying:        s.tonePlaying,
		ForegroundCallIsVoip: s.foregroundVoip,
		Session:              r.session,
	}
}

// emitLocked submits the events that explain the change from before to
// after. Removals go first so the machine never sees a category appear
// and vanish out of order. It returns how many events were accepted.
func (r *Roster) emitLocked(before, after summary) (int, error) {
	var events []audiomode.EventKind

	if before.active > 0 && after.active == 0 {
		events = append(events, audiomode.EventNoMoreActiveOrDialingCalls)
	}
	if before.ringing > 0 && after.ringing == 0 {
		events = append(events, audiomode.EventNoMoreRingingCalls)
	}
	if before.holding > 0 && after.holding == 0 {
		events = append(events, audiomode.EventNoMoreHoldingCalls)
	}
	if before.active == 0 && after.active > 0 {
		events = append(events, audiomode.EventNewActiveOrDialingCall)
	}
	if before.ringing == 0 && after.ringing > 0 {
		events = append(events, audiomode.EventNewRingingCall)
	}
	if before.holding == 0 && after.holding > 0 {
		events = append(events, audiomode.EventNewHoldingCall)
	}
	if !before.tonePlaying && after.tonePlaying {
		events = append(events, audiomode.EventToneStartedPlaying)
	}
	if before.tonePlaying && !after.tonePlaying {
		events = append(events, audiomode.EventToneStoppedPlaying)
	}
	if before.hasForeground && after.hasForeground && before.foregroundVoip != after.foregroundVoip {
		events = append(events, audiomode.EventForegroundVoipModeChange)
	}

	for i, kind := range events {
		if err := r.submitLocked(kind); err != nil {
			return i, err
		}
	}
	return len(events), nil
}

func (r *Roster) submitLocked(kind audiomode.EventKind) error {
	args := r.argsLocked()

	logrus.WithFields(logrus.Fields{
		"function":   "Roster.submit",
		"event":      kind.String(),
		"args":       args.String(),
		"session_id": r.session.ID.String(),
	}).Debug("Emitting audio mode event")

	if err := r.submitter.Submit(kind, &args); err != nil {
		return fmt.Errorf("submit %s: %w", kind, err)
	}
	return nil
}
