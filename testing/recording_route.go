package testing

import (
	"sync"

	"github.com/opd-ai/callaudio/audiomode"
	"github.com/sirupsen/logrus"
)

// RouteOp names a route coordinator operation.
type RouteOp string

const (
	OpSetFocusState        RouteOp = "setFocusState"
	OpStartRinging         RouteOp = "startRinging"
	OpStopRinging          RouteOp = "stopRinging"
	OpStartCallWaitingTone RouteOp = "startCallWaitingTone"
	OpStopCallWaitingTone  RouteOp = "stopCallWaitingTone"
)

// RouteCall is one recorded route coordinator call.
type RouteCall struct {
	Op    RouteOp
	Focus audiomode.FocusState
}

func (c RouteCall) String() string {
	if c.Op == OpSetFocusState {
		return string(c.Op) + "(" + c.Focus.String() + ")"
	}
	return string(c.Op) + "()"
}

// RecordingRouteCoordinator implements audiomode.RouteCoordinatorPort in
// memory, tracking ringing, call waiting and focus as a real coordinator
// would see them.
type RecordingRouteCoordinator struct {
	mu          sync.RWMutex
	calls       []RouteCall
	focus       audiomode.FocusState
	ringing     bool
	callWaiting bool
}

// NewRecordingRouteCoordinator creates a coordinator with no focus.
func NewRecordingRouteCoordinator() *RecordingRouteCoordinator {
	logrus.WithFields(logrus.Fields{
		"function": "NewRecordingRouteCoordinator",
	}).Debug("Creating recording route coordinator")

	return &RecordingRouteCoordinator{focus: audiomode.NoFocus}
}

func (r *RecordingRouteCoordinator) record(call RouteCall) {
	r.calls = append(r.calls, call)

	logrus.WithFields(logrus.Fields{
		"function": "RecordingRouteCoordinator",
		"call":     call.String(),
	}).Debug("Simulated route coordinator call")
}

// SetFocusState implements audiomode.RouteCoordinatorPort.
func (r *RecordingRouteCoordinator) SetFocusState(state audiomode.FocusState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.focus = state
	r.record(RouteCall{Op: OpSetFocusState, Focus: state})
}

// StartRinging implements audiomode.RouteCoordinatorPort.
func (r *RecordingRouteCoordinator) StartRinging() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ringing = true
	r.record(RouteCall{Op: OpStartRinging})
}

// StopRinging implements audiomode.RouteCoordinatorPort.
func (r *RecordingRouteCoordinator) StopRinging() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ringing = false
	r.record(RouteCall{Op: OpStopRinging})
}

// StartCallWaitingTone implements audiomode.RouteCoordinatorPort.
func (r *RecordingRouteCoordinator) StartCallWaitingTone() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callWaiting = true
	r.record(RouteCall{Op: OpStartCallWaitingTone})
}

// StopCallWaitingTone implements audiomode.RouteCoordinatorPort.
func (r *RecordingRouteCoordinator) StopCallWaitingTone() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callWaiting = false
	r.record(RouteCall{Op: OpStopCallWaitingTone})
}

// Calls returns a copy of the call log.
func (r *RecordingRouteCoordinator) Calls() []RouteCall {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]RouteCall(nil), r.calls...)
}

// Count returns how many times op was called.
func (r *RecordingRouteCoordinator) Count(op RouteOp) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, c := range r.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// IsRinging reports whether ringing was started and not stopped.
func (r *RecordingRouteCoordinator) IsRinging() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ringing
}

// IsCallWaiting reports whether a call-waiting tone is playing.
func (r *RecordingRouteCoordinator) IsCallWaiting() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.callWaiting
}

// FocusState returns the last focus state reported.
func (r *RecordingRouteCoordinator) FocusState() audiomode.FocusState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.focus
}

// Reset clears the call log but keeps the tracked state.
func (r *RecordingRouteCoordinator) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}
