package audiomode

// Outcome is the result of evaluating one event against a snapshot.
type Outcome struct {
	// Next is the snapshot after the event. It equals the input when nothing changed.
	Next Snapshot

	// Effects are the port calls to perform, in order: exit effects of the
	// old state followed by entry effects of the new one, or the in-state
	// effects of a handled event that does not transition.
	Effects []Effect

	// Handled is false when no handler claimed the event.
	Handled bool

	// Malformed is set when an operational event arrived without EventArgs.
	Malformed bool

	// Warning carries a message for unexpected but valid events.
	Warning string
}

// Changed reports whether the event moved the machine to another state.
func (o Outcome) Changed(from Snapshot) bool {
	return o.Next.State != from.State
}

// Transition evaluates kind against snap. It is pure: the returned effects
// describe every collaborator call the event requires and nothing is
// performed here.
//
// Initialize and the forced transitions are resolved before any per-state
// policy and always win. Operational events with nil args are reported as
// malformed and leave the snapshot untouched.
func Transition(snap Snapshot, kind EventKind, args *EventArgs) Outcome {
	t := &transitioner{out: Outcome{Next: snap}}

	if t.handleCommon(kind) {
		return t.out
	}
	if args == nil {
		t.out.Malformed = kind.IsOperational()
		return t.out
	}

	t.args = args
	switch snap.State {
	case StateUnfocused:
		t.out.Handled = t.unfocused(kind)
	case StateRingingFocus:
		t.out.Handled = t.ringing(kind)
	case StateSimCallFocus:
		t.out.Handled = t.simCall(kind)
	case StateVoipCallFocus:
		t.out.Handled = t.voipCall(kind)
	case StateOtherFocus:
		t.out.Handled = t.other(kind)
	}
	return t.out
}

type transitioner struct {
	out  Outcome
	args *EventArgs
}

func (t *transitioner) emit(effects ...Effect) {
	t.out.Effects = append(t.out.Effects, effects...)
}

func (t *transitioner) warn(msg string) {
	t.out.Warning = msg
}

// transitionTo exits the current state and enters target. A transition to
// the current state still runs the exit and entry effects.
func (t *transitioner) transitionTo(target State) {
	t.exit(t.out.Next.State)
	t.out.Next.State = target
	t.enter(target)
}

// toActiveFocus picks the call focus matching the foreground call type.
func (t *transitioner) toActiveFocus() {
	if t.args.ForegroundCallIsVoip {
		t.transitionTo(StateVoipCallFocus)
	} else {
		t.transitionTo(StateSimCallFocus)
	}
}

func (t *transitioner) exit(s State) {
	if s == StateRingingFocus {
		// Mode and stream are left for the next state's entry.
		t.emit(effect(EffectStopRinging))
	}
}

func (t *transitioner) enter(s State) {
	next := &t.out.Next
	switch s {
	case StateUnfocused:
		if !next.Initialized {
			return
		}
		t.emit(effect(EffectAbandonFocus), setMode(ModeNormal))
		next.MostRecentMode = ModeNormal
		t.emit(setRouteFocus(NoFocus))
	case StateRingingFocus:
		t.emit(requestFocus(StreamRing))
		if next.MostRecentMode == ModeInCall {
			// Going straight from IN_CALL to RINGTONE misbehaves on some
			// audio stacks; pass through NORMAL first.
			t.emit(setMode(ModeNormal))
		}
		t.emit(setMode(ModeRingtone), effect(EffectStartRinging), setRouteFocus(HasFocus))
	case StateSimCallFocus:
		t.emit(requestFocus(StreamVoiceCall), setMode(ModeInCall))
		next.MostRecentMode = ModeInCall
		t.emit(setRouteFocus(HasFocus))
	case StateVoipCallFocus:
		t.emit(requestFocus(StreamVoiceCall), setMode(ModeInCommunication))
		next.MostRecentMode = ModeInCommunication
		t.emit(setRouteFocus(HasFocus))
	case StateOtherFocus:
		t.emit(requestFocus(StreamVoiceCall), setMode(next.MostRecentMode), setRouteFocus(HasFocus))
	}
}

func (t *transitioner) handleCommon(kind EventKind) bool {
	switch kind {
	case EventForceSimFocus:
		t.transitionTo(StateSimCallFocus)
	case EventForceVoipFocus:
		t.transitionTo(StateVoipCallFocus)
	case EventForceRingFocus:
		t.transitionTo(StateRingingFocus)
	case EventForceAbandonFocus:
		t.transitionTo(StateUnfocused)
	case EventInitialize:
		t.out.Next.Initialized = true
	default:
		return false
	}
	t.out.Handled = true
	return true
}

func (t *transitioner) unfocused(kind EventKind) bool {
	switch kind {
	case EventNoMoreActiveOrDialingCalls, EventNoMoreRingingCalls, EventNoMoreHoldingCalls:
	case EventNewActiveOrDialingCall:
		t.warn("Newly active or dialing call appeared from an unfocused state")
		t.toActiveFocus()
	case EventNewRingingCall:
		t.transitionTo(StateRingingFocus)
	case EventNewHoldingCall:
		t.warn("Call was put on hold from an unknown state")
		t.transitionTo(StateOtherFocus)
	case EventToneStartedPlaying:
		t.warn("Tone started playing while unfocused")
	default:
		return false
	}
	return true
}

func (t *transitioner) ringing(kind EventKind) bool {
	switch kind {
	case EventNoMoreActiveOrDialingCalls, EventNoMoreHoldingCalls:
		// Losing an active or held call never touches the ringer.
	case EventNoMoreRingingCalls:
		switch {
		case t.args.HasActiveCalls:
			t.toActiveFocus()
		case t.args.HasHoldingCalls || t.args.IsTonePlaying:
			t.transitionTo(StateOtherFocus)
		default:
			t.transitionTo(StateUnfocused)
		}
	case EventNewActiveOrDialingCall:
		t.toActiveFocus()
	case EventNewRingingCall:
		t.warn("New ringing call appeared while already ringing")
	case EventNewHoldingCall:
		t.warn("Call was put on hold while ringing")
		t.transitionTo(StateOtherFocus)
	case EventMtAudioSpeedupForRingingCall:
		// Network fast-answer path; VoIP calls never use it.
		t.transitionTo(StateSimCallFocus)
	default:
		return false
	}
	return true
}

func (t *transitioner) simCall(kind EventKind) bool {
	if kind == EventForegroundVoipModeChange {
		if t.args.ForegroundCallIsVoip {
			t.transitionTo(StateVoipCallFocus)
		}
		return true
	}
	return t.inCall(kind)
}

func (t *transitioner) voipCall(kind EventKind) bool {
	if kind == EventForegroundVoipModeChange {
		if !t.args.ForegroundCallIsVoip {
			t.transitionTo(StateSimCallFocus)
		}
		return true
	}
	return t.inCall(kind)
}

// inCall is the policy shared by the SIM and VoIP call states.
func (t *transitioner) inCall(kind EventKind) bool {
	switch kind {
	case EventNoMoreActiveOrDialingCalls:
		switch {
		case t.args.HasHoldingCalls || t.args.IsTonePlaying:
			t.transitionTo(StateOtherFocus)
		case t.args.HasRingingCalls:
			t.transitionTo(StateRingingFocus)
		default:
			t.transitionTo(StateUnfocused)
		}
	case EventNoMoreRingingCalls:
		t.emit(effect(EffectStopCallWaiting))
	case EventNoMoreHoldingCalls, EventNewActiveOrDialingCall:
	case EventNewRingingCall:
		// Never ring over an active call.
		t.emit(effect(EffectStartCallWaiting))
	case EventNewHoldingCall:
		// Hold is resolved once the active count drops to zero.
	default:
		return false
	}
	return true
}

func (t *transitioner) other(kind EventKind) bool {
	switch kind {
	case EventNoMoreHoldingCalls:
		switch {
		case t.args.HasActiveCalls:
			t.toActiveFocus()
		case t.args.HasRingingCalls:
			t.transitionTo(StateRingingFocus)
		case !t.args.IsTonePlaying:
			t.transitionTo(StateUnfocused)
		}
	case EventNewActiveOrDialingCall:
		t.toActiveFocus()
	case EventNewRingingCall:
		// TODO: confirm a held call should yield to the ringer instead of
		// playing call waiting; kept as the established behavior for now.
		t.transitionTo(StateRingingFocus)
	case EventNewHoldingCall:
	case EventNoMoreRingingCalls:
		t.emit(effect(EffectStopCallWaiting))
	case EventToneStoppedPlaying:
		a := t.args
		if !a.HasActiveCalls && !a.HasRingingCalls && !a.HasHoldingCalls && !a.IsTonePlaying {
			t.transitionTo(StateUnfocused)
		}
	default:
		return false
	}
	return true
}
