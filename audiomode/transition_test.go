package audiomode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initialized(state State, mode AudioMode) Snapshot {
	return Snapshot{State: state, MostRecentMode: mode, Initialized: true}
}

func stateOf(out Outcome) State {
	return out.Next.State
}

// TestForcedCommandsAlwaysWin verifies forced commands reach their target from every state.
func TestForcedCommandsAlwaysWin(t *testing.T) {
	targets := map[EventKind]State{
		EventForceSimFocus:     StateSimCallFocus,
		EventForceVoipFocus:    StateVoipCallFocus,
		EventForceRingFocus:    StateRingingFocus,
		EventForceAbandonFocus: StateUnfocused,
	}

	for _, from := range AllStates {
		for cmd, want := range targets {
			out := Transition(initialized(from, ModeInCall), cmd, nil)
			assert.True(t, out.Handled, "%s from %s", cmd, from)
			assert.False(t, out.Malformed)
			assert.Equal(t, want, stateOf(out), "%s from %s", cmd, from)

			// Args never change the outcome of a forced command.
			withArgs := Transition(initialized(from, ModeInCall), cmd, &EventArgs{HasActiveCalls: true, ForegroundCallIsVoip: true})
			assert.Equal(t, out.Next, withArgs.Next)
		}
	}
}

// TestForcedSelfTransitionReentersState verifies forcing the current state exits and re-enters it.
func TestForcedSelfTransitionReentersState(t *testing.T) {
	out := Transition(initialized(StateRingingFocus, ModeInCall), EventForceRingFocus, nil)
	assert.True(t, out.Handled)
	assert.Equal(t, StateRingingFocus, stateOf(out))
	assert.False(t, out.Changed(initialized(StateRingingFocus, ModeInCall)))
	assert.Equal(t, []Effect{
		effect(EffectStopRinging),
		requestFocus(StreamRing),
		setMode(ModeNormal),
		setMode(ModeRingtone),
		effect(EffectStartRinging),
		setRouteFocus(HasFocus),
	}, out.Effects)

	out = Transition(initialized(StateSimCallFocus, ModeInCall), EventForceSimFocus, nil)
	assert.Equal(t, StateSimCallFocus, stateOf(out))
	assert.Equal(t, []Effect{
		requestFocus(StreamVoiceCall),
		setMode(ModeInCall),
		setRouteFocus(HasFocus),
	}, out.Effects)

	out = Transition(initialized(StateUnfocused, ModeNormal), EventForceAbandonFocus, nil)
	assert.Equal(t, StateUnfocused, stateOf(out))
	assert.Equal(t, []Effect{
		effect(EffectAbandonFocus),
		setMode(ModeNormal),
		setRouteFocus(NoFocus),
	}, out.Effects)
}

// TestInitialize verifies Initialize only flips the readiness flag and is idempotent.
func TestInitialize(t *testing.T) {
	for _, from := range AllStates {
		snap := Snapshot{State: from, MostRecentMode: ModeInCommunication}

		first := Transition(snap, EventInitialize, nil)
		require.True(t, first.Handled)
		assert.Equal(t, from, stateOf(first))
		assert.True(t, first.Next.Initialized)
		assert.Equal(t, ModeInCommunication, first.Next.MostRecentMode)
		assert.Empty(t, first.Effects)

		second := Transition(first.Next, EventInitialize, nil)
		assert.Equal(t, first.Next, second.Next)
		assert.Empty(t, second.Effects)
	}
}

// TestMalformedEventsAreIgnored verifies operational events without args change nothing.
func TestMalformedEventsAreIgnored(t *testing.T) {
	for _, from := range AllStates {
		for _, kind := range OperationalEvents {
			snap := initialized(from, ModeInCall)
			out := Transition(snap, kind, nil)
			assert.True(t, out.Malformed, "%s in %s", kind, from)
			assert.False(t, out.Handled)
			assert.Equal(t, snap, out.Next)
			assert.Empty(t, out.Effects)
		}
	}
}

// TestUnknownEventIsNotHandled verifies codes outside the defined set fall through.
func TestUnknownEventIsNotHandled(t *testing.T) {
	snap := initialized(StateSimCallFocus, ModeInCall)
	out := Transition(snap, EventKind(9999), &EventArgs{})
	assert.False(t, out.Handled)
	assert.False(t, out.Malformed)
	assert.Equal(t, snap, out.Next)
}

// TestUnfocusedEntryRequiresInitialize verifies focus is only abandoned once initialized.
func TestUnfocusedEntryRequiresInitialize(t *testing.T) {
	snap := Snapshot{State: StateSimCallFocus, MostRecentMode: ModeInCall}
	out := Transition(snap, EventForceAbandonFocus, nil)
	assert.Equal(t, StateUnfocused, stateOf(out))
	assert.Empty(t, out.Effects)
	assert.Equal(t, ModeInCall, out.Next.MostRecentMode)

	snap.Initialized = true
	out = Transition(snap, EventForceAbandonFocus, nil)
	assert.Equal(t, []Effect{
		effect(EffectAbandonFocus),
		setMode(ModeNormal),
		setRouteFocus(NoFocus),
	}, out.Effects)
	assert.Equal(t, ModeNormal, out.Next.MostRecentMode)
}

func TestUnfocusedPolicy(t *testing.T) {
	tests := []struct {
		name    string
		event   EventKind
		args    EventArgs
		want    State
		handled bool
		warning bool
	}{
		{"no more active", EventNoMoreActiveOrDialingCalls, EventArgs{}, StateUnfocused, true, false},
		{"no more ringing", EventNoMoreRingingCalls, EventArgs{}, StateUnfocused, true, false},
		{"no more holding", EventNoMoreHoldingCalls, EventArgs{}, StateUnfocused, true, false},
		{"new sim call", EventNewActiveOrDialingCall, EventArgs{HasActiveCalls: true}, StateSimCallFocus, true, true},
		{"new voip call", EventNewActiveOrDialingCall, EventArgs{HasActiveCalls: true, ForegroundCallIsVoip: true}, StateVoipCallFocus, true, true},
		{"new ringing", EventNewRingingCall, EventArgs{HasRingingCalls: true}, StateRingingFocus, true, false},
		{"new holding", EventNewHoldingCall, EventArgs{HasHoldingCalls: true}, StateOtherFocus, true, true},
		{"tone started", EventToneStartedPlaying, EventArgs{IsTonePlaying: true}, StateUnfocused, true, true},
		{"tone stopped", EventToneStoppedPlaying, EventArgs{}, StateUnfocused, false, false},
		{"speedup", EventMtAudioSpeedupForRingingCall, EventArgs{}, StateUnfocused, false, false},
		{"voip change", EventForegroundVoipModeChange, EventArgs{ForegroundCallIsVoip: true}, StateUnfocused, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := tt.args
			out := Transition(initialized(StateUnfocused, ModeNormal), tt.event, &args)
			assert.Equal(t, tt.want, stateOf(out))
			assert.Equal(t, tt.handled, out.Handled)
			assert.Equal(t, tt.warning, out.Warning != "")
		})
	}
}

func TestRingingPolicy(t *testing.T) {
	tests := []struct {
		name    string
		event   EventKind
		args    EventArgs
		want    State
		handled bool
	}{
		{"losing active keeps ringing", EventNoMoreActiveOrDialingCalls, EventArgs{HasRingingCalls: true}, StateRingingFocus, true},
		{"losing held keeps ringing", EventNoMoreHoldingCalls, EventArgs{HasRingingCalls: true}, StateRingingFocus, true},
		{"ring ends with sim active", EventNoMoreRingingCalls, EventArgs{HasActiveCalls: true}, StateSimCallFocus, true},
		{"ring ends with voip active", EventNoMoreRingingCalls, EventArgs{HasActiveCalls: true, ForegroundCallIsVoip: true}, StateVoipCallFocus, true},
		{"ring ends with held", EventNoMoreRingingCalls, EventArgs{HasHoldingCalls: true}, StateOtherFocus, true},
		{"ring ends with tone", EventNoMoreRingingCalls, EventArgs{IsTonePlaying: true}, StateOtherFocus, true},
		{"ring ends with nothing", EventNoMoreRingingCalls, EventArgs{}, StateUnfocused, true},
		{"active pre-empts ring", EventNewActiveOrDialingCall, EventArgs{HasActiveCalls: true, HasRingingCalls: true}, StateSimCallFocus, true},
		{"voip pre-empts ring", EventNewActiveOrDialingCall, EventArgs{HasActiveCalls: true, ForegroundCallIsVoip: true}, StateVoipCallFocus, true},
		{"second ringing call", EventNewRingingCall, EventArgs{HasRingingCalls: true}, StateRingingFocus, true},
		{"held while ringing", EventNewHoldingCall, EventArgs{HasHoldingCalls: true}, StateOtherFocus, true},
		{"speedup goes to sim", EventMtAudioSpeedupForRingingCall, EventArgs{ForegroundCallIsVoip: true}, StateSimCallFocus, true},
		{"tone started", EventToneStartedPlaying, EventArgs{IsTonePlaying: true}, StateRingingFocus, false},
		{"voip change", EventForegroundVoipModeChange, EventArgs{ForegroundCallIsVoip: true}, StateRingingFocus, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := tt.args
			out := Transition(initialized(StateRingingFocus, ModeNormal), tt.event, &args)
			assert.Equal(t, tt.want, stateOf(out))
			assert.Equal(t, tt.handled, out.Handled)
			if tt.want == StateRingingFocus {
				assert.Empty(t, out.Effects, "ring must not be disturbed")
			} else {
				require.NotEmpty(t, out.Effects)
				assert.Equal(t, effect(EffectStopRinging), out.Effects[0], "exit stops ringing first")
			}
		})
	}
}

func TestInCallPolicy(t *testing.T) {
	type expectation struct {
		name    string
		event   EventKind
		args    EventArgs
		want    State
		effects []Effect
	}

	for _, from := range []State{StateSimCallFocus, StateVoipCallFocus} {
		mode := ModeInCall
		if from == StateVoipCallFocus {
			mode = ModeInCommunication
		}
		tests := []expectation{
			{"active ends with held", EventNoMoreActiveOrDialingCalls, EventArgs{HasHoldingCalls: true, HasRingingCalls: true}, StateOtherFocus, nil},
			{"active ends with tone", EventNoMoreActiveOrDialingCalls, EventArgs{IsTonePlaying: true}, StateOtherFocus, nil},
			{"active ends with ringing", EventNoMoreActiveOrDialingCalls, EventArgs{HasRingingCalls: true}, StateRingingFocus, nil},
			{"active ends with nothing", EventNoMoreActiveOrDialingCalls, EventArgs{}, StateUnfocused, nil},
			{"ringing ends", EventNoMoreRingingCalls, EventArgs{HasActiveCalls: true}, from, []Effect{effect(EffectStopCallWaiting)}},
			{"holding ends", EventNoMoreHoldingCalls, EventArgs{HasActiveCalls: true}, from, nil},
			{"another active", EventNewActiveOrDialingCall, EventArgs{HasActiveCalls: true}, from, nil},
			{"new ringing plays call waiting", EventNewRingingCall, EventArgs{HasActiveCalls: true, HasRingingCalls: true}, from, []Effect{effect(EffectStartCallWaiting)}},
			{"new holding", EventNewHoldingCall, EventArgs{HasActiveCalls: true, HasHoldingCalls: true}, from, nil},
		}

		for _, tt := range tests {
			t.Run(from.String()+"/"+tt.name, func(t *testing.T) {
				args := tt.args
				out := Transition(initialized(from, mode), tt.event, &args)
				assert.True(t, out.Handled)
				assert.Equal(t, tt.want, stateOf(out))
				if tt.want == from {
					assert.Equal(t, tt.effects, out.Effects)
				}
			})
		}
	}
}

// TestHeldCallsBeatRingingWhenActiveEnds checks every flag combination with hasHoldingCalls set.
func TestHeldCallsBeatRingingWhenActiveEnds(t *testing.T) {
	for _, from := range []State{StateSimCallFocus, StateVoipCallFocus} {
		for _, ringing := range []bool{false, true} {
			for _, tone := range []bool{false, true} {
				args := &EventArgs{HasHoldingCalls: true, HasRingingCalls: ringing, IsTonePlaying: tone}
				out := Transition(initialized(from, ModeInCall), EventNoMoreActiveOrDialingCalls, args)
				assert.Equal(t, StateOtherFocus, stateOf(out), "from %s ringing=%t tone=%t", from, ringing, tone)
			}
		}
	}
}

func TestForegroundVoipModeChange(t *testing.T) {
	voip := &EventArgs{HasActiveCalls: true, ForegroundCallIsVoip: true}
	sim := &EventArgs{HasActiveCalls: true}

	out := Transition(initialized(StateSimCallFocus, ModeInCall), EventForegroundVoipModeChange, voip)
	assert.True(t, out.Handled)
	assert.Equal(t, StateVoipCallFocus, stateOf(out))
	assert.Equal(t, ModeInCommunication, out.Next.MostRecentMode)

	out = Transition(initialized(StateSimCallFocus, ModeInCall), EventForegroundVoipModeChange, sim)
	assert.True(t, out.Handled)
	assert.Equal(t, StateSimCallFocus, stateOf(out))
	assert.Empty(t, out.Effects)

	out = Transition(initialized(StateVoipCallFocus, ModeInCommunication), EventForegroundVoipModeChange, sim)
	assert.Equal(t, StateSimCallFocus, stateOf(out))
	assert.Equal(t, ModeInCall, out.Next.MostRecentMode)

	out = Transition(initialized(StateVoipCallFocus, ModeInCommunication), EventForegroundVoipModeChange, voip)
	assert.Equal(t, StateVoipCallFocus, stateOf(out))
	assert.Empty(t, out.Effects)
}

func TestOtherPolicy(t *testing.T) {
	tests := []struct {
		name    string
		event   EventKind
		args    EventArgs
		want    State
		handled bool
	}{
		{"held ends with sim active", EventNoMoreHoldingCalls, EventArgs{HasActiveCalls: true}, StateSimCallFocus, true},
		{"held ends with voip active", EventNoMoreHoldingCalls, EventArgs{HasActiveCalls: true, ForegroundCallIsVoip: true}, StateVoipCallFocus, true},
		{"held ends with ringing", EventNoMoreHoldingCalls, EventArgs{HasRingingCalls: true}, StateRingingFocus, true},
		{"held ends with nothing", EventNoMoreHoldingCalls, EventArgs{}, StateUnfocused, true},
		{"held ends but tone plays", EventNoMoreHoldingCalls, EventArgs{IsTonePlaying: true}, StateOtherFocus, true},
		{"new active", EventNewActiveOrDialingCall, EventArgs{HasActiveCalls: true, HasHoldingCalls: true}, StateSimCallFocus, true},
		{"new voip active", EventNewActiveOrDialingCall, EventArgs{HasActiveCalls: true, ForegroundCallIsVoip: true}, StateVoipCallFocus, true},
		{"new holding", EventNewHoldingCall, EventArgs{HasHoldingCalls: true}, StateOtherFocus, true},
		{"tone started", EventToneStartedPlaying, EventArgs{IsTonePlaying: true}, StateOtherFocus, false},
		{"speedup", EventMtAudioSpeedupForRingingCall, EventArgs{}, StateOtherFocus, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := tt.args
			out := Transition(initialized(StateOtherFocus, ModeInCall), tt.event, &args)
			assert.Equal(t, tt.want, stateOf(out))
			assert.Equal(t, tt.handled, out.Handled)
		})
	}
}

// TestOtherNewRingingCallYieldsToRinger documents established behavior that is
// questionable: a held call does not get a call-waiting tone, the ringer takes over.
func TestOtherNewRingingCallYieldsToRinger(t *testing.T) {
	out := Transition(initialized(StateOtherFocus, ModeInCall), EventNewRingingCall,
		&EventArgs{HasHoldingCalls: true, HasRingingCalls: true})
	assert.True(t, out.Handled)
	assert.Equal(t, StateRingingFocus, stateOf(out))
}

func TestOtherNoMoreRingingStopsCallWaiting(t *testing.T) {
	out := Transition(initialized(StateOtherFocus, ModeInCall), EventNoMoreRingingCalls, &EventArgs{HasHoldingCalls: true})
	assert.True(t, out.Handled)
	assert.Equal(t, StateOtherFocus, stateOf(out))
	assert.Equal(t, []Effect{effect(EffectStopCallWaiting)}, out.Effects)
}

// TestOtherToneStopped verifies the machine unfocuses only when all four flags are false.
func TestOtherToneStopped(t *testing.T) {
	for mask := 0; mask < 16; mask++ {
		args := &EventArgs{
			HasActiveCalls:  mask&1 != 0,
			HasRingingCalls: mask&2 != 0,
			HasHoldingCalls: mask&4 != 0,
			IsTonePlaying:   mask&8 != 0,
		}
		out := Transition(initialized(StateOtherFocus, ModeInCall), EventToneStoppedPlaying, args)
		assert.True(t, out.Handled)
		if mask == 0 {
			assert.Equal(t, StateUnfocused, stateOf(out))
		} else {
			assert.Equal(t, StateOtherFocus, stateOf(out), "mask %04b", mask)
		}
	}
}

// TestRememberedModeRestoredInOther verifies the other state restores the last in-call mode.
func TestRememberedModeRestoredInOther(t *testing.T) {
	for _, tc := range []struct {
		enter EventKind
		mode  AudioMode
	}{
		{EventForceSimFocus, ModeInCall},
		{EventForceVoipFocus, ModeInCommunication},
	} {
		out := Transition(initialized(StateUnfocused, ModeNormal), tc.enter, nil)
		require.Equal(t, tc.mode, out.Next.MostRecentMode)

		out = Transition(out.Next, EventNoMoreActiveOrDialingCalls, &EventArgs{HasHoldingCalls: true})
		require.Equal(t, StateOtherFocus, stateOf(out))
		assert.Equal(t, []Effect{
			requestFocus(StreamVoiceCall),
			setMode(tc.mode),
			setRouteFocus(HasFocus),
		}, out.Effects)
	}
}

func TestRingingEntryEffects(t *testing.T) {
	out := Transition(initialized(StateUnfocused, ModeNormal), EventNewRingingCall, &EventArgs{HasRingingCalls: true})
	assert.Equal(t, []Effect{
		requestFocus(StreamRing),
		setMode(ModeRingtone),
		effect(EffectStartRinging),
		setRouteFocus(HasFocus),
	}, out.Effects)

	// Coming from IN_CALL, the mode passes through NORMAL first.
	out = Transition(initialized(StateSimCallFocus, ModeInCall), EventNoMoreActiveOrDialingCalls, &EventArgs{HasRingingCalls: true})
	assert.Equal(t, []Effect{
		requestFocus(StreamRing),
		setMode(ModeNormal),
		setMode(ModeRingtone),
		effect(EffectStartRinging),
		setRouteFocus(HasFocus),
	}, out.Effects)
	assert.Equal(t, ModeInCall, out.Next.MostRecentMode)
}

// TestRingingToSimCallFromInCall verifies the NORMAL reset only applies when entering ringing.
func TestRingingToSimCallFromInCall(t *testing.T) {
	out := Transition(initialized(StateRingingFocus, ModeInCall), EventNewActiveOrDialingCall, &EventArgs{HasActiveCalls: true})
	assert.Equal(t, StateSimCallFocus, stateOf(out))
	assert.Equal(t, []Effect{
		effect(EffectStopRinging),
		requestFocus(StreamVoiceCall),
		setMode(ModeInCall),
		setRouteFocus(HasFocus),
	}, out.Effects)
}
