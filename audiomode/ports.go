package audiomode

// AudioFocusPort acquires and releases device audio focus and sets the global
// audio mode. Calls are fire-and-forget: a failure to obtain focus is never
// fed back into the machine.
type AudioFocusPort interface {
	// RequestFocus requests transient focus on the given stream.
	RequestFocus(stream Stream)

	// AbandonFocus releases call audio focus.
	AbandonFocus()

	// SetMode sets the device-wide audio mode.
	SetMode(mode AudioMode)
}

// RouteCoordinatorPort is the separate route-selection subsystem. It is told
// when focus is gained or lost and drives ringing and call-waiting playback.
type RouteCoordinatorPort interface {
	SetFocusState(state FocusState)
	StartRinging()
	StopRinging()
	StartCallWaitingTone()
	StopCallWaitingTone()
}
