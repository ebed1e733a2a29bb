// Package audiomode arbitrates the audio posture of a telephony stack.
//
// A Machine tracks which of five coarse states the device should be in given
// the current call population: unfocused, ringing, in a SIM call, in a VoIP
// call, or "other" (held calls and in-call tones). Every change to the call
// roster is reported as an event carrying a snapshot of that roster, and each
// transition encodes a priority rule: a new active call pre-empts ringing,
// losing a held call never silences the ringer, a trailing tone keeps focus
// alive with zero calls, and so on.
//
// # Architecture
//
//   - Transition: a pure function from (Snapshot, EventKind, *EventArgs) to an
//     Outcome holding the next snapshot and the list of port calls to make.
//   - Machine: a single worker goroutine draining a FIFO queue, applying
//     Transition and performing the resulting Effects.
//   - AudioFocusPort / RouteCoordinatorPort: the two collaborators the machine
//     drives. Focus requests are fire-and-forget.
//   - Journal: an optional bounded history of processed events.
//
// # Usage
//
//	machine, err := audiomode.NewMachine(focusPort, routeCoordinator,
//	    audiomode.WithJournal(audiomode.NewJournal(128)))
//	if err != nil {
//	    return err
//	}
//	if err := machine.Start(); err != nil {
//	    return err
//	}
//	defer machine.Stop()
//
//	machine.Submit(audiomode.EventNewRingingCall, &audiomode.EventArgs{
//	    HasRingingCalls: true,
//	    Session:         audiomode.NewSession("incoming"),
//	})
//
// Start enqueues Initialize before anything else; until it is processed,
// entering the unfocused state does not abandon focus.
//
// # Dispatch
//
// Initialize and the four forced-transition commands are resolved before any
// per-state policy and always take effect regardless of the current state.
// Only unmatched events reach the per-state table. An operational event
// submitted without EventArgs is logged and ignored.
//
// # Thread Safety
//
// Submit, Sync and the accessors are safe for concurrent use. Ports are only
// ever called from the worker goroutine, one event at a time. Effects of an
// event are guaranteed to have happened once Sync returns, or once a later
// event has been processed.
//
// # Tracing
//
// Each processed event opens an OpenTelemetry span parented on the event's
// Session span context, and increments the audiomode.events and
// audiomode.transitions counters. Without an installed SDK these are no-ops.
package audiomode
