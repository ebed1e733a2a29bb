// Package testing provides in-memory implementations of the audio focus and
// route coordinator ports for deterministic testing of audiomode machines.
//
// # Overview
//
// A production audio focus port talks to the platform audio service and a
// route coordinator drives the speaker/earpiece/Bluetooth selection. The
// recording ports here stand in for both: every call is appended to an
// ordered log and the resulting focus, mode, ringing and call-waiting state
// is tracked so tests and scenario replays can assert on it.
//
// # Usage
//
//	focus := testing.NewRecordingFocusPort()
//	route := testing.NewRecordingRouteCoordinator()
//	machine, _ := audiomode.NewMachine(focus, route)
//	machine.Start()
//	defer machine.Stop()
//
//	machine.Submit(audiomode.EventNewRingingCall, &audiomode.EventArgs{HasRingingCalls: true})
//	machine.Sync(ctx)
//
//	if !route.IsRinging() {
//	    t.Fatal("expected ringing")
//	}
//
// # Thread Safety
//
// Both ports are safe for concurrent use. The machine only calls them from
// its worker goroutine, but tests usually read them from another.
package testing
