// Package scenario replays scripted call sequences against an audiomode
// machine wired to recording ports and checks the audio posture after each
// step.
//
// A scenario is a YAML document:
//
//	name: call-waiting
//	initial_state: SIM_CALL   # optional, entered with a forced command
//	steps:
//	  - event: NEW_RINGING_CALL
//	    args: {active: true, ringing: true}
//	    expect: {state: SIM_CALL, call_waiting: true}
//	  - roster: {op: add, call: second, state: holding}
//	    expect: {state: SIM_CALL}
//
// Event steps submit one machine event with the given flags. Roster steps
// go through a callroster.Roster, which derives the events the way the
// telephony layer would. Expectations may check state, mode, ringing,
// call_waiting and focused; omitted fields are not checked.
package scenario
