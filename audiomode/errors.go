package audiomode

import "errors"

// Sentinel errors for audiomode package operations.
// These errors enable reliable error classification using errors.Is().

// Construction errors.
var (
	// ErrNilFocusPort indicates the machine was built without an audio focus port.
	ErrNilFocusPort = errors.New("audio focus port cannot be nil")

	// ErrInvalidQueueSize indicates a non-positive event queue capacity.
	ErrInvalidQueueSize = errors.New("event queue size must be positive")
)

// Submission errors.
var (
	// ErrUnknownEvent indicates an event code the machine does not define.
	ErrUnknownEvent = errors.New("unknown event kind")

	// ErrMachineNotRunning indicates the machine has not been started or was stopped.
	ErrMachineNotRunning = errors.New("machine is not running")

	// ErrMachineAlreadyRunning indicates Start was called twice.
	ErrMachineAlreadyRunning = errors.New("machine is already running")
)

// Parse errors.
var (
	ErrUnknownState = errors.New("unknown state")
	ErrUnknownMode  = errors.New("unknown audio mode")
)
