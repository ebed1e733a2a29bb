package callroster

import "errors"

// Sentinel errors for roster operations.
var (
	// ErrNilSubmitter indicates the roster was built without an event sink.
	ErrNilSubmitter = errors.New("submitter cannot be nil")

	// ErrNilCallID indicates a call without an ID.
	ErrNilCallID = errors.New("call ID cannot be nil")

	// ErrCallExists indicates a call with the same ID is already tracked.
	ErrCallExists = errors.New("call already exists")

	// ErrCallNotFound indicates the call ID is not tracked.
	ErrCallNotFound = errors.New("call not found")

	// ErrInvalidCallState indicates a state that is not valid for the operation.
	ErrInvalidCallState = errors.New("invalid call state")
)
