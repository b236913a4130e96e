package sequence

import "errors"

var (
	// ErrUnknownStep is returned when a trigger names no step of the sequence.
	ErrUnknownStep = errors.New("sequence: unknown step")

	// ErrStepNotPending is returned when a step that already completed or was
	// skipped is triggered again.
	ErrStepNotPending = errors.New("sequence: step is not pending")

	// ErrAborted is returned when a step is triggered after the sequence aborted.
	ErrAborted = errors.New("sequence: aborted")

	// ErrInvalidStep is returned for steps without a name or with a duplicate name.
	ErrInvalidStep = errors.New("sequence: invalid step")
)
