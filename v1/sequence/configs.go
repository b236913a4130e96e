package sequence

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Handler processes the message that completed a step.
type Handler func(ctx context.Context, message any) error

// Step is one expected correlated message of a sequence.
type Step struct {
	// Name identifies the step; it is matched against incoming messages.
	Name string

	// Optional steps may be skipped without aborting the sequence.
	Optional bool

	// AbortsExecution ends the sequence once this step completes.
	AbortsExecution bool

	// Handler, when set, runs in the sequence's handler task group.
	Handler Handler
}

// Status is the state of one step.
type Status int

const (
	Pending Status = iota
	Completed
	Skipped
)

func (s Status) String() string {
	switch s {
	case Completed:
		return "completed"
	case Skipped:
		return "skipped"
	default:
		return "pending"
	}
}

// StepResult records how a step left the pending state.
type StepResult struct {
	Name    string
	Status  Status
	Message any
	At      time.Time
}

// ExecutionState is a point-in-time snapshot of a sequence.
type ExecutionState struct {
	ID        uuid.UUID
	Completed []StepResult
	Skipped   []StepResult
	Aborted   bool
}

// StepNames returns the names of the given results in order.
func StepNames(results []StepResult) []string {
	names := make([]string, len(results))
	for i, r := range results {
		names[i] = r.Name
	}
	return names
}
