// Package observability defines the hook through which components report the
// operations they perform. Implementations turn the reports into metrics,
// traces or logs; components never depend on a concrete backend.
package observability

import "time"

// OperationContext describes one completed operation.
type OperationContext struct {
	// Component is the reporting package, e.g. "rabbit" or "bus".
	Component string

	// Operation is the verb, e.g. "produce", "consume", "ack", "invoke".
	Operation string

	// Resource is the primary target (exchange or queue name).
	Resource string

	// SubResource is a secondary target (routing key, consumer tag).
	SubResource string

	// Duration is the wall time of the operation.
	Duration time.Duration

	// Error is the failure, nil on success.
	Error error

	// Size is the payload size in bytes when known.
	Size int64

	// Metadata carries free-form extra labels.
	Metadata map[string]string
}

// Observer receives operation reports. Implementations must be safe for
// concurrent use.
type Observer interface {
	ObserveOperation(ctx OperationContext)
}
