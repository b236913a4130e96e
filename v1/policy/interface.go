package policy

import (
	"context"

	"github.com/Aleph-Alpha/rabbitbus/v1/pipe"
)

// Policy wraps a delegate with cross-cutting behaviour such as retry.
type Policy interface {
	// Execute runs fn, possibly more than once. ctx bounds every attempt and
	// every wait between attempts.
	Execute(ctx context.Context, call Call, fn func(ctx context.Context) error) error
}

// Call describes the operation a policy is wrapping, for diagnostics and for
// policies that need the pipeline state.
type Call struct {
	// Context is the pipeline Context of the invocation.
	Context *pipe.Context

	// Arguments are the domain arguments of the operation (queue name,
	// exchange name, delivery tag, ...).
	Arguments map[string]interface{}

	// Component names the middleware or component issuing the call.
	Component string
}

// Logger is the logging contract used by policies.
type Logger interface {
	Warn(msg string, err error, fields ...map[string]interface{})
}
