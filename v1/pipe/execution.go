package pipe

import "context"

type executionIDKey struct{}

// WithExecutionID returns a child context carrying the global execution id.
// The value flows to everything derived from the returned context and never
// to siblings or parents.
func WithExecutionID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, executionIDKey{}, id)
}

// ExecutionIDFromContext returns the execution id carried by ctx, if any.
func ExecutionIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(executionIDKey{}).(string)
	return id, ok && id != ""
}
