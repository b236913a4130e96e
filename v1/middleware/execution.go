package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/Aleph-Alpha/rabbitbus/v1/pipe"
)

type executionID struct {
	pipe.Base
}

func newExecutionID(pipe.Resolver, ...any) (pipe.Linker, error) {
	return &executionID{}, nil
}

// Invoke makes sure the chain runs under a global execution id. The id is
// taken from the context property, then from ctx, and generated otherwise.
// Downstream nodes see it both in the property bag and in ctx.
func (m *executionID) Invoke(ctx context.Context, pc *pipe.Context) error {
	id := pipe.Get[string](pc, pipe.GlobalExecutionIDKey)
	if id == "" {
		var ok bool
		if id, ok = pipe.ExecutionIDFromContext(ctx); !ok {
			id = uuid.NewString()
		}
		pc.Set(pipe.GlobalExecutionIDKey, id)
	}
	return m.Next(pipe.WithExecutionID(ctx, id), pc)
}
