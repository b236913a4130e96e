package policy

import "context"

type noOp struct{}

// NoOp returns the identity policy: fn runs exactly once.
func NoOp() Policy { return noOp{} }

func (noOp) Execute(ctx context.Context, _ Call, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
