// Package pipe provides the per-invocation middleware pipeline.
//
// An invocation is described by an Action that registers middleware keys on
// a Builder in execution order. A Factory turns the Action into a fresh
// chain of nodes by looking each key up in a Registry and calling its
// Constructor with a Resolver for named services. Nothing is cached between
// invocations: applying the same Action twice yields two independent chains.
//
// Nodes share a Context, a string keyed property bag created for one
// invocation. Readers tolerate missing keys; use Require where a key is
// mandatory.
//
// # Building and running a chain
//
//	registry := pipe.NewRegistry()
//	registry.Register("stamp", pipe.Func(func(ctx context.Context, pc *pipe.Context) error {
//		pc.Set("stamped", true)
//		return nil
//	}))
//
//	factory := pipe.NewFactory(registry, pipe.NewServices())
//	chain, err := factory.Create(func(b pipe.Builder) {
//		b.Use("stamp")
//	})
//	if err != nil {
//		return err
//	}
//
//	pc := pipe.NewContext()
//	err = chain.Invoke(ctx, pc)
//
// # Writing a node
//
// Embed Base to get Link and Next. A node either calls Next or ends the
// chain on purpose:
//
//	type stamp struct{ pipe.Base }
//
//	func (s *stamp) Invoke(ctx context.Context, pc *pipe.Context) error {
//		pc.Set("stamped", true)
//		return s.Next(ctx, pc)
//	}
//
// Next returns ctx.Err() once the invocation is cancelled, so a cancelled
// chain stops forwarding at the next node boundary.
//
// # Execution id
//
// WithExecutionID and ExecutionIDFromContext carry the global execution id
// on the context.Context of one logical operation. The value flows to
// callees only, never back to callers or to sibling operations.
package pipe
