package pipe

import "context"

// Base provides successor handling for middleware implementations. Embed it
// and call Next to forward to the rest of the chain.
type Base struct {
	next   Middleware
	linked bool
}

// Link sets the successor. It fails with ErrAlreadyLinked on a second call.
func (b *Base) Link(next Middleware) error {
	if b.linked {
		return ErrAlreadyLinked
	}
	b.next = next
	b.linked = true
	return nil
}

// Next invokes the successor. A node without successor is terminal and Next
// returns nil. Cancellation stops forwarding and surfaces ctx.Err().
func (b *Base) Next(ctx context.Context, pc *Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.next == nil {
		return nil
	}
	return b.next.Invoke(ctx, pc)
}

// Terminal reports whether no successor has been linked.
func (b *Base) Terminal() bool {
	return b.next == nil
}

// funcMiddleware wraps a MiddlewareFunc. The wrapped function runs before the
// successor; returning an error ends the chain.
type funcMiddleware struct {
	Base
	fn MiddlewareFunc
}

func (m *funcMiddleware) Invoke(ctx context.Context, pc *Context) error {
	if err := m.fn(ctx, pc); err != nil {
		return err
	}
	return m.Next(ctx, pc)
}

// Func returns a Constructor for a function middleware that runs fn and then
// forwards to its successor.
func Func(fn MiddlewareFunc) Constructor {
	return func(Resolver, ...any) (Linker, error) {
		return &funcMiddleware{fn: fn}, nil
	}
}

type noop struct{ Base }

func (n *noop) Invoke(ctx context.Context, pc *Context) error {
	return n.Next(ctx, pc)
}

// NoOp returns a pass-through node.
func NoOp() Linker { return &noop{} }
