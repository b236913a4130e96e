package pipe

import "context"

// Middleware is one node of an invocation chain.
//
// A node must either call its successor (via Base.Next) or deliberately end
// the chain. Every suspension point inside Invoke must honour ctx.
type Middleware interface {
	Invoke(ctx context.Context, pc *Context) error
}

// Linker is a Middleware whose successor can be set once, at build time.
type Linker interface {
	Middleware
	Link(next Middleware) error
}

// Builder collects the ordered middleware registrations of one invocation.
// Registration order is execution order.
type Builder interface {
	// Use appends the middleware registered under key. Args are handed to the
	// registered constructor unchanged.
	Use(key string, args ...any) Builder

	// Replace swaps every step registered under key for newKey.
	Replace(key, newKey string, args ...any) Builder

	// Remove drops every step registered under key.
	Remove(key string) Builder

	// Steps returns a copy of the registered steps.
	Steps() []Step
}

// Action configures a Builder. The same Action may be applied any number of
// times; each application yields an independent chain.
type Action func(b Builder)

// Resolver resolves named services for middleware constructors.
type Resolver interface {
	Resolve(name string) (any, error)
}

// Constructor creates one middleware instance for one invocation.
type Constructor func(r Resolver, args ...any) (Linker, error)

// MiddlewareFunc is the function form of a middleware. Func wraps it into a
// Linker that runs the function and then forwards to its successor; an error
// ends the chain. The function cannot wrap the successor; embed Base for
// nodes that need to act after it.
type MiddlewareFunc func(ctx context.Context, pc *Context) error
