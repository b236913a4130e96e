package pipe

import "fmt"

// Factory assembles middleware chains from Actions.
//
// Building performs no I/O. It fails only when a step names an unknown key or
// a constructor cannot resolve its dependencies; both surface as ErrBuild.
type Factory struct {
	registry *Registry
	resolver Resolver
}

// NewFactory returns a Factory resolving steps through registry and
// constructor dependencies through resolver.
func NewFactory(registry *Registry, resolver Resolver) *Factory {
	if resolver == nil {
		resolver = NewServices()
	}
	return &Factory{registry: registry, resolver: resolver}
}

// Create applies action to a fresh Builder and links the constructed nodes in
// registration order. It returns the head of the chain; an empty action yields
// a terminal pass-through node.
func (f *Factory) Create(action Action) (Middleware, error) {
	b := NewBuilder()
	if action != nil {
		action(b)
	}
	steps := b.Steps()
	if len(steps) == 0 {
		return NoOp(), nil
	}

	nodes := make([]Linker, 0, len(steps))
	for i, step := range steps {
		constructor, ok := f.registry.Lookup(step.Key)
		if !ok {
			return nil, fmt.Errorf("%w: step %d: %w: %q", ErrBuild, i, ErrUnknownMiddleware, step.Key)
		}
		node, err := constructor(f.resolver, step.Args...)
		if err != nil {
			return nil, fmt.Errorf("%w: step %d (%s): %w", ErrBuild, i, step.Key, err)
		}
		if node == nil {
			return nil, fmt.Errorf("%w: step %d (%s): constructor returned nil", ErrBuild, i, step.Key)
		}
		nodes = append(nodes, node)
	}

	for i := 0; i < len(nodes)-1; i++ {
		if err := nodes[i].Link(nodes[i+1]); err != nil {
			return nil, fmt.Errorf("%w: step %d (%s): %w", ErrBuild, i, steps[i].Key, err)
		}
	}
	return nodes[0], nil
}
