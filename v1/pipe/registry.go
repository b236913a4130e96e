package pipe

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps stable middleware keys to constructors.
type Registry struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{constructors: make(map[string]Constructor)}
}

// Register binds key to constructor, replacing an existing binding.
func (r *Registry) Register(key string, constructor Constructor) {
	r.mu.Lock()
	r.constructors[key] = constructor
	r.mu.Unlock()
}

// Lookup returns the constructor bound to key.
func (r *Registry) Lookup(key string) (Constructor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.constructors[key]
	return c, ok
}

// Keys lists registered keys in lexical order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	keys := make([]string, 0, len(r.constructors))
	for k := range r.constructors {
		keys = append(keys, k)
	}
	r.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// Services is a map backed Resolver.
type Services struct {
	mu       sync.RWMutex
	services map[string]any
}

// NewServices returns an empty Services container.
func NewServices() *Services {
	return &Services{services: make(map[string]any)}
}

// Provide registers value under name.
func (s *Services) Provide(name string, value any) *Services {
	s.mu.Lock()
	s.services[name] = value
	s.mu.Unlock()
	return s
}

// Resolve implements Resolver.
func (s *Services) Resolve(name string) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.services[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownService, name)
	}
	return v, nil
}

// Resolve resolves name through r and asserts it to T.
func Resolve[T any](r Resolver, name string) (T, error) {
	var zero T
	if r == nil {
		return zero, fmt.Errorf("%w: %q (no resolver)", ErrUnknownService, name)
	}
	raw, err := r.Resolve(name)
	if err != nil {
		return zero, err
	}
	v, ok := raw.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %q has type %T", ErrUnknownService, name, raw)
	}
	return v, nil
}

// Arg returns the first argument of type T in args.
func Arg[T any](args []any) (T, bool) {
	for _, a := range args {
		if v, ok := a.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}
