package policy

import (
	"context"
	"sync"

	"github.com/Aleph-Alpha/rabbitbus/v1/pipe"
)

// Provider hands out named policies. Unregistered names resolve to NoOp so a
// missing policy is never a nil hazard.
type Provider struct {
	mu       sync.RWMutex
	policies map[string]Policy
	fallback Policy
}

// NewProvider returns an empty Provider.
func NewProvider() *Provider {
	return &Provider{policies: make(map[string]Policy), fallback: NoOp()}
}

// Register binds name to p.
func (pr *Provider) Register(name string, p Policy) *Provider {
	pr.mu.Lock()
	pr.policies[name] = p
	pr.mu.Unlock()
	return pr
}

// SetDefault replaces the policy returned for unregistered names.
func (pr *Provider) SetDefault(p Policy) *Provider {
	if p == nil {
		p = NoOp()
	}
	pr.mu.Lock()
	pr.fallback = p
	pr.mu.Unlock()
	return pr
}

// GetPolicy returns the policy registered under name, or the default.
func (pr *Provider) GetPolicy(name string) Policy {
	if pr == nil {
		return NoOp()
	}
	pr.mu.RLock()
	defer pr.mu.RUnlock()
	if p, ok := pr.policies[name]; ok && p != nil {
		return p
	}
	return pr.fallback
}

// FromContext resolves name through the provider stored in pc under
// pipe.PolicyProviderKey, falling back to NoOp.
func FromContext(pc *pipe.Context, name string) Policy {
	pr, ok := pipe.Lookup[*Provider](pc, pipe.PolicyProviderKey)
	if !ok {
		return NoOp()
	}
	return pr.GetPolicy(name)
}

// Execute is a shorthand for FromContext(pc, name).Execute.
func Execute(ctx context.Context, pc *pipe.Context, name, component string, args map[string]interface{}, fn func(ctx context.Context) error) error {
	return FromContext(pc, name).Execute(ctx, Call{Context: pc, Arguments: args, Component: component}, fn)
}
