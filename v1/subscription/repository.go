package subscription

import (
	"context"
	"errors"
	"sync/atomic"
)

// Repository is a concurrent set of subscriptions. Writers copy the current
// slice and swap it in with compare-and-swap, so readers never lock and a
// snapshot is never torn.
type Repository struct {
	subs atomic.Pointer[[]*Subscription]
}

// NewRepository returns an empty Repository.
func NewRepository() *Repository {
	r := &Repository{}
	empty := make([]*Subscription, 0)
	r.subs.Store(&empty)
	return r
}

// Add inserts s. Adding nil or an already present subscription is a no-op.
func (r *Repository) Add(s *Subscription) {
	if s == nil {
		return
	}
	for {
		cur := r.subs.Load()
		for _, existing := range *cur {
			if existing == s {
				return
			}
		}
		next := make([]*Subscription, len(*cur), len(*cur)+1)
		copy(next, *cur)
		next = append(next, s)
		if r.subs.CompareAndSwap(cur, &next) {
			return
		}
	}
}

// Remove drops s from the set.
func (r *Repository) Remove(s *Subscription) {
	for {
		cur := r.subs.Load()
		next := make([]*Subscription, 0, len(*cur))
		for _, existing := range *cur {
			if existing != s {
				next = append(next, existing)
			}
		}
		if len(next) == len(*cur) {
			return
		}
		if r.subs.CompareAndSwap(cur, &next) {
			return
		}
	}
}

// GetAll returns a point-in-time snapshot. Subscriptions added after the
// snapshot was taken are not included.
func (r *Repository) GetAll() []*Subscription {
	cur := r.subs.Load()
	out := make([]*Subscription, len(*cur))
	copy(out, *cur)
	return out
}

// Len returns the number of tracked subscriptions.
func (r *Repository) Len() int {
	return len(*r.subs.Load())
}

// DisposeAll closes every tracked subscription, waiting for each cancel
// until ctx is done, and empties the repository. Errors are joined.
func (r *Repository) DisposeAll(ctx context.Context) error {
	empty := make([]*Subscription, 0)
	old := r.subs.Swap(&empty)

	var errs []error
	for _, s := range *old {
		if err := s.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
