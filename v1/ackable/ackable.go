package ackable

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Aleph-Alpha/rabbitbus/v1/policy"
)

// Ackable binds received content to the channel and delivery tags needed to
// settle it.
//
// Exactly one of Ack, Nack or Reject takes effect. The tags are settled one
// broker call per tag in insertion order; the first failing tag aborts the
// remaining ones and already settled tags are not rolled back. Acknowledged
// only becomes true once every tag has been settled.
type Ackable[T any] struct {
	Content T

	channel Acknowledger
	tags    TagFunc[T]
	policy  policy.Policy
	release func()

	// settled runs after a successful settle, while the settle lock is held.
	settled func()

	mu           sync.Mutex
	acknowledged atomic.Bool
	disposed     atomic.Bool
	disposeOnce  sync.Once
}

type options struct {
	release func()
	policy  policy.Policy
}

// Option configures an Ackable.
type Option func(*options)

// WithRelease sets the function run once by Dispose. Use it when the
// Ackable owns its channel.
func WithRelease(release func()) Option {
	return func(o *options) { o.release = release }
}

// WithPolicy wraps every per-tag broker call in p.
func WithPolicy(p policy.Policy) Option {
	return func(o *options) { o.policy = p }
}

// New creates an Ackable for content received on ch.
func New[T any](content T, ch Acknowledger, tags TagFunc[T], opts ...Option) *Ackable[T] {
	o := options{policy: policy.NoOp()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.policy == nil {
		o.policy = policy.NoOp()
	}
	if tags == nil {
		tags = func(T) []uint64 { return nil }
	}

	return &Ackable[T]{
		Content: content,
		channel: ch,
		tags:    tags,
		policy:  o.policy,
		release: o.release,
	}
}

// Ack acknowledges every delivery tag of the content.
func (a *Ackable[T]) Ack(ctx context.Context) error {
	return a.settle(ctx, "ack", func(ctx context.Context, tag uint64) error {
		return a.channel.Ack(ctx, tag, false)
	})
}

// Nack negatively acknowledges every delivery tag of the content.
func (a *Ackable[T]) Nack(ctx context.Context, requeue bool) error {
	return a.settle(ctx, "nack", func(ctx context.Context, tag uint64) error {
		return a.channel.Nack(ctx, tag, false, requeue)
	})
}

// Reject rejects every delivery tag of the content.
func (a *Ackable[T]) Reject(ctx context.Context, requeue bool) error {
	return a.settle(ctx, "reject", func(ctx context.Context, tag uint64) error {
		return a.channel.Reject(ctx, tag, requeue)
	})
}

func (a *Ackable[T]) settle(ctx context.Context, action string, call func(ctx context.Context, tag uint64) error) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.acknowledged.Load() {
		return ErrAlreadyAcknowledged
	}
	if a.disposed.Load() {
		return ErrDisposed
	}

	tags := a.DeliveryTags()
	if len(tags) > 0 && a.channel == nil {
		return ErrNoChannel
	}

	for _, tag := range tags {
		tag := tag
		err := a.policy.Execute(ctx, policy.Call{
			Arguments: map[string]interface{}{
				"action":       action,
				"delivery_tag": tag,
			},
			Component: "ackable",
		}, func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return call(ctx, tag)
		})
		if err != nil {
			return fmt.Errorf("%s delivery tag %d: %w", action, tag, err)
		}
	}

	a.acknowledged.Store(true)
	if a.settled != nil {
		a.settled()
	}
	return nil
}

// Acknowledged reports whether a settle call has succeeded.
func (a *Ackable[T]) Acknowledged() bool {
	return a.acknowledged.Load()
}

// DeliveryTags returns the distinct delivery tags of the content in
// insertion order.
func (a *Ackable[T]) DeliveryTags() []uint64 {
	return Dedupe(a.tags(a.Content))
}

// Dispose releases the channel if the Ackable owns one. It does not settle
// the content; unsettled deliveries are redelivered by the broker once the
// channel closes. Safe to call more than once.
func (a *Ackable[T]) Dispose() {
	a.disposeOnce.Do(func() {
		a.disposed.Store(true)
		if a.release != nil {
			a.release()
		}
	})
}

// markAcknowledged flags the Ackable as settled without a broker call. Used
// when an enclosing batch settled its tags.
func (a *Ackable[T]) markAcknowledged() {
	a.acknowledged.Store(true)
}

// Dedupe drops repeated tags keeping the first occurrence.
func Dedupe(tags []uint64) []uint64 {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[uint64]struct{}, len(tags))
	out := make([]uint64, 0, len(tags))
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
