package bus

import (
	"context"
	"fmt"
	"time"

	"github.com/Aleph-Alpha/rabbitbus/v1/middleware"
	"github.com/Aleph-Alpha/rabbitbus/v1/pipe"
	"github.com/Aleph-Alpha/rabbitbus/v1/sequence"
	"github.com/Aleph-Alpha/rabbitbus/v1/subscription"
)

// Step is one message ExecuteSequence waits for.
type Step struct {
	name   string
	zero   any
	decode middleware.Decoder
	handle sequence.Handler
	opts   []Option
}

// NewStep expects a message of type T, read from the QueueName option or a
// private queue bound to the step's exchange with its RoutingKey option or
// the name of T. handler may be nil.
//
// Optional and AbortsExecution configure how the step affects the sequence.
// Steps are ordered: a message completing a step passes over every pending
// step listed before it, which aborts the sequence if one of them is
// required. Each step is read by its own consumer, so list steps in the
// order their messages are causally produced, or mark the earlier ones
// Optional when their messages may arrive late.
func NewStep[T any](name string, handler func(ctx context.Context, msg T) error, opts ...Option) Step {
	var zero T
	s := Step{
		name:   name,
		zero:   zero,
		decode: decoderFor[T](),
		opts:   opts,
	}
	if handler != nil {
		s.handle = func(ctx context.Context, msg any) error {
			v, _ := msg.(T)
			return handler(ctx, v)
		}
	}
	return s
}

// Name returns the step name.
func (s Step) Name() string { return s.name }

// ExecuteSequence publishes msg and tracks the replies it causes.
//
// Every step gets a consumer before msg is published. msg carries the
// sequence id as its correlation id, and only messages correlated with it
// complete a step; others arriving on a step's queue are acked and dropped,
// so steps sharing a named queue must not run concurrently.
//
// Steps are matched in list order; see NewStep for the effect of messages
// arriving out of that order.
//
// The sequence ends when every step completed or was skipped, when it
// aborts, or when the Timeout option or the configured sequence timeout
// expires the outstanding steps. The returned state reports an abort in its
// Aborted field; the error is the first failure of a step handler, or a
// failure to set the sequence up. Options apply to the publication of msg.
func ExecuteSequence(ctx context.Context, c *Client, msg any, steps []Step, opts ...Option) (sequence.ExecutionState, error) {
	o := c.options(opts)

	stepOpts := make([]options, len(steps))
	defs := make([]sequence.Step, len(steps))
	for i, st := range steps {
		so := c.options(st.opts)
		so.autoAck = true
		stepOpts[i] = so
		defs[i] = sequence.Step{
			Name:            st.name,
			Optional:        so.optional,
			AbortsExecution: so.abortsExecution,
			Handler:         st.handle,
		}
	}

	seq, err := sequence.New(defs...)
	if err != nil {
		return sequence.ExecutionState{}, err
	}
	correlationID := seq.ID().String()

	subs := make([]*subscription.Subscription, 0, len(steps))
	defer func() {
		for _, sub := range subs {
			if err := c.Unsubscribe(context.WithoutCancel(ctx), sub); err != nil {
				c.logWarn(ctx, "Failed to stop sequence consumer", err, map[string]interface{}{
					"sequence_id": correlationID,
					"queue":       sub.QueueName(),
				})
			}
		}
	}()

	for i, st := range steps {
		so, name := stepOpts[i], st.name
		sub, err := c.subscribe(ctx, "sequence-step", so, so.bindingKey(st.zero), st.decode, func(ctx context.Context, pc *pipe.Context) error {
			if pipe.Get[string](pc, pipe.CorrelationIDKey) != correlationID {
				return nil
			}
			msg, _ := pc.Get(pipe.DeserializedMessageKey)
			if err := seq.Trigger(ctx, name, msg); err != nil {
				c.logWarn(ctx, "Dropped sequence message", err, map[string]interface{}{
					"sequence_id": correlationID,
					"step":        name,
				})
			}
			return nil
		})
		if err != nil {
			return seq.State(), fmt.Errorf("subscribe step %q: %w", name, err)
		}
		subs = append(subs, sub)
	}

	publishOpts := append(append([]Option(nil), opts...), CorrelationID(correlationID))
	if err := c.Publish(ctx, msg, publishOpts...); err != nil {
		return seq.State(), err
	}

	timeout := o.timeout
	if timeout <= 0 {
		timeout = c.defaults.SequenceTimeout
	}
	if timeout > 0 {
		timer := time.AfterFunc(timeout, seq.Expire)
		defer timer.Stop()
	}

	return seq.Wait(ctx)
}
