package subscription

import (
	"context"
	"sync/atomic"

	"github.com/Aleph-Alpha/rabbitbus/v1/rabbit"
)

// Subscription tracks one consumer registration.
//
// Active moves from true to false exactly once. Dispose cancels the consumer
// in a background goroutine and returns before the broker confirms; Close
// does the same work and waits for it. Abandon handles consumers the broker
// already dropped.
type Subscription struct {
	queue   string
	tag     string
	channel Canceller
	logger  Logger

	active  atomic.Bool
	started atomic.Bool

	cancelled chan struct{}
	cancelErr error
}

// New creates an active Subscription for consumer. The queue name, consumer
// tag and channel are captured only when consumer is a broker-native handle
// such as *rabbit.Consumer; any other value yields a Subscription with no
// tag or queue whose Dispose makes no broker call.
func New(consumer any, queueName string, logger Logger) *Subscription {
	if rc, isHandle := consumer.(*rabbit.Consumer); isHandle && rc == nil {
		return newSubscription("", "", nil, logger)
	}
	c, ok := consumer.(brokerConsumer)
	if !ok {
		return newSubscription("", "", nil, logger)
	}

	queue := queueName
	if queue == "" {
		queue = c.QueueName()
	}

	var ch Canceller
	if rc := c.Channel(); rc != nil {
		ch = rc
	}
	return newSubscription(queue, c.ConsumerTag(), ch, logger)
}

func newSubscription(queue, tag string, ch Canceller, logger Logger) *Subscription {
	s := &Subscription{
		queue:     queue,
		tag:       tag,
		channel:   ch,
		logger:    logger,
		cancelled: make(chan struct{}),
	}
	s.active.Store(true)
	return s
}

// QueueName returns the consumed queue, or "" for untracked consumers.
func (s *Subscription) QueueName() string { return s.queue }

// ConsumerTag returns the broker-assigned consumer tag, or "" for untracked
// consumers.
func (s *Subscription) ConsumerTag() string { return s.tag }

// Active reports whether the subscription has not been disposed.
func (s *Subscription) Active() bool { return s.active.Load() }

// Dispose deactivates the subscription and cancels the consumer without
// waiting for the broker. It is a no-op when the channel is already closed
// or the subscription is already inactive. Cancel failures are logged.
func (s *Subscription) Dispose() {
	if !s.begin() {
		return
	}
	go func() {
		if err := s.cancel(context.Background()); err != nil && s.logger != nil {
			s.logger.WarnWithContext(context.Background(), "Failed to cancel consumer", err, map[string]interface{}{
				"queue":        s.queue,
				"consumer_tag": s.tag,
			})
		}
	}()
}

// Close deactivates the subscription and waits until the consumer is
// cancelled or ctx is done. If a Dispose already started the cancellation,
// Close waits for it.
func (s *Subscription) Close(ctx context.Context) error {
	if s.begin() {
		return s.cancel(ctx)
	}
	if !s.started.Load() {
		return nil
	}
	select {
	case <-s.cancelled:
		return s.cancelErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Abandon deactivates a subscription whose consumer is already gone, e.g.
// because its channel or connection closed. No broker call is made. It
// reports whether the subscription was still active.
func (s *Subscription) Abandon() bool {
	if !s.active.CompareAndSwap(true, false) {
		return false
	}
	s.started.Store(true)
	close(s.cancelled)
	return true
}

// Done is closed once a started cancellation has finished.
func (s *Subscription) Done() <-chan struct{} { return s.cancelled }

func (s *Subscription) begin() bool {
	if s.channel != nil && s.channel.IsClosed() {
		return false
	}
	if !s.active.CompareAndSwap(true, false) {
		return false
	}
	s.started.Store(true)
	return true
}

func (s *Subscription) cancel(ctx context.Context) error {
	defer close(s.cancelled)

	if s.channel == nil || s.tag == "" {
		return nil
	}
	s.cancelErr = s.channel.Cancel(ctx, s.tag)
	return s.cancelErr
}
