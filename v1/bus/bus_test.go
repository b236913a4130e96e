package bus

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/Aleph-Alpha/rabbitbus/v1/ackable"
	"github.com/Aleph-Alpha/rabbitbus/v1/internal/brokertest"
	"github.com/Aleph-Alpha/rabbitbus/v1/middleware"
	"github.com/Aleph-Alpha/rabbitbus/v1/observability"
	"github.com/Aleph-Alpha/rabbitbus/v1/pipe"
	"github.com/Aleph-Alpha/rabbitbus/v1/policy"
	"github.com/Aleph-Alpha/rabbitbus/v1/rabbit"
	"github.com/Aleph-Alpha/rabbitbus/v1/sequence"
	"github.com/Aleph-Alpha/rabbitbus/v1/serialization"
)

type orderCreated struct {
	ID string `json:"id"`
}

type job struct {
	N int `json:"n"`
}

type priceQuery struct {
	SKU string `json:"sku"`
}

type price struct {
	Cents int `json:"cents"`
}

type startOrder struct {
	ID string `json:"id"`
}

type orderAccepted struct {
	ID string `json:"id"`
}

type orderShipped struct {
	ID string `json:"id"`
}

type orderRejected struct {
	ID string `json:"id"`
}

type recordingObserver struct {
	mu  sync.Mutex
	ops []observability.OperationContext
}

func (r *recordingObserver) ObserveOperation(op observability.OperationContext) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, op)
}

func (r *recordingObserver) operations() []observability.OperationContext {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]observability.OperationContext(nil), r.ops...)
}

func testDefaults() Defaults {
	return Defaults{
		ExchangeType:    amqp.ExchangeTopic,
		RequestTimeout:  2 * time.Second,
		SequenceTimeout: 2 * time.Second,
	}
}

func newTestClient(t *testing.T, opts ...ClientOption) (*Client, *brokertest.Broker) {
	t.Helper()
	broker := brokertest.New()
	c, err := New(broker, append([]ClientOption{WithDefaults(testDefaults())}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close(context.Background()) })
	return c, broker
}

func enqueueJSON(b *brokertest.Broker, queue, body string) {
	b.Enqueue(queue, amqp.Publishing{ContentType: serialization.ContentTypeJSON, Body: []byte(body)})
}

func TestNewRequiresChannelFactory(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrNoChannelFactory)
}

func TestPublishDeclaresAndRoutes(t *testing.T) {
	c, broker := newTestClient(t)
	ctx := context.Background()

	err := c.Publish(ctx, orderCreated{ID: "o-1"},
		ExchangeName("events"), QueueName("orders"),
		CorrelationID("c-1"), Header("tenant", "acme"))
	require.NoError(t, err)

	assert.True(t, broker.HasExchange("events"))
	assert.True(t, broker.HasQueue("orders"))
	assert.Equal(t, 1, broker.QueueDepth("orders"))
	assert.Equal(t, 0, broker.OpenChannels())

	calls := broker.Calls("Publish")
	require.Len(t, calls, 1)
	assert.Equal(t, "events", calls[0].Args[0])
	assert.Equal(t, "orderCreated", calls[0].Args[1])
	msg := calls[0].Args[2].(amqp.Publishing)
	assert.Equal(t, "c-1", msg.CorrelationId)
	assert.Equal(t, "acme", msg.Headers["tenant"])
	assert.Equal(t, serialization.ContentTypeJSON, msg.ContentType)
	assert.JSONEq(t, `{"id":"o-1"}`, string(msg.Body))

	require.NoError(t, c.Publish(ctx, orderCreated{ID: "o-2"}, ExchangeName("events"), QueueName("orders")))
	assert.Len(t, broker.Calls("DeclareExchange"), 1)
	assert.Len(t, broker.Calls("DeclareQueue"), 1)
	assert.Equal(t, 2, broker.QueueDepth("orders"))
}

func TestPublishToDefaultExchangeUsesQueueName(t *testing.T) {
	c, broker := newTestClient(t)

	require.NoError(t, c.Publish(context.Background(), job{N: 1}, QueueName("jobs")))

	calls := broker.Calls("Publish")
	require.Len(t, calls, 1)
	assert.Equal(t, "", calls[0].Args[0])
	assert.Equal(t, "jobs", calls[0].Args[1])
	assert.Empty(t, broker.Calls("BindQueue"))
	assert.Equal(t, 1, broker.QueueDepth("jobs"))
}

func TestGetManyStopsAtEmptyQueue(t *testing.T) {
	c, broker := newTestClient(t)
	ctx := context.Background()
	for _, body := range []string{`{"n":1}`, `{"n":2}`, `{"n":3}`} {
		enqueueJSON(broker, "jobs", body)
	}

	batch, err := GetMany[job](ctx, c, 5, QueueName("jobs"))
	require.NoError(t, err)
	require.Len(t, batch.Content, 3)
	assert.Equal(t, 2, batch.Content[1].Content.N)
	assert.Len(t, broker.Calls("Get"), 4)
	assert.Equal(t, 1, broker.OpenChannels())

	require.NoError(t, batch.Content[0].Ack(ctx))
	require.NoError(t, batch.Ack(ctx))
	assert.Len(t, broker.Calls("Ack"), 3)
	assert.True(t, batch.Content[2].Acknowledged())

	batch.Dispose()
	assert.Equal(t, 0, broker.OpenChannels())
	assert.Equal(t, 0, broker.QueueDepth("jobs"))
}

func TestGetManyZeroBatchSize(t *testing.T) {
	c, broker := newTestClient(t)

	batch, err := GetMany[job](context.Background(), c, 0, QueueName("jobs"))
	require.NoError(t, err)
	require.NotNil(t, batch)
	assert.Empty(t, batch.Content)
	assert.Empty(t, broker.Calls(""))
	assert.Equal(t, 0, broker.OpenChannels())
}

func TestGetManyRequiresQueue(t *testing.T) {
	c, _ := newTestClient(t)

	_, err := GetMany[job](context.Background(), c, 1)
	assert.ErrorIs(t, err, ErrNoDestination)
}

func TestGetManyDecodeFailureRequeues(t *testing.T) {
	c, broker := newTestClient(t)
	enqueueJSON(broker, "jobs", "{")

	_, err := GetMany[job](context.Background(), c, 1, QueueName("jobs"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jobs")
	assert.Equal(t, 0, broker.OpenChannels())
	assert.Equal(t, 1, broker.QueueDepth("jobs"))
}

func TestGetEmptyQueue(t *testing.T) {
	c, broker := newTestClient(t)
	broker.Enqueue("jobs", amqp.Publishing{})
	ch, err := broker.OpenChannel(context.Background())
	require.NoError(t, err)
	_, _, err = ch.Get(context.Background(), "jobs", true)
	require.NoError(t, err)
	require.NoError(t, ch.Close())

	msg, ok, err := Get[job](context.Background(), c, QueueName("jobs"))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, msg)
	assert.Equal(t, 0, broker.OpenChannels())
}

func TestGetWithAutoAck(t *testing.T) {
	c, broker := newTestClient(t)
	ctx := context.Background()
	enqueueJSON(broker, "jobs", `{"n":7}`)

	msg, ok, err := Get[job](ctx, c, QueueName("jobs"), AutoAck(true))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 7, msg.Content.N)
	assert.True(t, msg.Acknowledged())
	assert.ErrorIs(t, msg.Ack(ctx), ackable.ErrAlreadyAcknowledged)
	assert.Len(t, broker.Calls("Ack"), 1)
	assert.Equal(t, 0, broker.OpenChannels())
}

func TestGetThenReject(t *testing.T) {
	c, broker := newTestClient(t)
	ctx := context.Background()
	enqueueJSON(broker, "jobs", `{"n":1}`)

	msg, ok, err := Get[job](ctx, c, QueueName("jobs"))
	require.NoError(t, err)
	require.True(t, ok)
	defer msg.Dispose()

	require.NoError(t, msg.Reject(ctx, true))
	assert.Equal(t, 1, broker.QueueDepth("jobs"))
	assert.ErrorIs(t, msg.Nack(ctx, false), ackable.ErrAlreadyAcknowledged)
}

func TestSubscribeAutoAck(t *testing.T) {
	c, broker := newTestClient(t)
	ctx := context.Background()

	received := make(chan orderCreated, 1)
	var attempts atomic.Int32
	sub, err := Subscribe(ctx, c, func(ctx context.Context, msg *ackable.Ackable[orderCreated]) error {
		if attempts.Add(1) == 1 {
			return errors.New("not yet")
		}
		received <- msg.Content
		return nil
	}, QueueName("orders"), AutoAck(true))
	require.NoError(t, err)
	assert.Equal(t, 1, c.Subscriptions().Len())

	require.NoError(t, c.Publish(ctx, orderCreated{ID: "o-9"}, QueueName("orders")))

	select {
	case o := <-received:
		assert.Equal(t, "o-9", o.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("message not delivered")
	}
	assert.Len(t, broker.Calls("Nack"), 1)
	require.Eventually(t, func() bool { return len(broker.Calls("Ack")) == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, c.Unsubscribe(ctx, sub))
	assert.Equal(t, 0, c.Subscriptions().Len())
	assert.Equal(t, 0, broker.ConsumerCount("orders"))
	require.Eventually(t, func() bool { return broker.OpenChannels() == 0 }, time.Second, 5*time.Millisecond)
}

func TestReconnectRedeclaresTopology(t *testing.T) {
	c, broker := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.Publish(ctx, orderCreated{ID: "o-1"}, ExchangeName("events"), Durable(false)))
	require.NoError(t, c.Publish(ctx, orderCreated{ID: "o-2"}, ExchangeName("events"), Durable(false)))
	assert.Len(t, broker.Calls("DeclareExchange"), 1)

	broker.Restart()
	assert.False(t, broker.HasExchange("events"))
	assert.Equal(t, 0, c.Topology().Len())

	require.NoError(t, c.Publish(ctx, orderCreated{ID: "o-3"}, ExchangeName("events"), Durable(false)))
	assert.True(t, broker.HasExchange("events"))
	assert.Len(t, broker.Calls("DeclareExchange"), 2)
}

func TestClosedClientStopsWatchingReconnects(t *testing.T) {
	c, broker := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.Publish(ctx, orderCreated{ID: "o-1"}, ExchangeName("events"), Durable(false)))
	declared := c.Topology().Len()
	require.Positive(t, declared)
	require.NoError(t, c.Close(ctx))

	broker.Restart()
	assert.Equal(t, declared, c.Topology().Len())
}

func TestLostConsumerLeavesRepository(t *testing.T) {
	c, broker := newTestClient(t)
	ctx := context.Background()

	sub, err := Subscribe(ctx, c, func(context.Context, *ackable.Ackable[orderCreated]) error {
		return nil
	}, QueueName("orders"), AutoAck(true))
	require.NoError(t, err)
	require.Equal(t, 1, c.Subscriptions().Len())

	broker.Restart()

	require.Eventually(t, func() bool {
		return !sub.Active() && c.Subscriptions().Len() == 0
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, broker.ConsumerCount("orders"))
	assert.Empty(t, broker.Calls("Cancel"))
	assert.NoError(t, c.Unsubscribe(ctx, sub))
}

func TestSubscribeManualAck(t *testing.T) {
	c, broker := newTestClient(t)
	ctx := context.Background()

	done := make(chan amqp.Delivery, 1)
	_, err := Subscribe(ctx, c, func(ctx context.Context, msg *ackable.Ackable[orderCreated]) error {
		d, _ := DeliveryFromContext(ctx)
		if err := msg.Ack(ctx); err != nil {
			return err
		}
		done <- d
		return nil
	}, QueueName("orders"))
	require.NoError(t, err)

	require.NoError(t, c.Publish(ctx, orderCreated{ID: "o-1"}, QueueName("orders"), CorrelationID("c-7")))

	select {
	case d := <-done:
		assert.Equal(t, "c-7", d.CorrelationId)
		assert.NotEmpty(t, d.MessageId)
	case <-time.After(2 * time.Second):
		t.Fatal("message not delivered")
	}
	assert.Len(t, broker.Calls("Ack"), 1)
	assert.Empty(t, broker.Calls("Nack"))
	assert.Equal(t, 0, broker.QueueDepth("orders"))
}

func TestSubscribeBindsToExchange(t *testing.T) {
	c, broker := newTestClient(t)
	ctx := context.Background()

	received := make(chan string, 2)
	_, err := Subscribe(ctx, c, func(ctx context.Context, msg *ackable.Ackable[orderCreated]) error {
		received <- msg.Content.ID
		return nil
	}, ExchangeName("events"), RoutingKey("order.*"), AutoAck(true))
	require.NoError(t, err)

	bindings := broker.Calls("BindQueue")
	require.Len(t, bindings, 1)
	bnd := bindings[0].Args[0].(rabbit.QueueBinding)
	assert.Equal(t, "events", bnd.Exchange)
	assert.Equal(t, "order.*", bnd.RoutingKey)
	assert.Contains(t, bnd.Queue, "amq.gen-")

	require.NoError(t, c.Publish(ctx, orderCreated{ID: "a"}, ExchangeName("events"), RoutingKey("order.created")))
	require.NoError(t, c.Publish(ctx, orderCreated{ID: "b"}, ExchangeName("events"), RoutingKey("invoice.created")))

	select {
	case id := <-received:
		assert.Equal(t, "a", id)
	case <-time.After(2 * time.Second):
		t.Fatal("message not delivered")
	}
	select {
	case id := <-received:
		t.Fatalf("unexpected delivery %q", id)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscribeRequiresDestination(t *testing.T) {
	c, broker := newTestClient(t)

	_, err := Subscribe(context.Background(), c, func(context.Context, *ackable.Ackable[orderCreated]) error { return nil })
	assert.ErrorIs(t, err, ErrNoDestination)
	assert.Empty(t, broker.Calls(""))
}

func TestRequestResponse(t *testing.T) {
	c, broker := newTestClient(t)
	ctx := context.Background()

	_, err := Respond(ctx, c, func(ctx context.Context, q priceQuery) (price, error) {
		if q.SKU != "a-1" {
			return price{}, errors.New("unknown sku")
		}
		return price{Cents: 1299}, nil
	}, QueueName("prices"))
	require.NoError(t, err)

	p, err := Request[priceQuery, price](ctx, c, priceQuery{SKU: "a-1"}, QueueName("prices"))
	require.NoError(t, err)
	assert.Equal(t, 1299, p.Cents)

	require.Eventually(t, func() bool { return broker.OpenChannels() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, broker.QueueDepth("prices"))
}

func TestRequestRemoteError(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := NewMockLogger(ctrl)
	log.EXPECT().WarnWithContext(gomock.Any(), "Request handler failed", gomock.Any(), gomock.Any()).Times(1)

	c, _ := newTestClient(t, WithLogger(log))
	ctx := context.Background()

	_, err := Respond(ctx, c, func(ctx context.Context, q priceQuery) (price, error) {
		return price{}, errors.New("unknown sku")
	}, QueueName("prices"))
	require.NoError(t, err)

	_, err = Request[priceQuery, price](ctx, c, priceQuery{SKU: "zz"}, QueueName("prices"))
	require.ErrorIs(t, err, ErrRemote)
	assert.Contains(t, err.Error(), "unknown sku")
}

func TestRequestTimeout(t *testing.T) {
	c, broker := newTestClient(t)

	start := time.Now()
	_, err := Request[priceQuery, price](context.Background(), c, priceQuery{SKU: "a-1"},
		QueueName("nobody"), Timeout(50*time.Millisecond))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
	require.Eventually(t, func() bool { return broker.OpenChannels() == 0 }, time.Second, 5*time.Millisecond)
}

func startWorker(t *testing.T, c *Client, reply func(ctx context.Context, id string, correlationID string) error) {
	t.Helper()
	_, err := Subscribe(context.Background(), c, func(ctx context.Context, msg *ackable.Ackable[startOrder]) error {
		d, ok := DeliveryFromContext(ctx)
		if !ok {
			return errors.New("no delivery in context")
		}
		return reply(ctx, msg.Content.ID, d.CorrelationId)
	}, ExchangeName("orders"), QueueName("order-worker"), AutoAck(true))
	require.NoError(t, err)
}

func TestExecuteSequenceCompletes(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	startWorker(t, c, func(ctx context.Context, id, correlationID string) error {
		if err := c.Publish(ctx, orderAccepted{ID: "decoy"}, ExchangeName("orders"), CorrelationID("someone-else")); err != nil {
			return err
		}
		return c.Publish(ctx, orderAccepted{ID: id}, ExchangeName("orders"), CorrelationID(correlationID))
	})

	steps := []Step{
		NewStep("accepted", func(ctx context.Context, msg orderAccepted) error {
			d, ok := DeliveryFromContext(ctx)
			if !ok {
				return errors.New("no delivery in context")
			}
			return c.Publish(ctx, orderShipped{ID: msg.ID}, ExchangeName("orders"), CorrelationID(d.CorrelationId))
		}, ExchangeName("orders")),
		NewStep[orderShipped]("shipped", nil, ExchangeName("orders")),
	}

	state, err := ExecuteSequence(ctx, c, startOrder{ID: "o-1"}, steps, ExchangeName("orders"))
	require.NoError(t, err)
	assert.False(t, state.Aborted)
	assert.Equal(t, []string{"accepted", "shipped"}, sequence.StepNames(state.Completed))
	assert.Empty(t, state.Skipped)
	assert.Equal(t, orderAccepted{ID: "o-1"}, state.Completed[0].Message)
	assert.Equal(t, 1, c.Subscriptions().Len())
}

func TestExecuteSequenceAbortingStep(t *testing.T) {
	c, _ := newTestClient(t)

	startWorker(t, c, func(ctx context.Context, id, correlationID string) error {
		return c.Publish(ctx, orderRejected{ID: id}, ExchangeName("orders"), CorrelationID(correlationID))
	})

	steps := []Step{
		NewStep[orderRejected]("rejected", nil, ExchangeName("orders"), Optional(true), AbortsExecution(true)),
		NewStep[orderAccepted]("accepted", nil, ExchangeName("orders")),
	}

	state, err := ExecuteSequence(context.Background(), c, startOrder{ID: "o-2"}, steps, ExchangeName("orders"))
	require.NoError(t, err)
	assert.True(t, state.Aborted)
	assert.Equal(t, []string{"rejected"}, sequence.StepNames(state.Completed))
	assert.Equal(t, []string{"accepted"}, sequence.StepNames(state.Skipped))
}

func TestExecuteSequenceTimesOut(t *testing.T) {
	c, _ := newTestClient(t)

	steps := []Step{NewStep[orderAccepted]("accepted", nil, ExchangeName("orders"))}

	start := time.Now()
	state, err := ExecuteSequence(context.Background(), c, startOrder{ID: "o-3"}, steps,
		ExchangeName("orders"), Timeout(50*time.Millisecond))
	require.NoError(t, err)
	assert.True(t, state.Aborted)
	assert.Empty(t, state.Completed)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, 0, c.Subscriptions().Len())
}

func TestExecuteSequenceRejectsDuplicateSteps(t *testing.T) {
	c, broker := newTestClient(t)

	steps := []Step{
		NewStep[orderAccepted]("accepted", nil, ExchangeName("orders")),
		NewStep[orderShipped]("accepted", nil, ExchangeName("orders")),
	}
	_, err := ExecuteSequence(context.Background(), c, startOrder{ID: "o-4"}, steps, ExchangeName("orders"))
	assert.ErrorIs(t, err, sequence.ErrInvalidStep)
	assert.Empty(t, broker.Calls(""))
}

func TestInvokeBuildFailure(t *testing.T) {
	c, broker := newTestClient(t)

	_, err := c.Invoke(context.Background(), func(b pipe.Builder) { b.Use("missing") })
	assert.ErrorIs(t, err, pipe.ErrBuild)
	assert.Empty(t, broker.Calls("OpenChannel"))
}

func TestInvokeSeedsContext(t *testing.T) {
	c, _ := newTestClient(t)

	pc, err := c.Invoke(context.Background(), func(b pipe.Builder) { b.Use(middleware.ExecutionIDKey) },
		func(pc *pipe.Context) { pc.Set("step", 1) },
		nil,
		func(pc *pipe.Context) { pc.Set("step", 2) },
	)
	require.NoError(t, err)
	assert.Equal(t, 2, pipe.Get[int](pc, "step"))
	assert.Same(t, c.policies, pipe.Get[*policy.Provider](pc, pipe.PolicyProviderKey))
	assert.NotEmpty(t, pipe.Get[string](pc, pipe.GlobalExecutionIDKey))
}

func TestObserverReportsOperations(t *testing.T) {
	obs := &recordingObserver{}
	c, _ := newTestClient(t, WithObserver(obs))

	require.NoError(t, c.Publish(context.Background(), orderCreated{ID: "o-1"},
		ExchangeName("events"), RoutingKey("order.created")))

	ops := obs.operations()
	require.Len(t, ops, 1)
	assert.Equal(t, "bus", ops[0].Component)
	assert.Equal(t, "publish", ops[0].Operation)
	assert.Equal(t, "events", ops[0].Resource)
	assert.Equal(t, "order.created", ops[0].SubResource)
	assert.Positive(t, ops[0].Size)
	assert.NoError(t, ops[0].Error)
}

func TestRetryPolicyRetriesTransientErrors(t *testing.T) {
	c, broker := newTestClient(t, WithRetry(policy.RetryConfig{
		MaxAttempts:     3,
		InitialInterval: time.Millisecond,
		MaxInterval:     time.Millisecond,
		Multiplier:      2,
	}))
	broker.FailNext("Publish", &amqp.Error{Code: amqp.ResourceError, Reason: "RESOURCE_ERROR"})

	require.NoError(t, c.Publish(context.Background(), job{N: 1}, QueueName("jobs")))
	assert.Len(t, broker.Calls("Publish"), 2)
	assert.Equal(t, 1, broker.QueueDepth("jobs"))
}

func TestRetryPolicyStopsOnPermanentErrors(t *testing.T) {
	c, broker := newTestClient(t, WithRetry(policy.RetryConfig{
		MaxAttempts:     3,
		InitialInterval: time.Millisecond,
		MaxInterval:     time.Millisecond,
		Multiplier:      2,
	}))
	broker.FailNext("Publish", &amqp.Error{Code: amqp.AccessRefused, Reason: "ACCESS_REFUSED"})

	err := c.Publish(context.Background(), job{N: 1}, QueueName("jobs"))
	assert.ErrorIs(t, err, rabbit.ErrAccessDenied)
	assert.Len(t, broker.Calls("Publish"), 1)
	assert.Equal(t, 0, broker.OpenChannels())
}

func TestClosedClientRejectsOperations(t *testing.T) {
	c, broker := newTestClient(t)
	ctx := context.Background()

	_, err := Subscribe(ctx, c, func(context.Context, *ackable.Ackable[orderCreated]) error { return nil },
		QueueName("orders"))
	require.NoError(t, err)

	require.NoError(t, c.Close(ctx))
	require.NoError(t, c.Close(ctx))
	assert.Equal(t, 0, broker.ConsumerCount("orders"))

	assert.ErrorIs(t, c.Publish(ctx, orderCreated{ID: "x"}, QueueName("orders")), ErrClosed)
	_, err = Subscribe(ctx, c, func(context.Context, *ackable.Ackable[orderCreated]) error { return nil },
		QueueName("orders"))
	assert.ErrorIs(t, err, ErrClosed)
}
