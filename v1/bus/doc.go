// Package bus is the messaging API of rabbitbus: publish/subscribe,
// batched receive, request/response and correlated sequences over RabbitMQ.
//
// Every operation is a middleware chain from the middleware package, built
// fresh for the call and run against a fresh pipe.Context. Client.Invoke is
// the primitive the operations are written with and is public for custom
// chains.
//
// # Architecture
//
//   - Client: owns the node registry, the services the nodes resolve
//     (channel factory, serializers, topology cache, tracer, logger,
//     subscription repository) and the policy provider
//   - Publish, Subscribe, Get, GetMany, Request, Respond, ExecuteSequence:
//     the operations, as methods or generic functions
//   - Option: per-call settings (AutoAck, RoutingKey, QueueName,
//     ExchangeName, Optional, AbortsExecution, Timeout, PrefetchCount, ...)
//   - FX modules: FXModule for the client alone, Module for a whole
//     application built from one Config
//
// # Direct Usage (Without FX)
//
//	rc, err := rabbit.NewClient(cfg.Rabbit)
//	if err != nil {
//		return err
//	}
//	go rc.RetryConnection(cfg.Rabbit)
//	defer rc.GracefulShutdown()
//
//	client, err := bus.New(rc, bus.WithConfig(cfg), bus.WithLogger(log))
//	if err != nil {
//		return err
//	}
//	defer client.Close(ctx)
//
//	err = client.Publish(ctx, OrderCreated{ID: "42"}, bus.ExchangeName("orders"))
//
//	sub, err := bus.Subscribe(ctx, client, func(ctx context.Context, msg *ackable.Ackable[OrderCreated]) error {
//		return process(ctx, msg.Content)
//	}, bus.ExchangeName("orders"), bus.QueueName("billing"), bus.AutoAck(true))
//
// # Batched Receive
//
//	batch, err := bus.GetMany[OrderCreated](ctx, client, 10, bus.QueueName("billing"))
//	if err != nil {
//		return err
//	}
//	defer batch.Dispose()
//	for _, item := range batch.Content {
//		if !valid(item.Content) {
//			_ = item.Reject(ctx, false)
//		}
//	}
//	err = batch.Ack(ctx) // acks the items not settled above
//
// # Request/Response
//
//	_, err := bus.Respond(ctx, client, func(ctx context.Context, q PriceQuery) (Price, error) {
//		return lookup(ctx, q)
//	}, bus.QueueName("prices"))
//
//	price, err := bus.Request[PriceQuery, Price](ctx, client, PriceQuery{SKU: "a-1"},
//		bus.ExchangeName(""), bus.QueueName("prices"), bus.Timeout(5*time.Second))
//
// # Sequences
//
//	state, err := bus.ExecuteSequence(ctx, client, StartPayment{ID: "7"}, []bus.Step{
//		bus.NewStep[PaymentAuthorized]("authorized", nil, bus.ExchangeName("payments")),
//		bus.NewStep[PaymentFailed]("failed", nil, bus.ExchangeName("payments"),
//			bus.Optional(true), bus.AbortsExecution(true)),
//		bus.NewStep[PaymentCaptured]("captured", onCaptured, bus.ExchangeName("payments")),
//	}, bus.ExchangeName("payments"), bus.Timeout(time.Minute))
//	if state.Aborted {
//		// compensate
//	}
//
// # Configuration
//
// LoadConfig reads defaults, then RABBITBUS_* (or bare, e.g. RABBIT_HOST)
// environment variables, then an optional YAML file.
package bus
