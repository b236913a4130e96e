// Package rabbit provides the RabbitMQ broker adapter used by the message bus.
//
// The package owns the AMQP connection and hands out channels through the
// ChannelFactory interface. Each Channel exposes the broker primitives the
// bus middleware needs (publish, consume, basic.get, acknowledgements and
// topology declarations) and translates AMQP errors into the sentinel errors
// declared in errors.go.
//
// # Architecture
//
// This package follows the "accept interfaces, return structs" design pattern:
//   - ChannelFactory interface: opens channels
//   - Channel interface: a logical broker session
//   - ReconnectNotifier interface: reports re-established connections
//   - RabbitClient struct: concrete implementation of ChannelFactory and ReconnectNotifier
//   - Consumer struct: handle of a consumer registration
//   - NewClient constructor: returns *RabbitClient (concrete type)
//   - FX module: provides both *RabbitClient and ChannelFactory for dependency injection
//
// Core Features:
//   - Connection management with automatic reconnection and reconnect hooks
//   - TLS with or without client certificates
//   - Optional publisher confirms and a default prefetch per channel
//   - Dead-letter arguments on queue declarations
//   - Error translation into retryable and permanent sentinel errors
//   - Optional observability hooks for metrics
//   - Optional context-aware logging for lifecycle events
//
// # Direct Usage (Without FX)
//
// For simple applications or tests, create a client directly:
//
//	import (
//		"context"
//
//		amqp "github.com/rabbitmq/amqp091-go"
//
//		"github.com/Aleph-Alpha/rabbitbus/v1/rabbit"
//	)
//
//	// Create a new RabbitMQ client (returns concrete *RabbitClient)
//	client, err := rabbit.NewClient(rabbit.Config{
//		Connection: rabbit.Connection{
//			Host:     "localhost",
//			Port:     5672,
//			User:     "guest",
//			Password: "guest",
//		},
//		Channel: rabbit.ChannelConfig{
//			PrefetchCount:     50,
//			PublisherConfirms: true,
//		},
//	})
//	if err != nil {
//		return err
//	}
//	defer client.GracefulShutdown()
//
//	// Keep the connection alive in the background
//	go client.RetryConnection(client.Config())
//
//	ch, err := client.OpenChannel(ctx)
//	if err != nil {
//		return err
//	}
//	defer ch.Close()
//
//	err = ch.Publish(ctx, "events", "user.created", false, amqp.Publishing{
//		ContentType: "application/json",
//		Body:        []byte(`{"id":"123"}`),
//	})
//
// Most applications do not use channels directly but hand the client to
// bus.New, which opens one channel per operation.
//
// # Builder Pattern for Optional Dependencies
//
// The client supports optional dependencies via builder methods:
//
//	client = client.
//		WithLogger(loggerInstance).    // Optional: for lifecycle logging
//		WithObserver(observerInstance) // Optional: for metrics
//
// # FX Module Integration
//
// For production applications using Uber's fx, use the FXModule which provides
// both the concrete type and the ChannelFactory interface, and runs the
// reconnect loop for the lifetime of the application:
//
//	app := fx.New(
//		logger.FXModule, // Optional: provides the logger
//		rabbit.FXModule, // Provides *RabbitClient and rabbit.ChannelFactory
//		bus.FXModule,    // Consumes rabbit.ChannelFactory
//		fx.Provide(
//			func() rabbit.Config {
//				return rabbit.Config{
//					Connection: rabbit.Connection{
//						Host:     "localhost",
//						Port:     5672,
//						User:     "guest",
//						Password: "guest",
//					},
//				}
//			},
//			func(l *logger.LoggerClient) rabbit.Logger { return l },
//		),
//	)
//	app.Run()
//
// The FX module automatically injects optional dependencies:
//   - Logger (rabbit.Logger): If provided via fx, automatically attached
//   - Observer (observability.Observer): If provided via fx, automatically attached
//
// # Error Handling
//
// Every error returned by a Channel wraps one of the package sentinels and
// the original error, so both can be matched with errors.Is:
//
//	if errors.Is(err, rabbit.ErrQueueNotFound) {
//		// declare the queue and retry
//	}
//	if rabbit.IsRetryableError(err) {
//		// back off and try again
//	}
//	if rabbit.IsChannelError(err) {
//		// the broker closed the channel; open a new one
//	}
//
// Socket errors are classified by errno first: a refused dial becomes
// ErrConnectionFailed, a reset or broken pipe ErrConnectionLost. Other
// network errors become ErrTimeout or ErrNetworkError.
//
// # Reconnection
//
// RetryConnection watches the connection and dials a new one when it is
// lost. Channels opened on the old connection are not restored; callers see
// ErrChannelClosed and open new channels. Consumers registered on the old
// connection end with their channel.
//
// Callbacks registered with OnReconnect run once the new connection is in
// place. The bus client uses one to forget the exchanges and queues it
// declared, since non-durable ones do not survive a broker restart:
//
//	remove := client.OnReconnect(func() {
//		log.Info("RabbitMQ connection re-established", nil)
//	})
//	defer remove()
//
// # Observability
//
// When an observer is attached it is notified of every broker call made
// through a channel of the client:
//
//	type MetricsObserver struct{ /* ... */ }
//
//	func (o *MetricsObserver) ObserveOperation(ctx observability.OperationContext) {
//		// ctx.Component is "rabbit"
//	}
//
//	client = client.WithObserver(&MetricsObserver{})
//
// metrics.Metrics implements observability.Observer and can be attached as is.
//
// Operations and their context:
//   - "produce": Resource exchange, SubResource routing key, Size body length
//   - "consume": Resource queue, SubResource consumer tag
//   - "get": Resource queue, Size body length
//   - "ack", "nack", "reject": no resource
//   - "cancel": SubResource consumer tag
//   - "declare_queue": Resource queue
//   - "declare_exchange": Resource exchange, SubResource exchange kind
//   - "bind_queue": Resource queue, SubResource exchange
//   - "open_channel": no resource
//
// # Logging
//
// When a logger is attached it is used for lifecycle events only:
//   - Connection loss and reconnection attempts
//   - Shutdown and failures to close channels or the connection
//
// Errors returned to the caller are not logged.
//
// # Configuration
//
// The client can be configured via environment variables or explicitly:
//
//	RABBIT_HOST=localhost
//	RABBIT_PORT=5672
//	RABBIT_USER=guest
//	RABBIT_PASSWORD=guest
//	RABBIT_VHOST=/
//	RABBIT_SSL_ENABLED=false
//	RABBIT_DELAY_TO_RECONNECT=1000
//	RABBIT_PREFETCH_COUNT=50
//	RABBIT_PUBLISHER_CONFIRMS=true
//
// # Thread Safety
//
// RabbitClient is safe for concurrent use. A Channel should be used by one
// goroutine at a time; open one channel per concurrent operation.
package rabbit
