package rabbit

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/Aleph-Alpha/rabbitbus/v1/observability"
	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitClient represents a client for interacting with RabbitMQ.
// It owns a single AMQP connection, hands out channels opened on it and
// re-establishes the connection when it is lost.
type RabbitClient struct {
	// cfg stores the configuration for this RabbitMQ client
	cfg Config

	// conn is the underlying AMQP connection to the RabbitMQ server
	conn *amqp.Connection

	// channels tracks channels opened through the client so they can be
	// closed on shutdown
	channels map[*amqpChannel]struct{}

	// mu protects concurrent access to connection and channels
	mu sync.RWMutex

	// shutdownSignal is closed when the client is being shut down
	shutdownSignal chan struct{}

	closeShutdownOnce sync.Once

	// reconnectHooks run after every successful reconnect
	reconnectHooks map[int]func()
	nextHookID     int

	logger   Logger
	observer observability.Observer
}

var _ ReconnectNotifier = (*RabbitClient)(nil)

// NewClient creates and initializes a new RabbitMQ client with the provided configuration.
// This function establishes the initial connection to RabbitMQ. Channels are
// opened on demand through OpenChannel.
//
// Parameters:
//   - config: Connection settings and the channel defaults
//
// Returns a new RabbitClient instance, or an error wrapping ErrConnectionFailed,
// ErrAuthenticationFailed or another sentinel when the broker cannot be reached.
//
// Example:
//
//	client, err := rabbit.NewClient(config)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.GracefulShutdown()
func NewClient(config Config) (*RabbitClient, error) {
	con, err := newConnection(config)
	if err != nil {
		return nil, TranslateError(err)
	}

	return &RabbitClient{
		cfg:            config,
		conn:           con,
		channels:       make(map[*amqpChannel]struct{}),
		shutdownSignal: make(chan struct{}),
		reconnectHooks: make(map[int]func()),
	}, nil
}

// WithLogger attaches a logger to the client.
func (rb *RabbitClient) WithLogger(logger Logger) *RabbitClient {
	rb.logger = logger
	return rb
}

// WithObserver attaches an observer that is notified about broker operations.
func (rb *RabbitClient) WithObserver(observer observability.Observer) *RabbitClient {
	rb.observer = observer
	return rb
}

// Config returns the configuration the client was built with.
func (rb *RabbitClient) Config() Config {
	return rb.cfg
}

// OpenChannel opens a new channel on the current connection and applies the
// configured defaults (publisher confirms and prefetch).
//
// Parameters:
//   - ctx: Context checked before the channel is opened
//
// Returns the channel, or ErrConnectionClosed while the connection is down.
// The client tracks the channel until it is closed, and closes it on
// GracefulShutdown.
//
// Example:
//
//	ch, err := client.OpenChannel(ctx)
//	if err != nil {
//		return err
//	}
//	defer ch.Close()
func (rb *RabbitClient) OpenChannel(ctx context.Context) (Channel, error) {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.conn == nil || rb.conn.IsClosed() {
		err := ErrConnectionClosed
		rb.observeOperation("open_channel", "", "", time.Since(start), err, 0)
		return nil, err
	}

	ch, err := rb.conn.Channel()
	if err != nil {
		err = TranslateError(err)
		rb.observeOperation("open_channel", "", "", time.Since(start), err, 0)
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	if rb.cfg.Channel.PublisherConfirms {
		if err = ch.Confirm(false); err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("failed to enable publisher confirms: %w", TranslateError(err))
		}
	}

	if rb.cfg.Channel.PrefetchCount > 0 {
		if err = ch.Qos(rb.cfg.Channel.PrefetchCount, 0, false); err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("failed to set QoS: %w", TranslateError(err))
		}
	}

	wrapped := newAMQPChannel(rb, ch)
	rb.channels[wrapped] = struct{}{}
	rb.observeOperation("open_channel", "", "", time.Since(start), nil, 0)

	return wrapped, nil
}

// OnReconnect registers fn to run after every successful reconnect made by
// RetryConnection. Hooks run sequentially on the reconnect goroutine, after
// the new connection is in place.
//
// Parameters:
//   - fn: The callback to run; nil is ignored
//
// Returns a function that unregisters fn. It is safe to call more than once.
//
// Example:
//
//	remove := client.OnReconnect(func() {
//		log.Println("rabbit connection re-established")
//	})
//	defer remove()
func (rb *RabbitClient) OnReconnect(fn func()) func() {
	if fn == nil {
		return func() {}
	}

	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.reconnectHooks == nil {
		rb.reconnectHooks = make(map[int]func())
	}
	id := rb.nextHookID
	rb.nextHookID++
	rb.reconnectHooks[id] = fn

	return func() {
		rb.mu.Lock()
		delete(rb.reconnectHooks, id)
		rb.mu.Unlock()
	}
}

// notifyReconnect runs the registered reconnect hooks.
func (rb *RabbitClient) notifyReconnect() {
	rb.mu.RLock()
	hooks := make([]func(), 0, len(rb.reconnectHooks))
	for _, fn := range rb.reconnectHooks {
		hooks = append(hooks, fn)
	}
	rb.mu.RUnlock()

	for _, fn := range hooks {
		fn()
	}
}

// release forgets a channel closed by its owner.
func (rb *RabbitClient) release(ch *amqpChannel) {
	rb.mu.Lock()
	delete(rb.channels, ch)
	rb.mu.Unlock()
}

// RetryConnection continuously monitors the RabbitMQ connection and automatically
// re-establishes it if it fails. This method is typically run in a goroutine.
//
// Parameters:
//   - cfg: Configuration used to dial new connections; DelayToReconnect sets
//     the pause between failed attempts
//
// The loop returns once GracefulShutdown has been called.
//
// Channels opened on a lost connection are not restored; their owners observe
// ErrChannelClosed and open new ones. Hooks registered with OnReconnect run
// once the new connection is in place.
func (rb *RabbitClient) RetryConnection(cfg Config) {
	ctx := context.Background()
	delay := time.Duration(cfg.Channel.DelayToReconnect) * time.Millisecond
	if delay <= 0 {
		delay = time.Second
	}

outerLoop:
	for {
		errChan := make(chan *amqp.Error, 1)
		rb.mu.RLock()
		conn := rb.conn
		rb.mu.RUnlock()
		conn.NotifyClose(errChan)

		select {
		case <-rb.shutdownSignal:
			rb.logInfo(ctx, "Stopping RetryConnection loop due to shutdown signal", nil)
			return

		case err := <-errChan:
			rb.logWarn(ctx, "RabbitMQ connection closed, retrying", map[string]interface{}{
				"error": fmt.Sprint(err),
			})
		reconnectLoop:
			for {
				select {
				case <-rb.shutdownSignal:
					rb.logInfo(ctx, "Stopping RetryConnection loop due to shutdown signal", nil)
					return
				default:
					newConn, err := newConnection(cfg)
					if err != nil {
						rb.logError(ctx, "RabbitMQ reconnection failed", map[string]interface{}{
							"error": err.Error(),
						})
						time.Sleep(delay)
						continue reconnectLoop
					}

					rb.mu.Lock()
					rb.conn = newConn
					rb.channels = make(map[*amqpChannel]struct{})
					rb.mu.Unlock()

					rb.logInfo(ctx, "Successfully reconnected to RabbitMQ", nil)
					rb.notifyReconnect()
					continue outerLoop
				}
			}
		}
	}
}

// newConnection establishes a connection to the RabbitMQ server.
// This function handles different connection scenarios, including TLS/SSL configurations.
//
// The function supports three connection modes:
//   - SSL with client certificates (full TLS authentication)
//   - SSL without client certificates (server authentication only)
//   - Plain AMQP (no SSL/TLS)
//
// All connections use a 2-second heartbeat interval to detect disconnections quickly.
func newConnection(cfg Config) (*amqp.Connection, error) {
	amqpCfg := amqp.Config{
		Heartbeat: 2 * time.Second,
		Vhost:     cfg.Connection.VirtualHost,
	}

	if cfg.Connection.IsSSLEnabled && cfg.Connection.UseCert {
		caCert, err := os.ReadFile(cfg.Connection.CACertPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA cert: %w", err)
		}
		caCertPool := x509.NewCertPool()
		caCertPool.AppendCertsFromPEM(caCert)

		cert, err := tls.LoadX509KeyPair(cfg.Connection.ClientCertPath, cfg.Connection.ClientKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load client cert: %w", err)
		}

		amqpCfg.TLSClientConfig = &tls.Config{
			RootCAs:      caCertPool,
			Certificates: []tls.Certificate{cert},
			ServerName:   cfg.Connection.ServerName,
		}
	}

	conn, err := amqp.DialConfig(connectionURL(cfg.Connection), amqpCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Rabbit: %w", err)
	}
	return conn, nil
}

// connectionURL renders the AMQP URI for the connection settings.
func connectionURL(c Connection) string {
	scheme := "amqp"
	if c.IsSSLEnabled {
		scheme = "amqps"
	}
	u := url.URL{
		Scheme: scheme,
		User:   url.UserPassword(c.User, c.Password),
		Host:   fmt.Sprintf("%v:%v", c.Host, c.Port),
	}
	return u.String()
}

// GracefulShutdown closes the RabbitMQ client's channels and connection cleanly.
// It also stops a running RetryConnection loop. Calling it more than once is safe.
// Errors during shutdown are logged but not propagated, as they typically
// cannot be handled at this stage of application shutdown.
func (rb *RabbitClient) GracefulShutdown() {
	rb.closeShutdownOnce.Do(func() {
		close(rb.shutdownSignal)
	})

	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.logInfo(context.Background(), "Shutting down RabbitMQ client", nil)

	for ch := range rb.channels {
		if err := ch.ch.Close(); err != nil && !ch.ch.IsClosed() {
			rb.logWarn(context.Background(), "Failed to close rabbit channel", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
	rb.channels = make(map[*amqpChannel]struct{})

	if rb.conn != nil && !rb.conn.IsClosed() {
		if err := rb.conn.Close(); err != nil {
			rb.logWarn(context.Background(), "Failed to close rabbit connection", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
}

// logInfo logs an informational message using the configured logger if available.
func (rb *RabbitClient) logInfo(ctx context.Context, msg string, fields map[string]interface{}) {
	if rb.logger != nil {
		rb.logger.InfoWithContext(ctx, msg, nil, fields)
	}
}

// logWarn logs a warning message using the configured logger if available.
func (rb *RabbitClient) logWarn(ctx context.Context, msg string, fields map[string]interface{}) {
	if rb.logger != nil {
		rb.logger.WarnWithContext(ctx, msg, nil, fields)
	}
}

// logError logs an error message using the configured logger if available.
// This is only used for errors in background goroutines that can't be returned to the caller.
func (rb *RabbitClient) logError(ctx context.Context, msg string, fields map[string]interface{}) {
	if rb.logger != nil {
		rb.logger.ErrorWithContext(ctx, msg, nil, fields)
	}
}
