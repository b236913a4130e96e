package bus

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/Aleph-Alpha/rabbitbus/v1/middleware"
	"github.com/Aleph-Alpha/rabbitbus/v1/observability"
	"github.com/Aleph-Alpha/rabbitbus/v1/pipe"
	"github.com/Aleph-Alpha/rabbitbus/v1/policy"
	"github.com/Aleph-Alpha/rabbitbus/v1/rabbit"
	"github.com/Aleph-Alpha/rabbitbus/v1/serialization"
	"github.com/Aleph-Alpha/rabbitbus/v1/subscription"
	"github.com/Aleph-Alpha/rabbitbus/v1/tracer"
)

const component = "bus"

// Client runs bus operations as middleware chains over a channel factory.
//
// Every call builds a fresh chain and a fresh pipe.Context, so calls share
// nothing but the services handed to the nodes: the channel factory, the
// serializers, the topology cache, the tracer, the logger and the
// subscription repository. A Client is safe for concurrent use.
type Client struct {
	channels      rabbit.ChannelFactory
	registry      *pipe.Registry
	factory       *pipe.Factory
	policies      *policy.Provider
	serializers   *serialization.Registry
	topology      *middleware.TopologyCache
	subscriptions *subscription.Repository
	tracer        *tracer.Tracer
	logger        Logger
	observer      observability.Observer

	defaults    Defaults
	retry       *policy.RetryConfig
	contentType string

	closed          atomic.Bool
	removeReconnect func()
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithConfig applies the bus defaults, the retry policy and the default
// content type of cfg.
func WithConfig(cfg Config) ClientOption {
	return func(c *Client) {
		c.defaults = cfg.Defaults
		retry := cfg.Retry
		c.retry = &retry
		c.contentType = cfg.Rabbit.Channel.ContentType
	}
}

// WithDefaults replaces the bus defaults.
func WithDefaults(d Defaults) ClientOption {
	return func(c *Client) { c.defaults = d }
}

// WithRetry installs an exponential backoff retry policy for transient
// broker errors as the default policy.
func WithRetry(cfg policy.RetryConfig) ClientOption {
	return func(c *Client) { c.retry = &cfg }
}

// WithPolicyProvider replaces the policies handed to every chain. It takes
// precedence over WithRetry.
func WithPolicyProvider(p *policy.Provider) ClientOption {
	return func(c *Client) { c.policies = p }
}

// WithSerializers replaces the serializer registry.
func WithSerializers(r *serialization.Registry) ClientOption {
	return func(c *Client) { c.serializers = r }
}

// WithRegistry replaces the middleware registry, e.g. to add custom nodes.
// The standard nodes are expected to be registered already.
func WithRegistry(r *pipe.Registry) ClientOption {
	return func(c *Client) { c.registry = r }
}

// WithLogger sets the logger used by the client and its nodes.
func WithLogger(l Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// WithObserver sets the observer receiving one report per invocation.
func WithObserver(o observability.Observer) ClientOption {
	return func(c *Client) { c.observer = o }
}

// WithTracer enables span creation and trace propagation.
func WithTracer(t *tracer.Tracer) ClientOption {
	return func(c *Client) { c.tracer = t }
}

// New creates a Client opening its channels from channels.
func New(channels rabbit.ChannelFactory, opts ...ClientOption) (*Client, error) {
	if channels == nil {
		return nil, ErrNoChannelFactory
	}

	c := &Client{
		channels:      channels,
		defaults:      DefaultDefaults(),
		topology:      middleware.NewTopologyCache(),
		subscriptions: subscription.NewRepository(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if c.registry == nil {
		c.registry = middleware.NewRegistry()
	}
	c.registry.Register(RemoteErrorKey, newRemoteError)

	if c.serializers == nil {
		c.serializers = serialization.NewRegistry()
	}
	if c.contentType != "" {
		if s, err := c.serializers.Lookup(c.contentType); err == nil {
			c.serializers.SetDefault(s)
		}
	}

	if c.policies == nil {
		c.policies = policy.NewProvider()
		if c.retry != nil {
			var log policy.Logger
			if c.logger != nil {
				log = c.logger
			}
			c.policies.SetDefault(policy.NewRetry(*c.retry, rabbit.IsRetryableError, log))
		}
	}

	services := pipe.NewServices().
		Provide(middleware.ChannelFactoryService, channels).
		Provide(middleware.SerializersService, c.serializers).
		Provide(middleware.TopologyService, c.topology).
		Provide(middleware.SubscriptionsService, c.subscriptions)
	if c.tracer != nil {
		services.Provide(middleware.TracerService, c.tracer)
	}
	if c.logger != nil {
		services.Provide(middleware.LoggerService, c.logger)
	}
	c.factory = pipe.NewFactory(c.registry, services)

	if n, ok := channels.(rabbit.ReconnectNotifier); ok {
		c.removeReconnect = n.OnReconnect(c.reconnected)
	}

	return c, nil
}

// Invoke builds the chain described by action, seeds a fresh Context with
// the client's policies, applies configure in order and runs the chain.
//
// The Context is returned on failure too. Values set before the failing
// node are kept, but callers should not rely on them.
func (c *Client) Invoke(ctx context.Context, action pipe.Action, configure ...func(*pipe.Context)) (*pipe.Context, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}

	chain, err := c.factory.Create(action)
	if err != nil {
		return nil, err
	}

	pc := pipe.NewContext()
	pc.Set(pipe.PolicyProviderKey, c.policies)
	for _, fn := range configure {
		if fn != nil {
			fn(pc)
		}
	}

	start := time.Now()
	err = chain.Invoke(ctx, pc)
	c.observe(pc, time.Since(start), err)
	return pc, err
}

// Subscriptions returns the repository tracking the client's subscriptions.
func (c *Client) Subscriptions() *subscription.Repository {
	return c.subscriptions
}

// Serializers returns the serializer registry.
func (c *Client) Serializers() *serialization.Registry {
	return c.serializers
}

// Topology returns the cache of declared exchanges, queues and bindings.
func (c *Client) Topology() *middleware.TopologyCache {
	return c.topology
}

// Unsubscribe cancels sub and waits for the broker to confirm.
func (c *Client) Unsubscribe(ctx context.Context, sub *subscription.Subscription) error {
	if sub == nil {
		return nil
	}
	c.subscriptions.Remove(sub)
	return sub.Close(ctx)
}

// Close stops every subscription and rejects further operations. It is
// safe to call more than once.
func (c *Client) Close(ctx context.Context) error {
	if !c.closed.Swap(true) && c.removeReconnect != nil {
		c.removeReconnect()
	}
	return c.subscriptions.DisposeAll(ctx)
}

// reconnected forgets the declared topology. Non-durable entities do not
// survive a broker restart and must be declared again on next use.
func (c *Client) reconnected() {
	c.topology.Reset()
	if c.logger != nil {
		c.logger.InfoWithContext(context.Background(), "Broker reconnected, topology will be redeclared", nil)
	}
}

func (c *Client) observe(pc *pipe.Context, duration time.Duration, err error) {
	if c.observer == nil {
		return
	}

	resource := pipe.Get[rabbit.PublishConfig](pc, pipe.PublishConfigurationKey).Exchange
	subResource := pipe.Get[rabbit.PublishConfig](pc, pipe.PublishConfigurationKey).RoutingKey
	if q, ok := pipe.Lookup[rabbit.QueueDeclaration](pc, pipe.QueueDeclarationKey); ok && q.Name != "" {
		resource = q.Name
	}

	var size int64
	if body, ok := pipe.Lookup[[]byte](pc, pipe.SerializedMessageKey); ok {
		size = int64(len(body))
	}

	c.observer.ObserveOperation(observability.OperationContext{
		Component:   component,
		Operation:   pipe.GetOr(pc, pipe.OperationKey, "invoke"),
		Resource:    resource,
		SubResource: subResource,
		Duration:    duration,
		Error:       err,
		Size:        size,
	})
}

func (c *Client) logWarn(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.WarnWithContext(ctx, msg, err, fields)
	}
}
