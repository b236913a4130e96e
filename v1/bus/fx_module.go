package bus

import (
	"context"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/rabbitbus/v1/logger"
	"github.com/Aleph-Alpha/rabbitbus/v1/metrics"
	"github.com/Aleph-Alpha/rabbitbus/v1/observability"
	"github.com/Aleph-Alpha/rabbitbus/v1/rabbit"
	"github.com/Aleph-Alpha/rabbitbus/v1/tracer"
)

// FXModule provides *Client and closes its subscriptions when the
// application stops. It expects a rabbit.ChannelFactory in the container.
//
//	app := fx.New(
//	    rabbit.FXModule,
//	    bus.FXModule,
//	    fx.Supply(rabbitConfig),
//	)
var FXModule = fx.Module("bus",
	fx.Provide(
		NewClientWithDI,
	),
	fx.Invoke(RegisterBusLifecycle),
)

// Module wires a complete application from a single Config: logger, RabbitMQ
// client, metrics, tracer and bus.
//
//	cfg, err := bus.LoadConfig("config.yaml")
//	app := fx.New(
//	    bus.Module,
//	    fx.Supply(cfg),
//	    fx.Invoke(func(c *bus.Client) { ... }),
//	)
var Module = fx.Options(
	fx.Provide(
		func(cfg Config) rabbit.Config { return cfg.Rabbit },
		func(cfg Config) logger.Config { return cfg.Logger },
		func(cfg Config) metrics.Config { return cfg.Metrics },
		func(cfg Config) tracer.Config { return cfg.Tracer },
		func(l *logger.LoggerClient) rabbit.Logger { return l.Named("rabbit") },
		func(l *logger.LoggerClient) metrics.Logger { return l.Named("metrics") },
		func(l *logger.LoggerClient) tracer.Logger { return l.Named("tracer") },
	),
	logger.FXModule,
	rabbit.FXModule,
	metrics.FXModule,
	tracer.FXModule,
	FXModule,
)

// BusParams groups the dependencies of NewClientWithDI.
type BusParams struct {
	fx.In

	Channels rabbit.ChannelFactory
	Config   Config                 `optional:"true"`
	Logger   logger.Logger          `optional:"true"`
	Observer observability.Observer `optional:"true"`
	Tracer   *tracer.Tracer         `optional:"true"`
}

// NewClientWithDI creates the bus client from injected dependencies. The
// configuration is taken from Config when one is provided.
func NewClientWithDI(params BusParams) (*Client, error) {
	opts := make([]ClientOption, 0, 4)
	if params.Config != (Config{}) {
		opts = append(opts, WithConfig(params.Config))
	}
	if params.Logger != nil {
		opts = append(opts, WithLogger(params.Logger))
	}
	if params.Observer != nil {
		opts = append(opts, WithObserver(params.Observer))
	}
	if params.Tracer != nil {
		opts = append(opts, WithTracer(params.Tracer))
	}
	return New(params.Channels, opts...)
}

// RegisterBusLifecycle closes every subscription of the client on OnStop,
// before the broker connection goes away.
func RegisterBusLifecycle(lc fx.Lifecycle, client *Client) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close(ctx)
		},
	})
}
