package rabbit

import (
	"context"
	"sync"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/rabbitbus/v1/observability"
)

// FXModule provides the broker connection as *RabbitClient and as the
// ChannelFactory the bus opens its channels from. The connection is watched
// and re-established in the background while the application runs.
//
//	app := fx.New(
//	    rabbit.FXModule,
//	    bus.FXModule,
//	    fx.Supply(rabbitConfig),
//	)
var FXModule = fx.Module("rabbit",
	fx.Provide(
		NewClientWithDI,
		fx.Annotate(
			func(r *RabbitClient) ChannelFactory { return r },
			fx.As(new(ChannelFactory)),
		),
	),
	fx.Invoke(RegisterRabbitLifecycle),
)

// RabbitParams groups the dependencies of NewClientWithDI.
type RabbitParams struct {
	fx.In

	Config   Config
	Logger   Logger                 `optional:"true"`
	Observer observability.Observer `optional:"true"`
}

// NewClientWithDI dials the broker and attaches the optional logger and
// observer. Broker calls made through channels of the client are reported
// to the observer.
func NewClientWithDI(params RabbitParams) (*RabbitClient, error) {
	client, err := NewClient(params.Config)
	if err != nil {
		return nil, err
	}
	if params.Logger != nil {
		client.logger = params.Logger
	}
	if params.Observer != nil {
		client.observer = params.Observer
	}
	return client, nil
}

// RabbitLifecycleParams groups the dependencies of RegisterRabbitLifecycle.
type RabbitLifecycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Client    *RabbitClient
	Config    Config
}

// RegisterRabbitLifecycle runs the reconnect loop between OnStart and
// OnStop. OnStop closes every open channel and the connection, then waits
// for the loop to exit.
func RegisterRabbitLifecycle(params RabbitLifecycleParams) {
	var wg sync.WaitGroup

	params.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			wg.Add(1)
			go func() {
				defer wg.Done()
				params.Client.RetryConnection(params.Config)
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			params.Client.GracefulShutdown()
			wg.Wait()
			return nil
		},
	})
}
