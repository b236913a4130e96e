package tracer

import (
	"context"

	"go.uber.org/fx"
)

// FXModule provides *Tracer and flushes it when the application stops.
//
//	app := fx.New(
//	    tracer.FXModule,
//	    fx.Supply(tracer.Config{ServiceName: "billing"}),
//	)
var FXModule = fx.Module("tracer",
	fx.Provide(
		NewClientWithDI,
	),
	fx.Invoke(RegisterTracerLifecycle),
)

// TracerParams groups the dependencies of NewClientWithDI.
type TracerParams struct {
	fx.In

	Config Config
	Logger Logger `optional:"true"`
}

// NewClientWithDI builds the tracer from injected dependencies. A missing
// logger is replaced by one that discards everything.
func NewClientWithDI(params TracerParams) (*Tracer, error) {
	log := params.Logger
	if log == nil {
		log = nopLogger{}
	}
	return NewClient(params.Config, log)
}

// RegisterTracerLifecycle shuts the tracer provider down on OnStop so that
// batched spans reach the exporter.
func RegisterTracerLifecycle(lc fx.Lifecycle, tracer *Tracer) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if tracer == nil || tracer.tracer == nil {
				return nil
			}
			tracer.logger.Info("shutting down tracer", nil, nil)
			return tracer.Shutdown(ctx)
		},
	})
}

type nopLogger struct{}

func (nopLogger) Info(string, error, ...map[string]interface{}) {}
