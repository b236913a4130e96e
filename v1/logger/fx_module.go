package logger

import (
	"context"

	"go.uber.org/fx"
)

// FXModule provides *LoggerClient and the Logger interface from a
// logger.Config and flushes buffered entries when the application stops. An
// invalid Config fails the application start.
var FXModule = fx.Module("logger",
	fx.Provide(
		New,
		fx.Annotate(
			func(l *LoggerClient) Logger { return l },
			fx.As(new(Logger)),
		),
	),
	fx.Invoke(RegisterLoggerLifecycle),
)

// RegisterLoggerLifecycle syncs the zap logger on OnStop.
func RegisterLoggerLifecycle(lc fx.Lifecycle, client *LoggerClient) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			// stderr sync fails on some platforms; nothing useful can be done about it here
			_ = client.Zap.Sync()
			return nil
		},
	})
}
