package bus

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/Aleph-Alpha/rabbitbus/v1/internal/brokertest"
	"github.com/Aleph-Alpha/rabbitbus/v1/logger"
	"github.com/Aleph-Alpha/rabbitbus/v1/rabbit"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Rabbit.Connection.Host)
	assert.Equal(t, uint(5672), cfg.Rabbit.Connection.Port)
	assert.Equal(t, rabbit.ChannelConfig{
		DelayToReconnect: 1000,
		PrefetchCount:    50,
		ContentType:      "application/json",
	}, cfg.Rabbit.Channel)
	assert.Equal(t, logger.EncodingJSON, cfg.Logger.Encoding)
	assert.Equal(t, "topic", cfg.Defaults.ExchangeType)
	assert.True(t, cfg.Defaults.Durable)
	assert.Equal(t, 30*time.Second, cfg.Defaults.RequestTimeout)
	assert.Equal(t, time.Minute, cfg.Defaults.SequenceTimeout)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
}

func TestLoadConfigEnvironmentAndFile(t *testing.T) {
	t.Setenv("RABBIT_HOST", "rabbit.internal")
	t.Setenv("BUS_EXCHANGE", "from-env")
	t.Setenv("BUS_PREFETCH_COUNT", "20")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
rabbit:
  connection:
    port: 5673
defaults:
  exchange: from-file
  request_timeout: 5s
`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "rabbit.internal", cfg.Rabbit.Connection.Host)
	assert.Equal(t, uint(5673), cfg.Rabbit.Connection.Port)
	assert.Equal(t, "from-file", cfg.Defaults.Exchange)
	assert.Equal(t, 20, cfg.Defaults.PrefetchCount)
	assert.Equal(t, 5*time.Second, cfg.Defaults.RequestTimeout)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigInvalidEnvironment(t *testing.T) {
	t.Setenv("BUS_REQUEST_TIMEOUT", "soon")

	_, err := LoadConfig("")
	assert.Error(t, err)
}

func TestModuleGraph(t *testing.T) {
	err := fx.ValidateApp(Module, fx.Supply(DefaultConfig()))
	assert.NoError(t, err)
}

func TestFXModuleLifecycle(t *testing.T) {
	broker := brokertest.New()
	cfg := DefaultConfig()
	cfg.Defaults = testDefaults()

	var client *Client
	app := fxtest.New(t,
		FXModule,
		fx.Supply(cfg),
		fx.Provide(func() rabbit.ChannelFactory { return broker }),
		fx.Populate(&client),
	)
	app.RequireStart()
	require.NotNil(t, client)

	require.NoError(t, client.Publish(context.Background(), job{N: 1}, QueueName("jobs")))
	assert.Equal(t, 1, broker.QueueDepth("jobs"))

	app.RequireStop()
	assert.ErrorIs(t, client.Publish(context.Background(), job{N: 2}, QueueName("jobs")), ErrClosed)
}
