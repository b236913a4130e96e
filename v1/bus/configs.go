package bus

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	amqp "github.com/rabbitmq/amqp091-go"
	"gopkg.in/yaml.v3"

	"github.com/Aleph-Alpha/rabbitbus/v1/logger"
	"github.com/Aleph-Alpha/rabbitbus/v1/metrics"
	"github.com/Aleph-Alpha/rabbitbus/v1/policy"
	"github.com/Aleph-Alpha/rabbitbus/v1/rabbit"
	"github.com/Aleph-Alpha/rabbitbus/v1/tracer"
)

// EnvPrefix prefixes the environment variables read by LoadConfig. Every
// variable is also accepted without the prefix.
const EnvPrefix = "RABBITBUS"

// Config is the configuration of a complete bus application: the broker
// connection, the ambient services and the bus defaults.
type Config struct {
	Rabbit   rabbit.Config      `yaml:"rabbit"`
	Logger   logger.Config      `yaml:"logger"`
	Metrics  metrics.Config     `yaml:"metrics"`
	Tracer   tracer.Config      `yaml:"tracer"`
	Retry    policy.RetryConfig `yaml:"retry"`
	Defaults Defaults           `yaml:"defaults"`
}

// Defaults are applied to every operation that does not override them with
// an Option.
type Defaults struct {
	// Exchange is the exchange published to and bound against when no
	// ExchangeName option is given. Empty selects the default exchange,
	// which routes by queue name.
	Exchange string `yaml:"exchange" envconfig:"BUS_EXCHANGE"`

	// ExchangeType is used when the bus declares an exchange.
	ExchangeType string `yaml:"exchange_type" envconfig:"BUS_EXCHANGE_TYPE" default:"topic"`

	// Durable declares exchanges and named queues durable.
	Durable bool `yaml:"durable" envconfig:"BUS_DURABLE" default:"true"`

	// PrefetchCount limits unacknowledged deliveries per subscription.
	// Zero leaves the channel default.
	PrefetchCount int `yaml:"prefetch_count" envconfig:"BUS_PREFETCH_COUNT"`

	// RequestTimeout bounds Request when no Timeout option is given.
	RequestTimeout time.Duration `yaml:"request_timeout" envconfig:"BUS_REQUEST_TIMEOUT" default:"30s"`

	// SequenceTimeout is the time ExecuteSequence waits for outstanding
	// steps before expiring them.
	SequenceTimeout time.Duration `yaml:"sequence_timeout" envconfig:"BUS_SEQUENCE_TIMEOUT" default:"1m"`
}

// DefaultDefaults returns the bus defaults used when none are configured.
func DefaultDefaults() Defaults {
	return Defaults{
		ExchangeType:    amqp.ExchangeTopic,
		Durable:         true,
		RequestTimeout:  30 * time.Second,
		SequenceTimeout: time.Minute,
	}
}

// DefaultConfig returns a Config holding the documented default of every
// field.
func DefaultConfig() Config {
	return Config{
		Rabbit: rabbit.Config{
			Connection: rabbit.Connection{
				Host:     "localhost",
				Port:     5672,
				User:     "guest",
				Password: "guest",
			},
			Channel: rabbit.ChannelConfig{
				DelayToReconnect: 1000,
				PrefetchCount:    50,
				ContentType:      "application/json",
			},
		},
		Logger: logger.Config{
			Level:       logger.Info,
			ServiceName: "rabbitbus",
			Encoding:    logger.EncodingJSON,
			Output:      "stderr",
		},
		Metrics: metrics.Config{
			Address:   metrics.DefaultMetricsAddress,
			Namespace: metrics.DefaultNamespace,
		},
		Tracer: tracer.Config{
			ServiceName: "rabbitbus",
		},
		Retry:    policy.DefaultRetryConfig(),
		Defaults: DefaultDefaults(),
	}
}

// LoadConfig builds a Config from the defaults, the environment and the
// YAML file at path when path is not empty. Values in the file win over the
// environment. Environment variables are read with the RABBITBUS_ prefix or
// by their bare names, e.g. RABBIT_HOST.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %q: %w", path, err)
		}
	}
	return cfg, nil
}
