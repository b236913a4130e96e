package policy

import "time"

// Well-known policy names looked up by the standard middleware.
const (
	DeclareQueue    = "declare-queue"
	DeclareExchange = "declare-exchange"
	BindQueue       = "bind-queue"
	Publish         = "publish"
	BasicGet        = "basic-get"
	Consume         = "consume"
	Ack             = "ack"
	OpenChannel     = "open-channel"
	Cancel          = "cancel"
)

// RetryConfig configures the exponential backoff retry policy.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts including the first one.
	// Zero or negative means attempts are bounded only by MaxElapsedTime.
	MaxAttempts int `yaml:"max_attempts" envconfig:"RETRY_MAX_ATTEMPTS" default:"3"`

	// InitialInterval is the wait before the first retry.
	InitialInterval time.Duration `yaml:"initial_interval" envconfig:"RETRY_INITIAL_INTERVAL" default:"100ms"`

	// MaxInterval caps a single wait.
	MaxInterval time.Duration `yaml:"max_interval" envconfig:"RETRY_MAX_INTERVAL" default:"5s"`

	// Multiplier grows the interval after every attempt.
	Multiplier float64 `yaml:"multiplier" envconfig:"RETRY_MULTIPLIER" default:"2"`

	// MaxElapsedTime bounds the whole retry loop. Zero means no bound.
	MaxElapsedTime time.Duration `yaml:"max_elapsed_time" envconfig:"RETRY_MAX_ELAPSED_TIME" default:"30s"`
}

// DefaultRetryConfig returns the values used when a field is left zero.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:     3,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		Multiplier:      2,
		MaxElapsedTime:  30 * time.Second,
	}
}
