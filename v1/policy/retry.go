package policy

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ShouldRetryFunc decides whether an error is transient.
type ShouldRetryFunc func(error) bool

// RetryPolicy retries failed delegates with exponential backoff.
type RetryPolicy struct {
	cfg         RetryConfig
	shouldRetry ShouldRetryFunc
	logger      Logger
}

// NewRetry creates a retry policy. A nil shouldRetry retries every error
// except context cancellation.
func NewRetry(cfg RetryConfig, shouldRetry ShouldRetryFunc, logger Logger) *RetryPolicy {
	def := DefaultRetryConfig()
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = def.InitialInterval
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = def.MaxInterval
	}
	if cfg.Multiplier < 1 {
		cfg.Multiplier = def.Multiplier
	}
	if shouldRetry == nil {
		shouldRetry = func(error) bool { return true }
	}
	return &RetryPolicy{cfg: cfg, shouldRetry: shouldRetry, logger: logger}
}

// Execute implements Policy.
func (p *RetryPolicy) Execute(ctx context.Context, call Call, fn func(ctx context.Context) error) error {
	attempt := 0
	operation := func() error {
		attempt++
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil || !p.shouldRetry(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		if p.logger == nil {
			return
		}
		p.logger.Warn("retrying broker operation", err, map[string]interface{}{
			"component": call.Component,
			"attempt":   attempt,
			"wait_ms":   wait.Milliseconds(),
			"arguments": call.Arguments,
		})
	}

	return backoff.RetryNotify(operation, p.backOff(ctx), notify)
}

func (p *RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.cfg.InitialInterval
	exp.MaxInterval = p.cfg.MaxInterval
	exp.Multiplier = p.cfg.Multiplier
	exp.MaxElapsedTime = p.cfg.MaxElapsedTime
	exp.Reset()

	var b backoff.BackOff = exp
	if p.cfg.MaxAttempts > 0 {
		b = backoff.WithMaxRetries(b, uint64(p.cfg.MaxAttempts-1))
	}
	return backoff.WithContext(b, ctx)
}
