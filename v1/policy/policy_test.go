package policy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aleph-Alpha/rabbitbus/v1/pipe"
)

var errTransient = errors.New("transient")

type warnRecorder struct{ warnings int }

func (w *warnRecorder) Warn(string, error, ...map[string]interface{}) { w.warnings++ }

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:     attempts,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
		Multiplier:      1.5,
	}
}

func TestNoOpRunsOnce(t *testing.T) {
	calls := 0
	err := NoOp().Execute(context.Background(), Call{}, func(context.Context) error {
		calls++
		return errTransient
	})
	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 1, calls)
}

func TestRetryRecoversTransientFailure(t *testing.T) {
	log := &warnRecorder{}
	p := NewRetry(fastRetry(5), nil, log)

	calls := 0
	err := p.Execute(context.Background(), Call{Component: "test"}, func(context.Context) error {
		calls++
		if calls < 3 {
			return errTransient
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 2, log.warnings)
}

func TestRetryGivesUpAfterMaxAttempts(t *testing.T) {
	p := NewRetry(fastRetry(3), nil, nil)
	calls := 0
	err := p.Execute(context.Background(), Call{}, func(context.Context) error {
		calls++
		return errTransient
	})
	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 3, calls)
}

func TestRetrySkipsPermanentErrors(t *testing.T) {
	permanent := errors.New("access refused")
	p := NewRetry(fastRetry(5), func(err error) bool { return !errors.Is(err, permanent) }, nil)

	calls := 0
	err := p.Execute(context.Background(), Call{}, func(context.Context) error {
		calls++
		return permanent
	})
	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestRetryStopsOnCancellation(t *testing.T) {
	p := NewRetry(RetryConfig{MaxAttempts: 100, InitialInterval: time.Hour}, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := p.Execute(ctx, Call{}, func(context.Context) error {
		calls++
		cancel()
		return errTransient
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestProviderFallsBackToNoOp(t *testing.T) {
	pr := NewProvider()
	assert.Equal(t, NoOp(), pr.GetPolicy("unknown"))

	retry := NewRetry(fastRetry(2), nil, nil)
	pr.Register(Publish, retry)
	assert.Same(t, retry, pr.GetPolicy(Publish))

	var nilProvider *Provider
	assert.Equal(t, NoOp(), nilProvider.GetPolicy(Publish))
}

func TestFromContext(t *testing.T) {
	pc := pipe.NewContext()
	assert.Equal(t, NoOp(), FromContext(pc, Publish))

	retry := NewRetry(fastRetry(2), nil, nil)
	pc.Set(pipe.PolicyProviderKey, NewProvider().Register(Publish, retry))
	assert.Same(t, retry, FromContext(pc, Publish))

	var got Call
	spy := policyFunc(func(_ context.Context, call Call, fn func(context.Context) error) error {
		got = call
		return fn(context.Background())
	})
	pc.Set(pipe.PolicyProviderKey, NewProvider().Register(Ack, spy))
	require.NoError(t, Execute(context.Background(), pc, Ack, "acker", map[string]interface{}{"tag": uint64(4)},
		func(context.Context) error { return nil }))
	assert.Same(t, pc, got.Context)
	assert.Equal(t, "acker", got.Component)
	assert.Equal(t, uint64(4), got.Arguments["tag"])
}

type policyFunc func(ctx context.Context, call Call, fn func(context.Context) error) error

func (f policyFunc) Execute(ctx context.Context, call Call, fn func(context.Context) error) error {
	return f(ctx, call, fn)
}
