package middleware

import (
	"context"
	"errors"
	"fmt"

	"github.com/Aleph-Alpha/rabbitbus/v1/pipe"
	"github.com/Aleph-Alpha/rabbitbus/v1/policy"
	"github.com/Aleph-Alpha/rabbitbus/v1/rabbit"
)

type channelNode struct {
	pipe.Base
	factory rabbit.ChannelFactory
	opts    ChannelOptions
}

func newChannel(r pipe.Resolver, args ...any) (pipe.Linker, error) {
	factory, err := pipe.Resolve[rabbit.ChannelFactory](r, ChannelFactoryService)
	if err != nil {
		return nil, err
	}
	opts, _ := pipe.Arg[ChannelOptions](args)
	return &channelNode{factory: factory, opts: opts}, nil
}

// Invoke reuses an open channel already in the context or opens one. An
// opened channel is owned by the chain until a later node takes it over by
// clearing pipe.ChannelOwnedKey; an owned channel is closed when the chain
// fails, or when it succeeds and CloseAfterUse is set.
func (m *channelNode) Invoke(ctx context.Context, pc *pipe.Context) error {
	if ch, ok := pipe.Lookup[rabbit.Channel](pc, pipe.ChannelKey); ok && ch != nil && !ch.IsClosed() {
		return m.Next(ctx, pc)
	}

	var ch rabbit.Channel
	err := policy.Execute(ctx, pc, policy.OpenChannel, component, nil, func(ctx context.Context) error {
		var err error
		ch, err = m.factory.OpenChannel(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}

	pc.Set(pipe.ChannelKey, ch)
	pc.Set(pipe.ChannelOwnedKey, true)

	err = m.Next(ctx, pc)

	if pipe.Get[bool](pc, pipe.ChannelOwnedKey) && (err != nil || m.opts.CloseAfterUse) {
		pc.Set(pipe.ChannelOwnedKey, false)
		if !ch.IsClosed() {
			if closeErr := ch.Close(); closeErr != nil {
				err = errors.Join(err, fmt.Errorf("close channel: %w", closeErr))
			}
		}
	}
	return err
}
