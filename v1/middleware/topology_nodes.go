package middleware

import (
	"context"
	"fmt"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Aleph-Alpha/rabbitbus/v1/pipe"
	"github.com/Aleph-Alpha/rabbitbus/v1/policy"
	"github.com/Aleph-Alpha/rabbitbus/v1/rabbit"
)

type exchangeDeclare struct {
	pipe.Base
	cache *TopologyCache
	decl  *rabbit.ExchangeDeclaration
}

func newExchangeDeclare(r pipe.Resolver, args ...any) (pipe.Linker, error) {
	m := &exchangeDeclare{cache: optional[*TopologyCache](r, TopologyService)}
	if decl, ok := pipe.Arg[rabbit.ExchangeDeclaration](args); ok {
		m.decl = &decl
	}
	return m, nil
}

// Invoke declares the exchange under pipe.ExchangeDeclarationKey, or the one
// given at build time. The default and amq.* exchanges are never declared.
func (m *exchangeDeclare) Invoke(ctx context.Context, pc *pipe.Context) error {
	decl, ok := pipe.Lookup[rabbit.ExchangeDeclaration](pc, pipe.ExchangeDeclarationKey)
	if !ok && m.decl != nil {
		decl, ok = *m.decl, true
	}
	if !ok || decl.Name == "" || strings.HasPrefix(decl.Name, "amq.") {
		return m.Next(ctx, pc)
	}

	if !m.cache.Seen(exchangeKey(decl.Name)) {
		ch, err := pipe.Require[rabbit.Channel](pc, pipe.ChannelKey)
		if err != nil {
			return err
		}
		err = policy.Execute(ctx, pc, policy.DeclareExchange, component, map[string]interface{}{
			"exchange": decl.Name,
			"type":     decl.Type,
		}, func(ctx context.Context) error {
			return ch.DeclareExchange(ctx, decl)
		})
		if err != nil {
			return fmt.Errorf("declare exchange %q: %w", decl.Name, err)
		}
		m.cache.Mark(exchangeKey(decl.Name))
	}
	return m.Next(ctx, pc)
}

type queueDeclare struct {
	pipe.Base
	cache *TopologyCache
}

func newQueueDeclare(r pipe.Resolver, _ ...any) (pipe.Linker, error) {
	return &queueDeclare{cache: optional[*TopologyCache](r, TopologyService)}, nil
}

// Invoke declares the queue under pipe.QueueDeclarationKey. A server-named
// queue gets its name written back into the declaration. Exclusive and
// auto-delete queues live only as long as their connection or consumers and
// are not cached.
func (m *queueDeclare) Invoke(ctx context.Context, pc *pipe.Context) error {
	decl, ok := pipe.Lookup[rabbit.QueueDeclaration](pc, pipe.QueueDeclarationKey)
	if !ok {
		return m.Next(ctx, pc)
	}

	cacheable := decl.Name != "" && !decl.Exclusive && !decl.AutoDelete
	if cacheable && m.cache.Seen(queueKey(decl.Name)) {
		return m.Next(ctx, pc)
	}

	ch, err := pipe.Require[rabbit.Channel](pc, pipe.ChannelKey)
	if err != nil {
		return err
	}

	var q amqp.Queue
	err = policy.Execute(ctx, pc, policy.DeclareQueue, component, map[string]interface{}{
		"queue": decl.Name,
	}, func(ctx context.Context) error {
		var err error
		q, err = ch.DeclareQueue(ctx, decl)
		return err
	})
	if err != nil {
		return fmt.Errorf("declare queue %q: %w", decl.Name, err)
	}

	if decl.Name == "" {
		decl.Name = q.Name
		pc.Set(pipe.QueueDeclarationKey, decl)
	}
	if cacheable {
		m.cache.Mark(queueKey(decl.Name))
	}
	return m.Next(ctx, pc)
}

type queueBind struct {
	pipe.Base
	cache *TopologyCache
}

func newQueueBind(r pipe.Resolver, _ ...any) (pipe.Linker, error) {
	return &queueBind{cache: optional[*TopologyCache](r, TopologyService)}, nil
}

// Invoke binds the queue under pipe.QueueBindingKey. An empty queue name is
// taken from the declared queue. Bindings to the default exchange are
// implicit and skipped. Bindings of exclusive or auto-delete queues die with
// the queue and are not cached.
func (m *queueBind) Invoke(ctx context.Context, pc *pipe.Context) error {
	bnd, ok := pipe.Lookup[rabbit.QueueBinding](pc, pipe.QueueBindingKey)
	if !ok || bnd.Exchange == "" {
		return m.Next(ctx, pc)
	}
	if bnd.Queue == "" {
		bnd.Queue = declaredQueue(pc)
		if bnd.Queue == "" {
			return fmt.Errorf("bind to exchange %q: %w", bnd.Exchange, ErrNoQueue)
		}
		pc.Set(pipe.QueueBindingKey, bnd)
	}

	decl := pipe.Get[rabbit.QueueDeclaration](pc, pipe.QueueDeclarationKey)
	cacheable := decl.Name != bnd.Queue || !(decl.Exclusive || decl.AutoDelete)

	key := bindingKey(bnd.Queue, bnd.Exchange, bnd.RoutingKey)
	if !cacheable || !m.cache.Seen(key) {
		ch, err := pipe.Require[rabbit.Channel](pc, pipe.ChannelKey)
		if err != nil {
			return err
		}
		err = policy.Execute(ctx, pc, policy.BindQueue, component, map[string]interface{}{
			"queue":       bnd.Queue,
			"exchange":    bnd.Exchange,
			"routing_key": bnd.RoutingKey,
		}, func(ctx context.Context) error {
			return ch.BindQueue(ctx, bnd)
		})
		if err != nil {
			return fmt.Errorf("bind queue %q to %q: %w", bnd.Queue, bnd.Exchange, err)
		}
		if cacheable {
			m.cache.Mark(key)
		}
	}
	return m.Next(ctx, pc)
}

// declaredQueue returns the name of the queue declared earlier in the chain.
func declaredQueue(pc *pipe.Context) string {
	return pipe.Get[rabbit.QueueDeclaration](pc, pipe.QueueDeclarationKey).Name
}
