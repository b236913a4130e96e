//go:build integration

package rabbit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

// TestRabbitChannelRoundTrip declares a topology, publishes a message and
// reads it back both through basic.get and a consumer.
func TestRabbitChannelRoundTrip(t *testing.T) {
	ctx := context.Background()

	host, port, containerInstance := initializeRabbitMQ(ctx)
	defer func() {
		if err := containerInstance.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	}()

	require.Eventually(t, func() bool {
		conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, strconv.Itoa(port)), 2*time.Second)
		if err != nil {
			return false
		}
		_ = conn.Close()
		return true
	}, 60*time.Second, 500*time.Millisecond, "RabbitMQ port not ready")

	cfg := Config{
		Connection: Connection{
			Host:     host,
			Port:     uint(port),
			User:     "guest",
			Password: "guest",
		},
		Channel: ChannelConfig{
			PrefetchCount:     10,
			PublisherConfirms: true,
			DelayToReconnect:  500,
		},
	}

	var factory ChannelFactory
	app := fxtest.New(t,
		FXModule,
		fx.Provide(func() Config { return cfg }),
		fx.Populate(&factory),
	)
	app.RequireStart()
	defer app.RequireStop()

	ch, err := factory.OpenChannel(ctx)
	require.NoError(t, err)
	defer ch.Close()

	require.NoError(t, ch.DeclareExchange(ctx, ExchangeDeclaration{Name: "it-events", Type: amqp.ExchangeTopic, Durable: true}))
	q, err := ch.DeclareQueue(ctx, QueueDeclaration{Name: "it-orders", Durable: true})
	require.NoError(t, err)
	require.NoError(t, ch.BindQueue(ctx, QueueBinding{Queue: q.Name, Exchange: "it-events", RoutingKey: "order.#"}))

	require.NoError(t, ch.Publish(ctx, "it-events", "order.created", false, amqp.Publishing{Body: []byte("first")}))

	var delivery amqp.Delivery
	require.Eventually(t, func() bool {
		var ok bool
		delivery, ok, err = ch.Get(ctx, q.Name, false)
		return err == nil && ok
	}, 5*time.Second, 100*time.Millisecond)
	assert.Equal(t, "first", string(delivery.Body))
	require.NoError(t, ch.Ack(ctx, delivery.DeliveryTag, false))

	consumer, err := ch.Consume(ctx, ConsumeConfig{Queue: q.Name})
	require.NoError(t, err)
	assert.NotEmpty(t, consumer.ConsumerTag())

	require.NoError(t, ch.Publish(ctx, "it-events", "order.updated", false, amqp.Publishing{Body: []byte("second")}))

	select {
	case d := <-consumer.Deliveries():
		assert.Equal(t, "second", string(d.Body))
		require.NoError(t, ch.Ack(ctx, d.DeliveryTag, false))
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for delivery")
	}

	require.NoError(t, ch.Cancel(ctx, consumer.ConsumerTag()))

	_, err = ch.DeclareQueue(ctx, QueueDeclaration{Name: "it-orders", Durable: false})
	assert.ErrorIs(t, err, ErrPreconditionFailed)
	assert.Eventually(t, ch.IsClosed, 2*time.Second, 50*time.Millisecond)
}

func initializeRabbitMQ(ctx context.Context) (string, int, testcontainers.Container) {
	hostPort, err := getFreePort()
	if err != nil {
		log.Fatalf("Failed to find free port: %v", err)
	}

	containerInstance, err := createRabbitMQContainer(ctx, hostPort)
	if err != nil {
		log.Fatalf("Failed to create container: %v", err)
	}

	port, err := containerInstance.MappedPort(ctx, "5672")
	if err != nil {
		log.Fatalf("Failed to get mapped port: %v", err)
	}
	host, err := containerInstance.Host(ctx)
	if err != nil {
		log.Fatalf("Failed to get host: %v", err)
	}
	return host, port.Int(), containerInstance
}

func createRabbitMQContainer(ctx context.Context, hostPort string) (testcontainers.Container, error) {
	var containerInstance testcontainers.Container
	var lastErr error

	for attempt := 0; attempt < 3; attempt++ {
		portBindings := nat.PortMap{
			"5672/tcp": []nat.PortBinding{{HostPort: hostPort}},
		}

		req := testcontainers.ContainerRequest{
			Image:        "rabbitmq:4-management",
			ExposedPorts: []string{"5672/tcp"},
			HostConfigModifier: func(cfg *container.HostConfig) {
				cfg.PortBindings = portBindings
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("5672/tcp").WithStartupTimeout(20*time.Second),
				wait.ForExec([]string{"rabbitmq-diagnostics", "status"}).WithExitCodeMatcher(func(exitCode int) bool {
					return exitCode == 0
				}).WithStartupTimeout(10*time.Second),
			),
		}

		containerInstance, lastErr = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: req,
			Started:          true,
		})
		if lastErr == nil {
			return containerInstance, nil
		}

		if strings.Contains(lastErr.Error(), "docker.sock") || errors.Is(lastErr, io.EOF) {
			log.Printf("Attempt %d: Docker socket error, retrying in %d seconds: %v", attempt+1, attempt+1, lastErr)
			time.Sleep(time.Duration(attempt+1) * time.Second)
			continue
		}

		break
	}

	return nil, fmt.Errorf("failed to start RabbitMQ container after %d attempts: %w", 3, lastErr)
}

func getFreePort() (string, error) {
	l, err := net.Listen("tcp", ":0")
	if err != nil {
		return "", err
	}
	defer func(l net.Listener) {
		_ = l.Close()
	}(l)
	addr := l.Addr().(*net.TCPAddr)
	return strconv.Itoa(addr.Port), nil
}
