package subscription

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/Aleph-Alpha/rabbitbus/v1/internal/brokertest"
	"github.com/Aleph-Alpha/rabbitbus/v1/rabbit"
)

func TestNewCapturesBrokerConsumer(t *testing.T) {
	ctx := context.Background()
	b := brokertest.New()
	ch, err := b.OpenChannel(ctx)
	require.NoError(t, err)
	_, err = ch.DeclareQueue(ctx, rabbit.QueueDeclaration{Name: "orders"})
	require.NoError(t, err)

	consumer, err := ch.Consume(ctx, rabbit.ConsumeConfig{Queue: "orders"})
	require.NoError(t, err)

	s := New(consumer, "orders", nil)
	assert.True(t, s.Active())
	assert.Equal(t, "orders", s.QueueName())
	assert.Equal(t, consumer.ConsumerTag(), s.ConsumerTag())

	require.NoError(t, s.Close(ctx))
	assert.False(t, s.Active())
	assert.Equal(t, 0, b.ConsumerCount("orders"))
	assert.Len(t, b.Calls("Cancel"), 1)
}

func TestNewWithUnknownConsumerShape(t *testing.T) {
	s := New(struct{}{}, "orders", nil)
	assert.True(t, s.Active())
	assert.Empty(t, s.ConsumerTag())
	assert.Empty(t, s.QueueName())

	var nilConsumer *rabbit.Consumer
	s = New(nilConsumer, "orders", nil)
	assert.Empty(t, s.ConsumerTag())

	s.Dispose()
	assert.False(t, s.Active())
}

func TestDisposeTwiceCancelsOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	ch := NewMockCanceller(ctrl)

	ch.EXPECT().IsClosed().Return(false).Times(2)
	ch.EXPECT().Cancel(gomock.Any(), "ctag-1").Return(nil).Times(1)

	s := newSubscription("orders", "ctag-1", ch, nil)
	s.Dispose()
	s.Dispose()

	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("cancel did not finish")
	}
	assert.False(t, s.Active())
}

func TestAbandonSkipsBroker(t *testing.T) {
	ctrl := gomock.NewController(t)
	ch := NewMockCanceller(ctrl)

	s := newSubscription("orders", "ctag-1", ch, nil)
	assert.True(t, s.Abandon())
	assert.False(t, s.Abandon())
	assert.False(t, s.Active())

	select {
	case <-s.Done():
	default:
		t.Fatal("done not closed")
	}

	ch.EXPECT().IsClosed().Return(true).AnyTimes()
	s.Dispose()
	assert.NoError(t, s.Close(context.Background()))
}

func TestAbandonAfterDispose(t *testing.T) {
	ctrl := gomock.NewController(t)
	ch := NewMockCanceller(ctrl)

	ch.EXPECT().IsClosed().Return(false)
	ch.EXPECT().Cancel(gomock.Any(), "ctag-1").Return(nil)

	s := newSubscription("orders", "ctag-1", ch, nil)
	require.NoError(t, s.Close(context.Background()))
	assert.False(t, s.Abandon())
}

func TestDisposeOnClosedChannelIsNoOp(t *testing.T) {
	ctrl := gomock.NewController(t)
	ch := NewMockCanceller(ctrl)

	ch.EXPECT().IsClosed().Return(true).AnyTimes()

	s := newSubscription("orders", "ctag-1", ch, nil)
	s.Dispose()
	require.NoError(t, s.Close(context.Background()))
	assert.True(t, s.Active())
}

func TestDisposeLogsCancelFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	ch := NewMockCanceller(ctrl)
	log := NewMockLogger(ctrl)
	cancelErr := errors.New("channel closed")

	logged := make(chan struct{})
	ch.EXPECT().IsClosed().Return(false)
	ch.EXPECT().Cancel(gomock.Any(), "ctag-1").Return(cancelErr)
	log.EXPECT().WarnWithContext(gomock.Any(), "Failed to cancel consumer", cancelErr, gomock.Any()).
		Do(func(context.Context, string, error, ...map[string]interface{}) { close(logged) })

	s := newSubscription("orders", "ctag-1", ch, log)
	s.Dispose()

	select {
	case <-logged:
	case <-time.After(time.Second):
		t.Fatal("cancel failure was not logged")
	}
}

func TestCloseWaitsForDisposeInFlight(t *testing.T) {
	ctrl := gomock.NewController(t)
	ch := NewMockCanceller(ctrl)

	release := make(chan struct{})
	ch.EXPECT().IsClosed().Return(false).AnyTimes()
	ch.EXPECT().Cancel(gomock.Any(), "ctag-1").DoAndReturn(func(context.Context, string) error {
		<-release
		return nil
	})

	s := newSubscription("orders", "ctag-1", ch, nil)
	s.Dispose()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Close(ctx), context.DeadlineExceeded)

	close(release)
	require.NoError(t, s.Close(context.Background()))
}

func TestRepositorySnapshotUnderConcurrentAdd(t *testing.T) {
	repo := NewRepository()

	const writers = 16
	const perWriter = 50

	var wg sync.WaitGroup
	stop := make(chan struct{})

	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			select {
			case <-stop:
				return
			default:
			}
			for _, s := range repo.GetAll() {
				if s == nil || !s.Active() {
					t.Error("snapshot contains an incomplete subscription")
					return
				}
			}
		}
	}()

	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				repo.Add(newSubscription("q", "", nil, nil))
			}
		}()
	}
	wg.Wait()
	close(stop)
	<-readerDone

	assert.Equal(t, writers*perWriter, repo.Len())
	assert.Len(t, repo.GetAll(), writers*perWriter)
}

func TestRepositorySnapshotIsNotLive(t *testing.T) {
	repo := NewRepository()
	a := newSubscription("a", "", nil, nil)
	repo.Add(a)
	repo.Add(a)
	repo.Add(nil)

	before := repo.GetAll()
	repo.Add(newSubscription("b", "", nil, nil))

	assert.Len(t, before, 1)
	assert.Len(t, repo.GetAll(), 2)

	repo.Remove(a)
	assert.Len(t, repo.GetAll(), 1)
	assert.Len(t, before, 1)
}

func TestRepositoryDisposeAll(t *testing.T) {
	ctrl := gomock.NewController(t)
	ok := NewMockCanceller(ctrl)
	failing := NewMockCanceller(ctrl)
	cancelErr := errors.New("boom")

	ok.EXPECT().IsClosed().Return(false)
	ok.EXPECT().Cancel(gomock.Any(), "t1").Return(nil)
	failing.EXPECT().IsClosed().Return(false)
	failing.EXPECT().Cancel(gomock.Any(), "t2").Return(cancelErr)

	repo := NewRepository()
	s1 := newSubscription("a", "t1", ok, nil)
	s2 := newSubscription("b", "t2", failing, nil)
	repo.Add(s1)
	repo.Add(s2)

	err := repo.DisposeAll(context.Background())
	assert.ErrorIs(t, err, cancelErr)
	assert.Equal(t, 0, repo.Len())
	assert.False(t, s1.Active())
	assert.False(t, s2.Active())
}
