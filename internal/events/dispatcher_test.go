package events

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAsyncDispatcherDelivers(t *testing.T) {
	d := NewAsyncDispatcher(zap.NewNop(), 2, 16)

	var mu sync.Mutex
	var got []int64
	d.Subscribe(EventTicketClosed, func(_ context.Context, e Event) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, e.TicketID)
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketClosed, TicketID: 7}))
	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketUpdated, TicketID: 8}))
	require.NoError(t, d.Close(context.Background()))

	assert.Equal(t, []int64{7}, got)
	assert.ErrorIs(t, d.Publish(context.Background(), Event{Type: EventTicketClosed}), ErrDispatcherClosed)
}

func TestAsyncDispatcherSurvivesHandlerFailures(t *testing.T) {
	d := NewAsyncDispatcher(zap.NewNop(), 1, 16)

	var calls atomic.Int32
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		calls.Add(1)
		return errors.New("smtp down")
	})
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		calls.Add(1)
		panic("boom")
	})
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		calls.Add(1)
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketCreated}))
	require.NoError(t, d.Close(context.Background()))
	assert.Equal(t, int32(3), calls.Load())
}

func TestAsyncDispatcherDetachesCancellation(t *testing.T) {
	d := NewAsyncDispatcher(zap.NewNop(), 1, 4)

	errs := make(chan error, 1)
	d.Subscribe(EventTicketUpdated, func(ctx context.Context, _ Event) error {
		errs <- ctx.Err()
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, d.Publish(ctx, Event{Type: EventTicketUpdated}))
	cancel()
	require.NoError(t, d.Close(context.Background()))

	assert.NoError(t, <-errs)
}

func TestAsyncDispatcherDropsOnOverflow(t *testing.T) {
	d := NewAsyncDispatcher(zap.NewNop(), 1, 1)

	release := make(chan struct{})
	started := make(chan struct{}, 1)
	var calls atomic.Int32
	d.Subscribe(EventTicketUpdated, func(context.Context, Event) error {
		if calls.Add(1) == 1 {
			started <- struct{}{}
			<-release
		}
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketUpdated}))
	<-started
	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketUpdated}))
	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketUpdated}))
	close(release)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Close(ctx))
	assert.Equal(t, int32(2), calls.Load())
}

func TestSyncDispatcher(t *testing.T) {
	d := NewSyncDispatcher(zap.NewNop())
	var seen []EventType
	d.Subscribe(EventTicketCreated, func(_ context.Context, e Event) error {
		seen = append(seen, e.Type)
		return errors.New("ignored")
	})
	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketCreated}))
	assert.Equal(t, []EventType{EventTicketCreated}, seen)
}
