package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// ErrDispatcherClosed is returned by Publish after Close.
var ErrDispatcherClosed = errors.New("dispatcher closed")

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher interface allows event publication/subscription.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
}

type registry struct {
	mu        sync.RWMutex
	listeners map[EventType][]EventHandler
}

func (r *registry) Subscribe(eventType EventType, handler EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners[eventType] = append(r.listeners[eventType], handler)
}

func (r *registry) handlers(eventType EventType) []EventHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]EventHandler{}, r.listeners[eventType]...)
}

// deliver runs every handler, logging failures and recovered panics.
func deliver(ctx context.Context, logger *zap.Logger, handlers []EventHandler, event Event) {
	for _, handler := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("event handler panicked",
						zap.String("event_id", event.ID),
						zap.String("event_type", string(event.Type)),
						zap.Any("panic", r))
				}
			}()
			if err := handler(ctx, event); err != nil {
				logger.Warn("event handler failed",
					zap.String("event_id", event.ID),
					zap.String("event_type", string(event.Type)),
					zap.Int64("ticket_id", event.TicketID),
					zap.Error(err))
			}
		}()
	}
}

// syncDispatcher invokes handlers on the publishing goroutine.
type syncDispatcher struct {
	registry
	logger *zap.Logger
}

// NewSyncDispatcher creates a dispatcher that delivers before Publish returns.
func NewSyncDispatcher(logger *zap.Logger) Dispatcher {
	return &syncDispatcher{
		registry: registry{listeners: make(map[EventType][]EventHandler)},
		logger:   logger,
	}
}

func (d *syncDispatcher) Publish(ctx context.Context, event Event) error {
	deliver(ctx, d.logger, d.handlers(event.Type), event)
	return nil
}

// AsyncDispatcher queues events and delivers them from a worker pool. Publish
// never blocks: when the queue is full the event is dropped and logged.
type AsyncDispatcher struct {
	registry
	logger *zap.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan queued
	wg     sync.WaitGroup
}

type queued struct {
	ctx   context.Context
	event Event
}

// NewAsyncDispatcher starts workers goroutines draining a queue of queueSize.
func NewAsyncDispatcher(logger *zap.Logger, workers, queueSize int) *AsyncDispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	d := &AsyncDispatcher{
		registry: registry{listeners: make(map[EventType][]EventHandler)},
		logger:   logger,
		queue:    make(chan queued, queueSize),
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.run()
	}
	return d
}

func (d *AsyncDispatcher) run() {
	defer d.wg.Done()
	for item := range d.queue {
		deliver(item.ctx, d.logger, d.handlers(item.event.Type), item.event)
	}
}

// Publish enqueues the event. The request context is detached from
// cancellation so delivery outlives the request that caused it.
func (d *AsyncDispatcher) Publish(ctx context.Context, event Event) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrDispatcherClosed
	}

	select {
	case d.queue <- queued{ctx: context.WithoutCancel(ctx), event: event}:
	default:
		d.logger.Warn("event queue full; dropping event",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Int64("ticket_id", event.TicketID))
	}
	return nil
}

// Close stops accepting events and waits for queued ones to be delivered.
func (d *AsyncDispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("drain events: %w", ctx.Err())
	}
}
