// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrBusClosed is returned when operating on a closed bus.
	ErrBusClosed = errors.New("event bus is closed")

	// ErrSubscriptionNotFound is returned when unsubscribing an unknown id.
	ErrSubscriptionNotFound = errors.New("subscription not found")
)

// DefaultBufferSize is used by SubscribeAsync when bufferSize is not positive.
const DefaultBufferSize = 100

// MemoryBusConfig configures a MemoryBus.
type MemoryBusConfig struct {
	History HistoryConfig
	Logger  *zap.Logger
}

// MemoryBus is an in-memory Bus.
type MemoryBus struct {
	mu      sync.RWMutex
	subs    map[SubscriptionID]*subscription
	history *History
	logger  *zap.Logger
	closed  atomic.Bool
	dropped atomic.Uint64
	wg      sync.WaitGroup
	stop    chan struct{}
}

type subscription struct {
	pattern string
	handler Handler
	ch      chan Event
	done    chan struct{}
}

// NewMemoryBus creates a bus and starts its history pruner.
func NewMemoryBus(cfg MemoryBusConfig) *MemoryBus {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	bus := &MemoryBus{
		subs:    make(map[SubscriptionID]*subscription),
		history: NewHistory(cfg.History),
		logger:  logger.Named("events"),
		stop:    make(chan struct{}),
	}

	interval := min(max(bus.history.maxAge/10, time.Minute), time.Hour)

	bus.wg.Add(1)
	go func() {
		defer bus.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-bus.stop:
				return
			case <-ticker.C:
				bus.history.Prune()
			}
		}
	}()

	return bus
}

// Publish records event and delivers it to matching subscribers. Missing
// ids and timestamps are filled in.
func (bus *MemoryBus) Publish(ctx context.Context, event Event) error {
	if bus.closed.Load() {
		return ErrBusClosed
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	bus.history.Add(event)

	bus.mu.RLock()
	matched := make([]*subscription, 0, len(bus.subs))
	for _, sub := range bus.subs {
		if Match(sub.pattern, event.Type) {
			matched = append(matched, sub)
		}
	}
	bus.mu.RUnlock()

	for _, sub := range matched {
		if sub.ch == nil {
			bus.deliver(ctx, sub.handler, event)
			continue
		}
		select {
		case sub.ch <- event:
		default:
			bus.dropped.Add(1)
			bus.logger.Warn("async subscriber buffer full, event dropped",
				zap.String("type", event.Type),
				zap.String("pattern", sub.pattern),
			)
		}
	}
	return nil
}

func (bus *MemoryBus) deliver(ctx context.Context, h Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			bus.logger.Error("event handler panic",
				zap.String("type", event.Type),
				zap.Any("panic", r),
			)
		}
	}()
	h(ctx, event)
}

// Subscribe implements Bus.
func (bus *MemoryBus) Subscribe(pattern string, handler Handler) (SubscriptionID, error) {
	return bus.add(pattern, &subscription{handler: handler})
}

// SubscribeAsync implements Bus.
func (bus *MemoryBus) SubscribeAsync(pattern string, handler Handler, bufferSize int) (SubscriptionID, error) {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	sub := &subscription{
		handler: handler,
		ch:      make(chan Event, bufferSize),
		done:    make(chan struct{}),
	}
	id, err := bus.add(pattern, sub)
	if err != nil {
		return "", err
	}

	bus.wg.Add(1)
	go func() {
		defer bus.wg.Done()
		for {
			select {
			case <-sub.done:
				return
			case event := <-sub.ch:
				bus.deliver(context.Background(), handler, event)
			}
		}
	}()
	return id, nil
}

func (bus *MemoryBus) add(pattern string, sub *subscription) (SubscriptionID, error) {
	if bus.closed.Load() {
		return "", ErrBusClosed
	}
	if err := validatePattern(pattern); err != nil {
		return "", err
	}
	sub.pattern = pattern
	id := SubscriptionID(uuid.NewString())

	bus.mu.Lock()
	bus.subs[id] = sub
	bus.mu.Unlock()
	return id, nil
}

// Unsubscribe implements Bus.
func (bus *MemoryBus) Unsubscribe(id SubscriptionID) error {
	bus.mu.Lock()
	sub, ok := bus.subs[id]
	delete(bus.subs, id)
	bus.mu.Unlock()

	if !ok {
		return ErrSubscriptionNotFound
	}
	if sub.done != nil {
		close(sub.done)
	}
	return nil
}

// History implements Bus.
func (bus *MemoryBus) History(filter Filter) []Event {
	return bus.history.Query(filter)
}

// Subscribers returns the number of active subscriptions.
func (bus *MemoryBus) Subscribers() int {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	return len(bus.subs)
}

// Dropped returns how many async deliveries were dropped.
func (bus *MemoryBus) Dropped() uint64 {
	return bus.dropped.Load()
}

// Close stops every async subscriber and the pruner. It is safe to call
// more than once.
func (bus *MemoryBus) Close() error {
	if bus.closed.Swap(true) {
		return nil
	}
	close(bus.stop)

	bus.mu.Lock()
	for id, sub := range bus.subs {
		if sub.done != nil {
			close(sub.done)
		}
		delete(bus.subs, id)
	}
	bus.mu.Unlock()

	bus.wg.Wait()
	bus.history.Reset()
	return nil
}

// Nop is a Publisher that discards events.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, Event) error { return nil }
