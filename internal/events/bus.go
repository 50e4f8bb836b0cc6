// Package events is a typed, in-process publish/subscribe bus. Handlers are
// keyed by the Go type of the event, so there are no string hook names.
package events

import (
	"context"
	"log/slog"
	"reflect"
	"sync"
)

type handlerEntry struct {
	id int
	fn func(context.Context, any)
}

// Bus dispatches events synchronously, in subscription order.
type Bus struct {
	mu       sync.RWMutex
	handlers map[reflect.Type][]handlerEntry
	nextID   int
	logger   *slog.Logger
}

// NewBus creates an empty bus.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{handlers: make(map[reflect.Type][]handlerEntry), logger: logger}
}

// Subscribe registers fn for events of type E and returns a function that
// removes the subscription.
func Subscribe[E any](b *Bus, fn func(context.Context, E)) (unsubscribe func()) {
	t := reflect.TypeFor[E]()

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.handlers[t] = append(b.handlers[t], handlerEntry{
		id: id,
		fn: func(ctx context.Context, ev any) { fn(ctx, ev.(E)) },
	})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			hs := b.handlers[t]
			for i, h := range hs {
				if h.id == id {
					b.handlers[t] = append(hs[:i:i], hs[i+1:]...)
					break
				}
			}
		})
	}
}

// Publish delivers ev to every handler subscribed to E. A panicking handler
// is logged and does not stop delivery to the rest.
func Publish[E any](ctx context.Context, b *Bus, ev E) {
	t := reflect.TypeFor[E]()

	b.mu.RLock()
	hs := b.handlers[t]
	b.mu.RUnlock()

	for _, h := range hs {
		b.invoke(ctx, t, h, ev)
	}
}

// Subscribers returns how many handlers are registered for E.
func Subscribers[E any](b *Bus) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[reflect.TypeFor[E]()])
}

func (b *Bus) invoke(ctx context.Context, t reflect.Type, h handlerEntry, ev any) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked", "event", t.String(), "panic", r)
		}
	}()
	h.fn(ctx, ev)
}
