package events

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher interface allows event publication/subscription.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	// Subscribe registers handler for topic and returns a function that removes it.
	Subscribe(topic Topic, handler EventHandler) (unsubscribe func())
}

type subscription struct {
	id      uint64
	handler EventHandler
}

// inMemoryDispatcher is a simple synchronous dispatcher.
type inMemoryDispatcher struct {
	mu        sync.RWMutex
	nextID    uint64
	listeners map[Topic][]subscription
	logger    *zap.Logger
}

// NewInMemoryDispatcher creates a dispatcher instance.
func NewInMemoryDispatcher(logger *zap.Logger) Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &inMemoryDispatcher{
		listeners: make(map[Topic][]subscription),
		logger:    logger,
	}
}

// Publish synchronously invokes handlers for the event topic. A failing
// handler is logged and does not stop delivery to the others.
func (d *inMemoryDispatcher) Publish(ctx context.Context, event Event) error {
	d.mu.RLock()
	subs := append([]subscription{}, d.listeners[event.Topic]...)
	d.mu.RUnlock()

	for _, sub := range subs {
		if err := sub.handler(ctx, event); err != nil {
			d.logger.Warn("event handler failed",
				zap.String("topic", string(event.Topic)),
				zap.String("event_id", event.ID),
				zap.Error(err),
			)
		}
	}
	return nil
}

// Subscribe registers a handler for the given topic.
func (d *inMemoryDispatcher) Subscribe(topic Topic, handler EventHandler) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	id := d.nextID
	d.listeners[topic] = append(d.listeners[topic], subscription{id: id, handler: handler})

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			defer d.mu.Unlock()
			subs := d.listeners[topic]
			for i, sub := range subs {
				if sub.id == id {
					d.listeners[topic] = append(subs[:i:i], subs[i+1:]...)
					break
				}
			}
			if len(d.listeners[topic]) == 0 {
				delete(d.listeners, topic)
			}
		})
	}
}
