package infrastructure

import (
	"context"
	"sync"

	"luckydraw/domain/events"
)

// LocalEventPublisher only runs local handlers. It is used when NATS is not configured
// and by CLI commands.
type LocalEventPublisher struct {
	mu            sync.RWMutex
	localHandlers map[events.EventType][]LocalEventHandler
}

// NewLocalEventPublisher creates a publisher without a message bus
func NewLocalEventPublisher() *LocalEventPublisher {
	return &LocalEventPublisher{
		localHandlers: make(map[events.EventType][]LocalEventHandler),
	}
}

// Publish runs the local handlers for the event
func (p *LocalEventPublisher) Publish(event events.Event) error {
	p.mu.RLock()
	handlers := p.localHandlers[event.Type()]
	p.mu.RUnlock()

	runLocalHandlers(context.Background(), handlers, event)
	return nil
}

// RegisterLocalHandler registers a handler invoked for every event of the type
func (p *LocalEventPublisher) RegisterLocalHandler(eventType events.EventType, handler LocalEventHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.localHandlers[eventType] = append(p.localHandlers[eventType], handler)
}
