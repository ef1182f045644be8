package infrastructure

import (
	"context"
	"sync"

	"luckydraw/domain/events"
	"luckydraw/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// TransactionalPublisher holds events until the unit of work commits
type TransactionalPublisher struct {
	realPublisher interfaces.EventPublisher
	mu            sync.Mutex
	pending       []events.Event
}

// NewTransactionalPublisher creates a new transactional publisher
func NewTransactionalPublisher(realPublisher interfaces.EventPublisher) *TransactionalPublisher {
	return &TransactionalPublisher{
		realPublisher: realPublisher,
		pending:       make([]events.Event, 0),
	}
}

// Publish queues the event
func (p *TransactionalPublisher) Publish(event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = append(p.pending, event)
	return nil
}

// Flush publishes the queued events in order. A failed event is logged and skipped.
func (p *TransactionalPublisher) Flush(ctx context.Context) error {
	p.mu.Lock()
	pending := p.pending
	p.pending = make([]events.Event, 0)
	p.mu.Unlock()

	for _, event := range pending {
		if err := p.realPublisher.Publish(event); err != nil {
			log.WithFields(log.Fields{
				"eventType": event.Type(),
				"error":     err,
			}).Error("Failed to publish event during flush")
		}
	}
	return nil
}

// Discard drops the queued events
func (p *TransactionalPublisher) Discard() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.pending) > 0 {
		log.WithField("discardedEventCount", len(p.pending)).Debug("Discarding pending events")
	}
	p.pending = p.pending[:0]
}

// Pending returns how many events are queued
func (p *TransactionalPublisher) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}
