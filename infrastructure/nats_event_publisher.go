package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"luckydraw/domain/events"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// LocalEventHandler handles an event inside the publishing process
type LocalEventHandler func(context.Context, events.Event) error

// EventEnvelope is the JSON document published for every event
type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Timestamp     time.Time       `json:"timestamp"`
	SourceService string          `json:"source_service"`
	Payload       json.RawMessage `json:"payload"`
}

// messagePublisher is the part of NATSClient the publisher needs
type messagePublisher interface {
	Publish(ctx context.Context, subject, msgID string, data []byte) error
}

// NATSEventPublisher publishes domain events to NATS and runs local handlers first
type NATSEventPublisher struct {
	client        messagePublisher
	subjectMapper *EventSubjectMapper
	mu            sync.RWMutex
	localHandlers map[events.EventType][]LocalEventHandler
}

// NewNATSEventPublisher creates a new NATS event publisher
func NewNATSEventPublisher(client messagePublisher, subjectMapper *EventSubjectMapper) *NATSEventPublisher {
	return &NATSEventPublisher{
		client:        client,
		subjectMapper: subjectMapper,
		localHandlers: make(map[events.EventType][]LocalEventHandler),
	}
}

// Publish publishes an event to NATS using the appropriate subject
func (p *NATSEventPublisher) Publish(event events.Event) error {
	ctx := context.Background()

	runLocalHandlers(ctx, p.handlersFor(event.Type()), event)

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	envelope := EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     string(event.Type()),
		Timestamp:     time.Now().UTC(),
		SourceService: "luckydraw",
		Payload:       payload,
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	subject := p.subjectMapper.MapEventToSubject(event)
	if err := p.client.Publish(ctx, subject, envelope.EventID, data); err != nil {
		return fmt.Errorf("failed to publish event to NATS: %w", err)
	}

	log.WithFields(log.Fields{
		"eventType": event.Type(),
		"eventId":   envelope.EventID,
		"subject":   subject,
	}).Debug("Successfully published event to NATS")
	return nil
}

// RegisterLocalHandler registers a handler invoked in-process for every event of the type
func (p *NATSEventPublisher) RegisterLocalHandler(eventType events.EventType, handler LocalEventHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.localHandlers[eventType] = append(p.localHandlers[eventType], handler)
}

func (p *NATSEventPublisher) handlersFor(eventType events.EventType) []LocalEventHandler {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.localHandlers[eventType]
}

func runLocalHandlers(ctx context.Context, handlers []LocalEventHandler, event events.Event) {
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			log.WithFields(log.Fields{
				"eventType": event.Type(),
				"error":     err,
			}).Error("Local event handler failed")
		}
	}
}
