package infrastructure

import (
	"luckydraw/domain/events"
)

// EventStreamName is the JetStream stream all domain events are stored in
const EventStreamName = "luckydraw_events"

const subjectPrefix = "luckydraw."

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	return subjectPrefix + string(event.Type())
}

// MapSubjectToEventType converts a NATS subject back to an event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	if len(subject) > len(subjectPrefix) && subject[:len(subjectPrefix)] == subjectPrefix {
		return events.EventType(subject[len(subjectPrefix):])
	}
	return events.EventType(subject)
}

// GetAllSubjects returns all subjects that this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	types := events.AllEventTypes()
	subjects := make([]string, 0, len(types))
	for _, t := range types {
		subjects = append(subjects, subjectPrefix+string(t))
	}
	return subjects
}
