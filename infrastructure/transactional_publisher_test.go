package infrastructure

import (
	"context"
	"errors"
	"sync"
	"testing"

	"luckydraw/domain/entities"
	"luckydraw/domain/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockEventPublisher records published events
type MockEventPublisher struct {
	PublishedEvents []events.Event
	PublishError    error
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	if m.PublishError != nil {
		return m.PublishError
	}
	m.PublishedEvents = append(m.PublishedEvents, event)
	return nil
}

func TestTransactionalPublisher_FlushPublishesInOrder(t *testing.T) {
	t.Parallel()

	inner := &MockEventPublisher{}
	p := NewTransactionalPublisher(inner)

	first := events.BalanceChangeEvent{UserID: 1, ChangeAmount: 10000, TransactionType: entities.TransactionTypeDeposit}
	second := events.RequestDecidedEvent{Ref: "D1", UserID: 1, Status: entities.RequestStatusApproved}
	require.NoError(t, p.Publish(first))
	require.NoError(t, p.Publish(second))

	assert.Empty(t, inner.PublishedEvents, "events must wait for the commit")
	assert.Equal(t, 2, p.Pending())

	require.NoError(t, p.Flush(context.Background()))
	assert.Equal(t, []events.Event{first, second}, inner.PublishedEvents)
	assert.Equal(t, 0, p.Pending())
}

func TestTransactionalPublisher_DiscardDropsEvents(t *testing.T) {
	t.Parallel()

	inner := &MockEventPublisher{}
	p := NewTransactionalPublisher(inner)

	require.NoError(t, p.Publish(events.TicketsPurchasedEvent{UserID: 3, Count: 2}))
	p.Discard()
	require.NoError(t, p.Flush(context.Background()))

	assert.Empty(t, inner.PublishedEvents)
}

func TestTransactionalPublisher_FlushIgnoresPublishErrors(t *testing.T) {
	t.Parallel()

	inner := &MockEventPublisher{PublishError: errors.New("nats down")}
	p := NewTransactionalPublisher(inner)

	require.NoError(t, p.Publish(events.DrawCompletedEvent{DrawID: 1}))
	assert.NoError(t, p.Flush(context.Background()))
	assert.Equal(t, 0, p.Pending())
}

type recordingClient struct {
	mu       sync.Mutex
	subjects []string
	msgIDs   []string
	err      error
}

func (c *recordingClient) Publish(ctx context.Context, subject, msgID string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.subjects = append(c.subjects, subject)
	c.msgIDs = append(c.msgIDs, msgID)
	return nil
}

func TestNATSEventPublisher_RunsLocalHandlersAndPublishes(t *testing.T) {
	t.Parallel()

	client := &recordingClient{}
	p := NewNATSEventPublisher(client, NewEventSubjectMapper())

	var handled []events.Event
	p.RegisterLocalHandler(events.EventTypeDrawCompleted, func(ctx context.Context, e events.Event) error {
		handled = append(handled, e)
		return errors.New("handler errors are logged, not returned")
	})

	event := events.DrawCompletedEvent{DrawID: 7, Status: entities.DrawStatusCompleted}
	require.NoError(t, p.Publish(event))

	assert.Equal(t, []events.Event{event}, handled)
	assert.Equal(t, []string{"luckydraw.draw_completed"}, client.subjects)
	require.Len(t, client.msgIDs, 1)
	assert.NotEmpty(t, client.msgIDs[0])
}

func TestNATSEventPublisher_ReturnsClientError(t *testing.T) {
	t.Parallel()

	client := &recordingClient{err: errors.New("no responders")}
	p := NewNATSEventPublisher(client, NewEventSubjectMapper())

	err := p.Publish(events.BalanceChangeEvent{UserID: 1})
	assert.Error(t, err)
}

func TestEventSubjectMapper(t *testing.T) {
	t.Parallel()

	m := NewEventSubjectMapper()
	subject := m.MapEventToSubject(events.RequestCreatedEvent{})
	assert.Equal(t, "luckydraw.request_created", subject)
	assert.Equal(t, events.EventTypeRequestCreated, m.MapSubjectToEventType(subject))
	assert.Len(t, m.GetAllSubjects(), 5)
	assert.Contains(t, m.GetAllSubjects(), subject)
}

func TestLocalEventPublisher(t *testing.T) {
	t.Parallel()

	p := NewLocalEventPublisher()
	count := 0
	p.RegisterLocalHandler(events.EventTypeTicketsPurchased, func(ctx context.Context, e events.Event) error {
		count += e.(events.TicketsPurchasedEvent).Count
		return nil
	})

	require.NoError(t, p.Publish(events.TicketsPurchasedEvent{Count: 3}))
	require.NoError(t, p.Publish(events.BalanceChangeEvent{}))
	assert.Equal(t, 3, count)
}
