package events

import "luckydraw/domain/entities"

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange    EventType = "balance_change"
	EventTypeRequestCreated   EventType = "request_created"
	EventTypeRequestDecided   EventType = "request_decided"
	EventTypeTicketsPurchased EventType = "tickets_purchased"
	EventTypeDrawCompleted    EventType = "draw_completed"
)

// AllEventTypes lists every event type the service publishes
func AllEventTypes() []EventType {
	return []EventType{
		EventTypeBalanceChange,
		EventTypeRequestCreated,
		EventTypeRequestDecided,
		EventTypeTicketsPurchased,
		EventTypeDrawCompleted,
	}
}

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent is emitted for every ledger row written
type BalanceChangeEvent struct {
	UserID          int64                    `json:"user_id"`
	OldBalance      int64                    `json:"old_balance"`
	NewBalance      int64                    `json:"new_balance"`
	ChangeAmount    int64                    `json:"change_amount"`
	TransactionType entities.TransactionType `json:"transaction_type"`
	TransactionID   string                   `json:"transaction_id"`
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// RequestCreatedEvent is emitted when a user submits a deposit, withdrawal or advertisement
type RequestCreatedEvent struct {
	Ref    string               `json:"ref"`
	Kind   entities.RequestKind `json:"kind"`
	UserID int64                `json:"user_id"`
	Amount int64                `json:"amount"`
}

func (e RequestCreatedEvent) Type() EventType {
	return EventTypeRequestCreated
}

// RequestDecidedEvent is emitted when an admin approves, rejects or holds a request
type RequestDecidedEvent struct {
	Ref     string                 `json:"ref"`
	Kind    entities.RequestKind   `json:"kind"`
	UserID  int64                  `json:"user_id"`
	AdminID int64                  `json:"admin_id"`
	Amount  int64                  `json:"amount"`
	Status  entities.RequestStatus `json:"status"`
}

func (e RequestDecidedEvent) Type() EventType {
	return EventTypeRequestDecided
}

// TicketsPurchasedEvent is emitted once per purchase
type TicketsPurchasedEvent struct {
	UserID        int64  `json:"user_id"`
	Count         int    `json:"count"`
	Total         int64  `json:"total"`
	DrawDate      string `json:"draw_date"`
	TransactionID string `json:"transaction_id"`
}

func (e TicketsPurchasedEvent) Type() EventType {
	return EventTypeTicketsPurchased
}

// DrawCompletedEvent is emitted after a draw commits, including no-sales draws
type DrawCompletedEvent struct {
	DrawID      int64               `json:"draw_id"`
	DrawDate    string              `json:"draw_date"`
	Status      entities.DrawStatus `json:"status"`
	TotalSales  int64               `json:"total_sales"`
	PrizePool   int64               `json:"prize_pool"`
	WinnerIDs   []int64             `json:"winner_ids"`
	PrizeAmount int64               `json:"prize_amount"`
}

func (e DrawCompletedEvent) Type() EventType {
	return EventTypeDrawCompleted
}
