package entities

import (
	"fmt"
	"time"
)

// TicketStatus of a purchased ticket. Void exists for manual corrections only.
type TicketStatus string

const (
	TicketStatusActive TicketStatus = "active"
	TicketStatusVoid   TicketStatus = "void"
)

// MaxTicketsPerPurchase caps a single purchase
const MaxTicketsPerPurchase = 100

// Ticket is one purchased entry into the daily draw
type Ticket struct {
	ID            int64        `db:"id"`
	UserID        int64        `db:"user_id"`
	TicketNumber  string       `db:"ticket_number"`
	Amount        int64        `db:"amount"`
	PurchaseDate  time.Time    `db:"purchase_date"`
	DrawDate      time.Time    `db:"draw_date"`
	Status        TicketStatus `db:"status"`
	TransactionID string       `db:"transaction_id"`
}

// TicketNumber formats the printable ticket number for the n-th ticket of a purchase
func TicketNumber(purchasedAt time.Time, userID int64, n int) string {
	return fmt.Sprintf("T%s%d-%d", purchasedAt.Format("20060102150405"), userID, n)
}

// TicketBuyer aggregates one user's tickets for a draw date
type TicketBuyer struct {
	UserID        int64
	TicketCount   int64
	TotalAmount   int64
	FirstTicketID int64
}

// TicketQuote is the price check shown before a purchase is confirmed
type TicketQuote struct {
	Count      int
	UnitPrice  int64
	Total      int64
	Balance    int64
	Affordable bool
	DrawDate   time.Time
}

// Shortfall returns how much is missing to afford the quote
func (q *TicketQuote) Shortfall() int64 {
	if q.Affordable {
		return 0
	}
	return q.Total - q.Balance
}
