package dto

import (
	"time"

	"luckydraw/domain/entities"
)

// Action is a follow-up command offered next to a message, rendered as a button where the
// chat platform supports it
type Action struct {
	Label   string
	Command string
}

// DecisionResult describes an admin decision on a deposit, withdrawal or advertisement
type DecisionResult struct {
	Ref           entities.RequestRef
	Status        entities.RequestStatus
	UserID        int64
	UserName      string
	Amount        int64
	Method        entities.PaymentMethod
	Detail        string
	AdminID       int64
	AdminNote     string
	TransactionID string
	NewBalance    int64
}

// WinnerView is a winner as shown on the announcement and the result card
type WinnerView struct {
	UserID   int64
	Name     string
	TicketID int64
	Amount   int64
}

// DrawAnnouncement is everything needed to publish a settled draw
type DrawAnnouncement struct {
	Draw    *entities.Draw
	Winners []WinnerView
}

// AdminStats is the admin panel overview
type AdminStats struct {
	Users   entities.UserStats
	Preview *entities.DrawPreview
	LastRun *entities.Draw
}

// PaymentAccount is one receiving account shown by /paymentinfo
type PaymentAccount struct {
	Method      entities.PaymentMethod
	AccountName string
	Phone       string
}

// TicketList is a user's tickets for the draw they are currently entered in
type TicketList struct {
	DrawDate time.Time
	Tickets  []*entities.Ticket
}
