package interfaces

import (
	"context"
	"time"

	"luckydraw/domain/entities"
	"luckydraw/domain/events"
)

// EventPublisher publishes domain events
type EventPublisher interface {
	Publish(event events.Event) error
}

// RandomSource picks winners. Tests inject a seeded source for deterministic draws.
type RandomSource interface {
	Intn(n int) int
}

// Clock returns the current time; services take it so date boundaries are testable
type Clock func() time.Time

// LedgerService is the single entry point for balance changes
type LedgerService interface {
	EnsureUser(ctx context.Context, userID int64, username, displayName string) (*entities.User, error)
	GetUser(ctx context.Context, userID int64) (*entities.User, error)
	GetBalance(ctx context.Context, userID int64) (int64, error)
	AdjustBalance(ctx context.Context, userID int64, delta int64) (before, after int64, err error)
	RecordTransaction(ctx context.Context, tx *entities.Transaction) (*entities.Transaction, error)
	Post(ctx context.Context, entry LedgerEntry) (*entities.Transaction, error)
	CompleteTransaction(ctx context.Context, transactionID string) error
	History(ctx context.Context, userID int64, limit int) ([]*entities.Transaction, error)
	Reconcile(ctx context.Context) ([]entities.LedgerDiscrepancy, error)
}

// LedgerEntry describes one balance movement to post
type LedgerEntry struct {
	UserID        int64
	Type          entities.TransactionType
	Amount        int64
	Status        entities.TransactionStatus
	Description   string
	TransactionID string // generated when empty
	Metadata      map[string]any
}

// UserService handles registration
type UserService interface {
	Register(ctx context.Context, userID int64, phone, displayName string) (*entities.User, error)
}

// PaymentService runs the deposit/withdrawal request state machine
type PaymentService interface {
	CreateDeposit(ctx context.Context, userID, amount int64, method entities.PaymentMethod, proofRef string) (*entities.PaymentRequest, error)
	CreateWithdrawal(ctx context.Context, userID, amount int64, method entities.PaymentMethod, accountName, accountPhone string) (*entities.WithdrawalRequest, error)
	Approve(ctx context.Context, ref entities.RequestRef, adminID int64) (*entities.RequestSummary, error)
	Reject(ctx context.Context, ref entities.RequestRef, adminID int64, note string) (*entities.RequestSummary, error)
	Hold(ctx context.Context, ref entities.RequestRef, adminID int64, note string) (*entities.RequestSummary, error)
	Get(ctx context.Context, ref entities.RequestRef) (*entities.RequestSummary, error)
	ListPending(ctx context.Context, limit int) ([]*entities.RequestSummary, error)
}

// AdvertisingService runs the advertisement review workflow. Ads never touch balances.
type AdvertisingService interface {
	Submit(ctx context.Context, userID int64, draft entities.AdDraft) (*entities.Advertisement, error)
	Decide(ctx context.Context, id int64, status entities.RequestStatus, adminID int64, note string) (*entities.Advertisement, error)
	Get(ctx context.Context, id int64) (*entities.Advertisement, error)
	ListPending(ctx context.Context, limit int) ([]*entities.Advertisement, error)
}

// TicketService sells tickets
type TicketService interface {
	Quote(ctx context.Context, userID int64, count int) (*entities.TicketQuote, error)
	BuyTickets(ctx context.Context, userID int64, count int) (*TicketPurchaseResult, error)
	UserTickets(ctx context.Context, userID int64, drawDate time.Time) ([]*entities.Ticket, error)
	DrawDateFor(ctx context.Context, at time.Time) (time.Time, error)
}

// TicketPurchaseResult describes a completed purchase
type TicketPurchaseResult struct {
	Tickets     []*entities.Ticket
	Transaction *entities.Transaction
	Total       int64
	NewBalance  int64
	DrawDate    time.Time
}

// DrawService settles daily draws
type DrawService interface {
	RunDraw(ctx context.Context, drawDate time.Time, rng RandomSource) (*DrawResult, error)
	Preview(ctx context.Context, drawDate time.Time) (*entities.DrawPreview, error)
	GetDraw(ctx context.Context, drawDate time.Time) (*entities.Draw, error)
}

// DrawResult is the outcome of a draw run
type DrawResult struct {
	Draw    *entities.Draw
	Winners []*entities.Winner
}

// SettingsService reads and writes operational parameters
type SettingsService interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, adminID int64) error
	All(ctx context.Context) (map[string]string, error)
	SeedDefaults(ctx context.Context, defaults map[string]string) error

	TicketPrice(ctx context.Context) (int64, error)
	DrawTime(ctx context.Context) (hour, minute int, err error)
	CommissionRate(ctx context.Context) (string, error)
	DonationRate(ctx context.Context) (string, error)
	MinDeposit(ctx context.Context) (int64, error)
	MinWithdrawal(ctx context.Context) (int64, error)
	MaxWinners(ctx context.Context) (int, error)
	BuyersPerWinner(ctx context.Context) (int, error)
	AdminIDs(ctx context.Context) ([]int64, error)
	IsAdmin(ctx context.Context, userID int64) (bool, error)
}

// TransactionalEventPublisher buffers events until the surrounding storage transaction ends
type TransactionalEventPublisher interface {
	EventPublisher
	Flush(ctx context.Context) error
	Discard()
}
