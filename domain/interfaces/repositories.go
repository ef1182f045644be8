package interfaces

import (
	"context"
	"time"

	"luckydraw/domain/entities"
)

// UserRepository persists users and their balance.
// AdjustBalance is the only balance writer: a conditional update that never lets the
// balance go negative.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*entities.User, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*entities.User, error)
	Upsert(ctx context.Context, id int64, username, displayName string) (*entities.User, error)
	Register(ctx context.Context, id int64, phone, displayName string) (*entities.User, error)
	AdjustBalance(ctx context.Context, id int64, delta int64) (before, after int64, err error)
	IncrementCounters(ctx context.Context, id int64, spent, won, tickets int64) error
	Count(ctx context.Context) (total int64, registered int64, err error)
	TotalBalance(ctx context.Context) (int64, error)
}

// TransactionRepository is the append-only ledger
type TransactionRepository interface {
	Create(ctx context.Context, tx *entities.Transaction) error
	GetByTransactionID(ctx context.Context, transactionID string) (*entities.Transaction, error)
	MarkCompleted(ctx context.Context, transactionID string) error
	ListByUser(ctx context.Context, userID int64, limit int) ([]*entities.Transaction, error)
	SumByUser(ctx context.Context, userID int64) (int64, error)
	FindDiscrepancies(ctx context.Context) ([]entities.LedgerDiscrepancy, error)
	SumByType(ctx context.Context, txType entities.TransactionType) (int64, error)
}

// PaymentRequestRepository stores deposit requests
type PaymentRequestRepository interface {
	Create(ctx context.Context, req *entities.PaymentRequest) error
	GetByID(ctx context.Context, id int64) (*entities.PaymentRequest, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*entities.PaymentRequest, error)
	// Decide moves a pending request to status; it returns false when the request was not pending
	Decide(ctx context.Context, id int64, status entities.RequestStatus, adminID int64, note string) (bool, error)
	ListPending(ctx context.Context, limit int) ([]*entities.PaymentRequest, error)
	CountPending(ctx context.Context) (int64, error)
}

// WithdrawalRequestRepository stores withdrawal requests
type WithdrawalRequestRepository interface {
	Create(ctx context.Context, req *entities.WithdrawalRequest) error
	GetByID(ctx context.Context, id int64) (*entities.WithdrawalRequest, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*entities.WithdrawalRequest, error)
	Decide(ctx context.Context, id int64, status entities.RequestStatus, adminID int64, note string) (bool, error)
	ListPending(ctx context.Context, limit int) ([]*entities.WithdrawalRequest, error)
	CountPending(ctx context.Context) (int64, error)
}

// AdvertisementRepository stores ad submissions awaiting or past admin review
type AdvertisementRepository interface {
	Create(ctx context.Context, ad *entities.Advertisement) error
	GetByID(ctx context.Context, id int64) (*entities.Advertisement, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*entities.Advertisement, error)
	Decide(ctx context.Context, id int64, status entities.RequestStatus, adminID int64, note string) (bool, error)
	ListPending(ctx context.Context, limit int) ([]*entities.Advertisement, error)
	CountPending(ctx context.Context) (int64, error)
}

// TicketRepository stores tickets; rows are never updated
type TicketRepository interface {
	CreateBatch(ctx context.Context, tickets []*entities.Ticket) error
	ListByUserAndDrawDate(ctx context.Context, userID int64, drawDate time.Time) ([]*entities.Ticket, error)
	GetBuyersForDrawDate(ctx context.Context, drawDate time.Time) ([]*entities.TicketBuyer, error)
	SumSalesForDrawDate(ctx context.Context, drawDate time.Time) (total int64, count int64, err error)
}

// DrawRepository stores one row per draw date
type DrawRepository interface {
	// Create inserts the draw; a second draw for the same date returns entities.ErrAlreadyDrawn
	Create(ctx context.Context, draw *entities.Draw) error
	GetByDate(ctx context.Context, drawDate time.Time) (*entities.Draw, error)
	GetLatest(ctx context.Context) (*entities.Draw, error)
	// LockDate blocks until no other transaction holds drawDate; held until commit or rollback
	LockDate(ctx context.Context, drawDate time.Time) error
}

// WinnerRepository is the append-only list of paid prizes
type WinnerRepository interface {
	Create(ctx context.Context, winner *entities.Winner) error
	ListByDraw(ctx context.Context, drawID int64) ([]*entities.Winner, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]*entities.Winner, error)
}

// SettingRepository is the key/value settings store
type SettingRepository interface {
	Get(ctx context.Context, key string) (*entities.Setting, error)
	GetAll(ctx context.Context) ([]*entities.Setting, error)
	Set(ctx context.Context, key, value string, updatedBy *int64) error
	SetIfAbsent(ctx context.Context, key, value string) error
}
