package entities

import (
	"errors"
	"time"
)

// TransactionType identifies what produced a ledger row
type TransactionType string

const (
	TransactionTypeDeposit          TransactionType = "deposit"
	TransactionTypeWithdrawal       TransactionType = "withdrawal"
	TransactionTypeTicketPurchase   TransactionType = "ticket_purchase"
	TransactionTypeWithdrawalRefund TransactionType = "withdrawal_refund"
	TransactionTypePrize            TransactionType = "prize"
)

// Prefix returns the transaction id prefix for the type
func (t TransactionType) Prefix() string {
	switch t {
	case TransactionTypeDeposit:
		return "DEP"
	case TransactionTypeWithdrawal:
		return "WDR"
	case TransactionTypeTicketPurchase:
		return "TKT"
	case TransactionTypeWithdrawalRefund:
		return "RFD"
	case TransactionTypePrize:
		return "PRZ"
	default:
		return "TXN"
	}
}

// IsCredit reports whether the type adds money to the balance
func (t TransactionType) IsCredit() bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeWithdrawalRefund, TransactionTypePrize:
		return true
	default:
		return false
	}
}

// Valid reports whether t is a known transaction type
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeWithdrawal, TransactionTypeTicketPurchase,
		TransactionTypeWithdrawalRefund, TransactionTypePrize:
		return true
	}
	return false
}

// Label returns a short description for chat output
func (t TransactionType) Label() string {
	switch t {
	case TransactionTypeDeposit:
		return "Deposit"
	case TransactionTypeWithdrawal:
		return "Withdrawal"
	case TransactionTypeTicketPurchase:
		return "Ticket purchase"
	case TransactionTypeWithdrawalRefund:
		return "Withdrawal refund"
	case TransactionTypePrize:
		return "Prize"
	default:
		return string(t)
	}
}

// TransactionStatus is the settlement state of a ledger row
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
)

// Transaction is one ledger row. Every row is a balance movement that already hit the
// user's balance; status only tracks settlement with the outside world.
type Transaction struct {
	ID            int64             `db:"id"`
	TransactionID string            `db:"transaction_id"`
	UserID        int64             `db:"user_id"`
	Type          TransactionType   `db:"type"`
	Amount        int64             `db:"amount"`
	BalanceBefore int64             `db:"balance_before"`
	BalanceAfter  int64             `db:"balance_after"`
	Status        TransactionStatus `db:"status"`
	Description   string            `db:"description"`
	Metadata      map[string]any    `db:"metadata"`
	CreatedAt     time.Time         `db:"created_at"`
	UpdatedAt     time.Time         `db:"updated_at"`
}

// IsCompleted reports whether the row is settled
func (t *Transaction) IsCompleted() bool {
	return t.Status == TransactionStatusCompleted
}

// Validate performs basic consistency checks before the row is written
func (t *Transaction) Validate() error {
	if !t.Type.Valid() {
		return errors.New("unknown transaction type")
	}
	if t.Amount == 0 {
		return errors.New("amount cannot be zero")
	}
	if t.Type.IsCredit() != (t.Amount > 0) {
		return errors.New("amount sign does not match transaction type")
	}
	if t.BalanceAfter != t.BalanceBefore+t.Amount {
		return errors.New("balance calculation is inconsistent")
	}
	if t.BalanceAfter < 0 {
		return errors.New("balance cannot become negative")
	}
	return nil
}

// LedgerDiscrepancy is a user whose balance disagrees with the sum of their ledger rows
type LedgerDiscrepancy struct {
	UserID    int64
	Balance   int64
	LedgerSum int64
}

// Difference is balance minus ledger sum
func (d LedgerDiscrepancy) Difference() int64 {
	return d.Balance - d.LedgerSum
}
