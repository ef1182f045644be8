package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"luckydraw/domain/entities"
	"luckydraw/domain/interfaces"
	"luckydraw/domain/utils"

	log "github.com/sirupsen/logrus"
)

// ledgerService owns users' balances and the transaction log
type ledgerService struct {
	userRepo        interfaces.UserRepository
	transactionRepo interfaces.TransactionRepository
	eventPublisher  interfaces.EventPublisher
	now             interfaces.Clock
}

// NewLedgerService creates a new ledger service
func NewLedgerService(
	userRepo interfaces.UserRepository,
	transactionRepo interfaces.TransactionRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.LedgerService {
	return &ledgerService{
		userRepo:        userRepo,
		transactionRepo: transactionRepo,
		eventPublisher:  eventPublisher,
		now:             time.Now,
	}
}

// EnsureUser creates the user on first contact and refreshes their chat names afterwards
func (s *ledgerService) EnsureUser(ctx context.Context, userID int64, username, displayName string) (*entities.User, error) {
	user, err := s.userRepo.Upsert(ctx, userID, username, displayName)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return user, nil
}

// GetUser returns the user or ErrUserNotFound
func (s *ledgerService) GetUser(ctx context.Context, userID int64) (*entities.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, entities.ErrUserNotFound
	}
	return user, nil
}

// GetBalance returns the user's balance, 0 for unknown users
func (s *ledgerService) GetBalance(ctx context.Context, userID int64) (int64, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return 0, nil
	}
	return user.Balance, nil
}

// AdjustBalance applies delta atomically. A debit that would overdraw fails with
// *entities.InsufficientBalanceError and leaves the balance untouched.
func (s *ledgerService) AdjustBalance(ctx context.Context, userID int64, delta int64) (int64, int64, error) {
	if delta == 0 {
		return 0, 0, entities.ErrInvalidAmount
	}
	before, after, err := s.userRepo.AdjustBalance(ctx, userID, delta)
	if err != nil {
		return 0, 0, err
	}
	return before, after, nil
}

// RecordTransaction appends a ledger row for a movement that has already been applied
func (s *ledgerService) RecordTransaction(ctx context.Context, tx *entities.Transaction) (*entities.Transaction, error) {
	if tx.Status == "" {
		tx.Status = entities.TransactionStatusCompleted
	}
	if err := utils.RecordLedgerEntry(ctx, s.transactionRepo, s.eventPublisher, tx, s.now()); err != nil {
		return nil, err
	}
	return tx, nil
}

// Post applies a balance movement and records its ledger row. Callers run it inside a
// unit of work so both writes commit or neither does.
func (s *ledgerService) Post(ctx context.Context, entry interfaces.LedgerEntry) (*entities.Transaction, error) {
	if entry.Type.IsCredit() != (entry.Amount > 0) {
		return nil, fmt.Errorf("%w: %s with amount %d", entities.ErrInvalidAmount, entry.Type, entry.Amount)
	}

	before, after, err := s.AdjustBalance(ctx, entry.UserID, entry.Amount)
	if err != nil {
		return nil, err
	}

	tx := &entities.Transaction{
		TransactionID: entry.TransactionID,
		UserID:        entry.UserID,
		Type:          entry.Type,
		Amount:        entry.Amount,
		BalanceBefore: before,
		BalanceAfter:  after,
		Status:        entry.Status,
		Description:   entry.Description,
		Metadata:      entry.Metadata,
	}
	if tx.Metadata == nil {
		tx.Metadata = map[string]any{}
	}

	return s.RecordTransaction(ctx, tx)
}

// CompleteTransaction settles a pending ledger row
func (s *ledgerService) CompleteTransaction(ctx context.Context, transactionID string) error {
	if err := s.transactionRepo.MarkCompleted(ctx, transactionID); err != nil {
		return fmt.Errorf("failed to complete transaction %s: %w", transactionID, err)
	}
	return nil
}

// History returns the user's newest ledger rows
func (s *ledgerService) History(ctx context.Context, userID int64, limit int) ([]*entities.Transaction, error) {
	if limit <= 0 {
		limit = 10
	}
	txs, err := s.transactionRepo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, nil
}

// Reconcile returns every user whose balance differs from the sum of their ledger rows
func (s *ledgerService) Reconcile(ctx context.Context) ([]entities.LedgerDiscrepancy, error) {
	discrepancies, err := s.transactionRepo.FindDiscrepancies(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to reconcile ledger: %w", err)
	}
	for _, d := range discrepancies {
		log.WithFields(log.Fields{
			"userID":     d.UserID,
			"balance":    d.Balance,
			"ledgerSum":  d.LedgerSum,
			"difference": d.Difference(),
		}).Error("Ledger discrepancy detected")
	}
	return discrepancies, nil
}

// isInsufficientBalance reports whether err is a refused debit
func isInsufficientBalance(err error) bool {
	return errors.Is(err, entities.ErrInsufficientBalance)
}
