package repository

import (
	"context"
	"errors"
	"fmt"

	"luckydraw/application"
	"luckydraw/database"
	"luckydraw/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db                     *database.DB
	tx                     pgx.Tx
	ctx                    context.Context
	transactionalPublisher interfaces.TransactionalEventPublisher
	userRepo               interfaces.UserRepository
	transactionRepo        interfaces.TransactionRepository
	paymentRequestRepo     interfaces.PaymentRequestRepository
	withdrawalRequestRepo  interfaces.WithdrawalRequestRepository
	advertisementRepo      interfaces.AdvertisementRepository
	ticketRepo             interfaces.TicketRepository
	drawRepo               interfaces.DrawRepository
	winnerRepo             interfaces.WinnerRepository
	settingRepo            interfaces.SettingRepository
}

type unitOfWorkFactory struct {
	db *database.DB
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB) *unitOfWorkFactory {
	return &unitOfWorkFactory{db: db}
}

// CreateWithPublisher creates a new UnitOfWork whose events go through the given transactional publisher
func (f *unitOfWorkFactory) CreateWithPublisher(transactionalPublisher interfaces.TransactionalEventPublisher) application.UnitOfWork {
	return &unitOfWork{
		db:                     f.db,
		transactionalPublisher: transactionalPublisher,
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	u.userRepo = NewUserRepositoryScoped(tx)
	u.transactionRepo = NewTransactionRepositoryScoped(tx)
	u.paymentRequestRepo = NewPaymentRequestRepositoryScoped(tx)
	u.withdrawalRequestRepo = NewWithdrawalRequestRepositoryScoped(tx)
	u.advertisementRepo = NewAdvertisementRepositoryScoped(tx)
	u.ticketRepo = NewTicketRepositoryScoped(tx)
	u.drawRepo = NewDrawRepositoryScoped(tx)
	u.winnerRepo = NewWinnerRepositoryScoped(tx)
	u.settingRepo = NewSettingRepositoryScoped(tx)

	return nil
}

// Commit commits the transaction and flushes pending events
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	if err := u.tx.Commit(u.ctx); err != nil {
		u.tx = nil
		if u.transactionalPublisher != nil {
			u.transactionalPublisher.Discard()
		}
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	u.tx = nil

	// Events are best-effort once the data is committed
	if u.transactionalPublisher != nil {
		_ = u.transactionalPublisher.Flush(u.ctx)
	}
	return nil
}

// Rollback rolls back the transaction and discards pending events.
// It is safe to call after Commit.
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil
	}

	if u.transactionalPublisher != nil {
		u.transactionalPublisher.Discard()
	}

	err := u.tx.Rollback(u.ctx)
	u.tx = nil
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	return nil
}

func (u *unitOfWork) mustBegin() {
	if u.userRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
}

// UserRepository returns the user repository for this unit of work
func (u *unitOfWork) UserRepository() interfaces.UserRepository {
	u.mustBegin()
	return u.userRepo
}

// TransactionRepository returns the ledger repository for this unit of work
func (u *unitOfWork) TransactionRepository() interfaces.TransactionRepository {
	u.mustBegin()
	return u.transactionRepo
}

// PaymentRequestRepository returns the deposit request repository for this unit of work
func (u *unitOfWork) PaymentRequestRepository() interfaces.PaymentRequestRepository {
	u.mustBegin()
	return u.paymentRequestRepo
}

// WithdrawalRequestRepository returns the withdrawal request repository for this unit of work
func (u *unitOfWork) WithdrawalRequestRepository() interfaces.WithdrawalRequestRepository {
	u.mustBegin()
	return u.withdrawalRequestRepo
}

// AdvertisementRepository returns the advertisement repository for this unit of work
func (u *unitOfWork) AdvertisementRepository() interfaces.AdvertisementRepository {
	u.mustBegin()
	return u.advertisementRepo
}

// TicketRepository returns the ticket repository for this unit of work
func (u *unitOfWork) TicketRepository() interfaces.TicketRepository {
	u.mustBegin()
	return u.ticketRepo
}

// DrawRepository returns the draw repository for this unit of work
func (u *unitOfWork) DrawRepository() interfaces.DrawRepository {
	u.mustBegin()
	return u.drawRepo
}

// WinnerRepository returns the winner repository for this unit of work
func (u *unitOfWork) WinnerRepository() interfaces.WinnerRepository {
	u.mustBegin()
	return u.winnerRepo
}

// SettingRepository returns the settings repository for this unit of work
func (u *unitOfWork) SettingRepository() interfaces.SettingRepository {
	u.mustBegin()
	return u.settingRepo
}

// EventBus returns the transactional event publisher for this unit of work
func (u *unitOfWork) EventBus() interfaces.EventPublisher {
	if u.transactionalPublisher == nil {
		panic("unit of work has no event publisher")
	}
	return u.transactionalPublisher
}
