package application

import (
	"context"

	"luckydraw/domain/interfaces"
)

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes buffered events
	Commit() error

	// Rollback rolls back the transaction and discards buffered events
	Rollback() error

	// Repository getters
	UserRepository() interfaces.UserRepository
	TransactionRepository() interfaces.TransactionRepository
	PaymentRequestRepository() interfaces.PaymentRequestRepository
	WithdrawalRequestRepository() interfaces.WithdrawalRequestRepository
	AdvertisementRepository() interfaces.AdvertisementRepository
	TicketRepository() interfaces.TicketRepository
	DrawRepository() interfaces.DrawRepository
	WinnerRepository() interfaces.WinnerRepository
	SettingRepository() interfaces.SettingRepository
	EventBus() interfaces.EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}
