package infrastructure

import (
	"luckydraw/application"
	"luckydraw/database"
	"luckydraw/domain/interfaces"
	"luckydraw/repository"
)

// UnitOfWorkFactory creates units of work that publish their events only after commit
type UnitOfWorkFactory struct {
	repoFactory interface {
		CreateWithPublisher(transactionalPublisher interfaces.TransactionalEventPublisher) application.UnitOfWork
	}
	eventPublisher interfaces.EventPublisher
}

// NewUnitOfWorkFactory creates a new UnitOfWorkFactory
func NewUnitOfWorkFactory(db *database.DB, eventPublisher interfaces.EventPublisher) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{
		repoFactory:    repository.NewUnitOfWorkFactory(db),
		eventPublisher: eventPublisher,
	}
}

// Create creates a new UnitOfWork with its own transactional publisher
func (f *UnitOfWorkFactory) Create() application.UnitOfWork {
	return f.repoFactory.CreateWithPublisher(NewTransactionalPublisher(f.eventPublisher))
}
