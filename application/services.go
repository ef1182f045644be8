package application

import (
	"context"
	"fmt"

	"luckydraw/domain/interfaces"
	"luckydraw/domain/services"

	log "github.com/sirupsen/logrus"
)

// domainServices are the domain services bound to one unit of work
type domainServices struct {
	ledger   interfaces.LedgerService
	users    interfaces.UserService
	payments interfaces.PaymentService
	ads      interfaces.AdvertisingService
	tickets  interfaces.TicketService
	draws    interfaces.DrawService
	settings interfaces.SettingsService
}

func newDomainServices(uow UnitOfWork, opts Options) *domainServices {
	settings := services.NewSettingsService(uow.SettingRepository(), opts.AdminIDs, opts.Defaults)
	ledger := services.NewLedgerService(uow.UserRepository(), uow.TransactionRepository(), uow.EventBus())
	return &domainServices{
		ledger:   ledger,
		users:    services.NewUserService(uow.UserRepository()),
		payments: services.NewPaymentService(uow.PaymentRequestRepository(), uow.WithdrawalRequestRepository(), ledger, settings, uow.EventBus()),
		ads:      services.NewAdvertisingService(uow.AdvertisementRepository(), ledger, uow.EventBus()),
		tickets:  services.NewTicketService(uow.TicketRepository(), uow.DrawRepository(), uow.UserRepository(), ledger, settings, uow.EventBus(), opts.location()),
		draws:    services.NewDrawService(uow.DrawRepository(), uow.WinnerRepository(), uow.TicketRepository(), uow.UserRepository(), ledger, settings, uow.EventBus()),
		settings: settings,
	}
}

// withUnitOfWork runs fn in a fresh unit of work and commits when it returns nil.
// Anything fn leaves in the event buffer is published only after the commit.
func withUnitOfWork(ctx context.Context, factory UnitOfWorkFactory, opts Options, fn func(uow UnitOfWork, svc *domainServices) error) error {
	uow := factory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := uow.Rollback(); err != nil {
			log.WithError(err).Warn("Failed to roll back unit of work")
		}
	}()

	if err := fn(uow, newDomainServices(uow, opts)); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// SeedSettings stores the configured defaults for every setting that has no row yet
func SeedSettings(ctx context.Context, factory UnitOfWorkFactory, opts Options) error {
	return withUnitOfWork(ctx, factory, opts, func(_ UnitOfWork, svc *domainServices) error {
		return svc.settings.SeedDefaults(ctx, opts.Defaults)
	})
}
