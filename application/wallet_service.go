package application

import (
	"context"
	"time"

	"luckydraw/application/dto"
	"luckydraw/domain/entities"
	"luckydraw/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// WalletService is the user side of the ledger: registration, balance, deposit and
// withdrawal requests, and ticket purchases
type WalletService struct {
	uowFactory UnitOfWorkFactory
	notifier   Notifier
	opts       Options
	now        func() time.Time
}

// NewWalletService creates a new wallet service
func NewWalletService(uowFactory UnitOfWorkFactory, notifier Notifier, opts Options) *WalletService {
	return &WalletService{
		uowFactory: uowFactory,
		notifier:   notifier,
		opts:       opts,
		now:        time.Now,
	}
}

// EnsureUser creates the user on first contact
func (s *WalletService) EnsureUser(ctx context.Context, userID int64, username, displayName string) (*entities.User, error) {
	var user *entities.User
	err := withUnitOfWork(ctx, s.uowFactory, s.opts, func(_ UnitOfWork, svc *domainServices) error {
		var err error
		user, err = svc.ledger.EnsureUser(ctx, userID, username, displayName)
		return err
	})
	return user, err
}

// Register stores the user's phone number and display name
func (s *WalletService) Register(ctx context.Context, userID int64, phone, displayName string) (*entities.User, error) {
	var user *entities.User
	err := withUnitOfWork(ctx, s.uowFactory, s.opts, func(_ UnitOfWork, svc *domainServices) error {
		var err error
		user, err = svc.users.Register(ctx, userID, phone, displayName)
		return err
	})
	return user, err
}

// Account returns the user, or ErrUserNotFound
func (s *WalletService) Account(ctx context.Context, userID int64) (*entities.User, error) {
	var user *entities.User
	err := withUnitOfWork(ctx, s.uowFactory, s.opts, func(_ UnitOfWork, svc *domainServices) error {
		var err error
		user, err = svc.ledger.GetUser(ctx, userID)
		return err
	})
	return user, err
}

// Balance returns the user's balance; unknown users have 0
func (s *WalletService) Balance(ctx context.Context, userID int64) (int64, error) {
	var balance int64
	err := withUnitOfWork(ctx, s.uowFactory, s.opts, func(_ UnitOfWork, svc *domainServices) error {
		var err error
		balance, err = svc.ledger.GetBalance(ctx, userID)
		return err
	})
	return balance, err
}

// MinimumAmounts returns the current minimum deposit and withdrawal
func (s *WalletService) MinimumAmounts(ctx context.Context) (deposit, withdrawal int64, err error) {
	err = withUnitOfWork(ctx, s.uowFactory, s.opts, func(_ UnitOfWork, svc *domainServices) error {
		var err error
		if deposit, err = svc.settings.MinDeposit(ctx); err != nil {
			return err
		}
		withdrawal, err = svc.settings.MinWithdrawal(ctx)
		return err
	})
	return deposit, withdrawal, err
}

// SubmitDeposit records a pending deposit and asks the admins to review it
func (s *WalletService) SubmitDeposit(ctx context.Context, userID, amount int64, method entities.PaymentMethod, proofRef string) (*entities.PaymentRequest, error) {
	var (
		req  *entities.PaymentRequest
		user *entities.User
	)
	err := withUnitOfWork(ctx, s.uowFactory, s.opts, func(_ UnitOfWork, svc *domainServices) error {
		var err error
		if req, err = svc.payments.CreateDeposit(ctx, userID, amount, method, proofRef); err != nil {
			return err
		}
		user, err = svc.ledger.GetUser(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notifyAdmins(ctx, depositAdminPrompt(user, req), req.Ref())
	return req, nil
}

// SubmitWithdrawal holds the amount and asks the admins to pay it out.
// The returned balance is the balance after the hold.
func (s *WalletService) SubmitWithdrawal(ctx context.Context, userID, amount int64, method entities.PaymentMethod, accountName, accountPhone string) (*entities.WithdrawalRequest, int64, error) {
	var (
		req  *entities.WithdrawalRequest
		user *entities.User
	)
	err := withUnitOfWork(ctx, s.uowFactory, s.opts, func(_ UnitOfWork, svc *domainServices) error {
		var err error
		if req, err = svc.payments.CreateWithdrawal(ctx, userID, amount, method, accountName, accountPhone); err != nil {
			return err
		}
		user, err = svc.ledger.GetUser(ctx, userID)
		return err
	})
	if err != nil {
		return nil, 0, err
	}

	s.notifyAdmins(ctx, withdrawalAdminPrompt(user, req), req.Ref())
	return req, user.Balance, nil
}

// SubmitAd stores a pending advertisement and asks the admins to review it
func (s *WalletService) SubmitAd(ctx context.Context, userID int64, draft entities.AdDraft) (*entities.Advertisement, error) {
	var (
		ad   *entities.Advertisement
		user *entities.User
	)
	err := withUnitOfWork(ctx, s.uowFactory, s.opts, func(_ UnitOfWork, svc *domainServices) error {
		var err error
		if ad, err = svc.ads.Submit(ctx, userID, draft); err != nil {
			return err
		}
		user, err = svc.ledger.GetUser(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notifyAdmins(ctx, adAdminPrompt(user, ad), ad.Ref())
	return ad, nil
}

func (s *WalletService) notifyAdmins(ctx context.Context, text string, ref entities.RequestRef) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyAdmins(ctx, text, decisionActions(ref)...); err != nil {
		log.WithError(err).WithField("ref", ref.String()).Warn("Failed to notify admins about request")
	}
}

// QuoteTickets prices a purchase for the confirmation prompt
func (s *WalletService) QuoteTickets(ctx context.Context, userID int64, count int) (*entities.TicketQuote, error) {
	var quote *entities.TicketQuote
	err := withUnitOfWork(ctx, s.uowFactory, s.opts, func(_ UnitOfWork, svc *domainServices) error {
		var err error
		quote, err = svc.tickets.Quote(ctx, userID, count)
		return err
	})
	return quote, err
}

// ConfirmTickets buys the tickets. The debit is re-checked atomically, so a balance
// change since the quote results in a clean refusal.
func (s *WalletService) ConfirmTickets(ctx context.Context, userID int64, count int) (*interfaces.TicketPurchaseResult, error) {
	var result *interfaces.TicketPurchaseResult
	err := withUnitOfWork(ctx, s.uowFactory, s.opts, func(_ UnitOfWork, svc *domainServices) error {
		var err error
		result, err = svc.tickets.BuyTickets(ctx, userID, count)
		return err
	})
	return result, err
}

// History returns the user's newest ledger rows
func (s *WalletService) History(ctx context.Context, userID int64, limit int) ([]*entities.Transaction, error) {
	var txs []*entities.Transaction
	err := withUnitOfWork(ctx, s.uowFactory, s.opts, func(_ UnitOfWork, svc *domainServices) error {
		var err error
		txs, err = svc.ledger.History(ctx, userID, limit)
		return err
	})
	return txs, err
}

// MyTickets returns the user's tickets for the draw a purchase made now would enter
func (s *WalletService) MyTickets(ctx context.Context, userID int64) (*dto.TicketList, error) {
	var list *dto.TicketList
	err := withUnitOfWork(ctx, s.uowFactory, s.opts, func(_ UnitOfWork, svc *domainServices) error {
		drawDate, err := svc.tickets.DrawDateFor(ctx, s.now())
		if err != nil {
			return err
		}
		tickets, err := svc.tickets.UserTickets(ctx, userID, drawDate)
		if err != nil {
			return err
		}
		list = &dto.TicketList{DrawDate: drawDate, Tickets: tickets}
		return nil
	})
	return list, err
}

// DrawPreview returns the running totals of the upcoming draw
func (s *WalletService) DrawPreview(ctx context.Context) (*entities.DrawPreview, error) {
	var preview *entities.DrawPreview
	err := withUnitOfWork(ctx, s.uowFactory, s.opts, func(_ UnitOfWork, svc *domainServices) error {
		drawDate, err := svc.tickets.DrawDateFor(ctx, s.now())
		if err != nil {
			return err
		}
		preview, err = svc.draws.Preview(ctx, drawDate)
		return err
	})
	return preview, err
}
