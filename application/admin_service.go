package application

import (
	"context"
	"fmt"
	"sort"
	"time"

	"luckydraw/application/dto"
	"luckydraw/domain/entities"
	"luckydraw/domain/utils"

	log "github.com/sirupsen/logrus"
)

// AdminService exposes the admin operations shared by the chat commands and the HTTP API.
// Every operation checks authorization first and notifies only after its unit of work commits.
type AdminService struct {
	uowFactory UnitOfWorkFactory
	notifier   Notifier
	opts       Options
	now        func() time.Time
}

// NewAdminService creates a new admin service
func NewAdminService(uowFactory UnitOfWorkFactory, notifier Notifier, opts Options) *AdminService {
	return &AdminService{
		uowFactory: uowFactory,
		notifier:   notifier,
		opts:       opts,
		now:        time.Now,
	}
}

// IsAdmin reports whether userID is a configured or stored admin
func (s *AdminService) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	var isAdmin bool
	err := withUnitOfWork(ctx, s.uowFactory, s.opts, func(_ UnitOfWork, svc *domainServices) error {
		var err error
		isAdmin, err = svc.settings.IsAdmin(ctx, userID)
		return err
	})
	return isAdmin, err
}

// AdminIDs returns every admin, configured and stored
func (s *AdminService) AdminIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := withUnitOfWork(ctx, s.uowFactory, s.opts, func(_ UnitOfWork, svc *domainServices) error {
		var err error
		ids, err = svc.settings.AdminIDs(ctx)
		return err
	})
	return ids, err
}

func (s *AdminService) authorize(ctx context.Context, svc *domainServices, adminID int64) error {
	ok, err := svc.settings.IsAdmin(ctx, adminID)
	if err != nil {
		return fmt.Errorf("failed to check admin: %w", err)
	}
	if !ok {
		log.WithField("userID", adminID).Warn("Unauthorized admin action refused")
		return entities.ErrNotAuthorized
	}
	return nil
}

// ApproveRequest approves a pending deposit or withdrawal
func (s *AdminService) ApproveRequest(ctx context.Context, ref entities.RequestRef, adminID int64) (*dto.DecisionResult, error) {
	return s.decide(ctx, ref, entities.RequestStatusApproved, adminID, "")
}

// RejectRequest rejects a pending request; a rejected withdrawal is refunded
func (s *AdminService) RejectRequest(ctx context.Context, ref entities.RequestRef, adminID int64, note string) (*dto.DecisionResult, error) {
	return s.decide(ctx, ref, entities.RequestStatusRejected, adminID, note)
}

// HoldRequest puts a pending request on hold
func (s *AdminService) HoldRequest(ctx context.Context, ref entities.RequestRef, adminID int64, note string) (*dto.DecisionResult, error) {
	return s.decide(ctx, ref, entities.RequestStatusOnHold, adminID, note)
}

func (s *AdminService) decide(ctx context.Context, ref entities.RequestRef, status entities.RequestStatus, adminID int64, note string) (*dto.DecisionResult, error) {
	var (
		result *dto.DecisionResult
		ad     *entities.Advertisement
	)

	err := withUnitOfWork(ctx, s.uowFactory, s.opts, func(uow UnitOfWork, svc *domainServices) error {
		if err := s.authorize(ctx, svc, adminID); err != nil {
			return err
		}

		var (
			summary *entities.RequestSummary
			err     error
		)
		switch {
		case ref.Kind == entities.RequestKindAdvertisement:
			if ad, err = svc.ads.Decide(ctx, ref.ID, status, adminID, note); err == nil {
				summary = entities.SummaryOfAdvertisement(ad)
			}
		case status == entities.RequestStatusApproved:
			summary, err = svc.payments.Approve(ctx, ref, adminID)
		case status == entities.RequestStatusRejected:
			summary, err = svc.payments.Reject(ctx, ref, adminID, note)
		default:
			summary, err = svc.payments.Hold(ctx, ref, adminID, note)
		}
		if err != nil {
			return err
		}

		user, err := svc.ledger.GetUser(ctx, summary.UserID)
		if err != nil {
			return err
		}

		result = &dto.DecisionResult{
			Ref:           ref,
			Status:        status,
			UserID:        user.ID,
			UserName:      user.Name(),
			Amount:        summary.Amount,
			Method:        summary.Method,
			AdminID:       adminID,
			AdminNote:     note,
			TransactionID: summary.TransactionID,
			NewBalance:    user.Balance,
		}
		if ref.Kind == entities.RequestKindAdvertisement {
			result.Detail = summary.Detail
		}
		if ref.Kind == entities.RequestKindWithdrawal {
			req, err := uow.WithdrawalRequestRepository().GetByID(ctx, ref.ID)
			if err != nil {
				return fmt.Errorf("failed to load withdrawal request: %w", err)
			}
			if req != nil {
				result.Detail = utils.MaskPhone(req.AccountPhone)
				if req.AccountName != "" {
					result.Detail = req.AccountName + " " + result.Detail
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyDecision(ctx, result, ad)
	return result, nil
}

// notifyDecision tells the user and the payment log about a committed decision, and
// publishes an approved ad. Delivery failures are logged; the decision stands.
func (s *AdminService) notifyDecision(ctx context.Context, result *dto.DecisionResult, ad *entities.Advertisement) {
	if s.notifier == nil {
		return
	}

	if ad != nil {
		if result.Status == entities.RequestStatusApproved {
			if err := s.notifier.Announce(ctx, adAnnouncementText(ad), nil); err != nil {
				log.WithError(err).WithField("ref", result.Ref.String()).Warn("Failed to publish advertisement")
			}
		}
		if err := s.notifier.NotifyUser(ctx, result.UserID, adDecisionUserMessage(result)); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"ref":    result.Ref.String(),
				"userID": result.UserID,
			}).Warn("Failed to notify user about decision")
		}
		return
	}

	if err := s.notifier.NotifyUser(ctx, result.UserID, decisionUserMessage(result)); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"ref":    result.Ref.String(),
			"userID": result.UserID,
		}).Warn("Failed to notify user about decision")
	}

	if result.Status == entities.RequestStatusApproved {
		if err := s.notifier.PaymentLog(ctx, decisionLogMessage(result)); err != nil {
			log.WithError(err).WithField("ref", result.Ref.String()).Warn("Failed to post payment log")
		}
	}
}

// GetRequest returns a request by reference
func (s *AdminService) GetRequest(ctx context.Context, ref entities.RequestRef, adminID int64) (*entities.RequestSummary, error) {
	var summary *entities.RequestSummary
	err := withUnitOfWork(ctx, s.uowFactory, s.opts, func(_ UnitOfWork, svc *domainServices) error {
		if err := s.authorize(ctx, svc, adminID); err != nil {
			return err
		}
		if ref.Kind == entities.RequestKindAdvertisement {
			ad, err := svc.ads.Get(ctx, ref.ID)
			if err != nil {
				return err
			}
			summary = entities.SummaryOfAdvertisement(ad)
			return nil
		}
		var err error
		summary, err = svc.payments.Get(ctx, ref)
		return err
	})
	return summary, err
}

// ListPending returns pending deposits, withdrawals and advertisements, oldest first
func (s *AdminService) ListPending(ctx context.Context, adminID int64, limit int) ([]*entities.RequestSummary, error) {
	var pending []*entities.RequestSummary
	err := withUnitOfWork(ctx, s.uowFactory, s.opts, func(_ UnitOfWork, svc *domainServices) error {
		if err := s.authorize(ctx, svc, adminID); err != nil {
			return err
		}
		payments, err := svc.payments.ListPending(ctx, limit)
		if err != nil {
			return err
		}
		ads, err := svc.ads.ListPending(ctx, limit)
		if err != nil {
			return err
		}
		pending = payments
		for _, ad := range ads {
			pending = append(pending, entities.SummaryOfAdvertisement(ad))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

// Stats returns the admin overview: user totals, pending requests and the running draw
func (s *AdminService) Stats(ctx context.Context, adminID int64) (*dto.AdminStats, error) {
	var stats *dto.AdminStats
	err := withUnitOfWork(ctx, s.uowFactory, s.opts, func(uow UnitOfWork, svc *domainServices) error {
		if err := s.authorize(ctx, svc, adminID); err != nil {
			return err
		}

		total, registered, err := uow.UserRepository().Count(ctx)
		if err != nil {
			return fmt.Errorf("failed to count users: %w", err)
		}
		balance, err := uow.UserRepository().TotalBalance(ctx)
		if err != nil {
			return fmt.Errorf("failed to sum balances: %w", err)
		}
		pendingDeposits, err := uow.PaymentRequestRepository().CountPending(ctx)
		if err != nil {
			return fmt.Errorf("failed to count pending deposits: %w", err)
		}
		pendingWithdrawals, err := uow.WithdrawalRequestRepository().CountPending(ctx)
		if err != nil {
			return fmt.Errorf("failed to count pending withdrawals: %w", err)
		}
		pendingAds, err := uow.AdvertisementRepository().CountPending(ctx)
		if err != nil {
			return fmt.Errorf("failed to count pending advertisements: %w", err)
		}
		prizes, err := uow.TransactionRepository().SumByType(ctx, entities.TransactionTypePrize)
		if err != nil {
			return fmt.Errorf("failed to sum prizes: %w", err)
		}
		deposits, err := uow.TransactionRepository().SumByType(ctx, entities.TransactionTypeDeposit)
		if err != nil {
			return fmt.Errorf("failed to sum deposits: %w", err)
		}

		drawDate, err := svc.tickets.DrawDateFor(ctx, s.now())
		if err != nil {
			return err
		}
		preview, err := svc.draws.Preview(ctx, drawDate)
		if err != nil {
			return err
		}
		lastRun, err := uow.DrawRepository().GetLatest(ctx)
		if err != nil {
			return fmt.Errorf("failed to get latest draw: %w", err)
		}

		stats = &dto.AdminStats{
			Users: entities.UserStats{
				TotalUsers:        total,
				RegisteredUsers:   registered,
				TotalBalance:      balance,
				PendingDeposits:   pendingDeposits,
				PendingWithdraws:  pendingWithdrawals,
				PendingAds:        pendingAds,
				TicketsToday:      preview.TicketCount,
				SalesToday:        preview.Split.TotalSales,
				TotalPrizesPaid:   prizes,
				TotalDepositsDone: deposits,
			},
			Preview: preview,
			LastRun: lastRun,
		}
		return nil
	})
	return stats, err
}

// Settings returns every effective setting value
func (s *AdminService) Settings(ctx context.Context, adminID int64) (map[string]string, error) {
	var all map[string]string
	err := withUnitOfWork(ctx, s.uowFactory, s.opts, func(_ UnitOfWork, svc *domainServices) error {
		if err := s.authorize(ctx, svc, adminID); err != nil {
			return err
		}
		var err error
		all, err = svc.settings.All(ctx)
		return err
	})
	return all, err
}

// SetSetting validates and stores one setting
func (s *AdminService) SetSetting(ctx context.Context, adminID int64, key, value string) error {
	return withUnitOfWork(ctx, s.uowFactory, s.opts, func(_ UnitOfWork, svc *domainServices) error {
		if err := s.authorize(ctx, svc, adminID); err != nil {
			return err
		}
		if err := svc.settings.Set(ctx, key, value, adminID); err != nil {
			return err
		}
		log.WithFields(log.Fields{
			"key":     key,
			"value":   value,
			"adminID": adminID,
		}).Info("Setting updated")
		return nil
	})
}

// Reconcile lists ledger discrepancies on behalf of an admin
func (s *AdminService) Reconcile(ctx context.Context, adminID int64) ([]entities.LedgerDiscrepancy, error) {
	var discrepancies []entities.LedgerDiscrepancy
	err := withUnitOfWork(ctx, s.uowFactory, s.opts, func(_ UnitOfWork, svc *domainServices) error {
		if err := s.authorize(ctx, svc, adminID); err != nil {
			return err
		}
		var err error
		discrepancies, err = svc.ledger.Reconcile(ctx)
		return err
	})
	return discrepancies, err
}

// ReconcileLedger lists ledger discrepancies without an admin check, for operator tooling
func ReconcileLedger(ctx context.Context, uowFactory UnitOfWorkFactory) ([]entities.LedgerDiscrepancy, error) {
	var discrepancies []entities.LedgerDiscrepancy
	err := withUnitOfWork(ctx, uowFactory, Options{}, func(_ UnitOfWork, svc *domainServices) error {
		var err error
		discrepancies, err = svc.ledger.Reconcile(ctx)
		return err
	})
	return discrepancies, err
}
