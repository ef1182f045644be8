package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"luckydraw/domain/entities"
	"luckydraw/domain/events"
	"luckydraw/domain/interfaces"
	"luckydraw/domain/utils"

	log "github.com/sirupsen/logrus"
)

// paymentService runs the deposit and withdrawal request workflow.
// Each call is expected to run inside a single unit of work.
type paymentService struct {
	paymentRepo    interfaces.PaymentRequestRepository
	withdrawalRepo interfaces.WithdrawalRequestRepository
	ledger         interfaces.LedgerService
	settings       interfaces.SettingsService
	eventPublisher interfaces.EventPublisher
	now            interfaces.Clock
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	paymentRepo interfaces.PaymentRequestRepository,
	withdrawalRepo interfaces.WithdrawalRequestRepository,
	ledger interfaces.LedgerService,
	settings interfaces.SettingsService,
	eventPublisher interfaces.EventPublisher,
) interfaces.PaymentService {
	return &paymentService{
		paymentRepo:    paymentRepo,
		withdrawalRepo: withdrawalRepo,
		ledger:         ledger,
		settings:       settings,
		eventPublisher: eventPublisher,
		now:            time.Now,
	}
}

// requireRegistered loads the user and checks they may move money
func (s *paymentService) requireRegistered(ctx context.Context, userID int64) (*entities.User, error) {
	user, err := s.ledger.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsRegistered() {
		return nil, entities.ErrUserNotRegistered
	}
	if !user.IsActive() {
		return nil, entities.ErrNotAuthorized
	}
	return user, nil
}

// CreateDeposit records a pending deposit claim. The balance is only credited on approval.
func (s *paymentService) CreateDeposit(ctx context.Context, userID, amount int64, method entities.PaymentMethod, proofRef string) (*entities.PaymentRequest, error) {
	if _, err := s.requireRegistered(ctx, userID); err != nil {
		return nil, err
	}
	if _, err := entities.ParsePaymentMethod(string(method)); err != nil {
		return nil, err
	}
	if strings.TrimSpace(proofRef) == "" {
		return nil, fmt.Errorf("payment screenshot is required")
	}

	minDeposit, err := s.settings.MinDeposit(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get minimum deposit: %w", err)
	}
	if amount < minDeposit {
		return nil, &entities.MinimumAmountError{Minimum: minDeposit}
	}

	req := &entities.PaymentRequest{
		UserID:        userID,
		Amount:        amount,
		Method:        method,
		ProofRef:      proofRef,
		Status:        entities.RequestStatusPending,
		TransactionID: utils.GenerateTransactionID(entities.TransactionTypeDeposit.Prefix(), s.now()),
	}
	if err := s.paymentRepo.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to create deposit request: %w", err)
	}

	log.WithFields(log.Fields{
		"ref":    req.Ref().String(),
		"userID": userID,
		"amount": amount,
		"method": method,
	}).Info("Deposit request created")

	s.publish(events.RequestCreatedEvent{
		Ref:    req.Ref().String(),
		Kind:   entities.RequestKindDeposit,
		UserID: userID,
		Amount: amount,
	})
	return req, nil
}

// CreateWithdrawal debits the amount immediately as a pending ledger row and creates the request.
// Insufficient funds fail before any request is created.
func (s *paymentService) CreateWithdrawal(ctx context.Context, userID, amount int64, method entities.PaymentMethod, accountName, accountPhone string) (*entities.WithdrawalRequest, error) {
	if _, err := s.requireRegistered(ctx, userID); err != nil {
		return nil, err
	}
	if _, err := entities.ParsePaymentMethod(string(method)); err != nil {
		return nil, err
	}
	phone, err := utils.NormalizePayoutPhone(accountPhone)
	if err != nil {
		return nil, err
	}
	accountName = strings.TrimSpace(accountName)
	if accountName == "" {
		return nil, fmt.Errorf("account name is required")
	}

	minWithdrawal, err := s.settings.MinWithdrawal(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get minimum withdrawal: %w", err)
	}
	if amount < minWithdrawal {
		return nil, &entities.MinimumAmountError{Minimum: minWithdrawal}
	}

	tx, err := s.ledger.Post(ctx, interfaces.LedgerEntry{
		UserID:      userID,
		Type:        entities.TransactionTypeWithdrawal,
		Amount:      -amount,
		Status:      entities.TransactionStatusPending,
		Description: fmt.Sprintf("Withdrawal to %s %s", method.DisplayName(), utils.MaskPhone(phone)),
		Metadata: map[string]any{
			"method":        string(method),
			"account_name":  accountName,
			"account_phone": phone,
		},
	})
	if err != nil {
		if isInsufficientBalance(err) {
			log.WithFields(log.Fields{
				"userID": userID,
				"amount": amount,
			}).Info("Withdrawal refused for insufficient balance")
		}
		return nil, err
	}

	req := &entities.WithdrawalRequest{
		UserID:        userID,
		Amount:        amount,
		Method:        method,
		AccountName:   accountName,
		AccountPhone:  phone,
		Status:        entities.RequestStatusPending,
		TransactionID: tx.TransactionID,
	}
	if err := s.withdrawalRepo.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to create withdrawal request: %w", err)
	}

	log.WithFields(log.Fields{
		"ref":           req.Ref().String(),
		"userID":        userID,
		"amount":        amount,
		"transactionID": tx.TransactionID,
		"balanceAfter":  tx.BalanceAfter,
	}).Info("Withdrawal request created")

	s.publish(events.RequestCreatedEvent{
		Ref:    req.Ref().String(),
		Kind:   entities.RequestKindWithdrawal,
		UserID: userID,
		Amount: amount,
	})
	return req, nil
}

// Approve credits a deposit or settles a withdrawal
func (s *paymentService) Approve(ctx context.Context, ref entities.RequestRef, adminID int64) (*entities.RequestSummary, error) {
	return s.decide(ctx, ref, entities.RequestStatusApproved, adminID, "")
}

// Reject refuses a request; a rejected withdrawal is refunded
func (s *paymentService) Reject(ctx context.Context, ref entities.RequestRef, adminID int64, note string) (*entities.RequestSummary, error) {
	return s.decide(ctx, ref, entities.RequestStatusRejected, adminID, note)
}

// Hold parks a request for manual follow-up. It has no balance effect and is final.
func (s *paymentService) Hold(ctx context.Context, ref entities.RequestRef, adminID int64, note string) (*entities.RequestSummary, error) {
	return s.decide(ctx, ref, entities.RequestStatusOnHold, adminID, note)
}

func (s *paymentService) decide(ctx context.Context, ref entities.RequestRef, status entities.RequestStatus, adminID int64, note string) (*entities.RequestSummary, error) {
	var (
		summary *entities.RequestSummary
		err     error
	)
	switch ref.Kind {
	case entities.RequestKindDeposit:
		summary, err = s.decideDeposit(ctx, ref.ID, status, adminID, note)
	case entities.RequestKindWithdrawal:
		summary, err = s.decideWithdrawal(ctx, ref.ID, status, adminID, note)
	default:
		return nil, entities.ErrRequestNotFound
	}
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"ref":     ref.String(),
		"status":  status,
		"adminID": adminID,
		"userID":  summary.UserID,
		"amount":  summary.Amount,
	}).Info("Request decided")

	s.publish(events.RequestDecidedEvent{
		Ref:     ref.String(),
		Kind:    ref.Kind,
		UserID:  summary.UserID,
		AdminID: adminID,
		Amount:  summary.Amount,
		Status:  status,
	})
	return summary, nil
}

func (s *paymentService) decideDeposit(ctx context.Context, id int64, status entities.RequestStatus, adminID int64, note string) (*entities.RequestSummary, error) {
	req, err := s.paymentRepo.GetByIDForUpdate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load deposit request: %w", err)
	}
	if req == nil {
		return nil, entities.ErrRequestNotFound
	}
	if !req.IsPending() {
		return nil, entities.ErrRequestNotPending
	}

	ok, err := s.paymentRepo.Decide(ctx, id, status, adminID, note)
	if err != nil {
		return nil, fmt.Errorf("failed to update deposit request: %w", err)
	}
	if !ok {
		return nil, entities.ErrRequestNotPending
	}

	if status == entities.RequestStatusApproved {
		_, err := s.ledger.Post(ctx, interfaces.LedgerEntry{
			UserID:        req.UserID,
			Type:          entities.TransactionTypeDeposit,
			Amount:        req.Amount,
			Status:        entities.TransactionStatusCompleted,
			Description:   fmt.Sprintf("Deposit via %s", req.Method.DisplayName()),
			TransactionID: req.TransactionID,
			Metadata: map[string]any{
				"request_ref": req.Ref().String(),
				"admin_id":    adminID,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to credit deposit: %w", err)
		}
	}

	req.Status = status
	req.AdminID = &adminID
	req.AdminNote = note
	return entities.SummaryOfDeposit(req), nil
}

func (s *paymentService) decideWithdrawal(ctx context.Context, id int64, status entities.RequestStatus, adminID int64, note string) (*entities.RequestSummary, error) {
	req, err := s.withdrawalRepo.GetByIDForUpdate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load withdrawal request: %w", err)
	}
	if req == nil {
		return nil, entities.ErrRequestNotFound
	}
	if !req.IsPending() {
		return nil, entities.ErrRequestNotPending
	}

	ok, err := s.withdrawalRepo.Decide(ctx, id, status, adminID, note)
	if err != nil {
		return nil, fmt.Errorf("failed to update withdrawal request: %w", err)
	}
	if !ok {
		return nil, entities.ErrRequestNotPending
	}

	switch status {
	case entities.RequestStatusApproved:
		if err := s.ledger.CompleteTransaction(ctx, req.TransactionID); err != nil {
			return nil, err
		}
	case entities.RequestStatusRejected:
		if err := s.ledger.CompleteTransaction(ctx, req.TransactionID); err != nil {
			return nil, err
		}
		_, err := s.ledger.Post(ctx, interfaces.LedgerEntry{
			UserID:      req.UserID,
			Type:        entities.TransactionTypeWithdrawalRefund,
			Amount:      req.Amount,
			Status:      entities.TransactionStatusCompleted,
			Description: fmt.Sprintf("Refund of withdrawal %s", req.Ref()),
			Metadata: map[string]any{
				"request_ref":          req.Ref().String(),
				"original_transaction": req.TransactionID,
				"admin_id":             adminID,
				"rejection_note":       note,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to refund withdrawal: %w", err)
		}
	}

	req.Status = status
	req.AdminID = &adminID
	req.AdminNote = note
	return entities.SummaryOfWithdrawal(req), nil
}

// Get returns a request of either kind
func (s *paymentService) Get(ctx context.Context, ref entities.RequestRef) (*entities.RequestSummary, error) {
	switch ref.Kind {
	case entities.RequestKindDeposit:
		req, err := s.paymentRepo.GetByID(ctx, ref.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get deposit request: %w", err)
		}
		if req == nil {
			return nil, entities.ErrRequestNotFound
		}
		return entities.SummaryOfDeposit(req), nil
	case entities.RequestKindWithdrawal:
		req, err := s.withdrawalRepo.GetByID(ctx, ref.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get withdrawal request: %w", err)
		}
		if req == nil {
			return nil, entities.ErrRequestNotFound
		}
		return entities.SummaryOfWithdrawal(req), nil
	}
	return nil, entities.ErrRequestNotFound
}

// ListPending returns pending deposits and withdrawals, oldest first
func (s *paymentService) ListPending(ctx context.Context, limit int) ([]*entities.RequestSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	deposits, err := s.paymentRepo.ListPending(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending deposits: %w", err)
	}
	withdrawals, err := s.withdrawalRepo.ListPending(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending withdrawals: %w", err)
	}

	summaries := make([]*entities.RequestSummary, 0, len(deposits)+len(withdrawals))
	for _, d := range deposits {
		summaries = append(summaries, entities.SummaryOfDeposit(d))
	}
	for _, w := range withdrawals {
		summaries = append(summaries, entities.SummaryOfWithdrawal(w))
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.Before(summaries[j].CreatedAt)
	})
	if len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries, nil
}

func (s *paymentService) publish(event events.Event) {
	if err := s.eventPublisher.Publish(event); err != nil {
		log.WithError(err).WithField("eventType", event.Type()).Error("Failed to publish event")
	}
}
