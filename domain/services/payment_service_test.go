package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"luckydraw/domain/entities"
	"luckydraw/domain/interfaces"
	"luckydraw/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type paymentMocks struct {
	payments    *testhelpers.MockPaymentRequestRepository
	withdrawals *testhelpers.MockWithdrawalRequestRepository
	ledger      *testhelpers.MockLedgerService
	settings    *testhelpers.MockSettingsService
	publisher   *testhelpers.MockEventPublisher
}

func newTestPaymentService() (*paymentService, *paymentMocks) {
	m := &paymentMocks{
		payments:    new(testhelpers.MockPaymentRequestRepository),
		withdrawals: new(testhelpers.MockWithdrawalRequestRepository),
		ledger:      new(testhelpers.MockLedgerService),
		settings:    new(testhelpers.MockSettingsService),
		publisher:   new(testhelpers.MockEventPublisher),
	}
	svc := NewPaymentService(m.payments, m.withdrawals, m.ledger, m.settings, m.publisher).(*paymentService)
	svc.now = func() time.Time { return time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC) }
	return svc, m
}

func registeredUser(id, balance int64) *entities.User {
	phone := "09123456789"
	registeredAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return &entities.User{
		ID:           id,
		DisplayName:  "Aung Aung",
		Phone:        &phone,
		Balance:      balance,
		Status:       entities.UserStatusActive,
		RegisteredAt: &registeredAt,
	}
}

func TestPaymentService_CreateDeposit(t *testing.T) {
	t.Parallel()

	t.Run("creates pending request without touching the balance", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		svc, m := newTestPaymentService()

		m.ledger.On("GetUser", ctx, int64(1)).Return(registeredUser(1, 0), nil)
		m.settings.On("MinDeposit", ctx).Return(int64(1000), nil)
		m.payments.On("Create", ctx, mock.AnythingOfType("*entities.PaymentRequest")).
			Run(func(args mock.Arguments) {
				args.Get(1).(*entities.PaymentRequest).ID = 5
			}).Return(nil)
		m.publisher.On("Publish", mock.Anything).Return(nil)

		req, err := svc.CreateDeposit(ctx, 1, 10000, entities.PaymentMethodKPay, "photo-file-id")

		require.NoError(t, err)
		assert.Equal(t, "D5", req.Ref().String())
		assert.Equal(t, entities.RequestStatusPending, req.Status)
		assert.True(t, strings.HasPrefix(req.TransactionID, "DEP20250510090000"))
		m.ledger.AssertNotCalled(t, "Post", mock.Anything, mock.Anything)
	})

	t.Run("below minimum", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		svc, m := newTestPaymentService()

		m.ledger.On("GetUser", ctx, int64(1)).Return(registeredUser(1, 0), nil)
		m.settings.On("MinDeposit", ctx).Return(int64(1000), nil)

		_, err := svc.CreateDeposit(ctx, 1, 500, entities.PaymentMethodKPay, "photo-file-id")

		assert.ErrorIs(t, err, entities.ErrAmountBelowMinimum)
		m.payments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("unregistered user", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		svc, m := newTestPaymentService()

		m.ledger.On("GetUser", ctx, int64(1)).Return(&entities.User{ID: 1}, nil)

		_, err := svc.CreateDeposit(ctx, 1, 5000, entities.PaymentMethodKPay, "photo-file-id")

		assert.ErrorIs(t, err, entities.ErrUserNotRegistered)
	})

	t.Run("proof is required", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		svc, m := newTestPaymentService()

		m.ledger.On("GetUser", ctx, int64(1)).Return(registeredUser(1, 0), nil)

		_, err := svc.CreateDeposit(ctx, 1, 5000, entities.PaymentMethodWavePay, " ")

		assert.Error(t, err)
		m.payments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestPaymentService_CreateWithdrawal(t *testing.T) {
	t.Parallel()

	t.Run("debits immediately as pending", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		svc, m := newTestPaymentService()

		m.ledger.On("GetUser", ctx, int64(1)).Return(registeredUser(1, 10000), nil)
		m.settings.On("MinWithdrawal", ctx).Return(int64(1000), nil)
		m.ledger.On("Post", ctx, mock.MatchedBy(func(e interfaces.LedgerEntry) bool {
			return e.Type == entities.TransactionTypeWithdrawal &&
				e.Amount == -5000 &&
				e.Status == entities.TransactionStatusPending
		})).Return(&entities.Transaction{TransactionID: "WDR202505100900001111", BalanceAfter: 5000}, nil)
		m.withdrawals.On("Create", ctx, mock.AnythingOfType("*entities.WithdrawalRequest")).
			Run(func(args mock.Arguments) {
				args.Get(1).(*entities.WithdrawalRequest).ID = 7
			}).Return(nil)
		m.publisher.On("Publish", mock.Anything).Return(nil)

		req, err := svc.CreateWithdrawal(ctx, 1, 5000, entities.PaymentMethodWavePay, "Aung Aung", "+959781234368")

		require.NoError(t, err)
		assert.Equal(t, "W7", req.Ref().String())
		assert.Equal(t, "09781234368", req.AccountPhone)
		assert.Equal(t, "WDR202505100900001111", req.TransactionID)
	})

	t.Run("insufficient balance creates no request", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		svc, m := newTestPaymentService()

		m.ledger.On("GetUser", ctx, int64(1)).Return(registeredUser(1, 1000), nil)
		m.settings.On("MinWithdrawal", ctx).Return(int64(1000), nil)
		m.ledger.On("Post", ctx, mock.Anything).
			Return(nil, &entities.InsufficientBalanceError{Have: 1000, Need: 6000})

		_, err := svc.CreateWithdrawal(ctx, 1, 6000, entities.PaymentMethodKPay, "Aung Aung", "09781234368")

		assert.ErrorIs(t, err, entities.ErrInsufficientBalance)
		m.withdrawals.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("invalid phone", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		svc, m := newTestPaymentService()

		m.ledger.On("GetUser", ctx, int64(1)).Return(registeredUser(1, 10000), nil)

		_, err := svc.CreateWithdrawal(ctx, 1, 5000, entities.PaymentMethodKPay, "Aung Aung", "12345")

		assert.ErrorIs(t, err, entities.ErrInvalidPhone)
		m.ledger.AssertNotCalled(t, "Post", mock.Anything, mock.Anything)
	})
}

func pendingDeposit() *entities.PaymentRequest {
	return &entities.PaymentRequest{
		ID:            3,
		UserID:        1,
		Amount:        10000,
		Method:        entities.PaymentMethodKPay,
		ProofRef:      "photo",
		Status:        entities.RequestStatusPending,
		TransactionID: "DEP202505100900004321",
	}
}

func pendingWithdrawal() *entities.WithdrawalRequest {
	return &entities.WithdrawalRequest{
		ID:            4,
		UserID:        1,
		Amount:        5000,
		Method:        entities.PaymentMethodWavePay,
		AccountName:   "Aung Aung",
		AccountPhone:  "09781234368",
		Status:        entities.RequestStatusPending,
		TransactionID: "WDR202505100900001111",
	}
}

func TestPaymentService_ApproveDeposit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, m := newTestPaymentService()
	ref := entities.RequestRef{Kind: entities.RequestKindDeposit, ID: 3}

	m.payments.On("GetByIDForUpdate", ctx, int64(3)).Return(pendingDeposit(), nil)
	m.payments.On("Decide", ctx, int64(3), entities.RequestStatusApproved, int64(99), "").Return(true, nil)
	m.ledger.On("Post", ctx, mock.MatchedBy(func(e interfaces.LedgerEntry) bool {
		return e.Type == entities.TransactionTypeDeposit &&
			e.Amount == 10000 &&
			e.Status == entities.TransactionStatusCompleted &&
			e.TransactionID == "DEP202505100900004321"
	})).Return(&entities.Transaction{TransactionID: "DEP202505100900004321", BalanceAfter: 10000}, nil)
	m.publisher.On("Publish", mock.Anything).Return(nil)

	summary, err := svc.Approve(ctx, ref, 99)

	require.NoError(t, err)
	assert.Equal(t, entities.RequestStatusApproved, summary.Status)
	require.NotNil(t, summary.AdminID)
	assert.Equal(t, int64(99), *summary.AdminID)
	m.ledger.AssertExpectations(t)
}

func TestPaymentService_DecisionOnlyOnce(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("already decided", func(t *testing.T) {
		t.Parallel()
		svc, m := newTestPaymentService()
		req := pendingDeposit()
		req.Status = entities.RequestStatusRejected
		m.payments.On("GetByIDForUpdate", ctx, int64(3)).Return(req, nil)

		_, err := svc.Approve(ctx, req.Ref(), 99)

		assert.ErrorIs(t, err, entities.ErrRequestNotPending)
		m.payments.AssertNotCalled(t, "Decide", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		m.ledger.AssertNotCalled(t, "Post", mock.Anything, mock.Anything)
	})

	t.Run("lost the conditional update", func(t *testing.T) {
		t.Parallel()
		svc, m := newTestPaymentService()
		m.withdrawals.On("GetByIDForUpdate", ctx, int64(4)).Return(pendingWithdrawal(), nil)
		m.withdrawals.On("Decide", ctx, int64(4), entities.RequestStatusRejected, int64(99), "late").Return(false, nil)

		_, err := svc.Reject(ctx, pendingWithdrawal().Ref(), 99, "late")

		assert.ErrorIs(t, err, entities.ErrRequestNotPending)
		m.ledger.AssertNotCalled(t, "Post", mock.Anything, mock.Anything)
		m.ledger.AssertNotCalled(t, "CompleteTransaction", mock.Anything, mock.Anything)
	})

	t.Run("unknown request", func(t *testing.T) {
		t.Parallel()
		svc, m := newTestPaymentService()
		m.payments.On("GetByIDForUpdate", ctx, int64(404)).Return(nil, nil)

		_, err := svc.Hold(ctx, entities.RequestRef{Kind: entities.RequestKindDeposit, ID: 404}, 99, "")

		assert.ErrorIs(t, err, entities.ErrRequestNotFound)
	})
}

func TestPaymentService_WithdrawalDecisions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ref := pendingWithdrawal().Ref()

	t.Run("reject refunds the held amount", func(t *testing.T) {
		t.Parallel()
		svc, m := newTestPaymentService()
		m.withdrawals.On("GetByIDForUpdate", ctx, int64(4)).Return(pendingWithdrawal(), nil)
		m.withdrawals.On("Decide", ctx, int64(4), entities.RequestStatusRejected, int64(99), "insufficient proof").Return(true, nil)
		m.ledger.On("CompleteTransaction", ctx, "WDR202505100900001111").Return(nil)
		m.ledger.On("Post", ctx, mock.MatchedBy(func(e interfaces.LedgerEntry) bool {
			return e.Type == entities.TransactionTypeWithdrawalRefund &&
				e.Amount == 5000 &&
				e.UserID == 1
		})).Return(&entities.Transaction{TransactionID: "RFD202505100900002222", BalanceAfter: 10000}, nil)
		m.publisher.On("Publish", mock.Anything).Return(nil)

		summary, err := svc.Reject(ctx, ref, 99, "insufficient proof")

		require.NoError(t, err)
		assert.Equal(t, entities.RequestStatusRejected, summary.Status)
		assert.Equal(t, "insufficient proof", summary.AdminNote)
		m.ledger.AssertExpectations(t)
	})

	t.Run("approve settles the pending row", func(t *testing.T) {
		t.Parallel()
		svc, m := newTestPaymentService()
		m.withdrawals.On("GetByIDForUpdate", ctx, int64(4)).Return(pendingWithdrawal(), nil)
		m.withdrawals.On("Decide", ctx, int64(4), entities.RequestStatusApproved, int64(99), "").Return(true, nil)
		m.ledger.On("CompleteTransaction", ctx, "WDR202505100900001111").Return(nil)
		m.publisher.On("Publish", mock.Anything).Return(nil)

		_, err := svc.Approve(ctx, ref, 99)

		require.NoError(t, err)
		m.ledger.AssertNotCalled(t, "Post", mock.Anything, mock.Anything)
	})

	t.Run("hold moves no money", func(t *testing.T) {
		t.Parallel()
		svc, m := newTestPaymentService()
		m.withdrawals.On("GetByIDForUpdate", ctx, int64(4)).Return(pendingWithdrawal(), nil)
		m.withdrawals.On("Decide", ctx, int64(4), entities.RequestStatusOnHold, int64(99), "call me").Return(true, nil)
		m.publisher.On("Publish", mock.Anything).Return(nil)

		summary, err := svc.Hold(ctx, ref, 99, "call me")

		require.NoError(t, err)
		assert.Equal(t, entities.RequestStatusOnHold, summary.Status)
		m.ledger.AssertNotCalled(t, "Post", mock.Anything, mock.Anything)
		m.ledger.AssertNotCalled(t, "CompleteTransaction", mock.Anything, mock.Anything)
	})
}

func TestPaymentService_ListPending(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, m := newTestPaymentService()

	base := time.Date(2025, 5, 10, 8, 0, 0, 0, time.UTC)
	deposit := pendingDeposit()
	deposit.CreatedAt = base.Add(time.Minute)
	withdrawal := pendingWithdrawal()
	withdrawal.CreatedAt = base

	m.payments.On("ListPending", ctx, 20).Return([]*entities.PaymentRequest{deposit}, nil)
	m.withdrawals.On("ListPending", ctx, 20).Return([]*entities.WithdrawalRequest{withdrawal}, nil)

	got, err := svc.ListPending(ctx, 0)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "W4", got[0].Ref.String())
	assert.Equal(t, "D3", got[1].Ref.String())
	assert.Equal(t, "Aung Aung 09781234368", got[0].Detail)
}
