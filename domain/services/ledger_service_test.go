package services

import (
	"context"
	"errors"
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

func newTestLedger() (*ledgerService, *testhelpers.MockUserRepository, *testhelpers.MockTransactionRepository, *testhelpers.MockEventPublisher) {
	userRepo := new(testhelpers.MockUserRepository)
	txRepo := new(testhelpers.MockTransactionRepository)
	publisher := new(testhelpers.MockEventPublisher)

	svc := NewLedgerService(userRepo, txRepo, publisher).(*ledgerService)
	svc.now = func() time.Time { return time.Date(2025, 5, 10, 9, 30, 0, 0, time.UTC) }
	return svc, userRepo, txRepo, publisher
}

func TestLedgerService_Post(t *testing.T) {
	t.Parallel()

	t.Run("debit records one row with before and after balances", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		svc, userRepo, txRepo, publisher := newTestLedger()

		userRepo.On("AdjustBalance", ctx, int64(1), int64(-500)).Return(int64(1000), int64(500), nil)
		txRepo.On("Create", ctx, mock.AnythingOfType("*entities.Transaction")).Return(nil)
		publisher.On("Publish", mock.Anything).Return(nil)

		tx, err := svc.Post(ctx, interfaces.LedgerEntry{
			UserID: 1,
			Type:   entities.TransactionTypeTicketPurchase,
			Amount: -500,
		})

		require.NoError(t, err)
		assert.Equal(t, int64(1000), tx.BalanceBefore)
		assert.Equal(t, int64(500), tx.BalanceAfter)
		assert.Equal(t, entities.TransactionStatusCompleted, tx.Status)
		assert.True(t, strings.HasPrefix(tx.TransactionID, "TKT20250510093000"))
		assert.Len(t, tx.TransactionID, len("TKT20250510093000")+4)
		assert.NotNil(t, tx.Metadata)
		txRepo.AssertNumberOfCalls(t, "Create", 1)
	})

	t.Run("refused debit writes nothing", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		svc, userRepo, txRepo, publisher := newTestLedger()

		userRepo.On("AdjustBalance", ctx, int64(1), int64(-5000)).
			Return(int64(0), int64(0), &entities.InsufficientBalanceError{Have: 1000, Need: 5000})

		_, err := svc.Post(ctx, interfaces.LedgerEntry{
			UserID: 1,
			Type:   entities.TransactionTypeWithdrawal,
			Amount: -5000,
			Status: entities.TransactionStatusPending,
		})

		require.Error(t, err)
		assert.ErrorIs(t, err, entities.ErrInsufficientBalance)
		var ibe *entities.InsufficientBalanceError
		require.True(t, errors.As(err, &ibe))
		assert.Equal(t, int64(4000), ibe.Shortfall())
		txRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		publisher.AssertNotCalled(t, "Publish", mock.Anything)
	})

	t.Run("sign must match type", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		svc, userRepo, _, _ := newTestLedger()

		_, err := svc.Post(ctx, interfaces.LedgerEntry{
			UserID: 1,
			Type:   entities.TransactionTypeDeposit,
			Amount: -100,
		})

		assert.ErrorIs(t, err, entities.ErrInvalidAmount)
		userRepo.AssertNotCalled(t, "AdjustBalance", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("generated id is regenerated on collision", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		svc, userRepo, txRepo, publisher := newTestLedger()

		userRepo.On("AdjustBalance", ctx, int64(1), int64(10000)).Return(int64(0), int64(10000), nil)
		txRepo.On("Create", ctx, mock.Anything).Return(entities.ErrDuplicateKey).Once()
		txRepo.On("Create", ctx, mock.Anything).Return(nil).Once()
		publisher.On("Publish", mock.Anything).Return(nil)

		tx, err := svc.Post(ctx, interfaces.LedgerEntry{
			UserID: 1,
			Type:   entities.TransactionTypePrize,
			Amount: 10000,
		})

		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(tx.TransactionID, "PRZ"))
		txRepo.AssertNumberOfCalls(t, "Create", 2)
	})

	t.Run("explicit id collision is an error", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		svc, userRepo, txRepo, _ := newTestLedger()

		userRepo.On("AdjustBalance", ctx, int64(1), int64(10000)).Return(int64(0), int64(10000), nil)
		txRepo.On("Create", ctx, mock.Anything).Return(entities.ErrDuplicateKey)

		_, err := svc.Post(ctx, interfaces.LedgerEntry{
			UserID:        1,
			Type:          entities.TransactionTypeDeposit,
			Amount:        10000,
			TransactionID: "DEP202505100930001234",
		})

		assert.ErrorIs(t, err, entities.ErrDuplicateKey)
		txRepo.AssertNumberOfCalls(t, "Create", 1)
	})
}

func TestLedgerService_AdjustBalanceRejectsZero(t *testing.T) {
	t.Parallel()
	svc, userRepo, _, _ := newTestLedger()

	_, _, err := svc.AdjustBalance(context.Background(), 1, 0)

	assert.ErrorIs(t, err, entities.ErrInvalidAmount)
	userRepo.AssertNotCalled(t, "AdjustBalance", mock.Anything, mock.Anything, mock.Anything)
}

func TestLedgerService_GetBalance(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, userRepo, _, _ := newTestLedger()

	userRepo.On("GetByID", ctx, int64(1)).Return(&entities.User{ID: 1, Balance: 2500}, nil)
	userRepo.On("GetByID", ctx, int64(2)).Return(nil, nil)

	balance, err := svc.GetBalance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2500), balance)

	balance, err = svc.GetBalance(ctx, 2)
	require.NoError(t, err)
	assert.Zero(t, balance)

	_, err = svc.GetUser(ctx, 2)
	assert.ErrorIs(t, err, entities.ErrUserNotFound)
}

func TestLedgerService_HistoryDefaultLimit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, txRepo, _ := newTestLedger()

	txRepo.On("ListByUser", ctx, int64(1), 10).Return([]*entities.Transaction{}, nil)

	_, err := svc.History(ctx, 1, 0)
	require.NoError(t, err)
	txRepo.AssertExpectations(t)
}

func TestLedgerService_Reconcile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, txRepo, _ := newTestLedger()

	txRepo.On("FindDiscrepancies", ctx).Return([]entities.LedgerDiscrepancy{
		{UserID: 7, Balance: 1500, LedgerSum: 1000},
	}, nil)

	got, err := svc.Reconcile(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(500), got[0].Difference())
}
