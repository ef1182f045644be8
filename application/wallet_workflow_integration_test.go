package application_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"luckydraw/domain/entities"
	"luckydraw/domain/utils"
	"luckydraw/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDepositApproved(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.CreateRegisteredUser(t, env.db.DB, 1001, "aung", 0)

	req, err := env.wallet.SubmitDeposit(ctx, 1001, 10000, entities.PaymentMethodKPay, "photo-123")
	require.NoError(t, err)

	balance, err := env.wallet.Balance(ctx, 1001)
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance, "a deposit is credited only on approval")
	assert.True(t, env.notifier.adminMessageContaining("/approve_"+req.Ref().String()))

	result, err := env.admin.ApproveRequest(ctx, req.Ref(), testAdminID)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), result.NewBalance)

	history, err := env.wallet.History(ctx, 1001, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, entities.TransactionTypeDeposit, history[0].Type)
	assert.Equal(t, int64(10000), history[0].Amount)
	assert.True(t, history[0].IsCompleted())
	assert.Equal(t, req.TransactionID, history[0].TransactionID)

	messages := env.notifier.userMessages(1001)
	require.Len(t, messages, 1)
	assert.Contains(t, messages[0], "approved")
	assert.Contains(t, messages[0], "10,000 Ks")
	assert.Len(t, env.notifier.paymentLogs, 1)

	_, err = env.admin.RejectRequest(ctx, req.Ref(), testAdminID, "late")
	assert.ErrorIs(t, err, entities.ErrRequestNotPending)

	env.assertReconciled(t)
}

func TestWithdrawalRejectedIsRefunded(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.CreateRegisteredUser(t, env.db.DB, 2001, "mya", 10000)

	req, balance, err := env.wallet.SubmitWithdrawal(ctx, 2001, 5000, entities.PaymentMethodWavePay, "Daw Mya", "959777777777")
	require.NoError(t, err)
	assert.Equal(t, int64(5000), balance)
	assert.Equal(t, "09777777777", req.AccountPhone)

	history, err := env.wallet.History(ctx, 2001, 10)
	require.NoError(t, err)
	assert.Equal(t, entities.TransactionTypeWithdrawal, history[0].Type)
	assert.False(t, history[0].IsCompleted())

	env.assertReconciled(t)

	result, err := env.admin.RejectRequest(ctx, req.Ref(), testAdminID, "insufficient proof")
	require.NoError(t, err)
	assert.Equal(t, int64(10000), result.NewBalance)
	assert.Equal(t, entities.RequestStatusRejected, result.Status)

	history, err = env.wallet.History(ctx, 2001, 10)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, entities.TransactionTypeWithdrawalRefund, history[0].Type)
	assert.Equal(t, int64(5000), history[0].Amount)
	assert.True(t, history[1].IsCompleted(), "the original withdrawal row is settled")

	messages := env.notifier.userMessages(2001)
	require.Len(t, messages, 1)
	assert.Contains(t, messages[0], "insufficient proof")
	assert.Contains(t, messages[0], "0977****777")
	assert.Empty(t, env.notifier.paymentLogs)

	env.assertReconciled(t)
}

func TestWithdrawalApprovedSettlesWithoutBalanceChange(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.CreateRegisteredUser(t, env.db.DB, 2101, "kyaw", 8000)

	req, _, err := env.wallet.SubmitWithdrawal(ctx, 2101, 3000, entities.PaymentMethodKPay, "U Kyaw", "09123456789")
	require.NoError(t, err)

	result, err := env.admin.ApproveRequest(ctx, req.Ref(), testAdminID)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), result.NewBalance)

	history, err := env.wallet.History(ctx, 2101, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.True(t, history[0].IsCompleted())

	env.assertReconciled(t)
}

func TestTicketPurchase(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.CreateRegisteredUser(t, env.db.DB, 3001, "susu", 3000)

	quote, err := env.wallet.QuoteTickets(ctx, 3001, 3)
	require.NoError(t, err)
	assert.True(t, quote.Affordable)
	assert.Equal(t, int64(3000), quote.Total)

	result, err := env.wallet.ConfirmTickets(ctx, 3001, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.NewBalance)
	require.Len(t, result.Tickets, 3)

	expectedDrawDate := utils.DrawDateFor(time.Now(), env.opts.Location, 18, 0)
	for _, ticket := range result.Tickets {
		assert.Equal(t, utils.FormatDate(expectedDrawDate), utils.FormatDate(ticket.DrawDate))
	}

	user, err := env.wallet.Account(ctx, 3001)
	require.NoError(t, err)
	assert.Equal(t, int64(3), user.TicketsBought)
	assert.Equal(t, int64(3000), user.TotalSpent)

	list, err := env.wallet.MyTickets(ctx, 3001)
	require.NoError(t, err)
	assert.Len(t, list.Tickets, 3)

	t.Run("refused when the balance does not cover the price", func(t *testing.T) {
		quote, err := env.wallet.QuoteTickets(ctx, 3001, 1)
		require.NoError(t, err)
		assert.False(t, quote.Affordable)
		assert.Equal(t, int64(1000), quote.Shortfall())

		_, err = env.wallet.ConfirmTickets(ctx, 3001, 1)
		assert.ErrorIs(t, err, entities.ErrInsufficientBalance)

		balance, err := env.wallet.Balance(ctx, 3001)
		require.NoError(t, err)
		assert.Equal(t, int64(0), balance)
	})

	env.assertReconciled(t)
}

func TestConcurrentWithdrawalsCannotOverdraw(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.CreateRegisteredUser(t, env.db.DB, 4001, "thida", 10000)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = env.wallet.SubmitWithdrawal(ctx, 4001, 6000, entities.PaymentMethodKPay, "Thida", "09123456789")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var insufficient *entities.InsufficientBalanceError
		assert.True(t, errors.As(err, &insufficient), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)

	balance, err := env.wallet.Balance(ctx, 4001)
	require.NoError(t, err)
	assert.Equal(t, int64(4000), balance)

	env.assertReconciled(t)
}

func TestConcurrentDecisionsOnOneRequest(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.CreateRegisteredUser(t, env.db.DB, 5001, "nilar", 10000)

	req, _, err := env.wallet.SubmitWithdrawal(ctx, 5001, 5000, entities.PaymentMethodKPay, "Nilar", "09123456789")
	require.NoError(t, err)

	var (
		wg         sync.WaitGroup
		approveErr error
		rejectErr  error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, approveErr = env.admin.ApproveRequest(ctx, req.Ref(), testAdminID)
	}()
	go func() {
		defer wg.Done()
		_, rejectErr = env.admin.RejectRequest(ctx, req.Ref(), 999991, "duplicate")
	}()
	wg.Wait()

	require.True(t, (approveErr == nil) != (rejectErr == nil), "exactly one decision must succeed: approve=%v reject=%v", approveErr, rejectErr)
	if approveErr != nil {
		assert.ErrorIs(t, approveErr, entities.ErrRequestNotPending)
	} else {
		assert.ErrorIs(t, rejectErr, entities.ErrRequestNotPending)
	}

	balance, err := env.wallet.Balance(ctx, 5001)
	require.NoError(t, err)
	if approveErr == nil {
		assert.Equal(t, int64(5000), balance)
	} else {
		assert.Equal(t, int64(10000), balance)
	}

	env.assertReconciled(t)
}

func TestAdminAuthorizationAndHold(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.CreateRegisteredUser(t, env.db.DB, 6001, "zaw", 0)

	req, err := env.wallet.SubmitDeposit(ctx, 6001, 5000, entities.PaymentMethodWavePay, "photo-9")
	require.NoError(t, err)

	_, err = env.admin.ApproveRequest(ctx, req.Ref(), 6001)
	assert.ErrorIs(t, err, entities.ErrNotAuthorized)

	_, err = env.admin.ListPending(ctx, 6001, 10)
	assert.ErrorIs(t, err, entities.ErrNotAuthorized)

	pending, err := env.admin.ListPending(ctx, testAdminID, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, req.Ref(), pending[0].Ref)

	result, err := env.admin.HoldRequest(ctx, req.Ref(), testAdminID, "blurry screenshot")
	require.NoError(t, err)
	assert.Equal(t, entities.RequestStatusOnHold, result.Status)
	assert.Equal(t, int64(0), result.NewBalance)

	_, err = env.admin.ApproveRequest(ctx, req.Ref(), testAdminID)
	assert.ErrorIs(t, err, entities.ErrRequestNotPending)

	_, err = env.admin.ApproveRequest(ctx, entities.RequestRef{Kind: entities.RequestKindDeposit, ID: 424242}, testAdminID)
	assert.ErrorIs(t, err, entities.ErrRequestNotFound)

	t.Run("admins added through settings are authorized", func(t *testing.T) {
		require.NoError(t, env.admin.SetSetting(ctx, testAdminID, entities.SettingAdminIDs, "6001"))
		isAdmin, err := env.admin.IsAdmin(ctx, 6001)
		require.NoError(t, err)
		assert.True(t, isAdmin)
	})
}

func TestAdminSettingsAndStats(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.CreateRegisteredUser(t, env.db.DB, 7001, "hnin", 5000)

	require.NoError(t, env.admin.SetSetting(ctx, testAdminID, entities.SettingTicketPrice, "500"))
	assert.ErrorIs(t, env.admin.SetSetting(ctx, testAdminID, entities.SettingTicketPrice, "-1"), entities.ErrInvalidSetting)
	assert.ErrorIs(t, env.admin.SetSetting(ctx, 7001, entities.SettingTicketPrice, "700"), entities.ErrNotAuthorized)

	settings, err := env.admin.Settings(ctx, testAdminID)
	require.NoError(t, err)
	assert.Equal(t, "500", settings[entities.SettingTicketPrice])

	_, err = env.wallet.ConfirmTickets(ctx, 7001, 2)
	require.NoError(t, err)

	stats, err := env.admin.Stats(ctx, testAdminID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Users.TotalUsers)
	assert.Equal(t, int64(4000), stats.Users.TotalBalance)
	assert.Equal(t, int64(2), stats.Users.TicketsToday)
	assert.Equal(t, int64(1000), stats.Users.SalesToday)
	assert.Nil(t, stats.LastRun)
}

func TestDepositValidation(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.CreateRegisteredUser(t, env.db.DB, 8001, "registered", 0)

	_, err := env.wallet.EnsureUser(ctx, 8002, "guest", "Guest")
	require.NoError(t, err)

	_, err = env.wallet.SubmitDeposit(ctx, 8002, 5000, entities.PaymentMethodKPay, "photo")
	assert.ErrorIs(t, err, entities.ErrUserNotRegistered)

	_, err = env.wallet.SubmitDeposit(ctx, 8001, 500, entities.PaymentMethodKPay, "photo")
	var minimum *entities.MinimumAmountError
	require.True(t, errors.As(err, &minimum))
	assert.Equal(t, int64(1000), minimum.Minimum)

	assert.Empty(t, env.notifier.adminMessages())
}
