package application_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"luckydraw/application"
	"luckydraw/application/dto"
	"luckydraw/domain/entities"
	"luckydraw/domain/interfaces"
	"luckydraw/domain/services"
	"luckydraw/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRenderer struct {
	calls int
}

func (r *stubRenderer) RenderDrawCard(a dto.DrawAnnouncement) ([]byte, error) {
	r.calls++
	return []byte("png"), nil
}

func TestNextDrawTime(t *testing.T) {
	t.Parallel()
	yangon, err := time.LoadLocation("Asia/Yangon")
	require.NoError(t, err)

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "later today",
			now:  time.Date(2025, 6, 1, 10, 0, 0, 0, yangon),
			want: time.Date(2025, 6, 1, 18, 0, 0, 0, yangon),
		},
		{
			name: "exactly at draw time schedules tomorrow",
			now:  time.Date(2025, 6, 1, 18, 0, 0, 0, yangon),
			want: time.Date(2025, 6, 2, 18, 0, 0, 0, yangon),
		},
		{
			name: "after draw time",
			now:  time.Date(2025, 6, 1, 21, 30, 0, 0, yangon),
			want: time.Date(2025, 6, 2, 18, 0, 0, 0, yangon),
		},
		{
			name: "evaluated in the draw timezone",
			now:  time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC), // 17:30 in Yangon
			want: time.Date(2025, 6, 1, 18, 0, 0, 0, yangon),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := application.NextDrawTime(tt.now, yangon, 18, 0)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %v, got %v", tt.want, got)
		})
	}

	_, err = application.NextDrawTime(time.Now(), yangon, 25, 0)
	assert.Error(t, err)
}

func TestDrawWorker_NoSales(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	renderer := &stubRenderer{}
	worker := application.NewDrawWorker(env.uowFactory, env.notifier, renderer, env.opts)

	var recorded time.Duration
	worker.SetDurationRecorder(func(d time.Duration) { recorded = d })

	drawDate := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	announcement, err := worker.RunDraw(ctx, drawDate)
	require.NoError(t, err)
	assert.Equal(t, entities.DrawStatusNoSales, announcement.Draw.Status)
	assert.Empty(t, announcement.Winners)
	assert.NotZero(t, recorded)

	assert.True(t, env.notifier.adminMessageContaining("No tickets were sold"))
	assert.Empty(t, env.notifier.announcements)
	assert.Zero(t, renderer.calls)

	_, err = worker.RunDraw(ctx, drawDate)
	assert.ErrorIs(t, err, entities.ErrAlreadyDrawn)
}

func TestDrawWorker_PaysWinners(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	buyers := []int64{9001, 9002, 9003}
	for _, id := range buyers {
		testutil.CreateRegisteredUser(t, env.db.DB, id, fmt.Sprintf("buyer%d", id), 5000)
	}
	var drawDate time.Time
	for i, id := range buyers {
		result, err := env.wallet.ConfirmTickets(ctx, id, i+1)
		require.NoError(t, err)
		drawDate = result.DrawDate
	}

	renderer := &stubRenderer{}
	worker := application.NewDrawWorker(env.uowFactory, env.notifier, renderer, env.opts)
	worker.SetRandomSource(func() interfaces.RandomSource { return services.NewSeededRandom(42) })

	announcement, err := worker.RunDraw(ctx, drawDate)
	require.NoError(t, err)

	draw := announcement.Draw
	assert.Equal(t, entities.DrawStatusCompleted, draw.Status)
	assert.Equal(t, int64(6000), draw.TotalSales)
	assert.Equal(t, 3, draw.BuyerCount)
	assert.Equal(t, int64(1200), draw.Commission)
	assert.Equal(t, int64(60), draw.Donation)
	assert.Equal(t, int64(4740), draw.PrizePool)
	assert.Equal(t, int64(42), draw.Seed)
	require.Len(t, announcement.Winners, 1)

	winner := announcement.Winners[0]
	assert.Contains(t, buyers, winner.UserID)
	assert.Equal(t, int64(4740), winner.Amount)

	account, err := env.wallet.Account(ctx, winner.UserID)
	require.NoError(t, err)
	assert.Equal(t, int64(4740), account.TotalWon)

	require.Len(t, env.notifier.announcements, 1)
	assert.Contains(t, env.notifier.announcements[0], "4,740 Ks")
	assert.Equal(t, []byte("png"), env.notifier.cards[0])
	assert.Len(t, env.notifier.userMessages(winner.UserID), 1)

	env.assertReconciled(t)
}

func TestDrawWorker_StartCatchesUpMissedDraw(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A draw time of midnight has always passed, so today's draw is due immediately
	require.NoError(t, env.admin.SetSetting(ctx, testAdminID, entities.SettingDrawTime, "00:00"))

	worker := application.NewDrawWorker(env.uowFactory, env.notifier, nil, env.opts)
	stop := worker.Start(ctx)
	defer stop()

	require.Eventually(t, func() bool {
		return env.notifier.adminMessageContaining("No tickets were sold")
	}, 30*time.Second, 100*time.Millisecond)

	stats, err := env.admin.Stats(ctx, testAdminID)
	require.NoError(t, err)
	require.NotNil(t, stats.LastRun)
	assert.Equal(t, entities.DrawStatusNoSales, stats.LastRun.Status)
}

func TestDrawWorker_WaitsForPurchaseInFlight(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.CreateRegisteredUser(t, env.db.DB, 9101, "early", 5000)
	testutil.CreateRegisteredUser(t, env.db.DB, 9102, "late", 5000)

	first, err := env.wallet.ConfirmTickets(ctx, 9101, 1)
	require.NoError(t, err)
	drawDate := first.DrawDate

	// A purchase whose transaction is still open when the draw starts
	uow := env.uowFactory.Create()
	require.NoError(t, uow.Begin(ctx))
	defer func() { _ = uow.Rollback() }()
	settings := services.NewSettingsService(uow.SettingRepository(), env.opts.AdminIDs, env.opts.Defaults)
	ledger := services.NewLedgerService(uow.UserRepository(), uow.TransactionRepository(), uow.EventBus())
	tickets := services.NewTicketService(uow.TicketRepository(), uow.DrawRepository(), uow.UserRepository(), ledger, settings, uow.EventBus(), env.opts.Location)
	inFlight, err := tickets.BuyTickets(ctx, 9102, 2)
	require.NoError(t, err)
	require.Equal(t, drawDate, inFlight.DrawDate)

	worker := application.NewDrawWorker(env.uowFactory, env.notifier, nil, env.opts)
	type drawOutcome struct {
		announcement *dto.DrawAnnouncement
		err          error
	}
	done := make(chan drawOutcome, 1)
	go func() {
		a, err := worker.RunDraw(ctx, drawDate)
		done <- drawOutcome{a, err}
	}()

	select {
	case <-done:
		t.Fatal("draw settled while a purchase for its date was uncommitted")
	case <-time.After(500 * time.Millisecond):
	}
	require.NoError(t, uow.Commit())

	var outcome drawOutcome
	select {
	case outcome = <-done:
	case <-time.After(30 * time.Second):
		t.Fatal("draw did not finish after the purchase committed")
	}
	require.NoError(t, outcome.err)
	assert.Equal(t, int64(3000), outcome.announcement.Draw.TotalSales, "both purchases take part")
	assert.Equal(t, 2, outcome.announcement.Draw.BuyerCount)

	env.assertReconciled(t)
}

func TestDrawWorker_PurchaseAfterSettledDrawRollsOver(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.CreateRegisteredUser(t, env.db.DB, 9201, "after", 5000)

	quote, err := env.wallet.QuoteTickets(ctx, 9201, 1)
	require.NoError(t, err)
	settled := quote.DrawDate

	worker := application.NewDrawWorker(env.uowFactory, env.notifier, nil, env.opts)
	_, err = worker.RunDraw(ctx, settled)
	require.NoError(t, err)

	result, err := env.wallet.ConfirmTickets(ctx, 9201, 1)
	require.NoError(t, err)
	assert.Equal(t, settled.AddDate(0, 0, 1), result.DrawDate)

	list, err := env.wallet.MyTickets(ctx, 9201)
	require.NoError(t, err)
	assert.Len(t, list.Tickets, 1, "the ticket is listed under the next open draw")
}

func TestDrawWorker_NoPrizeAlertsAdmins(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.admin.SetSetting(ctx, testAdminID, entities.SettingTicketPrice, "100"))
	require.NoError(t, env.admin.SetSetting(ctx, testAdminID, entities.SettingCommissionRate, "0.99"))
	testutil.CreateRegisteredUser(t, env.db.DB, 9301, "solo", 100)

	purchase, err := env.wallet.ConfirmTickets(ctx, 9301, 1)
	require.NoError(t, err)

	worker := application.NewDrawWorker(env.uowFactory, env.notifier, &stubRenderer{}, env.opts)
	announcement, err := worker.RunDraw(ctx, purchase.DrawDate)
	require.NoError(t, err)

	assert.Equal(t, entities.DrawStatusNoPrize, announcement.Draw.Status)
	assert.Equal(t, int64(100), announcement.Draw.TotalSales)
	assert.Empty(t, announcement.Winners)
	assert.True(t, env.notifier.adminMessageContaining("too small to pay a winner"))
	assert.False(t, env.notifier.adminMessageContaining("No tickets were sold"))
	assert.Empty(t, env.notifier.announcements)

	balance, err := env.wallet.Balance(ctx, 9301)
	require.NoError(t, err)
	assert.Zero(t, balance)

	env.assertReconciled(t)
}
