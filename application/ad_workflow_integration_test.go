package application_test

import (
	"context"
	"testing"

	"luckydraw/domain/entities"
	"luckydraw/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adDraft(adType entities.AdType) entities.AdDraft {
	return entities.AdDraft{
		AdvertiserName: "Shwe Mart",
		Title:          "Grand opening",
		Content:        "Everything 10% off this week",
		Type:           adType,
	}
}

func TestAdApprovedIsAnnounced(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.CreateRegisteredUser(t, env.db.DB, 9301, "advertiser", 2000)

	ad, err := env.wallet.SubmitAd(ctx, 9301, adDraft(entities.AdTypeSponsored))
	require.NoError(t, err)
	assert.Equal(t, int64(10000), ad.Cost)
	assert.True(t, env.notifier.adminMessageContaining("/approve_"+ad.Ref().String()))

	pending, err := env.admin.ListPending(ctx, testAdminID, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, ad.Ref(), pending[0].Ref)
	assert.Equal(t, "Sponsored: Grand opening", pending[0].Detail)

	stats, err := env.admin.Stats(ctx, testAdminID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Users.PendingAds)

	result, err := env.admin.ApproveRequest(ctx, ad.Ref(), testAdminID)
	require.NoError(t, err)
	assert.Equal(t, entities.RequestStatusApproved, result.Status)
	assert.Equal(t, int64(2000), result.NewBalance, "ads never touch the balance")

	require.Len(t, env.notifier.announcements, 1)
	assert.Contains(t, env.notifier.announcements[0], "Grand opening")
	assert.Contains(t, env.notifier.announcements[0], "Shwe Mart")
	assert.Nil(t, env.notifier.cards[0])
	assert.Empty(t, env.notifier.paymentLogs)

	messages := env.notifier.userMessages(9301)
	require.Len(t, messages, 1)
	assert.Contains(t, messages[0], "approved")
	assert.Contains(t, messages[0], "10,000 Ks")

	summary, err := env.admin.GetRequest(ctx, ad.Ref(), testAdminID)
	require.NoError(t, err)
	assert.Equal(t, entities.RequestStatusApproved, summary.Status)

	_, err = env.admin.RejectRequest(ctx, ad.Ref(), testAdminID, "late")
	assert.ErrorIs(t, err, entities.ErrRequestNotPending)

	history, err := env.wallet.History(ctx, 9301, 10)
	require.NoError(t, err)
	assert.Empty(t, history)
	env.assertReconciled(t)
}

func TestAdRejectedIsNotAnnounced(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.CreateRegisteredUser(t, env.db.DB, 9311, "advertiser", 0)

	ad, err := env.wallet.SubmitAd(ctx, 9311, adDraft(entities.AdTypeText))
	require.NoError(t, err)

	_, err = env.admin.RejectRequest(ctx, ad.Ref(), 9311, "mine")
	assert.ErrorIs(t, err, entities.ErrNotAuthorized)

	result, err := env.admin.RejectRequest(ctx, ad.Ref(), testAdminID, "off topic")
	require.NoError(t, err)
	assert.Equal(t, entities.RequestStatusRejected, result.Status)

	assert.Empty(t, env.notifier.announcements)
	messages := env.notifier.userMessages(9311)
	require.Len(t, messages, 1)
	assert.Contains(t, messages[0], "rejected")
	assert.Contains(t, messages[0], "off topic")

	_, err = env.wallet.SubmitAd(ctx, 9311, entities.AdDraft{AdvertiserName: "X", Title: "Grand opening", Content: "Everything 10% off", Type: entities.AdTypeText})
	var fieldErr *entities.AdFieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, entities.AdFieldAdvertiser, fieldErr.Field)

	pending, err := env.admin.ListPending(ctx, testAdminID, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
