package repository

import (
	"context"
	"testing"
	"time"

	"luckydraw/domain/entities"
	"luckydraw/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrawRepository_CreateOncePerDate(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	repo := NewDrawRepositoryScoped(testDB.DB.Pool)
	ctx := context.Background()
	date := drawDate(2025, 6, 1)

	draw := &entities.Draw{DrawDate: date, Status: entities.DrawStatusNoPrize, TotalSales: 100, PrizePool: 0}
	require.NoError(t, repo.Create(ctx, draw))
	assert.NotZero(t, draw.ID)

	err := repo.Create(ctx, &entities.Draw{DrawDate: date, Status: entities.DrawStatusNoSales})
	assert.ErrorIs(t, err, entities.ErrAlreadyDrawn)

	stored, err := repo.GetByDate(ctx, date)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, entities.DrawStatusNoPrize, stored.Status)

	missing, err := repo.GetByDate(ctx, drawDate(2025, 6, 2))
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDrawRepository_LockDate(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	date := drawDate(2025, 6, 1)

	holder, err := testDB.DB.Pool.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = holder.Rollback(ctx) }()
	require.NoError(t, NewDrawRepositoryScoped(holder).LockDate(ctx, date))

	t.Run("another date is not blocked", func(t *testing.T) {
		other, err := testDB.DB.Pool.Begin(ctx)
		require.NoError(t, err)
		defer func() { _ = other.Rollback(ctx) }()

		lockCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		assert.NoError(t, NewDrawRepositoryScoped(other).LockDate(lockCtx, drawDate(2025, 6, 2)))
	})

	waiter, err := testDB.DB.Pool.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = waiter.Rollback(ctx) }()

	acquired := make(chan error, 1)
	go func() {
		acquired <- NewDrawRepositoryScoped(waiter).LockDate(ctx, date)
	}()

	select {
	case err := <-acquired:
		t.Fatalf("lock acquired while held by another transaction: %v", err)
	case <-time.After(300 * time.Millisecond):
	}

	require.NoError(t, holder.Commit(ctx))

	select {
	case err := <-acquired:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("lock not released at commit")
	}
}
