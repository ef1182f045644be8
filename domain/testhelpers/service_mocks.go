package testhelpers

import (
	"context"

	"luckydraw/domain/entities"
	"luckydraw/domain/interfaces"

	"github.com/stretchr/testify/mock"
)

// MockLedgerService is a mock implementation of LedgerService
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) EnsureUser(ctx context.Context, userID int64, username, displayName string) (*entities.User, error) {
	args := m.Called(ctx, userID, username, displayName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockLedgerService) GetUser(ctx context.Context, userID int64) (*entities.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockLedgerService) GetBalance(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedgerService) AdjustBalance(ctx context.Context, userID int64, delta int64) (int64, int64, error) {
	args := m.Called(ctx, userID, delta)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

func (m *MockLedgerService) RecordTransaction(ctx context.Context, tx *entities.Transaction) (*entities.Transaction, error) {
	args := m.Called(ctx, tx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Transaction), args.Error(1)
}

func (m *MockLedgerService) Post(ctx context.Context, entry interfaces.LedgerEntry) (*entities.Transaction, error) {
	args := m.Called(ctx, entry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Transaction), args.Error(1)
}

func (m *MockLedgerService) CompleteTransaction(ctx context.Context, transactionID string) error {
	args := m.Called(ctx, transactionID)
	return args.Error(0)
}

func (m *MockLedgerService) History(ctx context.Context, userID int64, limit int) ([]*entities.Transaction, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Transaction), args.Error(1)
}

func (m *MockLedgerService) Reconcile(ctx context.Context) ([]entities.LedgerDiscrepancy, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.LedgerDiscrepancy), args.Error(1)
}

// MockSettingsService is a mock implementation of SettingsService
type MockSettingsService struct {
	mock.Mock
}

func (m *MockSettingsService) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockSettingsService) Set(ctx context.Context, key, value string, adminID int64) error {
	args := m.Called(ctx, key, value, adminID)
	return args.Error(0)
}

func (m *MockSettingsService) All(ctx context.Context) (map[string]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

func (m *MockSettingsService) SeedDefaults(ctx context.Context, defaults map[string]string) error {
	args := m.Called(ctx, defaults)
	return args.Error(0)
}

func (m *MockSettingsService) TicketPrice(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSettingsService) DrawTime(ctx context.Context) (int, int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Int(1), args.Error(2)
}

func (m *MockSettingsService) CommissionRate(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockSettingsService) DonationRate(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockSettingsService) MinDeposit(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSettingsService) MinWithdrawal(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSettingsService) MaxWinners(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockSettingsService) BuyersPerWinner(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockSettingsService) AdminIDs(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockSettingsService) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

// FixedRandom returns the queued values in order, modulo n
type FixedRandom struct {
	Values []int
	pos    int
}

func (r *FixedRandom) Intn(n int) int {
	if len(r.Values) == 0 {
		return 0
	}
	v := r.Values[r.pos%len(r.Values)]
	r.pos++
	return v % n
}
