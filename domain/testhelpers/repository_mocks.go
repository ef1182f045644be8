package testhelpers

import (
	"context"
	"time"

	"luckydraw/domain/entities"
	"luckydraw/domain/events"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*entities.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockUserRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockUserRepository) Upsert(ctx context.Context, id int64, username, displayName string) (*entities.User, error) {
	args := m.Called(ctx, id, username, displayName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockUserRepository) Register(ctx context.Context, id int64, phone, displayName string) (*entities.User, error) {
	args := m.Called(ctx, id, phone, displayName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockUserRepository) AdjustBalance(ctx context.Context, id int64, delta int64) (int64, int64, error) {
	args := m.Called(ctx, id, delta)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) IncrementCounters(ctx context.Context, id int64, spent, won, tickets int64) error {
	args := m.Called(ctx, id, spent, won, tickets)
	return args.Error(0)
}

func (m *MockUserRepository) Count(ctx context.Context) (int64, int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) TotalBalance(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockTransactionRepository is a mock implementation of TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx *entities.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionRepository) GetByTransactionID(ctx context.Context, transactionID string) (*entities.Transaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) MarkCompleted(ctx context.Context, transactionID string) error {
	args := m.Called(ctx, transactionID)
	return args.Error(0)
}

func (m *MockTransactionRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*entities.Transaction, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) SumByUser(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTransactionRepository) FindDiscrepancies(ctx context.Context) ([]entities.LedgerDiscrepancy, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.LedgerDiscrepancy), args.Error(1)
}

func (m *MockTransactionRepository) SumByType(ctx context.Context, txType entities.TransactionType) (int64, error) {
	args := m.Called(ctx, txType)
	return args.Get(0).(int64), args.Error(1)
}

// MockPaymentRequestRepository is a mock implementation of PaymentRequestRepository
type MockPaymentRequestRepository struct {
	mock.Mock
}

func (m *MockPaymentRequestRepository) Create(ctx context.Context, req *entities.PaymentRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockPaymentRequestRepository) GetByID(ctx context.Context, id int64) (*entities.PaymentRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PaymentRequest), args.Error(1)
}

func (m *MockPaymentRequestRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.PaymentRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PaymentRequest), args.Error(1)
}

func (m *MockPaymentRequestRepository) Decide(ctx context.Context, id int64, status entities.RequestStatus, adminID int64, note string) (bool, error) {
	args := m.Called(ctx, id, status, adminID, note)
	return args.Bool(0), args.Error(1)
}

func (m *MockPaymentRequestRepository) ListPending(ctx context.Context, limit int) ([]*entities.PaymentRequest, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.PaymentRequest), args.Error(1)
}

func (m *MockPaymentRequestRepository) CountPending(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockWithdrawalRequestRepository is a mock implementation of WithdrawalRequestRepository
type MockWithdrawalRequestRepository struct {
	mock.Mock
}

func (m *MockWithdrawalRequestRepository) Create(ctx context.Context, req *entities.WithdrawalRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockWithdrawalRequestRepository) GetByID(ctx context.Context, id int64) (*entities.WithdrawalRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.WithdrawalRequest), args.Error(1)
}

func (m *MockWithdrawalRequestRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.WithdrawalRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.WithdrawalRequest), args.Error(1)
}

func (m *MockWithdrawalRequestRepository) Decide(ctx context.Context, id int64, status entities.RequestStatus, adminID int64, note string) (bool, error) {
	args := m.Called(ctx, id, status, adminID, note)
	return args.Bool(0), args.Error(1)
}

func (m *MockWithdrawalRequestRepository) ListPending(ctx context.Context, limit int) ([]*entities.WithdrawalRequest, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.WithdrawalRequest), args.Error(1)
}

func (m *MockWithdrawalRequestRepository) CountPending(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockAdvertisementRepository is a mock implementation of AdvertisementRepository
type MockAdvertisementRepository struct {
	mock.Mock
}

func (m *MockAdvertisementRepository) Create(ctx context.Context, ad *entities.Advertisement) error {
	args := m.Called(ctx, ad)
	return args.Error(0)
}

func (m *MockAdvertisementRepository) GetByID(ctx context.Context, id int64) (*entities.Advertisement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Advertisement), args.Error(1)
}

func (m *MockAdvertisementRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.Advertisement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Advertisement), args.Error(1)
}

func (m *MockAdvertisementRepository) Decide(ctx context.Context, id int64, status entities.RequestStatus, adminID int64, note string) (bool, error) {
	args := m.Called(ctx, id, status, adminID, note)
	return args.Bool(0), args.Error(1)
}

func (m *MockAdvertisementRepository) ListPending(ctx context.Context, limit int) ([]*entities.Advertisement, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Advertisement), args.Error(1)
}

func (m *MockAdvertisementRepository) CountPending(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockTicketRepository is a mock implementation of TicketRepository
type MockTicketRepository struct {
	mock.Mock
}

func (m *MockTicketRepository) CreateBatch(ctx context.Context, tickets []*entities.Ticket) error {
	args := m.Called(ctx, tickets)
	return args.Error(0)
}

func (m *MockTicketRepository) ListByUserAndDrawDate(ctx context.Context, userID int64, drawDate time.Time) ([]*entities.Ticket, error) {
	args := m.Called(ctx, userID, drawDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Ticket), args.Error(1)
}

func (m *MockTicketRepository) GetBuyersForDrawDate(ctx context.Context, drawDate time.Time) ([]*entities.TicketBuyer, error) {
	args := m.Called(ctx, drawDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.TicketBuyer), args.Error(1)
}

func (m *MockTicketRepository) SumSalesForDrawDate(ctx context.Context, drawDate time.Time) (int64, int64, error) {
	args := m.Called(ctx, drawDate)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

// MockDrawRepository is a mock implementation of DrawRepository
type MockDrawRepository struct {
	mock.Mock
}

func (m *MockDrawRepository) Create(ctx context.Context, draw *entities.Draw) error {
	args := m.Called(ctx, draw)
	return args.Error(0)
}

func (m *MockDrawRepository) GetByDate(ctx context.Context, drawDate time.Time) (*entities.Draw, error) {
	args := m.Called(ctx, drawDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Draw), args.Error(1)
}

func (m *MockDrawRepository) GetLatest(ctx context.Context) (*entities.Draw, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Draw), args.Error(1)
}

func (m *MockDrawRepository) LockDate(ctx context.Context, drawDate time.Time) error {
	args := m.Called(ctx, drawDate)
	return args.Error(0)
}

// MockWinnerRepository is a mock implementation of WinnerRepository
type MockWinnerRepository struct {
	mock.Mock
}

func (m *MockWinnerRepository) Create(ctx context.Context, winner *entities.Winner) error {
	args := m.Called(ctx, winner)
	return args.Error(0)
}

func (m *MockWinnerRepository) ListByDraw(ctx context.Context, drawID int64) ([]*entities.Winner, error) {
	args := m.Called(ctx, drawID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Winner), args.Error(1)
}

func (m *MockWinnerRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*entities.Winner, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Winner), args.Error(1)
}

// MockSettingRepository is a mock implementation of SettingRepository
type MockSettingRepository struct {
	mock.Mock
}

func (m *MockSettingRepository) Get(ctx context.Context, key string) (*entities.Setting, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Setting), args.Error(1)
}

func (m *MockSettingRepository) GetAll(ctx context.Context) ([]*entities.Setting, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Setting), args.Error(1)
}

func (m *MockSettingRepository) Set(ctx context.Context, key, value string, updatedBy *int64) error {
	args := m.Called(ctx, key, value, updatedBy)
	return args.Error(0)
}

func (m *MockSettingRepository) SetIfAbsent(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}
