package bot

import (
	"context"
	"strings"
	"sync"

	"luckydraw/application/dto"
	"luckydraw/domain/entities"
	"luckydraw/domain/interfaces"

	"github.com/stretchr/testify/mock"
)

// MockWallet is a mock implementation of Wallet
type MockWallet struct {
	mock.Mock
}

func (m *MockWallet) EnsureUser(ctx context.Context, userID int64, username, displayName string) (*entities.User, error) {
	args := m.Called(ctx, userID, username, displayName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockWallet) Register(ctx context.Context, userID int64, phone, displayName string) (*entities.User, error) {
	args := m.Called(ctx, userID, phone, displayName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockWallet) Account(ctx context.Context, userID int64) (*entities.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockWallet) MinimumAmounts(ctx context.Context) (int64, int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

func (m *MockWallet) SubmitDeposit(ctx context.Context, userID, amount int64, method entities.PaymentMethod, proofRef string) (*entities.PaymentRequest, error) {
	args := m.Called(ctx, userID, amount, method, proofRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PaymentRequest), args.Error(1)
}

func (m *MockWallet) SubmitWithdrawal(ctx context.Context, userID, amount int64, method entities.PaymentMethod, accountName, accountPhone string) (*entities.WithdrawalRequest, int64, error) {
	args := m.Called(ctx, userID, amount, method, accountName, accountPhone)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).(*entities.WithdrawalRequest), args.Get(1).(int64), args.Error(2)
}

func (m *MockWallet) SubmitAd(ctx context.Context, userID int64, draft entities.AdDraft) (*entities.Advertisement, error) {
	args := m.Called(ctx, userID, draft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Advertisement), args.Error(1)
}

func (m *MockWallet) QuoteTickets(ctx context.Context, userID int64, count int) (*entities.TicketQuote, error) {
	args := m.Called(ctx, userID, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.TicketQuote), args.Error(1)
}

func (m *MockWallet) ConfirmTickets(ctx context.Context, userID int64, count int) (*interfaces.TicketPurchaseResult, error) {
	args := m.Called(ctx, userID, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.TicketPurchaseResult), args.Error(1)
}

func (m *MockWallet) History(ctx context.Context, userID int64, limit int) ([]*entities.Transaction, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Transaction), args.Error(1)
}

func (m *MockWallet) MyTickets(ctx context.Context, userID int64) (*dto.TicketList, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.TicketList), args.Error(1)
}

func (m *MockWallet) DrawPreview(ctx context.Context) (*entities.DrawPreview, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.DrawPreview), args.Error(1)
}

// MockAdmin is a mock implementation of Admin and AdminDirectory
type MockAdmin struct {
	mock.Mock
}

func (m *MockAdmin) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockAdmin) AdminIDs(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockAdmin) ApproveRequest(ctx context.Context, ref entities.RequestRef, adminID int64) (*dto.DecisionResult, error) {
	args := m.Called(ctx, ref, adminID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.DecisionResult), args.Error(1)
}

func (m *MockAdmin) RejectRequest(ctx context.Context, ref entities.RequestRef, adminID int64, note string) (*dto.DecisionResult, error) {
	args := m.Called(ctx, ref, adminID, note)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.DecisionResult), args.Error(1)
}

func (m *MockAdmin) HoldRequest(ctx context.Context, ref entities.RequestRef, adminID int64, note string) (*dto.DecisionResult, error) {
	args := m.Called(ctx, ref, adminID, note)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.DecisionResult), args.Error(1)
}

func (m *MockAdmin) ListPending(ctx context.Context, adminID int64, limit int) ([]*entities.RequestSummary, error) {
	args := m.Called(ctx, adminID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.RequestSummary), args.Error(1)
}

func (m *MockAdmin) Stats(ctx context.Context, adminID int64) (*dto.AdminStats, error) {
	args := m.Called(ctx, adminID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.AdminStats), args.Error(1)
}

func (m *MockAdmin) SetSetting(ctx context.Context, adminID int64, key, value string) error {
	args := m.Called(ctx, adminID, key, value)
	return args.Error(0)
}

func (m *MockAdmin) Reconcile(ctx context.Context, adminID int64) ([]entities.LedgerDiscrepancy, error) {
	args := m.Called(ctx, adminID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.LedgerDiscrepancy), args.Error(1)
}

// fakeGateway records outgoing messages
type fakeGateway struct {
	mu      sync.Mutex
	sent    []OutgoingMessage
	photos  []OutgoingMessage
	failFor map[int64]bool
	updates chan Update
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{failFor: map[int64]bool{}, updates: make(chan Update, 16)}
}

func (g *fakeGateway) Updates(ctx context.Context) (<-chan Update, error) {
	return g.updates, nil
}

func (g *fakeGateway) Send(ctx context.Context, msg OutgoingMessage) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failFor[msg.UserID] {
		return context.DeadlineExceeded
	}
	g.sent = append(g.sent, msg)
	return nil
}

func (g *fakeGateway) SendPhoto(ctx context.Context, msg OutgoingMessage) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.photos = append(g.photos, msg)
	return nil
}

func (g *fakeGateway) Close() error {
	return nil
}

func (g *fakeGateway) messages() []OutgoingMessage {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]OutgoingMessage(nil), g.sent...)
}

func (g *fakeGateway) last() OutgoingMessage {
	msgs := g.messages()
	if len(msgs) == 0 {
		return OutgoingMessage{}
	}
	return msgs[len(msgs)-1]
}

func (g *fakeGateway) anyContains(substr string) bool {
	for _, m := range g.messages() {
		if strings.Contains(m.Text, substr) {
			return true
		}
	}
	return false
}
