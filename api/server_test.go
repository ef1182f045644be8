package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"luckydraw/application/dto"
	"luckydraw/domain/entities"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testSecret  = "test-secret"
	testAdminID = int64(999999)
)

// MockAdminAPI is a mock implementation of AdminAPI
type MockAdminAPI struct {
	mock.Mock
}

func (m *MockAdminAPI) GetRequest(ctx context.Context, ref entities.RequestRef, adminID int64) (*entities.RequestSummary, error) {
	args := m.Called(ctx, ref, adminID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.RequestSummary), args.Error(1)
}

func (m *MockAdminAPI) ListPending(ctx context.Context, adminID int64, limit int) ([]*entities.RequestSummary, error) {
	args := m.Called(ctx, adminID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.RequestSummary), args.Error(1)
}

func (m *MockAdminAPI) ApproveRequest(ctx context.Context, ref entities.RequestRef, adminID int64) (*dto.DecisionResult, error) {
	args := m.Called(ctx, ref, adminID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.DecisionResult), args.Error(1)
}

func (m *MockAdminAPI) RejectRequest(ctx context.Context, ref entities.RequestRef, adminID int64, note string) (*dto.DecisionResult, error) {
	args := m.Called(ctx, ref, adminID, note)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.DecisionResult), args.Error(1)
}

func (m *MockAdminAPI) HoldRequest(ctx context.Context, ref entities.RequestRef, adminID int64, note string) (*dto.DecisionResult, error) {
	args := m.Called(ctx, ref, adminID, note)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.DecisionResult), args.Error(1)
}

func (m *MockAdminAPI) Settings(ctx context.Context, adminID int64) (map[string]string, error) {
	args := m.Called(ctx, adminID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

func (m *MockAdminAPI) SetSetting(ctx context.Context, adminID int64, key, value string) error {
	return m.Called(ctx, adminID, key, value).Error(0)
}

func (m *MockAdminAPI) Stats(ctx context.Context, adminID int64) (*dto.AdminStats, error) {
	args := m.Called(ctx, adminID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.AdminStats), args.Error(1)
}

func (m *MockAdminAPI) Reconcile(ctx context.Context, adminID int64) ([]entities.LedgerDiscrepancy, error) {
	args := m.Called(ctx, adminID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.LedgerDiscrepancy), args.Error(1)
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(admin AdminAPI) http.Handler {
	return NewServer(Config{Port: 0, JWTSecret: testSecret}, admin).Handler()
}

func adminToken(t *testing.T, adminID int64) string {
	t.Helper()
	token, err := IssueAdminToken(testSecret, adminID, time.Hour, time.Now())
	require.NoError(t, err)
	return token
}

func do(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	t.Parallel()
	rec := do(t, newTestServer(new(MockAdminAPI)), http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestJWTAuth(t *testing.T) {
	t.Parallel()
	h := newTestServer(new(MockAdminAPI))

	expired, err := IssueAdminToken(testSecret, testAdminID, time.Hour, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	wrongSecret, err := IssueAdminToken("other-secret", testAdminID, time.Hour, time.Now())
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, AdminClaims{AdminID: testAdminID}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"missing", ""},
		{"expired", expired},
		{"wrong secret", wrongSecret},
		{"unsigned", none},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, "/api/v1/admin/stats", tt.token, "")
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestDecisionEndpoints(t *testing.T) {
	t.Parallel()
	admin := new(MockAdminAPI)
	h := newTestServer(admin)
	token := adminToken(t, testAdminID)

	deposit := entities.RequestRef{Kind: entities.RequestKindDeposit, ID: 12}
	withdrawal := entities.RequestRef{Kind: entities.RequestKindWithdrawal, ID: 7}

	admin.On("ApproveRequest", mock.Anything, deposit, testAdminID).Return(&dto.DecisionResult{
		Ref: deposit, Status: entities.RequestStatusApproved, UserID: 1, Amount: 10000, TransactionID: "DEP1", NewBalance: 10000,
	}, nil).Once()
	admin.On("RejectRequest", mock.Anything, withdrawal, testAdminID, "insufficient proof").Return(&dto.DecisionResult{
		Ref: withdrawal, Status: entities.RequestStatusRejected, UserID: 1, Amount: 5000, NewBalance: 10000,
	}, nil).Once()
	admin.On("HoldRequest", mock.Anything, deposit, testAdminID, "").Return(nil, entities.ErrRequestNotPending).Once()

	rec := do(t, h, http.MethodPost, "/api/v1/admin/requests/D12/approve", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var view decisionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "D12", view.Ref)
	assert.Equal(t, "approved", view.Status)
	assert.Equal(t, int64(10000), view.NewBalance)

	rec = do(t, h, http.MethodPost, "/api/v1/admin/requests/w7/reject", token, `{"note":"insufficient proof"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"rejected"`)

	rec = do(t, h, http.MethodPost, "/api/v1/admin/requests/D12/hold", token, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/v1/admin/requests/X9/approve", token, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	admin.AssertExpectations(t)
}

func TestErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", entities.ErrRequestNotFound, http.StatusNotFound},
		{"not authorized", entities.ErrNotAuthorized, http.StatusForbidden},
		{"not pending", entities.ErrRequestNotPending, http.StatusConflict},
		{"internal", context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			admin := new(MockAdminAPI)
			admin.On("GetRequest", mock.Anything, mock.Anything, testAdminID).Return(nil, tt.err)

			rec := do(t, newTestServer(admin), http.MethodGet, "/api/v1/admin/requests/D1", adminToken(t, testAdminID), "")
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestSettingsEndpoints(t *testing.T) {
	t.Parallel()
	admin := new(MockAdminAPI)
	h := newTestServer(admin)
	token := adminToken(t, testAdminID)

	admin.On("Settings", mock.Anything, testAdminID).Return(map[string]string{"ticket_price": "1000"}, nil)
	admin.On("SetSetting", mock.Anything, testAdminID, "draw_time", "19:00").Return(nil).Once()
	admin.On("SetSetting", mock.Anything, testAdminID, "ticket_price", "-5").Return(entities.ErrInvalidSetting).Once()

	rec := do(t, h, http.MethodGet, "/api/v1/admin/settings", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"settings":{"ticket_price":"1000"}}`, rec.Body.String())

	rec = do(t, h, http.MethodPut, "/api/v1/admin/settings/draw_time", token, `{"value":"19:00"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPut, "/api/v1/admin/settings/ticket_price", token, `{"value":"-5"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPut, "/api/v1/admin/settings/ticket_price", token, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	admin.AssertExpectations(t)
}

func TestPendingAndReconcile(t *testing.T) {
	t.Parallel()
	admin := new(MockAdminAPI)
	h := newTestServer(admin)
	token := adminToken(t, testAdminID)

	admin.On("ListPending", mock.Anything, testAdminID, 10).Return([]*entities.RequestSummary{
		{Ref: entities.RequestRef{Kind: entities.RequestKindDeposit, ID: 3}, UserID: 5, Amount: 2000, Method: entities.PaymentMethodKPay, Status: entities.RequestStatusPending},
	}, nil).Once()
	admin.On("Reconcile", mock.Anything, testAdminID).Return([]entities.LedgerDiscrepancy(nil), nil).Once()

	rec := do(t, h, http.MethodGet, "/api/v1/admin/requests/pending?limit=10", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Requests []requestView `json:"requests"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Requests, 1)
	assert.Equal(t, "D3", body.Requests[0].Ref)
	assert.Equal(t, "kpay", body.Requests[0].Method)

	rec = do(t, h, http.MethodGet, "/api/v1/admin/requests/pending?limit=0", token, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/v1/admin/ledger/reconcile", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"balanced":true,"discrepancies":[]}`, rec.Body.String())

	admin.AssertExpectations(t)
}
