package entities

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// PaymentMethod is one of the manual mobile-money channels
type PaymentMethod string

const (
	PaymentMethodKPay    PaymentMethod = "kpay"
	PaymentMethodWavePay PaymentMethod = "wavepay"
)

// ParsePaymentMethod accepts the method name in any case, with or without a space
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	normalized := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	switch normalized {
	case "kpay", "kbzpay":
		return PaymentMethodKPay, nil
	case "wavepay", "wave", "wavemoney":
		return PaymentMethodWavePay, nil
	}
	return "", ErrInvalidMethod
}

// DisplayName returns the brand name shown to users
func (m PaymentMethod) DisplayName() string {
	switch m {
	case PaymentMethodKPay:
		return "KPay"
	case PaymentMethodWavePay:
		return "WavePay"
	default:
		return string(m)
	}
}

// RequestStatus is the lifecycle state of a deposit or withdrawal request
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
	RequestStatusOnHold   RequestStatus = "on_hold"
)

// IsFinal reports whether no further decision can be applied
func (s RequestStatus) IsFinal() bool {
	return s != RequestStatusPending
}

// RequestKind distinguishes the request tables an admin decides on
type RequestKind string

const (
	RequestKindDeposit       RequestKind = "deposit"
	RequestKindWithdrawal    RequestKind = "withdrawal"
	RequestKindAdvertisement RequestKind = "advertisement"
)

// RequestRef addresses a request across the request tables, e.g. "D12", "W7" or "A3"
type RequestRef struct {
	Kind RequestKind
	ID   int64
}

func (r RequestRef) String() string {
	switch r.Kind {
	case RequestKindWithdrawal:
		return fmt.Sprintf("W%d", r.ID)
	case RequestKindAdvertisement:
		return fmt.Sprintf("A%d", r.ID)
	}
	return fmt.Sprintf("D%d", r.ID)
}

// ParseRequestRef parses "D12"/"W7"/"A3" (case-insensitive)
func ParseRequestRef(s string) (RequestRef, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return RequestRef{}, fmt.Errorf("invalid request reference %q", s)
	}

	var kind RequestKind
	switch s[0] {
	case 'D', 'd':
		kind = RequestKindDeposit
	case 'W', 'w':
		kind = RequestKindWithdrawal
	case 'A', 'a':
		kind = RequestKindAdvertisement
	default:
		return RequestRef{}, fmt.Errorf("invalid request reference %q", s)
	}

	id, err := strconv.ParseInt(s[1:], 10, 64)
	if err != nil || id <= 0 {
		return RequestRef{}, fmt.Errorf("invalid request reference %q", s)
	}
	return RequestRef{Kind: kind, ID: id}, nil
}

// PaymentRequest is a user's claim that they sent money to one of our accounts
type PaymentRequest struct {
	ID            int64         `db:"id"`
	UserID        int64         `db:"user_id"`
	Amount        int64         `db:"amount"`
	Method        PaymentMethod `db:"method"`
	ProofRef      string        `db:"proof_ref"`
	Status        RequestStatus `db:"status"`
	AdminID       *int64        `db:"admin_id"`
	AdminNote     string        `db:"admin_note"`
	TransactionID string        `db:"transaction_id"`
	CreatedAt     time.Time     `db:"created_at"`
	ProcessedAt   *time.Time    `db:"processed_at"`
}

// Ref returns the request reference
func (p *PaymentRequest) Ref() RequestRef {
	return RequestRef{Kind: RequestKindDeposit, ID: p.ID}
}

// IsPending reports whether the request still awaits a decision
func (p *PaymentRequest) IsPending() bool {
	return p.Status == RequestStatusPending
}

// WithdrawalRequest is a user's request to be paid out; the amount is held at creation
type WithdrawalRequest struct {
	ID            int64         `db:"id"`
	UserID        int64         `db:"user_id"`
	Amount        int64         `db:"amount"`
	Method        PaymentMethod `db:"method"`
	AccountName   string        `db:"account_name"`
	AccountPhone  string        `db:"account_phone"`
	Status        RequestStatus `db:"status"`
	AdminID       *int64        `db:"admin_id"`
	AdminNote     string        `db:"admin_note"`
	TransactionID string        `db:"transaction_id"`
	CreatedAt     time.Time     `db:"created_at"`
	ProcessedAt   *time.Time    `db:"processed_at"`
}

// Ref returns the request reference
func (w *WithdrawalRequest) Ref() RequestRef {
	return RequestRef{Kind: RequestKindWithdrawal, ID: w.ID}
}

// IsPending reports whether the request still awaits a decision
func (w *WithdrawalRequest) IsPending() bool {
	return w.Status == RequestStatusPending
}

// RequestSummary is the uniform view of either request kind used by admin listings
type RequestSummary struct {
	Ref           RequestRef
	UserID        int64
	Amount        int64
	Method        PaymentMethod
	Detail        string // proof reference, destination account or ad title
	Status        RequestStatus
	AdminID       *int64
	AdminNote     string
	TransactionID string
	CreatedAt     time.Time
}

// SummaryOfDeposit builds a RequestSummary from a deposit request
func SummaryOfDeposit(p *PaymentRequest) *RequestSummary {
	return &RequestSummary{
		Ref:           p.Ref(),
		UserID:        p.UserID,
		Amount:        p.Amount,
		Method:        p.Method,
		Detail:        p.ProofRef,
		Status:        p.Status,
		AdminID:       p.AdminID,
		AdminNote:     p.AdminNote,
		TransactionID: p.TransactionID,
		CreatedAt:     p.CreatedAt,
	}
}

// SummaryOfWithdrawal builds a RequestSummary from a withdrawal request
func SummaryOfWithdrawal(w *WithdrawalRequest) *RequestSummary {
	detail := w.AccountPhone
	if w.AccountName != "" {
		detail = w.AccountName + " " + w.AccountPhone
	}
	return &RequestSummary{
		Ref:           w.Ref(),
		UserID:        w.UserID,
		Amount:        w.Amount,
		Method:        w.Method,
		Detail:        detail,
		Status:        w.Status,
		AdminID:       w.AdminID,
		AdminNote:     w.AdminNote,
		TransactionID: w.TransactionID,
		CreatedAt:     w.CreatedAt,
	}
}
