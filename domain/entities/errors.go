package entities

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrUserNotFound        = errors.New("user not found")
	ErrUserNotRegistered   = errors.New("user is not registered")
	ErrRequestNotFound     = errors.New("request not found")
	ErrRequestNotPending   = errors.New("request has already been processed")
	ErrNotAuthorized       = errors.New("not authorized")
	ErrAmountBelowMinimum  = errors.New("amount is below the minimum")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidPhone        = errors.New("invalid phone number")
	ErrInvalidMethod       = errors.New("unknown payment method")
	ErrInvalidAdType       = errors.New("unknown advertisement type")
	ErrInvalidSetting      = errors.New("invalid setting value")
	ErrAlreadyDrawn        = errors.New("draw already completed for this date")
	ErrDuplicateKey        = errors.New("duplicate key")
)

// InsufficientBalanceError reports how much was available and how much was needed
type InsufficientBalanceError struct {
	Have int64
	Need int64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: have %d, need %d", e.Have, e.Need)
}

// Shortfall is the amount missing to cover the debit
func (e *InsufficientBalanceError) Shortfall() int64 {
	return e.Need - e.Have
}

// Is lets errors.Is match ErrInsufficientBalance
func (e *InsufficientBalanceError) Is(target error) bool {
	return target == ErrInsufficientBalance
}

// MinimumAmountError carries the configured minimum for a deposit or withdrawal
type MinimumAmountError struct {
	Minimum int64
}

func (e *MinimumAmountError) Error() string {
	return fmt.Sprintf("amount is below the minimum of %d", e.Minimum)
}

func (e *MinimumAmountError) Is(target error) bool {
	return target == ErrAmountBelowMinimum
}
