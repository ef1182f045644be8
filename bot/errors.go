package bot

import (
	"context"
	"errors"
	"fmt"

	"luckydraw/domain/entities"
	"luckydraw/domain/utils"

	log "github.com/sirupsen/logrus"
)

// BotError represents a structured error with user-facing and internal messages
type BotError struct {
	UserMessage string // Message shown to the user
	LogMessage  string // Internal message for logging
	Err         error  // Underlying error
}

// Error implements the error interface
func (e *BotError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.LogMessage, e.Err)
	}
	return e.LogMessage
}

// Unwrap returns the underlying error
func (e *BotError) Unwrap() error {
	return e.Err
}

// NewUserError creates an error for user-caused issues (validation, insufficient funds, etc)
func NewUserError(userMessage string, logMessage string) *BotError {
	return &BotError{
		UserMessage: userMessage,
		LogMessage:  logMessage,
	}
}

// NewSystemError creates an error for system issues (database, unexpected state, etc)
func NewSystemError(err error, logMessage string) *BotError {
	return &BotError{
		UserMessage: "❌ Something went wrong. Please try again later.",
		LogMessage:  logMessage,
		Err:         err,
	}
}

// classifyError turns a domain error into a BotError with a message the user can act on
func classifyError(err error) *BotError {
	var botErr *BotError
	if errors.As(err, &botErr) {
		return botErr
	}

	var insufficient *entities.InsufficientBalanceError
	if errors.As(err, &insufficient) {
		return &BotError{
			UserMessage: fmt.Sprintf("❌ Insufficient balance. You have %s and need %s (short by %s).",
				utils.FormatKyat(insufficient.Have), utils.FormatKyat(insufficient.Need), utils.FormatKyat(insufficient.Shortfall())),
			LogMessage: "insufficient balance",
			Err:        err,
		}
	}

	var minimum *entities.MinimumAmountError
	if errors.As(err, &minimum) {
		return &BotError{
			UserMessage: fmt.Sprintf("❌ The minimum amount is %s.", utils.FormatKyat(minimum.Minimum)),
			LogMessage:  "amount below minimum",
			Err:         err,
		}
	}

	var adField *entities.AdFieldError
	if errors.As(err, &adField) {
		return &BotError{
			UserMessage: fmt.Sprintf("❌ The %s must be %d to %d characters.", adField.Field.Name, adField.Field.Min, adField.Field.Max),
			LogMessage:  "invalid advertisement field",
			Err:         err,
		}
	}

	userMessages := []struct {
		target  error
		message string
	}{
		{entities.ErrUserNotRegistered, "❌ Please /register first."},
		{entities.ErrUserNotFound, "❌ Please /start and /register first."},
		{entities.ErrNotAuthorized, "❌ You are not allowed to do that."},
		{entities.ErrRequestNotFound, "❌ Request not found."},
		{entities.ErrRequestNotPending, "❌ This request was already processed."},
		{entities.ErrInvalidPhone, "❌ Invalid phone number. Use the format 09xxxxxxxxx."},
		{entities.ErrInvalidMethod, "❌ Unknown payment method. Choose KPay or WavePay."},
		{entities.ErrInvalidAdType, "❌ Unknown advertisement type. Choose Text, Banner or Sponsored."},
		{entities.ErrInvalidAmount, "❌ Invalid amount."},
		{entities.ErrInvalidSetting, "❌ Invalid value."},
		{entities.ErrAlreadyDrawn, "❌ That draw has already run."},
	}
	for _, m := range userMessages {
		if errors.Is(err, m.target) {
			return &BotError{UserMessage: m.message, LogMessage: m.target.Error(), Err: err}
		}
	}

	return NewSystemError(err, "unexpected error")
}

// handleError logs err and tells the user what went wrong
func (r *Router) handleError(ctx context.Context, u Update, err error) {
	botErr := classifyError(err)

	fields := log.Fields{
		"userID":       u.UserID,
		"text":         u.Text,
		"user_message": botErr.UserMessage,
	}
	if botErr.Err != nil {
		fields["error"] = botErr.Err.Error()
	}
	if errors.Is(botErr, entities.ErrInsufficientBalance) || botErr.Err == nil || botErr.LogMessage != "unexpected error" {
		log.WithFields(fields).Info(botErr.LogMessage)
	} else {
		log.WithFields(fields).Error(botErr.LogMessage)
	}

	r.reply(ctx, u, botErr.UserMessage)
}
