package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"luckydraw/domain/entities"
	"luckydraw/domain/events"
	"luckydraw/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// maxTransactionIDAttempts bounds regeneration after a transaction id collision
const maxTransactionIDAttempts = 5

// RecordLedgerEntry writes a ledger row and emits a BalanceChangeEvent.
// It is the single place ledger rows are created. A missing transaction id is generated
// and regenerated on collision; an explicit id that collides is an error.
func RecordLedgerEntry(ctx context.Context, txRepo interfaces.TransactionRepository, eventPublisher interfaces.EventPublisher, tx *entities.Transaction, now time.Time) error {
	if err := tx.Validate(); err != nil {
		return fmt.Errorf("invalid ledger entry: %w", err)
	}

	generated := tx.TransactionID == ""
	for attempt := 1; ; attempt++ {
		if generated {
			tx.TransactionID = GenerateTransactionID(tx.Type.Prefix(), now)
		}

		err := txRepo.Create(ctx, tx)
		if err == nil {
			break
		}
		if !errors.Is(err, entities.ErrDuplicateKey) || !generated || attempt >= maxTransactionIDAttempts {
			return fmt.Errorf("failed to record transaction: %w", err)
		}
		log.WithFields(log.Fields{
			"transactionID": tx.TransactionID,
			"attempt":       attempt,
		}).Warn("Transaction id collision, regenerating")
	}

	event := events.BalanceChangeEvent{
		UserID:          tx.UserID,
		OldBalance:      tx.BalanceBefore,
		NewBalance:      tx.BalanceAfter,
		ChangeAmount:    tx.Amount,
		TransactionType: tx.Type,
		TransactionID:   tx.TransactionID,
	}
	log.WithFields(log.Fields{
		"userID":          event.UserID,
		"oldBalance":      event.OldBalance,
		"newBalance":      event.NewBalance,
		"transactionType": event.TransactionType,
		"transactionID":   event.TransactionID,
	}).Debug("Publishing BalanceChangeEvent")
	if err := eventPublisher.Publish(event); err != nil {
		log.WithError(err).Error("Failed to publish balance change event")
	}

	return nil
}
