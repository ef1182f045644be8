package repository

import (
	"context"
	"errors"
	"fmt"

	"luckydraw/database"
	"luckydraw/domain/entities"

	"github.com/jackc/pgx/v5"
)

const transactionColumns = `id, transaction_id, user_id, type, amount, balance_before, balance_after,
	status, description, metadata, created_at, updated_at`

// TransactionRepository implements the ledger table
type TransactionRepository struct {
	q Queryable
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *database.DB) *TransactionRepository {
	return &TransactionRepository{q: db.Pool}
}

// NewTransactionRepositoryScoped creates a new transaction repository bound to a transaction
func NewTransactionRepositoryScoped(tx Queryable) *TransactionRepository {
	return &TransactionRepository{q: tx}
}

func scanTransaction(row rowScanner) (*entities.Transaction, error) {
	var tx entities.Transaction
	err := row.Scan(
		&tx.ID,
		&tx.TransactionID,
		&tx.UserID,
		&tx.Type,
		&tx.Amount,
		&tx.BalanceBefore,
		&tx.BalanceAfter,
		&tx.Status,
		&tx.Description,
		&tx.Metadata,
		&tx.CreatedAt,
		&tx.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// Create appends a ledger row. A taken transaction id returns ErrDuplicateKey without
// aborting the surrounding transaction.
func (r *TransactionRepository) Create(ctx context.Context, tx *entities.Transaction) error {
	query := `
		INSERT INTO transactions (
			transaction_id, user_id, type, amount, balance_before, balance_after,
			status, description, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (transaction_id) DO NOTHING
		RETURNING id, created_at, updated_at
	`

	metadata := tx.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	err := r.q.QueryRow(ctx, query,
		tx.TransactionID,
		tx.UserID,
		tx.Type,
		tx.Amount,
		tx.BalanceBefore,
		tx.BalanceAfter,
		tx.Status,
		tx.Description,
		metadata,
	).Scan(&tx.ID, &tx.CreatedAt, &tx.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return entities.ErrDuplicateKey
	}
	if err != nil {
		return fmt.Errorf("failed to insert transaction %s: %w", tx.TransactionID, err)
	}
	return nil
}

// GetByTransactionID retrieves a ledger row by its public id
func (r *TransactionRepository) GetByTransactionID(ctx context.Context, transactionID string) (*entities.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE transaction_id = $1`

	tx, err := scanTransaction(r.q.QueryRow(ctx, query, transactionID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction %s: %w", transactionID, err)
	}
	return tx, nil
}

// MarkCompleted settles a pending row. Settling a row twice is an error.
func (r *TransactionRepository) MarkCompleted(ctx context.Context, transactionID string) error {
	query := `
		UPDATE transactions
		SET status = 'completed', updated_at = NOW()
		WHERE transaction_id = $1 AND status = 'pending'
	`

	tag, err := r.q.Exec(ctx, query, transactionID)
	if err != nil {
		return fmt.Errorf("failed to complete transaction %s: %w", transactionID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction %s is not pending", transactionID)
	}
	return nil
}

// ListByUser returns the user's newest rows first
func (r *TransactionRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*entities.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions for user %d: %w", userID, err)
	}
	defer rows.Close()

	var txs []*entities.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// SumByUser returns the sum of all of the user's rows
func (r *TransactionRepository) SumByUser(ctx context.Context, userID int64) (int64, error) {
	var sum int64
	err := r.q.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE user_id = $1`, userID).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("failed to sum transactions for user %d: %w", userID, err)
	}
	return sum, nil
}

// FindDiscrepancies returns every user whose balance is not the sum of their rows
func (r *TransactionRepository) FindDiscrepancies(ctx context.Context) ([]entities.LedgerDiscrepancy, error) {
	query := `
		SELECT u.id, u.balance, COALESCE(SUM(t.amount), 0) AS ledger_sum
		FROM users u
		LEFT JOIN transactions t ON t.user_id = u.id
		GROUP BY u.id, u.balance
		HAVING u.balance <> COALESCE(SUM(t.amount), 0)
		ORDER BY u.id
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to reconcile ledger: %w", err)
	}
	defer rows.Close()

	var result []entities.LedgerDiscrepancy
	for rows.Next() {
		var d entities.LedgerDiscrepancy
		if err := rows.Scan(&d.UserID, &d.Balance, &d.LedgerSum); err != nil {
			return nil, fmt.Errorf("failed to scan discrepancy: %w", err)
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

// SumByType totals all rows of one type
func (r *TransactionRepository) SumByType(ctx context.Context, txType entities.TransactionType) (int64, error) {
	var sum int64
	err := r.q.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE type = $1`, txType).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("failed to sum %s transactions: %w", txType, err)
	}
	return sum, nil
}
