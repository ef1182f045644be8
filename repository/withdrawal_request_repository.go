package repository

import (
	"context"
	"errors"
	"fmt"

	"luckydraw/domain/entities"

	"github.com/jackc/pgx/v5"
)

const withdrawalRequestColumns = `id, user_id, amount, method, account_name, account_phone, status,
	admin_id, admin_note, transaction_id, created_at, processed_at`

// WithdrawalRequestRepository stores withdrawal requests
type WithdrawalRequestRepository struct {
	q Queryable
}

// NewWithdrawalRequestRepositoryScoped creates a new withdrawal request repository bound to a transaction
func NewWithdrawalRequestRepositoryScoped(tx Queryable) *WithdrawalRequestRepository {
	return &WithdrawalRequestRepository{q: tx}
}

func scanWithdrawalRequest(row rowScanner) (*entities.WithdrawalRequest, error) {
	var req entities.WithdrawalRequest
	err := row.Scan(
		&req.ID,
		&req.UserID,
		&req.Amount,
		&req.Method,
		&req.AccountName,
		&req.AccountPhone,
		&req.Status,
		&req.AdminID,
		&req.AdminNote,
		&req.TransactionID,
		&req.CreatedAt,
		&req.ProcessedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// Create inserts a pending withdrawal request
func (r *WithdrawalRequestRepository) Create(ctx context.Context, req *entities.WithdrawalRequest) error {
	query := `
		INSERT INTO withdrawal_requests (user_id, amount, method, account_name, account_phone, status, transaction_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		req.UserID, req.Amount, req.Method, req.AccountName, req.AccountPhone, req.Status, req.TransactionID,
	).Scan(&req.ID, &req.CreatedAt)
	if isUniqueViolation(err) {
		return entities.ErrDuplicateKey
	}
	if err != nil {
		return fmt.Errorf("failed to create withdrawal request: %w", err)
	}
	return nil
}

func (r *WithdrawalRequestRepository) get(ctx context.Context, query string, id int64) (*entities.WithdrawalRequest, error) {
	req, err := scanWithdrawalRequest(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get withdrawal request %d: %w", id, err)
	}
	return req, nil
}

// GetByID retrieves a withdrawal request
func (r *WithdrawalRequestRepository) GetByID(ctx context.Context, id int64) (*entities.WithdrawalRequest, error) {
	return r.get(ctx, `SELECT `+withdrawalRequestColumns+` FROM withdrawal_requests WHERE id = $1`, id)
}

// GetByIDForUpdate retrieves a withdrawal request and locks it until the transaction ends
func (r *WithdrawalRequestRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.WithdrawalRequest, error) {
	return r.get(ctx, `SELECT `+withdrawalRequestColumns+` FROM withdrawal_requests WHERE id = $1 FOR UPDATE`, id)
}

// Decide moves a pending request to status. It reports false when the request was already decided.
func (r *WithdrawalRequestRepository) Decide(ctx context.Context, id int64, status entities.RequestStatus, adminID int64, note string) (bool, error) {
	query := `
		UPDATE withdrawal_requests
		SET status = $2, admin_id = $3, admin_note = $4, processed_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`

	tag, err := r.q.Exec(ctx, query, id, status, adminID, note)
	if err != nil {
		return false, fmt.Errorf("failed to decide withdrawal request %d: %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListPending returns pending withdrawals, oldest first
func (r *WithdrawalRequestRepository) ListPending(ctx context.Context, limit int) ([]*entities.WithdrawalRequest, error) {
	query := `
		SELECT ` + withdrawalRequestColumns + `
		FROM withdrawal_requests
		WHERE status = 'pending'
		ORDER BY created_at, id
		LIMIT $1
	`

	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending withdrawals: %w", err)
	}
	defer rows.Close()

	var result []*entities.WithdrawalRequest
	for rows.Next() {
		req, err := scanWithdrawalRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan withdrawal request: %w", err)
		}
		result = append(result, req)
	}
	return result, rows.Err()
}

// CountPending counts undecided withdrawals
func (r *WithdrawalRequestRepository) CountPending(ctx context.Context) (int64, error) {
	var count int64
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM withdrawal_requests WHERE status = 'pending'`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count pending withdrawals: %w", err)
	}
	return count, nil
}
