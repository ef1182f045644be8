package repository

import (
	"context"
	"errors"
	"fmt"

	"luckydraw/domain/entities"

	"github.com/jackc/pgx/v5"
)

const paymentRequestColumns = `id, user_id, amount, method, proof_ref, status, admin_id, admin_note,
	transaction_id, created_at, processed_at`

// PaymentRequestRepository stores deposit requests
type PaymentRequestRepository struct {
	q Queryable
}

// NewPaymentRequestRepositoryScoped creates a new deposit request repository bound to a transaction
func NewPaymentRequestRepositoryScoped(tx Queryable) *PaymentRequestRepository {
	return &PaymentRequestRepository{q: tx}
}

func scanPaymentRequest(row rowScanner) (*entities.PaymentRequest, error) {
	var req entities.PaymentRequest
	err := row.Scan(
		&req.ID,
		&req.UserID,
		&req.Amount,
		&req.Method,
		&req.ProofRef,
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

// Create inserts a pending deposit request
func (r *PaymentRequestRepository) Create(ctx context.Context, req *entities.PaymentRequest) error {
	query := `
		INSERT INTO payment_requests (user_id, amount, method, proof_ref, status, transaction_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		req.UserID, req.Amount, req.Method, req.ProofRef, req.Status, req.TransactionID,
	).Scan(&req.ID, &req.CreatedAt)
	if isUniqueViolation(err) {
		return entities.ErrDuplicateKey
	}
	if err != nil {
		return fmt.Errorf("failed to create deposit request: %w", err)
	}
	return nil
}

func (r *PaymentRequestRepository) get(ctx context.Context, query string, id int64) (*entities.PaymentRequest, error) {
	req, err := scanPaymentRequest(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deposit request %d: %w", id, err)
	}
	return req, nil
}

// GetByID retrieves a deposit request
func (r *PaymentRequestRepository) GetByID(ctx context.Context, id int64) (*entities.PaymentRequest, error) {
	return r.get(ctx, `SELECT `+paymentRequestColumns+` FROM payment_requests WHERE id = $1`, id)
}

// GetByIDForUpdate retrieves a deposit request and locks it until the transaction ends
func (r *PaymentRequestRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.PaymentRequest, error) {
	return r.get(ctx, `SELECT `+paymentRequestColumns+` FROM payment_requests WHERE id = $1 FOR UPDATE`, id)
}

// Decide moves a pending request to status. It reports false when the request was already decided.
func (r *PaymentRequestRepository) Decide(ctx context.Context, id int64, status entities.RequestStatus, adminID int64, note string) (bool, error) {
	query := `
		UPDATE payment_requests
		SET status = $2, admin_id = $3, admin_note = $4, processed_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`

	tag, err := r.q.Exec(ctx, query, id, status, adminID, note)
	if err != nil {
		return false, fmt.Errorf("failed to decide deposit request %d: %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListPending returns pending deposits, oldest first
func (r *PaymentRequestRepository) ListPending(ctx context.Context, limit int) ([]*entities.PaymentRequest, error) {
	query := `
		SELECT ` + paymentRequestColumns + `
		FROM payment_requests
		WHERE status = 'pending'
		ORDER BY created_at, id
		LIMIT $1
	`

	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending deposits: %w", err)
	}
	defer rows.Close()

	var result []*entities.PaymentRequest
	for rows.Next() {
		req, err := scanPaymentRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deposit request: %w", err)
		}
		result = append(result, req)
	}
	return result, rows.Err()
}

// CountPending counts undecided deposits
func (r *PaymentRequestRepository) CountPending(ctx context.Context) (int64, error) {
	var count int64
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM payment_requests WHERE status = 'pending'`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count pending deposits: %w", err)
	}
	return count, nil
}
