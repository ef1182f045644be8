package repository

import (
	"context"
	"fmt"

	"luckydraw/domain/entities"

	"github.com/jackc/pgx/v5"
)

const winnerColumns = `id, draw_id, user_id, ticket_id, amount, win_date, prize_type, status,
	transaction_id, created_at`

// WinnerRepository implements winner data access
type WinnerRepository struct {
	q Queryable
}

// NewWinnerRepositoryScoped creates a new winner repository bound to a transaction
func NewWinnerRepositoryScoped(tx Queryable) *WinnerRepository {
	return &WinnerRepository{q: tx}
}

// Create appends a winner row
func (r *WinnerRepository) Create(ctx context.Context, winner *entities.Winner) error {
	query := `
		INSERT INTO winners (draw_id, user_id, ticket_id, amount, win_date, prize_type, status, transaction_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		winner.DrawID,
		winner.UserID,
		winner.TicketID,
		winner.Amount,
		winner.WinDate,
		winner.PrizeType,
		winner.Status,
		winner.TransactionID,
	).Scan(&winner.ID, &winner.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create winner: %w", err)
	}
	return nil
}

func (r *WinnerRepository) list(ctx context.Context, query string, args ...any) ([]*entities.Winner, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*entities.Winner, error) {
		var w entities.Winner
		err := row.Scan(
			&w.ID,
			&w.DrawID,
			&w.UserID,
			&w.TicketID,
			&w.Amount,
			&w.WinDate,
			&w.PrizeType,
			&w.Status,
			&w.TransactionID,
			&w.CreatedAt,
		)
		return &w, err
	})
}

// ListByDraw returns the winners of a draw
func (r *WinnerRepository) ListByDraw(ctx context.Context, drawID int64) ([]*entities.Winner, error) {
	winners, err := r.list(ctx, `SELECT `+winnerColumns+` FROM winners WHERE draw_id = $1 ORDER BY id`, drawID)
	if err != nil {
		return nil, fmt.Errorf("failed to list winners for draw %d: %w", drawID, err)
	}
	return winners, nil
}

// ListByUser returns the user's most recent prizes
func (r *WinnerRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*entities.Winner, error) {
	query := `SELECT ` + winnerColumns + ` FROM winners WHERE user_id = $1 ORDER BY win_date DESC, id DESC LIMIT $2`
	winners, err := r.list(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list winners for user %d: %w", userID, err)
	}
	return winners, nil
}
