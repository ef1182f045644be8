package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"luckydraw/domain/entities"

	"github.com/jackc/pgx/v5"
)

// drawLockClass is the first key of every draw-date advisory lock
const drawLockClass int32 = 0x4c44

const drawColumns = `id, draw_date, total_sales, buyer_count, winner_count, commission, donation,
	prize_pool, prize_per_winner, remainder, status, seed, created_at`

// DrawRepository implements draw data access
type DrawRepository struct {
	q Queryable
}

// NewDrawRepositoryScoped creates a new draw repository bound to a transaction
func NewDrawRepositoryScoped(tx Queryable) *DrawRepository {
	return &DrawRepository{q: tx}
}

func scanDraw(row rowScanner) (*entities.Draw, error) {
	var d entities.Draw
	err := row.Scan(
		&d.ID,
		&d.DrawDate,
		&d.TotalSales,
		&d.BuyerCount,
		&d.WinnerCount,
		&d.Commission,
		&d.Donation,
		&d.PrizePool,
		&d.PrizePerWinner,
		&d.Remainder,
		&d.Status,
		&d.Seed,
		&d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Create inserts the draw row. The draw_date column is unique, so a second insert for the
// same date returns ErrAlreadyDrawn without aborting the surrounding transaction.
func (r *DrawRepository) Create(ctx context.Context, draw *entities.Draw) error {
	query := `
		INSERT INTO draws (
			draw_date, total_sales, buyer_count, winner_count, commission, donation,
			prize_pool, prize_per_winner, remainder, status, seed
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (draw_date) DO NOTHING
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		draw.DrawDate,
		draw.TotalSales,
		draw.BuyerCount,
		draw.WinnerCount,
		draw.Commission,
		draw.Donation,
		draw.PrizePool,
		draw.PrizePerWinner,
		draw.Remainder,
		draw.Status,
		draw.Seed,
	).Scan(&draw.ID, &draw.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return entities.ErrAlreadyDrawn
	}
	if err != nil {
		return fmt.Errorf("failed to create draw: %w", err)
	}
	return nil
}

// GetByDate returns the draw for a date, or nil when it has not run
func (r *DrawRepository) GetByDate(ctx context.Context, drawDate time.Time) (*entities.Draw, error) {
	query := `SELECT ` + drawColumns + ` FROM draws WHERE draw_date = $1`

	draw, err := scanDraw(r.q.QueryRow(ctx, query, drawDate))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draw: %w", err)
	}
	return draw, nil
}

// GetLatest returns the most recent draw
func (r *DrawRepository) GetLatest(ctx context.Context) (*entities.Draw, error) {
	query := `SELECT ` + drawColumns + ` FROM draws ORDER BY draw_date DESC LIMIT 1`

	draw, err := scanDraw(r.q.QueryRow(ctx, query))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest draw: %w", err)
	}
	return draw, nil
}

// LockDate takes a transaction-scoped advisory lock keyed by drawDate. Ticket purchases and
// the draw for the same date serialize on it, so a purchase either commits before the draw
// reads the day's sales or sees the draw row afterwards.
func (r *DrawRepository) LockDate(ctx context.Context, drawDate time.Time) error {
	if _, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock($1::int, $2::int)`, drawLockClass, drawLockKey(drawDate)); err != nil {
		return fmt.Errorf("failed to lock draw date: %w", err)
	}
	return nil
}

func drawLockKey(drawDate time.Time) int32 {
	return int32(drawDate.Year()*10000 + int(drawDate.Month())*100 + drawDate.Day())
}
