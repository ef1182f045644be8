package repository

import (
	"context"
	"fmt"
	"time"

	"luckydraw/domain/entities"
)

const ticketColumns = `id, user_id, ticket_number, amount, purchase_date, draw_date, status, transaction_id`

// TicketRepository implements ticket data access
type TicketRepository struct {
	q Queryable
}

// NewTicketRepositoryScoped creates a new ticket repository bound to a transaction
func NewTicketRepositoryScoped(tx Queryable) *TicketRepository {
	return &TicketRepository{q: tx}
}

// CreateBatch creates multiple tickets in a single batch insert
func (r *TicketRepository) CreateBatch(ctx context.Context, tickets []*entities.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}

	query := `
		INSERT INTO tickets (user_id, ticket_number, amount, purchase_date, draw_date, status, transaction_id)
		VALUES `

	values := make([]any, 0, len(tickets)*7)
	for i, ticket := range tickets {
		if i > 0 {
			query += ", "
		}
		p := i * 7
		query += fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d)", p+1, p+2, p+3, p+4, p+5, p+6, p+7)
		values = append(values, ticket.UserID, ticket.TicketNumber, ticket.Amount,
			ticket.PurchaseDate, ticket.DrawDate, ticket.Status, ticket.TransactionID)
	}
	query += " RETURNING id"

	rows, err := r.q.Query(ctx, query, values...)
	if err != nil {
		return fmt.Errorf("failed to batch create tickets: %w", err)
	}
	defer rows.Close()

	i := 0
	for rows.Next() {
		if err := rows.Scan(&tickets[i].ID); err != nil {
			return fmt.Errorf("failed to scan ticket id: %w", err)
		}
		i++
	}
	if err := rows.Err(); err != nil {
		if isUniqueViolation(err) {
			return entities.ErrDuplicateKey
		}
		return fmt.Errorf("failed to batch create tickets: %w", err)
	}
	return nil
}

// ListByUserAndDrawDate returns the user's tickets for a draw, oldest first
func (r *TicketRepository) ListByUserAndDrawDate(ctx context.Context, userID int64, drawDate time.Time) ([]*entities.Ticket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets
		WHERE user_id = $1 AND draw_date = $2 AND status = 'active'
		ORDER BY id
	`

	rows, err := r.q.Query(ctx, query, userID, drawDate)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets for user %d: %w", userID, err)
	}
	defer rows.Close()

	var tickets []*entities.Ticket
	for rows.Next() {
		var t entities.Ticket
		if err := rows.Scan(
			&t.ID,
			&t.UserID,
			&t.TicketNumber,
			&t.Amount,
			&t.PurchaseDate,
			&t.DrawDate,
			&t.Status,
			&t.TransactionID,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, &t)
	}
	return tickets, rows.Err()
}

// GetBuyersForDrawDate aggregates active tickets per user for a draw
func (r *TicketRepository) GetBuyersForDrawDate(ctx context.Context, drawDate time.Time) ([]*entities.TicketBuyer, error) {
	query := `
		SELECT user_id, COUNT(*), SUM(amount), MIN(id)
		FROM tickets
		WHERE draw_date = $1 AND status = 'active'
		GROUP BY user_id
		ORDER BY user_id
	`

	rows, err := r.q.Query(ctx, query, drawDate)
	if err != nil {
		return nil, fmt.Errorf("failed to get buyers: %w", err)
	}
	defer rows.Close()

	var buyers []*entities.TicketBuyer
	for rows.Next() {
		var b entities.TicketBuyer
		if err := rows.Scan(&b.UserID, &b.TicketCount, &b.TotalAmount, &b.FirstTicketID); err != nil {
			return nil, fmt.Errorf("failed to scan buyer: %w", err)
		}
		buyers = append(buyers, &b)
	}
	return buyers, rows.Err()
}

// SumSalesForDrawDate returns the money taken and the number of active tickets for a draw
func (r *TicketRepository) SumSalesForDrawDate(ctx context.Context, drawDate time.Time) (int64, int64, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0), COUNT(*)
		FROM tickets
		WHERE draw_date = $1 AND status = 'active'
	`

	var total, count int64
	if err := r.q.QueryRow(ctx, query, drawDate).Scan(&total, &count); err != nil {
		return 0, 0, fmt.Errorf("failed to sum sales: %w", err)
	}
	return total, count, nil
}
