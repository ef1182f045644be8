package repository

import (
	"context"
	"errors"
	"fmt"

	"luckydraw/database"
	"luckydraw/domain/entities"

	"github.com/jackc/pgx/v5"
)

const userColumns = `id, username, display_name, phone, balance, total_spent, total_won,
	tickets_bought, status, registered_at, created_at, updated_at`

// UserRepository implements the UserRepository interface
type UserRepository struct {
	q Queryable
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

// NewUserRepositoryScoped creates a new user repository bound to a transaction
func NewUserRepositoryScoped(tx Queryable) *UserRepository {
	return &UserRepository{q: tx}
}

func scanUser(row rowScanner) (*entities.User, error) {
	var user entities.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.DisplayName,
		&user.Phone,
		&user.Balance,
		&user.TotalSpent,
		&user.TotalWon,
		&user.TicketsBought,
		&user.Status,
		&user.RegisteredAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByID retrieves a user by chat-platform id
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*entities.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return user, nil
}

// GetByIDForUpdate retrieves a user and locks the row until the transaction ends
func (r *UserRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 FOR UPDATE`

	user, err := scanUser(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock user %d: %w", id, err)
	}
	return user, nil
}

// Upsert creates the user on first contact and refreshes chat names afterwards.
// A registered user's display name is the one they chose and is kept.
func (r *UserRepository) Upsert(ctx context.Context, id int64, username, displayName string) (*entities.User, error) {
	query := `
		INSERT INTO users (id, username, display_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username,
			display_name = CASE
				WHEN users.registered_at IS NULL THEN EXCLUDED.display_name
				ELSE users.display_name
			END,
			updated_at = NOW()
		RETURNING ` + userColumns

	user, err := scanUser(r.q.QueryRow(ctx, query, id, username, displayName))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user %d: %w", id, err)
	}
	return user, nil
}

// Register stores the phone and display name and stamps the first registration time
func (r *UserRepository) Register(ctx context.Context, id int64, phone, displayName string) (*entities.User, error) {
	query := `
		UPDATE users
		SET phone = $2,
			display_name = $3,
			registered_at = COALESCE(registered_at, NOW()),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	user, err := scanUser(r.q.QueryRow(ctx, query, id, phone, displayName))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, entities.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to register user %d: %w", id, err)
	}
	return user, nil
}

// AdjustBalance adds delta to the balance in one conditional statement. A debit that
// would take the balance below zero matches no row and changes nothing.
func (r *UserRepository) AdjustBalance(ctx context.Context, id int64, delta int64) (int64, int64, error) {
	query := `
		UPDATE users
		SET balance = balance + $2, updated_at = NOW()
		WHERE id = $1 AND balance + $2 >= 0
		RETURNING balance
	`

	var after int64
	err := r.q.QueryRow(ctx, query, id, delta).Scan(&after)
	if err == nil {
		return after - delta, after, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, 0, fmt.Errorf("failed to adjust balance for user %d: %w", id, err)
	}

	var current int64
	err = r.q.QueryRow(ctx, `SELECT balance FROM users WHERE id = $1`, id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, 0, entities.ErrUserNotFound
	}
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read balance for user %d: %w", id, err)
	}
	return 0, 0, &entities.InsufficientBalanceError{Have: current, Need: -delta}
}

// IncrementCounters bumps the lifetime statistics shown on /balance
func (r *UserRepository) IncrementCounters(ctx context.Context, id int64, spent, won, tickets int64) error {
	query := `
		UPDATE users
		SET total_spent = total_spent + $2,
			total_won = total_won + $3,
			tickets_bought = tickets_bought + $4,
			updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.q.Exec(ctx, query, id, spent, won, tickets)
	if err != nil {
		return fmt.Errorf("failed to update counters for user %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return entities.ErrUserNotFound
	}
	return nil
}

// Count returns the number of known and registered users
func (r *UserRepository) Count(ctx context.Context) (int64, int64, error) {
	query := `SELECT COUNT(*), COUNT(registered_at) FROM users`

	var total, registered int64
	if err := r.q.QueryRow(ctx, query).Scan(&total, &registered); err != nil {
		return 0, 0, fmt.Errorf("failed to count users: %w", err)
	}
	return total, registered, nil
}

// TotalBalance sums all user balances
func (r *UserRepository) TotalBalance(ctx context.Context) (int64, error) {
	var total int64
	if err := r.q.QueryRow(ctx, `SELECT COALESCE(SUM(balance), 0) FROM users`).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum balances: %w", err)
	}
	return total, nil
}
