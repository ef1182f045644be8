package repository

import (
	"context"
	"errors"
	"fmt"

	"luckydraw/domain/entities"

	"github.com/jackc/pgx/v5"
)

const advertisementColumns = `id, user_id, advertiser_name, title, content, ad_type, cost, status,
	admin_id, admin_note, created_at, processed_at`

// AdvertisementRepository stores advertisement submissions
type AdvertisementRepository struct {
	q Queryable
}

// NewAdvertisementRepositoryScoped creates a new advertisement repository bound to a transaction
func NewAdvertisementRepositoryScoped(tx Queryable) *AdvertisementRepository {
	return &AdvertisementRepository{q: tx}
}

func scanAdvertisement(row rowScanner) (*entities.Advertisement, error) {
	var ad entities.Advertisement
	err := row.Scan(
		&ad.ID,
		&ad.UserID,
		&ad.AdvertiserName,
		&ad.Title,
		&ad.Content,
		&ad.Type,
		&ad.Cost,
		&ad.Status,
		&ad.AdminID,
		&ad.AdminNote,
		&ad.CreatedAt,
		&ad.ProcessedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ad, nil
}

// Create inserts a pending advertisement
func (r *AdvertisementRepository) Create(ctx context.Context, ad *entities.Advertisement) error {
	query := `
		INSERT INTO advertisements (user_id, advertiser_name, title, content, ad_type, cost, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		ad.UserID, ad.AdvertiserName, ad.Title, ad.Content, ad.Type, ad.Cost, ad.Status,
	).Scan(&ad.ID, &ad.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create advertisement: %w", err)
	}
	return nil
}

func (r *AdvertisementRepository) get(ctx context.Context, query string, id int64) (*entities.Advertisement, error) {
	ad, err := scanAdvertisement(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get advertisement %d: %w", id, err)
	}
	return ad, nil
}

// GetByID retrieves an advertisement
func (r *AdvertisementRepository) GetByID(ctx context.Context, id int64) (*entities.Advertisement, error) {
	return r.get(ctx, `SELECT `+advertisementColumns+` FROM advertisements WHERE id = $1`, id)
}

// GetByIDForUpdate retrieves an advertisement and locks it until the transaction ends
func (r *AdvertisementRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.Advertisement, error) {
	return r.get(ctx, `SELECT `+advertisementColumns+` FROM advertisements WHERE id = $1 FOR UPDATE`, id)
}

// Decide moves a pending advertisement to status. It reports false when it was already decided.
func (r *AdvertisementRepository) Decide(ctx context.Context, id int64, status entities.RequestStatus, adminID int64, note string) (bool, error) {
	query := `
		UPDATE advertisements
		SET status = $2, admin_id = $3, admin_note = $4, processed_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`

	tag, err := r.q.Exec(ctx, query, id, status, adminID, note)
	if err != nil {
		return false, fmt.Errorf("failed to decide advertisement %d: %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListPending returns pending advertisements, oldest first
func (r *AdvertisementRepository) ListPending(ctx context.Context, limit int) ([]*entities.Advertisement, error) {
	query := `
		SELECT ` + advertisementColumns + `
		FROM advertisements
		WHERE status = 'pending'
		ORDER BY created_at, id
		LIMIT $1
	`

	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending advertisements: %w", err)
	}
	defer rows.Close()

	var result []*entities.Advertisement
	for rows.Next() {
		ad, err := scanAdvertisement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan advertisement: %w", err)
		}
		result = append(result, ad)
	}
	return result, rows.Err()
}

// CountPending counts undecided advertisements
func (r *AdvertisementRepository) CountPending(ctx context.Context) (int64, error) {
	var count int64
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM advertisements WHERE status = 'pending'`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count pending advertisements: %w", err)
	}
	return count, nil
}
