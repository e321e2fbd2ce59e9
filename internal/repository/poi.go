package repository

import (
	"context"
	"errors"
	"fmt"

	"poi-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const poiColumns = `id, name, details, lat, lng, created_at, updated_at`

// POIRepository handles database operations for points of interest
type POIRepository struct {
	db *pgxpool.Pool
}

// NewPOIRepository creates a new POI repository
func NewPOIRepository(db *pgxpool.Pool) *POIRepository {
	return &POIRepository{db: db}
}

// Create inserts a POI and fills in its generated ID and timestamps.
// The pois_name_key constraint settles concurrent inserts of the same name.
func (r *POIRepository) Create(ctx context.Context, poi *models.POI) error {
	query := `
		INSERT INTO pois (name, details, lat, lng)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, poi.Name, poi.Details, poi.Lat, poi.Lng).
		Scan(&poi.ID, &poi.CreatedAt, &poi.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create poi: %w", translateError(err))
	}
	return nil
}

// GetByID retrieves a POI by ID
func (r *POIRepository) GetByID(ctx context.Context, id int64) (*models.POI, error) {
	query := `SELECT ` + poiColumns + ` FROM pois WHERE id = $1`
	poi, err := scanPOI(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get poi: %w", err)
	}
	return poi, nil
}

// NameExists checks if another POI already uses name; excludeID of 0 checks all rows
func (r *POIRepository) NameExists(ctx context.Context, name string, excludeID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM pois WHERE name = $1 AND id <> $2)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, name, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check poi name existence: %w", err)
	}
	return exists, nil
}

// Update writes all mutable fields of a POI and refreshes updated_at
func (r *POIRepository) Update(ctx context.Context, poi *models.POI) error {
	query := `
		UPDATE pois SET name = $1, details = $2, lat = $3, lng = $4, updated_at = now()
		WHERE id = $5
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query, poi.Name, poi.Details, poi.Lat, poi.Lng, poi.ID).
		Scan(&poi.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to update poi: %w", translateError(err))
	}
	return nil
}

// List retrieves POIs ordered by ID with pagination
func (r *POIRepository) List(ctx context.Context, limit, offset int) ([]*models.POI, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM pois`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count pois: %w", err)
	}

	query := `SELECT ` + poiColumns + ` FROM pois ORDER BY id ASC LIMIT $1 OFFSET $2`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get pois: %w", err)
	}
	defer rows.Close()

	pois := make([]*models.POI, 0, limit)
	for rows.Next() {
		poi, err := scanPOI(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan poi: %w", err)
		}
		pois = append(pois, poi)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating pois: %w", err)
	}

	return pois, total, nil
}

func scanPOI(row pgx.Row) (*models.POI, error) {
	var poi models.POI
	err := row.Scan(
		&poi.ID, &poi.Name, &poi.Details, &poi.Lat, &poi.Lng,
		&poi.CreatedAt, &poi.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &poi, nil
}
