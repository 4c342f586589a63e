package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/poimap/internal/core/domain"
)

const poiColumns = `id::text, title, description, latitude, longitude, created_at, updated_at`

// POIRepo implements ports.POIRepository with pgx.
type POIRepo struct {
	db *DB
}

// NewPOIRepo creates a new POIRepo.
func NewPOIRepo(db *DB) *POIRepo {
	return &POIRepo{db: db}
}

// List returns every POI, oldest first.
func (r *POIRepo) List(ctx context.Context) ([]domain.POI, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT `+poiColumns+` FROM pois ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pois := make([]domain.POI, 0)
	for rows.Next() {
		p, err := scanPOI(rows)
		if err != nil {
			return nil, fmt.Errorf("scan poi: %w", err)
		}
		pois = append(pois, *p)
	}
	return pois, rows.Err()
}

// GetByID returns a POI by UUID.
func (r *POIRepo) GetByID(ctx context.Context, id string) (*domain.POI, error) {
	if !validID(id) {
		return nil, domain.ErrNotFound
	}
	row := r.db.Pool.QueryRow(ctx, `SELECT `+poiColumns+` FROM pois WHERE id = $1`, id)
	p, err := scanPOI(row)
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

// Create inserts a POI and fills in the generated id and timestamps.
func (r *POIRepo) Create(ctx context.Context, p *domain.POI) error {
	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO pois (title, description, latitude, longitude)
		VALUES ($1, $2, $3, $4)
		RETURNING id::text, created_at, updated_at
	`, p.Title, p.Description, p.Latitude, p.Longitude).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

// batchSize caps the statements queued per pgx.Batch round trip.
const batchSize = 500

// CreateBatch inserts pois in batches inside one transaction.
func (r *POIRepo) CreateBatch(ctx context.Context, pois []*domain.POI) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for start := 0; start < len(pois); start += batchSize {
		end := min(start+batchSize, len(pois))
		chunk := pois[start:end]

		batch := &pgx.Batch{}
		for _, p := range chunk {
			batch.Queue(`
				INSERT INTO pois (title, description, latitude, longitude)
				VALUES ($1, $2, $3, $4)
				RETURNING id::text, created_at, updated_at
			`, p.Title, p.Description, p.Latitude, p.Longitude)
		}
		if err := flushBatch(tx.SendBatch(ctx, batch), chunk, start); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func flushBatch(br pgx.BatchResults, chunk []*domain.POI, offset int) error {
	defer br.Close()
	for i, p := range chunk {
		if err := br.QueryRow().Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return fmt.Errorf("batch item %d: %w", offset+i, err)
		}
	}
	return br.Close()
}

// Update changes title and description. Coordinates are never written.
func (r *POIRepo) Update(ctx context.Context, id string, u domain.POIUpdate) (*domain.POI, error) {
	if !validID(id) {
		return nil, domain.ErrNotFound
	}
	row := r.db.Pool.QueryRow(ctx, `
		UPDATE pois SET title = $2, description = $3, updated_at = now()
		WHERE id = $1
		RETURNING `+poiColumns, id, u.Title, u.Description)
	p, err := scanPOI(row)
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

// Delete removes a POI by UUID.
func (r *POIRepo) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return domain.ErrNotFound
	}
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM pois WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanPOI(row pgx.Row) (*domain.POI, error) {
	var p domain.POI
	if err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Latitude, &p.Longitude, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

// validID rejects ids that would fail the uuid cast in postgres.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
