package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/diagnosis/bnb-marketplace/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PropertyRepository interface {
	Search(ctx context.Context, q domain.PropertyQuery) ([]domain.PropertySummary, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.PropertySummary, error)
	GetByID(ctx context.Context, id string) (*domain.Property, error)
	Create(ctx context.Context, ownerID string, in domain.PropertyInput) (*domain.Property, error)
	Update(ctx context.Context, id string, in domain.PropertyInput) (*domain.Property, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type propertyRepository struct {
	pool *pgxpool.Pool
}

func NewPropertyRepository(pool *pgxpool.Pool) PropertyRepository {
	return &propertyRepository{pool: pool}
}

const propertyCols = `id::text, user_id::text, name, description, location,
price_per_night::float8, available, image_urls, created_at`

const summaryCols = `id::text, name, location, price_per_night::float8, image_urls`

func scanProperty(row pgx.Row) (*domain.Property, error) {
	var (
		p      domain.Property
		images []string
	)
	err := row.Scan(
		&p.ID, &p.UserID, &p.Name, &p.Description, &p.Location,
		&p.PricePerNight, &p.Available, &images, &p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapPgError(err)
	}
	p.ImageURLs = domain.NormalizeImageURLs(images)
	return &p, nil
}

// Search matches destination case-insensitively against name or location.
// An empty destination lists everything. A NULL limit is LIMIT ALL.
func (r *propertyRepository) Search(ctx context.Context, pq domain.PropertyQuery) ([]domain.PropertySummary, error) {
	const q = `SELECT ` + summaryCols + `
	FROM properties
	WHERE $1 = '' OR name ILIKE '%' || $1 || '%' ESCAPE '\' OR location ILIKE '%' || $1 || '%' ESCAPE '\'
	ORDER BY created_at DESC
	LIMIT $2 OFFSET $3`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var limit *int
	if pq.Paged() {
		limit = &pq.Limit
	}

	rows, err := r.pool.Query(ctx, q, escapeLike(pq.Destination), limit, pq.Offset)
	if err != nil {
		return nil, mapPgError(err)
	}
	return collectSummaries(rows)
}

func collectSummaries(rows pgx.Rows) ([]domain.PropertySummary, error) {
	defer rows.Close()

	out := []domain.PropertySummary{}
	for rows.Next() {
		var (
			p      domain.PropertySummary
			images []string
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Location, &p.PricePerNight, &images); err != nil {
			return nil, err
		}
		p.ImageURLs = domain.NormalizeImageURLs(images)
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListByOwner lists the host's properties, newest first, in the public
// summary shape.
func (r *propertyRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.PropertySummary, error) {
	const q = `SELECT ` + summaryCols + ` FROM properties WHERE user_id = $1 ORDER BY created_at DESC`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, ownerID)
	if err != nil {
		return nil, mapPgError(err)
	}
	return collectSummaries(rows)
}

func (r *propertyRepository) GetByID(ctx context.Context, id string) (*domain.Property, error) {
	const q = `SELECT ` + propertyCols + ` FROM properties WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanProperty(r.pool.QueryRow(ctx, q, id))
}

func (r *propertyRepository) Create(ctx context.Context, ownerID string, in domain.PropertyInput) (*domain.Property, error) {
	const q = `INSERT INTO properties (user_id, name, description, location, price_per_night, available, image_urls)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING ` + propertyCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanProperty(r.pool.QueryRow(ctx, q,
		ownerID, in.Name, in.Description, in.Location, in.PricePerNight, in.IsAvailable(), []string(domain.NormalizeImageURLs(in.ImageURLs)),
	))
}

// Update replaces every editable column. It returns nil when the row is gone.
func (r *propertyRepository) Update(ctx context.Context, id string, in domain.PropertyInput) (*domain.Property, error) {
	const q = `UPDATE properties SET
		name = $2, description = $3, location = $4,
		price_per_night = $5, available = $6, image_urls = $7
	WHERE id = $1
	RETURNING ` + propertyCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanProperty(r.pool.QueryRow(ctx, q,
		id, in.Name, in.Description, in.Location, in.PricePerNight, in.IsAvailable(), []string(domain.NormalizeImageURLs(in.ImageURLs)),
	))
}

func (r *propertyRepository) Delete(ctx context.Context, id string) (bool, error) {
	const q = `DELETE FROM properties WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tag, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return false, mapPgError(err)
	}
	return tag.RowsAffected() > 0, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
