package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adwave/tv-planner/internal/models"
)

// PostgresSegmentRepo implements SegmentRepo using PostgreSQL.
type PostgresSegmentRepo struct {
	pool *pgxpool.Pool
}

// NewPostgresSegmentRepo creates a PostgreSQL-backed segment repository.
func NewPostgresSegmentRepo(pool *pgxpool.Pool) *PostgresSegmentRepo {
	return &PostgresSegmentRepo{pool: pool}
}

func (r *PostgresSegmentRepo) ListSegments(ctx context.Context) ([]*models.Segment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, description, category_large, category_mid, category_small,
		       recommended_advertisers, full_path, created_at, updated_at
		FROM segments ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list segments: %w", err)
	}
	defer rows.Close()

	var segments []*models.Segment
	for rows.Next() {
		s, err := scanSegment(rows)
		if err != nil {
			return nil, err
		}
		segments = append(segments, s)
	}
	return segments, rows.Err()
}

func (r *PostgresSegmentRepo) GetSegment(ctx context.Context, id int64) (*models.Segment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, description, category_large, category_mid, category_small,
		       recommended_advertisers, full_path, created_at, updated_at
		FROM segments WHERE id = $1
	`, id)

	s, err := scanSegment(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get segment: %w", err)
	}
	return s, nil
}

func (r *PostgresSegmentRepo) UpsertSegment(ctx context.Context, s *models.Segment) error {
	if s.ID == 0 {
		err := r.pool.QueryRow(ctx, `
			INSERT INTO segments (name, description, category_large, category_mid, category_small,
			                      recommended_advertisers, full_path, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id
		`, s.Name, nullString(s.Description), nullString(s.CategoryLarge), nullString(s.CategoryMid),
			nullString(s.CategorySmall), nullString(s.RecommendedAdvertisers), nullString(s.FullPath),
			s.CreatedAt, s.UpdatedAt).Scan(&s.ID)
		if err != nil {
			return fmt.Errorf("failed to insert segment: %w", err)
		}
		return nil
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO segments (id, name, description, category_large, category_mid, category_small,
		                      recommended_advertisers, full_path, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			category_large = EXCLUDED.category_large,
			category_mid = EXCLUDED.category_mid,
			category_small = EXCLUDED.category_small,
			recommended_advertisers = EXCLUDED.recommended_advertisers,
			full_path = EXCLUDED.full_path,
			updated_at = EXCLUDED.updated_at
	`, s.ID, s.Name, nullString(s.Description), nullString(s.CategoryLarge), nullString(s.CategoryMid),
		nullString(s.CategorySmall), nullString(s.RecommendedAdvertisers), nullString(s.FullPath),
		s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert segment: %w", err)
	}
	return nil
}

func (r *PostgresSegmentRepo) DeleteSegment(ctx context.Context, id int64) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM segments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete segment: %w", err)
	}
	return nil
}

func scanSegment(row pgx.Row) (*models.Segment, error) {
	var s models.Segment
	var description, catLarge, catMid, catSmall, advertisers, fullPath *string

	if err := row.Scan(&s.ID, &s.Name, &description, &catLarge, &catMid, &catSmall,
		&advertisers, &fullPath, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	if description != nil {
		s.Description = *description
	}
	if catLarge != nil {
		s.CategoryLarge = *catLarge
	}
	if catMid != nil {
		s.CategoryMid = *catMid
	}
	if catSmall != nil {
		s.CategorySmall = *catSmall
	}
	if advertisers != nil {
		s.RecommendedAdvertisers = *advertisers
	}
	if fullPath != nil {
		s.FullPath = *fullPath
	}
	return &s, nil
}
