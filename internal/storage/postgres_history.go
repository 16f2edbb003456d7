package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adwave/tv-planner/internal/models"
)

// PostgresHistoryStore implements HistoryStore using PostgreSQL.
type PostgresHistoryStore struct {
	pool *pgxpool.Pool
}

// NewPostgresHistoryStore creates a PostgreSQL-backed history store.
func NewPostgresHistoryStore(pool *pgxpool.Pool) *PostgresHistoryStore {
	return &PostgresHistoryStore{pool: pool}
}

func (s *PostgresHistoryStore) SaveHistory(ctx context.Context, h *models.EstimateHistory) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO estimate_history (id, product_name, total_budget, duration_months, ad_duration,
		                              is_new_advertiser, raw_request, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, h.ID, h.ProductName, h.TotalBudget, h.DurationMonths, h.AdDuration,
		h.IsNewAdvertiser, h.RawRequest, h.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}
	return nil
}

func (s *PostgresHistoryStore) ListHistory(ctx context.Context, limit int) ([]*models.EstimateHistory, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, product_name, total_budget, duration_months, ad_duration, is_new_advertiser, raw_request, created_at
		FROM estimate_history ORDER BY created_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var entries []*models.EstimateHistory
	for rows.Next() {
		var h models.EstimateHistory
		if err := rows.Scan(&h.ID, &h.ProductName, &h.TotalBudget, &h.DurationMonths, &h.AdDuration,
			&h.IsNewAdvertiser, &h.RawRequest, &h.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, &h)
	}
	return entries, rows.Err()
}
