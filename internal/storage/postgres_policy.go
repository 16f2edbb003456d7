package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adwave/tv-planner/internal/models"
)

// PostgresChannelRepo implements ChannelRepo using PostgreSQL.
type PostgresChannelRepo struct {
	pool *pgxpool.Pool
}

// NewPostgresChannelRepo creates a PostgreSQL-backed channel repository.
func NewPostgresChannelRepo(pool *pgxpool.Pool) *PostgresChannelRepo {
	return &PostgresChannelRepo{pool: pool}
}

func (r *PostgresChannelRepo) ListChannels(ctx context.Context) ([]*models.Channel, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, channel_name, base_cpv, cpv_audience, cpv_non_target, description, created_at, updated_at
		FROM channels ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	defer rows.Close()

	var channels []*models.Channel
	for rows.Next() {
		c, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, c)
	}
	return channels, rows.Err()
}

func (r *PostgresChannelRepo) GetChannel(ctx context.Context, name string) (*models.Channel, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, channel_name, base_cpv, cpv_audience, cpv_non_target, description, created_at, updated_at
		FROM channels WHERE channel_name = $1
	`, name)

	c, err := scanChannel(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}
	return c, nil
}

func (r *PostgresChannelRepo) UpsertChannel(ctx context.Context, c *models.Channel) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO channels (channel_name, base_cpv, cpv_audience, cpv_non_target, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (channel_name) DO UPDATE SET
			base_cpv = EXCLUDED.base_cpv,
			cpv_audience = EXCLUDED.cpv_audience,
			cpv_non_target = EXCLUDED.cpv_non_target,
			description = EXCLUDED.description,
			updated_at = EXCLUDED.updated_at
		RETURNING id
	`, c.Name, c.BaseCPV15s, c.CPVAudience, c.CPVNonTarget, nullString(c.Description), c.CreatedAt, c.UpdatedAt).Scan(&c.ID)

	if err != nil {
		return fmt.Errorf("failed to upsert channel: %w", err)
	}
	return nil
}

func (r *PostgresChannelRepo) DeleteChannel(ctx context.Context, name string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM channels WHERE channel_name = $1`, name); err != nil {
		return fmt.Errorf("failed to delete channel: %w", err)
	}
	return nil
}

func scanChannel(row pgx.Row) (*models.Channel, error) {
	var c models.Channel
	var description *string

	if err := row.Scan(&c.ID, &c.Name, &c.BaseCPV15s, &c.CPVAudience, &c.CPVNonTarget,
		&description, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	if description != nil {
		c.Description = *description
	}
	return &c, nil
}

// PostgresBonusRepo implements BonusRepo using PostgreSQL.
type PostgresBonusRepo struct {
	pool *pgxpool.Pool
}

// NewPostgresBonusRepo creates a PostgreSQL-backed bonus repository.
func NewPostgresBonusRepo(pool *pgxpool.Pool) *PostgresBonusRepo {
	return &PostgresBonusRepo{pool: pool}
}

func (r *PostgresBonusRepo) ListBonuses(ctx context.Context) ([]models.BonusRule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, channel_name, bonus_type, condition_type, min_value, rate, description, created_at, updated_at
		FROM bonuses ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list bonuses: %w", err)
	}
	defer rows.Close()

	var bonuses []models.BonusRule
	for rows.Next() {
		b, err := scanBonus(rows)
		if err != nil {
			return nil, err
		}
		bonuses = append(bonuses, *b)
	}
	return bonuses, rows.Err()
}

func (r *PostgresBonusRepo) GetBonus(ctx context.Context, id int64) (*models.BonusRule, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, channel_name, bonus_type, condition_type, min_value, rate, description, created_at, updated_at
		FROM bonuses WHERE id = $1
	`, id)

	b, err := scanBonus(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bonus: %w", err)
	}
	return b, nil
}

func (r *PostgresBonusRepo) UpsertBonus(ctx context.Context, b *models.BonusRule) error {
	if b.ID == 0 {
		err := r.pool.QueryRow(ctx, `
			INSERT INTO bonuses (channel_name, bonus_type, condition_type, min_value, rate, description, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id
		`, b.ChannelName, string(b.BonusType), nullString(b.ConditionType), b.MinValue, b.Rate,
			nullString(b.Description), b.CreatedAt, b.UpdatedAt).Scan(&b.ID)
		if err != nil {
			return fmt.Errorf("failed to insert bonus: %w", err)
		}
		return nil
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO bonuses (id, channel_name, bonus_type, condition_type, min_value, rate, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			channel_name = EXCLUDED.channel_name,
			bonus_type = EXCLUDED.bonus_type,
			condition_type = EXCLUDED.condition_type,
			min_value = EXCLUDED.min_value,
			rate = EXCLUDED.rate,
			description = EXCLUDED.description,
			updated_at = EXCLUDED.updated_at
	`, b.ID, b.ChannelName, string(b.BonusType), nullString(b.ConditionType), b.MinValue, b.Rate,
		nullString(b.Description), b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert bonus: %w", err)
	}
	return nil
}

func (r *PostgresBonusRepo) DeleteBonus(ctx context.Context, id int64) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM bonuses WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete bonus: %w", err)
	}
	return nil
}

func scanBonus(row pgx.Row) (*models.BonusRule, error) {
	var b models.BonusRule
	var bonusType string
	var conditionType, description *string

	if err := row.Scan(&b.ID, &b.ChannelName, &bonusType, &conditionType, &b.MinValue, &b.Rate,
		&description, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.BonusType = models.BonusType(bonusType)
	if conditionType != nil {
		b.ConditionType = *conditionType
	}
	if description != nil {
		b.Description = *description
	}
	return &b, nil
}

// PostgresSurchargeRepo implements SurchargeRepo using PostgreSQL.
type PostgresSurchargeRepo struct {
	pool *pgxpool.Pool
}

// NewPostgresSurchargeRepo creates a PostgreSQL-backed surcharge repository.
func NewPostgresSurchargeRepo(pool *pgxpool.Pool) *PostgresSurchargeRepo {
	return &PostgresSurchargeRepo{pool: pool}
}

func (r *PostgresSurchargeRepo) ListSurcharges(ctx context.Context) ([]models.SurchargeRule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, channel_name, surcharge_type, condition_value, rate, description, created_at, updated_at
		FROM surcharges ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list surcharges: %w", err)
	}
	defer rows.Close()

	var surcharges []models.SurchargeRule
	for rows.Next() {
		s, err := scanSurcharge(rows)
		if err != nil {
			return nil, err
		}
		surcharges = append(surcharges, *s)
	}
	return surcharges, rows.Err()
}

func (r *PostgresSurchargeRepo) GetSurcharge(ctx context.Context, id int64) (*models.SurchargeRule, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, channel_name, surcharge_type, condition_value, rate, description, created_at, updated_at
		FROM surcharges WHERE id = $1
	`, id)

	s, err := scanSurcharge(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get surcharge: %w", err)
	}
	return s, nil
}

func (r *PostgresSurchargeRepo) UpsertSurcharge(ctx context.Context, s *models.SurchargeRule) error {
	if s.ID == 0 {
		err := r.pool.QueryRow(ctx, `
			INSERT INTO surcharges (channel_name, surcharge_type, condition_value, rate, description, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id
		`, s.ChannelName, string(s.SurchargeType), nullString(s.ConditionValue), s.Rate,
			nullString(s.Description), s.CreatedAt, s.UpdatedAt).Scan(&s.ID)
		if err != nil {
			return fmt.Errorf("failed to insert surcharge: %w", err)
		}
		return nil
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO surcharges (id, channel_name, surcharge_type, condition_value, rate, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			channel_name = EXCLUDED.channel_name,
			surcharge_type = EXCLUDED.surcharge_type,
			condition_value = EXCLUDED.condition_value,
			rate = EXCLUDED.rate,
			description = EXCLUDED.description,
			updated_at = EXCLUDED.updated_at
	`, s.ID, s.ChannelName, string(s.SurchargeType), nullString(s.ConditionValue), s.Rate,
		nullString(s.Description), s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert surcharge: %w", err)
	}
	return nil
}

func (r *PostgresSurchargeRepo) DeleteSurcharge(ctx context.Context, id int64) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM surcharges WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete surcharge: %w", err)
	}
	return nil
}

func scanSurcharge(row pgx.Row) (*models.SurchargeRule, error) {
	var s models.SurchargeRule
	var surchargeType string
	var conditionValue, description *string

	if err := row.Scan(&s.ID, &s.ChannelName, &surchargeType, &conditionValue, &s.Rate,
		&description, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.SurchargeType = models.SurchargeType(surchargeType)
	if conditionValue != nil {
		s.ConditionValue = *conditionValue
	}
	if description != nil {
		s.Description = *description
	}
	return &s, nil
}

// nullString maps an empty string to NULL for optional text columns.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
