package storage

import (
	"context"
	"time"

	"github.com/adwave/tv-planner/internal/models"
)

// ChannelRepo defines operations for the channel rate table.
type ChannelRepo interface {
	ListChannels(ctx context.Context) ([]*models.Channel, error)
	GetChannel(ctx context.Context, name string) (*models.Channel, error)
	UpsertChannel(ctx context.Context, c *models.Channel) error
	DeleteChannel(ctx context.Context, name string) error
}

// BonusRepo defines operations for the bonus rule table.
type BonusRepo interface {
	ListBonuses(ctx context.Context) ([]models.BonusRule, error)
	GetBonus(ctx context.Context, id int64) (*models.BonusRule, error)
	UpsertBonus(ctx context.Context, b *models.BonusRule) error
	DeleteBonus(ctx context.Context, id int64) error
}

// SurchargeRepo defines operations for the surcharge rule table.
type SurchargeRepo interface {
	ListSurcharges(ctx context.Context) ([]models.SurchargeRule, error)
	GetSurcharge(ctx context.Context, id int64) (*models.SurchargeRule, error)
	UpsertSurcharge(ctx context.Context, s *models.SurchargeRule) error
	DeleteSurcharge(ctx context.Context, id int64) error
}

// SegmentRepo defines operations for the audience segment catalog.
type SegmentRepo interface {
	ListSegments(ctx context.Context) ([]*models.Segment, error)
	GetSegment(ctx context.Context, id int64) (*models.Segment, error)
	UpsertSegment(ctx context.Context, s *models.Segment) error
	DeleteSegment(ctx context.Context, id int64) error
}

// HistoryStore persists submitted estimate requests for the admin side.
type HistoryStore interface {
	SaveHistory(ctx context.Context, h *models.EstimateHistory) error
	ListHistory(ctx context.Context, limit int) ([]*models.EstimateHistory, error)
}

// UsageEventStore records usage analytics events. Implementations may
// drop events rather than fail the request; usage reporting is best
// effort.
type UsageEventStore interface {
	SaveEvent(ctx context.Context, e *models.UsageEvent) error
	GetStats(ctx context.Context, since time.Time) ([]*models.UsageStats, error)
}
