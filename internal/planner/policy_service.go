package planner

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/adwave/tv-planner/internal/models"
	"github.com/adwave/tv-planner/internal/storage"
)

// ChannelService provides CRUD operations over the channel rate table.
// It is intentionally thin: validation and timestamp management here,
// persistence in the repository.
type ChannelService struct {
	repo storage.ChannelRepo
}

// NewChannelService constructs a ChannelService backed by the given repo.
func NewChannelService(repo storage.ChannelRepo) *ChannelService {
	return &ChannelService{repo: repo}
}

// ListChannels returns all channels.
func (s *ChannelService) ListChannels(ctx context.Context) ([]*models.Channel, error) {
	return s.repo.ListChannels(ctx)
}

// GetChannel returns a channel by name, or nil if not found.
func (s *ChannelService) GetChannel(ctx context.Context, name string) (*models.Channel, error) {
	return s.repo.GetChannel(ctx, name)
}

// UpsertChannel validates the channel, populates timestamps and saves it.
func (s *ChannelService) UpsertChannel(ctx context.Context, c *models.Channel) error {
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	if err := c.Validate(); err != nil {
		return err
	}
	return s.repo.UpsertChannel(ctx, c)
}

// DeleteChannel removes a channel by name.
func (s *ChannelService) DeleteChannel(ctx context.Context, name string) error {
	return s.repo.DeleteChannel(ctx, name)
}

// BonusService provides CRUD operations over bonus rules.
type BonusService struct {
	repo   storage.BonusRepo
	logger *zap.Logger
}

// NewBonusService constructs a BonusService.
func NewBonusService(repo storage.BonusRepo, logger *zap.Logger) *BonusService {
	return &BonusService{repo: repo, logger: logger}
}

// ListBonuses returns all bonus rules.
func (s *BonusService) ListBonuses(ctx context.Context) ([]models.BonusRule, error) {
	return s.repo.ListBonuses(ctx)
}

// GetBonus returns a bonus rule by ID, or nil if not found.
func (s *BonusService) GetBonus(ctx context.Context, id int64) (*models.BonusRule, error) {
	return s.repo.GetBonus(ctx, id)
}

// UpsertBonus validates and saves a bonus rule.
func (s *BonusService) UpsertBonus(ctx context.Context, b *models.BonusRule) error {
	now := time.Now().UTC()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
	if err := b.Validate(); err != nil {
		return err
	}
	return s.repo.UpsertBonus(ctx, b)
}

// DeleteBonus removes a bonus rule by ID.
func (s *BonusService) DeleteBonus(ctx context.Context, id int64) error {
	return s.repo.DeleteBonus(ctx, id)
}

// SurchargeService provides CRUD operations over surcharge rules. On
// write it checks for rows that would make first-match resolution
// ambiguous and logs a warning; the write is still accepted since rate
// sheets are imported wholesale and cleaned up afterwards.
type SurchargeService struct {
	repo   storage.SurchargeRepo
	logger *zap.Logger
}

// NewSurchargeService constructs a SurchargeService.
func NewSurchargeService(repo storage.SurchargeRepo, logger *zap.Logger) *SurchargeService {
	return &SurchargeService{repo: repo, logger: logger}
}

// ListSurcharges returns all surcharge rules.
func (s *SurchargeService) ListSurcharges(ctx context.Context) ([]models.SurchargeRule, error) {
	return s.repo.ListSurcharges(ctx)
}

// GetSurcharge returns a surcharge rule by ID, or nil if not found.
func (s *SurchargeService) GetSurcharge(ctx context.Context, id int64) (*models.SurchargeRule, error) {
	return s.repo.GetSurcharge(ctx, id)
}

// UpsertSurcharge validates and saves a surcharge rule, warning when the
// new row duplicates an existing (channel, type, condition) match.
func (s *SurchargeService) UpsertSurcharge(ctx context.Context, rule *models.SurchargeRule) error {
	now := time.Now().UTC()
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}
	rule.UpdatedAt = now
	if err := rule.Validate(); err != nil {
		return err
	}

	existing, err := s.repo.ListSurcharges(ctx)
	if err == nil {
		for _, e := range existing {
			if e.ID != rule.ID && e.ChannelName == rule.ChannelName &&
				e.SurchargeType == rule.SurchargeType && e.ConditionValue == rule.ConditionValue {
				s.logger.Warn("surcharge rule duplicates an existing condition, first match will win",
					zap.Int64("existing_id", e.ID),
					zap.String("channel", rule.ChannelName),
					zap.String("type", string(rule.SurchargeType)),
					zap.String("condition", rule.ConditionValue),
				)
				break
			}
		}
	}

	return s.repo.UpsertSurcharge(ctx, rule)
}

// DeleteSurcharge removes a surcharge rule by ID.
func (s *SurchargeService) DeleteSurcharge(ctx context.Context, id int64) error {
	return s.repo.DeleteSurcharge(ctx, id)
}

// SegmentService provides CRUD operations over the audience segment
// catalog.
type SegmentService struct {
	repo storage.SegmentRepo
}

// NewSegmentService constructs a SegmentService.
func NewSegmentService(repo storage.SegmentRepo) *SegmentService {
	return &SegmentService{repo: repo}
}

// ListSegments returns the full catalog.
func (s *SegmentService) ListSegments(ctx context.Context) ([]*models.Segment, error) {
	return s.repo.ListSegments(ctx)
}

// GetSegment returns a segment by ID, or nil if not found.
func (s *SegmentService) GetSegment(ctx context.Context, id int64) (*models.Segment, error) {
	return s.repo.GetSegment(ctx, id)
}

// UpsertSegment validates and saves a segment.
func (s *SegmentService) UpsertSegment(ctx context.Context, seg *models.Segment) error {
	now := time.Now().UTC()
	if seg.CreatedAt.IsZero() {
		seg.CreatedAt = now
	}
	seg.UpdatedAt = now
	if err := seg.Validate(); err != nil {
		return err
	}
	return s.repo.UpsertSegment(ctx, seg)
}

// DeleteSegment removes a segment by ID.
func (s *SegmentService) DeleteSegment(ctx context.Context, id int64) error {
	return s.repo.DeleteSegment(ctx, id)
}
