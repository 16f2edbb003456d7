package planner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adwave/tv-planner/internal/metrics"
	"github.com/adwave/tv-planner/internal/models"
	"github.com/adwave/tv-planner/internal/storage"
)

// EstimateService loads a fresh policy snapshot per request and runs the
// calculator over it. Policy rows are never cached across requests so
// admin edits take effect immediately.
type EstimateService struct {
	channels   storage.ChannelRepo
	bonuses    storage.BonusRepo
	surcharges storage.SurchargeRepo
	events     storage.UsageEventStore
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewEstimateService constructs an EstimateService. The event store and
// metrics may be nil; usage recording is best effort.
func NewEstimateService(
	channels storage.ChannelRepo,
	bonuses storage.BonusRepo,
	surcharges storage.SurchargeRepo,
	events storage.UsageEventStore,
	m *metrics.Metrics,
	logger *zap.Logger,
) *EstimateService {
	return &EstimateService{
		channels:   channels,
		bonuses:    bonuses,
		surcharges: surcharges,
		events:     events,
		metrics:    m,
		logger:     logger,
	}
}

// Snapshot fetches all three rule tables and indexes them for the
// calculator.
func (s *EstimateService) Snapshot(ctx context.Context) (*PolicySnapshot, error) {
	channels, err := s.channels.ListChannels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load channels: %w", err)
	}
	bonuses, err := s.bonuses.ListBonuses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load bonuses: %w", err)
	}
	surcharges, err := s.surcharges.ListSurcharges(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load surcharges: %w", err)
	}
	return NewPolicySnapshot(channels, bonuses, surcharges), nil
}

// Estimate validates the request, computes the estimate against the
// current policy and records usage. ErrNoChannels is the only business
// error; storage failures are wrapped and returned as-is.
func (s *EstimateService) Estimate(ctx context.Context, req *models.EstimateRequest) (*models.EstimateResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	policy, err := s.Snapshot(ctx)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordEstimate("storage_error", 0, 0)
		}
		return nil, err
	}

	if dups := policy.DuplicateSurcharges(); len(dups) > 0 {
		if s.metrics != nil {
			s.metrics.RecordDuplicateRules(len(dups))
		}
		for _, d := range dups {
			s.logger.Warn("ambiguous surcharge rule, first match wins",
				zap.Int64("id", d.ID),
				zap.String("channel", d.ChannelName),
				zap.String("type", string(d.SurchargeType)),
				zap.String("condition", d.ConditionValue),
			)
		}
	}

	start := time.Now()
	result, err := Calculate(req, policy)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordEstimate("no_channels", 0, 0)
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordEstimate("ok", len(result.Details), time.Since(start))
		for _, name := range result.SkippedChannels {
			s.metrics.RecordSkippedChannel(name)
		}
	}

	s.recordUsage(ctx, result)
	return result, nil
}

// recordUsage appends a usage event. Failures are logged, never
// propagated; analytics must not break estimates.
func (s *EstimateService) recordUsage(ctx context.Context, result *models.EstimateResult) {
	if s.events == nil {
		return
	}
	event := &models.UsageEvent{
		ID:        uuid.NewString(),
		EventType: models.UsageEventEstimate,
		Channels:  len(result.Details),
		Budget:    result.Summary.TotalBudget,
		Timestamp: time.Now().UTC(),
	}
	if err := s.events.SaveEvent(ctx, event); err != nil {
		s.logger.Warn("failed to record usage event", zap.Error(err))
	}
}
