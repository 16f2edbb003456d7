package planner

import (
	"testing"

	"github.com/adwave/tv-planner/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func singleChannelPolicy(name string, baseCPV float64, bonuses []models.BonusRule, surcharges []models.SurchargeRule) *PolicySnapshot {
	return NewPolicySnapshot(
		[]*models.Channel{{ID: 1, Name: name, BaseCPV15s: baseCPV}},
		bonuses,
		surcharges,
	)
}

func TestCalculateBaseCase(t *testing.T) {
	policy := singleChannelPolicy("MBC", 10.0, nil, nil)
	req := &models.EstimateRequest{
		ChannelBudgets: map[string]float64{"MBC": 100},
		DurationMonths: 1,
		AdDuration:     models.AdDuration15s,
	}

	result, err := Calculate(req, policy)
	require.NoError(t, err)
	require.Len(t, result.Details, 1)

	d := result.Details[0]
	assert.Equal(t, "MBC", d.Channel)
	assert.Equal(t, 1_000_000.0, d.Budget)
	assert.Equal(t, 10.0, d.BaseCPV)
	assert.Equal(t, int64(100_000), d.GuaranteedImpressions)
	assert.InDelta(t, 10.0, d.FinalCPV, 1e-9)

	assert.Equal(t, 1_000_000.0, result.Summary.TotalBudget)
	assert.Equal(t, int64(100_000), result.Summary.TotalImpressions)
	assert.InDelta(t, 10.0, result.Summary.AverageCPV, 1e-9)
	assert.Empty(t, result.SkippedChannels)
}

func TestCalculateNewAdvertiserPromotion(t *testing.T) {
	bonuses := []models.BonusRule{
		{ID: 1, ChannelName: "MBC", BonusType: models.BonusTypePromotion, ConditionType: models.ConditionNewAdvertiser, Rate: 0.20},
	}
	policy := singleChannelPolicy("MBC", 10.0, bonuses, nil)
	req := &models.EstimateRequest{
		ChannelBudgets:  map[string]float64{"MBC": 100},
		DurationMonths:  1,
		AdDuration:      models.AdDuration15s,
		IsNewAdvertiser: true,
	}

	result, err := Calculate(req, policy)
	require.NoError(t, err)
	require.Len(t, result.Details, 1)

	d := result.Details[0]
	assert.InDelta(t, 20.0, d.TotalBonusRatePct, 1e-9)
	assert.Equal(t, int64(120_000), d.GuaranteedImpressions)
	assert.InDelta(t, 8.333, d.FinalCPV, 0.001)

	// The same request without the flag gets no promotion.
	req.IsNewAdvertiser = false
	result, err = Calculate(req, policy)
	require.NoError(t, err)
	assert.Equal(t, int64(100_000), result.Details[0].GuaranteedImpressions)
}

func TestCalculateRegionSurcharge(t *testing.T) {
	surcharges := []models.SurchargeRule{
		{ID: 1, ChannelName: "MBC", SurchargeType: models.SurchargeTypeRegion, ConditionValue: "수도권", Rate: 0.30},
	}
	policy := singleChannelPolicy("MBC", 10.0, nil, surcharges)
	req := &models.EstimateRequest{
		ChannelBudgets:   map[string]float64{"MBC": 100},
		DurationMonths:   1,
		AdDuration:       models.AdDuration15s,
		RegionTargeting:  true,
		RegionSelections: map[string]string{"MBC": "수도권"},
	}

	result, err := Calculate(req, policy)
	require.NoError(t, err)
	require.Len(t, result.Details, 1)

	d := result.Details[0]
	assert.InDelta(t, 30.0, d.TotalSurchargeRatePct, 1e-9)
	assert.Equal(t, int64(76_923), d.GuaranteedImpressions)
	assert.InDelta(t, 13.0, d.FinalCPV, 1e-9)
}

func TestCalculateRegionSurchargeNotAppliedWithoutSelection(t *testing.T) {
	surcharges := []models.SurchargeRule{
		{ID: 1, ChannelName: "MBC", SurchargeType: models.SurchargeTypeRegion, ConditionValue: "수도권", Rate: 0.30},
	}
	policy := singleChannelPolicy("MBC", 10.0, nil, surcharges)

	for _, selection := range []string{"", models.RegionNoneSelected} {
		req := &models.EstimateRequest{
			ChannelBudgets:   map[string]float64{"MBC": 100},
			DurationMonths:   1,
			RegionTargeting:  true,
			RegionSelections: map[string]string{"MBC": selection},
		}
		result, err := Calculate(req, policy)
		require.NoError(t, err)
		assert.Zero(t, result.Details[0].TotalSurchargeRatePct, "selection %q", selection)
	}
}

func TestCalculateCustomSurchargeFirstMatch(t *testing.T) {
	// Duplicate custom rows: only the lowest row ID counts.
	surcharges := []models.SurchargeRule{
		{ID: 7, ChannelName: "MBC", SurchargeType: models.SurchargeTypeCustom, Rate: 0.50},
		{ID: 3, ChannelName: "MBC", SurchargeType: models.SurchargeTypeCustom, Rate: 0.20},
	}
	policy := singleChannelPolicy("MBC", 10.0, nil, surcharges)
	req := &models.EstimateRequest{
		ChannelBudgets:  map[string]float64{"MBC": 100},
		DurationMonths:  1,
		CustomTargeting: true,
	}

	result, err := Calculate(req, policy)
	require.NoError(t, err)
	assert.InDelta(t, 20.0, result.Details[0].TotalSurchargeRatePct, 1e-9)
}

func TestCalculateZeroRateChannelSkipped(t *testing.T) {
	policy := NewPolicySnapshot(
		[]*models.Channel{
			{ID: 1, Name: "MBC", BaseCPV15s: 10.0},
			{ID: 2, Name: "SBS", BaseCPV15s: 0},
		},
		nil, nil,
	)
	req := &models.EstimateRequest{
		ChannelBudgets: map[string]float64{"MBC": 100, "SBS": 50},
		DurationMonths: 1,
	}

	result, err := Calculate(req, policy)
	require.NoError(t, err)
	require.Len(t, result.Details, 1)
	assert.Equal(t, "MBC", result.Details[0].Channel)
	assert.Equal(t, []string{"SBS"}, result.SkippedChannels)

	// Summary reflects only the processed channel.
	assert.Equal(t, 1_000_000.0, result.Summary.TotalBudget)
	assert.Equal(t, int64(100_000), result.Summary.TotalImpressions)
}

func TestCalculateDurationTierMaxOfQualifying(t *testing.T) {
	bonuses := []models.BonusRule{
		{ID: 1, ChannelName: "MBC", BonusType: models.BonusTypeDuration, MinValue: 3, Rate: 0.05},
		{ID: 2, ChannelName: "MBC", BonusType: models.BonusTypeDuration, MinValue: 6, Rate: 0.10},
		{ID: 3, ChannelName: "MBC", BonusType: models.BonusTypeDuration, MinValue: 12, Rate: 0.20},
	}
	policy := singleChannelPolicy("MBC", 10.0, bonuses, nil)
	req := &models.EstimateRequest{
		ChannelBudgets:    map[string]float64{"MBC": 100},
		DurationMonths:    6,
		AudienceTargeting: true, // suppress non-targeting matching
	}

	result, err := Calculate(req, policy)
	require.NoError(t, err)
	// Tiers do not stack: only the best qualifying one applies.
	assert.InDelta(t, 10.0, result.Details[0].TotalBonusRatePct, 1e-9)
}

func TestCalculateVolumeTier(t *testing.T) {
	bonuses := []models.BonusRule{
		{ID: 1, ChannelName: "MBC", BonusType: models.BonusTypeVolume, MinValue: 500_000, Rate: 0.05},
		{ID: 2, ChannelName: "MBC", BonusType: models.BonusTypeVolume, MinValue: 5_000_000, Rate: 0.15},
	}
	policy := singleChannelPolicy("MBC", 10.0, bonuses, nil)

	// 100 lots = 1,000,000 won qualifies only the first tier.
	req := &models.EstimateRequest{
		ChannelBudgets:    map[string]float64{"MBC": 100},
		DurationMonths:    1,
		AudienceTargeting: true,
	}
	result, err := Calculate(req, policy)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, result.Details[0].TotalBonusRatePct, 1e-9)

	// 600 lots = 6,000,000 won qualifies both; the bigger tier wins.
	req.ChannelBudgets["MBC"] = 600
	result, err = Calculate(req, policy)
	require.NoError(t, err)
	assert.InDelta(t, 15.0, result.Details[0].TotalBonusRatePct, 1e-9)
}

func TestCalculateBasicBonusesStack(t *testing.T) {
	bonuses := []models.BonusRule{
		{ID: 1, ChannelName: "MBC", BonusType: models.BonusTypeBasic, Rate: 0.10},
		{ID: 2, ChannelName: "MBC", BonusType: models.BonusTypeBasic, Rate: 0.05},
	}
	policy := singleChannelPolicy("MBC", 10.0, bonuses, nil)
	req := &models.EstimateRequest{
		ChannelBudgets:    map[string]float64{"MBC": 100},
		DurationMonths:    1,
		AudienceTargeting: true,
	}

	result, err := Calculate(req, policy)
	require.NoError(t, err)
	assert.InDelta(t, 15.0, result.Details[0].TotalBonusRatePct, 1e-9)
}

func TestCalculateNonTargetingBonus(t *testing.T) {
	bonuses := []models.BonusRule{
		{ID: 1, ChannelName: "MBC", BonusType: models.BonusTypeBasic, ConditionType: models.ConditionNonTargeting, Rate: 0.10},
	}
	policy := singleChannelPolicy("MBC", 10.0, bonuses, nil)

	// No targeting at all: the basic rate stacks and the non-targeting
	// condition also matches, so the row counts twice.
	req := &models.EstimateRequest{
		ChannelBudgets: map[string]float64{"MBC": 100},
		DurationMonths: 1,
	}
	result, err := Calculate(req, policy)
	require.NoError(t, err)
	assert.InDelta(t, 20.0, result.Details[0].TotalBonusRatePct, 1e-9)

	// Audience targeting chosen: only the basic stacking remains.
	req.AudienceTargeting = true
	result, err = Calculate(req, policy)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, result.Details[0].TotalBonusRatePct, 1e-9)
}

func TestCalculateThirtySecondDoubling(t *testing.T) {
	policy := singleChannelPolicy("MBC", 10.0, nil, nil)
	req := &models.EstimateRequest{
		ChannelBudgets: map[string]float64{"MBC": 100},
		DurationMonths: 1,
		AdDuration:     models.AdDuration30s,
	}

	result, err := Calculate(req, policy)
	require.NoError(t, err)

	d := result.Details[0]
	assert.Equal(t, 20.0, d.BaseCPV)
	assert.Equal(t, int64(50_000), d.GuaranteedImpressions)

	// Any other spot length is priced as a 15-second equivalent.
	req.AdDuration = 20
	result, err = Calculate(req, policy)
	require.NoError(t, err)
	assert.Equal(t, 10.0, result.Details[0].BaseCPV)
}

func TestCalculateZeroBudgetSkipped(t *testing.T) {
	policy := singleChannelPolicy("MBC", 10.0, nil, nil)
	req := &models.EstimateRequest{
		ChannelBudgets:   map[string]float64{"MBC": 0, "KBS": 100},
		DurationMonths:   1,
		SelectedChannels: []string{"MBC", "KBS"},
	}

	result, err := Calculate(req, policy)
	require.NoError(t, err)
	assert.Empty(t, result.Details)
	// MBC has no budget, KBS is not configured.
	assert.Equal(t, []string{"MBC", "KBS"}, result.SkippedChannels)
	assert.Zero(t, result.Summary.TotalBudget)
	assert.Zero(t, result.Summary.AverageCPV)
}

func TestCalculateNoChannelsConfigured(t *testing.T) {
	req := &models.EstimateRequest{
		ChannelBudgets: map[string]float64{"MBC": 100},
		DurationMonths: 1,
	}

	_, err := Calculate(req, NewPolicySnapshot(nil, nil, nil))
	assert.ErrorIs(t, err, ErrNoChannels)

	_, err = Calculate(req, nil)
	assert.ErrorIs(t, err, ErrNoChannels)
}

func TestCalculateIdempotent(t *testing.T) {
	bonuses := []models.BonusRule{
		{ID: 1, ChannelName: "MBC", BonusType: models.BonusTypeBasic, Rate: 0.10},
	}
	surcharges := []models.SurchargeRule{
		{ID: 1, ChannelName: "MBC", SurchargeType: models.SurchargeTypeCustom, Rate: 0.20},
	}
	policy := NewPolicySnapshot(
		[]*models.Channel{
			{ID: 1, Name: "MBC", BaseCPV15s: 10.0},
			{ID: 2, Name: "KBS", BaseCPV15s: 12.0},
			{ID: 3, Name: "SBS", BaseCPV15s: 11.0},
		},
		bonuses, surcharges,
	)
	req := &models.EstimateRequest{
		ChannelBudgets:  map[string]float64{"MBC": 100, "KBS": 50, "SBS": 25},
		DurationMonths:  3,
		CustomTargeting: true,
	}

	first, err := Calculate(req, policy)
	require.NoError(t, err)
	second, err := Calculate(req, policy)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Budgeted channels come out in name order when there is no
	// explicit selection.
	var names []string
	for _, d := range first.Details {
		names = append(names, d.Channel)
	}
	assert.Equal(t, []string{"KBS", "MBC", "SBS"}, names)
}

func TestCalculateMonotonicInBudget(t *testing.T) {
	policy := singleChannelPolicy("MBC", 10.0, nil, nil)

	var prev int64
	for _, lots := range []float64{10, 50, 100, 500, 1000} {
		req := &models.EstimateRequest{
			ChannelBudgets: map[string]float64{"MBC": lots},
			DurationMonths: 1,
		}
		result, err := Calculate(req, policy)
		require.NoError(t, err)
		impressions := result.Details[0].GuaranteedImpressions
		assert.Greater(t, impressions, prev, "lots %v", lots)
		prev = impressions
	}
}

func TestCalculateSummation(t *testing.T) {
	policy := NewPolicySnapshot(
		[]*models.Channel{
			{ID: 1, Name: "MBC", BaseCPV15s: 10.0},
			{ID: 2, Name: "KBS", BaseCPV15s: 12.0},
		},
		nil, nil,
	)
	req := &models.EstimateRequest{
		ChannelBudgets: map[string]float64{"MBC": 100, "KBS": 200},
		DurationMonths: 1,
	}

	result, err := Calculate(req, policy)
	require.NoError(t, err)

	var sum float64
	for _, d := range result.Details {
		sum += d.Budget
	}
	assert.Equal(t, sum, result.Summary.TotalBudget)
}
