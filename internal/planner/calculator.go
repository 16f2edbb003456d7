package planner

import (
	"errors"
	"math"

	"github.com/adwave/tv-planner/internal/models"
)

// ErrNoChannels is returned when the channel table is empty. Per-channel
// gaps (unknown channel, zero rate, zero budget) are never errors; those
// channels are skipped and reported in EstimateResult.SkippedChannels.
var ErrNoChannels = errors.New("no channel data configured")

// Calculate computes guaranteed impressions and blended CPV for every
// selected channel against the given policy snapshot. It is a pure
// function: no I/O, no shared state, identical inputs yield identical
// results.
//
// Per channel the rate composition is:
//
//	appliedCPV  = baseCPV * (1 + surchargePct/100)
//	impressions = budget / appliedCPV * (1 + bonusRate)
//
// where baseCPV doubles for 30-second spots, surchargePct sums the
// first matching region and custom surcharge rows (rate*100 each) and
// bonusRate sums stacking basic bonuses, the best qualifying duration
// and volume tiers, and condition-gated promotion/non-targeting
// bonuses.
func Calculate(req *models.EstimateRequest, policy *PolicySnapshot) (*models.EstimateResult, error) {
	if policy == nil || policy.Empty() {
		return nil, ErrNoChannels
	}

	result := &models.EstimateResult{}

	var totalBudget float64
	var totalImpressions float64

	for _, name := range req.Channels() {
		lots := req.ChannelBudgets[name]
		if lots == 0 {
			result.SkippedChannels = append(result.SkippedChannels, name)
			continue
		}
		budget := lots * models.WonPerBudgetLot

		channel := policy.Channel(name)
		if channel == nil || channel.BaseCPV15s == 0 {
			result.SkippedChannels = append(result.SkippedChannels, name)
			continue
		}

		baseCPV := channel.BaseCPV15s
		if req.AdDuration == models.AdDuration30s {
			baseCPV *= 2.0
		}

		bonusRate := totalBonusRate(req, policy.Bonuses(name), budget)
		surchargePct := totalSurchargePct(req, policy.Surcharges(name), name)

		appliedCPV := baseCPV * (1 + surchargePct/100)

		var impressions float64
		if appliedCPV > 0 {
			impressions = budget / appliedCPV
		}
		impressions *= 1 + bonusRate

		var finalCPV float64
		if impressions > 0 {
			finalCPV = budget / impressions
		}

		result.Details = append(result.Details, models.ChannelEstimate{
			Channel:               name,
			Budget:                budget,
			BaseCPV:               baseCPV,
			TotalBonusRatePct:     bonusRate * 100,
			TotalSurchargeRatePct: surchargePct,
			GuaranteedImpressions: int64(math.Round(impressions)),
			FinalCPV:              finalCPV,
		})

		totalBudget += budget
		totalImpressions += impressions
	}

	var averageCPV float64
	if totalImpressions > 0 {
		averageCPV = totalBudget / totalImpressions
	}

	result.Summary = models.EstimateSummary{
		TotalBudget:      totalBudget,
		TotalImpressions: int64(math.Round(totalImpressions)),
		AverageCPV:       averageCPV,
		AdDuration:       req.AdDuration,
		DurationMonths:   req.DurationMonths,
	}

	return result, nil
}

// totalBonusRate sums the fractional bonus rates that apply to one
// channel. Basic bonuses stack; duration and volume bonuses contribute
// only their best qualifying tier; promotion and non-targeting bonuses
// are gated on the request flags.
func totalBonusRate(req *models.EstimateRequest, rules []models.BonusRule, budget float64) float64 {
	var total float64

	bestDuration := math.Inf(-1)
	bestVolume := math.Inf(-1)

	for _, b := range rules {
		switch b.BonusType {
		case models.BonusTypeBasic:
			total += b.Rate
		case models.BonusTypeDuration:
			if b.MinValue <= float64(req.DurationMonths) && b.Rate > bestDuration {
				bestDuration = b.Rate
			}
		case models.BonusTypeVolume:
			if b.MinValue <= budget && b.Rate > bestVolume {
				bestVolume = b.Rate
			}
		case models.BonusTypePromotion:
			if req.IsNewAdvertiser && b.ConditionType == models.ConditionNewAdvertiser {
				total += b.Rate
			}
		}
	}

	if !math.IsInf(bestDuration, -1) {
		total += bestDuration
	}
	if !math.IsInf(bestVolume, -1) {
		total += bestVolume
	}

	// Non-targeting bonuses are matched on condition alone, whatever
	// the row's bonus type.
	if req.IsNonTargeting() {
		for _, b := range rules {
			if b.ConditionType == models.ConditionNonTargeting {
				total += b.Rate
			}
		}
	}

	return total
}

// totalSurchargePct sums the surcharge percentage points for one
// channel. Stored rates are fractions; the rate sheet combines them as
// percentages, hence the *100. Only the first matching row of each kind
// counts, in row-ID order.
func totalSurchargePct(req *models.EstimateRequest, rules []models.SurchargeRule, channel string) float64 {
	var total float64

	if req.RegionTargeting {
		if region := req.RegionSelections[channel]; region != "" && region != models.RegionNoneSelected {
			for _, s := range rules {
				if s.SurchargeType == models.SurchargeTypeRegion && s.ConditionValue == region {
					total += s.Rate * 100
					break
				}
			}
		}
	}

	if req.CustomTargeting {
		for _, s := range rules {
			if s.SurchargeType == models.SurchargeTypeCustom {
				total += s.Rate * 100
				break
			}
		}
	}

	return total
}
