package models

import (
	"errors"
	"fmt"
	"sort"
)

// Spot lengths sold on the rate card. Any other value is priced as a
// 15-second equivalent rather than rejected.
const (
	AdDuration15s = 15
	AdDuration30s = 30
)

// WonPerBudgetLot converts budget lots (만원) to raw currency.
const WonPerBudgetLot = 10000

// EstimateRequest carries one user's selections for a single estimate
// computation. Budgets are given in 10,000-won lots per channel; a
// channel with a zero budget is skipped.
type EstimateRequest struct {
	ChannelBudgets    map[string]float64 `json:"channel_allocations"`
	DurationMonths    int                `json:"duration"`
	AdDuration        int                `json:"ad_duration"`
	RegionTargeting   bool               `json:"region_targeting"`
	RegionSelections  map[string]string  `json:"region_selections,omitempty"`
	AudienceTargeting bool               `json:"audience_targeting"`
	CustomTargeting   bool               `json:"custom_targeting"`
	IsNewAdvertiser   bool               `json:"is_new_advertiser"`

	// SelectedChannels narrows the computation to a subset of the
	// budgeted channels. When empty, every channel with a positive
	// budget is selected.
	SelectedChannels []string `json:"selected_channels,omitempty"`
}

// ErrInvalidRequest marks structural validation failures so callers
// can map them to a client error.
var ErrInvalidRequest = errors.New("invalid estimate request")

// Validate checks the request for structural problems. Business-level
// gaps (unknown channels, zero budgets) are not errors; the calculator
// skips them.
func (r *EstimateRequest) Validate() error {
	if len(r.ChannelBudgets) == 0 {
		return fmt.Errorf("%w: channel_allocations is required", ErrInvalidRequest)
	}
	if r.DurationMonths < 0 {
		return fmt.Errorf("%w: duration must not be negative", ErrInvalidRequest)
	}
	for name, lots := range r.ChannelBudgets {
		if name == "" {
			return fmt.Errorf("%w: channel name must not be empty", ErrInvalidRequest)
		}
		if lots < 0 {
			return fmt.Errorf("%w: budget for channel %s must not be negative", ErrInvalidRequest, name)
		}
	}
	return nil
}

// Channels returns the effective channel selection: the explicit
// selection in request order when present, otherwise all budgeted
// channels sorted by name so repeated calls yield identical results.
func (r *EstimateRequest) Channels() []string {
	if len(r.SelectedChannels) > 0 {
		return r.SelectedChannels
	}
	names := make([]string, 0, len(r.ChannelBudgets))
	for name, lots := range r.ChannelBudgets {
		if lots > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// IsNonTargeting reports whether the request qualifies for
// non-targeting bonuses: neither audience nor region targeting chosen.
func (r *EstimateRequest) IsNonTargeting() bool {
	return !r.AudienceTargeting && !r.RegionTargeting
}

// ChannelEstimate is one per-channel line of an estimate. Rates are
// reported as percentages for display; GuaranteedImpressions is rounded
// to the nearest impression.
type ChannelEstimate struct {
	Channel               string  `json:"channel"`
	Budget                float64 `json:"budget"`
	BaseCPV               float64 `json:"base_cpv"`
	TotalBonusRatePct     float64 `json:"total_bonus_rate"`
	TotalSurchargeRatePct float64 `json:"total_surcharge_rate"`
	GuaranteedImpressions int64   `json:"guaranteed_impressions"`
	FinalCPV              float64 `json:"final_cpv"`
}

// EstimateSummary aggregates the processed channels. Totals cover only
// channels that produced a detail row; skipped channels contribute
// nothing.
type EstimateSummary struct {
	TotalBudget      float64 `json:"total_budget"`
	TotalImpressions int64   `json:"total_impressions"`
	AverageCPV       float64 `json:"average_cpv"`
	AdDuration       int     `json:"ad_duration"`
	DurationMonths   int     `json:"duration_months"`
}

// EstimateResult is the full outcome of one estimate computation.
// SkippedChannels lists selected channels that were silently dropped
// (zero budget, unknown channel or zero base rate) so callers can tell
// a thin result from a misconfigured one.
type EstimateResult struct {
	Details         []ChannelEstimate `json:"details"`
	Summary         EstimateSummary   `json:"summary"`
	SkippedChannels []string          `json:"skipped_channels,omitempty"`
}
