package models

import (
	"errors"
	"time"
)

// BonusType classifies bonus rules. Each type has its own qualification
// and stacking semantics in the calculator.
type BonusType string

const (
	BonusTypeBasic     BonusType = "basic"     // always applies, rates stack
	BonusTypeDuration  BonusType = "duration"  // best qualifying tier by campaign months
	BonusTypeVolume    BonusType = "volume"    // best qualifying tier by raw budget
	BonusTypePromotion BonusType = "promotion" // gated by condition (e.g. new advertiser)
)

// SurchargeType classifies surcharge rules.
type SurchargeType string

const (
	SurchargeTypeRegion SurchargeType = "region" // matched against the channel's region selection
	SurchargeTypeCustom SurchargeType = "custom" // applies when custom targeting is on
)

// Bonus condition qualifiers.
const (
	ConditionNewAdvertiser = "new_advertiser"
	ConditionNonTargeting  = "non_targeting"
)

// RegionNoneSelected is the sentinel the UI sends when region targeting
// is enabled but no region was picked for a channel.
const RegionNoneSelected = "선택안함"

// Channel describes one advertising channel (broadcaster) and its base
// rate card. BaseCPV15s is the price of one guaranteed impression for a
// 15-second spot; a zero rate makes the channel unusable and the
// calculator skips it.
type Channel struct {
	ID           int64   `json:"id"`
	Name         string  `json:"channel_name"`
	BaseCPV15s   float64 `json:"base_cpv"`
	CPVAudience  float64 `json:"cpv_audience,omitempty"`
	CPVNonTarget float64 `json:"cpv_non_target,omitempty"`
	Description  string  `json:"description,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Validate checks required channel fields.
func (c *Channel) Validate() error {
	if c.Name == "" {
		return errors.New("channel_name is required")
	}
	if c.BaseCPV15s < 0 {
		return errors.New("base_cpv must not be negative")
	}
	return nil
}

// BonusRule increases guaranteed impressions for a channel when its
// condition is met. Rate is a fraction (0.10 = +10%). The meaning of
// MinValue depends on BonusType: campaign months for duration rules,
// raw budget in won for volume rules, unused otherwise.
type BonusRule struct {
	ID            int64     `json:"id"`
	ChannelName   string    `json:"channel_name"`
	BonusType     BonusType `json:"bonus_type"`
	ConditionType string    `json:"condition_type,omitempty"`
	MinValue      float64   `json:"min_value"`
	Rate          float64   `json:"rate"`
	Description   string    `json:"description,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Validate checks required bonus rule fields and the type tag.
func (b *BonusRule) Validate() error {
	if b.ChannelName == "" {
		return errors.New("channel_name is required")
	}
	switch b.BonusType {
	case BonusTypeBasic, BonusTypeDuration, BonusTypeVolume, BonusTypePromotion:
	default:
		return errors.New("invalid bonus_type: " + string(b.BonusType))
	}
	if b.Rate < 0 {
		return errors.New("rate must not be negative")
	}
	return nil
}

// SurchargeRule increases the effective price for a channel when a
// premium targeting option is selected. Rate is stored as a fraction
// but combined as percentage points (rate*100) in the calculator; this
// mirrors the historical rate sheets.
type SurchargeRule struct {
	ID             int64         `json:"id"`
	ChannelName    string        `json:"channel_name"`
	SurchargeType  SurchargeType `json:"surcharge_type"`
	ConditionValue string        `json:"condition_value,omitempty"`
	Rate           float64       `json:"rate"`
	Description    string        `json:"description,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Validate checks required surcharge rule fields and the type tag.
func (s *SurchargeRule) Validate() error {
	if s.ChannelName == "" {
		return errors.New("channel_name is required")
	}
	switch s.SurchargeType {
	case SurchargeTypeRegion:
		if s.ConditionValue == "" {
			return errors.New("condition_value is required for region surcharges")
		}
	case SurchargeTypeCustom:
	default:
		return errors.New("invalid surcharge_type: " + string(s.SurchargeType))
	}
	if s.Rate < 0 {
		return errors.New("rate must not be negative")
	}
	return nil
}
