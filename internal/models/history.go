package models

import "time"

// EstimateHistory records one submitted estimate request for later
// review on the admin side. RawRequest keeps the full input as JSON so
// schema changes never lose data.
type EstimateHistory struct {
	ID              string    `json:"id"`
	ProductName     string    `json:"product_name"`
	TotalBudget     float64   `json:"total_budget"`
	DurationMonths  int       `json:"duration"`
	AdDuration      int       `json:"ad_duration"`
	IsNewAdvertiser bool      `json:"is_new_advertiser"`
	RawRequest      []byte    `json:"-"`
	CreatedAt       time.Time `json:"created_at"`
}

// UsageEvent is one analytics event (estimate computed, product
// analyzed) recorded for usage reporting.
type UsageEvent struct {
	ID        string    `json:"id"`
	EventType string    `json:"event_type"`
	Product   string    `json:"product,omitempty"`
	Channels  int       `json:"channels,omitempty"`
	Budget    float64   `json:"budget,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Usage event types.
const (
	UsageEventEstimate = "estimate"
	UsageEventAnalyze  = "analyze"
	UsageEventReport   = "report"
)

// UsageStats aggregates usage events for the admin dashboard.
type UsageStats struct {
	EventType string    `json:"event_type"`
	Count     int64     `json:"count"`
	LastSeen  time.Time `json:"last_seen"`
}
