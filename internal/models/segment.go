package models

import (
	"errors"
	"time"
)

// Segment is one audience category from the fixed sales catalog. The
// recommendation service maps product descriptions onto these.
type Segment struct {
	ID                     int64  `json:"id"`
	Name                   string `json:"name"`
	Description            string `json:"description,omitempty"`
	CategoryLarge          string `json:"category_large,omitempty"`
	CategoryMid            string `json:"category_mid,omitempty"`
	CategorySmall          string `json:"category_small,omitempty"`
	RecommendedAdvertisers string `json:"recommended_advertisers,omitempty"`
	FullPath               string `json:"full_path,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Validate checks required segment fields.
func (s *Segment) Validate() error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

// RecommendedSegment is one catalog segment scored by the external
// recommendation service for a given product.
type RecommendedSegment struct {
	Name            string   `json:"name"`
	Reason          string   `json:"reason"`
	ConfidenceScore int      `json:"confidence_score"`
	KeyFactors      []string `json:"key_factors,omitempty"`
}

// Recommendation is the full response of the recommendation service.
type Recommendation struct {
	Understanding string               `json:"understanding"`
	Keywords      []string             `json:"keywords,omitempty"`
	Segments      []RecommendedSegment `json:"segments"`
}
