package planner

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/adwave/tv-planner/internal/models"
	"github.com/adwave/tv-planner/internal/storage"
)

// HistoryService records submitted estimate inputs for the admin side.
type HistoryService struct {
	store storage.HistoryStore
}

// NewHistoryService constructs a HistoryService.
func NewHistoryService(store storage.HistoryStore) *HistoryService {
	return &HistoryService{store: store}
}

// LogHistory assigns an ID and timestamp and persists the entry.
func (s *HistoryService) LogHistory(ctx context.Context, h *models.EstimateHistory) error {
	if h.ProductName == "" {
		return errors.New("product_name is required")
	}
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now().UTC()
	}
	return s.store.SaveHistory(ctx, h)
}

// ListHistory returns the most recent entries, newest first.
func (s *HistoryService) ListHistory(ctx context.Context, limit int) ([]*models.EstimateHistory, error) {
	return s.store.ListHistory(ctx, limit)
}
