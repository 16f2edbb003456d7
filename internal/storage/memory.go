package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/adwave/tv-planner/internal/models"
)

// In-memory repositories. They back the service when PostgreSQL is not
// available and double as test fixtures. All are safe for concurrent
// use and copy values on the way in and out so callers cannot mutate
// stored state.

// InMemoryChannelRepo stores channels in a map keyed by name.
type InMemoryChannelRepo struct {
	mu       sync.RWMutex
	nextID   int64
	channels map[string]*models.Channel
}

// NewInMemoryChannelRepo creates an empty in-memory channel repo.
func NewInMemoryChannelRepo() *InMemoryChannelRepo {
	return &InMemoryChannelRepo{channels: make(map[string]*models.Channel)}
}

func (r *InMemoryChannelRepo) ListChannels(ctx context.Context) ([]*models.Channel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]*models.Channel, 0, len(r.channels))
	for _, c := range r.channels {
		cp := *c
		res = append(res, &cp)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (r *InMemoryChannelRepo) GetChannel(ctx context.Context, name string) (*models.Channel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.channels[name]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (r *InMemoryChannelRepo) UpsertChannel(ctx context.Context, c *models.Channel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	if existing, ok := r.channels[c.Name]; ok {
		cp.ID = existing.ID
	} else {
		r.nextID++
		cp.ID = r.nextID
	}
	r.channels[c.Name] = &cp
	c.ID = cp.ID
	return nil
}

func (r *InMemoryChannelRepo) DeleteChannel(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.channels, name)
	return nil
}

// InMemoryBonusRepo stores bonus rules keyed by row ID.
type InMemoryBonusRepo struct {
	mu      sync.RWMutex
	nextID  int64
	bonuses map[int64]models.BonusRule
}

// NewInMemoryBonusRepo creates an empty in-memory bonus repo.
func NewInMemoryBonusRepo() *InMemoryBonusRepo {
	return &InMemoryBonusRepo{bonuses: make(map[int64]models.BonusRule)}
}

func (r *InMemoryBonusRepo) ListBonuses(ctx context.Context) ([]models.BonusRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]models.BonusRule, 0, len(r.bonuses))
	for _, b := range r.bonuses {
		res = append(res, b)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (r *InMemoryBonusRepo) GetBonus(ctx context.Context, id int64) (*models.BonusRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if b, ok := r.bonuses[id]; ok {
		return &b, nil
	}
	return nil, nil
}

func (r *InMemoryBonusRepo) UpsertBonus(ctx context.Context, b *models.BonusRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b.ID == 0 {
		r.nextID++
		b.ID = r.nextID
	} else if b.ID > r.nextID {
		r.nextID = b.ID
	}
	r.bonuses[b.ID] = *b
	return nil
}

func (r *InMemoryBonusRepo) DeleteBonus(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.bonuses, id)
	return nil
}

// InMemorySurchargeRepo stores surcharge rules keyed by row ID.
type InMemorySurchargeRepo struct {
	mu         sync.RWMutex
	nextID     int64
	surcharges map[int64]models.SurchargeRule
}

// NewInMemorySurchargeRepo creates an empty in-memory surcharge repo.
func NewInMemorySurchargeRepo() *InMemorySurchargeRepo {
	return &InMemorySurchargeRepo{surcharges: make(map[int64]models.SurchargeRule)}
}

func (r *InMemorySurchargeRepo) ListSurcharges(ctx context.Context) ([]models.SurchargeRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]models.SurchargeRule, 0, len(r.surcharges))
	for _, s := range r.surcharges {
		res = append(res, s)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (r *InMemorySurchargeRepo) GetSurcharge(ctx context.Context, id int64) (*models.SurchargeRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.surcharges[id]; ok {
		return &s, nil
	}
	return nil, nil
}

func (r *InMemorySurchargeRepo) UpsertSurcharge(ctx context.Context, s *models.SurchargeRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == 0 {
		r.nextID++
		s.ID = r.nextID
	} else if s.ID > r.nextID {
		r.nextID = s.ID
	}
	r.surcharges[s.ID] = *s
	return nil
}

func (r *InMemorySurchargeRepo) DeleteSurcharge(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.surcharges, id)
	return nil
}

// InMemorySegmentRepo stores catalog segments keyed by row ID.
type InMemorySegmentRepo struct {
	mu       sync.RWMutex
	nextID   int64
	segments map[int64]*models.Segment
}

// NewInMemorySegmentRepo creates an empty in-memory segment repo.
func NewInMemorySegmentRepo() *InMemorySegmentRepo {
	return &InMemorySegmentRepo{segments: make(map[int64]*models.Segment)}
}

func (r *InMemorySegmentRepo) ListSegments(ctx context.Context) ([]*models.Segment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]*models.Segment, 0, len(r.segments))
	for _, s := range r.segments {
		cp := *s
		res = append(res, &cp)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (r *InMemorySegmentRepo) GetSegment(ctx context.Context, id int64) (*models.Segment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.segments[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

func (r *InMemorySegmentRepo) UpsertSegment(ctx context.Context, s *models.Segment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == 0 {
		r.nextID++
		s.ID = r.nextID
	} else if s.ID > r.nextID {
		r.nextID = s.ID
	}
	cp := *s
	r.segments[s.ID] = &cp
	return nil
}

func (r *InMemorySegmentRepo) DeleteSegment(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.segments, id)
	return nil
}

// InMemoryHistoryStore keeps estimate history in insertion order.
type InMemoryHistoryStore struct {
	mu      sync.RWMutex
	entries []*models.EstimateHistory
}

// NewInMemoryHistoryStore creates an empty in-memory history store.
func NewInMemoryHistoryStore() *InMemoryHistoryStore {
	return &InMemoryHistoryStore{}
}

func (s *InMemoryHistoryStore) SaveHistory(ctx context.Context, h *models.EstimateHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *h
	s.entries = append(s.entries, &cp)
	return nil
}

// ListHistory returns the most recent entries first.
func (s *InMemoryHistoryStore) ListHistory(ctx context.Context, limit int) ([]*models.EstimateHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.entries)
	if limit <= 0 || limit > n {
		limit = n
	}
	res := make([]*models.EstimateHistory, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		cp := *s.entries[i]
		res = append(res, &cp)
	}
	return res, nil
}

// InMemoryUsageEventStore aggregates usage events in memory.
type InMemoryUsageEventStore struct {
	mu     sync.RWMutex
	events []*models.UsageEvent
}

// NewInMemoryUsageEventStore creates an empty in-memory event store.
func NewInMemoryUsageEventStore() *InMemoryUsageEventStore {
	return &InMemoryUsageEventStore{}
}

func (s *InMemoryUsageEventStore) SaveEvent(ctx context.Context, e *models.UsageEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *e
	s.events = append(s.events, &cp)
	return nil
}

func (s *InMemoryUsageEventStore) GetStats(ctx context.Context, since time.Time) ([]*models.UsageStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byType := make(map[string]*models.UsageStats)
	for _, e := range s.events {
		if e.Timestamp.Before(since) {
			continue
		}
		st, ok := byType[e.EventType]
		if !ok {
			st = &models.UsageStats{EventType: e.EventType}
			byType[e.EventType] = st
		}
		st.Count++
		if e.Timestamp.After(st.LastSeen) {
			st.LastSeen = e.Timestamp
		}
	}
	res := make([]*models.UsageStats, 0, len(byType))
	for _, st := range byType {
		res = append(res, st)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].EventType < res[j].EventType })
	return res, nil
}
