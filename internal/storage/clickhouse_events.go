package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/adwave/tv-planner/internal/models"
)

// ClickHouseUsageEventStore implements UsageEventStore on ClickHouse.
// Usage events are append-only and queried in aggregate, which is what
// ClickHouse is for; losing individual events is acceptable.
type ClickHouseUsageEventStore struct {
	conn driver.Conn
}

// NewClickHouseUsageEventStore creates a ClickHouse-backed event store.
func NewClickHouseUsageEventStore(conn driver.Conn) *ClickHouseUsageEventStore {
	return &ClickHouseUsageEventStore{conn: conn}
}

func (s *ClickHouseUsageEventStore) SaveEvent(ctx context.Context, e *models.UsageEvent) error {
	err := s.conn.Exec(ctx, `
		INSERT INTO usage_events (id, event_type, product, channels, budget, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.ID, e.EventType, e.Product, int32(e.Channels), e.Budget, e.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to save usage event: %w", err)
	}
	return nil
}

func (s *ClickHouseUsageEventStore) GetStats(ctx context.Context, since time.Time) ([]*models.UsageStats, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT event_type, count() AS cnt, max(timestamp) AS last_seen
		FROM usage_events
		WHERE timestamp >= ?
		GROUP BY event_type
		ORDER BY event_type
	`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage stats: %w", err)
	}
	defer rows.Close()

	var stats []*models.UsageStats
	for rows.Next() {
		var st models.UsageStats
		var count uint64
		if err := rows.Scan(&st.EventType, &count, &st.LastSeen); err != nil {
			return nil, err
		}
		st.Count = int64(count)
		stats = append(stats, &st)
	}
	return stats, rows.Err()
}
