package storage

import (
	"context"
	"testing"
	"time"

	"github.com/adwave/tv-planner/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryChannelRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryChannelRepo()

	// Not found is nil, nil.
	got, err := repo.GetChannel(ctx, "MBC")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, repo.UpsertChannel(ctx, &models.Channel{Name: "MBC", BaseCPV15s: 10.0}))
	require.NoError(t, repo.UpsertChannel(ctx, &models.Channel{Name: "KBS", BaseCPV15s: 12.0}))

	got, err = repo.GetChannel(ctx, "MBC")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.NotZero(t, got.ID)

	// The stored copy is isolated from caller mutation.
	got.BaseCPV15s = 99.0
	again, err := repo.GetChannel(ctx, "MBC")
	require.NoError(t, err)
	assert.Equal(t, 10.0, again.BaseCPV15s)

	list, err := repo.ListChannels(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, repo.DeleteChannel(ctx, "MBC"))
	list, err = repo.ListChannels(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestInMemoryBonusRepoAssignsIDs(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryBonusRepo()

	a := &models.BonusRule{ChannelName: "MBC", BonusType: models.BonusTypeBasic, Rate: 0.10}
	b := &models.BonusRule{ChannelName: "MBC", BonusType: models.BonusTypeBasic, Rate: 0.05}
	require.NoError(t, repo.UpsertBonus(ctx, a))
	require.NoError(t, repo.UpsertBonus(ctx, b))
	assert.NotZero(t, a.ID)
	assert.Greater(t, b.ID, a.ID)

	// Explicit IDs are respected and do not collide with later
	// auto-assignment.
	c := &models.BonusRule{ID: 100, ChannelName: "KBS", BonusType: models.BonusTypeBasic, Rate: 0.02}
	require.NoError(t, repo.UpsertBonus(ctx, c))
	d := &models.BonusRule{ChannelName: "KBS", BonusType: models.BonusTypeBasic, Rate: 0.01}
	require.NoError(t, repo.UpsertBonus(ctx, d))
	assert.Greater(t, d.ID, int64(100))

	list, err := repo.ListBonuses(ctx)
	require.NoError(t, err)
	require.Len(t, list, 4)
	// Listed in ID order.
	for i := 1; i < len(list); i++ {
		assert.Greater(t, list[i].ID, list[i-1].ID)
	}
}

func TestInMemorySurchargeRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemorySurchargeRepo()

	rule := &models.SurchargeRule{ChannelName: "MBC", SurchargeType: models.SurchargeTypeCustom, Rate: 0.20}
	require.NoError(t, repo.UpsertSurcharge(ctx, rule))

	got, err := repo.GetSurcharge(ctx, rule.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	require.NoError(t, repo.DeleteSurcharge(ctx, rule.ID))
	got, err = repo.GetSurcharge(ctx, rule.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestInMemoryHistoryStoreNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryHistoryStore()

	for i, name := range []string{"a", "b", "c"} {
		require.NoError(t, store.SaveHistory(ctx, &models.EstimateHistory{
			ID:          name,
			ProductName: name,
			CreatedAt:   time.Now().Add(time.Duration(i) * time.Second),
		}))
	}

	list, err := store.ListHistory(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "c", list[0].ProductName)

	list, err = store.ListHistory(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "c", list[0].ProductName)
}

func TestInMemoryUsageEventStoreStats(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryUsageEventStore()

	now := time.Now()
	events := []*models.UsageEvent{
		{ID: "1", EventType: models.UsageEventEstimate, Timestamp: now},
		{ID: "2", EventType: models.UsageEventEstimate, Timestamp: now.Add(time.Second)},
		{ID: "3", EventType: models.UsageEventAnalyze, Timestamp: now},
		{ID: "4", EventType: models.UsageEventEstimate, Timestamp: now.Add(-time.Hour)},
	}
	for _, e := range events {
		require.NoError(t, store.SaveEvent(ctx, e))
	}

	stats, err := store.GetStats(ctx, now.Add(-time.Minute))
	require.NoError(t, err)
	require.Len(t, stats, 2)

	// Sorted by event type; the hour-old event falls outside the window.
	assert.Equal(t, models.UsageEventAnalyze, stats[0].EventType)
	assert.Equal(t, int64(1), stats[0].Count)
	assert.Equal(t, models.UsageEventEstimate, stats[1].EventType)
	assert.Equal(t, int64(2), stats[1].Count)
	assert.Equal(t, now.Add(time.Second).Unix(), stats[1].LastSeen.Unix())
}
