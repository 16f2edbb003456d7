package recommender

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/adwave/tv-planner/internal/config"
	"github.com/adwave/tv-planner/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(baseURL string) config.RecommenderConfig {
	return config.RecommenderConfig{
		BaseURL:    baseURL,
		APIKey:     "test-key",
		Timeout:    5 * time.Second,
		MaxRetries: 2,
		CacheTTL:   time.Minute,
	}
}

func TestClientDisabledWithoutBaseURL(t *testing.T) {
	c := NewClient(config.RecommenderConfig{}, nil, nil, zap.NewNop())
	assert.False(t, c.Enabled())

	_, err := c.Recommend(context.Background(), "비타민C", "", 3)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestClientRecommend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/recommend", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req recommendRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "비타민C", req.ProductName)
		assert.Equal(t, 3, req.NumRecs)

		json.NewEncoder(w).Encode(models.Recommendation{
			Understanding: "건강기능식품",
			Keywords:      []string{"비타민", "면역"},
			Segments: []models.RecommendedSegment{
				{Name: "건강식품 관심층", Reason: "면역 관리 수요", ConfidenceScore: 92},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), nil, nil, zap.NewNop())
	rec, err := c.Recommend(context.Background(), "비타민C", "", 3)
	require.NoError(t, err)
	require.Len(t, rec.Segments, 1)
	assert.Equal(t, "건강식품 관심층", rec.Segments[0].Name)
	assert.Equal(t, 92, rec.Segments[0].ConfidenceScore)
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(models.Recommendation{Understanding: "ok"})
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), nil, nil, zap.NewNop())
	rec, err := c.Recommend(context.Background(), "비타민C", "", 3)
	require.NoError(t, err)
	assert.Equal(t, "ok", rec.Understanding)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad payload", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), nil, nil, zap.NewNop())
	_, err := c.Recommend(context.Background(), "비타민C", "", 3)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClientGivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), nil, nil, zap.NewNop())
	_, err := c.Recommend(context.Background(), "비타민C", "", 3)
	assert.ErrorIs(t, err, ErrUnavailable)
	// Initial attempt plus MaxRetries.
	assert.Equal(t, int32(3), calls.Load())
}

func TestClientCacheKeyStable(t *testing.T) {
	c := NewClient(testConfig("http://example.invalid"), nil, nil, zap.NewNop())

	a := c.cacheKey(recommendRequest{ProductName: "비타민C", URL: "https://shop.example", NumRecs: 3})
	b := c.cacheKey(recommendRequest{ProductName: "비타민C", URL: "https://shop.example", NumRecs: 3})
	assert.Equal(t, a, b)

	other := c.cacheKey(recommendRequest{ProductName: "비타민C", URL: "https://shop.example", NumRecs: 5})
	assert.NotEqual(t, a, other)
}
