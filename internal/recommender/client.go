// Package recommender is the thin client for the external LLM-backed
// segment recommendation API. The recommendation logic itself lives
// behind that API; this package only speaks its request/response
// contract, retries transient failures and caches responses.
package recommender

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/adwave/tv-planner/internal/config"
	"github.com/adwave/tv-planner/internal/metrics"
	"github.com/adwave/tv-planner/internal/models"
)

// ErrUnavailable is returned when the recommendation API is not
// configured or keeps failing after retries.
var ErrUnavailable = errors.New("recommendation service unavailable")

// Client calls the external segment recommendation service.
type Client struct {
	cfg     config.RecommenderConfig
	http    *http.Client
	cache   *redis.Client
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewClient constructs a recommendation client. The Redis client and
// metrics may be nil; caching and instrumentation are then disabled.
func NewClient(cfg config.RecommenderConfig, cache *redis.Client, m *metrics.Metrics, logger *zap.Logger) *Client {
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		cache:   cache,
		metrics: m,
		logger:  logger,
	}
}

// Enabled reports whether a recommendation endpoint is configured.
func (c *Client) Enabled() bool {
	return c.cfg.BaseURL != ""
}

type recommendRequest struct {
	ProductName string `json:"product_name"`
	URL         string `json:"url,omitempty"`
	NumRecs     int    `json:"num_recs"`
}

// Recommend maps a product description onto catalog segments. Responses
// are cached by request hash since the upstream calls are slow and
// metered; identical inputs within the TTL return the cached result.
func (c *Client) Recommend(ctx context.Context, productName, url string, count int) (*models.Recommendation, error) {
	if !c.Enabled() {
		return nil, ErrUnavailable
	}
	if count <= 0 {
		count = 3
	}

	req := recommendRequest{ProductName: productName, URL: url, NumRecs: count}

	if rec, ok := c.fromCache(ctx, req); ok {
		return rec, nil
	}

	start := time.Now()
	rec, err := c.call(ctx, req)
	if c.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		c.metrics.RecordRecommend(status, time.Since(start))
	}
	if err != nil {
		return nil, err
	}

	c.toCache(ctx, req, rec)
	return rec, nil
}

// call performs the HTTP round trip with exponential backoff on
// transient failures. 4xx responses are not retried; the request will
// not get better.
func (c *Client) call(ctx context.Context, req recommendRequest) (*models.Recommendation, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	var rec models.Recommendation

	retryPolicy := backoff.NewExponentialBackOff()
	retryPolicy.MaxInterval = 10 * time.Second
	policy := backoff.WithContext(
		backoff.WithMaxRetries(retryPolicy, uint64(c.cfg.MaxRetries)), ctx)

	err = backoff.RetryNotify(
		func() error {
			httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/recommend", bytes.NewReader(body))
			if err != nil {
				return backoff.Permanent(err)
			}
			httpReq.Header.Set("Content-Type", "application/json")
			if c.cfg.APIKey != "" {
				httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
			}

			resp, err := c.http.Do(httpReq)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
				return backoff.Permanent(fmt.Errorf("recommendation API rejected request: %s: %s", resp.Status, msg))
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("recommendation API returned %s", resp.Status)
			}

			if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}
			return nil
		},
		policy,
		func(err error, next time.Duration) {
			c.logger.Warn("recommendation call failed, retrying...",
				zap.Error(err),
				zap.Duration("next_attempt_in", next))
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &rec, nil
}

func (c *Client) cacheKey(req recommendRequest) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d", req.ProductName, req.URL, req.NumRecs)))
	return "recommend:" + hex.EncodeToString(sum[:])
}

func (c *Client) fromCache(ctx context.Context, req recommendRequest) (*models.Recommendation, bool) {
	if c.cache == nil || c.cfg.CacheTTL <= 0 {
		if c.metrics != nil {
			c.metrics.RecordRecommendCache("bypass")
		}
		return nil, false
	}

	data, err := c.cache.Get(ctx, c.cacheKey(req)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("recommendation cache read failed", zap.Error(err))
		}
		if c.metrics != nil {
			c.metrics.RecordRecommendCache("miss")
		}
		return nil, false
	}

	var rec models.Recommendation
	if err := json.Unmarshal(data, &rec); err != nil {
		c.logger.Warn("recommendation cache entry corrupt", zap.Error(err))
		return nil, false
	}
	if c.metrics != nil {
		c.metrics.RecordRecommendCache("hit")
	}
	return &rec, true
}

func (c *Client) toCache(ctx context.Context, req recommendRequest, rec *models.Recommendation) {
	if c.cache == nil || c.cfg.CacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, c.cacheKey(req), data, c.cfg.CacheTTL).Err(); err != nil {
		c.logger.Warn("recommendation cache write failed", zap.Error(err))
	}
}
