package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	appstock "github.com/chemstock/backend/internal/application/stock"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// defaultSummaryTTL is how long a cached dashboard summary stays fresh
const defaultSummaryTTL = 2 * time.Minute

// summaryKey is the Redis key holding the serialized dashboard summary
const summaryKey = "chemstock:stock:summary"

// RedisSummaryCache caches the dashboard summary in Redis so all instances
// share one cached aggregate
type RedisSummaryCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// RedisSummaryCacheConfig holds Redis connection configuration
type RedisSummaryCacheConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// NewRedisSummaryCache creates a Redis-backed summary cache
func NewRedisSummaryCache(cfg RedisSummaryCacheConfig, logger *zap.Logger) (*RedisSummaryCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = defaultSummaryTTL
	}

	return &RedisSummaryCache{
		client: client,
		ttl:    ttl,
		logger: logger.Named("summary-cache"),
	}, nil
}

// NewRedisSummaryCacheWithClient creates a cache with an existing Redis client
func NewRedisSummaryCacheWithClient(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisSummaryCache {
	if ttl == 0 {
		ttl = defaultSummaryTTL
	}
	return &RedisSummaryCache{
		client: client,
		ttl:    ttl,
		logger: logger.Named("summary-cache"),
	}
}

// Get returns the cached summary, if any. Cache errors are treated as a
// miss so the caller recomputes from the database.
func (c *RedisSummaryCache) Get(ctx context.Context) (*appstock.SummaryResponse, bool) {
	payload, err := c.client.Get(ctx, summaryKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("summary cache read failed", zap.Error(err))
		}
		return nil, false
	}

	var summary appstock.SummaryResponse
	if err := json.Unmarshal(payload, &summary); err != nil {
		c.logger.Warn("summary cache held invalid payload", zap.Error(err))
		return nil, false
	}
	return &summary, true
}

// Set stores the summary with the configured TTL
func (c *RedisSummaryCache) Set(ctx context.Context, summary *appstock.SummaryResponse) {
	payload, err := json.Marshal(summary)
	if err != nil {
		c.logger.Warn("summary cache encode failed", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, summaryKey, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("summary cache write failed", zap.Error(err))
	}
}

// Close closes the Redis client
func (c *RedisSummaryCache) Close() error {
	return c.client.Close()
}

// InMemorySummaryCache caches the dashboard summary in process memory.
// Suitable for single-instance deployments and tests.
type InMemorySummaryCache struct {
	mu        sync.RWMutex
	summary   *appstock.SummaryResponse
	expiresAt time.Time
	ttl       time.Duration
}

// NewInMemorySummaryCache creates an in-memory summary cache
func NewInMemorySummaryCache(ttl time.Duration) *InMemorySummaryCache {
	if ttl == 0 {
		ttl = defaultSummaryTTL
	}
	return &InMemorySummaryCache{ttl: ttl}
}

// Get returns the cached summary if it has not expired
func (c *InMemorySummaryCache) Get(_ context.Context) (*appstock.SummaryResponse, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.summary == nil || time.Now().After(c.expiresAt) {
		return nil, false
	}
	return c.summary, true
}

// Set stores the summary with the configured TTL
func (c *InMemorySummaryCache) Set(_ context.Context, summary *appstock.SummaryResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.summary = summary
	c.expiresAt = time.Now().Add(c.ttl)
}

// Ensure both caches implement the stock application cache port
var _ appstock.SummaryCache = (*RedisSummaryCache)(nil)
var _ appstock.SummaryCache = (*InMemorySummaryCache)(nil)
