package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const fingerprintKeyPrefix = "opportunity_fingerprint:"

// FingerprintCacheStats tracks cache performance metrics
type FingerprintCacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Sets   int64 `json:"sets"`
	Errors int64 `json:"errors"`
}

// OpportunityFingerprintCache remembers fingerprints of persisted opportunities for a
// deduplication window so repeated discovery runs skip the database lookup
type OpportunityFingerprintCache struct {
	redis  *redis.Client
	ttl    time.Duration
	prefix string

	mu    sync.Mutex
	stats FingerprintCacheStats
}

// NewOpportunityFingerprintCache creates a new Redis-based fingerprint cache
func NewOpportunityFingerprintCache(redisClient *redis.Client, ttl time.Duration) *OpportunityFingerprintCache {
	return &OpportunityFingerprintCache{
		redis:  redisClient,
		ttl:    ttl,
		prefix: fingerprintKeyPrefix,
	}
}

func (c *OpportunityFingerprintCache) key(fingerprint string) string {
	return c.prefix + fingerprint
}

// Seen reports whether the fingerprint was remembered within the window
func (c *OpportunityFingerprintCache) Seen(ctx context.Context, fingerprint string) (bool, error) {
	n, err := c.redis.Exists(ctx, c.key(fingerprint)).Result()
	if err != nil {
		c.record(func(s *FingerprintCacheStats) { s.Errors++ })
		return false, fmt.Errorf("failed to check fingerprint cache: %w", err)
	}

	if n > 0 {
		c.record(func(s *FingerprintCacheStats) { s.Hits++ })
		return true, nil
	}
	c.record(func(s *FingerprintCacheStats) { s.Misses++ })
	return false, nil
}

// Remember stores the fingerprint with the id of the opportunity it belongs to
func (c *OpportunityFingerprintCache) Remember(ctx context.Context, fingerprint, opportunityID string) error {
	if err := c.redis.Set(ctx, c.key(fingerprint), opportunityID, c.ttl).Err(); err != nil {
		c.record(func(s *FingerprintCacheStats) { s.Errors++ })
		return fmt.Errorf("failed to store fingerprint: %w", err)
	}
	c.record(func(s *FingerprintCacheStats) { s.Sets++ })
	return nil
}

// Lookup returns the opportunity id stored for the fingerprint, or "" when absent
func (c *OpportunityFingerprintCache) Lookup(ctx context.Context, fingerprint string) (string, error) {
	id, err := c.redis.Get(ctx, c.key(fingerprint)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read fingerprint: %w", err)
	}
	return id, nil
}

// Forget drops the fingerprint so the next run consults the database again
func (c *OpportunityFingerprintCache) Forget(ctx context.Context, fingerprint string) error {
	if err := c.redis.Del(ctx, c.key(fingerprint)).Err(); err != nil {
		return fmt.Errorf("failed to delete fingerprint: %w", err)
	}
	return nil
}

// Stats returns a snapshot of the counters
func (c *OpportunityFingerprintCache) Stats() FingerprintCacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *OpportunityFingerprintCache) record(update func(*FingerprintCacheStats)) {
	c.mu.Lock()
	update(&c.stats)
	c.mu.Unlock()
}
