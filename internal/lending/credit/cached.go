package credit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"loan-origination/internal/common/logger"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "credit:"

// Scorer is anything that can produce a credit score.
type Scorer interface {
	Score(ctx context.Context, pan string, income int64) (int, error)
}

// Cache is the subset of database.RedisClient used for cache-aside.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

// CachedBureau memoises scores per PAN and collapses concurrent lookups.
// Cache failures fall through to the underlying bureau.
type CachedBureau struct {
	next   Scorer
	cache  Cache
	ttl    time.Duration
	group  singleflight.Group
	logger logger.Logger
}

func NewCachedBureau(next Scorer, cache Cache, ttl time.Duration, log logger.Logger) *CachedBureau {
	return &CachedBureau{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "credit-cache"}),
	}
}

func cacheKey(pan string) string {
	return keyPrefix + pan
}

func (b *CachedBureau) Score(ctx context.Context, pan string, income int64) (int, error) {
	key := cacheKey(pan)

	if raw, err := b.cache.Get(ctx, key); err == nil {
		if score, convErr := strconv.Atoi(raw); convErr == nil {
			return score, nil
		}
		b.logger.Warn("discarding unparsable cached score", map[string]interface{}{"key": key})
	} else if !errors.Is(err, redis.Nil) {
		b.logger.Warn("credit cache read failed", map[string]interface{}{"error": err.Error()})
	}

	v, err, _ := b.group.Do(key, func() (interface{}, error) {
		score, err := b.next.Score(ctx, pan, income)
		if err != nil {
			return 0, err
		}
		if err := b.cache.Set(ctx, key, strconv.Itoa(score), b.ttl); err != nil {
			b.logger.Warn("credit cache write failed", map[string]interface{}{"error": err.Error()})
		}
		return score, nil
	})
	if err != nil {
		return 0, fmt.Errorf("credit score: %w", err)
	}
	return v.(int), nil
}
