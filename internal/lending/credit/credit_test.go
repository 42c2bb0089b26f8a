package credit

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"loan-origination/internal/common/config"
	"loan-origination/internal/common/database"
	"loan-origination/internal/common/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulatedBureau_Bands(t *testing.T) {
	b := NewSimulatedBureau()
	ctx := context.Background()

	tests := []struct {
		name   string
		income int64
		low    int
		high   int
	}{
		{name: "high income", income: 80000, low: 750, high: 820},
		{name: "band edge 50000", income: 50000, low: 750, high: 820},
		{name: "mid income", income: 35000, low: 700, high: 749},
		{name: "low income", income: 18000, low: 600, high: 699},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, err := b.Score(ctx, "ABCDE1234F", tt.income)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, score, tt.low)
			assert.LessOrEqual(t, score, tt.high)
		})
	}
}

func TestSimulatedBureau_Deterministic(t *testing.T) {
	b := NewSimulatedBureau()
	first, err := b.Score(context.Background(), "abcde1234f", 60000)
	require.NoError(t, err)
	second, err := b.Score(context.Background(), "ABCDE1234F", 60000)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSimulatedBureau_InvalidPAN(t *testing.T) {
	_, err := NewSimulatedBureau().Score(context.Background(), "12345", 60000)
	assert.ErrorIs(t, err, ErrInvalidPAN)
}

type countingScorer struct {
	calls int32
	score int
	err   error
}

func (s *countingScorer) Score(ctx context.Context, pan string, income int64) (int, error) {
	atomic.AddInt32(&s.calls, 1)
	return s.score, s.err
}

func newMiniredisCache(t *testing.T) (*miniredis.Miniredis, *database.RedisClient) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := database.NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestCachedBureau_CacheAside(t *testing.T) {
	mr, cache := newMiniredisCache(t)
	next := &countingScorer{score: 781}
	b := NewCachedBureau(next, cache, time.Hour, logger.NewTestLogger(t))

	ctx := context.Background()
	score, err := b.Score(ctx, "ABCDE1234F", 60000)
	require.NoError(t, err)
	assert.Equal(t, 781, score)

	cached, err := mr.Get("credit:ABCDE1234F")
	require.NoError(t, err)
	assert.Equal(t, "781", cached)
	assert.True(t, mr.TTL("credit:ABCDE1234F") > 0)

	score, err = b.Score(ctx, "ABCDE1234F", 60000)
	require.NoError(t, err)
	assert.Equal(t, 781, score)
	assert.Equal(t, int32(1), atomic.LoadInt32(&next.calls))
}

// missCache always misses and records how many readers got past it.
type missCache struct {
	gets int32
}

func (c *missCache) Get(ctx context.Context, key string) (string, error) {
	atomic.AddInt32(&c.gets, 1)
	return "", redis.Nil
}

func (c *missCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return nil
}

type gatedScorer struct {
	calls int32
	cache *missCache
	want  int32
}

func (s *gatedScorer) Score(ctx context.Context, pan string, income int64) (int, error) {
	atomic.AddInt32(&s.calls, 1)
	deadline := time.Now().Add(time.Second)
	for atomic.LoadInt32(&s.cache.gets) < s.want && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	return 705, nil
}

func TestCachedBureau_CollapsesConcurrentMisses(t *testing.T) {
	cache := &missCache{}
	next := &gatedScorer{cache: cache, want: 8}
	b := NewCachedBureau(next, cache, time.Hour, logger.NewNoOpLogger())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			score, err := b.Score(context.Background(), "PQRSX6789Z", 40000)
			assert.NoError(t, err)
			assert.Equal(t, 705, score)
		}()
	}
	wg.Wait()

	assert.Less(t, atomic.LoadInt32(&next.calls), int32(8))
}

func TestCachedBureau_CacheErrorsFallThrough(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := &database.RedisClient{Client: db}

	mock.ExpectGet("credit:ABCDE1234F").SetErr(errors.New("connection refused"))
	mock.ExpectSet("credit:ABCDE1234F", "650", time.Minute).SetErr(errors.New("connection refused"))

	next := &countingScorer{score: 650}
	b := NewCachedBureau(next, cache, time.Minute, logger.NewNoOpLogger())

	score, err := b.Score(context.Background(), "ABCDE1234F", 20000)
	require.NoError(t, err)
	assert.Equal(t, 650, score)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedBureau_MissThenStore(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := &database.RedisClient{Client: db}

	mock.ExpectGet("credit:ABCDE1234F").RedisNil()
	mock.ExpectSet("credit:ABCDE1234F", "790", time.Minute).SetVal("OK")

	b := NewCachedBureau(&countingScorer{score: 790}, cache, time.Minute, logger.NewNoOpLogger())
	score, err := b.Score(context.Background(), "ABCDE1234F", 90000)
	require.NoError(t, err)
	assert.Equal(t, 790, score)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedBureau_UnderlyingError(t *testing.T) {
	_, cache := newMiniredisCache(t)
	b := NewCachedBureau(&countingScorer{err: errors.New("bureau down")}, cache, time.Minute, logger.NewNoOpLogger())

	_, err := b.Score(context.Background(), "ABCDE1234F", 90000)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bureau down")
}
