package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"loan-origination/internal/common/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockTimeout is returned when the context ends before the lock is acquired.
var ErrLockTimeout = errors.New("SESSION_LOCK_TIMEOUT")

const maxLockBackoff = 500 * time.Millisecond

var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a Locker shared by every instance talking to the same Redis.
// The lease expires after ttl so a crashed holder cannot wedge a session.
type RedisLocker struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	retry  time.Duration
	logger logger.Logger
}

func NewRedisLocker(client *redis.Client, prefix string, ttl, retry time.Duration, log logger.Logger) *RedisLocker {
	return &RedisLocker{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		retry:  retry,
		logger: log,
	}
}

func (l *RedisLocker) key(id string) string {
	return l.prefix + id
}

func (l *RedisLocker) Lock(ctx context.Context, id string) (func(), error) {
	key := l.key(id)
	token := uuid.NewString()
	wait := l.retry

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ErrLockTimeout
			}
			return nil, fmt.Errorf("acquire session lock %s: %w", id, err)
		}
		if ok {
			break
		}

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil, ErrLockTimeout
		}
		if wait *= 2; wait > maxLockBackoff {
			wait = maxLockBackoff
		}
	}

	return func() {
		// the caller's context may already be done; release on a fresh one
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := unlockScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil {
			l.logger.Warn("failed to release session lock", map[string]interface{}{
				"sessionId": id,
				"error":     err.Error(),
			})
		}
	}, nil
}
