package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/JonnyWalker81/habitpulse/backend/internal/logger"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lease only if it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker layers a Redis lease over a local KeyedMutex so replicas of
// the service do not analyze the same user at the same time.
type RedisLocker struct {
	local *KeyedMutex
	rdb   redis.UniversalClient
	ttl   time.Duration
	retry time.Duration
}

func NewRedisLocker(rdb redis.UniversalClient, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &RedisLocker{local: NewKeyedMutex(), rdb: rdb, ttl: ttl, retry: 200 * time.Millisecond}
}

func leaseKey(userID string) string {
	return "habitpulse:analysis:" + userID
}

// lease tries once to take the Redis lease. Redis errors are logged and treated
// as success so an unavailable Redis degrades to process-local locking.
func (l *RedisLocker) lease(ctx context.Context, userID string) (release func(), ok bool) {
	token := uuid.NewString()
	key := leaseKey(userID)

	acquired, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		logger.Warn("redis lease unavailable, using local lock only",
			logger.String("user_id", userID), logger.Err(err))
		return func() {}, true
	}
	if !acquired {
		return nil, false
	}
	return func() {
		// release even if the run's context was cancelled
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.rdb, []string{key}, token).Err(); err != nil {
			logger.Warn("failed to release redis lease", logger.String("user_id", userID), logger.Err(err))
		}
	}, true
}

func (l *RedisLocker) Lock(ctx context.Context, userID string) (func(), error) {
	unlockLocal, err := l.local.Lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	for {
		if release, ok := l.lease(ctx, userID); ok {
			return combine(release, unlockLocal), nil
		}
		select {
		case <-ctx.Done():
			unlockLocal()
			return nil, fmt.Errorf("waiting for analysis lease: %w", ctx.Err())
		case <-time.After(l.retry):
		}
	}
}

func (l *RedisLocker) TryLock(ctx context.Context, userID string) (func(), error) {
	unlockLocal, err := l.local.TryLock(ctx, userID)
	if err != nil {
		return nil, err
	}
	release, ok := l.lease(ctx, userID)
	if !ok {
		unlockLocal()
		return nil, ErrBusy
	}
	return combine(release, unlockLocal), nil
}

func combine(first, second func()) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			first()
			second()
		})
	}
}
