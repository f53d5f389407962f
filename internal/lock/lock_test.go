package lock

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedMutexSerializesSameUser(t *testing.T) {
	k := NewKeyedMutex()
	var inside, maxInside int32
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := k.Lock(context.Background(), "user-1")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Empty(t, k.locks, "entries are removed once released")
}

func TestKeyedMutexIndependentUsers(t *testing.T) {
	k := NewKeyedMutex()
	unlockA, err := k.TryLock(context.Background(), "a")
	require.NoError(t, err)
	defer unlockA()

	unlockB, err := k.TryLock(context.Background(), "b")
	require.NoError(t, err)
	unlockB()
}

func TestKeyedMutexTryLockBusy(t *testing.T) {
	k := NewKeyedMutex()
	unlock, err := k.TryLock(context.Background(), "a")
	require.NoError(t, err)

	_, err = k.TryLock(context.Background(), "a")
	assert.True(t, errors.Is(err, ErrBusy))

	unlock()
	unlock() // second call is a no-op

	unlock, err = k.TryLock(context.Background(), "a")
	require.NoError(t, err)
	unlock()
}

func TestKeyedMutexLockHonorsContext(t *testing.T) {
	k := NewKeyedMutex()
	unlock, err := k.Lock(context.Background(), "a")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = k.Lock(ctx, "a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRedisLockerExcludesOtherReplicas(t *testing.T) {
	addr := os.Getenv("HABITPULSE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("HABITPULSE_TEST_REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()

	// two lockers model two replicas
	first := NewRedisLocker(rdb, time.Minute)
	second := NewRedisLocker(rdb, time.Minute)
	ctx := context.Background()
	user := "lock-test-user"

	unlock, err := first.TryLock(ctx, user)
	require.NoError(t, err)

	_, err = second.TryLock(ctx, user)
	assert.ErrorIs(t, err, ErrBusy)

	unlock()
	unlock, err = second.TryLock(ctx, user)
	require.NoError(t, err)
	unlock()
}
