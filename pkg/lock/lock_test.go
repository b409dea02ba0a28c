package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func exerciseMutualExclusion(t *testing.T, l Locker) {
	t.Helper()

	var (
		wg      sync.WaitGroup
		inside  int32
		maxSeen int32
		total   int32
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "ride-1")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				seen := atomic.LoadInt32(&maxSeen)
				if n <= seen || atomic.CompareAndSwapInt32(&maxSeen, seen, n) {
					break
				}
			}
			atomic.AddInt32(&total, 1)
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxSeen)
	assert.Equal(t, int32(20), total)
}

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	km := NewKeyedMutex()
	exerciseMutualExclusion(t, km)
	assert.Equal(t, 0, km.Len())
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	km := NewKeyedMutex()

	unlockA, err := km.Lock(context.Background(), "a")
	require.NoError(t, err)
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	unlockB, err := km.Lock(ctx, "b")
	require.NoError(t, err)
	unlockB()
}

func TestKeyedMutexHonoursContext(t *testing.T) {
	km := NewKeyedMutex()

	unlock, err := km.Lock(context.Background(), "a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = km.Lock(ctx, "a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock()
	assert.Equal(t, 0, km.Len())
}

func newRedisLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLocker(client, RedisConfig{TTL: 5 * time.Second, RetryBackoff: time.Millisecond}, zaptest.NewLogger(t)), mr
}

func TestRedisLockerSerializesSameKey(t *testing.T) {
	l, _ := newRedisLocker(t)
	exerciseMutualExclusion(t, l)
}

func TestRedisLockerReleaseDeletesKey(t *testing.T) {
	l, mr := newRedisLocker(t)

	unlock, err := l.Lock(context.Background(), "ride-9")
	require.NoError(t, err)
	assert.True(t, mr.Exists("carpool:lock:ride-9"))

	unlock()
	assert.False(t, mr.Exists("carpool:lock:ride-9"))
}

func TestRedisLockerDoesNotDeleteForeignToken(t *testing.T) {
	l, mr := newRedisLocker(t)

	unlock, err := l.Lock(context.Background(), "ride-9")
	require.NoError(t, err)

	// simulate expiry and takeover by another instance
	require.NoError(t, mr.Set("carpool:lock:ride-9", "someone-else"))
	unlock()

	got, err := mr.Get("carpool:lock:ride-9")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}

func TestRedisLockerHonoursContext(t *testing.T) {
	l, _ := newRedisLocker(t)

	unlock, err := l.Lock(context.Background(), "busy")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "busy")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRedisLockerRenewsLeaseWhileHeld(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	l := NewRedisLocker(client, RedisConfig{TTL: 150 * time.Millisecond, RetryBackoff: time.Millisecond}, zaptest.NewLogger(t))

	unlock, err := l.Lock(context.Background(), "ride-7")
	require.NoError(t, err)

	mr.FastForward(120 * time.Millisecond)
	require.True(t, mr.Exists("carpool:lock:ride-7"))

	assert.Eventually(t, func() bool {
		return mr.TTL("carpool:lock:ride-7") > 100*time.Millisecond
	}, time.Second, 5*time.Millisecond)

	unlock()
	assert.False(t, mr.Exists("carpool:lock:ride-7"))
}

func TestRedisLockerStopsRenewingLostLease(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	l := NewRedisLocker(client, RedisConfig{TTL: 60 * time.Millisecond, RetryBackoff: time.Millisecond}, zaptest.NewLogger(t))

	unlock, err := l.Lock(context.Background(), "ride-8")
	require.NoError(t, err)

	require.NoError(t, mr.Set("carpool:lock:ride-8", "someone-else"))
	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, time.Duration(0), mr.TTL("carpool:lock:ride-8"))
	unlock()

	got, err := mr.Get("carpool:lock:ride-8")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}
