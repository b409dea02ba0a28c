package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// only the holder's token may delete the key
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// extends the lease only while the holder's token is still set
var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RedisConfig tunes the lease. TTL caps how long a crashed holder blocks the
// ride; a live holder renews it every TTL/3.
type RedisConfig struct {
	Prefix       string
	TTL          time.Duration
	RetryBackoff time.Duration
}

// RedisLocker is a Locker for multi-instance deployments built on SET NX PX.
type RedisLocker struct {
	client *redis.Client
	cfg    RedisConfig
	log    *zap.Logger
}

func NewRedisLocker(client *redis.Client, cfg RedisConfig, log *zap.Logger) *RedisLocker {
	if cfg.Prefix == "" {
		cfg.Prefix = "carpool:lock:"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Second
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 20 * time.Millisecond
	}
	return &RedisLocker{
		client: client,
		cfg:    cfg,
		log:    log.With(zap.String("component", "redis_lock")),
	}
}

func (r *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := r.cfg.Prefix + key
	token := uuid.NewString()

	for {
		ok, err := r.client.SetNX(ctx, redisKey, token, r.cfg.TTL).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.cfg.RetryBackoff):
		}
	}

	stop := make(chan struct{})
	renewed := make(chan struct{})
	go r.renew(redisKey, token, stop, renewed)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-renewed

			// the caller's ctx may already be cancelled
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := unlockScript.Run(ctx, r.client, []string{redisKey}, token).Err(); err != nil {
				r.log.Warn("failed to release lock", zap.String("key", key), zap.Error(err))
			}
		})
	}, nil
}

// renew extends the lease until stop closes or the lock is lost.
func (r *RedisLocker) renew(redisKey, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.cfg.TTL / 3)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), r.cfg.TTL/3)
		held, err := extendScript.Run(ctx, r.client, []string{redisKey}, token, r.cfg.TTL.Milliseconds()).Int()
		cancel()
		if err != nil {
			r.log.Warn("failed to extend lock", zap.String("key", redisKey), zap.Error(err))
			continue
		}
		if held == 0 {
			r.log.Warn("lock lease lost", zap.String("key", redisKey))
			return
		}
	}
}
