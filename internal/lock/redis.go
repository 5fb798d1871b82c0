package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/teemow/autoagenda/internal/logging"
)

const (
	defaultKeyPrefix     = "autoagenda:lock:"
	defaultLeaseDuration = 60 * time.Second
	defaultRetryInterval = 50 * time.Millisecond
	releaseTimeout       = 5 * time.Second
)

// Deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// Extends the lease only if the key still holds our token.
var renewScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("pexpire", KEYS[1], ARGV[2])
	else
		return 0
	end
`)

// RedisConfig configures a RedisLocker.
type RedisConfig struct {
	// KeyPrefix namespaces lock keys. Defaults to "autoagenda:lock:".
	KeyPrefix string

	// LeaseDuration bounds how long a crashed holder can block others.
	// A live holder renews it, so it only has to outlast a stalled renewal.
	LeaseDuration time.Duration

	// RenewalInterval is how often a holder extends its lease. Defaults to a
	// third of LeaseDuration.
	RenewalInterval time.Duration

	// RetryInterval is how often a waiter polls for the lock.
	RetryInterval time.Duration
}

// RedisLocker is a Locker backed by Redis SET NX with a lease, so replicas
// sharing the same Redis serialize commits on the same calendar.
type RedisLocker struct {
	client redis.UniversalClient
	config RedisConfig
	logger logging.Logger
}

// NewRedisLocker wraps an existing client. The caller owns the client.
func NewRedisLocker(client redis.UniversalClient, config RedisConfig, logger logging.Logger) *RedisLocker {
	if config.KeyPrefix == "" {
		config.KeyPrefix = defaultKeyPrefix
	}
	if config.LeaseDuration <= 0 {
		config.LeaseDuration = defaultLeaseDuration
	}
	if config.RenewalInterval <= 0 || config.RenewalInterval >= config.LeaseDuration {
		config.RenewalInterval = config.LeaseDuration / 3
	}
	if config.RetryInterval <= 0 {
		config.RetryInterval = defaultRetryInterval
	}
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	return &RedisLocker{client: client, config: config, logger: logger}
}

// Ping checks connectivity, for readiness probes.
func (l *RedisLocker) Ping(ctx context.Context) error {
	if err := l.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Acquire implements Locker.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (Release, error) {
	redisKey := l.config.KeyPrefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(l.config.RetryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.config.LeaseDuration).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, errors.Join(ErrLockTimeout, ctx.Err())
			}
			return nil, fmt.Errorf("set lock %s: %w", redisKey, err)
		}
		if ok {
			l.logger.Debug("lock acquired", logging.KeyComponent, "lock", "key", redisKey)
			return l.hold(redisKey, token), nil
		}

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrLockTimeout, ctx.Err())
		case <-ticker.C:
		}
	}
}

// hold keeps the lease alive until the returned Release runs.
func (l *RedisLocker) hold(redisKey, token string) Release {
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		l.renew(redisKey, token, stop)
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done

			// Release must run even when the caller's context is gone.
			ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
			defer cancel()

			if err := releaseScript.Run(ctx, l.client, []string{redisKey}, token).Err(); err != nil {
				l.logger.Error("failed to release lock",
					logging.KeyComponent, "lock",
					"key", redisKey,
					logging.Err(err))
			}
		})
	}
}

func (l *RedisLocker) renew(redisKey, token string, stop <-chan struct{}) {
	ticker := time.NewTicker(l.config.RenewalInterval)
	defer ticker.Stop()

	lease := l.config.LeaseDuration.Milliseconds()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), l.config.RenewalInterval)
		renewed, err := renewScript.Run(ctx, l.client, []string{redisKey}, token, lease).Int()
		cancel()
		switch {
		case err != nil:
			// Retried on the next tick while the lease still runs.
			l.logger.Warn("failed to renew lock",
				logging.KeyComponent, "lock",
				"key", redisKey,
				logging.Err(err))
		case renewed == 0:
			l.logger.Error("lock lease lost while held",
				logging.KeyComponent, "lock",
				"key", redisKey)
			return
		}
	}
}
