package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/autoagenda/internal/logging"
)

func newTestRedisLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	locker := NewRedisLocker(client, RedisConfig{
		LeaseDuration: 10 * time.Second,
		RetryInterval: 5 * time.Millisecond,
	}, logging.Discard())
	return locker, mr
}

func TestRedisLocker_AcquireRelease(t *testing.T) {
	locker, mr := newTestRedisLocker(t)
	ctx := context.Background()

	require.NoError(t, locker.Ping(ctx))

	release, err := locker.Acquire(ctx, "primary")
	require.NoError(t, err)
	assert.True(t, mr.Exists("autoagenda:lock:primary"))
	assert.Equal(t, 10*time.Second, mr.TTL("autoagenda:lock:primary"))

	release()
	assert.False(t, mr.Exists("autoagenda:lock:primary"))
}

func TestRedisLocker_BlocksUntilReleased(t *testing.T) {
	locker, _ := newTestRedisLocker(t)

	release, err := locker.Acquire(context.Background(), "primary")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err = locker.Acquire(ctx, "primary")
	assert.ErrorIs(t, err, ErrLockTimeout)

	release()

	ctx2, cancel2 := context.WithTimeout(context.Background(), time.Second)
	defer cancel2()
	release2, err := locker.Acquire(ctx2, "primary")
	require.NoError(t, err)
	release2()
}

func TestRedisLocker_ReleaseKeepsForeignLock(t *testing.T) {
	locker, mr := newTestRedisLocker(t)

	release, err := locker.Acquire(context.Background(), "primary")
	require.NoError(t, err)

	// Lease expired and another replica took the lock.
	require.NoError(t, mr.Set("autoagenda:lock:primary", "other-replica"))

	release()
	got, err := mr.Get("autoagenda:lock:primary")
	require.NoError(t, err)
	assert.Equal(t, "other-replica", got)
}

func TestRedisLocker_ExpiredLeaseCanBeTaken(t *testing.T) {
	locker, mr := newTestRedisLocker(t)

	_, err := locker.Acquire(context.Background(), "primary")
	require.NoError(t, err)

	mr.FastForward(11 * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	release, err := locker.Acquire(ctx, "primary")
	require.NoError(t, err)
	release()
}

func TestRedisLocker_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	locker := NewRedisLocker(client, RedisConfig{}, logging.Discard())
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := locker.Acquire(ctx, "primary")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrLockTimeout)
}

func TestRedisLocker_RenewsLeaseWhileHeld(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	locker := NewRedisLocker(client, RedisConfig{
		LeaseDuration:   200 * time.Millisecond,
		RenewalInterval: 10 * time.Millisecond,
	}, logging.Discard())

	release, err := locker.Acquire(context.Background(), "primary")
	require.NoError(t, err)

	// One second of Redis time passes, five leases' worth.
	for range 20 {
		mr.FastForward(50 * time.Millisecond)
		time.Sleep(25 * time.Millisecond)
	}
	assert.True(t, mr.Exists("autoagenda:lock:primary"), "a held lock outlives its lease")

	release()
	assert.False(t, mr.Exists("autoagenda:lock:primary"))

	time.Sleep(30 * time.Millisecond)
	assert.False(t, mr.Exists("autoagenda:lock:primary"), "renewal stops on release")
}

func TestNewRedisLocker_RenewalDefaults(t *testing.T) {
	locker := NewRedisLocker(nil, RedisConfig{}, logging.Discard())
	assert.Equal(t, 60*time.Second, locker.config.LeaseDuration)
	assert.Equal(t, 20*time.Second, locker.config.RenewalInterval)

	locker = NewRedisLocker(nil, RedisConfig{LeaseDuration: 9 * time.Second, RenewalInterval: time.Minute}, logging.Discard())
	assert.Equal(t, 3*time.Second, locker.config.RenewalInterval, "an interval beyond the lease falls back to a third of it")
}
