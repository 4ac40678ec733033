package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"greenora/internal/apperr"

	"github.com/alicebob/miniredis/v2"
	rd "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisLocker(t *testing.T) *Redis {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := rd.NewClient(&rd.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedis(rdb, 10*time.Second, nil)
}

func lockers(t *testing.T) map[string]Locker {
	return map[string]Locker{
		"local": NewLocal(),
		"redis": newRedisLocker(t),
	}
}

func TestLockerMutualExclusion(t *testing.T) {
	for name, l := range lockers(t) {
		t.Run(name, func(t *testing.T) {
			var (
				wg      sync.WaitGroup
				inside  int32
				maxSeen int32
			)
			for i := 0; i < 10; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					unlock, err := l.Lock(ctx, 1)
					if !assert.NoError(t, err) {
						return
					}
					n := atomic.AddInt32(&inside, 1)
					for {
						m := atomic.LoadInt32(&maxSeen)
						if n <= m || atomic.CompareAndSwapInt32(&maxSeen, m, n) {
							break
						}
					}
					time.Sleep(2 * time.Millisecond)
					atomic.AddInt32(&inside, -1)
					unlock()
				}()
			}
			wg.Wait()
			assert.EqualValues(t, 1, maxSeen)
		})
	}
}

func TestLockerTimesOutWithConflict(t *testing.T) {
	for name, l := range lockers(t) {
		t.Run(name, func(t *testing.T) {
			unlock, err := l.Lock(context.Background(), 2)
			require.NoError(t, err)
			defer unlock()

			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			_, err = l.Lock(ctx, 2)
			assert.ErrorIs(t, err, apperr.ErrCheckoutConflict)
		})
	}
}

func TestLockerKeysAreIndependent(t *testing.T) {
	for name, l := range lockers(t) {
		t.Run(name, func(t *testing.T) {
			u1, err := l.Lock(context.Background(), 3)
			require.NoError(t, err)
			defer u1()

			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			u2, err := l.Lock(ctx, 4)
			require.NoError(t, err)
			u2()
		})
	}
}

func TestUnlockIsIdempotent(t *testing.T) {
	l := NewLocal()
	unlock, err := l.Lock(context.Background(), 5)
	require.NoError(t, err)
	unlock()
	unlock()

	again, err := l.Lock(context.Background(), 5)
	require.NoError(t, err)
	again()
	assert.Empty(t, l.slots)
}
