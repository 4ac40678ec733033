// Package lock 提供按用户购物车的结算互斥。
// 单实例用进程内锁即可；多实例部署时换成 Redis 锁。
package lock

import (
	"context"
	"sync"
	"time"

	"greenora/internal/apperr"
	rediskey "greenora/pkg/redis"

	"github.com/google/uuid"
	rd "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Locker 获取某个用户购物车的独占结算权。ctx 到期仍未拿到锁返回 ErrCheckoutConflict。
// 返回的 unlock 可以重复调用。
type Locker interface {
	Lock(ctx context.Context, userID uint) (unlock func(), err error)
}

// Local 进程内按 key 的互斥锁，等待可被 ctx 取消。
type Local struct {
	mu    sync.Mutex
	slots map[uint]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

func NewLocal() *Local {
	return &Local{slots: make(map[uint]*slot)}
}

func (l *Local) Lock(ctx context.Context, userID uint) (func(), error) {
	l.mu.Lock()
	s, ok := l.slots[userID]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[userID] = s
	}
	s.refs++
	l.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(userID, s)
		return nil, apperr.ErrCheckoutConflict.Wrap(ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			l.release(userID, s)
		})
	}, nil
}

// release 引用计数归零后删除 slot，map 不会随用户数无限增长。
func (l *Local) release(userID uint, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, userID)
	}
}

// Redis 基于 SET NX 的分布式锁，token 防误删，TTL 兜底持有者崩溃。
type Redis struct {
	rdb   *rd.Client
	ttl   time.Duration
	retry time.Duration
	log   *zap.Logger
}

func NewRedis(rdb *rd.Client, ttl time.Duration, log *zap.Logger) *Redis {
	if log == nil {
		log = zap.NewNop()
	}
	return &Redis{rdb: rdb, ttl: ttl, retry: 25 * time.Millisecond, log: log}
}

func (l *Redis) Lock(ctx context.Context, userID uint) (func(), error) {
	token := uuid.NewString()
	for {
		ok, err := rediskey.AcquireCartLock(ctx, l.rdb, userID, token, l.ttl)
		if err != nil {
			if ctx.Err() != nil {
				return nil, apperr.ErrCheckoutConflict.Wrap(ctx.Err())
			}
			return nil, err
		}
		if ok {
			return l.unlocker(context.WithoutCancel(ctx), userID, token), nil
		}

		timer := time.NewTimer(l.retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, apperr.ErrCheckoutConflict.Wrap(ctx.Err())
		case <-timer.C:
		}
	}
}

func (l *Redis) unlocker(ctx context.Context, userID uint, token string) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			released, err := rediskey.ReleaseCartLockIfMatch(ctx, l.rdb, userID, token)
			if err != nil {
				l.log.Warn("release cart lock failed", zap.Uint("user_id", userID), zap.Error(err))
				return
			}
			if !released {
				// 持锁超过 TTL，锁已过期或被别人拿走
				l.log.Warn("cart lock expired before release", zap.Uint("user_id", userID))
			}
		})
	}
}
