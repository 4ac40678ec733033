package redis

import (
	"context"
	"time"

	rd "github.com/redis/go-redis/v9"
)

// luaReleaseCartLockIfMatch 仅当锁值仍是自己的 token 时才删除，避免误删超时后别人拿到的锁。
const luaReleaseCartLockIfMatch = `
local lockKey = KEYS[1]
local token = ARGV[1]
if redis.call('GET', lockKey) == token then
  return redis.call('DEL', lockKey)
end
return 0
`

// AcquireCartLock SET NX PX 抢锁，ttl 兜底进程崩溃后锁不释放的情况。
func AcquireCartLock(ctx context.Context, rdb rd.Cmdable, userID uint, token string, ttl time.Duration) (bool, error) {
	return rdb.SetNX(ctx, CartLockKey(userID), token, ttl).Result()
}

// ReleaseCartLockIfMatch 安全释放购物车锁，返回是否真的删除了。
func ReleaseCartLockIfMatch(ctx context.Context, rdb rd.Scripter, userID uint, token string) (bool, error) {
	n, err := rdb.Eval(ctx, luaReleaseCartLockIfMatch, []string{CartLockKey(userID)}, token).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
