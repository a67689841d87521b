package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"komonitor/pkg/utils"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only while it still holds our token.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

type lockCmds interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

func jobLockKey(monitorID string) string {
	return fmt.Sprintf("monitor:job:%v", monitorID)
}

// AcquireJobLock takes the per-monitor job lock. ok is false when another
// job already holds it.
func (c *Client) AcquireJobLock(ctx context.Context, monitorID string, ttl time.Duration) (token string, ok bool, err error) {
	const op string = "cache.lock.acquire"

	token = uuid.NewString()
	ok, err = acquireLock(ctx, c.rdb, jobLockKey(monitorID), token, ttl)
	if err != nil {
		return "", false, utils.WrapCacheError(op, err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// acquireLock retries SETNX on errors. A write whose reply was lost leaves
// the key holding our token, so after a failed attempt a losing SETNX is
// checked against the stored value.
func acquireLock(ctx context.Context, cmds lockCmds, key, token string, ttl time.Duration) (bool, error) {
	var (
		ok      bool
		attempt int
	)
	err := retry(ctx, 2, func() error {
		attempt++
		var err error
		ok, err = cmds.SetNX(ctx, key, token, ttl).Result()
		if err != nil || ok || attempt == 1 {
			return err
		}

		held, err := cmds.Get(ctx, key).Result()
		switch {
		case errors.Is(err, redis.Nil):
			return nil
		case err != nil:
			return err
		}
		ok = held == token
		return nil
	})
	return ok, err
}

func (c *Client) ReleaseJobLock(ctx context.Context, monitorID string, token string) error {
	const op string = "cache.lock.release"

	if err := c.rdb.Eval(ctx, releaseScript, []string{jobLockKey(monitorID)}, token).Err(); err != nil {
		return utils.WrapCacheError(op, err)
	}
	return nil
}
