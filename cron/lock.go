package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrPassInProgress is returned when another instance holds the pass lock.
var ErrPassInProgress = errors.New("notification pass already running on another instance")

// PassLock keeps passes of different processes from overlapping.
type PassLock interface {
	// Acquire returns a release func, or ErrPassInProgress.
	Acquire(ctx context.Context) (func(), error)
}

// NoopPassLock is used by single-instance deployments.
type NoopPassLock struct{}

func (NoopPassLock) Acquire(context.Context) (func(), error) { return func() {}, nil }

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisPassLock is a SET NX PX lease with a random owner token. The lease
// is not renewed while a pass runs: a pass that outlives ttl may overlap
// with another instance's pass. A release that fails leaves the key to
// expire on its own, keeping other instances out until then.
type RedisPassLock struct {
	client redis.Cmdable
	key    string
	ttl    time.Duration
}

func NewRedisPassLock(client redis.Cmdable, key string, ttl time.Duration) *RedisPassLock {
	return &RedisPassLock{client: client, key: key, ttl: ttl}
}

func (l *RedisPassLock) Acquire(ctx context.Context) (func(), error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire pass lock %s: %w", l.key, err)
	}
	if !ok {
		return nil, ErrPassInProgress
	}
	return l.releaseFunc(token), nil
}

func (l *RedisPassLock) releaseFunc(token string) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		deleted, err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Int64()
		switch {
		case err != nil:
			zap.L().Warn("failed to release pass lock, it will expire on its own",
				zap.String("key", l.key),
				zap.Duration("ttl", l.ttl),
				zap.Error(err),
			)
		case deleted == 0:
			zap.L().Warn("pass lock lease expired before release", zap.String("key", l.key), zap.Duration("ttl", l.ttl))
		}
	}
}
