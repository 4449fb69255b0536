package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only when it still holds our token, so a
// lock that expired and was taken by someone else is never released by the
// previous owner.
var releaseScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// Redis is a single-instance Redis lock (SET NX PX + token-checked
// release).  TTL bounds how long a crashed holder can block a room.
type Redis struct {
	rdb      *redis.Client
	prefix   string
	ttl      time.Duration
	minRetry time.Duration
	maxRetry time.Duration
}

// NewRedis builds a Redis locker.  Keys are stored as "<prefix>:<key>".
func NewRedis(rdb *redis.Client, prefix string, ttl time.Duration) *Redis {
	if prefix == "" {
		prefix = "lock"
	}
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &Redis{
		rdb:      rdb,
		prefix:   prefix,
		ttl:      ttl,
		minRetry: 10 * time.Millisecond,
		maxRetry: 200 * time.Millisecond,
	}
}

func (l *Redis) Lock(ctx context.Context, key string) (func(), error) {
	full := l.prefix + ":" + key
	token := uuid.NewString()
	wait := l.minRetry
	for {
		ok, err := l.rdb.SetNX(ctx, full, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("acquire %s: %w", full, err)
		}
		if ok {
			break
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		if wait *= 2; wait > l.maxRetry {
			wait = l.maxRetry
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// The request context may already be cancelled; release anyway.
			rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = releaseScript.Run(rctx, l.rdb, []string{full}, token).Err()
		})
	}, nil
}
