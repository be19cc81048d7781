// Package lock serializes work sharing a key, in-process or across
// instances through Redis.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// LocalLocker serializes callers inside a single process.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]chan struct{})}
}

func (l *LocalLocker) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	ch, ok := l.slots[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[key] = ch
	}
	return ch
}

func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	ch := l.slot(key)

	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

var ErrTimeout = errors.New("lock: wait timed out")

// releaseScript deletes the key only if it still holds our token.
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`

// refreshScript extends the TTL only while the key still holds our token.
const refreshScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
end
return 0`

// RedisLocker shares locks between every API instance. The TTL only
// bounds how long a crashed holder blocks others: a live holder renews it
// every ttl/3 until unlock.
type RedisLocker struct {
	rdb  *redis.Client
	ttl  time.Duration
	wait time.Duration
	poll time.Duration
}

type RedisOption func(*RedisLocker)

// WithTTL sets the key expiry used for crashed holders.
func WithTTL(d time.Duration) RedisOption {
	return func(l *RedisLocker) { l.ttl = d }
}

// WithWait sets how long Lock waits before returning ErrTimeout.
func WithWait(d time.Duration) RedisOption {
	return func(l *RedisLocker) { l.wait = d }
}

func NewRedisLocker(rdb *redis.Client, opts ...RedisOption) *RedisLocker {
	l := &RedisLocker{
		rdb:  rdb,
		ttl:  5 * time.Second,
		wait: 10 * time.Second,
		poll: 50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	key = "lock:" + key
	token := uuid.NewString()

	wctx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()

	for {
		ok, err := l.rdb.SetNX(wctx, key, token, l.ttl).Result()
		if err != nil && wctx.Err() == nil {
			return nil, err
		}
		if ok {
			return l.hold(key, token), nil
		}

		select {
		case <-ticker.C:
		case <-wctx.Done():
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, ErrTimeout
		}
	}
}

// hold renews the key in the background and returns the unlock func.
func (l *RedisLocker) hold(key, token string) func() {
	stop := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)

		ticker := time.NewTicker(l.ttl / 3)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				rctx, rcancel := context.WithTimeout(context.Background(), l.ttl/3)
				n, err := l.rdb.Eval(rctx, refreshScript, []string{key}, token, l.ttl.Milliseconds()).Int()
				rcancel()
				if err == nil && n == 0 {
					// expirou e outro processo assumiu
					return
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done

			// contexto próprio: a requisição pode já ter sido cancelada
			rctx, rcancel := context.WithTimeout(context.Background(), time.Second)
			defer rcancel()
			l.rdb.Eval(rctx, releaseScript, []string{key}, token)
		})
	}
}
