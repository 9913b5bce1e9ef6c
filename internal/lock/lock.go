// Package lock provides a best-effort mutual exclusion across replicas,
// used so only one instance runs the daily candidate batch.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrNotAcquired = errors.New("lock held by another owner")

type Locker interface {
	// TryLock acquires key for ttl. It returns ErrNotAcquired when another
	// owner holds it. The returned release func is safe to call once.
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, err error)
}

type RedisLocker struct {
	Client *redis.Client
	Prefix string
}

func NewRedisLocker(opt *redis.Options) *RedisLocker {
	return &RedisLocker{Client: redis.NewClient(opt), Prefix: "academy:lock:"}
}

// Only the owner token may delete the key.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0`)

func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	if ttl <= 0 {
		ttl = time.Minute
	}
	full := l.Prefix + key
	token := uuid.NewString()
	ok, err := l.Client.SetNX(ctx, full, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotAcquired
	}
	return func(ctx context.Context) error {
		return releaseScript.Run(ctx, l.Client, []string{full}, token).Err()
	}, nil
}

func (l *RedisLocker) Ping(ctx context.Context) error {
	return l.Client.Ping(ctx).Err()
}

func (l *RedisLocker) Close() error {
	return l.Client.Close()
}

// MemoryLocker is the single-process sibling of RedisLocker.
type MemoryLocker struct {
	mu    sync.Mutex
	held  map[string]memoryEntry
	nowFn func() time.Time
}

type memoryEntry struct {
	token     string
	expiresAt time.Time
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: map[string]memoryEntry{}, nowFn: time.Now}
}

func (l *MemoryLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	if ttl <= 0 {
		ttl = time.Minute
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.nowFn()
	if cur, ok := l.held[key]; ok && now.Before(cur.expiresAt) {
		return nil, ErrNotAcquired
	}
	token := uuid.NewString()
	l.held[key] = memoryEntry{token: token, expiresAt: now.Add(ttl)}
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if cur, ok := l.held[key]; ok && cur.token == token {
			delete(l.held, key)
		}
		return nil
	}, nil
}
