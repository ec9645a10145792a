// Package redislock implements secondary.SessionLocker on Redis so several
// resolvd instances can share one session store.
package redislock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/example/resolvd/internal/logging"
	"github.com/example/resolvd/internal/ports/secondary"
)

const keyPrefix = "resolvd:session-lock:"

// releaseScript deletes the lock only if it still carries our token.
// KEYS[1] = lock key
// ARGV[1] = token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker holds one Redis key per locked session. The TTL bounds how long a
// crashed holder can block a session.
type Locker struct {
	client       redis.UniversalClient
	ttl          time.Duration
	pollInterval time.Duration
}

// New creates a Locker on an existing client.
func New(client redis.UniversalClient, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Locker{client: client, ttl: ttl, pollInterval: 25 * time.Millisecond}
}

// NewClient creates a Redis client for addr.
func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// Key returns the Redis key guarding sessionID.
func Key(sessionID string) string {
	return keyPrefix + sessionID
}

// Lock implements secondary.SessionLocker.
func (l *Locker) Lock(ctx context.Context, sessionID string) (func(), error) {
	key := Key(sessionID)
	token := uuid.NewString()

	ticker := time.NewTicker(l.pollInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("failed to acquire session lock: %w", err)
		}
		if ok {
			return l.unlockFunc(key, token), nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (l *Locker) unlockFunc(key, token string) func() {
	var once sync.Once
	return func() {
		once.Do(func() { l.release(key, token) })
	}
}

// release runs on a fresh context; the caller's may already be cancelled.
func (l *Locker) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
		logging.Warn(ctx).Err(err).Str("key", key).Msg("failed to release session lock")
	}
}

var _ secondary.SessionLocker = (*Locker)(nil)
