package redislock

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestLocker connects to RESOLVD_TEST_REDIS_ADDR; the tests are skipped
// when it is unset.
func newTestLocker(t *testing.T) *Locker {
	t.Helper()
	addr := os.Getenv("RESOLVD_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("RESOLVD_TEST_REDIS_ADDR not set")
	}
	client := NewClient(addr, "", 0)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())
	return New(client, 5*time.Second)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "resolvd:session-lock:sess-1", Key("sess-1"))
}

func TestNew_DefaultTTL(t *testing.T) {
	l := New(nil, 0)
	assert.Equal(t, 30*time.Second, l.ttl)
}

func TestLocker_SerialisesSameSession(t *testing.T) {
	l := newTestLocker(t)
	sessionID := "test-" + uuid.NewString()

	var holders, maxHolders int32
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), sessionID)
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&holders, 1)
			for {
				m := atomic.LoadInt32(&maxHolders)
				if n <= m || atomic.CompareAndSwapInt32(&maxHolders, m, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&holders, -1)
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxHolders)
}

func TestLocker_ContextCancel(t *testing.T) {
	l := newTestLocker(t)
	sessionID := "test-" + uuid.NewString()

	unlock, err := l.Lock(context.Background(), sessionID)
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, sessionID)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLocker_UnlockOnlyReleasesOwnToken(t *testing.T) {
	l := newTestLocker(t)
	ctx := context.Background()
	sessionID := "test-" + uuid.NewString()

	unlock, err := l.Lock(ctx, sessionID)
	require.NoError(t, err)

	// Simulate expiry and takeover by another holder.
	require.NoError(t, l.client.Set(ctx, Key(sessionID), "someone-else", time.Second).Err())
	unlock()

	got, err := l.client.Get(ctx, Key(sessionID)).Result()
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
	require.NoError(t, l.client.Del(ctx, Key(sessionID)).Err())
}
