//go:build integration

package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fjod/go_ussd/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func setupRedisContainer(t *testing.T) *redis.Client {
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(uri)
	require.NoError(t, err)

	client := redis.NewClient(opts)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisStore_Integration(t *testing.T) {
	client := setupRedisContainer(t)
	store := NewRedisStore(client, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, newSession()))

	got, err := store.Get(ctx, subscriber)
	require.NoError(t, err)
	assert.Equal(t, domain.StateCart, got.State)
	require.Len(t, got.Cart, 1)

	ttl, err := client.TTL(ctx, sessionKey(subscriber)).Result()
	require.NoError(t, err)
	assert.InDelta(t, time.Hour.Seconds(), ttl.Seconds(), 5)

	require.NoError(t, store.Delete(ctx, subscriber))
	_, err = store.Get(ctx, subscriber)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisLocker_Integration_SerializesTurns(t *testing.T) {
	client := setupRedisContainer(t)
	locker := NewRedisLocker(client, 5*time.Second)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(ctx, subscriber)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			inside++
			maxSeen = max(maxSeen, inside)
			mu.Unlock()

			time.Sleep(20 * time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
}
