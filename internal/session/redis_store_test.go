package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fjod/go_ussd/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis server and a client pointing to it
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestRedisStore_PutGet(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRedisStore(client, 24*time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, newSession()))

	assert.True(t, mr.Exists(sessionKey(subscriber)))
	assert.Equal(t, 24*time.Hour, mr.TTL(sessionKey(subscriber)))

	got, err := store.Get(ctx, subscriber)
	require.NoError(t, err)
	assert.Equal(t, domain.StateCart, got.State)
	assert.Equal(t, "Chef One", got.Vendor)
}

func TestRedisStore_Miss(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := NewRedisStore(client, time.Hour)

	got, err := store.Get(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Nil(t, got)
}

func TestRedisStore_Expiry(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRedisStore(client, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, newSession()))
	mr.FastForward(2 * time.Hour)

	_, err := store.Get(ctx, subscriber)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisStore_InvalidJSON(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRedisStore(client, time.Hour)

	require.NoError(t, mr.Set(sessionKey(subscriber), `{"state":`))

	_, err := store.Get(context.Background(), subscriber)
	require.ErrorContains(t, err, "unmarshal session failed")
}

func TestRedisStore_Delete(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRedisStore(client, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, newSession()))
	require.NoError(t, store.Delete(ctx, subscriber))
	assert.False(t, mr.Exists(sessionKey(subscriber)))
}

func TestRedisStore_ConnectionError(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRedisStore(client, time.Hour)
	mr.Close()

	_, err := store.Get(context.Background(), subscriber)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisLocker_ExclusiveUntilUnlocked(t *testing.T) {
	client, mr := setupTestRedis(t)
	locker := NewRedisLocker(client, 5*time.Second)

	unlock, err := locker.Lock(context.Background(), subscriber)
	require.NoError(t, err)
	assert.True(t, mr.Exists("ussd:lock:"+subscriber))

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, subscriber)
	assert.ErrorIs(t, err, ErrLockTimeout)

	unlock()
	assert.False(t, mr.Exists("ussd:lock:"+subscriber))

	unlock2, err := locker.Lock(context.Background(), subscriber)
	require.NoError(t, err)
	unlock2()
}

func TestRedisLocker_UnlockKeepsForeignToken(t *testing.T) {
	client, mr := setupTestRedis(t)
	locker := NewRedisLocker(client, time.Second)

	unlock, err := locker.Lock(context.Background(), subscriber)
	require.NoError(t, err)

	// lock expired and another process took it
	require.NoError(t, mr.Set("ussd:lock:"+subscriber, "someone-else"))
	unlock()

	got, err := mr.Get("ussd:lock:" + subscriber)
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}
