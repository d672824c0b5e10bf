package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/psys/pkg/adapters/redis"
	"github.com/aretw0/psys/pkg/domain"
	"github.com/aretw0/psys/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err, "failed to start miniredis")
	t.Cleanup(mr.Close)

	return mr, backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)

	store := redis.NewFromClient(client)
	ports.RunStoreContract(t, store)
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)

	store := redis.NewFromClient(client, redis.WithTTL(1*time.Second))
	ctx := context.Background()
	rec := &domain.RunRecord{ID: "run-ttl", Final: domain.NewMultiset("b"), Status: domain.StatusHalted}

	require.NoError(t, store.Save(ctx, rec))

	runs, err := store.List(ctx)
	assert.NoError(t, err)
	assert.Contains(t, runs, rec.ID)

	// Key expiry is driven by miniredis' clock.
	mr.FastForward(2 * time.Second)

	_, err = store.Load(ctx, rec.ID)
	assert.ErrorIs(t, err, domain.ErrRunNotFound)

	// Index pruning is driven by the wall clock, so wait past the score.
	time.Sleep(1200 * time.Millisecond)

	runs, err = store.List(ctx)
	assert.NoError(t, err)
	assert.Empty(t, runs)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := newClient(t)

	store := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))
	ctx := context.Background()

	err := store.Save(ctx, &domain.RunRecord{ID: "my-run"})
	assert.NoError(t, err)

	assert.True(t, mr.Exists("custom:app:my-run"), "Expected key with custom prefix to exist")
	assert.True(t, mr.Exists("custom:app:index"), "Expected index with custom prefix to exist")

	list, err := store.List(ctx)
	assert.NoError(t, err)
	assert.Contains(t, list, "my-run")
}

func TestRedisStore_New(t *testing.T) {
	mr, _ := newClient(t)

	store := redis.New(mr.Addr(), "", 0)
	defer store.Close()

	assert.NoError(t, store.Ping(context.Background()))
	assert.Error(t, store.Save(context.Background(), &domain.RunRecord{}))
}

func TestRedisStore_CorruptRecord(t *testing.T) {
	mr, client := newClient(t)
	require.NoError(t, mr.Set("psy:run:broken", "{not json"))

	_, err := redis.NewFromClient(client).Load(context.Background(), "broken")
	assert.ErrorContains(t, err, "failed to unmarshal run")
}
