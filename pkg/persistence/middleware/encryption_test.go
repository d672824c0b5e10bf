package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"testing"
	"time"

	"github.com/aretw0/psys/pkg/adapters/memory"
	"github.com/aretw0/psys/pkg/domain"
	"github.com/aretw0/psys/pkg/persistence/middleware"
	"github.com/aretw0/psys/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func sampleRecord(id string) *domain.RunRecord {
	start := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	return &domain.RunRecord{
		ID:         id,
		Rules:      []string{"aB", "bC"},
		Initial:    domain.NewMultiset("aa"),
		Final:      domain.NewMultiset("cc"),
		Steps:      2,
		Status:     domain.StatusHalted,
		StartedAt:  start,
		FinishedAt: start.Add(time.Millisecond),
	}
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewStore()
	secure := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)
	ctx := context.Background()

	rec := sampleRecord("run-1")
	require.NoError(t, secure.Save(ctx, rec))

	// The backend only sees the envelope.
	stored, err := underlying.Load(ctx, "run-1")
	require.NoError(t, err)
	assert.NotEmpty(t, stored.Sealed)
	assert.Empty(t, stored.Rules)
	assert.True(t, stored.Final.IsEmpty())
	assert.Equal(t, domain.StatusHalted, stored.Status)
	assert.Equal(t, rec.StartedAt, stored.StartedAt)

	loaded, err := secure.Load(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, rec.Rules, loaded.Rules)
	assert.Equal(t, "cc", loaded.Final.String())
	assert.Empty(t, loaded.Sealed)

	ids, err := secure.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"run-1"}, ids)

	require.NoError(t, secure.Delete(ctx, "run-1"))
	_, err = secure.Load(ctx, "run-1")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)
	ctx := context.Background()

	oldStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})(underlying)
	require.NoError(t, oldStore.Save(ctx, sampleRecord("rot")))

	newStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(underlying)

	loaded, err := newStore.Load(ctx, "rot")
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Steps)

	// Re-saving seals with the new key only.
	require.NoError(t, newStore.Save(ctx, loaded))
	_, err = oldStore.Load(ctx, "rot")
	assert.ErrorContains(t, err, "decryption failed")
}

func TestEncryptionMiddleware_PlainRecordRejected(t *testing.T) {
	underlying := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, underlying.Save(ctx, sampleRecord("plain")))

	secure := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)
	_, err := secure.Load(ctx, "plain")
	assert.ErrorIs(t, err, middleware.ErrNotSealed)
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	assert.Panics(t, func() {
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	})
}

func TestChain_Order(t *testing.T) {
	var calls []string
	tag := func(name string) middleware.Middleware {
		return func(next ports.RunStore) ports.RunStore {
			return &recordingStore{RunStore: next, name: name, calls: &calls}
		}
	}

	store := middleware.Chain(memory.NewStore(), tag("outer"), tag("inner"))
	require.NoError(t, store.Save(context.Background(), sampleRecord("x")))
	assert.Equal(t, []string{"outer", "inner"}, calls)
}

type recordingStore struct {
	ports.RunStore
	name  string
	calls *[]string
}

func (s *recordingStore) Save(ctx context.Context, rec *domain.RunRecord) error {
	*s.calls = append(*s.calls, s.name)
	return s.RunStore.Save(ctx, rec)
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	store := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(memory.NewStore())
	ports.RunStoreContract(t, store)
}
