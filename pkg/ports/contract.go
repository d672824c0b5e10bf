package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/psys/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStoreContract runs a suite of tests to verify that a RunStore implementation
// adheres to the defined interface contract.
func RunStoreContract(t *testing.T, store RunStore) {
	ctx := context.Background()
	runID := "contract-test-run-" + time.Now().Format("20060102150405")

	newRecord := func(id string) *domain.RunRecord {
		return &domain.RunRecord{
			ID:          id,
			Rules:       []string{"aB", "bbC"},
			Initial:     domain.NewMultiset("aaaa"),
			Final:       domain.NewMultiset("cc"),
			Steps:       2,
			Status:      domain.StatusHalted,
			DetectLoops: true,
			StartedAt:   time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
			FinishedAt:  time.Date(2024, 1, 2, 3, 4, 6, 0, time.UTC),
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		rec := newRecord(runID)

		err := store.Save(ctx, rec)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, rec.Rules, loaded.Rules)
		assert.Equal(t, rec.Initial, loaded.Initial)
		assert.Equal(t, rec.Final, loaded.Final)
		assert.Equal(t, rec.Steps, loaded.Steps)
		assert.Equal(t, rec.Status, loaded.Status)
		assert.True(t, rec.FinishedAt.Equal(loaded.FinishedAt))
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		rec := newRecord(runID)
		rec.Status = domain.StatusDiverged
		rec.Error = "found increasing sequence: a->aa"
		require.NoError(t, store.Save(ctx, rec))

		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusDiverged, loaded.Status)
		assert.Equal(t, rec.Error, loaded.Error)
	})

	t.Run("Load Is Isolated", func(t *testing.T) {
		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err)
		loaded.Rules[0] = "mutated"

		again, err := store.Load(ctx, runID)
		require.NoError(t, err)
		assert.Equal(t, "aB", again.Rules[0])
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, newRecord(runID))
		require.NoError(t, err)

		err = store.Delete(ctx, runID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound, "Load after Delete should return ErrRunNotFound")

		assert.NoError(t, store.Delete(ctx, runID), "Deleting twice should not fail")
	})

	t.Run("List", func(t *testing.T) {
		id1 := runID + "-1"
		id2 := runID + "-2"
		_ = store.Save(ctx, newRecord(id1))
		_ = store.Save(ctx, newRecord(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		runs, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, runs, id1)
		assert.Contains(t, runs, id2)
	})
}
