package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/psys/pkg/adapters/file"
	"github.com/aretw0/psys/pkg/domain"
	"github.com/aretw0/psys/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Contract(t *testing.T) {
	store := file.NewStore(t.TempDir())
	ports.RunStoreContract(t, store)
}

func TestFileStore_Layout(t *testing.T) {
	dir := t.TempDir()
	store := file.NewStore(dir)
	ctx := context.Background()

	rec := &domain.RunRecord{ID: "abc", Final: domain.NewMultiset("bb"), Status: domain.StatusHalted}
	require.NoError(t, store.Save(ctx, rec))

	data, err := os.ReadFile(filepath.Join(dir, "abc.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"final": {`)
	assert.Contains(t, string(data), `"b": 2`)

	// Leftover temp files are not listed.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tmp-x-1.json"), []byte("{}"), 0644))
	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"abc"}, ids)
}

func TestFileStore_Errors(t *testing.T) {
	store := file.NewStore(t.TempDir())
	ctx := context.Background()

	assert.Error(t, store.Save(ctx, &domain.RunRecord{}))
	_, err := store.Load(ctx, "")
	assert.Error(t, err)

	ids, err := file.NewStore(filepath.Join(t.TempDir(), "missing")).List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestNewStore_DefaultPath(t *testing.T) {
	assert.Equal(t, filepath.Join(".psy", "runs"), file.NewStore("").BasePath)
}
