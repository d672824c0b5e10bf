package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/psys/pkg/adapters/file"
	"github.com/aretw0/psys/pkg/domain"
	contract "github.com/aretw0/psys/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestFileLoader_Contract(t *testing.T) {
	dir := t.TempDir()
	first := writeFile(t, dir, "first.txt", "# comment\naB ccD\n")
	second := writeFile(t, dir, "second.yaml", "rules:\n  - dE\n  - eeA\n")
	third := writeFile(t, dir, "third", "bA")

	loader := file.NewLoader(first, second, third)
	contract.RuleLoaderContractTest(t, loader, []string{"aB", "ccD", "dE", "eeA", "bA"})
}

func TestFileLoader_RecordsSource(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "prog.txt", "\n\naB\n")

	rules, err := file.NewLoader(path).LoadRules(context.Background())
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, path, rules[0].Source)
	assert.Equal(t, 3, rules[0].Line)
}

func TestFileLoader_Errors(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	_, err := file.NewLoader().LoadRules(ctx)
	assert.Error(t, err)

	_, err = file.NewLoader(filepath.Join(dir, "missing.txt")).LoadRules(ctx)
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := writeFile(t, dir, "bad.txt", "aB\nABC\n")
	_, err = file.NewLoader(bad).LoadRules(ctx)
	assert.ErrorIs(t, err, domain.ErrInvalidRule)
	assert.Contains(t, err.Error(), "bad.txt:2")

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = file.NewLoader(bad).LoadRules(cancelled)
	assert.ErrorIs(t, err, context.Canceled)
}
