package cli

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/psys/internal/config"
	"github.com/aretw0/psys/internal/logging"
	"github.com/aretw0/psys/pkg/adapters/file"
	"github.com/aretw0/psys/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRules(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func run(t *testing.T, opts RunOptions, input string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	opts.Stdin = strings.NewReader(input)
	opts.Stdout = &out
	if opts.Config.Store == "" {
		opts.Config = config.Default()
	}
	err := Execute(context.Background(), opts)
	return out.String(), err
}

func TestExecute_Scenarios(t *testing.T) {
	t.Run("A simple conversion", func(t *testing.T) {
		out, err := run(t, RunOptions{RulePaths: []string{writeRules(t, "aB")}}, "a")
		require.NoError(t, err)
		assert.Equal(t, "b\n", out)
	})

	t.Run("B multi-symbol exhaustion", func(t *testing.T) {
		out, err := run(t, RunOptions{RulePaths: []string{writeRules(t, "aaB")}}, "aaaa")
		require.NoError(t, err)
		assert.Equal(t, "bb\n", out)
	})

	t.Run("C invalid rule", func(t *testing.T) {
		out, err := run(t, RunOptions{RulePaths: []string{writeRules(t, "ABC")}}, "abc")
		require.ErrorIs(t, err, domain.ErrInvalidRule)
		assert.Empty(t, out)
	})

	t.Run("D divergence with loop detection", func(t *testing.T) {
		out, err := run(t, RunOptions{RulePaths: []string{writeRules(t, "aAA")}, DetectLoops: true}, "a")
		require.ErrorIs(t, err, domain.ErrDivergence)
		assert.Equal(t, "found increasing sequence: a->aa", err.Error())
		assert.Empty(t, out)
	})
}

func TestExecute_EmptyResult(t *testing.T) {
	out, err := run(t, RunOptions{RulePaths: []string{writeRules(t, "a")}}, "aaa")
	require.NoError(t, err)
	assert.Equal(t, "\n", out)
}

func TestExecute_MultipleFiles(t *testing.T) {
	first := writeRules(t, "aB")
	second := writeRules(t, "bC")
	out, err := run(t, RunOptions{RulePaths: []string{first, second}}, "ab")
	require.NoError(t, err)
	assert.Equal(t, "cc\n", out)
}

func TestExecute_Verbose(t *testing.T) {
	out, err := run(t, RunOptions{RulePaths: []string{writeRules(t, "aaB")}, Verbose: true}, "aaaaa")
	require.NoError(t, err)
	assert.Equal(t, "aaaaa\n  aa -> b\n  aa -> b\nabb\nabb\n", out)
}

func TestExecute_MissingFile(t *testing.T) {
	_, err := run(t, RunOptions{RulePaths: []string{filepath.Join(t.TempDir(), "none.txt")}}, "")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestExecute_StepLimit(t *testing.T) {
	cfg := config.Default()
	cfg.StepLimit = 4
	_, err := run(t, RunOptions{RulePaths: []string{writeRules(t, "aAA")}, Config: cfg}, "a")
	assert.ErrorIs(t, err, domain.ErrStepLimit)
}

func TestExecute_BadLogLevel(t *testing.T) {
	cfg := config.Default()
	cfg.LogLevel = "chatty"
	_, err := run(t, RunOptions{RulePaths: []string{writeRules(t, "aB")}, Config: cfg}, "a")
	assert.ErrorContains(t, err, "unknown log level")
}

func TestExecute_RecordsToFileStore(t *testing.T) {
	cfg := config.Default()
	cfg.Store = config.StoreFile
	cfg.StoreDir = t.TempDir()

	out, err := run(t, RunOptions{RulePaths: []string{writeRules(t, "aB")}, Config: cfg}, "aa")
	require.NoError(t, err)
	assert.Equal(t, "bb\n", out)

	ids, err := file.NewStore(cfg.StoreDir).List(context.Background())
	require.NoError(t, err)
	require.Len(t, ids, 1)
}

func TestExecute_Interrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	err := Execute(ctx, RunOptions{
		RulePaths: []string{writeRules(t, "aB")},
		Config:    config.Default(),
		Stdin:     strings.NewReader("a"),
		Stdout:    &out,
	})
	assert.ErrorContains(t, err, "interrupted")
	assert.Empty(t, out.String())
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	for _, kind := range []string{config.StoreNone, config.StoreMemory, config.StoreFile} {
		cfg := config.Default()
		cfg.Store = kind
		cfg.StoreDir = t.TempDir()
		store, closeFn, err := OpenStore(ctx, cfg)
		require.NoError(t, err, kind)
		assert.Equal(t, kind != config.StoreNone, store != nil, kind)
		assert.NoError(t, closeFn())
	}

	mr := miniredis.RunT(t)
	cfg := config.Default()
	cfg.Store = config.StoreRedis
	cfg.Redis.Addr = mr.Addr()
	store, closeFn, err := OpenStore(ctx, cfg)
	require.NoError(t, err)
	require.NotNil(t, store)
	assert.NoError(t, closeFn())

	cfg.Redis.Addr = "127.0.0.1:1"
	_, _, err = OpenStore(ctx, cfg)
	assert.ErrorContains(t, err, "failed to connect to redis")
}

func TestOpenStore_Encrypted(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Store = config.StoreFile
	cfg.StoreDir = dir
	cfg.StoreKey = strings.Repeat("0f", 32)

	store, closeFn, err := OpenStore(ctx, cfg)
	require.NoError(t, err)
	defer closeFn()

	rec := &domain.RunRecord{ID: "sealed", Rules: []string{"aB"}, Status: domain.StatusHalted}
	require.NoError(t, store.Save(ctx, rec))

	loaded, err := store.Load(ctx, "sealed")
	require.NoError(t, err)
	assert.Equal(t, []string{"aB"}, loaded.Rules)

	raw, err := file.NewStore(dir).Load(ctx, "sealed")
	require.NoError(t, err)
	assert.Empty(t, raw.Rules)
	assert.NotEmpty(t, raw.Sealed)
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("")
	require.NoError(t, err)
	assert.False(t, logger.Enabled(context.Background(), -100))

	logger, err = NewLogger("debug")
	require.NoError(t, err)
	assert.True(t, logger.Enabled(context.Background(), -4))
}

func TestCreateDebugHooks(t *testing.T) {
	var buf bytes.Buffer
	hooks := createDebugHooks(logging.NewWriter(&buf, slog.LevelDebug))
	ctx := context.Background()

	start := domain.NewMultiset("aab")
	hooks.OnStepStart(ctx, &domain.StepEvent{EventBase: domain.EventBase{Step: 1}, State: start})
	hooks.OnStepEnd(ctx, &domain.StepEvent{EventBase: domain.EventBase{Step: 1}, State: domain.NewMultiset("bb"), Fired: true})

	out := buf.String()
	assert.Contains(t, out, "state=aab")
	assert.Contains(t, out, "size=3")
	assert.Contains(t, out, "fired=true")
}

func TestInterruptibleReader(t *testing.T) {
	cancel := make(chan struct{})
	r := NewInterruptibleReader(strings.NewReader("abc"), cancel)

	buf := make([]byte, 2)
	n, err := r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	close(cancel)
	_, err = r.Read(buf)
	assert.True(t, isInterrupted(err))
}
