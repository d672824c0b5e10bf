package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aretw0/psys"
	"github.com/aretw0/psys/internal/validator"
	"github.com/aretw0/psys/pkg/adapters/memory"
	"github.com/aretw0/psys/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	factory := psys.NewFactory(psys.WithStore(store), psys.WithStepLimit(20))
	return NewServer(factory, store, "v9"), store
}

func TestHandleSimulate(t *testing.T) {
	s, store := newTestServer(t)

	res, err := s.handleSimulate(context.Background(), mcp.CallToolRequest{}, SimulateArgs{
		Rules: "# counter\naaE\n",
		State: "AAAAA",
	})
	require.NoError(t, err)
	assert.Equal(t, "aee", res.Output)
	assert.Equal(t, map[string]uint64{"a": 1, "e": 2}, res.Final)
	assert.Equal(t, 1, res.Steps)
	assert.Equal(t, domain.StatusHalted, res.Status)

	_, err = store.Load(context.Background(), res.RunID)
	assert.NoError(t, err)
}

func TestHandleSimulate_Errors(t *testing.T) {
	s, _ := newTestServer(t)

	_, err := s.handleSimulate(context.Background(), mcp.CallToolRequest{}, SimulateArgs{Rules: "ABC"})
	assert.ErrorIs(t, err, domain.ErrInvalidRule)

	_, err = s.handleSimulate(context.Background(), mcp.CallToolRequest{}, SimulateArgs{
		Rules: "aAA", State: "a", DetectLoops: true,
	})
	assert.EqualError(t, err, "found increasing sequence: a->aa")

	_, err = s.handleSimulate(context.Background(), mcp.CallToolRequest{}, SimulateArgs{Rules: "aAA", State: "a"})
	assert.ErrorIs(t, err, domain.ErrStepLimit)
}

func TestHandleValidate(t *testing.T) {
	s, _ := newTestServer(t)

	res, err := s.handleValidate(context.Background(), mcp.CallToolRequest{}, ValidateArgs{Rules: "aB  ccD\n"})
	require.NoError(t, err)
	assert.Equal(t, ValidateResult{Rules: 2, Tokens: []string{"aB", "ccD"}, Warnings: []validator.Finding{}}, res)

	state := "a"
	res, err = s.handleValidate(context.Background(), mcp.CallToolRequest{}, ValidateArgs{Rules: "aB ccD", State: &state})
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, validator.KindUnreachable, res.Warnings[0].Kind)
	assert.Equal(t, "ccD", res.Warnings[0].Token)

	_, err = s.handleValidate(context.Background(), mcp.CallToolRequest{}, ValidateArgs{Rules: "B"})
	assert.ErrorIs(t, err, domain.ErrInvalidRule)
}

func TestRunResources(t *testing.T) {
	s, store := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, &domain.RunRecord{
		ID:        "run-1",
		Final:     domain.NewMultiset("bb"),
		Status:    domain.StatusHalted,
		StartedAt: time.Now(),
	}))

	var req mcp.ReadResourceRequest
	req.Params.URI = runsURI
	contents, err := s.readRuns(ctx, req)
	require.NoError(t, err)
	require.Len(t, contents, 1)
	text := contents[0].(mcp.TextResourceContents).Text
	assert.JSONEq(t, `["run-1"]`, text)

	req.Params.URI = runsURI + "/run-1"
	contents, err = s.readRun(ctx, req)
	require.NoError(t, err)
	var rec domain.RunRecord
	require.NoError(t, json.Unmarshal([]byte(contents[0].(mcp.TextResourceContents).Text), &rec))
	assert.Equal(t, "bb", rec.Final.String())

	req.Params.URI = runsURI + "/missing"
	_, err = s.readRun(ctx, req)
	assert.ErrorIs(t, err, domain.ErrRunNotFound)

	req.Params.URI = "other://x"
	_, err = s.readRun(ctx, req)
	assert.ErrorContains(t, err, "invalid run URI")
}
