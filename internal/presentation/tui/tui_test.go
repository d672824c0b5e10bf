package tui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlainRenderer(t *testing.T) {
	render, err := NewPlainRenderer()
	require.NoError(t, err)

	out, err := render("# Rules\n\n| # | Token |\n|---|---|\n| 0 | aB |\n")
	require.NoError(t, err)
	assert.Contains(t, out, "Rules")
	assert.Contains(t, out, "aB")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "v1.2.3")
	assert.Contains(t, buf.String(), "membrane simulator v1.2.3")
	assert.NotContains(t, buf.String(), "\x1b[")
}
