package semantic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yannickloth/claude-router-system-sub000/core"
)

func testConfig(t *testing.T) *core.Config {
	t.Helper()
	cfg, err := core.NewConfig(core.WithStateDir(t.TempDir()))
	require.NoError(t, err)
	return cfg
}

func TestTokenFrequencyEmbedder_SimilarTextsScoreHigh(t *testing.T) {
	e := NewTokenFrequencyEmbedder([]string{"fix", "typo", "readme", "refactor", "router"})
	ctx := context.Background()

	a, err := e.Embed(ctx, "fix typo in readme")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "fix the typo in readme file")
	require.NoError(t, err)
	c, err := e.Embed(ctx, "refactor the router")
	require.NoError(t, err)

	assert.Greater(t, CosineSimilarity(a, b), CosineSimilarity(a, c))
}

func TestTokenFrequencyEmbedder_EmptyTextYieldsZeroVector(t *testing.T) {
	e := NewTokenFrequencyEmbedder([]string{"a", "b"})
	vec, err := e.Embed(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, Vector{0, 0}, vec)
}

func TestCosineSimilarity_MismatchedLengthsYieldsZero(t *testing.T) {
	assert.Equal(t, 0.0, CosineSimilarity(Vector{1, 0}, Vector{1, 0, 0}))
}

func TestNewCache_DisabledReturnsNil(t *testing.T) {
	cfg := testConfig(t)
	cache, err := NewCache(cfg, NewTokenFrequencyEmbedder(nil))
	require.NoError(t, err)
	assert.Nil(t, cache)
}
