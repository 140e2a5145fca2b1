package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loctree/loctree/internal/model"
)

func testSnapshot() *model.Snapshot {
	return &model.Snapshot{
		Files: []model.File{
			{Path: "a.ts", Language: model.LangTS},
			{Path: "b.ts", Language: model.LangTS},
			{Path: "c.ts", Language: model.LangTS},
		},
		Edges: []model.Edge{
			{From: "a.ts", To: "b.ts", Label: model.EdgeImport},
			{From: "b.ts", To: "c.ts", Label: model.EdgeImport},
		},
		SymbolIndex: map[string][]model.SymbolRef{
			"Widget": {{File: "a.ts", Export: model.Export{Name: "Widget"}}},
		},
	}
}

func TestMemStore_GetFile(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()
	require.NoError(t, m.Load(ctx, testSnapshot()))

	f, err := m.GetFile(ctx, "a.ts")
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, model.LangTS, f.Language)

	f, err = m.GetFile(ctx, "missing.ts")
	require.NoError(t, err)
	assert.Nil(t, f)
}

func TestMemStore_QuerySymbols(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()
	require.NoError(t, m.Load(ctx, testSnapshot()))

	refs, err := m.QuerySymbols(ctx, "widg", 10)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "a.ts", refs[0].File)
}

func TestMemStore_GetDependencies_Downstream(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()
	require.NoError(t, m.Load(ctx, testSnapshot()))

	chains, err := m.GetDependencies(ctx, "a.ts", DirectionDownstream, 10)
	require.NoError(t, err)
	require.Len(t, chains, 2)
	assert.Equal(t, []string{"a.ts", "b.ts"}, chains[0].Nodes)
	assert.Equal(t, []string{"a.ts", "b.ts", "c.ts"}, chains[1].Nodes)
}

func TestMemStore_GetDependencies_Upstream(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()
	require.NoError(t, m.Load(ctx, testSnapshot()))

	chains, err := m.GetDependencies(ctx, "c.ts", DirectionUpstream, 10)
	require.NoError(t, err)
	require.Len(t, chains, 2)
	assert.Equal(t, []string{"c.ts", "b.ts"}, chains[0].Nodes)
	assert.Equal(t, []string{"c.ts", "b.ts", "a.ts"}, chains[1].Nodes)
}

func TestMemStore_AssessImpact(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()
	require.NoError(t, m.Load(ctx, testSnapshot()))

	result, err := m.AssessImpact(ctx, []string{"c.ts"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b.ts"}, result.DirectlyAffected)
	assert.ElementsMatch(t, []string{"a.ts", "b.ts"}, result.TransitivelyAffected)
	assert.InDelta(t, 2.0/3.0, result.RiskScore, 0.0001)
}

func TestMemStore_Stats(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()
	require.NoError(t, m.Load(ctx, testSnapshot()))

	stats, err := m.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.FileCount)
	assert.Equal(t, 1, stats.SymbolCount)
	assert.Equal(t, 2, stats.EdgeCount)
}
