//go:build cgo

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loctree/loctree/internal/model"
)

// newTestKuzuStore creates a fresh in-memory KuzuStore with an initialized
// schema and registers a cleanup function to close it.
func newTestKuzuStore(t *testing.T) *KuzuStore {
	t.Helper()
	s, err := NewKuzuStore()
	require.NoError(t, err, "NewKuzuStore should not fail")
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.InitSchema(context.Background()))
	return s
}

func TestKuzuStore_InitSchema_Idempotent(t *testing.T) {
	s := newTestKuzuStore(t)
	require.NoError(t, s.InitSchema(context.Background()))
}

func TestKuzuStore_LoadAndQuery(t *testing.T) {
	s := newTestKuzuStore(t)
	ctx := context.Background()

	require.NoError(t, s.Load(ctx, testSnapshot()))

	f, err := s.GetFile(ctx, "a.ts")
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, model.LangTS, f.Language)

	refs, err := s.QuerySymbols(ctx, "widg", 10)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "a.ts", refs[0].File)

	edges, err := s.GetAllEdges(ctx)
	require.NoError(t, err)
	assert.Len(t, edges, 2)
}

func TestKuzuStore_GetDependencies(t *testing.T) {
	s := newTestKuzuStore(t)
	ctx := context.Background()
	require.NoError(t, s.Load(ctx, testSnapshot()))

	chains, err := s.GetDependencies(ctx, "a.ts", DirectionDownstream, 10)
	require.NoError(t, err)
	require.Len(t, chains, 2)
}

func TestKuzuStore_Stats(t *testing.T) {
	s := newTestKuzuStore(t)
	ctx := context.Background()
	require.NoError(t, s.Load(ctx, testSnapshot()))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.FileCount)
	assert.Equal(t, 2, stats.EdgeCount)
}
