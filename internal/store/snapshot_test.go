package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loctree/loctree/internal/model"
)

func TestResolveCacheRoot_Override(t *testing.T) {
	assert.Equal(t, "/custom/cache", ResolveCacheRoot("/anything", "/custom/cache"))
}

func TestResolveCacheRoot_FindsAncestor(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".loctree"), 0o755))
	sub := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	got := ResolveCacheRoot(sub, "")
	assert.Equal(t, filepath.Join(root, ".loctree"), got)
}

func TestCache_WriteThenLoadRoundTrip(t *testing.T) {
	root := t.TempDir()
	cache, err := OpenCache(root)
	require.NoError(t, err)
	defer cache.Close()

	snapshot := &model.Snapshot{
		ScanKey: "main@abc123",
		Files:   []model.File{{Path: "a.ts", Language: model.LangTS, MTimeMillis: 1000}},
		Edges:   []model.Edge{{From: "a.ts", To: "b.ts", Label: model.EdgeImport}},
	}
	findings := &model.Findings{}
	agent := BuildAgentSummary(snapshot, findings)

	require.NoError(t, cache.Write("main@abc123", snapshot, findings, agent))

	loaded, err := cache.Load("main@abc123")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, snapshot.ScanKey, loaded.ScanKey)
	assert.Len(t, loaded.Files, 1)

	for _, name := range []string{"snapshot.json", "findings.json", "agent.json", "manifest.json"} {
		_, err := os.Stat(filepath.Join(cache.ScanDir("main@abc123"), name))
		assert.NoError(t, err, "expected %s to exist", name)
	}
}

func TestCache_LoadMissingReturnsNil(t *testing.T) {
	root := t.TempDir()
	cache, err := OpenCache(root)
	require.NoError(t, err)
	defer cache.Close()

	loaded, err := cache.Load("nonexistent")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestOpenCache_SecondConcurrentScanFailsFast(t *testing.T) {
	root := t.TempDir()
	first, err := OpenCache(root)
	require.NoError(t, err)
	defer first.Close()

	_, err = OpenCache(root)
	require.Error(t, err)
}

func TestSameIdentity(t *testing.T) {
	snap := &model.Snapshot{Files: []model.File{{Path: "a.ts", MTimeMillis: 100}}}
	current := []model.File{{Path: "a.ts", MTimeMillis: 100}}
	assert.True(t, SameIdentity(snap, current))

	changed := []model.File{{Path: "a.ts", MTimeMillis: 200}}
	assert.False(t, SameIdentity(snap, changed))

	added := []model.File{{Path: "a.ts", MTimeMillis: 100}, {Path: "b.ts", MTimeMillis: 1}}
	assert.False(t, SameIdentity(snap, added))
}
