package pipeline

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loctree/loctree/internal/config"
	"github.com/loctree/loctree/internal/model"
)

// fixtureRoot locates testdata/fixtures/go_project relative to this source
// file so the test works regardless of the caller's working directory.
func fixtureRoot(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(thisFile), "..", "..", "testdata", "fixtures", "go_project")
}

func TestRun_GoProjectFixture(t *testing.T) {
	root := fixtureRoot(t)

	result, err := Run(context.Background(), Options{
		Roots:     []string{root},
		Config:    &config.ProjectConfig{},
		CacheRoot: t.TempDir(),
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, result.Snapshot)

	assert.Len(t, result.Snapshot.Files, 2)
	assert.Contains(t, result.Snapshot.SymbolIndex, "UserService")
	assert.Contains(t, result.Snapshot.SymbolIndex, "NewUserService")

	// model.go and service.go belong to the same Go package and share no
	// import statement between them, so the graph builder produces no
	// edge between the two and both surface as orphans.
	assert.Empty(t, result.Snapshot.Edges)
	assert.Len(t, result.Findings.Orphans, 2)
}

// TestRun_ReExportFixture drives the real parsers, resolver, and graph
// builder end-to-end over a TS `export * from` and a Python `from .inner
// import *` re-export, the exact scenario a hand-constructed
// internal/graph/builder_test.go File literal would mask (the parser, not
// the test author, has to be the one producing the companion Import).
func TestRun_ReExportFixture(t *testing.T) {
	root := filepath.Join(fixtureRoot(t), "..", "reexport_project")

	result, err := Run(context.Background(), Options{
		Roots:     []string{root},
		Config:    &config.ProjectConfig{},
		CacheRoot: t.TempDir(),
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, result.Snapshot)

	assert.Contains(t, edgeTargets(result.Snapshot.Edges, "ts/index.ts", model.EdgeReExport), "ts/sub.ts")
	require.Contains(t, result.Snapshot.SymbolIndex, "helper")
	assert.Len(t, result.Snapshot.SymbolIndex["helper"], 2)

	assert.Contains(t, edgeTargets(result.Snapshot.Edges, "py/pkg/__init__.py", model.EdgeReExport), "py/pkg/inner.py")
	require.Contains(t, result.Snapshot.SymbolIndex, "F")
	var fFiles []string
	for _, ref := range result.Snapshot.SymbolIndex["F"] {
		fFiles = append(fFiles, ref.File)
	}
	assert.ElementsMatch(t, []string{"py/pkg/inner.py", "py/pkg/__init__.py"}, fFiles)
}

func edgeTargets(edges []model.Edge, from string, label model.EdgeLabel) []string {
	var targets []string
	for _, e := range edges {
		if e.From == from && e.Label == label {
			targets = append(targets, e.To)
		}
	}
	return targets
}
