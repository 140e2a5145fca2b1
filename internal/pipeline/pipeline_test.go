package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loctree/loctree/internal/config"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestRun_TwoFileDeadExportScenario(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.ts"), "export function used() {}\nexport function dead() {}\n")
	writeFile(t, filepath.Join(root, "b.ts"), "import { used } from './a';\nused();\n")

	cacheRoot := filepath.Join(root, ".cache")
	result, err := Run(context.Background(), Options{
		Roots:     []string{root},
		Config:    &config.ProjectConfig{},
		CacheRoot: cacheRoot,
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, result.Snapshot)
	assert.Len(t, result.Snapshot.Files, 2)
	require.Len(t, result.Findings.DeadExports, 1)
	assert.Equal(t, "a.ts", result.Findings.DeadExports[0].Files[0])
}

func TestRun_SkipOnIdentitySecondScan(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.ts"), "export const x = 1;\n")

	cacheRoot := filepath.Join(root, ".cache")
	opts := Options{Roots: []string{root}, Config: &config.ProjectConfig{}, CacheRoot: cacheRoot}

	first, err := Run(context.Background(), opts, nil)
	require.NoError(t, err)
	assert.False(t, first.Skipped)

	second, err := Run(context.Background(), opts, nil)
	require.NoError(t, err)
	assert.True(t, second.Skipped)
	assert.Equal(t, first.Snapshot.ScanKey, second.Snapshot.ScanKey)
}

func TestRun_CircularImportDetected(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.ts"), "import './b';\nexport const a = 1;\n")
	writeFile(t, filepath.Join(root, "b.ts"), "import './a';\nexport const b = 1;\n")

	result, err := Run(context.Background(), Options{
		Roots:     []string{root},
		Config:    &config.ProjectConfig{},
		CacheRoot: filepath.Join(root, ".cache"),
	}, nil)
	require.NoError(t, err)
	require.Len(t, result.Findings.Cycles, 1)
}
