package scan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loctree/loctree/internal/config"
	"github.com/loctree/loctree/internal/model"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestWalk_DeterministicOrder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b.ts"), "export const b = 1;\n")
	writeFile(t, filepath.Join(root, "a.ts"), "export const a = 1;\n")
	writeFile(t, filepath.Join(root, "sub", "c.ts"), "export const c = 1;\n")

	entries, warnings, err := Walk([]string{root}, &config.ProjectConfig{})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, entries, 3)
	assert.Equal(t, "a.ts", entries[0].RelPath)
	assert.Equal(t, "b.ts", entries[1].RelPath)
	assert.Equal(t, "sub/c.ts", entries[2].RelPath)
}

func TestWalk_ExcludesHiddenByDefault(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".hidden", "x.ts"), "export const x = 1;\n")
	writeFile(t, filepath.Join(root, "visible.ts"), "export const y = 1;\n")

	entries, _, err := Walk([]string{root}, &config.ProjectConfig{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "visible.ts", entries[0].RelPath)
}

func TestWalk_IncludeHiddenOverride(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".hidden", "x.ts"), "export const x = 1;\n")

	entries, _, err := Walk([]string{root}, &config.ProjectConfig{IncludeHidden: true})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ".hidden/x.ts", entries[0].RelPath)
}

func TestWalk_GitignoreHonored(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".gitignore"), "ignored/\n*.ignore.ts\n")
	writeFile(t, filepath.Join(root, "ignored", "x.ts"), "export const x = 1;\n")
	writeFile(t, filepath.Join(root, "keep.ts"), "export const y = 1;\n")
	writeFile(t, filepath.Join(root, "foo.ignore.ts"), "export const z = 1;\n")

	entries, _, err := Walk([]string{root}, &config.ProjectConfig{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "keep.ts", entries[0].RelPath)
}

func TestWalk_IncludeIgnoredOverride(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".gitignore"), "ignored/\n")
	writeFile(t, filepath.Join(root, "ignored", "x.ts"), "export const x = 1;\n")

	entries, _, err := Walk([]string{root}, &config.ProjectConfig{IncludeIgnored: true})
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestWalk_NodeModulesExcludedForTSStack(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "package.json"), `{"name":"x"}`)
	writeFile(t, filepath.Join(root, "node_modules", "dep", "index.js"), "module.exports = {};\n")
	writeFile(t, filepath.Join(root, "src", "index.ts"), "export const a = 1;\n")

	entries, _, err := Walk([]string{root}, &config.ProjectConfig{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "src/index.ts", entries[0].RelPath)
}

func TestWalk_LanguageClassification(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.rs"), "fn main() {}\n")
	writeFile(t, filepath.Join(root, "b.py"), "x = 1\n")
	writeFile(t, filepath.Join(root, "c.tsx"), "export const C = () => null;\n")

	entries, _, err := Walk([]string{root}, &config.ProjectConfig{})
	require.NoError(t, err)
	byPath := map[string]model.Language{}
	for _, e := range entries {
		byPath[e.RelPath] = e.Language
	}
	assert.Equal(t, model.LangRust, byPath["a.rs"])
	assert.Equal(t, model.LangPython, byPath["b.py"])
	assert.Equal(t, model.LangTSX, byPath["c.tsx"])
}

func TestWalk_TestFileKindClassification(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "foo.ts"), "export const a = 1;\n")
	writeFile(t, filepath.Join(root, "foo.test.ts"), "test('x', () => {});\n")

	entries, _, err := Walk([]string{root}, &config.ProjectConfig{})
	require.NoError(t, err)
	byPath := map[string]model.FileKind{}
	for _, e := range entries {
		byPath[e.RelPath] = e.Kind
	}
	assert.Equal(t, model.KindCode, byPath["foo.ts"])
	assert.Equal(t, model.KindTest, byPath["foo.test.ts"])
}

func TestWalk_UnreadableDirStopsSubtreeNotScan(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "good.ts"), "export const a = 1;\n")
	blocked := filepath.Join(root, "blocked")
	require.NoError(t, os.MkdirAll(blocked, 0o755))
	writeFile(t, filepath.Join(blocked, "hidden.ts"), "export const b = 1;\n")
	require.NoError(t, os.Chmod(blocked, 0o000))
	defer os.Chmod(blocked, 0o755)

	entries, warnings, err := Walk([]string{root}, &config.ProjectConfig{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "good.ts", entries[0].RelPath)
	require.NotEmpty(t, warnings)
}

func TestDetectStacks_Cargo(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Cargo.toml"), "[package]\nname = \"x\"\n")

	hints, ignores := DetectStacks(root)
	require.Len(t, hints, 1)
	assert.Equal(t, config.StackRust, hints[0])
	assert.Contains(t, ignores, "target/")
}

func TestDetectStacks_Tauri(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "package.json"), `{}`)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src-tauri"), 0o755))

	hints, _ := DetectStacks(root)
	var has config.StackHint
	for _, h := range hints {
		if h == config.StackTauri {
			has = h
		}
	}
	assert.Equal(t, config.StackTauri, has)
}
