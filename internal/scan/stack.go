package scan

import (
	"os"
	"path/filepath"

	"github.com/loctree/loctree/internal/config"
)

// stackRule pairs a marker file/dir glob with the stack it implies and the
// default ignore directories that stack contributes (spec §4.1).
type stackRule struct {
	marker  string
	hint    config.StackHint
	ignores []string
}

var stackRules = []stackRule{
	{"Cargo.toml", config.StackRust, []string{"target/", ".git/"}},
	{"tsconfig.json", config.StackTS, []string{"node_modules/", "dist/", "build/", ".next/", "coverage/"}},
	{"package.json", config.StackTS, []string{"node_modules/", "dist/", "build/", ".next/", "coverage/"}},
	{"pyproject.toml", config.StackPython, []string{".venv/", "venv/", "__pycache__/", ".pytest_cache/"}},
	{"setup.py", config.StackPython, []string{".venv/", "venv/", "__pycache__/", ".pytest_cache/"}},
	{"setup.cfg", config.StackPython, []string{".venv/", "venv/", "__pycache__/", ".pytest_cache/"}},
	{"go.mod", config.StackGo, []string{"vendor/"}},
}

// viteConfigGlobs are matched against directory entries since the filename
// carries a variable extension (vite.config.ts, vite.config.js, ...).
var viteConfigGlobs = []string{"vite.config.ts", "vite.config.js", "vite.config.mjs", "vite.config.mts"}

// defaultExtensions per detected stack hint, used when the caller's config
// does not override Extensions.
var defaultExtensionsByStack = map[config.StackHint][]string{
	config.StackRust:   {".rs"},
	config.StackTS:     {".ts", ".tsx", ".js", ".jsx"},
	config.StackPython: {".py"},
	config.StackGo:     {".go"},
}

// DetectStacks inspects root for well-known marker files and returns every
// stack hint that applies, plus the union of the default ignores those
// stacks contribute. Multiple stacks may apply simultaneously.
func DetectStacks(root string) (hints []config.StackHint, ignores []string) {
	seen := make(map[config.StackHint]bool)
	ignoreSet := make(map[string]bool)

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, nil
	}
	names := make(map[string]bool, len(entries))
	for _, e := range entries {
		names[e.Name()] = true
	}

	for _, rule := range stackRules {
		if names[rule.marker] {
			if !seen[rule.hint] {
				seen[rule.hint] = true
				hints = append(hints, rule.hint)
			}
			for _, ig := range rule.ignores {
				ignoreSet[ig] = true
			}
		}
	}

	for _, glob := range viteConfigGlobs {
		if names[glob] {
			if !seen[config.StackTS] {
				seen[config.StackTS] = true
				hints = append(hints, config.StackTS)
			}
			for _, ig := range []string{"node_modules/", "dist/", "build/", ".next/", "coverage/"} {
				ignoreSet[ig] = true
			}
		}
	}

	if info, err := os.Stat(filepath.Join(root, "src-tauri")); err == nil && info.IsDir() {
		if !seen[config.StackTauri] {
			seen[config.StackTauri] = true
			hints = append(hints, config.StackTauri)
		}
		for _, ig := range []string{"node_modules/", "dist/", "build/", ".next/", "coverage/", "target/", ".git/"} {
			ignoreSet[ig] = true
		}
	}

	for ig := range ignoreSet {
		ignores = append(ignores, ig)
	}
	return hints, ignores
}

// DefaultExtensions returns the union of default extensions for the given
// stack hints. If no hints are given, every recognized extension is used.
func DefaultExtensions(hints []config.StackHint) []string {
	if len(hints) == 0 {
		return []string{".ts", ".tsx", ".js", ".jsx", ".rs", ".py", ".go", ".css", ".svelte", ".vue"}
	}
	seen := make(map[string]bool)
	var out []string
	for _, h := range hints {
		for _, ext := range defaultExtensionsByStack[h] {
			if !seen[ext] {
				seen[ext] = true
				out = append(out, ext)
			}
		}
	}
	// css/svelte/vue are always considered regardless of stack, since the
	// parsers for them are cheap and language-agnostic.
	for _, ext := range []string{".css", ".svelte", ".vue"} {
		if !seen[ext] {
			seen[ext] = true
			out = append(out, ext)
		}
	}
	return out
}
