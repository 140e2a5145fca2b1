// Package scan implements the path discovery and ignore engine (the first
// stage of the scan pipeline): it walks the configured roots, classifies
// each candidate file by language and kind, and excludes everything the
// project's ignore rules and stack defaults rule out.
package scan

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-enry/go-enry/v2"

	"github.com/loctree/loctree/internal/config"
	"github.com/loctree/loctree/internal/model"
	"github.com/loctree/loctree/internal/scanerr"
)

// Entry is one discovered file, ordered deterministically by RelPath.
type Entry struct {
	AbsPath     string
	RelPath     string
	Root        string
	Language    model.Language
	Kind        model.FileKind
	MTimeMillis int64
}

var extensionLanguages = map[string]model.Language{
	".ts":     model.LangTS,
	".tsx":    model.LangTSX,
	".js":     model.LangJS,
	".mjs":    model.LangJS,
	".cjs":    model.LangJS,
	".jsx":    model.LangJSX,
	".rs":     model.LangRust,
	".py":     model.LangPython,
	".pyi":    model.LangPython,
	".go":     model.LangGo,
	".css":    model.LangCSS,
	".svelte": model.LangSvelte,
	".vue":    model.LangVue,
}

var testPathMarkers = []string{
	"_test.go", ".test.ts", ".test.tsx", ".test.js", ".test.jsx",
	".spec.ts", ".spec.tsx", ".spec.js", ".spec.jsx",
	"_test.py", "test_",
}

// Walk discovers files under roots according to cfg, returning deterministic
// entries sorted by RelPath and any non-fatal warnings collected along the
// way (unreadable files, permission errors on subtrees).
func Walk(roots []string, cfg *config.ProjectConfig) ([]Entry, []model.Warning, error) {
	if cfg == nil {
		cfg = &config.ProjectConfig{}
	}

	var allEntries []Entry
	var warnings []model.Warning

	for _, root := range roots {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return nil, nil, scanerr.IO(root, err)
		}

		hints, stackIgnores := DetectStacks(absRoot)
		if cfg.StackHint != "" {
			hints = []config.StackHint{cfg.StackHint}
		}

		extensions := cfg.Extensions
		if len(extensions) == 0 {
			extensions = DefaultExtensions(hints)
		}
		extSet := make(map[string]bool, len(extensions))
		for _, e := range extensions {
			extSet[e] = true
		}

		matcher := newIgnoreMatcher()
		if !cfg.IncludeIgnored {
			matcher.addPatterns(stackIgnores)
			matcher.addPatterns(cfg.IgnorePatterns)
			loadGitignore(matcher, absRoot)
		}

		entries, subWarnings := walkRoot(absRoot, extSet, matcher, cfg.IncludeHidden)
		allEntries = append(allEntries, entries...)
		warnings = append(warnings, subWarnings...)
	}

	// A path present under several roots is kept from the first root only;
	// the stable sort keeps entries of equal RelPath in root order.
	sort.SliceStable(allEntries, func(i, j int) bool { return allEntries[i].RelPath < allEntries[j].RelPath })
	deduped := allEntries[:0]
	for _, e := range allEntries {
		if n := len(deduped); n > 0 && deduped[n-1].RelPath == e.RelPath {
			continue
		}
		deduped = append(deduped, e)
	}
	return deduped, warnings, nil
}

func loadGitignore(m *ignoreMatcher, root string) {
	data, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return
	}
	m.addPatterns(strings.Split(string(data), "\n"))
}

func walkRoot(root string, extSet map[string]bool, matcher *ignoreMatcher, includeHidden bool) ([]Entry, []model.Warning) {
	var entries []Entry
	var warnings []model.Warning

	var visit func(dir string) error
	visit = func(dir string) error {
		items, err := os.ReadDir(dir)
		if err != nil {
			rel, _ := filepath.Rel(root, dir)
			warnings = append(warnings, model.Warning{
				File:    rel,
				Message: "cannot read directory: " + err.Error(),
				Kind:    string(scanerr.KindIO),
			})
			return nil // stop this subtree, not the whole scan
		}

		for _, item := range items {
			name := item.Name()
			if !includeHidden && strings.HasPrefix(name, ".") {
				continue
			}
			full := filepath.Join(dir, name)
			rel, _ := filepath.Rel(root, full)
			rel = filepath.ToSlash(rel)

			if item.IsDir() {
				if matcher.match(rel, true) {
					continue
				}
				if err := visit(full); err != nil {
					return err
				}
				continue
			}

			if matcher.match(rel, false) {
				continue
			}

			ext := strings.ToLower(filepath.Ext(name))
			if !extSet[ext] {
				continue
			}

			info, err := item.Info()
			if err != nil {
				warnings = append(warnings, model.Warning{
					File:    rel,
					Message: "cannot stat file: " + err.Error(),
					Kind:    string(scanerr.KindIO),
				})
				continue
			}

			entries = append(entries, Entry{
				AbsPath:     full,
				RelPath:     rel,
				Root:        root,
				Language:    classifyLanguage(name, ext),
				Kind:        classifyKind(rel, name),
				MTimeMillis: info.ModTime().UnixMilli(),
			})
		}
		return nil
	}

	_ = visit(root)
	return entries, warnings
}

func classifyLanguage(name, ext string) model.Language {
	if lang, ok := extensionLanguages[ext]; ok {
		return lang
	}
	if enryLang, safe := enry.GetLanguageByExtension(name); safe && enryLang != "" {
		return model.LangOther
	}
	return model.LangOther
}

func classifyKind(relPath, name string) model.FileKind {
	lower := strings.ToLower(relPath)
	for _, marker := range testPathMarkers {
		if strings.Contains(lower, marker) {
			return model.KindTest
		}
	}
	if strings.Contains(lower, "/__tests__/") || strings.HasPrefix(lower, "__tests__/") ||
		strings.Contains(lower, "/tests/") || strings.HasPrefix(lower, "tests/") {
		return model.KindTest
	}
	if enry.IsConfiguration(name) || enry.IsVendor(name) {
		return model.KindConfig
	}
	if isGeneratedPath(lower) {
		return model.KindGenerated
	}
	return model.KindCode
}

var generatedPathMarkers = []string{
	".pb.go", ".gen.go", "_generated.", ".g.ts", ".d.ts",
}

func isGeneratedPath(lower string) bool {
	for _, marker := range generatedPathMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
