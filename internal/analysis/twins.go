package analysis

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/loctree/loctree/internal/model"
)

// frameworkConventionNames are common entry-point/lifecycle names that
// legitimately recur across unrelated files in the same project (every
// package's `main`, every module's `setup`). A name collision is only
// reported as a twin when it isn't one of these, or when both definitions
// share a language (a same-language collision is more likely to be an
// actual accidental duplicate).
var frameworkConventionNames = map[string]bool{
	"main": true, "run": true, "setup": true, "default": true, "index": true,
}

// DetectTwins reports every symbol name bound in two or more files when at
// least one of the two duplicate-worthiness conditions holds: the files
// share a language, or the name isn't a recognized framework convention.
// Test files are excluded from consideration.
func DetectTwins(symbolIndex map[string][]model.SymbolRef, files []model.File) []model.Finding {
	languageOf := make(map[string]model.Language, len(files))
	kindOf := make(map[string]model.FileKind, len(files))
	for _, f := range files {
		languageOf[f.Path] = f.Language
		kindOf[f.Path] = f.Kind
	}

	var findings []model.Finding
	names := make([]string, 0, len(symbolIndex))
	for n := range symbolIndex {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, name := range names {
		if name == "" || name == "default" || name == "*" {
			continue
		}
		refs := symbolIndex[name]

		var distinct []model.SymbolRef
		seen := map[string]bool{}
		for _, r := range refs {
			if kindOf[r.File] == model.KindTest {
				continue
			}
			key := r.File
			if seen[key] {
				continue
			}
			seen[key] = true
			distinct = append(distinct, r)
		}
		if len(distinct) < 2 {
			continue
		}

		sameLanguage := true
		first := languageOf[distinct[0].File]
		for _, r := range distinct[1:] {
			if languageOf[r.File] != first {
				sameLanguage = false
				break
			}
		}

		if !sameLanguage && frameworkConventionNames[name] {
			continue
		}

		var twinFiles []string
		for _, r := range distinct {
			twinFiles = append(twinFiles, r.File)
		}
		sort.Strings(twinFiles)

		findings = append(findings, model.Finding{
			Kind:     model.FindingTwin,
			Severity: model.SeverityWarning,
			Files:    twinFiles,
			Message:  fmt.Sprintf("symbol %q is defined in %d files", name, len(twinFiles)),
			Evidence: model.TwinEvidence{Name: name},
		})
	}

	return findings
}

// DetectOrphans reports files with zero inbound edges that are neither an
// entry, a test, nor generated.
func DetectOrphans(files []model.File, edges []model.Edge) []model.Finding {
	hasInbound := make(map[string]bool, len(files))
	for _, e := range edges {
		hasInbound[e.To] = true
	}

	var findings []model.Finding
	for _, f := range files {
		if hasInbound[f.Path] || f.IsEntry || f.Kind == model.KindTest || f.Kind == model.KindGenerated {
			continue
		}
		findings = append(findings, model.Finding{
			Kind:     model.FindingOrphan,
			Severity: model.SeverityWarning,
			Files:    []string{f.Path},
			Message:  fmt.Sprintf("%s has no inbound references", f.Path),
		})
	}
	sort.Slice(findings, func(i, j int) bool { return findings[i].Files[0] < findings[j].Files[0] })
	return findings
}

// DetectBarrelChaos reports directories with ≥2 files that each have
// inbound edges from outside the directory but no index.* aggregator, and
// re-export chains of length >2 passing through three or more index files.
func DetectBarrelChaos(files []model.File, edges []model.Edge) []model.Finding {
	byDir := make(map[string][]string)
	hasIndex := make(map[string]bool)
	for _, f := range files {
		dir := filepath.Dir(f.Path)
		byDir[dir] = append(byDir[dir], f.Path)
		if strings.HasPrefix(filepath.Base(f.Path), "index.") {
			hasIndex[dir] = true
		}
	}

	externalInbound := make(map[string]int)
	for _, e := range edges {
		fromDir := filepath.Dir(e.From)
		toDir := filepath.Dir(e.To)
		if fromDir != toDir {
			externalInbound[e.To]++
		}
	}

	var findings []model.Finding
	dirs := make([]string, 0, len(byDir))
	for d := range byDir {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)

	for _, dir := range dirs {
		if hasIndex[dir] {
			continue
		}
		var withExternalInbound []string
		for _, p := range byDir[dir] {
			if externalInbound[p] > 0 {
				withExternalInbound = append(withExternalInbound, p)
			}
		}
		if len(withExternalInbound) < 2 {
			continue
		}
		sort.Strings(withExternalInbound)
		findings = append(findings, model.Finding{
			Kind:     model.FindingBarrelChaos,
			Severity: model.SeverityWarning,
			Files:    withExternalInbound,
			Message:  fmt.Sprintf("directory %s has %d externally-imported files and no barrel", dir, len(withExternalInbound)),
		})
	}

	findings = append(findings, detectDeepReExportChains(files, edges)...)
	return findings
}

// detectDeepReExportChains walks the re-export subgraph looking for a path
// of length >2 through three or more index files.
func detectDeepReExportChains(files []model.File, edges []model.Edge) []model.Finding {
	reExportsFrom := make(map[string][]string)
	for _, e := range edges {
		if e.Label == model.EdgeReExport {
			reExportsFrom[e.From] = append(reExportsFrom[e.From], e.To)
		}
	}
	isIndex := func(p string) bool { return strings.HasPrefix(filepath.Base(p), "index.") }

	var findings []model.Finding
	var starts []string
	for _, f := range files {
		if isIndex(f.Path) {
			starts = append(starts, f.Path)
		}
	}
	sort.Strings(starts)

	for _, start := range starts {
		path := []string{start}
		visited := map[string]bool{start: true}
		current := start
		indexCount := 1
		for {
			next := reExportsFrom[current]
			if len(next) == 0 {
				break
			}
			sort.Strings(next)
			n := next[0]
			if visited[n] {
				break
			}
			visited[n] = true
			path = append(path, n)
			current = n
			if isIndex(n) {
				indexCount++
			}
			if len(path) > len(files) {
				break
			}
		}
		if len(path) > 2 && indexCount >= 3 {
			findings = append(findings, model.Finding{
				Kind:     model.FindingBarrelChaos,
				Severity: model.SeverityWarning,
				Files:    path,
				Message:  fmt.Sprintf("re-export chain of length %d passes through %d barrels", len(path), indexCount),
			})
		}
	}
	return findings
}
