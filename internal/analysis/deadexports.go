package analysis

import (
	"fmt"
	"sort"

	"github.com/loctree/loctree/internal/model"
)

// isReExportedThroughBarrel reports whether any re-export edge targets path;
// DetectDeadExports uses it only for confidence classification.
func isReExportedThroughBarrel(path string, edges []model.Edge) bool {
	for _, e := range edges {
		if e.To == path && e.Label == model.EdgeReExport {
			return true
		}
	}
	return false
}

// DetectDeadExports reports every export with no recorded use from another
// file. It skips exports of entry files and generated files, ambient and
// star re-export records, exports marked DynamicallyUsed (registered
// handlers), exports used in their own file, names an importer lists in
// ImportedNames (including lazy-import member accesses), and exports
// reached through a re-export chain from an entry file. Library
// public-surface roots (package exports maps, `__all__`) and sys.modules
// assignments are not recognized as uses.
func DetectDeadExports(files []model.File, edges []model.Edge) []model.Finding {
	usedSymbols := buildUsedSymbolIndex(files)
	byPath := make(map[string]*model.File, len(files))
	for i := range files {
		byPath[files[i].Path] = &files[i]
	}

	var findings []model.Finding
	for i := range files {
		f := &files[i]
		if f.Kind == model.KindGenerated {
			continue
		}
		for _, exp := range f.Exports {
			if exp.ExportForm == model.FormAmbient || exp.ExportForm == model.FormStarRe {
				continue
			}
			if usedSymbols[usedKey(f.Path, exp.Name)] {
				continue
			}
			if isReachable(f, exp, byPath, edges) {
				continue
			}

			confidence := model.ConfidenceLow
			if !isReExportedThroughBarrel(f.Path, edges) && exp.ExportForm == model.FormNamed &&
				(exp.Kind == model.ExportFunction || exp.Kind == model.ExportClass || exp.Kind == model.ExportConst || exp.Kind == model.ExportTypeAlias) {
				confidence = model.ConfidenceHigh
			}

			findings = append(findings, model.Finding{
				Kind:     model.FindingDeadExport,
				Severity: model.SeverityWarning,
				Files:    []string{f.Path},
				Message:  fmt.Sprintf("export %q is never imported elsewhere", exp.Name),
				Evidence: model.DeadExportEvidence{Name: exp.Name, Line: exp.Line, Confidence: confidence},
			})
		}
	}

	sort.Slice(findings, func(i, j int) bool {
		if findings[i].Files[0] != findings[j].Files[0] {
			return findings[i].Files[0] < findings[j].Files[0]
		}
		ei := findings[i].Evidence.(model.DeadExportEvidence)
		ej := findings[j].Evidence.(model.DeadExportEvidence)
		return ei.Line < ej.Line
	})
	return findings
}

func usedKey(file, name string) string { return file + "#" + name }

// buildUsedSymbolIndex marks (file, name) pairs reached by a resolved
// import elsewhere, a re-export edge, or an explicit ImportedNames entry
// recorded against the file the name was exported from. Imports inside an
// inactive conditional (Python `if TYPE_CHECKING:`) do not count as uses.
func buildUsedSymbolIndex(files []model.File) map[string]bool {
	used := make(map[string]bool)
	for _, f := range files {
		for _, imp := range f.Imports {
			if imp.ResolutionKind != model.ResolvedFile || imp.IsConditionalInactive {
				continue
			}
			if len(imp.ImportedNames) == 0 {
				// side-effect or default import: mark the whole target file used
				// via a sentinel so default exports aren't flagged spuriously.
				used[usedKey(imp.ResolvedPath, "default")] = true
				continue
			}
			for _, name := range imp.ImportedNames {
				used[usedKey(imp.ResolvedPath, name)] = true
			}
		}
	}
	return used
}

func isReachable(f *model.File, exp model.Export, byPath map[string]*model.File, edges []model.Edge) bool {
	if f.IsEntry {
		return true
	}
	if exp.DynamicallyUsed {
		return true
	}
	if referencedLocally(f, exp.Name) {
		return true
	}
	if isExposedByTransitiveStarReExport(f.Path, exp.Name, byPath, edges, map[string]bool{}) {
		return true
	}
	return false
}

// referencedLocally reports a same-file use the parser flagged directly: a
// FormDynamic export (set for Tauri handlers) or a name collected into
// LocalTypeRefs — a Rust `pub struct`/`enum` used only as another item's
// field type (e.g. `buf: Vec<Item>` referencing `Item`) is reachable the
// same way a dynamic use is, even though no cross-file Import ever touches
// it. ImportedNames self-references are covered separately by
// buildUsedSymbolIndex.
func referencedLocally(f *model.File, name string) bool {
	for _, exp := range f.Exports {
		if exp.Name == name && exp.ExportForm == model.FormDynamic {
			return true
		}
	}
	for _, ref := range f.LocalTypeRefs {
		if ref == name {
			return true
		}
	}
	return false
}

func isExposedByTransitiveStarReExport(path, name string, byPath map[string]*model.File, edges []model.Edge, seen map[string]bool) bool {
	if seen[path] {
		return false
	}
	seen[path] = true
	for _, e := range edges {
		if e.To != path || e.Label != model.EdgeReExport {
			continue
		}
		from, ok := byPath[e.From]
		if !ok {
			continue
		}
		if from.IsEntry {
			return true
		}
		for _, exp := range from.Exports {
			if exp.ExportForm == model.FormStarRe && exp.FromSpecifier == path {
				return true
			}
		}
		if isExposedByTransitiveStarReExport(e.From, name, byPath, edges, seen) {
			return true
		}
	}
	return false
}
