// Package graph assembles per-file parse results into the cross-file
// import/export graph: edges between files and the symbol index exports
// are looked up through.
package graph

import (
	"sort"
	"strings"

	"github.com/loctree/loctree/internal/model"
)

// Builder assembles a Snapshot's Edges and SymbolIndex from a set of
// already-parsed and already-resolved Files. It runs single-threaded after
// every file has been parsed, since edge synthesis needs the complete file
// set to expand star re-exports and `__all__` lists.
type Builder struct {
	files []model.File
}

func NewBuilder(files []model.File) *Builder {
	return &Builder{files: files}
}

// Build returns the edges and symbol index derived from the builder's
// files, in deterministic order. Every re_export edge (TS `export ... from`,
// Python `from x import *`) is driven entirely from the Imports side: the
// parsers record a companion Import alongside any re-exporting Export so
// the resolver (which only walks file.Imports) actually resolves the
// specifier, and so a single pass over resolved imports produces every
// edge without risking the export side double-adding it.
func (b *Builder) Build() ([]model.Edge, map[string][]model.SymbolRef) {
	byPath := make(map[string]*model.File, len(b.files))
	for i := range b.files {
		byPath[b.files[i].Path] = &b.files[i]
	}

	var edges []model.Edge
	symbolIndex := make(map[string][]model.SymbolRef)

	for i := range b.files {
		f := &b.files[i]
		for _, imp := range f.Imports {
			if imp.ResolutionKind != model.ResolvedFile {
				continue
			}
			label := model.EdgeImport
			switch imp.Kind {
			case model.ImportReExport:
				label = model.EdgeReExport
			case model.ImportDynamic:
				label = model.EdgeDynamicImport
			}
			edges = append(edges, model.Edge{
				From:       f.Path,
				To:         imp.ResolvedPath,
				Label:      label,
				SourceLine: imp.Line,
			})

			if imp.Kind == model.ImportReExport && isWildcardImport(imp) {
				b.expandWildcardImport(f, imp, byPath, symbolIndex)
			}
		}

		for _, exp := range f.Exports {
			if exp.ExportForm == model.FormStarRe {
				if exp.Name == "__all__" {
					b.expandDunderAll(f, exp, symbolIndex)
				}
				continue
			}
			symbolIndex[exp.Name] = append(symbolIndex[exp.Name], model.SymbolRef{File: f.Path, Export: exp})
		}
	}

	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		if edges[i].To != edges[j].To {
			return edges[i].To < edges[j].To
		}
		return edges[i].Label < edges[j].Label
	})
	for name := range symbolIndex {
		refs := symbolIndex[name]
		sort.Slice(refs, func(i, j int) bool { return refs[i].File < refs[j].File })
		symbolIndex[name] = refs
	}

	return edges, symbolIndex
}

// isWildcardImport reports whether imp is a `export * from`/`from x import
// *` style import, the only kind whose target exports need expanding into
// the importing file's own symbol index.
func isWildcardImport(imp model.Import) bool {
	return len(imp.ImportedNames) == 1 && imp.ImportedNames[0] == "*"
}

// expandDunderAll indexes a Python module's own `__all__` list against the
// declaring file f itself: FromSpecifier holds the comma-joined name list
// directly rather than a module path. Names f already exports itself are
// skipped, since the main export loop indexes those.
func (b *Builder) expandDunderAll(f *model.File, exp model.Export, symbolIndex map[string][]model.SymbolRef) {
	direct := make(map[string]bool, len(f.Exports))
	for _, e := range f.Exports {
		if e.ExportForm != model.FormStarRe {
			direct[e.Name] = true
		}
	}
	for _, name := range strings.Split(exp.FromSpecifier, ",") {
		if name == "" || direct[name] {
			continue
		}
		symbolIndex[name] = append(symbolIndex[name], model.SymbolRef{
			File:   f.Path,
			Export: model.Export{Name: name, Kind: model.ExportOther, ExportForm: model.FormReExport, Line: exp.Line},
		})
	}
}

// expandWildcardImport resolves a star import's target and re-indexes its
// public surface against the importing file f, so a symbol reached only
// through a re-export chain (TS `export * from`, or Python `from x import
// *` pulling in x's own `__all__`) still surfaces f as one of its
// locations. If the target declares its own `__all__`, that list is
// authoritative; otherwise every named, non-default export is re-exposed.
func (b *Builder) expandWildcardImport(f *model.File, imp model.Import, byPath map[string]*model.File, symbolIndex map[string][]model.SymbolRef) {
	target, ok := byPath[imp.ResolvedPath]
	if !ok {
		return
	}
	for _, te := range target.Exports {
		if te.ExportForm == model.FormStarRe && te.Name == "__all__" {
			for _, name := range strings.Split(te.FromSpecifier, ",") {
				if name == "" {
					continue
				}
				symbolIndex[name] = append(symbolIndex[name], model.SymbolRef{
					File:   f.Path,
					Export: model.Export{Name: name, Kind: model.ExportOther, ExportForm: model.FormReExport, Line: imp.Line},
				})
			}
			return
		}
	}
	for _, te := range target.Exports {
		if te.ExportForm == model.FormStarRe || te.Name == "default" {
			continue
		}
		symbolIndex[te.Name] = append(symbolIndex[te.Name], model.SymbolRef{
			File:   f.Path,
			Export: model.Export{Name: te.Name, Kind: te.Kind, ExportForm: model.FormReExport, Line: imp.Line},
		})
	}
}
