package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/loctree/loctree/internal/model"
)

func TestBuild_SimpleImportEdge(t *testing.T) {
	files := []model.File{
		{
			Path: "a.ts",
			Imports: []model.Import{
				{Specifier: "./b", ResolutionKind: model.ResolvedFile, ResolvedPath: "b.ts", Line: 1},
			},
		},
		{
			Path: "b.ts",
			Exports: []model.Export{
				{Name: "widget", Kind: model.ExportFunction, ExportForm: model.FormNamed, Line: 1},
			},
		},
	}

	edges, symbolIndex := NewBuilder(files).Build()

	assert.Equal(t, []model.Edge{{From: "a.ts", To: "b.ts", Label: model.EdgeImport, SourceLine: 1}}, edges)
	assert.Contains(t, symbolIndex, "widget")
	assert.Equal(t, "b.ts", symbolIndex["widget"][0].File)
}

func TestBuild_UnresolvedImportProducesNoEdge(t *testing.T) {
	files := []model.File{
		{
			Path: "a.ts",
			Imports: []model.Import{
				{Specifier: "left-pad", ResolutionKind: model.ResolvedExternal, Line: 1},
			},
		},
	}
	edges, _ := NewBuilder(files).Build()
	assert.Empty(t, edges)
}

func TestBuild_StarReExportExpandsTargetExports(t *testing.T) {
	files := []model.File{
		{
			Path: "index.ts",
			Imports: []model.Import{
				{
					Specifier:      "./sub",
					ResolutionKind: model.ResolvedFile,
					ResolvedPath:   "sub.ts",
					Kind:           model.ImportReExport,
					ImportedNames:  []string{"*"},
					Line:           1,
				},
			},
			Exports: []model.Export{
				{Name: "*", ExportForm: model.FormStarRe, FromSpecifier: "./sub", Line: 1},
			},
		},
		{
			Path: "sub.ts",
			Exports: []model.Export{
				{Name: "helper", Kind: model.ExportFunction, ExportForm: model.FormNamed, Line: 1},
			},
		},
	}

	edges, symbolIndex := NewBuilder(files).Build()

	assert.Contains(t, edges, model.Edge{From: "index.ts", To: "sub.ts", Label: model.EdgeReExport, SourceLine: 1})
	assert.Len(t, symbolIndex["helper"], 2)
}

func TestBuild_PythonAllListIndexesEachName(t *testing.T) {
	files := []model.File{
		{
			Path: "pkg/__init__.py",
			Exports: []model.Export{
				{Name: "__all__", ExportForm: model.FormStarRe, FromSpecifier: "foo,bar", Line: 3},
			},
		},
	}

	_, symbolIndex := NewBuilder(files).Build()

	assert.Contains(t, symbolIndex, "foo")
	assert.Contains(t, symbolIndex, "bar")
}

// TestBuild_PythonWildcardImportCrossesDunderAll exercises spec §8.6: a
// package's __init__.py does `from .inner import *`, and inner.py declares
// `__all__ = ["F"]`. A lookup for F must surface both inner.py (where it's
// defined) and __init__.py (which re-exports it through the wildcard
// import), not inner.py alone.
func TestBuild_PythonWildcardImportCrossesDunderAll(t *testing.T) {
	files := []model.File{
		{
			Path: "pkg/__init__.py",
			Imports: []model.Import{
				{
					Specifier:      "pkg.inner",
					ResolutionKind: model.ResolvedFile,
					ResolvedPath:   "pkg/inner.py",
					Kind:           model.ImportReExport,
					ImportedNames:  []string{"*"},
					Line:           1,
				},
			},
		},
		{
			Path: "pkg/inner.py",
			Exports: []model.Export{
				{Name: "F", Kind: model.ExportFunction, ExportForm: model.FormNamed, Line: 1},
				{Name: "__all__", ExportForm: model.FormStarRe, FromSpecifier: "F", Line: 2},
			},
		},
	}

	edges, symbolIndex := NewBuilder(files).Build()

	assert.Contains(t, edges, model.Edge{From: "pkg/__init__.py", To: "pkg/inner.py", Label: model.EdgeReExport, SourceLine: 1})
	require_files := make([]string, 0, len(symbolIndex["F"]))
	for _, ref := range symbolIndex["F"] {
		require_files = append(require_files, ref.File)
	}
	assert.ElementsMatch(t, []string{"pkg/inner.py", "pkg/__init__.py"}, require_files)
}

func TestBuild_ReExportEdgeLabel(t *testing.T) {
	files := []model.File{
		{
			Path: "a.ts",
			Imports: []model.Import{
				{
					Specifier:      "./b",
					ResolutionKind: model.ResolvedFile,
					ResolvedPath:   "b.ts",
					Kind:           model.ImportReExport,
					ImportedNames:  []string{"thing"},
					Line:           2,
				},
			},
			Exports: []model.Export{
				{Name: "thing", ExportForm: model.FormReExport, FromSpecifier: "./b", Line: 2},
			},
		},
		{Path: "b.ts"},
	}

	edges, _ := NewBuilder(files).Build()
	assert.Contains(t, edges, model.Edge{From: "a.ts", To: "b.ts", Label: model.EdgeReExport, SourceLine: 2})
}

func TestBuild_DeterministicOrdering(t *testing.T) {
	files := []model.File{
		{
			Path: "z.ts",
			Imports: []model.Import{
				{Specifier: "./a", ResolutionKind: model.ResolvedFile, ResolvedPath: "a.ts", Line: 1},
				{Specifier: "./m", ResolutionKind: model.ResolvedFile, ResolvedPath: "m.ts", Line: 2},
			},
		},
		{Path: "a.ts"},
		{Path: "m.ts"},
	}

	edges1, _ := NewBuilder(files).Build()
	edges2, _ := NewBuilder(files).Build()
	assert.Equal(t, edges1, edges2)
	assert.Equal(t, "a.ts", edges1[0].To)
	assert.Equal(t, "m.ts", edges1[1].To)
}
