// Package lang extracts imports and exports from a single source file's
// text. Each supported language has its own extractor; CSS, Svelte, and Vue
// are handled with lightweight textual extraction since no tree-sitter
// grammar for them was available, while Go, TypeScript/TSX/JS/JSX, Python,
// and Rust are parsed with tree-sitter grammars.
package lang

import (
	"bytes"
	"fmt"
	"path/filepath"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/loctree/loctree/internal/model"
)

// Result is what a single file parse contributes to the file record: the
// extracted imports/exports plus any warnings (a parse error downgrades to
// a warning and an empty result rather than failing the whole scan).
type Result struct {
	Imports       []model.Import
	Exports       []model.Export
	LocalTypeRefs []string
	LOC           int
	IsEntry       bool
	Warnings      []string
}

// extractor extracts imports and exports from a tree-sitter AST.
type extractor interface {
	Extract(root *tree_sitter.Node, source []byte) ([]model.Import, []model.Export)
}

// localTypeScanner is an optional extension an extractor can implement to
// report type names referenced within the file's own body (e.g. a Rust
// struct field's declared type) — usage that never shows up as an Import
// since it's same-file, but that dead-export analysis still needs to treat
// as a local use. Extractors that don't implement it contribute none.
type localTypeScanner interface {
	LocalTypeRefs(root *tree_sitter.Node, source []byte) []string
}

var tsLanguages = map[model.Language]func() *tree_sitter.Language{
	model.LangGo: func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_go.Language()) },
	model.LangTS: func() *tree_sitter.Language {
		return tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
	},
	model.LangTSX: func() *tree_sitter.Language {
		return tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTSX())
	},
	model.LangJS:     func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()) },
	model.LangJSX:    func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTSX()) },
	model.LangPython: func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_python.Language()) },
	model.LangRust:   func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_rust.Language()) },
}

var extractors = map[model.Language]extractor{
	model.LangGo:     &goExtractor{},
	model.LangTS:     &tsExtractor{},
	model.LangTSX:    &tsExtractor{},
	model.LangJS:     &tsExtractor{},
	model.LangJSX:    &tsExtractor{},
	model.LangPython: &pyExtractor{},
	model.LangRust:   &rsExtractor{},
}

// Parse extracts imports and exports from source according to lang. A
// tree-sitter parse failure is not returned as an error: the caller gets an
// empty Result carrying a warning, per the parse-error failure semantics
// (the file is retained with empty imports/exports rather than dropped).
func Parse(path string, source []byte, language model.Language) Result {
	switch language {
	case model.LangCSS:
		return parseCSS(source)
	case model.LangSvelte:
		return parseSvelte(path, source)
	case model.LangVue:
		return parseVue(path, source)
	}

	newLang, ok := tsLanguages[language]
	if !ok {
		return Result{LOC: countLOC(source)}
	}
	ext, ok := extractors[language]
	if !ok {
		return Result{LOC: countLOC(source)}
	}

	parser := tree_sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(newLang()); err != nil {
		return Result{LOC: countLOC(source), Warnings: []string{fmt.Sprintf("set language: %v", err)}}
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return Result{LOC: countLOC(source), Warnings: []string{"tree-sitter returned no tree"}}
	}
	defer tree.Close()

	imports, exports := ext.Extract(tree.RootNode(), source)
	var localTypeRefs []string
	if scanner, ok := ext.(localTypeScanner); ok {
		localTypeRefs = scanner.LocalTypeRefs(tree.RootNode(), source)
	}
	return Result{
		Imports:       imports,
		Exports:       exports,
		LocalTypeRefs: localTypeRefs,
		LOC:           countLOC(source),
		IsEntry:       detectEntry(path, language, source),
	}
}

// detectEntry applies the per-language entry markers spec.md §4.2 names.
// TypeScript/JavaScript and Go carry no explicit marker in the spec beyond
// the registered-handler rule C5 applies separately, so they default to
// false here.
func detectEntry(path string, language model.Language, source []byte) bool {
	switch language {
	case model.LangPython:
		if filepath.Base(path) == "__main__.py" {
			return true
		}
		return bytes.Contains(source, []byte(`__name__ == "__main__"`)) ||
			bytes.Contains(source, []byte(`__name__ == '__main__'`))
	case model.LangRust:
		return bytes.Contains(source, []byte("fn main(")) ||
			bytes.Contains(source, []byte("#[tokio::main]")) ||
			bytes.Contains(source, []byte("#[async_std::main]"))
	default:
		return false
	}
}

func countLOC(source []byte) int {
	if len(source) == 0 {
		return 0
	}
	n := 1
	for _, b := range source {
		if b == '\n' {
			n++
		}
	}
	return n
}
