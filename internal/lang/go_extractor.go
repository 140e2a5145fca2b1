package lang

import (
	"strings"
	"unicode"
	"unicode/utf8"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/loctree/loctree/internal/model"
)

// goExtractor walks a Go source file's import block and top-level
// declarations: import_spec nodes become Import records, and exported
// (capitalized) top-level identifiers become Export records.
type goExtractor struct{}

func (e *goExtractor) Extract(root *tree_sitter.Node, source []byte) ([]model.Import, []model.Export) {
	var imports []model.Import
	var exports []model.Export

	cursor := root.Walk()
	defer cursor.Close()
	e.walk(cursor, source, &imports, &exports)
	return imports, exports
}

func (e *goExtractor) walk(cursor *tree_sitter.TreeCursor, source []byte, imports *[]model.Import, exports *[]model.Export) {
	node := cursor.Node()

	switch node.Kind() {
	case "import_spec":
		if imp := e.extractImport(node, source); imp != nil {
			*imports = append(*imports, *imp)
		}
	case "function_declaration":
		if exp := e.extractNamed(node, source, model.ExportFunction); exp != nil {
			*exports = append(*exports, *exp)
		}
	case "type_declaration":
		for i := uint(0); i < node.ChildCount(); i++ {
			child := node.Child(i)
			if child == nil || child.Kind() != "type_spec" {
				continue
			}
			kind := model.ExportStruct
			if t := child.ChildByFieldName("type"); t != nil && t.Kind() == "interface_type" {
				kind = model.ExportInterface
			}
			if exp := e.extractNamed(child, source, kind); exp != nil {
				*exports = append(*exports, *exp)
			}
		}
	case "const_declaration", "var_declaration":
		for i := uint(0); i < node.ChildCount(); i++ {
			child := node.Child(i)
			if child == nil || child.Kind() != "const_spec" && child.Kind() != "var_spec" {
				continue
			}
			nameNode := child.ChildByFieldName("name")
			if nameNode == nil {
				continue
			}
			name := nameNode.Utf8Text(source)
			if !isGoExported(name) {
				continue
			}
			*exports = append(*exports, model.Export{
				Name:       name,
				Kind:       model.ExportConst,
				ExportForm: model.FormNamed,
				Line:       int(child.StartPosition().Row) + 1,
			})
		}
	}

	if cursor.GotoFirstChild() {
		e.walk(cursor, source, imports, exports)
		for cursor.GotoNextSibling() {
			e.walk(cursor, source, imports, exports)
		}
		cursor.GotoParent()
	}
}

func (e *goExtractor) extractNamed(node *tree_sitter.Node, source []byte, kind model.ExportKind) *model.Export {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nameNode.Utf8Text(source)
	if !isGoExported(name) {
		return nil
	}
	return &model.Export{
		Name:       name,
		Kind:       kind,
		ExportForm: model.FormNamed,
		Line:       int(node.StartPosition().Row) + 1,
	}
}

func (e *goExtractor) extractImport(node *tree_sitter.Node, source []byte) *model.Import {
	pathNode := node.ChildByFieldName("path")
	if pathNode == nil {
		for i := uint(0); i < node.ChildCount(); i++ {
			if c := node.Child(i); c != nil && c.Kind() == "interpreted_string_literal" {
				pathNode = c
				break
			}
		}
	}
	if pathNode == nil {
		return nil
	}
	path := strings.Trim(pathNode.Utf8Text(source), "\"")
	if path == "" {
		return nil
	}
	return &model.Import{
		Specifier:      path,
		ResolutionKind: model.ResolvedNone,
		Kind:           model.ImportStatic,
		Line:           int(node.StartPosition().Row) + 1,
	}
}

func isGoExported(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}
