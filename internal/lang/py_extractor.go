package lang

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/loctree/loctree/internal/model"
)

// pyExtractor extracts import/export records from Python source. Imports
// nested under `if TYPE_CHECKING:` are flagged IsConditionalInactive since
// they only run under a static type checker, never at runtime. Dynamic
// imports via importlib.import_module(...) or __import__(...) are recorded
// with an unresolved specifier when the argument isn't a literal string.
// `__all__` assignments drive star re-export expansion in the graph builder.
type pyExtractor struct{}

func (e *pyExtractor) Extract(root *tree_sitter.Node, source []byte) ([]model.Import, []model.Export) {
	var imports []model.Import
	var exports []model.Export
	e.walk(root, source, false, &imports, &exports)
	return imports, exports
}

func (e *pyExtractor) walk(node *tree_sitter.Node, source []byte, underTypeChecking bool, imports *[]model.Import, exports *[]model.Export) {
	switch node.Kind() {
	case "function_definition":
		if isPyTopLevel(node) {
			e.appendNamed(node, source, model.ExportFunction, exports)
		}
	case "class_definition":
		if isPyTopLevel(node) {
			e.appendNamed(node, source, model.ExportClass, exports)
		}
	case "import_statement":
		for i := uint(0); i < node.ChildCount(); i++ {
			if child := node.Child(i); child != nil && child.Kind() == "dotted_name" {
				*imports = append(*imports, model.Import{
					Specifier:             child.Utf8Text(source),
					ResolutionKind:        model.ResolvedNone,
					Kind:                  model.ImportStatic,
					IsConditionalInactive: underTypeChecking,
					Line:                  int(node.StartPosition().Row) + 1,
				})
			}
		}
	case "import_from_statement":
		if imp := e.extractFromImport(node, source, underTypeChecking); imp != nil {
			*imports = append(*imports, *imp)
		}
	case "call":
		if imp := e.extractDynamicImport(node, source); imp != nil {
			*imports = append(*imports, *imp)
		}
	case "assignment":
		e.extractDunderAll(node, source, exports)
	case "if_statement":
		if isTypeCheckingGuard(node, source) {
			if consequence := node.ChildByFieldName("consequence"); consequence != nil {
				e.walkChildren(consequence, source, true, imports, exports)
				return
			}
		}
	}

	e.walkChildren(node, source, underTypeChecking, imports, exports)
}

func (e *pyExtractor) walkChildren(node *tree_sitter.Node, source []byte, underTypeChecking bool, imports *[]model.Import, exports *[]model.Export) {
	for i := uint(0); i < node.ChildCount(); i++ {
		if child := node.Child(i); child != nil {
			e.walk(child, source, underTypeChecking, imports, exports)
		}
	}
}

func (e *pyExtractor) appendNamed(node *tree_sitter.Node, source []byte, kind model.ExportKind, exports *[]model.Export) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nameNode.Utf8Text(source)
	if strings.HasPrefix(name, "_") {
		return
	}
	*exports = append(*exports, model.Export{
		Name:       name,
		Kind:       kind,
		ExportForm: model.FormNamed,
		Line:       int(node.StartPosition().Row) + 1,
	})
}

func (e *pyExtractor) extractFromImport(node *tree_sitter.Node, source []byte, underTypeChecking bool) *model.Import {
	moduleNode := node.ChildByFieldName("module_name")
	if moduleNode == nil {
		for i := uint(0); i < node.ChildCount(); i++ {
			if c := node.Child(i); c != nil && c.Kind() == "dotted_name" {
				moduleNode = c
				break
			}
		}
	}
	if moduleNode == nil {
		return nil
	}
	module := moduleNode.Utf8Text(source)
	if module == "" {
		return nil
	}

	var names []string
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		if child.Kind() == "wildcard_import" {
			names = append(names, "*")
		}
		if child.Kind() == "dotted_name" && child != moduleNode {
			names = append(names, child.Utf8Text(source))
		}
		if child.Kind() == "aliased_import" {
			if n := child.ChildByFieldName("name"); n != nil {
				names = append(names, n.Utf8Text(source))
			}
		}
	}

	// `from x import *` pulls x's public surface into this module, which
	// makes it available for further re-export the same way a TS
	// `export * from` does — record it as a re_export import so the graph
	// builder expands the target's (or its `__all__`'s) names against this
	// file too, not only against x itself.
	kind := model.ImportStatic
	for _, n := range names {
		if n == "*" {
			kind = model.ImportReExport
			break
		}
	}

	return &model.Import{
		Specifier:             module,
		ResolutionKind:        model.ResolvedNone,
		Kind:                  kind,
		IsConditionalInactive: underTypeChecking,
		ImportedNames:         names,
		Line:                  int(node.StartPosition().Row) + 1,
	}
}

// extractDynamicImport recognizes importlib.import_module("x") and
// __import__("x"); a non-literal argument yields an unresolved, dynamic
// import so the resolver still records that *something* was imported there.
func (e *pyExtractor) extractDynamicImport(node *tree_sitter.Node, source []byte) *model.Import {
	fnNode := node.ChildByFieldName("function")
	if fnNode == nil {
		return nil
	}
	text := fnNode.Utf8Text(source)
	if text != "importlib.import_module" && text != "__import__" {
		return nil
	}

	args := node.ChildByFieldName("arguments")
	specifier := ""
	if args != nil {
		for i := uint(0); i < args.ChildCount(); i++ {
			if c := args.Child(i); c != nil && c.Kind() == "string" {
				specifier = unquote(c.Utf8Text(source))
				break
			}
		}
	}

	return &model.Import{
		Specifier:      specifier,
		ResolutionKind: model.ResolvedNone,
		Kind:           model.ImportDynamic,
		IsDynamic:      true,
		Line:           int(node.StartPosition().Row) + 1,
	}
}

// extractDunderAll records `__all__ = [...]` as a single star-re-export-form
// entry (names comma-joined in FromSpecifier) so the graph builder can expand star re-exports against it instead
// of against every top-level name.
func (e *pyExtractor) extractDunderAll(node *tree_sitter.Node, source []byte, exports *[]model.Export) {
	left := node.ChildByFieldName("left")
	if left == nil || left.Utf8Text(source) != "__all__" {
		return
	}
	right := node.ChildByFieldName("right")
	if right == nil {
		return
	}
	var names []string
	for i := uint(0); i < right.ChildCount(); i++ {
		c := right.Child(i)
		if c != nil && c.Kind() == "string" {
			names = append(names, unquote(c.Utf8Text(source)))
		}
	}
	*exports = append(*exports, model.Export{
		Name:          "__all__",
		Kind:          model.ExportOther,
		ExportForm:    model.FormStarRe,
		FromSpecifier: strings.Join(names, ","),
		Line:          int(node.StartPosition().Row) + 1,
	})
}

func isTypeCheckingGuard(node *tree_sitter.Node, source []byte) bool {
	cond := node.ChildByFieldName("condition")
	if cond == nil {
		return false
	}
	text := cond.Utf8Text(source)
	return text == "TYPE_CHECKING" || text == "typing.TYPE_CHECKING"
}

func isPyTopLevel(node *tree_sitter.Node) bool {
	parent := node.Parent()
	if parent == nil {
		return false
	}
	if parent.Kind() == "module" {
		return true
	}
	if parent.Kind() == "decorated_definition" {
		gp := parent.Parent()
		return gp != nil && gp.Kind() == "module"
	}
	return false
}
