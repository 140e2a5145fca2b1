package lang

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/loctree/loctree/internal/model"
)

// tsExtractor handles TypeScript, TSX, JavaScript, and JSX alike: the
// TSX/JSX grammar variant is selected by lang.go based on file extension,
// but the AST shapes this extractor cares about (import/export statements,
// dynamic import calls, declarations) are identical across all four.
type tsExtractor struct{}

func (e *tsExtractor) Extract(root *tree_sitter.Node, source []byte) ([]model.Import, []model.Export) {
	var imports []model.Import
	var exports []model.Export

	cursor := root.Walk()
	defer cursor.Close()
	e.walk(cursor, source, &imports, &exports)
	return imports, exports
}

func (e *tsExtractor) walk(cursor *tree_sitter.TreeCursor, source []byte, imports *[]model.Import, exports *[]model.Export) {
	node := cursor.Node()

	switch node.Kind() {
	case "import_statement":
		e.extractImportStatement(node, source, imports)

	case "export_statement":
		e.extractExportStatement(node, source, exports, imports)

	case "ambient_declaration":
		e.extractAmbient(node, source, exports)

	case "call_expression":
		if imp := e.extractDynamicImport(node, source); imp != nil {
			*imports = append(*imports, *imp)
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

func (e *tsExtractor) extractImportStatement(node *tree_sitter.Node, source []byte, imports *[]model.Import) {
	sourceNode := node.ChildByFieldName("source")
	if sourceNode == nil {
		sourceNode = firstChildOfKind(node, "string")
	}
	if sourceNode == nil {
		return
	}
	specifier := unquote(sourceNode.Utf8Text(source))
	if specifier == "" {
		return
	}

	text := node.Utf8Text(source)
	isTypeOnly := strings.HasPrefix(strings.TrimSpace(text), "import type")

	var names []string
	if clause := firstChildOfKind(node, "import_clause"); clause != nil {
		names = importedNames(clause, source)
	}

	*imports = append(*imports, model.Import{
		Specifier:      specifier,
		ResolutionKind: model.ResolvedNone,
		Kind:           model.ImportStatic,
		IsTypeOnly:     isTypeOnly,
		ImportedNames:  names,
		Line:           int(node.StartPosition().Row) + 1,
	})
}

func importedNames(clause *tree_sitter.Node, source []byte) []string {
	var names []string
	for i := uint(0); i < clause.ChildCount(); i++ {
		child := clause.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "identifier":
			names = append(names, child.Utf8Text(source))
		case "named_imports":
			for j := uint(0); j < child.ChildCount(); j++ {
				spec := child.Child(j)
				if spec == nil || spec.Kind() != "import_specifier" {
					continue
				}
				nameNode := spec.ChildByFieldName("name")
				if nameNode != nil {
					names = append(names, nameNode.Utf8Text(source))
				}
			}
		case "namespace_import":
			names = append(names, "*")
		}
	}
	return names
}

func (e *tsExtractor) extractExportStatement(node *tree_sitter.Node, source []byte, exports *[]model.Export, imports *[]model.Import) {
	text := node.Utf8Text(source)
	isTypeOnly := strings.HasPrefix(strings.TrimSpace(text), "export type") && !strings.Contains(text, "type_alias_declaration")

	sourceNode := node.ChildByFieldName("source")
	if sourceNode != nil {
		specifier := unquote(sourceNode.Utf8Text(source))
		isStar := strings.Contains(text, "export *")
		line := int(node.StartPosition().Row) + 1

		// `export ... from "spec"` re-exports another module's surface, so
		// it is recorded as both an Export (what this file exposes) and an
		// Import (what this file depends on) sharing the same specifier —
		// the resolver only walks file.Imports, and the graph builder
		// matches re-export edges and star expansion against this Import,
		// so without it the specifier is never resolved to a file.
		if isStar {
			*exports = append(*exports, model.Export{
				Name:          "*",
				Kind:          model.ExportModule,
				ExportForm:    model.FormStarRe,
				FromSpecifier: specifier,
				Line:          line,
			})
			*imports = append(*imports, model.Import{
				Specifier:      specifier,
				ResolutionKind: model.ResolvedNone,
				Kind:           model.ImportReExport,
				ImportedNames:  []string{"*"},
				Line:           line,
			})
			return
		}

		// export { a, b } from "./x" — re-exported names.
		var names []string
		if clause := firstChildOfKind(node, "export_clause"); clause != nil {
			for i := uint(0); i < clause.ChildCount(); i++ {
				spec := clause.Child(i)
				if spec == nil || spec.Kind() != "export_specifier" {
					continue
				}
				nameNode := spec.ChildByFieldName("name")
				if nameNode == nil {
					continue
				}
				name := nameNode.Utf8Text(source)
				names = append(names, name)
				*exports = append(*exports, model.Export{
					Name:          name,
					Kind:          model.ExportOther,
					ExportForm:    model.FormReExport,
					FromSpecifier: specifier,
					Line:          line,
				})
			}
		}
		if len(names) > 0 {
			*imports = append(*imports, model.Import{
				Specifier:      specifier,
				ResolutionKind: model.ResolvedNone,
				Kind:           model.ImportReExport,
				ImportedNames:  names,
				Line:           line,
			})
		}
		return
	}

	if decl := node.ChildByFieldName("declaration"); decl != nil {
		e.extractDeclarationExport(decl, source, exports)
		return
	}

	// export default ... / export { a, b } (local names, no source).
	if strings.Contains(text, "export default") {
		*exports = append(*exports, model.Export{
			Name:       "default",
			Kind:       model.ExportOther,
			ExportForm: model.FormDefault,
			Line:       int(node.StartPosition().Row) + 1,
		})
		return
	}

	if clause := firstChildOfKind(node, "export_clause"); clause != nil {
		for i := uint(0); i < clause.ChildCount(); i++ {
			spec := clause.Child(i)
			if spec == nil || spec.Kind() != "export_specifier" {
				continue
			}
			nameNode := spec.ChildByFieldName("name")
			if nameNode == nil {
				continue
			}
			kind := model.ExportOther
			if isTypeOnly {
				kind = model.ExportTypeAlias
			}
			*exports = append(*exports, model.Export{
				Name:       nameNode.Utf8Text(source),
				Kind:       kind,
				ExportForm: model.FormNamed,
				Line:       int(node.StartPosition().Row) + 1,
			})
		}
	}
}

func (e *tsExtractor) extractDeclarationExport(decl *tree_sitter.Node, source []byte, exports *[]model.Export) {
	switch decl.Kind() {
	case "function_declaration", "generator_function_declaration":
		e.appendNamed(decl, source, model.ExportFunction, exports)
	case "class_declaration":
		e.appendNamed(decl, source, model.ExportClass, exports)
	case "interface_declaration":
		e.appendNamed(decl, source, model.ExportInterface, exports)
	case "type_alias_declaration":
		e.appendNamed(decl, source, model.ExportTypeAlias, exports)
	case "enum_declaration":
		e.appendNamed(decl, source, model.ExportEnum, exports)
	case "lexical_declaration", "variable_declaration":
		for i := uint(0); i < decl.ChildCount(); i++ {
			child := decl.Child(i)
			if child == nil || child.Kind() != "variable_declarator" {
				continue
			}
			nameNode := child.ChildByFieldName("name")
			if nameNode == nil {
				continue
			}
			kind := model.ExportConst
			if value := child.ChildByFieldName("value"); value != nil && value.Kind() == "arrow_function" {
				kind = model.ExportFunction
			}
			*exports = append(*exports, model.Export{
				Name:       nameNode.Utf8Text(source),
				Kind:       kind,
				ExportForm: model.FormNamed,
				Line:       int(child.StartPosition().Row) + 1,
			})
		}
	}
}

func (e *tsExtractor) appendNamed(node *tree_sitter.Node, source []byte, kind model.ExportKind, exports *[]model.Export) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	*exports = append(*exports, model.Export{
		Name:       nameNode.Utf8Text(source),
		Kind:       kind,
		ExportForm: model.FormNamed,
		Line:       int(node.StartPosition().Row) + 1,
	})
}

// extractAmbient handles `declare module "x" { ... }` and `declare global`
// blocks, recording each as one ambient-form export named after the module
// (or "global"); other ambient declarations are ignored.
func (e *tsExtractor) extractAmbient(node *tree_sitter.Node, source []byte, exports *[]model.Export) {
	text := strings.TrimSpace(node.Utf8Text(source))
	if !strings.HasPrefix(text, "declare module") && !strings.HasPrefix(text, "declare global") {
		return
	}
	moduleNode := firstChildOfKind(node, "string")
	name := "global"
	if moduleNode != nil {
		name = unquote(moduleNode.Utf8Text(source))
	}
	*exports = append(*exports, model.Export{
		Name:       name,
		Kind:       model.ExportModule,
		ExportForm: model.FormAmbient,
		Line:       int(node.StartPosition().Row) + 1,
	})
}

// extractDynamicImport recognizes import("...") calls, distinguishing a
// literal-string argument from a template literal containing interpolation
// (which cannot be statically resolved).
func (e *tsExtractor) extractDynamicImport(node *tree_sitter.Node, source []byte) *model.Import {
	fnNode := node.ChildByFieldName("function")
	if fnNode == nil || fnNode.Kind() != "import" {
		return nil
	}
	args := node.ChildByFieldName("arguments")
	if args == nil || args.ChildCount() == 0 {
		return nil
	}

	var argNode *tree_sitter.Node
	for i := uint(0); i < args.ChildCount(); i++ {
		c := args.Child(i)
		if c != nil && (c.Kind() == "string" || c.Kind() == "template_string") {
			argNode = c
			break
		}
	}
	if argNode == nil {
		return nil
	}

	names := extractLazyImportNames(node, source)

	if argNode.Kind() == "template_string" {
		hasInterpolation := firstChildOfKind(argNode, "template_substitution") != nil
		if hasInterpolation {
			return &model.Import{
				Specifier:      strings.Trim(argNode.Utf8Text(source), "`"),
				ResolutionKind: model.ResolvedNone,
				Kind:           model.ImportDynamic,
				IsDynamic:      true,
				ImportedNames:  names,
				Line:           int(node.StartPosition().Row) + 1,
			}
		}
	}

	specifier := unquote(argNode.Utf8Text(source))
	if specifier == "" {
		return nil
	}
	return &model.Import{
		Specifier:      specifier,
		ResolutionKind: model.ResolvedNone,
		Kind:           model.ImportDynamic,
		IsDynamic:      true,
		ImportedNames:  names,
		Line:           int(node.StartPosition().Row) + 1,
	}
}

// extractLazyImportNames recognizes `React.lazy(() => import(spec).then(m =>
// m.X))`: when node is the inner import(...) call, it walks up through the
// `.then(...)` continuation to the arrow function passed to it and reports
// every `<param>.<name>` member access in its body. Attaching these as
// ImportedNames lets buildUsedSymbolIndex mark X used on the resolved
// target the same way a static named import would, without introducing a
// separate "dynamically referenced" bookkeeping path alongside it.
func extractLazyImportNames(node *tree_sitter.Node, source []byte) []string {
	parent := node.Parent()
	if parent == nil || parent.Kind() != "member_expression" {
		return nil
	}
	prop := parent.ChildByFieldName("property")
	if prop == nil || prop.Utf8Text(source) != "then" {
		return nil
	}
	thenCall := parent.Parent()
	if thenCall == nil || thenCall.Kind() != "call_expression" {
		return nil
	}
	args := thenCall.ChildByFieldName("arguments")
	if args == nil {
		return nil
	}

	var handler *tree_sitter.Node
	for i := uint(0); i < args.ChildCount(); i++ {
		if c := args.Child(i); c != nil && (c.Kind() == "arrow_function" || c.Kind() == "function_expression") {
			handler = c
			break
		}
	}
	if handler == nil {
		return nil
	}

	paramName := lazyHandlerParamName(handler, source)
	body := handler.ChildByFieldName("body")
	if paramName == "" || body == nil {
		return nil
	}

	var names []string
	collectMemberAccessNames(body, source, paramName, &names)
	return names
}

func lazyHandlerParamName(handler *tree_sitter.Node, source []byte) string {
	if p := handler.ChildByFieldName("parameter"); p != nil {
		return p.Utf8Text(source)
	}
	params := handler.ChildByFieldName("parameters")
	if params == nil {
		return ""
	}
	for i := uint(0); i < params.ChildCount(); i++ {
		if c := params.Child(i); c != nil && c.Kind() == "identifier" {
			return c.Utf8Text(source)
		}
	}
	return ""
}

// collectMemberAccessNames records every property accessed directly off
// paramName within node (e.g. `m.X` when paramName is "m").
func collectMemberAccessNames(node *tree_sitter.Node, source []byte, paramName string, names *[]string) {
	if node.Kind() == "member_expression" {
		obj := node.ChildByFieldName("object")
		prop := node.ChildByFieldName("property")
		if obj != nil && prop != nil && obj.Kind() == "identifier" && obj.Utf8Text(source) == paramName {
			*names = append(*names, prop.Utf8Text(source))
		}
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if c := node.Child(i); c != nil {
			collectMemberAccessNames(c, source, paramName, names)
		}
	}
}

func firstChildOfKind(node *tree_sitter.Node, kind string) *tree_sitter.Node {
	for i := uint(0); i < node.ChildCount(); i++ {
		c := node.Child(i)
		if c != nil && c.Kind() == kind {
			return c
		}
	}
	return nil
}

func unquote(s string) string {
	return strings.Trim(s, "\"'`")
}
