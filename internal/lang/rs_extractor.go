package lang

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/loctree/loctree/internal/model"
)

// rsExtractor extracts `mod`/`use` declarations as imports and pub items as
// exports. Visibility is read from the leading visibility_modifier: any
// `pub`, `pub(crate)`, or `pub(super)` modifier is collapsed to the same
// crate-visible export (see visibilityOf) — the extractor does not
// distinguish restricted visibility from full `pub`. `#[cfg(...)]`
// attributes are skipped rather than evaluated — both branches are visited,
// matching the teacher's attribute-tolerant walk.
type rsExtractor struct{}

func (e *rsExtractor) Extract(root *tree_sitter.Node, source []byte) ([]model.Import, []model.Export) {
	var imports []model.Import
	var exports []model.Export

	cursor := root.Walk()
	defer cursor.Close()
	e.walk(cursor, source, &imports, &exports)
	return imports, exports
}

func (e *rsExtractor) walk(cursor *tree_sitter.TreeCursor, source []byte, imports *[]model.Import, exports *[]model.Export) {
	node := cursor.Node()

	switch node.Kind() {
	case "mod_item":
		e.extractMod(node, source, imports, exports)
	case "function_item":
		e.extractNamed(node, source, model.ExportFunction, exports)
	case "struct_item":
		e.extractNamed(node, source, model.ExportStruct, exports)
	case "enum_item":
		e.extractNamed(node, source, model.ExportEnum, exports)
	case "trait_item":
		e.extractNamed(node, source, model.ExportTrait, exports)
	case "type_item":
		e.extractNamed(node, source, model.ExportTypeAlias, exports)
	case "use_declaration":
		if imp := e.extractUse(node, source); imp != nil {
			*imports = append(*imports, *imp)
		}
	case "macro_invocation":
		e.extractGenerateHandler(node, source, exports)
	}

	if cursor.GotoFirstChild() {
		e.walk(cursor, source, imports, exports)
		for cursor.GotoNextSibling() {
			e.walk(cursor, source, imports, exports)
		}
		cursor.GotoParent()
	}
}

func (e *rsExtractor) extractMod(node *tree_sitter.Node, source []byte, imports *[]model.Import, exports *[]model.Export) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nameNode.Utf8Text(source)

	// `mod foo;` (no body) declares the submodule file foo.rs / foo/mod.rs
	// as part of this crate's module tree — treat it as an import so the
	// resolver can locate the sibling file.
	if node.ChildByFieldName("body") == nil {
		*imports = append(*imports, model.Import{
			Specifier:      name,
			ResolutionKind: model.ResolvedNone,
			Kind:           model.ImportStatic,
			Line:           int(node.StartPosition().Row) + 1,
		})
		return
	}

	vis := visibilityOf(node)
	if vis == "" {
		return
	}
	*exports = append(*exports, model.Export{
		Name:       name,
		Kind:       model.ExportModule,
		ExportForm: model.FormNamed,
		Line:       int(node.StartPosition().Row) + 1,
	})
}

func (e *rsExtractor) extractNamed(node *tree_sitter.Node, source []byte, kind model.ExportKind, exports *[]model.Export) {
	vis := visibilityOf(node)
	if vis == "" {
		return
	}
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

func (e *rsExtractor) extractUse(node *tree_sitter.Node, source []byte) *model.Import {
	argNode := node.ChildByFieldName("argument")
	var path string
	if argNode != nil {
		path = argNode.Utf8Text(source)
	} else {
		path = strings.TrimPrefix(strings.TrimSuffix(node.Utf8Text(source), ";"), "use ")
	}
	path = strings.TrimSpace(path)
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

// extractGenerateHandler recognizes `tauri::generate_handler![cmd_a, cmd_b]`
// and records each listed command name as a dynamically-used export so the
// dead-export analysis does not flag Tauri IPC commands only ever invoked
// from the frontend as unused.
func (e *rsExtractor) extractGenerateHandler(node *tree_sitter.Node, source []byte, exports *[]model.Export) {
	macroNode := node.ChildByFieldName("macro")
	if macroNode == nil || !strings.HasSuffix(macroNode.Utf8Text(source), "generate_handler") {
		return
	}
	text := node.Utf8Text(source)
	start := strings.IndexAny(text, "[({")
	end := strings.LastIndexAny(text, "])}")
	if start < 0 || end < 0 || end <= start {
		return
	}
	for _, part := range strings.Split(text[start+1:end], ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		*exports = append(*exports, model.Export{
			Name:            name,
			Kind:            model.ExportFunction,
			ExportForm:      model.FormDynamic,
			DynamicallyUsed: true,
			Line:            int(node.StartPosition().Row) + 1,
		})
	}
}

// visibilityOf reports "pub" for any leading visibility_modifier (`pub`,
// `pub(crate)`, `pub(super)` alike) or "" for private items.
func visibilityOf(node *tree_sitter.Node) string {
	if node.ChildCount() == 0 {
		return ""
	}
	first := node.Child(0)
	if first == nil || first.Kind() != "visibility_modifier" {
		return ""
	}
	return "pub"
}

// LocalTypeRefs walks the whole file collecting every type_identifier used
// as a struct field's type or inside an enum variant's payload — e.g. `buf:
// Vec<Item>` references both Vec and Item. DetectDeadExports treats a name
// collected here the same as a same-file dynamic use: a `pub struct` or
// `pub enum` referenced only as another pub item's field type is still
// reachable, not dead.
func (e *rsExtractor) LocalTypeRefs(root *tree_sitter.Node, source []byte) []string {
	var refs []string
	cursor := root.Walk()
	defer cursor.Close()
	e.walkTypeRefs(cursor, source, &refs)
	return refs
}

func (e *rsExtractor) walkTypeRefs(cursor *tree_sitter.TreeCursor, source []byte, refs *[]string) {
	node := cursor.Node()

	switch node.Kind() {
	case "field_declaration":
		if t := node.ChildByFieldName("type"); t != nil {
			collectTypeIdentifiers(t, source, refs)
		}
	case "enum_variant":
		for i := uint(0); i < node.ChildCount(); i++ {
			if c := node.Child(i); c != nil && c.Kind() != "identifier" {
				collectTypeIdentifiers(c, source, refs)
			}
		}
	}

	if cursor.GotoFirstChild() {
		e.walkTypeRefs(cursor, source, refs)
		for cursor.GotoNextSibling() {
			e.walkTypeRefs(cursor, source, refs)
		}
		cursor.GotoParent()
	}
}

// collectTypeIdentifiers recurses through a type node (plain, generic like
// Vec<Item>, tuple, or reference) collecting every type_identifier leaf.
func collectTypeIdentifiers(node *tree_sitter.Node, source []byte, refs *[]string) {
	if node.Kind() == "type_identifier" {
		*refs = append(*refs, node.Utf8Text(source))
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if c := node.Child(i); c != nil {
			collectTypeIdentifiers(c, source, refs)
		}
	}
}
