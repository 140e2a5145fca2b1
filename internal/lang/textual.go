package lang

import (
	"regexp"
	"strings"

	"github.com/loctree/loctree/internal/model"
)

// parseCSS, parseSvelte, and parseVue are textual extractors: no tree-sitter
// grammar for CSS, Svelte, or Vue was available, so imports are recovered
// with targeted regexps instead of a full AST walk. Svelte and Vue delegate
// their <script> block contents to the TypeScript extractor, since both
// frameworks embed plain TS/JS there.
var cssImportRe = regexp.MustCompile(`@import\s+(?:url\()?['"]([^'"]+)['"]\)?`)

func parseCSS(source []byte) Result {
	loc := countLOC(source)
	var imports []model.Import
	lines := strings.Split(string(source), "\n")
	for i, line := range lines {
		m := cssImportRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		imports = append(imports, model.Import{
			Specifier:      m[1],
			ResolutionKind: model.ResolvedNone,
			Kind:           model.ImportStatic,
			Line:           i + 1,
		})
	}
	return Result{Imports: imports, LOC: loc}
}

var scriptBlockRe = regexp.MustCompile(`(?s)<script[^>]*>(.*?)</script>`)

func parseSvelte(path string, source []byte) Result {
	loc := countLOC(source)
	script, offset := extractScriptBlock(source)
	if script == "" {
		return Result{LOC: loc}
	}
	inner := parseTSFragment(script, offset)
	inner.LOC = loc
	return inner
}

func parseVue(path string, source []byte) Result {
	loc := countLOC(source)
	script, offset := extractScriptBlock(source)
	if script == "" {
		return Result{LOC: loc}
	}
	inner := parseTSFragment(script, offset)
	inner.LOC = loc
	return inner
}

// extractScriptBlock returns the contents of the first <script> block and
// the 0-based line offset at which that content begins within the file, so
// extracted Import/Export line numbers can be translated back to the
// original file's coordinates.
func extractScriptBlock(source []byte) (string, int) {
	loc := scriptBlockRe.FindSubmatchIndex(source)
	if loc == nil {
		return "", 0
	}
	offset := strings.Count(string(source[:loc[2]]), "\n")
	return string(source[loc[2]:loc[3]]), offset
}

// parseTSFragment parses an embedded script fragment as TypeScript and
// shifts every extracted line number by offset.
func parseTSFragment(script string, offset int) Result {
	res := Parse("", []byte(script), model.LangTS)
	for i := range res.Imports {
		res.Imports[i].Line += offset
	}
	for i := range res.Exports {
		res.Exports[i].Line += offset
	}
	return res
}
