// Package resolve turns the raw import specifiers the language parsers
// extract into repo-relative file paths, following the resolution order:
// relative path, virtual/ambient module, tsconfig alias, Python package
// root, Rust crate-internal module map, then external/stdlib fallback.
package resolve

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/loctree/loctree/internal/model"
)

// Resolver is built once per scan from the full set of known file paths and
// whatever workspace/module metadata it can discover in the repo root.
type Resolver struct {
	repoRoot      string
	fileSet       map[string]bool
	dirIndex      map[string][]string
	tsWorkspaces  map[string]*tsWorkspace
	tsAliases     *tsconfigAliases
	ambientModules map[string]bool
	goModPath     string
	pyRoots       []string
}

type tsWorkspace struct {
	dir            string
	mainFile       string
	subpathExports map[string]string
}

// Options carries the cross-file metadata the resolver needs but that the
// path/lang stages already collected: extra Python search roots from
// project configuration, and the set of ambient module names declared
// anywhere in the repo (`declare module "virtual:x"`).
type Options struct {
	ExtraPyRoots   []string
	AmbientModules []string
}

// New builds a Resolver from the repository root and the set of known
// repo-relative file paths.
func New(repoRoot string, knownFiles []string, opts Options) *Resolver {
	r := &Resolver{
		repoRoot:       repoRoot,
		fileSet:        make(map[string]bool, len(knownFiles)),
		dirIndex:       make(map[string][]string),
		tsWorkspaces:   make(map[string]*tsWorkspace),
		ambientModules: make(map[string]bool, len(opts.AmbientModules)),
		pyRoots:        opts.ExtraPyRoots,
	}

	for _, f := range knownFiles {
		r.fileSet[f] = true
		dir := filepath.Dir(f)
		r.dirIndex[dir] = append(r.dirIndex[dir], f)
	}
	for _, m := range opts.AmbientModules {
		r.ambientModules[m] = true
	}

	r.scanTSWorkspaces()
	r.scanGoMod()
	if cfgPath := filepath.Join(repoRoot, "tsconfig.json"); fileExists(cfgPath) {
		r.tsAliases = loadTSConfigAliases(cfgPath)
	}

	return r
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Resolve fills in ResolvedPath and ResolutionKind on imp, given the file it
// was found in and that file's language.
func (r *Resolver) Resolve(imp model.Import, sourceFile string, language model.Language) model.Import {
	if r.ambientModules[imp.Specifier] {
		imp.ResolutionKind = model.ResolvedVirtual
		return imp
	}

	var resolved string
	var ok bool

	switch language {
	case model.LangTS, model.LangTSX, model.LangJS, model.LangJSX, model.LangSvelte, model.LangVue:
		resolved, ok = r.resolveTS(imp.Specifier, sourceFile)
	case model.LangGo:
		resolved, ok = r.resolveGo(imp.Specifier)
	case model.LangPython:
		resolved, ok = r.resolvePython(imp.Specifier, sourceFile)
	case model.LangRust:
		resolved, ok = r.resolveRust(imp.Specifier, sourceFile)
	}

	if ok {
		imp.ResolvedPath = resolved
		imp.ResolutionKind = model.ResolvedFile
		return imp
	}

	imp.ResolutionKind = classifyUnresolved(imp.Specifier, language)
	return imp
}

// classifyUnresolved distinguishes a specifier that looks like an external
// package/stdlib module (so lack of resolution is expected) from one that
// looks like it should have resolved to a repo file but didn't.
func classifyUnresolved(specifier string, language model.Language) model.ResolutionKind {
	switch language {
	case model.LangTS, model.LangTSX, model.LangJS, model.LangJSX, model.LangSvelte, model.LangVue:
		if strings.HasPrefix(specifier, ".") || strings.HasPrefix(specifier, "/") {
			return model.ResolvedNone
		}
		return model.ResolvedExternal
	case model.LangPython:
		if strings.HasPrefix(specifier, ".") {
			return model.ResolvedNone
		}
		return model.ResolvedExternal
	case model.LangRust:
		if strings.HasPrefix(specifier, "crate::") || strings.HasPrefix(specifier, "self::") || strings.HasPrefix(specifier, "super::") {
			return model.ResolvedNone
		}
		return model.ResolvedExternal
	case model.LangGo:
		if strings.Contains(specifier, ".") {
			// heuristic: domain-qualified import paths (github.com/...) are external.
			return model.ResolvedExternal
		}
		return model.ResolvedExternal
	}
	return model.ResolvedNone
}

// --- TypeScript / JavaScript family ---

var tsExtensions = []string{".ts", ".tsx", ".js", ".jsx", "/index.ts", "/index.tsx", "/index.js"}

func (r *Resolver) resolveTS(importPath, sourceFile string) (string, bool) {
	if strings.HasPrefix(importPath, "./") || strings.HasPrefix(importPath, "../") {
		base := filepath.Clean(filepath.Join(filepath.Dir(sourceFile), importPath))
		return r.probeFile(base, tsExtensions)
	}

	if r.tsAliases != nil {
		for _, candidate := range r.tsAliases.resolveAlias(importPath) {
			relCandidate, err := filepath.Rel(r.repoRoot, candidate)
			if err != nil {
				continue
			}
			if resolved, ok := r.probeFile(relCandidate, tsExtensions); ok {
				return resolved, true
			}
		}
	}

	return r.resolveTSWorkspace(importPath)
}

func (r *Resolver) resolveTSWorkspace(importPath string) (string, bool) {
	if ws, ok := r.tsWorkspaces[importPath]; ok {
		if ws.mainFile != "" {
			return ws.mainFile, true
		}
		return "", false
	}

	var pkgName, subpath string
	if strings.HasPrefix(importPath, "@") {
		afterScope := strings.Index(importPath[1:], "/")
		if afterScope == -1 {
			return "", false
		}
		scopeEnd := afterScope + 1
		secondSlash := strings.Index(importPath[scopeEnd+1:], "/")
		if secondSlash == -1 {
			return "", false
		}
		splitAt := scopeEnd + 1 + secondSlash
		pkgName = importPath[:splitAt]
		subpath = "./" + importPath[splitAt+1:]
	} else {
		slash := strings.Index(importPath, "/")
		if slash == -1 {
			return "", false
		}
		pkgName = importPath[:slash]
		subpath = "./" + importPath[slash+1:]
	}

	ws, ok := r.tsWorkspaces[pkgName]
	if !ok {
		return "", false
	}
	if target, ok := ws.subpathExports[subpath]; ok {
		return target, true
	}
	base := filepath.Join(ws.dir, subpath[2:])
	return r.probeFile(base, tsExtensions)
}

// --- Go ---

func (r *Resolver) resolveGo(importPath string) (string, bool) {
	if r.goModPath == "" || !strings.HasPrefix(importPath, r.goModPath) {
		return "", false
	}
	relDir := strings.TrimPrefix(strings.TrimPrefix(importPath, r.goModPath), "/")

	files := r.dirIndex[relDir]
	if len(files) == 0 {
		return "", false
	}
	sorted := append([]string(nil), files...)
	sort.Strings(sorted)
	for _, f := range sorted {
		if strings.HasSuffix(f, ".go") && !strings.HasSuffix(f, "_test.go") {
			return f, true
		}
	}
	return "", false
}

// --- Python ---

func (r *Resolver) resolvePython(importPath, sourceFile string) (string, bool) {
	if strings.HasPrefix(importPath, ".") {
		dots := 0
		for _, c := range importPath {
			if c == '.' {
				dots++
			} else {
				break
			}
		}
		modulePart := importPath[dots:]
		baseDir := filepath.Dir(sourceFile)
		for i := 1; i < dots; i++ {
			baseDir = filepath.Dir(baseDir)
		}
		if modulePart == "" {
			return r.probeFile(filepath.Join(baseDir, "__init__"), []string{".py"})
		}
		relPath := strings.ReplaceAll(modulePart, ".", "/")
		return r.probeFile(filepath.Join(baseDir, relPath), []string{".py", "/__init__.py"})
	}

	relPath := strings.ReplaceAll(importPath, ".", "/")
	for _, root := range r.pyRoots {
		if resolved, ok := r.probeFile(filepath.Join(root, relPath), []string{".py", "/__init__.py"}); ok {
			return resolved, true
		}
	}
	return r.probeFile(relPath, []string{".py", "/__init__.py"})
}

// --- Rust ---

func (r *Resolver) resolveRust(importPath, sourceFile string) (string, bool) {
	if idx := strings.Index(importPath, "::{"); idx != -1 {
		importPath = importPath[:idx]
	}

	switch {
	case strings.HasPrefix(importPath, "crate::"):
		relPath := strings.ReplaceAll(strings.TrimPrefix(importPath, "crate::"), "::", "/")
		candidates := []string{filepath.Join("src", relPath), relPath}
		if srcDir := findCrateRoot(sourceFile); srcDir != "" {
			candidates = append(candidates, filepath.Join(srcDir, relPath))
		}
		for _, base := range candidates {
			if resolved, ok := r.probeFile(base, []string{".rs", "/mod.rs"}); ok {
				return resolved, true
			}
		}
		return "", false

	case strings.HasPrefix(importPath, "self::"):
		relPath := strings.ReplaceAll(strings.TrimPrefix(importPath, "self::"), "::", "/")
		return r.probeFile(filepath.Join(filepath.Dir(sourceFile), relPath), []string{".rs", "/mod.rs"})

	case strings.HasPrefix(importPath, "super::"):
		relPath := strings.ReplaceAll(strings.TrimPrefix(importPath, "super::"), "::", "/")
		return r.probeFile(filepath.Join(filepath.Dir(filepath.Dir(sourceFile)), relPath), []string{".rs", "/mod.rs"})

	default:
		return "", false
	}
}

func findCrateRoot(filePath string) string {
	dir := filepath.Dir(filePath)
	for dir != "." && dir != "/" && dir != "" {
		if filepath.Base(dir) == "src" {
			return dir
		}
		dir = filepath.Dir(dir)
	}
	return ""
}

// --- shared helpers ---

func (r *Resolver) probeFile(basePath string, extensions []string) (string, bool) {
	basePath = filepath.ToSlash(basePath)
	if r.fileSet[basePath] {
		return basePath, true
	}
	for _, ext := range extensions {
		candidate := basePath + ext
		if r.fileSet[candidate] {
			return candidate, true
		}
	}
	return "", false
}

// --- workspace / module scanning ---

type packageJSON struct {
	Name       string          `json:"name"`
	Main       string          `json:"main"`
	Workspaces json.RawMessage `json:"workspaces"`
	Exports    json.RawMessage `json:"exports"`
}

func (r *Resolver) scanTSWorkspaces() {
	data, err := os.ReadFile(filepath.Join(r.repoRoot, "package.json"))
	if err != nil {
		return
	}
	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return
	}

	patterns := parseWorkspacePatterns(pkg.Workspaces)
	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(r.repoRoot, pattern))
		if err != nil {
			continue
		}
		for _, dir := range matches {
			if info, err := os.Stat(dir); err == nil && info.IsDir() {
				r.loadWorkspacePackage(dir)
			}
		}
	}
}

func parseWorkspacePatterns(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var arr []string
	if err := json.Unmarshal(raw, &arr); err == nil {
		return arr
	}
	var obj struct {
		Packages []string `json:"packages"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Packages
	}
	return nil
}

func (r *Resolver) loadWorkspacePackage(absDir string) {
	data, err := os.ReadFile(filepath.Join(absDir, "package.json"))
	if err != nil {
		return
	}
	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil || pkg.Name == "" {
		return
	}
	relDir, err := filepath.Rel(r.repoRoot, absDir)
	if err != nil {
		return
	}

	ws := &tsWorkspace{dir: relDir, subpathExports: make(map[string]string)}
	r.parseExports(ws, pkg.Exports)

	if ws.mainFile == "" && pkg.Main != "" {
		candidate := filepath.Clean(filepath.Join(relDir, pkg.Main))
		if resolved, ok := r.probeFile(candidate, tsExtensions); ok {
			ws.mainFile = resolved
		}
	}
	if ws.mainFile == "" {
		for _, try := range []string{filepath.Join(relDir, "src", "index"), filepath.Join(relDir, "index")} {
			if resolved, ok := r.probeFile(try, tsExtensions); ok {
				ws.mainFile = resolved
				break
			}
		}
	}

	r.tsWorkspaces[pkg.Name] = ws
}

func (r *Resolver) parseExports(ws *tsWorkspace, raw json.RawMessage) {
	if len(raw) == 0 {
		return
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		if resolved, ok := r.probeFile(filepath.Clean(filepath.Join(ws.dir, str)), tsExtensions); ok {
			ws.mainFile = resolved
		}
		return
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return
	}
	for key, val := range obj {
		target := resolveExportValue(val)
		if target == "" {
			continue
		}
		resolved, ok := r.probeFile(filepath.Clean(filepath.Join(ws.dir, target)), tsExtensions)
		if !ok {
			continue
		}
		if key == "." {
			ws.mainFile = resolved
		} else {
			ws.subpathExports[key] = resolved
		}
	}
}

func resolveExportValue(raw json.RawMessage) string {
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ""
	}
	for _, key := range []string{"import", "default", "require"} {
		if v, ok := obj[key]; ok {
			return resolveExportValue(v)
		}
	}
	return ""
}

func (r *Resolver) scanGoMod() {
	f, err := os.Open(filepath.Join(r.repoRoot, "go.mod"))
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "module ") {
			r.goModPath = strings.TrimSpace(strings.TrimPrefix(line, "module"))
			return
		}
	}
}
