// Package model defines the data types shared by every stage of the scan
// pipeline: the per-file record produced by parsing, the edges and symbol
// index produced by graph assembly, and the composite snapshot that the
// store persists.
package model

// Language identifies a source language recognized by the parsers.
type Language string

const (
	LangTS      Language = "ts"
	LangTSX     Language = "tsx"
	LangJS      Language = "js"
	LangJSX     Language = "jsx"
	LangRust    Language = "rs"
	LangPython  Language = "py"
	LangGo      Language = "go"
	LangCSS     Language = "css"
	LangSvelte  Language = "svelte"
	LangVue     Language = "vue"
	LangOther   Language = "other"
)

// FileKind classifies a file by role, derived from path patterns and a
// content marker scan.
type FileKind string

const (
	KindCode      FileKind = "code"
	KindTest      FileKind = "test"
	KindGenerated FileKind = "generated"
	KindConfig    FileKind = "config"
)

// ImportKind classifies how an import was written.
type ImportKind string

const (
	ImportStatic             ImportKind = "static"
	ImportReExport           ImportKind = "re_export"
	ImportDynamic            ImportKind = "dynamic"
	ImportAmbientDeclaration ImportKind = "ambient_declaration"
)

// ResolutionKind tags what an import specifier resolved to.
type ResolutionKind string

const (
	ResolvedFile     ResolutionKind = "file"
	ResolvedExternal ResolutionKind = "external_package"
	ResolvedVirtual  ResolutionKind = "virtual_module"
	ResolvedNone     ResolutionKind = "unresolved"
)

// Import is a single import statement extracted from a file.
type Import struct {
	Specifier             string         `json:"specifier"`
	ResolvedPath           string         `json:"resolvedPath,omitempty"`
	ResolutionKind         ResolutionKind `json:"resolutionKind"`
	Kind                   ImportKind     `json:"kind"`
	IsTypeOnly             bool           `json:"isTypeOnly,omitempty"`
	IsDynamic              bool           `json:"isDynamic,omitempty"`
	IsConditionalInactive  bool           `json:"isConditionalInactive,omitempty"`
	ImportedNames          []string       `json:"importedNames,omitempty"`
	Line                   int            `json:"line"`
}

// ExportKind classifies the syntactic construct an export binds.
type ExportKind string

const (
	ExportFunction    ExportKind = "function"
	ExportClass       ExportKind = "class"
	ExportTypeAlias   ExportKind = "type_alias"
	ExportInterface   ExportKind = "interface"
	ExportConst       ExportKind = "const"
	ExportEnum        ExportKind = "enum"
	ExportStruct      ExportKind = "struct"
	ExportTrait       ExportKind = "trait"
	ExportModule      ExportKind = "module"
	ExportOther       ExportKind = "other"
)

// ExportForm classifies how a name is exposed.
type ExportForm string

const (
	FormNamed     ExportForm = "named"
	FormDefault   ExportForm = "default"
	FormReExport  ExportForm = "re_export"
	FormStarRe    ExportForm = "star_re_export"
	FormAmbient   ExportForm = "ambient"
	FormDynamic   ExportForm = "dynamic"
)

// Export is a single named export extracted from a file.
type Export struct {
	Name             string     `json:"name"`
	Kind             ExportKind `json:"kind"`
	ExportForm       ExportForm `json:"exportForm"`
	Line             int        `json:"line"`
	FromSpecifier    string     `json:"fromSpecifier,omitempty"` // set for re_export / star_re_export
	DynamicallyUsed  bool       `json:"dynamicallyUsed,omitempty"`
}

// File is the per-file record tracked across the scan: created by the path
// engine, populated by a language parser, finalized by the graph builder.
type File struct {
	Path        string    `json:"path"`
	Root        string    `json:"root,omitempty"`
	Language    Language  `json:"language"`
	Kind        FileKind  `json:"kind"`
	LOC         int       `json:"loc"`
	MTimeMillis int64     `json:"mtime"`
	ContentHash string    `json:"contentHash,omitempty"`
	IsEntry     bool      `json:"isEntry"`
	Imports     []Import  `json:"imports"`
	Exports     []Export  `json:"exports"`
	// LocalTypeRefs holds type names referenced within the file's own body
	// (e.g. a Rust struct field's type) that dead-export analysis also
	// treats as a local use, alongside DynamicallyUsed and ImportedNames
	// self-references.
	LocalTypeRefs []string  `json:"localTypeRefs,omitempty"`
	Warnings    []string  `json:"warnings,omitempty"`
}

// EdgeLabel classifies the relation an Edge represents.
type EdgeLabel string

const (
	EdgeImport         EdgeLabel = "import"
	EdgeReExport       EdgeLabel = "re_export"
	EdgeDynamicImport  EdgeLabel = "dynamic_import"
)

// Edge is a directed relation between two files, induced by a resolved
// import or re-export. Multiple edges with different labels may connect the
// same pair of files.
type Edge struct {
	From       string    `json:"from"`
	To         string    `json:"to"`
	Label      EdgeLabel `json:"label"`
	SourceLine int       `json:"line"`
}

// SymbolRef points at the exporting file and the Export record itself,
// keyed by symbol name in the Snapshot's symbol index.
type SymbolRef struct {
	File   string `json:"file"`
	Export Export `json:"export"`
}

// Metadata describes the circumstances of a single scan.
type Metadata struct {
	SchemaVersion  int      `json:"schemaVersion"`
	GeneratedAt    string   `json:"generatedAt"`
	Roots          []string `json:"roots"`
	Languages      []string `json:"languages"`
	FileCount      int      `json:"fileCount"`
	TotalLOC       int      `json:"totalLoc"`
	ScanDurationMs int64    `json:"scanDurationMs"`
	VCSRepo        string   `json:"vcsRepo,omitempty"`
	VCSBranch      string   `json:"vcsBranch,omitempty"`
	VCSCommit      string   `json:"vcsCommit,omitempty"`
}

// Warning is a non-fatal issue surfaced during a scan.
type Warning struct {
	File    string `json:"file,omitempty"`
	Message string `json:"message"`
	Kind    string `json:"kind"`
}

// Snapshot is the composite, persisted output of one scan.
type Snapshot struct {
	ScanKey      string             `json:"scanKey"`
	Metadata     Metadata           `json:"metadata"`
	Files        []File             `json:"files"`
	Edges        []Edge             `json:"edges"`
	SymbolIndex  map[string][]SymbolRef `json:"symbolIndex"`
	Warnings     []Warning          `json:"warnings"`
}

// FileByPath returns the file with the given path, or nil.
func (s *Snapshot) FileByPath(path string) *File {
	for i := range s.Files {
		if s.Files[i].Path == path {
			return &s.Files[i]
		}
	}
	return nil
}
