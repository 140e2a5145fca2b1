//go:build cgo

package store

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"

	kuzu "github.com/kuzudb/go-kuzu"

	"github.com/loctree/loctree/internal/model"
)

var _ Store = (*KuzuStore)(nil)

// KuzuStore is an optional secondary index: the same snapshot MemStore
// holds, loaded into an embedded KuzuDB graph and queried with Cypher.
// KuzuStore is built on demand for callers
// that want the structured traversal and pattern-match queries Cypher
// gives over the plain-Go BFS.
type KuzuStore struct {
	db   *kuzu.Database
	conn *kuzu.Connection
}

// NewKuzuStore opens an in-memory KuzuDB instance.
func NewKuzuStore() (*KuzuStore, error) {
	cfg := kuzu.DefaultSystemConfig()
	db, err := kuzu.OpenDatabase(":memory:", cfg)
	if err != nil {
		return nil, fmt.Errorf("kuzu: open in-memory database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &KuzuStore{db: db, conn: conn}, nil
}

// NewKuzuFileStore opens a KuzuDB instance persisted at dbPath.
func NewKuzuFileStore(dbPath string) (*KuzuStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("kuzu: create db directory: %w", err)
	}
	cfg := kuzu.DefaultSystemConfig()
	db, err := kuzu.OpenDatabase(dbPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("kuzu: open database at %s: %w", dbPath, err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &KuzuStore{db: db, conn: conn}, nil
}

func (s *KuzuStore) Close() error {
	s.conn.Close()
	s.db.Close()
	return nil
}

var ddlStatements = []string{
	`CREATE NODE TABLE IF NOT EXISTS File(
		path STRING,
		language STRING,
		kind STRING,
		loc INT64,
		is_entry BOOLEAN,
		PRIMARY KEY(path)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS Symbol(
		id STRING,
		name STRING,
		kind STRING,
		export_form STRING,
		file_path STRING,
		line INT64,
		PRIMARY KEY(id)
	)`,
	`CREATE REL TABLE IF NOT EXISTS DEFINES(FROM File TO Symbol)`,
	`CREATE REL TABLE IF NOT EXISTS IMPORTS(FROM File TO File, label STRING, line INT64)`,
}

// InitSchema creates the node and relationship tables if they do not exist.
func (s *KuzuStore) InitSchema(_ context.Context) error {
	for _, stmt := range ddlStatements {
		res, err := s.conn.Query(stmt)
		if err != nil {
			return fmt.Errorf("kuzu: init schema: %w", err)
		}
		res.Close()
	}
	return nil
}

// Load clears and repopulates the graph from the given snapshot.
func (s *KuzuStore) Load(ctx context.Context, snapshot *model.Snapshot) error {
	if err := s.InitSchema(ctx); err != nil {
		return err
	}
	if err := s.exec("MATCH (f:File) DETACH DELETE f", nil); err != nil {
		return err
	}
	if err := s.exec("MATCH (sym:Symbol) DETACH DELETE sym", nil); err != nil {
		return err
	}

	for _, f := range snapshot.Files {
		if err := s.addFile(f); err != nil {
			return err
		}
	}
	for name, refs := range snapshot.SymbolIndex {
		for _, ref := range refs {
			if err := s.addSymbol(name, ref); err != nil {
				return err
			}
		}
	}
	for _, e := range snapshot.Edges {
		if err := s.addEdge(e); err != nil {
			return err
		}
	}
	return nil
}

func (s *KuzuStore) addFile(f model.File) error {
	return s.exec(
		`CREATE (f:File {path: $path, language: $lang, kind: $kind, loc: $loc, is_entry: $entry})`,
		map[string]any{
			"path":  f.Path,
			"lang":  string(f.Language),
			"kind":  string(f.Kind),
			"loc":   int64(f.LOC),
			"entry": f.IsEntry,
		},
	)
}

func (s *KuzuStore) addSymbol(name string, ref model.SymbolRef) error {
	return s.exec(
		`CREATE (s:Symbol {id: $id, name: $name, kind: $kind, export_form: $form, file_path: $fp, line: $line})`,
		map[string]any{
			"id":   symbolID(ref.File, name),
			"name": name,
			"kind": string(ref.Export.Kind),
			"form": string(ref.Export.ExportForm),
			"fp":   ref.File,
			"line": int64(ref.Export.Line),
		},
	)
}

func (s *KuzuStore) addEdge(e model.Edge) error {
	return s.exec(
		`MATCH (a:File {path: $src}), (b:File {path: $dst})
		 CREATE (a)-[:IMPORTS {label: $label, line: $line}]->(b)`,
		map[string]any{
			"src":   e.From,
			"dst":   e.To,
			"label": string(e.Label),
			"line":  int64(e.SourceLine),
		},
	)
}

// GetFile retrieves a single File node by path, or nil if not found.
func (s *KuzuStore) GetFile(_ context.Context, path string) (*model.File, error) {
	rows, err := s.query(
		"MATCH (f:File {path: $path}) RETURN f.path, f.language, f.kind, f.loc, f.is_entry",
		map[string]any{"path": path},
	)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	r := rows[0]
	return &model.File{
		Path:     toString(r[0]),
		Language: model.Language(toString(r[1])),
		Kind:     model.FileKind(toString(r[2])),
		LOC:      toInt(r[3]),
		IsEntry:  toBool(r[4]),
	}, nil
}

// QuerySymbols returns symbol refs whose name contains queryStr.
func (s *KuzuStore) QuerySymbols(_ context.Context, queryStr string, limit int) ([]model.SymbolRef, error) {
	if limit <= 0 {
		limit = 1 << 30
	}
	rows, err := s.query(
		`MATCH (sym:Symbol) WHERE sym.name CONTAINS $q
		 RETURN sym.name, sym.kind, sym.export_form, sym.file_path, sym.line
		 LIMIT $lim`,
		map[string]any{"q": queryStr, "lim": int64(limit)},
	)
	if err != nil {
		return nil, err
	}
	out := make([]model.SymbolRef, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.SymbolRef{
			File: toString(r[3]),
			Export: model.Export{
				Name:       toString(r[0]),
				Kind:       model.ExportKind(toString(r[1])),
				ExportForm: model.ExportForm(toString(r[2])),
				Line:       toInt(r[4]),
			},
		})
	}
	return out, nil
}

// GetAllEdges returns every IMPORTS edge in the loaded graph.
func (s *KuzuStore) GetAllEdges(_ context.Context) ([]model.Edge, error) {
	rows, err := s.query(
		"MATCH (a:File)-[r:IMPORTS]->(b:File) RETURN a.path, b.path, r.label, r.line",
		nil,
	)
	if err != nil {
		return nil, err
	}
	out := make([]model.Edge, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.Edge{
			From:       toString(r[0]),
			To:         toString(r[1]),
			Label:      model.EdgeLabel(toString(r[2])),
			SourceLine: toInt(r[3]),
		})
	}
	return out, nil
}

// GetDependencies performs a BFS over IMPORTS edges starting from path.
func (s *KuzuStore) GetDependencies(_ context.Context, path string, dir Direction, maxDepth int) ([]DependencyChain, error) {
	if maxDepth <= 0 {
		maxDepth = 10
	}

	type bfsEntry struct {
		path  []string
		depth int
	}
	visited := map[string]bool{path: true}
	queue := []bfsEntry{{path: []string{path}, depth: 0}}
	var chains []DependencyChain

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= maxDepth {
			continue
		}
		tip := cur.path[len(cur.path)-1]
		neighbors, err := s.fileNeighbors(tip, dir)
		if err != nil {
			return nil, err
		}
		for _, nb := range neighbors {
			if visited[nb] {
				continue
			}
			visited[nb] = true
			newPath := make([]string, len(cur.path)+1)
			copy(newPath, cur.path)
			newPath[len(cur.path)] = nb
			chains = append(chains, DependencyChain{Nodes: newPath, Depth: cur.depth + 1})
			queue = append(queue, bfsEntry{path: newPath, depth: cur.depth + 1})
		}
	}
	return chains, nil
}

func (s *KuzuStore) fileNeighbors(path string, dir Direction) ([]string, error) {
	var cypher string
	switch dir {
	case DirectionDownstream:
		cypher = "MATCH (a:File {path: $path})-[:IMPORTS]->(b:File) RETURN b.path"
	case DirectionUpstream:
		cypher = "MATCH (a:File)-[:IMPORTS]->(b:File {path: $path}) RETURN a.path"
	default:
		return nil, fmt.Errorf("kuzu: unknown direction: %s", dir)
	}
	rows, err := s.query(cypher, map[string]any{"path": path})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, toString(r[0]))
	}
	return out, nil
}

// AssessImpact computes the blast radius of the given changed files.
func (s *KuzuStore) AssessImpact(ctx context.Context, changedFiles []string) (*ImpactResult, error) {
	totalFiles, err := s.countTable("File")
	if err != nil {
		return nil, err
	}

	directSet := map[string]bool{}
	transitiveSet := map[string]bool{}
	for _, f := range changedFiles {
		direct, err := s.GetDependencies(ctx, f, DirectionUpstream, 1)
		if err != nil {
			return nil, err
		}
		for _, c := range direct {
			directSet[c.Nodes[len(c.Nodes)-1]] = true
		}

		all, err := s.GetDependencies(ctx, f, DirectionUpstream, 1<<20)
		if err != nil {
			return nil, err
		}
		for _, c := range all {
			transitiveSet[c.Nodes[len(c.Nodes)-1]] = true
		}
	}

	changedMap := map[string]bool{}
	for _, f := range changedFiles {
		changedMap[f] = true
	}
	risk := 0.0
	transitive := filterKeys(transitiveSet, changedMap)
	if totalFiles > 0 {
		risk = math.Min(1.0, float64(len(transitive))/float64(totalFiles))
	}

	return &ImpactResult{
		DirectlyAffected:     filterKeys(directSet, changedMap),
		TransitivelyAffected: transitive,
		RiskScore:            risk,
	}, nil
}

// Stats returns counts of files, symbols, and edges.
func (s *KuzuStore) Stats(_ context.Context) (*GraphStats, error) {
	files, err := s.countTable("File")
	if err != nil {
		return nil, err
	}
	symbols, err := s.countTable("Symbol")
	if err != nil {
		return nil, err
	}
	edges, err := s.countEdges()
	if err != nil {
		return nil, err
	}
	return &GraphStats{FileCount: files, SymbolCount: symbols, EdgeCount: edges}, nil
}

// ---------- internal helpers ----------

func (s *KuzuStore) exec(cypher string, params map[string]any) error {
	if len(params) == 0 {
		res, err := s.conn.Query(cypher)
		if err != nil {
			return fmt.Errorf("kuzu: query: %w", err)
		}
		res.Close()
		return nil
	}
	stmt, err := s.conn.Prepare(cypher)
	if err != nil {
		return fmt.Errorf("kuzu: prepare: %w", err)
	}
	defer stmt.Close()
	res, err := s.conn.Execute(stmt, params)
	if err != nil {
		return fmt.Errorf("kuzu: execute: %w", err)
	}
	res.Close()
	return nil
}

func (s *KuzuStore) query(cypher string, params map[string]any) ([][]any, error) {
	var res *kuzu.QueryResult
	var err error
	if len(params) == 0 {
		res, err = s.conn.Query(cypher)
	} else {
		var stmt *kuzu.PreparedStatement
		stmt, err = s.conn.Prepare(cypher)
		if err != nil {
			return nil, fmt.Errorf("kuzu: prepare: %w", err)
		}
		defer stmt.Close()
		res, err = s.conn.Execute(stmt, params)
	}
	if err != nil {
		return nil, fmt.Errorf("kuzu: query: %w", err)
	}
	defer res.Close()

	var rows [][]any
	for res.HasNext() {
		tuple, err := res.Next()
		if err != nil {
			return nil, fmt.Errorf("kuzu: next: %w", err)
		}
		vals, err := tuple.GetAsSlice()
		if err != nil {
			return nil, fmt.Errorf("kuzu: row values: %w", err)
		}
		rows = append(rows, vals)
	}
	return rows, nil
}

func (s *KuzuStore) countTable(table string) (int, error) {
	rows, err := s.query(fmt.Sprintf("MATCH (n:%s) RETURN count(n)", table), nil)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, nil
	}
	return toInt(rows[0][0]), nil
}

func (s *KuzuStore) countEdges() (int, error) {
	rows, err := s.query("MATCH ()-[r:IMPORTS]->() RETURN count(r)", nil)
	if err != nil {
		return 0, nil
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, nil
	}
	return toInt(rows[0][0]), nil
}

func symbolID(filePath, name string) string { return filePath + ":" + name }

func filterKeys(set, exclude map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		if !exclude[k] {
			out = append(out, k)
		}
	}
	return out
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func toInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case int32:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

func toBool(v any) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return false
}
