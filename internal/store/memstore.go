package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/loctree/loctree/internal/model"
)

var _ Store = (*MemStore)(nil)

// MemStore implements Store using Go maps and is the default index; Kuzu
// is the optional secondary index. Thread-safe via sync.RWMutex so a
// loaded store may be queried concurrently.
type MemStore struct {
	mu          sync.RWMutex
	files       map[string]model.File
	edges       []model.Edge
	symbolIndex map[string][]model.SymbolRef
}

// NewMemStore returns an initialized MemStore ready for Load.
func NewMemStore() *MemStore {
	return &MemStore{
		files:       make(map[string]model.File),
		symbolIndex: make(map[string][]model.SymbolRef),
	}
}

// InitSchema is a no-op for the in-memory store.
func (m *MemStore) InitSchema(_ context.Context) error { return nil }

// Load replaces the store's contents with the given snapshot.
func (m *MemStore) Load(_ context.Context, snapshot *model.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files = make(map[string]model.File, len(snapshot.Files))
	for _, f := range snapshot.Files {
		m.files[f.Path] = f
	}
	m.edges = append([]model.Edge(nil), snapshot.Edges...)
	m.symbolIndex = make(map[string][]model.SymbolRef, len(snapshot.SymbolIndex))
	for name, refs := range snapshot.SymbolIndex {
		m.symbolIndex[name] = append([]model.SymbolRef(nil), refs...)
	}
	return nil
}

// GetFile returns the file record for the given path, or nil if not found.
func (m *MemStore) GetFile(_ context.Context, path string) (*model.File, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.files[path]
	if !ok {
		return nil, nil
	}
	return &f, nil
}

// QuerySymbols returns symbol refs whose name contains query
// (case-insensitive), up to limit results. A limit <= 0 returns all matches.
func (m *MemStore) QuerySymbols(_ context.Context, query string, limit int) ([]model.SymbolRef, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	lowerQuery := strings.ToLower(query)
	names := make([]string, 0, len(m.symbolIndex))
	for n := range m.symbolIndex {
		names = append(names, n)
	}
	sort.Strings(names)

	var results []model.SymbolRef
	for _, n := range names {
		if !strings.Contains(strings.ToLower(n), lowerQuery) {
			continue
		}
		for _, ref := range m.symbolIndex[n] {
			results = append(results, ref)
			if limit > 0 && len(results) >= limit {
				return results, nil
			}
		}
	}
	return results, nil
}

// GetAllEdges returns a copy of every edge in the loaded snapshot.
func (m *MemStore) GetAllEdges(_ context.Context) ([]model.Edge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Edge, len(m.edges))
	copy(out, m.edges)
	return out, nil
}

// GetDependencies performs a BFS over import edges from path in the given
// direction, up to maxDepth hops. It returns one DependencyChain per
// reachable file.
func (m *MemStore) GetDependencies(_ context.Context, path string, dir Direction, maxDepth int) ([]DependencyChain, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if maxDepth <= 0 {
		maxDepth = 10
	}

	type bfsEntry struct {
		id   string
		path []string
	}

	visited := map[string]bool{path: true}
	queue := []bfsEntry{{id: path, path: []string{path}}}
	var chains []DependencyChain

	for depth := 0; depth < maxDepth && len(queue) > 0; depth++ {
		var next []bfsEntry
		for _, entry := range queue {
			for _, nb := range m.neighbors(entry.id, dir) {
				if visited[nb] {
					continue
				}
				visited[nb] = true
				newPath := make([]string, len(entry.path), len(entry.path)+1)
				copy(newPath, entry.path)
				newPath = append(newPath, nb)
				chains = append(chains, DependencyChain{Nodes: newPath, Depth: len(newPath) - 1})
				next = append(next, bfsEntry{id: nb, path: newPath})
			}
		}
		queue = next
	}

	sort.Slice(chains, func(i, j int) bool {
		if chains[i].Depth != chains[j].Depth {
			return chains[i].Depth < chains[j].Depth
		}
		return chains[i].Nodes[len(chains[i].Nodes)-1] < chains[j].Nodes[len(chains[j].Nodes)-1]
	})
	return chains, nil
}

// neighbors returns file paths reachable from path in one hop along dir.
func (m *MemStore) neighbors(path string, dir Direction) []string {
	var result []string
	for _, e := range m.edges {
		switch dir {
		case DirectionDownstream:
			if e.From == path {
				result = append(result, e.To)
			}
		case DirectionUpstream:
			if e.To == path {
				result = append(result, e.From)
			}
		}
	}
	return result
}

// AssessImpact computes the blast radius of changing the given files by
// following import edges upstream (toward importers) to find direct and
// transitive dependents, then scoring the fan-out ratio against the total file count.
func (m *MemStore) AssessImpact(_ context.Context, changedFiles []string) (*ImpactResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	changedSet := make(map[string]bool, len(changedFiles))
	for _, f := range changedFiles {
		changedSet[f] = true
	}

	directSet := make(map[string]bool)
	for _, e := range m.edges {
		if changedSet[e.To] && !changedSet[e.From] {
			directSet[e.From] = true
		}
	}

	allAffected := make(map[string]bool, len(directSet))
	for k := range directSet {
		allAffected[k] = true
	}

	frontier := make(map[string]bool, len(directSet))
	for k := range directSet {
		frontier[k] = true
	}
	for len(frontier) > 0 {
		next := make(map[string]bool)
		for _, e := range m.edges {
			if frontier[e.To] && !changedSet[e.From] && !allAffected[e.From] {
				allAffected[e.From] = true
				next[e.From] = true
			}
		}
		frontier = next
	}

	risk := 0.0
	if len(m.files) > 0 {
		risk = float64(len(allAffected)) / float64(len(m.files))
	}

	return &ImpactResult{
		DirectlyAffected:     sortedKeys(directSet),
		TransitivelyAffected: sortedKeys(allAffected),
		RiskScore:            risk,
	}, nil
}

// Stats returns counts of files, symbols, and edges in the loaded snapshot.
func (m *MemStore) Stats(_ context.Context) (*GraphStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	symbolCount := 0
	for _, refs := range m.symbolIndex {
		symbolCount += len(refs)
	}
	return &GraphStats{
		FileCount:   len(m.files),
		SymbolCount: symbolCount,
		EdgeCount:   len(m.edges),
	}, nil
}

// Close is a no-op for the in-memory store.
func (m *MemStore) Close() error { return nil }

func sortedKeys(s map[string]bool) []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
