// Package query exposes spec.md §6.3's two query kinds as pure functions
// over a deserialized snapshot: path-structured traversal ("what imports
// X", "what does X depend on", impact of changing X) and symbol-index
// lookup by name. It imposes no wire protocol; callers (cmd/loctree or any
// other consumer) decide how to present the results.
package query

import (
	"sort"
	"strings"

	"github.com/loctree/loctree/internal/model"
)

// Direction controls which way an edge traversal follows the edge set.
type Direction string

const (
	// Forward follows "from -> to": what does this file depend on.
	Forward Direction = "forward"
	// Reverse follows "to -> from": what imports this file.
	Reverse Direction = "reverse"
)

// Hit is one file reached by a traversal, classified by hop count.
type Hit struct {
	Path  string
	Depth int
}

// Traverse walks snapshot.Edges from start in the given direction up to
// maxDepth hops (maxDepth <= 0 means unbounded), returning one Hit per
// reachable file in breadth-first, depth-then-path order.
func Traverse(snapshot *model.Snapshot, start string, dir Direction, maxDepth int) []Hit {
	adjacency := make(map[string][]string)
	for _, e := range snapshot.Edges {
		switch dir {
		case Forward:
			adjacency[e.From] = append(adjacency[e.From], e.To)
		case Reverse:
			adjacency[e.To] = append(adjacency[e.To], e.From)
		}
	}
	for k := range adjacency {
		sort.Strings(adjacency[k])
	}

	visited := map[string]bool{start: true}
	queue := []string{start}
	depth := map[string]int{start: 0}
	var hits []Hit

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		d := depth[cur]
		if maxDepth > 0 && d >= maxDepth {
			continue
		}
		for _, nb := range adjacency[cur] {
			if visited[nb] {
				continue
			}
			visited[nb] = true
			depth[nb] = d + 1
			hits = append(hits, Hit{Path: nb, Depth: d + 1})
			queue = append(queue, nb)
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Depth != hits[j].Depth {
			return hits[i].Depth < hits[j].Depth
		}
		return hits[i].Path < hits[j].Path
	})
	return hits
}

// WhatImports returns the direct and transitive importers of path,
// classified by depth (Reverse traversal).
func WhatImports(snapshot *model.Snapshot, path string, maxDepth int) []Hit {
	return Traverse(snapshot, path, Reverse, maxDepth)
}

// WhatDependsOn returns the direct and transitive dependencies of path
// (Forward traversal).
func WhatDependsOn(snapshot *model.Snapshot, path string, maxDepth int) []Hit {
	return Traverse(snapshot, path, Forward, maxDepth)
}

// Impact returns every file reachable by reverse traversal from any of
// changed — the set of files whose behavior could change if changed does.
func Impact(snapshot *model.Snapshot, changed []string) []Hit {
	seen := map[string]int{}
	for _, c := range changed {
		for _, hit := range Traverse(snapshot, c, Reverse, 0) {
			if prev, ok := seen[hit.Path]; !ok || hit.Depth < prev {
				seen[hit.Path] = hit.Depth
			}
		}
	}
	hits := make([]Hit, 0, len(seen))
	for path, depth := range seen {
		hits = append(hits, Hit{Path: path, Depth: depth})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Depth != hits[j].Depth {
			return hits[i].Depth < hits[j].Depth
		}
		return hits[i].Path < hits[j].Path
	})
	return hits
}

// SymbolLookup returns every SymbolRef bound to a name containing query
// (case-insensitive); an empty query matches every symbol.
func SymbolLookup(snapshot *model.Snapshot, query string) map[string][]model.SymbolRef {
	lowerQuery := strings.ToLower(query)
	out := make(map[string][]model.SymbolRef)
	for name, refs := range snapshot.SymbolIndex {
		if lowerQuery != "" && !strings.Contains(strings.ToLower(name), lowerQuery) {
			continue
		}
		out[name] = refs
	}
	return out
}
