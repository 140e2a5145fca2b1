// Package analysis derives structural findings from an assembled graph:
// circular import chains, dead exports, duplicate symbol definitions, and
// orphan files.
package analysis

import (
	"fmt"
	"sort"

	"github.com/loctree/loctree/internal/model"
)

const maxCycleNodesBeforeCompression = 12

// DetectCycles finds every strongly connected component of size 2+ in the
// import graph via Tarjan's algorithm, reconstructs an actual traversal
// cycle through each one (rather than reporting the SCC's unordered
// membership), and classifies it hard (at least one edge in the cycle is a
// plain static import, so a real runtime load-order deadlock is possible)
// or structural (every edge is a re-export or dynamic import, so the cycle
// is reachable but never actually executes as a circular static load).
func DetectCycles(files []model.File, edges []model.Edge) []model.Finding {
	adjacency := make(map[string][]model.Edge)
	nodeSet := make(map[string]bool)
	for _, f := range files {
		nodeSet[f.Path] = true
	}
	for _, e := range edges {
		adjacency[e.From] = append(adjacency[e.From], e)
		nodeSet[e.From] = true
		nodeSet[e.To] = true
	}

	nodes := make([]string, 0, len(nodeSet))
	for n := range nodeSet {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)

	sccs := tarjanSCCs(nodes, adjacency)

	var findings []model.Finding
	for _, scc := range sccs {
		cyclePath, hasStaticImport := reconstructCycle(scc, adjacency)
		severity := model.SeverityStructural
		if hasStaticImport {
			severity = model.SeverityHard
		}

		nodesOut := cyclePath
		collapsed := false
		intermediate := 0
		if len(cyclePath) > maxCycleNodesBeforeCompression {
			collapsed = true
			intermediate = len(cyclePath) - 4
			nodesOut = append(append([]string{}, cyclePath[:2]...), cyclePath[len(cyclePath)-2:]...)
		}

		findings = append(findings, model.Finding{
			Kind:     model.FindingCycle,
			Severity: severity,
			Files:    cyclePath,
			Message:  fmt.Sprintf("import cycle across %d files", len(cyclePath)),
			Evidence: model.CycleEvidence{Nodes: nodesOut, Collapsed: collapsed, Intermediate: intermediate},
		})
	}

	sort.Slice(findings, func(i, j int) bool {
		if len(findings[i].Files) == 0 || len(findings[j].Files) == 0 {
			return false
		}
		return findings[i].Files[0] < findings[j].Files[0]
	})
	return findings
}

func tarjanSCCs(nodes []string, adjacency map[string][]model.Edge) [][]string {
	index := 0
	var stack []string
	onStack := map[string]bool{}
	indices := map[string]int{}
	lowlinks := map[string]int{}
	var sccs [][]string

	var strongConnect func(v string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlinks[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, e := range adjacency[v] {
			w := e.To
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				if lowlinks[w] < lowlinks[v] {
					lowlinks[v] = lowlinks[w]
				}
			} else if onStack[w] {
				if indices[w] < lowlinks[v] {
					lowlinks[v] = indices[w]
				}
			}
		}

		if lowlinks[v] == indices[v] {
			var scc []string
			for {
				n := len(stack) - 1
				w := stack[n]
				stack = stack[:n]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			if len(scc) >= 2 {
				sccs = append(sccs, scc)
			}
		}
	}

	for _, v := range nodes {
		if _, visited := indices[v]; !visited {
			strongConnect(v)
		}
	}
	return sccs
}

// reconstructCycle walks an actual edge-by-edge cycle through the given SCC
// membership, starting from its lexicographically smallest node so output
// is deterministic, and reports whether any edge traversed is a plain
// static import.
func reconstructCycle(scc []string, adjacency map[string][]model.Edge) ([]string, bool) {
	members := make(map[string]bool, len(scc))
	for _, n := range scc {
		members[n] = true
	}
	sorted := append([]string{}, scc...)
	sort.Strings(sorted)
	start := sorted[0]

	visited := map[string]bool{start: true}
	path := []string{start}
	hasStaticImport := false
	current := start

	for {
		var next string
		var edgeLabel model.EdgeLabel
		found := false
		candidates := append([]model.Edge{}, adjacency[current]...)
		sort.Slice(candidates, func(i, j int) bool { return candidates[i].To < candidates[j].To })
		for _, e := range candidates {
			if !members[e.To] {
				continue
			}
			if e.To == start && len(path) > 1 {
				next, edgeLabel, found = e.To, e.Label, true
				break
			}
			if !visited[e.To] {
				next, edgeLabel, found = e.To, e.Label, true
				break
			}
		}
		if !found {
			break
		}
		if edgeLabel == model.EdgeImport {
			hasStaticImport = true
		}
		if next == start {
			break
		}
		visited[next] = true
		path = append(path, next)
		current = next
		if len(path) > len(scc) {
			break
		}
	}

	return path, hasStaticImport
}
