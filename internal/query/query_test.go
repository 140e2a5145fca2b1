package query

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/loctree/loctree/internal/model"
)

func sampleSnapshot() *model.Snapshot {
	return &model.Snapshot{
		Edges: []model.Edge{
			{From: "a.ts", To: "b.ts", Label: model.EdgeImport},
			{From: "b.ts", To: "c.ts", Label: model.EdgeImport},
		},
		SymbolIndex: map[string][]model.SymbolRef{
			"Widget": {{File: "a.ts", Export: model.Export{Name: "Widget"}}},
			"Gadget": {{File: "b.ts", Export: model.Export{Name: "Gadget"}}},
		},
	}
}

func TestWhatImports_ClassifiesByDepth(t *testing.T) {
	snap := sampleSnapshot()
	hits := WhatImports(snap, "c.ts", 0)
	assert.Equal(t, []Hit{{Path: "b.ts", Depth: 1}, {Path: "a.ts", Depth: 2}}, hits)
}

func TestWhatDependsOn_RespectsDepthBound(t *testing.T) {
	snap := sampleSnapshot()
	hits := WhatDependsOn(snap, "a.ts", 1)
	assert.Equal(t, []Hit{{Path: "b.ts", Depth: 1}}, hits)
}

func TestImpact_MergesMultipleChangedFiles(t *testing.T) {
	snap := sampleSnapshot()
	hits := Impact(snap, []string{"c.ts"})
	assert.Equal(t, []Hit{{Path: "b.ts", Depth: 1}, {Path: "a.ts", Depth: 2}}, hits)
}

func TestSymbolLookup_CaseInsensitiveSubstring(t *testing.T) {
	snap := sampleSnapshot()
	found := SymbolLookup(snap, "widg")
	assert.Len(t, found, 1)
	assert.Contains(t, found, "Widget")
}
