package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loctree/loctree/internal/model"
)

func TestDetectCycles_TwoFileHardCycle(t *testing.T) {
	files := []model.File{
		{Path: "a.ts", Language: model.LangTS},
		{Path: "b.ts", Language: model.LangTS},
	}
	edges := []model.Edge{
		{From: "a.ts", To: "b.ts", Label: model.EdgeImport},
		{From: "b.ts", To: "a.ts", Label: model.EdgeImport},
	}

	findings := DetectCycles(files, edges)
	require.Len(t, findings, 1)
	assert.Equal(t, model.SeverityHard, findings[0].Severity)
	assert.ElementsMatch(t, []string{"a.ts", "b.ts"}, findings[0].Files)
}

func TestDetectCycles_HardWhenAnyStaticImportInvolved(t *testing.T) {
	files := []model.File{
		{Path: "a.ts", Language: model.LangTS},
		{Path: "b.ts", Language: model.LangTS},
	}
	edges := []model.Edge{
		{From: "a.ts", To: "b.ts", Label: model.EdgeReExport},
		{From: "b.ts", To: "a.ts", Label: model.EdgeImport},
	}

	findings := DetectCycles(files, edges)
	require.Len(t, findings, 1)
	assert.Equal(t, model.SeverityHard, findings[0].Severity)
}

func TestDetectCycles_StructuralWhenNoStaticImportInvolved(t *testing.T) {
	files := []model.File{
		{Path: "a.ts", Language: model.LangTS},
		{Path: "b.ts", Language: model.LangTS},
	}
	edges := []model.Edge{
		{From: "a.ts", To: "b.ts", Label: model.EdgeReExport},
		{From: "b.ts", To: "a.ts", Label: model.EdgeDynamicImport},
	}

	findings := DetectCycles(files, edges)
	require.Len(t, findings, 1)
	assert.Equal(t, model.SeverityStructural, findings[0].Severity)
}

func TestDetectCycles_NoCycleNoFinding(t *testing.T) {
	files := []model.File{
		{Path: "a.ts", Language: model.LangTS},
		{Path: "b.ts", Language: model.LangTS},
	}
	edges := []model.Edge{
		{From: "a.ts", To: "b.ts", Label: model.EdgeImport},
	}
	assert.Empty(t, DetectCycles(files, edges))
}

func TestDetectCycles_CompressesLargeCycles(t *testing.T) {
	var files []model.File
	var edges []model.Edge
	n := 15
	for i := 0; i < n; i++ {
		path := pathFor(i)
		files = append(files, model.File{Path: path, Language: model.LangTS})
		edges = append(edges, model.Edge{From: path, To: pathFor((i + 1) % n), Label: model.EdgeImport})
	}

	findings := DetectCycles(files, edges)
	require.Len(t, findings, 1)
	ev := findings[0].Evidence.(model.CycleEvidence)
	assert.True(t, ev.Collapsed)
	assert.Len(t, ev.Nodes, 4)
}

func pathFor(i int) string {
	return string(rune('a'+i)) + ".ts"
}
