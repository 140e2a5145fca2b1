package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loctree/loctree/internal/model"
)

func TestDetectTwins_SameLanguageDuplicateFlagged(t *testing.T) {
	files := []model.File{
		{Path: "a.ts", Language: model.LangTS},
		{Path: "b.ts", Language: model.LangTS},
	}
	symbolIndex := map[string][]model.SymbolRef{
		"Widget": {
			{File: "a.ts", Export: model.Export{Name: "Widget"}},
			{File: "b.ts", Export: model.Export{Name: "Widget"}},
		},
	}
	findings := DetectTwins(symbolIndex, files)
	require.Len(t, findings, 1)
	assert.ElementsMatch(t, []string{"a.ts", "b.ts"}, findings[0].Files)
}

func TestDetectTwins_FrameworkConventionCrossLanguageSuppressed(t *testing.T) {
	files := []model.File{
		{Path: "a.py", Language: model.LangPython},
		{Path: "b.go", Language: model.LangGo},
	}
	symbolIndex := map[string][]model.SymbolRef{
		"main": {
			{File: "a.py", Export: model.Export{Name: "main"}},
			{File: "b.go", Export: model.Export{Name: "main"}},
		},
	}
	assert.Empty(t, DetectTwins(symbolIndex, files))
}

func TestDetectTwins_TestFilesExcluded(t *testing.T) {
	files := []model.File{
		{Path: "a.ts", Language: model.LangTS, Kind: model.KindCode},
		{Path: "a.test.ts", Language: model.LangTS, Kind: model.KindTest},
	}
	symbolIndex := map[string][]model.SymbolRef{
		"helper": {
			{File: "a.ts", Export: model.Export{Name: "helper"}},
			{File: "a.test.ts", Export: model.Export{Name: "helper"}},
		},
	}
	assert.Empty(t, DetectTwins(symbolIndex, files))
}

func TestDetectOrphans_NoInboundFlagged(t *testing.T) {
	files := []model.File{
		{Path: "orphan.ts", Language: model.LangTS, Kind: model.KindCode},
		{Path: "main.ts", Language: model.LangTS, Kind: model.KindCode, IsEntry: true},
	}
	edges := []model.Edge{{From: "main.ts", To: "used.ts", Label: model.EdgeImport}}
	findings := DetectOrphans(files, edges)
	require.Len(t, findings, 1)
	assert.Equal(t, "orphan.ts", findings[0].Files[0])
}

func TestDetectOrphans_EntrySuppressed(t *testing.T) {
	files := []model.File{{Path: "main.ts", Language: model.LangTS, IsEntry: true}}
	assert.Empty(t, DetectOrphans(files, nil))
}
