// Package pipeline sequences the six scan components (C1 path discovery
// through C6 snapshot store) as described in spec.md §5: a single-threaded
// C1, a bounded worker pool for C2/C3, then single-threaded C4/C5/C6 once
// the pool drains.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/loctree/loctree/internal/analysis"
	"github.com/loctree/loctree/internal/config"
	"github.com/loctree/loctree/internal/graph"
	"github.com/loctree/loctree/internal/model"
	"github.com/loctree/loctree/internal/resolve"
	"github.com/loctree/loctree/internal/scan"
	"github.com/loctree/loctree/internal/store"
	"github.com/loctree/loctree/internal/vcsid"
)

const schemaVersion = 1

// Options controls one invocation of Run.
type Options struct {
	Roots          []string
	Config         *config.ProjectConfig
	CacheRoot      string // override; "" defers to config.CacheRoot then auto-detection
	FullRescan     bool
	AmbientModules []string
	Logger         *logrus.Logger // nil defaults to a logger at InfoLevel
}

// Result is everything one Run call produces.
type Result struct {
	Snapshot *model.Snapshot
	Findings *model.Findings
	Agent    *store.AgentSummary
	Skipped  bool // skip-on-identity: artifacts were not rewritten
}

// nowFunc is overridable in tests; production uses time.Now.
var nowFunc = time.Now

// Run executes C1 through C6 for the given roots and configuration,
// reporting progress on reporter if non-nil. It returns (nil, err) only for
// the fatal cases spec.md §6.4 names: the cache root cannot be created or
// written, every root path is invalid, or the cache is held by another
// scan. Every other failure becomes a warning on the returned snapshot.
func Run(ctx context.Context, opts Options, reporter *Reporter) (*Result, error) {
	if reporter == nil {
		reporter = NewReporter()
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = &config.ProjectConfig{}
	}
	log := opts.Logger
	if log == nil {
		log = logrus.New()
		if cfg.Verbose {
			log.SetLevel(logrus.DebugLevel)
		}
	}
	log.WithField("roots", opts.Roots).Info("starting scan")

	reporter.Emit(Event{Stage: StagePaths, Section: "discovering files", Status: StatusWorking})
	entries, walkWarnings, err := scan.Walk(opts.Roots, cfg)
	if err != nil {
		return nil, fmt.Errorf("could not scan roots %v: %w", opts.Roots, err)
	}
	reporter.Emit(Event{Stage: StagePaths, Section: "discovering files", Status: StatusComplete})
	log.WithField("fileCount", len(entries)).Debug("path discovery complete")

	cacheRootOverride := opts.CacheRoot
	if cacheRootOverride == "" {
		cacheRootOverride = cfg.CacheRoot
	}
	baseDir := "."
	if len(opts.Roots) > 0 {
		baseDir = opts.Roots[0]
	}
	cacheRoot := store.ResolveCacheRoot(baseDir, cacheRootOverride)

	scanKey, vcs := vcsid.ScanKey(opts.Roots)

	cache, err := store.OpenCache(cacheRoot)
	if err != nil {
		return nil, err
	}
	defer cache.Close()

	existing, err := cache.Load(scanKey)
	if err != nil {
		return nil, err
	}

	candidateSkeleton := make([]model.File, len(entries))
	for i, e := range entries {
		candidateSkeleton[i] = model.File{Path: e.RelPath, MTimeMillis: e.MTimeMillis}
	}

	if !opts.FullRescan && existing != nil && store.SameIdentity(existing, candidateSkeleton) {
		findings, err := cache.LoadFindings(scanKey)
		if err != nil {
			return nil, err
		}
		agent, err := cache.LoadAgent(scanKey)
		if err != nil {
			return nil, err
		}
		log.WithField("scanKey", scanKey).Info("snapshot unchanged, skipping rewrite")
		return &Result{Snapshot: existing, Findings: findings, Agent: agent, Skipped: true}, nil
	}

	var prevFiles []model.File
	if existing != nil {
		prevFiles = existing.Files
	}
	prevByPath := make(map[string]model.File, len(prevFiles))
	for _, f := range prevFiles {
		prevByPath[f.Path] = f
	}

	var toParse []scan.Entry
	files := make([]model.File, len(entries))
	for i, e := range entries {
		if !opts.FullRescan {
			if prev, ok := prevByPath[e.RelPath]; ok && prev.MTimeMillis == e.MTimeMillis {
				files[i] = prev
				continue
			}
		}
		toParse = append(toParse, e)
	}

	resolverOpts := resolve.Options{AmbientModules: opts.AmbientModules}
	if cfg.ExtraPyRoots != nil {
		resolverOpts.ExtraPyRoots = cfg.ExtraPyRoots
	}
	knownFiles := make([]string, len(entries))
	for i, e := range entries {
		knownFiles[i] = e.RelPath
	}
	resolver := resolve.New(baseDir, knownFiles, resolverOpts)

	start := nowFunc()
	p := newPool(reporter)
	parsed, parseWarnings, err := p.runParseAndResolve(ctx, toParse, resolver)
	if err != nil {
		return nil, err
	}
	idx := 0
	for i := range entries {
		if files[i].Path != "" {
			continue
		}
		files[i] = parsed[idx]
		idx++
	}
	duration := nowFunc().Sub(start)

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	reporter.Emit(Event{Stage: StageGraph, Section: "graph assembly", Status: StatusWorking})
	builder := graph.NewBuilder(files)
	edges, symbolIndex := builder.Build()
	reporter.Emit(Event{Stage: StageGraph, Section: "graph assembly", Status: StatusComplete})

	reporter.Emit(Event{Stage: StageAnalyses, Section: "analyses", Status: StatusWorking})
	cycleEdges := edges
	if !cfg.IncludeDynamicInCycles {
		cycleEdges = make([]model.Edge, 0, len(edges))
		for _, e := range edges {
			if e.Label != model.EdgeDynamicImport {
				cycleEdges = append(cycleEdges, e)
			}
		}
	}
	findings := &model.Findings{
		Cycles:      analysis.DetectCycles(files, cycleEdges),
		DeadExports: analysis.DetectDeadExports(files, edges),
		Twins:       analysis.DetectTwins(symbolIndex, files),
		Orphans:     analysis.DetectOrphans(files, edges),
		BarrelChaos: analysis.DetectBarrelChaos(files, edges),
	}
	reporter.Emit(Event{Stage: StageAnalyses, Section: "analyses", Status: StatusComplete})

	totalLOC := 0
	languageSet := map[string]bool{}
	for _, f := range files {
		totalLOC += f.LOC
		languageSet[string(f.Language)] = true
	}
	languages := make([]string, 0, len(languageSet))
	for l := range languageSet {
		languages = append(languages, l)
	}
	sort.Strings(languages)

	meta := model.Metadata{
		SchemaVersion:  schemaVersion,
		GeneratedAt:    nowFunc().UTC().Format(time.RFC3339),
		Roots:          opts.Roots,
		Languages:      languages,
		FileCount:      len(files),
		TotalLOC:       totalLOC,
		ScanDurationMs: duration.Milliseconds(),
	}
	if vcs != nil {
		meta.VCSBranch = vcs.Branch
		meta.VCSCommit = vcs.Commit
	}

	allWarnings := append([]model.Warning{}, walkWarnings...)
	allWarnings = append(allWarnings, parseWarnings...)
	sort.Slice(allWarnings, func(i, j int) bool { return allWarnings[i].File < allWarnings[j].File })

	snapshot := &model.Snapshot{
		ScanKey:     scanKey,
		Metadata:    meta,
		Files:       files,
		Edges:       edges,
		SymbolIndex: symbolIndex,
		Warnings:    allWarnings,
	}
	agent := store.BuildAgentSummary(snapshot, findings)

	reporter.Emit(Event{Stage: StageStore, Section: "writing snapshot", Status: StatusWorking})
	if err := cache.Write(scanKey, snapshot, findings, agent); err != nil {
		return nil, err
	}
	reporter.Emit(Event{Stage: StageStore, Section: "writing snapshot", Status: StatusComplete})

	log.WithFields(logrus.Fields{
		"files":    len(files),
		"edges":    len(edges),
		"warnings": len(allWarnings),
		"duration": duration.String(),
	}).Info("scan complete")

	return &Result{Snapshot: snapshot, Findings: findings, Agent: agent}, nil
}
