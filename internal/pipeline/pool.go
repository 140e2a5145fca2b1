package pipeline

import (
	"context"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/loctree/loctree/internal/lang"
	"github.com/loctree/loctree/internal/model"
	"github.com/loctree/loctree/internal/resolve"
	"github.com/loctree/loctree/internal/scan"
	"github.com/loctree/loctree/internal/scanerr"
)

// pool dispatches (path, text, language) -> model.File parse-and-resolve
// jobs to a bounded worker pool, sized to hardware parallelism. Each job is
// pure: it reads its own file and returns a self-contained record, so
// workers share no mutable state and the coordinator can assemble the
// final file list in any order.
//
// Modeled after the teacher's FanOut, which dispatched prompts to remote
// agents in parallel with first-error cancellation; here the payload is a
// parse job and failure is recoverable (a warning), not fatal, so an
// individual job error never cancels its siblings.
type pool struct {
	reporter *Reporter
}

func newPool(reporter *Reporter) *pool {
	return &pool{reporter: reporter}
}

// runParseAndResolve parses every entry and resolves its imports, returning
// one model.File per entry in entries' order. A per-file read or parse
// failure yields an empty record plus a warning rather than aborting the
// pool — only context cancellation stops in-flight dispatch early.
func (p *pool) runParseAndResolve(ctx context.Context, entries []scan.Entry, resolver *resolve.Resolver) ([]model.File, []model.Warning, error) {
	files := make([]model.File, len(entries))
	warningsPerJob := make([][]model.Warning, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, entry := range entries {
		i, entry := i, entry
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			p.reporter.Emit(Event{Stage: StageParse, Section: entry.RelPath, Status: StatusWorking})

			file, warnings := parseOne(entry)
			if resolver != nil {
				resolveImports(&file, resolver)
			}

			files[i] = file
			warningsPerJob[i] = warnings
			p.reporter.Emit(Event{Stage: StageParse, Section: entry.RelPath, Status: StatusComplete})
			return nil
		})
	}

	// External cancellation is the only thing that stops this early; a
	// per-file error already became a warning inside parseOne and never
	// reaches the errgroup, so g.Wait only reports ctx cancellation.
	err := g.Wait()

	var allWarnings []model.Warning
	for _, w := range warningsPerJob {
		allWarnings = append(allWarnings, w...)
	}
	return files, allWarnings, err
}

func parseOne(entry scan.Entry) (model.File, []model.Warning) {
	file := model.File{
		Path:        entry.RelPath,
		Root:        entry.Root,
		Language:    entry.Language,
		Kind:        entry.Kind,
		MTimeMillis: entry.MTimeMillis,
	}

	source, err := os.ReadFile(entry.AbsPath)
	if err != nil {
		w := model.Warning{File: entry.RelPath, Message: scanerr.IO(entry.AbsPath, err).Error(), Kind: string(scanerr.KindIO)}
		return file, []model.Warning{w}
	}

	result := lang.Parse(entry.AbsPath, source, entry.Language)
	file.LOC = result.LOC
	file.Imports = result.Imports
	file.Exports = result.Exports
	file.LocalTypeRefs = result.LocalTypeRefs
	file.IsEntry = result.IsEntry

	var warnings []model.Warning
	for _, msg := range result.Warnings {
		warnings = append(warnings, model.Warning{File: entry.RelPath, Message: msg, Kind: string(scanerr.KindParse)})
	}
	return file, warnings
}

func resolveImports(file *model.File, resolver *resolve.Resolver) {
	for i, imp := range file.Imports {
		file.Imports[i] = resolver.Resolve(imp, file.Path, file.Language)
	}
}

