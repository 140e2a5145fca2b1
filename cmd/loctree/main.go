// Command loctree scans one or more source roots and writes a snapshot of
// their cross-file import/export graph plus the structural findings
// derived from it. CLI argument parsing is intentionally minimal here:
// loctree's query and pipeline surfaces are plain Go packages meant to be
// embedded, and this binary is the thinnest wiring over them, not the
// product.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/loctree/loctree/internal/config"
	"github.com/loctree/loctree/internal/pipeline"
	"github.com/loctree/loctree/internal/query"
)

type cliFlags struct {
	Roots        string
	CacheRoot    string
	FullRescan   bool
	Verbose      bool
	WhatImports  string
	WhatDependsOn string
	Impact       string
	Symbol       string
	Version      bool
}

var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var flags cliFlags

	fs := flag.NewFlagSet("loctree", flag.ContinueOnError)
	fs.StringVar(&flags.Roots, "roots", ".", "comma-separated source root directories")
	fs.StringVar(&flags.CacheRoot, "cache-root", "", "override the snapshot cache directory")
	fs.BoolVar(&flags.FullRescan, "full", false, "force reparsing every file regardless of mtime")
	fs.BoolVar(&flags.Verbose, "verbose", false, "print progress events while scanning")
	fs.StringVar(&flags.WhatImports, "what-imports", "", "after scanning, list files that import this path")
	fs.StringVar(&flags.WhatDependsOn, "what-depends-on", "", "after scanning, list files this path depends on")
	fs.StringVar(&flags.Impact, "impact", "", "after scanning, report the blast radius of changing this path")
	fs.StringVar(&flags.Symbol, "symbol", "", "after scanning, look up a symbol name in the snapshot")
	fs.BoolVar(&flags.Version, "version", false, "print version and exit")
	fs.Usage = func() { printUsage(fs) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if flags.Version {
		fmt.Println(version)
		return nil
	}

	roots := splitNonEmpty(flags.Roots, ",")
	if len(roots) == 0 {
		return fmt.Errorf("at least one --roots entry is required")
	}
	for i, r := range roots {
		abs, err := filepath.Abs(r)
		if err != nil {
			return fmt.Errorf("resolving root %q: %w", r, err)
		}
		roots[i] = abs
	}

	log := logrus.New()
	log.SetOutput(os.Stderr)
	if flags.Verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	cfg, err := config.Load(roots[0])
	if err != nil {
		log.WithError(err).Warn("failed to load loctree.yml, continuing with defaults")
		cfg = &config.ProjectConfig{}
	}

	reporter := pipeline.NewReporter()
	done := make(chan struct{})
	if flags.Verbose {
		go func() {
			defer close(done)
			for ev := range reporter.Subscribe() {
				fmt.Fprintln(os.Stderr, pipeline.Format(ev))
			}
		}()
	} else {
		close(done)
	}

	result, err := pipeline.Run(context.Background(), pipeline.Options{
		Roots:      roots,
		Config:     cfg,
		CacheRoot:  flags.CacheRoot,
		FullRescan: flags.FullRescan,
		Logger:     log,
	}, reporter)
	reporter.Close()
	<-done
	if err != nil {
		return fmt.Errorf("could not complete scan: %w", err)
	}

	if result.Skipped {
		fmt.Println("snapshot unchanged; skipped rewrite")
	} else {
		fmt.Printf("scanned %d files, %d edges, %d findings\n",
			result.Snapshot.Metadata.FileCount, len(result.Snapshot.Edges), result.Agent.FindingCount)
	}

	runQueries(result, flags)
	return nil
}

func runQueries(result *pipeline.Result, flags cliFlags) {
	if flags.WhatImports != "" {
		for _, hit := range query.WhatImports(result.Snapshot, flags.WhatImports, 0) {
			fmt.Printf("imports[%d]: %s\n", hit.Depth, hit.Path)
		}
	}
	if flags.WhatDependsOn != "" {
		for _, hit := range query.WhatDependsOn(result.Snapshot, flags.WhatDependsOn, 0) {
			fmt.Printf("depends-on[%d]: %s\n", hit.Depth, hit.Path)
		}
	}
	if flags.Impact != "" {
		for _, hit := range query.Impact(result.Snapshot, []string{flags.Impact}) {
			fmt.Printf("impact[%d]: %s\n", hit.Depth, hit.Path)
		}
	}
	if flags.Symbol != "" {
		for name, refs := range query.SymbolLookup(result.Snapshot, flags.Symbol) {
			for _, ref := range refs {
				fmt.Printf("symbol %s: %s\n", name, ref.File)
			}
		}
	}
}

func splitNonEmpty(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintln(os.Stderr, "loctree scans source roots and reports their import/export graph and structural findings.")
	fs.PrintDefaults()
}
