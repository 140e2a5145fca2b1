package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/loctree/loctree/internal/model"
	"github.com/loctree/loctree/internal/scanerr"
)

const defaultCacheDirName = ".loctree"

// Manifest indexes the artifacts written for one scan-key.
type Manifest struct {
	SchemaVersion int    `json:"schemaVersion"`
	ScanKey       string `json:"scanKey"`
	Snapshot      string `json:"snapshot"`
	Findings      string `json:"findings"`
	Agent         string `json:"agent"`
}

// AgentSummary is the compact top-hubs / quick-wins document consumed by
// tools that don't want the full snapshot.
type AgentSummary struct {
	FileCount     int      `json:"fileCount"`
	EdgeCount     int      `json:"edgeCount"`
	FindingCount  int      `json:"findingCount"`
	TopHubs       []string `json:"topHubs"`
	QuickWins     []string `json:"quickWins"`
}

// Cache locates and guards the on-disk artifact directory for a scan-key,
// implementing the layout, atomic writes, and advisory locking spec.md §4.6
// and §5 require.
type Cache struct {
	root string // <cache-root>, e.g. ".loctree"
	lock *os.File
}

// ResolveCacheRoot returns <cache-root>: an explicit override if given,
// otherwise ".loctree" under the nearest ancestor of dir that already
// contains one, otherwise ".loctree" directly under dir.
func ResolveCacheRoot(dir, override string) string {
	if override != "" {
		return override
	}
	cur, err := filepath.Abs(dir)
	if err != nil {
		cur = dir
	}
	for {
		candidate := filepath.Join(cur, defaultCacheDirName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			break
		}
		cur = parent
	}
	return filepath.Join(dir, defaultCacheDirName)
}

// OpenCache creates root if needed and takes the advisory cache-root lock.
// A second concurrent scan of the same root fails fast with a
// concurrency_error rather than interleaving writes.
func OpenCache(root string) (*Cache, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, scanerr.IO(root, err)
	}
	lockPath := filepath.Join(root, ".lock")
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, scanerr.IO(lockPath, err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()
		return nil, scanerr.Concurrency(root, fmt.Errorf("cache root is locked by another scan"))
	}
	return &Cache{root: root, lock: f}, nil
}

// Close releases the advisory lock.
func (c *Cache) Close() error {
	if c.lock == nil {
		return nil
	}
	syscall.Flock(int(c.lock.Fd()), syscall.LOCK_UN)
	return c.lock.Close()
}

// ScanDir is the directory a given scan-key's artifacts live under.
func (c *Cache) ScanDir(scanKey string) string {
	return filepath.Join(c.root, scanKey)
}

// Load reads a previously written snapshot for scanKey, or returns nil,nil
// if none exists yet.
func (c *Cache) Load(scanKey string) (*model.Snapshot, error) {
	path := filepath.Join(c.ScanDir(scanKey), "snapshot.json")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, scanerr.IO(path, err)
	}
	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, scanerr.IO(path, err)
	}
	return &snap, nil
}

// LoadFindings reads a previously written findings document for scanKey.
func (c *Cache) LoadFindings(scanKey string) (*model.Findings, error) {
	path := filepath.Join(c.ScanDir(scanKey), "findings.json")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &model.Findings{}, nil
	}
	if err != nil {
		return nil, scanerr.IO(path, err)
	}
	var findings model.Findings
	if err := json.Unmarshal(data, &findings); err != nil {
		return nil, scanerr.IO(path, err)
	}
	return &findings, nil
}

// LoadAgent reads a previously written agent summary for scanKey.
func (c *Cache) LoadAgent(scanKey string) (*AgentSummary, error) {
	path := filepath.Join(c.ScanDir(scanKey), "agent.json")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &AgentSummary{}, nil
	}
	if err != nil {
		return nil, scanerr.IO(path, err)
	}
	var agent AgentSummary
	if err := json.Unmarshal(data, &agent); err != nil {
		return nil, scanerr.IO(path, err)
	}
	return &agent, nil
}

// SameIdentity reports whether snap's file paths and mtimes are
// byte-identical to the given current file list, used for skip-on-identity.
func SameIdentity(snap *model.Snapshot, current []model.File) bool {
	if snap == nil || len(snap.Files) != len(current) {
		return false
	}
	prev := make(map[string]int64, len(snap.Files))
	for _, f := range snap.Files {
		prev[f.Path] = f.MTimeMillis
	}
	for _, f := range current {
		mtime, ok := prev[f.Path]
		if !ok || mtime != f.MTimeMillis {
			return false
		}
	}
	return true
}

// Write persists the snapshot, findings, agent summary, and manifest for
// scanKey, each via a temp-file-then-rename so a partial write is never
// visible under the scan-key directory.
func (c *Cache) Write(scanKey string, snapshot *model.Snapshot, findings *model.Findings, agent *AgentSummary) error {
	dir := c.ScanDir(scanKey)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return scanerr.IO(dir, err)
	}

	snapshotPath := filepath.Join(dir, "snapshot.json")
	findingsPath := filepath.Join(dir, "findings.json")
	agentPath := filepath.Join(dir, "agent.json")
	manifestPath := filepath.Join(dir, "manifest.json")

	if err := writeJSONAtomic(snapshotPath, snapshot); err != nil {
		return err
	}
	if err := writeJSONAtomic(findingsPath, findings); err != nil {
		return err
	}
	if err := writeJSONAtomic(agentPath, agent); err != nil {
		return err
	}
	manifest := &Manifest{
		SchemaVersion: snapshot.Metadata.SchemaVersion,
		ScanKey:       scanKey,
		Snapshot:      "snapshot.json",
		Findings:      "findings.json",
		Agent:         "agent.json",
	}
	return writeJSONAtomic(manifestPath, manifest)
}

// writeJSONAtomic marshals v and writes it to path via a temp sibling file
// renamed over the target, so a reader never observes a partial write.
func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return scanerr.IO(path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return scanerr.IO(path, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return scanerr.IO(path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return scanerr.IO(path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return scanerr.IO(path, fmt.Errorf("could not write snapshot to %s: %w", path, err))
	}
	return nil
}

// BuildAgentSummary derives the compact agent.json document from a snapshot
// and its findings: the busiest files by fan-in/fan-out, and the
// high-confidence dead exports that are the cheapest wins to act on.
func BuildAgentSummary(snapshot *model.Snapshot, findings *model.Findings) *AgentSummary {
	fanIn := make(map[string]int)
	fanOut := make(map[string]int)
	for _, e := range snapshot.Edges {
		fanOut[e.From]++
		fanIn[e.To]++
	}
	total := make(map[string]int, len(snapshot.Files))
	for _, f := range snapshot.Files {
		total[f.Path] = fanIn[f.Path] + fanOut[f.Path]
	}

	paths := make([]string, 0, len(total))
	for p := range total {
		paths = append(paths, p)
	}
	sort.Slice(paths, func(i, j int) bool {
		if total[paths[i]] != total[paths[j]] {
			return total[paths[i]] > total[paths[j]]
		}
		return paths[i] < paths[j]
	})
	topN := 10
	if len(paths) < topN {
		topN = len(paths)
	}

	var quickWins []string
	for _, f := range findings.DeadExports {
		if ev, ok := f.Evidence.(model.DeadExportEvidence); ok && ev.Confidence == model.ConfidenceHigh {
			quickWins = append(quickWins, fmt.Sprintf("%s: remove unused export %q", f.Files[0], ev.Name))
		}
	}

	return &AgentSummary{
		FileCount: len(snapshot.Files),
		EdgeCount: len(snapshot.Edges),
		FindingCount: len(findings.Cycles) + len(findings.DeadExports) + len(findings.Twins) +
			len(findings.Orphans) + len(findings.BarrelChaos),
		TopHubs:   paths[:topN],
		QuickWins: quickWins,
	}
}
