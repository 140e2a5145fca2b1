// Package vcsid derives the scan-key a snapshot is cached under: a VCS
// identity when the scan roots sit inside a git repository, otherwise a
// hash of the canonicalized root paths.
package vcsid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
)

// Info carries the VCS identity recovered for a set of scan roots.
type Info struct {
	Branch string
	Commit string
}

// ScanKey derives the scan-key for the given roots: "branch@commit" when
// roots sit inside a git worktree, otherwise a hash of the canonicalized,
// sorted root set.
func ScanKey(roots []string) (key string, vcs *Info) {
	if len(roots) > 0 {
		if info := detect(roots[0]); info != nil {
			return info.Branch + "@" + info.Commit, info
		}
	}
	return hashRoots(roots), nil
}

// detect opens path as a git worktree and recovers its branch and commit.
// It returns nil when path is not inside a git repository.
func detect(path string) *Info {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil
	}
	head, err := repo.Head()
	if err != nil {
		return nil
	}

	info := &Info{Commit: head.Hash().String()}
	if head.Name().IsBranch() {
		info.Branch = head.Name().Short()
	} else {
		info.Branch = "HEAD"
	}
	return info
}

// hashRoots returns a deterministic SHA-256 hex digest of the cleaned,
// absolute, sorted root list, joined by a separator that cannot appear in a
// path component.
func hashRoots(roots []string) string {
	cleaned := make([]string, 0, len(roots))
	for _, r := range roots {
		abs, err := filepath.Abs(r)
		if err != nil {
			abs = filepath.Clean(r)
		}
		cleaned = append(cleaned, abs)
	}
	sort.Strings(cleaned)

	h := sha256.Sum256([]byte(strings.Join(cleaned, "\x00")))
	return hex.EncodeToString(h[:])[:20]
}
