package scan

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// pattern is a single compiled gitignore-style ignore rule.
type pattern struct {
	glob     string
	negated  bool
	dirOnly  bool
	anchored bool
}

// ignoreMatcher evaluates a path against an ordered set of gitignore-style
// patterns: later patterns win, and a "!"-prefixed pattern re-includes a
// path an earlier pattern excluded.
type ignoreMatcher struct {
	patterns []pattern
}

func newIgnoreMatcher() *ignoreMatcher {
	return &ignoreMatcher{}
}

func (m *ignoreMatcher) addPattern(line string) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return
	}

	p := pattern{}
	if strings.HasPrefix(line, "!") {
		p.negated = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		p.dirOnly = true
		line = strings.TrimSuffix(line, "/")
	}
	if strings.HasPrefix(line, "/") {
		p.anchored = true
		line = line[1:]
	}
	if !p.anchored && !strings.Contains(line, "/") {
		line = "**/" + line
	}
	p.glob = line
	m.patterns = append(m.patterns, p)
}

func (m *ignoreMatcher) addPatterns(lines []string) {
	for _, l := range lines {
		m.addPattern(l)
	}
}

// match reports whether relPath (slash-separated, relative to the scan
// root) should be excluded. isDir tells dirOnly patterns whether they
// should test the path itself or only its ancestors.
func (m *ignoreMatcher) match(relPath string, isDir bool) bool {
	relPath = filepath.ToSlash(relPath)
	relPath = strings.TrimPrefix(relPath, "./")

	ignored := false
	for _, p := range m.patterns {
		if p.dirOnly && !isDir {
			if matchesAncestor(p.glob, relPath) {
				ignored = !p.negated
			}
			continue
		}
		if matchesGlob(p.glob, relPath) {
			ignored = !p.negated
		}
	}
	return ignored
}

func matchesAncestor(glob, relPath string) bool {
	parts := strings.Split(relPath, "/")
	for i := 1; i < len(parts); i++ {
		if matchesGlob(glob, strings.Join(parts[:i], "/")) {
			return true
		}
	}
	return false
}

func matchesGlob(glob, relPath string) bool {
	if ok, _ := doublestar.Match(glob, relPath); ok {
		return true
	}
	if !strings.HasSuffix(glob, "/**") {
		if ok, _ := doublestar.Match(glob+"/**", relPath); ok {
			return true
		}
	}
	return false
}
