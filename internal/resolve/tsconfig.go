package resolve

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// tsconfig is the subset of tsconfig.json this resolver cares about.
type tsconfig struct {
	Extends         string              `json:"extends"`
	CompilerOptions *tsconfigCompilerOp `json:"compilerOptions"`
}

type tsconfigCompilerOp struct {
	BaseURL string              `json:"baseUrl"`
	Paths   map[string][]string `json:"paths"`
}

// jsonCommentRe strips // line comments and /* */ block comments; tsconfig
// files are JSONC (comments, trailing commas) which encoding/json rejects
// outright. No comment-tolerant JSON library appeared anywhere in the
// examples corpus, so this narrow preprocessing step runs on the standard
// library's json package rather than pulling in a parser this resolver
// otherwise has no use for.
var (
	jsonLineCommentRe  = regexp.MustCompile(`//[^\n]*`)
	jsonBlockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)
	jsonTrailingCommaRe = regexp.MustCompile(`,(\s*[}\]])`)
)

func stripJSONC(data []byte) []byte {
	s := string(data)
	s = jsonBlockCommentRe.ReplaceAllString(s, "")
	s = jsonLineCommentRe.ReplaceAllString(s, "")
	s = jsonTrailingCommaRe.ReplaceAllString(s, "$1")
	return []byte(s)
}

// tsconfigAliases resolves baseUrl + paths across an extends chain, rooted
// at tsconfigPath. Later (closer-to-root) entries do not override an alias
// already defined by a file earlier in the chain — the first config found
// wins, matching how the TypeScript compiler itself merges `paths`.
type tsconfigAliases struct {
	baseDir string              // directory baseUrl is relative to
	baseURL string
	paths   map[string][]string
}

func loadTSConfigAliases(tsconfigPath string) *tsconfigAliases {
	result := &tsconfigAliases{paths: make(map[string][]string)}
	visited := make(map[string]bool)
	path := tsconfigPath

	for path != "" && !visited[path] {
		visited[path] = true
		data, err := os.ReadFile(path)
		if err != nil {
			break
		}
		var cfg tsconfig
		if err := json.Unmarshal(stripJSONC(data), &cfg); err != nil {
			break
		}

		dir := filepath.Dir(path)
		if cfg.CompilerOptions != nil {
			if result.baseURL == "" && cfg.CompilerOptions.BaseURL != "" {
				result.baseURL = cfg.CompilerOptions.BaseURL
				result.baseDir = dir
			}
			for k, v := range cfg.CompilerOptions.Paths {
				if _, exists := result.paths[k]; !exists {
					result.paths[k] = v
				}
			}
		}

		if cfg.Extends == "" {
			break
		}
		next := cfg.Extends
		if !strings.HasSuffix(next, ".json") {
			next += ".json"
		}
		path = filepath.Join(dir, next)
	}

	if result.baseURL == "" {
		return nil
	}
	return result
}

// resolveAlias expands spec against the paths map, returning every candidate
// base path (without extension, joined onto the tsconfig's directory) in
// priority order.
func (a *tsconfigAliases) resolveAlias(spec string) []string {
	if a == nil {
		return nil
	}
	baseAbs := filepath.Join(a.baseDir, a.baseURL)

	for pattern, targets := range a.paths {
		prefix := strings.TrimSuffix(pattern, "*")
		if !strings.Contains(pattern, "*") {
			if spec != pattern {
				continue
			}
			var out []string
			for _, t := range targets {
				out = append(out, filepath.Join(baseAbs, t))
			}
			return out
		}
		if !strings.HasPrefix(spec, prefix) {
			continue
		}
		rest := strings.TrimPrefix(spec, prefix)
		var out []string
		for _, t := range targets {
			target := strings.Replace(t, "*", rest, 1)
			out = append(out, filepath.Join(baseAbs, target))
		}
		return out
	}

	// No explicit paths entry matched: fall back to resolving directly
	// against baseUrl, which the TypeScript compiler also does.
	return []string{filepath.Join(baseAbs, spec)}
}
