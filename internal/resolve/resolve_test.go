package resolve

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loctree/loctree/internal/model"
)

func TestResolveTS_Relative(t *testing.T) {
	r := New("/repo", []string{"src/a.ts", "src/b.ts"}, Options{})
	imp := model.Import{Specifier: "./b"}
	out := r.Resolve(imp, "src/a.ts", model.LangTS)
	assert.Equal(t, model.ResolvedFile, out.ResolutionKind)
	assert.Equal(t, "src/b.ts", out.ResolvedPath)
}

func TestResolveTS_UnresolvedRelativeVsExternal(t *testing.T) {
	r := New("/repo", []string{"src/a.ts"}, Options{})

	missing := r.Resolve(model.Import{Specifier: "./missing"}, "src/a.ts", model.LangTS)
	assert.Equal(t, model.ResolvedNone, missing.ResolutionKind)

	external := r.Resolve(model.Import{Specifier: "react"}, "src/a.ts", model.LangTS)
	assert.Equal(t, model.ResolvedExternal, external.ResolutionKind)
}

func TestResolveTS_AmbientModule(t *testing.T) {
	r := New("/repo", []string{"src/a.ts"}, Options{AmbientModules: []string{"virtual:env"}})
	out := r.Resolve(model.Import{Specifier: "virtual:env"}, "src/a.ts", model.LangTS)
	assert.Equal(t, model.ResolvedVirtual, out.ResolutionKind)
}

func TestResolveTS_TSConfigAlias(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "tsconfig.json"), []byte(`{
  "compilerOptions": {
    "baseUrl": ".",
    "paths": { "@app/*": ["src/*"] }
  }
}`), 0o644))

	r := New(root, []string{"src/widgets/button.ts"}, Options{})
	out := r.Resolve(model.Import{Specifier: "@app/widgets/button"}, "src/entry.ts", model.LangTS)
	assert.Equal(t, model.ResolvedFile, out.ResolutionKind)
	assert.Equal(t, "src/widgets/button.ts", out.ResolvedPath)
}

func TestResolvePython_Relative(t *testing.T) {
	r := New("/repo", []string{"pkg/models.py"}, Options{})
	out := r.Resolve(model.Import{Specifier: ".models"}, "pkg/app.py", model.LangPython)
	assert.Equal(t, model.ResolvedFile, out.ResolutionKind)
	assert.Equal(t, "pkg/models.py", out.ResolvedPath)
}

func TestResolveRust_CrateModule(t *testing.T) {
	r := New("/repo", []string{"myapp/src/model.rs"}, Options{})
	out := r.Resolve(model.Import{Specifier: "crate::model"}, "myapp/src/main.rs", model.LangRust)
	assert.Equal(t, model.ResolvedFile, out.ResolutionKind)
	assert.Equal(t, "myapp/src/model.rs", out.ResolvedPath)
}

func TestResolveGo_ModulePackage(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com/app\n\ngo 1.22\n"), 0o644))

	r := New(root, []string{"internal/widget/widget.go"}, Options{})
	out := r.Resolve(model.Import{Specifier: "example.com/app/internal/widget"}, "cmd/main.go", model.LangGo)
	assert.Equal(t, model.ResolvedFile, out.ResolutionKind)
	assert.Equal(t, "internal/widget/widget.go", out.ResolvedPath)
}
