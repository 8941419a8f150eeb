package imports

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hql-lang/hqlc/internal/macroenv"
	"github.com/hql-lang/hqlc/internal/sexpr"
	"github.com/hql-lang/hqlc/internal/token"
)

func parseForms(t *testing.T, src string) []*sexpr.SExpr {
	t.Helper()
	reg := token.NewRegistry()
	exprs, err := sexpr.ParseAll("test.hql", src, reg)
	require.NoError(t, err)
	return exprs
}

func TestParseImportFormPathSyntax(t *testing.T) {
	form := parseForms(t, `(import "./util.hql")`)[0]
	spec, err := ParseImportForm(form)
	require.NoError(t, err)
	require.Equal(t, SyntaxPath, spec.Syntax)
	require.Equal(t, "./util.hql", spec.Path)
}

func TestParseImportFormNamedSyntax(t *testing.T) {
	form := parseForms(t, `(import util from "./util.hql")`)[0]
	spec, err := ParseImportForm(form)
	require.NoError(t, err)
	require.Equal(t, SyntaxNamed, spec.Syntax)
	require.Equal(t, "util", spec.LocalName)
	require.Equal(t, "./util.hql", spec.Path)
}

func TestParseImportFormDestructureSyntaxWithAlias(t *testing.T) {
	form := parseForms(t, `(import [a as x b] from "./util.hql")`)[0]
	spec, err := ParseImportForm(form)
	require.NoError(t, err)
	require.Equal(t, SyntaxDestructure, spec.Syntax)
	require.Len(t, spec.Bindings, 2)
	require.Equal(t, "a", spec.Bindings[0].Name)
	require.Equal(t, "x", spec.Bindings[0].Alias)
	require.Equal(t, "b", spec.Bindings[1].Name)
	require.Empty(t, spec.Bindings[1].Alias)
}

func TestParseImportFormIgnoresNonImport(t *testing.T) {
	form := parseForms(t, `(+ 1 2)`)[0]
	spec, err := ParseImportForm(form)
	require.NoError(t, err)
	require.Nil(t, spec)
}

func TestIsRemote(t *testing.T) {
	require.True(t, IsRemote("npm:lodash"))
	require.True(t, IsRemote("jsr:@std/path"))
	require.True(t, IsRemote("node:fs"))
	require.True(t, IsRemote("https://example.com/mod.js"))
	require.False(t, IsRemote("./util.hql"))
	require.False(t, IsRemote("lib/util.hql"))
}

func TestResolveLocalSearchOrder(t *testing.T) {
	base := t.TempDir()
	importerDir := filepath.Join(base, "importer")
	sourceDir := filepath.Join(base, "source")
	require.NoError(t, os.MkdirAll(importerDir, 0o755))
	require.NoError(t, os.MkdirAll(sourceDir, 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(base, "lib"), 0o755))

	// Only present under source_dir: resolves there.
	require.NoError(t, os.WriteFile(filepath.Join(sourceDir, "util.hql"), []byte("()"), 0o644))
	resolved, ok := ResolveLocal("util.hql", importerDir, sourceDir, base)
	require.True(t, ok)
	require.Equal(t, filepath.Join(sourceDir, "util.hql"), resolved)

	// Now also present next to the importer: that one wins (search order).
	require.NoError(t, os.WriteFile(filepath.Join(importerDir, "util.hql"), []byte("()"), 0o644))
	resolved, ok = ResolveLocal("util.hql", importerDir, sourceDir, base)
	require.True(t, ok)
	require.Equal(t, filepath.Join(importerDir, "util.hql"), resolved)

	_, ok = ResolveLocal("missing.hql", importerDir, sourceDir, base)
	require.False(t, ok)
}

func TestParseNpmSpecifierValidatesSemver(t *testing.T) {
	pkg, version, err := parseNpmSpecifier("npm:lodash@4.17.21")
	require.NoError(t, err)
	require.Equal(t, "lodash", pkg)
	require.Equal(t, "4.17.21", version)

	_, _, err = parseNpmSpecifier("npm:lodash@not-a-version")
	require.Error(t, err)

	pkg, version, err = parseNpmSpecifier("npm:lodash")
	require.NoError(t, err)
	require.Equal(t, "lodash", pkg)
	require.Empty(t, version)
}

type stubFetcher struct {
	attempts []string
	failing  map[string]bool
}

func (f *stubFetcher) Fetch(_ context.Context, specifier string) ([]byte, error) {
	f.attempts = append(f.attempts, specifier)
	if f.failing[specifier] {
		return nil, errors.New("unreachable")
	}
	return []byte("module body"), nil
}

func TestFetchRemoteFallsBackToMirrors(t *testing.T) {
	f := &stubFetcher{failing: map[string]bool{
		"npm:left-pad":            true,
		"esm.sh/left-pad":         true,
	}}
	data, err := FetchRemote(context.Background(), f, "npm:left-pad")
	require.NoError(t, err)
	require.Equal(t, []byte("module body"), data)
	require.Equal(t, []string{"npm:left-pad", "esm.sh/left-pad", "cdn.skypack.dev/left-pad"}, f.attempts)
}

func TestFetchRemoteAllMirrorsFail(t *testing.T) {
	f := &stubFetcher{failing: map[string]bool{
		"npm:left-pad":            true,
		"esm.sh/left-pad":         true,
		"cdn.skypack.dev/left-pad": true,
	}}
	_, err := FetchRemote(context.Background(), f, "npm:left-pad")
	require.Error(t, err)
}

func TestFindProjectRootWalksUpward(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(base, ProjectMarkerFile), []byte(""), 0o644))
	nested := filepath.Join(base, "src", "pkg")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	root, err := FindProjectRoot(nested)
	require.NoError(t, err)
	require.Equal(t, base, root)
}

func TestFindProjectRootMissing(t *testing.T) {
	_, err := FindProjectRoot(t.TempDir())
	require.Error(t, err)
}

func TestProcessImportsBindsNamedAndDestructuredLocalExports(t *testing.T) {
	env := macroenv.NewGlobal()
	dir := t.TempDir()
	utilPath := filepath.Join(dir, "util.hql")
	require.NoError(t, os.WriteFile(utilPath, []byte("()"), 0o644))

	processor := func(_ context.Context, path string) error {
		exports := env.DefineModuleExports(path)
		exports["square"] = 1.0
		exports["cube"] = 2.0
		env.MarkProcessedFile(path)
		return nil
	}
	r := NewResolver(env, nil, processor, dir, "", nil)

	mainPath := filepath.Join(dir, "main.hql")
	forms := parseForms(t, `(import util from "./util.hql") (import [square as sq cube] from "./util.hql")`)
	require.NoError(t, r.ProcessImports(context.Background(), mainPath, forms))

	v, ok := env.Lookup("util")
	require.True(t, ok)
	require.Equal(t, 1.0, v.(map[string]any)["square"])

	v, ok = env.Lookup("sq")
	require.True(t, ok)
	require.Equal(t, 1.0, v)

	v, ok = env.Lookup("cube")
	require.True(t, ok)
	require.Equal(t, 2.0, v)
}

func TestProcessImportsBindsDestructuredMacroImportWithAlias(t *testing.T) {
	env := macroenv.NewGlobal()
	dir := t.TempDir()
	utilPath := filepath.Join(dir, "util.hql")
	require.NoError(t, os.WriteFile(utilPath, []byte("()"), 0o644))

	processor := func(_ context.Context, path string) error {
		env.DefineModuleExports(path)
		env.SetCurrentFile(path)
		env.DefineMacro(&macroenv.Macro{Name: "some-macro", SourceFile: path, IsExported: true})
		env.MarkProcessedFile(path)
		return nil
	}
	r := NewResolver(env, nil, processor, dir, "", nil)

	mainPath := filepath.Join(dir, "main.hql")
	forms := parseForms(t, `(import [some-macro as imported-macro] from "./util.hql")`)
	require.NoError(t, r.ProcessImports(context.Background(), mainPath, forms))

	env.SetCurrentFile(mainPath)
	require.True(t, env.HasMacro("imported-macro"))
}

func TestProcessImportsWholeModuleImportsAllExportedMacros(t *testing.T) {
	env := macroenv.NewGlobal()
	dir := t.TempDir()
	utilPath := filepath.Join(dir, "util.hql")
	require.NoError(t, os.WriteFile(utilPath, []byte("()"), 0o644))

	processor := func(_ context.Context, path string) error {
		env.DefineModuleExports(path)
		env.SetCurrentFile(path)
		env.DefineMacro(&macroenv.Macro{Name: "pub-macro", SourceFile: path, IsExported: true})
		env.DefineMacro(&macroenv.Macro{Name: "priv-macro", SourceFile: path, IsExported: false})
		env.MarkProcessedFile(path)
		return nil
	}
	r := NewResolver(env, nil, processor, dir, "", nil)

	mainPath := filepath.Join(dir, "main.hql")
	forms := parseForms(t, `(import "./util.hql")`)
	require.NoError(t, r.ProcessImports(context.Background(), mainPath, forms))

	env.SetCurrentFile(mainPath)
	require.True(t, env.HasMacro("pub-macro"))
	require.False(t, env.HasMacro("priv-macro"))
}

func TestProcessImportsDestructureExportNotFound(t *testing.T) {
	env := macroenv.NewGlobal()
	dir := t.TempDir()
	utilPath := filepath.Join(dir, "util.hql")
	require.NoError(t, os.WriteFile(utilPath, []byte("()"), 0o644))

	processor := func(_ context.Context, path string) error {
		env.DefineModuleExports(path)
		env.MarkProcessedFile(path)
		return nil
	}
	r := NewResolver(env, nil, processor, dir, "", nil)

	forms := parseForms(t, `(import [missing] from "./util.hql")`)
	err := r.ProcessImports(context.Background(), filepath.Join(dir, "main.hql"), forms)
	require.Error(t, err)
}

func TestProcessImportsLocalNotFound(t *testing.T) {
	env := macroenv.NewGlobal()
	dir := t.TempDir()
	r := NewResolver(env, nil, nil, dir, "", nil)

	forms := parseForms(t, `(import "./does-not-exist.hql")`)
	err := r.ProcessImports(context.Background(), filepath.Join(dir, "main.hql"), forms)
	require.Error(t, err)
}

func TestProcessImportsRemoteBindsOpaqueExportsAndToleratesFailure(t *testing.T) {
	env := macroenv.NewGlobal()
	f := &stubFetcher{failing: map[string]bool{"npm:broken-pkg": true, "esm.sh/broken-pkg": true, "cdn.skypack.dev/broken-pkg": true}}
	r := NewResolver(env, f, nil, t.TempDir(), "", nil)

	forms := parseForms(t, `(import lodash from "npm:lodash") (import broken from "npm:broken-pkg")`)
	require.NoError(t, r.ProcessImports(context.Background(), "main.hql", forms))

	v, ok := env.Lookup("lodash")
	require.True(t, ok)
	require.Empty(t, v.(map[string]any))

	_, ok = env.Lookup("broken")
	require.False(t, ok)
}

func TestCircularImportDoesNotRecurseInfinitely(t *testing.T) {
	env := macroenv.NewGlobal()
	dir := t.TempDir()
	aPath := filepath.Join(dir, "a.hql")
	bPath := filepath.Join(dir, "b.hql")
	require.NoError(t, os.WriteFile(aPath, []byte(`(import b from "./b.hql")`), 0o644))
	require.NoError(t, os.WriteFile(bPath, []byte(`(import a from "./a.hql")`), 0o644))

	processed := map[string]int{}
	var r *Resolver
	processor := func(ctx context.Context, path string) error {
		processed[path]++

		src, err := os.ReadFile(path)
		require.NoError(t, err)
		exprs := parseForms(t, string(src))

		if err := r.ProcessImports(ctx, path, exprs); err != nil {
			return err
		}

		exports := env.DefineModuleExports(path)
		if filepath.Base(path) == "a.hql" {
			exports["x"] = 1.0
		} else {
			exports["y"] = 2.0
		}
		env.MarkProcessedFile(path)
		return nil
	}
	r = NewResolver(env, nil, processor, dir, "", nil)

	require.False(t, r.MarkInProgress(aPath))
	require.NoError(t, processor(context.Background(), aPath))
	r.UnmarkInProgress(aPath)

	require.Equal(t, 1, processed[aPath])
	require.Equal(t, 1, processed[bPath])

	aExports, ok := env.ModuleExports(aPath)
	require.True(t, ok)
	require.Equal(t, 1.0, aExports["x"])

	bExports, ok := env.ModuleExports(bPath)
	require.True(t, ok)
	require.Equal(t, 2.0, bExports["y"])
}
