package hqlc

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hql-lang/hqlc/internal/herr"
	"github.com/hql-lang/hqlc/internal/ir"
)

func TestResolveOptionsFillsDefaults(t *testing.T) {
	resolved := ResolveOptions(Options{})

	require.NotEmpty(t, resolved.BaseDir)
	require.True(t, resolved.UseCache)
	require.NotNil(t, resolved.Logger)
	require.NotNil(t, resolved.Fetcher)
}

func TestResolveOptionsPreservesExplicitFields(t *testing.T) {
	resolved := ResolveOptions(Options{BaseDir: "/tmp/project", Verbose: true})

	require.Equal(t, "/tmp/project", resolved.BaseDir)
	require.True(t, resolved.Verbose)
}

func TestCompileSimpleExpression(t *testing.T) {
	res, err := Compile(context.Background(), `(+ 1 2)`, Options{CurrentFile: "main.hql"})
	require.NoError(t, err)
	require.Empty(t, res.Diagnostics)
	require.Len(t, res.IR.Body, 1)

	stmt := res.IR.Body[0]
	require.Equal(t, ir.KindExpressionStatement, stmt.Kind)
	require.Equal(t, ir.KindBinaryExpression, stmt.A.Kind)
	require.Equal(t, "+", stmt.A.Operator)

	require.Len(t, res.SourceMap, 1)
	require.Equal(t, "main.hql", res.SourceMap[0].File)
}

func TestCompileReturnsParseErrorUnwrapped(t *testing.T) {
	_, err := Compile(context.Background(), `(+ 1 2`, Options{CurrentFile: "broken.hql"})
	require.Error(t, err)

	he, ok := err.(*herr.Error)
	require.True(t, ok)
	require.Equal(t, herr.FamilyParse, he.Family)
	require.Equal(t, herr.KindUnclosedList, he.Kind)
}

func TestCompileResolvesLocalImportExports(t *testing.T) {
	dir := t.TempDir()
	mathFile := filepath.Join(dir, "math.hql")
	require.NoError(t, os.WriteFile(mathFile, []byte(`(export (let square 2))`), 0o644))

	mainFile := filepath.Join(dir, "main.hql")
	source := `(import m from "math.hql") (m)`

	res, err := Compile(context.Background(), source, Options{BaseDir: dir, CurrentFile: mainFile})
	require.NoError(t, err)
	require.NotNil(t, res)
}

// TestCompileCircularLocalImportTerminates covers spec §8's "cycle
// safety" property (scenario 5): a.hql importing b.hql importing a.hql
// back must terminate rather than recurse forever.
func TestCompileCircularLocalImportTerminates(t *testing.T) {
	dir := t.TempDir()
	aFile := filepath.Join(dir, "a.hql")
	bFile := filepath.Join(dir, "b.hql")

	require.NoError(t, os.WriteFile(aFile, []byte(`(import "b.hql")`), 0o644))
	require.NoError(t, os.WriteFile(bFile, []byte(`(import "a.hql")`), 0o644))

	source, err := os.ReadFile(aFile)
	require.NoError(t, err)

	done := make(chan struct{})
	var res *Result
	var compileErr error
	go func() {
		res, compileErr = Compile(context.Background(), string(source), Options{BaseDir: dir, CurrentFile: aFile})
		close(done)
	}()

	select {
	case <-done:
		require.NoError(t, compileErr)
		require.NotNil(t, res)
	case <-time.After(5 * time.Second):
		t.Fatal("Compile did not terminate on a circular import")
	}
}
