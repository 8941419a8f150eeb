// Package hqlc implements the HQL compilation core (spec §0-9): lexer,
// parser, syntax transformer, import resolver, hygienic macro expander
// and IR lowering, wired together behind the single Compile entry
// point (spec §6, "compile(source, options) -> { ir, diagnostics,
// source_map? }").
package hqlc

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hql-lang/hqlc/internal/herr"
	"github.com/hql-lang/hqlc/internal/imports"
	"github.com/hql-lang/hqlc/internal/ir"
	"github.com/hql-lang/hqlc/internal/macro"
	"github.com/hql-lang/hqlc/internal/macroenv"
	"github.com/hql-lang/hqlc/internal/sexpr"
	"github.com/hql-lang/hqlc/internal/token"
	"github.com/hql-lang/hqlc/internal/transform"
)

// Options configures a Compile run (spec §6's options record, rendered
// as a Go struct). Zero values are meaningful: ResolveOptions fills in
// the documented defaults.
type Options struct {
	BaseDir     string
	SourceDir   string
	Verbose     bool
	ShowTiming  bool
	CurrentFile string
	TempDir     string
	UseCache    bool
	Logger      *slog.Logger

	// Fetcher loads remote/native module specifiers for
	// internal/imports. Left nil, ResolveOptions installs a
	// net/http-backed default.
	Fetcher imports.Fetcher
}

// ResolveOptions fills the zero-valued fields of opts with spec
// defaults: base_dir = cwd, use_cache = true, a default slog.Logger
// (JSON on stderr, Info or Debug when verbose), and a default remote
// Fetcher, following gnana997-uispec/pkg/util/logger.go's
// LoggerConfig/NewLogger pattern in spirit.
func ResolveOptions(opts Options) Options {
	resolved := opts

	if resolved.BaseDir == "" {
		if wd, err := os.Getwd(); err == nil {
			resolved.BaseDir = wd
		}
	}

	// Options is a plain value struct (per spec §6), so a caller has no
	// way to distinguish "left unset" from "explicitly false" for a
	// bool field. Resolving always turns UseCache on. Compile resolves
	// the options it is given, so a false UseCache never reaches the
	// pipeline, and no pipeline stage reads the field: the lookup and
	// expansion caches are always in use.
	resolved.UseCache = true

	if resolved.Logger == nil {
		level := slog.LevelInfo
		if resolved.Verbose {
			level = slog.LevelDebug
		}
		resolved.Logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	}

	if resolved.Fetcher == nil {
		resolved.Fetcher = &httpFetcher{client: http.DefaultClient}
	}

	return resolved
}

// SourceMapSegment is a single line-level mapping entry. Column-level
// and multi-file source maps are out of scope (SPEC_FULL.md Non-goals:
// "source maps beyond line-level mapping"); each top-level IR node
// contributes one segment recording where in the original source it
// came from.
type SourceMapSegment struct {
	GeneratedIndex int
	File           string
	Line           int
	Column         int
}

// Result is Compile's return value: spec §6's { ir, diagnostics,
// source_map? }.
type Result struct {
	IR          *ir.Node
	Diagnostics []herr.Diagnostic
	SourceMap   []SourceMapSegment
}

// Compile runs the full pipeline described by spec §1-4 over source:
// lex, parse, transform (desugar + symbol table), resolve imports,
// hygienically macro-expand to a fixed point, then lower to IR. The
// core never exits a process (spec §6 "Exit conditions"); failures
// surface as diagnostics on the returned Result, plus a non-nil error
// only for conditions spec §7 says abort the whole compilation (lex/
// parse failure of the entry file, or a nonexistent local import).
func Compile(ctx context.Context, source string, opts Options) (*Result, error) {
	opts = ResolveOptions(opts)
	runID := uuid.New().String()
	log := opts.Logger.With("run_id", runID)

	currentFile := opts.CurrentFile
	if currentFile == "" {
		currentFile = "<input>"
	}

	log.Debug("compile starting", "file", currentFile)

	c := &compilation{
		opts:     opts,
		reg:      token.NewRegistry(),
		reporter: &herr.Reporter{},
		env:      macroenv.NewGlobal(),
		log:      log,
	}
	// internal/imports.Resolver's FileProcessor calls back into
	// c.compileFile for every local import it discovers; one Resolver
	// (and so one shared in-progress set) is used for the whole run so
	// a cycle reaching any previously-visited file is actually caught,
	// rather than each recursive compileFile call tracking its own
	// isolated in-progress map (spec §8 "Cycle safety").
	c.resolver = imports.NewResolver(c.env, opts.Fetcher, c.compileImportedFile, opts.BaseDir, opts.SourceDir, log)

	return c.compileFile(ctx, source, currentFile)
}

// compilation holds the state one Compile run threads through every
// file it visits: the shared macro environment, source registry,
// diagnostic reporter, and the single import resolver whose in-progress
// bookkeeping must span the whole recursive file graph.
type compilation struct {
	opts     Options
	reg      *token.Registry
	reporter *herr.Reporter
	env      *macroenv.Environment
	resolver *imports.Resolver
	log      *slog.Logger
}

// compileFile runs the pipeline for one file's source text against the
// shared macro environment, returning its lowered IR Program. It also
// serves as the FileProcessor internal/imports.Resolver invokes (via
// compileImportedFile) for each local import it discovers, so that
// imported files populate the same environment with their exports and
// processed-file bookkeeping (spec §4.6).
func (c *compilation) compileFile(ctx context.Context, source, file string) (*Result, error) {
	c.env.SetCurrentFile(file)

	stage := func(name string, fn func() error) error {
		start := time.Now()
		err := fn()
		if c.opts.ShowTiming {
			c.log.Info("stage complete", "file", file, "stage", name, "elapsed", time.Since(start).String())
		}
		return err
	}

	// sexpr.ParseAll registers file/source with c.reg itself (stripping
	// the BOM first) so source[node.position] slicing and context-line
	// rendering agree on the same stripped text (spec §8 "Position
	// preservation"); a parse/lex failure already arrives as a
	// positioned *herr.Error, so it is returned as-is rather than
	// re-wrapped (spec §7: "lexer and parser errors abort the
	// compilation of that file").
	var exprs []*sexpr.SExpr
	if err := stage("parse", func() error {
		var perr error
		exprs, perr = sexpr.ParseAll(file, source, c.reg)
		return perr
	}); err != nil {
		return nil, err
	}

	var result *transform.Result
	stage("transform", func() error {
		result = transform.Transform(exprs, c.reporter, c.log)
		return nil
	})

	c.resolver.MarkInProgress(file)
	defer c.resolver.UnmarkInProgress(file)

	if err := stage("imports", func() error {
		return c.resolver.ProcessImports(ctx, file, result.Canonical)
	}); err != nil {
		return nil, err
	}

	var expanded []*sexpr.SExpr
	stage("macro-expand", func() error {
		expanded = macro.NewExpander(c.env, c.log).Expand(result.Canonical, c.reporter)
		return nil
	})

	var program *ir.Node
	stage("lower", func() error {
		program = ir.Lower(expanded, result.Symbols, c.reporter)
		return nil
	})

	c.env.MarkProcessedFile(file)
	c.env.DefineModuleExports(file)

	c.log.Debug("compile finished", "file", file, "diagnostics", len(c.reporter.Diagnostics()))

	return &Result{
		IR:          program,
		Diagnostics: c.reporter.Diagnostics(),
		SourceMap:   buildSourceMap(program, file),
	}, nil
}

// compileImportedFile is the FileProcessor callback handed to
// imports.Resolver: it reads resolvedPath from disk and recompiles it
// against the same shared environment, discarding the per-file Result
// (its exports and processed-file marker are what the resolver cares
// about; they were already recorded as a side effect inside
// compileFile before this returns).
func (c *compilation) compileImportedFile(ctx context.Context, resolvedPath string) error {
	data, err := os.ReadFile(resolvedPath)
	if err != nil {
		return herr.New(herr.FamilyImport, herr.KindImportNotFound, zeroNode(),
			"cannot read imported module '"+resolvedPath+"'").WithCause(err)
	}

	_, err = c.compileFile(ctx, string(data), resolvedPath)
	return err
}

func buildSourceMap(program *ir.Node, file string) []SourceMapSegment {
	if program == nil {
		return nil
	}
	segs := make([]SourceMapSegment, 0, len(program.Body))
	for i, n := range program.Body {
		segs = append(segs, SourceMapSegment{
			GeneratedIndex: i,
			File:           file,
			Line:           n.BeginPos.Line,
			Column:         n.BeginPos.Col,
		})
	}
	return segs
}

func zeroNode() token.Node { return token.NewNode(token.Pos{}, token.Pos{}) }

// httpFetcher is the default imports.Fetcher: a thin net/http client
// that treats a remote specifier as a URL, adding an https:// scheme
// when the specifier (or mirror host, per internal/imports.FetchRemote)
// doesn't already carry one. The production host may supply its own
// Fetcher via Options (e.g. one backed by a local package cache); this
// default exists so Compile works standalone.
type httpFetcher struct {
	client *http.Client
}

func (f *httpFetcher) Fetch(ctx context.Context, specifier string) ([]byte, error) {
	url := specifier
	if strings.HasPrefix(url, "npm:") {
		url = "https://registry.npmjs.org/" + strings.TrimPrefix(url, "npm:")
	} else if !strings.Contains(url, "://") {
		url = "https://" + url
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: status %s", url, resp.Status)
	}

	return io.ReadAll(resp.Body)
}
