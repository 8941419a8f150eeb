package imports

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/hql-lang/hqlc/internal/herr"
	"github.com/hql-lang/hqlc/internal/macroenv"
	"github.com/hql-lang/hqlc/internal/sexpr"
)

// FileProcessor runs the full lex/parse/transform/macro-expand pipeline
// for the file at resolvedPath, as a side effect populating its
// exports into env (via env.DefineModuleExports) and marking it
// processed (env.MarkProcessedFile) on success. It is supplied by the
// top-level Compile entry point, which alone knows how to run that
// whole pipeline; the Resolver only drives when it is invoked.
//
// Callers MUST bracket their own top-level file with
// Resolver.MarkInProgress/UnmarkInProgress before and after invoking
// their pipeline, exactly as Resolver does internally for nested
// imports, so that a cycle reaching back to the original file is
// detected the same way as any other (spec §4.6 "Cycle handling").
type FileProcessor func(ctx context.Context, resolvedPath string) error

// Resolver implements spec §4.6: parses import forms, resolves local
// paths in order and remote/native specifiers by prefix, detects
// import cycles, and realizes each import's bindings into env.
type Resolver struct {
	env       *macroenv.Environment
	fetcher   Fetcher
	process   FileProcessor
	baseDir   string
	sourceDir string
	log       *slog.Logger

	mu         sync.Mutex
	inProgress map[string]bool
}

func NewResolver(env *macroenv.Environment, fetcher Fetcher, process FileProcessor, baseDir, sourceDir string, log *slog.Logger) *Resolver {
	return &Resolver{
		env:        env,
		fetcher:    fetcher,
		process:    process,
		baseDir:    baseDir,
		sourceDir:  sourceDir,
		log:        log,
		inProgress: make(map[string]bool),
	}
}

// MarkInProgress records path as currently being processed, returning
// true if it was already in progress (a cycle). See FileProcessor's
// doc comment: the root file's own processing must also be bracketed
// with this pair.
func (r *Resolver) MarkInProgress(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inProgress[path] {
		return true
	}
	r.inProgress[path] = true
	return false
}

func (r *Resolver) UnmarkInProgress(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inProgress, path)
}

// ProcessImports scans forms for top-level (import ...) expressions
// and realizes every one of them into r.env. Remote imports are fired
// in parallel and joined before returning (spec §5 "Remote imports of
// one file may run in parallel with each other but must all complete
// before that file's macro expansion begins"); local imports are
// processed strictly in order (spec §4.6 "to guarantee deterministic
// symbol visibility for macro expansion").
func (r *Resolver) ProcessImports(ctx context.Context, currentFile string, forms []*sexpr.SExpr) error {
	var specs []*ImportSpec
	for _, f := range forms {
		spec, err := ParseImportForm(f)
		if err != nil {
			return err
		}
		if spec != nil {
			specs = append(specs, spec)
		}
	}

	var remoteSpecs, localSpecs []*ImportSpec
	for _, s := range specs {
		if IsRemote(s.Path) {
			remoteSpecs = append(remoteSpecs, s)
		} else {
			localSpecs = append(localSpecs, s)
		}
	}

	if err := r.processRemote(ctx, remoteSpecs); err != nil {
		return err
	}

	importerDir := filepath.Dir(currentFile)
	for _, s := range localSpecs {
		if err := r.processLocal(ctx, importerDir, currentFile, s); err != nil {
			return err
		}
	}

	return nil
}

// processRemote fetches every remote specifier concurrently via
// errgroup, grounded on the pack's errgroup.WithContext + mutex
// pattern for joining independent fan-out work
// (Keyhole-Koro-InsightifyCore/cmd/archflow/main.go). A remote
// resolution failure does not abort the file (spec §7: "remote
// resolution failures abort only the specific import and mark the
// dependent file unresolved") — it is logged and the binding is simply
// skipped.
func (r *Resolver) processRemote(ctx context.Context, specs []*ImportSpec) error {
	if len(specs) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, spec := range specs {
		spec := spec
		g.Go(func() error {
			if _, err := FetchRemote(gctx, r.fetcher, spec.Path); err != nil {
				if r.log != nil {
					r.log.Warn("remote import unresolved", "path", spec.Path, "error", err)
				}
				return nil
			}
			r.bindExports(spec, map[string]any{})
			return nil
		})
	}

	return g.Wait()
}

func (r *Resolver) processLocal(ctx context.Context, importerDir, currentFile string, spec *ImportSpec) error {
	resolved, ok := ResolveLocal(spec.Path, importerDir, r.sourceDir, r.baseDir)
	if !ok {
		return herr.New(herr.FamilyImport, herr.KindImportNotFound, spec.Form,
			"cannot resolve import '"+spec.Path+"' from "+currentFile).
			WithDetail(spec.Form, "searched the importer's directory, source_dir, cwd, and cwd/lib/")
	}

	if !r.env.HasProcessedFile(resolved) {
		if already := r.MarkInProgress(resolved); already {
			if r.log != nil {
				r.log.Debug("circular import, trusting the in-progress compilation", "path", resolved)
			}
		} else {
			if r.log != nil {
				r.log.Debug("resolving import", "from", currentFile, "path", spec.Path, "resolved", resolved)
			}
			if err := r.process(ctx, resolved); err != nil {
				r.UnmarkInProgress(resolved)
				return herr.New(herr.FamilyImport, herr.KindImportNotFound, spec.Form,
					"failed to compile imported module '"+spec.Path+"'").WithCause(err)
			}
			r.UnmarkInProgress(resolved)
		}
	}

	exports := r.env.DefineModuleExports(resolved)
	return r.bindLocalExports(currentFile, resolved, spec, exports)
}

// bindLocalExports realizes spec's bindings into r.env (spec §4.6). A
// destructured name that names an exported macro is wired through
// env.ImportMacro instead of the plain value-export map, since macros
// are never values in moduleExports (spec §4.5's third macro-visibility
// tier is exactly this: "imported macros ... visible in a target file
// if imported with optional alias"). A whole-module import
// (SyntaxPath/SyntaxNamed) has no single name to check, so every macro
// the source file exports is imported individually under its own name
// — macros are invoked by bare name, not through the module binding
// bindExports installs alongside.
func (r *Resolver) bindLocalExports(currentFile, resolved string, spec *ImportSpec, exports map[string]any) error {
	switch spec.Syntax {
	case SyntaxDestructure:
		for _, b := range spec.Bindings {
			if r.env.HasExportedMacro(resolved, b.Name) {
				if err := r.env.ImportMacro(resolved, b.Name, currentFile, b.Alias); err != nil {
					return err
				}
				continue
			}
			v, ok := exports[b.Name]
			if !ok {
				return herr.New(herr.FamilyImport, herr.KindExportNotFound, spec.Form,
					"'"+b.Name+"' is not exported from '"+spec.Path+"'")
			}
			r.env.Define(localName(b), v)
		}
		return nil
	default:
		for _, name := range r.env.ExportedMacroNames(resolved) {
			if err := r.env.ImportMacro(resolved, name, currentFile, ""); err != nil {
				return err
			}
		}
		r.bindExports(spec, exports)
		return nil
	}
}

// bindExports binds a whole module's exports map under the name the
// import syntax calls for (spec.Path for SyntaxPath, the local alias
// for SyntaxNamed). Destructuring imports bind per-name instead, via
// bindLocalExports.
func (r *Resolver) bindExports(spec *ImportSpec, exports map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch spec.Syntax {
	case SyntaxPath:
		r.env.Define(spec.Path, exports)
	case SyntaxNamed:
		r.env.Define(spec.LocalName, exports)
	case SyntaxDestructure:
		for _, b := range spec.Bindings {
			r.env.Define(localName(b), exports)
		}
	}
}

func localName(b Binding) string {
	if b.Alias != "" {
		return b.Alias
	}
	return b.Name
}
