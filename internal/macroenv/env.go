// Package macroenv implements the Environment of spec §4.5: lexically
// chained name->value bindings, a shared three-tier macro registry,
// and the built-in operator table, with an LRU lookup cache mirroring
// the teacher pack's use of hashicorp/golang-lru for hot-path caches.
package macroenv

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/hql-lang/hqlc/internal/herr"
	"github.com/hql-lang/hqlc/internal/sexpr"
	"github.com/hql-lang/hqlc/internal/token"
)

const lookupCacheSize = 2048

// Macro is the macro record of spec §3/§4.4: a pure function from an
// argument list of (unevaluated) S-expressions and the call
// environment to a single S-expression.
type Macro struct {
	Name       string
	Params     []string
	RestParam  string // empty if no rest parameter
	Body       []*sexpr.SExpr
	SourceFile string
	IsSystem   bool
	IsExported bool
}

// registry is the shared, mutable structure backing every Environment
// spawned from the same global root (spec §4.5: "macros live in a
// shared registry ... inherited by all children").
type registry struct {
	system  map[string]*Macro
	module  map[string]map[string]*Macro   // file -> name -> macro
	imports map[string]map[string]string   // file -> local_name -> source_file
	aliases map[string]map[string]string   // file -> alias -> original
	exports map[string]map[string]*Macro   // source_file -> exported name -> macro, used by import_macro
}

func newRegistry() *registry {
	return &registry{
		system:  make(map[string]*Macro),
		module:  make(map[string]map[string]*Macro),
		imports: make(map[string]map[string]string),
		aliases: make(map[string]map[string]string),
		exports: make(map[string]map[string]*Macro),
	}
}

// Environment implements spec §4.5. Children extend their parent via
// the parent field; the macro registry, module-exports map, and
// processed-file set are shared pointers so mutations in a nested
// scope during macro expansion are visible to the root. Each scope has
// its own variable bindings and lookup cache.
type Environment struct {
	variables map[string]any
	parent    *Environment

	reg           *registry
	moduleExports map[string]map[string]any

	currentFile    string
	processedFiles map[string]bool // shared with root

	lookupCache *lru.Cache[string, any]
}

// NewGlobal creates the process-wide global environment, pre-populated
// with the built-in operators (spec §4.5).
func NewGlobal() *Environment {
	cache, _ := lru.New[string, any](lookupCacheSize)

	env := &Environment{
		variables:      make(map[string]any),
		reg:            newRegistry(),
		moduleExports:  make(map[string]map[string]any),
		processedFiles: make(map[string]bool),
		lookupCache:    cache,
	}

	installBuiltins(env)
	return env
}

// NewChild spawns a nested scope sharing this environment's registry,
// module-exports map, and processed-file set, but with its own
// variable bindings and lookup cache (spec §9: "Avoid reference
// cycles" — the child only ever points up at its parent).
func (e *Environment) NewChild() *Environment {
	cache, _ := lru.New[string, any](lookupCacheSize)

	return &Environment{
		variables:      make(map[string]any),
		parent:         e,
		reg:            e.reg,
		moduleExports:  e.moduleExports,
		processedFiles: e.processedFiles,
		currentFile:    e.currentFile,
		lookupCache:    cache,
	}
}

// Define installs name in the current scope and invalidates it in the
// lookup cache.
func (e *Environment) Define(name string, value any) {
	e.variables[name] = value
	e.lookupCache.Remove(name)
}

// Lookup searches the current scope, then each parent, with dotted
// module.prop.path support and '-'-to-'_' key sanitization fallback
// (spec §4.5).
func (e *Environment) Lookup(name string) (any, bool) {
	if v, ok := e.lookupCache.Get(name); ok {
		return v, true
	}

	if v, ok := e.lookupLocalChain(name); ok {
		e.lookupCache.Add(name, v)
		return v, true
	}

	if strings.Contains(name, ".") {
		if v, ok := e.lookupDotted(name); ok {
			e.lookupCache.Add(name, v)
			return v, true
		}
	}

	return nil, false
}

func (e *Environment) lookupLocalChain(name string) (any, bool) {
	for cur := e; cur != nil; cur = cur.parent {
		if v, ok := cur.variables[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// lookupDotted resolves "module.prop.path" against module_exports (or
// a defined module variable), walking the remaining path segments.
func (e *Environment) lookupDotted(name string) (any, bool) {
	segs := strings.Split(name, ".")
	head := segs[0]
	rest := segs[1:]

	exports, ok := e.moduleExports[head]
	if !ok {
		hv, hok := e.lookupLocalChain(head)
		if !hok {
			return nil, false
		}
		m, isMap := hv.(map[string]any)
		if !isMap {
			return nil, false
		}
		exports = m
	}

	var cur any = exports
	for _, seg := range rest {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		v, ok := m[seg]
		if !ok {
			// '-'-to-'_' sanitization fallback.
			v, ok = m[strings.ReplaceAll(seg, "-", "_")]
			if !ok {
				return nil, false
			}
		}
		cur = v
	}
	return cur, true
}

// DefineModuleExports registers (or replaces) the live exports map for
// a module path. The returned map is the same object stored internally
// so later mutations (populating exports as a circularly-imported file
// finishes compiling) are observed by earlier importers (spec §4.6).
func (e *Environment) DefineModuleExports(modulePath string) map[string]any {
	if m, ok := e.moduleExports[modulePath]; ok {
		return m
	}
	m := make(map[string]any)
	e.moduleExports[modulePath] = m
	return m
}

func (e *Environment) ModuleExports(modulePath string) (map[string]any, bool) {
	m, ok := e.moduleExports[modulePath]
	return m, ok
}

// SetCurrentFile / CurrentFile back macro visibility and diagnostics.
func (e *Environment) SetCurrentFile(path string) { e.currentFile = path }
func (e *Environment) CurrentFile() string        { return e.currentFile }

// HasProcessedFile / MarkProcessedFile guard against reprocessing a
// file already handled by the import resolver (spec §4.5).
func (e *Environment) HasProcessedFile(path string) bool {
	return e.processedFiles[path]
}

func (e *Environment) MarkProcessedFile(path string) {
	e.processedFiles[path] = true
}

// DefineMacro registers m as a system macro (visible everywhere) or,
// when m.IsSystem is false, as a module-scoped macro under
// m.SourceFile (the current file when m.SourceFile is empty).
func (e *Environment) DefineMacro(m *Macro) {
	if m.IsSystem {
		e.reg.system[m.Name] = m
		return
	}

	file := m.SourceFile
	if file == "" {
		file = e.currentFile
	}
	if e.reg.module[file] == nil {
		e.reg.module[file] = make(map[string]*Macro)
	}
	e.reg.module[file][m.Name] = m

	if m.IsExported {
		if e.reg.exports[file] == nil {
			e.reg.exports[file] = make(map[string]*Macro)
		}
		e.reg.exports[file][m.Name] = m
	}
}

// GetMacro resolves name against the three visibility tiers for the
// current file: system (always), module (current file only), imported
// (aliases and imports registered for the current file).
func (e *Environment) GetMacro(name string) (*Macro, bool) {
	if m, ok := e.reg.system[name]; ok {
		return m, true
	}

	file := e.currentFile

	if mod, ok := e.reg.module[file]; ok {
		if m, ok := mod[name]; ok {
			return m, true
		}
	}

	if imports, ok := e.reg.imports[file]; ok {
		if sourceFile, ok := imports[name]; ok {
			// reg.imports is keyed by the local name (the alias, when
			// one was given), but reg.module is keyed by the macro's
			// original name in sourceFile — resolve the alias only for
			// this lookup, not for the imports map key itself.
			original := name
			if aliases, ok := e.reg.aliases[file]; ok {
				if o, ok := aliases[name]; ok {
					original = o
				}
			}
			if mod, ok := e.reg.module[sourceFile]; ok {
				if m, ok := mod[original]; ok {
					return m, true
				}
			}
		}
	}

	return nil, false
}

func (e *Environment) HasMacro(name string) bool {
	_, ok := e.GetMacro(name)
	return ok
}

// ImportMacro records an import edge: name as declared in sourceFile
// becomes visible in targetFile under alias (or name, if alias is
// empty). It fails with ImportError(ExportNotFound) if name is not an
// exported macro of sourceFile.
func (e *Environment) ImportMacro(sourceFile, name, targetFile, alias string) error {
	exported, ok := e.reg.exports[sourceFile]
	if !ok || exported[name] == nil {
		return herr.New(herr.FamilyImport, herr.KindExportNotFound,
			token.NewNode(token.Pos{File: targetFile}, token.Pos{File: targetFile}),
			"macro '"+name+"' is not exported from "+sourceFile)
	}

	localName := name
	if alias != "" {
		localName = alias
		if e.reg.aliases[targetFile] == nil {
			e.reg.aliases[targetFile] = make(map[string]string)
		}
		e.reg.aliases[targetFile][alias] = name
	}

	if e.reg.imports[targetFile] == nil {
		e.reg.imports[targetFile] = make(map[string]string)
	}
	e.reg.imports[targetFile][localName] = sourceFile

	return nil
}

// HasExportedMacro reports whether name is an exported macro of
// sourceFile, letting a caller (the import resolver) tell a macro
// binding apart from a plain value export before deciding which one of
// ImportMacro/Define applies.
func (e *Environment) HasExportedMacro(sourceFile, name string) bool {
	exported, ok := e.reg.exports[sourceFile]
	if !ok {
		return false
	}
	return exported[name] != nil
}

// ExportedMacroNames lists every macro sourceFile exports, for a
// whole-module import (spec §4.6's `(import "path")`/`(import name from
// "path")` syntaxes) to bring each one into the importer individually —
// macros are called by bare name, not through a module-qualified path,
// so a module import has to expose them the same way a destructured
// `(import [name] from "path")` does.
func (e *Environment) ExportedMacroNames(sourceFile string) []string {
	exported, ok := e.reg.exports[sourceFile]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(exported))
	for name := range exported {
		names = append(names, name)
	}
	return names
}
