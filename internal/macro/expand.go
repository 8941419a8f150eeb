package macro

import (
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/hql-lang/hqlc/internal/herr"
	"github.com/hql-lang/hqlc/internal/macroenv"
	"github.com/hql-lang/hqlc/internal/sexpr"
)

const (
	maxRecursionDepth  = 100
	maxFixedPointIters = 100
	expansionCacheSize = 5000
)

// Expander runs the top-level fixed-point expansion loop of spec §4.4.
type Expander struct {
	env   *macroenv.Environment
	cache *lru.Cache[string, *sexpr.SExpr]
	log   *slog.Logger
}

func NewExpander(env *macroenv.Environment, log *slog.Logger) *Expander {
	cache, _ := lru.New[string, *sexpr.SExpr](expansionCacheSize)
	return &Expander{env: env, cache: cache, log: log}
}

// Expand registers every defmacro/macro definition in exprs, then
// repeatedly expands the whole program until a full iteration leaves
// it structurally unchanged (or the iteration ceiling is reached),
// finally filtering out the definition forms (spec §4.4).
func (x *Expander) Expand(exprs []*sexpr.SExpr, reporter *herr.Reporter) []*sexpr.SExpr {
	x.registerDefinitions(exprs)

	current := exprs
	for iter := 0; iter < maxFixedPointIters; iter++ {
		next := make([]*sexpr.SExpr, 0, len(current))
		changed := false

		for _, top := range current {
			expanded, err := x.expandTopLevel(top, 0)
			if err != nil {
				reporter.Report(err, nil)
				next = append(next, top)
				continue
			}
			if !sexpr.Equal(top, expanded) {
				changed = true
			}
			next = append(next, expanded)
		}

		current = next
		if !changed {
			break
		}

		if x.log != nil {
			x.log.Debug("macro fixed-point iteration", "iteration", iter+1)
		}
	}

	return filterDefinitions(current)
}

func (x *Expander) registerDefinitions(exprs []*sexpr.SExpr) {
	for _, e := range exprs {
		registerIfDefinition(e, x.env)
	}
}

func registerIfDefinition(e *sexpr.SExpr, env *macroenv.Environment) {
	isSystem := e.IsCall("defmacro")
	isUser := e.IsCall("macro")
	if !isSystem && !isUser {
		return
	}

	args := e.Tail()
	if len(args) < 2 || args[0].Kind != sexpr.KindSymbol || args[1].Kind != sexpr.KindList {
		return
	}

	name := args[0].Name
	params, rest := parseMacroParams(args[1].Elements)
	body := args[2:]

	env.DefineMacro(&macroenv.Macro{
		Name:       name,
		Params:     params,
		RestParam:  rest,
		Body:       body,
		SourceFile: env.CurrentFile(),
		IsSystem:   isSystem,
		IsExported: isSystem,
	})
}

// parseMacroParams reads a macro parameter list, allowing at most one
// trailing rest parameter marked "& name" (spec §4.4).
func parseMacroParams(elems []*sexpr.SExpr) (params []string, rest string) {
	for i := 0; i < len(elems); i++ {
		el := elems[i]
		if el.IsSymbol("&") {
			if i+1 < len(elems) && elems[i+1].Kind == sexpr.KindSymbol {
				rest = elems[i+1].Name
				i++
			}
			continue
		}
		if el.Kind == sexpr.KindSymbol {
			params = append(params, el.Name)
		}
	}
	return params, rest
}

// filterDefinitions drops defmacro/macro forms from the final program
// (spec §4.4: "defmacro and user macro definitions are removed").
func filterDefinitions(exprs []*sexpr.SExpr) []*sexpr.SExpr {
	out := make([]*sexpr.SExpr, 0, len(exprs))
	for _, e := range exprs {
		if e.IsCall("defmacro") || e.IsCall("macro") {
			continue
		}
		out = append(out, e)
	}
	return out
}

// expandTopLevel recursively expands e, invoking any macro call
// encountered and recursively re-expanding its result to a fixed
// point, bounded by maxRecursionDepth per call site (spec §4.4).
func (x *Expander) expandTopLevel(e *sexpr.SExpr, depth int) (*sexpr.SExpr, error) {
	if e == nil || e.Kind != sexpr.KindList {
		return e, nil
	}

	if depth > maxRecursionDepth {
		return nil, herr.New(herr.FamilyMacro, herr.KindRecursionLimit, e,
			"macro expansion exceeded the maximum recursion depth")
	}

	if head := e.Head(); head != nil && head.Kind == sexpr.KindSymbol {
		if m, ok := x.env.GetMacro(head.Name); ok {
			key := sexpr.Print(e)
			if cached, ok := x.cache.Get(key); ok {
				return cached, nil
			}

			expanded, err := invokeMacro(m, e.Tail(), x.env)
			if err != nil {
				return nil, err
			}

			result := expanded
			if expanded.Kind == sexpr.KindList && len(expanded.Elements) > 0 {
				result, err = x.expandTopLevel(expanded, depth+1)
				if err != nil {
					return nil, err
				}
			}

			x.cache.Add(key, result)
			return result, nil
		}
	}

	out := make([]*sexpr.SExpr, len(e.Elements))
	for i, el := range e.Elements {
		r, err := x.expandTopLevel(el, depth)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return sexpr.List(out, e.Position), nil
}
