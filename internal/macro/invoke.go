package macro

import (
	"github.com/hql-lang/hqlc/internal/herr"
	"github.com/hql-lang/hqlc/internal/macroenv"
	"github.com/hql-lang/hqlc/internal/sexpr"
)

// invokeMacro binds args to m's parameters, evaluates the macro body,
// and applies hygienic renaming to every locally-bound identifier the
// macro's own template introduces (spec §4.4 "Hygiene"; spec Open
// Question: whether the rename applies transitively to nested macro
// expansions — this implementation renames only the names the
// outermost invocation's own template binds, matching "current source
// behavior appears to apply only at the outermost macro invocation").
func invokeMacro(m *macroenv.Macro, args []*sexpr.SExpr, env *macroenv.Environment) (*sexpr.SExpr, error) {
	if m.RestParam == "" && len(args) != len(m.Params) {
		return nil, arityError(m, args)
	}
	if m.RestParam != "" && len(args) < len(m.Params) {
		return nil, arityError(m, args)
	}

	child := env.NewChild()
	for i, p := range m.Params {
		child.Define(p, args[i])
	}
	if m.RestParam != "" {
		rest := args[len(m.Params):]
		var pos sexpr.SExpr
		if len(m.Body) > 0 {
			pos = *m.Body[0]
		}
		child.Define(m.RestParam, sexpr.List(rest, pos.Position))
	}

	ev := NewEvaluator()

	var result MacroValue
	for _, form := range m.Body {
		v, err := ev.Eval(form, child)
		if err != nil {
			return nil, err
		}
		result = v
	}

	var pos sexpr.SExpr
	if len(m.Body) > 0 {
		pos = *m.Body[len(m.Body)-1]
	}
	out := ToSExpr(result, pos.Position)

	renames := templateRenames(m.Body)
	return applyRename(out, renames), nil
}

func arityError(m *macroenv.Macro, args []*sexpr.SExpr) error {
	var pos sexpr.SExpr
	if len(args) > 0 {
		pos = *args[0]
	}
	return herr.New(herr.FamilyMacro, herr.KindArity, &pos,
		"macro '"+m.Name+"' called with the wrong number of arguments")
}

// templateRenames scans a macro's body for identifiers its own
// quasiquote templates bind locally (via let/lambda), independent of
// any call-site substitution, and assigns each a fresh gensym. Names
// reachable only through an unquote/unquote-splicing subtree are
// skipped since those come from the caller's own syntax.
func templateRenames(body []*sexpr.SExpr) renameMap {
	renames := renameMap{}
	for _, form := range body {
		collectBoundNames(form, renames)
	}
	return renames
}

func collectBoundNames(e *sexpr.SExpr, out renameMap) {
	if e == nil || e.Kind != sexpr.KindList {
		return
	}

	if e.IsCall("unquote") || e.IsCall("unquote-splicing") {
		return
	}

	if e.IsCall("let") && len(e.Elements) >= 2 {
		switch e.Elements[1].Kind {
		case sexpr.KindSymbol:
			name := e.Elements[1].Name
			if _, ok := out[name]; !ok {
				out[name] = gensym(name)
			}
		case sexpr.KindList:
			pairs := e.Elements[1].Elements
			for i := 0; i+1 < len(pairs); i += 2 {
				if pairs[i].Kind == sexpr.KindSymbol {
					name := pairs[i].Name
					if _, ok := out[name]; !ok {
						out[name] = gensym(name)
					}
				}
			}
		}
	}

	if e.IsCall("lambda") && len(e.Elements) >= 2 && e.Elements[1].Kind == sexpr.KindList {
		for _, p := range e.Elements[1].Elements {
			if p.Kind == sexpr.KindSymbol {
				if _, ok := out[p.Name]; !ok {
					out[p.Name] = gensym(p.Name)
				}
			}
		}
	}

	for _, child := range e.Elements {
		collectBoundNames(child, out)
	}
}
