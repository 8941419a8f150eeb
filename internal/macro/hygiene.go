package macro

import "github.com/hql-lang/hqlc/internal/sexpr"

// renameMap maps a name that a macro's template binds (via let/lambda)
// to its fresh gensym, used to rewrite occurrences of that name in a
// macro's expansion so the macro's own bindings can never capture a
// caller binding of the same name (spec §4.4 "Hygiene").
type renameMap map[string]string

// applyRename walks e, rewriting every Symbol whose full name matches a
// key in renames to use the gensym instead. It does not
// descend into nested quote forms, since a literal quoted symbol is
// program data, not a binding reference.
func applyRename(e *sexpr.SExpr, renames renameMap) *sexpr.SExpr {
	if e == nil || len(renames) == 0 {
		return e
	}

	switch e.Kind {
	case sexpr.KindSymbol:
		if fresh, ok := renames[e.Name]; ok {
			return sexpr.Sym(fresh, e.Position)
		}
		return e

	case sexpr.KindList:
		if e.IsCall("quote") {
			return e
		}
		out := make([]*sexpr.SExpr, len(e.Elements))
		for i, el := range e.Elements {
			out[i] = applyRename(el, renames)
		}
		return sexpr.List(out, e.Position)

	default:
		return e
	}
}
