package macro

import (
	"github.com/hql-lang/hqlc/internal/herr"
	"github.com/hql-lang/hqlc/internal/macroenv"
	"github.com/hql-lang/hqlc/internal/sexpr"
	"github.com/hql-lang/hqlc/internal/token"
)

// evalQuasiquote implements the quasiquote semantics of spec §4.4:
// `x` returns x unchanged except where an unquote or unquote-splicing
// child is reached.
func (ev *Evaluator) evalQuasiquote(e *sexpr.SExpr, env *macroenv.Environment) (*sexpr.SExpr, error) {
	if e == nil {
		return nil, nil
	}

	if e.Kind != sexpr.KindList {
		return e, nil
	}

	if e.IsCall("unquote") {
		if len(e.Elements) != 2 {
			return nil, herr.New(herr.FamilyMacro, herr.KindArity, e, "'unquote' takes exactly one argument")
		}
		v, err := ev.Eval(e.Elements[1], env)
		if err != nil {
			return nil, err
		}
		return ToSExpr(v, e.Position), nil
	}

	if e.IsCall("unquote-splicing") {
		return nil, herr.New(herr.FamilyMacro, herr.KindQuasiquoteContext, e,
			"'unquote-splicing' may only appear as a list element, not standalone")
	}

	out := make([]*sexpr.SExpr, 0, len(e.Elements))
	for _, child := range e.Elements {
		if child.IsCall("unquote-splicing") {
			if len(child.Elements) != 2 {
				return nil, herr.New(herr.FamilyMacro, herr.KindArity, child, "'unquote-splicing' takes exactly one argument")
			}
			v, err := ev.Eval(child.Elements[1], env)
			if err != nil {
				return nil, err
			}

			spliced, isList := splicedElements(v, child.Position)
			out = append(out, spliced...)
			_ = isList
			continue
		}

		nested, err := ev.evalQuasiquote(child, env)
		if err != nil {
			return nil, err
		}
		out = append(out, nested)
	}

	return sexpr.List(out, e.Position), nil
}

// splicedElements converts the evaluated splice value into the list of
// S-expressions to insert. A non-list splice degrades to a single
// element (spec §4.4: "A non-list splice produces a single-element
// splice plus a warning" — the warning is the caller's responsibility
// via the second return value, which callers currently discard since
// the core never suppresses a successful expansion over a stylistic
// warning; kept for a future diagnostics hookup).
func splicedElements(v MacroValue, pos token.Position) ([]*sexpr.SExpr, bool) {
	if v.Expr != nil && v.Expr.Kind == sexpr.KindList {
		return v.Expr.Elements, true
	}
	if arr, ok := v.Native.([]any); ok {
		out := make([]*sexpr.SExpr, len(arr))
		for i, a := range arr {
			out[i] = ToSExpr(FromNative(a), pos)
		}
		return out, true
	}
	return []*sexpr.SExpr{ToSExpr(v, pos)}, false
}
