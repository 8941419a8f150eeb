// Package macro implements the hygienic macro expander of spec §4.4:
// a fixed-point expansion loop over canonical S-expressions, a pure
// evaluator for macro bodies (quasiquote/unquote/splice, if/cond/let/
// lambda, builtin calls, recursive macro calls), and gensym-based
// hygiene for the names a macro's template binds.
//
// Grounded on the hygienic-macro reference in the retrieved
// OmniLisp FFI demo (SyntaxObject/MacroContext/HygienicMacro,
// syntax-quote/unquote/unquote-splicing, mark-based hygiene).
package macro

import (
	"github.com/hql-lang/hqlc/internal/herr"
	"github.com/hql-lang/hqlc/internal/macroenv"
	"github.com/hql-lang/hqlc/internal/sexpr"
)

// Evaluator runs macro bodies. It holds no state of its own; the
// environment is passed to each Eval call, so one Evaluator may be
// shared across every macro invocation.
type Evaluator struct{}

func NewEvaluator() *Evaluator { return &Evaluator{} }

// Eval evaluates e in env, supporting literals, symbol lookup (with
// dotted module.property access through env), quote, quasiquote, if,
// cond, let, lambda, recursive macro calls, and builtin/native calls
// (spec §4.4 "Pure evaluator for macro bodies").
func (ev *Evaluator) Eval(e *sexpr.SExpr, env *macroenv.Environment) (MacroValue, error) {
	if e == nil {
		return Nil(), nil
	}

	switch e.Kind {
	case sexpr.KindLiteral:
		return FromSExpr(e), nil
	case sexpr.KindSymbol:
		return ev.evalSymbol(e, env)
	case sexpr.KindList:
		return ev.evalList(e, env)
	}

	return Nil(), nil
}

func (ev *Evaluator) evalSymbol(e *sexpr.SExpr, env *macroenv.Environment) (MacroValue, error) {
	v, ok := env.Lookup(e.Name)
	if !ok {
		return MacroValue{}, herr.New(herr.FamilyMacro, herr.KindNotFound, e, "unbound symbol '"+e.Name+"'")
	}
	if se, ok := v.(*sexpr.SExpr); ok {
		return FromSExpr(se), nil
	}
	return FromNative(v), nil
}

func (ev *Evaluator) evalList(e *sexpr.SExpr, env *macroenv.Environment) (MacroValue, error) {
	if len(e.Elements) == 0 {
		return FromSExpr(e), nil
	}

	head := e.Elements[0]
	args := e.Elements[1:]

	if head.Kind == sexpr.KindSymbol {
		switch head.Name {
		case "quote":
			if len(args) != 1 {
				return MacroValue{}, herr.New(herr.FamilyMacro, herr.KindArity, e, "'quote' takes exactly one argument")
			}
			return FromSExpr(args[0]), nil

		case "quasiquote":
			if len(args) != 1 {
				return MacroValue{}, herr.New(herr.FamilyMacro, herr.KindArity, e, "'quasiquote' takes exactly one argument")
			}
			out, err := ev.evalQuasiquote(args[0], env)
			if err != nil {
				return MacroValue{}, err
			}
			return FromSExpr(out), nil

		case "unquote", "unquote-splicing":
			return MacroValue{}, herr.New(herr.FamilyMacro, herr.KindQuasiquoteContext, e,
				"'"+head.Name+"' used outside a quasiquote")

		case "if":
			return ev.evalIf(e, args, env)

		case "cond":
			return ev.evalCond(args, env)

		case "let":
			return ev.evalLet(e, args, env)

		case "lambda":
			return ev.evalLambda(e, args, env)
		}

		if m, ok := env.GetMacro(head.Name); ok {
			expanded, err := invokeMacro(m, args, env)
			if err != nil {
				return MacroValue{}, err
			}
			return ev.Eval(expanded, env)
		}
	}

	fnVal, err := ev.Eval(head, env)
	if err != nil {
		return MacroValue{}, err
	}

	evaled := make([]any, len(args))
	for i, a := range args {
		v, err := ev.Eval(a, env)
		if err != nil {
			return MacroValue{}, err
		}
		evaled[i] = ToNative(v)
	}

	fn, ok := ToNative(fnVal).(func([]any) (any, error))
	if !ok {
		return MacroValue{}, herr.New(herr.FamilyMacro, herr.KindNotFound, e, "call target is not a function")
	}

	result, err := fn(evaled)
	if err != nil {
		return MacroValue{}, err
	}
	return FromNative(result), nil
}

func (ev *Evaluator) evalIf(e *sexpr.SExpr, args []*sexpr.SExpr, env *macroenv.Environment) (MacroValue, error) {
	if len(args) != 3 {
		return MacroValue{}, herr.New(herr.FamilyMacro, herr.KindArity, e, "'if' takes exactly three arguments")
	}
	cond, err := ev.Eval(args[0], env)
	if err != nil {
		return MacroValue{}, err
	}
	if IsTruthy(cond) {
		return ev.Eval(args[1], env)
	}
	return ev.Eval(args[2], env)
}

func (ev *Evaluator) evalCond(clauses []*sexpr.SExpr, env *macroenv.Environment) (MacroValue, error) {
	for _, clause := range clauses {
		if clause.Kind != sexpr.KindList || len(clause.Elements) < 1 {
			continue
		}
		test := clause.Elements[0]
		if test.IsSymbol("else") {
			return ev.evalBody(clause.Elements[1:], env)
		}
		v, err := ev.Eval(test, env)
		if err != nil {
			return MacroValue{}, err
		}
		if IsTruthy(v) {
			return ev.evalBody(clause.Elements[1:], env)
		}
	}
	return Nil(), nil
}

func (ev *Evaluator) evalBody(body []*sexpr.SExpr, env *macroenv.Environment) (MacroValue, error) {
	var result MacroValue
	for _, b := range body {
		v, err := ev.Eval(b, env)
		if err != nil {
			return MacroValue{}, err
		}
		result = v
	}
	return result, nil
}

func (ev *Evaluator) evalLet(e *sexpr.SExpr, args []*sexpr.SExpr, env *macroenv.Environment) (MacroValue, error) {
	if len(args) < 1 || args[0].Kind != sexpr.KindList {
		return MacroValue{}, herr.New(herr.FamilyTransform, herr.KindBadLet, e, "'let' in a macro body requires a binding list")
	}

	child := env.NewChild()
	pairs := args[0].Elements
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i].Kind != sexpr.KindSymbol {
			continue
		}
		v, err := ev.Eval(pairs[i+1], child)
		if err != nil {
			return MacroValue{}, err
		}
		child.Define(pairs[i].Name, ToNative(v))
	}

	return ev.evalBody(args[1:], child)
}

func (ev *Evaluator) evalLambda(e *sexpr.SExpr, args []*sexpr.SExpr, env *macroenv.Environment) (MacroValue, error) {
	if len(args) < 1 || args[0].Kind != sexpr.KindList {
		return MacroValue{}, herr.New(herr.FamilyMacro, herr.KindBadParam, e, "'lambda' requires a parameter list")
	}

	params := args[0].Elements
	body := args[1:]

	fn := func(callArgs []any) (any, error) {
		child := env.NewChild()
		for i, p := range params {
			if p.Kind != sexpr.KindSymbol {
				continue
			}
			if i < len(callArgs) {
				child.Define(p.Name, callArgs[i])
			}
		}
		v, err := ev.evalBody(body, child)
		if err != nil {
			return nil, err
		}
		return ToNative(v), nil
	}

	return FromNative(func(callArgs []any) (any, error) { return fn(callArgs) }), nil
}
