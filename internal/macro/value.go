package macro

import (
	"github.com/hql-lang/hqlc/internal/sexpr"
	"github.com/hql-lang/hqlc/internal/token"
)

// MacroValue is the dynamic value type flowing through the pure macro
// evaluator (spec §9 Design Notes: "Dynamic typing of macro values ...
// represent as a sum MacroValue { SExpr(SExpr), Native(fn), Nil } with
// explicit conversion at every boundary").
type MacroValue struct {
	Expr   *sexpr.SExpr // set when this value is (or prints as) an S-expression
	Native any          // set when this value is a native Go value: float64, string, bool, or a callable
	IsNil  bool
}

func FromSExpr(e *sexpr.SExpr) MacroValue { return MacroValue{Expr: e} }
func FromNative(v any) MacroValue         { return MacroValue{Native: v} }
func Nil() MacroValue                     { return MacroValue{IsNil: true} }

// ToSExpr converts v into an S-expression suitable for substitution
// back into the program, the boundary crossed whenever a quasiquote
// template or macro return value needs to become program syntax again.
func ToSExpr(v MacroValue, pos token.Position) *sexpr.SExpr {
	if v.IsNil {
		return sexpr.Nil(pos)
	}
	if v.Expr != nil {
		return v.Expr
	}
	switch n := v.Native.(type) {
	case float64:
		return sexpr.Num(n, pos)
	case int:
		return sexpr.Num(float64(n), pos)
	case string:
		return sexpr.Str(n, pos)
	case bool:
		return sexpr.Boolean(n, pos)
	}
	return sexpr.Nil(pos)
}

// ToNative converts v into a plain Go value (float64, string, bool,
// []any, map[string]any, or the underlying callable), the boundary
// crossed whenever a builtin or arithmetic operator consumes it.
func ToNative(v MacroValue) any {
	if v.IsNil {
		return nil
	}
	if v.Native != nil {
		return v.Native
	}
	return sexprToNative(v.Expr)
}

func sexprToNative(e *sexpr.SExpr) any {
	if e == nil {
		return nil
	}
	switch e.Kind {
	case sexpr.KindLiteral:
		switch e.LitKind {
		case sexpr.LitString:
			return e.Str
		case sexpr.LitNumber:
			return e.Num
		case sexpr.LitBool:
			return e.Bool
		default:
			return nil
		}
	case sexpr.KindSymbol:
		return e.Name
	case sexpr.KindList:
		out := make([]any, len(e.Elements))
		for i, el := range e.Elements {
			out[i] = sexprToNative(el)
		}
		return out
	}
	return nil
}

// IsTruthy implements the evaluator's boolean coercion for if/cond:
// nil and boolean false are falsy, everything else (including 0 and
// the empty string, matching the host language's loose semantics more
// than would a strict numeric-zero check) is truthy.
func IsTruthy(v MacroValue) bool {
	if v.IsNil {
		return false
	}
	if b, ok := ToNative(v).(bool); ok {
		return b
	}
	return true
}
