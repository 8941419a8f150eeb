package macroenv

import (
	"fmt"

	"github.com/hql-lang/hqlc/internal/herr"
	"github.com/hql-lang/hqlc/internal/token"
)

// installBuiltins registers the built-in operators of spec §4.5:
// arithmetic/comparison, the polymorphic `get` accessor, `js-get`,
// `js-call`, and `throw`. These are plain Go closures over `any`
// values rather than S-expressions: the pure evaluator in
// internal/macro unwraps S-expression literals to these native values
// before calling a builtin, and wraps the native result back.
func installBuiltins(env *Environment) {
	env.Define("+", builtinFold(func(a, b float64) float64 { return a + b }, 0))
	env.Define("-", builtinSub)
	env.Define("*", builtinFold(func(a, b float64) float64 { return a * b }, 1))
	env.Define("/", builtinDiv)
	env.Define("%", builtinMod)

	env.Define("=", builtinCompare(func(c int) bool { return c == 0 }))
	env.Define("eq?", builtinCompare(func(c int) bool { return c == 0 }))
	env.Define("!=", builtinCompare(func(c int) bool { return c != 0 }))
	env.Define("<", builtinCompare(func(c int) bool { return c < 0 }))
	env.Define(">", builtinCompare(func(c int) bool { return c > 0 }))
	env.Define("<=", builtinCompare(func(c int) bool { return c <= 0 }))
	env.Define(">=", builtinCompare(func(c int) bool { return c >= 0 }))

	env.Define("get", builtinGet)
	env.Define("js-get", builtinGet)
	env.Define("js-call", builtinJSCall)
	env.Define("throw", builtinThrow)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

func builtinFold(op func(a, b float64) float64, identity float64) func([]any) (any, error) {
	return func(args []any) (any, error) {
		acc := identity
		for _, a := range args {
			n, ok := toFloat(a)
			if !ok {
				return nil, badArgument(fmt.Sprintf("expected a number, got %v", a))
			}
			acc = op(acc, n)
		}
		return acc, nil
	}
}

func builtinSub(args []any) (any, error) {
	if len(args) == 0 {
		return 0.0, nil
	}
	first, ok := toFloat(args[0])
	if !ok {
		return nil, badArgument(fmt.Sprintf("expected a number, got %v", args[0]))
	}
	if len(args) == 1 {
		return -first, nil
	}
	acc := first
	for _, a := range args[1:] {
		n, ok := toFloat(a)
		if !ok {
			return nil, badArgument(fmt.Sprintf("expected a number, got %v", a))
		}
		acc -= n
	}
	return acc, nil
}

func builtinDiv(args []any) (any, error) {
	if len(args) < 2 {
		return nil, badArgument("'/' requires at least two arguments")
	}
	acc, ok := toFloat(args[0])
	if !ok {
		return nil, badArgument(fmt.Sprintf("expected a number, got %v", args[0]))
	}
	for _, a := range args[1:] {
		n, ok := toFloat(a)
		if !ok {
			return nil, badArgument(fmt.Sprintf("expected a number, got %v", a))
		}
		if n == 0 {
			return nil, herr.New(herr.FamilyValidation, herr.KindDivisionByZero,
				token.NewNode(token.Pos{}, token.Pos{}), "division by zero")
		}
		acc /= n
	}
	return acc, nil
}

func builtinMod(args []any) (any, error) {
	if len(args) != 2 {
		return nil, badArgument("'%' requires exactly two arguments")
	}
	a, ok1 := toFloat(args[0])
	b, ok2 := toFloat(args[1])
	if !ok1 || !ok2 {
		return nil, badArgument("'%' operands must be numbers")
	}
	if b == 0 {
		return nil, herr.New(herr.FamilyValidation, herr.KindDivisionByZero,
			token.NewNode(token.Pos{}, token.Pos{}), "modulo by zero")
	}
	return float64(int64(a) % int64(b)), nil
}

func builtinCompare(pred func(cmp int) bool) func([]any) (any, error) {
	return func(args []any) (any, error) {
		if len(args) < 2 {
			return nil, badArgument("comparison requires at least two arguments")
		}
		for i := 0; i < len(args)-1; i++ {
			c, err := compare(args[i], args[i+1])
			if err != nil {
				return nil, err
			}
			if !pred(c) {
				return false, nil
			}
		}
		return true, nil
	}
}

func compare(a, b any) (int, error) {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1, nil
		case af > bf:
			return 1, nil
		default:
			return 0, nil
		}
	}

	as, aIsStr := a.(string)
	bs, bIsStr := b.(string)
	if aIsStr && bIsStr {
		switch {
		case as < bs:
			return -1, nil
		case as > bs:
			return 1, nil
		default:
			return 0, nil
		}
	}

	if a == b {
		return 0, nil
	}

	return 0, herr.New(herr.FamilyValidation, herr.KindWrongType,
		token.NewNode(token.Pos{}, token.Pos{}), "cannot compare incompatible operand types").
		WithTypes(fmt.Sprintf("%T", a), fmt.Sprintf("%T", b))
}

// builtinGet is the polymorphic accessor over arrays/objects/functions
// (spec §4.5).
func builtinGet(args []any) (any, error) {
	if len(args) != 2 {
		return nil, badArgument("'get' requires exactly two arguments")
	}

	switch coll := args[0].(type) {
	case []any:
		idx, ok := toFloat(args[1])
		if !ok {
			return nil, badArgument("array index must be a number")
		}
		i := int(idx)
		if i < 0 || i >= len(coll) {
			return nil, badArgument("array index out of range")
		}
		return coll[i], nil
	case map[string]any:
		key, ok := args[1].(string)
		if !ok {
			return nil, badArgument("object key must be a string")
		}
		v, ok := coll[key]
		if !ok {
			return nil, nil
		}
		return v, nil
	default:
		return nil, herr.New(herr.FamilyValidation, herr.KindWrongType,
			token.NewNode(token.Pos{}, token.Pos{}), "'get' target must be an array or object").
			WithTypes("array|object", fmt.Sprintf("%T", args[0]))
	}
}

// builtinJSCall models a call into host JS semantics opaquely: it is
// interpreted only inside the pure macro evaluator as a marker that a
// host call occurred, since the compiler never executes target code.
func builtinJSCall(args []any) (any, error) {
	if len(args) < 2 {
		return nil, badArgument("'js-call' requires a target and a method name")
	}
	return map[string]any{"__js_call__": true, "target": args[0], "method": args[1], "args": args[2:]}, nil
}

func builtinThrow(args []any) (any, error) {
	msg := "thrown error"
	if len(args) > 0 {
		if s, ok := args[0].(string); ok {
			msg = s
		}
	}
	return nil, herr.New(herr.FamilyValidation, herr.KindBadArgument, token.NewNode(token.Pos{}, token.Pos{}), msg)
}

func badArgument(msg string) error {
	return herr.New(herr.FamilyValidation, herr.KindBadArgument, token.NewNode(token.Pos{}, token.Pos{}), msg)
}
