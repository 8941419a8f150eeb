package ir

import (
	"strings"

	"github.com/hql-lang/hqlc/internal/herr"
	"github.com/hql-lang/hqlc/internal/sexpr"
	"github.com/hql-lang/hqlc/internal/symtab"
	"github.com/hql-lang/hqlc/internal/token"
)

// binaryOperators maps the builtin operator symbols of spec §4.5 to
// their JS operator text. "=" and "eq?" both mean structural/strict
// equality, so both map to "===".
var binaryOperators = map[string]string{
	"+": "+", "-": "-", "*": "*", "/": "/", "%": "%",
	"=": "===", "eq?": "===", "!=": "!==",
	"<": "<", ">": ">", "<=": "<=", ">=": ">=",
}

// lowerExpr lowers e in expression position: a value that participates
// in a larger expression, as opposed to lowerStatement's body-sequence
// position.
func (lw *Lowerer) lowerExpr(e *sexpr.SExpr) (*Node, error) {
	if e == nil {
		return NullLiteral(token.Position{}), nil
	}

	switch e.Kind {
	case sexpr.KindLiteral:
		return lw.lowerLiteral(e), nil
	case sexpr.KindSymbol:
		return lw.lowerSymbol(e), nil
	case sexpr.KindList:
		return lw.lowerListExpr(e)
	}

	return nil, herr.New(herr.FamilyValidation, herr.KindBadArgument, e, "unrecognized S-expression kind during IR lowering")
}

func (lw *Lowerer) lowerLiteral(e *sexpr.SExpr) *Node {
	switch e.LitKind {
	case sexpr.LitString:
		return StringLiteral(e.Str, e.Position)
	case sexpr.LitNumber:
		return NumericLiteral(e.Num, e.Position)
	case sexpr.LitBool:
		return BooleanLiteral(e.Bool, e.Position)
	default:
		return NullLiteral(e.Position)
	}
}

func (lw *Lowerer) lowerSymbol(e *sexpr.SExpr) *Node {
	switch e.Name {
	case "nil", "null":
		return NullLiteral(e.Position)
	case "true":
		return BooleanLiteral(true, e.Position)
	case "false":
		return BooleanLiteral(false, e.Position)
	}

	name := e.Name
	if strings.Contains(name, ".") {
		// Dot-path symbols (module-qualified names, enum-case
		// shorthand expansion output of spec §4.3) lower to chained
		// member access: `Color.red` -> Color.red.
		parts := strings.Split(name, ".")
		var n *Node = Identifier(parts[0], e.Position)
		for _, p := range parts[1:] {
			n = MemberExpression(n, Identifier(p, e.Position), false, e.Position)
		}
		return n
	}

	return Identifier(name, e.Position)
}

func (lw *Lowerer) lowerListExpr(e *sexpr.SExpr) (*Node, error) {
	if len(e.Elements) == 0 {
		return ArrayExpression(nil, e.Position), nil
	}

	head := e.Head()
	args := e.Tail()

	if head != nil && head.Kind == sexpr.KindSymbol {
		if n, handled, err := lw.lowerSpecialForm(e, head, args); handled {
			return n, err
		}
	}

	return lw.lowerCall(e, head, args)
}

// lowerSpecialForm handles every head symbol that needs more than a
// plain CallExpression. handled is false for anything not recognized
// here, signalling the caller to fall through to lowerCall.
func (lw *Lowerer) lowerSpecialForm(e, head *sexpr.SExpr, args []*sexpr.SExpr) (*Node, bool, error) {
	switch head.Name {
	case "if":
		n, err := lw.lowerConditional(e, args)
		return n, true, err
	case "loop":
		n, err := lw.lowerLoop(e, args)
		return n, true, err
	case "recur":
		n, err := lw.lowerRecur(e)
		return n, true, err
	case "fn", "lambda":
		n, err := lw.lowerLambda(e, args, false)
		return n, true, err
	case "fx":
		n, err := lw.lowerLambda(e, args, true)
		return n, true, err
	case "set!":
		n, err := lw.lowerSet(e, args)
		return n, true, err
	case "new":
		n, err := lw.lowerNew(e, args)
		return n, true, err
	case "quote":
		if len(args) != 1 {
			return nil, true, herr.New(herr.FamilyValidation, herr.KindBadArgument, e, "quote takes exactly one argument")
		}
		return lw.lowerQuoted(args[0]), true, nil
	case "vector", "empty-array":
		n, err := lw.lowerArrayLiteral(e, args)
		return n, true, err
	case "hash-set", "empty-set":
		n, err := lw.lowerSetLiteral(e, args)
		return n, true, err
	case "hash-map", "empty-map":
		n, err := lw.lowerMapLiteral(e, args)
		return n, true, err
	case "js-get":
		n, err := lw.lowerJsGet(e, args)
		return n, true, err
	case "js-call":
		n, err := lw.lowerJsCall(e, args)
		return n, true, err
	case "method-call":
		n, err := lw.lowerMethodCall(e, args)
		return n, true, err
	case "js-method":
		n, err := lw.lowerJsMethod(e, args)
		return n, true, err
	}

	if strings.HasPrefix(head.Name, ".-") && len(args) == 1 {
		obj, err := lw.lowerExpr(args[0])
		if err != nil {
			return nil, true, err
		}
		return MemberExpression(obj, Identifier(strings.TrimPrefix(head.Name, ".-"), head.Position), false, e.Position), true, nil
	}
	if strings.HasPrefix(head.Name, ".") && len(args) >= 1 {
		obj, err := lw.lowerExpr(args[0])
		if err != nil {
			return nil, true, err
		}
		rest, err := lw.lowerExprs(args[1:])
		if err != nil {
			return nil, true, err
		}
		return CallMemberExpression(obj, strings.TrimPrefix(head.Name, "."), rest, e.Position), true, nil
	}

	if op, ok := binaryOperators[head.Name]; ok && len(args) >= 2 {
		n, err := lw.lowerBinaryChain(e, op, args)
		return n, true, err
	}
	if head.Name == "-" && len(args) == 1 {
		arg, err := lw.lowerExpr(args[0])
		return UnaryExpression("-", arg, true, e.Position), true, err
	}
	if head.Name == "not" && len(args) == 1 {
		arg, err := lw.lowerExpr(args[0])
		return UnaryExpression("!", arg, true, e.Position), true, err
	}

	return nil, false, nil
}

func (lw *Lowerer) lowerConditional(e *sexpr.SExpr, args []*sexpr.SExpr) (*Node, error) {
	if len(args) < 2 {
		return nil, herr.New(herr.FamilyValidation, herr.KindBadArgument, e, "if requires a test and a consequent")
	}
	test, err := lw.lowerExpr(args[0])
	if err != nil {
		return nil, err
	}
	consequent, err := lw.lowerExpr(args[1])
	if err != nil {
		return nil, err
	}
	var alternate *Node
	if len(args) > 2 {
		alternate, err = lw.lowerExpr(args[2])
		if err != nil {
			return nil, err
		}
	} else {
		alternate = NullLiteral(e.Position)
	}
	return ConditionalExpression(test, consequent, alternate, e.Position), nil
}

func (lw *Lowerer) lowerSet(e *sexpr.SExpr, args []*sexpr.SExpr) (*Node, error) {
	if len(args) != 2 || args[0].Kind != sexpr.KindSymbol {
		return nil, herr.New(herr.FamilyValidation, herr.KindBadArgument, e, "set! requires a target symbol and a value")
	}
	v, err := lw.lowerExpr(args[1])
	if err != nil {
		return nil, err
	}
	return AssignmentExpression("=", Identifier(args[0].Name, args[0].Position), v, e.Position), nil
}

func (lw *Lowerer) lowerNew(e *sexpr.SExpr, args []*sexpr.SExpr) (*Node, error) {
	if len(args) == 0 || args[0].Kind != sexpr.KindSymbol {
		return nil, herr.New(herr.FamilyValidation, herr.KindBadArgument, e, "new requires a type name")
	}
	rest, err := lw.lowerExprs(args[1:])
	if err != nil {
		return nil, err
	}
	return NewExpression(Identifier(args[0].Name, args[0].Position), rest, e.Position), nil
}

func (lw *Lowerer) lowerLambda(e *sexpr.SExpr, args []*sexpr.SExpr, typed bool) (*Node, error) {
	if len(args) < 1 || args[0].Kind != sexpr.KindList {
		return nil, herr.New(herr.FamilyTransform, herr.KindBadFnForm, e, "missing parameter list")
	}
	params, err := lw.lowerParamList(args[0])
	if err != nil {
		return nil, err
	}

	bodyForms := args[1:]
	returnType := ""
	if typed {
		var filtered []*sexpr.SExpr
		for _, f := range bodyForms {
			if f.IsCall("->") && len(f.Elements) > 1 && f.Elements[1].Kind == sexpr.KindSymbol {
				returnType = f.Elements[1].Name
				continue
			}
			filtered = append(filtered, f)
		}
		bodyForms = filtered
	}

	body, err := lw.lowerBlock(bodyForms, e.Position)
	if err != nil {
		return nil, err
	}

	if typed {
		return FxFunctionDeclaration("", params, returnType, body, e.Position), nil
	}
	return FunctionExpression("", params, body, e.Position), nil
}

// lowerQuoted builds a literal data representation of a quoted form:
// symbols become their name as a string, nested lists become array
// literals, and literals pass through unchanged.
func (lw *Lowerer) lowerQuoted(e *sexpr.SExpr) *Node {
	if e == nil {
		return NullLiteral(token.Position{})
	}
	switch e.Kind {
	case sexpr.KindSymbol:
		return StringLiteral(e.Name, e.Position)
	case sexpr.KindLiteral:
		return lw.lowerLiteral(e)
	case sexpr.KindList:
		elems := make([]*Node, len(e.Elements))
		for i, el := range e.Elements {
			elems[i] = lw.lowerQuoted(el)
		}
		return ArrayExpression(elems, e.Position)
	}
	return NullLiteral(e.Position)
}

func (lw *Lowerer) lowerArrayLiteral(e *sexpr.SExpr, args []*sexpr.SExpr) (*Node, error) {
	elems, err := lw.lowerExprs(args)
	if err != nil {
		return nil, err
	}
	return ArrayExpression(elems, e.Position), nil
}

func (lw *Lowerer) lowerSetLiteral(e *sexpr.SExpr, args []*sexpr.SExpr) (*Node, error) {
	elems, err := lw.lowerExprs(args)
	if err != nil {
		return nil, err
	}
	return NewExpression(Identifier("Set", e.Position), []*Node{ArrayExpression(elems, e.Position)}, e.Position), nil
}

func (lw *Lowerer) lowerMapLiteral(e *sexpr.SExpr, args []*sexpr.SExpr) (*Node, error) {
	var pairs []*Node
	for i := 0; i+1 < len(args); i += 2 {
		k, err := lw.lowerExpr(args[i])
		if err != nil {
			return nil, err
		}
		v, err := lw.lowerExpr(args[i+1])
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, ArrayExpression([]*Node{k, v}, args[i].Position))
	}
	return NewExpression(Identifier("Map", e.Position), []*Node{ArrayExpression(pairs, e.Position)}, e.Position), nil
}

// lowerJsGet handles the canonical `(js-get name idx)` form
// transform.rewriteGeneric emits for `Array` (or unknown-typed)
// collection access (spec §4.3 "Collection access"), and the bare
// `js-get` builtin operator (spec §4.5) when written directly. Both
// lower to GetAndCall so a downstream emitter can still tell this
// apart from an ordinary computed member expression.
func (lw *Lowerer) lowerJsGet(e *sexpr.SExpr, args []*sexpr.SExpr) (*Node, error) {
	if len(args) != 2 {
		return nil, herr.New(herr.FamilyValidation, herr.KindBadArgument, e, "js-get takes exactly a receiver and an index")
	}
	recv, err := lw.lowerExpr(args[0])
	if err != nil {
		return nil, err
	}
	idx, err := lw.lowerExpr(args[1])
	if err != nil {
		return nil, err
	}
	return GetAndCall(recv, idx, "Array", e.Position), nil
}

// lowerJsCall handles the canonical `(js-call receiver "method" args…)`
// shape. transform.rewriteGeneric emits two specific nestings of it for
// Set/Map collection access (spec §4.3); both are recognized here and
// collapse back to GetAndCall so the Set/Map distinction survives into
// the IR. Anything else (including the bare `js-call` builtin operator
// written directly) lowers to a plain CallMemberExpression.
func (lw *Lowerer) lowerJsCall(e *sexpr.SExpr, args []*sexpr.SExpr) (*Node, error) {
	if len(args) < 2 || !isStringLit(args[1]) {
		return nil, herr.New(herr.FamilyValidation, herr.KindBadArgument, e, "js-call takes a receiver, a method name string, and arguments")
	}
	method := args[1].Str

	// `(js-call (js-call Array "from" name) "at" idx)` is the Set-access
	// shape: collapse it to GetAndCall(name, idx, "Set").
	if method == "at" && len(args) == 3 && args[0].IsCall("js-call") {
		inner := args[0].Tail()
		if len(inner) == 3 && inner[0].IsSymbol("Array") && isStringLit(inner[1]) && inner[1].Str == "from" {
			name, err := lw.lowerExpr(inner[2])
			if err != nil {
				return nil, err
			}
			idx, err := lw.lowerExpr(args[2])
			if err != nil {
				return nil, err
			}
			return GetAndCall(name, idx, "Set", e.Position), nil
		}
	}

	// `(js-call name "get" idx)` is the Map-access shape.
	if method == "get" && len(args) == 3 {
		name, err := lw.lowerExpr(args[0])
		if err != nil {
			return nil, err
		}
		idx, err := lw.lowerExpr(args[2])
		if err != nil {
			return nil, err
		}
		return GetAndCall(name, idx, "Map", e.Position), nil
	}

	recv, err := lw.lowerExpr(args[0])
	if err != nil {
		return nil, err
	}
	rest, err := lw.lowerExprs(args[2:])
	if err != nil {
		return nil, err
	}
	return CallMemberExpression(recv, method, rest, e.Position), nil
}

// lowerMethodCall handles `(method-call receiver "method" args…)`, the
// canonical form of a dot-chain segment with arguments (spec §4.3
// "Dot-chain").
func (lw *Lowerer) lowerMethodCall(e *sexpr.SExpr, args []*sexpr.SExpr) (*Node, error) {
	if len(args) < 2 || !isStringLit(args[1]) {
		return nil, herr.New(herr.FamilyValidation, herr.KindBadArgument, e, "method-call takes a receiver, a method name string, and arguments")
	}
	recv, err := lw.lowerExpr(args[0])
	if err != nil {
		return nil, err
	}
	rest, err := lw.lowerExprs(args[2:])
	if err != nil {
		return nil, err
	}
	return CallMemberExpression(recv, args[1].Str, rest, e.Position), nil
}

// lowerJsMethod handles `(js-method receiver "method")`, the canonical
// form of a zero-argument dot-chain segment (spec §4.3): a property
// read, not a call, but tagged distinctly from an ordinary
// MemberExpression so a downstream emitter can recognize it came from
// dot-chain sugar rather than a `.-name` bare field read.
func (lw *Lowerer) lowerJsMethod(e *sexpr.SExpr, args []*sexpr.SExpr) (*Node, error) {
	if len(args) != 2 || !isStringLit(args[1]) {
		return nil, herr.New(herr.FamilyValidation, herr.KindBadArgument, e, "js-method takes a receiver and a method name string")
	}
	recv, err := lw.lowerExpr(args[0])
	if err != nil {
		return nil, err
	}
	return JsMethodAccess(recv, args[1].Str, e.Position), nil
}

func isStringLit(e *sexpr.SExpr) bool {
	return e.Kind == sexpr.KindLiteral && e.LitKind == sexpr.LitString
}

func (lw *Lowerer) lowerBinaryChain(e *sexpr.SExpr, op string, args []*sexpr.SExpr) (*Node, error) {
	left, err := lw.lowerExpr(args[0])
	if err != nil {
		return nil, err
	}
	for _, a := range args[1:] {
		right, err := lw.lowerExpr(a)
		if err != nil {
			return nil, err
		}
		left = BinaryExpression(op, left, right, e.Position)
	}
	return left, nil
}

// lowerCall is the fallback for any list whose head is not a special
// form: either collection-access (spec §8 scenario 6) when the head is
// a variable bound to an Array/Set/Map, or a plain function call.
func (lw *Lowerer) lowerCall(e, head *sexpr.SExpr, args []*sexpr.SExpr) (*Node, error) {
	if head != nil && head.Kind == sexpr.KindSymbol && len(args) == 1 && lw.symbols != nil {
		if sym, ok := lw.symbols.Lookup(head.Name); ok && sym.Kind == symtab.KindVariable {
			collectionType := ""
			switch sym.Type {
			case "Set", "Map":
				collectionType = sym.Type
			case "Array", "Unknown":
				// "Unknown" is inferType's default for any initializer
				// that isn't a literal collection/enum/fn/new
				// constructor — the common case, not a corner case —
				// and spec §4.3 is explicit it indexes the same way
				// "Array" does: "Array (or unknown indexed receiver)
				// -> (js-get name idx)". Anything else ("Function", or
				// a bound `new`-constructed instance) isn't an indexed
				// receiver and falls through to an ordinary call below.
				collectionType = "Array"
			}
			if collectionType != "" {
				key, err := lw.lowerExpr(args[0])
				if err != nil {
					return nil, err
				}
				return GetAndCall(Identifier(head.Name, head.Position), key, collectionType, e.Position), nil
			}
		}
	}

	callee, err := lw.lowerExpr(head)
	if err != nil {
		return nil, err
	}
	rest, err := lw.lowerExprs(args)
	if err != nil {
		return nil, err
	}
	return CallExpression(callee, rest, e.Position), nil
}

func (lw *Lowerer) lowerExprs(exprs []*sexpr.SExpr) ([]*Node, error) {
	out := make([]*Node, 0, len(exprs))
	for _, e := range exprs {
		n, err := lw.lowerExpr(e)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}
