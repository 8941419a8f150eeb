package transform

import (
	"strings"

	"github.com/hql-lang/hqlc/internal/herr"
	"github.com/hql-lang/hqlc/internal/sexpr"
	"github.com/hql-lang/hqlc/internal/symtab"
	"github.com/hql-lang/hqlc/internal/typeexpr"
)

type rewriter struct {
	symbols *symtab.Table
	enums   *enumRegistry
}

// rewrite recursively desugars e into its canonical form, per the
// rules of spec §4.3.
func (rw *rewriter) rewrite(e *sexpr.SExpr) (*sexpr.SExpr, error) {
	if e == nil {
		return nil, nil
	}

	switch e.Kind {
	case sexpr.KindLiteral:
		return e, nil

	case sexpr.KindSymbol:
		return rw.rewriteSymbol(e), nil

	case sexpr.KindList:
		return rw.rewriteList(e)
	}

	return e, nil
}

// rewriteSymbol applies the dot-shorthand rule to a bare enum-case
// reference (spec §4.3: "Dot shorthand symbol").
func (rw *rewriter) rewriteSymbol(e *sexpr.SExpr) *sexpr.SExpr {
	if !strings.HasPrefix(e.Name, ".") || len(e.Name) < 2 {
		return e
	}
	caseName := e.Name[1:]
	if enumName, ok := rw.enums.resolve(caseName); ok {
		return sexpr.Sym(enumName+"."+caseName, e.Position)
	}
	return e
}

func (rw *rewriter) rewriteSymbolPreferring(e *sexpr.SExpr, preferredType string) *sexpr.SExpr {
	if !strings.HasPrefix(e.Name, ".") || len(e.Name) < 2 {
		return e
	}
	caseName := e.Name[1:]

	if preferredType != "" {
		for _, enumName := range rw.enums.casesToEnums[caseName] {
			if enumName == preferredType {
				return sexpr.Sym(enumName+"."+caseName, e.Position)
			}
		}
	}

	if enumName, ok := rw.enums.resolve(caseName); ok {
		return sexpr.Sym(enumName+"."+caseName, e.Position)
	}

	if candidates := rw.enums.casesToEnums[caseName]; len(candidates) > 0 {
		return sexpr.Sym(candidates[0]+"."+caseName, e.Position) // first match wins
	}

	return e
}

func (rw *rewriter) rewriteAll(elems []*sexpr.SExpr) ([]*sexpr.SExpr, error) {
	out := make([]*sexpr.SExpr, len(elems))
	for i, el := range elems {
		r, err := rw.rewrite(el)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

func (rw *rewriter) rewriteList(e *sexpr.SExpr) (*sexpr.SExpr, error) {
	head := e.Head()
	if head != nil && head.Kind == sexpr.KindSymbol {
		switch head.Name {
		case "let":
			return rw.rewriteLet(e)
		case "fx":
			return rw.rewriteFx(e)
		case "fn":
			return rw.rewriteFn(e)
		case "=", "eq?":
			return rw.rewriteEquality(e)
		}
	}

	return rw.rewriteGeneric(e)
}

// rewriteGeneric handles dot-chains and collection access, then
// recursively rewrites every remaining element, preserving
// named-argument pairs structurally.
func (rw *rewriter) rewriteGeneric(e *sexpr.SExpr) (*sexpr.SExpr, error) {
	elems := e.Elements

	if len(elems) == 2 && elems[0].Kind == sexpr.KindSymbol {
		if sym, ok := rw.symbols.Lookup(elems[0].Name); ok && sym.Kind == symtab.KindVariable {
			idx, err := rw.rewrite(elems[1])
			if err != nil {
				return nil, err
			}
			name := sexpr.Sym(elems[0].Name, elems[0].Position)
			switch sym.Type {
			case "Set":
				return sexpr.List([]*sexpr.SExpr{
					sexpr.Sym("js-call", e.Position),
					sexpr.List([]*sexpr.SExpr{sexpr.Sym("js-call", e.Position), sexpr.Sym("Array", e.Position), sexpr.Str("from", e.Position), name}, e.Position),
					sexpr.Str("at", e.Position), idx,
				}, e.Position), nil
			case "Map":
				return sexpr.List([]*sexpr.SExpr{sexpr.Sym("js-call", e.Position), name, sexpr.Str("get", e.Position), idx}, e.Position), nil
			case "Array", "Unknown":
				// "Unknown" is inferType's default whenever a bound
				// variable's initializer isn't a literal collection/
				// enum/fn/new constructor — the common case, not a
				// corner case — and spec §4.3 is explicit it indexes
				// the same way "Array" does: "Array (or unknown
				// indexed receiver) -> (js-get name idx)".
				return sexpr.List([]*sexpr.SExpr{sexpr.Sym("js-get", e.Position), name, idx}, e.Position), nil
			}
			// Anything else (a "Function"-typed variable, or a bound
			// `new`-constructed instance) isn't an indexed receiver;
			// fall through to an ordinary call below.
		}
	}

	if hasDotSegment(elems) {
		return rw.rewriteDotChain(e)
	}

	out, err := rw.rewriteAll(elems)
	if err != nil {
		return nil, err
	}
	return sexpr.List(out, e.Position), nil
}

func hasDotSegment(elems []*sexpr.SExpr) bool {
	for i, el := range elems {
		if i == 0 {
			continue
		}
		if el.Kind == sexpr.KindSymbol && strings.HasPrefix(el.Name, ".") && len(el.Name) > 1 {
			return true
		}
	}
	return false
}

// rewriteDotChain implements `(obj .m1 a… .m2 b… …)` → nested
// method-call/js-method forms (spec §4.3).
func (rw *rewriter) rewriteDotChain(e *sexpr.SExpr) (*sexpr.SExpr, error) {
	elems := e.Elements

	receiver, err := rw.rewrite(elems[0])
	if err != nil {
		return nil, err
	}

	i := 1
	for i < len(elems) {
		seg := elems[i]
		method := strings.TrimPrefix(seg.Name, ".")
		i++

		var args []*sexpr.SExpr
		for i < len(elems) && !(elems[i].Kind == sexpr.KindSymbol && strings.HasPrefix(elems[i].Name, ".") && len(elems[i].Name) > 1) {
			a, err := rw.rewrite(elems[i])
			if err != nil {
				return nil, err
			}
			args = append(args, a)
			i++
		}

		if len(args) > 0 {
			call := append([]*sexpr.SExpr{sexpr.Sym("method-call", seg.Position), receiver, sexpr.Str(method, seg.Position)}, args...)
			receiver = sexpr.List(call, seg.Position)
		} else {
			receiver = sexpr.List([]*sexpr.SExpr{sexpr.Sym("js-method", seg.Position), receiver, sexpr.Str(method, seg.Position)}, seg.Position)
		}
	}

	return receiver, nil
}

// rewriteEquality implements the "(= x .case)" / "(= .case x)"
// shorthand-aware rewrite (spec §4.3).
func (rw *rewriter) rewriteEquality(e *sexpr.SExpr) (*sexpr.SExpr, error) {
	args := e.Tail()
	if len(args) != 2 {
		return rw.rewriteGeneric(e)
	}

	left, right := args[0], args[1]
	leftIsDot := left.Kind == sexpr.KindSymbol && strings.HasPrefix(left.Name, ".")
	rightIsDot := right.Kind == sexpr.KindSymbol && strings.HasPrefix(right.Name, ".")

	if leftIsDot && !rightIsDot {
		left = rw.rewriteSymbolPreferring(left, declaredType(rw.symbols, right))
	} else if rightIsDot && !leftIsDot {
		right = rw.rewriteSymbolPreferring(right, declaredType(rw.symbols, left))
	} else {
		var err error
		left, err = rw.rewrite(left)
		if err != nil {
			return nil, err
		}
		right, err = rw.rewrite(right)
		if err != nil {
			return nil, err
		}
	}

	return sexpr.List([]*sexpr.SExpr{e.Head(), left, right}, e.Position), nil
}

func declaredType(tbl *symtab.Table, e *sexpr.SExpr) string {
	if e.Kind != sexpr.KindSymbol {
		return ""
	}
	if sym, ok := tbl.Lookup(e.Name); ok {
		return sym.Type
	}
	return ""
}

// rewriteLet implements `(let name value)` / `(let (n1 v1 …) body…)`;
// any other shape is a fatal TransformError (spec §4.3).
func (rw *rewriter) rewriteLet(e *sexpr.SExpr) (*sexpr.SExpr, error) {
	args := e.Tail()

	if len(args) >= 2 && args[0].Kind == sexpr.KindSymbol {
		val, err := rw.rewrite(args[1])
		if err != nil {
			return nil, err
		}
		return sexpr.List([]*sexpr.SExpr{e.Head(), args[0], val}, e.Position), nil
	}

	if len(args) >= 1 && args[0].Kind == sexpr.KindList {
		pairs := args[0].Elements
		if len(pairs)%2 != 0 {
			return nil, herr.New(herr.FamilyTransform, herr.KindBadLet, e, "let binding list must have an even number of elements").WithPhase("rewrite")
		}

		rewrittenPairs := make([]*sexpr.SExpr, len(pairs))
		for i := 0; i < len(pairs); i += 2 {
			if pairs[i].Kind != sexpr.KindSymbol {
				return nil, herr.New(herr.FamilyTransform, herr.KindBadLet, e, "let binding name must be a symbol").WithPhase("rewrite")
			}
			v, err := rw.rewrite(pairs[i+1])
			if err != nil {
				return nil, err
			}
			rewrittenPairs[i] = pairs[i]
			rewrittenPairs[i+1] = v
		}

		body, err := rw.rewriteAll(args[1:])
		if err != nil {
			return nil, err
		}

		out := append([]*sexpr.SExpr{e.Head(), sexpr.List(rewrittenPairs, args[0].Position)}, body...)
		return sexpr.List(out, e.Position), nil
	}

	return nil, herr.New(herr.FamilyTransform, herr.KindBadLet, e,
		"'let' must be (let name value) or (let (n1 v1 ...) body...)").WithPhase("rewrite")
}

// rewriteFx implements the fully typed `(name (params…) (-> ReturnType) body…)`
// form, including the `[ElementType]` → `Array<ElementType>` return-type
// rewrite (spec §4.3).
func (rw *rewriter) rewriteFx(e *sexpr.SExpr) (*sexpr.SExpr, error) {
	args := e.Tail()
	if len(args) < 2 || args[0].Kind != sexpr.KindSymbol || args[1].Kind != sexpr.KindList {
		return nil, herr.New(herr.FamilyTransform, herr.KindBadFxForm, e,
			"'fx' must be (fx name (params...) (-> ReturnType) body...)").WithPhase("rewrite")
	}

	name := args[0]
	params := args[1]

	rest := args[2:]
	var retType *sexpr.SExpr
	bodyStart := 0
	if len(rest) > 0 && rest[0].IsCall("->") {
		retType = rewriteArrayReturnType(rest[0])
		bodyStart = 1
	} else {
		return nil, herr.New(herr.FamilyTransform, herr.KindBadFxForm, e,
			"'fx' requires a (-> ReturnType) return type").WithPhase("rewrite")
	}

	body, err := rw.rewriteAll(rest[bodyStart:])
	if err != nil {
		return nil, err
	}

	out := []*sexpr.SExpr{e.Head(), name, params, retType}
	out = append(out, body...)
	return sexpr.List(out, e.Position), nil
}

// rewriteArrayReturnType rewrites `[ElementType]` written as a vector
// call to `Array<ElementType>` inside a `(-> ReturnType)` node,
// handling arbitrarily nested array sugar (`[[Number]]` -> `Array<Array<Number>>`)
// and generic element types via the typeexpr grammar.
func rewriteArrayReturnType(arrow *sexpr.SExpr) *sexpr.SExpr {
	if len(arrow.Elements) != 2 {
		return arrow
	}
	ret := arrow.Elements[1]
	if !ret.IsCall("vector") {
		return arrow
	}

	te := typeExprFromSExpr(ret)
	rewritten := sexpr.Sym(te.String(), ret.Position)
	return sexpr.List([]*sexpr.SExpr{arrow.Elements[0], rewritten}, arrow.Position)
}

// typeExprFromSExpr converts a type-position S-expression into a
// structured TypeExpr: a `(vector Elem)` call (the `[Elem]` array
// sugar's parsed form) becomes an array, a bare symbol is parsed
// through the typeexpr grammar (falling back to a plain name on
// malformed generic syntax), and anything else degrades to its
// canonical printed text as a plain name.
func typeExprFromSExpr(e *sexpr.SExpr) *typeexpr.TypeExpr {
	if e == nil {
		return nil
	}
	if e.IsCall("vector") && len(e.Elements) == 2 {
		return typeexpr.ArrayOf(typeExprFromSExpr(e.Elements[1]))
	}
	if e.Kind == sexpr.KindSymbol {
		if te, err := typeexpr.Parse(e.Name); err == nil {
			return te
		}
		return typeexpr.Simple(e.Name)
	}
	return typeexpr.Simple(sexpr.Print(e))
}

// rewriteFn implements the optionally typed `(name (params…) (-> ReturnType)? body…)`.
func (rw *rewriter) rewriteFn(e *sexpr.SExpr) (*sexpr.SExpr, error) {
	args := e.Tail()
	if len(args) < 1 || args[0].Kind != sexpr.KindSymbol {
		return nil, herr.New(herr.FamilyTransform, herr.KindBadFnForm, e,
			"'fn' must be (fn name (params...) body...)").WithPhase("rewrite")
	}

	name := args[0]
	rest := args[1:]

	out := []*sexpr.SExpr{e.Head(), name}

	if len(rest) > 0 && rest[0].Kind == sexpr.KindList {
		out = append(out, rest[0])
		rest = rest[1:]
	} else {
		out = append(out, sexpr.List(nil, e.Position))
	}

	if len(rest) > 0 && rest[0].IsCall("->") {
		out = append(out, rewriteArrayReturnType(rest[0]))
		rest = rest[1:]
	}

	body, err := rw.rewriteAll(rest)
	if err != nil {
		return nil, err
	}
	out = append(out, body...)

	return sexpr.List(out, e.Position), nil
}
