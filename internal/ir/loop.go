package ir

import (
	"fmt"
	"sync/atomic"

	"github.com/hql-lang/hqlc/internal/herr"
	"github.com/hql-lang/hqlc/internal/sexpr"
)

var loopCounter uint64

// freshLoopName produces the fresh loop_<n> helper name of spec §4.7,
// mirroring the macro package's gensym counter.
func freshLoopName() string {
	n := atomic.AddUint64(&loopCounter, 1)
	return fmt.Sprintf("loop_%d", n)
}

// lowerLoop implements the notable loop/recur lowering algorithm of
// spec §4.7: `(loop ((n1 v1) …) body…)` becomes an IIFE that declares a
// helper function named by a fresh loop id and immediately calls it
// with the initial binding values. The helper name is pushed onto the
// Lowerer's loop stack for the duration of lowering the body, so
// `recur` (and any nested loop) resolves to the correct enclosing
// helper, per spec §8 scenario 4.
func (lw *Lowerer) lowerLoop(e *sexpr.SExpr, args []*sexpr.SExpr) (*Node, error) {
	if len(args) < 1 || args[0].Kind != sexpr.KindList {
		return nil, herr.New(herr.FamilyValidation, herr.KindBadArgument, e, "loop requires a binding list")
	}

	var params []Param
	var inits []*Node
	for _, pair := range args[0].Elements {
		if pair.Kind != sexpr.KindList || len(pair.Elements) != 2 || pair.Elements[0].Kind != sexpr.KindSymbol {
			return nil, herr.New(herr.FamilyValidation, herr.KindBadArgument, pair, "loop bindings are written (name value)")
		}
		v, err := lw.lowerExpr(pair.Elements[1])
		if err != nil {
			return nil, err
		}
		params = append(params, Param{Name: pair.Elements[0].Name})
		inits = append(inits, v)
	}

	helperName := freshLoopName()

	lw.loopStack = append(lw.loopStack, helperName)
	body, err := lw.lowerBlock(args[1:], e.Position)
	lw.loopStack = lw.loopStack[:len(lw.loopStack)-1]
	if err != nil {
		return nil, err
	}

	helperDecl := FunctionDeclaration(helperName, params, body, e.Position)
	invoke := ReturnStatement(CallExpression(Identifier(helperName, e.Position), inits, e.Position), e.Position)
	outerBody := BlockStatement([]*Node{helperDecl, invoke}, e.Position)
	outerFn := FunctionExpression("", nil, outerBody, e.Position)

	return InteropIIFE(outerFn, nil, e.Position), nil
}

// lowerRecur rewrites `(recur a1 a2 …)` to a return of a call to the
// innermost enclosing loop helper, per spec §4.7. Used outside any
// loop, it is a ValidationError (spec §4.7: "recur outside any loop is
// a ValidationError").
func (lw *Lowerer) lowerRecur(e *sexpr.SExpr) (*Node, error) {
	if len(lw.loopStack) == 0 {
		return nil, herr.New(herr.FamilyValidation, herr.KindRecurOutsideLoop, e, "recur used outside any enclosing loop")
	}

	helper := lw.loopStack[len(lw.loopStack)-1]
	newArgs, err := lw.lowerExprs(e.Tail())
	if err != nil {
		return nil, err
	}

	call := CallExpression(Identifier(helper, e.Position), newArgs, e.Position)
	return ReturnStatement(call, e.Position), nil
}
