package ir

import (
	"github.com/hql-lang/hqlc/internal/herr"
	"github.com/hql-lang/hqlc/internal/sexpr"
	"github.com/hql-lang/hqlc/internal/symtab"
	"github.com/hql-lang/hqlc/internal/token"
)

// Lowerer holds the per-file state IR lowering needs beyond the pure
// per-node translation: the symbol table built by the transformer (for
// collection-access inference, spec §8 scenario 6) and the stack of
// enclosing loop helper names recur targets (spec §4.7 "loop/recur
// lowering").
type Lowerer struct {
	symbols   *symtab.Table
	reporter  *herr.Reporter
	loopStack []string
}

// Lower runs IR lowering over the canonical program produced by
// transform+macro-expansion (spec §4.7). One failing top-level form is
// reported and dropped; lowering continues with the rest, matching the
// transformer's own per-form error recovery (spec §7).
func Lower(exprs []*sexpr.SExpr, tbl *symtab.Table, reporter *herr.Reporter) *Node {
	lw := &Lowerer{symbols: tbl, reporter: reporter}

	var body []*Node
	for _, top := range exprs {
		nodes, err := lw.lowerTop(top)
		if err != nil {
			reporter.Report(err, nil)
			continue
		}
		body = append(body, nodes...)
	}

	return Program(body, programPos(exprs))
}

func programPos(exprs []*sexpr.SExpr) token.Position {
	if len(exprs) == 0 {
		return token.Position{}
	}
	return token.Position{BeginPos: exprs[0].Begin(), EndPos: exprs[len(exprs)-1].End()}
}

// lowerTop dispatches a top-level form to its declaration-shaped IR, or
// falls back to lowering it as a single statement.
func (lw *Lowerer) lowerTop(e *sexpr.SExpr) ([]*Node, error) {
	switch {
	case e.IsCall("macro"), e.IsCall("defmacro"):
		// Macro definitions are compile-time only; nothing to emit
		// (they are fully consumed by macro expansion before lowering).
		return nil, nil
	case e.IsCall("enum"):
		n, err := lw.lowerEnum(e)
		if err != nil {
			return nil, err
		}
		return []*Node{n}, nil
	case e.IsCall("struct"), e.IsCall("class"), e.IsCall("interface"):
		n, err := lw.lowerClassLike(e)
		if err != nil {
			return nil, err
		}
		return []*Node{n}, nil
	case e.IsCall("fx"):
		n, err := lw.lowerFx(e)
		if err != nil {
			return nil, err
		}
		return []*Node{n}, nil
	case e.IsCall("fn"):
		n, err := lw.lowerFn(e)
		if err != nil {
			return nil, err
		}
		return []*Node{n}, nil
	case e.IsCall("export"):
		return lw.lowerExport(e)
	case e.IsCall("import"):
		// Import forms are fully consumed by the import resolver
		// (internal/imports) before IR lowering; nothing to emit here.
		return nil, nil
	default:
		return lw.lowerStatement(e, false)
	}
}

// lowerBlock lowers a function/lambda/loop-helper body: every form but
// the last becomes a statement, the last becomes an implicit return
// (spec §4.7's loop helper "body is the loop body with the last
// expression wrapped in a return").
func (lw *Lowerer) lowerBlock(forms []*sexpr.SExpr, pos token.Position) (*Node, error) {
	stmts, err := lw.lowerBodyForms(forms, true)
	if err != nil {
		return nil, err
	}
	return BlockStatement(stmts, pos), nil
}

func (lw *Lowerer) lowerBodyForms(forms []*sexpr.SExpr, tail bool) ([]*Node, error) {
	var out []*Node
	for i, f := range forms {
		isTail := tail && i == len(forms)-1
		stmts, err := lw.lowerStatement(f, isTail)
		if err != nil {
			return nil, err
		}
		out = append(out, stmts...)
	}
	return out, nil
}

// lowerStatement lowers e in statement position. tail marks that e is
// the last form of an enclosing body, so a plain expression becomes a
// ReturnStatement and `if` lowers to a real IfStatement (not a
// ConditionalExpression) whose branches are themselves recursively
// lowered in tail position, per spec §8 scenario 4.
func (lw *Lowerer) lowerStatement(e *sexpr.SExpr, tail bool) ([]*Node, error) {
	switch {
	case e.IsCall("let"):
		return lw.lowerLetStatement(e, tail)
	case e.IsCall("if"):
		n, err := lw.lowerIfStatement(e, tail)
		if err != nil {
			return nil, err
		}
		return []*Node{n}, nil
	case e.IsCall("recur"):
		n, err := lw.lowerRecur(e)
		if err != nil {
			return nil, err
		}
		return []*Node{n}, nil
	case e.IsCall("set!"):
		n, err := lw.lowerExpr(e)
		if err != nil {
			return nil, err
		}
		return []*Node{ExpressionStatement(n, e.Position)}, nil
	}

	expr, err := lw.lowerExpr(e)
	if err != nil {
		return nil, err
	}
	if tail {
		return []*Node{ReturnStatement(expr, e.Position)}, nil
	}
	return []*Node{ExpressionStatement(expr, e.Position)}, nil
}

// lowerLetStatement handles both "(let name value) rest..." and
// "(let (n1 v1 n2 v2) rest...)" shapes, flattening the let's own body
// forms into the surrounding statement sequence.
func (lw *Lowerer) lowerLetStatement(e *sexpr.SExpr, tail bool) ([]*Node, error) {
	args := e.Tail()
	if len(args) == 0 {
		return nil, herr.New(herr.FamilyTransform, herr.KindBadLet, e, "let requires at least a binding")
	}

	var decls []*Node
	rest := args[1:]

	switch {
	case args[0].Kind == sexpr.KindList:
		pairs := args[0].Elements
		for i := 0; i+1 < len(pairs); i += 2 {
			if pairs[i].Kind != sexpr.KindSymbol {
				continue
			}
			v, err := lw.lowerExpr(pairs[i+1])
			if err != nil {
				return nil, err
			}
			decls = append(decls, VariableDeclarator(pairs[i].Name, v, pairs[i].Position))
		}
	case args[0].Kind == sexpr.KindSymbol && len(args) >= 2:
		v, err := lw.lowerExpr(args[1])
		if err != nil {
			return nil, err
		}
		decls = append(decls, VariableDeclarator(args[0].Name, v, args[0].Position))
		rest = args[2:]
	default:
		return nil, herr.New(herr.FamilyTransform, herr.KindBadLet, e, "malformed let binding")
	}

	out := []*Node{VariableDeclaration("let", decls, e.Position)}

	body, err := lw.lowerBodyForms(rest, tail)
	if err != nil {
		return nil, err
	}
	return append(out, body...), nil
}

func (lw *Lowerer) lowerIfStatement(e *sexpr.SExpr, tail bool) (*Node, error) {
	args := e.Tail()
	if len(args) < 2 {
		return nil, herr.New(herr.FamilyValidation, herr.KindBadArgument, e, "if requires a test and a consequent")
	}

	test, err := lw.lowerExpr(args[0])
	if err != nil {
		return nil, err
	}

	consequent, err := lw.lowerBodyForms([]*sexpr.SExpr{args[1]}, tail)
	if err != nil {
		return nil, err
	}

	var alternate []*Node
	if len(args) > 2 {
		alternate, err = lw.lowerBodyForms([]*sexpr.SExpr{args[2]}, tail)
		if err != nil {
			return nil, err
		}
	}

	n := IfStatement(test, wrapBlock(consequent, args[1].Position), nil, e.Position)
	if alternate != nil {
		n.B = wrapBlock(alternate, args[2].Position)
	}
	return n, nil
}

// wrapBlock wraps a single-statement body in a BlockStatement so the
// IfStatement's branches are always `{ ... }` blocks, matching how a
// real emitter would print them.
func wrapBlock(stmts []*Node, pos token.Position) *Node {
	if len(stmts) == 1 && stmts[0].Kind == KindBlockStatement {
		return stmts[0]
	}
	return BlockStatement(stmts, pos)
}
