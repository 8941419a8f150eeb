package ir

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hql-lang/hqlc/internal/herr"
	"github.com/hql-lang/hqlc/internal/sexpr"
	"github.com/hql-lang/hqlc/internal/symtab"
	"github.com/hql-lang/hqlc/internal/token"
	"github.com/hql-lang/hqlc/internal/transform"
)

func sym(name string) *sexpr.SExpr   { return sexpr.Sym(name, token.Position{}) }
func num(n float64) *sexpr.SExpr     { return sexpr.Num(n, token.Position{}) }
func str(s string) *sexpr.SExpr      { return sexpr.Str(s, token.Position{}) }
func list(e ...*sexpr.SExpr) *sexpr.SExpr { return sexpr.List(e, token.Position{}) }

func TestLowerLiteralsAndIdentifier(t *testing.T) {
	lw := &Lowerer{}
	n, err := lw.lowerExpr(num(42))
	require.NoError(t, err)
	require.Equal(t, KindNumericLiteral, n.Kind)
	require.Equal(t, float64(42), n.Num)

	n, err = lw.lowerExpr(sym("x"))
	require.NoError(t, err)
	require.Equal(t, KindIdentifier, n.Kind)
	require.Equal(t, "x", n.Name)
}

func TestLowerBinaryExpressionChain(t *testing.T) {
	lw := &Lowerer{}
	n, err := lw.lowerExpr(list(sym("+"), num(1), num(2), num(3)))
	require.NoError(t, err)
	require.Equal(t, KindBinaryExpression, n.Kind)
	require.Equal(t, "+", n.Operator)
	// left-folded: (1+2)+3
	require.Equal(t, KindBinaryExpression, n.A.Kind)
	require.Equal(t, float64(1), n.A.A.Num)
	require.Equal(t, float64(2), n.A.B.Num)
	require.Equal(t, float64(3), n.B.Num)
}

func TestLowerEqualityOperatorMapsToStrictEquals(t *testing.T) {
	lw := &Lowerer{}
	n, err := lw.lowerExpr(list(sym("="), sym("a"), sym("b")))
	require.NoError(t, err)
	require.Equal(t, "===", n.Operator)
}

func TestLowerEnumDotShorthandToMemberExpression(t *testing.T) {
	lw := &Lowerer{}
	n, err := lw.lowerExpr(sym("Color.red"))
	require.NoError(t, err)
	require.Equal(t, KindMemberExpression, n.Kind)
	require.Equal(t, KindIdentifier, n.A.Kind)
	require.Equal(t, "Color", n.A.Name)
	require.Equal(t, "red", n.Name)
}

func TestLowerEnumDeclaration(t *testing.T) {
	lw := &Lowerer{}
	src := list(sym("enum"), sym("Color"), list(sym("case"), sym("red")), list(sym("case"), sym("blue")))
	n, err := lw.lowerEnum(src)
	require.NoError(t, err)
	require.Equal(t, KindEnumDeclaration, n.Kind)
	require.Equal(t, "Color", n.Name)
	require.Len(t, n.Cases, 2)
	require.Equal(t, "red", n.Cases[0].Name)
	require.Equal(t, "blue", n.Cases[1].Name)
}

func TestLowerFxFunctionDeclarationCarriesTypesAndReturnType(t *testing.T) {
	lw := &Lowerer{}
	src := list(sym("fx"), sym("add"), list(sym("a:"), sym("Number"), sym("b:"), sym("Number")),
		list(sym("->"), sym("Number")), list(sym("+"), sym("a"), sym("b")))
	n, err := lw.lowerFx(src)
	require.NoError(t, err)
	require.Equal(t, KindFxFunctionDeclaration, n.Kind)
	require.Equal(t, "add", n.Name)
	require.Equal(t, "Number", n.ReturnType)
	require.Len(t, n.Params, 2)
	require.Equal(t, "a", n.Params[0].Name)
	require.Equal(t, "Number", n.Params[0].Type)
	require.Equal(t, KindBlockStatement, n.A.Kind)
	require.Len(t, n.A.Body, 1)
	require.Equal(t, KindReturnStatement, n.A.Body[0].Kind)
}

// TestLoopRecurLowering reproduces spec §8 scenario 4 literally:
// (loop ((i 0)) (if (< i 3) (recur (+ i 1)) i))
func TestLoopRecurLowering(t *testing.T) {
	lw := &Lowerer{}
	src := list(sym("loop"),
		list(list(sym("i"), num(0))),
		list(sym("if"),
			list(sym("<"), sym("i"), num(3)),
			list(sym("recur"), list(sym("+"), sym("i"), num(1))),
			sym("i"),
		),
	)

	n, err := lw.lowerExpr(src)
	require.NoError(t, err)
	require.Equal(t, KindInteropIIFE, n.Kind)

	outerFn := n.A
	require.Equal(t, KindFunctionExpression, outerFn.Kind)
	require.Len(t, outerFn.A.Body, 2)

	helper := outerFn.A.Body[0]
	require.Equal(t, KindFunctionDeclaration, helper.Kind)
	require.Len(t, helper.Params, 1)
	require.Equal(t, "i", helper.Params[0].Name)

	// helper body is a single IfStatement (scenario 4: "body is an IfStatement")
	require.Len(t, helper.A.Body, 1)
	ifStmt := helper.A.Body[0]
	require.Equal(t, KindIfStatement, ifStmt.Kind)

	// recur branch: a ReturnStatement whose argument calls the helper with (+ i 1)
	consequent := ifStmt.C
	require.Len(t, consequent.Body, 1)
	require.Equal(t, KindReturnStatement, consequent.Body[0].Kind)
	call := consequent.Body[0].A
	require.Equal(t, KindCallExpression, call.Kind)
	require.Equal(t, helper.Name, call.A.Name)
	require.Equal(t, KindBinaryExpression, call.Body[0].Kind)

	// fall-through branch: return i
	alternate := ifStmt.B
	require.Len(t, alternate.Body, 1)
	require.Equal(t, KindReturnStatement, alternate.Body[0].Kind)
	require.Equal(t, "i", alternate.Body[0].A.Name)

	invoke := outerFn.A.Body[1]
	require.Equal(t, KindReturnStatement, invoke.Kind)
	require.Equal(t, helper.Name, invoke.A.A.Name)
	require.Equal(t, float64(0), invoke.A.Body[0].Num)
}

func TestNestedLoopsTargetCorrectHelper(t *testing.T) {
	lw := &Lowerer{}
	inner := list(sym("loop"), list(list(sym("j"), num(0))), list(sym("recur"), sym("j")))
	outer := list(sym("loop"), list(list(sym("i"), num(0))), inner)

	n, err := lw.lowerExpr(outer)
	require.NoError(t, err)
	require.Empty(t, lw.loopStack)

	outerHelper := n.A.A.Body[0]
	innerIIFE := outerHelper.A.Body[0].A
	innerHelper := innerIIFE.A.A.Body[0]
	recurReturn := innerHelper.A.Body[0]
	require.Equal(t, KindReturnStatement, recurReturn.Kind)
	require.Equal(t, innerHelper.Name, recurReturn.A.A.Name)
	require.NotEqual(t, outerHelper.Name, innerHelper.Name)
}

func TestRecurOutsideLoopIsValidationError(t *testing.T) {
	lw := &Lowerer{}
	_, err := lw.lowerExpr(list(sym("recur"), num(1)))
	require.Error(t, err)
	var herrErr *herr.Error
	require.ErrorAs(t, err, &herrErr)
	require.Equal(t, herr.FamilyValidation, herrErr.Family)
	require.Equal(t, herr.KindRecurOutsideLoop, herrErr.Kind)
}

// TestCollectionAccessInference reproduces spec §8 scenario 6.
func TestCollectionAccessInference(t *testing.T) {
	tbl := symtab.New()
	tbl.Define(&symtab.Symbol{Name: "s", Kind: symtab.KindVariable, Type: "Set"})
	lw := &Lowerer{symbols: tbl}

	n, err := lw.lowerExpr(list(sym("s"), num(0)))
	require.NoError(t, err)
	require.Equal(t, KindGetAndCall, n.Kind)
	require.Equal(t, "Set", n.CollectionType)
	require.Equal(t, "s", n.A.Name)
	require.Equal(t, float64(0), n.B.Num)
}

func TestCollectionAccessInferenceSwitchesOnRebind(t *testing.T) {
	tbl := symtab.New()
	tbl.Define(&symtab.Symbol{Name: "s", Kind: symtab.KindVariable, Type: "Map"})
	lw := &Lowerer{symbols: tbl}

	n, err := lw.lowerExpr(list(sym("s"), str("a")))
	require.NoError(t, err)
	require.Equal(t, KindGetAndCall, n.Kind)
	require.Equal(t, "Map", n.CollectionType)
}

// TestCollectionAccessInferenceDefaultsUnknownToArray covers spec §4.3's
// "Array (or unknown indexed receiver) -> (js-get name idx)": a bound
// variable whose initializer wasn't a literal collection/enum/fn/new
// constructor (inferType's "Unknown" default) still indexes, not falls
// through to an ordinary call.
func TestCollectionAccessInferenceDefaultsUnknownToArray(t *testing.T) {
	tbl := symtab.New()
	tbl.Define(&symtab.Symbol{Name: "x", Kind: symtab.KindVariable, Type: "Unknown"})
	lw := &Lowerer{symbols: tbl}

	n, err := lw.lowerExpr(list(sym("x"), num(0)))
	require.NoError(t, err)
	require.Equal(t, KindGetAndCall, n.Kind)
	require.Equal(t, "Array", n.CollectionType)
}

func TestFunctionTypedVariableDoesNotBecomeGetAndCall(t *testing.T) {
	tbl := symtab.New()
	tbl.Define(&symtab.Symbol{Name: "greet", Kind: symtab.KindVariable, Type: "Function"})
	lw := &Lowerer{symbols: tbl}

	n, err := lw.lowerExpr(list(sym("greet"), str("world")))
	require.NoError(t, err)
	require.Equal(t, KindCallExpression, n.Kind)
}

func TestPlainCallDoesNotBecomeGetAndCall(t *testing.T) {
	tbl := symtab.New()
	tbl.Define(&symtab.Symbol{Name: "greet", Kind: symtab.KindFunction})
	lw := &Lowerer{symbols: tbl}

	n, err := lw.lowerExpr(list(sym("greet"), str("world")))
	require.NoError(t, err)
	require.Equal(t, KindCallExpression, n.Kind)
}

func TestLowerLetStatementFlattensBodyForms(t *testing.T) {
	lw := &Lowerer{}
	src := list(sym("let"), sym("x"), num(1), list(sym("set!"), sym("x"), num(2)), sym("x"))
	stmts, err := lw.lowerStatement(src, true)
	require.NoError(t, err)
	require.Len(t, stmts, 3)
	require.Equal(t, KindVariableDeclaration, stmts[0].Kind)
	require.Equal(t, KindExpressionStatement, stmts[1].Kind)
	require.Equal(t, KindReturnStatement, stmts[2].Kind)
}

func TestMacroDefinitionsProduceNoIR(t *testing.T) {
	lw := &Lowerer{}
	nodes, err := lw.lowerTop(list(sym("defmacro"), sym("m"), list(), sym("x")))
	require.NoError(t, err)
	require.Nil(t, nodes)
}

func TestEqualIgnoresPosition(t *testing.T) {
	a := Identifier("x", token.Position{BeginPos: token.Pos{Line: 1}})
	b := Identifier("x", token.Position{BeginPos: token.Pos{Line: 99}})
	require.True(t, Equal(a, b))

	c := Identifier("y", token.Position{})
	require.False(t, Equal(a, c))
}

func TestLowerArraySetMapLiterals(t *testing.T) {
	lw := &Lowerer{}

	arr, err := lw.lowerExpr(list(sym("vector"), num(1), num(2)))
	require.NoError(t, err)
	require.Equal(t, KindArrayExpression, arr.Kind)
	require.Len(t, arr.Body, 2)

	set, err := lw.lowerExpr(list(sym("hash-set"), num(1)))
	require.NoError(t, err)
	require.Equal(t, KindNewExpression, set.Kind)
	require.Equal(t, "Set", set.A.Name)

	m, err := lw.lowerExpr(list(sym("hash-map"), str("a"), num(1)))
	require.NoError(t, err)
	require.Equal(t, KindNewExpression, m.Kind)
	require.Equal(t, "Map", m.A.Name)
}

func TestLowerMethodCallDotConvention(t *testing.T) {
	lw := &Lowerer{}
	n, err := lw.lowerExpr(list(sym(".toUpperCase"), sym("s")))
	require.NoError(t, err)
	require.Equal(t, KindCallMemberExpression, n.Kind)
	require.Equal(t, "toUpperCase", n.Name)
	require.Equal(t, "s", n.A.Name)
}

func TestLowerPropertyAccessDotDashConvention(t *testing.T) {
	lw := &Lowerer{}
	n, err := lw.lowerExpr(list(sym(".-length"), sym("s")))
	require.NoError(t, err)
	require.Equal(t, KindMemberExpression, n.Kind)
	require.Equal(t, "length", n.Name)
}

// TestLowerCanonicalSetAccessCollapsesToGetAndCall reproduces what
// transform.rewriteGeneric actually emits for scenario 6's `(s 0)` once
// `s` is a Set: `(js-call (js-call Array "from" s) "at" 0)`.
func TestLowerCanonicalSetAccessCollapsesToGetAndCall(t *testing.T) {
	lw := &Lowerer{}
	src := list(sym("js-call"),
		list(sym("js-call"), sym("Array"), str("from"), sym("s")),
		str("at"), num(0),
	)
	n, err := lw.lowerExpr(src)
	require.NoError(t, err)
	require.Equal(t, KindGetAndCall, n.Kind)
	require.Equal(t, "Set", n.CollectionType)
	require.Equal(t, "s", n.A.Name)
	require.Equal(t, float64(0), n.B.Num)
}

// TestLowerCanonicalMapAccessCollapsesToGetAndCall reproduces the Map
// branch of scenario 6: `(js-call s "get" "a")`.
func TestLowerCanonicalMapAccessCollapsesToGetAndCall(t *testing.T) {
	lw := &Lowerer{}
	src := list(sym("js-call"), sym("s"), str("get"), str("a"))
	n, err := lw.lowerExpr(src)
	require.NoError(t, err)
	require.Equal(t, KindGetAndCall, n.Kind)
	require.Equal(t, "Map", n.CollectionType)
}

func TestLowerJsGetCollapsesToGetAndCallForArray(t *testing.T) {
	lw := &Lowerer{}
	n, err := lw.lowerExpr(list(sym("js-get"), sym("arr"), num(1)))
	require.NoError(t, err)
	require.Equal(t, KindGetAndCall, n.Kind)
	require.Equal(t, "Array", n.CollectionType)
}

func TestLowerMethodCallCanonicalForm(t *testing.T) {
	lw := &Lowerer{}
	n, err := lw.lowerExpr(list(sym("method-call"), sym("obj"), str("method1"), num(1), num(2)))
	require.NoError(t, err)
	require.Equal(t, KindCallMemberExpression, n.Kind)
	require.Equal(t, "method1", n.Name)
	require.Len(t, n.Body, 2)
}

func TestLowerJsMethodCanonicalForm(t *testing.T) {
	lw := &Lowerer{}
	n, err := lw.lowerExpr(list(sym("js-method"), sym("obj"), str("method2")))
	require.NoError(t, err)
	require.Equal(t, KindJsMethodAccess, n.Kind)
	require.Equal(t, "method2", n.Name)
	require.Equal(t, "obj", n.A.Name)
}

// TestEndToEndCollectionAccessInference runs the real parse -> transform
// -> lower pipeline over spec §8 scenario 6's literal inputs, the way
// the root Compile entry point chains these phases.
func TestEndToEndCollectionAccessInference(t *testing.T) {
	reg := token.NewRegistry()
	exprs, err := sexpr.ParseAll("scenario6.hql", `(let s (hash-set 1 2 3)) (s 0)`, reg)
	require.NoError(t, err)

	var reporter herr.Reporter
	res := transform.Transform(exprs, &reporter, nil)
	require.Empty(t, reporter.Diagnostics())

	program := Lower(res.Canonical, res.Symbols, &reporter)
	require.Empty(t, reporter.Diagnostics())
	require.Len(t, program.Body, 2)

	access := program.Body[1]
	require.Equal(t, KindExpressionStatement, access.Kind)
	require.Equal(t, KindGetAndCall, access.A.Kind)
	require.Equal(t, "Set", access.A.CollectionType)

	reg2 := token.NewRegistry()
	exprs2, err := sexpr.ParseAll("scenario6b.hql", `(let s (hash-map "a" 1)) (s "a")`, reg2)
	require.NoError(t, err)

	var reporter2 herr.Reporter
	res2 := transform.Transform(exprs2, &reporter2, nil)
	require.Empty(t, reporter2.Diagnostics())

	program2 := Lower(res2.Canonical, res2.Symbols, &reporter2)
	require.Empty(t, reporter2.Diagnostics())
	access2 := program2.Body[1]
	require.Equal(t, KindGetAndCall, access2.A.Kind)
	require.Equal(t, "Map", access2.A.CollectionType)
}
