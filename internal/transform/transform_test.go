package transform

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hql-lang/hqlc/internal/herr"
	"github.com/hql-lang/hqlc/internal/sexpr"
	"github.com/hql-lang/hqlc/internal/token"
)

func parse(t *testing.T, src string) []*sexpr.SExpr {
	t.Helper()
	reg := token.NewRegistry()
	exprs, err := sexpr.ParseAll("test.hql", src, reg)
	require.NoError(t, err)
	return exprs
}

func TestEnumDotShorthandRewrite(t *testing.T) {
	exprs := parse(t, `(enum Color (case red) (case blue)) (= c .red)`)

	var reporter herr.Reporter
	res := Transform(exprs, &reporter, nil)
	require.Empty(t, reporter.Diagnostics())
	require.Len(t, res.Canonical, 2)

	eq := res.Canonical[1]
	require.True(t, eq.Elements[2].IsSymbol("Color.red"))

	_, ok := res.Symbols.Lookup("Color.red")
	require.True(t, ok)
}

func TestLetSimpleForm(t *testing.T) {
	exprs := parse(t, `(let x 1)`)

	var reporter herr.Reporter
	res := Transform(exprs, &reporter, nil)
	require.Empty(t, reporter.Diagnostics())
	require.True(t, res.Canonical[0].IsCall("let"))
}

func TestLetBadShapeReportsTransformError(t *testing.T) {
	exprs := parse(t, `(let)`)

	var reporter herr.Reporter
	res := Transform(exprs, &reporter, nil)
	require.Empty(t, res.Canonical)
	require.Len(t, reporter.Diagnostics(), 1)
	require.Equal(t, herr.FamilyTransform, reporter.Diagnostics()[0].Family)
	require.Equal(t, herr.KindBadLet, reporter.Diagnostics()[0].Kind)
}

func TestFxRequiresReturnType(t *testing.T) {
	exprs := parse(t, `(fx add (a b) (+ a b))`)

	var reporter herr.Reporter
	Transform(exprs, &reporter, nil)
	require.Len(t, reporter.Diagnostics(), 1)
	require.Equal(t, herr.KindBadFxForm, reporter.Diagnostics()[0].Kind)
}

func TestFxWithReturnType(t *testing.T) {
	exprs := parse(t, `(fx add (a b) -> Number (+ a b))`)

	var reporter herr.Reporter
	res := Transform(exprs, &reporter, nil)
	require.Empty(t, reporter.Diagnostics())

	sym, ok := res.Symbols.Lookup("add")
	require.True(t, ok)
	require.Equal(t, "Number", sym.ReturnType)
}

func TestCollectionAccessForSet(t *testing.T) {
	exprs := parse(t, `(let s (hash-set 1 2 3)) (s 0)`)

	var reporter herr.Reporter
	res := Transform(exprs, &reporter, nil)
	require.Empty(t, reporter.Diagnostics())

	access := res.Canonical[1]
	require.True(t, access.IsCall("js-call"))
	require.Equal(t, "at", access.Elements[2].Str)
}

func TestCollectionAccessForMap(t *testing.T) {
	exprs := parse(t, `(let m (hash-map "a" 1)) (m "a")`)

	var reporter herr.Reporter
	res := Transform(exprs, &reporter, nil)
	require.Empty(t, reporter.Diagnostics())

	access := res.Canonical[1]
	require.True(t, access.IsCall("js-call"))
	require.Equal(t, "get", access.Elements[2].Str)
}

func TestCollectionAccessForUnknownInitializerRewritesToJsGet(t *testing.T) {
	exprs := parse(t, `(let x (some-fn)) (x 0)`)

	var reporter herr.Reporter
	res := Transform(exprs, &reporter, nil)
	require.Empty(t, reporter.Diagnostics())

	access := res.Canonical[1]
	require.True(t, access.IsCall("js-get"))
	require.Equal(t, "x", access.Elements[1].Name)
}

func TestCollectionAccessDoesNotRewriteFunctionTypedCall(t *testing.T) {
	exprs := parse(t, `(let greet (fn (name) name)) (greet "world")`)

	var reporter herr.Reporter
	res := Transform(exprs, &reporter, nil)
	require.Empty(t, reporter.Diagnostics())

	call := res.Canonical[1]
	require.True(t, call.IsCall("greet"))
}

func TestDotChainRewrite(t *testing.T) {
	exprs := parse(t, `(obj .method1 1 2 .method2)`)

	var reporter herr.Reporter
	res := Transform(exprs, &reporter, nil)
	require.Empty(t, reporter.Diagnostics())

	outer := res.Canonical[0]
	require.True(t, outer.IsCall("js-method"))

	inner := outer.Elements[1]
	require.True(t, inner.IsCall("method-call"))
	require.Equal(t, "method1", inner.Elements[2].Str)
}

func TestCanonicalIdempotence(t *testing.T) {
	exprs := parse(t, `(enum Color (case red)) (let x (+ 1 2))`)

	var r1, r2 herr.Reporter
	res1 := Transform(exprs, &r1, nil)
	res2 := Transform(res1.Canonical, &r2, nil)

	require.Equal(t, len(res1.Canonical), len(res2.Canonical))
	for i := range res1.Canonical {
		require.True(t, sexpr.Equal(res1.Canonical[i], res2.Canonical[i]))
	}
}
