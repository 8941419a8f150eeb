package sexpr

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hql-lang/hqlc/internal/herr"
	"github.com/hql-lang/hqlc/internal/token"
)

func parseOne(t *testing.T, src string) *SExpr {
	t.Helper()
	reg := token.NewRegistry()
	exprs, err := ParseAll("test.hql", src, reg)
	require.NoError(t, err)
	require.Len(t, exprs, 1)
	return exprs[0]
}

func TestParseSimpleList(t *testing.T) {
	e := parseOne(t, `(+ 1 2)`)
	require.Equal(t, KindList, e.Kind)
	require.Len(t, e.Elements, 3)
	require.True(t, e.Elements[0].IsSymbol("+"))
}

func TestParseQuoteForms(t *testing.T) {
	q := parseOne(t, `'x`)
	require.True(t, q.IsCall("quote"))

	qq := parseOne(t, "`x")
	require.True(t, qq.IsCall("quasiquote"))

	uq := parseOne(t, `~x`)
	require.True(t, uq.IsCall("unquote"))

	sp := parseOne(t, `~@x`)
	require.True(t, sp.IsCall("unquote-splicing"))
}

func TestParseVectorDesugarsToCall(t *testing.T) {
	e := parseOne(t, `[1 2 3]`)
	require.True(t, e.IsCall("vector"))
	require.Len(t, e.Elements, 4)

	empty := parseOne(t, `[]`)
	require.True(t, empty.IsCall("empty-array"))
}

func TestParseMapDesugarsToCall(t *testing.T) {
	e := parseOne(t, `{"a": 1, "b": 2}`)
	require.True(t, e.IsCall("hash-map"))
	require.Len(t, e.Elements, 5)

	empty := parseOne(t, `{}`)
	require.True(t, empty.IsCall("empty-map"))
}

func TestParseMapMissingColonFails(t *testing.T) {
	reg := token.NewRegistry()
	_, err := ParseAll("test.hql", `{"a" 1}`, reg)
	require.Error(t, err)

	var he *herr.Error
	require.ErrorAs(t, err, &he)
	require.Equal(t, herr.KindExpectedColonInMap, he.Kind)
}

func TestParseSetDesugarsToCall(t *testing.T) {
	e := parseOne(t, `#[1 2]`)
	require.True(t, e.IsCall("hash-set"))
}

func TestParseUnclosedListFails(t *testing.T) {
	reg := token.NewRegistry()
	_, err := ParseAll("test.hql", `(let x 1`, reg)
	require.Error(t, err)

	var he *herr.Error
	require.ErrorAs(t, err, &he)
	require.Equal(t, herr.KindUnclosedList, he.Kind)
}

func TestParseDottedSymbolPreservedWithoutDash(t *testing.T) {
	e := parseOne(t, `module.property`)
	require.Equal(t, KindSymbol, e.Kind)
	require.Equal(t, "module.property", e.Name)
}

func TestParseDottedSymbolWithDashRewritesToGet(t *testing.T) {
	e := parseOne(t, `module.some-prop`)
	require.True(t, e.IsCall("get"))
	require.True(t, e.Elements[1].IsSymbol("module"))
	require.Equal(t, "some-prop", e.Elements[2].Str)
}

func TestParseLeadingDotShorthand(t *testing.T) {
	e := parseOne(t, `.red`)
	require.Equal(t, KindSymbol, e.Kind)
	require.Equal(t, ".red", e.Name)
}

func TestParseNamedArgumentKey(t *testing.T) {
	e := parseOne(t, `(greet name: "world")`)
	require.Len(t, e.Elements, 3)
	require.True(t, e.Elements[1].IsSymbol("name:"))
	require.Equal(t, "world", e.Elements[2].Str)
}

func TestParseEnumHeaderMergesNameAndType(t *testing.T) {
	e := parseOne(t, `(enum Color : String (case red) (case blue))`)
	require.True(t, e.Elements[1].IsSymbol("Color:String"))
}

func TestParseArrowReturnType(t *testing.T) {
	e := parseOne(t, `(fn add (a b) -> Number (+ a b))`)
	var arrow *SExpr
	for _, el := range e.Elements {
		if el.IsCall("->") {
			arrow = el
		}
	}
	require.NotNil(t, arrow)
	require.True(t, arrow.Elements[1].IsSymbol("Number"))
}

func TestParseBooleanAndNilLiterals(t *testing.T) {
	e := parseOne(t, `(vector true false nil)`)
	require.True(t, e.Elements[1].Bool)
	require.False(t, e.Elements[2].Bool)
	require.Equal(t, LitNil, e.Elements[3].LitKind)
}

func TestRoundTripPrintAndParse(t *testing.T) {
	original := parseOne(t, `(let x (+ 1 2.5))`)
	printed := Print(original)

	reg := token.NewRegistry()
	reparsed, err := ParseAll("test.hql", printed, reg)
	require.NoError(t, err)
	require.Len(t, reparsed, 1)
	require.True(t, Equal(original, reparsed[0]))
}

func TestPositionPreservation(t *testing.T) {
	src := `(foo bar)`
	reg := token.NewRegistry()
	exprs, err := ParseAll("test.hql", src, reg)
	require.NoError(t, err)

	sym := exprs[0].Elements[1]
	require.Equal(t, "bar", sym.Name)
	require.Equal(t, 6, sym.Begin().Col)
}
