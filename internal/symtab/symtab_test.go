package symtab

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefineAndLookup(t *testing.T) {
	root := New()
	root.Define(&Symbol{Name: "x", Kind: KindVariable, Scope: ScopeGlobal})

	sym, ok := root.Lookup("x")
	require.True(t, ok)
	require.Equal(t, KindVariable, sym.Kind)
}

func TestChildScopeFallsBackToParent(t *testing.T) {
	root := New()
	root.Define(&Symbol{Name: "x", Kind: KindVariable, Scope: ScopeGlobal})

	child := root.NewChild()
	child.Define(&Symbol{Name: "y", Kind: KindVariable, Scope: ScopeLocal})

	_, ok := child.Lookup("x")
	require.True(t, ok)

	_, ok = root.Lookup("y")
	require.False(t, ok)
}

func TestChildShadowsParent(t *testing.T) {
	root := New()
	root.Define(&Symbol{Name: "x", Kind: KindVariable, Type: "Number"})

	child := root.NewChild()
	child.Define(&Symbol{Name: "x", Kind: KindVariable, Type: "String"})

	sym, _ := child.Lookup("x")
	require.Equal(t, "String", sym.Type)

	rootSym, _ := root.Lookup("x")
	require.Equal(t, "Number", rootSym.Type)
}

func TestLookupLocalDoesNotWalkParent(t *testing.T) {
	root := New()
	root.Define(&Symbol{Name: "x", Kind: KindVariable})
	child := root.NewChild()

	_, ok := child.LookupLocal("x")
	require.False(t, ok)
}

func TestEnumCaseRecordsParent(t *testing.T) {
	root := New()
	root.Define(&Symbol{Name: "Color", Kind: KindEnum, Cases: []EnumCase{{Name: "red"}, {Name: "blue"}}})
	root.Define(&Symbol{Name: "Color.red", Kind: KindEnumCase, Parent: "Color"})

	sym, ok := root.Lookup("Color.red")
	require.True(t, ok)
	require.Equal(t, "Color", sym.Parent)
}
