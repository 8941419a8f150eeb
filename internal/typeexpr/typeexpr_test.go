package typeexpr

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSimpleName(t *testing.T) {
	te, err := Parse("Number")
	require.NoError(t, err)
	require.Equal(t, "Number", te.Name)
	require.Nil(t, te.Array)
	require.False(t, te.Optional)
	require.Equal(t, "Number", te.String())
}

func TestParseArraySugar(t *testing.T) {
	te, err := Parse("[Number]")
	require.NoError(t, err)
	require.NotNil(t, te.Array)
	require.Equal(t, "Number", te.Array.Name)
	require.Equal(t, "Array<Number>", te.String())
}

func TestParseNestedArraySugar(t *testing.T) {
	te, err := Parse("[[Number]]")
	require.NoError(t, err)
	require.NotNil(t, te.Array)
	require.NotNil(t, te.Array.Array)
	require.Equal(t, "Array<Array<Number>>", te.String())
}

func TestParseGeneric(t *testing.T) {
	te, err := Parse("Map<string, number>")
	require.NoError(t, err)
	require.Equal(t, "Map", te.Name)
	require.Len(t, te.Params, 2)
	require.Equal(t, "string", te.Params[0].Name)
	require.Equal(t, "number", te.Params[1].Name)
	require.Equal(t, "Map<string, number>", te.String())
}

func TestParseOptional(t *testing.T) {
	te, err := Parse("String?")
	require.NoError(t, err)
	require.True(t, te.Optional)
	require.Equal(t, "String?", te.String())
}

func TestParseGenericOptional(t *testing.T) {
	te, err := Parse("Array<Number>?")
	require.NoError(t, err)
	require.Equal(t, "Array", te.Name)
	require.Len(t, te.Params, 1)
	require.True(t, te.Optional)
}

func TestConstructors(t *testing.T) {
	require.Equal(t, "Number", Simple("Number").String())
	require.Equal(t, "Array<Number>", ArrayOf(Simple("Number")).String())
	require.Equal(t, "Map<string, number>", Generic("Map", Simple("string"), Simple("number")).String())
}
