// Package typeexpr implements a small participle/v2 grammar for HQL's
// type annotations: the plain names and generic-looking parameter
// types of spec §4.2 (`name: Type`), fx/fn return types (spec §4.3),
// and the `[ElementType]` array-sugar that rewrites to
// `Array<ElementType>`.
//
// Grounded on the teacher's own struct-tag grammar for type-ish
// productions (golangee-dyml/ast/ast.go: Type{Pointer, Qualifier,
// Optional, Params}), adapted from DyML's pointer/qualifier-path shape
// to HQL's bracket-sugar/generic-angle-bracket shape.
package typeexpr

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var typeLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Optional", Pattern: `\?`},
	{Name: "LBracket", Pattern: `\[`},
	{Name: "RBracket", Pattern: `\]`},
	{Name: "LAngle", Pattern: `<`},
	{Name: "RAngle", Pattern: `>`},
	{Name: "Comma", Pattern: `,`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// TypeExpr is the parsed form of one type annotation. Exactly one of
// Array or Name is populated: Array for the `[ElementType]` sugar,
// Name (plus optional Params) for a plain or generic name.
type TypeExpr struct {
	Pos, EndPos lexer.Position

	Array    *TypeExpr   `("[" @@ "]")?`
	Name     string      `@Ident?`
	Params   []*TypeExpr `("<" @@ ("," @@)* ">")?`
	Optional bool        `@Optional?`
}

var typeParser = participle.MustBuild(&TypeExpr{},
	participle.Lexer(typeLexer),
	participle.Elide("Whitespace"),
	participle.UseLookahead(2),
)

// Parse reads a single type annotation from src (e.g. "Array<Number>",
// "[Number]", "Map<string, number>?"), mirroring the teacher's own
// ParseModuleFile/ParseWorkspaceFile entry points
// (golangee-dyml/parser/workspace.go).
func Parse(src string) (*TypeExpr, error) {
	t := &TypeExpr{}
	if err := typeParser.ParseString("", src, t); err != nil {
		return nil, err
	}
	return t, nil
}
