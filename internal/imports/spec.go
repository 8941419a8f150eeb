// Package imports implements the module/import resolver of spec §4.6:
// parsing the three import syntaxes, resolving local/remote/native
// module paths, detecting circular imports, and realizing a module's
// exports into the current file's macroenv.Environment.
package imports

import (
	"github.com/hql-lang/hqlc/internal/herr"
	"github.com/hql-lang/hqlc/internal/sexpr"
)

// Syntax distinguishes the three import forms of spec §4.6.
type Syntax int

const (
	// SyntaxPath is (import "path"): the whole module binds under its path.
	SyntaxPath Syntax = iota
	// SyntaxNamed is (import name from "path"): binds the module under name.
	SyntaxNamed
	// SyntaxDestructure is (import [a as x b] from "path"): extracts
	// named bindings, each with an optional alias.
	SyntaxDestructure
)

// Binding is one destructured name, with its optional local alias.
type Binding struct {
	Name  string
	Alias string // empty if not aliased
}

// ImportSpec is a parsed top-level import form.
type ImportSpec struct {
	Syntax   Syntax
	Path     string
	LocalName string // set for SyntaxNamed
	Bindings []Binding // set for SyntaxDestructure
	Form     *sexpr.SExpr
}

// ParseImportForm recognizes e as one of spec §4.6's three import
// syntaxes, returning nil, nil if e is not an import form at all.
func ParseImportForm(e *sexpr.SExpr) (*ImportSpec, error) {
	if e == nil || !e.IsCall("import") {
		return nil, nil
	}

	args := e.Tail()
	if len(args) == 0 {
		return nil, herr.New(herr.FamilyParse, herr.KindUnexpectedEndOfInput, e, "'import' requires at least a path")
	}

	// (import "path")
	if len(args) == 1 {
		path, err := stringArg(args[0], e)
		if err != nil {
			return nil, err
		}
		return &ImportSpec{Syntax: SyntaxPath, Path: path, Form: e}, nil
	}

	// (import name from "path") / (import [a as x b] from "path")
	fromIdx := -1
	for i, a := range args {
		if a.IsSymbol("from") {
			fromIdx = i
			break
		}
	}
	if fromIdx <= 0 || fromIdx+1 >= len(args) {
		return nil, herr.New(herr.FamilyParse, herr.KindUnexpectedToken, e, "expected 'import <name-or-bindings> from \"path\"'")
	}

	path, err := stringArg(args[fromIdx+1], e)
	if err != nil {
		return nil, err
	}

	head := args[0]
	if head.Kind == sexpr.KindSymbol {
		return &ImportSpec{Syntax: SyntaxNamed, Path: path, LocalName: head.Name, Form: e}, nil
	}

	if head.Kind == sexpr.KindList {
		bindings, err := parseBindings(head.Elements, e)
		if err != nil {
			return nil, err
		}
		return &ImportSpec{Syntax: SyntaxDestructure, Path: path, Bindings: bindings, Form: e}, nil
	}

	return nil, herr.New(herr.FamilyParse, herr.KindUnexpectedToken, e, "malformed import binding")
}

func parseBindings(elems []*sexpr.SExpr, form *sexpr.SExpr) ([]Binding, error) {
	var out []Binding
	for i := 0; i < len(elems); i++ {
		el := elems[i]
		if el.Kind != sexpr.KindSymbol {
			return nil, herr.New(herr.FamilyParse, herr.KindUnexpectedToken, form, "import bindings must be symbols")
		}
		b := Binding{Name: el.Name}
		if i+2 < len(elems) && elems[i+1].IsSymbol("as") && elems[i+2].Kind == sexpr.KindSymbol {
			b.Alias = elems[i+2].Name
			i += 2
		}
		out = append(out, b)
	}
	return out, nil
}

func stringArg(e *sexpr.SExpr, form *sexpr.SExpr) (string, error) {
	if e.Kind != sexpr.KindLiteral || e.LitKind != sexpr.LitString {
		return "", herr.New(herr.FamilyParse, herr.KindUnexpectedToken, form, "import path must be a string literal")
	}
	return e.Str, nil
}
