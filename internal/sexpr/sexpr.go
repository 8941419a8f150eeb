// Package sexpr implements HQL's single shared data type (spec §3):
// the S-expression sum Symbol | List | Literal, together with the
// recursive-descent parser that turns a token.Lexer stream into a
// []SExpr (spec §4.2).
package sexpr

import "github.com/hql-lang/hqlc/internal/token"

// Kind discriminates the SExpr sum type.
type Kind int

const (
	KindSymbol Kind = iota
	KindList
	KindLiteral
)

// LiteralKind sub-tags a Literal value (spec §3: "implementations may
// unify them under Literal with a value sub-tag").
type LiteralKind int

const (
	LitString LiteralKind = iota
	LitNumber
	LitBool
	LitNil
)

// SExpr is the single node type shared by the parser, the transformer,
// and macro values. Exactly one of the Kind-specific fields is valid
// at a time, mirroring the teacher's tagged TreeNode but collapsed to
// one closed sum per spec §9 ("Tagged unions everywhere").
type SExpr struct {
	token.Position

	Kind Kind

	// KindSymbol
	Name string

	// KindList
	Elements []*SExpr

	// KindLiteral
	LitKind LiteralKind
	Str     string
	Num     float64
	Bool    bool
}

func Sym(name string, pos token.Position) *SExpr {
	return &SExpr{Position: pos, Kind: KindSymbol, Name: name}
}

func List(elems []*SExpr, pos token.Position) *SExpr {
	return &SExpr{Position: pos, Kind: KindList, Elements: elems}
}

func Str(s string, pos token.Position) *SExpr {
	return &SExpr{Position: pos, Kind: KindLiteral, LitKind: LitString, Str: s}
}

func Num(n float64, pos token.Position) *SExpr {
	return &SExpr{Position: pos, Kind: KindLiteral, LitKind: LitNumber, Num: n}
}

func Boolean(b bool, pos token.Position) *SExpr {
	return &SExpr{Position: pos, Kind: KindLiteral, LitKind: LitBool, Bool: b}
}

func Nil(pos token.Position) *SExpr {
	return &SExpr{Position: pos, Kind: KindLiteral, LitKind: LitNil}
}

// IsSymbol reports whether e is a Symbol with the given name.
func (e *SExpr) IsSymbol(name string) bool {
	return e != nil && e.Kind == KindSymbol && e.Name == name
}

// Head returns the first element of a non-empty list, or nil.
func (e *SExpr) Head() *SExpr {
	if e == nil || e.Kind != KindList || len(e.Elements) == 0 {
		return nil
	}
	return e.Elements[0]
}

// Tail returns the elements after the first, or nil for a short list.
func (e *SExpr) Tail() []*SExpr {
	if e == nil || e.Kind != KindList || len(e.Elements) < 2 {
		return nil
	}
	return e.Elements[1:]
}

// IsCall reports whether e is a list whose head is the symbol name.
func (e *SExpr) IsCall(name string) bool {
	return e != nil && e.Kind == KindList && e.Head().IsSymbol(name)
}

// Clone performs a deep copy, used when substituting template
// fragments during quasiquote expansion so structural sharing never
// leaks mutation across macro invocations.
func (e *SExpr) Clone() *SExpr {
	if e == nil {
		return nil
	}
	c := *e
	if e.Kind == KindList {
		c.Elements = make([]*SExpr, len(e.Elements))
		for i, el := range e.Elements {
			c.Elements[i] = el.Clone()
		}
	}
	return &c
}

// Equal reports structural equality, ignoring positions (spec §8
// round-trip laws: "structurally equal ... ignoring positions").
func Equal(a, b *SExpr) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindSymbol:
		return a.Name == b.Name
	case KindLiteral:
		if a.LitKind != b.LitKind {
			return false
		}
		switch a.LitKind {
		case LitString:
			return a.Str == b.Str
		case LitNumber:
			return a.Num == b.Num
		case LitBool:
			return a.Bool == b.Bool
		default:
			return true
		}
	case KindList:
		if len(a.Elements) != len(b.Elements) {
			return false
		}
		for i := range a.Elements {
			if !Equal(a.Elements[i], b.Elements[i]) {
				return false
			}
		}
		return true
	}
	return false
}
