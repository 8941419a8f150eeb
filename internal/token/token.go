package token

// Kind identifies the lexical class of a Token.
type Kind string

const (
	LParen          Kind = "LParen"
	RParen          Kind = "RParen"
	LBracket        Kind = "LBracket"
	RBracket        Kind = "RBracket"
	LBrace          Kind = "LBrace"
	RBrace          Kind = "RBrace"
	HashLBracket    Kind = "HashLBracket"
	String          Kind = "String"
	Number          Kind = "Number"
	Symbol          Kind = "Symbol"
	Quote           Kind = "Quote"
	Backtick        Kind = "Backtick"
	Unquote         Kind = "Unquote"
	UnquoteSplicing Kind = "UnquoteSplicing"
	Dot             Kind = "Dot"
	Colon           Kind = "Colon"
	Comma           Kind = "Comma"
	EOF             Kind = "EOF"
)

// Token is a single lexeme together with its source position.
// Comments and whitespace are elided by the lexer and never appear here.
type Token struct {
	Position
	Kind Kind
	Text string
}

func (t Token) String() string { return t.Text }

// Adjacent reports whether b immediately follows a in the source with no
// intervening characters (including whitespace). The parser uses this to
// decide when a run of Symbol/Dot/Colon tokens should be merged back into
// a single compound symbol (dotted paths, enum "Name:Type", trailing ':'
// named-argument keys).
func Adjacent(a, b Token) bool {
	return a.End().File == b.Begin().File && a.End().Offset == b.Begin().Offset
}
