package token

// LexErrorKind enumerates the lexer's two failure modes (spec §7).
type LexErrorKind string

const (
	UnexpectedChar     LexErrorKind = "UnexpectedChar"
	UnterminatedString LexErrorKind = "UnterminatedString"
)

// LexError is returned by Lexer.Next when the input cannot be tokenized.
type LexError struct {
	Kind LexErrorKind
	Pos  Pos
	Msg  string
}

func (e *LexError) Error() string { return e.Msg }
func (e *LexError) Begin() Pos    { return e.Pos }
func (e *LexError) End() Pos      { return e.Pos }

func newLexError(kind LexErrorKind, pos Pos, msg string) *LexError {
	return &LexError{Kind: kind, Pos: pos, Msg: msg}
}
