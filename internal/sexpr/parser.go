package sexpr

import (
	"strconv"
	"strings"

	"github.com/hql-lang/hqlc/internal/herr"
	"github.com/hql-lang/hqlc/internal/token"
)

// Parser is a one-pass recursive-descent parser with no backtracking
// (spec §4.2). It first tokenizes the whole input (simplifying the
// multi-token lookahead the merge rules below need) then walks the
// resulting slice by index, mirroring the teacher's stack-based
// Visitor/TreeNode shape at the level of list nesting rather than at
// the level of individual tokens.
type Parser struct {
	file string
	toks []token.Token
	pos  int
}

// ParseAll tokenizes and parses src, registering it in reg so later
// error reporting can render source context lines.
func ParseAll(file, src string, reg *token.Registry) ([]*SExpr, error) {
	src = token.StripBOM(src)
	reg.Register(file, src)

	toks, err := tokenize(file, src)
	if err != nil {
		return nil, err
	}

	p := &Parser{file: file, toks: toks}

	var out []*SExpr
	for !p.atEOF() {
		e, err := p.parseExpr(false)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func tokenize(file, src string) ([]token.Token, error) {
	l := token.NewLexer(file, src)
	var toks []token.Token
	for {
		t, err := l.Next()
		if err != nil {
			return nil, herr.New(herr.FamilyLex, lexKindToHerrKind(err), l_node(t, err), err.Error())
		}
		toks = append(toks, t)
		if t.Kind == token.EOF {
			return toks, nil
		}
	}
}

func l_node(t token.Token, err error) token.Node {
	if le, ok := err.(*token.LexError); ok {
		return token.NewNode(le.Begin(), le.End())
	}
	return token.NewNode(t.Begin(), t.End())
}

func lexKindToHerrKind(err error) herr.Kind {
	if le, ok := err.(*token.LexError); ok {
		switch le.Kind {
		case token.UnterminatedString:
			return herr.KindUnterminatedString
		default:
			return herr.KindUnexpectedChar
		}
	}
	return herr.KindUnexpectedChar
}

func (p *Parser) cur() token.Token  { return p.toks[p.pos] }
func (p *Parser) atEOF() bool       { return p.cur().Kind == token.EOF }
func (p *Parser) advance() token.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) peekAt(n int) (token.Token, bool) {
	idx := p.pos + n
	if idx < 0 || idx >= len(p.toks) {
		return token.Token{}, false
	}
	return p.toks[idx], true
}

func (p *Parser) unexpectedToken(msg string) error {
	t := p.cur()
	return herr.New(herr.FamilyParse, herr.KindUnexpectedToken, token.NewNode(t.Begin(), t.End()), msg)
}

func (p *Parser) unexpectedEOF(openedAt token.Token) error {
	return herr.New(herr.FamilyParse, herr.KindUnexpectedEndOfInput,
		token.NewNode(openedAt.Begin(), openedAt.End()), "unexpected end of input")
}

// parseExpr parses one top-level expression. inEnumHeader signals that
// a bare trailing-colon symbol run at this position should be merged
// per the enum "Name:Type" rule instead of the named-argument rule.
func (p *Parser) parseExpr(inEnumHeader bool) (*SExpr, error) {
	t := p.cur()

	switch t.Kind {
	case token.LParen:
		return p.parseParenList()
	case token.LBracket:
		return p.parseBracketed(token.RBracket, "vector", "empty-array", herr.KindUnclosedVector)
	case token.LBrace:
		return p.parseMap()
	case token.HashLBracket:
		return p.parseBracketed(token.RBracket, "hash-set", "empty-set", herr.KindUnclosedSet)
	case token.Quote:
		p.advance()
		inner, err := p.parseExpr(false)
		if err != nil {
			return nil, err
		}
		return List([]*SExpr{Sym("quote", t.Position), inner}, t.Position), nil
	case token.Backtick:
		p.advance()
		inner, err := p.parseExpr(false)
		if err != nil {
			return nil, err
		}
		return List([]*SExpr{Sym("quasiquote", t.Position), inner}, t.Position), nil
	case token.Unquote:
		p.advance()
		inner, err := p.parseExpr(false)
		if err != nil {
			return nil, err
		}
		return List([]*SExpr{Sym("unquote", t.Position), inner}, t.Position), nil
	case token.UnquoteSplicing:
		p.advance()
		inner, err := p.parseExpr(false)
		if err != nil {
			return nil, err
		}
		return List([]*SExpr{Sym("unquote-splicing", t.Position), inner}, t.Position), nil
	case token.String:
		p.advance()
		return Str(t.Text, t.Position), nil
	case token.Number:
		p.advance()
		n, _ := strconv.ParseFloat(t.Text, 64)
		return Num(n, t.Position), nil
	case token.Dot:
		return p.parseLeadingDot()
	case token.Symbol:
		return p.parseSymbolRun(inEnumHeader)
	case token.RParen, token.RBracket, token.RBrace:
		return nil, p.unexpectedToken("unexpected closing delimiter '" + t.Text + "'")
	case token.Colon, token.Comma:
		return nil, p.unexpectedToken("unexpected '" + t.Text + "'")
	case token.EOF:
		return nil, p.unexpectedEOF(t)
	default:
		return nil, p.unexpectedToken("unexpected token")
	}
}

// parseParenList parses a ( ... ) list, applying the fn/fx "->" and
// named-argument-key merge rules to its elements, and the enum
// "Name:Type" header rule when the list begins with the symbol enum.
func (p *Parser) parseParenList() (*SExpr, error) {
	open := p.advance() // '('

	var elems []*SExpr
	isEnumForm := false

	for {
		if p.atEOF() {
			return nil, herr.New(herr.FamilyParse, herr.KindUnclosedList,
				token.NewNode(open.Begin(), open.End()), "unclosed list")
		}
		if p.cur().Kind == token.RParen {
			p.advance()
			return List(elems, open.Position), nil
		}

		// The first element just parsed tells us whether this is an
		// enum declaration, so the *second* element (the name) gets
		// the enum-header merge treatment.
		inEnumHeader := isEnumForm && len(elems) == 1

		e, err := p.parseElement(inEnumHeader)
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)

		if len(elems) == 1 && e.IsSymbol("enum") {
			isEnumForm = true
		}
	}
}

// parseElement parses one element of an enclosing list, first
// checking for the "->" return-type marker and the named-argument
// trailing-colon key rule, both of which only make sense at this
// granularity (one list slot, possibly consuming a following slot).
func (p *Parser) parseElement(inEnumHeader bool) (*SExpr, error) {
	t := p.cur()

	if t.Kind == token.Symbol && t.Text == "->" {
		arrowPos := t.Position
		p.advance()
		retType, err := p.parseExpr(false)
		if err != nil {
			return nil, err
		}
		return List([]*SExpr{Sym("->", arrowPos), retType}, arrowPos), nil
	}

	return p.parseExpr(inEnumHeader)
}

// parseSymbolRun parses a Symbol token and applies the adjacency-based
// merge rules: dotted paths/property access, enum "Name:Type" headers,
// and named-argument "key:" tokens.
func (p *Parser) parseSymbolRun(inEnumHeader bool) (*SExpr, error) {
	first := p.advance()

	if inEnumHeader {
		if colon, ok := p.peekAt(0); ok && colon.Kind == token.Colon {
			if typ, ok2 := p.peekAt(1); ok2 && typ.Kind == token.Symbol {
				p.advance() // colon
				p.advance() // type symbol
				return Sym(first.Text+":"+typ.Text, first.Position), nil
			}
		}
	}

	// Named-argument key: a symbol immediately followed by ':' with no
	// intervening whitespace becomes a single "key:" symbol; the value
	// is a separate following element (spec §4.2: "the pair is emitted
	// verbatim").
	if colon, ok := p.peekAt(0); ok && colon.Kind == token.Colon && token.Adjacent(first, colon) {
		p.advance() // colon
		return Sym(first.Text+":", first.Position), nil
	}

	// Dotted path: a run of Symbol (Dot Symbol)+ , all mutually adjacent.
	segments := []string{first.Text}
	last := first
	for {
		dot, ok := p.peekAt(0)
		if !ok || dot.Kind != token.Dot || !token.Adjacent(last, dot) {
			break
		}
		sym, ok2 := p.peekAt(1)
		if !ok2 || sym.Kind != token.Symbol || !token.Adjacent(dot, sym) {
			break
		}
		p.advance() // dot
		p.advance() // symbol
		segments = append(segments, sym.Text)
		last = sym
	}

	if len(segments) == 1 {
		switch first.Text {
		case "true":
			return Boolean(true, first.Position), nil
		case "false":
			return Boolean(false, first.Position), nil
		case "nil":
			return Nil(first.Position), nil
		}
		return Sym(first.Text, first.Position), nil
	}

	text := strings.Join(segments, ".")
	hasDash := false
	for _, seg := range segments[1:] {
		if strings.Contains(seg, "-") {
			hasDash = true
			break
		}
	}

	if hasDash {
		return List([]*SExpr{
			Sym("get", first.Position),
			Sym(segments[0], first.Position),
			Str(strings.Join(segments[1:], "."), first.Position),
		}, first.Position), nil
	}

	return Sym(text, first.Position), nil
}

// parseLeadingDot handles a standalone '.' that immediately precedes a
// symbol, producing the dot-prefixed enum shorthand ".caseName".
func (p *Parser) parseLeadingDot() (*SExpr, error) {
	dot := p.advance()

	sym, ok := p.peekAt(0)
	if !ok || sym.Kind != token.Symbol || !token.Adjacent(dot, sym) {
		return nil, p.unexpectedToken("'.' must be immediately followed by a symbol")
	}
	p.advance()

	return Sym("."+sym.Text, dot.Position), nil
}

// parseBracketed parses a [...] or #[...] form, desugaring it into a
// call to fullName (non-empty) or emptyName (empty), per spec §4.2.
func (p *Parser) parseBracketed(closeKind token.Kind, fullName, emptyName string, unclosedKind herr.Kind) (*SExpr, error) {
	open := p.advance()

	var elems []*SExpr
	for {
		if p.atEOF() {
			return nil, herr.New(herr.FamilyParse, unclosedKind, token.NewNode(open.Begin(), open.End()), "unclosed "+fullName)
		}
		if p.cur().Kind == closeKind {
			p.advance()
			break
		}
		e, err := p.parseExpr(false)
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
	}

	if len(elems) == 0 {
		return List([]*SExpr{Sym(emptyName, open.Position)}, open.Position), nil
	}
	head := Sym(fullName, open.Position)
	return List(append([]*SExpr{head}, elems...), open.Position), nil
}

// parseMap parses a {...} form into hash-map / empty-map calls,
// requiring a ':' between every key and value.
func (p *Parser) parseMap() (*SExpr, error) {
	open := p.advance()

	var elems []*SExpr
	for {
		if p.atEOF() {
			return nil, herr.New(herr.FamilyParse, herr.KindUnclosedMap, token.NewNode(open.Begin(), open.End()), "unclosed map")
		}
		if p.cur().Kind == token.RBrace {
			p.advance()
			break
		}

		key, err := p.parseExpr(false)
		if err != nil {
			return nil, err
		}

		if p.atEOF() {
			return nil, herr.New(herr.FamilyParse, herr.KindUnclosedMap, token.NewNode(open.Begin(), open.End()), "unclosed map")
		}
		if got := p.cur(); got.Kind != token.Colon {
			return nil, herr.New(herr.FamilyParse, herr.KindExpectedColonInMap,
				token.NewNode(got.Begin(), got.End()), "expected ':' between map key and value")
		}
		p.advance() // ':'

		val, err := p.parseExpr(false)
		if err != nil {
			return nil, err
		}

		elems = append(elems, key, val)

		if !p.atEOF() && p.cur().Kind == token.Comma {
			p.advance()
		}
	}

	if len(elems) == 0 {
		return List([]*SExpr{Sym("empty-map", open.Position)}, open.Position), nil
	}
	head := Sym("hash-map", open.Position)
	return List(append([]*SExpr{head}, elems...), open.Position), nil
}
