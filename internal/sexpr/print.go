package sexpr

import (
	"strconv"
	"strings"
)

// Print renders e as canonical HQL surface text. It is used both for
// the round-trip law (spec §8: "parse(print(s))") and as the cache key
// for the macro-expansion LRU (spec §4.4: "keyed by the canonical
// string form of the input").
func Print(e *SExpr) string {
	var sb strings.Builder
	writeTo(&sb, e)
	return sb.String()
}

func writeTo(sb *strings.Builder, e *SExpr) {
	if e == nil {
		sb.WriteString("nil")
		return
	}

	switch e.Kind {
	case KindSymbol:
		sb.WriteString(e.Name)
	case KindLiteral:
		switch e.LitKind {
		case LitString:
			sb.WriteByte('"')
			sb.WriteString(escapeString(e.Str))
			sb.WriteByte('"')
		case LitNumber:
			sb.WriteString(strconv.FormatFloat(e.Num, 'g', -1, 64))
		case LitBool:
			if e.Bool {
				sb.WriteString("true")
			} else {
				sb.WriteString("false")
			}
		case LitNil:
			sb.WriteString("nil")
		}
	case KindList:
		sb.WriteByte('(')
		for i, el := range e.Elements {
			if i > 0 {
				sb.WriteByte(' ')
			}
			writeTo(sb, el)
		}
		sb.WriteByte(')')
	}
}

func escapeString(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
