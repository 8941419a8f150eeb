// Package herr implements the unified error taxonomy of spec §7: tagged
// error kinds carrying a source position, a deterministic suggestion
// string, and at most one diagnostic report per error (Design Note:
// "concentrate all string templates in one table").
//
// The positional rendering (context lines + caret) is ported from the
// teacher's token.PosError/Explain.
package herr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/hql-lang/hqlc/internal/token"
)

// Family is the top-level error taxonomy named in spec §7.
type Family string

const (
	FamilyLex        Family = "LexError"
	FamilyParse      Family = "ParseError"
	FamilyTransform  Family = "TransformError"
	FamilyMacro      Family = "MacroError"
	FamilyImport     Family = "ImportError"
	FamilyValidation Family = "ValidationError"
)

// Kind is a specific failure mode within a Family; the (Family, Kind)
// pair indexes the suggestion table in suggestions.go.
type Kind string

const (
	// ParseError kinds.
	KindUnexpectedToken      Kind = "UnexpectedToken"
	KindUnclosedList         Kind = "UnclosedList"
	KindUnclosedVector       Kind = "UnclosedVector"
	KindUnclosedMap          Kind = "UnclosedMap"
	KindUnclosedSet          Kind = "UnclosedSet"
	KindUnexpectedEndOfInput Kind = "UnexpectedEndOfInput"
	KindExpectedColonInMap   Kind = "ExpectedColonInMap"

	// LexError kinds (mirror token.LexErrorKind).
	KindUnexpectedChar     Kind = "UnexpectedChar"
	KindUnterminatedString Kind = "UnterminatedString"

	// TransformError kinds.
	KindBadLet               Kind = "BadLet"
	KindBadFxForm            Kind = "BadFxForm"
	KindBadFnForm            Kind = "BadFnForm"
	KindBadEnumForm          Kind = "BadEnumForm"
	KindNodeTransformFailure Kind = "NodeTransformFailure"

	// MacroError kinds.
	KindArity             Kind = "Arity"
	KindBadParam          Kind = "BadParam"
	KindNotFound          Kind = "NotFound"
	KindRecursionLimit    Kind = "RecursionLimit"
	KindQuasiquoteContext Kind = "QuasiquoteContext"

	// ImportError kinds.
	KindImportNotFound      Kind = "NotFound"
	KindCircularFatal       Kind = "CircularFatal"
	KindUnsupportedType     Kind = "UnsupportedType"
	KindRemoteUnreachable   Kind = "RemoteUnreachable"
	KindExportNotFound      Kind = "ExportNotFound"

	// ValidationError kinds.
	KindBadArgument      Kind = "BadArgument"
	KindDivisionByZero   Kind = "DivisionByZero"
	KindWrongType        Kind = "WrongType"
	KindRecurOutsideLoop Kind = "RecurOutsideLoop"
)

// Detail is one line of positional explanation, chained to build up
// "expected X here, found Y there" style multi-node errors.
type Detail struct {
	Node    token.Node
	Message string
}

// Error is the single carrier type for every diagnostic the core
// produces. It implements the standard error interface and an Unwrap
// for an optional underlying cause.
type Error struct {
	Family   Family
	Kind     Kind
	Details  []Detail
	Cause    error
	Phase    string // set by TransformError for the phase name (spec §4.3)
	Expected string // set by ValidationError
	Actual   string // set by ValidationError

	reported bool
}

// New creates a new Error rooted at node with the given message.
func New(family Family, kind Kind, node token.Node, msg string) *Error {
	return &Error{
		Family:  family,
		Kind:    kind,
		Details: []Detail{{Node: node, Message: msg}},
	}
}

// WithDetail appends another positional detail (e.g. "defined here").
func (e *Error) WithDetail(node token.Node, msg string) *Error {
	e.Details = append(e.Details, Detail{Node: node, Message: msg})
	return e
}

func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

func (e *Error) WithPhase(phase string) *Error {
	e.Phase = phase
	return e
}

func (e *Error) WithTypes(expected, actual string) *Error {
	e.Expected = expected
	e.Actual = actual
	return e
}

func (e *Error) Unwrap() error { return e.Cause }

func (e *Error) firstDetail() Detail {
	if len(e.Details) == 0 {
		return Detail{}
	}
	return e.Details[0]
}

func (e *Error) Error() string {
	msg := e.firstDetail().Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return fmt.Sprintf("%s(%s): %s", e.Family, e.Kind, msg)
}

// Position returns the location of the primary detail, for diagnostics.
func (e *Error) Position() token.Pos {
	if len(e.Details) == 0 {
		return token.Pos{}
	}
	return e.Details[0].Node.Begin()
}

// Suggestion looks up the deterministic suggestion string for this
// error's (Family, Kind) pair. See suggestions.go.
func (e *Error) Suggestion() string {
	return suggestionFor(e.Family, e.Kind, e)
}

// Explain renders a multi-line, human readable report with source
// context lines and a caret marker, ported from the teacher's
// token.PosError.Explain.
func Explain(err error, reg *token.Registry) string {
	var herr *Error
	if errors.As(err, &herr) {
		sb := &strings.Builder{}
		sb.WriteString("error: ")
		sb.WriteString(err.Error())
		sb.WriteString("\n")
		sb.WriteString(herr.explainDetails(reg))

		if s := herr.Suggestion(); s != "" {
			sb.WriteString("  = hint: ")
			sb.WriteString(s)
			sb.WriteString("\n")
		}

		return sb.String()
	}

	return err.Error()
}

func (e *Error) explainDetails(reg *token.Registry) string {
	indent := 0
	for _, d := range e.Details {
		if l := len(strconv.Itoa(d.Node.Begin().Line)); l > indent {
			indent = l
		}
	}

	sb := &strings.Builder{}

	for i, d := range e.Details {
		pos := d.Node.Begin()

		if i == 0 || e.Details[i-1].Node.Begin().File != pos.File {
			sb.WriteString(pos.String())
			sb.WriteString("\n")
		}

		line := reg.Line(pos.File, pos.Line)

		sb.WriteString(fmt.Sprintf("%"+strconv.Itoa(indent)+"s |\n", ""))
		sb.WriteString(fmt.Sprintf("%"+strconv.Itoa(indent)+"d |%s\n", pos.Line, line))
		sb.WriteString(fmt.Sprintf("%"+strconv.Itoa(indent)+"s |", ""))

		width := d.Node.End().Col - pos.Col
		if width <= 1 {
			width = 1
		}

		sb.WriteString(strings.Repeat(" ", max(pos.Col-1, 0)))
		sb.WriteString(strings.Repeat("^", width))
		sb.WriteString(" ")
		sb.WriteString(d.Message)
		sb.WriteString("\n")
	}

	return sb.String()
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Reporter ensures every error is surfaced exactly once (spec §7): once
// an *Error has been reported, subsequent attempts to report the same
// instance are suppressed.
type Reporter struct {
	diagnostics []Diagnostic
}

// Diagnostic is the externally visible shape of a reported error
// (spec §6 "Diagnostics output").
type Diagnostic struct {
	Severity     string // "error" | "warning"
	Family       Family
	Kind         Kind
	Message      string
	File         string
	Line         int
	Column       int
	Suggestion   string
	ContextLines []string
}

// Report records err as an error-severity diagnostic unless it (the same
// *Error instance) has already been reported.
func (r *Reporter) Report(err error, reg *token.Registry) {
	r.report("error", err, reg)
}

// Warn records err as a warning-severity diagnostic unless it has
// already been reported.
func (r *Reporter) Warn(err error, reg *token.Registry) {
	r.report("warning", err, reg)
}

func (r *Reporter) report(severity string, err error, reg *token.Registry) {
	var herr *Error
	if !errors.As(err, &herr) {
		r.diagnostics = append(r.diagnostics, Diagnostic{Severity: severity, Message: err.Error()})
		return
	}

	if herr.reported {
		return
	}
	herr.reported = true

	pos := herr.Position()

	r.diagnostics = append(r.diagnostics, Diagnostic{
		Severity:     severity,
		Family:       herr.Family,
		Kind:         herr.Kind,
		Message:      herr.Error(),
		File:         pos.File,
		Line:         pos.Line,
		Column:       pos.Col,
		Suggestion:   herr.Suggestion(),
		ContextLines: contextLines(reg, pos),
	})
}

// contextLines returns the two lines before and after pos.Line, per
// spec §6 "context_lines".
func contextLines(reg *token.Registry, pos token.Pos) []string {
	if reg == nil {
		return nil
	}

	lines := reg.Lines(pos.File)
	if lines == nil {
		return nil
	}

	lo := pos.Line - 2 - 1
	if lo < 0 {
		lo = 0
	}
	hi := pos.Line + 2
	if hi > len(lines) {
		hi = len(lines)
	}

	return append([]string(nil), lines[lo:hi]...)
}

// Diagnostics returns all diagnostics collected so far.
func (r *Reporter) Diagnostics() []Diagnostic { return r.diagnostics }

// HasErrors reports whether any error-severity diagnostic was recorded.
func (r *Reporter) HasErrors() bool {
	for _, d := range r.diagnostics {
		if d.Severity == "error" {
			return true
		}
	}
	return false
}
