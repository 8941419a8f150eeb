package herr

import "fmt"

// suggestionFor concentrates every diagnostic hint template in one
// table, keyed by (Family, Kind), per the Design Note in spec §7:
// "concentrate all string templates in one table".
func suggestionFor(family Family, kind Kind, e *Error) string {
	switch family {
	case FamilyLex:
		switch kind {
		case KindUnexpectedChar:
			return "remove or escape the offending character"
		case KindUnterminatedString:
			return `close the string literal with a matching "`
		}
	case FamilyParse:
		switch kind {
		case KindUnexpectedToken:
			return "check for a missing operator, symbol, or closing delimiter before this token"
		case KindUnclosedList:
			return "add a closing ')' for this list"
		case KindUnclosedVector:
			return "add a closing ']' for this vector"
		case KindUnclosedMap:
			return "add a closing '}' for this map"
		case KindUnclosedSet:
			return "add a closing '}' for this set"
		case KindUnexpectedEndOfInput:
			return "the input ended while a form was still open"
		case KindExpectedColonInMap:
			return "map entries are written 'key: value', separated by ','"
		}
	case FamilyTransform:
		switch kind {
		case KindBadLet:
			return "let bindings are written (let name value) or (let (name value ...) body...)"
		case KindBadFxForm:
			return "fx declarations are written (fx name (params...) -> ReturnType body...)"
		case KindBadFnForm:
			return "fn declarations are written (fn name (params...) body...)"
		case KindBadEnumForm:
			return "enums are written (enum Name (case c) ...) or (enum Name: Type (case c) ...)"
		case KindNodeTransformFailure:
			if e.Phase != "" {
				return fmt.Sprintf("this form could not be desugared during the %s phase", e.Phase)
			}
			return "this form could not be desugared"
		}
	case FamilyMacro:
		switch kind {
		case KindArity:
			return "check the number of arguments passed to this macro"
		case KindBadParam:
			return "macro parameter lists may only contain symbols and one '& rest' tail"
		case KindNotFound:
			return "check the macro name for typos, or that its defining module is imported"
		case KindRecursionLimit:
			return "this expansion did not reach a fixed point; check for a macro that expands into itself"
		case KindQuasiquoteContext:
			return "unquote and unquote-splicing are only valid inside a quasiquote"
		}
	case FamilyImport:
		switch kind {
		case KindImportNotFound:
			return "check the import path and that the file exists relative to the importer, source root, or working directory"
		case KindCircularFatal:
			return "break the cycle by moving the shared definitions into a third module"
		case KindUnsupportedType:
			return "import paths must be local, 'npm:', 'jsr:', 'node:', or 'http(s)://'"
		case KindRemoteUnreachable:
			return "check network connectivity, or vendor the dependency locally"
		case KindExportNotFound:
			return "check that the name is actually exported from the target module"
		}
	case FamilyValidation:
		switch kind {
		case KindBadArgument:
			return "check the arguments passed to this builtin operator"
		case KindDivisionByZero:
			return "guard the divisor with a zero check before dividing"
		case KindWrongType:
			if e.Expected != "" {
				return fmt.Sprintf("expected %s, found %s", e.Expected, e.Actual)
			}
			return "operand type does not match what this operator expects"
		case KindRecurOutsideLoop:
			return "recur may only appear inside the body of an enclosing loop"
		}
	}

	return ""
}
