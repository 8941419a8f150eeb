// Package ir implements IR lowering (spec §4.7): the final compilation
// phase that consumes canonical S-expressions plus the symbol table and
// emits a target-language-shaped IR tree. The node kinds form a closed
// sum corresponding to JS/TS constructs, collapsed into one tagged
// struct per spec §9 ("Tagged unions everywhere ... one variant per
// kind and exhaustive matching"), the same shape sexpr.SExpr uses for
// the surface syntax.
package ir

import "github.com/hql-lang/hqlc/internal/token"

// Kind discriminates the IR node sum. The set is closed and matches
// spec §4.7's enumeration exactly.
type Kind string

const (
	KindProgram                   Kind = "Program"
	KindStringLiteral             Kind = "StringLiteral"
	KindNumericLiteral            Kind = "NumericLiteral"
	KindBooleanLiteral            Kind = "BooleanLiteral"
	KindNullLiteral               Kind = "NullLiteral"
	KindIdentifier                Kind = "Identifier"
	KindCallExpression            Kind = "CallExpression"
	KindMemberExpression          Kind = "MemberExpression"
	KindCallMemberExpression      Kind = "CallMemberExpression"
	KindNewExpression             Kind = "NewExpression"
	KindBinaryExpression          Kind = "BinaryExpression"
	KindUnaryExpression           Kind = "UnaryExpression"
	KindConditionalExpression     Kind = "ConditionalExpression"
	KindArrayExpression           Kind = "ArrayExpression"
	KindArrayConsExpression       Kind = "ArrayConsExpression"
	KindFunctionExpression        Kind = "FunctionExpression"
	KindObjectExpression          Kind = "ObjectExpression"
	KindObjectProperty            Kind = "ObjectProperty"
	KindSpreadAssignment          Kind = "SpreadAssignment"
	KindVariableDeclaration       Kind = "VariableDeclaration"
	KindVariableDeclarator        Kind = "VariableDeclarator"
	KindFunctionDeclaration       Kind = "FunctionDeclaration"
	KindReturnStatement           Kind = "ReturnStatement"
	KindBlockStatement            Kind = "BlockStatement"
	KindImportDeclaration         Kind = "ImportDeclaration"
	KindImportSpecifier           Kind = "ImportSpecifier"
	KindExportNamedDeclaration    Kind = "ExportNamedDeclaration"
	KindExportSpecifier           Kind = "ExportSpecifier"
	KindExportVariableDeclaration Kind = "ExportVariableDeclaration"
	KindInteropIIFE               Kind = "InteropIIFE"
	KindCommentBlock              Kind = "CommentBlock"
	KindRaw                       Kind = "Raw"
	KindJsImportReference         Kind = "JsImportReference"
	KindAssignmentExpression      Kind = "AssignmentExpression"
	KindExpressionStatement       Kind = "ExpressionStatement"
	KindFxFunctionDeclaration     Kind = "FxFunctionDeclaration"
	KindFnFunctionDeclaration     Kind = "FnFunctionDeclaration"
	KindIfStatement               Kind = "IfStatement"
	KindClassDeclaration          Kind = "ClassDeclaration"
	KindClassField                Kind = "ClassField"
	KindClassMethod               Kind = "ClassMethod"
	KindClassConstructor          Kind = "ClassConstructor"
	KindGetAndCall                Kind = "GetAndCall"
	KindEnumDeclaration           Kind = "EnumDeclaration"
	KindEnumCase                  Kind = "EnumCase"
	KindJsMethodAccess            Kind = "JsMethodAccess"
)

// Param is a declared function parameter. Type is left empty for an
// FnFunctionDeclaration, which carries names and defaults but never
// types (spec §4.7: "FnFunctionDeclaration carries parameter names and
// defaults without types").
type Param struct {
	Name    string
	Type    string
	Default *Node
}

// EnumCaseSpec describes one case of an EnumDeclaration: an optional
// raw value and an associated-value parameter signature.
type EnumCaseSpec struct {
	Name             string
	RawValue         string
	AssociatedValues []string
}

// Node is the single node type for the whole IR sum. Exactly the
// fields relevant to Kind are populated; the remainder are zero. Each
// field group below is commented with the Kind(s) that read it.
type Node struct {
	token.Position

	Kind Kind

	// StringLiteral, CommentBlock, Raw, EnumCase.CaseName,
	// ClassDeclaration.SuperClass, ImportDeclaration.Source,
	// ImportSpecifier.Local, ExportSpecifier.Exported.
	Str string

	// Identifier, FunctionDeclaration, FxFunctionDeclaration,
	// FnFunctionDeclaration, ClassDeclaration, ClassField, ClassMethod,
	// ImportSpecifier.Imported, ExportSpecifier.Local,
	// MemberExpression.Property (when not Computed),
	// CallMemberExpression.Property, JsMethodAccess.Method,
	// EnumDeclaration.Name, EnumCase.EnumName.
	Name string

	// NumericLiteral.
	Num float64

	// BooleanLiteral.
	Bool bool

	// MemberExpression: true when Property is itself a Node (computed
	// `a[b]`) rather than a bare field name.
	Computed bool

	// BinaryExpression, UnaryExpression, AssignmentExpression.
	Operator string

	// UnaryExpression: true for prefix ("!x"), false for postfix.
	Prefix bool

	// Program.Body, BlockStatement.Body, ClassDeclaration.Body,
	// ArrayExpression.Elements, ObjectExpression.Properties,
	// CallExpression.Arguments, NewExpression.Arguments,
	// CallMemberExpression.Arguments, EnumCase.Arguments,
	// InteropIIFE.Arguments.
	Body []*Node

	// CallExpression.Callee, NewExpression.Callee,
	// MemberExpression.Object, CallMemberExpression.Object,
	// JsMethodAccess.Object, UnaryExpression.Argument,
	// ReturnStatement.Argument, SpreadAssignment.Argument,
	// ExpressionStatement.Expression, AssignmentExpression.Left,
	// ObjectProperty.Value, VariableDeclarator.Init,
	// ExportNamedDeclaration.Declaration,
	// ExportVariableDeclaration.Declaration, InteropIIFE.Callee,
	// GetAndCall.Collection.
	A *Node

	// BinaryExpression.Right, ConditionalExpression (Alternate),
	// IfStatement.Alternate, AssignmentExpression.Right,
	// MemberExpression.Property (when Computed), GetAndCall.Key.
	B *Node

	// ConditionalExpression/IfStatement.Consequent.
	C *Node

	// VariableDeclaration.Kind ("let"|"const"|"var").
	DeclKind string

	// VariableDeclaration.Declarations, ImportDeclaration.Specifiers,
	// ExportNamedDeclaration.Specifiers.
	Items []*Node

	// FunctionExpression/FunctionDeclaration/FxFunctionDeclaration/
	// FnFunctionDeclaration/ClassMethod/ClassConstructor.
	Params []Param

	// FxFunctionDeclaration.
	ReturnType string

	// EnumDeclaration.
	Cases []EnumCaseSpec

	// GetAndCall: the inferred receiver type driving downstream
	// accessor codegen ("Array" | "Set" | "Map"), spec §8
	// scenario 6.
	CollectionType string
}

func node(kind Kind, pos token.Position) *Node {
	return &Node{Position: pos, Kind: kind}
}
