package ir

import "github.com/hql-lang/hqlc/internal/token"

// The constructors below build one Node per Kind. They exist so the
// lowering pass in lower.go reads as a sequence of named shapes rather
// than scattered struct literals, mirroring the sexpr.Sym/List/Str
// constructor set this package's input is built from.

func Program(body []*Node, pos token.Position) *Node {
	n := node(KindProgram, pos)
	n.Body = body
	return n
}

func StringLiteral(s string, pos token.Position) *Node {
	n := node(KindStringLiteral, pos)
	n.Str = s
	return n
}

func NumericLiteral(v float64, pos token.Position) *Node {
	n := node(KindNumericLiteral, pos)
	n.Num = v
	return n
}

func BooleanLiteral(b bool, pos token.Position) *Node {
	n := node(KindBooleanLiteral, pos)
	n.Bool = b
	return n
}

func NullLiteral(pos token.Position) *Node {
	return node(KindNullLiteral, pos)
}

func Identifier(name string, pos token.Position) *Node {
	n := node(KindIdentifier, pos)
	n.Name = name
	return n
}

func CallExpression(callee *Node, args []*Node, pos token.Position) *Node {
	n := node(KindCallExpression, pos)
	n.A = callee
	n.Body = args
	return n
}

func MemberExpression(object *Node, property *Node, computed bool, pos token.Position) *Node {
	n := node(KindMemberExpression, pos)
	n.A = object
	n.B = property
	n.Computed = computed
	if !computed && property != nil {
		n.Name = property.Name
	}
	return n
}

func CallMemberExpression(object *Node, method string, args []*Node, pos token.Position) *Node {
	n := node(KindCallMemberExpression, pos)
	n.A = object
	n.Name = method
	n.Body = args
	return n
}

func NewExpression(callee *Node, args []*Node, pos token.Position) *Node {
	n := node(KindNewExpression, pos)
	n.A = callee
	n.Body = args
	return n
}

func BinaryExpression(op string, left, right *Node, pos token.Position) *Node {
	n := node(KindBinaryExpression, pos)
	n.Operator = op
	n.A = left
	n.B = right
	return n
}

func UnaryExpression(op string, arg *Node, prefix bool, pos token.Position) *Node {
	n := node(KindUnaryExpression, pos)
	n.Operator = op
	n.A = arg
	n.Prefix = prefix
	return n
}

func ConditionalExpression(test, consequent, alternate *Node, pos token.Position) *Node {
	n := node(KindConditionalExpression, pos)
	n.A = test
	n.C = consequent
	n.B = alternate
	return n
}

func ArrayExpression(elements []*Node, pos token.Position) *Node {
	n := node(KindArrayExpression, pos)
	n.Body = elements
	return n
}

// ArrayConsExpression represents `[head, ...tail]`-shaped construction,
// used when lowering a cons-style prepend onto an existing collection.
func ArrayConsExpression(head, tail *Node, pos token.Position) *Node {
	n := node(KindArrayConsExpression, pos)
	n.A = head
	n.B = tail
	return n
}

func FunctionExpression(name string, params []Param, body *Node, pos token.Position) *Node {
	n := node(KindFunctionExpression, pos)
	n.Name = name
	n.Params = params
	n.A = body
	return n
}

func ObjectExpression(properties []*Node, pos token.Position) *Node {
	n := node(KindObjectExpression, pos)
	n.Body = properties
	return n
}

func ObjectProperty(key string, value *Node, computed bool, pos token.Position) *Node {
	n := node(KindObjectProperty, pos)
	n.Name = key
	n.A = value
	n.Computed = computed
	return n
}

func SpreadAssignment(arg *Node, pos token.Position) *Node {
	n := node(KindSpreadAssignment, pos)
	n.A = arg
	return n
}

func VariableDeclarator(name string, init *Node, pos token.Position) *Node {
	n := node(KindVariableDeclarator, pos)
	n.Name = name
	n.A = init
	return n
}

func VariableDeclaration(declKind string, decls []*Node, pos token.Position) *Node {
	n := node(KindVariableDeclaration, pos)
	n.DeclKind = declKind
	n.Items = decls
	return n
}

func FunctionDeclaration(name string, params []Param, body *Node, pos token.Position) *Node {
	n := node(KindFunctionDeclaration, pos)
	n.Name = name
	n.Params = params
	n.A = body
	return n
}

func ReturnStatement(arg *Node, pos token.Position) *Node {
	n := node(KindReturnStatement, pos)
	n.A = arg
	return n
}

func BlockStatement(body []*Node, pos token.Position) *Node {
	n := node(KindBlockStatement, pos)
	n.Body = body
	return n
}

func ImportSpecifier(imported, local string, pos token.Position) *Node {
	n := node(KindImportSpecifier, pos)
	n.Name = imported
	n.Str = local
	return n
}

func ImportDeclaration(specifiers []*Node, source string, pos token.Position) *Node {
	n := node(KindImportDeclaration, pos)
	n.Items = specifiers
	n.Str = source
	return n
}

func ExportSpecifier(local, exported string, pos token.Position) *Node {
	n := node(KindExportSpecifier, pos)
	n.Name = local
	n.Str = exported
	return n
}

func ExportNamedDeclaration(decl *Node, specifiers []*Node, pos token.Position) *Node {
	n := node(KindExportNamedDeclaration, pos)
	n.A = decl
	n.Items = specifiers
	return n
}

func ExportVariableDeclaration(decl *Node, pos token.Position) *Node {
	n := node(KindExportVariableDeclaration, pos)
	n.A = decl
	return n
}

// InteropIIFE is an immediately invoked function expression: Callee (A)
// is the FunctionExpression wrapped and invoked with Arguments (Body).
// This is how loop/recur is lowered (spec §4.7 "loop/recur lowering").
func InteropIIFE(callee *Node, args []*Node, pos token.Position) *Node {
	n := node(KindInteropIIFE, pos)
	n.A = callee
	n.Body = args
	return n
}

func CommentBlock(text string, pos token.Position) *Node {
	n := node(KindCommentBlock, pos)
	n.Str = text
	return n
}

func Raw(text string, pos token.Position) *Node {
	n := node(KindRaw, pos)
	n.Str = text
	return n
}

func JsImportReference(name string, pos token.Position) *Node {
	n := node(KindJsImportReference, pos)
	n.Name = name
	return n
}

func AssignmentExpression(op string, left, right *Node, pos token.Position) *Node {
	n := node(KindAssignmentExpression, pos)
	n.Operator = op
	n.A = left
	n.B = right
	return n
}

func ExpressionStatement(expr *Node, pos token.Position) *Node {
	n := node(KindExpressionStatement, pos)
	n.A = expr
	return n
}

func FxFunctionDeclaration(name string, params []Param, returnType string, body *Node, pos token.Position) *Node {
	n := node(KindFxFunctionDeclaration, pos)
	n.Name = name
	n.Params = params
	n.ReturnType = returnType
	n.A = body
	return n
}

func FnFunctionDeclaration(name string, params []Param, body *Node, pos token.Position) *Node {
	n := node(KindFnFunctionDeclaration, pos)
	n.Name = name
	n.Params = params
	n.A = body
	return n
}

func IfStatement(test, consequent, alternate *Node, pos token.Position) *Node {
	n := node(KindIfStatement, pos)
	n.A = test
	n.C = consequent
	n.B = alternate
	return n
}

func ClassDeclaration(name, superClass string, body []*Node, pos token.Position) *Node {
	n := node(KindClassDeclaration, pos)
	n.Name = name
	n.Str = superClass
	n.Body = body
	return n
}

func ClassField(name string, value *Node, pos token.Position) *Node {
	n := node(KindClassField, pos)
	n.Name = name
	n.A = value
	return n
}

func ClassMethod(name string, params []Param, body *Node, pos token.Position) *Node {
	n := node(KindClassMethod, pos)
	n.Name = name
	n.Params = params
	n.A = body
	return n
}

func ClassConstructor(params []Param, body *Node, pos token.Position) *Node {
	n := node(KindClassConstructor, pos)
	n.Params = params
	n.A = body
	return n
}

// GetAndCall preserves the inferred-accessor semantics of spec §8
// scenario 6 for downstream emission, the same way FxFunctionDeclaration
// preserves parameter types: collectionType drives whether the emitter
// produces an Array/Set-style `.at(...)` call or a Map-style `.get(...)`
// call.
func GetAndCall(collection, key *Node, collectionType string, pos token.Position) *Node {
	n := node(KindGetAndCall, pos)
	n.A = collection
	n.B = key
	n.CollectionType = collectionType
	return n
}

func EnumDeclaration(name string, cases []EnumCaseSpec, pos token.Position) *Node {
	n := node(KindEnumDeclaration, pos)
	n.Name = name
	n.Cases = cases
	return n
}

func EnumCase(enumName, caseName string, args []*Node, pos token.Position) *Node {
	n := node(KindEnumCase, pos)
	n.Name = enumName
	n.Str = caseName
	n.Body = args
	return n
}

func JsMethodAccess(object *Node, method string, pos token.Position) *Node {
	n := node(KindJsMethodAccess, pos)
	n.A = object
	n.Name = method
	return n
}
