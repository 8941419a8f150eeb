package ir

import (
	"strings"

	"github.com/hql-lang/hqlc/internal/herr"
	"github.com/hql-lang/hqlc/internal/sexpr"
)

// lowerParamList converts a parameter-list S-expression into IR
// params, supporting "name", "name: Type", "name: Type = default", and
// a trailing "& rest" parameter, mirroring
// internal/transform's scanCallables parsing of the same shape. A rest
// parameter's Name is prefixed with "..." so a downstream emitter
// prints it as a JS rest parameter.
func (lw *Lowerer) lowerParamList(list *sexpr.SExpr) ([]Param, error) {
	var params []Param
	elems := list.Elements

	for i := 0; i < len(elems); i++ {
		el := elems[i]

		if el.IsSymbol("&") && i+1 < len(elems) && elems[i+1].Kind == sexpr.KindSymbol {
			params = append(params, Param{Name: "..." + elems[i+1].Name})
			i++
			continue
		}

		if el.Kind != sexpr.KindSymbol {
			continue
		}

		name := el.Name
		typ := ""

		if strings.HasSuffix(name, ":") {
			name = strings.TrimSuffix(name, ":")
			if i+1 < len(elems) && elems[i+1].Kind == sexpr.KindSymbol {
				typ = elems[i+1].Name
				i++
			}
		}

		var def *Node
		if i+2 < len(elems) && elems[i+1].IsSymbol("=") {
			d, err := lw.lowerExpr(elems[i+2])
			if err != nil {
				return nil, err
			}
			def = d
			i += 2
		}

		params = append(params, Param{Name: name, Type: typ, Default: def})
	}

	return params, nil
}

func (lw *Lowerer) lowerFx(e *sexpr.SExpr) (*Node, error) {
	args := e.Tail()
	if len(args) < 2 || args[0].Kind != sexpr.KindSymbol || args[1].Kind != sexpr.KindList {
		return nil, herr.New(herr.FamilyTransform, herr.KindBadFxForm, e, "fx declarations are written (fx name (params) -> Type body...)")
	}

	params, err := lw.lowerParamList(args[1])
	if err != nil {
		return nil, err
	}

	returnType := ""
	var bodyForms []*sexpr.SExpr
	for _, rest := range args[2:] {
		if rest.IsCall("->") && len(rest.Elements) > 1 && rest.Elements[1].Kind == sexpr.KindSymbol {
			returnType = rest.Elements[1].Name
			continue
		}
		bodyForms = append(bodyForms, rest)
	}

	body, err := lw.lowerBlock(bodyForms, e.Position)
	if err != nil {
		return nil, err
	}

	return FxFunctionDeclaration(args[0].Name, params, returnType, body, e.Position), nil
}

func (lw *Lowerer) lowerFn(e *sexpr.SExpr) (*Node, error) {
	args := e.Tail()
	if len(args) < 2 || args[0].Kind != sexpr.KindSymbol || args[1].Kind != sexpr.KindList {
		return nil, herr.New(herr.FamilyTransform, herr.KindBadFnForm, e, "fn declarations are written (fn name (params) body...)")
	}

	params, err := lw.lowerParamList(args[1])
	if err != nil {
		return nil, err
	}
	for i := range params {
		params[i].Type = ""
	}

	body, err := lw.lowerBlock(args[2:], e.Position)
	if err != nil {
		return nil, err
	}

	return FnFunctionDeclaration(args[0].Name, params, body, e.Position), nil
}

// lowerEnum reparses an (enum Name[:Type] (case c1) (case c2 field:) …)
// declaration, the same header shape internal/transform's scanEnums
// recognizes, into an EnumDeclaration node.
func (lw *Lowerer) lowerEnum(e *sexpr.SExpr) (*Node, error) {
	args := e.Tail()
	if len(args) == 0 || args[0].Kind != sexpr.KindSymbol {
		return nil, herr.New(herr.FamilyTransform, herr.KindBadEnumForm, e, "enum declarations are written (enum Name (case c) …)")
	}

	name := args[0].Name
	if idx := strings.IndexByte(name, ':'); idx >= 0 {
		name = name[:idx]
	}

	var cases []EnumCaseSpec
	for _, child := range args[1:] {
		if !child.IsCall("case") {
			continue
		}
		caseArgs := child.Tail()
		if len(caseArgs) == 0 || caseArgs[0].Kind != sexpr.KindSymbol {
			continue
		}

		cs := EnumCaseSpec{Name: caseArgs[0].Name}
		for _, field := range caseArgs[1:] {
			switch {
			case field.Kind == sexpr.KindSymbol && strings.HasSuffix(field.Name, ":"):
				cs.AssociatedValues = append(cs.AssociatedValues, strings.TrimSuffix(field.Name, ":"))
			case field.Kind == sexpr.KindLiteral && field.LitKind == sexpr.LitString:
				cs.RawValue = field.Str
			}
		}
		cases = append(cases, cs)
	}

	return EnumDeclaration(name, cases, e.Position), nil
}

// lowerClassLike handles struct/class/interface declarations, which
// share one shape: a name followed by (field name [Type]) and
// (method name (params) body...) members.
func (lw *Lowerer) lowerClassLike(e *sexpr.SExpr) (*Node, error) {
	args := e.Tail()
	if len(args) == 0 || args[0].Kind != sexpr.KindSymbol {
		return nil, herr.New(herr.FamilyTransform, herr.KindNodeTransformFailure, e, "type declarations require a name")
	}

	var members []*Node
	for _, member := range args[1:] {
		switch {
		case member.IsCall("field"):
			fa := member.Tail()
			if len(fa) == 0 || fa[0].Kind != sexpr.KindSymbol {
				continue
			}
			members = append(members, ClassField(fa[0].Name, nil, member.Position))
		case member.IsCall("method"):
			ma := member.Tail()
			if len(ma) < 2 || ma[0].Kind != sexpr.KindSymbol || ma[1].Kind != sexpr.KindList {
				continue
			}
			params, err := lw.lowerParamList(ma[1])
			if err != nil {
				return nil, err
			}
			body, err := lw.lowerBlock(ma[2:], member.Position)
			if err != nil {
				return nil, err
			}
			members = append(members, ClassMethod(ma[0].Name, params, body, member.Position))
		case member.IsCall("constructor"):
			ca := member.Tail()
			if len(ca) == 0 || ca[0].Kind != sexpr.KindList {
				continue
			}
			params, err := lw.lowerParamList(ca[0])
			if err != nil {
				return nil, err
			}
			body, err := lw.lowerBlock(ca[1:], member.Position)
			if err != nil {
				return nil, err
			}
			members = append(members, ClassConstructor(params, body, member.Position))
		}
	}

	return ClassDeclaration(args[0].Name, "", members, e.Position), nil
}

// lowerExport lowers (export name) by deferring to whatever the named
// declaration already lowers to and wrapping it; a bare re-export of an
// existing binding (no inline declaration) becomes an
// ExportNamedDeclaration with a single specifier, per spec §4.6's
// export bookkeeping.
func (lw *Lowerer) lowerExport(e *sexpr.SExpr) ([]*Node, error) {
	args := e.Tail()
	if len(args) == 0 {
		return nil, herr.New(herr.FamilyValidation, herr.KindBadArgument, e, "export requires a name or declaration")
	}

	if args[0].Kind == sexpr.KindList {
		inner, err := lw.lowerTop(args[0])
		if err != nil {
			return nil, err
		}
		if len(inner) != 1 {
			return inner, nil
		}
		switch inner[0].Kind {
		case KindVariableDeclaration:
			return []*Node{ExportVariableDeclaration(inner[0], e.Position)}, nil
		default:
			return []*Node{ExportNamedDeclaration(inner[0], nil, e.Position)}, nil
		}
	}

	if args[0].Kind == sexpr.KindSymbol {
		spec := ExportSpecifier(args[0].Name, args[0].Name, args[0].Position)
		return []*Node{ExportNamedDeclaration(nil, []*Node{spec}, e.Position)}, nil
	}

	return nil, herr.New(herr.FamilyValidation, herr.KindBadArgument, e, "export requires a name or declaration")
}
