package transform

import (
	"strings"

	"github.com/hql-lang/hqlc/internal/sexpr"
	"github.com/hql-lang/hqlc/internal/symtab"
	"github.com/hql-lang/hqlc/internal/typeexpr"
)

// normalizeTypeName parses raw through the small typeexpr grammar and
// renders it back to canonical text, so a generic annotation like
// "Map<string,number>" always comes out consistently spaced. Malformed
// annotation text is kept as-is: declaration scanning never fails a
// compile over a type annotation spec.md does not otherwise validate
// (Non-goals: "type checking/inference").
func normalizeTypeName(raw string) string {
	te, err := typeexpr.Parse(raw)
	if err != nil {
		return raw
	}
	return te.String()
}

// enumRegistry maps a bare case name to every enum declaring it, used
// to resolve the ".caseName" dot-shorthand (spec §4.3 rewrite rules).
type enumRegistry struct {
	casesToEnums map[string][]string
}

func newEnumRegistry() *enumRegistry {
	return &enumRegistry{casesToEnums: make(map[string][]string)}
}

func (r *enumRegistry) register(enumName, caseName string) {
	r.casesToEnums[caseName] = append(r.casesToEnums[caseName], enumName)
}

// resolve returns the single enum defining caseName, or false if zero
// or more than one enum defines it (spec §4.3: "if exactly one enum
// defines that case").
func (r *enumRegistry) resolve(caseName string) (string, bool) {
	enums := r.casesToEnums[caseName]
	if len(enums) == 1 {
		return enums[0], true
	}
	return "", false
}

// splitEnumHeader splits a parser-merged "Name:Type" enum header symbol
// back into its parts; ok is false for a bare "Name" header.
func splitEnumHeader(name string) (base, typ string, ok bool) {
	idx := strings.IndexByte(name, ':')
	if idx < 0 {
		return name, "", false
	}
	return name[:idx], name[idx+1:], true
}

// scanEnums is phase 1: register every top-level (enum Name[:Type] …)
// form and each (case Name …) child as an enum-case symbol.
func scanEnums(exprs []*sexpr.SExpr, tbl *symtab.Table, enums *enumRegistry) {
	for _, e := range exprs {
		if !e.IsCall("enum") {
			continue
		}
		args := e.Tail()
		if len(args) == 0 || args[0].Kind != sexpr.KindSymbol {
			continue
		}

		name, _, _ := splitEnumHeader(args[0].Name)

		var cases []symtab.EnumCase
		for _, child := range args[1:] {
			if !child.IsCall("case") {
				continue
			}
			caseArgs := child.Tail()
			if len(caseArgs) == 0 || caseArgs[0].Kind != sexpr.KindSymbol {
				continue
			}
			caseName := caseArgs[0].Name

			var assoc []symtab.Param
			for _, field := range caseArgs[1:] {
				if field.Kind == sexpr.KindSymbol && strings.HasSuffix(field.Name, ":") {
					assoc = append(assoc, symtab.Param{Name: strings.TrimSuffix(field.Name, ":")})
				}
			}

			cases = append(cases, symtab.EnumCase{Name: caseName, AssociatedValues: assoc})
			enums.register(name, caseName)

			tbl.Define(&symtab.Symbol{
				Name:             name + "." + caseName,
				Kind:             symtab.KindEnumCase,
				Parent:           name,
				AssociatedValues: assoc,
			})
		}

		tbl.Define(&symtab.Symbol{Name: name, Kind: symtab.KindEnum, Cases: cases})
	}
}

// scanTypes is phase 2: register struct/class/interface declarations.
func scanTypes(exprs []*sexpr.SExpr, tbl *symtab.Table) {
	for _, e := range exprs {
		var kind symtab.Kind
		switch {
		case e.IsCall("struct"):
			kind = symtab.KindStruct
		case e.IsCall("class"):
			kind = symtab.KindClass
		case e.IsCall("interface"):
			kind = symtab.KindInterface
		default:
			continue
		}

		args := e.Tail()
		if len(args) == 0 || args[0].Kind != sexpr.KindSymbol {
			continue
		}
		name := args[0].Name

		var fields []symtab.Field
		var methods []symtab.Method
		for _, member := range args[1:] {
			if member.IsCall("field") {
				fa := member.Tail()
				if len(fa) > 0 && fa[0].Kind == sexpr.KindSymbol {
					typ := ""
					if len(fa) > 1 && fa[1].Kind == sexpr.KindSymbol {
						typ = fa[1].Name
					}
					fields = append(fields, symtab.Field{Name: fa[0].Name, Type: typ})
				}
			}
			if member.IsCall("method") {
				ma := member.Tail()
				if len(ma) > 0 && ma[0].Kind == sexpr.KindSymbol {
					methods = append(methods, symtab.Method{Name: ma[0].Name})
				}
			}
		}

		tbl.Define(&symtab.Symbol{Name: name, Kind: kind, Fields: fields, Methods: methods})

		for _, f := range fields {
			tbl.Define(&symtab.Symbol{Name: name + "." + f.Name, Kind: symtab.KindField, Parent: name, Type: f.Type})
		}
		for _, m := range methods {
			tbl.Define(&symtab.Symbol{Name: name + "." + m.Name, Kind: symtab.KindMethod, Parent: name})
		}
	}
}

// scanCallables is phase 3: register fn/fx/macro declarations with
// their parameters and optional return types.
func scanCallables(exprs []*sexpr.SExpr, tbl *symtab.Table) {
	for _, e := range exprs {
		var kind symtab.Kind
		switch {
		case e.IsCall("fx"):
			kind = symtab.KindFx
		case e.IsCall("fn"):
			kind = symtab.KindFunction
		case e.IsCall("macro"), e.IsCall("defmacro"):
			kind = symtab.KindMacro
		default:
			continue
		}

		args := e.Tail()
		if len(args) == 0 || args[0].Kind != sexpr.KindSymbol {
			continue
		}
		name := args[0].Name

		var params []symtab.Param
		var retType string
		if len(args) > 1 && args[1].Kind == sexpr.KindList {
			params = parseParamList(args[1])
		}
		for _, rest := range args[2:] {
			if rest.IsCall("->") && len(rest.Elements) > 1 && rest.Elements[1].Kind == sexpr.KindSymbol {
				retType = rest.Elements[1].Name
			}
		}

		tbl.Define(&symtab.Symbol{Name: name, Kind: kind, Params: params, ReturnType: retType})
	}
}

// parseParamList reads a parameter list list, supporting "name",
// "name: Type", and "name: Type = default" shapes, plus a trailing
// "& rest" parameter (spec §4.4 macro params; generalized here for
// fn/fx too since the shape is shared).
func parseParamList(list *sexpr.SExpr) []symtab.Param {
	var params []symtab.Param
	elems := list.Elements

	for i := 0; i < len(elems); i++ {
		el := elems[i]

		if el.IsSymbol("&") && i+1 < len(elems) && elems[i+1].Kind == sexpr.KindSymbol {
			params = append(params, symtab.Param{Name: "&" + elems[i+1].Name})
			i++
			continue
		}

		if el.Kind != sexpr.KindSymbol {
			continue
		}

		name := el.Name
		typ := ""
		def := ""

		if strings.HasSuffix(name, ":") {
			name = strings.TrimSuffix(name, ":")
			if i+1 < len(elems) && elems[i+1].Kind == sexpr.KindSymbol {
				typ = normalizeTypeName(elems[i+1].Name)
				i++
			}
			if i+2 < len(elems) && elems[i+1].IsSymbol("=") {
				def = sexpr.Print(elems[i+2])
				i += 2
			}
		}

		params = append(params, symtab.Param{Name: name, Type: typ, Default: def})
	}

	return params
}

// scanBindings is phase 4: register global and local let bindings,
// inferring a coarse type tag from the value expression.
func scanBindings(exprs []*sexpr.SExpr, tbl *symtab.Table) {
	for _, e := range exprs {
		scanBindingsIn(e, tbl)
	}
}

func scanBindingsIn(e *sexpr.SExpr, tbl *symtab.Table) {
	if e == nil || e.Kind != sexpr.KindList {
		return
	}

	if e.IsCall("let") {
		args := e.Tail()
		if len(args) >= 2 && args[0].Kind == sexpr.KindSymbol {
			tbl.Define(&symtab.Symbol{Name: args[0].Name, Kind: symtab.KindVariable, Type: inferType(args[1])})
		} else if len(args) >= 1 && args[0].Kind == sexpr.KindList {
			pairs := args[0].Elements
			for i := 0; i+1 < len(pairs); i += 2 {
				if pairs[i].Kind == sexpr.KindSymbol {
					tbl.Define(&symtab.Symbol{Name: pairs[i].Name, Kind: symtab.KindVariable, Scope: symtab.ScopeLocal, Type: inferType(pairs[i+1])})
				}
			}
		}
	}

	for _, child := range e.Elements {
		scanBindingsIn(child, tbl)
	}
}

// inferType implements the coarse type inference of spec §4.3 item 4.
func inferType(value *sexpr.SExpr) string {
	switch {
	case value.IsCall("empty-array") || value.IsCall("vector"):
		return "Array"
	case value.IsCall("hash-set") || value.IsCall("empty-set"):
		return "Set"
	case value.IsCall("hash-map") || value.IsCall("empty-map"):
		return "Map"
	case value.IsCall("new"):
		if t := value.Tail(); len(t) > 0 && t[0].Kind == sexpr.KindSymbol {
			return t[0].Name
		}
	case value.IsCall("fn") || value.IsCall("fx") || value.IsCall("lambda"):
		return "Function"
	}
	return "Unknown"
}

// scanDeclarations is phase 5: register module/import/export/namespace/
// alias/operator/constant/property/special-form/builtin forms.
func scanDeclarations(exprs []*sexpr.SExpr, tbl *symtab.Table) {
	kinds := map[string]symtab.Kind{
		"module":       symtab.KindModule,
		"import":       symtab.KindImport,
		"export":       symtab.KindExport,
		"namespace":    symtab.KindNamespace,
		"alias":        symtab.KindAlias,
		"operator":     symtab.KindOperator,
		"constant":     symtab.KindConstant,
		"property":     symtab.KindProperty,
		"special-form": symtab.KindSpecialForm,
		"builtin":      symtab.KindBuiltin,
	}

	for _, e := range exprs {
		head := e.Head()
		if head == nil || head.Kind != sexpr.KindSymbol {
			continue
		}
		kind, ok := kinds[head.Name]
		if !ok {
			continue
		}

		args := e.Tail()
		if len(args) == 0 || args[0].Kind != sexpr.KindSymbol {
			continue
		}

		sym := &symtab.Symbol{Name: args[0].Name, Kind: kind}
		if kind == symtab.KindExport {
			sym.IsExported = true
		}
		if kind == symtab.KindImport {
			sym.IsImported = true
			if len(args) > 1 && args[len(args)-1].Kind == sexpr.KindLiteral {
				sym.SourceModule = args[len(args)-1].Str
			}
		}
		if kind == symtab.KindAlias && len(args) > 1 && args[1].Kind == sexpr.KindSymbol {
			sym.AliasOf = args[1].Name
		}

		tbl.Define(sym)
	}
}
