package typeexpr

import "strings"

// String renders t back to HQL's canonical type-annotation text: array
// sugar always renders as `Array<Element>` (spec §4.3: "[ElementType]
// rewrite to Array<ElementType>"), never back to bracket form.
func (t *TypeExpr) String() string {
	if t == nil {
		return ""
	}

	var sb strings.Builder
	if t.Array != nil {
		sb.WriteString("Array<")
		sb.WriteString(t.Array.String())
		sb.WriteString(">")
	} else {
		sb.WriteString(t.Name)
		if len(t.Params) > 0 {
			sb.WriteString("<")
			for i, p := range t.Params {
				if i > 0 {
					sb.WriteString(", ")
				}
				sb.WriteString(p.String())
			}
			sb.WriteString(">")
		}
	}

	if t.Optional {
		sb.WriteString("?")
	}

	return sb.String()
}

// Simple builds a plain named type with no generic parameters.
func Simple(name string) *TypeExpr {
	return &TypeExpr{Name: name}
}

// ArrayOf builds the structured form of the `[ElementType]` sugar.
func ArrayOf(elem *TypeExpr) *TypeExpr {
	return &TypeExpr{Array: elem}
}

// Generic builds a named type applied to one or more type parameters,
// e.g. Generic("Map", Simple("string"), Simple("number")) -> Map<string, number>.
func Generic(name string, params ...*TypeExpr) *TypeExpr {
	return &TypeExpr{Name: name, Params: params}
}
