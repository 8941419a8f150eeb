package ir

// Equal reports structural equality, ignoring positions (spec §8 round
// trip law: "ir is structurally equal ... "), mirroring sexpr.Equal.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	if a.Str != b.Str || a.Name != b.Name || a.Num != b.Num || a.Bool != b.Bool ||
		a.Computed != b.Computed || a.Operator != b.Operator || a.Prefix != b.Prefix ||
		a.DeclKind != b.DeclKind || a.ReturnType != b.ReturnType || a.CollectionType != b.CollectionType {
		return false
	}
	if !equalNodes(a.Body, b.Body) || !equalNodes(a.Items, b.Items) {
		return false
	}
	if !Equal(a.A, b.A) || !Equal(a.B, b.B) || !Equal(a.C, b.C) {
		return false
	}
	if !equalParams(a.Params, b.Params) {
		return false
	}
	if len(a.Cases) != len(b.Cases) {
		return false
	}
	for i := range a.Cases {
		if !casesEqual(a.Cases[i], b.Cases[i]) {
			return false
		}
	}
	return true
}

func casesEqual(x, y EnumCaseSpec) bool {
	if x.Name != y.Name || x.RawValue != y.RawValue || len(x.AssociatedValues) != len(y.AssociatedValues) {
		return false
	}
	for i := range x.AssociatedValues {
		if x.AssociatedValues[i] != y.AssociatedValues[i] {
			return false
		}
	}
	return true
}

func equalNodes(a, b []*Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func equalParams(a, b []Param) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name || a[i].Type != b[i].Type {
			return false
		}
		if !Equal(a[i].Default, b[i].Default) {
			return false
		}
	}
	return true
}
