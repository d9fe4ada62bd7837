package core

// normalizeNegation pushes a logical negation down to the leaves of a
// version formula (SPEC_FULL.md §4.C/D rule 3). It terminates because
// negation depth strictly decreases at every composite case: De Morgan's
// laws replace "not(and/or)" with "and/or(not, not)", and every leaf case
// (Variable, Not, Comparator, VersionRange) resolves in one step.
func normalizeNegation(f VersionFormula) VersionFormula {
	return negate(f)
}

func negate(f VersionFormula) VersionFormula {
	switch v := f.(type) {
	case VerAnd:
		return VerOr{LHS: negate(v.LHS), RHS: negate(v.RHS)}
	case VerOr:
		return VerAnd{LHS: negate(v.LHS), RHS: negate(v.RHS)}
	case Variable:
		return Not{Name: v.Name}
	case Not:
		return Variable{Name: v.Name}
	case Comparator:
		return Comparator{Op: v.Op.Negate(), LHS: v.LHS, RHS: v.RHS}
	case VersionRange:
		return VersionRange{Range: v.Range.Complement()}
	case Lit:
		return v
	default:
		return f
	}
}
