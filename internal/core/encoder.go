package core

import (
	"context"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/ZanzyTHEbar/errbuilder-go"
)

// DependencyConstraints is the flat (virtual package ⇒ range) map the
// encoder produces for a single (package, version) — SPEC_FULL.md §4.E.
// Every model of the map corresponds to a model of the formula it was
// lowered from, and vice versa.
type DependencyConstraints map[Package]Range

// mergeConstraints combines two encodings for a conjunction. Entries for
// the same Package key are reduced by intersection, uniformly, per the §9
// open-question resolution (the donor's own union-based revisions are the
// flagged bug, not the rule to follow).
func mergeConstraints(left, right DependencyConstraints) DependencyConstraints {
	out := make(DependencyConstraints, len(left)+len(right))
	for pkg, r := range left {
		out[pkg] = r
	}
	for pkg, r := range right {
		if existing, ok := out[pkg]; ok {
			out[pkg] = existing.Intersection(r)
		} else {
			out[pkg] = r
		}
	}
	return out
}

func single(rc *ResolverContext, pkg Package, r Range) DependencyConstraints {
	rc.RegisterPackage(pkg)
	return DependencyConstraints{pkg: r}
}

// EncodePackageFormula lowers one PackageFormula node into its flat
// encoding (SPEC_FULL.md §4.E's "Encoding rules").
func EncodePackageFormula(ctx context.Context, rc *ResolverContext, f PackageFormula) (DependencyConstraints, error) {
	switch v := f.(type) {
	case Base:
		if vr, ok := v.Formula.(VersionRange); ok {
			return single(rc, BasePackage{PackageName: v.Name}, vr.Range), nil
		}
		pkg := FormulaPackage{PackageName: v.Name, Formula: v.Formula}
		return single(rc, pkg, RangeFull()), nil
	case PkgAnd:
		lhs, err := EncodePackageFormula(ctx, rc, v.LHS)
		if err != nil {
			return nil, err
		}
		rhs, err := EncodePackageFormula(ctx, rc, v.RHS)
		if err != nil {
			return nil, err
		}
		return mergeConstraints(lhs, rhs), nil
	case PkgOr:
		pkg := OrPackage{LHS: v.LHS, RHS: v.RHS}
		return single(rc, pkg, RangeFull()), nil
	case ConflictClassDep:
		rc.RegisterConflictMember(v.Class, v.Package)
		pkg := ConflictClassPackage{Class: v.Class}
		return single(rc, pkg, RangeSingleton(RealVersion(v.Package))), nil
	default:
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("unreachable package formula variant")
	}
}

// EncodePackageFormulas merges a dependency list — the conditions the
// manifest parser produced for one package version — into a single
// DependencyConstraints map. The list is implicitly conjunctive: every
// formula in it must hold simultaneously.
func EncodePackageFormulas(ctx context.Context, rc *ResolverContext, fs []PackageFormula) (DependencyConstraints, error) {
	out := DependencyConstraints{}
	for _, f := range fs {
		enc, err := EncodePackageFormula(ctx, rc, f)
		if err != nil {
			return nil, err
		}
		out = mergeConstraints(out, enc)
	}
	return out, nil
}

// ExpandVersionFormula performs the positive expansion of a version formula
// under a target package name (SPEC_FULL.md §4.E). It is used by
// FormulaPackage when the solver picks "true" (includeBase = true, the
// dependency holds and Base(name) is forced alongside any variable
// bindings), and recursively by ProxyPackage branches. When includeBase is
// false — the already-negated "formula does not hold" branch — Base(name)
// injections are suppressed; the purpose of that branch is purely to bind
// variables consistently with the falsified filter.
func ExpandVersionFormula(ctx context.Context, rc *ResolverContext, name string, f VersionFormula, includeBase bool) (DependencyConstraints, error) {
	switch v := f.(type) {
	case VersionRange:
		if !includeBase {
			return DependencyConstraints{}, nil
		}
		return single(rc, BasePackage{PackageName: name}, v.Range), nil
	case Variable:
		rc.RecordVariableValue(v.Name, TrueVersion())
		out := baseIfIncluded(rc, name, includeBase)
		varPkg := VarPackage{VarName: v.Name}
		rc.RegisterPackage(varPkg)
		return mergeConstraints(out, DependencyConstraints{varPkg: RangeSingleton(TrueVersion())}), nil
	case Not:
		assert.NotEmpty(ctx, v.Name, "negated filter variable must be named")
		rc.RecordVariableValue(v.Name, FalseVersion())
		out := baseIfIncluded(rc, name, includeBase)
		varPkg := VarPackage{VarName: v.Name}
		rc.RegisterPackage(varPkg)
		return mergeConstraints(out, DependencyConstraints{varPkg: RangeSingleton(FalseVersion())}), nil
	case VerAnd:
		lhs, err := ExpandVersionFormula(ctx, rc, name, v.LHS, includeBase)
		if err != nil {
			return nil, err
		}
		rhs, err := ExpandVersionFormula(ctx, rc, name, v.RHS, includeBase)
		if err != nil {
			return nil, err
		}
		return mergeConstraints(lhs, rhs), nil
	case VerOr:
		pkg := ProxyPackage{PackageName: name, Formula: v, IncludeBase: includeBase}
		return single(rc, pkg, RangeFull()), nil
	case Comparator:
		return expandComparator(ctx, rc, name, v, includeBase)
	case Lit:
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("literal value outside comparator")
	default:
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("unreachable version formula variant")
	}
}

func baseIfIncluded(rc *ResolverContext, name string, includeBase bool) DependencyConstraints {
	if !includeBase {
		return DependencyConstraints{}
	}
	return single(rc, BasePackage{PackageName: name}, RangeFull())
}

// expandComparator handles the two comparator shapes SPEC_FULL.md §4.E
// recognises. A Variable/Lit operand pair (either order) always records the
// literal and emits a Var(x) range constraint, regardless of operator —
// this is the canonical `os = "macos"` / `os-family != "windows"` filter
// shape and applies to Eq/Neq exactly as it does to the ordered relops. Only
// when the operands are *not* a variable/literal pair does Eq/Neq fall back
// to the Proxy encoding of two arbitrary sub-formulas. Any other shape is an
// ill-formed filter.
func expandComparator(ctx context.Context, rc *ResolverContext, name string, c Comparator, includeBase bool) (DependencyConstraints, error) {
	if varName, lit, err := orderedOperands(c.LHS, c.RHS); err == nil {
		rc.RecordVariableValue(varName, lit)
		out := baseIfIncluded(rc, name, includeBase)
		varPkg := VarPackage{VarName: varName}
		rc.RegisterPackage(varPkg)
		return mergeConstraints(out, DependencyConstraints{varPkg: relopToRange(c.Op, lit)}), nil
	}

	switch c.Op {
	case RelEq, RelNeq:
		pkg := ProxyPackage{PackageName: name, Formula: c, IncludeBase: includeBase}
		return single(rc, pkg, RangeFull()), nil
	default:
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("ill-formed filter: ordered comparator needs a variable/literal pair")
	}
}

// orderedOperands recognises the only two well-formed operand shapes for an
// ordered comparator: (Variable, Lit) or (Lit, Variable).
func orderedOperands(lhs, rhs VersionFormula) (string, OpamVersion, error) {
	if v, ok := lhs.(Variable); ok {
		if l, ok := rhs.(Lit); ok {
			return v.Name, l.Value, nil
		}
	}
	if v, ok := rhs.(Variable); ok {
		if l, ok := lhs.(Lit); ok {
			return v.Name, l.Value, nil
		}
	}
	return "", OpamVersion{}, errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg("ill-formed filter: ordered comparator needs a variable/literal pair")
}

// expandEqualityProxy resolves a ProxyPackage whose Formula is an Eq/Neq
// Comparator once the solver has picked a branch (lhs or rhs):
//
//	Eq,  lhs ⇒ L ∧ R    ;  Eq,  rhs ⇒ ¬L ∧ ¬R
//	Neq, lhs ⇒ L ∧ ¬R   ;  Neq, rhs ⇒ ¬L ∧ R
func expandEqualityProxy(ctx context.Context, rc *ResolverContext, name string, c Comparator, pickLHS bool, includeBase bool) (DependencyConstraints, error) {
	left, right := c.LHS, c.RHS
	switch {
	case c.Op == RelEq && pickLHS, c.Op == RelNeq && pickLHS:
		if c.Op == RelNeq {
			right = normalizeNegation(right)
		}
	case c.Op == RelEq && !pickLHS:
		left, right = normalizeNegation(left), normalizeNegation(right)
	case c.Op == RelNeq && !pickLHS:
		left = normalizeNegation(left)
	}
	lhsEnc, err := ExpandVersionFormula(ctx, rc, name, left, includeBase)
	if err != nil {
		return nil, err
	}
	rhsEnc, err := ExpandVersionFormula(ctx, rc, name, right, includeBase)
	if err != nil {
		return nil, err
	}
	return mergeConstraints(lhsEnc, rhsEnc), nil
}
