package core

import "fmt"

// RelOp is a version-formula comparator relation (SPEC_FULL.md §3).
type RelOp int

const (
	RelEq RelOp = iota
	RelNeq
	RelGeq
	RelGt
	RelLeq
	RelLt
)

// Negate returns the relational operator's logical negation, used by
// normalizeNegation when a comparator is pushed under a Not.
func (op RelOp) Negate() RelOp {
	switch op {
	case RelEq:
		return RelNeq
	case RelNeq:
		return RelEq
	case RelGeq:
		return RelLt
	case RelGt:
		return RelLeq
	case RelLeq:
		return RelGt
	case RelLt:
		return RelGeq
	default:
		return op
	}
}

func (op RelOp) String() string {
	switch op {
	case RelEq:
		return "="
	case RelNeq:
		return "!="
	case RelGeq:
		return ">="
	case RelGt:
		return ">"
	case RelLeq:
		return "<="
	case RelLt:
		return "<"
	default:
		return "?"
	}
}

// PackageFormula is the sealed tagged-union tree over package dependencies
// (SPEC_FULL.md §3). The concrete variants are Base, PkgAnd, PkgOr and
// ConflictClassDep.
type PackageFormula interface {
	fmt.Stringer
	isPackageFormula()
}

// Base is a dependency on a real package, qualified by a version formula.
// A pure Base (VersionFormula is a VersionRange) needs no virtual-package
// encoding; anything else is conditional.
type Base struct {
	Name    string
	Formula VersionFormula
}

func (Base) isPackageFormula() {}
func (b Base) String() string  { return fmt.Sprintf("(%s: %s)", b.Name, b.Formula) }

// PkgAnd is the conjunction of two package formulas.
type PkgAnd struct{ LHS, RHS PackageFormula }

func (PkgAnd) isPackageFormula() {}
func (a PkgAnd) String() string  { return fmt.Sprintf("(%s & %s)", a.LHS, a.RHS) }

// PkgOr is the disjunction of two package formulas.
type PkgOr struct{ LHS, RHS PackageFormula }

func (PkgOr) isPackageFormula() {}
func (o PkgOr) String() string  { return fmt.Sprintf("(%s | %s)", o.LHS, o.RHS) }

// ConflictClassDep declares that Package belongs to the named conflict
// class. It never appears nested inside PkgAnd/PkgOr; the parser emits it
// as a sibling dependency.
type ConflictClassDep struct {
	Class   string
	Package string
}

func (ConflictClassDep) isPackageFormula() {}
func (c ConflictClassDep) String() string  { return fmt.Sprintf("[%s: %s]", c.Class, c.Package) }

// VersionFormula is the sealed tagged-union tree over version constraints
// and filters (SPEC_FULL.md §3).
type VersionFormula interface {
	fmt.Stringer
	isVersionFormula()
}

// VersionRange is a pure range constraint with no variables underneath it.
// The parser folds every And/Or of two VersionRange children into a single
// VersionRange (pure-range folding, SPEC_FULL.md §4.C/D rule 1).
type VersionRange struct {
	Range Range
}

func (VersionRange) isVersionFormula() {}
func (v VersionRange) String() string  { return v.Range.String() }

// Lit is a literal value appearing as a comparator operand. It is a parse
// error for a Lit to appear outside a Comparator.
type Lit struct{ Value OpamVersion }

func (Lit) isVersionFormula() {}
func (l Lit) String() string  { return l.Value.String() }

// Variable is a bare reference to an environment/build variable, true iff
// the variable is bound to "true".
type Variable struct{ Name string }

func (Variable) isVersionFormula() {}
func (v Variable) String() string  { return v.Name }

// Not is the negation of a variable reference. Post-normalisation, Not
// never wraps anything but a variable name (SPEC_FULL.md §3 invariant ii).
type Not struct{ Name string }

func (Not) isVersionFormula() {}
func (n Not) String() string  { return fmt.Sprintf("!%s", n.Name) }

// VerAnd is the conjunction of two version formulas.
type VerAnd struct{ LHS, RHS VersionFormula }

func (VerAnd) isVersionFormula() {}
func (a VerAnd) String() string  { return fmt.Sprintf("(%s & %s)", a.LHS, a.RHS) }

// VerOr is the disjunction of two version formulas.
type VerOr struct{ LHS, RHS VersionFormula }

func (VerOr) isVersionFormula() {}
func (o VerOr) String() string  { return fmt.Sprintf("(%s | %s)", o.LHS, o.RHS) }

// Comparator relates two version-formula operands with a relational
// operator. Only a handful of operand shapes are well-formed: a
// (Lit, Variable) or (Variable, Lit) pair for any operator (lowered directly
// to a Var range), or any other pair for Eq/Neq only (handled by the
// encoder's Proxy expansion).
type Comparator struct {
	Op       RelOp
	LHS, RHS VersionFormula
}

func (Comparator) isVersionFormula() {}
func (c Comparator) String() string {
	return fmt.Sprintf("(%s %s %s)", c.LHS, c.Op, c.RHS)
}
