package core

import (
	"fmt"

	"github.com/contriboss/pubgrub-go"
)

// Package is the sealed tagged-union identity the solver keys on
// (SPEC_FULL.md §3). Every variant is a distinct solver-visible package,
// real or virtual.
type Package interface {
	fmt.Stringer
	// Name returns the canonical string encoding used as the interned
	// pubgrub.Name the solver hashes and compares on.
	Name() string
	isPackage()
}

// SolverName interns a Package's canonical encoding for the solver.
func SolverName(p Package) pubgrub.Name { return pubgrub.MakeName(p.Name()) }

// RootPackage carries the user's initial (package, range) constraints as
// its dependencies; it has a single version, the root sentinel "".
type RootPackage struct{}

func (RootPackage) isPackage()      {}
func (RootPackage) Name() string    { return "$root" }
func (RootPackage) String() string  { return "root" }

// BasePackage is a real package from the repository.
type BasePackage struct{ PackageName string }

func (BasePackage) isPackage()          {}
func (b BasePackage) Name() string      { return "base:" + b.PackageName }
func (b BasePackage) String() string    { return b.PackageName }

// ConflictClassPackage is synthetic: at most one real package may claim a
// given class. Its version universe is every package ever registered into
// the class.
type ConflictClassPackage struct{ Class string }

func (ConflictClassPackage) isPackage()         {}
func (c ConflictClassPackage) Name() string     { return "conflict-class:" + c.Class }
func (c ConflictClassPackage) String() string   { return fmt.Sprintf("class(%s)", c.Class) }

// OrPackage is synthetic: chooses one branch of a package-level
// disjunction. Its universe is {lhs, rhs}.
type OrPackage struct{ LHS, RHS PackageFormula }

func (OrPackage) isPackage()       {}
func (o OrPackage) Name() string   { return "or:" + o.LHS.String() + "|" + o.RHS.String() }
func (o OrPackage) String() string { return fmt.Sprintf("or(%s, %s)", o.LHS, o.RHS) }

// FormulaPackage is synthetic: represents the truth of a filter attached
// to a dependency on PackageName. Its universe is {true, false}.
type FormulaPackage struct {
	PackageName string
	Formula     VersionFormula
}

func (FormulaPackage) isPackage() {}
func (f FormulaPackage) Name() string {
	return "formula:" + f.PackageName + ":" + f.Formula.String()
}
func (f FormulaPackage) String() string {
	return fmt.Sprintf("formula(%s, %s)", f.PackageName, f.Formula)
}

// ProxyPackage is synthetic: represents an internal disjunction/equality
// inside a filter. Its universe is {lhs, rhs}. PackageName is optional
// (empty when the proxy arises from a bare comparator, not a named
// dependency's filter). IncludeBase carries forward whether the proxy was
// created while still inside a "formula satisfied" (true) branch or an
// already-negated (false) branch, so that GetDependencies can resume the
// positive expansion with the right Base(name) policy when the solver later
// picks lhs/rhs — the choice isn't re-derivable from the formula alone.
type ProxyPackage struct {
	PackageName string
	Formula     VersionFormula
	IncludeBase bool
}

func (ProxyPackage) isPackage() {}
func (p ProxyPackage) Name() string {
	return fmt.Sprintf("proxy:%s:%t:%s", p.PackageName, p.IncludeBase, p.Formula)
}
func (p ProxyPackage) String() string {
	return fmt.Sprintf("proxy(%s, %s)", p.PackageName, p.Formula)
}

// VarPackage is synthetic: an environment/build variable (os, arch,
// build, test, ...). Its universe is VARIABLE_CACHE[Name], or {false,
// true} by default.
type VarPackage struct{ VarName string }

func (VarPackage) isPackage()       {}
func (v VarPackage) Name() string   { return "var:" + v.VarName }
func (v VarPackage) String() string { return fmt.Sprintf("var(%s)", v.VarName) }
