package core

import (
	"context"

	"github.com/contriboss/pubgrub-go"
)

// RootConstraint is one of the caller's top-level (package, range) requests
// (SPEC_FULL.md §4.E's "Root encoding" and §6's `rootConstraints`).
type RootConstraint struct {
	Package string
	Range   Range
}

// Result is the filtered view of a solution handed back to callers (§6):
// selected real-package versions, and the variable bindings the solver
// chose to make those selections consistent.
type Result struct {
	Packages map[string]OpamVersion
	Vars     map[string]OpamVersion
}

// parseVarValue maps a root-supplied variable value onto its OpamVersion
// encoding: "true"/"false" are the boolean sentinels expansion rules
// compare against (§4.E's Variable/Not cases); anything else is a literal
// value compared by ordered/equality comparators.
func parseVarValue(raw string) OpamVersion {
	switch raw {
	case "true":
		return TrueVersion()
	case "false":
		return FalseVersion()
	default:
		return RealVersion(raw)
	}
}

// Solve resolves constraints against repo (mounted at repoPath), with vars
// pre-seeding the root's variable bindings, and returns the selected
// package/variable assignment or the solver's failure (SPEC_FULL.md §6).
//
// A *pubgrub.NoSolutionError return is not a fatal error: its Error()
// method already renders a human-readable derivation the caller can print
// unchanged. Any other non-nil error is fatal.
func Solve(ctx context.Context, repo Repository, repoPath string, constraints []RootConstraint, vars map[string]string) (Result, error) {
	rc := NewResolverContext()
	rc.RegisterPackage(RootPackage{})

	root := DependencyConstraints{}
	for _, c := range constraints {
		pkg := BasePackage{PackageName: c.Package}
		rc.RegisterPackage(pkg)
		root[pkg] = c.Range
	}
	for name, raw := range vars {
		value := parseVarValue(raw)
		rc.RecordVariableValue(name, value)
		pkg := VarPackage{VarName: name}
		rc.RegisterPackage(pkg)
		root[pkg] = RangeSingleton(value)
	}

	// §5 requires every variable literal and conflict-class membership
	// reachable from the root to be primed into rc before the solver first
	// enumerates a Var/ConflictClass virtual package, so that no later
	// cache growth can retract a model the solver already committed to. A
	// pre-scan over every manifest reachable from the root constraints (by
	// dependency name, across every version of every reachable package)
	// gives that guarantee unconditionally, rather than relying on the
	// solver's own visit order.
	if err := prescan(ctx, repo, repoPath, rc, constraints); err != nil {
		return Result{}, err
	}

	provider := NewProvider(ctx, repo, repoPath, rc, root)
	solver := pubgrub.NewSolverWithOptions(
		[]pubgrub.Source{provider},
		pubgrub.WithIncompatibilityTracking(true),
	)

	rootTerm := pubgrub.NewTerm(SolverName(RootPackage{}), pubgrub.EqualsCondition{Version: RootVersion()})
	solution, err := solver.Solve(rootTerm)
	if err != nil {
		return Result{}, err
	}

	result := Result{Packages: map[string]OpamVersion{}, Vars: map[string]OpamVersion{}}
	for nv := range solution.All() {
		pkg, ok := rc.LookupPackage(nv.Name.Value())
		if !ok {
			continue
		}
		ver, ok := nv.Version.(OpamVersion)
		if !ok {
			continue
		}
		switch p := pkg.(type) {
		case BasePackage:
			result.Packages[p.PackageName] = ver
		case VarPackage:
			result.Vars[p.VarName] = ver
		}
	}
	return result, nil
}
