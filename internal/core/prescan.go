package core

import (
	"context"
)

// prescan walks every manifest reachable from constraints, by dependency
// name, across every version of every reachable package, before the solver
// takes its first step (SPEC_FULL.md §5). Parsing and encoding each
// manifest as a side effect primes rc's variable-universe and
// conflict-class caches, and registers every virtual package those
// manifests can produce — so the provider never discovers a new cache
// entry mid-solve that would have changed an earlier GetVersions answer.
//
// A package or manifest that cannot be loaded is tolerated and skipped:
// an unavailable dependency is a legitimate resolution scenario (the
// solver must still be able to report "no solution" for it), not a
// prescan failure. A manifest that fails to parse is fatal: a malformed
// repository is not something the solver can route around.
func prescan(ctx context.Context, repo Repository, repoPath string, rc *ResolverContext, constraints []RootConstraint) error {
	queue := make([]string, 0, len(constraints))
	queued := make(map[string]bool, len(constraints))
	for _, c := range constraints {
		if !queued[c.Package] {
			queued[c.Package] = true
			queue = append(queue, c.Package)
		}
	}

	visited := make(map[string]bool, len(queue))
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if visited[name] {
			continue
		}
		visited[name] = true

		versions, err := repo.Versions(ctx, repoPath, name)
		if err != nil {
			continue
		}
		for _, ver := range versions {
			manifest, err := repo.Manifest(ctx, repoPath, name, ver)
			if err != nil {
				continue
			}
			formulas, err := ParseDependencies(manifest)
			if err != nil {
				return err
			}
			if _, err := EncodePackageFormulas(ctx, rc, formulas); err != nil {
				return err
			}
			next := map[string]struct{}{}
			for _, f := range formulas {
				collectDependencyNames(f, next)
				if err := primeFilterVariables(ctx, rc, f); err != nil {
					return err
				}
			}
			for dep := range next {
				if !queued[dep] {
					queued[dep] = true
					queue = append(queue, dep)
				}
			}
		}
	}
	return nil
}

// collectDependencyNames gathers every package name a formula depends on,
// for continuing the prescan's breadth-first walk. ConflictClassDep.Package
// names the manifest's own package, not a forward dependency edge, so it is
// deliberately not collected here.
func collectDependencyNames(f PackageFormula, out map[string]struct{}) {
	switch v := f.(type) {
	case Base:
		out[v.Name] = struct{}{}
	case PkgAnd:
		collectDependencyNames(v.LHS, out)
		collectDependencyNames(v.RHS, out)
	case PkgOr:
		collectDependencyNames(v.LHS, out)
		collectDependencyNames(v.RHS, out)
	case ConflictClassDep:
		// intentionally not collected
	}
}

// primeFilterVariables recurses into a PackageFormula and, for every Base
// node whose version formula is a filter rather than a plain range, expands
// both the true and false branches so the variables it mentions are
// registered in rc's universe before the solver ever builds a Var package
// for them.
func primeFilterVariables(ctx context.Context, rc *ResolverContext, f PackageFormula) error {
	switch v := f.(type) {
	case Base:
		if _, ok := v.Formula.(VersionRange); ok {
			return nil
		}
		if _, err := ExpandVersionFormula(ctx, rc, v.Name, v.Formula, true); err != nil {
			return err
		}
		negated := normalizeNegation(v.Formula)
		if _, err := ExpandVersionFormula(ctx, rc, v.Name, negated, false); err != nil {
			return err
		}
		return nil
	case PkgAnd:
		if err := primeFilterVariables(ctx, rc, v.LHS); err != nil {
			return err
		}
		return primeFilterVariables(ctx, rc, v.RHS)
	case PkgOr:
		if err := primeFilterVariables(ctx, rc, v.LHS); err != nil {
			return err
		}
		return primeFilterVariables(ctx, rc, v.RHS)
	default:
		return nil
	}
}
