package core

import (
	"context"
	"sort"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/contriboss/pubgrub-go"
)

// Repository is the external collaborator this package needs from the
// repository layer (SPEC_FULL.md §6). It is satisfied structurally by
// ports.Repository — declaring it here, rather than importing the ports
// package, keeps core free of a dependency on the hexagonal wiring layer
// while still letting the app layer hand in any ports.Repository value.
type Repository interface {
	// Versions lists every version of name available in repoPath, in
	// descending order (newest first) per §4.F.
	Versions(ctx context.Context, repoPath, name string) ([]OpamVersion, error)
	// Manifest decodes the opam.json for (name, version) in repoPath.
	Manifest(ctx context.Context, repoPath, name string, version OpamVersion) (Manifest, error)
}

// Provider implements pubgrub.Source over a repository, wiring every
// Package variant to its §4.F version/dependency rules. It owns the
// ResolverContext for the resolution run and the root's pre-encoded
// dependency constraints.
type Provider struct {
	ctx      context.Context
	repo     Repository
	repoPath string
	rc       *ResolverContext
	root     DependencyConstraints
}

// NewProvider builds a Provider. rootDeps is the already-encoded
// constraint set for RootPackage{} (built by Solve from the caller's
// requested packages and variable bindings).
func NewProvider(ctx context.Context, repo Repository, repoPath string, rc *ResolverContext, rootDeps DependencyConstraints) *Provider {
	return &Provider{ctx: ctx, repo: repo, repoPath: repoPath, rc: rc, root: rootDeps}
}

var _ pubgrub.Source = (*Provider)(nil)

// GetVersions implements pubgrub.Source (§4.F).
func (p *Provider) GetVersions(name pubgrub.Name) ([]pubgrub.Version, error) {
	pkg, ok := p.rc.LookupPackage(name.Value())
	if !ok {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("unregistered package name: " + name.Value())
	}

	switch v := pkg.(type) {
	case RootPackage:
		return []pubgrub.Version{RootVersion()}, nil
	case BasePackage:
		versions, err := p.repo.Versions(p.ctx, p.repoPath, v.PackageName)
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeNotFound).
				WithMsg("no available versions for " + v.PackageName).
				WithCause(err)
		}
		// The repository contract (§4.F) lists versions newest-first, since
		// choose_version returns the first match in priority order. pubgrub's
		// own solver instead scans its GetVersions result back-to-front and
		// takes the first allowed one, so the newest-first priority has to be
		// realized as oldest-first order here for the two to agree.
		out := make([]pubgrub.Version, len(versions))
		for i, ver := range versions {
			out[len(versions)-1-i] = ver
		}
		return out, nil
	case VarPackage:
		// VariableUniverse returns {false, true} as its default priority
		// (false preferred); reversed for the same back-to-front pick order.
		universe := p.rc.VariableUniverse(v.VarName)
		out := make([]pubgrub.Version, len(universe))
		for i, ver := range universe {
			out[len(universe)-1-i] = ver
		}
		return out, nil
	case ConflictClassPackage:
		members := p.rc.ConflictClassMembers(v.Class)
		sort.Strings(members)
		out := make([]pubgrub.Version, 0, len(members))
		for _, member := range members {
			out = append(out, RealVersion(member))
		}
		return out, nil
	case FormulaPackage:
		// {true, false}, true preferred: reversed to [false, true].
		return []pubgrub.Version{FalseVersion(), TrueVersion()}, nil
	case OrPackage, ProxyPackage:
		// {lhs, rhs}, lhs preferred: reversed to [rhs, lhs].
		return []pubgrub.Version{RHSVersion(), LHSVersion()}, nil
	default:
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("unreachable package variant in GetVersions")
	}
}

// GetDependencies implements pubgrub.Source (§4.F).
func (p *Provider) GetDependencies(name pubgrub.Name, version pubgrub.Version) ([]pubgrub.Term, error) {
	pkg, ok := p.rc.LookupPackage(name.Value())
	if !ok {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("unregistered package name: " + name.Value())
	}
	ver, ok := version.(OpamVersion)
	if !ok {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("version is not an OpamVersion")
	}

	switch v := pkg.(type) {
	case RootPackage:
		return constraintsToTerms(p.root), nil
	case BasePackage:
		manifest, err := p.repo.Manifest(p.ctx, p.repoPath, v.PackageName, ver)
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeNotFound).
				WithMsg("no manifest for " + v.PackageName + " " + ver.String()).
				WithCause(err)
		}
		formulas, err := ParseDependencies(manifest)
		if err != nil {
			return nil, err
		}
		deps, err := EncodePackageFormulas(p.ctx, p.rc, formulas)
		if err != nil {
			return nil, err
		}
		return constraintsToTerms(deps), nil
	case VarPackage:
		return nil, nil
	case ConflictClassPackage:
		return nil, nil
	case OrPackage:
		var formula PackageFormula = v.LHS
		if ver.Equal(RHSVersion()) {
			formula = v.RHS
		}
		deps, err := EncodePackageFormula(p.ctx, p.rc, formula)
		if err != nil {
			return nil, err
		}
		return constraintsToTerms(deps), nil
	case FormulaPackage:
		includeBase := ver.Equal(TrueVersion())
		formula := v.Formula
		if !includeBase {
			formula = normalizeNegation(formula)
		}
		deps, err := ExpandVersionFormula(p.ctx, p.rc, v.PackageName, formula, includeBase)
		if err != nil {
			return nil, err
		}
		return constraintsToTerms(deps), nil
	case ProxyPackage:
		return p.expandProxy(v, ver)
	default:
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("unreachable package variant in GetDependencies")
	}
}

// expandProxy resolves a ProxyPackage once the solver has picked lhs/rhs.
// When the proxy's formula is a VerOr, lhs/rhs select the left/right
// sub-formula directly; when it's an Eq/Neq Comparator, the branch also
// flips which side is negated, per §4.E's equality-proxy rules.
func (p *Provider) expandProxy(v ProxyPackage, ver OpamVersion) ([]pubgrub.Term, error) {
	pickLHS := ver.Equal(LHSVersion())
	switch f := v.Formula.(type) {
	case VerOr:
		branch := f.LHS
		if !pickLHS {
			branch = f.RHS
		}
		deps, err := ExpandVersionFormula(p.ctx, p.rc, v.PackageName, branch, v.IncludeBase)
		if err != nil {
			return nil, err
		}
		return constraintsToTerms(deps), nil
	case Comparator:
		deps, err := expandEqualityProxy(p.ctx, p.rc, v.PackageName, f, pickLHS, v.IncludeBase)
		if err != nil {
			return nil, err
		}
		return constraintsToTerms(deps), nil
	default:
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("proxy package wraps an unexpected formula shape")
	}
}

// constraintsToTerms translates a DependencyConstraints map into the
// pubgrub.Term list the solver expects, registering each package's
// canonical name along the way.
func constraintsToTerms(deps DependencyConstraints) []pubgrub.Term {
	terms := make([]pubgrub.Term, 0, len(deps))
	for pkg, r := range deps {
		terms = append(terms, pubgrub.NewTerm(SolverName(pkg), pubgrub.NewVersionSetCondition(r.AsVersionSet())))
	}
	return terms
}
