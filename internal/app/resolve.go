package app

import (
	"context"
	"strconv"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"opam-resolve/internal/core"
)

// Resolve turns a CLI-shaped request into a core.Solve call and shapes the
// result for display (SPEC_FULL.md §6). A context deadline is enforced by
// racing the (synchronous, non-context-aware) solver call against
// ctx.Done() in a goroutine, per §5.
func (s Service) Resolve(ctx context.Context, req ResolveRequest) (ResolveResult, error) {
	repoPath := strings.TrimSpace(req.RepoPath)
	if repoPath == "" {
		return ResolveResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("repo path is required (--repo)")
	}

	constraints := make([]core.RootConstraint, 0, len(req.Requires))
	for _, raw := range req.Requires {
		c, err := parseRequire(raw)
		if err != nil {
			return ResolveResult{}, err
		}
		constraints = append(constraints, c)
	}

	log.Ctx(ctx).Debug().
		Str("repo", repoPath).
		Int("requires", len(constraints)).
		Int("vars", len(req.Vars)).
		Time("started_at", s.Clock()).
		Msg("starting resolution")

	type outcome struct {
		result core.Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := core.Solve(ctx, s.Repo, repoPath, constraints, req.Vars)
		done <- outcome{result: result, err: err}
	}()

	select {
	case <-ctx.Done():
		return ResolveResult{}, errbuilder.New().
			WithCode(errbuilder.CodeDeadlineExceeded).
			WithMsg("resolution did not complete before the deadline").
			WithCause(ctx.Err())
	case out := <-done:
		return shapeResult(out.result, out.err)
	}
}

// shapeResult translates a core.Solve outcome into a ResolveResult. A
// *pubgrub.NoSolutionError is not a fatal error (§7): its rendered
// derivation becomes ResolveResult.Conflict. Any other error is returned
// unchanged for the CLI to map to an exit code.
func shapeResult(result core.Result, err error) (ResolveResult, error) {
	if err != nil {
		if noSolution, ok := core.AsNoSolutionError(err); ok {
			return ResolveResult{Conflict: noSolution.Error()}, nil
		}
		return ResolveResult{}, err
	}

	out := ResolveResult{
		Solution: make(map[string]string, len(result.Packages)),
		Vars:     make(map[string]string, len(result.Vars)),
	}
	for name, v := range result.Packages {
		out.Solution[name] = v.String()
	}
	for name, v := range result.Vars {
		out.Vars[name] = v.String()
	}
	return out, nil
}

// parseRequire splits a "name:range" root constraint (§6's --require flag)
// into a core.RootConstraint. A missing range (bare "name" or "name:")
// means any version.
func parseRequire(raw string) (core.RootConstraint, error) {
	name, rangeText, found := strings.Cut(raw, ":")
	name = strings.TrimSpace(name)
	if name == "" {
		return core.RootConstraint{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("--require needs a package name: " + raw)
	}
	if !found || strings.TrimSpace(rangeText) == "" {
		return core.RootConstraint{Package: name, Range: core.RangeFull()}, nil
	}
	r, err := parseRange(rangeText)
	if err != nil {
		return core.RootConstraint{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("--require " + raw + ": " + err.Error())
	}
	return core.RootConstraint{Package: name, Range: r}, nil
}

// parseRange parses a comma-separated conjunction of comparator clauses
// (">=1.0.0,<2.0.0", "=1.2.3", "!=1.0.0-beta") into a core.Range.
func parseRange(text string) (core.Range, error) {
	r := core.RangeFull()
	for _, clause := range strings.Split(text, ",") {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			continue
		}
		op, rest, err := cutRelOp(clause)
		if err != nil {
			return core.Range{}, err
		}
		v := core.RealVersion(strings.TrimSpace(rest))
		r = r.Intersection(rangeForOp(op, v))
	}
	return r, nil
}

func cutRelOp(clause string) (string, string, error) {
	for _, op := range []string{">=", "<=", "!=", ">", "<", "="} {
		if rest, ok := strings.CutPrefix(clause, op); ok {
			if strings.TrimSpace(rest) == "" {
				return "", "", errbuilder.New().
					WithCode(errbuilder.CodeInvalidArgument).
					WithMsg("comparator " + op + " needs a version: " + strconv.Quote(clause))
			}
			return op, rest, nil
		}
	}
	return "", "", errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg("unrecognised range clause: " + strconv.Quote(clause))
}

func rangeForOp(op string, v core.OpamVersion) core.Range {
	switch op {
	case "=":
		return core.RangeSingleton(v)
	case "!=":
		return core.RangeSingleton(v).Complement()
	case ">=":
		return core.RangeAtLeast(v)
	case ">":
		return core.RangeAbove(v)
	case "<=":
		return core.RangeAtMost(v)
	case "<":
		return core.RangeBelow(v)
	default:
		return core.RangeFull()
	}
}
