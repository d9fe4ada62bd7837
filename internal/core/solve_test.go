package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeRepo is an in-memory Repository for exercising Solve end-to-end
// without a filesystem.
type fakeRepo struct {
	t         *testing.T
	versions  map[string][]OpamVersion
	manifests map[string]map[string]Manifest
}

func newFakeRepo(t *testing.T) *fakeRepo {
	return &fakeRepo{
		t:         t,
		versions:  map[string][]OpamVersion{},
		manifests: map[string]map[string]Manifest{},
	}
}

// add registers one (name, version) with its opam.json body. versions for a
// name must be added newest-first, matching the Repository.Versions
// contract.
func (r *fakeRepo) add(name, version, manifestJSON string) {
	manifest, err := DecodeManifest([]byte(manifestJSON))
	require.NoError(r.t, err)

	r.versions[name] = append(r.versions[name], RealVersion(version))
	if r.manifests[name] == nil {
		r.manifests[name] = map[string]Manifest{}
	}
	r.manifests[name][version] = manifest
}

func (r *fakeRepo) Versions(_ context.Context, _ string, name string) ([]OpamVersion, error) {
	versions, ok := r.versions[name]
	if !ok {
		return nil, errNotFound(name)
	}
	return versions, nil
}

func (r *fakeRepo) Manifest(_ context.Context, _ string, name string, version OpamVersion) (Manifest, error) {
	byVersion, ok := r.manifests[name]
	if !ok {
		return Manifest{}, errNotFound(name)
	}
	manifest, ok := byVersion[version.String()]
	if !ok {
		return Manifest{}, errNotFound(name + " " + version.String())
	}
	return manifest, nil
}

func errNotFound(what string) error {
	return &notFoundError{what: what}
}

type notFoundError struct{ what string }

func (e *notFoundError) Error() string { return "not found: " + e.what }

func TestSolveSimpleDependencyChainPicksNewest(t *testing.T) {
	repo := newFakeRepo(t)
	repo.add("app", "1.0", `{"name":"app","version":"1.0","depends":[{"val":"lib","conditions":[{"prefix_relop":"geq","arg":"2.0"}]}]}`)
	repo.add("lib", "2.1", `{"name":"lib","version":"2.1"}`)
	repo.add("lib", "2.0", `{"name":"lib","version":"2.0"}`)

	constraints := []RootConstraint{{Package: "app", Range: RangeFull()}}
	result, err := Solve(context.Background(), repo, "/repo", constraints, nil)
	require.NoError(t, err)

	require.Equal(t, "1.0", result.Packages["app"].String())
	require.Equal(t, "2.1", result.Packages["lib"].String())
}

func TestSolveConflictingRequirementsYieldsNoSolution(t *testing.T) {
	repo := newFakeRepo(t)
	repo.add("foo", "1.0", `{"name":"foo","version":"1.0","depends":[{"val":"baz","conditions":[{"prefix_relop":"lt","arg":"1.0"}]}]}`)
	repo.add("bar", "1.0", `{"name":"bar","version":"1.0","depends":[{"val":"baz","conditions":[{"prefix_relop":"geq","arg":"2.0"}]}]}`)
	repo.add("baz", "3.0", `{"name":"baz","version":"3.0"}`)
	repo.add("baz", "0.5", `{"name":"baz","version":"0.5"}`)

	constraints := []RootConstraint{
		{Package: "foo", Range: RangeFull()},
		{Package: "bar", Range: RangeFull()},
	}
	_, err := Solve(context.Background(), repo, "/repo", constraints, nil)
	require.Error(t, err)

	_, ok := AsNoSolutionError(err)
	require.True(t, ok, "expected a *pubgrub.NoSolutionError, got %T: %v", err, err)
}

func TestSolveVariableForcedFalseSkipsConditionalDependency(t *testing.T) {
	repo := newFakeRepo(t)
	repo.add("app", "1.0", `{"name":"app","version":"1.0","depends":[{"val":"lib","conditions":[{"id":"with-test"}]}]}`)

	constraints := []RootConstraint{{Package: "app", Range: RangeFull()}}
	result, err := Solve(context.Background(), repo, "/repo", constraints, map[string]string{"with-test": "false"})
	require.NoError(t, err)

	require.Equal(t, "1.0", result.Packages["app"].String())
	_, picked := result.Packages["lib"]
	require.False(t, picked, "lib must not be selected when its guarding variable is forced false")
	require.Equal(t, "false", result.Vars["with-test"].String())
}

func TestSolveVariableForcedTrueIncludesConditionalDependency(t *testing.T) {
	repo := newFakeRepo(t)
	repo.add("app", "1.0", `{"name":"app","version":"1.0","depends":[{"val":"lib","conditions":[{"id":"with-test"}]}]}`)
	repo.add("lib", "2.0", `{"name":"lib","version":"2.0"}`)

	constraints := []RootConstraint{{Package: "app", Range: RangeFull()}}
	result, err := Solve(context.Background(), repo, "/repo", constraints, map[string]string{"with-test": "true"})
	require.NoError(t, err)

	require.Equal(t, "1.0", result.Packages["app"].String())
	require.Equal(t, "2.0", result.Packages["lib"].String())
}

func TestSolveConflictClassRejectsTwoMembers(t *testing.T) {
	repo := newFakeRepo(t)
	repo.add("app", "1.0", `{"name":"app","version":"1.0","depends":["gcc","clang"]}`)
	repo.add("gcc", "1.0", `{"name":"gcc","version":"1.0","conflict-class":"compilers"}`)
	repo.add("clang", "1.0", `{"name":"clang","version":"1.0","conflict-class":"compilers"}`)

	constraints := []RootConstraint{{Package: "app", Range: RangeFull()}}
	_, err := Solve(context.Background(), repo, "/repo", constraints, nil)
	require.Error(t, err)

	_, ok := AsNoSolutionError(err)
	require.True(t, ok, "expected a *pubgrub.NoSolutionError, got %T: %v", err, err)
}
