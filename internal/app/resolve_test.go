package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opam-resolve/internal/core"
)

func TestParseRequireBareNameMeansAnyVersion(t *testing.T) {
	c, err := parseRequire("foo")
	require.NoError(t, err)
	assert.Equal(t, "foo", c.Package)
	assert.True(t, c.Range.Contains(core.RealVersion("0.0.1")))
}

func TestParseRequireEmptyNameIsError(t *testing.T) {
	_, err := parseRequire(":>=1.0")
	assert.Error(t, err)
}

func TestParseRequireWithRange(t *testing.T) {
	c, err := parseRequire("foo:>=1.0,<2.0")
	require.NoError(t, err)
	assert.Equal(t, "foo", c.Package)
	assert.True(t, c.Range.Contains(core.RealVersion("1.5")))
	assert.False(t, c.Range.Contains(core.RealVersion("2.0")))
	assert.False(t, c.Range.Contains(core.RealVersion("0.5")))
}

func TestParseRangeEquality(t *testing.T) {
	r, err := parseRange("=1.2.3")
	require.NoError(t, err)
	assert.True(t, r.Contains(core.RealVersion("1.2.3")))
	assert.False(t, r.Contains(core.RealVersion("1.2.4")))
}

func TestParseRangeNotEqual(t *testing.T) {
	r, err := parseRange("!=1.0.0")
	require.NoError(t, err)
	assert.False(t, r.Contains(core.RealVersion("1.0.0")))
	assert.True(t, r.Contains(core.RealVersion("1.0.1")))
}

func TestParseRangeUnrecognisedClauseIsError(t *testing.T) {
	_, err := parseRange("~>1.0")
	assert.Error(t, err)
}

func TestParseRangeComparatorMissingVersionIsError(t *testing.T) {
	_, err := parseRange(">=")
	assert.Error(t, err)
}

// fakeRepo is a minimal ports.Repository for exercising Service.Resolve.
type fakeRepo struct{}

func (fakeRepo) Versions(_ context.Context, _, name string) ([]core.OpamVersion, error) {
	if name != "app" {
		return nil, assertNotFound(name)
	}
	return []core.OpamVersion{core.RealVersion("1.0")}, nil
}

func (fakeRepo) Manifest(_ context.Context, _, name string, version core.OpamVersion) (core.Manifest, error) {
	return core.DecodeManifest([]byte(`{"name":"app","version":"1.0"}`))
}

type notFoundErr struct{ what string }

func (e *notFoundErr) Error() string { return "not found: " + e.what }

func assertNotFound(what string) error { return &notFoundErr{what: what} }

func TestServiceResolveEndToEnd(t *testing.T) {
	svc := NewService(fakeRepo{})
	result, err := svc.Resolve(context.Background(), ResolveRequest{
		RepoPath: "/repo",
		Requires: []string{"app"},
	})
	require.NoError(t, err)
	assert.Equal(t, "1.0", result.Solution["app"])
	assert.Empty(t, result.Conflict)
}

func TestServiceResolveRequiresRepoPath(t *testing.T) {
	svc := NewService(fakeRepo{})
	_, err := svc.Resolve(context.Background(), ResolveRequest{Requires: []string{"app"}})
	assert.Error(t, err)
}

func TestServiceResolveDeadlineExceeded(t *testing.T) {
	svc := NewService(fakeRepo{})
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	_, err := svc.Resolve(ctx, ResolveRequest{RepoPath: "/repo", Requires: []string{"app"}})
	assert.Error(t, err)
}
