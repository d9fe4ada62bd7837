package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeDeps(t *testing.T, json string) []PackageFormula {
	t.Helper()
	manifest, err := DecodeManifest([]byte(json))
	require.NoError(t, err)
	deps, err := ParseDependencies(manifest)
	require.NoError(t, err)
	return deps
}

func TestParseBareStringDependency(t *testing.T) {
	deps := decodeDeps(t, `{"name":"app","version":"1.0","depends":["foo"]}`)
	require.Len(t, deps, 1)
	base, ok := deps[0].(Base)
	require.True(t, ok)
	assert.Equal(t, "foo", base.Name)
	vr, ok := base.Formula.(VersionRange)
	require.True(t, ok)
	assert.True(t, vr.Range.Contains(RealVersion("0.0.1")))
	assert.True(t, vr.Range.Contains(RealVersion("99.0.0")))
}

func TestParseSimpleWithPrefixRelopCondition(t *testing.T) {
	deps := decodeDeps(t, `{
		"name":"app","version":"1.0",
		"depends":[{"val":"foo","conditions":[{"prefix_relop":"geq","arg":"1.0"}]}]
	}`)
	require.Len(t, deps, 1)
	base := deps[0].(Base)
	assert.Equal(t, "foo", base.Name)
	vr, ok := base.Formula.(VersionRange)
	require.True(t, ok)
	assert.True(t, vr.Range.Contains(RealVersion("1.0")))
	assert.False(t, vr.Range.Contains(RealVersion("0.9")))
}

func TestParsePureRangeFolding(t *testing.T) {
	deps := decodeDeps(t, `{
		"name":"app","version":"1.0",
		"depends":[{"val":"foo","conditions":[
			{"prefix_relop":"geq","arg":"1.0"},
			{"prefix_relop":"lt","arg":"2.0"}
		]}]
	}`)
	base := deps[0].(Base)
	vr, ok := base.Formula.(VersionRange)
	require.True(t, ok, "two pure ranges must fold into a single VersionRange")
	assert.True(t, vr.Range.Contains(RealVersion("1.5")))
	assert.False(t, vr.Range.Contains(RealVersion("2.0")))
	assert.False(t, vr.Range.Contains(RealVersion("0.5")))
}

func TestParsePackageOr(t *testing.T) {
	deps := decodeDeps(t, `{"name":"app","version":"1.0","depends":[{"logop":"or","lhs":"foo","rhs":"bar"}]}`)
	require.Len(t, deps, 1)
	or, ok := deps[0].(PkgOr)
	require.True(t, ok)
	assert.Equal(t, "foo", or.LHS.(Base).Name)
	assert.Equal(t, "bar", or.RHS.(Base).Name)
}

func TestParsePackageGroupFoldsToAnd(t *testing.T) {
	deps := decodeDeps(t, `{"name":"app","version":"1.0","depends":[{"group":["foo","bar","baz"]}]}`)
	require.Len(t, deps, 1)
	top, ok := deps[0].(PkgAnd)
	require.True(t, ok)
	inner, ok := top.LHS.(PkgAnd)
	require.True(t, ok)
	assert.Equal(t, "foo", inner.LHS.(Base).Name)
	assert.Equal(t, "bar", inner.RHS.(Base).Name)
	assert.Equal(t, "baz", top.RHS.(Base).Name)
}

func TestParseFilterVariable(t *testing.T) {
	deps := decodeDeps(t, `{
		"name":"app","version":"1.0",
		"depends":[{"val":"foo","conditions":[{"id":"with-test"}]}]
	}`)
	base := deps[0].(Base)
	assert.Equal(t, Variable{Name: "with-test"}, base.Formula)
}

func TestParseFilterNot(t *testing.T) {
	deps := decodeDeps(t, `{
		"name":"app","version":"1.0",
		"depends":[{"val":"foo","conditions":[{"pfxop":"not","arg":{"id":"with-test"}}]}]
	}`)
	base := deps[0].(Base)
	assert.Equal(t, Not{Name: "with-test"}, base.Formula)
}

func TestParseDefinedSugar(t *testing.T) {
	deps := decodeDeps(t, `{
		"name":"app","version":"1.0",
		"depends":[{"val":"foo","conditions":[{"pfxop":"defined","arg":{"id":"os-version"}}]}]
	}`)
	base := deps[0].(Base)
	want := Comparator{Op: RelNeq, LHS: Variable{Name: "os-version"}, RHS: Lit{Value: RootVersion()}}
	assert.Equal(t, want, base.Formula)
}

func TestParseFilterRelopComparator(t *testing.T) {
	deps := decodeDeps(t, `{
		"name":"app","version":"1.0",
		"depends":[{"val":"foo","conditions":[{"relop":"geq","lhs":{"id":"os-version"},"rhs":"11.0"}]}]
	}`)
	base := deps[0].(Base)
	want := Comparator{Op: RelGeq, LHS: Variable{Name: "os-version"}, RHS: Lit{Value: RealVersion("11.0")}}
	assert.Equal(t, want, base.Formula)
}

func TestParseConflictClass(t *testing.T) {
	deps := decodeDeps(t, `{"name":"app","version":"1.0","conflict-class":"compilers"}`)
	require.Len(t, deps, 1)
	cc, ok := deps[0].(ConflictClassDep)
	require.True(t, ok)
	assert.Equal(t, "compilers", cc.Class)
	assert.Equal(t, "app", cc.Package)
}

func TestDecodeManifestMalformedIsParseError(t *testing.T) {
	_, err := DecodeManifest([]byte(`not json`))
	require.Error(t, err)
}
