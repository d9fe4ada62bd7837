package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpamVersionOrdering(t *testing.T) {
	tests := []struct {
		name  string
		lower string
		upper string
	}{
		{"numeric segments", "1.2.0", "1.10.0"},
		{"tilde sorts below empty continuation", "1.0~beta", "1.0"},
		{"tilde chain", "1.0~alpha", "1.0~beta"},
		{"letters sort below non-letters", "1.0a", "1.0.1"},
		{"trailing segment beats shorter", "1.0", "1.0.0"},
		{"single-digit segment sorts below double-digit segment", "1.9.0", "1.10.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lower, upper := RealVersion(tt.lower), RealVersion(tt.upper)
			assert.Negative(t, lower.Sort(upper), "%s should sort below %s", tt.lower, tt.upper)
			assert.Positive(t, upper.Sort(lower), "%s should sort above %s", tt.upper, tt.lower)
		})
	}
}

func TestOpamVersionEqual(t *testing.T) {
	assert.True(t, RealVersion("1.0.0").Equal(RealVersion("1.0.0")))
	assert.False(t, RealVersion("1.0.0").Equal(RealVersion("1.0.1")))
}

func TestSentinelOrdering(t *testing.T) {
	real := RealVersion("9999.0.0")
	assert.Negative(t, real.Sort(LHSVersion()))
	assert.Negative(t, real.Sort(RootVersion()))

	assert.Negative(t, LHSVersion().Sort(RHSVersion()))
	assert.Negative(t, RHSVersion().Sort(FalseVersion()))
	assert.Negative(t, FalseVersion().Sort(TrueVersion()))
	assert.Negative(t, TrueVersion().Sort(RootVersion()))
}

func TestSentinelsNeverCollideWithRealVersions(t *testing.T) {
	assert.False(t, RealVersion("true").Equal(TrueVersion()))
	assert.False(t, RealVersion("false").Equal(FalseVersion()))
	assert.False(t, RealVersion("lhs").Equal(LHSVersion()))
	assert.False(t, RealVersion("rhs").Equal(RHSVersion()))
	assert.False(t, RealVersion("").Equal(RootVersion()))
}

func TestOpamVersionString(t *testing.T) {
	assert.Equal(t, "1.2.3", RealVersion("1.2.3").String())
	assert.Equal(t, "true", TrueVersion().String())
	assert.Equal(t, "", RootVersion().String())
}
