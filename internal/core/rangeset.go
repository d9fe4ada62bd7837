package core

import "github.com/contriboss/pubgrub-go"

// Range is a finite union of half-open version intervals (SPEC_FULL.md
// §3). Rather than hand-rolling interval arithmetic, it is a thin wrapper
// over pubgrub.VersionSet — the solver library's own range algebra — so
// this component stays a pass-through onto the library interface, per the
// spec's framing of Range as "provided by the solver library".
type Range struct {
	set pubgrub.VersionSet
}

func wrapSet(set pubgrub.VersionSet) Range { return Range{set: set} }

// RangeFull is the set of all versions.
func RangeFull() Range { return wrapSet(pubgrub.FullVersionSet()) }

// RangeEmpty is the set containing no versions.
func RangeEmpty() Range { return wrapSet(pubgrub.EmptyVersionSet()) }

// RangeSingleton is the set containing exactly v.
func RangeSingleton(v OpamVersion) Range {
	return wrapSet(pubgrub.NewVersionRangeSet(v, true, v, true))
}

// RangeAtLeast is >=v.
func RangeAtLeast(v OpamVersion) Range {
	return wrapSet(pubgrub.NewLowerBoundVersionSet(v, true))
}

// RangeAbove is >v.
func RangeAbove(v OpamVersion) Range {
	return wrapSet(pubgrub.NewLowerBoundVersionSet(v, false))
}

// RangeAtMost is <=v.
func RangeAtMost(v OpamVersion) Range {
	return wrapSet(pubgrub.NewUpperBoundVersionSet(v, true))
}

// RangeBelow is <v.
func RangeBelow(v OpamVersion) Range {
	return wrapSet(pubgrub.NewUpperBoundVersionSet(v, false))
}

// Contains reports whether v lies within the range.
func (r Range) Contains(v OpamVersion) bool {
	if r.set == nil {
		return false
	}
	return r.set.Contains(v)
}

// Intersection returns the range containing versions in both r and o.
func (r Range) Intersection(o Range) Range {
	return wrapSet(r.orFull().Intersection(o.orFull()))
}

// Union returns the range containing versions in either r or o.
func (r Range) Union(o Range) Range {
	return wrapSet(r.orFull().Union(o.orFull()))
}

// Complement returns every version not in r.
func (r Range) Complement() Range {
	return wrapSet(r.orFull().Complement())
}

// IsEmpty reports whether the range contains no versions.
func (r Range) IsEmpty() bool {
	if r.set == nil {
		return true
	}
	return r.set.IsEmpty()
}

func (r Range) orFull() pubgrub.VersionSet {
	if r.set == nil {
		return pubgrub.FullVersionSet()
	}
	return r.set
}

// String renders the range in its canonical form, used for the Formula
// AST's Display implementation and for hashing a Range by its text.
func (r Range) String() string {
	if r.set == nil {
		return pubgrub.FullVersionSet().String()
	}
	return r.set.String()
}

// AsVersionSet exposes the underlying pubgrub.VersionSet for building a
// Condition to hand to the solver (component F).
func (r Range) AsVersionSet() pubgrub.VersionSet {
	return r.orFull()
}

// relopToRange maps a prefix relational operator plus a literal version
// onto the Range it denotes (SPEC_FULL.md §4.C/D rule 2).
func relopToRange(op RelOp, v OpamVersion) Range {
	switch op {
	case RelEq:
		return RangeSingleton(v)
	case RelNeq:
		return RangeSingleton(v).Complement()
	case RelGeq:
		return RangeAtLeast(v)
	case RelGt:
		return RangeAbove(v)
	case RelLeq:
		return RangeAtMost(v)
	case RelLt:
		return RangeBelow(v)
	default:
		return RangeFull()
	}
}
