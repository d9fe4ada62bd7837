package core

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/contriboss/pubgrub-go"
)

// sentinelKind distinguishes the handful of reserved version strings a
// virtual package uses as its "choice" from a real package version parsed
// out of a manifest. Keeping them as a disjoint tag (rather than comparing
// bare strings) means a manifest author who happens to publish a package
// version literally named "true" can never be confused with the boolean
// sentinel of the same spelling.
type sentinelKind int

const (
	notSentinel sentinelKind = iota
	sentinelLHS
	sentinelRHS
	sentinelTrue
	sentinelFalse
	sentinelRoot
)

var sentinelOrder = map[sentinelKind]int{
	sentinelLHS:   0,
	sentinelRHS:   1,
	sentinelFalse: 2,
	sentinelTrue:  3,
	sentinelRoot:  4,
}

var sentinelText = map[sentinelKind]string{
	sentinelLHS:   "lhs",
	sentinelRHS:   "rhs",
	sentinelTrue:  "true",
	sentinelFalse: "false",
	sentinelRoot:  "",
}

// OpamVersion is an opam-style version string with a Debian/opam tokenised
// total order. It implements pubgrub.Version so it can be handed directly
// to the solver as a version value.
type OpamVersion struct {
	raw     string
	kind    sentinelKind
	tokens  []versionToken
}

// RealVersion builds an OpamVersion from an on-disk version string. The
// tokenisation happens eagerly so that repeated comparisons (the solver
// compares the same version against many others while searching) don't
// re-tokenise every time.
func RealVersion(raw string) OpamVersion {
	return OpamVersion{raw: raw, kind: notSentinel, tokens: tokenize(raw)}
}

func sentinel(kind sentinelKind) OpamVersion {
	return OpamVersion{raw: sentinelText[kind], kind: kind}
}

// LHSVersion, RHSVersion, TrueVersion, FalseVersion, RootVersion are the
// reserved virtual-package choices named in SPEC_FULL.md §3.
func LHSVersion() OpamVersion   { return sentinel(sentinelLHS) }
func RHSVersion() OpamVersion   { return sentinel(sentinelRHS) }
func TrueVersion() OpamVersion  { return sentinel(sentinelTrue) }
func FalseVersion() OpamVersion { return sentinel(sentinelFalse) }
func RootVersion() OpamVersion  { return sentinel(sentinelRoot) }

// IsSentinel reports whether v is one of the reserved virtual-package
// choices rather than a real package version.
func (v OpamVersion) IsSentinel() bool { return v.kind != notSentinel }

// String returns the version's textual form, satisfying pubgrub.Version.
func (v OpamVersion) String() string { return v.raw }

// Sort compares v against another pubgrub.Version, satisfying
// pubgrub.Version. Sentinels always sort after every real version, in the
// fixed order lhs < rhs < false < true < root; two reals compare by the
// tokenised opam order (§4.A).
func (v OpamVersion) Sort(other pubgrub.Version) int {
	o, ok := other.(OpamVersion)
	if !ok {
		return strings.Compare(v.raw, other.String())
	}
	if v.kind != notSentinel || o.kind != notSentinel {
		if v.kind == o.kind {
			return 0
		}
		if v.kind == notSentinel {
			return -1
		}
		if o.kind == notSentinel {
			return 1
		}
		return sentinelOrder[v.kind] - sentinelOrder[o.kind]
	}
	return compareTokenLists(v.tokens, o.tokens)
}

// Equal reports whether two versions compare equal: the same sentinel kind,
// or two real versions whose tokens are equal under the §4.A order (so
// "1.0" equals "1.00").
func (v OpamVersion) Equal(other OpamVersion) bool {
	return v.Sort(other) == 0
}

// versionToken is either a numeric run or a non-digit run, per the
// Debian/opam alternating tokenisation rule.
type versionToken struct {
	isNum bool
	num   uint64
	str   string
}

// tokenize splits a version string into alternating non-digit/digit
// tokens. The list always begins with a string token: if the input starts
// with a digit, an empty leading string token is inserted.
func tokenize(s string) []versionToken {
	var tokens []versionToken
	runes := []rune(s)
	if len(runes) == 0 {
		return []versionToken{{isNum: false, str: ""}}
	}
	if unicode.IsDigit(runes[0]) {
		tokens = append(tokens, versionToken{isNum: false, str: ""})
	}

	var current strings.Builder
	var currentIsDigit bool
	started := false

	flush := func() {
		if !started {
			return
		}
		if currentIsDigit {
			n, err := strconv.ParseUint(current.String(), 10, 64)
			if err != nil {
				n = 0
			}
			tokens = append(tokens, versionToken{isNum: true, num: n})
		} else {
			tokens = append(tokens, versionToken{isNum: false, str: current.String()})
		}
		current.Reset()
	}

	for _, r := range runes {
		isDigit := unicode.IsDigit(r)
		if !started {
			current.WriteRune(r)
			currentIsDigit = isDigit
			started = true
			continue
		}
		if isDigit == currentIsDigit {
			current.WriteRune(r)
			continue
		}
		flush()
		current.WriteRune(r)
		currentIsDigit = isDigit
	}
	flush()

	return tokens
}

// compareStrTokens compares two non-numeric tokens character by character:
// the tilde sorts lower than the empty continuation (so "1.0~beta" < "1.0"),
// letters sort lower than non-letters, and ties fall back to ASCII order.
func compareStrTokens(a, b string) int {
	ar, br := []rune(a), []rune(b)
	i, j := 0, 0
	for {
		switch {
		case i >= len(ar) && j >= len(br):
			return 0
		case i >= len(ar):
			if br[j] == '~' {
				return 1
			}
			return -1
		case j >= len(br):
			if ar[i] == '~' {
				return -1
			}
			return 1
		default:
			c1, c2 := ar[i], br[j]
			if c1 == c2 {
				i++
				j++
				continue
			}
			if c1 == '~' || c2 == '~' {
				if c1 == '~' {
					return -1
				}
				return 1
			}
			isLetter1, isLetter2 := unicode.IsLetter(c1), unicode.IsLetter(c2)
			if isLetter1 != isLetter2 {
				if isLetter1 {
					return -1
				}
				return 1
			}
			if c1 < c2 {
				return -1
			}
			return 1
		}
	}
}

func compareTokens(a, b versionToken) int {
	switch {
	case a.isNum && b.isNum:
		switch {
		case a.num < b.num:
			return -1
		case a.num > b.num:
			return 1
		default:
			return 0
		}
	case !a.isNum && !b.isNum:
		return compareStrTokens(a.str, b.str)
	case a.isNum && !b.isNum:
		return 1
	default:
		return -1
	}
}

// compareAgainstEmpty compares a single remaining token against the empty
// continuation, used when one token list runs out before the other (§4.A).
func compareAgainstEmpty(t versionToken, thisIsShorter bool) int {
	if t.isNum {
		if thisIsShorter {
			return -1
		}
		return 1
	}
	rel := compareStrTokens("", t.str)
	if thisIsShorter {
		return rel
	}
	return -rel
}

func compareTokenLists(a, b []versionToken) int {
	max := len(a)
	if len(b) > max {
		max = len(b)
	}
	for i := 0; i < max; i++ {
		switch {
		case i < len(a) && i < len(b):
			if c := compareTokens(a[i], b[i]); c != 0 {
				return c
			}
		case i < len(a):
			if c := compareAgainstEmpty(a[i], false); c != 0 {
				return c
			}
		default:
			if c := compareAgainstEmpty(b[i], true); c != 0 {
				return c
			}
		}
	}
	return 0
}
