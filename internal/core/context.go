package core

import (
	"sort"
	"sync"
)

// ResolverContext carries the two process-wide append-only caches
// (SPEC_FULL.md §5/§9) as an explicit value instead of package globals, so
// that concurrent resolutions (and concurrent test runs) never share
// state. Both maps grow monotonically: once a value is observed in a
// virtual package's universe, it is never retracted.
type ResolverContext struct {
	mu              sync.Mutex
	variables       map[string]map[string]OpamVersion
	conflictClasses map[string]map[string]string
	registry        map[string]Package
}

// NewResolverContext returns an empty context ready for a single
// resolution run.
func NewResolverContext() *ResolverContext {
	return &ResolverContext{
		variables:       make(map[string]map[string]OpamVersion),
		conflictClasses: make(map[string]map[string]string),
		registry:        make(map[string]Package),
	}
}

// RegisterPackage records the concrete Package value behind its canonical
// name, so the provider (component F) can recover a synthetic package's
// identity from the interned pubgrub.Name the solver hands it back.
func (c *ResolverContext) RegisterPackage(p Package) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.registry[p.Name()] = p
}

// LookupPackage resolves a canonical name back to the Package value that
// produced it. Returns false if the name was never registered.
func (c *ResolverContext) LookupPackage(name string) (Package, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.registry[name]
	return p, ok
}

// RecordVariableValue adds v to the universe of the named variable. Safe
// to call repeatedly with the same (name, v): the set is idempotent.
func (c *ResolverContext) RecordVariableValue(name string, v OpamVersion) {
	c.mu.Lock()
	defer c.mu.Unlock()
	set, ok := c.variables[name]
	if !ok {
		set = make(map[string]OpamVersion)
		c.variables[name] = set
	}
	set[v.String()] = v
}

// VariableUniverse returns the recorded values for a variable, or the
// default {false, true} universe (in that order) if none were ever
// recorded. The cached case is sorted by version order for a deterministic,
// stable-within-a-run iteration (§4.F requires this even though the spec
// leaves the exact order unspecified): callers must be able to call
// GetVersions for the same Var package repeatedly within one resolution and
// always see the same answer, which a map's randomised iteration would not
// guarantee.
func (c *ResolverContext) VariableUniverse(name string) []OpamVersion {
	c.mu.Lock()
	defer c.mu.Unlock()
	set, ok := c.variables[name]
	if !ok || len(set) == 0 {
		return []OpamVersion{FalseVersion(), TrueVersion()}
	}
	out := make([]OpamVersion, 0, len(set))
	for _, v := range set {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sort(out[j]) < 0 })
	return out
}

// RegisterConflictMember adds pkg to the named conflict class's
// membership set.
func (c *ResolverContext) RegisterConflictMember(class, pkg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	set, ok := c.conflictClasses[class]
	if !ok {
		set = make(map[string]string)
		c.conflictClasses[class] = set
	}
	set[pkg] = pkg
}

// ConflictClassMembers returns every package ever registered into the
// named conflict class.
func (c *ResolverContext) ConflictClassMembers(class string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	set, ok := c.conflictClasses[class]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(set))
	for _, pkg := range set {
		out = append(out, pkg)
	}
	return out
}
