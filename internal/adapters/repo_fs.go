package adapters

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"opam-resolve/internal/core"
)

// reservedVersionStrings are the sentinel spellings a real on-disk package
// version must never collide with (SPEC_FULL.md §3/§7): a manifest that
// names itself "true", "false", "lhs", "rhs", or the empty string could
// otherwise be mistaken by the solver for a virtual package's own choice.
var reservedVersionStrings = map[string]bool{
	"":      true,
	"true":  true,
	"false": true,
	"lhs":   true,
	"rhs":   true,
}

// RepoFSAdapter implements core.Repository (and ports.Repository) by
// walking a directory tree of the shape repoPath/<name>/<name>.<version>/
// opam.json (SPEC_FULL.md §3). It reads from disk on every call rather than
// caching: repositories are expected to be consulted once per (name) or
// (name, version) pair per resolution run, and a cache would risk serving a
// stale directory listing across repeated Solve calls against a changing
// repo_path.
type RepoFSAdapter struct{}

// NewRepoFSAdapter returns a RepoFSAdapter. It carries no state of its own;
// repoPath is supplied per call, as ports.Repository requires.
func NewRepoFSAdapter() *RepoFSAdapter {
	return &RepoFSAdapter{}
}

// Versions lists every version directory found under
// repoPath/<name>/<name>.*, newest first (§4.F).
func (a *RepoFSAdapter) Versions(ctx context.Context, repoPath, name string) ([]core.OpamVersion, error) {
	dir := filepath.Join(repoPath, name)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("no package directory for " + name).
			WithCause(err)
	}

	prefix := name + "."
	versions := make([]core.OpamVersion, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		raw := strings.TrimPrefix(entry.Name(), prefix)
		if reservedVersionStrings[raw] {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(name + " publishes a version reserved for internal use: " + raw)
		}
		versions = append(versions, core.RealVersion(raw))
	}
	if len(versions) == 0 {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("no versions found for " + name)
	}

	sort.Slice(versions, func(i, j int) bool { return versions[i].Sort(versions[j]) > 0 })
	return versions, nil
}

// Manifest decodes repoPath/<name>/<name>.<version>/opam.json.
func (a *RepoFSAdapter) Manifest(ctx context.Context, repoPath, name string, version core.OpamVersion) (core.Manifest, error) {
	path := filepath.Join(repoPath, name, name+"."+version.String(), "opam.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return core.Manifest{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("no manifest at " + path).
			WithCause(err)
	}
	manifest, err := core.DecodeManifest(data)
	if err != nil {
		return core.Manifest{}, err
	}
	if manifest.Name != "" && manifest.Name != name {
		return core.Manifest{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("manifest at " + path + " names package " + manifest.Name + ", expected " + name)
	}
	if manifest.Version != "" && manifest.Version != version.String() {
		return core.Manifest{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("manifest at " + path + " reports version " + manifest.Version + ", expected " + version.String())
	}
	return manifest, nil
}
