package ports

import (
	"context"

	"opam-resolve/internal/core"
)

// Repository is the repository-walking collaborator the core's dependency
// provider consumes (SPEC_FULL.md §6). Its method set matches core.Repository
// structurally, so any value satisfying this interface also satisfies the
// core package's own local declaration without core importing ports.
type Repository interface {
	// Versions lists every version of name available under repoPath, in
	// descending order (newest first).
	Versions(ctx context.Context, repoPath, name string) ([]core.OpamVersion, error)
	// Manifest decodes the opam.json for (name, version) under repoPath.
	Manifest(ctx context.Context, repoPath, name string, version core.OpamVersion) (core.Manifest, error)
}
