package app

import (
	"time"

	"opam-resolve/internal/ports"
)

// Service is the orchestration layer between the CLI and the resolution
// core: it owns the repository collaborator and the wall clock, and turns
// CLI-shaped requests into core.Solve calls (SPEC_FULL.md §6).
type Service struct {
	Repo  ports.Repository
	Clock func() time.Time
}

// NewService wires a Service around repo, the repository adapter the
// caller has already constructed (the reference CLI uses
// adapters.NewRepoFSAdapter()).
func NewService(repo ports.Repository) Service {
	return Service{Repo: repo, Clock: time.Now}
}
