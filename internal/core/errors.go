package core

import (
	"errors"

	"github.com/contriboss/pubgrub-go"
)

// AsNoSolutionError unwraps a Solve error into the solver's derivation
// report, if that's what it is. Keeping errors.As here means callers
// outside this package never need to import pubgrub directly just to
// recognise a non-fatal "no solution" outcome (SPEC_FULL.md §6/§7).
func AsNoSolutionError(err error) (*pubgrub.NoSolutionError, bool) {
	var noSolution *pubgrub.NoSolutionError
	ok := errors.As(err, &noSolution)
	return noSolution, ok
}
