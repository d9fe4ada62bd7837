// Command opam-resolve resolves opam-style package constraints against a
// filesystem repository using a PubGrub solver.
package main

import "opam-resolve/internal/cli"

func main() {
	cli.Execute()
}
