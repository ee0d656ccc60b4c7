// Command ghillie is the operator-facing entry point for the estate
// catalogue importer, registry synchroniser, and reporting orchestrator.
//
// Follows a thin main.go delegating to an Execute function, adapted to
// a single-binary cobra tree since Ghillie has no remote API client to
// generate.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
