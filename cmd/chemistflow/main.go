// Command chemistflow runs the ChemistFlow service: a cache-backed HTTP
// front for the Preprocessor and Engine, replicated across a gossip mesh
// of peer nodes (SPEC_FULL.md).
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
