package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "chemistflow",
	Short: "ChemistFlow caches and fans reaction compute requests out to the Engine",
	Long: `ChemistFlow sits between clients and two upstreams, the Preprocessor
(source of truth for reactions and mechanisms) and the Engine (thermodynamic
compute). It presents a two-tier cache, a per-node local TTL tier backed by a
cluster-replicated last-write-wins tier, and fans a reaction's conditions out
to the Engine in parallel.

Run "chemistflow serve" to start the HTTP server.`,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
