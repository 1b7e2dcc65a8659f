// Command raggify is the entry point for the raggify retrieval service.
// It provides a CLI interface (via Cobra) and an HTTP server exposing
// ingestion and cross-modal retrieval over a configurable set of vector
// stores.
package main

import (
	"fmt"
	"os"

	"github.com/raggify/raggify-go/cmd/raggify/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
