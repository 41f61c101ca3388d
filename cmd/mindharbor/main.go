// Package main is the entry point for the mindharbor CLI tool.
//
// mindharbor runs a small wellness-bot API over a persisted vector
// corpus and manages that corpus from the command line.
//
// Commands:
//   - serve: run the HTTP and WebSocket API
//   - ingest: add documents to the corpus
//   - search: rank corpus documents against a query
//   - corpus: export and import corpus snapshots
//   - query: run one message through a running server
//   - chat: interactive chat session against a running server
//   - user: inspect accounts, grant tokens and passes
//   - config: show the effective configuration
//   - version: show version information
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/Imtguy97/mindharbor-bot/cmd/mindharbor/commands"
)

func main() {
	// Provider API keys may live in a local .env during development.
	_ = godotenv.Load()

	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
