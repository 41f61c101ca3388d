// Package cli provides shared helpers for the mindharbor command-line
// tool.
//
// This package includes:
//   - Result rendering (JSON, YAML, raw) with optional jq filtering
//   - Request and document file loading (YAML/JSON, with JSON repair)
//   - Terminal chrome for the interactive chat client
//
// Example usage:
//
//	// Render a result the way the user asked for it
//	cli.Output(result, cli.OutputOptions{
//	    Format: cli.FormatJSON,
//	    File:   outputPath,
//	})
//
//	// Narrow a result with a jq expression
//	f, err := cli.ParseFilter(".matches[].text")
package cli
