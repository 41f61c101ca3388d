package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"
)

// OutputFormat selects how a command result is rendered.
type OutputFormat string

const (
	// FormatYAML renders YAML, the default for terminals.
	FormatYAML OutputFormat = "yaml"
	// FormatJSON renders indented JSON.
	FormatJSON OutputFormat = "json"
	// FormatRaw writes strings and byte slices untouched.
	FormatRaw OutputFormat = "raw"
)

// OutputOptions controls where and how Output renders a result.
type OutputOptions struct {
	// Format selects the rendering. Empty means YAML.
	Format OutputFormat

	// File receives the rendered result instead of stdout.
	File string

	// Indent overrides the two-space JSON indentation.
	Indent string

	// Filter is a jq expression applied to the result before rendering.
	Filter *Filter

	// Writer, when set, takes precedence over File and stdout.
	Writer io.Writer
}

// Output renders result to the destination opts selects. Every command
// routes its result through here so -o, --out-file and --jq behave the
// same across the whole tool.
func Output(result any, opts OutputOptions) error {
	// Filter before touching the destination so a failing jq
	// expression never truncates an existing output file.
	if opts.Filter != nil {
		filtered, err := opts.Filter.Apply(result)
		if err != nil {
			return err
		}
		result = filtered
	}

	w := opts.Writer
	if w == nil && opts.File != "" {
		f, err := os.Create(opts.File)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}
	if w == nil {
		w = os.Stdout
	}

	switch opts.Format {
	case FormatYAML, "":
		return renderYAML(w, result)
	case FormatJSON:
		return renderJSON(w, result, opts.Indent)
	case FormatRaw:
		return renderRaw(w, result)
	default:
		return fmt.Errorf("unsupported output format: %s", opts.Format)
	}
}

func renderYAML(w io.Writer, result any) error {
	data, err := yaml.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	_, err = w.Write(data)
	return err
}

func renderJSON(w io.Writer, result any, indent string) error {
	if indent == "" {
		indent = "  "
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", indent)
	return enc.Encode(result)
}

func renderRaw(w io.Writer, result any) error {
	var data []byte
	switch v := result.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		// Structured results have no raw form.
		return renderYAML(w, result)
	}
	_, err := w.Write(data)
	return err
}

// Status lines for humans. Command results go through Output; these
// cover the progress chatter around them.

// PrintSuccess prints a checkmarked status line to stdout.
func PrintSuccess(format string, args ...any) {
	fmt.Printf("✓ "+format+"\n", args...)
}

// PrintVerbose prints a diagnostic line to stderr when verbose is set.
func PrintVerbose(verbose bool, format string, args ...any) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[verbose] "+format+"\n", args...)
	}
}
