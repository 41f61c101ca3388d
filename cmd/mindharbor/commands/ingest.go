package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Imtguy97/mindharbor-bot/pkg/cli"
)

var (
	ingestFile string
	ingestIDs  []string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [text...]",
	Short: "Add documents to the corpus",
	Long: `Add documents to the corpus.

Texts come from positional arguments, from a request file (YAML or JSON
with a "texts" list and an optional "ids" list), or from a plain .txt
file with one document per line. The whole batch goes to the embedding
provider in a single call.

Without explicit ids, documents are keyed doc_0, doc_1, ... by position
within the batch. The numbering restarts for every invocation, so
repeated ingests without ids overwrite each other; pass --ids or use a
request file to grow a corpus incrementally.

Examples:
  mindharbor ingest "box breathing calms the body"
  mindharbor ingest "tip one" "tip two" --ids breathing,sleep
  mindharbor ingest -f tips.yaml
  mindharbor ingest -f tips.txt
  cat tips.json | mindharbor ingest -f -`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestFile, "file", "f", "", "request file (.yaml, .json, or .txt; - for stdin)")
	ingestCmd.Flags().StringSliceVar(&ingestIDs, "ids", nil, "document ids, one per text")
	rootCmd.AddCommand(ingestCmd)
}

// ingestSpec is the request file shape.
type ingestSpec struct {
	Texts []string `json:"texts" yaml:"texts"`
	IDs   []string `json:"ids,omitempty" yaml:"ids,omitempty"`
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}

	texts, ids := args, ingestIDs
	if ingestFile != "" {
		if len(args) > 0 {
			return fmt.Errorf("pass texts as arguments or with --file, not both")
		}
		texts, ids, err = loadIngestFile(ingestFile, ids)
		if err != nil {
			return err
		}
	}
	if len(texts) == 0 {
		return fmt.Errorf("nothing to ingest: pass texts as arguments or with --file")
	}
	if len(ids) > 0 && len(ids) != len(texts) {
		return fmt.Errorf("%d ids for %d texts", len(ids), len(texts))
	}

	ctx := cmd.Context()
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	start := time.Now()
	var idArg []string
	if len(ids) > 0 {
		idArg = ids
	}
	stored, err := store.AddTexts(ctx, texts, idArg)
	if err != nil {
		return err
	}

	cli.PrintSuccess("Ingested %d documents in %s", len(stored), cli.FormatDuration(time.Since(start)))
	printVerbose("ids: %s", strings.Join(stored, ", "))
	return nil
}

// loadIngestFile reads texts and ids from a request file. A .txt file
// holds one document per line; anything else parses as YAML or JSON.
// "-" reads a request from stdin. Explicit --ids win over ids from the
// file.
func loadIngestFile(path string, flagIDs []string) ([]string, []string, error) {
	if path == "-" {
		var spec ingestSpec
		if err := cli.LoadRequestFromStdin(&spec); err != nil {
			return nil, nil, err
		}
		ids := spec.IDs
		if len(flagIDs) > 0 {
			ids = flagIDs
		}
		return spec.Texts, ids, nil
	}

	if filepath.Ext(path) == ".txt" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("read %s: %w", path, err)
		}
		var texts []string
		for _, line := range strings.Split(string(data), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				texts = append(texts, line)
			}
		}
		return texts, flagIDs, nil
	}

	var spec ingestSpec
	if err := cli.LoadRequest(path, &spec); err != nil {
		return nil, nil, err
	}
	ids := spec.IDs
	if len(flagIDs) > 0 {
		ids = flagIDs
	}
	return spec.Texts, ids, nil
}
