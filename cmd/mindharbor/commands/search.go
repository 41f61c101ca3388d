package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/Imtguy97/mindharbor-bot/pkg/cli"
)

var searchTopK int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Rank corpus documents against a query",
	Long: `Rank corpus documents against a query by cosine similarity.

This talks straight to the data directory, skipping the server's crisis
screening and credit ledger. Use 'mindharbor query' to exercise the
full pipeline.

Examples:
  mindharbor search "can't fall asleep"
  mindharbor search "racing thoughts" -k 5 --jq '.[].text'`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 0, "number of results (default from config)")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	k := searchTopK
	if k <= 0 {
		k = cfg.Server.TopK
	}

	start := time.Now()
	results, err := store.SimilaritySearch(ctx, args[0], k)
	if err != nil {
		return err
	}
	printVerbose("searched %d documents in %s", store.Len(), cli.FormatDuration(time.Since(start)))
	return outputResult(results)
}
