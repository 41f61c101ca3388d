package commands

import (
	"github.com/spf13/cobra"
)

var (
	queryUser string
	queryTopK int
)

var queryCmd = &cobra.Command{
	Use:   "query <message>",
	Short: "Run one message through a running server",
	Long: `Run one message through the full pipeline of a running server:
crisis screening, credit spend, then similarity search.

Examples:
  mindharbor query -u maya "I feel anxious before meetings"
  mindharbor query -u maya "racing thoughts" -k 5 --jq '.matches[0].text'`,
	Args: cobra.ExactArgs(1),
	RunE: runQueryCmd,
}

func init() {
	queryCmd.Flags().StringVarP(&queryUser, "user", "u", "", "user id (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of matches (default: server setting)")
	queryCmd.Flags().StringVar(&serverURL, "server", "", "server base URL (default from config)")
	queryCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(queryCmd)
}

func runQueryCmd(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}
	client := newAPIClient(cfg)

	body := map[string]any{
		"user_id": queryUser,
		"message": args[0],
	}
	if queryTopK > 0 {
		body["k"] = queryTopK
	}

	var result queryResult
	if err := client.postJSON(cmd.Context(), "/query", body, &result); err != nil {
		return err
	}
	return outputResult(result)
}
