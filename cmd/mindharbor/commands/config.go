package commands

import (
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Show the effective configuration: built-in defaults merged with
config.yaml and the command-line overrides.

Examples:
  mindharbor config
  mindharbor config --jq .kv.backend`,
	RunE: runConfigShow,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}
	printVerbose("config file: %s", cfg.Path())
	return outputResult(cfg)
}
