// Package commands implements the mindharbor CLI commands.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/Imtguy97/mindharbor-bot/cmd/mindharbor/internal/config"
	"github.com/Imtguy97/mindharbor-bot/pkg/cli"
)

var (
	// Global flags
	verbose   bool
	configDir string
	dataDir   string
	outputFmt string
	outFile   string
	jqExpr    string

	// serverURL is shared by the commands that talk to a running
	// server (query, chat, user).
	serverURL string
)

var rootCmd = &cobra.Command{
	Use:   "mindharbor",
	Short: "Wellness bot over a persisted vector corpus",
	Long: `mindharbor - a small self-care companion backed by vector retrieval.

Messages are screened for crisis phrases, charged against a per-user
credit ledger, and answered with the closest wellness tips from the
corpus.

The corpus commands operate directly on the data directory:

  ingest     Add documents to the corpus
  search     Rank corpus documents against a query
  corpus     Export and import corpus snapshots (local file or s3://)

The client commands talk to a running server:

  serve      Run the HTTP and WebSocket API
  query      Run one message through the full pipeline
  chat       Interactive chat session
  user       Inspect accounts, grant tokens and passes

Configuration is stored in the OS config directory:
  macOS:   ~/Library/Application Support/mindharbor/
  Linux:   ~/.config/mindharbor/
  Windows: %AppData%\mindharbor\

Examples:
  # Build a corpus and inspect it
  mindharbor ingest -f tips.yaml
  mindharbor search "can't fall asleep" -k 5

  # Run the API and talk to it
  mindharbor serve
  mindharbor user grant-tokens maya 10
  mindharbor query -u maya "I feel anxious before meetings"
  mindharbor chat -u maya`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// Global configuration, loaded once by initConfig.
var (
	globalConfig *config.Config
	configErr    error
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "config directory (default: OS config dir)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory override")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "yaml", "output format (yaml, json, raw)")
	rootCmd.PersistentFlags().StringVar(&outFile, "out-file", "", "write results to file instead of stdout")
	rootCmd.PersistentFlags().StringVar(&jqExpr, "jq", "", "jq expression applied to results")
}

func initConfig() {
	if configDir != "" {
		globalConfig, configErr = config.LoadFrom(configDir)
	} else {
		globalConfig, configErr = config.Load()
	}
	if globalConfig != nil && dataDir != "" {
		globalConfig.DataDir = dataDir
	}
}

// GetConfig returns the loaded configuration.
func GetConfig() (*config.Config, error) {
	if globalConfig == nil && configErr == nil {
		initConfig()
	}
	if configErr != nil {
		return nil, configErr
	}
	return globalConfig, nil
}

// IsVerbose reports whether --verbose was set.
func IsVerbose() bool {
	return verbose
}

// outputResult renders a command result honoring the --output,
// --out-file, and --jq flags.
func outputResult(result any) error {
	opts := cli.OutputOptions{
		Format: cli.OutputFormat(outputFmt),
		File:   outFile,
	}
	if jqExpr != "" {
		filter, err := cli.ParseFilter(jqExpr)
		if err != nil {
			return err
		}
		opts.Filter = filter
	}
	return cli.Output(result, opts)
}

func printVerbose(format string, args ...any) {
	cli.PrintVerbose(verbose, format, args...)
}
