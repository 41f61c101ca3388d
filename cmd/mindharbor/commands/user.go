package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Inspect accounts, grant tokens and passes",
	Long: `Inspect user accounts and grant credits through a running server.

Accounts are created on first contact, so granting to an unknown id
creates it.

Examples:
  mindharbor user status maya
  mindharbor user grant-tokens maya 10
  mindharbor user grant-pass maya 30`,
}

var userStatusCmd = &cobra.Command{
	Use:   "status <id>",
	Short: "Show an account's balance and pass",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserStatus,
}

var userGrantTokensCmd = &cobra.Command{
	Use:   "grant-tokens <id> <amount>",
	Short: "Add message tokens to an account",
	Args:  cobra.ExactArgs(2),
	RunE:  runUserGrantTokens,
}

var userGrantPassCmd = &cobra.Command{
	Use:   "grant-pass <id> <days>",
	Short: "Grant an unlimited access pass",
	Long: `Grant an unlimited access pass lasting the given number of days.

Passes replace rather than stack: a new grant sets the expiry to now
plus the given days, whatever the previous expiry was.`,
	Args: cobra.ExactArgs(2),
	RunE: runUserGrantPass,
}

func init() {
	userCmd.PersistentFlags().StringVar(&serverURL, "server", "", "server base URL (default from config)")
	userCmd.AddCommand(userStatusCmd)
	userCmd.AddCommand(userGrantTokensCmd)
	userCmd.AddCommand(userGrantPassCmd)
	rootCmd.AddCommand(userCmd)
}

func runUserStatus(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}
	client := newAPIClient(cfg)

	var result userResult
	if err := client.getJSON(cmd.Context(), "/user/"+args[0], &result); err != nil {
		return err
	}
	return outputResult(result)
}

func runUserGrantTokens(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}
	amount, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid amount %q", args[1])
	}
	client := newAPIClient(cfg)

	var result userResult
	err = client.postJSON(cmd.Context(), "/user/"+args[0]+"/tokens", map[string]int{"amount": amount}, &result)
	if err != nil {
		return err
	}
	return outputResult(result)
}

func runUserGrantPass(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}
	days, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid days %q", args[1])
	}
	client := newAPIClient(cfg)

	var result userResult
	err = client.postJSON(cmd.Context(), "/user/"+args[0]+"/pass", map[string]int{"days": days}, &result)
	if err != nil {
		return err
	}
	return outputResult(result)
}
