package commands

import (
	"fmt"
	"net/url"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

var chatUser string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive chat session against a running server",
	Long: `Open an interactive chat session over the server's WebSocket
endpoint. Every message runs through crisis screening and the credit
ledger, exactly like /query.

Examples:
  mindharbor chat -u maya
  mindharbor chat -u maya --server http://harbor.internal:8080`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatUser, "user", "u", "", "user id (required)")
	chatCmd.Flags().StringVar(&serverURL, "server", "", "server base URL (default from config)")
	chatCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}

	base := serverURL
	if base == "" {
		base = cfg.Server.URL
	}
	if base == "" {
		base = "http://localhost:8080"
	}
	wsURL, err := chatSocketURL(base)
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(cmd.Context(), wsURL, nil)
	if err != nil {
		return fmt.Errorf("connect %s: %w", wsURL, err)
	}
	defer conn.Close()

	p := tea.NewProgram(newChatModel(chatUser, conn), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

// chatSocketURL turns a server base URL into the websocket endpoint.
func chatSocketURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid server URL %q: %w", base, err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("invalid server URL %q: unsupported scheme", base)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/chat"
	return u.String(), nil
}
