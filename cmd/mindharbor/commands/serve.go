package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Imtguy97/mindharbor-bot/pkg/crisis"
	"github.com/Imtguy97/mindharbor-bot/pkg/ledger"
	"github.com/Imtguy97/mindharbor-bot/pkg/server"
	"github.com/Imtguy97/mindharbor-bot/pkg/vecstore"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and WebSocket API",
	Long: `Run the HTTP and WebSocket API.

The server answers /query over HTTP and /chat over WebSocket, manages
user accounts, and ingests documents on /ingest. It holds the data
directory open for its lifetime, so corpus commands cannot run against
the same badger data directory while it is up.

Examples:
  mindharbor serve
  mindharbor serve --addr :9090`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}

	logLevel := slog.LevelInfo
	if IsVerbose() {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("shutting down...")
		cancel()
	}()

	kvs, err := openKV(cfg)
	if err != nil {
		return err
	}
	defer kvs.Close()

	emb, err := newEmbedder(ctx, cfg)
	if err != nil {
		return err
	}
	store, err := vecstore.New(vecstore.Config{KV: kvs, Embedder: emb})
	if err != nil {
		return err
	}
	led, err := ledger.New(ledger.Config{KV: kvs})
	if err != nil {
		return err
	}

	det := crisis.Default()
	if cfg.Server.CrisisRules != "" {
		det, err = crisis.Load(cfg.Server.CrisisRules)
		if err != nil {
			return fmt.Errorf("load crisis rules: %w", err)
		}
	}

	srv, err := server.New(server.Config{
		Store:    store,
		Ledger:   led,
		Detector: det,
		TopK:     cfg.Server.TopK,
	})
	if err != nil {
		return err
	}

	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}
	return srv.Run(ctx, addr)
}
