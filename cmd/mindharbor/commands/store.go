package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Imtguy97/mindharbor-bot/cmd/mindharbor/internal/config"
	"github.com/Imtguy97/mindharbor-bot/pkg/embed"
	"github.com/Imtguy97/mindharbor-bot/pkg/kv"
	"github.com/Imtguy97/mindharbor-bot/pkg/vecstore"
)

// openKV opens the configured persistence backend rooted in the data
// directory. The caller closes it.
func openKV(cfg *config.Config) (kv.Store, error) {
	dir, err := cfg.ResolveDataDir()
	if err != nil {
		return nil, err
	}
	opts := &kv.Options{Separator: vecstore.Separator}
	switch cfg.KV.Backend {
	case "", "badger":
		return kv.NewBadger(kv.BadgerOptions{
			Options: opts,
			Dir:     filepath.Join(dir, "kv"),
		})
	case "sqlite":
		return kv.NewSQLite(filepath.Join(dir, "mindharbor.db"), opts)
	default:
		return nil, fmt.Errorf("unknown kv backend %q (want badger or sqlite)", cfg.KV.Backend)
	}
}

// newEmbedder builds the configured embedding provider. API keys come
// from the environment, never from the config file.
func newEmbedder(ctx context.Context, cfg *config.Config) (embed.Embedder, error) {
	var opts []embed.Option
	if cfg.Embedder.Model != "" {
		opts = append(opts, embed.WithModel(cfg.Embedder.Model))
	}
	if cfg.Embedder.Dim > 0 {
		opts = append(opts, embed.WithDimension(cfg.Embedder.Dim))
	}

	switch cfg.Embedder.Provider {
	case "", "hash":
		return embed.NewHash(opts...), nil
	case "openai":
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
		return embed.NewOpenAI(key, opts...), nil
	case "gemini":
		key := os.Getenv("GEMINI_API_KEY")
		if key == "" {
			key = os.Getenv("GOOGLE_API_KEY")
		}
		if key == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for the gemini provider")
		}
		return embed.NewGemini(ctx, key, opts...)
	default:
		return nil, fmt.Errorf("unknown embedder provider %q (want hash, openai, or gemini)", cfg.Embedder.Provider)
	}
}

// openStore opens the vector store over the configured backend. The
// returned closer releases the backend handle.
func openStore(ctx context.Context, cfg *config.Config) (*vecstore.Store, func() error, error) {
	kvs, err := openKV(cfg)
	if err != nil {
		return nil, nil, err
	}
	emb, err := newEmbedder(ctx, cfg)
	if err != nil {
		kvs.Close()
		return nil, nil, err
	}
	store, err := vecstore.New(vecstore.Config{KV: kvs, Embedder: emb})
	if err != nil {
		kvs.Close()
		return nil, nil, err
	}
	return store, kvs.Close, nil
}
