// Package config provides the configuration system for the mindharbor CLI.
//
// Configuration lives in the OS config directory:
//
//	~/Library/Application Support/mindharbor/   (macOS)
//	~/.config/mindharbor/                       (Linux)
//	%AppData%/mindharbor/                       (Windows)
//
// Layout:
//
//	mindharbor/
//	├── config.yaml   # server, storage, and embedder settings
//	└── data/         # default corpus and ledger location
//
// The MINDHARBOR_CONFIG_DIR environment variable overrides the
// directory, which is how tests isolate themselves.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
)

const (
	appDir      = "mindharbor"
	configFile  = "config.yaml"
	dataDirName = "data"
)

// Config holds the CLI configuration.
type Config struct {
	// Dir is the configuration directory this config was loaded from.
	Dir string `json:"-" yaml:"-"`

	// DataDir is where the corpus and ledger live. Defaults to
	// "<Dir>/data".
	DataDir string `json:"data_dir,omitempty" yaml:"data_dir,omitempty"`

	Server   Server   `json:"server" yaml:"server"`
	KV       KV       `json:"kv" yaml:"kv"`
	Embedder Embedder `json:"embedder" yaml:"embedder"`
}

// Server configures 'mindharbor serve' and the client commands.
type Server struct {
	// Addr is the HTTP listen address for 'mindharbor serve'.
	Addr string `json:"addr" yaml:"addr"`

	// URL is the base URL the client commands talk to.
	URL string `json:"url" yaml:"url"`

	// TopK is the default result count for queries.
	TopK int `json:"top_k" yaml:"top_k"`

	// CrisisRules points at a YAML phrase file replacing the built-in
	// crisis screening rules.
	CrisisRules string `json:"crisis_rules,omitempty" yaml:"crisis_rules,omitempty"`
}

// KV selects the persistence backend.
type KV struct {
	// Backend is "badger" or "sqlite".
	Backend string `json:"backend" yaml:"backend"`
}

// Embedder selects the embedding provider.
type Embedder struct {
	// Provider is "hash", "openai", or "gemini". API keys come from
	// OPENAI_API_KEY and GEMINI_API_KEY.
	Provider string `json:"provider" yaml:"provider"`

	// Model overrides the provider's default model.
	Model string `json:"model,omitempty" yaml:"model,omitempty"`

	// Dim overrides the embedding dimensionality.
	Dim int `json:"dim,omitempty" yaml:"dim,omitempty"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Server:   Server{Addr: ":8080", URL: "http://localhost:8080", TopK: 3},
		KV:       KV{Backend: "badger"},
		Embedder: Embedder{Provider: "hash"},
	}
}

// Load loads the configuration from the default location. A missing
// config file yields the defaults.
func Load() (*Config, error) {
	if dir := os.Getenv("MINDHARBOR_CONFIG_DIR"); dir != "" {
		return LoadFrom(dir)
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("cannot determine config directory: %w", err)
	}
	return LoadFrom(filepath.Join(base, appDir))
}

// LoadFrom loads the configuration rooted at dir. Values in config.yaml
// override the defaults; a missing file yields the defaults unchanged.
func LoadFrom(dir string) (*Config, error) {
	cfg := Default()
	cfg.Dir = dir

	path := filepath.Join(dir, configFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Path returns the location of the config file, which may not exist.
func (c *Config) Path() string {
	return filepath.Join(c.Dir, configFile)
}

// ResolveDataDir returns the effective data directory, creating it if
// needed.
func (c *Config) ResolveDataDir() (string, error) {
	dir := c.DataDir
	if dir == "" {
		dir = filepath.Join(c.Dir, dataDirName)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}
	return dir, nil
}
