package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Imtguy97/mindharbor-bot/cmd/mindharbor/internal/config"
)

// apiClient is a thin JSON client for commands that talk to a running
// server.
type apiClient struct {
	base string
	http *http.Client
}

func newAPIClient(cfg *config.Config) *apiClient {
	base := serverURL
	if base == "" {
		base = cfg.Server.URL
	}
	if base == "" {
		base = "http://localhost:8080"
	}
	return &apiClient{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *apiClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *apiClient) postJSON(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *apiClient) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", c.base, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server: %s", apiErr.Error)
		}
		return fmt.Errorf("server: %s", resp.Status)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// queryResult mirrors the server's /query response.
type queryResult struct {
	Status          string        `json:"status" yaml:"status"`
	Response        string        `json:"response,omitempty" yaml:"response,omitempty"`
	Matches         []matchResult `json:"matches,omitempty" yaml:"matches,omitempty"`
	TokensRemaining *int          `json:"tokens_remaining,omitempty" yaml:"tokens_remaining,omitempty"`
	RequestID       string        `json:"request_id,omitempty" yaml:"request_id,omitempty"`
	Took            string        `json:"took,omitempty" yaml:"took,omitempty"`
}

type matchResult struct {
	Text  string  `json:"text" yaml:"text"`
	Score float32 `json:"score" yaml:"score"`
}

// userResult mirrors the server's account responses.
type userResult struct {
	UserID          string `json:"user_id" yaml:"user_id"`
	TokensRemaining int    `json:"tokens_remaining" yaml:"tokens_remaining"`
	PassExpiry      *int64 `json:"pass_expiry" yaml:"pass_expiry"`
	PassValid       bool   `json:"pass_valid" yaml:"pass_valid"`
}
