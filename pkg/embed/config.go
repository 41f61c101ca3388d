package embed

import "net/http"

// config collects the knobs shared by every embedder. Each provider
// seeds it with its own defaults through newConfig.
type config struct {
	model      string
	dim        int
	baseURL    string
	httpClient *http.Client
}

func newConfig(model string, dim int, opts []Option) config {
	cfg := config{
		model:      model,
		dim:        dim,
		httpClient: http.DefaultClient,
	}
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}

// Option configures an embedder.
type Option func(*config)

// WithModel overrides the provider's default model.
func WithModel(model string) Option {
	return func(c *config) { c.model = model }
}

// WithDimension sets the output vector length. OpenAI and Gemini
// shorten server-side; Hash allocates exactly this many buckets.
func WithDimension(dim int) Option {
	return func(c *config) { c.dim = dim }
}

// WithBaseURL points the provider at a different endpoint, such as an
// OpenAI-compatible gateway or a test server.
func WithBaseURL(url string) Option {
	return func(c *config) { c.baseURL = url }
}

// WithHTTPClient substitutes the HTTP transport, mainly for tests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *config) { c.httpClient = client }
}
