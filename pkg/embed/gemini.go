package embed

import (
	"context"
	"fmt"

	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/genai"
)

// Gemini embedding models.
const (
	// ModelGeminiEmbedding supports output dimensions from 128 to 3072.
	ModelGeminiEmbedding = "gemini-embedding-001"
)

const (
	geminiMaxBatch     = 100
	geminiDefaultDim   = 768
	geminiDefaultModel = ModelGeminiEmbedding
)

// Gemini implements [Embedder] using the Google Gemini embedding API.
type Gemini struct {
	client *genai.Client
	model  string
	dim    int
}

var _ Embedder = (*Gemini)(nil)

// NewGemini creates a Gemini embedder. The context is used only for
// client construction.
func NewGemini(ctx context.Context, apiKey string, opts ...Option) (*Gemini, error) {
	cfg := newConfig(geminiDefaultModel, geminiDefaultDim, opts)

	cc := &genai.ClientConfig{
		APIKey:     apiKey,
		HTTPClient: cfg.httpClient,
	}
	if cfg.baseURL != "" {
		cc.HTTPOptions.BaseURL = cfg.baseURL
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("embed: gemini client: %w", err)
	}

	return &Gemini{
		client: client,
		model:  cfg.model,
		dim:    cfg.dim,
	}, nil
}

// Embed returns the embedding for a single text.
func (g *Gemini) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyInput
	}
	vecs, err := g.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch returns embeddings for multiple texts. Batches larger than
// the API limit are split into multiple calls transparently.
func (g *Gemini) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}
	return chunked(ctx, texts, geminiMaxBatch, g.requestVectors)
}

// Dimension returns the configured vector dimensionality.
func (g *Gemini) Dimension() int {
	return g.dim
}

// Model returns the model identifier (e.g. "gemini-embedding-001").
func (g *Gemini) Model() string {
	return g.model
}

func (g *Gemini) requestVectors(ctx context.Context, texts []string) ([][]float32, error) {
	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = genai.NewContentFromText(t, genai.RoleUser)
	}
	cfg := &genai.EmbedContentConfig{
		OutputDimensionality: genai.Ptr(int32(g.dim)),
	}

	resp, err := g.client.Models.EmbedContent(ctx, g.model, contents, cfg)
	if err != nil {
		if e, ok := err.(*apierror.APIError); ok {
			err = e.Unwrap()
		}
		return nil, err
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("got %d embeddings for %d texts", len(resp.Embeddings), len(texts))
	}
	vecs := make([][]float32, len(texts))
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, fmt.Errorf("missing embedding for index %d", i)
		}
		vecs[i] = emb.Values
	}
	return vecs, nil
}
