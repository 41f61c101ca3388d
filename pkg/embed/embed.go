// Package embed converts text into dense float32 vectors for the
// MindHarbor similarity store.
//
// # Implementations
//
//   - [OpenAI] — OpenAI text-embedding-3-small / text-embedding-3-large,
//     also usable with any OpenAI-compatible provider via WithBaseURL
//   - [Gemini] — Google gemini-embedding-001
//   - [Hash] — deterministic local feature-hashing vectorizer, no network;
//     the default for development and tests
//
// # Quick Start
//
//	e := embed.NewOpenAI("sk-xxx", embed.WithDimension(1536))
//	vec, err := e.Embed(ctx, "how do I handle panic attacks")
//
//	vecs, err := e.EmbedBatch(ctx, []string{"breathing", "grounding"})
package embed

import (
	"context"
	"errors"
	"fmt"
)

// Embedder converts text into dense float32 vectors. Implementations
// are deterministic for a fixed model configuration and always produce
// vectors of Dimension() length.
type Embedder interface {
	// Embed returns the embedding vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns embedding vectors for multiple texts, in input
	// order. Implementations may split large batches into smaller API
	// calls transparently.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the dimensionality of the output vectors.
	Dimension() int
}

// ErrEmptyInput is returned when the input text or batch is empty.
var ErrEmptyInput = errors.New("embed: empty input")

// chunked fills one result slot per text by calling request on
// consecutive sub-batches of at most size texts. Corpus ingestion can
// hand over more documents than a provider accepts per request, so the
// API embedders all batch through here.
func chunked(ctx context.Context, texts []string, size int, request func(context.Context, []string) ([][]float32, error)) ([][]float32, error) {
	result := make([][]float32, len(texts))
	for i := 0; i < len(texts); i += size {
		end := min(i+size, len(texts))
		vecs, err := request(ctx, texts[i:end])
		if err != nil {
			return nil, fmt.Errorf("embed batch [%d:%d]: %w", i, end, err)
		}
		copy(result[i:], vecs)
	}
	return result, nil
}
