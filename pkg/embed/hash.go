package embed

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
)

const hashDefaultDim = 256

var hashTokenPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)

// Hash is a deterministic local [Embedder] built on the hashing trick:
// word tokens are folded into a fixed number of buckets by FNV-1a and
// the resulting count vector is L2-normalized. It needs no network, no
// API key, and no corpus preparation, which makes it the default for
// development and tests. Quality is far below the API embedders; equal
// texts always map to equal vectors.
type Hash struct {
	dim int
}

var _ Embedder = (*Hash)(nil)

// NewHash creates a hashing embedder. Only WithDimension is honored.
func NewHash(opts ...Option) *Hash {
	cfg := newConfig("", hashDefaultDim, opts)
	if cfg.dim <= 0 {
		cfg.dim = hashDefaultDim
	}
	return &Hash{dim: cfg.dim}
}

// Embed returns the feature-hash vector for a single text. A text with
// no word tokens yields the zero vector.
func (h *Hash) Embed(_ context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyInput
	}
	vec := make([]float32, h.dim)
	for _, tok := range hashTokenPattern.FindAllString(strings.ToLower(text), -1) {
		f := fnv.New32a()
		f.Write([]byte(tok))
		sum := f.Sum32()
		idx := int(sum % uint32(h.dim))
		// The top hash bit picks the sign, which keeps unrelated texts
		// from accumulating spurious positive similarity.
		if sum&0x80000000 != 0 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}
	normalize(vec)
	return vec, nil
}

// EmbedBatch returns feature-hash vectors for multiple texts.
func (h *Hash) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}
	vecs := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := h.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		vecs[i] = v
	}
	return vecs, nil
}

// Dimension returns the configured vector dimensionality.
func (h *Hash) Dimension() int {
	return h.dim
}

// normalize scales vec to unit L2 norm in place. The zero vector is
// left unchanged.
func normalize(vec []float32) {
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
}
