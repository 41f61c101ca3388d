// Package vecstore provides the persisted vector similarity store at the
// heart of MindHarbor retrieval.
//
// A [Store] owns the mapping from document id to (text, vector). Writes
// go to both an in-memory cache and a durable [kv.Store]; queries embed
// the query text, lazily hydrate the cache from storage on first use,
// and rank every cached record by cosine similarity.
//
// The design is deliberately exhaustive: no approximate index, no
// eviction, one flat scan per query. That is the right trade for the
// corpus sizes MindHarbor serves (hundreds to low thousands of
// documents); past that, the linear scan is the first thing to replace.
package vecstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/Imtguy97/mindharbor-bot/pkg/embed"
	"github.com/Imtguy97/mindharbor-bot/pkg/kv"
)

// Sentinel errors.
var (
	// ErrClosed is returned when a persistence operation is attempted
	// after Close. Queries over already-cached data keep working.
	ErrClosed = errors.New("vecstore: store is closed")

	// ErrIDCountMismatch is returned by AddTexts when explicit ids are
	// provided but their count differs from the text count.
	ErrIDCountMismatch = errors.New("vecstore: number of ids must match number of texts")
)

// Separator is the key separator the store's own storage uses. 0x1F
// (unit separator) cannot appear in normal text, so document ids may
// freely contain ':'.
const Separator byte = 0x1F

const (
	defaultPrefix = "mh"
	docKeyspace   = "doc"
)

// Record is one stored document: its id, source text, and embedding.
type Record struct {
	// ID is unique across the store. Re-ingesting an id replaces the
	// prior record, text and vector both.
	ID string `json:"id" msgpack:"id"`

	// Text is the original content the vector was computed from.
	Text string `json:"text" msgpack:"text"`

	// Vector is the embedding, fixed length per store instance.
	Vector []float32 `json:"vector" msgpack:"vector"`
}

// Result is a single similarity match returned by SimilaritySearch.
type Result struct {
	// Text is the matched document's content.
	Text string `json:"text"`

	// Score is the cosine similarity to the query, higher is closer.
	Score float32 `json:"score"`
}

// Config assembles a Store from injected collaborators.
type Config struct {
	// KV is the durable storage handle. Required. The store does not
	// close an injected handle; the caller that opened it owns it.
	// Use a key separator that cannot appear in document ids.
	KV kv.Store

	// Embedder produces the vectors. Required. One store instance must
	// stick to one embedder configuration; mixing models invalidates
	// every similarity comparison.
	Embedder embed.Embedder

	// Prefix namespaces this store's keys inside KV so it can share a
	// handle with other components. Defaults to "mh".
	Prefix string

	// Logger receives skip reports for undecodable records during
	// hydration. Defaults to slog.Default().
	Logger *slog.Logger
}

// Store is a persisted vector similarity store. It is safe for
// concurrent use; AddTexts and SimilaritySearch are mutually exclusive
// with respect to cache mutation.
type Store struct {
	mu     sync.RWMutex
	docs   map[string]Record
	closed bool

	kv     kv.Store
	ownsKV bool
	emb    embed.Embedder
	prefix string
	log    *slog.Logger
}

// New creates a Store over injected collaborators. Close does not
// release cfg.KV; use Open when the store should own its storage.
func New(cfg Config) (*Store, error) {
	if cfg.KV == nil {
		return nil, errors.New("vecstore: Config.KV is required")
	}
	if cfg.Embedder == nil {
		return nil, errors.New("vecstore: Config.Embedder is required")
	}
	if cfg.Prefix == "" {
		cfg.Prefix = defaultPrefix
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Store{
		docs:   make(map[string]Record),
		kv:     cfg.KV,
		emb:    cfg.Embedder,
		prefix: cfg.Prefix,
		log:    cfg.Logger,
	}, nil
}

// Open creates a Store with its own BadgerDB storage under dir,
// creating the directory if needed. The returned store owns the
// storage handle and releases it on Close.
func Open(dir string, e embed.Embedder) (*Store, error) {
	kvs, err := kv.NewBadger(kv.BadgerOptions{
		Dir:     dir,
		Options: &kv.Options{Separator: Separator},
	})
	if err != nil {
		return nil, fmt.Errorf("vecstore: open storage: %w", err)
	}
	s, err := New(Config{KV: kvs, Embedder: e})
	if err != nil {
		kvs.Close()
		return nil, err
	}
	s.ownsKV = true
	return s, nil
}

// AddTexts embeds texts with one batched provider call and upserts the
// resulting records into the cache and durable storage. It returns the
// ids used, in input order.
//
// When ids is nil, ids default to "doc_{i}" by position within this
// batch. The default restarts at doc_0 for every call, so two calls
// that both omit ids overwrite each other's records; pass explicit ids
// to ingest incrementally.
func (s *Store) AddTexts(ctx context.Context, texts []string, ids []string) ([]string, error) {
	if ids != nil && len(ids) != len(texts) {
		return nil, fmt.Errorf("%w: %d ids for %d texts", ErrIDCountMismatch, len(ids), len(texts))
	}
	if len(texts) == 0 {
		return []string{}, nil
	}
	if ids == nil {
		ids = make([]string, len(texts))
		for i := range texts {
			ids[i] = fmt.Sprintf("doc_%d", i)
		}
	}

	vecs, err := s.emb.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("vecstore: embed batch: %w", err)
	}

	recs := make([]Record, len(texts))
	entries := make([]kv.Entry, len(texts))
	for i := range texts {
		rec := Record{ID: ids[i], Text: texts[i], Vector: vecs[i]}
		data, err := msgpack.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("vecstore: encode record %q: %w", rec.ID, err)
		}
		recs[i] = rec
		entries[i] = kv.Entry{Key: s.docKey(rec.ID), Value: data}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	for _, rec := range recs {
		s.docs[rec.ID] = rec
	}
	if err := s.kv.BatchSet(ctx, entries); err != nil {
		// Cache entries stay; the records are real, just not durable.
		// Re-ingestion after recovery is idempotent.
		return nil, fmt.Errorf("vecstore: persist batch: %w", err)
	}
	return ids, nil
}

// SimilaritySearch embeds the query, hydrates the cache from storage if
// it is empty, and returns the top k records by cosine similarity,
// highest first. Ties keep the candidate iteration order, which is
// unspecified. Fewer than k results are returned when fewer records
// exist; k <= 0 or a never-populated store yields an empty result.
func (s *Store) SimilaritySearch(ctx context.Context, query string, k int) ([]Result, error) {
	if k <= 0 {
		return []Result{}, nil
	}

	q, err := s.emb.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("vecstore: embed query: %w", err)
	}

	if err := s.hydrate(ctx); err != nil {
		return nil, err
	}

	type scored struct {
		rec   Record
		score float32
	}
	s.mu.RLock()
	results := make([]scored, 0, len(s.docs))
	for _, rec := range s.docs {
		results = append(results, scored{rec: rec, score: cosineSimilarity(q, rec.Vector)})
	}
	s.mu.RUnlock()

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})
	if len(results) > k {
		results = results[:k]
	}

	out := make([]Result, len(results))
	for i, r := range results {
		out[i] = Result{Text: r.rec.Text, Score: r.score}
	}
	return out, nil
}

// Len returns the number of cached records. It does not count durable
// records that have not been hydrated yet.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Close releases the storage handle if this store owns it. The cache
// survives: searches over already-cached data keep working, while
// AddTexts and cold-cache searches fail with ErrClosed. Close is
// idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.ownsKV {
		return s.kv.Close()
	}
	return nil
}

// hydrate populates the cache with every durable record when the cache
// is empty. Records whose blobs do not decode are skipped and reported,
// never fatal; kv-level errors abort the load.
func (s *Store) hydrate(ctx context.Context) error {
	s.mu.RLock()
	n, closed := len(s.docs), s.closed
	s.mu.RUnlock()
	if n > 0 {
		return nil
	}
	if closed {
		return ErrClosed
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.docs) > 0 {
		return nil
	}
	if s.closed {
		return ErrClosed
	}

	for entry, err := range s.kv.List(ctx, kv.Key{s.prefix, docKeyspace}) {
		if err != nil {
			return fmt.Errorf("vecstore: load: %w", err)
		}
		var rec Record
		if err := msgpack.Unmarshal(entry.Value, &rec); err != nil {
			s.log.Warn("vecstore: skipping undecodable record",
				"key", entry.Key.String(), "error", err)
			continue
		}
		if rec.ID == "" {
			s.log.Warn("vecstore: skipping record with empty id",
				"key", entry.Key.String())
			continue
		}
		s.docs[rec.ID] = rec
	}
	return nil
}

func (s *Store) docKey(id string) kv.Key {
	return kv.Key{s.prefix, docKeyspace, id}
}

// cosineSimilarity returns dot(a,b) / (‖a‖·‖b‖ + 1e-8). The epsilon in
// the denominator keeps degenerate all-zero vectors at score zero
// instead of dividing by zero. Vectors of unequal length rank last.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return -1
	}
	var dot, normA, normB float64
	for i := range a {
		ai, bi := float64(a[i]), float64(b[i])
		dot += ai * bi
		normA += ai * ai
		normB += bi * bi
	}
	return float32(dot / (math.Sqrt(normA)*math.Sqrt(normB) + 1e-8))
}
