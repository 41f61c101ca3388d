package vecstore

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/Imtguy97/mindharbor-bot/pkg/encoding"
	"github.com/Imtguy97/mindharbor-bot/pkg/kv"
)

// Snapshot format: one JSON object per line. The first line is a header
// carrying the format version; every following line is one record with
// its vector as base64 little-endian float32, which round-trips
// bit-exactly and keeps the file diffable.
const snapshotFormat = "mindharbor-corpus"

const snapshotVersion = 1

type snapshotHeader struct {
	Format  string `json:"format"`
	Version int    `json:"version"`
	Count   int    `json:"count"`
}

type snapshotLine struct {
	ID     string              `json:"id"`
	Text   string              `json:"text"`
	Vector encoding.Base64Data `json:"vector"`
}

// WriteSnapshot hydrates the cache and writes every record to w in the
// corpus snapshot format. Records are written in id order so repeated
// exports of the same corpus are byte-identical.
func (s *Store) WriteSnapshot(ctx context.Context, w io.Writer) error {
	if err := s.hydrate(ctx); err != nil {
		return err
	}

	s.mu.RLock()
	recs := make([]Record, 0, len(s.docs))
	for _, rec := range s.docs {
		recs = append(recs, rec)
	}
	s.mu.RUnlock()
	sort.Slice(recs, func(i, j int) bool { return recs[i].ID < recs[j].ID })

	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	if err := enc.Encode(snapshotHeader{
		Format:  snapshotFormat,
		Version: snapshotVersion,
		Count:   len(recs),
	}); err != nil {
		return fmt.Errorf("vecstore: write snapshot header: %w", err)
	}
	for _, rec := range recs {
		line := snapshotLine{
			ID:     rec.ID,
			Text:   rec.Text,
			Vector: vectorToBytes(rec.Vector),
		}
		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("vecstore: write snapshot record %q: %w", rec.ID, err)
		}
	}
	return bw.Flush()
}

// ReadSnapshot parses a corpus snapshot from r.
func ReadSnapshot(r io.Reader) ([]Record, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("vecstore: read snapshot header: %w", err)
		}
		return nil, fmt.Errorf("vecstore: snapshot is empty")
	}
	var hdr snapshotHeader
	if err := json.Unmarshal(sc.Bytes(), &hdr); err != nil {
		return nil, fmt.Errorf("vecstore: parse snapshot header: %w", err)
	}
	if hdr.Format != snapshotFormat {
		return nil, fmt.Errorf("vecstore: unexpected snapshot format %q", hdr.Format)
	}
	if hdr.Version != snapshotVersion {
		return nil, fmt.Errorf("vecstore: unsupported snapshot version %d (want %d)", hdr.Version, snapshotVersion)
	}

	var recs []Record
	for lineNo := 2; sc.Scan(); lineNo++ {
		if len(sc.Bytes()) == 0 {
			continue
		}
		var line snapshotLine
		if err := json.Unmarshal(sc.Bytes(), &line); err != nil {
			return nil, fmt.Errorf("vecstore: parse snapshot line %d: %w", lineNo, err)
		}
		if line.ID == "" {
			return nil, fmt.Errorf("vecstore: snapshot line %d has empty id", lineNo)
		}
		vec, err := bytesToVector(line.Vector)
		if err != nil {
			return nil, fmt.Errorf("vecstore: snapshot line %d: %w", lineNo, err)
		}
		recs = append(recs, Record{ID: line.ID, Text: line.Text, Vector: vec})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("vecstore: read snapshot: %w", err)
	}
	return recs, nil
}

// AddRecords upserts pre-embedded records into the cache and durable
// storage, last-write-wins per id. Vectors are carried verbatim; no
// embedding call is made. Used by snapshot import.
func (s *Store) AddRecords(ctx context.Context, recs []Record) error {
	if len(recs) == 0 {
		return nil
	}
	entries := make([]kv.Entry, len(recs))
	for i, rec := range recs {
		if rec.ID == "" {
			return fmt.Errorf("vecstore: record %d has empty id", i)
		}
		data, err := msgpack.Marshal(rec)
		if err != nil {
			return fmt.Errorf("vecstore: encode record %q: %w", rec.ID, err)
		}
		entries[i] = kv.Entry{Key: s.docKey(rec.ID), Value: data}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	for _, rec := range recs {
		s.docs[rec.ID] = rec
	}
	if err := s.kv.BatchSet(ctx, entries); err != nil {
		return fmt.Errorf("vecstore: persist batch: %w", err)
	}
	return nil
}

// ImportSnapshot reads a corpus snapshot from r and upserts its records,
// returning the number imported.
func (s *Store) ImportSnapshot(ctx context.Context, r io.Reader) (int, error) {
	recs, err := ReadSnapshot(r)
	if err != nil {
		return 0, err
	}
	if err := s.AddRecords(ctx, recs); err != nil {
		return 0, err
	}
	return len(recs), nil
}

// vectorToBytes encodes a float32 vector as little-endian bytes, four
// bytes per component.
func vectorToBytes(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// bytesToVector decodes little-endian float32 bytes; the component
// count comes from the blob size.
func bytesToVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of 4", len(b))
	}
	vec := make([]float32, len(b)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return vec, nil
}
