package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func newTestLocal(t *testing.T) *Local {
	t.Helper()
	s, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestWriteAndRead(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()

	const data = `{"format":"mindharbor-corpus","version":1,"count":0}`
	w, err := s.Write(ctx, "backups/2024/corpus.jsonl")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := io.WriteString(w, data); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := s.Read(ctx, "backups/2024/corpus.jsonl")
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != data {
		t.Fatalf("got %q, want %q", got, data)
	}
}

func TestReadNotExist(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()

	_, err := s.Read(ctx, "no-such-file")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !os.IsNotExist(err) {
		t.Fatalf("expected os.ErrNotExist, got %v", err)
	}
}

func TestExists(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()

	ok, err := s.Exists(ctx, "missing")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected false for missing file")
	}

	w, err := s.Write(ctx, "present")
	if err != nil {
		t.Fatal(err)
	}
	w.Close()

	ok, err = s.Exists(ctx, "present")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected true for existing file")
	}
}

func TestDeleteIdempotent(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()

	if err := s.Delete(ctx, "ghost"); err != nil {
		t.Fatal(err)
	}

	w, err := s.Write(ctx, "tmp")
	if err != nil {
		t.Fatal(err)
	}
	w.Close()

	if err := s.Delete(ctx, "tmp"); err != nil {
		t.Fatal(err)
	}

	ok, err := s.Exists(ctx, "tmp")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("file should be gone after delete")
	}

	if err := s.Delete(ctx, "tmp"); err != nil {
		t.Fatal(err)
	}
}

func TestWriteTruncates(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()

	w, err := s.Write(ctx, "corpus.jsonl")
	if err != nil {
		t.Fatal(err)
	}
	io.WriteString(w, "a much older and longer export")
	w.Close()

	w, err = s.Write(ctx, "corpus.jsonl")
	if err != nil {
		t.Fatal(err)
	}
	io.WriteString(w, "fresh")
	w.Close()

	r, err := s.Read(ctx, "corpus.jsonl")
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "fresh" {
		t.Fatalf("got %q, want %q", got, "fresh")
	}
}

func TestWriteStagedUntilClose(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()

	w, err := s.Write(ctx, "corpus.jsonl")
	if err != nil {
		t.Fatal(err)
	}
	io.WriteString(w, "previous export")
	w.Close()

	// An open, unfinished write must not disturb the existing file.
	w, err = s.Write(ctx, "corpus.jsonl")
	if err != nil {
		t.Fatal(err)
	}
	io.WriteString(w, "half-")

	r, err := s.Read(ctx, "corpus.jsonl")
	if err != nil {
		t.Fatal(err)
	}
	got, err := io.ReadAll(r)
	r.Close()
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "previous export" {
		t.Fatalf("got %q before Close, want previous content", got)
	}

	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	r, err = s.Read(ctx, "corpus.jsonl")
	if err != nil {
		t.Fatal(err)
	}
	got, err = io.ReadAll(r)
	r.Close()
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "half-" {
		t.Fatalf("got %q after Close, want %q", got, "half-")
	}
}

func TestWriteAborted(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()

	w, err := s.Write(ctx, "corpus.jsonl")
	if err != nil {
		t.Fatal(err)
	}
	io.WriteString(w, "previous export")
	w.Close()

	w, err = s.Write(ctx, "corpus.jsonl")
	if err != nil {
		t.Fatal(err)
	}
	io.WriteString(w, "trunc")
	if err := Abort(w); err != nil {
		t.Fatal(err)
	}

	r, err := s.Read(ctx, "corpus.jsonl")
	if err != nil {
		t.Fatal(err)
	}
	got, err := io.ReadAll(r)
	r.Close()
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "previous export" {
		t.Fatalf("got %q after abort, want previous content", got)
	}

	// The staged temp file is cleaned up.
	entries, err := os.ReadDir(s.root)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries in root after abort, want 1: %v", len(entries), entries)
	}
}

func TestPathEscapeRejected(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()

	if _, err := s.Write(ctx, "../escape.jsonl"); err == nil {
		t.Fatal("expected error for path escaping the root")
	}
	if _, err := s.Read(ctx, "../../etc/passwd"); err == nil {
		t.Fatal("expected error for path escaping the root")
	}
	if _, err := s.Exists(ctx, ".."); err == nil {
		t.Fatal("expected error for path escaping the root")
	}
}

func TestNewLocalCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "dir")
	s, err := NewLocal(dir)
	if err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(s.root)
	if err != nil {
		t.Fatal(err)
	}
	if !info.IsDir() {
		t.Fatal("expected directory")
	}
}
