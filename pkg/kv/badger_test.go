package kv_test

import (
	"context"
	"strings"
	"testing"

	"github.com/Imtguy97/mindharbor-bot/pkg/kv"
)

func TestBadgerDirRequired(t *testing.T) {
	_, err := kv.NewBadger(kv.BadgerOptions{
		Dir:      "",
		InMemory: false,
	})
	if err == nil {
		t.Fatal("expected error for empty Dir in on-disk mode")
	}
	if !strings.Contains(err.Error(), "Dir is required") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBadgerReopenPersists(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := kv.NewBadger(kv.BadgerOptions{Dir: dir})
	if err != nil {
		t.Fatalf("NewBadger: %v", err)
	}
	if err := s.Set(ctx, kv.Key{"doc", "doc_0"}, []byte("persisted")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, err := kv.NewBadger(kv.BadgerOptions{Dir: dir})
	if err != nil {
		t.Fatalf("NewBadger reopen: %v", err)
	}
	defer s2.Close()

	got, err := s2.Get(ctx, kv.Key{"doc", "doc_0"})
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if string(got) != "persisted" {
		t.Fatalf("Get after reopen = %q, want %q", got, "persisted")
	}
}
