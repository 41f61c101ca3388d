package commands

import (
	"encoding/json"
	"io"
	"os"
	"strings"
	"testing"
)

type searchResult struct {
	Text  string  `json:"text"`
	Score float32 `json:"score"`
}

func searchJSON(t *testing.T, args ...string) []searchResult {
	t.Helper()
	args = append([]string{"search"}, args...)
	args = append(args, "-o", "json")
	stdout, stderr, code := runCmd(t, args...)
	if code != 0 {
		t.Fatalf("search failed: %s", stderr)
	}
	var results []searchResult
	if err := json.Unmarshal([]byte(stdout), &results); err != nil {
		t.Fatalf("bad search output %q: %v", stdout, err)
	}
	return results
}

func TestIngestAndSearch(t *testing.T) {
	setupTestEnv(t)

	stdout, stderr, code := runCmd(t, "ingest",
		"box breathing calms the body",
		"a fixed bedtime improves sleep",
		"--ids", "breath,sleep")
	if code != 0 {
		t.Fatalf("ingest failed: %s", stderr)
	}
	if !strings.Contains(stdout, "Ingested 2 documents") {
		t.Fatalf("unexpected ingest output: %s", stdout)
	}

	results := searchJSON(t, "box breathing calms the body")
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Text != "box breathing calms the body" {
		t.Fatalf("top result = %q", results[0].Text)
	}
	if results[0].Score < 0.99 {
		t.Fatalf("identical text scored %f", results[0].Score)
	}
}

func TestIngestFromYAMLFile(t *testing.T) {
	setupTestEnv(t)
	path := writeTestFile(t, "tips.yaml", `
texts:
  - slow exhales settle the nerves
  - a short walk clears the mind
ids:
  - calm
  - walk
`)

	stdout, stderr, code := runCmd(t, "ingest", "-f", path)
	if code != 0 {
		t.Fatalf("ingest failed: %s", stderr)
	}
	if !strings.Contains(stdout, "Ingested 2 documents") {
		t.Fatalf("unexpected output: %s", stdout)
	}

	results := searchJSON(t, "slow exhales settle the nerves", "-k", "1")
	if len(results) != 1 || results[0].Text != "slow exhales settle the nerves" {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestIngestFromTxtFile(t *testing.T) {
	setupTestEnv(t)
	path := writeTestFile(t, "tips.txt", "tip the first\n\n  tip the second  \n")

	stdout, stderr, code := runCmd(t, "ingest", "-f", path)
	if code != 0 {
		t.Fatalf("ingest failed: %s", stderr)
	}
	if !strings.Contains(stdout, "Ingested 2 documents") {
		t.Fatalf("unexpected output: %s", stdout)
	}
}

func TestIngestFromStdin(t *testing.T) {
	setupTestEnv(t)

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	oldStdin := os.Stdin
	os.Stdin = r
	t.Cleanup(func() { os.Stdin = oldStdin })
	io.WriteString(w, `{"texts": ["name five things you can see"], "ids": ["grounding"]}`)
	w.Close()

	stdout, stderr, code := runCmd(t, "ingest", "-f", "-")
	if code != 0 {
		t.Fatalf("ingest failed: %s", stderr)
	}
	if !strings.Contains(stdout, "Ingested 1 documents") {
		t.Fatalf("unexpected output: %s", stdout)
	}

	results := searchJSON(t, "name five things you can see", "-k", "1")
	if len(results) != 1 || results[0].Text != "name five things you can see" {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestIngestErrors(t *testing.T) {
	setupTestEnv(t)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"no input", []string{"ingest"}, "nothing to ingest"},
		{"args and file", []string{"ingest", "text", "-f", "x.yaml"}, "not both"},
		{"id count mismatch", []string{"ingest", "one", "two", "--ids", "only"}, "1 ids for 2 texts"},
		{"missing file", []string{"ingest", "-f", "no-such-file.yaml"}, "no-such-file.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, code := runCmd(t, tt.args...)
			if code == 0 {
				t.Fatal("expected failure")
			}
			if !strings.Contains(stderr, tt.wantErr) {
				t.Fatalf("stderr = %q, want %q", stderr, tt.wantErr)
			}
		})
	}
}

func TestSearchEmptyCorpus(t *testing.T) {
	setupTestEnv(t)

	results := searchJSON(t, "anything at all")
	if len(results) != 0 {
		t.Fatalf("got %d results from empty corpus", len(results))
	}
}

func TestSearchPersistsAcrossInvocations(t *testing.T) {
	setupTestEnv(t)

	if _, stderr, code := runCmd(t, "ingest", "a fixed bedtime improves sleep", "--ids", "sleep"); code != 0 {
		t.Fatalf("ingest failed: %s", stderr)
	}

	// Each invocation reopens the store cold, so results come from the
	// durable backend.
	for i := 0; i < 2; i++ {
		results := searchJSON(t, "a fixed bedtime improves sleep", "-k", "1")
		if len(results) != 1 || results[0].Text != "a fixed bedtime improves sleep" {
			t.Fatalf("run %d: unexpected results: %+v", i, results)
		}
	}
}
