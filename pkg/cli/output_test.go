package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOutput_JSON(t *testing.T) {
	var buf bytes.Buffer

	data := map[string]any{
		"status": "ok",
		"count":  3,
	}

	err := Output(data, OutputOptions{
		Format: FormatJSON,
		Writer: &buf,
	})
	if err != nil {
		t.Fatalf("Output error: %v", err)
	}

	// Verify valid JSON
	var result map[string]any
	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("Invalid JSON output: %v", err)
	}

	if result["status"] != "ok" {
		t.Errorf("status = %v, want %q", result["status"], "ok")
	}
}

func TestOutput_YAML(t *testing.T) {
	var buf bytes.Buffer

	data := map[string]any{
		"status": "ok",
		"count":  3,
	}

	err := Output(data, OutputOptions{
		Format: FormatYAML,
		Writer: &buf,
	})
	if err != nil {
		t.Fatalf("Output error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "status: ok") {
		t.Errorf("Output should contain 'status: ok', got: %s", output)
	}
}

func TestOutput_DefaultFormat(t *testing.T) {
	var buf bytes.Buffer

	data := map[string]string{"user_id": "maya"}

	// Empty format should default to YAML
	err := Output(data, OutputOptions{
		Format: "",
		Writer: &buf,
	})
	if err != nil {
		t.Fatalf("Output error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "user_id: maya") {
		t.Errorf("Default format should be YAML, got: %s", output)
	}
}

func TestOutput_Raw(t *testing.T) {
	var buf bytes.Buffer

	err := Output("plain text result", OutputOptions{
		Format: FormatRaw,
		Writer: &buf,
	})
	if err != nil {
		t.Fatalf("Output error: %v", err)
	}

	if buf.String() != "plain text result" {
		t.Errorf("Output = %q, want %q", buf.String(), "plain text result")
	}
}

func TestOutput_Raw_Other(t *testing.T) {
	var buf bytes.Buffer

	// Non-string/bytes should fall back to YAML
	data := map[string]int{"count": 42}

	err := Output(data, OutputOptions{
		Format: FormatRaw,
		Writer: &buf,
	})
	if err != nil {
		t.Fatalf("Output error: %v", err)
	}

	if !strings.Contains(buf.String(), "count: 42") {
		t.Errorf("Output should contain YAML, got: %s", buf.String())
	}
}

func TestOutput_UnsupportedFormat(t *testing.T) {
	var buf bytes.Buffer

	err := Output("data", OutputOptions{
		Format: "invalid",
		Writer: &buf,
	})
	if err == nil {
		t.Error("Output should fail for unsupported format")
	}
}

func TestOutput_ToFile(t *testing.T) {
	tmpDir := t.TempDir()
	filePath := filepath.Join(tmpDir, "output.json")

	data := map[string]string{"status": "ok"}

	err := Output(data, OutputOptions{
		Format: FormatJSON,
		File:   filePath,
	})
	if err != nil {
		t.Fatalf("Output error: %v", err)
	}

	// Read and verify file
	content, err := os.ReadFile(filePath)
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}

	var result map[string]string
	if err := json.Unmarshal(content, &result); err != nil {
		t.Fatalf("Invalid JSON in file: %v", err)
	}

	if result["status"] != "ok" {
		t.Errorf("status = %q, want %q", result["status"], "ok")
	}
}

func TestOutput_WithFilter(t *testing.T) {
	var buf bytes.Buffer

	f, err := ParseFilter(".matches[].text")
	if err != nil {
		t.Fatalf("ParseFilter error: %v", err)
	}

	data := map[string]any{
		"status": "ok",
		"matches": []map[string]any{
			{"text": "box breathing calms the body", "score": 0.98},
			{"text": "a fixed bedtime improves sleep", "score": 0.71},
		},
	}

	err = Output(data, OutputOptions{
		Format: FormatJSON,
		Filter: f,
		Writer: &buf,
	})
	if err != nil {
		t.Fatalf("Output error: %v", err)
	}

	var result []string
	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("Invalid JSON output: %v", err)
	}
	if len(result) != 2 || result[0] != "box breathing calms the body" {
		t.Errorf("filtered result = %v", result)
	}
}

func TestOutput_FailingFilterKeepsFile(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "output.json")
	if err := os.WriteFile(filePath, []byte(`{"kept":true}`), 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := ParseFilter(`error("boom")`)
	if err != nil {
		t.Fatalf("ParseFilter error: %v", err)
	}

	err = Output(map[string]string{"status": "ok"}, OutputOptions{
		Format: FormatJSON,
		File:   filePath,
		Filter: f,
	})
	if err == nil {
		t.Fatal("Output should surface the filter error")
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != `{"kept":true}` {
		t.Errorf("existing file was changed by a failed filter: %s", content)
	}
}

func TestParseFilter_Invalid(t *testing.T) {
	if _, err := ParseFilter(".matches[»"); err == nil {
		t.Error("ParseFilter should fail for malformed expression")
	}
}

func TestFilter_SingleResult(t *testing.T) {
	f, err := ParseFilter(".count")
	if err != nil {
		t.Fatalf("ParseFilter error: %v", err)
	}

	out, err := f.Apply(map[string]any{"count": 7})
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}

	got, err := json.Marshal(out)
	if err != nil {
		t.Fatalf("marshal result: %v", err)
	}
	if string(got) != "7" {
		t.Errorf("Apply = %s, want 7", got)
	}
}

func TestFilter_Error(t *testing.T) {
	f, err := ParseFilter(`error("boom")`)
	if err != nil {
		t.Fatalf("ParseFilter error: %v", err)
	}

	if _, err := f.Apply(map[string]any{}); err == nil {
		t.Error("Apply should surface jq runtime errors")
	}
}
