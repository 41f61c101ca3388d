package commands

import (
	"strings"
	"testing"
)

func TestVersion(t *testing.T) {
	setupTestEnv(t)

	stdout, _, code := runCmd(t, "version")
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(stdout, "mindharbor") {
		t.Fatalf("expected 'mindharbor', got: %s", stdout)
	}
}

func TestVersionVerbose(t *testing.T) {
	setupTestEnv(t)

	stdout, _, code := runCmd(t, "version", "-v")
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(stdout, "go:") {
		t.Fatalf("expected go version, got: %s", stdout)
	}
}
