package commands

import (
	"strings"
	"testing"
)

func TestConfigShow(t *testing.T) {
	setupTestEnv(t)

	stdout, stderr, code := runCmd(t, "config", "-o", "json", "--jq", ".kv.backend")
	if code != 0 {
		t.Fatalf("config failed: %s", stderr)
	}
	if got := strings.TrimSpace(stdout); got != `"sqlite"` {
		t.Fatalf("backend = %s, want \"sqlite\"", got)
	}
}

func TestConfigDataDirOverride(t *testing.T) {
	setupTestEnv(t)

	stdout, stderr, code := runCmd(t, "config", "--data-dir", "/srv/harbor", "-o", "json", "--jq", ".data_dir")
	if code != 0 {
		t.Fatalf("config failed: %s", stderr)
	}
	if got := strings.TrimSpace(stdout); got != `"/srv/harbor"` {
		t.Fatalf("data_dir = %s, want \"/srv/harbor\"", got)
	}
}

func TestConfigBadJQ(t *testing.T) {
	setupTestEnv(t)

	_, stderr, code := runCmd(t, "config", "--jq", ".kv[")
	if code == 0 {
		t.Fatal("expected failure")
	}
	if !strings.Contains(stderr, "invalid jq expression") {
		t.Fatalf("stderr = %q", stderr)
	}
}
