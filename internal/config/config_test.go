package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	// Point at a file that does not exist; defaults must still apply.
	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Gemini.Command != "gemini" {
		t.Errorf("expected default command, got %q", cfg.Gemini.Command)
	}
	if cfg.Batch.MaxSessions != 12 || cfg.Batch.CharBudget != 700_000 {
		t.Errorf("unexpected batch defaults: %+v", cfg.Batch)
	}
	if cfg.Gemini.MaxRetries != 3 || len(cfg.Gemini.BackoffSeconds) != 3 {
		t.Errorf("unexpected retry defaults: %+v", cfg.Gemini)
	}
	if cfg.Normalize.MaxTurnChars != 20_000 {
		t.Errorf("unexpected normalize defaults: %+v", cfg.Normalize)
	}
}

func TestLoad_FileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
sessions_dir: /tmp/sessions
gemini:
  model: gemini-2.0-flash
  max_retries: 5
batch:
  max_sessions: 4
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.SessionsDir != "/tmp/sessions" {
		t.Errorf("expected sessions_dir override, got %q", cfg.SessionsDir)
	}
	if cfg.Gemini.Model != "gemini-2.0-flash" || cfg.Gemini.MaxRetries != 5 {
		t.Errorf("expected gemini overrides, got %+v", cfg.Gemini)
	}
	if cfg.Batch.MaxSessions != 4 {
		t.Errorf("expected batch override, got %+v", cfg.Batch)
	}
	// Untouched keys keep defaults.
	if cfg.Batch.CharBudget != 700_000 {
		t.Errorf("expected default char budget, got %d", cfg.Batch.CharBudget)
	}
}

func TestFacetsDir(t *testing.T) {
	cfg := &Config{OutputDir: "/data/insights"}
	if got := cfg.FacetsDir(); got != filepath.Join("/data/insights", "facets") {
		t.Errorf("unexpected facets dir: %q", got)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir in test environment")
	}
	if got := expandPath("~/x/y"); got != filepath.Join(home, "x", "y") {
		t.Errorf("expected home expansion, got %q", got)
	}
	if got := expandPath("/abs/path"); got != "/abs/path" {
		t.Errorf("absolute paths must pass through, got %q", got)
	}
}
