package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != 8080 || cfg.SolveBudget != 30*time.Second {
		t.Fatalf("defaults = %+v", cfg)
	}
	if cfg.Addr() != ":8080" {
		t.Fatalf("addr = %q", cfg.Addr())
	}
}

func TestLoadYAMLAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("port: 9000\ngraph_file: graph.json\nsolve_budget: 5s\nlandmark_count: 8\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PORT", "9100")
	t.Setenv("SOLVE_BUDGET_MS", "1500")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != 9100 {
		t.Fatalf("port = %d, env should win over yaml", cfg.Port)
	}
	if cfg.GraphFile != "graph.json" || cfg.LandmarkCount != 8 {
		t.Fatalf("yaml values lost: %+v", cfg)
	}
	if cfg.SolveBudget != 1500*time.Millisecond {
		t.Fatalf("budget = %v", cfg.SolveBudget)
	}
}

func TestLoadRejectsBadInput(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
	path := filepath.Join(t.TempDir(), "bad.yaml")
	_ = os.WriteFile(path, []byte("port: -1\n"), 0o644)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid port")
	}
}
