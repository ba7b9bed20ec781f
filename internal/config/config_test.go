package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_AppliesDefaultsWithNoConfigFile(t *testing.T) {
	Reset()
	dir := t.TempDir()
	wd, _ := os.Getwd()
	defer func() { _ = os.Chdir(wd) }()
	_ = os.Chdir(dir)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Quota.DefaultQuota != 20 {
		t.Fatalf("expected default quota 20, got %d", cfg.Quota.DefaultQuota)
	}
	if cfg.Digest.SimilarityThreshold != 0.85 {
		t.Fatalf("expected default similarity threshold 0.85, got %v", cfg.Digest.SimilarityThreshold)
	}
}

func TestLoad_RejectsSourceWithoutURL(t *testing.T) {
	Reset()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("sources:\n  - id: bad-source\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := Load(path)
	if err == nil {
		t.Fatalf("expected validation error for source missing url")
	}
}
