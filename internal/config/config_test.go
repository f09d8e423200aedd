package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRetrievalDefaults(t *testing.T) {
	t.Setenv("VOXRAG_CONFIG", "")
	t.Setenv("VECTOR_TOP_K", "")
	t.Setenv("FUSION_RRF_K", "")
	t.Setenv("RERANK_TOP_N", "")
	t.Setenv("RERANK_KEEP", "")
	t.Setenv("SESSION_MAX_TURNS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.VectorTopK != 20 {
		t.Fatalf("expected default vector top k 20, got %d", cfg.VectorTopK)
	}
	if cfg.FusionRRFK != 60 {
		t.Fatalf("expected default fusion rrf k 60, got %d", cfg.FusionRRFK)
	}
	if cfg.RerankTopN != 20 || cfg.RerankKeep != 5 {
		t.Fatalf("expected default rerank 20/5, got %d/%d", cfg.RerankTopN, cfg.RerankKeep)
	}
	if cfg.SessionMaxTurns != 10 {
		t.Fatalf("expected default session window 10, got %d", cfg.SessionMaxTurns)
	}
}

func TestLoadParsesEnvOverrides(t *testing.T) {
	t.Setenv("VOXRAG_CONFIG", "")
	t.Setenv("VECTOR_TOP_K", "40")
	t.Setenv("FUSION_RRF_K", "75")
	t.Setenv("RERANK_KEEP", "3")
	t.Setenv("FILLER_PHRASES", "One sec.|Looking it up.")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.VectorTopK != 40 {
		t.Fatalf("expected vector top k 40, got %d", cfg.VectorTopK)
	}
	if cfg.FusionRRFK != 75 {
		t.Fatalf("expected fusion rrf k 75, got %d", cfg.FusionRRFK)
	}
	if cfg.RerankKeep != 3 {
		t.Fatalf("expected rerank keep 3, got %d", cfg.RerankKeep)
	}
	if len(cfg.FillerPhrases) != 2 || cfg.FillerPhrases[1] != "Looking it up." {
		t.Fatalf("unexpected filler phrases: %v", cfg.FillerPhrases)
	}
}

func TestLoadYAMLOverlayAndEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voxrag.yaml")
	body := "vector_top_k: 33\nrerank_keep: 7\nfiller_phrases:\n  - From file.\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	t.Setenv("VOXRAG_CONFIG", path)
	t.Setenv("VECTOR_TOP_K", "44")
	t.Setenv("RERANK_KEEP", "")
	t.Setenv("FILLER_PHRASES", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.VectorTopK != 44 {
		t.Fatalf("expected env to override file, got %d", cfg.VectorTopK)
	}
	if cfg.RerankKeep != 7 {
		t.Fatalf("expected file value 7, got %d", cfg.RerankKeep)
	}
	if len(cfg.FillerPhrases) != 1 || cfg.FillerPhrases[0] != "From file." {
		t.Fatalf("unexpected filler phrases: %v", cfg.FillerPhrases)
	}
}

func TestLoadRejectsUnreadableConfigFile(t *testing.T) {
	t.Setenv("VOXRAG_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}
