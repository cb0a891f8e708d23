package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Chunking.Size != 1000 {
		t.Errorf("expected Size=1000, got %d", cfg.Chunking.Size)
	}
	if cfg.Chunking.Overlap != 200 {
		t.Errorf("expected Overlap=200, got %d", cfg.Chunking.Overlap)
	}
	if cfg.Retrieve.TopK != 4 {
		t.Errorf("expected TopK=4, got %d", cfg.Retrieve.TopK)
	}
	if cfg.Embedding.Model != "mistral-embed" {
		t.Errorf("expected mistral-embed, got %s", cfg.Embedding.Model)
	}
	if cfg.LLM.APIKeyEnv != "MISTRAL_API_KEY" {
		t.Errorf("expected MISTRAL_API_KEY, got %s", cfg.LLM.APIKeyEnv)
	}
	if cfg.LLM.RequestDelayMS != 1000 {
		t.Errorf("expected RequestDelayMS=1000, got %d", cfg.LLM.RequestDelayMS)
	}
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Errorf("expected no error for non-existent file, got %v", err)
	}
	if cfg == nil {
		t.Error("expected default config, got nil")
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
chunking:
  size: 500
retrieve:
  top_k: 10
extract:
  ocr_enabled: true
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Chunking.Size != 500 {
		t.Errorf("expected Size=500, got %d", cfg.Chunking.Size)
	}
	if cfg.Chunking.Overlap != 200 {
		t.Errorf("expected default Overlap=200 to survive partial config, got %d", cfg.Chunking.Overlap)
	}
	if cfg.Retrieve.TopK != 10 {
		t.Errorf("expected TopK=10, got %d", cfg.Retrieve.TopK)
	}
	if !cfg.Extract.OCREnabled {
		t.Error("expected OCREnabled=true")
	}
}

func TestLoadFromDir(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
llm:
  model: mistral-small-latest
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.LLM.Model != "mistral-small-latest" {
		t.Errorf("expected mistral-small-latest, got %s", cfg.LLM.Model)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	cfg := DefaultConfig()
	cfg.Retrieve.TopK = 7
	if err := cfg.Save(configPath); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Retrieve.TopK != 7 {
		t.Errorf("expected TopK=7 after round trip, got %d", loaded.Retrieve.TopK)
	}
}

func TestIndexDBPath(t *testing.T) {
	path := IndexDBPath("/home/user/.docqa")
	expected := filepath.Join("/home/user/.docqa", "index.db")
	if path != expected {
		t.Errorf("expected %s, got %s", expected, path)
	}
}
