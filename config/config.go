package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the docqa tool.
type Config struct {
	Ingest    IngestConfig    `yaml:"ingest"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Retrieve  RetrieveConfig  `yaml:"retrieve"`
	Extract   ExtractConfig   `yaml:"extract"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// IngestConfig controls which files synchronization picks up.
type IngestConfig struct {
	Patterns []string `yaml:"patterns"`
}

// ChunkingConfig holds chunking parameters.
type ChunkingConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"`    // "mistral", "openai", "ollama", "mock"
	Model     string `yaml:"model"`       // e.g., "mistral-embed"
	APIKeyEnv string `yaml:"api_key_env"` // Environment variable for API key
	BaseURL   string `yaml:"base_url"`    // Override endpoint (ollama, proxies)
}

// LLMConfig holds generation configuration.
type LLMConfig struct {
	Provider       string  `yaml:"provider"` // "mistral", "openai", "ollama"
	Model          string  `yaml:"model"`    // e.g., "mistral-large-latest"
	APIKeyEnv      string  `yaml:"api_key_env"`
	BaseURL        string  `yaml:"base_url"`
	Temperature    float64 `yaml:"temperature"`
	MaxTokens      int     `yaml:"max_tokens"`
	RequestDelayMS int     `yaml:"request_delay_ms"` // pause before generation, spreads rate-limited calls
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK             int     `yaml:"top_k"`
	MMRLambda        float64 `yaml:"mmr_lambda"` // 0 disables diversity reranking
	DedupJaccard     float64 `yaml:"dedup_jaccard"`
	ExpandNeighbors  bool    `yaml:"expand_neighbors"`
	CacheEnabled     bool    `yaml:"cache_enabled"`
	CacheSize        int     `yaml:"cache_size"`
	CacheTTLSeconds  int     `yaml:"cache_ttl_seconds"`
	MaxContextTokens int     `yaml:"max_context_tokens"`
}

// ExtractConfig holds text extraction configuration.
type ExtractConfig struct {
	OCREnabled    bool   `yaml:"ocr_enabled"`
	OCRDPI        int    `yaml:"ocr_dpi"`
	OCRLanguage   string `yaml:"ocr_language"`
	PdftotextPath string `yaml:"pdftotext_path"`
	PdfinfoPath   string `yaml:"pdfinfo_path"`
	PdftoppmPath  string `yaml:"pdftoppm_path"`
	TesseractPath string `yaml:"tesseract_path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Verbose bool `yaml:"verbose"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Ingest: IngestConfig{
			Patterns: []string{"*.pdf", "*.txt"},
		},
		Chunking: ChunkingConfig{
			Size:    1000,
			Overlap: 200,
		},
		Embedding: EmbeddingConfig{
			Provider:  "mistral",
			Model:     "mistral-embed",
			APIKeyEnv: "MISTRAL_API_KEY",
		},
		LLM: LLMConfig{
			Provider:       "mistral",
			Model:          "mistral-large-latest",
			APIKeyEnv:      "MISTRAL_API_KEY",
			Temperature:    0.2,
			MaxTokens:      1024,
			RequestDelayMS: 1000,
		},
		Retrieve: RetrieveConfig{
			TopK:             4,
			MMRLambda:        0,
			DedupJaccard:     0.85,
			ExpandNeighbors:  false,
			CacheEnabled:     true,
			CacheSize:        128,
			CacheTTLSeconds:  300,
			MaxContextTokens: 3000,
		},
		Extract: ExtractConfig{
			OCREnabled:    false,
			OCRDPI:        300,
			OCRLanguage:   "eng",
			PdftotextPath: "pdftotext",
			PdfinfoPath:   "pdfinfo",
			PdftoppmPath:  "pdftoppm",
			TesseractPath: "tesseract",
		},
		Logging: LoggingConfig{
			Verbose: false,
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a store directory.
func LoadFromDir(dir string) (*Config, error) {
	return Load(filepath.Join(dir, "config.yaml"))
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// DefaultStoreDir returns the per-user store directory, ~/.docqa.
func DefaultStoreDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".docqa"
	}
	return filepath.Join(home, ".docqa")
}

// IndexDBPath returns the path to the index database inside the store dir.
func IndexDBPath(dir string) string {
	return filepath.Join(dir, "index.db")
}

// EnsureStoreDir ensures the store directory exists.
func EnsureStoreDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}
