// Package config loads and validates sbirkb configuration.
//
// Configuration is applied in order of increasing precedence:
// hardcoded defaults, .sbirkb.yaml in the knowledge-base root, then
// SBIRKB_* environment variables.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete sbirkb configuration.
type Config struct {
	Version    int              `yaml:"version" json:"version"`
	KB         KBConfig         `yaml:"kb" json:"kb"`
	Chunking   ChunkingConfig   `yaml:"chunking" json:"chunking"`
	Search     SearchConfig     `yaml:"search" json:"search"`
	Embeddings EmbeddingsConfig `yaml:"embeddings" json:"embeddings"`
	Server     ServerConfig     `yaml:"server" json:"server"`
}

// KBConfig locates the knowledge base and the index data directory.
type KBConfig struct {
	// Root is the knowledge-base directory containing the markdown articles.
	Root string `yaml:"root" json:"root"`
	// DataDir holds the vector index and metadata database.
	// Defaults to <root>/.sbirkb.
	DataDir string `yaml:"data_dir" json:"data_dir"`
}

// ChunkingConfig configures semantic chunking.
type ChunkingConfig struct {
	// MinChunkSize is the minimum chunk length in characters.
	MinChunkSize int `yaml:"min_chunk_size" json:"min_chunk_size"`
	// MaxChunkSize is the maximum chunk length in characters.
	MaxChunkSize int `yaml:"max_chunk_size" json:"max_chunk_size"`
	// ThresholdPercentile is the similarity percentile below which a
	// topic boundary is placed (0-100).
	ThresholdPercentile float64 `yaml:"threshold_percentile" json:"threshold_percentile"`
}

// SearchConfig configures hybrid search parameters.
type SearchConfig struct {
	// LexicalWeight is the fused weight for keyword scoring (0.0-1.0).
	// Must sum to 1.0 with SemanticWeight.
	LexicalWeight float64 `yaml:"lexical_weight" json:"lexical_weight"`
	// SemanticWeight is the fused weight for vector similarity (0.0-1.0).
	SemanticWeight float64 `yaml:"semantic_weight" json:"semantic_weight"`
	// DisplayLimit caps how many results are rendered; the remainder is
	// reported as an omitted count.
	DisplayLimit int `yaml:"display_limit" json:"display_limit"`
	// TopK is how many chunks the vector index returns per query.
	TopK int `yaml:"top_k" json:"top_k"`
	// CacheSize is the query cache capacity in entries.
	CacheSize int `yaml:"cache_size" json:"cache_size"`
}

// EmbeddingsConfig configures the embedding provider.
type EmbeddingsConfig struct {
	// Provider selects the backend: "ollama" or "static".
	Provider string `yaml:"provider" json:"provider"`
	// Model is the embedding model name for the Ollama provider.
	Model string `yaml:"model" json:"model"`
	// OllamaHost is the Ollama API endpoint (default: http://localhost:11434).
	OllamaHost string `yaml:"ollama_host" json:"ollama_host"`
	// Timeout bounds each embedding request.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
	// BatchSize is texts per embedding request.
	BatchSize int `yaml:"batch_size" json:"batch_size"`
	// CacheSize is the embedding LRU cache capacity in entries.
	CacheSize int `yaml:"cache_size" json:"cache_size"`
}

// ServerConfig configures the MCP server and logging.
type ServerConfig struct {
	LogLevel string `yaml:"log_level" json:"log_level"`
	// WatchDebounce is how long the watcher waits after the last file
	// event before marking the index stale.
	WatchDebounce time.Duration `yaml:"watch_debounce" json:"watch_debounce"`
}

// NewConfig creates a Config with defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		KB: KBConfig{
			Root:    ".",
			DataDir: "",
		},
		Chunking: ChunkingConfig{
			MinChunkSize:        50,
			MaxChunkSize:        800,
			ThresholdPercentile: 25,
		},
		Search: SearchConfig{
			LexicalWeight:  0.4,
			SemanticWeight: 0.6,
			DisplayLimit:   10,
			TopK:           10,
			CacheSize:      100,
		},
		Embeddings: EmbeddingsConfig{
			Provider:   "ollama",
			Model:      "bge-m3",
			OllamaHost: "",
			Timeout:    30 * time.Second,
			BatchSize:  32,
			CacheSize:  1000,
		},
		Server: ServerConfig{
			LogLevel:      "info",
			WatchDebounce: 500 * time.Millisecond,
		},
	}
}

// Load loads configuration for the given knowledge-base directory.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()
	cfg.KB.Root = dir

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if cfg.KB.DataDir == "" {
		cfg.KB.DataDir = filepath.Join(cfg.KB.Root, ".sbirkb")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFromFile attempts to load configuration from .sbirkb.yaml or .sbirkb.yml.
func (c *Config) loadFromFile(dir string) error {
	for _, name := range []string{".sbirkb.yaml", ".sbirkb.yml"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return c.loadYAML(path)
		}
	}
	// No config file is fine, defaults apply.
	return nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	if other.KB.Root != "" {
		c.KB.Root = other.KB.Root
	}
	if other.KB.DataDir != "" {
		c.KB.DataDir = other.KB.DataDir
	}

	if other.Chunking.MinChunkSize != 0 {
		c.Chunking.MinChunkSize = other.Chunking.MinChunkSize
	}
	if other.Chunking.MaxChunkSize != 0 {
		c.Chunking.MaxChunkSize = other.Chunking.MaxChunkSize
	}
	if other.Chunking.ThresholdPercentile != 0 {
		c.Chunking.ThresholdPercentile = other.Chunking.ThresholdPercentile
	}

	// Zero is not a practical weight, so only non-zero values merge.
	if other.Search.LexicalWeight != 0 {
		c.Search.LexicalWeight = other.Search.LexicalWeight
	}
	if other.Search.SemanticWeight != 0 {
		c.Search.SemanticWeight = other.Search.SemanticWeight
	}
	if other.Search.DisplayLimit != 0 {
		c.Search.DisplayLimit = other.Search.DisplayLimit
	}
	if other.Search.TopK != 0 {
		c.Search.TopK = other.Search.TopK
	}
	if other.Search.CacheSize != 0 {
		c.Search.CacheSize = other.Search.CacheSize
	}

	if other.Embeddings.Provider != "" {
		c.Embeddings.Provider = other.Embeddings.Provider
	}
	if other.Embeddings.Model != "" {
		c.Embeddings.Model = other.Embeddings.Model
	}
	if other.Embeddings.OllamaHost != "" {
		c.Embeddings.OllamaHost = other.Embeddings.OllamaHost
	}
	if other.Embeddings.Timeout != 0 {
		c.Embeddings.Timeout = other.Embeddings.Timeout
	}
	if other.Embeddings.BatchSize != 0 {
		c.Embeddings.BatchSize = other.Embeddings.BatchSize
	}
	if other.Embeddings.CacheSize != 0 {
		c.Embeddings.CacheSize = other.Embeddings.CacheSize
	}

	if other.Server.LogLevel != "" {
		c.Server.LogLevel = other.Server.LogLevel
	}
	if other.Server.WatchDebounce != 0 {
		c.Server.WatchDebounce = other.Server.WatchDebounce
	}
}

// applyEnvOverrides applies SBIRKB_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SBIRKB_KB_ROOT"); v != "" {
		c.KB.Root = v
	}
	if v := os.Getenv("SBIRKB_DATA_DIR"); v != "" {
		c.KB.DataDir = v
	}
	if v := os.Getenv("SBIRKB_LEXICAL_WEIGHT"); v != "" {
		if w, err := strconv.ParseFloat(v, 64); err == nil && w >= 0 && w <= 1 {
			c.Search.LexicalWeight = w
		}
	}
	if v := os.Getenv("SBIRKB_SEMANTIC_WEIGHT"); v != "" {
		if w, err := strconv.ParseFloat(v, 64); err == nil && w >= 0 && w <= 1 {
			c.Search.SemanticWeight = w
		}
	}
	if v := os.Getenv("SBIRKB_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Search.CacheSize = n
		}
	}
	if v := os.Getenv("SBIRKB_EMBEDDER"); v != "" {
		c.Embeddings.Provider = v
	}
	if v := os.Getenv("SBIRKB_EMBEDDINGS_MODEL"); v != "" {
		c.Embeddings.Model = v
	}
	if v := os.Getenv("SBIRKB_OLLAMA_HOST"); v != "" {
		c.Embeddings.OllamaHost = v
	}
	if v := os.Getenv("SBIRKB_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.KB.Root == "" {
		return fmt.Errorf("kb.root must not be empty")
	}

	if c.Chunking.MinChunkSize <= 0 {
		return fmt.Errorf("chunking.min_chunk_size must be positive, got %d", c.Chunking.MinChunkSize)
	}
	if c.Chunking.MaxChunkSize <= c.Chunking.MinChunkSize {
		return fmt.Errorf("chunking.max_chunk_size must exceed min_chunk_size, got %d <= %d",
			c.Chunking.MaxChunkSize, c.Chunking.MinChunkSize)
	}
	if c.Chunking.ThresholdPercentile < 0 || c.Chunking.ThresholdPercentile > 100 {
		return fmt.Errorf("chunking.threshold_percentile must be between 0 and 100, got %f",
			c.Chunking.ThresholdPercentile)
	}

	if c.Search.LexicalWeight < 0 || c.Search.LexicalWeight > 1 {
		return fmt.Errorf("lexical_weight must be between 0 and 1, got %f", c.Search.LexicalWeight)
	}
	if c.Search.SemanticWeight < 0 || c.Search.SemanticWeight > 1 {
		return fmt.Errorf("semantic_weight must be between 0 and 1, got %f", c.Search.SemanticWeight)
	}
	sum := c.Search.LexicalWeight + c.Search.SemanticWeight
	if math.Abs(sum-1.0) > 0.01 {
		return fmt.Errorf("lexical_weight + semantic_weight must equal 1.0, got %.2f", sum)
	}
	if c.Search.DisplayLimit <= 0 {
		return fmt.Errorf("display_limit must be positive, got %d", c.Search.DisplayLimit)
	}
	if c.Search.CacheSize <= 0 {
		return fmt.Errorf("cache_size must be positive, got %d", c.Search.CacheSize)
	}

	switch strings.ToLower(c.Embeddings.Provider) {
	case "ollama", "static":
	default:
		return fmt.Errorf("embeddings.provider must be 'ollama' or 'static', got %s", c.Embeddings.Provider)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Server.LogLevel)] {
		return fmt.Errorf("server.log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.Server.LogLevel)
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
