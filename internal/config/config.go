// Package config provides configuration loading and structs for the Osusume server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Index     IndexConfig     `yaml:"index"`
	Assets    AssetsConfig    `yaml:"assets"`
	Watch     WatchConfig     `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host               string        `yaml:"host"`
	Port               int           `yaml:"port"`
	RequestTimeout     time.Duration `yaml:"request_timeout"`
	RateLimitPerMinute int           `yaml:"rate_limit_per_minute"`
}

// ArtifactsConfig holds the paths of the offline-built artifacts loaded at startup.
type ArtifactsConfig struct {
	IndexType      string `yaml:"index_type"`
	IndexPath      string `yaml:"index_path"`
	EmbeddingsPath string `yaml:"embeddings_path"`
	ProductsPath   string `yaml:"products_path"`
	CatalogDBPath  string `yaml:"catalog_db_path"`
}

// EmbeddingConfig holds text encoder settings. TokenizerPath is the tokenizer.json
// exported with the model; query token ids must come from the vocabulary the item
// vectors were built with.
type EmbeddingConfig struct {
	Provider       string        `yaml:"provider"`
	ModelPath      string        `yaml:"model_path"`
	TokenizerPath  string        `yaml:"tokenizer_path"`
	Dimensions     int           `yaml:"dimensions"`
	MaxTokens      int           `yaml:"max_tokens"`
	CacheSize      int           `yaml:"cache_size"`
	Normalize      bool          `yaml:"normalize"`
	InputNames     []string      `yaml:"input_names"`
	OutputName     string        `yaml:"output_name"`
	Timeout        time.Duration `yaml:"timeout"`
	MaxConcurrency int           `yaml:"max_concurrency"`
}

// IndexConfig holds vector index settings.
type IndexConfig struct {
	Metric string `yaml:"metric"`
}

// AssetsConfig lists where product images are looked up, in order.
type AssetsConfig struct {
	ImageDirs  []string `yaml:"image_dirs"`
	Extensions []string `yaml:"extensions"`
}

// WatchConfig holds artifact watch settings.
type WatchConfig struct {
	Artifacts *bool `yaml:"artifacts"`
}

// ArtifactsOrDefault returns whether to watch artifact files; defaults to true when unset.
func (w *WatchConfig) ArtifactsOrDefault() bool {
	if w.Artifacts != nil {
		return *w.Artifacts
	}
	return true
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Artifacts.IndexPath = expandPath(cfg.Artifacts.IndexPath, configDir)
	cfg.Artifacts.EmbeddingsPath = expandPath(cfg.Artifacts.EmbeddingsPath, configDir)
	cfg.Artifacts.ProductsPath = expandPath(cfg.Artifacts.ProductsPath, configDir)
	cfg.Artifacts.CatalogDBPath = expandPath(cfg.Artifacts.CatalogDBPath, configDir)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	cfg.Embedding.TokenizerPath = expandPath(cfg.Embedding.TokenizerPath, configDir)
	for i := range cfg.Assets.ImageDirs {
		cfg.Assets.ImageDirs[i] = expandPath(cfg.Assets.ImageDirs[i], configDir)
	}

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory. Empty stays empty.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
