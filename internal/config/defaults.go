package config

import "time"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 30 * time.Second
	}
	if cfg.Artifacts.IndexType == "" {
		cfg.Artifacts.IndexType = "flat"
	}
	if cfg.Artifacts.IndexPath == "" {
		cfg.Artifacts.IndexPath = "/usr/local/var/osusume/data/index/items.osvi"
	}
	if cfg.Artifacts.EmbeddingsPath == "" {
		cfg.Artifacts.EmbeddingsPath = "/usr/local/var/osusume/data/embeddings.csv"
	}
	if cfg.Artifacts.CatalogDBPath == "" {
		cfg.Artifacts.CatalogDBPath = "/usr/local/var/osusume/data/db/catalog.db"
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "onnx"
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "/usr/local/var/osusume/data/models/clip-text.onnx"
	}
	if cfg.Embedding.TokenizerPath == "" {
		cfg.Embedding.TokenizerPath = "/usr/local/var/osusume/data/models/tokenizer.json"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 512
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 77
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Embedding.Timeout == 0 {
		cfg.Embedding.Timeout = 5 * time.Second
	}
	if cfg.Embedding.MaxConcurrency == 0 {
		cfg.Embedding.MaxConcurrency = 4
	}
	if cfg.Index.Metric == "" {
		cfg.Index.Metric = "l2"
	}
	if cfg.Assets.Extensions == nil {
		cfg.Assets.Extensions = []string{".jpg", ".jpeg", ".png", ".webp"}
	}
}
