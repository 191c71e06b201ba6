package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
  request_timeout: 15s
  rate_limit_per_minute: 120
artifacts:
  index_path: "/srv/osusume/items.osvi"
embedding:
  provider: mock
  timeout: 2s
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Server.RequestTimeout != 15*time.Second {
		t.Errorf("request_timeout = %v", cfg.Server.RequestTimeout)
	}
	if cfg.Server.RateLimitPerMinute != 120 {
		t.Errorf("rate_limit_per_minute = %d", cfg.Server.RateLimitPerMinute)
	}
	if cfg.Artifacts.IndexPath != "/srv/osusume/items.osvi" {
		t.Errorf("index_path = %s", cfg.Artifacts.IndexPath)
	}
	if cfg.Embedding.Provider != "mock" || cfg.Embedding.Timeout != 2*time.Second {
		t.Errorf("unexpected embedding config: %+v", cfg.Embedding)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_debugTrue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("debug: true\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
}

func TestLoad_invalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server: [unterminated"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected read error")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
artifacts:
  index_path: "./data/items.osvi"
  embeddings_path: "./data/embeddings.csv"
  products_path: "./data/products.csv"
embedding:
  tokenizer_path: "./models/tokenizer.json"
assets:
  image_dirs: ["./images", "/var/images"]
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{
		cfg.Artifacts.IndexPath:      filepath.Join(dir, "data", "items.osvi"),
		cfg.Artifacts.EmbeddingsPath: filepath.Join(dir, "data", "embeddings.csv"),
		cfg.Artifacts.ProductsPath:   filepath.Join(dir, "data", "products.csv"),
		cfg.Embedding.TokenizerPath:  filepath.Join(dir, "models", "tokenizer.json"),
	}
	for got, w := range want {
		if got != w {
			t.Errorf("path = %s, want %s", got, w)
		}
	}
	if len(cfg.Assets.ImageDirs) != 2 {
		t.Fatalf("image dirs: got %d", len(cfg.Assets.ImageDirs))
	}
	if cfg.Assets.ImageDirs[0] != filepath.Join(dir, "images") {
		t.Errorf("image dir = %s", cfg.Assets.ImageDirs[0])
	}
	if cfg.Assets.ImageDirs[1] != "/var/images" {
		t.Errorf("absolute image dir changed: %s", cfg.Assets.ImageDirs[1])
	}
}

func TestExpandPath_emptyStaysEmpty(t *testing.T) {
	if got := expandPath("", "/etc/osusume"); got != "" {
		t.Errorf("expandPath(\"\") = %q", got)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Server.RateLimitPerMinute != 0 {
		t.Errorf("rate limit should default to disabled: got %d", cfg.Server.RateLimitPerMinute)
	}
	if cfg.Artifacts.IndexType != "flat" {
		t.Errorf("default index type: got %s", cfg.Artifacts.IndexType)
	}
	if cfg.Artifacts.ProductsPath != "" {
		t.Errorf("products path should stay optional: got %s", cfg.Artifacts.ProductsPath)
	}
	if cfg.Embedding.Dimensions != 512 || cfg.Embedding.MaxTokens != 77 {
		t.Errorf("embedding defaults: %+v", cfg.Embedding)
	}
	if cfg.Embedding.Normalize {
		t.Error("normalize should default to false")
	}
	if cfg.Embedding.MaxConcurrency != 4 || cfg.Embedding.Timeout != 5*time.Second {
		t.Errorf("guard defaults: %+v", cfg.Embedding)
	}
	if cfg.Index.Metric != "l2" {
		t.Errorf("default metric: got %s", cfg.Index.Metric)
	}
	if filepath.Base(cfg.Embedding.TokenizerPath) != "tokenizer.json" {
		t.Errorf("default tokenizer path: got %s", cfg.Embedding.TokenizerPath)
	}
	if len(cfg.Assets.Extensions) == 0 || cfg.Assets.Extensions[0] != ".jpg" {
		t.Errorf("asset extensions: got %v", cfg.Assets.Extensions)
	}
}

func TestWatchConfig_ArtifactsOrDefault(t *testing.T) {
	t.Run("nil_returns_true", func(t *testing.T) {
		w := &WatchConfig{}
		if got := w.ArtifactsOrDefault(); !got {
			t.Errorf("ArtifactsOrDefault() = %v, want true", got)
		}
	})
	t.Run("false_returns_false", func(t *testing.T) {
		f := false
		w := &WatchConfig{Artifacts: &f}
		if got := w.ArtifactsOrDefault(); got {
			t.Errorf("ArtifactsOrDefault() = %v, want false", got)
		}
	})
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saved.yaml")
	cfg := &Config{
		Server:    ServerConfig{Host: "localhost", Port: 9090, RequestTimeout: 10 * time.Second},
		Artifacts: ArtifactsConfig{IndexPath: "/tmp/items.osvi"},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
	if loaded.Server.RequestTimeout != 10*time.Second {
		t.Errorf("loaded request timeout: got %v", loaded.Server.RequestTimeout)
	}
	if loaded.Artifacts.IndexPath != "/tmp/items.osvi" {
		t.Errorf("loaded index path: got %s", loaded.Artifacts.IndexPath)
	}
}
