package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables that override file settings.
const (
	EnvServerPort    = "OSUSUME_SERVER_PORT"
	EnvIndexPath     = "OSUSUME_INDEX_PATH"
	EnvModelPath     = "OSUSUME_MODEL_PATH"
	EnvTokenizerPath = "OSUSUME_TOKENIZER_PATH"
	EnvDebug         = "OSUSUME_DEBUG"
)

// LoadDotEnv loads variables from the given .env files (default ".env") into the
// process environment. Missing files are ignored; existing variables are kept.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		_ = godotenv.Load(f)
	}
}

// ApplyEnv overrides cfg with OSUSUME_* environment variables.
func ApplyEnv(cfg *Config) error {
	if v := os.Getenv(EnvServerPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return fmt.Errorf("invalid %s: %q", EnvServerPort, v)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv(EnvIndexPath); v != "" {
		cfg.Artifacts.IndexPath = v
	}
	if v := os.Getenv(EnvModelPath); v != "" {
		cfg.Embedding.ModelPath = v
	}
	if v := os.Getenv(EnvTokenizerPath); v != "" {
		cfg.Embedding.TokenizerPath = v
	}
	if v := os.Getenv(EnvDebug); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %q", EnvDebug, v)
		}
		cfg.Debug = debug
	}
	return nil
}
