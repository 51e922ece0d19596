// Package config loads runtime configuration from an optional YAML file and
// the environment. Environment variables win over the file.
package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix namespaces the process environment: TASKWEAVE_MODEL_PROVIDER
// becomes model.provider.
const EnvPrefix = "TASKWEAVE_"

type Config struct {
	Model ModelConfig `koanf:"model"`
	Store StoreConfig `koanf:"store"`
	Git   GitConfig   `koanf:"git"`
	Retry RetryConfig `koanf:"retry"`
	Log   LogConfig   `koanf:"log"`
}

type ModelConfig struct {
	Provider string `koanf:"provider"`
	Name     string `koanf:"name"`
}

type StoreConfig struct {
	// Backend is memory, mongo, or postgres.
	Backend     string `koanf:"backend"`
	MongoURI    string `koanf:"mongo_uri"`
	MongoDB     string `koanf:"mongo_db"`
	PostgresURI string `koanf:"postgres_uri"`
}

type GitConfig struct {
	BaseURL string `koanf:"base_url"`
	Token   string `koanf:"token"`
}

type RetryConfig struct {
	MaxAttempts   int `koanf:"max_attempts"`
	BaseBackoffMS int `koanf:"base_backoff_ms"`
}

type LogConfig struct {
	Level string `koanf:"level"`
}

// Load reads path (skipped when empty or missing) then the environment.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".", 1)
	}), nil); err != nil {
		return nil, err
	}

	applyDefaults(k)

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(k *koanf.Koanf) {
	defaults := map[string]any{
		"model.provider":        "gemini",
		"model.name":            "",
		"store.backend":         "memory",
		"retry.max_attempts":    3,
		"retry.base_backoff_ms": 2000,
		"log.level":             "info",
	}
	for key, value := range defaults {
		if !k.Exists(key) {
			k.Set(key, value)
		}
	}
}
