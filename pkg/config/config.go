package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ensembleai/ensemble/pkg/resilience"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Log       LogConfig       `koanf:"log"`
	LLM       LLMConfig       `koanf:"llm"`
	Memory    MemoryConfig    `koanf:"memory"`
	Run       RunConfig       `koanf:"run"`
	Retry     RetryConfig     `koanf:"retry"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json, text
}

type LLMConfig struct {
	Provider string `koanf:"provider"` // ollama, mock
	Model    string `koanf:"model"`
	BaseURL  string `koanf:"base_url"`
	APIKey   string `koanf:"api_key"`
}

type MemoryConfig struct {
	Enabled         bool   `koanf:"enabled"`
	Collection      string `koanf:"collection"`
	QdrantAddr      string `koanf:"qdrant_addr"`
	EmbedderBaseURL string `koanf:"embedder_base_url"`
	EmbedderModel   string `koanf:"embedder_model"`
	RecallK         int    `koanf:"recall_k"`
	ArchivePath     string `koanf:"archive_path"`
}

type RunConfig struct {
	MaxRounds           int  `koanf:"max_rounds"`
	Parallel            bool `koanf:"parallel"`
	RoundTimeoutSeconds int  `koanf:"round_timeout_seconds"`
	Strict              bool `koanf:"strict"`
}

type RetryConfig struct {
	MaxAttempts    int     `koanf:"max_attempts"`
	InitialDelayMS int     `koanf:"initial_delay_ms"`
	MaxDelayMS     int     `koanf:"max_delay_ms"`
	MaxElapsedMS   int     `koanf:"max_elapsed_ms"`
	Multiplier     float64 `koanf:"multiplier"`
	Jitter         float64 `koanf:"jitter"`
}

type TelemetryConfig struct {
	Enabled      bool   `koanf:"enabled"`
	Exporter     string `koanf:"exporter"` // stdout, otlp
	OTLPEndpoint string `koanf:"otlp_endpoint"`
}

// Resilience converts the declarative retry section into the policy the
// resilience package consumes.
func (r RetryConfig) Resilience() resilience.RetryConfig {
	rc := resilience.DefaultRetryConfig()
	if r.MaxAttempts > 0 {
		rc = rc.WithMaxAttempts(r.MaxAttempts)
	}
	if r.InitialDelayMS > 0 {
		rc = rc.WithInitialDelay(time.Duration(r.InitialDelayMS) * time.Millisecond)
	}
	if r.MaxDelayMS > 0 {
		rc = rc.WithMaxDelay(time.Duration(r.MaxDelayMS) * time.Millisecond)
	}
	if r.MaxElapsedMS > 0 {
		rc = rc.WithMaxElapsed(time.Duration(r.MaxElapsedMS) * time.Millisecond)
	}
	if r.Multiplier > 1 {
		rc.Multiplier = r.Multiplier
	}
	if r.Jitter > 0 {
		rc.Jitter = r.Jitter
	}
	return rc
}

// RoundTimeout returns the configured round timeout, zero when disabled.
func (r RunConfig) RoundTimeout() time.Duration {
	return time.Duration(r.RoundTimeoutSeconds) * time.Second
}

// Load reads configuration with precedence defaults < file < environment.
// Environment variables use the ENSEMBLE_ prefix, underscores mapping to
// dots (ENSEMBLE_LLM_PROVIDER -> llm.provider).
func Load(path string) (*Config, error) {
	return load(path, "")
}

// LoadWithProfile loads the base config, then overlays the profile file
// (config.yaml + "dev" -> config.dev.yaml) when it exists. Environment
// variables still win over both.
func LoadWithProfile(path, profile string) (*Config, error) {
	return load(path, profileConfigPath(path, profile))
}

func load(path, overlay string) (*Config, error) {
	k := koanf.New(".")

	// Defaults
	k.Set("log.level", "info")
	k.Set("log.format", "text")
	k.Set("llm.provider", "ollama")
	k.Set("llm.model", "qwen2.5-coder:7b-instruct-q5_K_M")
	k.Set("llm.base_url", "http://localhost:11434")

	k.Set("memory.enabled", false)
	k.Set("memory.collection", "ensemble")
	k.Set("memory.qdrant_addr", "localhost:6334")
	k.Set("memory.embedder_base_url", "http://localhost:11434")
	k.Set("memory.embedder_model", "nomic-embed-text")
	k.Set("memory.recall_k", 3)

	k.Set("run.max_rounds", 20)
	k.Set("run.parallel", false)
	k.Set("run.strict", false)

	k.Set("retry.max_attempts", 3)
	k.Set("retry.initial_delay_ms", 100)
	k.Set("retry.max_delay_ms", 10000)
	k.Set("retry.max_elapsed_ms", 30000)
	k.Set("retry.multiplier", 2.0)
	k.Set("retry.jitter", 0.1)

	k.Set("telemetry.enabled", false)
	k.Set("telemetry.exporter", "stdout")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}
	if overlay != "" {
		if err := k.Load(file.Provider(overlay), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	if err := k.Load(env.Provider("ENSEMBLE_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "ENSEMBLE_")), "_", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// profileConfigPath derives the profile overlay path, or "" when the
// overlay does not exist.
func profileConfigPath(base, profile string) string {
	if base == "" || profile == "" {
		return ""
	}
	dir := filepath.Dir(base)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(filepath.Base(base), ext)
	candidate := filepath.Join(dir, name+"."+profile+ext)
	if _, err := os.Stat(candidate); err != nil {
		return ""
	}
	return candidate
}
