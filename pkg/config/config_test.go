package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.LLM.Provider != "ollama" {
		t.Errorf("expected default provider ollama, got %s", cfg.LLM.Provider)
	}
	if cfg.Run.MaxRounds != 20 {
		t.Errorf("expected default round cap 20, got %d", cfg.Run.MaxRounds)
	}
	if cfg.Retry.MaxAttempts != 3 {
		t.Errorf("expected default 3 attempts, got %d", cfg.Retry.MaxAttempts)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("ENSEMBLE_LLM_PROVIDER", "mock")
	t.Setenv("ENSEMBLE_RUN_PARALLEL", "true")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.LLM.Provider != "mock" {
		t.Errorf("expected provider mock from env, got %s", cfg.LLM.Provider)
	}
	if !cfg.Run.Parallel {
		t.Error("expected run.parallel from env")
	}
}

func TestLoadWithProfile(t *testing.T) {
	tmpDir := t.TempDir()

	baseConfig := `
llm:
  provider: "ollama"
  model: "llama3.1"
log:
  level: "info"
`
	basePath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(basePath, []byte(baseConfig), 0644); err != nil {
		t.Fatalf("failed to write base config: %v", err)
	}

	devConfig := `
llm:
  provider: "mock"
log:
  level: "debug"
`
	if err := os.WriteFile(filepath.Join(tmpDir, "config.dev.yaml"), []byte(devConfig), 0644); err != nil {
		t.Fatalf("failed to write dev config: %v", err)
	}

	tests := []struct {
		name         string
		profile      string
		wantProvider string
		wantLogLevel string
		wantModel    string
	}{
		{
			name:         "no profile - base only",
			profile:      "",
			wantProvider: "ollama",
			wantLogLevel: "info",
			wantModel:    "llama3.1",
		},
		{
			name:         "dev profile",
			profile:      "dev",
			wantProvider: "mock",
			wantLogLevel: "debug",
			wantModel:    "llama3.1", // Not overridden in dev
		},
		{
			name:         "nonexistent profile - falls back to base",
			profile:      "staging",
			wantProvider: "ollama",
			wantLogLevel: "info",
			wantModel:    "llama3.1",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := LoadWithProfile(basePath, tc.profile)
			if err != nil {
				t.Fatalf("LoadWithProfile failed: %v", err)
			}
			if cfg.LLM.Provider != tc.wantProvider {
				t.Errorf("provider: got %s, want %s", cfg.LLM.Provider, tc.wantProvider)
			}
			if cfg.Log.Level != tc.wantLogLevel {
				t.Errorf("log level: got %s, want %s", cfg.Log.Level, tc.wantLogLevel)
			}
			if cfg.LLM.Model != tc.wantModel {
				t.Errorf("model: got %s, want %s", cfg.LLM.Model, tc.wantModel)
			}
		})
	}
}

func TestRetryResilienceConversion(t *testing.T) {
	rc := RetryConfig{
		MaxAttempts:    5,
		InitialDelayMS: 50,
		MaxDelayMS:     2000,
		MaxElapsedMS:   5000,
		Multiplier:     3.0,
		Jitter:         0.2,
	}.Resilience()

	if rc.MaxAttempts != 5 {
		t.Errorf("expected 5 attempts, got %d", rc.MaxAttempts)
	}
	if rc.InitialDelay != 50*time.Millisecond {
		t.Errorf("expected 50ms initial delay, got %v", rc.InitialDelay)
	}
	if rc.MaxElapsed != 5*time.Second {
		t.Errorf("expected 5s max elapsed, got %v", rc.MaxElapsed)
	}
	if rc.Multiplier != 3.0 {
		t.Errorf("expected multiplier 3.0, got %v", rc.Multiplier)
	}
}

func TestProfileConfigPath(t *testing.T) {
	tmpDir := t.TempDir()

	devPath := filepath.Join(tmpDir, "config.dev.yaml")
	if err := os.WriteFile(devPath, []byte("test"), 0644); err != nil {
		t.Fatalf("failed to create dev config: %v", err)
	}
	basePath := filepath.Join(tmpDir, "config.yaml")

	tests := []struct {
		name     string
		base     string
		profile  string
		wantPath string
	}{
		{name: "existing profile", base: basePath, profile: "dev", wantPath: devPath},
		{name: "nonexistent profile", base: basePath, profile: "prod", wantPath: ""},
		{name: "empty profile", base: basePath, profile: "", wantPath: ""},
		{name: "empty base", base: "", profile: "dev", wantPath: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := profileConfigPath(tc.base, tc.profile); got != tc.wantPath {
				t.Errorf("profileConfigPath(%q, %q) = %q, want %q", tc.base, tc.profile, got, tc.wantPath)
			}
		})
	}
}

func TestWatcherReload(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(path, []byte("llm:\n  provider: ollama\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	w, err := NewWatcher([]string{path}, WithWatchInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	if w.Config().LLM.Provider != "ollama" {
		t.Fatalf("unexpected initial provider %s", w.Config().LLM.Provider)
	}

	reloaded := make(chan *Config, 1)
	w.OnChange(func(cfg *Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	})
	w.Start(t.Context())
	defer w.Stop()

	// Force a newer mtime; coarse filesystem clocks need the nudge.
	time.Sleep(20 * time.Millisecond)
	if err := os.WriteFile(path, []byte("llm:\n  provider: mock\n"), 0644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
	now := time.Now().Add(time.Second)
	os.Chtimes(path, now, now)

	select {
	case cfg := <-reloaded:
		if cfg.LLM.Provider != "mock" {
			t.Errorf("expected reloaded provider mock, got %s", cfg.LLM.Provider)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watcher never reloaded")
	}
}
