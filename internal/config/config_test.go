package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
debug: true
server:
  host: 0.0.0.0
  port: 9090
chunking:
  max_size: 800
  overlap: 100
retrieval:
  top_k: 4
  similarity_threshold: 0.3
session:
  idle_timeout: 45m
  sweep_interval: 1m
embedding:
  provider: mock
  dimensions: 128
llm:
  provider: mock
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("Debug should be true")
	}
	if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 9090 {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.Chunking.MaxSize != 800 || cfg.Chunking.Overlap != 100 {
		t.Errorf("Chunking = %+v", cfg.Chunking)
	}
	if cfg.Retrieval.TopK != 4 || cfg.Retrieval.SimilarityThreshold != 0.3 {
		t.Errorf("Retrieval = %+v", cfg.Retrieval)
	}
	if cfg.Session.IdleTimeout.Std() != 45*time.Minute {
		t.Errorf("IdleTimeout = %v", cfg.Session.IdleTimeout.Std())
	}
	if cfg.Embedding.Provider != "mock" || cfg.Embedding.Dimensions != 128 {
		t.Errorf("Embedding = %+v", cfg.Embedding)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "debug: false\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Port = %d", cfg.Server.Port)
	}
	if cfg.Chunking.MaxSize != 1200 || cfg.Chunking.Overlap != 150 {
		t.Errorf("Chunking defaults = %+v", cfg.Chunking)
	}
	if cfg.Retrieval.TopK != 8 || cfg.Retrieval.SimilarityThreshold != 0.25 || cfg.Retrieval.ContextBudget != 6000 {
		t.Errorf("Retrieval defaults = %+v", cfg.Retrieval)
	}
	if cfg.Session.IdleTimeout.Std() != 30*time.Minute || cfg.Session.HistoryDepth != 3 {
		t.Errorf("Session defaults = %+v", cfg.Session)
	}
	if cfg.Embedding.Provider != "ollama" || cfg.Embedding.Dimensions != 768 {
		t.Errorf("Embedding defaults = %+v", cfg.Embedding)
	}
	if cfg.LLM.Model != "llama3" || cfg.LLM.MaxTokens != 512 {
		t.Errorf("LLM defaults = %+v", cfg.LLM)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "server: [not a map\n")); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	_, err := Load(writeConfig(t, "session:\n  idle_timeout: soon\n"))
	if err == nil || !strings.Contains(err.Error(), "invalid duration") {
		t.Errorf("expected invalid duration error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		ApplyDefaults(cfg)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"overlap >= max_size", func(c *Config) { c.Chunking.Overlap = c.Chunking.MaxSize }, "overlap"},
		{"negative threshold", func(c *Config) { c.Retrieval.SimilarityThreshold = -0.1 }, "similarity_threshold"},
		{"threshold above one", func(c *Config) { c.Retrieval.SimilarityThreshold = 1.5 }, "similarity_threshold"},
		{"zero dimensions", func(c *Config) { c.Embedding.Dimensions = -1 }, "dimensions"},
		{"zero budget", func(c *Config) { c.Retrieval.ContextBudget = -5 }, "context_budget"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("got %v, want error mentioning %q", err, tt.wantErr)
			}
		})
	}
}
