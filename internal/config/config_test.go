package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleYAML = `
server:
  port: 9090
  request_timeout: 30s
audit:
  backend: sqlite
  path: /tmp/audit.db
debug:
  verbose: true
models:
  - name: gpt-4o
    candidates:
      - provider: openai
        slug: gpt-4o-2024-08-06
        max_output_tokens: 16384
        capability_params:
          temperature: true
          reasoning:
            effort: true
        input_modalities: [text, image]
providers:
  - name: openai
    base_url: https://api.openai.com/v1
`

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.RequestTimeout != 30*time.Second {
		t.Errorf("request_timeout = %v, want 30s", cfg.Server.RequestTimeout)
	}
	if cfg.Audit.Backend != "sqlite" || cfg.Audit.Path != "/tmp/audit.db" {
		t.Errorf("audit = %+v", cfg.Audit)
	}
	if !cfg.Debug.Verbose {
		t.Error("debug.verbose should be true")
	}

	if len(cfg.Models) != 1 {
		t.Fatalf("models = %d, want 1", len(cfg.Models))
	}
	m := cfg.Models[0]
	if m.Name != "gpt-4o" || len(m.Candidates) != 1 {
		t.Fatalf("model = %+v", m)
	}
	c := m.Candidates[0]
	if c.Provider != "openai" || c.Slug != "gpt-4o-2024-08-06" {
		t.Errorf("candidate = %+v", c)
	}
	if c.MaxOutputTokens == nil || *c.MaxOutputTokens != 16384 {
		t.Errorf("max_output_tokens = %v", c.MaxOutputTokens)
	}
	if c.MaxInputTokens != nil {
		t.Error("max_input_tokens should stay nil when omitted")
	}
	if _, ok := c.CapabilityParams["reasoning"]; !ok {
		t.Error("nested capability_params lost")
	}
	if len(c.InputModalities) != 2 {
		t.Errorf("input_modalities = %v", c.InputModalities)
	}

	if len(cfg.Providers) != 1 || cfg.Providers[0].Name != "openai" {
		t.Errorf("providers = %+v", cfg.Providers)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.RequestTimeout != 120*time.Second {
		t.Errorf("default request_timeout = %v, want 120s", cfg.Server.RequestTimeout)
	}
	if cfg.Audit.Backend != "memory" {
		t.Errorf("default audit backend = %q, want memory", cfg.Audit.Backend)
	}
	if cfg.Debug.Verbose {
		t.Error("debug.verbose should default to false")
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	t.Setenv("GW_SERVER_PORT", "7070")
	t.Setenv("GW_DEBUG_VERBOSE", "false")

	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("port = %d, want env override 7070", cfg.Server.Port)
	}
	if cfg.Debug.Verbose {
		t.Error("env should override debug.verbose to false")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
