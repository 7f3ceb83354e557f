// Package config loads gateway configuration from a YAML file and GW_
// prefixed environment variables. Environment values override file values.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server    ServerConfig     `koanf:"server"`
	Audit     AuditConfig      `koanf:"audit"`
	Debug     DebugConfig      `koanf:"debug"`
	Models    []ModelConfig    `koanf:"models"`
	Providers []ProviderConfig `koanf:"providers"`
}

type ServerConfig struct {
	Port           int           `koanf:"port"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

type AuditConfig struct {
	// Backend is "memory" or "sqlite".
	Backend string `koanf:"backend"`
	Path    string `koanf:"path"`
}

type DebugConfig struct {
	// Verbose attaches contract issues and raw error messages to error
	// responses. Keep off outside development.
	Verbose bool `koanf:"verbose"`
}

// ModelConfig maps a public model name to provider candidates, in preference
// order.
type ModelConfig struct {
	Name       string            `koanf:"name"`
	Candidates []CandidateConfig `koanf:"candidates"`
}

type CandidateConfig struct {
	Provider         string         `koanf:"provider"`
	Slug             string         `koanf:"slug"`
	CapabilityParams map[string]any `koanf:"capability_params"`
	MaxOutputTokens  *int           `koanf:"max_output_tokens"`
	MaxInputTokens   *int           `koanf:"max_input_tokens"`
	InputModalities  []string       `koanf:"input_modalities"`
	OutputModalities []string       `koanf:"output_modalities"`
}

type ProviderConfig struct {
	Name    string `koanf:"name"`
	BaseURL string `koanf:"base_url"`
	APIKey  string `koanf:"api_key"`
}

// Load reads configuration from path (optional) and the environment.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("GW_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "GW_")), "_", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if !k.Exists("server.port") {
		k.Set("server.port", 8080)
	}
	if !k.Exists("server.request_timeout") {
		k.Set("server.request_timeout", "120s")
	}
	if !k.Exists("audit.backend") {
		k.Set("audit.backend", "memory")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
