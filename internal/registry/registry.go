// Package registry holds the model-to-provider routing table. Snapshots are
// immutable; reloads build a fresh snapshot and swap it atomically so
// in-flight requests keep a consistent view.
package registry

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/knadh/koanf/providers/file"

	"github.com/aistats/gateway/internal/capvalue"
	"github.com/aistats/gateway/internal/config"
	"github.com/aistats/gateway/internal/core/domain"
)

// Snapshot is one immutable routing table.
type Snapshot struct {
	models map[string][]domain.ProviderCandidate
}

// Candidates returns the provider candidates for model, in preference order.
func (s *Snapshot) Candidates(model string) ([]domain.ProviderCandidate, bool) {
	c, ok := s.models[model]
	return c, ok
}

// Models returns the configured model names.
func (s *Snapshot) Models() []string {
	out := make([]string, 0, len(s.models))
	for name := range s.models {
		out = append(out, name)
	}
	return out
}

// Registry serves the current snapshot and accepts atomic swaps.
type Registry struct {
	current atomic.Pointer[Snapshot]
	logger  *slog.Logger
}

// New creates a registry seeded from models.
func New(models []config.ModelConfig, logger *slog.Logger) *Registry {
	r := &Registry{logger: logger}
	r.Swap(models)
	return r
}

// Current returns the active snapshot. The caller must not retain it across
// requests if it wants to observe reloads.
func (r *Registry) Current() *Snapshot {
	return r.current.Load()
}

// Swap replaces the active snapshot with one built from models.
func (r *Registry) Swap(models []config.ModelConfig) {
	snap := buildSnapshot(models)
	r.current.Store(snap)
	r.logger.Info("routing table swapped", slog.Int("models", len(snap.models)))
}

func buildSnapshot(models []config.ModelConfig) *Snapshot {
	snap := &Snapshot{models: make(map[string][]domain.ProviderCandidate, len(models))}
	for _, m := range models {
		candidates := make([]domain.ProviderCandidate, 0, len(m.Candidates))
		for _, c := range m.Candidates {
			candidates = append(candidates, domain.ProviderCandidate{
				ProviderID:       c.Provider,
				ModelSlug:        c.Slug,
				CapabilityParams: capvalue.FromAny(c.CapabilityParams),
				MaxOutputTokens:  c.MaxOutputTokens,
				MaxInputTokens:   c.MaxInputTokens,
				InputModalities:  c.InputModalities,
				OutputModalities: c.OutputModalities,
			})
		}
		snap.models[m.Name] = candidates
	}
	return snap
}

// Watch reloads the routing table whenever the config file at path changes.
// A reload that fails to parse keeps the previous snapshot.
func (r *Registry) Watch(path string) error {
	f := file.Provider(path)
	err := f.Watch(func(event interface{}, err error) {
		if err != nil {
			r.logger.Error("config watch error", slog.String("error", err.Error()))
			return
		}
		cfg, err := config.Load(path)
		if err != nil {
			r.logger.Error("config reload failed, keeping previous routing table",
				slog.String("error", err.Error()))
			return
		}
		r.Swap(cfg.Models)
	})
	if err != nil {
		return fmt.Errorf("watch config file %s: %w", path, err)
	}
	return nil
}
