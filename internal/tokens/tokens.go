// Package tokens counts input tokens for canonical requests. Counts feed the
// per-provider input budget check; an estimate is good enough when no exact
// tokenizer exists for a model.
package tokens

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/aistats/gateway/internal/core/domain"
)

// Count is the result of counting one request.
type Count struct {
	InputTokens int
	Estimated   bool
}

// Counter counts input tokens for a model it supports.
type Counter interface {
	SupportsModel(model string) bool
	CountInput(ctx context.Context, req *domain.ChatRequest) (Count, error)
}

// Registry picks the first registered counter that supports the model and
// falls back to estimation otherwise.
type Registry struct {
	counters []Counter
	fallback Counter
}

// NewRegistry creates a registry with the character estimator as fallback.
func NewRegistry(counters ...Counter) *Registry {
	return &Registry{counters: counters, fallback: NewEstimator()}
}

// CountInput counts the input tokens of req.
func (r *Registry) CountInput(ctx context.Context, req *domain.ChatRequest) (Count, error) {
	for _, c := range r.counters {
		if c.SupportsModel(req.Model) {
			return c.CountInput(ctx, req)
		}
	}
	return r.fallback.CountInput(ctx, req)
}

// Estimator approximates token counts from character length. Four characters
// per token is close enough across current models for a budget check.
type Estimator struct {
	CharsPerToken float64
}

// NewEstimator creates an estimator with the default ratio.
func NewEstimator() *Estimator {
	return &Estimator{CharsPerToken: 4.0}
}

func (e *Estimator) SupportsModel(string) bool { return true }

func (e *Estimator) CountInput(_ context.Context, req *domain.ChatRequest) (Count, error) {
	chars := len(req.Instructions)
	for _, m := range req.Messages {
		chars += len(m.Role) + 4
		for _, p := range m.Content {
			chars += len(p.Text)
		}
		for _, tc := range m.ToolCalls {
			chars += len(tc.Name) + len(tc.Arguments)
		}
		for _, tr := range m.ToolResults {
			chars += len(tr.Content)
		}
	}
	for _, t := range req.Tools {
		chars += len(t.Name) + len(t.Description) + 50
	}
	return Count{InputTokens: int(float64(chars) / e.CharsPerToken), Estimated: true}, nil
}

// modelMatcher matches model names against prefix and exact patterns.
type modelMatcher struct {
	prefixes []string
	exact    []string
}

func (m *modelMatcher) matches(model string) bool {
	for _, e := range m.exact {
		if model == e {
			return true
		}
	}
	for _, p := range m.prefixes {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}

func marshalLen(v any) string {
	if v == nil {
		return ""
	}
	b, _ := json.Marshal(v)
	return string(b)
}
