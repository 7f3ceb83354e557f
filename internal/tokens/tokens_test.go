package tokens

import (
	"context"
	"testing"

	"github.com/aistats/gateway/internal/core/domain"
)

func TestEstimatorScalesWithContent(t *testing.T) {
	short := &domain.ChatRequest{
		Model:    "some-model",
		Messages: []domain.Message{domain.TextMessage("user", "hi")},
	}
	long := &domain.ChatRequest{
		Model: "some-model",
		Messages: []domain.Message{
			domain.TextMessage("user", "this is a considerably longer message that should cost more tokens than a greeting"),
		},
	}

	e := NewEstimator()
	shortCount, err := e.CountInput(context.Background(), short)
	if err != nil {
		t.Fatalf("CountInput: %v", err)
	}
	longCount, _ := e.CountInput(context.Background(), long)
	if shortCount.InputTokens >= longCount.InputTokens {
		t.Fatalf("short %d >= long %d", shortCount.InputTokens, longCount.InputTokens)
	}
	if !shortCount.Estimated {
		t.Fatal("estimator must mark counts as estimated")
	}
}

func TestTiktokenCounterSupportsModel(t *testing.T) {
	c := NewTiktokenCounter()
	for model, want := range map[string]bool{
		"gpt-4o":          true,
		"gpt-5-mini":      true,
		"o3-mini":         true,
		"davinci":         true,
		"claude-sonnet-4": false,
		"gemini-2.5-pro":  false,
	} {
		if got := c.SupportsModel(model); got != want {
			t.Fatalf("SupportsModel(%q) = %v, want %v", model, got, want)
		}
	}
}

func TestTiktokenCounterCountsInput(t *testing.T) {
	c := NewTiktokenCounter()
	req := &domain.ChatRequest{
		Model: "gpt-4o",
		Messages: []domain.Message{
			domain.TextMessage("system", "be brief"),
			domain.TextMessage("user", "what is the capital of France?"),
		},
	}

	count, err := c.CountInput(context.Background(), req)
	if err != nil {
		t.Fatalf("CountInput: %v", err)
	}
	if count.Estimated {
		t.Fatal("tiktoken counts must not be marked estimated")
	}
	// Exact value depends on the encoding; it must at least cover the
	// per-message overhead plus some content tokens.
	if count.InputTokens < 10 {
		t.Fatalf("InputTokens = %d, implausibly low", count.InputTokens)
	}
}

func TestRegistryFallsBackToEstimator(t *testing.T) {
	r := NewRegistry(NewTiktokenCounter())
	req := &domain.ChatRequest{
		Model:    "claude-sonnet-4",
		Messages: []domain.Message{domain.TextMessage("user", "hello there")},
	}

	count, err := r.CountInput(context.Background(), req)
	if err != nil {
		t.Fatalf("CountInput: %v", err)
	}
	if !count.Estimated {
		t.Fatal("non-tiktoken model must fall back to the estimator")
	}
}
