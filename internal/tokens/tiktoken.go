package tokens

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/tiktoken-go/tokenizer"

	"github.com/aistats/gateway/internal/core/domain"
)

// TiktokenCounter provides exact token counts for OpenAI-family models.
type TiktokenCounter struct {
	matcher *modelMatcher

	cacheMu    sync.RWMutex
	codecCache map[tokenizer.Encoding]tokenizer.Codec
}

// NewTiktokenCounter creates a tiktoken-backed counter.
func NewTiktokenCounter() *TiktokenCounter {
	return &TiktokenCounter{
		matcher: &modelMatcher{
			prefixes: []string{"gpt-", "o1", "o3", "o4", "text-embedding"},
			exact:    []string{"davinci", "curie", "babbage", "ada"},
		},
		codecCache: make(map[tokenizer.Encoding]tokenizer.Codec),
	}
}

// SupportsModel reports whether the model uses a tiktoken encoding.
func (c *TiktokenCounter) SupportsModel(model string) bool {
	return c.matcher.matches(strings.ToLower(model))
}

func (c *TiktokenCounter) getCodec(model string) (tokenizer.Codec, error) {
	if codec, err := tokenizer.ForModel(tokenizer.Model(model)); err == nil {
		return codec, nil
	}

	encoding := encodingFor(model)

	c.cacheMu.RLock()
	if codec, ok := c.codecCache[encoding]; ok {
		c.cacheMu.RUnlock()
		return codec, nil
	}
	c.cacheMu.RUnlock()

	codec, err := tokenizer.Get(encoding)
	if err != nil {
		return nil, fmt.Errorf("get tokenizer encoding %q: %w", encoding, err)
	}

	c.cacheMu.Lock()
	c.codecCache[encoding] = codec
	c.cacheMu.Unlock()
	return codec, nil
}

func encodingFor(model string) tokenizer.Encoding {
	model = strings.ToLower(model)
	switch {
	case strings.HasPrefix(model, "gpt-5"),
		strings.HasPrefix(model, "gpt-4o"),
		strings.HasPrefix(model, "gpt-4.1"),
		strings.HasPrefix(model, "o1"),
		strings.HasPrefix(model, "o3"),
		strings.HasPrefix(model, "o4"):
		return tokenizer.O200kBase
	case strings.HasPrefix(model, "gpt-4"), strings.HasPrefix(model, "gpt-3.5"),
		strings.HasPrefix(model, "text-embedding"):
		return tokenizer.Cl100kBase
	case strings.HasPrefix(model, "text-davinci"):
		return tokenizer.P50kBase
	case model == "davinci" || model == "curie" || model == "babbage" || model == "ada":
		return tokenizer.R50kBase
	default:
		return tokenizer.O200kBase
	}
}

// CountInput counts the input tokens of req. Per-message overhead follows the
// published chat format: 3 tokens per message, 1 for the role, 3 for the
// assistant priming at the end.
func (c *TiktokenCounter) CountInput(_ context.Context, req *domain.ChatRequest) (Count, error) {
	codec, err := c.getCodec(req.Model)
	if err != nil {
		return Count{}, err
	}

	count := func(s string) int {
		ids, _, _ := codec.Encode(s)
		return len(ids)
	}

	total := 0
	if req.Instructions != "" {
		total += 4 + count(req.Instructions)
	}
	for _, m := range req.Messages {
		total += 3 + 1
		for _, p := range m.Content {
			if p.Type == domain.ContentText || p.Type == domain.ContentReasoning {
				total += count(p.Text)
			}
		}
		for _, tc := range m.ToolCalls {
			total += count(tc.Name) + count(tc.Arguments) + 3
		}
		for _, tr := range m.ToolResults {
			total += count(tr.Content) + 2
		}
	}
	for _, t := range req.Tools {
		total += count(t.Name) + count(t.Description)
		if t.Parameters != nil {
			total += count(marshalLen(t.Parameters))
		}
		total += 7
	}
	total += 3

	return Count{InputTokens: total, Estimated: false}, nil
}
