package routing

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/aistats/gateway/internal/core/domain"
)

// requestedMaxTokens reads the requested output-token budget from the raw
// body. Both the chat completions spelling and the responses spelling are
// honored; non-positive and non-numeric values are ignored.
func requestedMaxTokens(raw []byte) (int, bool) {
	for _, field := range []string{"max_tokens", "max_output_tokens", "max_completion_tokens"} {
		v := gjson.GetBytes(raw, field)
		if v.Type == gjson.Number {
			if n := int(v.Int()); n > 0 {
				return n, true
			}
		}
	}
	return 0, false
}

// filterByTokenLimits drops candidates whose configured output ceiling is
// below the requested budget. Candidates with no configured ceiling always
// pass. Applying the filter twice with the same budget is a no-op.
func filterByTokenLimits(raw []byte, providers []domain.ProviderCandidate) (kept []domain.ProviderCandidate, exceeded []domain.ProviderCandidate, budget int, requested bool) {
	budget, requested = requestedMaxTokens(raw)
	if !requested {
		return providers, nil, 0, false
	}
	kept = make([]domain.ProviderCandidate, 0, len(providers))
	for _, p := range providers {
		if p.MaxOutputTokens != nil && *p.MaxOutputTokens < budget {
			exceeded = append(exceeded, p)
			continue
		}
		kept = append(kept, p)
	}
	return kept, exceeded, budget, true
}

func maxTokensExceededDetails(model string, budget int, exceeded []domain.ProviderCandidate) []domain.ErrorDetail {
	details := make([]domain.ErrorDetail, 0, len(exceeded))
	for _, p := range exceeded {
		limit := 0
		if p.MaxOutputTokens != nil {
			limit = *p.MaxOutputTokens
		}
		details = append(details, domain.ErrorDetail{
			Message: fmt.Sprintf("max_tokens %d exceeds the %d token limit of provider %q for model %q", budget, limit, p.ProviderID, model),
			Path:    []string{"max_tokens"},
			Keyword: domain.KeywordMaxTokensExceeded,
			Params: map[string]any{
				"requested": budget,
				"limit":     limit,
				"provider":  p.ProviderID,
			},
		})
	}
	return details
}
