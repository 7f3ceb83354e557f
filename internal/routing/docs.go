package routing

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/aistats/gateway/internal/core/domain"
)

// docsRule rejects a request-body field on providers whose published API
// documentation does not accept it, even when the capability metadata claims
// otherwise. Rules are matched by provider ID and, optionally, a model slug
// substring for model-tier restrictions.
type docsRule struct {
	providerID    string
	field         string
	modelContains string
}

var docsRules = []docsRule{
	{providerID: "anthropic", field: "frequency_penalty"},
	{providerID: "anthropic", field: "presence_penalty"},
	{providerID: "anthropic", field: "logit_bias"},
	{providerID: "anthropic", field: "seed"},
	{providerID: "anthropic", field: "logprobs"},
	{providerID: "google", field: "logit_bias"},
	{providerID: "mistral", field: "logit_bias"},

	// Reasoning-tier models accept neither sampling knobs nor penalties.
	{providerID: "openai", field: "temperature", modelContains: "o1"},
	{providerID: "openai", field: "top_p", modelContains: "o1"},
	{providerID: "openai", field: "presence_penalty", modelContains: "o1"},
	{providerID: "openai", field: "frequency_penalty", modelContains: "o1"},
	{providerID: "openai", field: "temperature", modelContains: "o3"},
	{providerID: "openai", field: "top_p", modelContains: "o3"},
	{providerID: "openai", field: "presence_penalty", modelContains: "o3"},
	{providerID: "openai", field: "frequency_penalty", modelContains: "o3"},
}

type docsViolation struct {
	providerID string
	field      string
}

func (v docsViolation) detail() domain.ErrorDetail {
	return domain.ErrorDetail{
		Message: fmt.Sprintf("Provider %q does not accept parameter %q", v.providerID, v.field),
		Path:    []string{v.field},
		Keyword: domain.KeywordProviderDocsViolation,
		Params:  map[string]any{"param": v.field, "provider": v.providerID},
	}
}

func providerDocsViolations(raw []byte, model string, candidate domain.ProviderCandidate) []docsViolation {
	var out []docsViolation
	for _, rule := range docsRules {
		if rule.providerID != candidate.ProviderID {
			continue
		}
		if rule.modelContains != "" && !containsFold(model, rule.modelContains) && !containsFold(candidate.ModelSlug, rule.modelContains) {
			continue
		}
		if gjson.GetBytes(raw, rule.field).Exists() {
			out = append(out, docsViolation{providerID: candidate.ProviderID, field: rule.field})
		}
	}
	return out
}

// filterByProviderDocs removes candidates whose documentation forbids a field
// present in the request. The stage never empties the pool silently: when
// every candidate violates a rule the request as a whole is rejected and the
// violations are returned for the error response.
func filterByProviderDocs(raw []byte, model string, providers []domain.ProviderCandidate) (kept []domain.ProviderCandidate, violations []docsViolation) {
	kept = make([]domain.ProviderCandidate, 0, len(providers))
	for _, p := range providers {
		v := providerDocsViolations(raw, model, p)
		if len(v) == 0 {
			kept = append(kept, p)
			continue
		}
		violations = append(violations, v...)
	}
	if len(kept) == 0 && len(providers) > 0 {
		return nil, violations
	}
	return kept, nil
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
