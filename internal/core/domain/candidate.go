package domain

import "github.com/aistats/gateway/internal/capvalue"

// ProviderCandidate is one upstream provider that could serve the current
// request. Candidates are built fresh per request from the provider registry
// snapshot and are read-only inside the routing pipeline.
type ProviderCandidate struct {
	ProviderID string `json:"providerId"`

	// CapabilityParams is the provider's declared parameter-support tree.
	// Keys may be flat ("temperature"), dotted ("reasoning.effort"), or
	// nested objects. An absent/empty tree means support is unknown.
	CapabilityParams capvalue.Value `json:"capabilityParams,omitempty"`

	// MaxOutputTokens is the provider's output-token ceiling, when declared.
	MaxOutputTokens *int `json:"maxOutputTokens,omitempty"`

	// MaxInputTokens is the provider's prompt-token ceiling, when declared.
	MaxInputTokens *int `json:"maxInputTokens,omitempty"`

	// ModelSlug is the provider-native model identifier, when it differs
	// from the gateway model ID.
	ModelSlug string `json:"providerModelSlug,omitempty"`

	InputModalities  []string `json:"inputModalities,omitempty"`
	OutputModalities []string `json:"outputModalities,omitempty"`
}

// ProviderIDs returns the candidate IDs in order, deduplicated by identity.
// Diagnostics record providers by ID, never by object reference, so stage
// records stay stable when later stages rebuild candidate slices.
func ProviderIDs(candidates []ProviderCandidate) []string {
	seen := make(map[string]struct{}, len(candidates))
	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c.ProviderID == "" {
			continue
		}
		if _, dup := seen[c.ProviderID]; dup {
			continue
		}
		seen[c.ProviderID] = struct{}{}
		ids = append(ids, c.ProviderID)
	}
	return ids
}
