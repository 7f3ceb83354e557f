package routing

import "github.com/aistats/gateway/internal/core/domain"

// filterByPreference keeps the providers tied for the fewest unsupported
// requested params. The filter is soft: when even the best provider supports
// none of the requested params the full pool is returned untouched, leaving
// the hard unsupported-param check to produce a precise error instead of an
// empty-pool failure.
func filterByPreference(providers []domain.ProviderCandidate, support *supportMap) []domain.ProviderCandidate {
	if len(support.params) == 0 || len(providers) == 0 {
		return providers
	}

	counts := make(map[string]int, len(providers))
	minUnsupported := -1
	for _, id := range domain.ProviderIDs(providers) {
		n := 0
		for _, param := range support.params {
			if !support.supports(param, id) {
				n++
			}
		}
		counts[id] = n
		if minUnsupported < 0 || n < minUnsupported {
			minUnsupported = n
		}
	}

	if minUnsupported >= len(support.params) {
		return providers
	}

	kept := make([]domain.ProviderCandidate, 0, len(providers))
	for _, p := range providers {
		if counts[p.ProviderID] == minUnsupported {
			kept = append(kept, p)
		}
	}
	return kept
}
