// Package capability implements the endpoint parameter registries and the
// capability matcher: the logic that decides whether a candidate provider
// supports a requested parameter path, honoring alias groups, nested paths,
// and code-first provider overrides.
package capability

import (
	"strings"

	"github.com/aistats/gateway/internal/core/domain"
)

// MatchOptions tunes matcher behavior per call site.
type MatchOptions struct {
	// AssumeSupportedOnMissingConfig controls the verdict when a provider
	// declares no capability metadata at all. Validation call sites keep
	// this false: a provider with unknown capabilities is never routed a
	// parameterized request on faith.
	AssumeSupportedOnMissingConfig bool
}

// ProviderSupportsParam decides whether a candidate supports a canonical
// parameter path. Overrides win over metadata; metadata is consulted exact
// key first, then through alias expansion of the root segment.
func ProviderSupportsParam(candidate domain.ProviderCandidate, paramPath string, opts MatchOptions) bool {
	if verdict, ok := resolveOverride(candidate.ProviderID, paramPath); ok {
		return verdict
	}

	params := candidate.CapabilityParams
	if !params.IsObject() || params.Len() == 0 {
		return opts.AssumeSupportedOnMissingConfig
	}

	if params.HasKey(paramPath) {
		return true
	}

	segments := splitPath(paramPath)
	if len(segments) == 0 {
		return false
	}
	root, rest := segments[0], segments[1:]

	for _, alias := range ExpandAliases(root) {
		if declared, ok := params.Get(alias); ok {
			if len(rest) == 0 {
				return true
			}
			if declared.IsObject() {
				// A nested object narrows the declaration to the
				// children it actually contains.
				if declared.HasPath(rest) {
					return true
				}
			} else {
				// A bare root declaration implies support for all
				// of the root's children.
				return true
			}
		}
		if len(rest) > 0 && params.HasKey(alias+"."+strings.Join(rest, ".")) {
			return true
		}
	}
	return false
}

// UnsupportedParams returns the subset of requestedParams the candidate does
// not support for the endpoint, skipping always-supported params.
func UnsupportedParams(endpoint domain.Endpoint, requestedParams []string, candidate domain.ProviderCandidate, opts MatchOptions) []string {
	var out []string
	for _, param := range requestedParams {
		if IsAlwaysSupported(endpoint, param) {
			continue
		}
		if !ProviderSupportsParam(candidate, param, opts) {
			out = append(out, param)
		}
	}
	return out
}
