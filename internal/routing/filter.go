// Package routing narrows a model's provider pool to the candidates that can
// honor the request as written. Six stages run in a fixed order; each stage
// records what it dropped so a rejected or surprising route can be explained
// after the fact.
package routing

import (
	"fmt"

	"github.com/aistats/gateway/internal/capability"
	"github.com/aistats/gateway/internal/core/domain"
)

// Request is the input to one filter run. RawBody is the undecoded request
// payload; stages read it directly so normalization cannot mask fields the
// client actually sent.
type Request struct {
	Endpoint  domain.Endpoint
	RawBody   []byte
	Model     string
	RequestID string
	TeamID    string
	Providers []domain.ProviderCandidate
	Match     capability.MatchOptions
}

// Result is a successful filter run: a non-empty, order-preserving provider
// list plus the diagnostics describing how the pool was narrowed.
type Result struct {
	Providers       []domain.ProviderCandidate
	RequestedParams []string
	Diagnostics     domain.ParamRoutingDiagnostics
}

// Filter runs the six-stage provider filter. It returns either a Result with
// at least one provider, or a terminal *ErrorResponse; never both, never
// neither.
func Filter(req Request) (*Result, *domain.ErrorResponse) {
	if _, ok := capability.RegistryFor(req.Endpoint); !ok {
		// Media endpoints bypass parameter routing entirely.
		return &Result{
			Providers:       req.Providers,
			RequestedParams: []string{},
			Diagnostics:     emptyDiagnostics(req.Providers),
		}, nil
	}

	// Stage 1: param_support. Unknown top-level keys are a schema error, not
	// a routing decision.
	if unknown := capability.UnknownTopLevelParams(req.Endpoint, req.RawBody); len(unknown) > 0 {
		details := make([]domain.ErrorDetail, 0, len(unknown))
		for _, param := range unknown {
			details = append(details, domain.ErrorDetail{
				Message: fmt.Sprintf("Unknown parameter: %q", param),
				Path:    []string{param},
				Keyword: domain.KeywordUnknownParam,
				Params:  map[string]any{"param": param, "model": req.Model},
			})
		}
		return nil, domain.NewValidationError(details, req.RequestID, req.TeamID)
	}

	requested := capability.ExtractRequestedParams(req.Endpoint, req.RawBody)
	support := buildSupportMap(req.Endpoint, requested, req.Providers, req.Match)

	initial := req.Providers
	pool := initial
	stages := []domain.StageRecord{}
	stages = recordStage(stages, domain.StageParamSupport, pool, pool)

	// Stage 2: param_preference.
	preferred := filterByPreference(pool, support)
	stages = recordStage(stages, domain.StageParamPreference, pool, preferred)
	pool = preferred

	// Stage 3: provider_docs. An emptied pool fails the request rather than
	// letting a later stage report a misleading cause.
	docsKept, violations := filterByProviderDocs(req.RawBody, req.Model, pool)
	if len(violations) > 0 {
		details := make([]domain.ErrorDetail, 0, len(violations))
		for _, v := range violations {
			details = append(details, v.detail())
		}
		return nil, domain.NewValidationError(details, req.RequestID, req.TeamID)
	}
	stages = recordStage(stages, domain.StageProviderDocs, pool, docsKept)
	pool = docsKept

	// Stages 4 and 5 are structural extension points; response_format and
	// structured_outputs shape errors are caught by the IR contract, so the
	// stages pass the pool through while still appearing in diagnostics.
	stages = recordStage(stages, domain.StageResponseFormat, pool, pool)
	stages = recordStage(stages, domain.StageStructuredOutputs, pool, pool)

	// Stage 6: token_limits.
	tokenKept, exceeded, budget, budgetSet := filterByTokenLimits(req.RawBody, pool)
	if budgetSet && len(tokenKept) == 0 {
		return nil, domain.NewValidationError(maxTokensExceededDetails(req.Model, budget, exceeded), req.RequestID, req.TeamID)
	}
	stages = recordStage(stages, domain.StageTokenLimits, pool, tokenKept)
	pool = tokenKept

	if len(pool) == 0 {
		// Only reachable when the model had no providers to begin with.
		return nil, domain.NewValidationError([]domain.ErrorDetail{{
			Message: fmt.Sprintf("No providers are configured for model %q", req.Model),
			Path:    []string{"model"},
			Keyword: domain.KeywordUnsupportedParam,
			Params:  map[string]any{"model": req.Model},
		}}, req.RequestID, req.TeamID)
	}

	// Hard check: a requested param no surviving provider supports can never
	// be honored, so the request fails with the precise param named instead
	// of being silently dropped upstream.
	if details := unsupportedParamDetails(req.Model, requested, pool, support); len(details) > 0 {
		return nil, domain.NewValidationError(details, req.RequestID, req.TeamID)
	}

	return &Result{
		Providers:       pool,
		RequestedParams: requested,
		Diagnostics: domain.ParamRoutingDiagnostics{
			RequestedParams:     requested,
			UnknownParams:       []string{},
			ProviderCountBefore: len(domain.ProviderIDs(initial)),
			ProviderCountAfter:  len(domain.ProviderIDs(pool)),
			PerParamSupport:     support.perParamSupport(),
			DroppedProviders:    support.droppedProviders(initial, pool),
			FilteringStages:     stages,
		},
	}, nil
}

func buildSupportMap(endpoint domain.Endpoint, requested []string, providers []domain.ProviderCandidate, opts capability.MatchOptions) *supportMap {
	m := &supportMap{params: requested, rows: make(map[string][]providerSupport, len(requested))}
	for _, param := range requested {
		always := capability.IsAlwaysSupported(endpoint, param)
		rows := make([]providerSupport, 0, len(providers))
		seen := make(map[string]struct{}, len(providers))
		for _, p := range providers {
			if _, dup := seen[p.ProviderID]; dup {
				continue
			}
			seen[p.ProviderID] = struct{}{}
			rows = append(rows, providerSupport{
				providerID: p.ProviderID,
				supported:  always || capability.ProviderSupportsParam(p, param, opts),
			})
		}
		m.rows[param] = rows
	}
	return m
}

func unsupportedParamDetails(model string, requested []string, pool []domain.ProviderCandidate, support *supportMap) []domain.ErrorDetail {
	var details []domain.ErrorDetail
	for _, param := range requested {
		supported := false
		for _, id := range domain.ProviderIDs(pool) {
			if support.supports(param, id) {
				supported = true
				break
			}
		}
		if supported {
			continue
		}
		details = append(details, domain.ErrorDetail{
			Message: fmt.Sprintf("No provider for model %q supports parameter: %s", model, param),
			Path:    []string{param},
			Keyword: domain.KeywordUnsupportedParam,
			Params:  map[string]any{"param": param, "model": model},
		})
	}
	return details
}

func emptyDiagnostics(providers []domain.ProviderCandidate) domain.ParamRoutingDiagnostics {
	n := len(domain.ProviderIDs(providers))
	return domain.ParamRoutingDiagnostics{
		RequestedParams:     []string{},
		UnknownParams:       []string{},
		ProviderCountBefore: n,
		ProviderCountAfter:  n,
		PerParamSupport:     []domain.ParamSupport{},
		DroppedProviders:    []domain.DroppedProvider{},
		FilteringStages:     []domain.StageRecord{},
	}
}
