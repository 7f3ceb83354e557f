package routing

import (
	"testing"

	"github.com/aistats/gateway/internal/capability"
	"github.com/aistats/gateway/internal/capvalue"
	"github.com/aistats/gateway/internal/core/domain"
)

func candidate(t *testing.T, id string, caps map[string]any) domain.ProviderCandidate {
	t.Helper()
	return domain.ProviderCandidate{
		ProviderID:       id,
		CapabilityParams: capvalue.FromAny(caps),
	}
}

func chatRequest(body string, providers ...domain.ProviderCandidate) Request {
	return Request{
		Endpoint:  domain.EndpointChatCompletions,
		RawBody:   []byte(body),
		Model:     "test-model",
		RequestID: "req_1",
		TeamID:    "team_1",
		Providers: providers,
	}
}

func TestFilterUnknownParamRejected(t *testing.T) {
	req := chatRequest(
		`{"model":"test-model","messages":[],"banana":1}`,
		candidate(t, "openai", map[string]any{"temperature": map[string]any{}}),
	)

	res, errResp := Filter(req)
	if res != nil {
		t.Fatalf("expected terminal error, got result with %d providers", len(res.Providers))
	}
	if errResp.Code != domain.ErrCodeValidation {
		t.Fatalf("code = %q, want %q", errResp.Code, domain.ErrCodeValidation)
	}
	if len(errResp.Details) != 1 || errResp.Details[0].Keyword != domain.KeywordUnknownParam {
		t.Fatalf("details = %+v, want one unknown_param detail", errResp.Details)
	}
	if errResp.Details[0].Path[0] != "banana" {
		t.Fatalf("path = %v, want [banana]", errResp.Details[0].Path)
	}
	params := errResp.Details[0].Params
	if params["param"] != "banana" || params["model"] != "test-model" {
		t.Fatalf("params = %v, want param and model named", params)
	}
	if errResp.RequestID != "req_1" || errResp.TeamID != "team_1" {
		t.Fatalf("identity not echoed: %+v", errResp)
	}
}

func TestFilterUnsupportedParamNeverSucceeds(t *testing.T) {
	// Both providers support temperature, neither supports logprobs. The
	// preference stage must not mask the conflict.
	a := candidate(t, "a", map[string]any{"temperature": map[string]any{}})
	b := candidate(t, "b", map[string]any{"temperature": map[string]any{}})
	req := chatRequest(`{"model":"test-model","messages":[],"temperature":0.2,"logprobs":true}`, a, b)

	res, errResp := Filter(req)
	if res != nil {
		t.Fatal("request with an unsupportable param must not succeed")
	}
	if errResp.Code != domain.ErrCodeValidation {
		t.Fatalf("code = %q", errResp.Code)
	}
	found := false
	for _, d := range errResp.Details {
		if d.Keyword == domain.KeywordUnsupportedParam && d.Path[0] == "logprobs" {
			found = true
		}
	}
	if !found {
		t.Fatalf("details %+v missing unsupported_param for logprobs", errResp.Details)
	}
}

func TestFilterPreferenceKeepsBestSupporters(t *testing.T) {
	full := candidate(t, "full", map[string]any{
		"temperature": map[string]any{},
		"top_p":       map[string]any{},
	})
	partial := candidate(t, "partial", map[string]any{
		"temperature": map[string]any{},
	})
	req := chatRequest(`{"model":"test-model","messages":[],"temperature":0.5,"top_p":0.9}`, full, partial)

	res, errResp := Filter(req)
	if errResp != nil {
		t.Fatalf("unexpected error: %v", errResp)
	}
	ids := domain.ProviderIDs(res.Providers)
	if len(ids) != 1 || ids[0] != "full" {
		t.Fatalf("providers = %v, want [full]", ids)
	}

	dropped := res.Diagnostics.DroppedProviders
	if len(dropped) != 1 || dropped[0].ProviderID != "partial" {
		t.Fatalf("droppedProviders = %+v, want partial", dropped)
	}
	if len(dropped[0].UnsupportedParams) != 1 || dropped[0].UnsupportedParams[0] != "top_p" {
		t.Fatalf("unsupportedParams = %v, want [top_p]", dropped[0].UnsupportedParams)
	}
}

func TestFilterPreferenceFallsBackToFullPool(t *testing.T) {
	// Nobody supports the only requested param. The soft stage must keep the
	// pool intact so the hard check can name the param.
	a := candidate(t, "a", map[string]any{"top_p": map[string]any{}})
	b := candidate(t, "b", map[string]any{"top_p": map[string]any{}})
	support := buildSupportMap(domain.EndpointChatCompletions, []string{"seed"},
		[]domain.ProviderCandidate{a, b}, capability.MatchOptions{})

	kept := filterByPreference([]domain.ProviderCandidate{a, b}, support)
	if len(kept) != 2 {
		t.Fatalf("kept %d providers, want full pool of 2", len(kept))
	}
}

func TestFilterProviderDocsDropsViolator(t *testing.T) {
	anthropic := candidate(t, "anthropic", map[string]any{
		"frequency_penalty": map[string]any{},
		"temperature":       map[string]any{},
	})
	openai := candidate(t, "openai", map[string]any{
		"frequency_penalty": map[string]any{},
		"temperature":       map[string]any{},
	})
	req := chatRequest(`{"model":"test-model","messages":[],"frequency_penalty":0.5}`, anthropic, openai)

	res, errResp := Filter(req)
	if errResp != nil {
		t.Fatalf("unexpected error: %v", errResp)
	}
	ids := domain.ProviderIDs(res.Providers)
	if len(ids) != 1 || ids[0] != "openai" {
		t.Fatalf("providers = %v, want [openai]", ids)
	}
}

func TestFilterProviderDocsFailsRequestInsteadOfEmptyingPool(t *testing.T) {
	anthropic := candidate(t, "anthropic", map[string]any{
		"frequency_penalty": map[string]any{},
		"seed":              map[string]any{},
	})
	req := chatRequest(`{"model":"test-model","messages":[],"frequency_penalty":0.5,"seed":7}`, anthropic)

	res, errResp := Filter(req)
	if res != nil {
		t.Fatal("expected the whole request to fail")
	}
	if errResp.Code != domain.ErrCodeValidation {
		t.Fatalf("code = %q", errResp.Code)
	}
	if len(errResp.Details) != 2 {
		t.Fatalf("details = %+v, want one per violation", errResp.Details)
	}
	for _, d := range errResp.Details {
		if d.Keyword != domain.KeywordProviderDocsViolation {
			t.Fatalf("keyword = %q", d.Keyword)
		}
	}
}

func TestFilterReasoningTierModelRejectsSamplingKnobs(t *testing.T) {
	o1 := domain.ProviderCandidate{
		ProviderID: "openai",
		ModelSlug:  "o1-preview",
		CapabilityParams: capvalue.FromAny(map[string]any{
			"temperature": map[string]any{},
		}),
	}
	req := chatRequest(`{"model":"o1-preview","messages":[],"temperature":0.7}`, o1)
	req.Model = "o1-preview"

	res, errResp := Filter(req)
	if res != nil {
		t.Fatal("expected docs violation for temperature on a reasoning model")
	}
	if len(errResp.Details) != 1 || errResp.Details[0].Path[0] != "temperature" {
		t.Fatalf("details = %+v", errResp.Details)
	}
}

func TestFilterTokenLimits(t *testing.T) {
	limit4k, limit16k := 4096, 16384
	small := candidate(t, "small", map[string]any{"temperature": map[string]any{}, "max_tokens": true})
	small.MaxOutputTokens = &limit4k
	big := candidate(t, "big", map[string]any{"temperature": map[string]any{}, "max_tokens": true})
	big.MaxOutputTokens = &limit16k
	unlimited := candidate(t, "unlimited", map[string]any{"temperature": map[string]any{}, "max_tokens": true})

	req := chatRequest(`{"model":"test-model","messages":[],"max_tokens":8000}`, small, big, unlimited)
	res, errResp := Filter(req)
	if errResp != nil {
		t.Fatalf("unexpected error: %v", errResp)
	}
	ids := domain.ProviderIDs(res.Providers)
	if len(ids) != 2 || ids[0] != "big" || ids[1] != "unlimited" {
		t.Fatalf("providers = %v, want [big unlimited]", ids)
	}

	// All candidates below the budget is a terminal validation error.
	req = chatRequest(`{"model":"test-model","messages":[],"max_tokens":8000}`, small)
	res, errResp = Filter(req)
	if res != nil {
		t.Fatal("expected max_tokens_exceeded error")
	}
	if errResp.Details[0].Keyword != domain.KeywordMaxTokensExceeded {
		t.Fatalf("keyword = %q", errResp.Details[0].Keyword)
	}
}

func TestFilterTokenLimitsIdempotent(t *testing.T) {
	limit := 4096
	p := candidate(t, "p", nil)
	p.MaxOutputTokens = &limit
	raw := []byte(`{"max_tokens":1000}`)

	once, _, _, _ := filterByTokenLimits(raw, []domain.ProviderCandidate{p})
	twice, _, _, _ := filterByTokenLimits(raw, once)
	if len(once) != len(twice) {
		t.Fatalf("second application changed the pool: %d -> %d", len(once), len(twice))
	}
}

func TestFilterStageRecordsOrderedAndComplete(t *testing.T) {
	p := candidate(t, "p", map[string]any{"temperature": map[string]any{}})
	req := chatRequest(`{"model":"test-model","messages":[],"temperature":0.1}`, p)

	res, errResp := Filter(req)
	if errResp != nil {
		t.Fatalf("unexpected error: %v", errResp)
	}
	stages := res.Diagnostics.FilteringStages
	if len(stages) != len(domain.FilterStages) {
		t.Fatalf("got %d stage records, want %d", len(stages), len(domain.FilterStages))
	}
	for i, want := range domain.FilterStages {
		if stages[i].Stage != want {
			t.Fatalf("stage[%d] = %q, want %q", i, stages[i].Stage, want)
		}
		if stages[i].BeforeCount < stages[i].AfterCount {
			t.Fatalf("stage %q grew the pool: %+v", want, stages[i])
		}
	}
	if res.Diagnostics.ProviderCountBefore != 1 || res.Diagnostics.ProviderCountAfter != 1 {
		t.Fatalf("counts = %d/%d", res.Diagnostics.ProviderCountBefore, res.Diagnostics.ProviderCountAfter)
	}
}

func TestFilterCountsByProviderIdentity(t *testing.T) {
	// Two candidates behind the same provider ID count once.
	a := candidate(t, "openai", map[string]any{"temperature": map[string]any{}})
	a.ModelSlug = "gpt-4o"
	b := candidate(t, "openai", map[string]any{"temperature": map[string]any{}})
	b.ModelSlug = "gpt-4o-mini"

	req := chatRequest(`{"model":"test-model","messages":[],"temperature":0.1}`, a, b)
	res, errResp := Filter(req)
	if errResp != nil {
		t.Fatalf("unexpected error: %v", errResp)
	}
	if res.Diagnostics.ProviderCountBefore != 1 {
		t.Fatalf("providerCountBefore = %d, want 1", res.Diagnostics.ProviderCountBefore)
	}
	if len(res.Providers) != 2 {
		t.Fatalf("candidate list must be preserved, got %d", len(res.Providers))
	}
}

func TestFilterMediaEndpointBypassesParamRouting(t *testing.T) {
	p := candidate(t, "fal", nil)
	req := Request{
		Endpoint:  domain.EndpointImageGenerations,
		RawBody:   []byte(`{"model":"test-model","prompt":"a fox","anything_goes":true}`),
		Model:     "test-model",
		Providers: []domain.ProviderCandidate{p},
	}

	res, errResp := Filter(req)
	if errResp != nil {
		t.Fatalf("unexpected error: %v", errResp)
	}
	if len(res.Providers) != 1 || len(res.RequestedParams) != 0 {
		t.Fatalf("media bypass broken: %+v", res)
	}
}

func TestFilterAlwaysSupportedParams(t *testing.T) {
	// modalities is honored everywhere, regardless of declared capabilities.
	p := candidate(t, "p", map[string]any{"temperature": map[string]any{}})
	req := chatRequest(`{"model":"test-model","messages":[],"modalities":["text"]}`, p)

	res, errResp := Filter(req)
	if errResp != nil {
		t.Fatalf("unexpected error: %v", errResp)
	}
	for _, d := range res.Diagnostics.DroppedProviders {
		t.Fatalf("unexpected drop: %+v", d)
	}
}
