package capability

import "github.com/aistats/gateway/internal/core/domain"

// KeyMapping binds one client-facing field name to its canonical parameter
// root. Mappings are ordered so requested-param extraction is deterministic.
type KeyMapping struct {
	Key       string
	Canonical string
}

// Registry holds the static parameter tables for one text endpoint.
type Registry struct {
	// AllowedTopLevel is the closed set of accepted top-level request
	// fields. Anything else is a hard validation error.
	AllowedTopLevel map[string]struct{}

	// KeyToCanonical maps capability-relevant fields to canonical roots,
	// in extraction order.
	KeyToCanonical []KeyMapping
}

// Canonical looks up the canonical root for a client-facing field name.
func (r *Registry) Canonical(key string) (string, bool) {
	for _, m := range r.KeyToCanonical {
		if m.Key == key {
			return m.Canonical, true
		}
	}
	return "", false
}

func allow(keys ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

var chatCompletionsRegistry = &Registry{
	AllowedTopLevel: allow(
		"model", "system", "messages", "usage", "reasoning",
		"frequency_penalty", "logit_bias",
		"max_output_tokens", "max_completion_tokens", "max_tokens",
		"meta", "echo_upstream_request", "debug",
		"presence_penalty", "seed", "stream", "temperature",
		"tools", "max_tool_calls", "max_tools_calls",
		"parallel_tool_calls", "tool_choice",
		"top_k", "logprobs", "top_logprobs", "top_p",
		"stop", "response_format", "modalities", "image_config",
		"user_id", "user", "service_tier", "speed",
		"route", "session_id", "models", "plugins", "trace", "provider",
	),
	KeyToCanonical: []KeyMapping{
		{"tools", "tools"},
		{"tool_choice", "tool_choice"},
		{"parallel_tool_calls", "parallel_tool_calls"},
		{"max_tool_calls", "max_tool_calls"},
		{"max_tools_calls", "max_tool_calls"},
		{"temperature", "temperature"},
		{"top_p", "top_p"},
		{"top_k", "top_k"},
		{"max_tokens", "max_tokens"},
		{"max_output_tokens", "max_tokens"},
		{"max_completion_tokens", "max_tokens"},
		{"stop", "stop"},
		{"logit_bias", "logit_bias"},
		{"seed", "seed"},
		{"response_format", "response_format"},
		{"modalities", "modalities"},
		{"image_config", "image_config"},
		{"logprobs", "logprobs"},
		{"top_logprobs", "top_logprobs"},
		{"presence_penalty", "presence_penalty"},
		{"frequency_penalty", "frequency_penalty"},
		{"reasoning", "reasoning"},
		{"service_tier", "service_tier"},
		{"speed", "speed"},
	},
}

var responsesRegistry = &Registry{
	AllowedTopLevel: allow(
		"model", "models", "input", "input_items", "messages", "usage",
		"conversation", "include", "instructions",
		"max_output_tokens", "max_completion_tokens", "max_tokens",
		"max_tool_calls", "max_tools_calls",
		"metadata", "plugins", "session_id", "trace",
		"parallel_tool_calls", "previous_response_id",
		"frequency_penalty", "presence_penalty",
		"prompt", "prompt_cache_key", "prompt_cache_retention",
		"modalities", "image_config", "reasoning",
		"safety_identifier", "service_tier", "speed",
		"store", "stream", "stream_options",
		"temperature", "text", "response_format",
		"tool_choice", "tools", "top_logprobs", "top_p", "top_k",
		"truncation", "background", "user",
		"meta", "echo_upstream_request", "debug", "provider",
		"stop", "logit_bias", "logprobs", "seed",
	),
	KeyToCanonical: []KeyMapping{
		{"tools", "tools"},
		{"tool_choice", "tool_choice"},
		{"parallel_tool_calls", "parallel_tool_calls"},
		{"max_tool_calls", "max_tool_calls"},
		{"max_tools_calls", "max_tool_calls"},
		{"temperature", "temperature"},
		{"top_p", "top_p"},
		{"top_k", "top_k"},
		{"max_tokens", "max_tokens"},
		{"max_output_tokens", "max_tokens"},
		{"max_completion_tokens", "max_tokens"},
		{"stop", "stop"},
		{"logit_bias", "logit_bias"},
		{"seed", "seed"},
		{"response_format", "response_format"},
		{"modalities", "modalities"},
		{"image_config", "image_config"},
		{"logprobs", "logprobs"},
		{"top_logprobs", "top_logprobs"},
		{"presence_penalty", "presence_penalty"},
		{"frequency_penalty", "frequency_penalty"},
		{"reasoning", "reasoning"},
		{"service_tier", "service_tier"},
		{"speed", "speed"},
		{"prompt_cache_key", "prompt_cache_key"},
		{"safety_identifier", "safety_identifier"},
		{"background", "background"},
		{"instructions", "instructions"},
	},
}

var messagesRegistry = &Registry{
	AllowedTopLevel: allow(
		"model", "messages", "system", "usage",
		"max_tokens", "max_output_tokens",
		"temperature", "top_p", "top_k", "stream",
		"tools", "tool_choice", "metadata",
		"service_tier", "speed", "modalities", "image_config",
		"stop_sequences", "thinking",
		"meta", "echo_upstream_request", "debug", "provider",
	),
	KeyToCanonical: []KeyMapping{
		{"tools", "tools"},
		{"tool_choice", "tool_choice"},
		{"max_tokens", "max_tokens"},
		{"max_output_tokens", "max_tokens"},
		{"temperature", "temperature"},
		{"top_p", "top_p"},
		{"top_k", "top_k"},
		{"stop_sequences", "stop"},
		{"modalities", "modalities"},
		{"image_config", "image_config"},
		{"thinking", "reasoning"},
		{"service_tier", "service_tier"},
		{"speed", "speed"},
	},
}

// RegistryFor returns the parameter registry for a text endpoint. Media
// endpoints have no registry: their fields pass through to their own
// decoders without top-level rejection.
func RegistryFor(endpoint domain.Endpoint) (*Registry, bool) {
	switch endpoint {
	case domain.EndpointChatCompletions:
		return chatCompletionsRegistry, true
	case domain.EndpointResponses:
		return responsesRegistry, true
	case domain.EndpointMessages:
		return messagesRegistry, true
	default:
		return nil, false
	}
}

// IsAlwaysSupported reports whether a parameter is treated as supported for
// an endpoint regardless of provider metadata. Always-supported params bypass
// the matcher entirely and never appear in dropped-provider diagnostics.
func IsAlwaysSupported(endpoint domain.Endpoint, param string) bool {
	if param == "modalities" {
		return true
	}
	if endpoint == domain.EndpointMessages && param == "max_tokens" {
		return true
	}
	return false
}
