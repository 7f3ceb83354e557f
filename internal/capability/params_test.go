package capability

import (
	"reflect"
	"testing"

	"github.com/aistats/gateway/internal/core/domain"
)

func TestUnknownTopLevelParams(t *testing.T) {
	raw := []byte(`{"model":"m","messages":[],"banana":1,"temperature":0.5,"zebra":true}`)

	got := UnknownTopLevelParams(domain.EndpointChatCompletions, raw)
	if !reflect.DeepEqual(got, []string{"banana", "zebra"}) {
		t.Fatalf("unknown = %v", got)
	}

	// Media endpoints have no registry and accept everything.
	if got := UnknownTopLevelParams(domain.EndpointImageGenerations, raw); got != nil {
		t.Fatalf("media endpoint flagged %v", got)
	}
}

func TestExtractRequestedParamsBasic(t *testing.T) {
	raw := []byte(`{"model":"m","messages":[],"temperature":0.5,"max_tokens":100,"stop":["x"]}`)

	got := ExtractRequestedParams(domain.EndpointChatCompletions, raw)
	want := []string{"temperature", "max_tokens", "stop"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("requested = %v, want %v", got, want)
	}
}

func TestExtractRequestedParamsAliasSpellingsCollapse(t *testing.T) {
	// Both spellings collapse to one canonical max_tokens entry.
	raw := []byte(`{"model":"m","messages":[],"max_tokens":100,"max_completion_tokens":200}`)

	got := ExtractRequestedParams(domain.EndpointChatCompletions, raw)
	if !reflect.DeepEqual(got, []string{"max_tokens"}) {
		t.Fatalf("requested = %v", got)
	}
}

func TestExtractRequestedParamsReasoningChildren(t *testing.T) {
	raw := []byte(`{"model":"m","messages":[],"reasoning":{"effort":"high","summary":null}}`)

	got := ExtractRequestedParams(domain.EndpointChatCompletions, raw)
	if !reflect.DeepEqual(got, []string{"reasoning.effort"}) {
		t.Fatalf("requested = %v", got)
	}

	// A non-object reasoning value stays a bare root.
	raw = []byte(`{"model":"m","messages":[],"reasoning":true}`)
	got = ExtractRequestedParams(domain.EndpointChatCompletions, raw)
	if !reflect.DeepEqual(got, []string{"reasoning"}) {
		t.Fatalf("requested = %v", got)
	}
}

func TestExtractRequestedParamsThinkingMapsToReasoning(t *testing.T) {
	raw := []byte(`{"model":"m","messages":[],"max_tokens":10,"thinking":{"type":"enabled"}}`)

	got := ExtractRequestedParams(domain.EndpointMessages, raw)
	want := []string{"max_tokens", "reasoning.type"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("requested = %v, want %v", got, want)
	}
}

func TestExtractRequestedParamsResponsesTextFormat(t *testing.T) {
	raw := []byte(`{"model":"m","input":"hi","text":{"format":{"type":"json_object"}}}`)

	got := ExtractRequestedParams(domain.EndpointResponses, raw)
	found := false
	for _, p := range got {
		if p == "response_format" {
			found = true
		}
	}
	if !found {
		t.Fatalf("text.format not normalized, requested = %v", got)
	}
}

func TestExtractRequestedParamsToolInferenceFromMessages(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want bool
	}{
		{"no tool traces", `{"model":"m","messages":[{"role":"user","content":"hi"}]}`, false},
		{"tool role", `{"model":"m","messages":[{"role":"tool","content":"r"}]}`, true},
		{"tool_call_id", `{"model":"m","messages":[{"role":"user","tool_call_id":"c1"}]}`, true},
		{"tool_calls", `{"model":"m","messages":[{"role":"assistant","tool_calls":[{"id":"c1"}]}]}`, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ExtractRequestedParams(domain.EndpointChatCompletions, []byte(tc.raw))
			has := false
			for _, p := range got {
				if p == "tools" {
					has = true
				}
			}
			if has != tc.want {
				t.Fatalf("tools inferred = %v, want %v (requested %v)", has, tc.want, got)
			}
		})
	}
}

func TestExtractRequestedParamsToolInferenceFromInputItems(t *testing.T) {
	raw := []byte(`{"model":"m","input":[{"type":"function_call_output","call_id":"c1","output":"ok"}]}`)

	got := ExtractRequestedParams(domain.EndpointResponses, raw)
	has := false
	for _, p := range got {
		if p == "tools" {
			has = true
		}
	}
	if !has {
		t.Fatalf("tool usage in input items not inferred, requested = %v", got)
	}
}

func TestExtractRequestedParamsDeterministicOrder(t *testing.T) {
	raw := []byte(`{"model":"m","messages":[],"seed":1,"temperature":0.1,"top_p":0.2}`)

	first := ExtractRequestedParams(domain.EndpointChatCompletions, raw)
	for i := 0; i < 20; i++ {
		if got := ExtractRequestedParams(domain.EndpointChatCompletions, raw); !reflect.DeepEqual(got, first) {
			t.Fatalf("extraction order unstable: %v vs %v", got, first)
		}
	}
}
