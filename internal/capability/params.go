package capability

import (
	"github.com/tidwall/gjson"

	"github.com/aistats/gateway/internal/core/domain"
)

// Requested-parameter extraction works on the raw JSON payload, before any
// decoding, so that aliasing and unknown-field rejection see exactly what the
// client sent.

// UnknownTopLevelParams returns the top-level fields of the raw payload that
// the endpoint's registry does not allow, in document order. Endpoints
// without a registry accept everything.
func UnknownTopLevelParams(endpoint domain.Endpoint, raw []byte) []string {
	registry, ok := RegistryFor(endpoint)
	if !ok {
		return nil
	}
	body := gjson.ParseBytes(raw)
	if !body.IsObject() {
		return nil
	}
	var unknown []string
	body.ForEach(func(key, _ gjson.Result) bool {
		if _, allowed := registry.AllowedTopLevel[key.String()]; !allowed {
			unknown = append(unknown, key.String())
		}
		return true
	})
	return unknown
}

// ExtractRequestedParams derives the ordered-unique set of canonical
// parameter paths present in a raw request. Object-valued reasoning fields
// expand to one path per non-null child; tool usage implied by conversation
// history synthesizes a "tools" entry even when no tools field was sent.
func ExtractRequestedParams(endpoint domain.Endpoint, raw []byte) []string {
	registry, ok := RegistryFor(endpoint)
	if !ok {
		return nil
	}
	body := gjson.ParseBytes(raw)
	if !body.IsObject() {
		return nil
	}

	var params []string
	for _, mapping := range registry.KeyToCanonical {
		value := body.Get(mapping.Key)
		if !value.Exists() {
			continue
		}
		if mapping.Canonical == "reasoning" && value.IsObject() {
			value.ForEach(func(child, childValue gjson.Result) bool {
				if childValue.Type != gjson.Null {
					params = append(params, "reasoning."+child.String())
				}
				return true
			})
			continue
		}
		params = append(params, mapping.Canonical)
	}

	// The responses surface nests its format directive under text.format.
	if endpoint == domain.EndpointResponses && body.Get("text.format").Exists() {
		params = append(params, "response_format")
	}

	if hasToolUsageInMessages(body.Get("messages")) {
		params = append(params, "tools")
	}
	if endpoint == domain.EndpointResponses {
		if hasToolUsageInInputItems(body.Get("input_items")) || hasToolUsageInInputItems(body.Get("input")) {
			params = append(params, "tools")
		}
	}

	return dedupe(params)
}

func hasToolUsageInMessages(messages gjson.Result) bool {
	if !messages.IsArray() {
		return false
	}
	found := false
	messages.ForEach(func(_, msg gjson.Result) bool {
		if msg.Get("tool_call_id").Type == gjson.String ||
			msg.Get("role").String() == "tool" ||
			len(msg.Get("tool_calls").Array()) > 0 {
			found = true
			return false
		}
		return true
	})
	return found
}

func hasToolUsageInInputItems(items gjson.Result) bool {
	if !items.IsArray() {
		return false
	}
	found := false
	items.ForEach(func(_, item gjson.Result) bool {
		switch item.Get("type").String() {
		case "function_call", "function_call_output":
			found = true
			return false
		}
		if item.Get("tool_call_id").Exists() || item.Get("call_id").Exists() {
			found = true
			return false
		}
		return true
	})
	return found
}

func dedupe(params []string) []string {
	seen := make(map[string]struct{}, len(params))
	out := make([]string, 0, len(params))
	for _, p := range params {
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
