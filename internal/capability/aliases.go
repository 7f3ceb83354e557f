package capability

import "strings"

// paramAliases maps a canonical parameter root to every capability key a
// provider may use to declare support for it. Kept as static data, separate
// from the traversal logic in the matcher, so it can be tested on its own.
var paramAliases = map[string][]string{
	"max_tokens":      {"max_tokens", "max_output_tokens", "max_completion_tokens"},
	"max_tool_calls":  {"max_tool_calls", "max_tools_calls"},
	"stop":            {"stop", "stop_sequences"},
	"reasoning":       {"reasoning", "thinking"},
	"service_tier":    {"service_tier", "serviceTier"},
	"response_format": {"response_format", "text", "structured_outputs"},
	"image_config":    {"image_config", "imageConfig"},
	"logprobs":        {"logprobs", "top_logprobs"},
	"top_logprobs":    {"top_logprobs", "logprobs"},
}

// ExpandAliases returns all capability keys equivalent to a canonical root.
// The root itself is always first.
func ExpandAliases(root string) []string {
	if aliases, ok := paramAliases[root]; ok {
		return aliases
	}
	return []string{root}
}

// splitPath breaks a dotted parameter path into its non-empty segments.
func splitPath(path string) []string {
	raw := strings.Split(strings.TrimSpace(path), ".")
	segments := raw[:0]
	for _, s := range raw {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}

// pathCandidates expands a dotted path through the alias table: every alias
// of the root, each with the original suffix reattached.
func pathCandidates(path string) []string {
	segments := splitPath(path)
	if len(segments) == 0 {
		return nil
	}
	suffix := ""
	if len(segments) > 1 {
		suffix = "." + strings.Join(segments[1:], ".")
	}
	aliases := ExpandAliases(segments[0])
	out := make([]string, 0, len(aliases))
	seen := make(map[string]struct{}, len(aliases))
	for _, alias := range aliases {
		candidate := alias + suffix
		if _, dup := seen[candidate]; dup {
			continue
		}
		seen[candidate] = struct{}{}
		out = append(out, candidate)
	}
	return out
}
