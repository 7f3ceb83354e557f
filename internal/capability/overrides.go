package capability

// Code-first overrides for provider quirks that cannot be expressed as
// capability metadata. An override always wins over metadata-derived results.
// Keys are matched against every alias expansion of the requested path, so an
// override on "max_tokens" also covers "max_output_tokens" requests.

type overrideKey struct {
	providerID string
	paramPath  string
}

// paramOverrides records documented divergences between a provider's declared
// capability metadata and its actual API behavior.
var paramOverrides = map[overrideKey]bool{
	// DeepSeek's reasoner models accept logprobs in the request schema but
	// the API rejects them for text generation.
	{providerID: "deepseek", paramPath: "logprobs"}: false,

	// Groq advertises OpenAI compatibility without listing service_tier in
	// capability metadata; the API accepts it.
	{providerID: "groq", paramPath: "service_tier"}: true,

	// Mistral ignores parallel_tool_calls rather than rejecting it; treat
	// as supported so it never drives provider drops.
	{providerID: "mistral", paramPath: "parallel_tool_calls"}: true,
}

// resolveOverride looks up a code-level verdict for (providerID, paramPath),
// checking every alias-expanded form of the path.
func resolveOverride(providerID, paramPath string) (bool, bool) {
	for _, candidate := range pathCandidates(paramPath) {
		if verdict, ok := paramOverrides[overrideKey{providerID: providerID, paramPath: candidate}]; ok {
			return verdict, true
		}
	}
	return false, false
}
