package domain

// FilterStage names one stage of the provider filter pipeline. The stage list
// and its order are fixed per endpoint: diagnostics record every stage whether
// or not it dropped anything.
type FilterStage string

const (
	StageParamSupport      FilterStage = "param_support"
	StageParamPreference   FilterStage = "param_preference"
	StageProviderDocs      FilterStage = "provider_docs"
	StageResponseFormat    FilterStage = "response_format"
	StageStructuredOutputs FilterStage = "structured_outputs"
	StageTokenLimits       FilterStage = "token_limits"
)

// FilterStages lists the pipeline stages in execution order.
var FilterStages = []FilterStage{
	StageParamSupport,
	StageParamPreference,
	StageProviderDocs,
	StageResponseFormat,
	StageStructuredOutputs,
	StageTokenLimits,
}

// ParamSupport records which providers do and do not support one requested
// parameter.
type ParamSupport struct {
	Param                string   `json:"param"`
	SupportedProviders   []string `json:"supportedProviders"`
	UnsupportedProviders []string `json:"unsupportedProviders"`
}

// DroppedProvider records one provider removed during filtering together with
// the requested params it did not support.
type DroppedProvider struct {
	ProviderID        string   `json:"providerId"`
	UnsupportedParams []string `json:"unsupportedParams"`
}

// StageRecord is the before/after snapshot of one filtering stage.
type StageRecord struct {
	Stage            FilterStage `json:"stage"`
	BeforeCount      int         `json:"beforeCount"`
	AfterCount       int         `json:"afterCount"`
	DroppedProviders []string    `json:"droppedProviders"`
}

// ParamRoutingDiagnostics is the audit trail of one routing decision. Stages
// append to it while the pipeline runs; once the pipeline finishes it is
// treated as immutable and handed to the audit collaborator as-is.
type ParamRoutingDiagnostics struct {
	RequestedParams     []string          `json:"requestedParams"`
	UnknownParams       []string          `json:"unknownParams"`
	ProviderCountBefore int               `json:"providerCountBefore"`
	ProviderCountAfter  int               `json:"providerCountAfter"`
	PerParamSupport     []ParamSupport    `json:"perParamSupport"`
	DroppedProviders    []DroppedProvider `json:"droppedProviders"`
	FilteringStages     []StageRecord     `json:"filteringStages"`
}
