package domain

import "strings"

// Canonical intermediate representation for text-generation requests. Every
// client protocol (OpenAI chat, OpenAI responses, Anthropic messages) decodes
// into this shape, and every response encodes back out of it. The filter
// pipeline never mutates an IR request.

// ContentType tags a content part.
type ContentType string

const (
	ContentText      ContentType = "text"
	ContentReasoning ContentType = "reasoning_text"
	ContentImage     ContentType = "image"
	ContentAudio     ContentType = "audio"
	ContentVideo     ContentType = "video"
)

// ContentPart is one piece of message content.
type ContentPart struct {
	Type ContentType `json:"type"`
	Text string      `json:"text,omitempty"`

	// Source is "url" or "data" for media parts.
	Source   string `json:"source,omitempty"`
	Data     string `json:"data,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

// Tool is a function definition the model may call.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
}

// ToolCall is an assistant request to execute a tool.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolResult carries the outcome of an executed tool back to the model.
type ToolResult struct {
	ToolCallID string `json:"toolCallId"`
	Content    string `json:"content"`
	IsError    bool   `json:"isError,omitempty"`
}

// Message is the unified message shape across protocols. Role "tool" carries
// ToolResults; assistant messages may carry ToolCalls.
type Message struct {
	Role        string        `json:"role"`
	Content     []ContentPart `json:"content,omitempty"`
	ToolCalls   []ToolCall    `json:"toolCalls,omitempty"`
	ToolResults []ToolResult  `json:"toolResults,omitempty"`
	Name        string        `json:"name,omitempty"`
}

// Text concatenates the plain text parts of a message.
func (m Message) Text() string {
	var b strings.Builder
	for _, p := range m.Content {
		if p.Type == ContentText {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

// Reasoning configures reasoning/thinking behavior.
type Reasoning struct {
	Effort    string `json:"effort,omitempty"`
	Summary   string `json:"summary,omitempty"`
	Enabled   *bool  `json:"enabled,omitempty"`
	MaxTokens int    `json:"maxTokens,omitempty"`
}

// Response format types accepted by the contract validator.
const (
	FormatText       = "text"
	FormatJSONObject = "json_object"
	FormatJSONSchema = "json_schema"
)

// ResponseFormat constrains model output shape.
type ResponseFormat struct {
	Type   string         `json:"type"`
	Schema map[string]any `json:"schema,omitempty"`
	Name   string         `json:"name,omitempty"`
	Strict *bool          `json:"strict,omitempty"`
}

// ToolChoice mirrors the client's tool selection directive: "auto", "none",
// "required", or a specific tool name.
type ToolChoice struct {
	Mode string `json:"mode,omitempty"`
	Name string `json:"name,omitempty"`
}

// ChatRequest is the canonical text-generation request.
type ChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`

	MaxTokens        int                `json:"maxTokens,omitempty"`
	Temperature      *float64           `json:"temperature,omitempty"`
	TopP             *float64           `json:"topP,omitempty"`
	TopK             *int               `json:"topK,omitempty"`
	Seed             *int               `json:"seed,omitempty"`
	FrequencyPenalty *float64           `json:"frequencyPenalty,omitempty"`
	PresencePenalty  *float64           `json:"presencePenalty,omitempty"`
	LogitBias        map[string]float64 `json:"logitBias,omitempty"`
	Stop             []string           `json:"stop,omitempty"`
	Logprobs         *bool              `json:"logprobs,omitempty"`
	TopLogprobs      *int               `json:"topLogprobs,omitempty"`

	Tools             []Tool      `json:"tools,omitempty"`
	ToolChoice        *ToolChoice `json:"toolChoice,omitempty"`
	ParallelToolCalls *bool       `json:"parallelToolCalls,omitempty"`
	MaxToolCalls      *int        `json:"maxToolCalls,omitempty"`

	Reasoning      *Reasoning      `json:"reasoning,omitempty"`
	ResponseFormat *ResponseFormat `json:"responseFormat,omitempty"`
	Modalities     []string        `json:"modalities,omitempty"`

	Instructions       string            `json:"instructions,omitempty"`
	PreviousResponseID string            `json:"previousResponseId,omitempty"`
	ServiceTier        string            `json:"serviceTier,omitempty"`
	UserID             string            `json:"userId,omitempty"`
	Metadata           map[string]string `json:"metadata,omitempty"`
}

// HasToolUsage reports whether the request declares tools or its conversation
// history shows tool activity. Tool usage implied by history alone still
// matters to the contract validator.
func (r *ChatRequest) HasToolUsage() bool {
	if len(r.Tools) > 0 {
		return true
	}
	for _, m := range r.Messages {
		if len(m.ToolCalls) > 0 || len(m.ToolResults) > 0 {
			return true
		}
		if m.Role == "tool" {
			return true
		}
	}
	return false
}

// Usage holds normalized token counts.
type Usage struct {
	InputTokens     int `json:"inputTokens"`
	OutputTokens    int `json:"outputTokens"`
	TotalTokens     int `json:"totalTokens"`
	ReasoningTokens int `json:"reasoningTokens,omitempty"`
	CachedTokens    int `json:"cachedInputTokens,omitempty"`
}

// Choice is one completion alternative in a response.
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finishReason"`
	StopSequence string  `json:"stopSequence,omitempty"`
}

// ChatResponse is the canonical text-generation response.
type ChatResponse struct {
	ID       string   `json:"id"`
	NativeID string   `json:"nativeId,omitempty"`
	Created  int64    `json:"created"`
	Model    string   `json:"model"`
	Provider string   `json:"provider"`
	Choices  []Choice `json:"choices"`
	Usage    *Usage   `json:"usage,omitempty"`

	ServiceTier       string `json:"serviceTier,omitempty"`
	SystemFingerprint string `json:"systemFingerprint,omitempty"`
}

// TextMessage builds a single-part text message.
func TextMessage(role, text string) Message {
	return Message{Role: role, Content: []ContentPart{{Type: ContentText, Text: text}}}
}
