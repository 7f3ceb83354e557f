// Package openaichat provides a codec for the OpenAI chat completions
// protocol.
package openaichat

import (
	"encoding/json"
	"fmt"

	"github.com/aistats/gateway/internal/codec"
	"github.com/aistats/gateway/internal/core/domain"
)

// Codec implements codec.Codec for the chat completions wire format.
type Codec struct{}

// New creates a new chat completions codec.
func New() *Codec {
	return &Codec{}
}

func (c *Codec) Name() string { return "openai.chat" }

func (c *Codec) Endpoint() domain.Endpoint { return domain.EndpointChatCompletions }

// wire types

type wireMessage struct {
	Role       string          `json:"role"`
	Content    json.RawMessage `json:"content,omitempty"`
	Name       string          `json:"name,omitempty"`
	ToolCalls  []wireToolCall  `json:"tool_calls,omitempty"`
	ToolCallID string          `json:"tool_call_id,omitempty"`
}

type wireToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type wireTool struct {
	Type     string `json:"type"`
	Function struct {
		Name        string         `json:"name"`
		Description string         `json:"description,omitempty"`
		Parameters  map[string]any `json:"parameters,omitempty"`
	} `json:"function"`
}

type wireResponseFormat struct {
	Type       string `json:"type"`
	JSONSchema *struct {
		Name   string         `json:"name,omitempty"`
		Schema map[string]any `json:"schema,omitempty"`
		Strict *bool          `json:"strict,omitempty"`
	} `json:"json_schema,omitempty"`
}

type wireContentPart struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL *struct {
		URL    string `json:"url"`
		Detail string `json:"detail,omitempty"`
	} `json:"image_url,omitempty"`
	InputAudio *struct {
		Data   string `json:"data"`
		Format string `json:"format"`
	} `json:"input_audio,omitempty"`
}

type wireRequest struct {
	Model               string              `json:"model"`
	Messages            []wireMessage       `json:"messages"`
	Stream              bool                `json:"stream,omitempty"`
	MaxTokens           int                 `json:"max_tokens,omitempty"`
	MaxCompletionTokens int                 `json:"max_completion_tokens,omitempty"`
	Temperature         *float64            `json:"temperature,omitempty"`
	TopP                *float64            `json:"top_p,omitempty"`
	Seed                *int                `json:"seed,omitempty"`
	FrequencyPenalty    *float64            `json:"frequency_penalty,omitempty"`
	PresencePenalty     *float64            `json:"presence_penalty,omitempty"`
	LogitBias           map[string]float64  `json:"logit_bias,omitempty"`
	Logprobs            *bool               `json:"logprobs,omitempty"`
	TopLogprobs         *int                `json:"top_logprobs,omitempty"`
	Stop                json.RawMessage     `json:"stop,omitempty"`
	Tools               []wireTool          `json:"tools,omitempty"`
	ToolChoice          json.RawMessage     `json:"tool_choice,omitempty"`
	ParallelToolCalls   *bool               `json:"parallel_tool_calls,omitempty"`
	MaxToolCalls        *int                `json:"max_tool_calls,omitempty"`
	ResponseFormat      *wireResponseFormat `json:"response_format,omitempty"`
	ReasoningEffort     string              `json:"reasoning_effort,omitempty"`
	Modalities          []string            `json:"modalities,omitempty"`
	ServiceTier         string              `json:"service_tier,omitempty"`
	User                string              `json:"user,omitempty"`
	Metadata            map[string]string   `json:"metadata,omitempty"`
}

// DecodeRequest converts chat completions request JSON to canonical form.
func (c *Codec) DecodeRequest(data []byte) (*domain.ChatRequest, error) {
	var wire wireRequest
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("decode chat completions request: %w", err)
	}

	req := &domain.ChatRequest{
		Model:             wire.Model,
		Stream:            wire.Stream,
		Temperature:       wire.Temperature,
		TopP:              wire.TopP,
		Seed:              wire.Seed,
		FrequencyPenalty:  wire.FrequencyPenalty,
		PresencePenalty:   wire.PresencePenalty,
		LogitBias:         wire.LogitBias,
		Logprobs:          wire.Logprobs,
		TopLogprobs:       wire.TopLogprobs,
		ParallelToolCalls: wire.ParallelToolCalls,
		MaxToolCalls:      wire.MaxToolCalls,
		Modalities:        wire.Modalities,
		ServiceTier:       wire.ServiceTier,
		UserID:            wire.User,
		Metadata:          wire.Metadata,
	}

	// max_completion_tokens is the newer spelling and wins when both appear.
	req.MaxTokens = wire.MaxTokens
	if wire.MaxCompletionTokens > 0 {
		req.MaxTokens = wire.MaxCompletionTokens
	}

	for idx, m := range wire.Messages {
		msg, err := decodeMessage(m)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", idx, err)
		}
		req.Messages = append(req.Messages, msg)
	}

	if stop, err := decodeStop(wire.Stop); err != nil {
		return nil, err
	} else {
		req.Stop = stop
	}

	for _, t := range wire.Tools {
		if t.Type != "" && t.Type != "function" {
			return nil, fmt.Errorf("unsupported tool type: %s", t.Type)
		}
		req.Tools = append(req.Tools, domain.Tool{
			Name:        t.Function.Name,
			Description: t.Function.Description,
			Parameters:  t.Function.Parameters,
		})
	}

	if choice, err := decodeToolChoice(wire.ToolChoice); err != nil {
		return nil, err
	} else {
		req.ToolChoice = choice
	}

	if wire.ResponseFormat != nil {
		rf := &domain.ResponseFormat{Type: wire.ResponseFormat.Type}
		if js := wire.ResponseFormat.JSONSchema; js != nil {
			rf.Name = js.Name
			rf.Schema = js.Schema
			rf.Strict = js.Strict
		}
		req.ResponseFormat = rf
	}

	if wire.ReasoningEffort != "" {
		req.Reasoning = &domain.Reasoning{Effort: wire.ReasoningEffort}
	}

	return req, nil
}

func decodeMessage(m wireMessage) (domain.Message, error) {
	msg := domain.Message{Role: m.Role, Name: m.Name}

	parts, err := decodeContent(m.Content)
	if err != nil {
		return msg, err
	}

	if m.Role == "tool" {
		result := domain.ToolResult{ToolCallID: m.ToolCallID}
		for _, p := range parts {
			if p.Type == domain.ContentText {
				result.Content += p.Text
			}
		}
		msg.ToolResults = []domain.ToolResult{result}
		return msg, nil
	}

	msg.Content = parts
	for _, tc := range m.ToolCalls {
		if tc.Type != "" && tc.Type != "function" {
			return msg, fmt.Errorf("unsupported tool call type: %s", tc.Type)
		}
		msg.ToolCalls = append(msg.ToolCalls, domain.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return msg, nil
}

// decodeContent handles the string-or-parts content union.
func decodeContent(raw json.RawMessage) ([]domain.ContentPart, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return []domain.ContentPart{{Type: domain.ContentText, Text: text}}, nil
	}

	var parts []wireContentPart
	if err := json.Unmarshal(raw, &parts); err != nil {
		return nil, fmt.Errorf("content must be a string or an array of parts")
	}

	out := make([]domain.ContentPart, 0, len(parts))
	for _, p := range parts {
		switch p.Type {
		case "text":
			out = append(out, domain.ContentPart{Type: domain.ContentText, Text: p.Text})
		case "image_url":
			if p.ImageURL == nil {
				return nil, fmt.Errorf("image_url part is missing its image_url object")
			}
			out = append(out, domain.ContentPart{
				Type:   domain.ContentImage,
				Source: "url",
				Data:   p.ImageURL.URL,
				Detail: p.ImageURL.Detail,
			})
		case "input_audio":
			if p.InputAudio == nil {
				return nil, fmt.Errorf("input_audio part is missing its input_audio object")
			}
			out = append(out, domain.ContentPart{
				Type:     domain.ContentAudio,
				Source:   "data",
				Data:     p.InputAudio.Data,
				MimeType: "audio/" + p.InputAudio.Format,
			})
		default:
			return nil, fmt.Errorf("unsupported content part type: %s", p.Type)
		}
	}
	return out, nil
}

// decodeStop handles the string-or-array stop union.
func decodeStop(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return []string{single}, nil
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err != nil {
		return nil, fmt.Errorf("stop must be a string or an array of strings")
	}
	return many, nil
}

func decodeToolChoice(raw json.RawMessage) (*domain.ToolChoice, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var mode string
	if err := json.Unmarshal(raw, &mode); err == nil {
		return &domain.ToolChoice{Mode: mode}, nil
	}
	var obj struct {
		Type     string `json:"type"`
		Function struct {
			Name string `json:"name"`
		} `json:"function"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("tool_choice must be a string or an object")
	}
	return &domain.ToolChoice{Mode: "tool", Name: obj.Function.Name}, nil
}

// response encoding

type wireChoice struct {
	Index        int             `json:"index"`
	Message      wireRespMessage `json:"message"`
	FinishReason string          `json:"finish_reason"`
}

type wireRespMessage struct {
	Role      string         `json:"role"`
	Content   *string        `json:"content"`
	ToolCalls []wireToolCall `json:"tool_calls,omitempty"`
}

type wireUsage struct {
	PromptTokens            int `json:"prompt_tokens"`
	CompletionTokens        int `json:"completion_tokens"`
	TotalTokens             int `json:"total_tokens"`
	CompletionTokensDetails *struct {
		ReasoningTokens int `json:"reasoning_tokens"`
	} `json:"completion_tokens_details,omitempty"`
	PromptTokensDetails *struct {
		CachedTokens int `json:"cached_tokens"`
	} `json:"prompt_tokens_details,omitempty"`
}

type wireResponse struct {
	ID                string       `json:"id"`
	Object            string       `json:"object"`
	Created           int64        `json:"created"`
	Model             string       `json:"model"`
	Choices           []wireChoice `json:"choices"`
	Usage             *wireUsage   `json:"usage,omitempty"`
	ServiceTier       string       `json:"service_tier,omitempty"`
	SystemFingerprint string       `json:"system_fingerprint,omitempty"`
}

// EncodeResponse converts a canonical response to chat completions JSON.
func (c *Codec) EncodeResponse(resp *domain.ChatResponse) ([]byte, error) {
	wire := wireResponse{
		ID:                resp.ID,
		Object:            "chat.completion",
		Created:           resp.Created,
		Model:             resp.Model,
		Choices:           make([]wireChoice, 0, len(resp.Choices)),
		ServiceTier:       resp.ServiceTier,
		SystemFingerprint: resp.SystemFingerprint,
	}

	for _, choice := range resp.Choices {
		text := choice.Message.Text()
		out := wireChoice{
			Index:        choice.Index,
			FinishReason: choice.FinishReason,
			Message: wireRespMessage{
				Role:    choice.Message.Role,
				Content: &text,
			},
		}
		for _, tc := range choice.Message.ToolCalls {
			wtc := wireToolCall{ID: tc.ID, Type: "function"}
			wtc.Function.Name = tc.Name
			wtc.Function.Arguments = tc.Arguments
			out.Message.ToolCalls = append(out.Message.ToolCalls, wtc)
		}
		if len(out.Message.ToolCalls) > 0 && text == "" {
			out.Message.Content = nil
		}
		wire.Choices = append(wire.Choices, out)
	}

	if resp.Usage != nil {
		u := &wireUsage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
		if resp.Usage.ReasoningTokens > 0 {
			u.CompletionTokensDetails = &struct {
				ReasoningTokens int `json:"reasoning_tokens"`
			}{ReasoningTokens: resp.Usage.ReasoningTokens}
		}
		if resp.Usage.CachedTokens > 0 {
			u.PromptTokensDetails = &struct {
				CachedTokens int `json:"cached_tokens"`
			}{CachedTokens: resp.Usage.CachedTokens}
		}
		wire.Usage = u
	}

	return json.Marshal(wire)
}

var _ codec.Codec = (*Codec)(nil)
