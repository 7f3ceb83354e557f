// Package anthropicmsg provides a codec for the Anthropic messages protocol.
package anthropicmsg

import (
	"encoding/json"
	"fmt"

	"github.com/aistats/gateway/internal/codec"
	"github.com/aistats/gateway/internal/core/domain"
)

// Codec implements codec.Codec for the messages wire format.
type Codec struct{}

// New creates a new messages codec.
func New() *Codec {
	return &Codec{}
}

func (c *Codec) Name() string { return "anthropic.messages" }

func (c *Codec) Endpoint() domain.Endpoint { return domain.EndpointMessages }

type wireBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`

	// tool_use
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// tool_result
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   json.RawMessage `json:"content,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`

	// image
	Source *struct {
		Type      string `json:"type"`
		MediaType string `json:"media_type,omitempty"`
		Data      string `json:"data,omitempty"`
		URL       string `json:"url,omitempty"`
	} `json:"source,omitempty"`

	// thinking
	Thinking string `json:"thinking,omitempty"`
}

type wireMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

type wireTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"input_schema,omitempty"`
}

type wireRequest struct {
	Model         string          `json:"model"`
	Messages      []wireMessage   `json:"messages"`
	System        json.RawMessage `json:"system,omitempty"`
	MaxTokens     int             `json:"max_tokens"`
	Stream        bool            `json:"stream,omitempty"`
	Temperature   *float64        `json:"temperature,omitempty"`
	TopP          *float64        `json:"top_p,omitempty"`
	TopK          *int            `json:"top_k,omitempty"`
	StopSequences []string        `json:"stop_sequences,omitempty"`
	Tools         []wireTool      `json:"tools,omitempty"`
	ToolChoice    *struct {
		Type string `json:"type"`
		Name string `json:"name,omitempty"`
	} `json:"tool_choice,omitempty"`
	Thinking *struct {
		Type         string `json:"type"`
		BudgetTokens int    `json:"budget_tokens,omitempty"`
	} `json:"thinking,omitempty"`
	ServiceTier string `json:"service_tier,omitempty"`
	Metadata    *struct {
		UserID string `json:"user_id,omitempty"`
	} `json:"metadata,omitempty"`
}

// DecodeRequest converts messages request JSON to canonical form.
func (c *Codec) DecodeRequest(data []byte) (*domain.ChatRequest, error) {
	var wire wireRequest
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("decode messages request: %w", err)
	}

	req := &domain.ChatRequest{
		Model:       wire.Model,
		Stream:      wire.Stream,
		MaxTokens:   wire.MaxTokens,
		Temperature: wire.Temperature,
		TopP:        wire.TopP,
		TopK:        wire.TopK,
		Stop:        wire.StopSequences,
		ServiceTier: wire.ServiceTier,
	}
	if wire.Metadata != nil {
		req.UserID = wire.Metadata.UserID
	}

	system, err := decodeSystem(wire.System)
	if err != nil {
		return nil, err
	}
	if system != "" {
		req.Messages = append(req.Messages, domain.TextMessage("system", system))
	}

	for idx, m := range wire.Messages {
		msgs, err := decodeMessage(m)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", idx, err)
		}
		req.Messages = append(req.Messages, msgs...)
	}

	for _, t := range wire.Tools {
		req.Tools = append(req.Tools, domain.Tool{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.InputSchema,
		})
	}

	if tc := wire.ToolChoice; tc != nil {
		switch tc.Type {
		case "auto":
			req.ToolChoice = &domain.ToolChoice{Mode: "auto"}
		case "any":
			req.ToolChoice = &domain.ToolChoice{Mode: "required"}
		case "none":
			req.ToolChoice = &domain.ToolChoice{Mode: "none"}
		case "tool":
			req.ToolChoice = &domain.ToolChoice{Mode: "tool", Name: tc.Name}
		default:
			return nil, fmt.Errorf("unsupported tool_choice type: %s", tc.Type)
		}
	}

	if th := wire.Thinking; th != nil {
		enabled := th.Type == "enabled"
		req.Reasoning = &domain.Reasoning{
			Enabled:   &enabled,
			MaxTokens: th.BudgetTokens,
		}
	}

	return req, nil
}

// decodeSystem handles the string-or-blocks system union.
func decodeSystem(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text, nil
	}
	var blocks []wireBlock
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return "", fmt.Errorf("system must be a string or an array of text blocks")
	}
	var out string
	for _, b := range blocks {
		if b.Type != "" && b.Type != "text" {
			return "", fmt.Errorf("unsupported system block type: %s", b.Type)
		}
		out += b.Text
	}
	return out, nil
}

// decodeMessage converts one messages-protocol message. A user message whose
// blocks mix tool results and text splits into a tool message followed by a
// user message, preserving order for providers that require it.
func decodeMessage(m wireMessage) ([]domain.Message, error) {
	var text string
	if err := json.Unmarshal(m.Content, &text); err == nil {
		return []domain.Message{domain.TextMessage(m.Role, text)}, nil
	}

	var blocks []wireBlock
	if err := json.Unmarshal(m.Content, &blocks); err != nil {
		return nil, fmt.Errorf("content must be a string or an array of blocks")
	}

	msg := domain.Message{Role: m.Role}
	var results []domain.ToolResult
	for _, b := range blocks {
		switch b.Type {
		case "", "text":
			msg.Content = append(msg.Content, domain.ContentPart{Type: domain.ContentText, Text: b.Text})
		case "thinking":
			msg.Content = append(msg.Content, domain.ContentPart{Type: domain.ContentReasoning, Text: b.Thinking})
		case "image":
			if b.Source == nil {
				return nil, fmt.Errorf("image block is missing its source")
			}
			part := domain.ContentPart{Type: domain.ContentImage, MimeType: b.Source.MediaType}
			switch b.Source.Type {
			case "base64":
				part.Source = "data"
				part.Data = b.Source.Data
			case "url":
				part.Source = "url"
				part.Data = b.Source.URL
			default:
				return nil, fmt.Errorf("unsupported image source type: %s", b.Source.Type)
			}
			msg.Content = append(msg.Content, part)
		case "tool_use":
			msg.ToolCalls = append(msg.ToolCalls, domain.ToolCall{
				ID:        b.ID,
				Name:      b.Name,
				Arguments: string(b.Input),
			})
		case "tool_result":
			content, err := decodeToolResultContent(b.Content)
			if err != nil {
				return nil, err
			}
			results = append(results, domain.ToolResult{
				ToolCallID: b.ToolUseID,
				Content:    content,
				IsError:    b.IsError,
			})
		default:
			return nil, fmt.Errorf("unsupported content block type: %s", b.Type)
		}
	}

	var out []domain.Message
	if len(results) > 0 {
		out = append(out, domain.Message{Role: "tool", ToolResults: results})
	}
	if len(msg.Content) > 0 || len(msg.ToolCalls) > 0 {
		out = append(out, msg)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("content is required")
	}
	return out, nil
}

func decodeToolResultContent(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text, nil
	}
	var blocks []wireBlock
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return "", fmt.Errorf("tool_result content must be a string or an array of blocks")
	}
	var out string
	for _, b := range blocks {
		if b.Type == "" || b.Type == "text" {
			out += b.Text
		}
	}
	return out, nil
}

// response encoding

type wireRespBlock struct {
	Type  string         `json:"type"`
	Text  string         `json:"text,omitempty"`
	ID    string         `json:"id,omitempty"`
	Name  string         `json:"name,omitempty"`
	Input map[string]any `json:"input,omitempty"`
}

type wireResponse struct {
	ID           string          `json:"id"`
	Type         string          `json:"type"`
	Role         string          `json:"role"`
	Model        string          `json:"model"`
	Content      []wireRespBlock `json:"content"`
	StopReason   string          `json:"stop_reason"`
	StopSequence *string         `json:"stop_sequence"`
	Usage        struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// EncodeResponse converts a canonical response to messages JSON. Only the
// first choice is representable in this protocol.
func (c *Codec) EncodeResponse(resp *domain.ChatResponse) ([]byte, error) {
	wire := wireResponse{
		ID:    resp.ID,
		Type:  "message",
		Role:  "assistant",
		Model: resp.Model,
	}

	if len(resp.Choices) > 0 {
		choice := resp.Choices[0]
		for _, p := range choice.Message.Content {
			if p.Type == domain.ContentText && p.Text != "" {
				wire.Content = append(wire.Content, wireRespBlock{Type: "text", Text: p.Text})
			}
		}
		for _, tc := range choice.Message.ToolCalls {
			input := map[string]any{}
			if tc.Arguments != "" {
				if err := json.Unmarshal([]byte(tc.Arguments), &input); err != nil {
					return nil, fmt.Errorf("tool call %s has non-object arguments: %w", tc.ID, err)
				}
			}
			wire.Content = append(wire.Content, wireRespBlock{
				Type:  "tool_use",
				ID:    tc.ID,
				Name:  tc.Name,
				Input: input,
			})
		}
		wire.StopReason = stopReasonFromFinish(choice.FinishReason)
		if choice.StopSequence != "" {
			wire.StopSequence = &choice.StopSequence
		}
	}
	if wire.Content == nil {
		wire.Content = []wireRespBlock{}
	}

	if resp.Usage != nil {
		wire.Usage.InputTokens = resp.Usage.InputTokens
		wire.Usage.OutputTokens = resp.Usage.OutputTokens
	}

	return json.Marshal(wire)
}

func stopReasonFromFinish(reason string) string {
	switch reason {
	case "stop":
		return "end_turn"
	case "length":
		return "max_tokens"
	case "tool_calls":
		return "tool_use"
	case "content_filter":
		return "refusal"
	default:
		return reason
	}
}

var _ codec.Codec = (*Codec)(nil)
