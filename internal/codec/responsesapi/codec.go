// Package responsesapi provides a codec for the OpenAI responses protocol.
package responsesapi

import (
	"encoding/json"
	"fmt"

	"github.com/aistats/gateway/internal/codec"
	"github.com/aistats/gateway/internal/core/domain"
)

// Codec implements codec.Codec for the responses wire format.
type Codec struct{}

// New creates a new responses codec.
func New() *Codec {
	return &Codec{}
}

func (c *Codec) Name() string { return "openai.responses" }

func (c *Codec) Endpoint() domain.Endpoint { return domain.EndpointResponses }

type wireItem struct {
	Type    string          `json:"type,omitempty"`
	Role    string          `json:"role,omitempty"`
	Content json.RawMessage `json:"content,omitempty"`

	// function_call
	CallID    string `json:"call_id,omitempty"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`

	// function_call_output
	Output string `json:"output,omitempty"`
}

type wireContentPart struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

type wireTool struct {
	Type        string         `json:"type"`
	Name        string         `json:"name,omitempty"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
	Strict      *bool          `json:"strict,omitempty"`
}

type wireTextFormat struct {
	Format *struct {
		Type   string         `json:"type"`
		Name   string         `json:"name,omitempty"`
		Schema map[string]any `json:"schema,omitempty"`
		Strict *bool          `json:"strict,omitempty"`
	} `json:"format,omitempty"`
}

type wireRequest struct {
	Model              string          `json:"model"`
	Input              json.RawMessage `json:"input,omitempty"`
	Instructions       string          `json:"instructions,omitempty"`
	Stream             bool            `json:"stream,omitempty"`
	MaxOutputTokens    int             `json:"max_output_tokens,omitempty"`
	Temperature        *float64        `json:"temperature,omitempty"`
	TopP               *float64        `json:"top_p,omitempty"`
	TopLogprobs        *int            `json:"top_logprobs,omitempty"`
	Tools              []wireTool      `json:"tools,omitempty"`
	ToolChoice         json.RawMessage `json:"tool_choice,omitempty"`
	ParallelToolCalls  *bool           `json:"parallel_tool_calls,omitempty"`
	MaxToolCalls       *int            `json:"max_tool_calls,omitempty"`
	Text               *wireTextFormat `json:"text,omitempty"`
	Reasoning          *struct {
		Effort  string `json:"effort,omitempty"`
		Summary string `json:"summary,omitempty"`
	} `json:"reasoning,omitempty"`
	PreviousResponseID string            `json:"previous_response_id,omitempty"`
	ServiceTier        string            `json:"service_tier,omitempty"`
	User               string            `json:"user,omitempty"`
	Metadata           map[string]string `json:"metadata,omitempty"`
}

// DecodeRequest converts responses request JSON to canonical form.
func (c *Codec) DecodeRequest(data []byte) (*domain.ChatRequest, error) {
	var wire wireRequest
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("decode responses request: %w", err)
	}

	req := &domain.ChatRequest{
		Model:              wire.Model,
		Stream:             wire.Stream,
		MaxTokens:          wire.MaxOutputTokens,
		Temperature:        wire.Temperature,
		TopP:               wire.TopP,
		TopLogprobs:        wire.TopLogprobs,
		ParallelToolCalls:  wire.ParallelToolCalls,
		MaxToolCalls:       wire.MaxToolCalls,
		Instructions:       wire.Instructions,
		PreviousResponseID: wire.PreviousResponseID,
		ServiceTier:        wire.ServiceTier,
		UserID:             wire.User,
		Metadata:           wire.Metadata,
	}

	if wire.Instructions != "" {
		req.Messages = append(req.Messages, domain.TextMessage("system", wire.Instructions))
	}

	msgs, err := decodeInput(wire.Input)
	if err != nil {
		return nil, err
	}
	req.Messages = append(req.Messages, msgs...)

	for _, t := range wire.Tools {
		if t.Type != "" && t.Type != "function" {
			return nil, fmt.Errorf("unsupported tool type: %s", t.Type)
		}
		req.Tools = append(req.Tools, domain.Tool{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Parameters,
		})
	}

	if choice, err := decodeToolChoice(wire.ToolChoice); err != nil {
		return nil, err
	} else {
		req.ToolChoice = choice
	}

	// text.format is this protocol's spelling of response_format.
	if wire.Text != nil && wire.Text.Format != nil {
		f := wire.Text.Format
		req.ResponseFormat = &domain.ResponseFormat{
			Type:   f.Type,
			Name:   f.Name,
			Schema: f.Schema,
			Strict: f.Strict,
		}
	}

	if wire.Reasoning != nil {
		req.Reasoning = &domain.Reasoning{
			Effort:  wire.Reasoning.Effort,
			Summary: wire.Reasoning.Summary,
		}
	}

	return req, nil
}

// decodeInput handles the string-or-items input union.
func decodeInput(raw json.RawMessage) ([]domain.Message, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return []domain.Message{domain.TextMessage("user", text)}, nil
	}

	var items []wireItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("input must be a string or an array of items")
	}

	var out []domain.Message
	for idx, item := range items {
		switch item.Type {
		case "", "message":
			parts, err := decodeContent(item.Content)
			if err != nil {
				return nil, fmt.Errorf("input item %d: %w", idx, err)
			}
			role := item.Role
			if role == "" {
				role = "user"
			}
			out = append(out, domain.Message{Role: role, Content: parts})
		case "function_call":
			out = append(out, domain.Message{
				Role: "assistant",
				ToolCalls: []domain.ToolCall{{
					ID:        item.CallID,
					Name:      item.Name,
					Arguments: item.Arguments,
				}},
			})
		case "function_call_output":
			out = append(out, domain.Message{
				Role: "tool",
				ToolResults: []domain.ToolResult{{
					ToolCallID: item.CallID,
					Content:    item.Output,
				}},
			})
		default:
			return nil, fmt.Errorf("unsupported input item type: %s", item.Type)
		}
	}
	return out, nil
}

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
		case "input_text", "output_text", "text":
			out = append(out, domain.ContentPart{Type: domain.ContentText, Text: p.Text})
		case "input_image":
			out = append(out, domain.ContentPart{
				Type:   domain.ContentImage,
				Source: "url",
				Data:   p.ImageURL,
				Detail: p.Detail,
			})
		default:
			return nil, fmt.Errorf("unsupported content part type: %s", p.Type)
		}
	}
	return out, nil
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
		Type string `json:"type"`
		Name string `json:"name,omitempty"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("tool_choice must be a string or an object")
	}
	return &domain.ToolChoice{Mode: "tool", Name: obj.Name}, nil
}

// response encoding

type wireOutputContent struct {
	Type        string   `json:"type"`
	Text        string   `json:"text"`
	Annotations []string `json:"annotations"`
}

type wireOutputItem struct {
	Type    string              `json:"type"`
	ID      string              `json:"id,omitempty"`
	Role    string              `json:"role,omitempty"`
	Status  string              `json:"status,omitempty"`
	Content []wireOutputContent `json:"content,omitempty"`

	CallID    string `json:"call_id,omitempty"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

type wireResponse struct {
	ID        string           `json:"id"`
	Object    string           `json:"object"`
	CreatedAt int64            `json:"created_at"`
	Status    string           `json:"status"`
	Model     string           `json:"model"`
	Output    []wireOutputItem `json:"output"`
	Usage     *struct {
		InputTokens         int `json:"input_tokens"`
		OutputTokens        int `json:"output_tokens"`
		TotalTokens         int `json:"total_tokens"`
		OutputTokensDetails *struct {
			ReasoningTokens int `json:"reasoning_tokens"`
		} `json:"output_tokens_details,omitempty"`
	} `json:"usage,omitempty"`
	ServiceTier string `json:"service_tier,omitempty"`
}

// EncodeResponse converts a canonical response to responses JSON.
func (c *Codec) EncodeResponse(resp *domain.ChatResponse) ([]byte, error) {
	wire := wireResponse{
		ID:          resp.ID,
		Object:      "response",
		CreatedAt:   resp.Created,
		Status:      "completed",
		Model:       resp.Model,
		Output:      []wireOutputItem{},
		ServiceTier: resp.ServiceTier,
	}

	for _, choice := range resp.Choices {
		if text := choice.Message.Text(); text != "" {
			wire.Output = append(wire.Output, wireOutputItem{
				Type:   "message",
				ID:     fmt.Sprintf("msg_%s_%d", resp.ID, choice.Index),
				Role:   "assistant",
				Status: "completed",
				Content: []wireOutputContent{{
					Type:        "output_text",
					Text:        text,
					Annotations: []string{},
				}},
			})
		}
		for _, tc := range choice.Message.ToolCalls {
			wire.Output = append(wire.Output, wireOutputItem{
				Type:      "function_call",
				ID:        fmt.Sprintf("fc_%s_%d", resp.ID, choice.Index),
				Status:    "completed",
				CallID:    tc.ID,
				Name:      tc.Name,
				Arguments: tc.Arguments,
			})
		}
	}

	if resp.Usage != nil {
		u := &struct {
			InputTokens         int `json:"input_tokens"`
			OutputTokens        int `json:"output_tokens"`
			TotalTokens         int `json:"total_tokens"`
			OutputTokensDetails *struct {
				ReasoningTokens int `json:"reasoning_tokens"`
			} `json:"output_tokens_details,omitempty"`
		}{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		}
		if resp.Usage.ReasoningTokens > 0 {
			u.OutputTokensDetails = &struct {
				ReasoningTokens int `json:"reasoning_tokens"`
			}{ReasoningTokens: resp.Usage.ReasoningTokens}
		}
		wire.Usage = u
	}

	return json.Marshal(wire)
}

var _ codec.Codec = (*Codec)(nil)
