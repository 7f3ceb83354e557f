package openaichat

import (
	"encoding/json"
	"testing"

	"github.com/aistats/gateway/internal/core/domain"
)

func TestDecodeRequestStringContent(t *testing.T) {
	body := `{
		"model": "gpt-4o",
		"messages": [
			{"role": "system", "content": "be brief"},
			{"role": "user", "content": "hello"}
		],
		"temperature": 0.3,
		"max_tokens": 256
	}`

	req, err := New().DecodeRequest([]byte(body))
	if err != nil {
		t.Fatalf("DecodeRequest: %v", err)
	}
	if req.Model != "gpt-4o" || req.MaxTokens != 256 {
		t.Fatalf("model/maxTokens = %q/%d", req.Model, req.MaxTokens)
	}
	if req.Temperature == nil || *req.Temperature != 0.3 {
		t.Fatalf("temperature = %v", req.Temperature)
	}
	if len(req.Messages) != 2 || req.Messages[1].Text() != "hello" {
		t.Fatalf("messages = %+v", req.Messages)
	}
}

func TestDecodeRequestMaxCompletionTokensWins(t *testing.T) {
	body := `{"model":"m","messages":[],"max_tokens":100,"max_completion_tokens":200}`
	req, err := New().DecodeRequest([]byte(body))
	if err != nil {
		t.Fatalf("DecodeRequest: %v", err)
	}
	if req.MaxTokens != 200 {
		t.Fatalf("maxTokens = %d, want 200", req.MaxTokens)
	}
}

func TestDecodeRequestContentParts(t *testing.T) {
	body := `{
		"model": "m",
		"messages": [{"role": "user", "content": [
			{"type": "text", "text": "what is this?"},
			{"type": "image_url", "image_url": {"url": "https://example.com/x.png", "detail": "low"}}
		]}]
	}`
	req, err := New().DecodeRequest([]byte(body))
	if err != nil {
		t.Fatalf("DecodeRequest: %v", err)
	}
	parts := req.Messages[0].Content
	if len(parts) != 2 {
		t.Fatalf("parts = %+v", parts)
	}
	if parts[1].Type != domain.ContentImage || parts[1].Source != "url" || parts[1].Data != "https://example.com/x.png" {
		t.Fatalf("image part = %+v", parts[1])
	}
}

func TestDecodeRequestToolRoundTrip(t *testing.T) {
	body := `{
		"model": "m",
		"messages": [
			{"role": "user", "content": "weather in SF?"},
			{"role": "assistant", "tool_calls": [
				{"id": "call_1", "type": "function", "function": {"name": "get_weather", "arguments": "{\"city\":\"SF\"}"}}
			]},
			{"role": "tool", "tool_call_id": "call_1", "content": "sunny"}
		],
		"tools": [{"type": "function", "function": {"name": "get_weather", "parameters": {"type": "object"}}}],
		"tool_choice": "auto"
	}`
	req, err := New().DecodeRequest([]byte(body))
	if err != nil {
		t.Fatalf("DecodeRequest: %v", err)
	}
	if len(req.Tools) != 1 || req.Tools[0].Name != "get_weather" {
		t.Fatalf("tools = %+v", req.Tools)
	}
	if req.ToolChoice == nil || req.ToolChoice.Mode != "auto" {
		t.Fatalf("toolChoice = %+v", req.ToolChoice)
	}
	calls := req.Messages[1].ToolCalls
	if len(calls) != 1 || calls[0].ID != "call_1" || calls[0].Arguments != `{"city":"SF"}` {
		t.Fatalf("toolCalls = %+v", calls)
	}
	results := req.Messages[2].ToolResults
	if len(results) != 1 || results[0].ToolCallID != "call_1" || results[0].Content != "sunny" {
		t.Fatalf("toolResults = %+v", results)
	}
	if !req.HasToolUsage() {
		t.Fatal("HasToolUsage = false")
	}
}

func TestDecodeRequestStopUnion(t *testing.T) {
	for body, want := range map[string]int{
		`{"model":"m","messages":[],"stop":"END"}`:          1,
		`{"model":"m","messages":[],"stop":["END","STOP"]}`: 2,
	} {
		req, err := New().DecodeRequest([]byte(body))
		if err != nil {
			t.Fatalf("DecodeRequest(%s): %v", body, err)
		}
		if len(req.Stop) != want {
			t.Fatalf("stop = %v, want %d entries", req.Stop, want)
		}
	}
}

func TestDecodeRequestResponseFormat(t *testing.T) {
	body := `{
		"model": "m",
		"messages": [],
		"response_format": {"type": "json_schema", "json_schema": {"name": "answer", "schema": {"type": "object"}, "strict": true}}
	}`
	req, err := New().DecodeRequest([]byte(body))
	if err != nil {
		t.Fatalf("DecodeRequest: %v", err)
	}
	rf := req.ResponseFormat
	if rf == nil || rf.Type != domain.FormatJSONSchema || rf.Name != "answer" || rf.Schema == nil {
		t.Fatalf("responseFormat = %+v", rf)
	}
	if rf.Strict == nil || !*rf.Strict {
		t.Fatalf("strict = %v", rf.Strict)
	}
}

func TestEncodeResponse(t *testing.T) {
	resp := &domain.ChatResponse{
		ID:      "chatcmpl-1",
		Created: 1700000000,
		Model:   "gpt-4o",
		Choices: []domain.Choice{{
			Index:        0,
			Message:      domain.TextMessage("assistant", "hi there"),
			FinishReason: "stop",
		}},
		Usage: &domain.Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15},
	}

	data, err := New().EncodeResponse(resp)
	if err != nil {
		t.Fatalf("EncodeResponse: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got["object"] != "chat.completion" || got["id"] != "chatcmpl-1" {
		t.Fatalf("envelope = %v", got)
	}
	usage := got["usage"].(map[string]any)
	if usage["prompt_tokens"].(float64) != 10 || usage["completion_tokens"].(float64) != 5 {
		t.Fatalf("usage = %v", usage)
	}
}

func TestEncodeResponseToolCallsOmitContent(t *testing.T) {
	resp := &domain.ChatResponse{
		ID:    "chatcmpl-2",
		Model: "gpt-4o",
		Choices: []domain.Choice{{
			Message: domain.Message{
				Role:      "assistant",
				ToolCalls: []domain.ToolCall{{ID: "call_1", Name: "f", Arguments: "{}"}},
			},
			FinishReason: "tool_calls",
		}},
	}

	data, err := New().EncodeResponse(resp)
	if err != nil {
		t.Fatalf("EncodeResponse: %v", err)
	}
	var got struct {
		Choices []struct {
			Message struct {
				Content   *string `json:"content"`
				ToolCalls []struct {
					ID string `json:"id"`
				} `json:"tool_calls"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	msg := got.Choices[0].Message
	if msg.Content != nil {
		t.Fatalf("content = %q, want omitted", *msg.Content)
	}
	if len(msg.ToolCalls) != 1 || msg.ToolCalls[0].ID != "call_1" {
		t.Fatalf("tool_calls = %+v", msg.ToolCalls)
	}
}
