package contract

import (
	"testing"

	"github.com/aistats/gateway/internal/core/domain"
)

func validRequest() *domain.ChatRequest {
	return &domain.ChatRequest{
		Model:    "test-model",
		Messages: []domain.Message{domain.TextMessage("user", "hi")},
	}
}

func hasIssue(issues []domain.ContractIssue, code string) bool {
	for _, i := range issues {
		if i.Code == code {
			return true
		}
	}
	return false
}

func TestValidateAcceptsWellFormedRequest(t *testing.T) {
	if issues := Validate(validRequest()); len(issues) != 0 {
		t.Fatalf("unexpected issues: %+v", issues)
	}
}

func TestValidateStreamWithTools(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*domain.ChatRequest)
		want   bool
	}{
		{"stream only", func(r *domain.ChatRequest) { r.Stream = true }, false},
		{"tools only", func(r *domain.ChatRequest) {
			r.Tools = []domain.Tool{{Name: "lookup"}}
		}, false},
		{"stream with declared tools", func(r *domain.ChatRequest) {
			r.Stream = true
			r.Tools = []domain.Tool{{Name: "lookup"}}
		}, true},
		{"stream with tool history", func(r *domain.ChatRequest) {
			r.Stream = true
			r.Messages = append(r.Messages, domain.Message{
				Role:        "assistant",
				ToolCalls:   []domain.ToolCall{{ID: "call_1", Name: "lookup", Arguments: "{}"}},
			})
		}, true},
		{"stream with tool role message", func(r *domain.ChatRequest) {
			r.Stream = true
			r.Messages = append(r.Messages, domain.Message{
				Role:        "tool",
				ToolResults: []domain.ToolResult{{ToolCallID: "call_1", Content: "ok"}},
			})
		}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			tc.mutate(req)
			got := hasIssue(Validate(req), CodeStreamWithTools)
			if got != tc.want {
				t.Fatalf("stream_with_tools issue = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestValidateResponseFormat(t *testing.T) {
	cases := []struct {
		name   string
		format *domain.ResponseFormat
		code   string
	}{
		{"text", &domain.ResponseFormat{Type: domain.FormatText}, ""},
		{"json_object", &domain.ResponseFormat{Type: domain.FormatJSONObject}, ""},
		{"json_schema with schema", &domain.ResponseFormat{
			Type:   domain.FormatJSONSchema,
			Schema: map[string]any{"type": "object"},
		}, ""},
		{"json_schema without schema", &domain.ResponseFormat{
			Type: domain.FormatJSONSchema,
		}, CodeJSONSchemaMissingSchema},
		{"unknown type", &domain.ResponseFormat{Type: "xml"}, CodeResponseFormatInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			req.ResponseFormat = tc.format
			issues := Validate(req)
			if tc.code == "" {
				if len(issues) != 0 {
					t.Fatalf("unexpected issues: %+v", issues)
				}
				return
			}
			if !hasIssue(issues, tc.code) {
				t.Fatalf("issues %+v missing %s", issues, tc.code)
			}
		})
	}
}

func TestValidateCollectsAllIssues(t *testing.T) {
	req := &domain.ChatRequest{
		Model:          "test-model",
		Stream:         true,
		Tools:          []domain.Tool{{Name: ""}},
		ResponseFormat: &domain.ResponseFormat{Type: "xml"},
	}
	issues := Validate(req)
	for _, code := range []string{CodeStreamWithTools, CodeToolMissingName, CodeResponseFormatInvalid, CodeMessagesEmpty} {
		if !hasIssue(issues, code) {
			t.Fatalf("issues %+v missing %s", issues, code)
		}
	}
}
