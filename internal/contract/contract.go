// Package contract checks decoded canonical requests against the invariants
// every downstream stage assumes. The validator collects every violation in
// one pass so clients fix a request once, not field by field.
package contract

import (
	"fmt"

	"github.com/aistats/gateway/internal/core/domain"
)

// Issue codes.
const (
	CodeStreamWithTools          = "stream_with_tools_not_supported"
	CodeResponseFormatInvalid    = "response_format_type_invalid"
	CodeJSONSchemaMissingSchema  = "response_format_json_schema_missing_schema"
	CodeMessagesEmpty            = "messages_empty"
	CodeMessageRoleInvalid       = "message_role_invalid"
	CodeToolMissingName          = "tool_missing_name"
	CodeToolResultMissingCallID  = "tool_result_missing_call_id"
)

var validRoles = map[string]struct{}{
	"system":    {},
	"developer": {},
	"user":      {},
	"assistant": {},
	"tool":      {},
}

// Validate returns every contract violation in req. An empty slice means the
// request may proceed to execution.
func Validate(req *domain.ChatRequest) []domain.ContractIssue {
	var issues []domain.ContractIssue

	if req.Stream && req.HasToolUsage() {
		issues = append(issues, domain.ContractIssue{
			Code:    CodeStreamWithTools,
			Message: "streaming responses cannot be combined with tool usage",
			Path:    []string{"stream"},
		})
	}

	if rf := req.ResponseFormat; rf != nil {
		switch rf.Type {
		case domain.FormatText, domain.FormatJSONObject:
		case domain.FormatJSONSchema:
			if len(rf.Schema) == 0 {
				issues = append(issues, domain.ContractIssue{
					Code:    CodeJSONSchemaMissingSchema,
					Message: "response_format of type json_schema requires a schema",
					Path:    []string{"responseFormat", "schema"},
				})
			}
		default:
			issues = append(issues, domain.ContractIssue{
				Code:    CodeResponseFormatInvalid,
				Message: fmt.Sprintf("unknown response_format type %q", rf.Type),
				Path:    []string{"responseFormat", "type"},
			})
		}
	}

	if len(req.Messages) == 0 {
		issues = append(issues, domain.ContractIssue{
			Code:    CodeMessagesEmpty,
			Message: "at least one message is required",
			Path:    []string{"messages"},
		})
	}
	for i, m := range req.Messages {
		if _, ok := validRoles[m.Role]; !ok {
			issues = append(issues, domain.ContractIssue{
				Code:    CodeMessageRoleInvalid,
				Message: fmt.Sprintf("unknown message role %q", m.Role),
				Path:    []string{"messages", fmt.Sprint(i), "role"},
			})
		}
		for j, r := range m.ToolResults {
			if r.ToolCallID == "" {
				issues = append(issues, domain.ContractIssue{
					Code:    CodeToolResultMissingCallID,
					Message: "tool result is missing its tool call id",
					Path:    []string{"messages", fmt.Sprint(i), "toolResults", fmt.Sprint(j)},
				})
			}
		}
	}

	for i, tool := range req.Tools {
		if tool.Name == "" {
			issues = append(issues, domain.ContractIssue{
				Code:    CodeToolMissingName,
				Message: "tool definition is missing a name",
				Path:    []string{"tools", fmt.Sprint(i), "name"},
			})
		}
	}

	return issues
}
