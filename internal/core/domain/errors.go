package domain

import "net/http"

// Error codes returned in the top-level "error" field.
const (
	ErrCodeValidation        = "validation_error"
	ErrCodeInvalidRequest    = "invalid_request"
	ErrCodePipelineExecution = "pipeline_execution_error"
)

// Detail keywords. Schema errors and capability errors share the validation
// error code but stay distinguishable by keyword.
const (
	KeywordUnknownParam           = "unknown_param"
	KeywordUnsupportedParam       = "unsupported_param"
	KeywordProviderDocsViolation  = "provider_docs_violation"
	KeywordMaxTokensExceeded      = "max_tokens_exceeded"
	KeywordMaxInputTokensExceeded = "max_input_tokens_exceeded"
)

// ErrorDetail is one violation inside a validation error.
type ErrorDetail struct {
	Message string         `json:"message"`
	Path    []string       `json:"path"`
	Keyword string         `json:"keyword"`
	Params  map[string]any `json:"params,omitempty"`
}

// ContractIssue describes one canonical-IR invariant violation. A non-empty
// issue list always maps to a terminal 400-class error.
type ContractIssue struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Path    []string `json:"path"`
}

// ErrorResponse is the single HTTP-shaped error payload produced by the
// pipeline. Status is transport metadata and not serialized.
type ErrorResponse struct {
	Status      int             `json:"-"`
	Code        string          `json:"error"`
	Description string          `json:"description,omitempty"`
	Details     []ErrorDetail   `json:"details,omitempty"`
	RequestID   string          `json:"request_id,omitempty"`
	TeamID      string          `json:"team_id,omitempty"`
	Issues      []ContractIssue `json:"issues,omitempty"`
	// Message carries the raw internal error text and is only populated
	// when the request enabled debug mode.
	Message string `json:"message,omitempty"`
}

// Error implements the error interface.
func (e *ErrorResponse) Error() string {
	if e.Description != "" {
		return e.Code + ": " + e.Description
	}
	if len(e.Details) > 0 {
		return e.Code + ": " + e.Details[0].Message
	}
	return e.Code
}

// NewValidationError builds the 400 payload for schema and capability errors.
func NewValidationError(details []ErrorDetail, requestID, teamID string) *ErrorResponse {
	return &ErrorResponse{
		Status:    http.StatusBadRequest,
		Code:      ErrCodeValidation,
		Details:   details,
		RequestID: requestID,
		TeamID:    teamID,
	}
}

// NewInvalidRequest builds the 400 payload for IR contract failures. The
// issue list is attached only when debug is set on the request.
func NewInvalidRequest(description, requestID string, issues []ContractIssue, debug bool) *ErrorResponse {
	resp := &ErrorResponse{
		Status:      http.StatusBadRequest,
		Code:        ErrCodeInvalidRequest,
		Description: description,
		RequestID:   requestID,
	}
	if debug {
		resp.Issues = issues
	}
	return resp
}

// NewPipelineExecutionError builds the sanitized 500 payload for uncaught
// stage failures. rawMessage is attached only when debug is set.
func NewPipelineExecutionError(requestID, rawMessage string, debug bool) *ErrorResponse {
	resp := &ErrorResponse{
		Status:      http.StatusInternalServerError,
		Code:        ErrCodePipelineExecution,
		Description: "the gateway failed to process this request",
		RequestID:   requestID,
	}
	if debug {
		resp.Message = rawMessage
	}
	return resp
}
