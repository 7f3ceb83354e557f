package domain

import "time"

// AuditRecord is one pipeline outcome, persisted for after-the-fact routing
// analysis. Diagnostics is nil when the request failed before filtering.
// StageTimingsMs holds the cumulative elapsed milliseconds at each completed
// pipeline stage.
type AuditRecord struct {
	RequestID      string                   `json:"requestId"`
	TeamID         string                   `json:"teamId,omitempty"`
	Endpoint       Endpoint                 `json:"endpoint"`
	Model          string                   `json:"model,omitempty"`
	Provider       string                   `json:"provider,omitempty"`
	Status         int                      `json:"status"`
	ErrorCode      string                   `json:"errorCode,omitempty"`
	FinishReason   string                   `json:"finishReason,omitempty"`
	DurationMillis int64                    `json:"durationMs"`
	StageTimingsMs map[string]int64         `json:"stageTimingsMs,omitempty"`
	Diagnostics    *ParamRoutingDiagnostics `json:"diagnostics,omitempty"`
	CreatedAt      time.Time                `json:"createdAt"`
}
