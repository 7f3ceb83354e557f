// Package ports declares the interfaces between the pipeline and the parts
// of the gateway that live outside it.
package ports

import (
	"context"

	"github.com/aistats/gateway/internal/core/domain"
)

// ExecuteInput carries a validated, routed request to an executor.
type ExecuteInput struct {
	Endpoint domain.Endpoint
	Provider domain.ProviderCandidate

	// Request is the canonical form. It is nil for media endpoints, which
	// pass the raw body through undecoded.
	Request *domain.ChatRequest
	RawBody []byte

	RequestID string
	TeamID    string
}

// ExecuteResult is the outcome of one execution attempt. Exactly one of
// Response, RawBody or Err is set.
type ExecuteResult struct {
	// Response is the canonical response for text endpoints.
	Response *domain.ChatResponse

	// RawBody is the provider payload for media endpoints.
	RawBody []byte

	// Err is a provider-attributed terminal error.
	Err *domain.ErrorResponse
}

// Executor sends a routed request to an upstream provider.
type Executor interface {
	Execute(ctx context.Context, in ExecuteInput) (*ExecuteResult, error)
}

// AuditSink records the outcome of every pipeline run, success or failure.
type AuditSink interface {
	Record(ctx context.Context, rec *domain.AuditRecord) error
}
