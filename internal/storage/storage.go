// Package storage defines the persistence interfaces for audit records.
package storage

import (
	"context"

	"github.com/aistats/gateway/internal/core/domain"
)

// AuditStore persists pipeline audit records and supports bounded review
// queries. Implementations must be safe for concurrent use.
type AuditStore interface {
	Record(ctx context.Context, rec *domain.AuditRecord) error

	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]*domain.AuditRecord, error)

	Close() error
}
