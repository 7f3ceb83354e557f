// Package memory provides an in-memory audit store for tests and for
// deployments that do not persist routing history.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aistats/gateway/internal/core/domain"
	"github.com/aistats/gateway/internal/storage"
)

// Store keeps audit records in a bounded ring. The oldest records fall off
// once the cap is reached.
type Store struct {
	mu      sync.RWMutex
	records []*domain.AuditRecord
	cap     int
}

var _ storage.AuditStore = (*Store)(nil)

// New creates a store holding at most cap records. A non-positive cap uses
// the default of 1024.
func New(cap int) *Store {
	if cap <= 0 {
		cap = 1024
	}
	return &Store{cap: cap}
}

// Record appends rec, evicting the oldest record when full.
func (s *Store) Record(_ context.Context, rec *domain.AuditRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	if len(s.records) > s.cap {
		s.records = s.records[len(s.records)-s.cap:]
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(_ context.Context, limit int) ([]*domain.AuditRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.records) {
		limit = len(s.records)
	}
	out := make([]*domain.AuditRecord, 0, limit)
	for i := len(s.records) - 1; i >= len(s.records)-limit; i-- {
		out = append(out, s.records[i])
	}
	return out, nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }
