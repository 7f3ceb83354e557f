package telemetry

import (
	"log/slog"
	"sync"
)

// WarnOnce deduplicates warning logs by key for the lifetime of the process.
// Repeated provider misconfigurations would otherwise flood the log on every
// request. State is injected rather than package-global so tests can reset it.
type WarnOnce struct {
	logger *slog.Logger

	mu   sync.Mutex
	seen map[string]struct{}
}

// NewWarnOnce creates a deduplicating warner writing to logger.
func NewWarnOnce(logger *slog.Logger) *WarnOnce {
	return &WarnOnce{logger: logger, seen: make(map[string]struct{})}
}

// Warn logs msg with attrs the first time key is seen.
func (w *WarnOnce) Warn(key, msg string, attrs ...any) {
	w.mu.Lock()
	_, dup := w.seen[key]
	if !dup {
		w.seen[key] = struct{}{}
	}
	w.mu.Unlock()

	if !dup {
		w.logger.Warn(msg, attrs...)
	}
}

// Reset clears the seen set.
func (w *WarnOnce) Reset() {
	w.mu.Lock()
	w.seen = make(map[string]struct{})
	w.mu.Unlock()
}
