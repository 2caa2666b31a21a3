// Package metrics aggregates per-invocation counters for the settlement
// worker's batch processing.
package metrics

import (
	"sync"
	"time"
)

// BatchStats counts message outcomes within one worker invocation.
type BatchStats struct {
	mu       sync.Mutex
	start    time.Time
	received int
	settled  int
	skipped  int
	failed   int
}

// NewBatchStats starts tracking a batch of the given size.
func NewBatchStats(received int) *BatchStats {
	return &BatchStats{start: time.Now(), received: received}
}

// Settled records one effective Pending-to-terminal transition.
func (s *BatchStats) Settled() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settled++
}

// Skipped records a no-op message (absent transaction, redelivery, lost race).
func (s *BatchStats) Skipped() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skipped++
}

// Failed records a message whose processing errored; redelivery is left to
// the queue.
func (s *BatchStats) Failed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed++
}

// LogArgs returns the counters as alternating slog key/value pairs.
func (s *BatchStats) LogArgs() []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return []any{
		"received", s.received,
		"settled", s.settled,
		"skipped", s.skipped,
		"failed", s.failed,
		"durationMs", time.Since(s.start).Milliseconds(),
	}
}
