package alerts

import (
	"context"
	"strings"
	"sync"

	"cropsense/internal/types"
)

// DedupStore tracks which dedup keys have already produced an alert. The
// evaluator consults it before emitting and marks keys after emitting; the
// store is the only shared mutable state in the core, so implementations
// must be safe for concurrent use.
type DedupStore interface {
	// Seen reports whether an alert was already emitted under the key.
	Seen(ctx context.Context, key types.DedupKey) (bool, error)

	// MarkEmitted records the key. Marking an already-marked key is a no-op.
	MarkEmitted(ctx context.Context, key types.DedupKey) error

	// PruneBefore discards keys whose day sorts before the given day
	// (YYYY-MM-DD) and returns how many were removed. Keys embed their day,
	// so expired entries are garbage, not state.
	PruneBefore(ctx context.Context, day string) (int, error)
}

// MemoryDedupStore is the in-process DedupStore used by tests and
// single-node deployments. The Postgres-backed implementation lives in
// internal/db.
type MemoryDedupStore struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewMemoryDedupStore creates an empty in-memory store.
func NewMemoryDedupStore() *MemoryDedupStore {
	return &MemoryDedupStore{seen: make(map[string]struct{})}
}

// Seen implements DedupStore.
func (s *MemoryDedupStore) Seen(_ context.Context, key types.DedupKey) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[key.String()]
	return ok, nil
}

// MarkEmitted implements DedupStore.
func (s *MemoryDedupStore) MarkEmitted(_ context.Context, key types.DedupKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen[key.String()] = struct{}{}
	return nil
}

// PruneBefore implements DedupStore. Day strings are ISO dates, so
// lexicographic comparison is chronological.
func (s *MemoryDedupStore) PruneBefore(_ context.Context, day string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for k := range s.seen {
		parts := strings.Split(k, "|")
		if len(parts) == 4 && parts[3] < day {
			delete(s.seen, k)
			removed++
		}
	}
	return removed, nil
}
