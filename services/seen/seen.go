// Package seen persists which listings were already reported and at what
// bid, so repeated runs only surface new listings and bid changes.
package seen

import (
	"context"
	"sync"

	"bidwatcher/internal/listing"
)

// Store is the reported-listing ledger.
type Store interface {
	// Load returns every reported identity key with its last reported bid.
	Load(ctx context.Context) (map[string]float64, error)

	// MarkReported records that recs were published during run runID.
	MarkReported(ctx context.Context, recs []listing.Record, runID string) error

	Close() error
}

// MemoryStore keeps the ledger in memory. Useful for tests and one-shot runs
// where suppression across process restarts does not matter.
type MemoryStore struct {
	mu       sync.Mutex
	reported map[string]float64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{reported: make(map[string]float64)}
}

func (m *MemoryStore) Load(context.Context) (map[string]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]float64, len(m.reported))
	for k, v := range m.reported {
		out[k] = v
	}
	return out, nil
}

func (m *MemoryStore) MarkReported(_ context.Context, recs []listing.Record, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range recs {
		m.reported[rec.IdentityKey] = rec.CurrentBid
	}
	return nil
}

func (m *MemoryStore) Close() error { return nil }
