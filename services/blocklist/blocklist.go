// Package blocklist remembers search terms that recently failed at the
// session or navigation level, so the next interval run does not hammer a
// site that is rate limiting or misbehaving.
package blocklist

import (
	"strings"
	"sync"
	"time"
)

// Blocklist marks terms as temporarily off limits.
type Blocklist interface {
	// Blocked reports whether the term is currently blocked.
	Blocked(term string) bool

	// Block marks the term off limits for the given duration.
	Block(term string, ttl time.Duration) error
}

// MemoryBlocklist is a process-local blocklist, used in tests and in
// one-shot runs where no memcache is deployed.
type MemoryBlocklist struct {
	mu    sync.Mutex
	until map[string]time.Time
}

// NewMemoryBlocklist creates an empty in-memory blocklist.
func NewMemoryBlocklist() *MemoryBlocklist {
	return &MemoryBlocklist{until: make(map[string]time.Time)}
}

// Blocked reports whether the term's block is still in effect.
func (m *MemoryBlocklist) Blocked(term string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	deadline, ok := m.until[blockKey(term)]
	if !ok {
		return false
	}
	if time.Now().After(deadline) {
		delete(m.until, blockKey(term))
		return false
	}
	return true
}

// Block marks the term off limits until now+ttl.
func (m *MemoryBlocklist) Block(term string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.until[blockKey(term)] = time.Now().Add(ttl)
	return nil
}

func blockKey(term string) string {
	return "term_block:" + strings.ToLower(strings.TrimSpace(term))
}
