package blocklist

import (
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

// MemcacheBlocklist shares term blocks across worker restarts and replicas.
// A key's presence is the block; memcache's expiration is the TTL.
type MemcacheBlocklist struct {
	client *memcache.Client
}

// NewMemcacheBlocklist creates a memcache-backed blocklist.
func NewMemcacheBlocklist(serverAddr string) *MemcacheBlocklist {
	return &MemcacheBlocklist{client: memcache.New(serverAddr)}
}

// Blocked reports whether the term's block key exists. Memcache being
// unreachable reads as "not blocked" so an outage never halts scraping.
func (m *MemcacheBlocklist) Blocked(term string) bool {
	_, err := m.client.Get(blockKey(term))
	return err == nil
}

// Block writes the term's block key with the TTL as its expiration.
func (m *MemcacheBlocklist) Block(term string, ttl time.Duration) error {
	return m.client.Set(&memcache.Item{
		Key:        blockKey(term),
		Value:      []byte(ttl.String()),
		Expiration: int32(ttl.Seconds()),
	})
}
