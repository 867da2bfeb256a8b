package pricing

import (
	"sync"
	"time"

	"solana-copy-trader/internal/domain"
)

// DefaultTTL is how long a price observation stays usable.
const DefaultTTL = 60 * time.Second

// Cache holds the most recent price per mint with TTL expiry.
//
// Updates follow latest-observation-wins: an incoming price with an older
// trade timestamp than the stored one is discarded regardless of arrival
// order; on equal timestamps the last writer wins. Reads never return an
// observation older than the TTL, whether or not a sweep has run yet.
type Cache struct {
	mu     sync.RWMutex
	prices map[string]domain.TokenPrice
	ttlMs  int64
}

// NewCache creates a price cache. Non-positive ttl falls back to DefaultTTL.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		prices: make(map[string]domain.TokenPrice),
		ttlMs:  ttl.Milliseconds(),
	}
}

// Update stores a price observation unless a newer one is already present.
// Returns true when the observation was accepted.
func (c *Cache) Update(p domain.TokenPrice) bool {
	if p.Mint == "" {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.prices[p.Mint]; ok && p.Timestamp < existing.Timestamp {
		return false
	}
	c.prices[p.Mint] = p
	return true
}

// Get returns the cached price for a mint if it is still fresh.
func (c *Cache) Get(mint string) (domain.TokenPrice, bool) {
	return c.GetAt(mint, time.Now().UnixMilli())
}

// GetAt is Get evaluated at an explicit time. An observation is fresh
// while nowMs - Timestamp <= ttl; lazy expiry here and Sweep use the same
// boundary.
func (c *Cache) GetAt(mint string, nowMs int64) (domain.TokenPrice, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.prices[mint]
	if !ok || nowMs-p.Timestamp > c.ttlMs {
		return domain.TokenPrice{}, false
	}
	return p, true
}

// Sweep removes entries older than the TTL relative to nowMs and returns
// the number removed.
func (c *Cache) Sweep(nowMs int64) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for mint, p := range c.prices {
		if nowMs-p.Timestamp > c.ttlMs {
			delete(c.prices, mint)
			removed++
		}
	}
	return removed
}

// Len returns the number of cached entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.prices)
}

// Snapshot returns a copy of all fresh entries for status reporting.
func (c *Cache) Snapshot() []domain.TokenPrice {
	nowMs := time.Now().UnixMilli()

	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.TokenPrice, 0, len(c.prices))
	for _, p := range c.prices {
		if nowMs-p.Timestamp <= c.ttlMs {
			out = append(out, p)
		}
	}
	return out
}
