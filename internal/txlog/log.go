// Package txlog keeps a bounded in-memory record of decoded trade events.
package txlog

import (
	"sync"
	"time"

	"solana-copy-trader/internal/domain"
)

// Defaults matching typical feed volume.
const (
	DefaultMaxCount  = 1000
	DefaultRetention = 24 * time.Hour
)

// Filter narrows a Query. Zero-value fields match everything.
type Filter struct {
	Protocol *domain.Protocol
	Mint     string
	Wallet   string
	Limit    int // 0 means no limit
}

// Log is an append-only, bounded record of trade events. Events are held
// oldest-first; bounds are enforced by Sweep (age first, then count) so
// Append stays O(1) on the hot path.
type Log struct {
	mu          sync.RWMutex
	events      []domain.TradeEvent
	maxCount    int
	retentionMs int64
}

// New creates a transaction log. Non-positive bounds fall back to defaults.
func New(maxCount int, retention time.Duration) *Log {
	if maxCount <= 0 {
		maxCount = DefaultMaxCount
	}
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Log{
		maxCount:    maxCount,
		retentionMs: retention.Milliseconds(),
	}
}

// Append records an event.
func (l *Log) Append(ev domain.TradeEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

// Query returns copies of events matching the filter, oldest-first.
// The result is a finite snapshot; later appends do not affect it.
func (l *Log) Query(f Filter) []domain.TradeEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []domain.TradeEvent
	for _, ev := range l.events {
		if f.Protocol != nil && ev.Protocol != *f.Protocol {
			continue
		}
		if f.Mint != "" && ev.Mint != f.Mint {
			continue
		}
		if f.Wallet != "" && ev.Wallet != f.Wallet {
			continue
		}
		out = append(out, ev)
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out
}

// Sweep drops events older than the retention window, then drops the
// oldest events beyond the count bound. Returns the number removed.
func (l *Log) Sweep(nowMs int64) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := nowMs - l.retentionMs
	start := 0
	for start < len(l.events) && l.events[start].Timestamp < cutoff {
		start++
	}

	if overflow := len(l.events) - start - l.maxCount; overflow > 0 {
		start += overflow
	}

	if start == 0 {
		return 0
	}

	kept := make([]domain.TradeEvent, len(l.events)-start)
	copy(kept, l.events[start:])
	l.events = kept
	return start
}

// Len returns the current number of recorded events.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}
