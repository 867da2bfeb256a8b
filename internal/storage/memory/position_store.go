// Package memory provides in-memory store implementations.
package memory

import (
	"context"
	"sort"
	"sync"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/storage"
)

// PositionStore is an in-memory implementation of storage.PositionStore.
type PositionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Position // keyed by mint
}

// NewPositionStore creates a new in-memory position store.
func NewPositionStore() *PositionStore {
	return &PositionStore{
		data: make(map[string]*domain.Position),
	}
}

var _ storage.PositionStore = (*PositionStore)(nil)

// Upsert inserts or replaces the position for its mint.
func (s *PositionStore) Upsert(_ context.Context, p *domain.Position) error {
	if p == nil || p.Mint == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *p
	s.data[p.Mint] = &copy
	return nil
}

// Delete removes the position for a mint. Returns ErrNotFound if absent.
func (s *PositionStore) Delete(_ context.Context, mint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[mint]; !exists {
		return storage.ErrNotFound
	}
	delete(s.data, mint)
	return nil
}

// ListOpen returns all persisted positions, ordered by mint for
// deterministic output.
func (s *PositionStore) ListOpen(_ context.Context) ([]*domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Position, 0, len(s.data))
	for _, p := range s.data {
		copy := *p
		result = append(result, &copy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Mint < result[j].Mint
	})

	return result, nil
}
