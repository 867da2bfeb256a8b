package memory

import (
	"context"
	"sort"
	"sync"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/storage"
)

// FillJournal is an in-memory implementation of storage.FillJournal.
type FillJournal struct {
	mu   sync.RWMutex
	data map[string]*domain.Fill // keyed by fill_id
}

// NewFillJournal creates a new in-memory fill journal.
func NewFillJournal() *FillJournal {
	return &FillJournal{
		data: make(map[string]*domain.Fill),
	}
}

var _ storage.FillJournal = (*FillJournal)(nil)

// Insert appends a fill. Returns ErrDuplicateKey if the fill ID exists.
func (s *FillJournal) Insert(_ context.Context, f *domain.Fill) error {
	if f == nil || f.FillID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[f.FillID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *f
	s.data[f.FillID] = &copy
	return nil
}

// ListByMint returns fills for a mint, oldest-first.
func (s *FillJournal) ListByMint(_ context.Context, mint string) ([]*domain.Fill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Fill
	for _, f := range s.data {
		if f.Mint == mint {
			copy := *f
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Timestamp != result[j].Timestamp {
			return result[i].Timestamp < result[j].Timestamp
		}
		return result[i].FillID < result[j].FillID
	})

	return result, nil
}
