package quotestore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vendalivre/frete/pkg/freight"
)

// MemoryStore is an in-memory Store. It backs tests and lets the service
// run without a database in mock mode.
type MemoryStore struct {
	mu      sync.RWMutex
	records []memoryRecord
	now     func() time.Time
}

type memoryRecord struct {
	id         uuid.UUID
	cep        string
	candidates []freight.CandidateQuote
	createdAt  time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// Lookup scans newest-first so the most recent qualifying record wins.
func (s *MemoryStore) Lookup(ctx context.Context, cep string, service freight.Service) (*freight.CandidateQuote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := s.now().Add(-RetentionWindow)
	for i := len(s.records) - 1; i >= 0; i-- {
		rec := s.records[i]
		if rec.cep != cep || !rec.createdAt.After(cutoff) {
			continue
		}
		for _, c := range rec.candidates {
			if c.Service == service {
				found := c
				return &found, nil
			}
		}
	}
	return nil, nil
}

// Insert appends a new immutable record.
func (s *MemoryStore) Insert(ctx context.Context, cep string, candidates []freight.CandidateQuote) error {
	if len(candidates) == 0 {
		return ErrEmptyCandidates
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, memoryRecord{
		id:         uuid.New(),
		cep:        cep,
		candidates: append([]freight.CandidateQuote(nil), candidates...),
		createdAt:  s.now(),
	})
	return nil
}

// Sweep drops records past the retention window.
func (s *MemoryStore) Sweep(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-RetentionWindow)
	kept := s.records[:0]
	var removed int64
	for _, rec := range s.records {
		if rec.createdAt.After(cutoff) {
			kept = append(kept, rec)
		} else {
			removed++
		}
	}
	s.records = kept
	return removed, nil
}

// Len reports how many records are physically present, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

var _ Store = (*MemoryStore)(nil)
