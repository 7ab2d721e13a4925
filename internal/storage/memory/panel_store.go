package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"factor-eval-lab/internal/domain"
	"factor-eval-lab/internal/storage"
)

// PanelStore is an in-memory implementation of storage.PanelStore.
type PanelStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Panel
}

// NewPanelStore creates a new in-memory panel store.
func NewPanelStore() *PanelStore {
	return &PanelStore{data: make(map[string]*domain.Panel)}
}

// Compile-time interface check.
var _ storage.PanelStore = (*PanelStore)(nil)

// InsertPanel stores a panel under a dataset name. Returns
// ErrDuplicateKey if the dataset already exists.
func (s *PanelStore) InsertPanel(_ context.Context, dataset string, p *domain.Panel) error {
	if dataset == "" || p == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[dataset]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[dataset] = p.Clone()
	return nil
}

// GetPanel retrieves a full panel. Returns ErrNotFound if missing.
func (s *PanelStore) GetPanel(_ context.Context, dataset string) (*domain.Panel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.data[dataset]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return p.Clone(), nil
}

// GetPanelRange retrieves the panel restricted to [start, end].
func (s *PanelStore) GetPanelRange(_ context.Context, dataset string, start, end time.Time) (*domain.Panel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.data[dataset]
	if !ok {
		return nil, storage.ErrNotFound
	}

	var records []domain.Record
	for i := 0; i < p.NumPeriods(); i++ {
		t := p.Period(i)
		if t.Before(start) || t.After(end) {
			continue
		}
		for j := 0; j < p.NumInstruments(); j++ {
			records = append(records, domain.Record{Period: t, Instrument: p.Instrument(j), Value: p.At(i, j)})
		}
	}
	if len(records) == 0 {
		return nil, storage.ErrNotFound
	}
	return domain.FromRecords(records)
}

// ListDatasets returns all stored dataset names, sorted.
func (s *PanelStore) ListDatasets(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.data))
	for name := range s.data {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
