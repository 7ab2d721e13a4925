package memory

import (
	"context"
	"sort"
	"sync"

	"factor-eval-lab/internal/domain"
	"factor-eval-lab/internal/storage"
)

type resultKey struct {
	factorName  string
	evaluatedAt int64
}

// ResultStore is an in-memory implementation of storage.ResultStore.
type ResultStore struct {
	mu      sync.RWMutex
	results []*domain.EvaluationResult
	keys    map[resultKey]struct{}
}

// NewResultStore creates a new in-memory result store.
func NewResultStore() *ResultStore {
	return &ResultStore{keys: make(map[resultKey]struct{})}
}

// Compile-time interface check.
var _ storage.ResultStore = (*ResultStore)(nil)

// Insert adds a new result. Returns ErrDuplicateKey if a result for
// (factor_name, evaluated_at) exists.
func (s *ResultStore) Insert(_ context.Context, r *domain.EvaluationResult) error {
	if r == nil || r.FactorName == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := resultKey{factorName: r.FactorName, evaluatedAt: r.EvaluatedAt.UnixNano()}
	if _, exists := s.keys[key]; exists {
		return storage.ErrDuplicateKey
	}
	s.keys[key] = struct{}{}

	clone := *r
	clone.BucketReturns = append([]float64(nil), r.BucketReturns...)
	s.results = append(s.results, &clone)
	return nil
}

// GetByFactor retrieves all results for a factor, ordered by
// evaluated_at ASC.
func (s *ResultStore) GetByFactor(_ context.Context, factorName string) ([]*domain.EvaluationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.EvaluationResult
	for _, r := range s.results {
		if r.FactorName == factorName {
			clone := *r
			clone.BucketReturns = append([]float64(nil), r.BucketReturns...)
			out = append(out, &clone)
		}
	}
	sortResults(out)
	return out, nil
}

// GetAll retrieves all results, ordered by evaluated_at ASC.
func (s *ResultStore) GetAll(_ context.Context) ([]*domain.EvaluationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.EvaluationResult, 0, len(s.results))
	for _, r := range s.results {
		clone := *r
		clone.BucketReturns = append([]float64(nil), r.BucketReturns...)
		out = append(out, &clone)
	}
	sortResults(out)
	return out, nil
}

func sortResults(results []*domain.EvaluationResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].EvaluatedAt.Before(results[j].EvaluatedAt)
	})
}
