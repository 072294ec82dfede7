// Package memory provides a brute-force in-memory vector index. It scores
// every stored entry against the query and is the simplest implementation
// of the index contract; it also backs the pipeline tests.
package memory

import (
	"context"
	"sync"

	"lumeni-retrieval/internal/vectorindex"
)

// Index is an in-memory vector index using brute-force cosine similarity.
type Index struct {
	mu      sync.RWMutex
	entries []vectorindex.Entry
}

// NewIndex returns an empty index.
func NewIndex() *Index { return &Index{} }

func (s *Index) Upsert(_ context.Context, entries []vectorindex.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entries...)
	return nil
}

func (s *Index) DeleteWhere(_ context.Context, f vectorindex.Filter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.entries[:0]
	for _, e := range s.entries {
		if !f.Matches(e.Metadata) {
			kept = append(kept, e)
		}
	}
	s.entries = kept
	return nil
}

func (s *Index) Query(_ context.Context, vector []float64, k int, f vectorindex.Filter) ([]vectorindex.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if k <= 0 {
		k = 5
	}
	matches := make([]vectorindex.Match, 0, len(s.entries))
	for _, e := range s.entries {
		if !f.Matches(e.Metadata) {
			continue
		}
		score, ok := vectorindex.Cosine(vector, e.Vector)
		if !ok {
			continue
		}
		matches = append(matches, vectorindex.Match{Entry: e, Score: score})
	}
	return vectorindex.Rank(matches, k), nil
}

// Len reports the number of stored entries.
func (s *Index) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
