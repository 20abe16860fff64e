package corpus

import (
	"context"
	"sync"

	"github.com/matthewbaird/djinn/internal/movie"
)

// MemoryStore implements Corpus using an in-memory slice.
// Used for tests, parquet snapshots and small demo corpora.
type MemoryStore struct {
	mu      sync.RWMutex
	records []movie.Record
}

// NewMemoryStore creates a MemoryStore holding a copy of records.
func NewMemoryStore(records ...movie.Record) *MemoryStore {
	s := &MemoryStore{}
	s.Add(records...)
	return s
}

// Add appends records to the store.
func (s *MemoryStore) Add(records ...movie.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
}

func (s *MemoryStore) Scan(ctx context.Context, fn func(movie.Record) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

func (s *MemoryStore) Count(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}
