// Package sample draws distinct movies uniformly at random from the records
// of a corpus that satisfy a compiled statement.
package sample

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/matthewbaird/djinn/internal/compile"
	"github.com/matthewbaird/djinn/internal/corpus"
	"github.com/matthewbaird/djinn/internal/movie"
)

// ErrInvalidCount is returned when a request asks for fewer than one movie.
var ErrInvalidCount = errors.New("count must be positive")

// Source supplies uniform random integers in [0, n). *rand.Rand satisfies it.
type Source interface {
	IntN(n int) int
}

// globalSource draws from the math/rand/v2 top-level generator, which is
// safe for concurrent use.
type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// DefaultSource returns a Source backed by the process-wide generator.
func DefaultSource() Source { return globalSource{} }

// lockedSource serialises calls to a Source that is not safe for concurrent
// use, such as *rand.Rand.
type lockedSource struct {
	mu  sync.Mutex
	src Source
}

func (l *lockedSource) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.IntN(n)
}

// Locked returns a Source backed by src that is safe for concurrent use.
// A nil src yields DefaultSource.
func Locked(src Source) Source {
	switch src.(type) {
	case nil:
		return DefaultSource()
	case globalSource, *lockedSource:
		return src
	}
	return &lockedSource{src: src}
}

// Request describes one draw.
type Request struct {
	Count int

	// Predicate filters records. Nil matches every record.
	Predicate compile.Predicate

	// Query is the same statement lowered for corpora implementing
	// corpus.Querier. It is optional; Predicate is applied either way.
	Query *compile.Query
}

// Result is the outcome of a draw. Movies holds min(Count, Matched)
// distinct records in random order.
type Result struct {
	Movies   []movie.Record `json:"movies"`
	Matched  int            `json:"matched"`
	Shortage bool           `json:"shortage"`
}

// Sampler draws random samples. A Sampler is as safe for concurrent use as
// its Source.
type Sampler struct {
	src Source
}

// New creates a Sampler drawing from src. A nil src uses the process-wide
// generator.
func New(src Source) *Sampler {
	if src == nil {
		src = DefaultSource()
	}
	return &Sampler{src: src}
}

// NewSeeded creates a Sampler with a deterministic PCG source.
func NewSeeded(seed uint64) *Sampler {
	return New(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// Sample scans c and keeps a uniform reservoir of req.Count matches. When
// fewer records match, all of them are returned and Shortage is set. The
// corpus is never modified.
func (s *Sampler) Sample(ctx context.Context, c corpus.Corpus, req Request) (*Result, error) {
	if req.Count <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCount, req.Count)
	}
	pred := req.Predicate
	if pred == nil {
		pred = compile.Always
	}

	reservoir := make([]movie.Record, 0, min(req.Count, 64))
	seen := 0
	keep := func(r movie.Record) error {
		if !pred(r) {
			return nil
		}
		seen++
		if len(reservoir) < req.Count {
			reservoir = append(reservoir, r)
			return nil
		}
		if j := s.src.IntN(seen); j < req.Count {
			reservoir[j] = r
		}
		return nil
	}

	var err error
	if q, ok := c.(corpus.Querier); ok && req.Query != nil {
		err = q.Select(ctx, req.Query, keep)
	} else {
		err = c.Scan(ctx, keep)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning corpus: %w", err)
	}

	s.shuffle(reservoir)
	return &Result{
		Movies:   reservoir,
		Matched:  seen,
		Shortage: seen < req.Count,
	}, nil
}

// shuffle permutes records in place (Fisher-Yates).
func (s *Sampler) shuffle(records []movie.Record) {
	for i := len(records) - 1; i > 0; i-- {
		j := s.src.IntN(i + 1)
		records[i], records[j] = records[j], records[i]
	}
}
