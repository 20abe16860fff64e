// Package corpus holds the movie records statements are evaluated against.
// A corpus is a read-only snapshot: in memory, in SQLite or in a parquet file.
package corpus

import (
	"context"
	"errors"

	"github.com/matthewbaird/djinn/internal/compile"
	"github.com/matthewbaird/djinn/internal/movie"
)

// Corpus streams every record to fn. Scan stops at the first error returned
// by fn or when ctx is done.
type Corpus interface {
	Scan(ctx context.Context, fn func(movie.Record) error) error
}

// Querier is implemented by corpora that can evaluate a lowered statement
// themselves. Select streams only the records matching q.
type Querier interface {
	Select(ctx context.Context, q *compile.Query, fn func(movie.Record) error) error
}

// Counter is implemented by corpora that know their size without a scan.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// ErrEmpty is returned by loaders that found no records.
var ErrEmpty = errors.New("corpus is empty")

// Count returns the number of records in c.
func Count(ctx context.Context, c Corpus) (int, error) {
	if counter, ok := c.(Counter); ok {
		return counter.Count(ctx)
	}
	n := 0
	err := c.Scan(ctx, func(movie.Record) error {
		n++
		return nil
	})
	return n, err
}

// Collect reads every record of c into a slice.
func Collect(ctx context.Context, c Corpus) ([]movie.Record, error) {
	var out []movie.Record
	err := c.Scan(ctx, func(r movie.Record) error {
		out = append(out, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
