package corpus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/segmentio/parquet-go"
	"github.com/shopspring/decimal"

	"github.com/matthewbaird/djinn/internal/movie"
)

// snapshotRow is the parquet layout of a movie record. Ratings are kept as
// decimal strings so a snapshot round-trips exactly.
type snapshotRow struct {
	ID      string `parquet:"id"`
	Title   string `parquet:"title"`
	Year    int64  `parquet:"year"`
	Runtime int64  `parquet:"runtime"`
	Votes   int64  `parquet:"votes"`
	Rating  string `parquet:"rating"`
	Genres  string `parquet:"genres"`
}

// WriteParquet writes every record of c to w as a parquet snapshot and
// returns the number of records written.
func WriteParquet(ctx context.Context, w io.Writer, c Corpus) (int, error) {
	writer := parquet.NewGenericWriter[snapshotRow](w)

	n := 0
	err := c.Scan(ctx, func(r movie.Record) error {
		row := snapshotRow{
			ID:      r.ID,
			Title:   r.Title,
			Year:    r.Year,
			Runtime: r.Runtime,
			Votes:   r.Votes,
			Rating:  r.Rating.String(),
			Genres:  r.Genres.String(),
		}
		if _, err := writer.Write([]snapshotRow{row}); err != nil {
			return fmt.Errorf("writing %s: %w", r.ID, err)
		}
		n++
		return nil
	})
	if err != nil {
		return n, err
	}
	if err := writer.Close(); err != nil {
		return n, fmt.Errorf("closing parquet writer: %w", err)
	}
	return n, nil
}

// ExportParquet writes a snapshot of c to the file at path.
func ExportParquet(ctx context.Context, path string, c Corpus) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	n, err := WriteParquet(ctx, f, c)
	if err != nil {
		f.Close()
		return n, err
	}
	return n, f.Close()
}

// ReadParquet loads a parquet snapshot into a MemoryStore.
func ReadParquet(path string) (*MemoryStore, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pqFile, err := parquet.OpenFile(file, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}

	reader := parquet.NewReader(pqFile)
	defer reader.Close()

	store := NewMemoryStore()
	for {
		var row snapshotRow
		if err := reader.Read(&row); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		rating, err := decimal.NewFromString(row.Rating)
		if err != nil {
			return nil, fmt.Errorf("movie %s: invalid rating %q: %w", row.ID, row.Rating, err)
		}
		store.Add(movie.Record{
			ID:      row.ID,
			Title:   row.Title,
			Year:    row.Year,
			Runtime: row.Runtime,
			Votes:   row.Votes,
			Rating:  rating,
			Genres:  movie.ParseGenreSet(row.Genres),
		})
	}
	return store, nil
}
