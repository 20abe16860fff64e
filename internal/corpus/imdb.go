package corpus

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Dataset URLs published by IMDb.
const (
	BasicsURL  = "https://datasets.imdbws.com/title.basics.tsv.gz"
	RatingsURL = "https://datasets.imdbws.com/title.ratings.tsv.gz"
)

// nullField is how the IMDb datasets spell a missing value.
const nullField = `\N`

// ImportStats reports how many rows an import wrote.
type ImportStats struct {
	Movies  int `json:"movies"`
	Ratings int `json:"ratings"`
}

// Download fetches url into dest.
func Download(ctx context.Context, client *http.Client, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("downloading %s: unexpected status %s", url, resp.Status)
	}

	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", dest, err)
	}
	return f.Close()
}

// ImportFiles imports the gzipped title.basics and title.ratings datasets
// from disk. See Import.
func (s *SQLiteStore) ImportFiles(ctx context.Context, basicsPath, ratingsPath string) (ImportStats, error) {
	basics, err := os.Open(basicsPath)
	if err != nil {
		return ImportStats{}, err
	}
	defer basics.Close()

	ratings, err := os.Open(ratingsPath)
	if err != nil {
		return ImportStats{}, err
	}
	defer ratings.Close()

	return s.Import(ctx, basics, ratings)
}

// Import replaces the corpus with the gzipped IMDb title.basics and
// title.ratings datasets. Only titles of type "movie" are kept. The whole
// import runs in one transaction, so a failed import leaves the previous
// corpus in place.
func (s *SQLiteStore) Import(ctx context.Context, basics, ratings io.Reader) (ImportStats, error) {
	var stats ImportStats

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return stats, fmt.Errorf("beginning import: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DROP VIEW IF EXISTS corpus; DROP TABLE IF EXISTS movies; DROP TABLE IF EXISTS ratings;`); err != nil {
		return stats, fmt.Errorf("dropping corpus: %w", err)
	}
	if _, err := tx.ExecContext(ctx, schema); err != nil {
		return stats, fmt.Errorf("creating corpus schema: %w", err)
	}

	stats.Movies, err = importTSV(ctx, tx, basics,
		`INSERT OR REPLACE INTO movies VALUES (?, ?, ?, ?, ?, ?, ?)`, basicsRow)
	if err != nil {
		return stats, fmt.Errorf("importing title.basics: %w", err)
	}
	stats.Ratings, err = importTSV(ctx, tx, ratings,
		`INSERT OR REPLACE INTO ratings VALUES (?, ?, ?)`, ratingsRow)
	if err != nil {
		return stats, fmt.Errorf("importing title.ratings: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("committing import: %w", err)
	}
	return stats, nil
}

// rowFunc maps the fields of one dataset line to insert arguments. A nil
// result skips the line.
type rowFunc func(fields []string) ([]any, error)

// basicsRow keeps movies from title.basics:
// tconst titleType primaryTitle originalTitle isAdult startYear endYear runtimeMinutes genres
func basicsRow(fields []string) ([]any, error) {
	if len(fields) != 9 {
		return nil, fmt.Errorf("expected 9 fields, got %d", len(fields))
	}
	if fields[1] != "movie" {
		return nil, nil
	}
	isAdult, err := nullableInt(fields[4])
	if err != nil {
		return nil, fmt.Errorf("isAdult: %w", err)
	}
	year, err := nullableInt(fields[5])
	if err != nil {
		return nil, fmt.Errorf("startYear: %w", err)
	}
	runtime, err := nullableInt(fields[7])
	if err != nil {
		return nil, fmt.Errorf("runtimeMinutes: %w", err)
	}
	return []any{fields[0], fields[2], fields[3], isAdult, year, runtime, nullableString(fields[8])}, nil
}

// ratingsRow reads title.ratings: tconst averageRating numVotes
func ratingsRow(fields []string) ([]any, error) {
	if len(fields) != 3 {
		return nil, fmt.Errorf("expected 3 fields, got %d", len(fields))
	}
	rating, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return nil, fmt.Errorf("averageRating: %w", err)
	}
	votes, err := nullableInt(fields[2])
	if err != nil {
		return nil, fmt.Errorf("numVotes: %w", err)
	}
	return []any{fields[0], rating, votes}, nil
}

func importTSV(ctx context.Context, tx *sql.Tx, r io.Reader, insert string, row rowFunc) (int, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return 0, err
	}
	defer zr.Close()

	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	scanner := bufio.NewScanner(zr)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	n, line := 0, 0
	for scanner.Scan() {
		line++
		if line == 1 {
			continue // header
		}
		args, err := row(strings.Split(scanner.Text(), "\t"))
		if err != nil {
			return n, fmt.Errorf("line %d: %w", line, err)
		}
		if args == nil {
			continue
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return n, fmt.Errorf("line %d: %w", line, err)
		}
		n++
	}
	return n, scanner.Err()
}

func nullableInt(s string) (any, error) {
	if s == nullField {
		return nil, nil
	}
	return strconv.ParseInt(s, 10, 64)
}

func nullableString(s string) any {
	if s == nullField {
		return nil
	}
	return s
}
