package corpus

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/matthewbaird/djinn/internal/compile"
	"github.com/matthewbaird/djinn/internal/movie"
)

// SQLiteStore implements Corpus and Querier over the IMDb movies and ratings
// tables. Only movies with a rating are part of the corpus.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLiteStore.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const schema = `
	CREATE TABLE IF NOT EXISTS movies (
		tconst        TEXT PRIMARY KEY,
		primaryTitle  TEXT,
		originalTitle TEXT,
		isAdult       INTEGER,
		year          INTEGER,
		runtime       INTEGER,
		genres        TEXT
	);

	CREATE TABLE IF NOT EXISTS ratings (
		tconst TEXT PRIMARY KEY,
		rating REAL,
		votes  INTEGER
	);

	CREATE VIEW IF NOT EXISTS corpus AS
		SELECT m.tconst                  AS id,
		       COALESCE(m.primaryTitle, '') AS title,
		       COALESCE(m.year, 0)       AS year,
		       COALESCE(m.runtime, 0)    AS runtime,
		       COALESCE(r.votes, 0)      AS votes,
		       COALESCE(r.rating, 0)     AS rating,
		       COALESCE(m.genres, '')    AS genres
		FROM movies m
		JOIN ratings r ON r.tconst = m.tconst;
`

const selectColumns = `SELECT id, title, year, runtime, votes, rating, genres FROM corpus`

// CreateTables creates the movies and ratings tables and the corpus view.
func (s *SQLiteStore) CreateTables(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating corpus schema: %w", err)
	}
	return nil
}

// Insert writes records into both tables, replacing rows with the same ID.
func (s *SQLiteStore) Insert(ctx context.Context, records ...movie.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning insert: %w", err)
	}
	defer tx.Rollback()

	movieStmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO movies VALUES (?, ?, ?, 0, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing movie insert: %w", err)
	}
	defer movieStmt.Close()

	ratingStmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO ratings VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing rating insert: %w", err)
	}
	defer ratingStmt.Close()

	for _, r := range records {
		_, err := movieStmt.ExecContext(ctx, r.ID, r.Title, r.Title, r.Year, r.Runtime, r.Genres.String())
		if err != nil {
			return fmt.Errorf("inserting movie %s: %w", r.ID, err)
		}
		if _, err := ratingStmt.ExecContext(ctx, r.ID, r.Rating.InexactFloat64(), r.Votes); err != nil {
			return fmt.Errorf("inserting rating %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Scan(ctx context.Context, fn func(movie.Record) error) error {
	return s.query(ctx, selectColumns, nil, fn)
}

// Select streams the records matching q. The WHERE clause is evaluated by
// SQLite against the corpus view.
func (s *SQLiteStore) Select(ctx context.Context, q *compile.Query, fn func(movie.Record) error) error {
	if q == nil {
		q = compile.MatchAll
	}
	return s.query(ctx, selectColumns+" WHERE "+q.Where, q.Args, fn)
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM corpus`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting corpus: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) query(ctx context.Context, query string, args []any, fn func(movie.Record) error) error {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("querying corpus: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r movie.Record
		var genres string
		if err := rows.Scan(&r.ID, &r.Title, &r.Year, &r.Runtime, &r.Votes, &r.Rating, &genres); err != nil {
			return fmt.Errorf("scanning movie: %w", err)
		}
		r.Genres = movie.ParseGenreSet(genres)
		if err := fn(r); err != nil {
			return err
		}
	}
	return rows.Err()
}
