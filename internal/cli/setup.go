package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/matthewbaird/djinn/internal/chat"
	"github.com/matthewbaird/djinn/internal/config"
	"github.com/matthewbaird/djinn/internal/corpus"
	"github.com/matthewbaird/djinn/internal/poll"
	"github.com/matthewbaird/djinn/internal/service"
)

// openDB opens the SQLite movie database.
func openDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

// openSQLite opens the database and makes sure the corpus schema exists.
func openSQLite(ctx context.Context, dsn string) (*corpus.SQLiteStore, func() error, error) {
	db, err := openDB(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	store := corpus.NewSQLiteStore(db)
	if err := store.CreateTables(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return store, db.Close, nil
}

// openCorpus opens the corpus named by cfg.Corpus.Source. The memory source
// is a snapshot of the SQLite corpus, or of the parquet file when one is set.
func openCorpus(ctx context.Context, cfg config.Config, logger *slog.Logger) (corpus.Corpus, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Corpus.Source {
	case config.SourceParquet:
		store, err := corpus.ReadParquet(cfg.Corpus.Parquet)
		if err != nil {
			return nil, nil, err
		}
		return store, noop, nil

	case config.SourceMemory:
		if cfg.Corpus.Parquet != "" {
			store, err := corpus.ReadParquet(cfg.Corpus.Parquet)
			if err != nil {
				return nil, nil, err
			}
			return store, noop, nil
		}
		sqlite, closeDB, err := openSQLite(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, nil, err
		}
		defer closeDB()
		start := time.Now()
		records, err := corpus.Collect(ctx, sqlite)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("corpus loaded into memory", "movies", len(records), "elapsed", time.Since(start))
		return corpus.NewMemoryStore(records...), noop, nil

	default:
		return openSQLite(ctx, cfg.Database.DSN)
	}
}

// newService wires the pipeline service from cfg. events may be nil.
func newService(cfg config.Config, c corpus.Corpus, logger *slog.Logger, events service.Publisher) *service.Service {
	polls := poll.NewStore(cfg.Poll.Duration, cfg.Poll.Retention)
	return service.New(c, polls, service.Options{
		Limits: chat.Limits{
			DefaultCount: cfg.Fetch.DefaultCount,
			MaxCount:     cfg.Fetch.MaxCount,
		},
		Logger: logger,
		Events: events,
	})
}
