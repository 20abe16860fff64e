package cli

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/matthewbaird/djinn/internal/corpus"
)

var (
	importDownload bool
	importDir      string
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import [title.basics.tsv.gz title.ratings.tsv.gz]",
	Short: "Load the IMDb datasets into the movie database",
	Long: `Replace the movie database with the IMDb title.basics and
title.ratings datasets. Files may be gzipped. With --download the current
datasets are fetched from imdb.imdbws.com first.

Examples:
  djinn import --download
  djinn import title.basics.tsv.gz title.ratings.tsv.gz`,
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().BoolVar(&importDownload, "download", false, "download the datasets before importing")
	importCmd.Flags().StringVar(&importDir, "dir", "", "directory for downloaded datasets (default: a temporary directory)")
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := cfg.Log.Logger(os.Stderr)
	ctx := cmd.Context()

	var basics, ratings string
	switch {
	case importDownload && len(args) > 0:
		return fmt.Errorf("dataset paths cannot be combined with --download")

	case importDownload:
		dir := importDir
		if dir == "" {
			dir, err = os.MkdirTemp("", "djinn-imdb-")
			if err != nil {
				return err
			}
			defer os.RemoveAll(dir)
		}
		basics = filepath.Join(dir, "title.basics.tsv.gz")
		ratings = filepath.Join(dir, "title.ratings.tsv.gz")

		client := &http.Client{Timeout: 30 * time.Minute}
		for _, d := range []struct{ url, dest string }{
			{cfg.IMDb.BasicsURL, basics},
			{cfg.IMDb.RatingsURL, ratings},
		} {
			logger.Info("downloading", "url", d.url)
			if err := corpus.Download(ctx, client, d.url, d.dest); err != nil {
				return err
			}
		}

	case len(args) == 2:
		basics, ratings = args[0], args[1]

	default:
		return fmt.Errorf("expected title.basics and title.ratings paths, or --download")
	}

	store, closeDB, err := openSQLite(ctx, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer closeDB()

	start := time.Now()
	stats, err := store.ImportFiles(ctx, basics, ratings)
	if err != nil {
		return err
	}
	logger.Info("import finished", "movies", stats.Movies, "ratings", stats.Ratings, "elapsed", time.Since(start))
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d movies and %d ratings.\n", stats.Movies, stats.Ratings)
	return nil
}
