package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matthewbaird/djinn/internal/corpus"
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <file.parquet>",
	Short: "Write the corpus to a parquet snapshot",
	Long: `Write every rated movie of the corpus to a parquet file. The snapshot
can be served with corpus.source set to parquet or memory.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := cfg.Log.Logger(os.Stderr)
	ctx := cmd.Context()

	c, closeCorpus, err := openCorpus(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeCorpus()

	n, err := corpus.ExportParquet(ctx, args[0], c)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d movies to %s\n", n, args[0])
	return nil
}
