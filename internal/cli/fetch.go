package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/matthewbaird/djinn/internal/service"
)

var (
	fetchCount int
	fetchJSON  bool
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch [statement]",
	Short: "Draw random movies matching a statement",
	Long: `Draw random movies from the corpus that match a filter statement.
With no statement any movie may be drawn.

Examples:
  djinn fetch 'rating > 7 and genres = Comedy'
  djinn fetch --count 5 year '<' 1960 or genres = Film-Noir
  djinn fetch --json 'votes > 100000'`,
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().IntVarP(&fetchCount, "count", "n", 0, "number of movies (default from fetch.default_count)")
	fetchCmd.Flags().BoolVar(&fetchJSON, "json", false, "print the result as JSON")
}

func runFetch(cmd *cobra.Command, args []string) error {
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

	svc := newService(cfg, c, logger, nil)
	out, err := svc.Fetch(ctx, strings.Join(args, " "), fetchCount)
	if err != nil {
		return err
	}

	if fetchJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	printOutcome(cmd.OutOrStdout(), out)
	return nil
}

// printOutcome renders the drawn movies as a table.
func printOutcome(w io.Writer, out *service.Outcome) {
	if len(out.Movies) == 0 {
		fmt.Fprintln(w, "No movies match.")
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Title", "Year", "Runtime", "Rating", "Votes", "Genres"})
	table.SetAutoWrapText(false)
	for _, m := range out.Movies {
		table.Append([]string{
			m.ID,
			m.Title,
			strconv.FormatInt(m.Year, 10),
			strconv.FormatInt(m.Runtime, 10),
			m.Rating.StringFixed(1),
			strconv.FormatInt(m.Votes, 10),
			m.Genres.String(),
		})
	}
	table.Render()

	if out.Shortage {
		fmt.Fprintf(w, "Only %d movies match.\n", out.Matched)
	}
}
