package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/brogergvhs/mangasee/internal/mangasee"

	"github.com/spf13/cobra"
)

var chaptersCmd = &cobra.Command{
	Use:   "chapters SERIES",
	Short: "List the chapters the site publishes for a series",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		series := mangasee.NormalizeSeriesName(args[0])
		cmd.SilenceUsage = true

		s, _, err := newSession(baseOptions())
		if err != nil {
			return err
		}

		catalog, err := fetchCatalog(context.Background(), s, series)
		if err != nil {
			return err
		}

		lo, hi, err := catalog.Bounds()
		if err != nil {
			return fmt.Errorf("%s: %w", series, err)
		}

		fmt.Printf("Available chapters: %d-%d\n", lo, hi)
		if gaps := catalog.Gaps(); len(gaps) > 0 {
			fmt.Printf("Not available chapters: %v\n", gaps)
		}
		if len(catalog.Skipped) > 0 {
			fmt.Printf("Skipped entries without a chapter number: %v\n", catalog.Skipped)
		}
		fmt.Println()

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 4, ' ', 0)
		_, _ = fmt.Fprintln(w, "CHAPTER\tLABEL\tPAGES")
		for _, r := range catalog.Records() {
			_, _ = fmt.Fprintf(w, "%d\t%s\t%d\n", r.ID, r.Label(), r.Pages)
		}

		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(chaptersCmd)
}
