package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/brogergvhs/mangasee/internal/chapters"
	"github.com/brogergvhs/mangasee/internal/config"
	"github.com/brogergvhs/mangasee/internal/downloader"
	"github.com/brogergvhs/mangasee/internal/mangasee"
	"github.com/brogergvhs/mangasee/internal/ui"
	"github.com/brogergvhs/mangasee/internal/util"

	"github.com/spf13/cobra"
)

var (
	flagOutput      string
	flagLimit       int
	flagPageWorkers int
	flagCBZ         bool
	flagDryRun      bool
)

const downloadLong = `Download chapters of a series from mangasee123.

SERIES is case insensitive. Spaces and hyphens are interchangeable, so
"one piece" and one-piece name the same series.

Images are written to {output}/{series}/{chapter}/{page}.png. Pages that
already exist are skipped, so an interrupted run resumes where it stopped.

  mangasee download Vagabond                         all chapters
  mangasee download one-piece 10                     chapter 10 only
  mangasee download "diamond is unbreakable" 10 20   chapters 10 through 20`

var downloadCmd = &cobra.Command{
	Use:   "download SERIES [CHAPTER_START [CHAPTER_END]]",
	Short: "Download chapters of a series. Uses the defaults from the selected config, overwritten by CLI flags",
	Long:  downloadLong,
	Args:  cobra.RangeArgs(1, 3),
	RunE:  runDownload,
}

func init() {
	downloadCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "folder that receives the series folder")
	downloadCmd.Flags().IntVarP(&flagLimit, "limit", "l", 0, "limit maximum simultaneous chapter downloads (0 = all at once)")
	downloadCmd.Flags().IntVar(&flagPageWorkers, "page-workers", 0, "limit simultaneous page downloads per chapter (0 = no limit)")
	downloadCmd.Flags().BoolVar(&flagCBZ, "cbz", false, "also pack every completed chapter into a CBZ file")
	downloadCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "show what would be downloaded, don't download")

	rootCmd.AddCommand(downloadCmd)
}

func parseTarget(args []string) (string, chapters.Selector, error) {
	series := mangasee.NormalizeSeriesName(args[0])
	if series == "" {
		return "", chapters.Selector{}, fmt.Errorf("%w: empty series name", chapters.ErrMalformedInput)
	}

	sel, err := chapters.ParseSelector(args[1:])
	if err != nil {
		return "", chapters.Selector{}, err
	}

	return series, sel, nil
}

func downloadOptions(cmd *cobra.Command) (config.Options, error) {
	opts := baseOptions()
	opts.Output = flagOutput
	opts.CBZ = flagCBZ

	if flagLimit < 0 || flagPageWorkers < 0 {
		return opts, fmt.Errorf("%w: --limit and --page-workers must not be negative", chapters.ErrMalformedInput)
	}
	if cmd.Flags().Changed("limit") {
		opts.ChapterLimit = flagLimit
	}
	if cmd.Flags().Changed("page-workers") {
		opts.PageWorkers = flagPageWorkers
	}

	return opts, nil
}

func runDownload(cmd *cobra.Command, args []string) error {
	series, sel, err := parseTarget(args)
	if err != nil {
		return err
	}

	opts, err := downloadOptions(cmd)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	s, usedPath, err := newSession(opts)
	if err != nil {
		return err
	}
	cfg, logSvc := s.cfg, s.log

	logSvc.Debugf("Config: %s", usedPath)
	if cfg.Verbose {
		cfg.Print()
	}

	ctx := context.Background()

	catalog, err := fetchCatalog(ctx, s, series)
	if err != nil {
		return err
	}

	resolved, missing, err := chapters.Resolve(catalog, sel)
	if err != nil {
		return fmt.Errorf("%s: %w", series, err)
	}

	for _, id := range missing {
		logSvc.Warnf("Chapter %d is not available, skipping...", id)
	}
	if n := chapters.OutOfBounds(catalog, sel); n > 0 {
		lo, hi, _ := catalog.Bounds()
		logSvc.Warnf("%d requested chapter(s) outside the available range %d-%d, skipping...", n, lo, hi)
	}

	if len(resolved) == 0 {
		lo, hi, _ := catalog.Bounds()
		return fmt.Errorf("%w: %s of %s (available chapters: %d-%d, not available: %v)",
			chapters.ErrSelectorUnresolvable, sel, series, lo, hi, catalog.Gaps())
	}

	if flagDryRun {
		fmt.Printf("Dry-run: %d chapters selected.\n\n", len(resolved))
		for i, ch := range resolved {
			fmt.Printf("%3d) Chapter %d  [%s]  %d pages\n", i+1, ch.ID, ch.Label(), ch.Pages)
		}
		return nil
	}

	util.SetupInterruptHandler(filepath.Join(cfg.Output, series))

	var pm *ui.MPBProgressManager
	if !cfg.Verbose {
		pm = ui.NewProgressManager(os.Stdout)
	}

	stats := &ui.Stats{}
	dl := downloader.New(s.http, s.source, downloader.Options{
		OutputDir:   cfg.Output,
		PageWorkers: cfg.PageWorkers,
		Timeout:     cfg.Timeout,
		Site:        s.site,
		CBZ:         cfg.CBZ,
		Log:         logSvc,
		Progress:    pm,
		Stats:       stats,
	})

	fmt.Printf("Downloading %d chapter(s) of %s...\n", len(resolved), series)
	start := time.Now()

	summary, err := downloader.NewOrchestrator(dl, cfg.Output, cfg.ChapterLimit, logSvc).
		Run(ctx, series, resolved)
	pm.Close()

	if errors.Is(err, downloader.ErrDestinationIsFile) {
		return fmt.Errorf("could not create directory %s, it appears that a file with that name exists: %w",
			filepath.Join(cfg.Output, series), err)
	}
	if err != nil {
		return err
	}

	printSummary(summary, stats, time.Since(start))
	return nil
}

func fetchCatalog(ctx context.Context, s *session, series string) (*chapters.Catalog, error) {
	fmt.Printf("Fetching chapter list for %s...\n", series)

	catalog, err := s.source.FetchCatalog(ctx, series)
	switch {
	case errors.Is(err, mangasee.ErrCatalogNotFound):
		return nil, fmt.Errorf("could not get info for %s from %s: %w", series, s.cfg.Origin, err)
	case err != nil:
		return nil, fmt.Errorf("could not connect to %s: %w", s.cfg.Origin, err)
	}

	fmt.Printf("Fetched details for %s: %d chapters\n", series, catalog.Len())
	return catalog, nil
}

func printSummary(summary downloader.Summary, stats *ui.Stats, elapsed time.Duration) {
	fmt.Println()
	fmt.Println("Download Summary:")
	fmt.Printf("Chapters: %d/%d completed in %d batch(es)\n",
		summary.Count(downloader.Completed), len(summary.Results), summary.Batches)
	fmt.Printf("Pages:    %d new, %d already present\n", stats.TotalPages.Load(), stats.SkippedPages.Load())
	fmt.Printf("Data:     %s\n", util.Human(stats.TotalBytes.Load()))
	fmt.Printf("Time:     %s\n", elapsed.Round(time.Second))

	if failed := summary.Unfinished(); len(failed) > 0 {
		fmt.Println("\nNot finished (re-run to resume):")
		for _, r := range failed {
			fmt.Printf("  chapter %d: %s: %v\n", r.Chapter.ID, r.Outcome, r.Err)
		}
		return
	}

	fmt.Println("\nAll done.")
}
