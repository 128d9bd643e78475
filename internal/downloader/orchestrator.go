package downloader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/brogergvhs/mangasee/internal/chapters"
	"github.com/brogergvhs/mangasee/internal/ui"
)

var ErrDestinationIsFile = errors.New("destination exists and is not a directory")

type DestinationStatus int

const (
	DestinationMissing DestinationStatus = iota
	DestinationReady
	DestinationIsFile
)

// CheckDestination reports what currently occupies path.
func CheckDestination(path string) (DestinationStatus, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return DestinationMissing, nil
	}
	if err != nil {
		return DestinationMissing, err
	}
	if !info.IsDir() {
		return DestinationIsFile, nil
	}

	return DestinationReady, nil
}

// ChapterTask downloads one chapter. Downloader is the production
// implementation.
type ChapterTask interface {
	DownloadChapter(ctx context.Context, series string, rec chapters.Record) ChapterResult
}

type Summary struct {
	Results []ChapterResult
	Batches int
}

func (s Summary) Count(o Outcome) int {
	n := 0
	for _, r := range s.Results {
		if r.Outcome == o {
			n++
		}
	}
	return n
}

// Unfinished returns the chapters that did not complete.
func (s Summary) Unfinished() []ChapterResult {
	var out []ChapterResult
	for _, r := range s.Results {
		if r.Outcome != Completed {
			out = append(out, r)
		}
	}
	return out
}

type Orchestrator struct {
	task      ChapterTask
	outputDir string
	limit     int
	log       ui.Log
}

// NewOrchestrator runs chapters limit at a time; limit 0 runs them all at
// once.
func NewOrchestrator(task ChapterTask, outputDir string, limit int, log ui.Log) *Orchestrator {
	if outputDir == "" {
		outputDir = "."
	}
	if log == nil {
		log = ui.NewLogger(false)
	}

	return &Orchestrator{task: task, outputDir: outputDir, limit: limit, log: log}
}

// Run downloads recs into {output}/{series}. Only destination problems
// are returned as errors; chapter failures are reported in the summary.
func (o *Orchestrator) Run(ctx context.Context, series string, recs []chapters.Record) (Summary, error) {
	var summary Summary
	root := filepath.Join(o.outputDir, series)

	status, err := CheckDestination(root)
	if err != nil {
		return summary, err
	}

	switch status {
	case DestinationIsFile:
		return summary, fmt.Errorf("%w: %s", ErrDestinationIsFile, root)
	case DestinationMissing:
		if err := os.MkdirAll(root, 0755); err != nil {
			return summary, fmt.Errorf("cannot create series folder: %w", err)
		}
	}

	batches := Batches(recs, o.limit)
	for i, batch := range batches {
		o.log.Debugf("Batch %d/%d: %d chapter(s)", i+1, len(batches), len(batch))

		summary.Results = append(summary.Results, o.runBatch(ctx, series, batch)...)
		summary.Batches++
	}

	o.log.Infof("Download completed: %d completed, %d timed out, %d failed",
		summary.Count(Completed), summary.Count(TimedOut), summary.Count(Failed))

	return summary, nil
}

func (o *Orchestrator) runBatch(ctx context.Context, series string, batch []chapters.Record) []ChapterResult {
	results := make([]ChapterResult, len(batch))

	var wg sync.WaitGroup
	for i, rec := range batch {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = o.task.DownloadChapter(ctx, series, rec)
		}()
	}
	wg.Wait()

	return results
}
