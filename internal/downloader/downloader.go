package downloader

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/brogergvhs/mangasee/internal/chapters"
	"github.com/brogergvhs/mangasee/internal/mangasee"
	"github.com/brogergvhs/mangasee/internal/ui"
	"github.com/brogergvhs/mangasee/internal/util"

	"golang.org/x/sync/errgroup"
)

type Outcome int

const (
	Completed Outcome = iota
	TimedOut
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case TimedOut:
		return "timed out"
	default:
		return "failed"
	}
}

// PageTask is one page to fetch and where it goes.
type PageTask struct {
	Page int
	URL  string
	Path string
}

type ChapterResult struct {
	Chapter chapters.Record
	Outcome Outcome
	Written int
	Skipped int
	Bytes   int64
	Err     error
}

// HostResolver finds the image host serving a chapter.
type HostResolver interface {
	ChapterHost(ctx context.Context, series string, rec chapters.Record) (string, error)
}

type Options struct {
	OutputDir string
	// PageWorkers caps concurrent page fetches per chapter; 0 means no cap.
	PageWorkers int
	Timeout     time.Duration
	Site        mangasee.Site
	CBZ         bool
	Log         ui.Log
	Progress    *ui.MPBProgressManager
	Stats       *ui.Stats
}

type Downloader struct {
	client      *http.Client
	hosts       HostResolver
	site        mangasee.Site
	outputDir   string
	pageWorkers int
	timeout     time.Duration
	cbz         bool
	log         ui.Log
	progress    *ui.MPBProgressManager
	stats       *ui.Stats
}

func New(c *http.Client, hosts HostResolver, opts Options) *Downloader {
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}
	if opts.Timeout <= 0 {
		opts.Timeout = mangasee.DefaultTimeout
	}
	if opts.Site.Origin == "" {
		opts.Site = mangasee.Default()
	}
	if opts.Log == nil {
		opts.Log = ui.NewLogger(false)
	}
	if opts.Stats == nil {
		opts.Stats = &ui.Stats{}
	}

	return &Downloader{
		client:      c,
		hosts:       hosts,
		site:        opts.Site,
		outputDir:   opts.OutputDir,
		pageWorkers: opts.PageWorkers,
		timeout:     opts.Timeout,
		cbz:         opts.CBZ,
		log:         opts.Log,
		progress:    opts.Progress,
		stats:       opts.Stats,
	}
}

func (d *Downloader) ChapterDir(series string, rec chapters.Record) string {
	return filepath.Join(d.outputDir, series, rec.Label())
}

func (d *Downloader) PagePath(series string, rec chapters.Record, page int) string {
	return filepath.Join(d.ChapterDir(series, rec), fmt.Sprintf("%d.png", page))
}

// pendingPages lists the pages with no file on disk yet.
func (d *Downloader) pendingPages(series string, rec chapters.Record) []int {
	var pending []int
	for page := 1; page <= rec.Pages; page++ {
		if !util.FileExists(d.PagePath(series, rec, page)) {
			pending = append(pending, page)
		}
	}
	return pending
}

func (d *Downloader) pageTasks(series, host string, rec chapters.Record, pages []int) []PageTask {
	tasks := make([]PageTask, 0, len(pages))
	for _, page := range pages {
		tasks = append(tasks, PageTask{
			Page: page,
			URL:  d.site.ImageURLIn(host, series, rec.Directory, rec.ID, page),
			Path: d.PagePath(series, rec, page),
		})
	}
	return tasks
}

// DownloadChapter fetches every missing page of one chapter. Pages
// already on disk are never requested again. A timeout stops the pages
// not yet written and yields TimedOut; other errors yield Failed.
func (d *Downloader) DownloadChapter(ctx context.Context, series string, rec chapters.Record) ChapterResult {
	res := ChapterResult{Chapter: rec}

	if err := os.MkdirAll(d.ChapterDir(series, rec), 0755); err != nil {
		return d.finish(series, res, fmt.Errorf("create chapter folder: %w", err))
	}

	pending := d.pendingPages(series, rec)
	res.Skipped = rec.Pages - len(pending)
	d.stats.SkippedPages.Add(int64(res.Skipped))

	if len(pending) == 0 {
		d.log.Debugf("Chapter %d already downloaded (%d pages)", rec.ID, rec.Pages)
		return d.finish(series, res, nil)
	}

	d.log.Infof("Started downloading chapter %d (%d of %d pages)", rec.ID, len(pending), rec.Pages)

	host, err := d.hosts.ChapterHost(ctx, series, rec)
	if err != nil {
		return d.finish(series, res, err)
	}

	handle := d.progress.Register(fmt.Sprintf("Ch.%d", rec.ID))
	handle.SetTotal(len(pending))

	referer := d.site.ReaderPageURL(series, rec.Label(), 1)
	var written, bytes atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	if d.pageWorkers > 0 {
		g.SetLimit(d.pageWorkers)
	}

	for _, task := range d.pageTasks(series, host, rec, pending) {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			// With a worker cap Go can unblock after a sibling has
			// already failed.
			if err := gctx.Err(); err != nil {
				return err
			}

			n, err := d.fetchPage(gctx, task, referer, handle)
			if err != nil {
				return fmt.Errorf("page %d: %w", task.Page, err)
			}

			written.Add(1)
			bytes.Add(n)
			handle.PageDone()
			return nil
		})
	}

	err = g.Wait()
	handle.MarkDone(err == nil)

	res.Written = int(written.Load())
	res.Bytes = bytes.Load()
	d.stats.TotalPages.Add(written.Load())
	d.stats.TotalBytes.Add(res.Bytes)

	return d.finish(series, res, err)
}

func (d *Downloader) finish(series string, res ChapterResult, err error) ChapterResult {
	rec := res.Chapter
	res.Err = err

	switch {
	case err == nil:
		res.Outcome = Completed
		d.stats.TotalChapters.Add(1)
		d.log.Infof("Finished downloading chapter %d", rec.ID)
		d.packChapter(series, rec)
	case errors.Is(err, mangasee.ErrNetworkTimeout) || util.IsTimeout(err):
		res.Outcome = TimedOut
		d.log.Errorf("Timeout in downloading chapter %d after %d new page(s): %v", rec.ID, res.Written, err)
	default:
		res.Outcome = Failed
		d.log.Errorf("Chapter %d failed: %v", rec.ID, err)
	}

	return res
}

// packChapter writes {series}/{label}.cbz next to a completed chapter
// folder when CBZ output is enabled.
func (d *Downloader) packChapter(series string, rec chapters.Record) {
	if !d.cbz {
		return
	}

	out := filepath.Join(d.outputDir, series, rec.Label()+".cbz")
	if util.FileExists(out) {
		return
	}

	files := make([]string, 0, rec.Pages)
	for page := 1; page <= rec.Pages; page++ {
		files = append(files, d.PagePath(series, rec, page))
	}

	if err := util.CreateCBZ(files, out); err != nil {
		d.log.Errorf("CBZ for chapter %d failed: %v", rec.ID, err)
		return
	}
	d.log.Debugf("Packed chapter %d into %s", rec.ID, out)
}

func (d *Downloader) fetchPage(ctx context.Context, task PageTask, referer string, handle *ui.ProgressHandle) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, task.URL, nil)
	if err != nil {
		return 0, err
	}

	req.Header.Set("Referer", referer)
	req.Header.Set("Accept", "image/avif,image/webp,image/apng,image/*,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, pageError(ctx, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("GET %s: HTTP %d", task.URL, resp.StatusCode)
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		if mt, _, _ := mime.ParseMediaType(ct); !strings.HasPrefix(mt, "image/") && mt != "application/octet-stream" {
			return 0, fmt.Errorf("GET %s: unexpected MIME %s", task.URL, ct)
		}
	}

	tmp := task.Path + util.PartialSuffix
	f, err := os.Create(tmp)
	if err != nil {
		return 0, err
	}

	var last int64
	n, err := copyWithProgress(f, resp.Body, func(done int64) {
		handle.AddBytes(done - last)
		last = done
	})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return n, pageError(ctx, err)
	}

	if err := os.Rename(tmp, task.Path); err != nil {
		_ = os.Remove(tmp)
		return n, err
	}

	return n, nil
}

// pageError tags transport and body errors caused by the page deadline.
func pageError(ctx context.Context, err error) error {
	if util.IsTimeout(err) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", mangasee.ErrNetworkTimeout, err)
	}
	return err
}
