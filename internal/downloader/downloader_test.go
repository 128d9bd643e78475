package downloader

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/brogergvhs/mangasee/internal/chapters"
	"github.com/brogergvhs/mangasee/internal/mangasee"
	"github.com/brogergvhs/mangasee/internal/ui"
	"github.com/brogergvhs/mangasee/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const series = "Vagabond"

// origin imitates the reader site and its image host on one server.
type origin struct {
	*httptest.Server

	mu       sync.Mutex
	hits     map[string]int
	stall    map[string]bool
	gone     map[string]bool
	hostless map[string]bool
	release  chan struct{}
}

func newOrigin(t *testing.T) *origin {
	t.Helper()

	o := &origin{
		hits:     map[string]int{},
		stall:    map[string]bool{},
		gone:     map[string]bool{},
		hostless: map[string]bool{},
		release:  make(chan struct{}),
	}
	o.Server = httptest.NewServer(http.HandlerFunc(o.serve))
	t.Cleanup(func() {
		close(o.release)
		o.Close()
	})

	return o
}

func (o *origin) serve(w http.ResponseWriter, r *http.Request) {
	o.mu.Lock()
	o.hits[r.URL.Path]++
	stall, gone, hostless := o.stall[r.URL.Path], o.gone[r.URL.Path], o.hostless[r.URL.Path]
	o.mu.Unlock()

	if stall {
		select {
		case <-r.Context().Done():
		case <-o.release:
		}
		return
	}

	switch {
	case strings.HasPrefix(r.URL.Path, "/read-online/"):
		if hostless {
			_, _ = io.WriteString(w, `<html><script>vm.IndexName = "x";</script></html>`)
			return
		}
		_, _ = fmt.Fprintf(w, `<html><body><script>vm.CurPathName = "%s";</script></body></html>`, o.Listener.Addr().String())

	case strings.HasPrefix(r.URL.Path, "/manga/"):
		if gone {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pageBytes(r.URL.Path))

	default:
		http.NotFound(w, r)
	}
}

func (o *origin) hitsFor(path string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.hits[path]
}

func imagePath(chapter, page int) string {
	return fmt.Sprintf("/manga/%s/%04d-%03d.png", series, chapter, page)
}

func readerPath(label string) string {
	return fmt.Sprintf("/read-online/%s-chapter-%s-page-1.html", series, label)
}

func pageBytes(path string) []byte {
	return append([]byte("\x89PNG\r\n\x1a\n"), path...)
}

func newTestDownloader(t *testing.T, o *origin, dir string, opts Options) *Downloader {
	t.Helper()

	hc, err := util.NewHTTPClient(util.HTTPClientOptions{})
	require.NoError(t, err)

	quiet := ui.NewLoggerTo(io.Discard, true)
	site := mangasee.Site{Origin: o.URL, ImageScheme: "http"}
	if opts.Timeout == 0 {
		opts.Timeout = 2 * time.Second
	}

	hosts := mangasee.NewClient(hc, mangasee.Options{Site: site, Timeout: opts.Timeout, Log: quiet})

	opts.OutputDir = dir
	opts.Site = site
	opts.Log = quiet

	return New(hc, hosts, opts)
}

func record(id, pages int) chapters.Record {
	return chapters.Record{ID: id, Raw: fmt.Sprintf("1%04d0", id), Pages: pages}
}

func writePage(t *testing.T, d *Downloader, rec chapters.Record, page int) {
	t.Helper()
	path := d.PagePath(series, rec, page)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("done"), 0644))
}

func TestDownloadChapterWritesPages(t *testing.T) {
	o := newOrigin(t)
	dir := t.TempDir()
	stats := &ui.Stats{}
	d := newTestDownloader(t, o, dir, Options{Stats: stats})
	rec := record(3, 3)

	res := d.DownloadChapter(context.Background(), series, rec)
	require.NoError(t, res.Err)
	assert.Equal(t, Completed, res.Outcome)
	assert.Equal(t, 3, res.Written)
	assert.Equal(t, 0, res.Skipped)

	for page := 1; page <= 3; page++ {
		b, err := os.ReadFile(filepath.Join(dir, series, "0003", fmt.Sprintf("%d.png", page)))
		require.NoError(t, err)
		assert.Equal(t, pageBytes(imagePath(3, page)), b)
	}

	assert.Equal(t, int64(3), stats.TotalPages.Load())
	assert.Equal(t, int64(1), stats.TotalChapters.Load())
	assert.Equal(t, res.Bytes, stats.TotalBytes.Load())
}

func TestDownloadChapterSkipsExistingPages(t *testing.T) {
	o := newOrigin(t)
	d := newTestDownloader(t, o, t.TempDir(), Options{})
	rec := record(3, 3)

	first := d.DownloadChapter(context.Background(), series, rec)
	require.Equal(t, Completed, first.Outcome)

	second := d.DownloadChapter(context.Background(), series, rec)
	assert.Equal(t, Completed, second.Outcome)
	assert.Equal(t, 0, second.Written)
	assert.Equal(t, 3, second.Skipped)

	for page := 1; page <= 3; page++ {
		assert.Equal(t, 1, o.hitsFor(imagePath(3, page)), "page %d", page)
	}
	assert.Equal(t, 1, o.hitsFor(readerPath("0003")))
}

func TestDownloadChapterResumesPartialChapter(t *testing.T) {
	o := newOrigin(t)
	d := newTestDownloader(t, o, t.TempDir(), Options{})
	rec := record(4, 3)
	writePage(t, d, rec, 2)

	res := d.DownloadChapter(context.Background(), series, rec)
	require.Equal(t, Completed, res.Outcome)
	assert.Equal(t, 2, res.Written)
	assert.Equal(t, 1, res.Skipped)

	assert.Equal(t, 0, o.hitsFor(imagePath(4, 2)))
	assert.Equal(t, 1, o.hitsFor(imagePath(4, 1)))
	assert.Equal(t, 1, o.hitsFor(imagePath(4, 3)))

	b, err := os.ReadFile(d.PagePath(series, rec, 2))
	require.NoError(t, err)
	assert.Equal(t, "done", string(b))
}

func TestTimeoutAbortsOnlyItsChapter(t *testing.T) {
	o := newOrigin(t)
	o.stall[imagePath(1, 3)] = true

	dir := t.TempDir()
	d := newTestDownloader(t, o, dir, Options{PageWorkers: 1, Timeout: 150 * time.Millisecond})

	slow, sibling := record(1, 5), record(2, 3)
	writePage(t, d, slow, 1)
	writePage(t, d, slow, 2)

	summary, err := NewOrchestrator(d, dir, 0, ui.NewLoggerTo(io.Discard, false)).
		Run(context.Background(), series, []chapters.Record{slow, sibling})
	require.NoError(t, err)
	require.Len(t, summary.Results, 2)
	assert.Equal(t, 1, summary.Batches)

	got := summary.Results[0]
	assert.Equal(t, TimedOut, got.Outcome)
	assert.ErrorIs(t, got.Err, mangasee.ErrNetworkTimeout)

	for page := 1; page <= 5; page++ {
		assert.Equal(t, page <= 2, util.FileExists(d.PagePath(series, slow, page)), "page %d", page)
		assert.NoFileExists(t, d.PagePath(series, slow, page)+util.PartialSuffix)
	}
	assert.Equal(t, 0, o.hitsFor(imagePath(1, 4)))
	assert.Equal(t, 0, o.hitsFor(imagePath(1, 5)))

	assert.Equal(t, Completed, summary.Results[1].Outcome)
	assert.Equal(t, 3, summary.Results[1].Written)
	assert.Equal(t, 1, summary.Count(TimedOut))
	assert.Len(t, summary.Unfinished(), 1)
}

// Without a worker cap every page is in flight at once, so pages after the
// stalled one may already be written. Only the stalled page is missing.
func TestTimeoutWithoutPageCap(t *testing.T) {
	o := newOrigin(t)
	o.stall[imagePath(1, 3)] = true

	d := newTestDownloader(t, o, t.TempDir(), Options{Timeout: 150 * time.Millisecond})
	rec := record(1, 5)
	writePage(t, d, rec, 1)
	writePage(t, d, rec, 2)

	res := d.DownloadChapter(context.Background(), series, rec)
	assert.Equal(t, TimedOut, res.Outcome)
	assert.ErrorIs(t, res.Err, mangasee.ErrNetworkTimeout)
	assert.Equal(t, 2, res.Skipped)

	assert.FileExists(t, d.PagePath(series, rec, 1))
	assert.FileExists(t, d.PagePath(series, rec, 2))
	assert.NoFileExists(t, d.PagePath(series, rec, 3))

	for page := 1; page <= 5; page++ {
		assert.NoFileExists(t, d.PagePath(series, rec, page)+util.PartialSuffix, "page %d", page)
	}
	for page := 4; page <= 5; page++ {
		if b, err := os.ReadFile(d.PagePath(series, rec, page)); err == nil {
			assert.Equal(t, pageBytes(imagePath(1, page)), b, "page %d", page)
		}
	}
}

func TestHostTokenTimeout(t *testing.T) {
	o := newOrigin(t)
	o.stall[readerPath("0007")] = true
	d := newTestDownloader(t, o, t.TempDir(), Options{Timeout: 150 * time.Millisecond})

	res := d.DownloadChapter(context.Background(), series, record(7, 2))
	assert.Equal(t, TimedOut, res.Outcome)
	assert.ErrorIs(t, res.Err, mangasee.ErrNetworkTimeout)
	assert.Equal(t, 0, o.hitsFor(imagePath(7, 1)))
	assert.Equal(t, 0, res.Written)
}

func TestMissingHostTokenFailsChapter(t *testing.T) {
	o := newOrigin(t)
	o.hostless[readerPath("0005")] = true
	d := newTestDownloader(t, o, t.TempDir(), Options{})

	res := d.DownloadChapter(context.Background(), series, record(5, 2))
	assert.Equal(t, Failed, res.Outcome)
	assert.ErrorIs(t, res.Err, mangasee.ErrHostTokenNotFound)
	assert.Equal(t, 0, o.hitsFor(imagePath(5, 1)))
}

func TestMissingImageFailsChapter(t *testing.T) {
	o := newOrigin(t)
	o.gone[imagePath(6, 2)] = true
	d := newTestDownloader(t, o, t.TempDir(), Options{PageWorkers: 1})
	rec := record(6, 2)

	res := d.DownloadChapter(context.Background(), series, rec)
	assert.Equal(t, Failed, res.Outcome)
	assert.Contains(t, res.Err.Error(), "HTTP 404")
	assert.FileExists(t, d.PagePath(series, rec, 1))
	assert.NoFileExists(t, d.PagePath(series, rec, 2))
}

func TestDirectoryChaptersUseSubpath(t *testing.T) {
	o := newOrigin(t)
	d := newTestDownloader(t, o, t.TempDir(), Options{})
	rec := record(8, 1)
	rec.Directory = "S2"

	res := d.DownloadChapter(context.Background(), series, rec)
	require.Equal(t, Completed, res.Outcome)
	assert.Equal(t, 1, o.hitsFor(fmt.Sprintf("/manga/%s/S2/0008-001.png", series)))
}

func TestCompletedChapterIsPacked(t *testing.T) {
	o := newOrigin(t)
	dir := t.TempDir()
	d := newTestDownloader(t, o, dir, Options{CBZ: true})

	res := d.DownloadChapter(context.Background(), series, record(9, 11))
	require.Equal(t, Completed, res.Outcome)

	zr, err := zip.OpenReader(filepath.Join(dir, series, "0009.cbz"))
	require.NoError(t, err)
	defer func() {
		_ = zr.Close()
	}()

	require.Len(t, zr.File, 11)
	assert.Equal(t, "001.png", zr.File[0].Name)
	assert.Equal(t, "010.png", zr.File[9].Name)
	assert.Equal(t, "011.png", zr.File[10].Name)
}
