package mangasee

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/brogergvhs/mangasee/internal/chapters"
	"github.com/brogergvhs/mangasee/internal/ui"
	"github.com/brogergvhs/mangasee/internal/util"
)

var (
	ErrNetworkTimeout     = errors.New("request timed out")
	ErrNetworkUnreachable = errors.New("origin unreachable")
	ErrCatalogNotFound    = errors.New("chapter catalog not found in page")
	ErrHostTokenNotFound  = errors.New("image host not found in page")
)

const DefaultTimeout = 30 * time.Second

type Options struct {
	Site    Site
	Timeout time.Duration
	Log     ui.Log
}

// Client reads the two pieces of state the reader pages embed: the
// chapter catalog and each chapter's image host.
type Client struct {
	http    *http.Client
	site    Site
	timeout time.Duration
	log     ui.Log
}

func NewClient(c *http.Client, opts Options) *Client {
	if opts.Site.Origin == "" {
		opts.Site = Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Log == nil {
		opts.Log = ui.NewLogger(false)
	}

	return &Client{
		http:    c,
		site:    opts.Site,
		timeout: opts.Timeout,
		log:     opts.Log,
	}
}

func (c *Client) Site() Site {
	return c.site
}

// FetchCatalog reads the chapter list of a series from page 1 of
// chapter 1. Entries whose label has no integer id are skipped and
// listed in Catalog.Skipped.
func (c *Client) FetchCatalog(ctx context.Context, series string) (*chapters.Catalog, error) {
	target := c.site.ReaderPageURL(series, "1", 1)

	body, err := c.fetchPage(ctx, target, c.site.Referer(series))
	if err != nil {
		return nil, err
	}

	entries, err := ExtractChapters(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", series, err)
	}
	c.log.Debugf("Catalog for %s: %d entries", series, len(entries))

	catalog := chapters.NewCatalog()
	for _, e := range entries {
		id, err := chapters.NormalizeLabel(e.Chapter)
		if err != nil {
			c.log.Warnf("Skipping catalog entry: %v", err)
			catalog.Skipped = append(catalog.Skipped, e.Chapter)
			continue
		}
		if e.Page <= 0 {
			c.log.Warnf("Skipping chapter %d: no pages listed", id)
			catalog.Skipped = append(catalog.Skipped, e.Chapter)
			continue
		}

		catalog.Add(chapters.Record{
			ID:        id,
			Raw:       e.Chapter,
			Pages:     int(e.Page),
			Directory: e.Directory,
		})
	}

	return catalog, nil
}

// ChapterHost reads the image host of a chapter from its first page.
func (c *Client) ChapterHost(ctx context.Context, series string, rec chapters.Record) (string, error) {
	body, err := c.fetchPage(ctx, c.site.ReaderPageURL(series, rec.Label(), 1), c.site.Referer(series))
	if err != nil {
		return "", err
	}

	host, err := ExtractHostToken(body)
	if err != nil {
		return "", fmt.Errorf("chapter %d: %w", rec.ID, err)
	}
	c.log.Debugf("Chapter %d served from %s", rec.ID, host)

	return host, nil
}

func (c *Client) fetchPage(ctx context.Context, target, referer string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Referer", referer)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, networkError(target, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: GET %s: HTTP %d", ErrNetworkUnreachable, target, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, networkError(target, err)
	}

	return body, nil
}

func networkError(target string, err error) error {
	if util.IsTimeout(err) {
		return fmt.Errorf("%w: GET %s: %v", ErrNetworkTimeout, target, err)
	}
	return fmt.Errorf("%w: GET %s: %v", ErrNetworkUnreachable, target, err)
}
