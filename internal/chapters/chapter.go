package chapters

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrMalformedChapterLabel = errors.New("malformed chapter label")
	ErrCatalogEmpty          = errors.New("catalog has no chapters")
)

// Record is one chapter of a series as published by the site.
type Record struct {
	ID        int
	Raw       string
	Pages     int
	Directory string
}

// Label is the raw token without its decoration pair, e.g. "0007" for
// "100070". It is what the site expects in URLs and what names the
// chapter directory on disk.
func (r Record) Label() string {
	if len(r.Raw) < 2 {
		return r.Raw
	}
	return r.Raw[1 : len(r.Raw)-1]
}

// NormalizeLabel turns a raw site token into a chapter id. The site wraps
// the zero-padded chapter number in a leading index digit and a trailing
// decimal digit: "100070" is chapter 7, "100105" is chapter 10.5.
// Sub-chapters have no integer id and are rejected.
func NormalizeLabel(raw string) (int, error) {
	if len(raw) < 3 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedChapterLabel, raw)
	}

	n, err := strconv.ParseUint(raw[1:len(raw)-1], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedChapterLabel, raw)
	}

	if dec := raw[len(raw)-1]; dec > '0' && dec <= '9' {
		return 0, fmt.Errorf("%w: %q is sub-chapter %d.%c", ErrMalformedChapterLabel, raw, n, dec)
	}

	return int(n), nil
}

// Catalog maps chapter ids to records and remembers the order in which
// the site listed them.
type Catalog struct {
	records map[int]Record
	order   []int

	// Skipped holds raw labels that did not reduce to an integer id.
	Skipped []string
}

func NewCatalog() *Catalog {
	return &Catalog{records: map[int]Record{}}
}

// Add stores r. A repeated id replaces the earlier record but keeps its
// original position.
func (c *Catalog) Add(r Record) {
	if _, ok := c.records[r.ID]; !ok {
		c.order = append(c.order, r.ID)
	}
	c.records[r.ID] = r
}

func (c *Catalog) Get(id int) (Record, bool) {
	r, ok := c.records[id]
	return r, ok
}

func (c *Catalog) Len() int {
	return len(c.order)
}

// Records returns every chapter in catalog order.
func (c *Catalog) Records() []Record {
	out := make([]Record, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.records[id])
	}
	return out
}

// Bounds returns the lowest and highest chapter ids.
func (c *Catalog) Bounds() (lo, hi int, err error) {
	if c.Len() == 0 {
		return 0, 0, ErrCatalogEmpty
	}

	lo, hi = c.order[0], c.order[0]
	for _, id := range c.order[1:] {
		lo = min(lo, id)
		hi = max(hi, id)
	}

	return lo, hi, nil
}

// Gaps lists the ids between the bounds that the site does not publish.
func (c *Catalog) Gaps() []int {
	lo, hi, err := c.Bounds()
	if err != nil {
		return nil
	}

	var out []int
	for id := lo; id <= hi; id++ {
		if _, ok := c.records[id]; !ok {
			out = append(out, id)
		}
	}

	return out
}
