package chapters

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrMalformedInput       = errors.New("malformed input")
	ErrSelectorUnresolvable = errors.New("chapter not available")
)

type SelectorKind int

const (
	SelectAll SelectorKind = iota
	SelectSingle
	SelectRange
)

// Selector is the chapter scope requested by the user.
type Selector struct {
	Kind  SelectorKind
	Start int
	End   int
}

func All() Selector { return Selector{Kind: SelectAll} }

func Single(n int) Selector { return Selector{Kind: SelectSingle, Start: n, End: n} }

func Range(start, end int) Selector { return Selector{Kind: SelectRange, Start: start, End: end} }

func (s Selector) String() string {
	switch s.Kind {
	case SelectSingle:
		return fmt.Sprintf("chapter %d", s.Start)
	case SelectRange:
		return fmt.Sprintf("chapters %d-%d", s.Start, s.End)
	default:
		return "all chapters"
	}
}

// ParseSelector maps the optional positional bounds to a selector: none
// means all chapters, a start alone means exactly that chapter, both mean
// an inclusive range.
func ParseSelector(args []string) (Selector, error) {
	switch len(args) {
	case 0:
		return All(), nil
	case 1:
		n, err := parseBound("chapter", args[0])
		if err != nil {
			return Selector{}, err
		}
		return Single(n), nil
	case 2:
		start, err := parseBound("chapter start", args[0])
		if err != nil {
			return Selector{}, err
		}
		end, err := parseBound("chapter end", args[1])
		if err != nil {
			return Selector{}, err
		}
		if start > end {
			return Selector{}, fmt.Errorf("%w: chapter start %d is after chapter end %d", ErrMalformedInput, start, end)
		}
		return Range(start, end), nil
	default:
		return Selector{}, fmt.Errorf("%w: expected at most two chapter bounds, got %d", ErrMalformedInput, len(args))
	}
}

func parseBound(name, s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s %q is not a chapter number", ErrMalformedInput, name, s)
	}
	return n, nil
}

// Resolve picks the requested chapters out of the catalog. Requested ids
// the catalog lacks are returned in missing and never cause an error. A
// range is first narrowed to the catalog bounds; ids beyond them are
// counted by OutOfBounds instead of being listed.
func Resolve(c *Catalog, sel Selector) (resolved []Record, missing []int, err error) {
	if c == nil || c.Len() == 0 {
		return nil, nil, ErrCatalogEmpty
	}

	switch sel.Kind {
	case SelectAll:
		return c.Records(), nil, nil

	case SelectSingle:
		if r, ok := c.Get(sel.Start); ok {
			return []Record{r}, nil, nil
		}
		return []Record{}, []int{sel.Start}, nil

	case SelectRange:
		lo, hi, _ := c.Bounds()
		resolved = []Record{}
		for id := max(sel.Start, lo); id <= min(sel.End, hi); id++ {
			if r, ok := c.Get(id); ok {
				resolved = append(resolved, r)
			} else {
				missing = append(missing, id)
			}
		}
		return resolved, missing, nil
	}

	return nil, nil, fmt.Errorf("%w: unknown selector kind %d", ErrMalformedInput, sel.Kind)
}

// OutOfBounds counts the ids of a range that lie below the lowest or
// above the highest chapter in the catalog.
func OutOfBounds(c *Catalog, sel Selector) int {
	if sel.Kind != SelectRange {
		return 0
	}

	lo, hi, err := c.Bounds()
	if err != nil {
		return 0
	}

	n := 0
	if sel.Start < lo {
		n += min(sel.End, lo-1) - sel.Start + 1
	}
	if sel.End > hi {
		n += sel.End - max(sel.Start, hi+1) + 1
	}

	return n
}
