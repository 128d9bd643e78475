package mangasee

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	reChapters = regexp.MustCompile(`vm\.CHAPTERS\s*=\s*`)
	reCurPath  = regexp.MustCompile(`vm\.CurPathName\s*=\s*"([^"]*)"\s*;`)
)

// ChapterEntry is one element of the embedded chapter list.
type ChapterEntry struct {
	Chapter   string    `json:"Chapter"`
	Type      string    `json:"Type"`
	Page      pageCount `json:"Page"`
	Directory string    `json:"Directory"`
	Name      string    `json:"ChapterName"`
}

// The site serialises page counts as strings; accept numbers too.
type pageCount int

func (p *pageCount) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	if s == "" || s == "null" {
		*p = 0
		return nil
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("page count %s: %w", b, err)
	}

	*p = pageCount(n)
	return nil
}

// scriptText returns the inline scripts of an HTML page, where the reader
// keeps its state. Pages that do not parse are scanned whole.
func scriptText(html []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return string(html)
	}

	var js strings.Builder
	doc.Find("script").Each(func(_ int, sc *goquery.Selection) {
		if t := sc.Text(); strings.TrimSpace(t) != "" {
			js.WriteString(t)
			js.WriteString("\n")
		}
	})

	return js.String()
}

// ExtractChapters pulls the chapter list assigned to vm.CHAPTERS. Exactly
// one JSON value is decoded after the assignment, so brackets and
// semicolons inside chapter names do not end the list early.
func ExtractChapters(html []byte) ([]ChapterEntry, error) {
	js := scriptText(html)

	loc := reChapters.FindStringIndex(js)
	if loc == nil {
		return nil, ErrCatalogNotFound
	}

	var entries []ChapterEntry
	if err := json.NewDecoder(strings.NewReader(js[loc[1]:])).Decode(&entries); err != nil {
		return nil, fmt.Errorf("%w: chapter list is not valid JSON: %v", ErrCatalogNotFound, err)
	}

	return entries, nil
}

// ExtractHostToken pulls the image host assigned to vm.CurPathName.
func ExtractHostToken(html []byte) (string, error) {
	m := reCurPath.FindStringSubmatch(scriptText(html))
	if m == nil || strings.TrimSpace(m[1]) == "" {
		return "", ErrHostTokenNotFound
	}

	return strings.TrimSpace(m[1]), nil
}
