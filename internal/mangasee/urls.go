package mangasee

import (
	"fmt"
	"strings"
)

const DefaultOrigin = "https://mangasee123.com"

// Site holds the addressing scheme of the origin. The zero value is not
// usable; start from Default.
type Site struct {
	Origin      string
	ImageScheme string
}

func Default() Site {
	return Site{Origin: DefaultOrigin, ImageScheme: "https"}
}

// ReaderPageURL is the HTML reader page of one chapter page. Inputs are
// not validated; a bad label simply produces a URL the site answers with
// an error.
func (s Site) ReaderPageURL(series, chapterLabel string, page int) string {
	return fmt.Sprintf("%s/read-online/%s-chapter-%s-page-%d.html",
		strings.TrimRight(s.Origin, "/"), series, chapterLabel, page)
}

// Referer is the series landing page, which links to every reader page.
func (s Site) Referer(series string) string {
	return fmt.Sprintf("%s/manga/%s", strings.TrimRight(s.Origin, "/"), series)
}

// ImageURL addresses one page image. The site zero-pads the chapter to
// four digits and the page to three.
func (s Site) ImageURL(host, series string, chapter, page int) string {
	return s.ImageURLIn(host, series, "", chapter, page)
}

// ImageURLIn is ImageURL for chapters the site files under a directory.
func (s Site) ImageURLIn(host, series, directory string, chapter, page int) string {
	scheme := s.ImageScheme
	if scheme == "" {
		scheme = "https"
	}

	dir := ""
	if directory != "" {
		dir = "/" + strings.Trim(directory, "/")
	}

	return fmt.Sprintf("%s://%s/manga/%s%s/%04d-%03d.png", scheme, host, series, dir, chapter, page)
}
