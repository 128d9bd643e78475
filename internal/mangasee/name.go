package mangasee

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NormalizeSeriesName turns user input such as "one piece" or
// "ONE-PIECE" into the site's series slug "One-Piece".
func NormalizeSeriesName(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return r == '-' || r == ' ' || r == '\t'
	})

	caser := cases.Title(language.English)
	for i, w := range words {
		words[i] = caser.String(w)
	}

	return strings.Join(words, "-")
}
