package markdown

import (
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

// DefaultPreviewLength is the rune budget of a post preview.
const DefaultPreviewLength = 150

const ellipsis = "..."

var textOnly = bluemonday.StrictPolicy()

// Preview derives a plain-text teaser from rendered HTML: tags are dropped,
// leftover Markdown markers removed, whitespace collapsed and the result cut
// to limit runes. The ellipsis is appended only when text was cut.
func Preview(rendered []byte, limit int) string {
	if limit <= 0 {
		limit = DefaultPreviewLength
	}
	text := html.UnescapeString(textOnly.Sanitize(string(rendered)))
	text = stripMarkers(text)
	text = strings.Join(strings.Fields(text), " ")

	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + ellipsis
}

// stripMarkers removes '#', '*' and '`' everywhere, and '-' or '_' unless
// they join two word characters as in "well-known" or "snake_case".
func stripMarkers(text string) string {
	runes := []rune(text)
	var b strings.Builder
	b.Grow(len(text))
	for i, r := range runes {
		switch r {
		case '#', '*', '`':
			continue
		case '-', '_':
			if i > 0 && i < len(runes)-1 && isWord(runes[i-1]) && isWord(runes[i+1]) {
				b.WriteRune(r)
			}
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isWord(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
