package markdown

import (
	"bytes"
	"regexp"
)

// leakLine matches a stray front-matter line such as "title: Hello" or
// "Date：2024-01-01" (full-width colon).
var leakLine = regexp.MustCompile(`(?i)^\s*(title|date|tags|author)\s*[:：]`)

// StripLeakedMetadata removes key: value lines for title, date, tags and
// author that precede the first real content line, together with blank lines
// and "---" separators among them. Bodies without such lines are returned
// unchanged.
func StripLeakedMetadata(body []byte) []byte {
	lines := bytes.SplitAfter(body, []byte("\n"))

	cut, found := 0, false
	for i, line := range lines {
		trimmed := bytes.TrimSpace(line)
		switch {
		case len(trimmed) == 0, isDelimiterLine(trimmed):
			continue
		case leakLine.Match(trimmed):
			found = true
			cut = i + 1
			continue
		}
		break
	}
	if !found {
		return body
	}

	// swallow the separators and blank lines that followed the last leak line
	for cut < len(lines) {
		trimmed := bytes.TrimSpace(lines[cut])
		if len(trimmed) != 0 && !isDelimiterLine(trimmed) {
			break
		}
		cut++
	}
	return bytes.Join(lines[cut:], nil)
}
