package markdown

import (
	"regexp"
	"strings"
)

const maxLeadingBlocks = 8

// leakBlock matches a rendered paragraph or setext heading whose whole text is
// made of title/date/tags/author lines. Date and tags lines only count when
// the value looks like a date or a tag list, so prose such as "Date: we met
// on Monday" survives.
var leakBlock = regexp.MustCompile(`(?i)<(?:p|h[1-6])(?:\s[^>]*)?>(?:\s*(?:` +
	`(?:title|author)\s*[:：][^<\n]*` +
	`|date\s*[:：]\s*` + leakDateValue +
	`|tags\s*[:：]\s*` + leakTagsValue +
	`))+\s*</(?:p|h[1-6])>\s*`)

const (
	leakDateValue = `\d{4}[-/.年]\d{1,2}[-/.月]\d{1,2}日?(?:[ T]\d{1,2}:\d{2}(?::\d{2})?(?:Z|\s*[+-]\d{2}:?\d{2})?)?`
	leakTag       = `[\p{L}\p{N}_-]+`
	leakTagsValue = `(?:\[[^\]<\n]*\]|` + leakTag + `(?:\s*,\s*` + leakTag + `(?:\s` + leakTag + `)?)*)`
)

var (
	leadingBlock = regexp.MustCompile(`(?is)^\s*<(p|h[1-6])(?:\s[^>]*)?>(.*?)</(?:p|h[1-6])>`)
	leadingRule  = regexp.MustCompile(`(?i)^\s*<hr\s*/?>`)
	metaLine     = regexp.MustCompile(`(?i)^\s*(title|date|tags|author|categories|category|draft|description|slug|summary|layout)\s*[:：]`)
)

// CleanRenderedHTML removes metadata that leaked through rendering. Whole
// paragraphs made of known key: value lines are dropped anywhere, then the
// leading blocks are scanned for a wider key set until the first block that
// is genuine content.
func CleanRenderedHTML(html []byte) []byte {
	out := leakBlock.ReplaceAll(html, nil)
	return stripLeadingMetaBlocks(out)
}

func stripLeadingMetaBlocks(html []byte) []byte {
	pos, removed := 0, 0
	pendingRule := -1

	for block := 0; block < maxLeadingBlocks && pos < len(html); block++ {
		rest := html[pos:]
		if loc := leadingRule.FindIndex(rest); loc != nil {
			if pendingRule < 0 {
				pendingRule = pos
			}
			pos += loc[1]
			continue
		}

		m := leadingBlock.FindSubmatchIndex(rest)
		if m == nil || !isMetaText(string(rest[m[4]:m[5]])) {
			break
		}
		start := pos
		if pendingRule >= 0 {
			start = pendingRule
			pendingRule = -1
		}
		html = append(html[:start:start], html[pos+m[1]:]...)
		pos = start
		removed++
	}

	if removed > 0 && pendingRule >= 0 {
		html = append(html[:pendingRule:pendingRule], html[pos:]...)
	}
	if removed > 0 {
		return []byte(strings.TrimLeft(string(html), " \t\r\n"))
	}
	return html
}

func isMetaText(text string) bool {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	for _, line := range lines {
		if !metaLine.MatchString(line) {
			return false
		}
	}
	return true
}
