package splice

import (
	"html"
	"sort"
	"strings"

	"github.com/goliatone/go-sitesync/internal/htmlscan"
	"github.com/goliatone/go-sitesync/internal/posts"
)

func isPostItem(el *htmlscan.Element) bool {
	return el.HasClass("post-item")
}

// FillPlaceholderTags adds data-tags to every .post-item start tag of list
// that has none. Other bytes are kept as written.
func FillPlaceholderTags(list string, placeholder []string) string {
	tokens := posts.TagTokens(placeholder)
	if len(tokens) == 0 {
		return list
	}
	attr := ` data-tags="` + html.EscapeString(strings.Join(tokens, " ")) + `"`

	doc := htmlscan.Parse([]byte(list))
	items := doc.FindAll(isPostItem)

	var inserts []int
	for _, item := range items {
		if _, ok := item.Attr("data-tags"); ok {
			continue
		}
		end := item.InnerStart - 1
		if end > item.OuterStart && list[end-1] == '/' {
			end--
		}
		inserts = append(inserts, end)
	}
	if len(inserts) == 0 {
		return list
	}

	var b strings.Builder
	b.Grow(len(list) + len(inserts)*len(attr))
	prev := 0
	for _, pos := range inserts {
		b.WriteString(list[prev:pos])
		b.WriteString(attr)
		prev = pos
	}
	b.WriteString(list[prev:])
	return b.String()
}

// TagsFromList counts the data-tags tokens of the list items, ordered by
// count then token.
func TagsFromList(list string) []posts.TagCount {
	doc := htmlscan.Parse([]byte(list))
	counts := map[string]int{}
	for _, item := range doc.FindAll(isPostItem) {
		value, _ := item.Attr("data-tags")
		seen := map[string]bool{}
		for _, token := range strings.Fields(value) {
			if seen[token] {
				continue
			}
			seen[token] = true
			counts[token]++
		}
	}

	out := make([]posts.TagCount, 0, len(counts))
	for token, count := range counts {
		out = append(out, posts.TagCount{Name: token, Token: token, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Token < out[j].Token
	})
	return out
}
