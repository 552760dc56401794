package posts

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/goliatone/go-slug"
)

var listTemplate = template.Must(template.New("article_list").Parse(`{{range .}}
<div class="post-item"{{if .Tags}} data-tags="{{.Tags}}"{{end}}>
    <h2 class="post-title"><a href="{{.Href}}">{{.Title}}</a></h2>
    <div class="post-date">{{.Date}}</div>
    <div class="post-preview">{{.Preview}}</div>
</div>
{{end}}`))

type listItem struct {
	Tags    string
	Href    string
	Title   string
	Date    string
	Preview string
}

// RenderList renders the article list fragment for the published posts, in
// the order given. Each item carries its tag tokens in data-tags.
func RenderList(list []*Post) (string, error) {
	items := make([]listItem, 0, len(list))
	for _, p := range Published(list) {
		items = append(items, listItem{
			Tags:    strings.Join(TagTokens(p.Tags), " "),
			Href:    p.Href(),
			Title:   p.Title,
			Date:    p.Date,
			Preview: p.Preview,
		})
	}

	var buf bytes.Buffer
	if err := listTemplate.Execute(&buf, items); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// TagToken turns a display tag into the token used by data-tags and the
// client-side filter. Tags the slugger cannot express, such as CJK words,
// keep their text with whitespace collapsed to dashes.
func TagToken(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return ""
	}
	if token, err := slug.Normalize(tag); err == nil && token != "" {
		return token
	}
	return strings.ToLower(strings.Join(strings.Fields(tag), "-"))
}

// TagTokens maps tags to tokens, dropping empties and duplicates.
func TagTokens(tags []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		token := TagToken(tag)
		if token == "" {
			continue
		}
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}
	return out
}

// TagCount pairs a display tag with the number of published posts using it.
type TagCount struct {
	Name  string
	Token string
	Count int
}

// CountTags aggregates tags over published posts, ordered by first
// appearance in the list.
func CountTags(list []*Post) []TagCount {
	index := map[string]int{}
	var out []TagCount
	for _, p := range Published(list) {
		seen := map[string]struct{}{}
		for _, tag := range p.Tags {
			token := TagToken(tag)
			if token == "" {
				continue
			}
			if _, dup := seen[token]; dup {
				continue
			}
			seen[token] = struct{}{}
			if i, ok := index[token]; ok {
				out[i].Count++
				continue
			}
			index[token] = len(out)
			out = append(out, TagCount{Name: strings.TrimSpace(tag), Token: token, Count: 1})
		}
	}
	return out
}
