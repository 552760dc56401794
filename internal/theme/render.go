package theme

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"

	"github.com/goliatone/go-sitesync/internal/posts"
)

// Site is the site-wide data handed to theme templates.
type Site struct {
	Title       string
	Author      string
	Description string
	URL         string
	Language    string
}

// PostView is the template-facing form of a post. Content is trusted HTML
// produced by the Markdown renderer.
type PostView struct {
	Title   string
	Date    string
	Author  string
	Tags    []string
	URL     string
	Href    string
	Preview string
	Content htmltemplate.HTML
}

// Info describes the active theme to templates.
type Info struct {
	Name    string
	Variant string
	Tokens  map[string]string
}

// PostData is the data of post.html.
type PostData struct {
	Site  Site
	Theme Info
	Post  PostView
	Posts []PostView
}

// IndexData is the data of index.html. List is the rendered article list.
type IndexData struct {
	Site  Site
	Theme Info
	Posts []PostView
	List  htmltemplate.HTML
}

// NewPostView converts a post for templates.
func NewPostView(p *posts.Post) PostView {
	if p == nil {
		return PostView{}
	}
	return PostView{
		Title:   p.Title,
		Date:    p.Date,
		Author:  p.Author,
		Tags:    p.Tags,
		URL:     p.URL,
		Href:    p.Href(),
		Preview: p.Preview,
		Content: htmltemplate.HTML(p.HTML),
	}
}

// NewPostViews converts posts in order.
func NewPostViews(list []*posts.Post) []PostView {
	views := make([]PostView, 0, len(list))
	for _, p := range list {
		views = append(views, NewPostView(p))
	}
	return views
}

// Info returns the template-facing theme description.
func (t *Theme) Info() Info {
	if t == nil {
		return Info{Tokens: map[string]string{}}
	}
	return Info{Name: t.Name, Variant: t.Variant, Tokens: t.Tokens()}
}

// RenderPost executes post.html.
func (t *Theme) RenderPost(data PostData) (string, error) {
	if !t.HasPost() {
		return "", fmt.Errorf("theme: %s has no %s template", t.name(), PostTemplate)
	}
	data.Theme = t.Info()
	var buf bytes.Buffer
	if err := t.post.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("theme: render %s: %w", PostTemplate, err)
	}
	return buf.String(), nil
}

// RenderIndex executes index.html.
func (t *Theme) RenderIndex(data IndexData) (string, error) {
	if !t.HasIndex() {
		return "", fmt.Errorf("theme: %s has no %s template", t.name(), IndexTemplate)
	}
	data.Theme = t.Info()
	var buf bytes.Buffer
	if err := t.index.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("theme: render %s: %w", IndexTemplate, err)
	}
	return buf.String(), nil
}

func (t *Theme) name() string {
	if t == nil {
		return "<nil>"
	}
	return t.Name
}
