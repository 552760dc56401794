package page

import (
	"strings"
	"testing"

	"github.com/goliatone/go-sitesync/internal/posts"
	"github.com/goliatone/go-sitesync/internal/template"
)

func TestInjectTitle(t *testing.T) {
	cases := []struct {
		head string
		want string
	}{
		{"<head><title>Site</title></head>", "<head><title>Post &amp; Co - Site</title></head>"},
		{"<head><TITLE lang=\"en\">Site</TITLE></head>", "<head><TITLE lang=\"en\">Post &amp; Co - Site</TITLE></head>"},
		{"<head><title></title></head>", "<head><title>Post &amp; Co</title></head>"},
		{"<head><meta charset=\"utf-8\"></head>", "<head><meta charset=\"utf-8\"><title>Post &amp; Co</title></head>"},
	}
	for _, tc := range cases {
		if got := InjectTitle(tc.head, "Post & Co"); got != tc.want {
			t.Fatalf("InjectTitle(%q)\nwant: %q\ngot:  %q", tc.head, tc.want, got)
		}
	}
}

func TestRenderPage(t *testing.T) {
	frags := template.Defaults(template.Site{Title: "My Blog", Author: "Ada"})
	post := &posts.Post{Title: "Hello", Date: "2024-03-01", HTML: "<p>Body <em>here</em></p>"}

	html, err := NewAssembler(frags, WithDateLabel("发布日期:")).Render(post)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	for _, want := range []string{
		"<title>Hello - My Blog</title>",
		`<h1 class="post-title">Hello</h1>`,
		`<div class="post-meta">发布日期: 2024-03-01</div>`,
		"<p>Body <em>here</em></p>",
		`<a href="../index.html">`,
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("expected %q in page:\n%s", want, html)
		}
	}
	if !strings.HasPrefix(html, frags.Prologue) || !strings.HasSuffix(html, frags.Footer) {
		t.Fatal("expected page to be wrapped by the fragments")
	}
	if strings.Index(html, frags.Header) > strings.Index(html, `<article class="post">`) {
		t.Fatal("expected header before the article")
	}
}
