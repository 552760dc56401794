package splice

import (
	"os"
	"strings"
	"testing"

	"github.com/goliatone/go-sitesync/internal/htmlscan"
	"github.com/goliatone/go-sitesync/internal/page"
	"github.com/goliatone/go-sitesync/internal/posts"
	"github.com/goliatone/go-sitesync/internal/template"
)

const list = "\n<div class=\"post-item\" data-tags=\"go web\"><h2 class=\"post-title\"><a href=\"posts/a.html\">A</a></h2></div>\n<div class=\"post-item\"><h2 class=\"post-title\"><a href=\"posts/b.html\">B</a></h2></div>\n"

func allGuards() Config {
	return Config{Navigation: true, TagCloud: true, FilterScript: true}
}

func readIndex(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/index.html")
	if err != nil {
		t.Fatalf("read index: %v", err)
	}
	return data
}

func count(doc []byte, match func(*htmlscan.Element) bool) int {
	return htmlscan.Parse(doc).Count(match)
}

func TestSplicePreservesOutsideMarkup(t *testing.T) {
	doc := readIndex(t)

	result := NewSplicer(Config{}, nil).Splice(Input{Document: doc, List: list})

	if result.Strategy != "element" || !result.Changed {
		t.Fatalf("unexpected result %+v", result)
	}
	want := string(doc[:result.Region.Start]) + FillPlaceholderTags(list, DefaultPlaceholderTags) + string(doc[result.Region.End:])
	if string(result.Document) != want {
		t.Fatalf("unexpected document\n%s", result.Document)
	}
	if strings.Contains(string(result.Document), "Stale") {
		t.Fatal("expected old list to be replaced")
	}
	if string(doc) != string(readIndex(t)) {
		t.Fatal("input must not be modified")
	}
}

func TestSpliceIsIdempotent(t *testing.T) {
	splicer := NewSplicer(allGuards(), nil)

	first := splicer.Splice(Input{Document: readIndex(t), List: list})
	if len(first.Injected) != 4 {
		t.Fatalf("expected every guard to inject once, got %v", first.Injected)
	}
	second := splicer.Splice(Input{Document: first.Document, List: list})

	if string(second.Document) != string(first.Document) {
		t.Fatalf("second run changed the document\nfirst:\n%s\nsecond:\n%s", first.Document, second.Document)
	}
	if len(second.Injected) != 0 || second.Changed {
		t.Fatalf("expected no injections on the second run, got %v", second.Injected)
	}

	out := second.Document
	if n := count(out, htmlscan.WithClass("", "top-nav")); n != 1 {
		t.Fatalf("expected one .top-nav, got %d", n)
	}
	if n := count(out, htmlscan.WithClass("", "tag-list")); n != 1 {
		t.Fatalf("expected one .tag-list, got %d", n)
	}
	if n := strings.Count(string(out), "function "+FilterFunction); n != 1 {
		t.Fatalf("expected one filter script, got %d", n)
	}
	if n := count(out, htmlscan.WithID("style", "tag-filter-style")); n != 1 {
		t.Fatalf("expected one filter style, got %d", n)
	}

	nav := strings.Index(string(out), `class="top-nav"`)
	cloud := strings.Index(string(out), `class="tag-list"`)
	posts := strings.Index(string(out), `<div class="posts">`)
	if !(nav < cloud && cloud < posts) {
		t.Fatalf("unexpected placement nav=%d cloud=%d posts=%d", nav, cloud, posts)
	}
}

func TestSpliceTagCloudFromList(t *testing.T) {
	result := NewSplicer(Config{TagCloud: true}, nil).Splice(Input{Document: readIndex(t), List: list})

	for _, want := range []string{`data-tag="all"`, `data-tag="general"`, `data-tag="go"`, `data-tag="web"`} {
		if !strings.Contains(string(result.Document), want) {
			t.Fatalf("expected %s in tag cloud:\n%s", want, result.Document)
		}
	}
}

func TestSpliceUsesGivenTags(t *testing.T) {
	tags := []posts.TagCount{{Name: "生活", Token: "life", Count: 3}}
	result := NewSplicer(Config{TagCloud: true}, nil).Splice(Input{Document: readIndex(t), List: list, Tags: tags})

	if !strings.Contains(string(result.Document), `data-tag="life">生活 <span class="tag-count">(3)</span>`) {
		t.Fatalf("expected supplied tags in cloud:\n%s", result.Document)
	}
	if strings.Contains(string(result.Document), `data-tag="general"`) {
		t.Fatal("expected supplied tags to replace derived ones")
	}
}

func TestSpliceKeepsExistingNavigation(t *testing.T) {
	doc := []byte("<html><head></head><body><nav><a href=\"/\">首页</a></nav><div class=\"posts\"></div></body></html>")

	result := NewSplicer(allGuards(), nil).Splice(Input{Document: doc, List: list})

	for _, name := range result.Injected {
		if name == "navigation" {
			t.Fatal("navigation must not be injected when a nav already links home")
		}
	}
	if count(result.Document, htmlscan.Named("nav")) != 1 {
		t.Fatalf("expected a single nav, got:\n%s", result.Document)
	}
}

func TestSplicePatternFallback(t *testing.T) {
	cases := map[string]string{
		"singular class": "<html><body><div class=\"post\">old</div></body></html>",
		"main":           "<html><body><main id=\"content\">old</main></body></html>",
	}
	for name, doc := range cases {
		result := NewSplicer(Config{}, nil).Splice(Input{Document: []byte(doc), List: "NEW"})
		if result.Strategy != "pattern" {
			t.Fatalf("%s: expected pattern strategy, got %q", name, result.Strategy)
		}
		got := string(result.Document)
		if strings.Contains(got, "old") || !strings.Contains(got, ">NEW</") {
			t.Fatalf("%s: unexpected document %q", name, got)
		}
	}
}

func TestSpliceMiddleChunkConverges(t *testing.T) {
	doc := []byte("<html><head></head><body><div>a</div><div>b</div><div>c</div></body></html>")
	splicer := NewSplicer(allGuards(), nil)

	first := splicer.Splice(Input{Document: doc, List: list})
	if first.Strategy != "middle-chunk" {
		t.Fatalf("expected middle-chunk, got %q", first.Strategy)
	}
	got := string(first.Document)
	if !strings.Contains(got, "<div>a</div>") || !strings.Contains(got, "<div>c</div>") || strings.Contains(got, "<div>b</div>") {
		t.Fatalf("expected the middle chunk to be replaced:\n%s", got)
	}

	second := splicer.Splice(Input{Document: first.Document, List: list})
	if second.Strategy != "element" {
		t.Fatalf("expected the wrapped list to be found by element, got %q", second.Strategy)
	}
	if string(second.Document) != string(first.Document) {
		t.Fatalf("expected convergence\nfirst:\n%s\nsecond:\n%s", first.Document, second.Document)
	}
}

func TestSpliceUnrecognisedLayoutIsUnchanged(t *testing.T) {
	doc := []byte("<html><body><p>just text</p></body></html>")

	result := NewSplicer(allGuards(), nil).Splice(Input{Document: doc, List: list})

	if result.Changed || result.Strategy != "" || string(result.Document) != string(doc) {
		t.Fatalf("expected untouched document, got %+v", result)
	}
}

func TestFillPlaceholderTags(t *testing.T) {
	in := `<div class="post-item">x</div><div class="post-item" data-tags="go">y</div><li class="post-item"/>`
	want := `<div class="post-item" data-tags="general">x</div><div class="post-item" data-tags="go">y</div><li class="post-item" data-tags="general"/>`

	if got := FillPlaceholderTags(in, []string{"general"}); got != want {
		t.Fatalf("unexpected output\nwant: %s\ngot:  %s", want, got)
	}
}

func TestRoundTripFindsAssembledContainer(t *testing.T) {
	post := &posts.Post{Title: "T", Date: "2024-01-01", HTML: "<p>x</p>"}
	splicer := NewSplicer(Config{}, nil)

	defaults := template.Defaults(template.Site{Title: "Blog"})
	html, err := page.NewAssembler(defaults).Render(post)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	region, strategy, ok := splicer.Locate([]byte(html))
	if !ok || strategy != "element" {
		t.Fatalf("expected element strategy, got %q", strategy)
	}
	if region.OuterStart != strings.Index(html, `<main class="posts">`) {
		t.Fatalf("expected the default container, got offset %d", region.OuterStart)
	}

	frags, _, err := template.Partition(readIndex(t), template.PolicyDefault, defaults)
	if err != nil {
		t.Fatalf("Partition: %v", err)
	}
	html, err = page.NewAssembler(frags).Render(post)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	region, _, ok = splicer.Locate([]byte(html))
	if !ok {
		t.Fatal("expected container in assembled page")
	}
	prefix := frags.Prologue + page.InjectTitle(frags.Head, post.Title) + frags.Header
	if region.Start != len(prefix) {
		t.Fatalf("expected region to start where the header ends: %d vs %d", region.Start, len(prefix))
	}
}
