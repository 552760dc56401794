package markdown

import (
	"os"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/goliatone/go-sitesync/pkg/interfaces"
)

func TestParseFrontMatter(t *testing.T) {
	meta, body := ParseFrontMatter(readFixture(t, "testdata/basic.md"))

	if !meta.Present {
		t.Fatal("expected front matter to be detected")
	}
	if meta.Title != "Sample Post" {
		t.Fatalf("Title mismatch, got %q", meta.Title)
	}
	if len(meta.Tags) != 2 || meta.Tags[0] != "go" || meta.Tags[1] != "web" {
		t.Fatalf("Tags mismatch: %#v", meta.Tags)
	}
	if len(meta.Categories) != 2 || meta.Categories[0] != "notes" {
		t.Fatalf("expected scalar categories to be split, got %#v", meta.Categories)
	}
	if meta.Author != "Ada" || meta.Draft {
		t.Fatalf("unexpected author/draft %q/%v", meta.Author, meta.Draft)
	}
	if meta.Date == nil {
		t.Fatal("expected raw date value")
	}
	if meta.Extra["layout"] != "wide" {
		t.Fatalf("expected unknown keys in Extra, got %#v", meta.Extra)
	}
	if !strings.Contains(string(body), "# Sample Post") || strings.Contains(string(body), "author: Ada") {
		t.Fatalf("body not split correctly: %q", string(body))
	}
}

func TestParseFrontMatterMalformedYAMLKeepsBody(t *testing.T) {
	meta, body := ParseFrontMatter(readFixture(t, "testdata/broken_yaml.md"))

	if !meta.Present {
		t.Fatal("expected block to be reported as present")
	}
	if meta.Title != "" || len(meta.Tags) != 0 {
		t.Fatalf("expected empty metadata, got %#v", meta)
	}
	if strings.TrimSpace(string(body)) != "Body survives." {
		t.Fatalf("expected body after delimiter, got %q", string(body))
	}
}

func TestParseFrontMatterStripsNonPrintable(t *testing.T) {
	source := []byte("\xef\xbb\xbf---\ntitle: Clean\x00 Title\n---\nbody\n")

	meta, body := ParseFrontMatter(source)

	if meta.Title != "Clean Title" {
		t.Fatalf("expected sanitised title, got %q", meta.Title)
	}
	if strings.TrimSpace(string(body)) != "body" {
		t.Fatalf("unexpected body %q", string(body))
	}
}

func TestParseFrontMatterWithoutClosingDelimiter(t *testing.T) {
	source := []byte("---\ntitle: Open\n\nStill body.\n")

	meta, body := ParseFrontMatter(source)

	if meta.Present {
		t.Fatal("expected unclosed block to be ignored")
	}
	if !strings.Contains(string(body), "Still body.") {
		t.Fatalf("expected body to survive, got %q", string(body))
	}
	if strings.Contains(string(body), "title: Open") {
		t.Fatalf("expected leaked title line to be removed, got %q", string(body))
	}
}

func TestStripLeakedMetadata(t *testing.T) {
	_, body := ParseFrontMatter(readFixture(t, "testdata/leaked.md"))

	got := string(body)
	if !strings.HasPrefix(got, "First real paragraph: it has a colon.") {
		t.Fatalf("expected leak lines and separator removed, got %q", got)
	}
	if !strings.Contains(got, "title: this line is content now") {
		t.Fatalf("expected later key-like line to survive, got %q", got)
	}
}

func TestStripLeakedMetadataFullWidthColon(t *testing.T) {
	got := string(StripLeakedMetadata([]byte("标题\nTitle：你好\n")))
	if got != "标题\nTitle：你好\n" {
		t.Fatalf("expected content-first body to be untouched, got %q", got)
	}

	got = string(StripLeakedMetadata([]byte("Title：你好\nDATE: 2024-01-01\n正文\n")))
	if got != "正文\n" {
		t.Fatalf("expected leading leak lines removed, got %q", got)
	}
}

func TestStripLeakedMetadataWithoutLeaksIsIdentity(t *testing.T) {
	source := []byte("\n---\nIntro\n")
	if got := StripLeakedMetadata(source); string(got) != string(source) {
		t.Fatalf("expected unchanged body, got %q", string(got))
	}
}

func TestGoldmarkParser_Parse(t *testing.T) {
	parser := NewGoldmarkParser(interfaces.ParseOptions{})

	html, err := parser.Parse([]byte("# Heading\n\nHello **world**\n\n| a | b |\n|---|---|\n| 1 | 2 |\n\n```go\nfmt.Println(1)\n```\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	got := string(html)
	if !strings.Contains(got, "Heading</h1>") {
		t.Fatalf("expected heading, got %q", got)
	}
	if !strings.Contains(got, "<strong>world</strong>") {
		t.Fatalf("expected <strong>, got %q", got)
	}
	if !strings.Contains(got, "<table>") {
		t.Fatalf("expected table support, got %q", got)
	}
	if !strings.Contains(got, `<code class="language-go">`) {
		t.Fatalf("expected fenced code, got %q", got)
	}
}

func TestGoldmarkParser_TablesAlwaysEnabled(t *testing.T) {
	parser := NewGoldmarkParser(interfaces.ParseOptions{Extensions: []string{"strikethrough", "unknown"}})

	html, err := parser.Parse([]byte("| a |\n|---|\n| 1 |\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !strings.Contains(string(html), "<table>") {
		t.Fatalf("expected table support, got %q", string(html))
	}
}

func TestGoldmarkParser_ParseWithOptions(t *testing.T) {
	parser := NewGoldmarkParser(interfaces.ParseOptions{})

	html, err := parser.ParseWithOptions([]byte("line one\nline two"), interfaces.ParseOptions{
		HardWraps: true,
	})
	if err != nil {
		t.Fatalf("ParseWithOptions: %v", err)
	}
	if !strings.Contains(string(html), "line one<br>") {
		t.Fatalf("expected hard wraps in HTML output, got %q", string(html))
	}
}

func TestGoldmarkParser_Highlighting(t *testing.T) {
	parser := NewGoldmarkParser(interfaces.ParseOptions{HighlightStyle: "monokai"})

	html, err := parser.Parse([]byte("```go\npackage main\n```\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !strings.Contains(string(html), "<pre") || !strings.Contains(string(html), `style="`) {
		t.Fatalf("expected chroma output, got %q", string(html))
	}
}

func TestCleanRenderedHTML(t *testing.T) {
	html := []byte("<hr>\n<h2 id=\"title-x\">title: X\ndate: 2024-01-01</h2>\n<p>draft: false</p>\n<hr>\n<p>Real content: with a colon.</p>\n<p>author: someone</p>\n<p>Summary: kept because it is not leading</p>\n")

	got := string(CleanRenderedHTML(html))

	if !strings.HasPrefix(got, "<p>Real content: with a colon.</p>") {
		t.Fatalf("expected leading leak blocks removed, got %q", got)
	}
	if strings.Contains(got, "author: someone") {
		t.Fatalf("expected known leak paragraph removed, got %q", got)
	}
	if !strings.Contains(got, "Summary: kept because it is not leading") {
		t.Fatalf("expected later paragraph kept, got %q", got)
	}
}

func TestCleanRenderedHTMLKeepsGenuineContent(t *testing.T) {
	html := []byte("<p>Note: this post starts with a colon.</p>\n<p>description: not stripped after content</p>\n")
	if got := string(CleanRenderedHTML(html)); got != string(html) {
		t.Fatalf("expected untouched html, got %q", got)
	}
}

func TestCleanRenderedHTMLKeepsProseThatStartsWithAKey(t *testing.T) {
	html := []byte("<p>Intro paragraph.</p>\n<p>Date: we met on Monday and it was great.</p>\n<p>Tags: we should talk about these.</p>\n")
	if got := string(CleanRenderedHTML(html)); got != string(html) {
		t.Fatalf("expected prose kept, got %q", got)
	}
}

func TestCleanRenderedHTMLDropsLaterValueShapedLeaks(t *testing.T) {
	html := []byte("<p>Intro paragraph.</p>\n<p>date: 2024-03-01 10:30\ntags: go, web dev</p>\n<p>Tags: [go, cli]</p>\n<p>日期：2024年3月1日</p>\n<p>Outro.</p>\n")

	got := string(CleanRenderedHTML(html))

	if got != "<p>Intro paragraph.</p>\n<p>日期：2024年3月1日</p>\n<p>Outro.</p>\n" {
		t.Fatalf("unexpected cleanup %q", got)
	}
}

func TestPreview(t *testing.T) {
	html := []byte("<h2>## Intro</h2>\n<p>Some <code>`code`</code> and *stars* with well-known snake_case &amp; _under_ -dash.</p>\n<script>alert(1)</script>")

	got := Preview(html, 150)

	want := "Intro Some code and stars with well-known snake_case & under dash."
	if got != want {
		t.Fatalf("Preview mismatch\nwant: %q\ngot:  %q", want, got)
	}
}

func TestPreviewTruncatesRunes(t *testing.T) {
	long := strings.Repeat("字", 200)

	got := Preview([]byte("<p>"+long+"</p>"), 150)

	if utf8.RuneCountInString(got) != 153 || !strings.HasSuffix(got, "...") {
		t.Fatalf("expected 150 runes plus ellipsis, got %d runes", utf8.RuneCountInString(got))
	}

	short := Preview([]byte("<p>short</p>"), 150)
	if short != "short" {
		t.Fatalf("expected no ellipsis for short text, got %q", short)
	}
}

func readFixture(tb testing.TB, path string) []byte {
	tb.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		tb.Fatalf("read fixture %s: %v", path, err)
	}
	return data
}
