package posts

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/goliatone/go-sitesync/internal/markdown"
	"github.com/goliatone/go-sitesync/pkg/interfaces"
)

func newTestCollection(t *testing.T, fs afero.Fs, parser interfaces.MarkdownParser) *Collection {
	t.Helper()
	if parser == nil {
		parser = markdown.NewGoldmarkParser(interfaces.ParseOptions{})
	}
	return NewCollection(fs, Config{Dir: "source/_posts", Workers: 4}, parser, testNormalizer(), nil)
}

func writeFile(t *testing.T, fs afero.Fs, name, content string) {
	t.Helper()
	if err := afero.WriteFile(fs, name, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestCollectionMissingDirectory(t *testing.T) {
	result, err := newTestCollection(t, afero.NewMemMapFs(), nil).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !result.MissingDir {
		t.Fatal("expected MissingDir to be reported")
	}
	if result.Posts == nil || len(result.Posts) != 0 {
		t.Fatalf("expected empty post list, got %#v", result.Posts)
	}
}

func TestCollectionLoadsSortsAndKeepsDrafts(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "source/_posts/older.md", "---\ntitle: Older\ndate: \"2024-01-01\"\ntags: [go]\n---\nOld body.\n")
	writeFile(t, fs, "source/_posts/newer.md", "---\ntitle: Newer\ndate: \"2024-02-01\"\n---\nNew body.\n")
	writeFile(t, fs, "source/_posts/b-same.md", "---\ndate: \"2024-01-15\"\n---\n# B Heading\n")
	writeFile(t, fs, "source/_posts/a-same.md", "---\ndate: \"2024-01-15\"\n---\nNo heading here.\n")
	writeFile(t, fs, "source/_posts/secret.md", "---\ntitle: Secret\ndate: \"2024-03-01\"\ndraft: true\n---\nHidden.\n")
	writeFile(t, fs, "source/_posts/notes.txt", "ignored")

	result, err := newTestCollection(t, fs, nil).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	var order []string
	for _, p := range result.Posts {
		order = append(order, p.Filename)
	}
	want := "secret.md newer.md a-same.md b-same.md older.md"
	if got := strings.Join(order, " "); got != want {
		t.Fatalf("unexpected order\nwant: %s\ngot:  %s", want, got)
	}

	drafts := result.Drafts()
	if len(drafts) != 1 || drafts[0].Title != "Secret" {
		t.Fatalf("expected the draft to be retained, got %#v", drafts)
	}
	if len(result.Published()) != 4 {
		t.Fatalf("expected 4 published posts, got %d", len(result.Published()))
	}

	byName := map[string]*Post{}
	for _, p := range result.Posts {
		byName[p.Filename] = p
	}
	if byName["b-same.md"].Title != "B Heading" {
		t.Fatalf("expected heading title, got %q", byName["b-same.md"].Title)
	}
	if byName["a-same.md"].Title != "a-same" {
		t.Fatalf("expected filename title, got %q", byName["a-same.md"].Title)
	}
	older := byName["older.md"]
	if !strings.Contains(older.HTML, "<p>Old body.</p>") || older.Preview != "Old body." {
		t.Fatalf("expected rendered html and preview, got %q / %q", older.HTML, older.Preview)
	}
}

type failingParser struct {
	interfaces.MarkdownParser
	marker []byte
}

func (p failingParser) Parse(source []byte) ([]byte, error) {
	if bytes.Contains(source, p.marker) {
		return nil, errors.New("boom")
	}
	return p.MarkdownParser.Parse(source)
}

func TestCollectionSkipsBadPost(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "source/_posts/good.md", "---\ntitle: Good\n---\nfine\n")
	writeFile(t, fs, "source/_posts/bad.md", "---\ntitle: Bad\n---\nexplode\n")

	parser := failingParser{
		MarkdownParser: markdown.NewGoldmarkParser(interfaces.ParseOptions{}),
		marker:         []byte("explode"),
	}
	result, err := newTestCollection(t, fs, parser).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(result.Posts) != 1 || result.Posts[0].Title != "Good" {
		t.Fatalf("expected only the good post, got %#v", result.Posts)
	}
	if len(result.Skipped) != 1 || result.Skipped[0].Filename != "bad.md" {
		t.Fatalf("expected bad.md to be skipped, got %#v", result.Skipped)
	}
}

func TestCollectionHonoursCancellation(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "source/_posts/one.md", "one\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := newTestCollection(t, fs, nil).Load(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSortPostsTieBreaksOnFilename(t *testing.T) {
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	list := []*Post{
		{Filename: "c.md", Time: day},
		{Filename: "a.md", Time: day},
		{Filename: "z.md", Time: day.Add(24 * time.Hour)},
	}
	SortPosts(list)
	if list[0].Filename != "z.md" || list[1].Filename != "a.md" || list[2].Filename != "c.md" {
		t.Fatalf("unexpected order %s %s %s", list[0].Filename, list[1].Filename, list[2].Filename)
	}
}
