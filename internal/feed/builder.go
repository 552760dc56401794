package feed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/goliatone/go-sitesync/internal/htmlscan"
	"github.com/goliatone/go-sitesync/internal/logging"
	"github.com/goliatone/go-sitesync/internal/markdown"
	"github.com/goliatone/go-sitesync/pkg/interfaces"
)

// DefaultDateLabels precede the date in a post meta line.
var DefaultDateLabels = []string{"Published:", "发布日期:", "Date:"}

var skippedPages = map[string]bool{"article_list.html": true, "index.html": true}

// Channel describes the feed itself.
type Channel struct {
	Title       string
	Link        string
	Description string
	Language    string
	// SelfLink is the public URL of the feed file.
	SelfLink string
}

// Item is one post read back from a generated page.
type Item struct {
	File        string
	Title       string
	Link        string
	GUID        string
	Published   time.Time
	Dated       bool
	Description string
	Content     string
}

// Feed is a sorted set of items ready to marshal.
type Feed struct {
	Channel Channel
	Items   []Item
	Built   time.Time
}

// Config controls scanning and output.
type Config struct {
	Channel    Channel
	DateLabels []string
	// MaxItems caps the feed after sorting; zero keeps every item.
	MaxItems int
	Location *time.Location
	Now      func() time.Time
}

// Builder reads generated post pages and assembles a feed.
type Builder struct {
	fs     afero.Fs
	cfg    Config
	logger interfaces.Logger
}

// NewBuilder applies defaults to cfg and returns a Builder.
func NewBuilder(fs afero.Fs, cfg Config, logger interfaces.Logger) *Builder {
	if len(cfg.DateLabels) == 0 {
		cfg.DateLabels = DefaultDateLabels
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	cfg.Channel.Link = strings.TrimRight(strings.TrimSpace(cfg.Channel.Link), "/")
	return &Builder{fs: fs, cfg: cfg, logger: logging.OrNoOp(logger)}
}

// Build scans dir for post pages. A missing directory yields an empty feed.
func (b *Builder) Build(ctx context.Context, dir string) (*Feed, error) {
	now := b.cfg.Now().In(b.cfg.Location)
	feed := &Feed{Channel: b.cfg.Channel, Built: now}

	entries, err := afero.ReadDir(b.fs, dir)
	if errors.Is(err, os.ErrNotExist) {
		b.logger.Warn("feed.dir.missing", "dir", dir)
		return feed, nil
	}
	if err != nil {
		return nil, fmt.Errorf("feed: read %s: %w", dir, err)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := entry.Name()
		if entry.IsDir() || !strings.EqualFold(path.Ext(name), ".html") || skippedPages[strings.ToLower(name)] {
			continue
		}
		src, err := afero.ReadFile(b.fs, filepath.Join(dir, name))
		if err != nil {
			b.logger.Warn("feed.page.skipped", "file", name, "error", err)
			continue
		}
		feed.Items = append(feed.Items, b.item(name, src, now))
	}

	SortItems(feed.Items)
	if b.cfg.MaxItems > 0 && len(feed.Items) > b.cfg.MaxItems {
		feed.Items = feed.Items[:b.cfg.MaxItems]
	}
	b.logger.Info("feed.built", "dir", dir, "items", len(feed.Items))
	return feed, nil
}

func (b *Builder) item(name string, src []byte, now time.Time) Item {
	page := ParsePage(src, b.cfg.DateLabels, b.cfg.Location)
	link := b.cfg.Channel.Link + "/posts/" + name

	item := Item{
		File:        name,
		Title:       page.Title,
		Link:        link,
		GUID:        uuid.NewSHA1(uuid.NameSpaceURL, []byte(link)).String(),
		Published:   page.Published,
		Dated:       page.Dated,
		Content:     page.Content,
		Description: markdown.Preview([]byte(page.Content), markdown.DefaultPreviewLength),
	}
	if item.Title == "" {
		item.Title = strings.TrimSuffix(name, path.Ext(name))
	}
	if !item.Dated {
		item.Published = now
		b.logger.Debug("feed.date.defaulted", "file", name)
	}
	return item
}

// SortItems orders items newest first; equal dates fall back to the link.
func SortItems(items []Item) {
	slices.SortStableFunc(items, func(a, b Item) int {
		if c := b.Published.Compare(a.Published); c != 0 {
			return c
		}
		return strings.Compare(a.Link, b.Link)
	})
}

// Page holds the fields read back from a generated post page.
type Page struct {
	Title     string
	Published time.Time
	Dated     bool
	Content   string
}

// ParsePage extracts the title, date and content of a post page. The date is
// the first YYYY-MM-DD value after one of labels in div.post-meta.
func ParsePage(src []byte, labels []string, loc *time.Location) Page {
	doc := htmlscan.Parse(src)
	var page Page

	if el, ok := doc.Find(htmlscan.WithClass("h1", "post-title")); ok {
		page.Title = htmlscan.Text(doc.Inner(el))
	}
	if el, ok := doc.Find(htmlscan.WithClass("div", "post-meta")); ok {
		page.Published, page.Dated = parseMetaDate(htmlscan.Text(doc.Inner(el)), labels, loc)
	}
	if el, ok := doc.Find(htmlscan.WithClass("div", "post-content")); ok {
		page.Content = strings.TrimSpace(string(htmlscan.StripRawText(doc.Inner(el))))
	}
	return page
}

func parseMetaDate(text string, labels []string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	for _, label := range labels {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		_, rest, found := strings.Cut(text, label)
		if !found {
			continue
		}
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			continue
		}
		if t, err := time.ParseInLocation("2006-01-02", fields[0], loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
