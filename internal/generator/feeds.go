package generator

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/goliatone/go-sitesync/internal/feed"
)

func (s *service) feedFile() string {
	if name := strings.TrimSpace(s.cfg.Feed.File); name != "" {
		return name
	}
	return "rss.xml"
}

func (s *service) feedBuilder() *feed.Builder {
	link := strings.TrimRight(strings.TrimSpace(s.cfg.Site.URL), "/")
	return feed.NewBuilder(s.deps.Fs, feed.Config{
		Channel: feed.Channel{
			Title:       s.cfg.Site.Title,
			Link:        link,
			Description: s.cfg.Site.Description,
			Language:    s.cfg.Site.Language,
			SelfLink:    link + "/" + s.feedFile(),
		},
		DateLabels: s.cfg.Feed.DateLabels,
		MaxItems:   s.cfg.Feed.MaxItems,
		Location:   s.location(),
		Now:        s.now,
	}, s.logger)
}

// writeFeed reads the generated post pages back and writes the RSS document
// next to index.html. It returns the number of items written.
func (s *service) writeFeed(ctx context.Context, writer artifactWriter, baseDir string) (int, error) {
	built, err := s.feedBuilder().Build(ctx, joinOutputPath(baseDir, postsDirName))
	if err != nil {
		return 0, err
	}
	data, err := built.Marshal()
	if err != nil {
		return 0, fmt.Errorf("generator: marshal feed: %w", err)
	}

	target := joinOutputPath(baseDir, s.feedFile())
	if err := ensureDir(ctx, writer, nil, path.Dir(target)); err != nil {
		return 0, err
	}
	req := writeFileRequest{
		Path:        target,
		Content:     bytes.NewReader(data),
		Size:        int64(len(data)),
		Category:    categoryFeed,
		ContentType: "application/rss+xml",
		Checksum:    computeHash(data),
		Metadata: map[string]string{
			"items":        fmt.Sprint(len(built.Items)),
			"generated_at": built.Built.UTC().Format(time.RFC3339),
		},
	}
	if err := writer.WriteFile(ctx, req); err != nil {
		return 0, fmt.Errorf("generator: write feed: %w", err)
	}
	return len(built.Items), nil
}
