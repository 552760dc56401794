package generator

import (
	"context"
	"fmt"
	htmltemplate "html/template"
	"strings"

	"github.com/spf13/afero"

	"github.com/goliatone/go-sitesync/internal/posts"
	"github.com/goliatone/go-sitesync/internal/splice"
	"github.com/goliatone/go-sitesync/internal/theme"
)

// Origins of the home page that gets spliced.
const (
	IndexFromSource    = "index_source"
	IndexFromReference = "reference"
	IndexFromTheme     = "theme"
	IndexFromDefaults  = "defaults"
)

// IndexReport describes how index.html was produced.
type IndexReport struct {
	Origin   string
	Strategy string
	Changed  bool
	Injected []string
}

func (s *service) writeArticleList(ctx context.Context, writer artifactWriter, list, baseDir string) error {
	target := joinOutputPath(baseDir, articleListName)
	req := writeFileRequest{
		Path:        target,
		Content:     strings.NewReader(list),
		Size:        int64(len(list)),
		Category:    categoryList,
		ContentType: "text/html; charset=utf-8",
		Checksum:    computeHashFromString(list),
	}
	if err := writer.WriteFile(ctx, req); err != nil {
		return fmt.Errorf("generator: write %s: %w", target, err)
	}
	return nil
}

// indexDocument picks the page to splice: the configured index source, then
// the reference template, then the theme home page, then an empty default
// page.
func (s *service) indexDocument(buildCtx *BuildContext, list string) ([]byte, string) {
	if source := strings.TrimSpace(s.cfg.IndexSource); source != "" {
		data, err := afero.ReadFile(s.deps.Fs, source)
		if err == nil {
			return data, IndexFromSource
		}
		s.logger.Warn("generator.index.source_unreadable", "path", source, "error", err)
	}
	if source := strings.TrimSpace(buildCtx.Template.Source); source != "" {
		data, err := afero.ReadFile(s.deps.Fs, source)
		if err == nil {
			return data, IndexFromReference
		}
		s.logger.Warn("generator.index.reference_unreadable", "path", source, "error", err)
	}
	if buildCtx.Theme.HasIndex() {
		html, err := buildCtx.Theme.RenderIndex(theme.IndexData{
			Site:  s.themeSite(),
			Posts: buildCtx.publishedViews(),
			List:  htmltemplate.HTML(list),
		})
		if err == nil {
			return []byte(html), IndexFromTheme
		}
		s.logger.Warn("generator.theme.index_failed", "theme", buildCtx.Theme.Name, "error", err)
	}
	return []byte(buildCtx.Template.Fragments.Document("")), IndexFromDefaults
}

func (s *service) writeIndex(ctx context.Context, writer artifactWriter, buildCtx *BuildContext, list string, published []*posts.Post, baseDir string) (IndexReport, error) {
	doc, origin := s.indexDocument(buildCtx, list)

	cfg := s.cfg.Splice
	cfg.FeedFile = s.feedFile()
	spliced := splice.NewSplicer(cfg, s.logger).Splice(splice.Input{
		Document: doc,
		List:     list,
		Tags:     posts.CountTags(published),
	})
	report := IndexReport{
		Origin:   origin,
		Strategy: spliced.Strategy,
		Changed:  spliced.Changed,
		Injected: spliced.Injected,
	}
	if spliced.Strategy == "" {
		s.logger.Warn("generator.index.no_container", "origin", origin)
	}

	target := joinOutputPath(baseDir, indexName)
	req := writeFileRequest{
		Path:        target,
		Content:     strings.NewReader(string(spliced.Document)),
		Size:        int64(len(spliced.Document)),
		Category:    categoryIndex,
		ContentType: "text/html; charset=utf-8",
		Checksum:    computeHash(spliced.Document),
		Metadata: map[string]string{
			"origin":   origin,
			"strategy": spliced.Strategy,
		},
	}
	if err := writer.WriteFile(ctx, req); err != nil {
		return report, fmt.Errorf("generator: write %s: %w", target, err)
	}
	return report, nil
}
