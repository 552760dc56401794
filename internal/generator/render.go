package generator

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/goliatone/go-sitesync/internal/logging"
	"github.com/goliatone/go-sitesync/internal/posts"
	"github.com/goliatone/go-sitesync/internal/theme"
)

// RenderedPage captures the assembled HTML of one published post.
type RenderedPage struct {
	Source   string
	Slug     string
	Title    string
	Route    string
	Output   string
	HTML     string
	Hash     string
	Checksum string
	Date     time.Time
	Duration time.Duration
}

// RenderDiagnostic records the outcome of one post.
type RenderDiagnostic struct {
	Source   string
	Slug     string
	Stage    string
	Duration time.Duration
	Skipped  bool
	Draft    bool
	Err      error
}

type renderOutcome struct {
	page       RenderedPage
	diagnostic RenderDiagnostic
	err        error
	skipped    bool
}

func (s *service) renderPost(
	ctx context.Context,
	buildCtx *BuildContext,
	post *posts.Post,
	manifest *buildManifest,
	baseDir string,
) renderOutcome {
	output := postOutputPath(baseDir, post.URL)
	outcome := renderOutcome{
		diagnostic: RenderDiagnostic{
			Source: post.Filename,
			Slug:   post.Slug,
			Stage:  "render",
		},
	}

	if err := ctx.Err(); err != nil {
		outcome.err = err
		outcome.diagnostic.Err = err
		return outcome
	}

	if s.cfg.Incremental && manifest != nil {
		if manifest.shouldSkipPage(post.Filename, post.Checksum, output, buildCtx.Fingerprint) {
			if exists, _ := afero.Exists(s.deps.Fs, output); exists {
				outcome.skipped = true
				outcome.diagnostic.Skipped = true
				return outcome
			}
		}
	}

	start := time.Now()
	html, err := s.renderPage(buildCtx, post)
	duration := time.Since(start)
	outcome.diagnostic.Duration = duration
	if err != nil {
		wrapped := fmt.Errorf("generator: assemble %s: %w", post.Filename, err)
		logging.WithPostContext(s.logger, post.Filename, post.Slug, "render").Error("generator.page.failed", "error", err)
		outcome.err = wrapped
		outcome.diagnostic.Err = wrapped
		return outcome
	}

	outcome.page = RenderedPage{
		Source:   post.Filename,
		Slug:     post.Slug,
		Title:    post.Title,
		Route:    siteRoute(path.Join(postsDirName, post.URL)),
		Output:   output,
		HTML:     html,
		Hash:     post.Checksum,
		Checksum: computeHashFromString(html),
		Date:     post.Time,
		Duration: duration,
	}
	return outcome
}

// renderPage renders post through the theme when one applies, otherwise
// through the assembler. A failing theme template falls back to the assembler.
func (s *service) renderPage(buildCtx *BuildContext, post *posts.Post) (string, error) {
	th := buildCtx.postTheme()
	if th == nil {
		return buildCtx.Assembler.Render(post)
	}
	html, err := th.RenderPost(theme.PostData{
		Site:  s.themeSite(),
		Post:  theme.NewPostView(post),
		Posts: buildCtx.publishedViews(),
	})
	if err == nil {
		return html, nil
	}
	logging.WithPostContext(s.logger, post.Filename, post.Slug, "render").Warn("generator.theme.post_failed",
		"theme", th.Name,
		"error", err,
	)
	return buildCtx.Assembler.Render(post)
}

func (s *service) persistPages(ctx context.Context, writer artifactWriter, pages []RenderedPage) error {
	dirCache := map[string]struct{}{}
	for i := range pages {
		if err := ensureDir(ctx, writer, dirCache, path.Dir(pages[i].Output)); err != nil {
			return err
		}
		metadata := map[string]string{
			"source": pages[i].Source,
			"route":  pages[i].Route,
		}
		if s.cfg.Incremental {
			metadata["incremental"] = "true"
		}
		req := writeFileRequest{
			Path:        pages[i].Output,
			Content:     strings.NewReader(pages[i].HTML),
			Size:        int64(len(pages[i].HTML)),
			Category:    categoryPage,
			ContentType: "text/html; charset=utf-8",
			Checksum:    pages[i].Checksum,
			Metadata:    metadata,
		}
		if err := writer.WriteFile(ctx, req); err != nil {
			return fmt.Errorf("generator: write %s: %w", pages[i].Output, err)
		}
	}
	return nil
}

// removeDraftPages deletes pages left behind by posts that became drafts.
func (s *service) removeDraftPages(ctx context.Context, writer artifactWriter, drafts []*posts.Post, manifest *buildManifest, baseDir string) error {
	for _, post := range drafts {
		output := postOutputPath(baseDir, post.URL)
		if err := writer.Remove(ctx, output); err != nil {
			return fmt.Errorf("generator: remove draft page %s: %w", output, err)
		}
		manifest.deletePage(post.Filename)
	}
	return nil
}

// removeOrphanPages deletes pages whose source file no longer exists.
func (s *service) removeOrphanPages(ctx context.Context, writer artifactWriter, manifest *buildManifest, keys map[string]struct{}) error {
	for key, entry := range manifest.Pages {
		if _, ok := keys[key]; ok || strings.TrimSpace(entry.Output) == "" {
			continue
		}
		if err := writer.Remove(ctx, entry.Output); err != nil {
			return fmt.Errorf("generator: remove orphan page %s: %w", entry.Output, err)
		}
	}
	return nil
}
