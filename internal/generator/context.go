package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-sitesync/internal/page"
	"github.com/goliatone/go-sitesync/internal/posts"
	"github.com/goliatone/go-sitesync/internal/template"
	"github.com/goliatone/go-sitesync/internal/theme"
)

// BuildContext is everything a build needs once inputs are loaded.
type BuildContext struct {
	Posts       *posts.Result
	Template    template.Result
	Theme       *theme.Theme // nil when no theme directory exists
	Assembler   *page.Assembler
	Fingerprint string
	GeneratedAt time.Time
	Options     BuildOptions

	views []theme.PostView
}

func (s *service) loadContext(ctx context.Context, opts BuildOptions) (*BuildContext, error) {
	normalizer := s.deps.Normalizer
	if normalizer == nil {
		normalizer = posts.NewNormalizer(
			posts.WithClock(s.now),
			posts.WithLocation(s.location()),
		)
	}
	collection := posts.NewCollection(s.deps.Fs, posts.Config{
		Dir:           s.cfg.PostsDir,
		PreviewLength: s.cfg.PreviewLength,
		Workers:       s.cfg.Workers,
	}, s.deps.Parser, normalizer, s.logger)

	loaded, err := collection.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("generator: load posts: %w", err)
	}

	tmplCfg := s.templateConfig()
	if opts.DryRun {
		tmplCfg.ResourcesDir = ""
	}
	extracted := template.NewExtractor(s.deps.Fs, tmplCfg, s.logger).Extract(ctx)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	assembler := page.NewAssembler(extracted.Fragments,
		page.WithDateLabel(s.cfg.DateLabel),
		page.WithHomeText(s.cfg.HomeText),
	)

	buildCtx := &BuildContext{
		Posts:       loaded,
		Template:    extracted,
		Theme:       s.loadTheme(ctx),
		Assembler:   assembler,
		GeneratedAt: s.now(),
		Options:     opts,
	}
	buildCtx.Fingerprint = fragmentsFingerprint(extracted.Fragments,
		s.cfg.DateLabel, s.cfg.HomeText, buildCtx.postTheme().Fingerprint())
	return buildCtx, nil
}

// loadTheme returns nil when no usable theme directory exists; the built-in
// pages are used then.
func (s *service) loadTheme(ctx context.Context) *theme.Theme {
	cfg := s.cfg.Theme
	if strings.TrimSpace(cfg.Name) == "" {
		cfg.Name = s.cfg.Site.Theme
	}
	loaded, err := theme.NewLoader(s.deps.Fs, cfg, s.logger).Load(ctx)
	switch {
	case err == nil:
		return loaded
	case errors.Is(err, theme.ErrNotFound):
		s.logger.Debug("generator.theme.none", "dir", cfg.Dir, "theme", cfg.Name)
	default:
		s.logger.Warn("generator.theme.unusable", "dir", cfg.Dir, "theme", cfg.Name, "error", err)
	}
	return nil
}

// postTheme returns the theme that renders post pages. A located reference
// page takes precedence; themes stand in for the built-in fragments.
func (b *BuildContext) postTheme() *theme.Theme {
	if b == nil || !b.Template.Fallback || !b.Theme.HasPost() {
		return nil
	}
	return b.Theme
}

// publishedViews converts the published posts for theme templates once per
// build.
func (b *BuildContext) publishedViews() []theme.PostView {
	if b.views == nil && b.Posts != nil {
		b.views = theme.NewPostViews(b.Posts.Published())
	}
	return b.views
}

func (s *service) themeSite() theme.Site {
	return theme.Site{
		Title:       s.cfg.Site.Title,
		Author:      s.cfg.Site.Author,
		Description: s.cfg.Site.Description,
		URL:         s.cfg.Site.URL,
		Language:    s.cfg.Site.Language,
	}
}

func (s *service) templateConfig() template.Config {
	cfg := s.cfg.Template
	cfg.Site = template.Site{
		Title:       s.cfg.Site.Title,
		Author:      s.cfg.Site.Author,
		Description: s.cfg.Site.Description,
		Language:    s.cfg.Site.Language,
		Theme:       s.cfg.Site.Theme,
	}
	return cfg
}

func (s *service) location() *time.Location {
	if s.cfg.Site.Location != nil {
		return s.cfg.Site.Location
	}
	return time.Local
}

// fragmentsFingerprint changes whenever a post page would render differently
// for the same source.
func fragmentsFingerprint(f template.Fragments, parts ...string) string {
	var builder strings.Builder
	for _, part := range append([]string{f.Prologue, f.Head, f.Header, f.Footer}, parts...) {
		builder.WriteString(part)
		builder.WriteByte(0)
	}
	return computeHashFromString(builder.String())
}
