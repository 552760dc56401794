package generator

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/goliatone/go-sitesync/internal/logging"
	"github.com/goliatone/go-sitesync/internal/posts"
	"github.com/goliatone/go-sitesync/internal/splice"
	"github.com/goliatone/go-sitesync/internal/template"
	"github.com/goliatone/go-sitesync/internal/theme"
	"github.com/goliatone/go-sitesync/pkg/interfaces"
)

var (
	// ErrServiceDisabled indicates the generator feature is disabled.
	ErrServiceDisabled    = errors.New("generator: service disabled")
	errFilesystemRequired = errors.New("generator: filesystem is required")
	errParserRequired     = errors.New("generator: markdown parser is required")
	errOutputDirRequired  = errors.New("generator: output directory is required")
	errUnsafeOutputDir    = errors.New("generator: refusing to clean output directory")
)

// Service describes the static site generator contract.
type Service interface {
	Build(ctx context.Context, opts BuildOptions) (*BuildResult, error)
	BuildFeed(ctx context.Context) (int, error)
	Clean(ctx context.Context) error
}

// Config captures runtime behaviour toggles for the generator.
type Config struct {
	PostsDir  string
	OutputDir string
	// AssetsDir is mirrored into <output>/assets when CopyAssets is set.
	AssetsDir string
	// IndexSource is the home page to splice. Empty uses the reference
	// template located by the extractor.
	IndexSource string

	CleanBuild      bool
	Incremental     bool
	CopyAssets      bool
	GenerateFeed    bool
	GenerateSitemap bool
	GenerateRobots  bool
	Workers         int
	PreviewLength   int

	Site     SiteConfig
	Template template.Config

	// Theme locates user theme directories, used when no reference page
	// was found.
	Theme theme.Config

	DateLabel string
	HomeText  string
	Splice    splice.Config
	Feed      FeedConfig
}

// SiteConfig describes the published site.
type SiteConfig struct {
	Title       string
	Author      string
	Description string
	URL         string
	Language    string
	Theme       string
	Location    *time.Location
}

// FeedConfig controls the RSS output of a build.
type FeedConfig struct {
	File       string
	MaxItems   int
	DateLabels []string
}

// BuildOptions narrows the scope of a generator run.
type BuildOptions struct {
	DryRun bool
}

// BuildResult reports aggregated build metadata.
type BuildResult struct {
	PostsBuilt    int
	PostsSkipped  int
	PostsFailed   int
	Drafts        int
	AssetsBuilt   int
	AssetsSkipped int
	FeedItems     int

	TemplateSource   string
	TemplateFallback bool
	Container        string
	Theme            string // user theme that rendered post pages, if any
	Index            IndexReport

	Duration    time.Duration
	Rendered    []RenderedPage
	Diagnostics []RenderDiagnostic
	Errors      []error
	DryRun      bool
}

// Dependencies lists the collaborators of the generator.
type Dependencies struct {
	Fs     afero.Fs
	Parser interfaces.MarkdownParser
	// Normalizer overrides the default normaliser built from Config.Site.
	Normalizer *posts.Normalizer
	Logger     interfaces.Logger
	Now        func() time.Time
}

// NewService wires a generator implementation with the provided configuration and dependencies.
func NewService(cfg Config, deps Dependencies) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		cfg:    cfg,
		deps:   deps,
		now:    now,
		logger: logging.OrNoOp(deps.Logger),
	}
}

// NewDisabledService returns a Service that fails all operations with ErrServiceDisabled.
func NewDisabledService() Service {
	return disabledService{}
}

type service struct {
	cfg    Config
	deps   Dependencies
	now    func() time.Time
	logger interfaces.Logger
}

type disabledService struct{}

func (s *service) Build(ctx context.Context, opts BuildOptions) (*BuildResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.deps.Fs == nil {
		return nil, errFilesystemRequired
	}
	if s.deps.Parser == nil {
		return nil, errParserRequired
	}
	baseDir := s.baseDir()
	if baseDir == "" {
		return nil, errOutputDirRequired
	}

	start := time.Now()
	writer := newArtifactWriter(s.deps.Fs, opts.DryRun)
	result := &BuildResult{DryRun: opts.DryRun}
	var errorsSlice []error

	if s.cfg.CleanBuild {
		if err := s.clean(ctx, writer); err != nil {
			return result, err
		}
	}
	if err := writer.EnsureDir(ctx, baseDir); err != nil {
		return result, fmt.Errorf("generator: create %s: %w", baseDir, err)
	}

	buildCtx, err := s.loadContext(ctx, opts)
	if err != nil {
		return result, err
	}
	result.TemplateSource = buildCtx.Template.Source
	result.TemplateFallback = buildCtx.Template.Fallback
	result.Container = buildCtx.Template.Container
	if buildCtx.postTheme() != nil {
		result.Theme = buildCtx.Theme.Name
	}

	manifest := newBuildManifest()
	if s.cfg.Incremental {
		loaded, err := s.loadManifest()
		if err != nil {
			s.logger.Warn("generator.manifest.unreadable", "error", err)
		} else {
			manifest = loaded
		}
	}

	pageKeys := map[string]struct{}{}
	for _, skipped := range buildCtx.Posts.Skipped {
		pageKeys[manifestKey(skipped.Filename)] = struct{}{}
		result.PostsFailed++
		result.Diagnostics = append(result.Diagnostics, RenderDiagnostic{
			Source: skipped.Filename,
			Stage:  "load",
			Err:    skipped.Err,
		})
	}

	published := buildCtx.Posts.Published()
	drafts := buildCtx.Posts.Drafts()
	result.Drafts = len(drafts)
	for _, draft := range drafts {
		result.Diagnostics = append(result.Diagnostics, RenderDiagnostic{
			Source:  draft.Filename,
			Slug:    draft.Slug,
			Stage:   "render",
			Skipped: true,
			Draft:   true,
		})
	}

	rendered := make([]RenderedPage, 0, len(published))
	for _, post := range published {
		if err := ctx.Err(); err != nil {
			result.Duration = time.Since(start)
			return result, err
		}
		outcome := s.renderPost(ctx, buildCtx, post, manifest, baseDir)
		result.Diagnostics = append(result.Diagnostics, outcome.diagnostic)
		pageKeys[manifestKey(post.Filename)] = struct{}{}
		switch {
		case outcome.err != nil:
			result.PostsFailed++
		case outcome.skipped:
			result.PostsSkipped++
		default:
			result.PostsBuilt++
			rendered = append(rendered, outcome.page)
		}
	}

	if err := s.persistPages(ctx, writer, rendered); err != nil {
		errorsSlice = append(errorsSlice, err)
	}
	if s.cfg.Incremental {
		if err := s.removeDraftPages(ctx, writer, drafts, manifest, baseDir); err != nil {
			errorsSlice = append(errorsSlice, err)
		}
		if err := s.removeOrphanPages(ctx, writer, manifest, pageKeys); err != nil {
			errorsSlice = append(errorsSlice, err)
		}
	}

	list, err := posts.RenderList(published)
	if err != nil {
		errorsSlice = append(errorsSlice, fmt.Errorf("generator: render list: %w", err))
	} else {
		if err := s.writeArticleList(ctx, writer, list, baseDir); err != nil {
			errorsSlice = append(errorsSlice, err)
		}
		report, err := s.writeIndex(ctx, writer, buildCtx, list, published, baseDir)
		result.Index = report
		if err != nil {
			errorsSlice = append(errorsSlice, err)
		}
	}

	if s.cfg.GenerateFeed && !opts.DryRun {
		items, err := s.writeFeed(ctx, writer, baseDir)
		if err != nil {
			errorsSlice = append(errorsSlice, err)
		}
		result.FeedItems = items
	}

	if s.cfg.CopyAssets && !opts.DryRun {
		summary, err := s.copyAssets(ctx, writer, manifest, baseDir, buildCtx.GeneratedAt)
		if err != nil {
			errorsSlice = append(errorsSlice, fmt.Errorf("generator: copy assets: %w", err))
		}
		result.AssetsBuilt = summary.Built
		result.AssetsSkipped = summary.Skipped
	}

	if s.cfg.GenerateSitemap {
		if err := s.writeSitemap(ctx, writer, buildCtx, published, baseDir); err != nil {
			errorsSlice = append(errorsSlice, err)
		}
	}
	if s.cfg.GenerateRobots {
		if err := s.writeRobots(ctx, writer, baseDir); err != nil {
			errorsSlice = append(errorsSlice, err)
		}
	}

	if len(errorsSlice) == 0 {
		manifest.GeneratedAt = buildCtx.GeneratedAt
		manifest.Fragments = buildCtx.Fingerprint
		for _, page := range rendered {
			manifest.setPage(manifestPage{
				Source:     page.Source,
				Slug:       page.Slug,
				Output:     page.Output,
				Hash:       page.Hash,
				Checksum:   page.Checksum,
				RenderedAt: buildCtx.GeneratedAt,
			})
		}
		manifest.prunePages(pageKeys)
		if err := s.persistManifest(ctx, writer, manifest); err != nil {
			errorsSlice = append(errorsSlice, err)
		}
	}

	result.Rendered = rendered
	result.Duration = time.Since(start)
	s.logger.WithContext(ctx).Info("generator.build.completed",
		"posts_built", result.PostsBuilt,
		"posts_skipped", result.PostsSkipped,
		"posts_failed", result.PostsFailed,
		"drafts", result.Drafts,
		"template_fallback", result.TemplateFallback,
		"theme", result.Theme,
		"index_strategy", result.Index.Strategy,
		"feed_items", result.FeedItems,
		"dry_run", opts.DryRun,
		"duration", result.Duration,
	)
	if len(errorsSlice) > 0 {
		result.Errors = append(result.Errors, errorsSlice...)
		return result, errors.Join(errorsSlice...)
	}
	return result, nil
}

// BuildFeed regenerates the feed from pages already present in the output
// directory.
func (s *service) BuildFeed(ctx context.Context) (int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if s.deps.Fs == nil {
		return 0, errFilesystemRequired
	}
	baseDir := s.baseDir()
	if baseDir == "" {
		return 0, errOutputDirRequired
	}
	return s.writeFeed(ctx, newArtifactWriter(s.deps.Fs, false), baseDir)
}

// Clean removes the output directory.
func (s *service) Clean(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if s.deps.Fs == nil {
		return errFilesystemRequired
	}
	return s.clean(ctx, newArtifactWriter(s.deps.Fs, false))
}

func (s *service) clean(ctx context.Context, writer artifactWriter) error {
	baseDir := s.baseDir()
	if baseDir == "" {
		return errOutputDirRequired
	}
	if postsDir := path.Clean(strings.TrimSpace(s.cfg.PostsDir)); postsDir == baseDir || strings.HasPrefix(postsDir, baseDir+"/") {
		return fmt.Errorf("%w: %s contains the posts directory", errUnsafeOutputDir, baseDir)
	}
	if err := writer.RemoveAll(ctx, baseDir); err != nil {
		return fmt.Errorf("generator: clean %s: %w", baseDir, err)
	}
	s.logger.Debug("generator.clean", "dir", baseDir)
	return nil
}

func (s *service) baseDir() string {
	dir := strings.TrimSpace(s.cfg.OutputDir)
	if dir == "" {
		return ""
	}
	return path.Clean(dir)
}

func (s *service) loadManifest() (*buildManifest, error) {
	data, err := afero.ReadFile(s.deps.Fs, s.manifestTargetPath())
	if errors.Is(err, os.ErrNotExist) {
		return newBuildManifest(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("generator: read manifest: %w", err)
	}
	return parseManifest(data)
}

func (s *service) manifestTargetPath() string {
	return joinOutputPath(s.baseDir(), manifestFileName)
}

func (s *service) persistManifest(ctx context.Context, writer artifactWriter, manifest *buildManifest) error {
	if manifest == nil {
		return nil
	}
	data, err := manifest.marshal()
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	target := s.manifestTargetPath()
	metadata := map[string]string{
		"version": strconv.Itoa(manifest.Version),
	}
	if !manifest.GeneratedAt.IsZero() {
		metadata["generated_at"] = manifest.GeneratedAt.UTC().Format(time.RFC3339)
	}
	req := writeFileRequest{
		Path:        target,
		Content:     bytes.NewReader(data),
		Size:        int64(len(data)),
		Category:    categoryManifest,
		ContentType: "application/json",
		Checksum:    computeHash(data),
		Metadata:    metadata,
	}
	return writer.WriteFile(ctx, req)
}

func (s *service) writeSitemap(ctx context.Context, writer artifactWriter, buildCtx *BuildContext, published []*posts.Post, baseDir string) error {
	pages := make([]RenderedPage, 0, len(published))
	for _, post := range published {
		pages = append(pages, RenderedPage{
			Route: siteRoute(path.Join(postsDirName, post.URL)),
			Date:  post.Time,
		})
	}
	content := buildSitemap(s.cfg.Site.URL, pages, buildCtx.GeneratedAt)
	req := writeFileRequest{
		Path:        joinOutputPath(baseDir, sitemapName),
		Content:     strings.NewReader(content),
		Size:        int64(len(content)),
		Category:    categorySitemap,
		ContentType: "application/xml",
		Checksum:    computeHashFromString(content),
		Metadata: map[string]string{
			"generated_at": buildCtx.GeneratedAt.UTC().Format(time.RFC3339),
		},
	}
	return writer.WriteFile(ctx, req)
}

func (s *service) writeRobots(ctx context.Context, writer artifactWriter, baseDir string) error {
	content := buildRobots(s.cfg.Site.URL, s.cfg.GenerateSitemap)
	req := writeFileRequest{
		Path:        joinOutputPath(baseDir, robotsName),
		Content:     strings.NewReader(content),
		Size:        int64(len(content)),
		Category:    categoryRobots,
		ContentType: "text/plain; charset=utf-8",
		Checksum:    computeHashFromString(content),
		Metadata: map[string]string{
			"generated_at": s.now().UTC().Format(time.RFC3339),
		},
	}
	return writer.WriteFile(ctx, req)
}

func ensureDir(ctx context.Context, writer artifactWriter, cache map[string]struct{}, dir string) error {
	dir = strings.Trim(dir, " ")
	if dir == "" || dir == "." {
		return nil
	}
	if cache != nil {
		if _, ok := cache[dir]; ok {
			return nil
		}
		cache[dir] = struct{}{}
	}
	return writer.EnsureDir(ctx, dir)
}

func computeHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func computeHashFromString(content string) string {
	return computeHash([]byte(content))
}

func (disabledService) Build(context.Context, BuildOptions) (*BuildResult, error) {
	return nil, ErrServiceDisabled
}

func (disabledService) BuildFeed(context.Context) (int, error) {
	return 0, ErrServiceDisabled
}

func (disabledService) Clean(context.Context) error {
	return ErrServiceDisabled
}
