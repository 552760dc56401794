package di

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/afero"

	staticcmd "github.com/goliatone/go-sitesync/internal/commands/static"
	"github.com/goliatone/go-sitesync/internal/generator"
	"github.com/goliatone/go-sitesync/internal/logging"
	"github.com/goliatone/go-sitesync/internal/logging/console"
	"github.com/goliatone/go-sitesync/internal/logging/gologger"
	"github.com/goliatone/go-sitesync/internal/markdown"
	"github.com/goliatone/go-sitesync/internal/posts"
	"github.com/goliatone/go-sitesync/internal/runtimeconfig"
	"github.com/goliatone/go-sitesync/internal/splice"
	"github.com/goliatone/go-sitesync/internal/template"
	"github.com/goliatone/go-sitesync/internal/theme"
	"github.com/goliatone/go-sitesync/pkg/interfaces"
)

// Container wires the pipeline stages from a runtime configuration.
type Container struct {
	Config runtimeconfig.Config

	fs             afero.Fs
	logWriter      io.Writer
	loggerProvider interfaces.LoggerProvider
	parser         interfaces.MarkdownParser
	now            func() time.Time
	location       *time.Location

	generator generator.Service
	splicer   *splice.Splicer
	extractor *template.Extractor
	commands  *staticcmd.HandlerSet
}

// Option mutates the container before services are built.
type Option func(*Container)

// WithFilesystem replaces the OS filesystem, typically with afero.NewMemMapFs in tests.
func WithFilesystem(fs afero.Fs) Option {
	return func(c *Container) {
		if fs != nil {
			c.fs = fs
		}
	}
}

// WithLoggerProvider overrides the provider selected by Config.Logging.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithLogWriter redirects the console provider.
func WithLogWriter(w io.Writer) Option {
	return func(c *Container) {
		c.logWriter = w
	}
}

// WithParser replaces the goldmark parser.
func WithParser(parser interfaces.MarkdownParser) Option {
	return func(c *Container) {
		if parser != nil {
			c.parser = parser
		}
	}
}

// WithClock fixes the build clock.
func WithClock(now func() time.Time) Option {
	return func(c *Container) {
		if now != nil {
			c.now = now
		}
	}
}

// NewContainer validates cfg and builds every service.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	location, err := cfg.Site.Location()
	if err != nil {
		return nil, err
	}

	c := &Container{
		Config:   cfg,
		fs:       afero.NewOsFs(),
		now:      time.Now,
		location: location,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if err := c.configureLoggerProvider(); err != nil {
		return nil, err
	}
	if c.parser == nil {
		c.parser = markdown.NewGoldmarkParser(interfaces.ParseOptions{
			Extensions:     cfg.Markdown.Extensions,
			HardWraps:      cfg.Markdown.HardWraps,
			SafeMode:       cfg.Markdown.SafeMode,
			HighlightStyle: cfg.Markdown.HighlightStyle,
		})
	}

	c.generator = generator.NewService(c.generatorConfig(), generator.Dependencies{
		Fs:     c.fs,
		Parser: c.parser,
		Normalizer: posts.NewNormalizer(
			posts.WithClock(c.now),
			posts.WithLocation(location),
		),
		Logger: logging.GeneratorLogger(c.loggerProvider),
		Now:    c.now,
	})
	c.splicer = splice.NewSplicer(c.spliceConfig(), logging.SpliceLogger(c.loggerProvider))
	c.extractor = template.NewExtractor(c.fs, c.templateConfig(), logging.TemplateLogger(c.loggerProvider))

	set, err := staticcmd.RegisterStaticCommands(nil, staticcmd.Dependencies{
		Service:   c.generator,
		Fs:        c.fs,
		Splicer:   c.splicer,
		Extractor: c.extractor,
	}, c.loggerProvider, staticcmd.FeatureGates{GeneratorEnabled: func() bool { return true }})
	if err != nil {
		return nil, err
	}
	c.commands = set
	return c, nil
}

func (c *Container) configureLoggerProvider() error {
	if c.loggerProvider != nil {
		return nil
	}
	logCfg := c.Config.Logging
	switch strings.ToLower(strings.TrimSpace(logCfg.Provider)) {
	case "gologger":
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     logCfg.Level,
			Format:    logCfg.Format,
			AddSource: logCfg.AddSource,
			Focus:     logCfg.Focus,
		})
		if err != nil {
			return fmt.Errorf("di: configure go-logger: %w", err)
		}
		c.loggerProvider = provider
	default:
		opts := console.Options{Writer: c.logWriter}
		if level, ok := console.ParseLevel(logCfg.Level); ok {
			opts.MinLevel = &level
		}
		c.loggerProvider = console.NewProvider(opts)
	}
	return nil
}

func (c *Container) generatorConfig() generator.Config {
	cfg := c.Config
	return generator.Config{
		PostsDir:        cfg.Paths.PostsDir,
		OutputDir:       cfg.Paths.OutputDir,
		AssetsDir:       cfg.Paths.AssetsDir,
		IndexSource:     cfg.Paths.IndexSource,
		CleanBuild:      cfg.Generator.CleanBuild,
		Incremental:     cfg.Generator.Incremental,
		CopyAssets:      cfg.Generator.CopyAssets,
		GenerateFeed:    cfg.Generator.GenerateFeed,
		GenerateSitemap: cfg.Generator.GenerateSitemap,
		GenerateRobots:  cfg.Generator.GenerateRobots,
		Workers:         cfg.Generator.Workers,
		PreviewLength:   cfg.Generator.PreviewLength,
		Site: generator.SiteConfig{
			Title:       cfg.Site.Title,
			Author:      cfg.Site.Author,
			Description: cfg.Site.Description,
			URL:         cfg.Site.URL,
			Language:    cfg.Site.Language,
			Theme:       cfg.Site.Theme,
			Location:    c.location,
		},
		Template: c.templateConfig(),
		Theme: theme.Config{
			Dir:     cfg.Paths.ThemesDir,
			Name:    cfg.Site.Theme,
			Variant: cfg.Site.ThemeVariant,
		},
		DateLabel: cfg.Template.DateLabel,
		HomeText:  cfg.Template.HomeText,
		Splice:    c.spliceConfig(),
		Feed: generator.FeedConfig{
			File:       cfg.Feed.File,
			MaxItems:   cfg.Feed.MaxItems,
			DateLabels: cfg.Feed.DateLabels,
		},
	}
}

func (c *Container) templateConfig() template.Config {
	cfg := c.Config
	return template.Config{
		Candidates:   cfg.Paths.ReferenceCandidates,
		ResourcesDir: cfg.Paths.ResolvedResourcesDir(),
		NoContainer:  cfg.Template.NoContainer,
		Site: template.Site{
			Title:       cfg.Site.Title,
			Author:      cfg.Site.Author,
			Description: cfg.Site.Description,
			Language:    cfg.Site.Language,
			Theme:       cfg.Site.Theme,
		},
	}
}

func (c *Container) spliceConfig() splice.Config {
	cfg := c.Config
	return splice.Config{
		Navigation:      cfg.Splice.Navigation,
		TagCloud:        cfg.Splice.TagCloud,
		FilterScript:    cfg.Splice.FilterScript,
		PlaceholderTags: cfg.Splice.PlaceholderTags,
		FeedFile:        cfg.Feed.File,
	}
}

// Filesystem returns the filesystem every stage reads and writes.
func (c *Container) Filesystem() afero.Fs {
	return c.fs
}

// LoggerProvider returns the configured provider.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

// Logger returns a module-scoped logger.
func (c *Container) Logger(module string) interfaces.Logger {
	return logging.ModuleLogger(c.loggerProvider, module)
}

// Parser returns the Markdown parser.
func (c *Container) Parser() interfaces.MarkdownParser {
	return c.parser
}

// Generator returns the site generator.
func (c *Container) Generator() generator.Service {
	return c.generator
}

// Splicer returns the home page splicer.
func (c *Container) Splicer() *splice.Splicer {
	return c.splicer
}

// Extractor returns the template extractor.
func (c *Container) Extractor() *template.Extractor {
	return c.extractor
}

// Commands returns the command handlers wired to the services above.
func (c *Container) Commands() *staticcmd.HandlerSet {
	return c.commands
}
