package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

var (
	ErrPostsDirRequired         = errors.New("sitesync config: posts directory is required")
	ErrOutputDirRequired        = errors.New("sitesync config: output directory is required")
	ErrBuildModeConflict        = errors.New("sitesync config: clean and incremental builds are mutually exclusive")
	ErrSiteInvalid              = errors.New("sitesync config: site settings are invalid")
	ErrTimezoneInvalid          = errors.New("sitesync config: timezone is invalid")
	ErrThemeUnknown             = errors.New("sitesync config: theme is invalid")
	ErrGeneratorSettingsInvalid = errors.New("sitesync config: generator settings are invalid")
	ErrNoContainerPolicyUnknown = errors.New("sitesync config: template no_container policy is invalid")
	ErrFeedSettingsInvalid      = errors.New("sitesync config: feed settings are invalid")
	ErrServeAddrRequired        = errors.New("sitesync config: serve address is required")
	ErrLoggingProviderUnknown   = errors.New("sitesync config: logging provider is invalid")
	ErrLoggingLevelInvalid      = errors.New("sitesync config: logging level is invalid")
	ErrLoggingFormatInvalid     = errors.New("sitesync config: logging format is invalid")
)

const (
	NoContainerDefault = "default"
	NoContainerBody    = "body"
)

// Config aggregates every setting of a site build. Site keys live at the top
// level of the config file; everything else is grouped per stage.
type Config struct {
	Site      SiteConfig      `mapstructure:",squash"`
	Paths     PathsConfig     `mapstructure:"paths"`
	Markdown  MarkdownConfig  `mapstructure:"markdown"`
	Generator GeneratorConfig `mapstructure:"generator"`
	Template  TemplateConfig  `mapstructure:"template"`
	Splice    SpliceConfig    `mapstructure:"splice"`
	Feed      FeedConfig      `mapstructure:"feed"`
	Watch     WatchConfig     `mapstructure:"watch"`
	Serve     ServeConfig     `mapstructure:"serve"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// SiteConfig describes the published site.
type SiteConfig struct {
	Title        string `mapstructure:"title"`
	Author       string `mapstructure:"author"`
	Description  string `mapstructure:"description"`
	Theme        string `mapstructure:"theme"`
	ThemeVariant string `mapstructure:"theme_variant"` // variant declared in the theme manifest
	URL          string `mapstructure:"url"`
	Language     string `mapstructure:"language"`
	Timezone     string `mapstructure:"timezone"`
}

// PathsConfig locates inputs and outputs.
type PathsConfig struct {
	PostsDir  string `mapstructure:"posts_dir"`
	OutputDir string `mapstructure:"output_dir"`
	// AssetsDir is copied verbatim into <output>/assets.
	AssetsDir string `mapstructure:"assets_dir"`
	// ResourcesDir receives the reference site's css/js/image folders.
	// Empty means the output directory.
	ResourcesDir        string   `mapstructure:"resources_dir"`
	ReferenceCandidates []string `mapstructure:"reference_candidates"`
	// IndexSource is the home page to splice. Empty means the reference
	// template that was located.
	IndexSource string `mapstructure:"index_source"`
	// ThemesDir holds one directory per theme with post.html and
	// index.html, used when no reference page exists.
	ThemesDir string `mapstructure:"themes_dir"`
}

// MarkdownConfig mirrors interfaces.ParseOptions.
type MarkdownConfig struct {
	Extensions     []string `mapstructure:"extensions"`
	HardWraps      bool     `mapstructure:"hard_wraps"`
	SafeMode       bool     `mapstructure:"safe_mode"`
	HighlightStyle string   `mapstructure:"highlight_style"`
}

// GeneratorConfig toggles build behaviour.
type GeneratorConfig struct {
	CleanBuild      bool `mapstructure:"clean_build"`
	Incremental     bool `mapstructure:"incremental"`
	CopyAssets      bool `mapstructure:"copy_assets"`
	GenerateFeed    bool `mapstructure:"generate_feed"`
	GenerateSitemap bool `mapstructure:"generate_sitemap"`
	GenerateRobots  bool `mapstructure:"generate_robots"`
	Workers         int  `mapstructure:"workers"`
	PreviewLength   int  `mapstructure:"preview_length"`
}

// TemplateConfig controls extraction and page assembly.
type TemplateConfig struct {
	NoContainer string `mapstructure:"no_container"`
	DateLabel   string `mapstructure:"date_label"`
	HomeText    string `mapstructure:"home_text"`
}

// SpliceConfig toggles the idempotent injections on the home page.
type SpliceConfig struct {
	Navigation      bool     `mapstructure:"navigation"`
	TagCloud        bool     `mapstructure:"tag_cloud"`
	FilterScript    bool     `mapstructure:"filter_script"`
	PlaceholderTags []string `mapstructure:"placeholder_tags"`
}

// FeedConfig controls RSS output.
type FeedConfig struct {
	File       string   `mapstructure:"file"`
	MaxItems   int      `mapstructure:"max_items"`
	DateLabels []string `mapstructure:"date_labels"`
}

// WatchConfig controls the rebuild loop of watch and serve.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
	// Retries bounds how often a rebuild that lost a post mid-save is retried.
	Retries int `mapstructure:"retries"`
}

// ServeConfig controls the preview server.
type ServeConfig struct {
	Addr string `mapstructure:"addr"`
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string   `mapstructure:"provider"`
	Level     string   `mapstructure:"level"`
	Format    string   `mapstructure:"format"`
	AddSource bool     `mapstructure:"add_source"`
	Focus     []string `mapstructure:"focus"`
}

// DefaultConfig returns the settings used when no config file is present.
func DefaultConfig() Config {
	return Config{
		Site: SiteConfig{
			Title:       "My Blog",
			Author:      "Author",
			Description: "A Cato Blog",
			Theme:       "default",
			URL:         "https://example.com",
			Language:    "zh-cn",
			Timezone:    "Local",
		},
		Paths: PathsConfig{
			PostsDir:  "source/_posts",
			OutputDir: "public",
			AssetsDir: "source/assets",
			ThemesDir: "source/_templates/themes",
			ReferenceCandidates: []string{
				"master-website/index.html",
				"../master/index.html",
			},
		},
		Markdown: MarkdownConfig{
			Extensions: []string{"table", "strikethrough", "tasklist"},
		},
		Generator: GeneratorConfig{
			CleanBuild:    true,
			CopyAssets:    true,
			GenerateFeed:  true,
			Workers:       1,
			PreviewLength: 150,
		},
		Template: TemplateConfig{
			NoContainer: NoContainerDefault,
			DateLabel:   "Published:",
			HomeText:    "Back to home",
		},
		Splice: SpliceConfig{
			Navigation:      true,
			TagCloud:        true,
			FilterScript:    true,
			PlaceholderTags: []string{"general"},
		},
		Feed: FeedConfig{
			File:       "rss.xml",
			DateLabels: []string{"Published:", "发布日期:", "Date:"},
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
			Retries:  2,
		},
		Serve: ServeConfig{
			Addr: "127.0.0.1:4000",
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
	}
}

// Validate performs consistency checks and returns the first failure.
func (cfg Config) Validate() error {
	if strings.TrimSpace(cfg.Paths.PostsDir) == "" {
		return ErrPostsDirRequired
	}
	if strings.TrimSpace(cfg.Paths.OutputDir) == "" {
		return ErrOutputDirRequired
	}
	if cfg.Generator.CleanBuild && cfg.Generator.Incremental {
		return ErrBuildModeConflict
	}

	site := cfg.Site
	if err := validation.ValidateStruct(&site,
		validation.Field(&site.Title, validation.Required),
		validation.Field(&site.URL, validation.Required, is.URL),
	); err != nil {
		return fmt.Errorf("%w: %v", ErrSiteInvalid, err)
	}
	if _, err := cfg.Site.Location(); err != nil {
		return fmt.Errorf("%w: %s", ErrTimezoneInvalid, cfg.Site.Timezone)
	}
	if theme := normalize(cfg.Site.Theme); theme != "" && !isSupportedTheme(theme) {
		return fmt.Errorf("%w: %s", ErrThemeUnknown, cfg.Site.Theme)
	}

	gen := cfg.Generator
	if err := validation.ValidateStruct(&gen,
		validation.Field(&gen.Workers, validation.Min(0)),
		validation.Field(&gen.PreviewLength, validation.Min(1)),
	); err != nil {
		return fmt.Errorf("%w: %v", ErrGeneratorSettingsInvalid, err)
	}

	if strings.TrimSpace(cfg.Serve.Addr) == "" {
		return ErrServeAddrRequired
	}

	switch normalize(cfg.Template.NoContainer) {
	case "", NoContainerDefault, NoContainerBody:
	default:
		return fmt.Errorf("%w: %s", ErrNoContainerPolicyUnknown, cfg.Template.NoContainer)
	}

	feed := cfg.Feed
	if err := validation.ValidateStruct(&feed,
		validation.Field(&feed.File, validation.Required),
		validation.Field(&feed.MaxItems, validation.Min(0)),
	); err != nil {
		return fmt.Errorf("%w: %v", ErrFeedSettingsInvalid, err)
	}

	provider := normalize(cfg.Logging.Provider)
	if provider != "" && !isSupportedProvider(provider) {
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
	}
	if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if provider == "gologger" {
		if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
			return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
		}
	}
	return nil
}

// Location resolves the configured timezone. Empty and "Local" map to the
// host zone.
func (s SiteConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(s.Timezone)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}

// ResolvedResourcesDir returns the directory that receives copied reference
// assets.
func (p PathsConfig) ResolvedResourcesDir() string {
	if dir := strings.TrimSpace(p.ResourcesDir); dir != "" {
		return dir
	}
	return p.OutputDir
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func isSupportedTheme(theme string) bool {
	switch theme {
	case "default", "plain":
		return true
	default:
		return false
	}
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch normalize(level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch normalize(format) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
