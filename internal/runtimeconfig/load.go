package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. SITESYNC_PATHS_OUTPUT_DIR.
const EnvPrefix = "SITESYNC"

// LoadOptions tells Load where to look for the config file.
type LoadOptions struct {
	// File is an explicit config path. A missing explicit file is an error.
	File string
	// SearchPaths are scanned for config.yml/config.yaml when File is empty.
	SearchPaths []string
}

// Load reads configuration from file and environment on top of
// DefaultConfig and validates the result. It returns the config file used,
// or an empty string when only defaults and environment applied.
func Load(opts LoadOptions) (Config, string, error) {
	v := viper.New()
	registerDefaults(v, DefaultConfig())

	if opts.File != "" {
		v.SetConfigFile(opts.File)
	} else {
		paths := opts.SearchPaths
		if len(paths) == 0 {
			paths = []string{"."}
		}
		for _, p := range paths {
			v.AddConfigPath(p)
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	used := ""
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.File != "" || !errors.As(err, &notFound) {
			return Config{}, "", fmt.Errorf("sitesync config: read %s: %w", opts.File, err)
		}
	} else {
		used = v.ConfigFileUsed()
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, used, fmt.Errorf("sitesync config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, used, err
	}
	return cfg, used, nil
}

// registerDefaults declares every key so AutomaticEnv can override keys that
// never appear in the file.
func registerDefaults(v *viper.Viper, cfg Config) {
	defaults := map[string]any{
		"title":         cfg.Site.Title,
		"author":        cfg.Site.Author,
		"description":   cfg.Site.Description,
		"theme":         cfg.Site.Theme,
		"theme_variant": cfg.Site.ThemeVariant,
		"url":           cfg.Site.URL,
		"language":      cfg.Site.Language,
		"timezone":      cfg.Site.Timezone,

		"paths.posts_dir":            cfg.Paths.PostsDir,
		"paths.output_dir":           cfg.Paths.OutputDir,
		"paths.assets_dir":           cfg.Paths.AssetsDir,
		"paths.resources_dir":        cfg.Paths.ResourcesDir,
		"paths.reference_candidates": cfg.Paths.ReferenceCandidates,
		"paths.index_source":         cfg.Paths.IndexSource,
		"paths.themes_dir":           cfg.Paths.ThemesDir,

		"markdown.extensions":      cfg.Markdown.Extensions,
		"markdown.hard_wraps":      cfg.Markdown.HardWraps,
		"markdown.safe_mode":       cfg.Markdown.SafeMode,
		"markdown.highlight_style": cfg.Markdown.HighlightStyle,

		"generator.clean_build":      cfg.Generator.CleanBuild,
		"generator.incremental":      cfg.Generator.Incremental,
		"generator.copy_assets":      cfg.Generator.CopyAssets,
		"generator.generate_feed":    cfg.Generator.GenerateFeed,
		"generator.generate_sitemap": cfg.Generator.GenerateSitemap,
		"generator.generate_robots":  cfg.Generator.GenerateRobots,
		"generator.workers":          cfg.Generator.Workers,
		"generator.preview_length":   cfg.Generator.PreviewLength,

		"template.no_container": cfg.Template.NoContainer,
		"template.date_label":   cfg.Template.DateLabel,
		"template.home_text":    cfg.Template.HomeText,

		"splice.navigation":       cfg.Splice.Navigation,
		"splice.tag_cloud":        cfg.Splice.TagCloud,
		"splice.filter_script":    cfg.Splice.FilterScript,
		"splice.placeholder_tags": cfg.Splice.PlaceholderTags,

		"feed.file":        cfg.Feed.File,
		"feed.max_items":   cfg.Feed.MaxItems,
		"feed.date_labels": cfg.Feed.DateLabels,

		"watch.debounce": cfg.Watch.Debounce,
		"watch.retries":  cfg.Watch.Retries,
		"serve.addr":     cfg.Serve.Addr,

		"logging.provider":   cfg.Logging.Provider,
		"logging.level":      cfg.Logging.Level,
		"logging.format":     cfg.Logging.Format,
		"logging.add_source": cfg.Logging.AddSource,
		"logging.focus":      cfg.Logging.Focus,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}
