package sitesync

import "github.com/goliatone/go-sitesync/internal/runtimeconfig"

var (
	ErrPostsDirRequired         = runtimeconfig.ErrPostsDirRequired
	ErrOutputDirRequired        = runtimeconfig.ErrOutputDirRequired
	ErrBuildModeConflict        = runtimeconfig.ErrBuildModeConflict
	ErrSiteInvalid              = runtimeconfig.ErrSiteInvalid
	ErrTimezoneInvalid          = runtimeconfig.ErrTimezoneInvalid
	ErrThemeUnknown             = runtimeconfig.ErrThemeUnknown
	ErrGeneratorSettingsInvalid = runtimeconfig.ErrGeneratorSettingsInvalid
	ErrNoContainerPolicyUnknown = runtimeconfig.ErrNoContainerPolicyUnknown
	ErrFeedSettingsInvalid      = runtimeconfig.ErrFeedSettingsInvalid
	ErrServeAddrRequired        = runtimeconfig.ErrServeAddrRequired
	ErrLoggingProviderUnknown   = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid      = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid     = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config          = runtimeconfig.Config
	SiteConfig      = runtimeconfig.SiteConfig
	PathsConfig     = runtimeconfig.PathsConfig
	MarkdownConfig  = runtimeconfig.MarkdownConfig
	GeneratorConfig = runtimeconfig.GeneratorConfig
	TemplateConfig  = runtimeconfig.TemplateConfig
	SpliceConfig    = runtimeconfig.SpliceConfig
	FeedConfig      = runtimeconfig.FeedConfig
	WatchConfig     = runtimeconfig.WatchConfig
	ServeConfig     = runtimeconfig.ServeConfig
	LoggingConfig   = runtimeconfig.LoggingConfig
	LoadOptions     = runtimeconfig.LoadOptions
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// LoadConfig reads config.yml (or opts.File) and SITESYNC_* environment
// overrides on top of DefaultConfig.
func LoadConfig(opts LoadOptions) (Config, error) {
	cfg, _, err := runtimeconfig.Load(opts)
	return cfg, err
}
