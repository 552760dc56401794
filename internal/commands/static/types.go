package staticcmd

import (
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-sitesync/internal/generator"
	"github.com/goliatone/go-sitesync/internal/splice"
	"github.com/goliatone/go-sitesync/internal/template"
)

const (
	buildSiteMessageType       = "sitesync.static.build"
	diffSiteMessageType        = "sitesync.static.diff"
	cleanSiteMessageType       = "sitesync.static.clean"
	buildFeedMessageType       = "sitesync.static.feed"
	spliceIndexMessageType     = "sitesync.static.splice"
	extractTemplateMessageType = "sitesync.static.extract"
)

// ResultCallback receives build results produced by generator operations. The callback is optional
// and is invoked synchronously from the handler when a BuildResult is available.
type ResultCallback func(ResultEnvelope)

// ResultEnvelope captures the outcome of a static command execution that generated a BuildResult.
type ResultEnvelope struct {
	Result   *generator.BuildResult
	Metadata map[string]any
}

// BuildSiteCommand executes a full generator build.
type BuildSiteCommand struct {
	DryRun         bool           `json:"dry_run,omitempty"`
	Reason         string         `json:"reason,omitempty"`
	ResultCallback ResultCallback `json:"-"`
}

// Type implements command.Message.
func (BuildSiteCommand) Type() string { return buildSiteMessageType }

// Validate satisfies command.Message; there are no payload constraints.
func (BuildSiteCommand) Validate() error { return nil }

// DiffSiteCommand performs a dry-run build to report what would be written.
type DiffSiteCommand struct {
	ResultCallback ResultCallback `json:"-"`
}

// Type implements command.Message.
func (DiffSiteCommand) Type() string { return diffSiteMessageType }

// Validate satisfies command.Message; there are no payload constraints.
func (DiffSiteCommand) Validate() error { return nil }

// CleanSiteCommand removes the output directory.
type CleanSiteCommand struct{}

// Type implements command.Message.
func (CleanSiteCommand) Type() string { return cleanSiteMessageType }

// Validate satisfies command.Message; there are no payload constraints.
func (CleanSiteCommand) Validate() error { return nil }

// BuildFeedCommand regenerates the RSS feed from already generated pages.
type BuildFeedCommand struct {
	ResultCallback ResultCallback `json:"-"`
}

// Type implements command.Message.
func (BuildFeedCommand) Type() string { return buildFeedMessageType }

// Validate satisfies command.Message; there are no payload constraints.
func (BuildFeedCommand) Validate() error { return nil }

// SpliceIndexCommand writes an article list into a copy of an existing home
// page. The input page is never rewritten in place.
type SpliceIndexCommand struct {
	IndexPath  string              `json:"index_path"`
	ListPath   string              `json:"list_path"`
	OutputPath string              `json:"output_path"`
	Callback   func(splice.Result) `json:"-"`
}

// Type implements command.Message.
func (SpliceIndexCommand) Type() string { return spliceIndexMessageType }

// Validate requires both input documents and an output distinct from the index.
func (m SpliceIndexCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.IndexPath, validation.By(notBlank("sitesync.static.splice.index_required"))),
		validation.Field(&m.ListPath, validation.By(notBlank("sitesync.static.splice.list_required"))),
		validation.Field(&m.OutputPath,
			validation.By(notBlank("sitesync.static.splice.output_required")),
			validation.By(notSamePath(m.IndexPath, "sitesync.static.splice.output_in_place")),
		),
	)
}

// Target returns the file the spliced page is written to.
func (m SpliceIndexCommand) Target() string {
	return strings.TrimSpace(m.OutputPath)
}

// WithDefaultOutput fills a blank OutputPath with index.html under dir.
func (m SpliceIndexCommand) WithDefaultOutput(dir string) SpliceIndexCommand {
	if strings.TrimSpace(m.OutputPath) == "" && strings.TrimSpace(dir) != "" {
		m.OutputPath = filepath.Join(dir, "index.html")
	}
	return m
}

// ExtractTemplateCommand derives page fragments from a reference home page.
type ExtractTemplateCommand struct {
	// Source overrides the configured reference candidates.
	Source   string                `json:"source,omitempty"`
	Callback func(template.Result) `json:"-"`
}

// Type implements command.Message.
func (ExtractTemplateCommand) Type() string { return extractTemplateMessageType }

// Validate satisfies command.Message; there are no payload constraints.
func (ExtractTemplateCommand) Validate() error { return nil }

// FeatureGates exposes runtime switches used to guard handler execution.
type FeatureGates struct {
	GeneratorEnabled func() bool
}

func (g FeatureGates) generatorEnabled() bool {
	if g.GeneratorEnabled == nil {
		return false
	}
	return g.GeneratorEnabled()
}

func notSamePath(other, code string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		s, other := strings.TrimSpace(s), strings.TrimSpace(other)
		if s == "" || other == "" {
			return nil
		}
		if filepath.Clean(s) == filepath.Clean(other) {
			return validation.NewError(code, "must differ from the index path")
		}
		return nil
	}
}

func notBlank(code string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if strings.TrimSpace(s) == "" {
			return validation.NewError(code, "cannot be blank")
		}
		return nil
	}
}
