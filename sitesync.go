package sitesync

import (
	"context"
	"errors"

	staticcmd "github.com/goliatone/go-sitesync/internal/commands/static"
	"github.com/goliatone/go-sitesync/internal/di"
	"github.com/goliatone/go-sitesync/internal/generator"
	"github.com/goliatone/go-sitesync/internal/splice"
	"github.com/goliatone/go-sitesync/internal/template"
	"github.com/goliatone/go-sitesync/pkg/interfaces"
)

// GeneratorService exports the site generator contract.
type GeneratorService = generator.Service

// BuildOptions exports the per-build overrides.
type BuildOptions = generator.BuildOptions

// BuildResult exports the build summary.
type BuildResult = generator.BuildResult

// SpliceResult exports the outcome of a home page splice.
type SpliceResult = splice.Result

// TemplateResult exports the outcome of a template extraction.
type TemplateResult = template.Result

// Option customises the container built by New.
type Option = di.Option

var (
	WithFilesystem     = di.WithFilesystem
	WithLoggerProvider = di.WithLoggerProvider
	WithLogWriter      = di.WithLogWriter
	WithParser         = di.WithParser
	WithClock          = di.WithClock
)

// ErrGeneratorDisabled is returned by operations on a module without a generator.
var ErrGeneratorDisabled = generator.ErrServiceDisabled

// Module represents the top level site runtime façade.
type Module struct {
	container *di.Container
}

// New constructs a module using the provided configuration and optional DI overrides.
func New(cfg Config, opts ...Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Generator returns the configured site generator.
func (m *Module) Generator() GeneratorService {
	return m.container.Generator()
}

// Parser returns the Markdown parser shared by every stage.
func (m *Module) Parser() interfaces.MarkdownParser {
	return m.container.Parser()
}

// Build renders the whole site.
func (m *Module) Build(ctx context.Context, opts BuildOptions) (*BuildResult, error) {
	return m.Generator().Build(ctx, opts)
}

// BuildFeed regenerates the RSS feed from the pages already in the output directory.
func (m *Module) BuildFeed(ctx context.Context) (int, error) {
	return m.Generator().BuildFeed(ctx)
}

// Clean removes the output directory.
func (m *Module) Clean(ctx context.Context) error {
	return m.Generator().Clean(ctx)
}

// SpliceIndex writes a copy of the home page at indexPath whose post list is
// replaced by the fragment at listPath. An empty output writes index.html in
// the configured output directory; the input page is never rewritten.
func (m *Module) SpliceIndex(ctx context.Context, indexPath, listPath, output string) (SpliceResult, error) {
	handlers := m.container.Commands()
	if handlers == nil || handlers.Splice == nil {
		return SpliceResult{}, errors.New("sitesync: splice handler not configured")
	}
	var result SpliceResult
	msg := staticcmd.SpliceIndexCommand{
		IndexPath:  indexPath,
		ListPath:   listPath,
		OutputPath: output,
		Callback:   func(r splice.Result) { result = r },
	}
	err := handlers.Splice.Execute(ctx, msg.WithDefaultOutput(m.container.Config.Paths.OutputDir))
	return result, err
}

// ExtractTemplate derives page fragments from source, or from the configured
// reference candidates when source is empty.
func (m *Module) ExtractTemplate(ctx context.Context, source string) (TemplateResult, error) {
	handlers := m.container.Commands()
	if handlers == nil || handlers.Extract == nil {
		return TemplateResult{}, errors.New("sitesync: extract handler not configured")
	}
	var result TemplateResult
	err := handlers.Extract.Execute(ctx, staticcmd.ExtractTemplateCommand{
		Source:   source,
		Callback: func(r template.Result) { result = r },
	})
	return result, err
}
