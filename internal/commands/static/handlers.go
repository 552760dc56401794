package staticcmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/goliatone/go-sitesync/internal/commands"
	"github.com/goliatone/go-sitesync/internal/generator"
	"github.com/goliatone/go-sitesync/internal/splice"
	"github.com/goliatone/go-sitesync/internal/template"
	"github.com/goliatone/go-sitesync/pkg/interfaces"
)

// BuildSiteHandler orchestrates generator builds using the shared command handler foundation.
type BuildSiteHandler struct {
	inner *commands.Handler[BuildSiteCommand]
}

// NewBuildSiteHandler constructs a handler wired to the provided generator service.
func NewBuildSiteHandler(service generator.Service, logger interfaces.Logger, gates FeatureGates, opts ...commands.HandlerOption[BuildSiteCommand]) *BuildSiteHandler {
	baseLogger := commands.EnsureLogger(logger)

	exec := func(ctx context.Context, msg BuildSiteCommand) error {
		if service == nil || !gates.generatorEnabled() {
			return generator.ErrServiceDisabled
		}
		result, err := service.Build(ctx, generator.BuildOptions{DryRun: msg.DryRun})
		invokeCallback(msg.ResultCallback, ResultEnvelope{
			Result: result,
			Metadata: map[string]any{
				"operation": "build",
				"reason":    msg.Reason,
			},
		})
		return err
	}

	handlerOpts := []commands.HandlerOption[BuildSiteCommand]{
		commands.WithLogger[BuildSiteCommand](baseLogger),
		commands.WithOperation[BuildSiteCommand]("static.build"),
		commands.WithMessageFields(func(msg BuildSiteCommand) map[string]any {
			fields := map[string]any{}
			if msg.DryRun {
				fields["dry_run"] = true
			}
			if reason := strings.TrimSpace(msg.Reason); reason != "" {
				fields["reason"] = reason
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[BuildSiteCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &BuildSiteHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[BuildSiteCommand].
func (h *BuildSiteHandler) Execute(ctx context.Context, msg BuildSiteCommand) error {
	return h.inner.Execute(ctx, msg)
}

// DiffSiteHandler performs dry-run builds for diffing workflows.
type DiffSiteHandler struct {
	inner *commands.Handler[DiffSiteCommand]
}

// NewDiffSiteHandler constructs a handler that executes generator dry-runs.
func NewDiffSiteHandler(service generator.Service, logger interfaces.Logger, gates FeatureGates, opts ...commands.HandlerOption[DiffSiteCommand]) *DiffSiteHandler {
	baseLogger := commands.EnsureLogger(logger)

	exec := func(ctx context.Context, msg DiffSiteCommand) error {
		if service == nil || !gates.generatorEnabled() {
			return generator.ErrServiceDisabled
		}
		result, err := service.Build(ctx, generator.BuildOptions{DryRun: true})
		invokeCallback(msg.ResultCallback, ResultEnvelope{
			Result: result,
			Metadata: map[string]any{
				"operation": "diff",
			},
		})
		return err
	}

	handlerOpts := []commands.HandlerOption[DiffSiteCommand]{
		commands.WithLogger[DiffSiteCommand](baseLogger),
		commands.WithOperation[DiffSiteCommand]("static.diff"),
		commands.WithTelemetry(commands.DefaultTelemetry[DiffSiteCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &DiffSiteHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[DiffSiteCommand].
func (h *DiffSiteHandler) Execute(ctx context.Context, msg DiffSiteCommand) error {
	return h.inner.Execute(ctx, msg)
}

// CleanSiteHandler clears generator artifacts.
type CleanSiteHandler struct {
	inner *commands.Handler[CleanSiteCommand]
}

// NewCleanSiteHandler constructs a handler that cleans generator output.
func NewCleanSiteHandler(service generator.Service, logger interfaces.Logger, gates FeatureGates, opts ...commands.HandlerOption[CleanSiteCommand]) *CleanSiteHandler {
	baseLogger := commands.EnsureLogger(logger)

	exec := func(ctx context.Context, msg CleanSiteCommand) error {
		if service == nil || !gates.generatorEnabled() {
			return generator.ErrServiceDisabled
		}
		return service.Clean(ctx)
	}

	handlerOpts := []commands.HandlerOption[CleanSiteCommand]{
		commands.WithLogger[CleanSiteCommand](baseLogger),
		commands.WithOperation[CleanSiteCommand]("static.clean"),
		commands.WithTelemetry(commands.DefaultTelemetry[CleanSiteCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &CleanSiteHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[CleanSiteCommand].
func (h *CleanSiteHandler) Execute(ctx context.Context, msg CleanSiteCommand) error {
	return h.inner.Execute(ctx, msg)
}

// BuildFeedHandler regenerates the RSS feed.
type BuildFeedHandler struct {
	inner *commands.Handler[BuildFeedCommand]
}

// NewBuildFeedHandler constructs a handler that rebuilds the feed from generated pages.
func NewBuildFeedHandler(service generator.Service, logger interfaces.Logger, gates FeatureGates, opts ...commands.HandlerOption[BuildFeedCommand]) *BuildFeedHandler {
	baseLogger := commands.EnsureLogger(logger)

	exec := func(ctx context.Context, msg BuildFeedCommand) error {
		if service == nil || !gates.generatorEnabled() {
			return generator.ErrServiceDisabled
		}
		items, err := service.BuildFeed(ctx)
		invokeCallback(msg.ResultCallback, ResultEnvelope{
			Result: &generator.BuildResult{FeedItems: items},
			Metadata: map[string]any{
				"operation": "feed",
			},
		})
		return err
	}

	handlerOpts := []commands.HandlerOption[BuildFeedCommand]{
		commands.WithLogger[BuildFeedCommand](baseLogger),
		commands.WithOperation[BuildFeedCommand]("static.feed"),
		commands.WithTelemetry(commands.DefaultTelemetry[BuildFeedCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &BuildFeedHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[BuildFeedCommand].
func (h *BuildFeedHandler) Execute(ctx context.Context, msg BuildFeedCommand) error {
	return h.inner.Execute(ctx, msg)
}

// SpliceIndexHandler splices a list fragment into a home page on disk.
type SpliceIndexHandler struct {
	inner *commands.Handler[SpliceIndexCommand]
}

// NewSpliceIndexHandler constructs a handler reading and writing through fs.
func NewSpliceIndexHandler(fs afero.Fs, splicer *splice.Splicer, logger interfaces.Logger, opts ...commands.HandlerOption[SpliceIndexCommand]) *SpliceIndexHandler {
	baseLogger := commands.EnsureLogger(logger)

	exec := func(ctx context.Context, msg SpliceIndexCommand) error {
		doc, err := afero.ReadFile(fs, strings.TrimSpace(msg.IndexPath))
		if err != nil {
			return fmt.Errorf("read index: %w", err)
		}
		list, err := afero.ReadFile(fs, strings.TrimSpace(msg.ListPath))
		if err != nil {
			return fmt.Errorf("read list: %w", err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		result := splicer.Splice(splice.Input{Document: doc, List: string(list)})
		if msg.Callback != nil {
			msg.Callback(result)
		}
		if result.Strategy == "" {
			baseLogger.Warn("static.splice.no_container", "index", msg.IndexPath)
		}
		if err := fs.MkdirAll(filepath.Dir(msg.Target()), 0o755); err != nil {
			return fmt.Errorf("create %s: %w", filepath.Dir(msg.Target()), err)
		}
		if err := afero.WriteFile(fs, msg.Target(), result.Document, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", msg.Target(), err)
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[SpliceIndexCommand]{
		commands.WithLogger[SpliceIndexCommand](baseLogger),
		commands.WithOperation[SpliceIndexCommand]("static.splice"),
		commands.WithMessageFields(func(msg SpliceIndexCommand) map[string]any {
			return map[string]any{
				"index":  msg.IndexPath,
				"list":   msg.ListPath,
				"output": msg.Target(),
			}
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[SpliceIndexCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &SpliceIndexHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[SpliceIndexCommand].
func (h *SpliceIndexHandler) Execute(ctx context.Context, msg SpliceIndexCommand) error {
	return h.inner.Execute(ctx, msg)
}

// ExtractTemplateHandler reports the fragments a reference page yields.
type ExtractTemplateHandler struct {
	inner *commands.Handler[ExtractTemplateCommand]
}

// NewExtractTemplateHandler constructs a handler around extractor. Extraction
// never fails; fallbacks are reported through the callback and the log.
func NewExtractTemplateHandler(extractor *template.Extractor, logger interfaces.Logger, opts ...commands.HandlerOption[ExtractTemplateCommand]) *ExtractTemplateHandler {
	baseLogger := commands.EnsureLogger(logger)

	exec := func(ctx context.Context, msg ExtractTemplateCommand) error {
		var result template.Result
		if source := strings.TrimSpace(msg.Source); source != "" {
			result = extractor.ExtractFile(ctx, source)
		} else {
			result = extractor.Extract(ctx)
		}
		if result.Fallback {
			baseLogger.Warn("static.extract.fallback", "source", result.Source, "error", result.Err)
		}
		if msg.Callback != nil {
			msg.Callback(result)
		}
		return ctx.Err()
	}

	handlerOpts := []commands.HandlerOption[ExtractTemplateCommand]{
		commands.WithLogger[ExtractTemplateCommand](baseLogger),
		commands.WithOperation[ExtractTemplateCommand]("static.extract"),
		commands.WithTelemetry(commands.DefaultTelemetry[ExtractTemplateCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ExtractTemplateHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[ExtractTemplateCommand].
func (h *ExtractTemplateHandler) Execute(ctx context.Context, msg ExtractTemplateCommand) error {
	return h.inner.Execute(ctx, msg)
}

func invokeCallback(cb ResultCallback, envelope ResultEnvelope) {
	if cb == nil {
		return
	}
	cb(envelope)
}
